// Package protocol decodes and encodes the subset of the Redis serialization
// protocol (RESP) that respd speaks.
//
// === Wire format
//
// Every frame starts with a single sigil byte that names its type. Lines and
// payloads end with the two byte terminator `\r\n`.
//
//   ```
//   +<text>\r\n              simple string
//   $<length>\r\n<bytes>\r\n bulk string, <length> is the payload size in bytes
//   $-1\r\n                  null
//   ```
//
// For example
//   ```
//     +OK\r\n      => SimpleString("OK")
//     $2\r\nOK\r\n => BulkString("OK")
//     $-1\r\n      => Null{}
//   ```
//
// === Cursors
//
// Decoding works on a complete buffer and an int cursor that is passed by
// pointer through every step. The cursor is owned by a single decode call;
// never share one between goroutines or connections.
//
// On success the cursor points just past the decoded value. On failure it is
// left where decoding gave up, which is what the error offsets report.
//
// === Errors
//
// Errors form a closed set:
//
// - `*OutOfBoundsError`      - the buffer ended before the value did
// - `ErrWrongType`          - a decoder was handed a frame with another sigil
// - `ErrUnknown`            - the sigil is not one we know
// - `ErrInvalidEncoding`    - text is not valid UTF-8
// - `ErrInvalidLength`      - a bulk length is not a base 10 integer
// - `*LengthOutOfRangeError` - a bulk length below -1
//
// The decoder cannot tell a frame that is truncated for good from one whose
// remaining bytes are still in flight; both are OutOfBounds. Callers reading
// from a socket should treat IsIncomplete(err) as "read more and retry" up to
// some maximum frame size.
//
package protocol
