package protocol

import (
	"io"
	"strconv"
)

var (
	// NullBulk is the wire form of Null
	NullBulk = []byte("$-1\r\n")
)

// PongReply is what the server answers with unless configured otherwise
const PongReply = SimpleString("PONG")

// Encode returns the wire form of v. A SimpleString containing CR or LF is
// written as is and will not decode back to the same value.
func Encode(v Value) []byte {
	return AppendValue(nil, v)
}

// AppendValue appends the wire form of v to dst and returns the extended
// slice.
func AppendValue(dst []byte, v Value) []byte {
	switch c := v.(type) {
	case Null:
		return append(dst, NullBulk...)

	case SimpleString:
		dst = append(dst, SigilSimpleString)
		dst = append(dst, string(c)...)
		return append(dst, Terminator...)

	case BulkString:
		dst = append(dst, SigilBulkString)
		dst = strconv.AppendInt(dst, int64(len(c)), 10)
		dst = append(dst, Terminator...)
		dst = append(dst, string(c)...)
		return append(dst, Terminator...)
	}

	// Value is sealed, nothing else can get here.
	return dst
}

// WriteValue writes the wire form of v to w in a single Write call.
func WriteValue(w io.Writer, v Value) error {
	_, err := w.Write(Encode(v))
	return err
}
