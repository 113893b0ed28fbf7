package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds      = errors.New("out of bounds")
	ErrWrongType        = errors.New("wrong type sigil")
	ErrUnknown          = errors.New("unknown value type")
	ErrInvalidEncoding  = errors.New("invalid text encoding")
	ErrInvalidLength    = errors.New("invalid bulk string length")
	ErrLengthOutOfRange = errors.New("bulk string length out of range")
)

// OutOfBoundsError reports that a scan ran past the end of the buffer.
// Offset is the position the scan reached (or would have reached).
type OutOfBoundsError struct {
	Offset int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("out of bounds at index %d", e.Offset)
}

func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// LengthOutOfRangeError reports a bulk string length below -1.
type LengthOutOfRangeError struct {
	Length int64
}

func (e *LengthOutOfRangeError) Error() string {
	return fmt.Sprintf("bulk string length %d out of range", e.Length)
}

func (e *LengthOutOfRangeError) Is(target error) bool {
	return target == ErrLengthOutOfRange
}

func outOfBounds(offset int) error {
	return &OutOfBoundsError{Offset: offset}
}

// IsIncomplete returns true if err means the buffer ended before a value was
// complete. A streaming caller can retry once more bytes have arrived.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrOutOfBounds)
}

// ErrorKind returns a short, stable name for a decode error. It returns
// "internal" for errors that did not come from this package.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, ErrWrongType):
		return "wrong_type"
	case errors.Is(err, ErrUnknown):
		return "unknown"
	case errors.Is(err, ErrInvalidEncoding):
		return "invalid_encoding"
	case errors.Is(err, ErrInvalidLength):
		return "invalid_length"
	case errors.Is(err, ErrLengthOutOfRange):
		return "length_out_of_range"
	default:
		return "internal"
	}
}
