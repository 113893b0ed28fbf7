package protocol

import (
	"bytes"
	"unicode/utf8"
)

// Terminator ends every line and every bulk payload.
var Terminator = []byte("\r\n")

// ExtractLine returns the bytes between *pos and the next CRLF, and moves
// *pos past the terminator.
//
// If no terminator is found the cursor is moved to the end of the buffer and
// an *OutOfBoundsError is returned. A lone '\r' at the end of buf, or a '\n'
// without a preceding '\r', is not a terminator.
func ExtractLine(buf []byte, pos *int) ([]byte, error) {
	if *pos >= len(buf) {
		return nil, outOfBounds(*pos)
	}

	// Too short to ever hold a terminator
	if len(buf)-*pos < len(Terminator) {
		*pos = len(buf)
		return nil, outOfBounds(*pos)
	}

	i := bytes.Index(buf[*pos:], Terminator)
	if i < 0 {
		*pos = len(buf)
		return nil, outOfBounds(*pos)
	}

	line := make([]byte, i)
	copy(line, buf[*pos:*pos+i])

	*pos += i + len(Terminator)
	return line, nil
}

// ExtractLineString is ExtractLine followed by a UTF-8 check. On
// ErrInvalidEncoding the cursor has already moved past the line.
func ExtractLineString(buf []byte, pos *int) (string, error) {
	line, err := ExtractLine(buf, pos)
	if err != nil {
		return "", err
	}

	return toText(line)
}

func toText(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", ErrInvalidEncoding
	}

	return string(b), nil
}
