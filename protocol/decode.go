package protocol

import (
	"math"
	"strconv"
)

// Decode decodes exactly one value starting at *pos. On success *pos is moved
// past every byte the value used. On failure *pos is left where decoding gave
// up, and the error is one of the errors defined in this package.
//
// Decode only looks at the sigil byte; consuming it is left to the chosen
// decoder, so an unknown sigil leaves *pos untouched.
func Decode(buf []byte, pos *int) (Value, error) {
	if *pos >= len(buf) {
		return nil, outOfBounds(*pos)
	}

	switch buf[*pos] {
	case SigilSimpleString:
		return DecodeSimpleString(buf, pos)
	case SigilBulkString:
		return DecodeBulkString(buf, pos)
	default:
		return nil, ErrUnknown
	}
}

// DecodeAll decodes consecutive values from the start of buf. It returns the
// values decoded so far, the offset of the first byte that was not part of a
// decoded value, and the error that stopped decoding, if any.
func DecodeAll(buf []byte) ([]Value, int, error) {
	var (
		values []Value
		offset int
	)

	for offset < len(buf) {
		pos := offset

		v, err := Decode(buf, &pos)
		if err != nil {
			return values, offset, err
		}

		values = append(values, v)
		offset = pos
	}

	return values, offset, nil
}

// ExpectSigil consumes the sigil byte at *pos if it matches. A mismatch
// returns ErrWrongType and leaves *pos alone.
func ExpectSigil(sigil byte, buf []byte, pos *int) error {
	if *pos >= len(buf) {
		return outOfBounds(*pos)
	}

	if buf[*pos] != sigil {
		return ErrWrongType
	}

	*pos++
	return nil
}

// DecodeSimpleString decodes "+<text>\r\n".
func DecodeSimpleString(buf []byte, pos *int) (Value, error) {
	if err := ExpectSigil(SigilSimpleString, buf, pos); err != nil {
		return nil, err
	}

	s, err := ExtractLineString(buf, pos)
	if err != nil {
		return nil, err
	}

	return SimpleString(s), nil
}

// DecodeBulkString decodes "$<length>\r\n<payload>\r\n", or "$-1\r\n" as Null.
//
// The two bytes after the payload are skipped without being checked.
func DecodeBulkString(buf []byte, pos *int) (Value, error) {
	if err := ExpectSigil(SigilBulkString, buf, pos); err != nil {
		return nil, err
	}

	rawLength, err := ExtractLineString(buf, pos)
	if err != nil {
		return nil, err
	}

	length, err := strconv.ParseInt(rawLength, 10, 64)
	if err != nil {
		return nil, ErrInvalidLength
	}

	switch {
	case length == -1:
		return Null{}, nil
	case length < -1:
		return nil, &LengthOutOfRangeError{Length: length}
	}

	if length > int64(len(buf)-*pos) {
		return nil, outOfBounds(offsetAfter(*pos, length))
	}

	payload := buf[*pos : *pos+int(length)]
	*pos += int(length)

	text, err := toText(payload)
	if err != nil {
		return nil, err
	}

	// Keep the cursor inside the buffer when the trailing terminator
	// has not arrived yet.
	if len(buf)-*pos < len(Terminator) {
		*pos = len(buf)
		return nil, outOfBounds(*pos)
	}

	*pos += len(Terminator)
	return BulkString(text), nil
}

// offsetAfter returns pos+n, saturating at math.MaxInt.
func offsetAfter(pos int, n int64) int {
	if n > int64(math.MaxInt-pos) {
		return math.MaxInt
	}

	return pos + int(n)
}
