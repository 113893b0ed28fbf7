package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/sjson"

	"github.com/luma/respd/protocol"
)

func decodeHandler(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxDecodeBodySize))
	if err != nil {
		c.String(http.StatusRequestEntityTooLarge, "%s", err.Error())
		return
	}

	report, err := DecodeReport(body)
	if err != nil {
		c.String(http.StatusInternalServerError, "%s", err.Error())
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", report)
}

// DecodeReport decodes every frame in buf and describes the result as JSON:
//
//	{"values":[{"type":"bulk_string","value":"OK"}],"cursor":8}
//
// If decoding stopped early an "error" object names the error kind, its
// message and, where there is one, the offset or bad length.
func DecodeReport(buf []byte) ([]byte, error) {
	values, cursor, decodeErr := protocol.DecodeAll(buf)

	report := []byte(`{"values":[]}`)

	var err error
	for _, v := range values {
		entry := map[string]interface{}{
			"type":  v.Type(),
			"value": valueText(v),
		}

		if report, err = sjson.SetBytes(report, "values.-1", entry); err != nil {
			return nil, err
		}
	}

	if report, err = sjson.SetBytes(report, "cursor", cursor); err != nil {
		return nil, err
	}

	if decodeErr == nil {
		return report, nil
	}

	if report, err = sjson.SetBytes(report, "error.kind", protocol.ErrorKind(decodeErr)); err != nil {
		return nil, err
	}

	if report, err = sjson.SetBytes(report, "error.message", decodeErr.Error()); err != nil {
		return nil, err
	}

	var (
		oob    *protocol.OutOfBoundsError
		lenErr *protocol.LengthOutOfRangeError
	)

	switch {
	case errors.As(decodeErr, &oob):
		report, err = sjson.SetBytes(report, "error.offset", oob.Offset)
	case errors.As(decodeErr, &lenErr):
		report, err = sjson.SetBytes(report, "error.length", lenErr.Length)
	}

	if err != nil {
		return nil, err
	}

	return report, nil
}

// valueText returns the text of v, or nil for Null.
func valueText(v protocol.Value) interface{} {
	switch c := v.(type) {
	case protocol.SimpleString:
		return string(c)
	case protocol.BulkString:
		return string(c)
	default:
		return nil
	}
}
