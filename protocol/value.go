package protocol

import "strconv"

const (
	SigilSimpleString byte = '+'
	SigilBulkString   byte = '$'
)

// Value is a decoded protocol value. It is one of Null, SimpleString or
// BulkString.
type Value interface {
	// Type returns a short name for the variant, e.g. "simple_string".
	Type() string
	String() string

	isValue()
}

// Null is a bulk string with length -1.
type Null struct{}

type SimpleString string

type BulkString string

func (Null) Type() string         { return "null" }
func (SimpleString) Type() string { return "simple_string" }
func (BulkString) Type() string   { return "bulk_string" }

func (Null) String() string { return "(nil)" }

func (s SimpleString) String() string { return string(s) }

func (s BulkString) String() string { return strconv.Quote(string(s)) }

func (Null) isValue()         {}
func (SimpleString) isValue() {}
func (BulkString) isValue()   {}

var _ Value = Null{}
var _ Value = SimpleString("")
var _ Value = BulkString("")
