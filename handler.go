package jflow

// Tag classifies a scalar value that shares a host representation with
// other wire-level types. TagTimestamp marks int64/uint64 values that
// originated from a BSON datetime or timestamp element so a handler can
// distinguish them from ordinary integers without inspecting the source
// format.
type Tag byte

// Valid Tag values.
const (
	TagNone Tag = iota
	TagTimestamp
)

func (t Tag) String() string {
	if t == TagTimestamp {
		return "timestamp"
	}
	return "none"
}

// Context carries the position of the byte or element currently being
// reported to a Handler or ErrorHandler. For the JSON parser Line and
// Column are 1-based; the BSON walker reports Line 0 and the byte offset
// into its Source as Column.
// Values returned by a Context are only valid for the duration of the
// callback that received it.
type Context interface {
	Line() int
	Column() int
	CurrentChar() byte
}

// Handler receives semantic tokens as a document is parsed. Implementors
// own the in-memory representation, if any; jflow never builds one.
//
// BeginObject, EndObject, BeginArray, and EndArray return false to ask the
// parser to stop at the next safe boundary. All other methods have no
// return value because they cannot influence whether parsing continues.
//
// Slices passed to Name, StringValue, and ByteStringValue are borrowed:
// they may alias the input chunk and must not be retained past the
// callback.
type Handler interface {
	BeginDocument()
	EndDocument()

	BeginObject(ctx Context) bool
	EndObject(ctx Context) bool
	BeginArray(ctx Context) bool
	EndArray(ctx Context) bool

	Name(text []byte, ctx Context)

	StringValue(text []byte, ctx Context)
	Int64Value(v int64, tag Tag, ctx Context)
	Uint64Value(v uint64, tag Tag, ctx Context)
	DoubleValue(v float64, precision uint8, ctx Context)
	BoolValue(v bool, ctx Context)
	NullValue(ctx Context)
	ByteStringValue(v []byte, tag Tag, ctx Context)
}
