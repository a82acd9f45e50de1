package jflow

import "fmt"

// event is a single flattened Handler callback, used by tests to diff a
// whole parse against an expected trace with go-cmp.
type event struct {
	Kind string
	Str  string
	I64  int64
	U64  uint64
	F64  float64
	Prec uint8
	Bool bool
	Tag  Tag
}

// recorder is a Handler that appends every callback it receives to Events,
// for use with go-cmp in table-driven tests.
type recorder struct {
	Events []event
	stop   bool
}

func (r *recorder) BeginDocument() { r.Events = append(r.Events, event{Kind: "BeginDocument"}) }
func (r *recorder) EndDocument()   { r.Events = append(r.Events, event{Kind: "EndDocument"}) }

func (r *recorder) BeginObject(Context) bool {
	r.Events = append(r.Events, event{Kind: "BeginObject"})
	return true
}

// EndObject and EndArray are the only callbacks that honor stop, so a
// stop-requesting recorder still completes the container it is currently
// inside before asking the parser to halt at the next safe boundary.
func (r *recorder) EndObject(Context) bool {
	r.Events = append(r.Events, event{Kind: "EndObject"})
	return !r.stop
}
func (r *recorder) BeginArray(Context) bool {
	r.Events = append(r.Events, event{Kind: "BeginArray"})
	return true
}
func (r *recorder) EndArray(Context) bool {
	r.Events = append(r.Events, event{Kind: "EndArray"})
	return !r.stop
}

func (r *recorder) Name(text []byte, ctx Context) {
	r.Events = append(r.Events, event{Kind: "Name", Str: string(text)})
}

func (r *recorder) StringValue(text []byte, ctx Context) {
	r.Events = append(r.Events, event{Kind: "String", Str: string(text)})
}
func (r *recorder) Int64Value(v int64, tag Tag, ctx Context) {
	r.Events = append(r.Events, event{Kind: "Int64", I64: v, Tag: tag})
}
func (r *recorder) Uint64Value(v uint64, tag Tag, ctx Context) {
	r.Events = append(r.Events, event{Kind: "Uint64", U64: v, Tag: tag})
}
func (r *recorder) DoubleValue(v float64, precision uint8, ctx Context) {
	r.Events = append(r.Events, event{Kind: "Double", F64: v, Prec: precision})
}
func (r *recorder) BoolValue(v bool, ctx Context) {
	r.Events = append(r.Events, event{Kind: "Bool", Bool: v})
}
func (r *recorder) NullValue(ctx Context) { r.Events = append(r.Events, event{Kind: "Null"}) }
func (r *recorder) ByteStringValue(v []byte, tag Tag, ctx Context) {
	r.Events = append(r.Events, event{Kind: "ByteString", Str: string(v), Tag: tag})
}

func ev(kind string) event { return event{Kind: kind} }
func evName(s string) event { return event{Kind: "Name", Str: s} }
func evString(s string) event { return event{Kind: "String", Str: s} }
func evInt64(v int64) event { return event{Kind: "Int64", I64: v} }
func evUint64(v uint64) event { return event{Kind: "Uint64", U64: v} }
func evDouble(v float64, prec uint8) event { return event{Kind: "Double", F64: v, Prec: prec} }
func evBool(b bool) event { return event{Kind: "Bool", Bool: b} }

func (e event) String() string {
	return fmt.Sprintf("%s(%q,%d,%d,%v,%d,%v)", e.Kind, e.Str, e.I64, e.U64, e.F64, e.Prec, e.Bool)
}
