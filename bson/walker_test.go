package bson_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/relstream/jflow"
	jbson "github.com/relstream/jflow/bson"
	mdbson "go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type event struct {
	Kind string
	Str  string
	I64  int64
	U64  uint64
	F64  float64
	Bool bool
	Tag  jflow.Tag
}

type recorder struct {
	Events []event
}

func (r *recorder) BeginDocument() { r.Events = append(r.Events, event{Kind: "BeginDocument"}) }
func (r *recorder) EndDocument()   { r.Events = append(r.Events, event{Kind: "EndDocument"}) }
func (r *recorder) BeginObject(jflow.Context) bool {
	r.Events = append(r.Events, event{Kind: "BeginObject"})
	return true
}
func (r *recorder) EndObject(jflow.Context) bool {
	r.Events = append(r.Events, event{Kind: "EndObject"})
	return true
}
func (r *recorder) BeginArray(jflow.Context) bool {
	r.Events = append(r.Events, event{Kind: "BeginArray"})
	return true
}
func (r *recorder) EndArray(jflow.Context) bool {
	r.Events = append(r.Events, event{Kind: "EndArray"})
	return true
}
func (r *recorder) Name(text []byte, ctx jflow.Context) {
	r.Events = append(r.Events, event{Kind: "Name", Str: string(text)})
}
func (r *recorder) StringValue(text []byte, ctx jflow.Context) {
	r.Events = append(r.Events, event{Kind: "String", Str: string(text)})
}
func (r *recorder) Int64Value(v int64, tag jflow.Tag, ctx jflow.Context) {
	r.Events = append(r.Events, event{Kind: "Int64", I64: v, Tag: tag})
}
func (r *recorder) Uint64Value(v uint64, tag jflow.Tag, ctx jflow.Context) {
	r.Events = append(r.Events, event{Kind: "Uint64", U64: v, Tag: tag})
}
func (r *recorder) DoubleValue(v float64, precision uint8, ctx jflow.Context) {
	r.Events = append(r.Events, event{Kind: "Double", F64: v})
}
func (r *recorder) BoolValue(v bool, ctx jflow.Context) {
	r.Events = append(r.Events, event{Kind: "Bool", Bool: v})
}
func (r *recorder) NullValue(ctx jflow.Context) { r.Events = append(r.Events, event{Kind: "Null"}) }
func (r *recorder) ByteStringValue(v []byte, tag jflow.Tag, ctx jflow.Context) {
	r.Events = append(r.Events, event{Kind: "ByteString", Str: string(v), Tag: tag})
}

func decodeOne(t *testing.T, raw []byte) *recorder {
	t.Helper()
	rec := &recorder{}
	src := jbson.NewReaderSource(bufio.NewReader(bytes.NewReader(raw)))
	w := jbson.NewWalker(src, rec, jflow.StopOnError{})
	if err := w.Decode(); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return rec
}

func TestWalkerBasicDocument(t *testing.T) {
	t.Parallel()
	raw, err := mdbson.Marshal(mdbson.D{
		{Key: "a", Value: int32(1)},
		{Key: "b", Value: "hello"},
		{Key: "c", Value: true},
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	rec := decodeOne(t, raw)
	want := []event{
		{Kind: "BeginDocument"},
		{Kind: "BeginObject"},
		{Kind: "Name", Str: "a"},
		{Kind: "Int64", I64: 1},
		{Kind: "Name", Str: "b"},
		{Kind: "String", Str: "hello"},
		{Kind: "Name", Str: "c"},
		{Kind: "Bool", Bool: true},
		{Kind: "EndObject"},
		{Kind: "EndDocument"},
	}
	if diff := cmp.Diff(want, rec.Events); diff != "" {
		t.Errorf("event trace mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkerNestedDocumentAndArray(t *testing.T) {
	t.Parallel()
	raw, err := mdbson.Marshal(mdbson.D{
		{Key: "nested", Value: mdbson.D{{Key: "x", Value: int32(2)}}},
		{Key: "list", Value: mdbson.A{int32(1), int32(2), int32(3)}},
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	rec := decodeOne(t, raw)
	var begins, ends, begArr, endArr int
	for _, e := range rec.Events {
		switch e.Kind {
		case "BeginObject":
			begins++
		case "EndObject":
			ends++
		case "BeginArray":
			begArr++
		case "EndArray":
			endArr++
		}
	}
	if begins != ends {
		t.Errorf("BeginObject=%d EndObject=%d, want equal", begins, ends)
	}
	if begArr != endArr {
		t.Errorf("BeginArray=%d EndArray=%d, want equal", begArr, endArr)
	}
	if begins != 2 {
		t.Errorf("BeginObject count = %d, want 2 (top-level + nested)", begins)
	}
	if begArr != 1 {
		t.Errorf("BeginArray count = %d, want 1", begArr)
	}
}

func TestWalkerTypeDispatch(t *testing.T) {
	t.Parallel()
	raw, err := mdbson.Marshal(mdbson.D{
		{Key: "dbl", Value: 3.5},
		{Key: "i64", Value: int64(9223372036854775807)},
		{Key: "null", Value: nil},
		{Key: "bin", Value: primitive.Binary{Subtype: 0, Data: []byte("abc")}},
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	rec := decodeOne(t, raw)
	kinds := map[string]event{}
	for _, e := range rec.Events {
		if e.Kind == "Double" || e.Kind == "Int64" || e.Kind == "Null" || e.Kind == "ByteString" {
			kinds[e.Kind] = e
		}
	}
	if kinds["Double"].F64 != 3.5 {
		t.Errorf("Double = %v, want 3.5", kinds["Double"].F64)
	}
	if kinds["Int64"].I64 != 9223372036854775807 {
		t.Errorf("Int64 = %v, want max int64", kinds["Int64"].I64)
	}
	if _, ok := kinds["Null"]; !ok {
		t.Error("expected a Null event")
	}
	if kinds["ByteString"].Str != "abc" {
		t.Errorf("ByteString = %q, want %q", kinds["ByteString"].Str, "abc")
	}
}

func TestWalkerInvalidLength(t *testing.T) {
	t.Parallel()
	raw, err := mdbson.Marshal(mdbson.D{{Key: "a", Value: int32(1)}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// Corrupt the leading length prefix so it no longer matches the
	// actual document length, provoking ErrInvalidLength.
	corrupt := append([]byte(nil), raw...)
	corrupt[0] = 0x01
	src := jbson.NewReaderSource(bufio.NewReader(bytes.NewReader(corrupt)))
	w := jbson.NewWalker(src, &recorder{}, jflow.StopOnError{})
	if err := w.Decode(); err == nil {
		t.Fatal("expected an error for a corrupted length prefix")
	}
}

func TestWalkerMaxDepth(t *testing.T) {
	t.Parallel()
	raw, err := mdbson.Marshal(mdbson.D{
		{Key: "a", Value: mdbson.D{{Key: "b", Value: mdbson.D{{Key: "c", Value: int32(1)}}}}},
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	ceh := &jflow.CollectErrors{}
	src := jbson.NewReaderSource(bufio.NewReader(bytes.NewReader(raw)))
	w := jbson.NewWalker(src, &recorder{}, ceh)
	w.SetMaxDepth(2)
	_ = w.Decode()
	found := false
	for _, e := range ceh.Errors {
		if e.Code == jflow.ErrMaxDepthExceeded {
			found = true
		}
	}
	if !found {
		t.Error("expected at least one MaxDepthExceeded diagnostic")
	}
}

// TestBSONIdempotence checks that decoding a document produced by
// mongo-driver's own marshaler and re-marshaling the observed events back
// into a bson.D round-trips to an equivalent document, exercising the
// walker against an external oracle rather than only against itself.
func TestBSONIdempotence(t *testing.T) {
	t.Parallel()
	orig := mdbson.D{
		{Key: "name", Value: "gopher"},
		{Key: "count", Value: int32(7)},
		{Key: "ok", Value: true},
	}
	raw, err := mdbson.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := mdbson.Raw(raw).Validate(); err != nil {
		t.Fatalf("mongo-driver rejects its own document: %v", err)
	}
	rec := decodeOne(t, raw)
	rebuilt := mdbson.D{}
	var pendingName string
	for _, e := range rec.Events {
		switch e.Kind {
		case "Name":
			pendingName = e.Str
		case "String":
			rebuilt = append(rebuilt, mdbson.E{Key: pendingName, Value: e.Str})
		case "Int64":
			rebuilt = append(rebuilt, mdbson.E{Key: pendingName, Value: int32(e.I64)})
		case "Bool":
			rebuilt = append(rebuilt, mdbson.E{Key: pendingName, Value: e.Bool})
		}
	}
	raw2, err := mdbson.Marshal(rebuilt)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if !bytes.Equal(raw, raw2) {
		t.Errorf("round trip mismatch:\norig: %x\nredo: %x", raw, raw2)
	}
}
