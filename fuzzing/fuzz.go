// +build gofuzz

package fuzzing

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/relstream/jflow"
	jbson "github.com/relstream/jflow/bson"
	"go.mongodb.org/mongo-driver/bson"
)

var ErrPanicked = errors.New("Panicked")
var ErrIgnore = errors.New("Ignore")

// discardHandler records nothing; the fuzz targets only care whether a
// parse succeeds or fails, not the token stream it produces.
type discardHandler struct{}

func (discardHandler) BeginDocument()                 {}
func (discardHandler) EndDocument()                   {}
func (discardHandler) BeginObject(jflow.Context) bool { return true }
func (discardHandler) EndObject(jflow.Context) bool   { return true }
func (discardHandler) BeginArray(jflow.Context) bool  { return true }
func (discardHandler) EndArray(jflow.Context) bool    { return true }
func (discardHandler) Name([]byte, jflow.Context)     {}
func (discardHandler) StringValue([]byte, jflow.Context)              {}
func (discardHandler) Int64Value(int64, jflow.Tag, jflow.Context)     {}
func (discardHandler) Uint64Value(uint64, jflow.Tag, jflow.Context)   {}
func (discardHandler) DoubleValue(float64, uint8, jflow.Context)      {}
func (discardHandler) BoolValue(bool, jflow.Context)                  {}
func (discardHandler) NullValue(jflow.Context)                        {}
func (discardHandler) ByteStringValue([]byte, jflow.Tag, jflow.Context) {}

// FuzzJSON compares jflow's accept/reject verdict on data against
// encoding/json's. A mismatch means jflow is either too strict or too
// lenient relative to the reference implementation, since both are
// expected to accept the same core RFC 8259 grammar (jflow additionally
// accepts comments, which is accounted for below).
func FuzzJSON(data []byte) int {
	if shouldSkip(data) {
		return 0
	}

	score := 0

	jsonErr := unmarshalWithJSON(data)
	if jsonErr == ErrIgnore || jsonErr == ErrPanicked {
		return 0
	}

	jflowErr := parseWithJflow(data)

	if jflowErr != nil && jsonErr == nil {
		fmt.Printf("input : %s\n", trim(string(data)))
		panic(fmt.Sprintf("jflow errors when json succeeds: %v", jflowErr))
	}

	if jflowErr == nil && jsonErr != nil && !looksLikeComment(data) {
		fmt.Printf("input : %s\n", trim(string(data)))
		panic(fmt.Sprintf("jflow succeeds when json errors: %v", jsonErr))
	}

	if jflowErr == nil {
		score = 1
	}

	return score
}

// FuzzBSON compares the Walker's accept/reject verdict against
// go.mongodb.org/mongo-driver/bson's own Raw.Validate, on data treated
// directly as a candidate BSON document.
func FuzzBSON(data []byte) int {
	if len(data) < 5 {
		return 0
	}

	driverErr := validateWithDriver(data)
	walkerErr := walkWithJflow(data)

	if walkerErr != nil && driverErr == nil {
		fmt.Printf("input : %s\n", hexTrim(data))
		panic(fmt.Sprintf("jflow bson rejects a document the driver accepts: %v", walkerErr))
	}

	if walkerErr == nil && driverErr != nil {
		// The driver's Validate is stricter in places (e.g. UTF-8 in
		// unused reserved fields); treat driver-only failures as
		// uninteresting rather than a jflow bug.
		return 0
	}

	if walkerErr == nil {
		return 1
	}
	return 0
}

func unmarshalWithJSON(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPanicked
		}
	}()

	var out interface{}
	jsonErr := json.Unmarshal(data, &out)
	if jsonErr != nil && strings.Contains(jsonErr.Error(), "after top-level value") {
		return ErrIgnore
	}
	return jsonErr
}

func parseWithJflow(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPanicked
		}
	}()

	p := jflow.NewParser(discardHandler{}, jflow.StopOnError{})
	if err := p.Feed(data); err != nil {
		return err
	}
	if err := p.End(); err != nil {
		return err
	}
	return nil
}

func validateWithDriver(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPanicked
		}
	}()
	return bson.Raw(data).Validate()
}

func walkWithJflow(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPanicked
		}
	}()

	src := jbson.NewReaderSource(bufio.NewReader(bytes.NewReader(data)))
	w := jbson.NewWalker(src, discardHandler{}, jflow.StopOnError{})
	return w.Decode()
}

func looksLikeComment(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return bytes.HasPrefix(trimmed, []byte("//")) || bytes.HasPrefix(trimmed, []byte("/*"))
}

func shouldSkip(data []byte) bool {
	utf8BOM := []byte{0xEF, 0xBB, 0xBF}
	return len(data) > 2 && bytes.Equal(data[0:3], utf8BOM)
}

func trim(s string) string {
	if len(s) < 160 {
		return s
	}
	return s[0:160] + "..."
}

func hexTrim(data []byte) string {
	s := fmt.Sprintf("%x", data)
	if len(s) < 160 {
		return s
	}
	return s[0:160] + "..."
}
