package bson

import "github.com/relstream/jflow"

// BSON-specific diagnostics, extending jflow's closed ErrorCode set. Values
// start well past jflow's own range so the two sets never collide; a
// jflow.ErrorHandler written against the JSON parser can be reused
// unmodified against the walker; it will simply see unfamiliar codes if it
// tries to pattern-match all of them.
const (
	ErrSourceError jflow.ErrorCode = iota + 100
	ErrInvalidUTF8TextString
	ErrInvalidLength
)
