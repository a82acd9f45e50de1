package jflow

import "fmt"

// ErrorCode identifies the kind of diagnostic reported by an ErrorHandler.
// The JSON parser reports only the codes declared below; package bson
// declares further codes for the BSON walker, so an ErrorHandler shared
// by both sees those as well.
type ErrorCode int

// The full set of JSON diagnostics. BSON-specific codes live in package
// bson.
const (
	ErrExtraCharacter ErrorCode = iota + 1
	ErrIllegalControlCharacter
	ErrIllegalCharacterInString
	ErrMaxDepthExceeded
	ErrUnexpectedRightBrace
	ErrUnexpectedRightBracket
	ErrInvalidJSONText
	ErrExpectedCommaOrRightBrace
	ErrExpectedCommaOrRightBracket
	ErrSingleQuote
	ErrExpectedName
	ErrExpectedColon
	ErrExtraComma
	ErrExpectedValue
	ErrExpectedCodepointSurrogatePair
	ErrInvalidHexEscapeSequence
	ErrIllegalEscapedCharacter
	ErrInvalidValue
	ErrInvalidNumber
	ErrLeadingZero
	ErrUnexpectedEOF
)

var errorCodeStr = map[ErrorCode]string{
	ErrExtraCharacter:                 "extra character after top-level value",
	ErrIllegalControlCharacter:        "illegal control character",
	ErrIllegalCharacterInString:       "illegal character in string",
	ErrMaxDepthExceeded:               "maximum nesting depth exceeded",
	ErrUnexpectedRightBrace:           "unexpected '}'",
	ErrUnexpectedRightBracket:         "unexpected ']'",
	ErrInvalidJSONText:                "invalid JSON text",
	ErrExpectedCommaOrRightBrace:      "expected ',' or '}'",
	ErrExpectedCommaOrRightBracket:    "expected ',' or ']'",
	ErrSingleQuote:                    "single quote is not a valid string delimiter",
	ErrExpectedName:                   "expected an object member name",
	ErrExpectedColon:                  "expected ':'",
	ErrExtraComma:                     "extra comma",
	ErrExpectedValue:                  "expected a value",
	ErrExpectedCodepointSurrogatePair: "expected low surrogate to complete codepoint",
	ErrInvalidHexEscapeSequence:       "invalid hex digit in \\u escape",
	ErrIllegalEscapedCharacter:        "illegal character following backslash",
	ErrInvalidValue:                   "invalid literal value",
	ErrInvalidNumber:                  "invalid number",
	ErrLeadingZero:                    "number has a redundant leading zero",
	ErrUnexpectedEOF:                  "unexpected end of input",
}

func (c ErrorCode) String() string {
	if s, ok := errorCodeStr[c]; ok {
		return s
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// ParseError records a diagnostic raised while parsing, together with the
// location at which it was raised. A default ErrorHandler that treats
// every recoverable error as fatal will surface it wrapped in a
// ParseError from Feed or End.
type ParseError struct {
	Code   ErrorCode
	Line   int
	Column int
	msg    string
}

func (pe *ParseError) Error() string {
	if pe.msg != "" {
		return fmt.Sprintf("%s (line %d, column %d): %s", pe.Code, pe.Line, pe.Column, pe.msg)
	}
	return fmt.Sprintf("%s (line %d, column %d)", pe.Code, pe.Line, pe.Column)
}

func newParseError(code ErrorCode, ctx Context) *ParseError {
	return &ParseError{Code: code, Line: ctx.Line(), Column: ctx.Column()}
}

// ErrorHandler receives diagnostics as a document is parsed.
//
// Error reports a recoverable diagnostic. Returning true tells the parser
// to recover using the locally defined repair described in spec section 7
// (skip a bad character, retain a bare control character, substitute a
// null for an unparsable number, and so on) and keep parsing. Returning
// false aborts the parse; Feed or End then return the diagnostic wrapped
// in a *ParseError.
//
// FatalError reports a diagnostic from which the parser cannot recover
// (mismatched brackets, a bare '}' or ']' at the root). The parser always
// aborts after FatalError is called; its return value, if any, is
// ignored.
type ErrorHandler interface {
	Error(code ErrorCode, ctx Context) bool
	FatalError(code ErrorCode, ctx Context)
}

// StopOnError is an ErrorHandler that treats every recoverable error as
// fatal, so the very first diagnostic aborts the parse. It is a
// reasonable default for callers that just want a single err return value
// and don't need best-effort recovery.
type StopOnError struct{}

// Error always returns false, aborting the parse.
func (StopOnError) Error(ErrorCode, Context) bool { return false }

// FatalError does nothing; the parser aborts unconditionally after a
// fatal error regardless of what the handler does.
func (StopOnError) FatalError(ErrorCode, Context) {}

// CollectErrors is an ErrorHandler that records every recoverable error
// it sees and always asks the parser to continue, so a single Feed/End
// pass can report every diagnostic in a document instead of just the
// first.
type CollectErrors struct {
	Errors []*ParseError
	Fatal  *ParseError
}

// Error records the diagnostic and returns true to continue parsing.
func (c *CollectErrors) Error(code ErrorCode, ctx Context) bool {
	c.Errors = append(c.Errors, newParseError(code, ctx))
	return true
}

// FatalError records the diagnostic that ended the parse.
func (c *CollectErrors) FatalError(code ErrorCode, ctx Context) {
	c.Fatal = newParseError(code, ctx)
}
