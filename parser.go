// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package jflow

import (
	"math"

	"go4.org/mem"

	"github.com/relstream/jflow/internal/fastio"
)

var (
	literalTrue  = []byte("rue")
	literalFalse = []byte("alse")
	literalNull  = []byte("ull")
)

type literalMatch struct {
	want []byte
	got  []byte
}

// Parser is a resumable, chunk-fed JSON state machine. The zero value is
// not usable; construct one with NewParser.
//
// A Parser is not safe for concurrent use. Feed must not be called again
// until a previous call has returned, and slices reported to the Handler
// during a Feed call must not be retained past that call.
type Parser struct {
	handler    Handler
	errHandler ErrorHandler

	stack stateStack
	depth int

	maxDepth int
	comments bool

	line, column int
	ctx          parseContext

	num numberBuf
	str stringBuf
	cp  codepointScratch
	lit literalMatch

	chunk []byte
	pos   int

	aborted bool
	stopped bool
	err     error
}

// MaxDepthUnbounded is the default maximum nesting depth: effectively no
// limit, per spec section 3 ("default: maximum representable positive
// integer").
const MaxDepthUnbounded = math.MaxInt

// NewParser constructs a Parser that reports tokens to handler and
// diagnostics to errHandler. Comments are accepted by default; call
// AllowComments(false) to reject them.
func NewParser(handler Handler, errHandler ErrorHandler) *Parser {
	p := &Parser{
		handler:    handler,
		errHandler: errHandler,
		maxDepth:   MaxDepthUnbounded,
		comments:   true,
	}
	p.num.buf = fastio.Get(64)
	p.str.buf = fastio.Get(64)
	p.lit.got = fastio.Get(8)
	p.Reset()
	return p
}

// Close returns the parser's scratch buffers to the shared fastio pool.
// It is optional: a Parser left to be garbage collected without a Close
// call works fine, but a server constructing many short-lived Parsers
// should call it to let those buffers be reused. The Parser must not be
// used again afterward.
func (p *Parser) Close() {
	fastio.Put(p.num.buf)
	fastio.Put(p.str.buf)
	fastio.Put(p.lit.got)
	p.num.buf, p.str.buf, p.lit.got = nil, nil, nil
}

// Reset reinitializes the parser to begin a new top-level document,
// reusing its accumulator buffers. It does not reset AllowComments or
// SetMaxDepth configuration.
func (p *Parser) Reset() {
	p.stack = newStateStack()
	p.depth = 0
	p.line, p.column = 1, 1
	p.num.reset()
	p.str.reset()
	p.cp.reset()
	p.aborted = false
	p.stopped = false
	p.err = nil
}

// AllowComments configures whether the parser accepts C/C++ style
// comments. Enabled by default.
func (p *Parser) AllowComments(ok bool) { p.comments = ok }

// SetMaxDepth bounds nesting depth. Exceeding it reports MaxDepthExceeded
// but, by default recovery, does not stop the parse (see spec section 7).
func (p *Parser) SetMaxDepth(n int) { p.maxDepth = n }

// Done reports whether the parser has reached the terminal state for the
// current document.
func (p *Parser) Done() bool { return p.stack.top() == Done }

// Stopped reports whether the Handler asked the parser to stop by
// returning false from EndObject or EndArray.
func (p *Parser) Stopped() bool { return p.stopped }

// Depth reports the current nesting depth.
func (p *Parser) Depth() int { return p.depth }

// Feed advances the parser over chunk, stopping when the chunk is
// exhausted, the document reaches Done, the Handler asks to stop, or an
// error aborts the parse. It is resumable: a later Feed call continues
// exactly where this one left off.
func (p *Parser) Feed(chunk []byte) error {
	if p.aborted {
		return p.err
	}
	p.chunk = chunk
	p.pos = 0
	for p.pos < len(chunk) && !p.aborted && !p.stopped && p.stack.top() != Done {
		ch := chunk[p.pos]
		p.ctx.line, p.ctx.column, p.ctx.current = p.line, p.column, ch
		if p.step(chunk, ch) {
			continue
		}
		p.pos++
		p.column++
	}
	return p.err
}

// End signals that no more input will arrive. It flushes a trailing
// number left in the accumulator (a bare top-level number has no
// terminator other than end of input) and reports UnexpectedEOF if the
// document never reached Done.
func (p *Parser) End() error {
	if p.aborted {
		return p.err
	}
	if p.stack.depth() >= 2 && p.stack.under() == Root {
		switch p.stack.top() {
		case Zero, Integer:
			p.endInteger()
		case Fraction, Exp3:
			p.endFraction()
		}
	}
	if p.stack.depth() == 2 && p.stack.top() == Done {
		// Done takes Root's place, leaving it as the sole state.
		p.stack.pop()
		p.stack.setTop(Done)
	}
	if p.stack.top() != Done && !p.aborted {
		p.ctx.line, p.ctx.column, p.ctx.current = p.line, p.column, 0
		p.errHandler.Error(ErrUnexpectedEOF, &p.ctx)
		if p.err == nil {
			p.err = newParseError(ErrUnexpectedEOF, &p.ctx)
		}
	}
	return p.err
}

// CheckTrailing reports ExtraCharacter for the first non-whitespace byte
// in rest. It is meant for one-shot callers that fed a whole document and
// want to detect trailing garbage after the top-level value closed,
// mirroring jsoncons' check_done.
func (p *Parser) CheckTrailing(rest []byte) error {
	for _, ch := range rest {
		switch ch {
		case '\n', '\r', '\t', ' ':
		default:
			p.ctx.line, p.ctx.column, p.ctx.current = p.line, p.column, ch
			if !p.errHandler.Error(ErrExtraCharacter, &p.ctx) {
				return newParseError(ErrExtraCharacter, &p.ctx)
			}
		}
	}
	return nil
}

// step processes one input byte and reports whether it already advanced
// p.pos/p.column itself (true), or whether the caller should apply the
// common single-byte advance (false).
func (p *Parser) step(chunk []byte, ch byte) bool {
	switch p.stack.top() {
	case CR:
		p.line++
		p.column = 1
		if ch == '\n' {
			p.stack.pop()
			p.pos++
		} else {
			p.stack.pop()
		}
		return true
	case LF:
		p.line++
		p.column = 1
		p.stack.pop()
		return true

	case Start:
		p.stepStart(chunk, ch)
	case ExpectCommaOrEnd:
		return p.stepExpectCommaOrEnd(chunk, ch)
	case ExpectMemberNameOrEnd:
		return p.stepExpectMemberNameOrEnd(chunk, ch)
	case ExpectMemberName:
		return p.stepExpectMemberName(chunk, ch)
	case ExpectColon:
		return p.stepExpectColon(chunk, ch)
	case ExpectValue:
		return p.stepExpectValue(chunk, ch)
	case Array:
		return p.stepArray(chunk, ch)

	case String:
		p.scanString(chunk)
		return true
	case Escape:
		p.escapeNextChar(ch)
	case U1:
		if p.appendCodepoint1(ch) {
			p.stack.setTop(U2)
		}
	case U2:
		if p.appendCodepoint1(ch) {
			p.stack.setTop(U3)
		}
	case U3:
		if p.appendCodepoint1(ch) {
			p.stack.setTop(U4)
		}
	case U4:
		if p.appendCodepoint1(ch) {
			p.afterU4()
		}
	case ExpectSurrogatePair1:
		if ch == '\\' {
			p.cp.cp2 = 0
			p.stack.setTop(ExpectSurrogatePair2)
		} else {
			p.recoverOrAbort(ErrExpectedCodepointSurrogatePair)
		}
	case ExpectSurrogatePair2:
		if ch == 'u' {
			p.stack.setTop(U6)
		} else {
			p.recoverOrAbort(ErrExpectedCodepointSurrogatePair)
		}
	case U6:
		if p.appendCodepoint2(ch) {
			p.stack.setTop(U7)
		}
	case U7:
		if p.appendCodepoint2(ch) {
			p.stack.setTop(U8)
		}
	case U8:
		if p.appendCodepoint2(ch) {
			p.stack.setTop(U9)
		}
	case U9:
		if p.appendCodepoint2(ch) {
			p.str.writeRune(combineSurrogates(p.cp.cp1, p.cp.cp2))
			p.stack.setTop(String)
		}

	case Minus:
		switch {
		case ch == '0':
			p.num.writeByte(ch)
			p.stack.setTop(Zero)
		case isDigit(ch):
			p.num.writeByte(ch)
			p.stack.setTop(Integer)
		default:
			p.recoverOrAbort(ErrExpectedValue)
		}
	case Zero:
		return p.stepZero(chunk, ch)
	case Integer:
		return p.stepInteger(chunk, ch)
	case Fraction:
		return p.stepFraction(chunk, ch)
	case Exp1:
		switch {
		case ch == '+':
			p.stack.setTop(Exp2)
		case ch == '-':
			p.num.writeByte(ch)
			p.stack.setTop(Exp2)
		case isDigit(ch):
			p.num.writeByte(ch)
			p.stack.setTop(Exp3)
		default:
			p.recoverOrAbort(ErrExpectedValue)
		}
	case Exp2:
		if isDigit(ch) {
			p.num.writeByte(ch)
			p.stack.setTop(Exp3)
		} else {
			p.recoverOrAbort(ErrExpectedValue)
		}
	case Exp3:
		return p.stepExp3(chunk, ch)

	case T:
		p.matchLiteral(chunk)
		return true
	case F:
		p.matchLiteral(chunk)
		return true
	case N:
		p.matchLiteral(chunk)
		return true

	case Slash:
		switch ch {
		case '*':
			p.stack.setTop(SlashStar)
		case '/':
			p.stack.setTop(SlashSlash)
		default:
			p.recoverOrAbort(ErrInvalidJSONText)
		}
	case SlashStar:
		switch ch {
		case '\r':
			p.stack.push(CR)
		case '\n':
			p.stack.push(LF)
		case '*':
			p.stack.setTop(SlashStarStar)
		}
	case SlashSlash:
		switch ch {
		case '\r':
			p.stack.setTop(CR)
		case '\n':
			p.stack.setTop(LF)
		}
	case SlashStarStar:
		switch ch {
		case '/':
			p.stack.pop()
		default:
			p.stack.setTop(SlashStar)
		}
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// consumeWS advances past the current whitespace byte and any
// consecutive run of further spaces/tabs, matching the "fast inner loop"
// described in spec section 4.1.
func (p *Parser) consumeWS(chunk []byte) {
	p.pos++
	p.column++
	for p.pos < len(chunk) {
		switch chunk[p.pos] {
		case ' ', '\t':
			p.pos++
			p.column++
		default:
			return
		}
	}
}

func (p *Parser) stepStart(chunk []byte, ch byte) {
	switch {
	case ch == '\r':
		p.stack.push(CR)
	case ch == '\n':
		p.stack.push(LF)
	case ch == ' ' || ch == '\t':
	case ch == '/' && p.comments:
		p.stack.push(Slash)
	case ch == '{':
		p.handler.BeginDocument()
		p.enterContainer('{')
	case ch == '[':
		p.handler.BeginDocument()
		p.enterContainer('[')
	case ch == '"':
		p.handler.BeginDocument()
		p.stack.setTop(String)
	case ch == '-':
		p.handler.BeginDocument()
		p.num.negative = true
		p.stack.setTop(Minus)
	case ch == '0':
		p.handler.BeginDocument()
		p.num.writeByte(ch)
		p.stack.setTop(Zero)
	case isDigit(ch):
		p.handler.BeginDocument()
		p.num.writeByte(ch)
		p.stack.setTop(Integer)
	case ch == 'f':
		p.handler.BeginDocument()
		p.startLiteral(F)
	case ch == 'n':
		p.handler.BeginDocument()
		p.startLiteral(N)
	case ch == 't':
		p.handler.BeginDocument()
		p.startLiteral(T)
	case ch == '}':
		p.reportFatal(ErrUnexpectedRightBrace)
	case ch == ']':
		p.reportFatal(ErrUnexpectedRightBracket)
	default:
		p.reportFatal(ErrInvalidJSONText)
	}
}

func (p *Parser) stepExpectCommaOrEnd(chunk []byte, ch byte) bool {
	switch {
	case ch == '\r':
		p.stack.push(CR)
	case ch == '\n':
		p.stack.push(LF)
	case ch == ' ' || ch == '\t':
		p.consumeWS(chunk)
		return true
	case ch == '/' && p.comments:
		p.stack.push(Slash)
	case ch == '}':
		p.closeObject()
	case ch == ']':
		p.closeArray()
	case ch == ',':
		p.beginMemberOrElement()
	default:
		if p.stack.under() == Array {
			p.recoverOrAbort(ErrExpectedCommaOrRightBracket)
		} else {
			p.recoverOrAbort(ErrExpectedCommaOrRightBrace)
		}
	}
	return false
}

func (p *Parser) stepExpectMemberNameOrEnd(chunk []byte, ch byte) bool {
	switch {
	case ch == '\r':
		p.stack.push(CR)
	case ch == '\n':
		p.stack.push(LF)
	case ch == ' ' || ch == '\t':
		p.consumeWS(chunk)
		return true
	case ch == '/' && p.comments:
		p.stack.push(Slash)
	case ch == '}':
		p.closeObject()
	case ch == '"':
		p.stack.setTop(MemberName)
		p.stack.push(String)
	case ch == '\'':
		p.recoverOrAbort(ErrSingleQuote)
	default:
		p.recoverOrAbort(ErrExpectedName)
	}
	return false
}

func (p *Parser) stepExpectMemberName(chunk []byte, ch byte) bool {
	switch {
	case ch == '\r':
		p.stack.push(CR)
	case ch == '\n':
		p.stack.push(LF)
	case ch == ' ' || ch == '\t':
		p.consumeWS(chunk)
		return true
	case ch == '/' && p.comments:
		p.stack.push(Slash)
	case ch == '"':
		p.stack.setTop(MemberName)
		p.stack.push(String)
	case ch == '}':
		p.depth--
		p.recoverOrAbort(ErrExtraComma)
	case ch == '\'':
		p.recoverOrAbort(ErrSingleQuote)
	default:
		p.recoverOrAbort(ErrExpectedName)
	}
	return false
}

func (p *Parser) stepExpectColon(chunk []byte, ch byte) bool {
	switch {
	case ch == '\r':
		p.stack.push(CR)
	case ch == '\n':
		p.stack.push(LF)
	case ch == ' ' || ch == '\t':
		p.consumeWS(chunk)
		return true
	case ch == '/' && p.comments:
		p.stack.push(Slash)
	case ch == ':':
		p.stack.setTop(ExpectValue)
	default:
		p.recoverOrAbort(ErrExpectedColon)
	}
	return false
}

func (p *Parser) stepExpectValue(chunk []byte, ch byte) bool {
	switch {
	case ch == '\r':
		p.stack.push(CR)
	case ch == '\n':
		p.stack.push(LF)
	case ch == ' ' || ch == '\t':
		p.consumeWS(chunk)
		return true
	case ch == '/' && p.comments:
		p.stack.push(Slash)
	case ch == '{':
		p.enterContainer('{')
	case ch == '[':
		p.enterContainer('[')
	case ch == '"':
		p.stack.setTop(String)
	case ch == '-':
		p.num.negative = true
		p.stack.setTop(Minus)
	case ch == '0':
		p.num.writeByte(ch)
		p.stack.setTop(Zero)
	case isDigit(ch):
		p.num.writeByte(ch)
		p.stack.setTop(Integer)
	case ch == 'f':
		p.startLiteral(F)
	case ch == 'n':
		p.startLiteral(N)
	case ch == 't':
		p.startLiteral(T)
	case ch == ']':
		if p.stack.under() == Array {
			p.recoverOrAbort(ErrExtraComma)
		} else {
			p.recoverOrAbort(ErrExpectedValue)
		}
	case ch == '\'':
		p.recoverOrAbort(ErrSingleQuote)
	default:
		p.recoverOrAbort(ErrExpectedValue)
	}
	return false
}

func (p *Parser) stepArray(chunk []byte, ch byte) bool {
	switch {
	case ch == '\r':
		p.stack.push(CR)
	case ch == '\n':
		p.stack.push(LF)
	case ch == ' ' || ch == '\t':
		p.consumeWS(chunk)
		return true
	case ch == '/' && p.comments:
		p.stack.push(Slash)
	case ch == '{':
		p.enterContainer('{')
	case ch == '[':
		p.enterContainer('[')
	case ch == ']':
		p.closeArray()
	case ch == '"':
		p.stack.setTop(String)
	case ch == '-':
		p.num.negative = true
		p.stack.setTop(Minus)
	case ch == '0':
		p.num.writeByte(ch)
		p.stack.setTop(Zero)
	case isDigit(ch):
		p.num.writeByte(ch)
		p.stack.setTop(Integer)
	case ch == 'f':
		p.startLiteral(F)
	case ch == 'n':
		p.startLiteral(N)
	case ch == 't':
		p.startLiteral(T)
	case ch == '\'':
		p.recoverOrAbort(ErrSingleQuote)
	default:
		p.recoverOrAbort(ErrExpectedValue)
	}
	return false
}

func (p *Parser) stepZero(chunk []byte, ch byte) bool {
	switch {
	case ch == '\r':
		p.endInteger()
		p.stack.push(CR)
	case ch == '\n':
		p.endInteger()
		p.stack.push(LF)
	case ch == ' ' || ch == '\t':
		p.endInteger()
		p.consumeWS(chunk)
		return true
	case ch == '/' && p.comments:
		p.endInteger()
		p.stack.push(Slash)
	case ch == '}':
		p.flushInteger()
		p.closeObject()
	case ch == ']':
		p.flushInteger()
		p.closeArray()
	case ch == '.':
		p.num.markPrecision()
		p.num.writeByte(ch)
		p.stack.setTop(Fraction)
	case ch == ',':
		p.flushInteger()
		p.beginMemberOrElement()
	case isDigit(ch):
		p.recoverOrAbort(ErrLeadingZero)
	default:
		p.recoverOrAbort(ErrInvalidNumber)
	}
	return false
}

func (p *Parser) stepInteger(chunk []byte, ch byte) bool {
	switch {
	case ch == '\r':
		p.endInteger()
		p.stack.push(CR)
	case ch == '\n':
		p.endInteger()
		p.stack.push(LF)
	case ch == ' ' || ch == '\t':
		p.endInteger()
		p.consumeWS(chunk)
		return true
	case ch == '/' && p.comments:
		p.endInteger()
		p.stack.push(Slash)
	case ch == '}':
		p.flushInteger()
		p.closeObject()
	case ch == ']':
		p.flushInteger()
		p.closeArray()
	case isDigit(ch):
		p.num.writeByte(ch)
	case ch == '.':
		p.num.markPrecision()
		p.num.writeByte(ch)
		p.stack.setTop(Fraction)
	case ch == ',':
		p.flushInteger()
		p.beginMemberOrElement()
	case ch == 'e' || ch == 'E':
		p.num.writeByte(ch)
		p.stack.setTop(Exp1)
	default:
		p.recoverOrAbort(ErrInvalidNumber)
	}
	return false
}

func (p *Parser) stepFraction(chunk []byte, ch byte) bool {
	switch {
	case ch == '\r':
		p.endFraction()
		p.stack.push(CR)
	case ch == '\n':
		p.endFraction()
		p.stack.push(LF)
	case ch == ' ' || ch == '\t':
		p.endFraction()
		p.consumeWS(chunk)
		return true
	case ch == '/' && p.comments:
		p.endFraction()
		p.stack.push(Slash)
	case ch == '}':
		p.flushFraction()
		p.closeObject()
	case ch == ']':
		p.flushFraction()
		p.closeArray()
	case isDigit(ch):
		p.num.incPrecision()
		p.num.writeByte(ch)
	case ch == ',':
		p.flushFraction()
		p.beginMemberOrElement()
	case ch == 'e' || ch == 'E':
		p.num.writeByte(ch)
		p.stack.setTop(Exp1)
	default:
		p.recoverOrAbort(ErrInvalidNumber)
	}
	return false
}

func (p *Parser) stepExp3(chunk []byte, ch byte) bool {
	switch {
	case ch == '\r':
		p.endFraction()
		p.stack.push(CR)
	case ch == '\n':
		p.endFraction()
		p.stack.push(LF)
	case ch == ' ' || ch == '\t':
		p.endFraction()
		p.consumeWS(chunk)
		return true
	case ch == '/' && p.comments:
		p.endFraction()
		p.stack.push(Slash)
	case ch == '}':
		p.flushFraction()
		p.closeObject()
	case ch == ']':
		p.flushFraction()
		p.closeArray()
	case ch == ',':
		p.flushFraction()
		p.beginMemberOrElement()
	case isDigit(ch):
		p.num.writeByte(ch)
	default:
		p.recoverOrAbort(ErrInvalidNumber)
	}
	return false
}

// enterContainer implements the shared '{'/'[' handling used by Start,
// ExpectValue, and Array (spec section 4.1, "Structural transitions").
func (p *Parser) enterContainer(open byte) {
	p.depth++
	if p.depth > p.maxDepth {
		if !p.recoverOrAbort(ErrMaxDepthExceeded) {
			return
		}
	}
	if open == '{' {
		p.stack.setTop(Object)
		p.stack.push(ExpectMemberNameOrEnd)
		if !p.handler.BeginObject(&p.ctx) {
			p.stopped = true
		}
	} else {
		p.stack.setTop(Array)
		p.stack.push(Array)
		if !p.handler.BeginArray(&p.ctx) {
			p.stopped = true
		}
	}
}

// closeObject and closeArray implement the shared '}'/']' handling.
// Bracket mismatches are always fatal, per spec section 4.1.
func (p *Parser) closeObject() {
	p.depth--
	p.stack.pop()
	switch p.stack.top() {
	case Object:
		if !p.handler.EndObject(&p.ctx) {
			p.stopped = true
		}
	case Array:
		p.reportFatal(ErrExpectedCommaOrRightBracket)
		return
	default:
		p.reportFatal(ErrUnexpectedRightBrace)
		return
	}
	p.afterCloseContainer()
}

func (p *Parser) closeArray() {
	p.depth--
	p.stack.pop()
	switch p.stack.top() {
	case Array:
		if !p.handler.EndArray(&p.ctx) {
			p.stopped = true
		}
	case Object:
		p.reportFatal(ErrExpectedCommaOrRightBrace)
		return
	default:
		p.reportFatal(ErrUnexpectedRightBracket)
		return
	}
	p.afterCloseContainer()
}

func (p *Parser) afterCloseContainer() {
	if p.stack.under() == Root {
		p.stack.setTop(Done)
		p.handler.EndDocument()
	} else {
		p.stack.setTop(ExpectCommaOrEnd)
	}
}

func (p *Parser) beginMemberOrElement() {
	switch p.stack.under() {
	case Object:
		p.stack.setTop(ExpectMemberName)
	case Array:
		p.stack.setTop(ExpectValue)
	case Root:
	default:
		p.recoverOrAbort(ErrInvalidJSONText)
	}
}

func (p *Parser) closeScalar() {
	switch p.stack.under() {
	case Object, Array:
		p.stack.setTop(ExpectCommaOrEnd)
	case Root:
		p.stack.setTop(Done)
		p.handler.EndDocument()
	default:
		p.recoverOrAbort(ErrInvalidJSONText)
	}
}

// flushInteger converts the accumulated digits to the widest appropriate
// integer type, falling back to a double on overflow, per spec section
// 4.1's "Numbers" paragraph. It does not touch parser state beyond the
// accumulator.
func (p *Parser) flushInteger() {
	buf := p.num.buf
	if p.num.negative {
		if v, ok := parseInt64(buf, true); ok {
			p.handler.Int64Value(v, TagNone, &p.ctx)
		} else if d, err := parseDigits(append([]byte{'-'}, buf...)); err == nil {
			p.handler.DoubleValue(d, uint8(len(buf)), &p.ctx)
		} else if p.recoverOrAbort(ErrInvalidNumber) {
			p.handler.NullValue(&p.ctx)
		}
	} else {
		if v, ok := parseUint64(buf); ok {
			p.handler.Uint64Value(v, TagNone, &p.ctx)
		} else if d, err := parseDigits(buf); err == nil {
			p.handler.DoubleValue(d, uint8(len(buf)), &p.ctx)
		} else if p.recoverOrAbort(ErrInvalidNumber) {
			p.handler.NullValue(&p.ctx)
		}
	}
	p.num.reset()
}

func (p *Parser) endInteger() {
	p.flushInteger()
	p.closeScalar()
}

// flushFraction converts the accumulated digits (with a decimal point
// and/or exponent) to a double using round-to-nearest-even, per spec
// section 4.3.
func (p *Parser) flushFraction() {
	d, err := parseDigits(p.num.buf)
	if err != nil {
		if p.recoverOrAbort(ErrInvalidNumber) {
			p.handler.NullValue(&p.ctx)
		}
		p.num.reset()
		return
	}
	if p.num.negative {
		d = -d
	}
	p.handler.DoubleValue(d, p.num.precision, &p.ctx)
	p.num.reset()
}

func (p *Parser) endFraction() {
	p.flushFraction()
	p.closeScalar()
}

func (p *Parser) startLiteral(state State) {
	p.stack.setTop(state)
	switch state {
	case T:
		p.lit.want = literalTrue
	case F:
		p.lit.want = literalFalse
	case N:
		p.lit.want = literalNull
	}
	p.lit.got = p.lit.got[:0]
}

// matchLiteral consumes as many of the remaining literal bytes as are
// available in chunk, comparing the accumulated tail against the
// expected constant with go4.org/mem once complete -- the same
// allocation-free comparison technique used for keyword matching
// elsewhere in this ecosystem.
func (p *Parser) matchLiteral(chunk []byte) {
	for p.pos < len(chunk) && len(p.lit.got) < len(p.lit.want) {
		p.lit.got = append(p.lit.got, chunk[p.pos])
		p.pos++
		p.column++
	}
	if len(p.lit.got) < len(p.lit.want) {
		return
	}
	p.ctx.line, p.ctx.column, p.ctx.current = p.line, p.column, 0
	if !mem.B(p.lit.got).Equal(mem.B(p.lit.want)) {
		if !p.recoverOrAbort(ErrInvalidValue) {
			return
		}
	}
	switch p.stack.top() {
	case T:
		p.handler.BoolValue(true, &p.ctx)
	case F:
		p.handler.BoolValue(false, &p.ctx)
	case N:
		p.handler.NullValue(&p.ctx)
	}
	p.closeScalar()
}

func (p *Parser) appendCodepoint1(ch byte) bool {
	v, ok := hexVal(ch)
	if !ok {
		if !p.recoverOrAbort(ErrInvalidHexEscapeSequence) {
			return false
		}
	}
	p.cp.cp1 = p.cp.cp1*16 + v
	return true
}

func (p *Parser) appendCodepoint2(ch byte) bool {
	v, ok := hexVal(ch)
	if !ok {
		if !p.recoverOrAbort(ErrInvalidHexEscapeSequence) {
			return false
		}
	}
	p.cp.cp2 = p.cp.cp2*16 + v
	return true
}

func (p *Parser) afterU4() {
	if p.cp.cp1 >= minLeadSurrogate && p.cp.cp1 <= maxLeadSurrogate {
		p.stack.setTop(ExpectSurrogatePair1)
	} else {
		p.str.writeRune(rune(p.cp.cp1))
		p.stack.setTop(String)
	}
}

func (p *Parser) escapeNextChar(ch byte) {
	switch ch {
	case '"':
		p.str.writeByte('"')
		p.stack.setTop(String)
	case '\\':
		p.str.writeByte('\\')
		p.stack.setTop(String)
	case '/':
		p.str.writeByte('/')
		p.stack.setTop(String)
	case 'b':
		p.str.writeByte('\b')
		p.stack.setTop(String)
	case 'f':
		p.str.writeByte('\f')
		p.stack.setTop(String)
	case 'n':
		p.str.writeByte('\n')
		p.stack.setTop(String)
	case 'r':
		p.str.writeByte('\r')
		p.stack.setTop(String)
	case 't':
		p.str.writeByte('\t')
		p.stack.setTop(String)
	case 'u':
		p.cp.reset()
		p.stack.setTop(U1)
	default:
		if p.recoverOrAbort(ErrIllegalEscapedCharacter) {
			p.stack.setTop(String)
		}
	}
}

// flushRun copies chunk[segStart:p.pos] into the string accumulator, if
// it is active, and advances the column counter by the run length.
func (p *Parser) flushRun(chunk []byte, segStart int) {
	n := p.pos - segStart
	if n > 0 && p.str.active {
		p.str.append(chunk[segStart:p.pos])
	}
	p.column += n
}

// scanString is the fast-path string scanner described in spec section
// 3: it walks chunk looking for '"', '\\', or a control byte, reporting
// unescaped runs as a borrowed slice when the string never needed the
// accumulator.
func (p *Parser) scanString(chunk []byte) {
	segStart := p.pos
	for p.pos < len(chunk) {
		ch := chunk[p.pos]
		switch {
		case ch == '"':
			p.flushRun(chunk, segStart)
			var text []byte
			if p.str.active {
				text = p.str.buf
			} else {
				text = chunk[segStart:p.pos]
			}
			p.column++
			p.pos++
			p.endStringValue(text)
			p.str.reset()
			return
		case ch == '\\':
			p.str.activate(nil)
			p.flushRun(chunk, segStart)
			p.column++
			p.pos++
			p.stack.setTop(Escape)
			return
		case ch == '\r', ch == '\n', ch == '\t', ch < 0x20:
			p.str.activate(nil)
			p.flushRun(chunk, segStart)
			p.ctx.line, p.ctx.column, p.ctx.current = p.line, p.column, ch
			var code ErrorCode
			keep := true
			if ch == '\r' || ch == '\n' || ch == '\t' {
				code = ErrIllegalCharacterInString
			} else {
				code = ErrIllegalControlCharacter
				keep = false
			}
			if !p.errHandler.Error(code, &p.ctx) {
				p.abort(code)
				return
			}
			if keep {
				p.str.writeByte(ch)
			}
			p.column++
			p.pos++
			switch ch {
			case '\r':
				p.stack.push(CR)
				return
			case '\n':
				p.stack.push(LF)
				return
			}
			segStart = p.pos
		default:
			p.pos++
		}
	}
	// The string continues in the next chunk, so its content so far must
	// be copied out of this one.
	p.str.activate(nil)
	p.flushRun(chunk, segStart)
}

func (p *Parser) endStringValue(text []byte) {
	switch p.stack.under() {
	case MemberName:
		p.handler.Name(text, &p.ctx)
		p.stack.pop()
		p.stack.setTop(ExpectColon)
	case Object, Array:
		p.handler.StringValue(text, &p.ctx)
		p.stack.setTop(ExpectCommaOrEnd)
	case Root:
		p.handler.StringValue(text, &p.ctx)
		p.stack.setTop(Done)
		p.handler.EndDocument()
	default:
		p.recoverOrAbort(ErrInvalidJSONText)
	}
}

// recoverOrAbort reports a recoverable diagnostic. It returns true if the
// ErrorHandler asked to continue, in which case the caller performs its
// locally defined repair; it returns false (and has already aborted the
// parse) if the handler asked to stop.
func (p *Parser) recoverOrAbort(code ErrorCode) bool {
	if p.errHandler.Error(code, &p.ctx) {
		return true
	}
	p.abort(code)
	return false
}

func (p *Parser) reportFatal(code ErrorCode) {
	p.errHandler.FatalError(code, &p.ctx)
	p.abort(code)
}

func (p *Parser) abort(code ErrorCode) {
	if p.err == nil {
		p.err = newParseError(code, &p.ctx)
	}
	p.aborted = true
}
