// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"unicode/utf8"

	"github.com/relstream/jflow"
	"github.com/relstream/jflow/internal/fastio"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// walkContext implements jflow.Context for BSON diagnostics. BSON has no
// line/column concept; Line always reports 0 and Column reports the byte
// offset into the Source, so error messages still pinpoint a location.
type walkContext struct {
	offset  int64
	current byte
}

func (c *walkContext) Line() int         { return 0 }
func (c *walkContext) Column() int       { return int(c.offset) }
func (c *walkContext) CurrentChar() byte { return c.current }

type frameMode byte

const (
	modeDocument frameMode = iota
	modeArray
)

// frame is one level of the explicit stack that replaces native recursion
// for nested documents and arrays, per the Design Note in spec section 9.
type frame struct {
	mode        frameMode
	declaredLen int32
	consumed    int32
}

// Walker reads BSON documents from a Source and drives a jflow.Handler.
// The zero value is not usable; construct one with NewWalker.
type Walker struct {
	src        Source
	handler    jflow.Handler
	errHandler jflow.ErrorHandler
	maxDepth   int

	stack   []frame
	stopped bool
	aborted bool
	err     error
	ctx     walkContext

	nameBuf []byte
	strBuf  []byte
}

// NewWalker constructs a Walker reading from src, reporting tokens to
// handler and diagnostics to errHandler.
func NewWalker(src Source, handler jflow.Handler, errHandler jflow.ErrorHandler) *Walker {
	return &Walker{
		src:        src,
		handler:    handler,
		errHandler: errHandler,
		maxDepth:   jflow.MaxDepthUnbounded,
		nameBuf:    fastio.Get(64),
		strBuf:     fastio.Get(64),
	}
}

// Close returns the walker's scratch buffers to the shared fastio pool.
// See jflow.Parser.Close for the same convention; the Walker must not be
// used again afterward.
func (w *Walker) Close() {
	fastio.Put(w.nameBuf)
	fastio.Put(w.strBuf)
	w.nameBuf, w.strBuf = nil, nil
}

// SetMaxDepth bounds nesting depth, mirroring jflow.Parser.SetMaxDepth.
func (w *Walker) SetMaxDepth(n int) { w.maxDepth = n }

// Stopped reports whether the Handler asked the walker to stop.
func (w *Walker) Stopped() bool { return w.stopped }

// Decode reads one length-prefixed BSON document from the Source and
// drives handler with begin/end container, name, and scalar value events.
// It may be called again on the same Source to walk a stream of
// concatenated top-level documents, mirroring jibby's Decoder being
// invoked repeatedly against one bufio.Reader.
func (w *Walker) Decode() error {
	w.stack = w.stack[:0]
	w.stopped = false
	w.aborted = false
	w.err = nil

	declaredLen, err := w.readInt32Raw()
	if err != nil {
		return w.sourceErr(err)
	}
	w.handler.BeginDocument()
	w.pushFrame(modeDocument, declaredLen)
	if !w.handler.BeginObject(&w.ctx) {
		w.stopped = true
	}

	for len(w.stack) > 0 && !w.stopped && !w.aborted {
		if err := w.step(); err != nil {
			return err
		}
	}
	if len(w.stack) == 0 {
		w.handler.EndDocument()
	}
	return w.err
}

func (w *Walker) pushFrame(mode frameMode, declaredLen int32) {
	w.stack = append(w.stack, frame{mode: mode, declaredLen: declaredLen, consumed: 4})
}

func (w *Walker) addConsumed(n int32) {
	if len(w.stack) == 0 {
		return
	}
	w.stack[len(w.stack)-1].consumed += n
}

// step processes exactly one element of the innermost frame, or closes
// that frame if it has been exhausted.
func (w *Walker) step() error {
	if len(w.stack) > w.maxDepth {
		if !w.recoverOrAbort(jflow.ErrMaxDepthExceeded) {
			return w.err
		}
	}

	t, err := w.src.ReadByte()
	if err != nil {
		return w.sourceErr(err)
	}
	w.ctx.offset = w.src.Position()
	w.ctx.current = t
	w.addConsumed(1)

	if t == 0x00 {
		return w.closeFrame()
	}

	top := w.stack[len(w.stack)-1]
	name, err := w.readCString()
	if err != nil {
		return w.sourceErr(err)
	}
	if top.mode == modeDocument {
		if !utf8.Valid(name) {
			if !w.recoverOrAbort(ErrInvalidUTF8TextString) {
				return w.err
			}
		}
		w.handler.Name(name, &w.ctx)
	}

	return w.dispatch(bsontype.Type(t))
}

func (w *Walker) closeFrame() error {
	top := w.stack[len(w.stack)-1]
	if top.consumed != top.declaredLen {
		if !w.recoverOrAbort(ErrInvalidLength) {
			return w.err
		}
	}
	w.stack = w.stack[:len(w.stack)-1]

	switch top.mode {
	case modeDocument:
		if !w.handler.EndObject(&w.ctx) {
			w.stopped = true
		}
	case modeArray:
		if !w.handler.EndArray(&w.ctx) {
			w.stopped = true
		}
	}
	return nil
}

// dispatch decodes and emits one value for element type t, per the type
// table in spec section 4.2.
func (w *Walker) dispatch(t bsontype.Type) error {
	switch t {
	case bsontype.Double:
		v, err := w.readFloat64()
		if err != nil {
			return w.sourceErr(err)
		}
		w.handler.DoubleValue(v, 0, &w.ctx)
	case bsontype.String:
		s, err := w.readLPString()
		if err != nil {
			return w.sourceErr(err)
		}
		if !utf8.Valid(s) {
			if !w.recoverOrAbort(ErrInvalidUTF8TextString) {
				return w.err
			}
		}
		w.handler.StringValue(s, &w.ctx)
	case bsontype.EmbeddedDocument:
		declaredLen, err := w.readInt32Raw()
		if err != nil {
			return w.sourceErr(err)
		}
		w.addConsumed(declaredLen)
		w.pushFrame(modeDocument, declaredLen)
		if !w.handler.BeginObject(&w.ctx) {
			w.stopped = true
		}
	case bsontype.Array:
		declaredLen, err := w.readInt32Raw()
		if err != nil {
			return w.sourceErr(err)
		}
		w.addConsumed(declaredLen)
		w.pushFrame(modeArray, declaredLen)
		if !w.handler.BeginArray(&w.ctx) {
			w.stopped = true
		}
	case bsontype.Binary:
		length, err := w.readInt32Raw()
		if err != nil {
			return w.sourceErr(err)
		}
		if _, err := w.src.ReadByte(); err != nil { // subtype, not separately exposed
			return w.sourceErr(err)
		}
		w.addConsumed(4 + 1 + length)
		data, err := w.readN(int(length))
		if err != nil {
			return w.sourceErr(err)
		}
		w.handler.ByteStringValue(data, jflow.TagNone, &w.ctx)
	case bsontype.Boolean:
		b, err := w.src.ReadByte()
		if err != nil {
			return w.sourceErr(err)
		}
		w.addConsumed(1)
		w.handler.BoolValue(b != 0, &w.ctx)
	case bsontype.DateTime:
		v, err := w.readInt64()
		if err != nil {
			return w.sourceErr(err)
		}
		w.handler.Int64Value(v, jflow.TagTimestamp, &w.ctx)
	case bsontype.Null:
		w.handler.NullValue(&w.ctx)
	case bsontype.Int32:
		v, err := w.readInt32()
		if err != nil {
			return w.sourceErr(err)
		}
		w.handler.Int64Value(int64(v), jflow.TagNone, &w.ctx)
	case bsontype.Timestamp:
		v, err := w.readUint64()
		if err != nil {
			return w.sourceErr(err)
		}
		w.handler.Uint64Value(v, jflow.TagTimestamp, &w.ctx)
	case bsontype.Int64:
		v, err := w.readInt64()
		if err != nil {
			return w.sourceErr(err)
		}
		w.handler.Int64Value(v, jflow.TagNone, &w.ctx)
	default:
		// Unrecognized type bytes terminate decoding of the current
		// element silently, per spec section 4.2's open question.
	}
	return nil
}

func (w *Walker) readN(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := w.src.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (w *Walker) readInt32Raw() (int32, error) {
	buf, err := w.readN(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf)), nil
}

func (w *Walker) readInt32() (int32, error) {
	v, err := w.readInt32Raw()
	if err == nil {
		w.addConsumed(4)
	}
	return v, err
}

func (w *Walker) readInt64() (int64, error) {
	buf, err := w.readN(8)
	if err != nil {
		return 0, err
	}
	w.addConsumed(8)
	return int64(binary.LittleEndian.Uint64(buf)), nil
}

func (w *Walker) readUint64() (uint64, error) {
	buf, err := w.readN(8)
	if err != nil {
		return 0, err
	}
	w.addConsumed(8)
	return binary.LittleEndian.Uint64(buf), nil
}

func (w *Walker) readFloat64() (float64, error) {
	buf, err := w.readN(8)
	if err != nil {
		return 0, err
	}
	w.addConsumed(8)
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
}

// readCString reads a NUL-terminated name, one byte at a time since names
// are typically short and Source has no delimiter-scan primitive.
func (w *Walker) readCString() ([]byte, error) {
	w.nameBuf = w.nameBuf[:0]
	n := int32(0)
	for {
		b, err := w.src.ReadByte()
		if err != nil {
			return nil, err
		}
		n++
		if b == 0x00 {
			break
		}
		w.nameBuf = append(w.nameBuf, b)
	}
	w.addConsumed(n)
	return w.nameBuf, nil
}

// readLPString reads a BSON length-prefixed string: an i32 length L that
// includes the trailing NUL, followed by L bytes whose last byte must be
// 0x00.
func (w *Walker) readLPString() ([]byte, error) {
	length, err := w.readInt32Raw()
	if err != nil {
		return nil, err
	}
	w.addConsumed(4)
	if length < 1 {
		return nil, errors.New("bson: string length must be at least 1")
	}
	buf, err := w.readN(int(length))
	if err != nil {
		return nil, err
	}
	w.addConsumed(length)
	if buf[len(buf)-1] != 0x00 {
		return nil, errors.New("bson: string is not NUL-terminated")
	}
	w.strBuf = append(w.strBuf[:0], buf[:len(buf)-1]...)
	return w.strBuf, nil
}

func (w *Walker) recoverOrAbort(code jflow.ErrorCode) bool {
	if w.errHandler.Error(code, &w.ctx) {
		return true
	}
	w.aborted = true
	if w.err == nil {
		w.err = &jflow.ParseError{Code: code, Line: w.ctx.Line(), Column: w.ctx.Column()}
	}
	return false
}

func (w *Walker) sourceErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		w.errHandler.Error(jflow.ErrUnexpectedEOF, &w.ctx)
		return &jflow.ParseError{Code: jflow.ErrUnexpectedEOF, Line: w.ctx.Line(), Column: w.ctx.Column()}
	}
	w.errHandler.Error(ErrSourceError, &w.ctx)
	return &jflow.ParseError{Code: ErrSourceError, Line: w.ctx.Line(), Column: w.ctx.Column()}
}
