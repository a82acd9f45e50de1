// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Command jflowperf benchmarks jflow's JSON parser and BSON walker against
// the JSON and BSON facilities already in go.mongodb.org/mongo-driver and
// the standard library, on a caller-supplied JSON file.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"time"

	"github.com/relstream/jflow"
	jbson "github.com/relstream/jflow/bson"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: jflowperf <json file>")
	}
	inputFile := os.Args[1]
	jsonData, err := ioutil.ReadFile(inputFile)
	if err != nil {
		log.Fatal(err)
	}
	benchJflowJSON(jsonData)
	benchMongoDriverRW(jsonData)
	benchNaive(jsonData)
	benchJflowBSON(jsonData)
}

// discardHandler implements jflow.Handler by doing nothing, so a benchmark
// measures only the parser's own work.
type discardHandler struct{}

func (discardHandler) BeginDocument()               {}
func (discardHandler) EndDocument()                 {}
func (discardHandler) BeginObject(jflow.Context) bool { return true }
func (discardHandler) EndObject(jflow.Context) bool   { return true }
func (discardHandler) BeginArray(jflow.Context) bool  { return true }
func (discardHandler) EndArray(jflow.Context) bool    { return true }
func (discardHandler) Name([]byte, jflow.Context)     {}
func (discardHandler) StringValue([]byte, jflow.Context) {}
func (discardHandler) Int64Value(int64, jflow.Tag, jflow.Context)   {}
func (discardHandler) Uint64Value(uint64, jflow.Tag, jflow.Context) {}
func (discardHandler) DoubleValue(float64, uint8, jflow.Context)   {}
func (discardHandler) BoolValue(bool, jflow.Context)               {}
func (discardHandler) NullValue(jflow.Context)                     {}
func (discardHandler) ByteStringValue([]byte, jflow.Tag, jflow.Context) {}

// jsonDocs splits a whitespace-separated stream of top-level JSON values
// into individual byte slices, mirroring how the driver benchmark below
// treats the input as a sequence of documents.
func jsonDocs(input []byte) [][]byte {
	dec := json.NewDecoder(bytes.NewReader(input))
	var docs [][]byte
	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			log.Fatal(err)
		}
		docs = append(docs, append([]byte(nil), raw...))
	}
	return docs
}

func benchJflowJSON(input []byte) {
	docs := jsonDocs(input)
	p := jflow.NewParser(discardHandler{}, jflow.StopOnError{})

	start := time.Now()
	for _, doc := range docs {
		p.Reset()
		if err := p.Feed(doc); err != nil {
			log.Fatal(err)
		}
		if err := p.End(); err != nil {
			log.Fatal(err)
		}
	}
	elapsed := time.Since(start)
	reportResult("jflow json", len(input), elapsed)
}

func benchMongoDriverRW(input []byte) {
	var err error
	jsonReader := bytes.NewReader(input)

	vr, err := bsonrw.NewExtJSONValueReader(jsonReader, false)
	if err != nil {
		log.Fatal(err)
	}

	// first, we need to discover what mode we are in.
	// 1. doc mode, where each document is separated by 0 or more whitespace
	// 2. array mode, where each document is an entry in a top-level array
	var ar bsonrw.ArrayReader
	switch vr.Type() {
	case bsontype.EmbeddedDocument:
	case bsontype.Array:
		ar, err = vr.ReadArray()
		if err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatal("JSON format unsupported by Go driver")
	}

	copier := bsonrw.NewCopier()
	start := time.Now()
	for {
		if ar != nil {
			evr, err := ar.ReadValue()
			if err != nil {
				if err == bsonrw.ErrEOA {
					break
				}
				log.Fatal(err)
			}

			if evr.Type() != bsontype.EmbeddedDocument {
				log.Fatal("JSON format unsupported by Go driver")
			}

			doc, err := copier.CopyDocumentToBytes(evr)
			if err != nil {
				log.Fatal(err)
			}
			_ = doc
		} else {
			doc, err := copier.CopyDocumentToBytes(vr)
			if err != nil {
				if err == io.EOF {
					break
				}
				log.Fatal(err)
			}
			_ = doc
		}
	}
	elapsed := time.Since(start)
	reportResult("driver bsonrw", len(input), elapsed)
}

func benchNaive(input []byte) {
	jsonReader := bytes.NewReader(input)
	dec := json.NewDecoder(jsonReader)

	start := time.Now()
	for dec.More() {
		var m map[string]interface{}
		err := dec.Decode(&m)
		if err != nil {
			log.Fatal(err)
		}
		buf, err := bson.Marshal(m)
		if err != nil {
			log.Fatal(err)
		}
		_ = buf
	}
	elapsed := time.Since(start)
	reportResult("naive json->bson", len(input), elapsed)
}

// benchJflowBSON measures the pull-based Walker against BSON produced from
// the same input by the driver's own marshaler, so the walker is exercised
// against documents it did not itself produce.
func benchJflowBSON(input []byte) {
	docs := jsonDocs(input)
	var rawDocs [][]byte
	for _, doc := range docs {
		var m map[string]interface{}
		if err := json.Unmarshal(doc, &m); err != nil {
			log.Fatal(err)
		}
		raw, err := bson.Marshal(m)
		if err != nil {
			log.Fatal(err)
		}
		rawDocs = append(rawDocs, raw)
	}

	start := time.Now()
	for _, raw := range rawDocs {
		src := jbson.NewReaderSource(bufio.NewReader(bytes.NewReader(raw)))
		w := jbson.NewWalker(src, discardHandler{}, jflow.StopOnError{})
		if err := w.Decode(); err != nil {
			log.Fatal(err)
		}
	}
	elapsed := time.Since(start)
	reportResult("jflow bson", len(input), elapsed)
}

func reportResult(label string, size int, elapsed time.Duration) {
	throughput := float64(size) / float64(elapsed.Microseconds())
	fmt.Printf("%15s %.2f MB/s\n", label, throughput)
}
