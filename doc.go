// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package jflow is a resumable, chunk-fed JSON tokenizer. It drives a
// caller-supplied Handler with begin/end container, name and scalar-value
// events as it consumes bytes, and never buffers more of the document than
// a single string or number token requires.
//
// Feed may be called repeatedly with successive chunks of one JSON text;
// the parser resumes exactly where the previous call left off, including
// mid-string, mid-number, and mid-escape. This makes jflow suitable for
// framing JSON off of a network connection where reads do not align with
// token boundaries.
//
// jflow accepts a superset of RFC 8259: C and C++ style comments are
// recognized by default (Parser.AllowComments turns this off), matching
// the JWCC convention used elsewhere in this ecosystem.
//
// BSON documents are handled by the sibling package jflow/bson, which
// drives the same Handler interface from a pull-based Source.
package jflow
