// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package bson is a pull-based BSON document walker. It reads one
// length-prefixed document at a time from a Source and drives the same
// jflow.Handler interface the JSON parser drives, so a caller can point
// either format at the same handler implementation.
//
// Unlike the JSON parser, the walker pulls bytes on demand rather than
// being fed chunks; a Source may block. Nested documents and arrays are
// walked with an explicit frame stack rather than Go call recursion, so
// SetMaxDepth bounds host-stack usage the same way it does for jflow.Parser.
package bson
