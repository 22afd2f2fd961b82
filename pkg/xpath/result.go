// Copyright 2023 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package xpath

// This file implements the Result union and the node-set algebra: adding
// with identity dedup, union merging, position renumbering, and the XPath
// 1.0 type coercions.

import (
	"math"
	"strconv"
	"strings"

	"github.com/openconfig/yax/pkg/value"
	"github.com/openconfig/yax/pkg/yang"
)

// A ResultKind tags the variant held by a Result.
type ResultKind int

// The result kinds.
const (
	NoneResult = ResultKind(iota)
	NodeSetResult
	NumberResult
	StringResult
	BooleanResult
)

func (k ResultKind) String() string {
	switch k {
	case NoneResult:
		return "none"
	case NodeSetResult:
		return "node-set"
	case NumberResult:
		return "number"
	case StringResult:
		return "string"
	case BooleanResult:
		return "boolean"
	default:
		return "unknown-result"
	}
}

// A ResNode is one member of a node-set.  Exactly one of Obj and Val is
// set, selected by the PCB's evaluation mode.  Position is the node's
// 1-based proximity position within the step that produced it.  The
// dblslash flag defers the semantics of // across subsequent steps.
type ResNode struct {
	Obj *yang.Obj
	Val *value.Node

	Position int
	dblslash bool
}

// identity returns the node pointer used for duplicate elimination.
func (r *ResNode) identity() interface{} {
	if r.Val != nil {
		return r.Val
	}
	return r.Obj
}

// StringValue returns the XPath string-value of the node.  In schema mode
// there is no instance data; the leaf's default is used when present,
// otherwise the empty string.
func (r *ResNode) StringValue() string {
	if r.Val != nil {
		return r.Val.String()
	}
	if r.Obj != nil {
		return r.Obj.Default
	}
	return ""
}

// NumberValue returns number(string-value).
func (r *ResNode) NumberValue() float64 {
	return stringToNumber(r.StringValue())
}

// Name returns the node's local name.
func (r *ResNode) Name() string {
	if r.Val != nil {
		return r.Val.Name
	}
	if r.Obj != nil {
		return r.Obj.Name
	}
	return ""
}

// Namespace returns the node's namespace URI, when known.
func (r *ResNode) Namespace() string {
	if r.Val != nil {
		return r.Val.Namespace
	}
	if r.Obj != nil && r.Obj.Module != nil && r.Obj.Module.Namespace != nil {
		return r.Obj.Module.Namespace.Name
	}
	return ""
}

// A Result is the tagged union produced by evaluation.
type Result struct {
	Kind  ResultKind
	Nodes []*ResNode
	Num   float64
	Str   string
	Boo   bool
}

// addNode appends rn to the node-set, eliminating duplicates by identity.
// When a duplicate is found the surviving node keeps the broader dblslash
// flag.
func (r *Result) addNode(rn *ResNode) {
	id := rn.identity()
	for _, have := range r.Nodes {
		if have.identity() == id {
			if rn.dblslash {
				have.dblslash = true
			}
			return
		}
	}
	r.Nodes = append(r.Nodes, rn)
}

// renumber assigns 1-based positions in current order.
func (r *Result) renumber() {
	for i, rn := range r.Nodes {
		rn.Position = i + 1
	}
}

// Boolean coerces r per XPath 1.0 boolean().
func (r *Result) Boolean() bool {
	switch r.Kind {
	case NodeSetResult:
		return len(r.Nodes) > 0
	case NumberResult:
		return r.Num != 0 && !math.IsNaN(r.Num)
	case StringResult:
		return len(r.Str) > 0
	case BooleanResult:
		return r.Boo
	default:
		return false
	}
}

// Number coerces r per XPath 1.0 number().
func (r *Result) Number() float64 {
	switch r.Kind {
	case NodeSetResult:
		return stringToNumber(r.String())
	case NumberResult:
		return r.Num
	case StringResult:
		return stringToNumber(r.Str)
	case BooleanResult:
		if r.Boo {
			return 1
		}
		return 0
	default:
		return math.NaN()
	}
}

// String coerces r per XPath 1.0 string().  The string-value of a
// node-set is that of its first node in document order.
func (r *Result) String() string {
	switch r.Kind {
	case NodeSetResult:
		if len(r.Nodes) == 0 {
			return ""
		}
		return r.Nodes[0].StringValue()
	case NumberResult:
		return NumberToString(r.Num)
	case StringResult:
		return r.Str
	case BooleanResult:
		if r.Boo {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// NodeSet returns the node-set payload, or nil for scalar results.
func (r *Result) NodeSet() []*ResNode {
	if r.Kind != NodeSetResult {
		return nil
	}
	return r.Nodes
}

// IsEmpty reports whether r is an empty node-set or a none result.
func (r *Result) IsEmpty() bool {
	switch r.Kind {
	case NoneResult:
		return true
	case NodeSetResult:
		return len(r.Nodes) == 0
	}
	return false
}

// CompareToString performs the existential node-set = string comparison.
// Scalar results coerce per XPath rules.
func (r *Result) CompareToString(s string) bool {
	if r.Kind == NodeSetResult {
		for _, rn := range r.Nodes {
			if rn.StringValue() == s {
				return true
			}
		}
		return false
	}
	return r.String() == s
}

// CompareToNumber performs the existential node-set = number comparison.
func (r *Result) CompareToNumber(f float64) bool {
	if r.Kind == NodeSetResult {
		for _, rn := range r.Nodes {
			if rn.NumberValue() == f {
				return true
			}
		}
		return false
	}
	return r.Number() == f
}

// StringifyNodeSet returns the XPath string-value of a node-set result:
// the string-value of the first node in document order, or "" for an
// empty set.  Scalar results stringify normally.
func StringifyNodeSet(r *Result) string { return r.String() }

// stringToNumber implements the string -> number conversion: surrounding
// whitespace is trimmed and the rest is parsed by strconv.ParseFloat, so
// exponent forms (as float64 values print), a leading '+' and Inf/NaN
// spellings convert too; an empty or unparsable string is NaN.
func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// NumberToString implements the XPath number -> string conversion:
// "NaN", "Infinity"/"-Infinity", integers without a decimal point, and
// decimal (never exponential) notation otherwise.
func NumberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}
