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

// Package diag defines the error and warning taxonomy shared by the schema
// builder, the value tree, and the XPath evaluator.  Errors carry a stable
// code and an optional source position.  Warning codes may be individually
// suppressed; a suppressed warning increments a per-module counter instead
// of being reported.
package diag

import (
	"fmt"
	"sync"
)

// A Code identifies a class of error or warning.  The codes are stable API
// surface: callers match on them rather than on message text.
type Code int

const (
	// CodeNone is the zero Code.  It is never reported.
	CodeNone = Code(iota)

	// InvalidXPathExpr indicates malformed XPath text.
	InvalidXPathExpr
	// InvalidInstanceID indicates a structurally valid XPath expression
	// that falls outside the instance-identifier sub-grammar.
	InvalidInstanceID
	// MissingInstance indicates a required instance was not present in
	// the value tree.
	MissingInstance
	// UnknownPrefix indicates a prefix with no matching module import.
	UnknownPrefix
	// UnknownVariable indicates an unbound XPath variable reference.
	UnknownVariable
	// WrongToken indicates an unexpected token during parsing.
	WrongToken
	// WrongNumberOfArgs indicates a function call arity violation.
	WrongNumberOfArgs
	// WrongResultType indicates a result that cannot be coerced to the
	// type required by its consumer.
	WrongResultType
	// InternalValue indicates an inconsistency in a value tree that
	// should have been prevented at construction time.
	InternalValue

	// Warning codes.  Everything from NoXPathParent on is a warning and
	// may be suppressed through a Filter.

	// NoXPathParent: a parent axis step found no parent node.
	NoXPathParent
	// NoXPathChild: a child axis step matched no children.
	NoXPathChild
	// NoXPathDescendant: a descendant axis step matched nothing.
	NoXPathDescendant
	// NoXPathAncestor: an ancestor axis step matched nothing.
	NoXPathAncestor
	// NoXPathNodes: a step emptied the node-set.
	NoXPathNodes
	// EmptyXPathResult: an expression statically evaluates to an empty
	// node-set.
	EmptyXPathResult
)

var codeName = map[Code]string{
	InvalidXPathExpr:  "invalid-xpath-expr",
	InvalidInstanceID: "invalid-instance-id",
	MissingInstance:   "missing-instance",
	UnknownPrefix:     "unknown-prefix",
	UnknownVariable:   "unknown-variable",
	WrongToken:        "wrong-token",
	WrongNumberOfArgs: "wrong-number-of-args",
	WrongResultType:   "wrong-result-type",
	InternalValue:     "internal-value",
	NoXPathParent:     "no-xpath-parent",
	NoXPathChild:      "no-xpath-child",
	NoXPathDescendant: "no-xpath-descendant",
	NoXPathAncestor:   "no-xpath-ancestor",
	NoXPathNodes:      "no-xpath-nodes",
	EmptyXPathResult:  "empty-xpath-result",
}

// String returns the stable identifier for c.
func (c Code) String() string {
	if s := codeName[c]; s != "" {
		return s
	}
	return fmt.Sprintf("diag-code-%d", int(c))
}

// IsWarning reports whether c is a warning rather than an error.
func (c Code) IsWarning() bool { return c >= NoXPathParent }

// A Pos is a position in source text.  Line and Col are 1-based; a zero
// Line means the position is unknown.
type Pos struct {
	Module string // module or file the text came from
	Line   int
	Col    int
}

// String returns p in module:line:col form.
func (p Pos) String() string {
	switch {
	case p.Line == 0:
		return p.Module
	case p.Module == "":
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	default:
		return fmt.Sprintf("%s:%d:%d", p.Module, p.Line, p.Col)
	}
}

// An Error is a diagnostic with a stable code and an optional position.
type Error struct {
	Code Code
	Pos  Pos
	Msg  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Pos.Line == 0 && e.Pos.Module == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Msg)
}

// New returns an Error with code c at position p.  The message is formatted
// with fmt.Sprintf.
func New(c Code, p Pos, format string, v ...interface{}) *Error {
	return &Error{Code: c, Pos: p, Msg: fmt.Sprintf(format, v...)}
}

// CodeOf returns the Code carried by err, or CodeNone if err is not an
// *Error.
func CodeOf(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return CodeNone
}

// A Filter decides which warnings are emitted.  Suppressed warnings are
// counted per module instead.  The zero Filter emits every warning.
type Filter struct {
	mu         sync.Mutex
	suppressed map[Code]bool
	counts     map[string]int
}

// Suppress disables emission of warnings with code c.
func (f *Filter) Suppress(c Code) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.suppressed == nil {
		f.suppressed = map[Code]bool{}
	}
	f.suppressed[c] = true
}

// Enabled reports whether warnings with code c are emitted.
func (f *Filter) Enabled(c Code) bool {
	if f == nil {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.suppressed[c]
}

// Count records a suppressed warning against module.
func (f *Filter) Count(module string) {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[module]++
}

// Suppressed returns the number of warnings suppressed for module.
func (f *Filter) Suppressed(module string) int {
	if f == nil {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[module]
}

// Warn reports the warning c at position p through f.  If the code is
// enabled the warning is returned for the caller to emit; if suppressed,
// nil is returned and the module's counter is incremented.
func (f *Filter) Warn(c Code, p Pos, format string, v ...interface{}) *Error {
	if f.Enabled(c) {
		return New(c, p, format, v...)
	}
	f.Count(p.Module)
	return nil
}
