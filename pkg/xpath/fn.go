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

// This file implements the XPath 1.0 core function library plus the YANG
// extension functions current(), module-loaded() and feature-enabled().
// Arity is checked at parse time against this table.

import (
	"math"
	"strings"

	"github.com/openconfig/yax/pkg/diag"
)

// An fnDef describes one function: its arity bounds and implementation.
// maxArgs of -1 means variadic.
type fnDef struct {
	minArgs int
	maxArgs int
	impl    func(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error)
}

// arityString renders the arity bounds for error messages.
func (f *fnDef) arityString() string {
	switch {
	case f.maxArgs < 0:
		return "variadic arguments"
	case f.minArgs == f.maxArgs && f.minArgs == 1:
		return "exactly 1 argument"
	case f.minArgs == f.maxArgs:
		return numToWord(f.minArgs) + " arguments"
	default:
		return numToWord(f.minArgs) + " to " + numToWord(f.maxArgs) + " arguments"
	}
}

func numToWord(n int) string {
	words := []string{"zero", "one", "two", "three"}
	if n < len(words) {
		return words[n]
	}
	return "many"
}

var functions map[string]*fnDef

func init() {
	functions = map[string]*fnDef{
		"boolean":          {1, 1, fnBoolean},
		"ceiling":          {1, 1, fnCeiling},
		"concat":           {2, -1, fnConcat},
		"contains":         {2, 2, fnContains},
		"count":            {1, 1, fnCount},
		"current":          {0, 0, fnCurrent},
		"false":            {0, 0, fnFalse},
		"floor":            {1, 1, fnFloor},
		"id":               {1, 1, fnEmptyNodeSet},
		"lang":             {1, 1, fnEmptyNodeSet},
		"last":             {0, 0, fnLast},
		"local-name":       {0, 1, fnLocalName},
		"name":             {0, 1, fnName},
		"namespace-uri":    {0, 1, fnNamespaceURI},
		"normalize-space":  {0, 1, fnNormalizeSpace},
		"not":              {1, 1, fnNot},
		"number":           {0, 1, fnNumber},
		"position":         {0, 0, fnPosition},
		"round":            {1, 1, fnRound},
		"starts-with":      {2, 2, fnStartsWith},
		"string":           {0, 1, fnString},
		"string-length":    {0, 1, fnStringLength},
		"substring":        {2, 3, fnSubstring},
		"substring-after":  {2, 2, fnSubstringAfter},
		"substring-before": {2, 2, fnSubstringBefore},
		"sum":              {1, 1, fnSum},
		"translate":        {3, 3, fnTranslate},
		"true":             {0, 0, fnTrue},

		"module-loaded":   {1, 2, fnModuleLoaded},
		"feature-enabled": {2, 2, fnFeatureEnabled},
	}
}

// contextStringValue returns the string-value of the context node.
func contextStringValue(ctx *stepContext) string {
	return ctx.node.StringValue()
}

func number(e *evaluator, f float64) *Result {
	r := e.pcb.newResult(NumberResult)
	r.Num = f
	return r
}

func str(e *evaluator, s string) *Result {
	r := e.pcb.newResult(StringResult)
	r.Str = s
	return r
}

func boolean(e *evaluator, b bool) *Result {
	r := e.pcb.newResult(BooleanResult)
	r.Boo = b
	return r
}

func fnBoolean(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	return boolean(e, args[0].Boolean()), nil
}

func fnCeiling(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	return number(e, math.Ceil(args[0].Number())), nil
}

func fnConcat(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(a.String())
	}
	return str(e, b.String()), nil
}

func fnContains(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	return boolean(e, strings.Contains(args[0].String(), args[1].String())), nil
}

func fnCount(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	if args[0].Kind != NodeSetResult {
		return nil, diag.New(diag.WrongResultType, call.Pos, "count requires a node-set, got %v", args[0].Kind)
	}
	return number(e, float64(len(args[0].Nodes))), nil
}

// fnCurrent returns the original context node-set saved in the PCB at
// evaluation start.
func fnCurrent(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	r := e.pcb.newResult(NodeSetResult)
	rn := e.pcb.newResnode()
	*rn = *e.pcb.origCtx
	r.addNode(rn)
	r.renumber()
	return r, nil
}

func fnFalse(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	return boolean(e, false), nil
}

func fnFloor(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	return number(e, math.Floor(args[0].Number())), nil
}

// fnEmptyNodeSet serves id() and lang(): YANG has no ID attributes and
// no xml:lang, so both produce the empty node-set.
func fnEmptyNodeSet(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	return e.pcb.newResult(NodeSetResult), nil
}

func fnLast(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	return number(e, float64(ctx.size)), nil
}

// argOrContext returns the first node of the node-set argument, or the
// context node when no argument was given.
func argOrContext(ctx *stepContext, call *CallExpr, args []*Result) (*ResNode, error) {
	if len(args) == 0 {
		return ctx.node, nil
	}
	if args[0].Kind != NodeSetResult {
		return nil, diag.New(diag.WrongResultType, call.Pos, "%s requires a node-set argument", call.Name)
	}
	if len(args[0].Nodes) == 0 {
		return nil, nil
	}
	return args[0].Nodes[0], nil
}

func fnLocalName(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	rn, err := argOrContext(ctx, call, args)
	if err != nil {
		return nil, err
	}
	if rn == nil {
		return str(e, ""), nil
	}
	return str(e, rn.Name()), nil
}

func fnName(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	rn, err := argOrContext(ctx, call, args)
	if err != nil {
		return nil, err
	}
	if rn == nil {
		return str(e, ""), nil
	}
	name := rn.Name()
	if rn.Obj != nil && rn.Obj.Module != nil {
		name = rn.Obj.Module.GetPrefix() + ":" + name
	}
	return str(e, name), nil
}

func fnNamespaceURI(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	rn, err := argOrContext(ctx, call, args)
	if err != nil {
		return nil, err
	}
	if rn == nil {
		return str(e, ""), nil
	}
	return str(e, rn.Namespace()), nil
}

func fnNormalizeSpace(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	var s string
	if len(args) == 0 {
		s = contextStringValue(ctx)
	} else {
		s = args[0].String()
	}
	return str(e, strings.Join(strings.Fields(s), " ")), nil
}

func fnNot(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	return boolean(e, !args[0].Boolean()), nil
}

func fnNumber(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	if len(args) == 0 {
		return number(e, stringToNumber(contextStringValue(ctx))), nil
	}
	return number(e, args[0].Number()), nil
}

func fnPosition(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	return number(e, float64(ctx.pos)), nil
}

// fnRound rounds half toward positive infinity, per XPath 1.0.
func fnRound(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	f := args[0].Number()
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return number(e, f), nil
	default:
		return number(e, math.Floor(f+0.5)), nil
	}
}

func fnStartsWith(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	return boolean(e, strings.HasPrefix(args[0].String(), args[1].String())), nil
}

func fnString(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	if len(args) == 0 {
		return str(e, contextStringValue(ctx)), nil
	}
	return str(e, args[0].String()), nil
}

func fnStringLength(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	var s string
	if len(args) == 0 {
		s = contextStringValue(ctx)
	} else {
		s = args[0].String()
	}
	return number(e, float64(len([]rune(s)))), nil
}

// fnSubstring implements the XPath 1.0 substring rules: positions are
// 1-based and rounded; a start before 1 shrinks the length by the
// shortfall; a non-positive length or a start past the end yields the
// empty string.
func fnSubstring(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	s := []rune(args[0].String())
	start := args[1].Number()
	if math.IsNaN(start) {
		return str(e, ""), nil
	}
	start = math.Floor(start + 0.5)

	length := math.Inf(1)
	if len(args) == 3 {
		length = args[2].Number()
		if math.IsNaN(length) {
			return str(e, ""), nil
		}
		if !math.IsInf(length, 0) {
			length = math.Floor(length + 0.5)
		}
	}

	// Reduce the length by the distance start falls before position 1,
	// then clamp start to 1.
	if start < 1 {
		length -= 1 - start
		start = 1
	}
	if length <= 0 || start > float64(len(s)) {
		return str(e, ""), nil
	}
	from := int(start) - 1
	to := len(s)
	if !math.IsInf(length, 1) && from+int(length) < to {
		to = from + int(length)
	}
	return str(e, string(s[from:to])), nil
}

func fnSubstringAfter(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	s, sub := args[0].String(), args[1].String()
	if i := strings.Index(s, sub); i >= 0 {
		return str(e, s[i+len(sub):]), nil
	}
	return str(e, ""), nil
}

func fnSubstringBefore(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	s, sub := args[0].String(), args[1].String()
	if i := strings.Index(s, sub); i >= 0 {
		return str(e, s[:i]), nil
	}
	return str(e, ""), nil
}

func fnSum(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	if args[0].Kind != NodeSetResult {
		return nil, diag.New(diag.WrongResultType, call.Pos, "sum requires a node-set, got %v", args[0].Kind)
	}
	var sum float64
	for _, rn := range args[0].Nodes {
		sum += rn.NumberValue()
	}
	return number(e, sum), nil
}

func fnTranslate(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	s := args[0].String()
	from := []rune(args[1].String())
	to := []rune(args[2].String())

	repl := make(map[rune]rune, len(from))
	drop := make(map[rune]bool)
	for i, r := range from {
		if _, seen := repl[r]; seen || drop[r] {
			continue
		}
		if i < len(to) {
			repl[r] = to[i]
		} else {
			drop[r] = true
		}
	}

	var b strings.Builder
	for _, r := range s {
		if drop[r] {
			continue
		}
		if nr, ok := repl[r]; ok {
			b.WriteRune(nr)
			continue
		}
		b.WriteRune(r)
	}
	return str(e, b.String()), nil
}

func fnTrue(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	return boolean(e, true), nil
}

// fnModuleLoaded reports whether the named module, optionally at the
// named revision, is loaded in the PCB's module table.
func fnModuleLoaded(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	ms := e.pcb.Modules()
	if ms == nil {
		return boolean(e, false), nil
	}
	name := args[0].String()
	if len(args) == 2 {
		name = name + "@" + args[1].String()
	}
	return boolean(e, ms.Modules[name] != nil), nil
}

// fnFeatureEnabled reports whether the named feature of the named module
// is declared and enabled.
func fnFeatureEnabled(e *evaluator, ctx *stepContext, call *CallExpr, args []*Result) (*Result, error) {
	ms := e.pcb.Modules()
	if ms == nil {
		return boolean(e, false), nil
	}
	mod := ms.Modules[args[0].String()]
	if mod == nil {
		return boolean(e, false), nil
	}
	return boolean(e, mod.FeatureEnabled(args[1].String())), nil
}
