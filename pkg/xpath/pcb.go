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

// This file implements the parse control block (PCB).  One PCB carries an
// expression from source text through parsing, schema-time validation,
// and value-time evaluation.  A PCB is single-threaded; callers wanting
// parallelism create one PCB per goroutine.

import (
	"github.com/openconfig/yax/pkg/diag"
	"github.com/openconfig/yax/pkg/value"
	"github.com/openconfig/yax/pkg/yang"
)

// A SourceVariant tags where an expression came from, which selects the
// accepted grammar subset and the prefix resolution rules.
type SourceVariant int

// The source variants.
const (
	// MustWhen is a YANG must or when expression.
	MustWhen = SourceVariant(iota)
	// LeafrefPath is the path argument of a leafref type.
	LeafrefPath
	// InstanceID restricts the grammar to the instance-identifier
	// subset.
	InstanceID
	// XMLSelect is an expression embedded in an XML document; prefixes
	// resolve against in-scope namespace bindings.
	XMLSelect
)

func (v SourceVariant) String() string {
	switch v {
	case MustWhen:
		return "must-or-when"
	case LeafrefPath:
		return "leafref-path"
	case InstanceID:
		return "instance-identifier"
	case XMLSelect:
		return "xml-select"
	default:
		return "unknown-variant"
	}
}

// Flags adjust evaluation behavior.
type Flags uint32

const (
	// FlagConfigOnly makes non-config nodes invisible to evaluation.
	FlagConfigOnly = Flags(1 << iota)
	// FlagUseRoot starts relative paths at the document root.
	FlagUseRoot
	// FlagInstanceIDOnly restricts the grammar to the
	// instance-identifier subset; set automatically by the InstanceID
	// variant.
	FlagInstanceIDOnly
)

// A Binding is one queued variable binding.
type Binding struct {
	Name  string
	Value *Result
}

// poolCap bounds the PCB's result and result-node free lists.  Frees
// beyond the cap are released to the allocator.
const poolCap = 64

// A PCB is the parse control block for one expression.
type PCB struct {
	// Expr is the source expression text.
	Expr string
	// Variant selects the grammar subset and prefix resolution rules.
	Variant SourceVariant
	// Module is the defining module, used for compile-time prefix
	// resolution under the YANG variants.
	Module *yang.Module
	// Namespaces maps prefixes to namespace URIs for the XMLSelect
	// variant, typically harvested from an XML reader's in-scope
	// bindings.
	Namespaces map[string]string
	// Flags adjust evaluation.
	Flags Flags
	// Filter suppresses warning codes; nil emits everything.
	Filter *diag.Filter

	// Vars is the queued variable bindings, consulted in order.
	Vars []Binding
	// VarResolver, if set, resolves names missing from Vars.
	VarResolver func(name string) (*Result, bool)

	// ParseErr, ValidateErr and EvalErr record the outcome of each
	// phase.
	ParseErr    error
	ValidateErr error
	EvalErr     error

	// Warnings accumulates the warnings emitted during validation.
	Warnings []*diag.Error

	chain *Chain
	ast   Expr

	// Evaluation context.
	ctxObj  *yang.Obj
	ctxVal  *value.Node
	docRoot *value.Node
	// origCtx is the original-context snapshot used by current().
	origCtx *ResNode

	freeResults  []*Result
	freeResnodes []*ResNode
}

// Compile tokenizes and parses expr under variant, resolving prefixes
// against mod at validation time.  The returned PCB records the parse
// outcome; a nil error means the expression is syntactically valid.
func Compile(expr string, variant SourceVariant, mod *yang.Module) (*PCB, error) {
	p := &PCB{
		Expr:    expr,
		Variant: variant,
		Module:  mod,
	}
	if variant == InstanceID {
		p.Flags |= FlagInstanceIDOnly
	}

	modname := ""
	if mod != nil {
		modname = mod.Name
	}
	chain, err := NewChain(expr, modname)
	if err != nil {
		p.ParseErr = err
		return p, err
	}
	p.chain = chain

	ast, err := parseExpr(chain, variant)
	if err != nil {
		p.ParseErr = err
		return p, err
	}
	p.ast = ast
	return p, nil
}

// MustCompile is Compile that panics on error, for tests and static
// tables.
func MustCompile(expr string, variant SourceVariant, mod *yang.Module) *PCB {
	p, err := Compile(expr, variant, mod)
	if err != nil {
		panic(err)
	}
	return p
}

// AST returns the parsed expression tree, or nil if parsing failed.
func (p *PCB) AST() Expr { return p.ast }

// Bind queues a variable binding.  Later bindings shadow earlier ones.
func (p *PCB) Bind(name string, v *Result) {
	p.Vars = append(p.Vars, Binding{Name: name, Value: v})
}

// lookupVar resolves a variable reference.  Prefixed variables are not
// supported.  The returned result is a copy: the caller may release it to
// the pool without touching the binding.
func (p *PCB) lookupVar(v *VarRefExpr) (*Result, error) {
	copyOf := func(r *Result) *Result {
		nr := p.newResult(r.Kind)
		*nr = *r
		return nr
	}
	if v.Prefix != "" {
		return nil, diag.New(diag.UnknownVariable, v.Pos, "prefixed variable $%s:%s not supported", v.Prefix, v.Name)
	}
	for i := len(p.Vars) - 1; i >= 0; i-- {
		if p.Vars[i].Name == v.Name {
			return copyOf(p.Vars[i].Value), nil
		}
	}
	if p.VarResolver != nil {
		if r, ok := p.VarResolver(v.Name); ok {
			return copyOf(r), nil
		}
	}
	return nil, diag.New(diag.UnknownVariable, v.Pos, "unknown variable $%s", v.Name)
}

// Validate evaluates p in schema mode with ctx as the context node.
// Node identity is the schema object pointer; absent nodes produce
// warnings, demoted to counters when their code is suppressed by the
// PCB's Filter.  The result is the statically computed value.
func (p *PCB) Validate(ctx *yang.Obj) (*Result, []error) {
	if p.ParseErr != nil {
		return nil, []error{p.ParseErr}
	}
	p.ctxObj = ctx
	p.ctxVal = nil
	p.docRoot = nil
	p.origCtx = &ResNode{Obj: ctx}

	e := &evaluator{pcb: p, schema: true}
	res, err := e.eval(p.ast, &stepContext{node: p.origCtx, pos: 1, size: 1})
	if err != nil {
		p.ValidateErr = err
		return nil, []error{err}
	}
	if res.Kind == NodeSetResult && len(res.Nodes) == 0 {
		p.warn(diag.EmptyXPathResult, "expression %q selects nothing", p.Expr)
	}
	return res, nil
}

// Eval evaluates p in value mode with ctx as the context node and ctx's
// tree root as the document root.
func (p *PCB) Eval(ctx *value.Node) (*Result, error) {
	return p.EvalAt(ctx, ctx.Root())
}

// EvalAt evaluates p in value mode with an explicit document root.  Node
// identity is the value node pointer; absent nodes yield empty node-sets
// rather than errors.
func (p *PCB) EvalAt(ctx, root *value.Node) (*Result, error) {
	if p.ParseErr != nil {
		return nil, p.ParseErr
	}
	start := ctx
	if p.Flags&FlagUseRoot != 0 {
		start = root
	}
	p.ctxObj = nil
	p.ctxVal = start
	p.docRoot = root
	p.origCtx = &ResNode{Val: start}

	e := &evaluator{pcb: p, schema: false}
	res, err := e.eval(p.ast, &stepContext{node: p.origCtx, pos: 1, size: 1})
	if err != nil {
		p.EvalErr = err
		return nil, err
	}
	return res, nil
}

// warn reports a warning through the PCB's filter, recording it when the
// code is enabled.
func (p *PCB) warn(c diag.Code, format string, v ...interface{}) {
	modname := ""
	if p.Module != nil {
		modname = p.Module.Name
	}
	if w := p.Filter.Warn(c, diag.Pos{Module: modname}, format, v...); w != nil {
		p.Warnings = append(p.Warnings, w)
	}
}

// newResult returns a Result of kind k from the PCB's pool.
func (p *PCB) newResult(k ResultKind) *Result {
	if n := len(p.freeResults); n > 0 {
		r := p.freeResults[n-1]
		p.freeResults = p.freeResults[:n-1]
		*r = Result{Kind: k}
		return r
	}
	return &Result{Kind: k}
}

// putResult returns r to the pool, up to the pool cap.  The node slice is
// dropped, not recycled: result-nodes may be shared between results, and
// only the evaluator's traversals release them explicitly.
func (p *PCB) putResult(r *Result) {
	if r == nil || len(p.freeResults) >= poolCap {
		return
	}
	r.Nodes = nil
	p.freeResults = append(p.freeResults, r)
}

// newResnode returns a ResNode from the pool.
func (p *PCB) newResnode() *ResNode {
	if n := len(p.freeResnodes); n > 0 {
		rn := p.freeResnodes[n-1]
		p.freeResnodes = p.freeResnodes[:n-1]
		*rn = ResNode{}
		return rn
	}
	return &ResNode{}
}

// putResnode returns rn to the pool, up to the pool cap.
func (p *PCB) putResnode(rn *ResNode) {
	if rn == nil || len(p.freeResnodes) >= poolCap {
		return
	}
	p.freeResnodes = append(p.freeResnodes, rn)
}

// Modules returns the module table reachable from the PCB's defining
// module, or nil.
func (p *PCB) Modules() *yang.Modules {
	if p.Module == nil {
		return nil
	}
	return p.Module.Modules()
}
