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

// This file implements the two-mode evaluator.  The same code path
// handles schema mode (node identity is the schema object pointer) and
// value mode (node identity is the value node pointer); the mode is
// consulted per step through the ResNode accessors.
//
// The // operator is never expanded eagerly.  A step preceded by //
// marks its input nodes with the dblslash flag, and each axis consults
// the flag to broaden its search to arbitrary depth, propagating the
// flag to the nodes it finds.

import (
	"math"

	log "github.com/golang/glog"

	"github.com/openconfig/yax/pkg/diag"
	"github.com/openconfig/yax/pkg/value"
	"github.com/openconfig/yax/pkg/yang"
)

// A stepContext is the context of one evaluation: the context node, its
// proximity position, and the context size.
type stepContext struct {
	node *ResNode
	pos  int
	size int
}

// An evaluator runs one expression over one context.  It is purely
// CPU-bound and contains no suspension points.
type evaluator struct {
	pcb    *PCB
	schema bool
}

// eval evaluates x with context ctx.
func (e *evaluator) eval(x Expr, ctx *stepContext) (*Result, error) {
	switch n := x.(type) {
	case NumberLit:
		r := e.pcb.newResult(NumberResult)
		r.Num = float64(n)
		return r, nil

	case StringLit:
		r := e.pcb.newResult(StringResult)
		r.Str = string(n)
		return r, nil

	case *VarRefExpr:
		return e.pcb.lookupVar(n)

	case *NegExpr:
		v, err := e.eval(n.X, ctx)
		if err != nil {
			return nil, err
		}
		r := e.pcb.newResult(NumberResult)
		r.Num = -v.Number()
		e.pcb.putResult(v)
		return r, nil

	case *BinaryExpr:
		return e.evalBinary(n, ctx)

	case *UnionExpr:
		return e.evalUnion(n, ctx)

	case *CallExpr:
		return e.evalCall(n, ctx)

	case *FilterExpr:
		return e.evalFilter(n, ctx)

	case *PathExpr:
		return e.evalPath(n, ctx)

	default:
		return nil, diag.New(diag.InternalValue, diag.Pos{}, "unknown expression node %T", x)
	}
}

func (e *evaluator) evalBinary(n *BinaryExpr, ctx *stepContext) (*Result, error) {
	lhs, err := e.eval(n.LHS, ctx)
	if err != nil {
		return nil, err
	}
	rhs, err := e.eval(n.RHS, ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		e.pcb.putResult(lhs)
		e.pcb.putResult(rhs)
	}()

	r := e.pcb.newResult(BooleanResult)
	switch n.Op {
	case OpOr:
		r.Boo = lhs.Boolean() || rhs.Boolean()
	case OpAnd:
		r.Boo = lhs.Boolean() && rhs.Boolean()
	case OpEq:
		r.Boo = compareEqual(lhs, rhs, false)
	case OpNotEq:
		r.Boo = compareEqual(lhs, rhs, true)
	case OpLt, OpGt, OpLtEq, OpGtEq:
		r.Boo = compareRelational(n.Op, lhs, rhs)
	default:
		r.Kind = NumberResult
		a, b := lhs.Number(), rhs.Number()
		switch n.Op {
		case OpAdd:
			r.Num = a + b
		case OpSub:
			r.Num = a - b
		case OpMul:
			r.Num = a * b
		case OpDiv:
			// Division by zero produces +/-Inf, never an error.
			r.Num = a / b
		case OpMod:
			// mod truncates toward zero.  This deliberately
			// follows floating-point truncation rather than IEEE
			// remainder; a zero divisor yields NaN and does not
			// abort evaluation.
			r.Num = a - math.Trunc(a/b)*b
		}
	}
	return r, nil
}

// compareEqual implements = and != with the XPath 1.0 mixed-type rules.
// Node-set comparisons are existential.
func compareEqual(a, b *Result, notEq bool) bool {
	// Node-set versus node-set: true iff some pair of nodes compares
	// equal (or unequal for !=) by string value.
	if a.Kind == NodeSetResult && b.Kind == NodeSetResult {
		for _, an := range a.Nodes {
			as := an.StringValue()
			for _, bn := range b.Nodes {
				if (as == bn.StringValue()) != notEq {
					return true
				}
			}
		}
		return false
	}

	// Node-set versus scalar: existential over the node-set, coercing
	// by the scalar's type.
	if a.Kind == NodeSetResult || b.Kind == NodeSetResult {
		ns, sc := a, b
		if b.Kind == NodeSetResult {
			ns, sc = b, a
		}
		switch sc.Kind {
		case BooleanResult:
			return (ns.Boolean() == sc.Boo) != notEq
		case NumberResult:
			for _, rn := range ns.Nodes {
				if (rn.NumberValue() == sc.Num) != notEq {
					return true
				}
			}
			return false
		default:
			s := sc.String()
			for _, rn := range ns.Nodes {
				if (rn.StringValue() == s) != notEq {
					return true
				}
			}
			return false
		}
	}

	// Scalar versus scalar: boolean beats number beats string in the
	// coercion priority.
	var eq bool
	switch {
	case a.Kind == BooleanResult || b.Kind == BooleanResult:
		eq = a.Boolean() == b.Boolean()
	case a.Kind == NumberResult || b.Kind == NumberResult:
		eq = a.Number() == b.Number()
	default:
		eq = a.String() == b.String()
	}
	return eq != notEq
}

// compareRelational implements <, >, <=, >= — always numeric, with
// node-sets handled existentially.
func compareRelational(op BinOp, a, b *Result) bool {
	cmp := func(x, y float64) bool {
		switch op {
		case OpLt:
			return x < y
		case OpGt:
			return x > y
		case OpLtEq:
			return x <= y
		default:
			return x >= y
		}
	}
	switch {
	case a.Kind == NodeSetResult && b.Kind == NodeSetResult:
		for _, an := range a.Nodes {
			for _, bn := range b.Nodes {
				if cmp(an.NumberValue(), bn.NumberValue()) {
					return true
				}
			}
		}
		return false
	case a.Kind == NodeSetResult:
		y := b.Number()
		for _, an := range a.Nodes {
			if cmp(an.NumberValue(), y) {
				return true
			}
		}
		return false
	case b.Kind == NodeSetResult:
		x := a.Number()
		for _, bn := range b.Nodes {
			if cmp(x, bn.NumberValue()) {
				return true
			}
		}
		return false
	default:
		return cmp(a.Number(), b.Number())
	}
}

func (e *evaluator) evalUnion(n *UnionExpr, ctx *stepContext) (*Result, error) {
	out := e.pcb.newResult(NodeSetResult)
	for _, part := range n.Parts {
		r, err := e.eval(part, ctx)
		if err != nil {
			return nil, err
		}
		if r.Kind != NodeSetResult {
			return nil, diag.New(diag.WrongResultType, e.pcb.pos(), "union operand is a %v, not a node-set", r.Kind)
		}
		for _, rn := range r.Nodes {
			out.addNode(rn)
		}
	}
	out.renumber()
	return out, nil
}

func (e *evaluator) evalCall(n *CallExpr, ctx *stepContext) (*Result, error) {
	fd := functions[n.Name]
	if fd == nil {
		return nil, diag.New(diag.InvalidXPathExpr, n.Pos, "unknown function: %s", n.Name)
	}
	args := make([]*Result, len(n.Args))
	for i, a := range n.Args {
		r, err := e.eval(a, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = r
	}
	if log.V(5) {
		log.Infof("xpath: calling %s/%d", n.Name, len(args))
	}
	return fd.impl(e, ctx, n, args)
}

func (e *evaluator) evalFilter(n *FilterExpr, ctx *stepContext) (*Result, error) {
	r, err := e.eval(n.Primary, ctx)
	if err != nil {
		return nil, err
	}
	if len(n.Preds) == 0 {
		return r, nil
	}
	if r.Kind != NodeSetResult {
		return nil, diag.New(diag.WrongResultType, e.pcb.pos(), "predicate applied to a %v, not a node-set", r.Kind)
	}
	for _, pred := range n.Preds {
		r, err = e.filterNodes(r, pred)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

// filterNodes applies one predicate to each node of set, with position
// and last bound to the node's proximity position and the set size.  A
// numeric predicate result is a position test; everything else coerces
// to boolean.
func (e *evaluator) filterNodes(set *Result, pred Expr) (*Result, error) {
	set.renumber()
	out := e.pcb.newResult(NodeSetResult)
	size := len(set.Nodes)
	for i, rn := range set.Nodes {
		pr, err := e.eval(pred, &stepContext{node: rn, pos: i + 1, size: size})
		if err != nil {
			return nil, err
		}
		keep := false
		if pr.Kind == NumberResult {
			keep = pr.Num == float64(i+1)
		} else {
			keep = pr.Boolean()
		}
		e.pcb.putResult(pr)
		if keep {
			out.addNode(rn)
		}
	}
	out.renumber()
	return out, nil
}

func (e *evaluator) evalPath(n *PathExpr, ctx *stepContext) (*Result, error) {
	set := e.pcb.newResult(NodeSetResult)

	switch {
	case n.Filter != nil:
		r, err := e.evalFilter(n.Filter, ctx)
		if err != nil {
			return nil, err
		}
		if r.Kind != NodeSetResult {
			return nil, diag.New(diag.WrongResultType, e.pcb.pos(), "path step applied to a %v", r.Kind)
		}
		set = r
	case n.Absolute:
		rn := e.rootNode()
		if n.AbsDesc {
			rn.dblslash = true
		}
		set.addNode(rn)
	default:
		rn := e.pcb.newResnode()
		*rn = *ctx.node
		set.addNode(rn)
	}

	for _, s := range n.Steps {
		var err error
		set, err = e.evalStep(set, s)
		if err != nil {
			return nil, err
		}
	}
	set.renumber()
	return set, nil
}

// rootNode returns a ResNode for the document root in the current mode.
func (e *evaluator) rootNode() *ResNode {
	rn := e.pcb.newResnode()
	if e.schema {
		rn.Obj = e.pcb.ctxObj.Root()
	} else {
		rn.Val = e.pcb.docRoot
	}
	return rn
}

// evalStep evaluates one location step over every node of in, preserving
// document order, then applies the step's predicates.
func (e *evaluator) evalStep(in *Result, s *Step) (*Result, error) {
	out := e.pcb.newResult(NodeSetResult)

	if s.Desc {
		for _, rn := range in.Nodes {
			rn.dblslash = true
		}
	}

	for _, rn := range in.Nodes {
		e.stepFrom(rn, s, out)
	}

	if e.schema && len(in.Nodes) > 0 && len(out.Nodes) == 0 {
		e.warnEmptyStep(s)
	}

	out.renumber()
	for _, pred := range s.Preds {
		var err error
		out, err = e.filterNodes(out, pred)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// warnEmptyStep reports the axis-specific warning for a step that
// emptied a non-empty node-set during schema validation.
func (e *evaluator) warnEmptyStep(s *Step) {
	var c diag.Code
	switch s.Axis {
	case AxisParent:
		c = diag.NoXPathParent
	case AxisChild:
		c = diag.NoXPathChild
	case AxisDescendant, AxisDescendantOrSelf:
		c = diag.NoXPathDescendant
	case AxisAncestor, AxisAncestorOrSelf:
		c = diag.NoXPathAncestor
	default:
		c = diag.NoXPathNodes
	}
	e.pcb.warn(c, "%s axis selects nothing in %q", s.Axis, e.pcb.Expr)
}

// stepFrom adds to out the nodes reached from rn along s's axis.  The
// dblslash flag on rn broadens child, self and parent searches to
// arbitrary depth and is propagated to every node found.
func (e *evaluator) stepFrom(rn *ResNode, s *Step, out *Result) {
	add := func(n *ResNode) {
		n.dblslash = rn.dblslash
		if e.matches(n, &s.Test) {
			out.addNode(n)
		} else if n != rn {
			e.pcb.putResnode(n)
		}
	}

	switch s.Axis {
	case AxisAttribute, AxisNamespace:
		// YANG data has no attributes; namespaces are not exposed.
		return

	case AxisSelf:
		if rn.dblslash {
			e.walkDescendantsOrSelf(rn, add)
			return
		}
		self := e.pcb.newResnode()
		*self = *rn
		add(self)

	case AxisChild:
		if rn.dblslash {
			e.walkDescendants(rn, add)
			return
		}
		for _, c := range e.children(rn) {
			add(c)
		}

	case AxisDescendant:
		e.walkDescendants(rn, add)

	case AxisDescendantOrSelf:
		e.walkDescendantsOrSelf(rn, add)

	case AxisParent:
		if rn.dblslash {
			// With an unprocessed // in effect the parent step
			// behaves as ancestor-or-self, which keeps the
			// document root reachable.
			e.walkAncestorsOrSelf(rn, add)
			return
		}
		if p := e.parent(rn); p != nil {
			add(p)
		}

	case AxisAncestor:
		for p := e.parent(rn); p != nil; {
			pp := e.pcb.newResnode()
			*pp = *p
			add(p)
			p = e.parent(pp)
			e.pcb.putResnode(pp)
		}

	case AxisAncestorOrSelf:
		e.walkAncestorsOrSelf(rn, add)

	case AxisFollowingSibling:
		e.walkSiblings(rn, false, add)

	case AxisPrecedingSibling:
		e.walkSiblings(rn, true, add)

	case AxisFollowing:
		e.walkDocument(rn, false, add)

	case AxisPreceding:
		e.walkDocument(rn, true, add)
	}
}

// matches reports whether rn satisfies the node test.
func (e *evaluator) matches(rn *ResNode, t *NodeTest) bool {
	switch t.Kind {
	case TestNode:
		return true
	case TestText, TestComment, TestPI:
		// No text, comment or processing-instruction nodes exist in
		// a YANG tree.
		return false
	}

	if t.Name != "*" && rn.Name() != t.Name {
		return false
	}
	if t.Prefix == "" {
		return true
	}
	mod := e.prefixModule(t.Prefix)
	if mod == nil {
		return false
	}
	if ns := rn.Namespace(); ns != "" && mod.Namespace != nil {
		return ns == mod.Namespace.Name
	}
	return true
}

// prefixModule resolves a prefix to its module per the PCB variant.
func (e *evaluator) prefixModule(prefix string) *yang.Module {
	if e.pcb.Variant == XMLSelect {
		ns := e.pcb.Namespaces[prefix]
		if ns == "" || e.pcb.Modules() == nil {
			return nil
		}
		m, err := e.pcb.Modules().FindModuleByNamespace(ns)
		if err != nil {
			return nil
		}
		return m
	}
	if e.pcb.Module == nil {
		return nil
	}
	return yang.FindModuleByPrefix(e.pcb.Module, prefix)
}

// visible reports whether a schema object participates in evaluation.
func (e *evaluator) visible(o *yang.Obj) bool {
	if e.pcb.Flags&FlagConfigOnly != 0 && !o.IsConfig() {
		return false
	}
	return true
}

// children returns the child nodes of rn in document order.
func (e *evaluator) children(rn *ResNode) []*ResNode {
	var out []*ResNode
	if e.schema {
		if rn.Obj == nil {
			return nil
		}
		kids := rn.Obj.DataChildren()
		if rn.Obj.Kind == yang.ObjRPC {
			if rn.Obj.Input != nil {
				kids = append(kids, rn.Obj.Input)
			}
			if rn.Obj.Output != nil {
				kids = append(kids, rn.Obj.Output)
			}
		}
		for _, c := range kids {
			if !e.visible(c) {
				continue
			}
			nn := e.pcb.newResnode()
			nn.Obj = c
			out = append(out, nn)
		}
		return out
	}

	v, err := rn.Val.Resolve()
	if err != nil {
		return nil
	}
	for _, c := range v.Children() {
		if c.Schema != nil && !e.visible(c.Schema) {
			continue
		}
		nn := e.pcb.newResnode()
		nn.Val = c
		out = append(out, nn)
	}
	return out
}

// parent returns rn's parent node, or nil at the root.
func (e *evaluator) parent(rn *ResNode) *ResNode {
	if e.schema {
		if rn.Obj == nil || rn.Obj.Kind == yang.ObjModule {
			return nil
		}
		p := rn.Obj.DataParent()
		if p == nil {
			p = rn.Obj.Root()
		}
		nn := e.pcb.newResnode()
		nn.Obj = p
		return nn
	}
	if rn.Val == nil || rn.Val.Parent == nil {
		return nil
	}
	nn := e.pcb.newResnode()
	nn.Val = rn.Val.Parent
	return nn
}

func (e *evaluator) walkDescendants(rn *ResNode, visit func(*ResNode)) {
	for _, c := range e.children(rn) {
		cc := e.pcb.newResnode()
		*cc = *c
		visit(c)
		e.walkDescendants(cc, visit)
		e.pcb.putResnode(cc)
	}
}

func (e *evaluator) walkDescendantsOrSelf(rn *ResNode, visit func(*ResNode)) {
	self := e.pcb.newResnode()
	*self = *rn
	visit(self)
	e.walkDescendants(rn, visit)
}

func (e *evaluator) walkAncestorsOrSelf(rn *ResNode, visit func(*ResNode)) {
	self := e.pcb.newResnode()
	*self = *rn
	visit(self)
	for p := e.parent(rn); p != nil; {
		pp := e.pcb.newResnode()
		*pp = *p
		visit(p)
		p = e.parent(pp)
		e.pcb.putResnode(pp)
	}
}

// walkSiblings visits rn's siblings, preceding or following, in the
// direction's document order.
func (e *evaluator) walkSiblings(rn *ResNode, preceding bool, visit func(*ResNode)) {
	p := e.parent(rn)
	if p == nil {
		return
	}
	sibs := e.children(p)
	idx := -1
	for i, s := range sibs {
		if s.identity() == rn.identity() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	if preceding {
		for i := idx - 1; i >= 0; i-- {
			visit(sibs[i])
		}
	} else {
		for i := idx + 1; i < len(sibs); i++ {
			visit(sibs[i])
		}
	}
}

// walkDocument visits every node strictly after (or before) rn in
// document order, excluding ancestors for preceding and descendants for
// following, per the XPath axis definitions.
func (e *evaluator) walkDocument(rn *ResNode, preceding bool, visit func(*ResNode)) {
	root := e.rootNode()
	defer e.pcb.putResnode(root)

	ancestors := map[interface{}]bool{}
	for p := e.parent(rn); p != nil; {
		ancestors[p.identity()] = true
		pp := e.pcb.newResnode()
		*pp = *p
		p = e.parent(pp)
		e.pcb.putResnode(pp)
	}

	seenSelf := false
	inSelfSubtree := 0

	var walk func(n *ResNode)
	walk = func(n *ResNode) {
		isSelf := n.identity() == rn.identity()
		if isSelf {
			seenSelf = true
			inSelfSubtree++
		}
		cc := e.pcb.newResnode()
		*cc = *n
		switch {
		case isSelf:
		case !seenSelf && preceding:
			if !ancestors[n.identity()] {
				visit(n)
			}
		case seenSelf && !preceding && inSelfSubtree == 0:
			visit(n)
		}
		for _, c := range e.children(cc) {
			walk(c)
		}
		e.pcb.putResnode(cc)
		if isSelf {
			inSelfSubtree--
		}
	}
	walk(root)
}

// pos returns a best-effort position for runtime errors.
func (p *PCB) pos() diag.Pos {
	modname := ""
	if p.Module != nil {
		modname = p.Module.Name
	}
	return diag.Pos{Module: modname}
}

// EvalLeafref evaluates a leafref path PCB against the value tree,
// returning the referenced nodes whose value equals leaf's value.
func (p *PCB) EvalLeafref(leaf *value.Node) (*Result, error) {
	res, err := p.Eval(leaf)
	if err != nil {
		return nil, err
	}
	if res.Kind != NodeSetResult {
		return nil, diag.New(diag.WrongResultType, p.pos(), "leafref path yields a %v", res.Kind)
	}
	want := leaf.String()
	out := p.newResult(NodeSetResult)
	for _, rn := range res.Nodes {
		if rn.StringValue() == want {
			out.addNode(rn)
		}
	}
	out.renumber()
	return out, nil
}
