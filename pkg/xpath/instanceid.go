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

// This file implements the instance-identifier validator: the structural
// check that an expression stays inside the instance-identifier
// sub-grammar, and the instance-count checks run after value-mode
// evaluation.
//
// The sub-grammar permits only /prefix:name child steps with predicates
// of the form [prefix:key = literal] against list keys or [. = literal]
// against a leaf-list entry.  Any other construct is an invalid instance
// identifier, reported distinctly from general XPath errors.

import (
	"github.com/openconfig/yax/pkg/diag"
	"github.com/openconfig/yax/pkg/value"
)

// checkInstanceIDExpr verifies that e stays inside the sub-grammar.
func checkInstanceIDExpr(e Expr, module string) error {
	bad := func(format string, v ...interface{}) error {
		return diag.New(diag.InvalidInstanceID, diag.Pos{Module: module}, format, v...)
	}

	pe, ok := e.(*PathExpr)
	if !ok {
		return bad("an instance identifier must be a location path")
	}
	if !pe.Absolute || pe.AbsDesc || pe.Filter != nil {
		return bad("an instance identifier must be an absolute /-separated path")
	}
	for _, s := range pe.Steps {
		if s.Desc {
			return bad("// is not allowed in an instance identifier")
		}
		if s.Axis != AxisChild {
			return bad("axis %v is not allowed in an instance identifier", s.Axis)
		}
		if s.Test.Kind != TestName || s.Test.Name == "*" {
			return bad("an instance identifier step must name a node")
		}
		for _, pred := range s.Preds {
			if err := checkInstanceIDPred(pred, bad); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkInstanceIDPred verifies one predicate: [qname = literal] or
// [. = literal].
func checkInstanceIDPred(pred Expr, bad func(string, ...interface{}) error) error {
	be, ok := pred.(*BinaryExpr)
	if !ok || be.Op != OpEq {
		return bad("an instance identifier predicate must be a single = comparison")
	}

	// The LHS must be a key leaf name or . (the leaf-list context).
	lp, ok := be.LHS.(*PathExpr)
	if !ok || lp.Absolute || len(lp.Steps) != 1 {
		return bad("the left side of an instance identifier predicate must name a key leaf or be .")
	}
	s := lp.Steps[0]
	switch {
	case s.Axis == AxisSelf && s.Test.Kind == TestNode && len(s.Preds) == 0:
		// [. = literal]
	case s.Axis == AxisChild && s.Test.Kind == TestName && s.Test.Name != "*" && len(s.Preds) == 0:
		// [key = literal]
	default:
		return bad("the left side of an instance identifier predicate must name a key leaf or be .")
	}

	switch be.RHS.(type) {
	case StringLit, NumberLit:
		return nil
	default:
		return bad("the right side of an instance identifier predicate must be a literal")
	}
}

// CheckInstance applies the instance-count rules to the node-set res
// produced by value-mode evaluation of p:
//
//   - constrained (require-instance true): exactly one match
//   - unconstrained instance-identifier: at most one match
//
// Violations are reported as missing-instance or invalid-instance-id
// errors; a syntactically valid expression with zero matches under
// require-instance still fails.
func (p *PCB) CheckInstance(res *Result, requireInstance bool) error {
	if res.Kind != NodeSetResult {
		return diag.New(diag.WrongResultType, p.pos(), "instance identifier yields a %v", res.Kind)
	}
	n := len(res.Nodes)
	switch {
	case requireInstance && n == 0:
		return diag.New(diag.MissingInstance, p.pos(), "no instance matches %q", p.Expr)
	case n > 1:
		return diag.New(diag.InvalidInstanceID, p.pos(), "%d instances match %q", n, p.Expr)
	}
	return nil
}

// CheckLeafrefInstance enforces require-instance for a leafref leaf: at
// least one target instance must hold the leaf's value.
func (p *PCB) CheckLeafrefInstance(leaf *value.Node) error {
	if leaf.Schema == nil || leaf.Schema.Type == nil {
		return diag.New(diag.InternalValue, p.pos(), "leafref check on untyped node")
	}
	if leaf.Schema.Type.OptionalInstance {
		return nil
	}
	res, err := p.EvalLeafref(leaf)
	if err != nil {
		return err
	}
	if len(res.Nodes) == 0 {
		return diag.New(diag.MissingInstance, p.pos(), "leafref %q has no instance with value %q", p.Expr, leaf.String())
	}
	return nil
}
