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

// This file defines the abstract syntax of a parsed XPath 1.0 expression.
// The evaluator is a recursive interpreter over these nodes; recursion
// depth is bounded by expression nesting, which is small in practice.

import "github.com/openconfig/yax/pkg/diag"

// An Expr is a node of the expression tree.
type Expr interface {
	isExpr()
}

// A BinOp identifies a binary operator.
type BinOp int

// The binary operators, in no particular order.
const (
	OpOr = BinOp(iota)
	OpAnd
	OpEq
	OpNotEq
	OpLt
	OpGt
	OpLtEq
	OpGtEq
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
)

var binOpNames = map[BinOp]string{
	OpOr:    "or",
	OpAnd:   "and",
	OpEq:    "=",
	OpNotEq: "!=",
	OpLt:    "<",
	OpGt:    ">",
	OpLtEq:  "<=",
	OpGtEq:  ">=",
	OpAdd:   "+",
	OpSub:   "-",
	OpMul:   "*",
	OpDiv:   "div",
	OpMod:   "mod",
}

func (o BinOp) String() string { return binOpNames[o] }

// A BinaryExpr applies Op to LHS and RHS.
type BinaryExpr struct {
	Op  BinOp
	LHS Expr
	RHS Expr
}

// A NegExpr is a unary minus.  Chained minuses nest.
type NegExpr struct {
	X Expr
}

// A UnionExpr merges the node-sets of its parts by identity.
type UnionExpr struct {
	Parts []Expr
}

// A NumberLit is a numeric literal.
type NumberLit float64

// A StringLit is a quoted literal.
type StringLit string

// A VarRefExpr references a variable binding.  Prefixed variables are not
// supported; a non-empty Prefix is an unknown-variable error at
// evaluation time.
type VarRefExpr struct {
	Prefix string
	Name   string
	Pos    diag.Pos
}

// A CallExpr invokes a core or YANG extension function.
type CallExpr struct {
	Name string
	Args []Expr
	Pos  diag.Pos
}

// A PathExpr is a location path, optionally rooted at a filter
// expression.
type PathExpr struct {
	// Filter, when non-nil, provides the initial node-set; otherwise
	// the path starts at the context node or the root.
	Filter *FilterExpr
	// Absolute paths start at the document root.
	Absolute bool
	// AbsDesc records a leading //.
	AbsDesc bool
	Steps   []*Step
}

// A FilterExpr is a primary expression with zero or more predicates.
type FilterExpr struct {
	Primary Expr
	Preds   []Expr
}

// An Axis identifies an XPath axis.
type Axis int

// The thirteen XPath axes.  Attribute and namespace always produce empty
// node-sets: YANG data has no attributes and namespaces are not exposed
// as nodes.
const (
	AxisChild = Axis(iota)
	AxisDescendant
	AxisDescendantOrSelf
	AxisParent
	AxisAncestor
	AxisAncestorOrSelf
	AxisSelf
	AxisFollowingSibling
	AxisPrecedingSibling
	AxisFollowing
	AxisPreceding
	AxisAttribute
	AxisNamespace
)

var axisNames = map[string]Axis{
	"child":             AxisChild,
	"descendant":        AxisDescendant,
	"descendant-or-self": AxisDescendantOrSelf,
	"parent":            AxisParent,
	"ancestor":          AxisAncestor,
	"ancestor-or-self":  AxisAncestorOrSelf,
	"self":              AxisSelf,
	"following-sibling": AxisFollowingSibling,
	"preceding-sibling": AxisPrecedingSibling,
	"following":         AxisFollowing,
	"preceding":         AxisPreceding,
	"attribute":         AxisAttribute,
	"namespace":         AxisNamespace,
}

func (a Axis) String() string {
	for n, ax := range axisNames {
		if ax == a {
			return n
		}
	}
	return "unknown-axis"
}

// A TestKind classifies a node test.
type TestKind int

// Node test kinds.  TestText, TestComment and TestPI match nothing in a
// YANG tree but are recognized per the grammar.
const (
	TestName = TestKind(iota)
	TestNode
	TestText
	TestComment
	TestPI
)

// A NodeTest restricts the nodes selected by a step.
type NodeTest struct {
	Kind   TestKind
	Prefix string // module prefix of a name test, "" if none
	Name   string // local name of a name test; "*" matches any
}

// A Step is one step of a location path.
type Step struct {
	Axis  Axis
	Test  NodeTest
	Preds []Expr
	// Desc records that this step was preceded by //.  The evaluator
	// carries the flag on result-nodes rather than expanding the
	// descent eagerly.
	Desc bool
}

func (*BinaryExpr) isExpr() {}
func (*NegExpr) isExpr()    {}
func (*UnionExpr) isExpr()  {}
func (NumberLit) isExpr()   {}
func (StringLit) isExpr()   {}
func (*VarRefExpr) isExpr() {}
func (*CallExpr) isExpr()   {}
func (*PathExpr) isExpr()   {}
func (*FilterExpr) isExpr() {}
