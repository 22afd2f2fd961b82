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

// This file implements the recursive-descent parser over a token chain,
// producing the expression tree defined in expr.go.  The grammar is
// standard XPath 1.0:
//
//	Expr         = OrExpr
//	OrExpr       = AndExpr ('or' AndExpr)*
//	AndExpr      = EqExpr ('and' EqExpr)*
//	EqExpr       = RelExpr (('=' | '!=') RelExpr)*
//	RelExpr      = AddExpr (('<'|'>'|'<='|'>=') AddExpr)*
//	AddExpr      = MulExpr (('+'|'-') MulExpr)*
//	MulExpr      = UnaryExpr (('*'|'div'|'mod') UnaryExpr)*
//	UnaryExpr    = '-'* UnionExpr
//	UnionExpr    = PathExpr ('|' PathExpr)*
//	PathExpr     = LocationPath | FilterExpr (('/'|'//') RelLocationPath)?
//	FilterExpr   = PrimaryExpr Predicate*
//	PrimaryExpr  = VarRef | '(' Expr ')' | Literal | Number | FunctionCall
//	LocationPath = '/'? Step (('/'|'//') Step)*
//	Step         = (AxisName '::')? NodeTest Predicate* | '.' | '..'
//	NodeTest     = NameTest | NodeType '(' Literal? ')'
//
// A bare identifier followed by '(' is a function call unless the
// identifier is a node-type name; 'identifier ::' is an axis specifier
// iff the identifier is a recognized axis name.

import (
	"github.com/openconfig/yax/pkg/diag"
)

// nodeTypeNames are the identifiers that introduce a node-type test
// rather than a function call.
var nodeTypeNames = map[string]TestKind{
	"node":                   TestNode,
	"text":                   TestText,
	"comment":                TestComment,
	"processing-instruction": TestPI,
}

type parser struct {
	c       *Chain
	variant SourceVariant
}

// parseExpr parses the chain into an expression tree.
func parseExpr(c *Chain, variant SourceVariant) (Expr, error) {
	p := &parser{c: c, variant: variant}
	e, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	if t := c.Peek(); t.Kind != EOF {
		return nil, p.errf("trailing %v after expression", t.Kind)
	}
	if variant == InstanceID {
		if err := checkInstanceIDExpr(e, c.module); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (p *parser) errf(format string, v ...interface{}) error {
	return diag.New(diag.InvalidXPathExpr, p.c.Pos(), format, v...)
}

// binaryLoop parses a left-associative run of sub joined by the operators
// that match.
func (p *parser) binaryLoop(sub func() (Expr, error), match func() (BinOp, bool)) (Expr, error) {
	lhs, err := sub()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := match()
		if !ok {
			return lhs, nil
		}
		rhs, err := sub()
		if err != nil {
			return nil, err
		}
		lhs = &BinaryExpr{Op: op, LHS: lhs, RHS: rhs}
	}
}

func (p *parser) orExpr() (Expr, error) {
	return p.binaryLoop(p.andExpr, func() (BinOp, bool) {
		if p.c.MatchText(Name, "or") != nil {
			return OpOr, true
		}
		return 0, false
	})
}

func (p *parser) andExpr() (Expr, error) {
	return p.binaryLoop(p.eqExpr, func() (BinOp, bool) {
		if p.c.MatchText(Name, "and") != nil {
			return OpAnd, true
		}
		return 0, false
	})
}

func (p *parser) eqExpr() (Expr, error) {
	return p.binaryLoop(p.relExpr, func() (BinOp, bool) {
		switch {
		case p.c.Match(Eq) != nil:
			return OpEq, true
		case p.c.Match(NotEq) != nil:
			return OpNotEq, true
		}
		return 0, false
	})
}

func (p *parser) relExpr() (Expr, error) {
	return p.binaryLoop(p.addExpr, func() (BinOp, bool) {
		switch {
		case p.c.Match(Lt) != nil:
			return OpLt, true
		case p.c.Match(Gt) != nil:
			return OpGt, true
		case p.c.Match(LtEq) != nil:
			return OpLtEq, true
		case p.c.Match(GtEq) != nil:
			return OpGtEq, true
		}
		return 0, false
	})
}

func (p *parser) addExpr() (Expr, error) {
	return p.binaryLoop(p.mulExpr, func() (BinOp, bool) {
		switch {
		case p.c.Match(Plus) != nil:
			return OpAdd, true
		case p.c.Match(Minus) != nil:
			return OpSub, true
		}
		return 0, false
	})
}

func (p *parser) mulExpr() (Expr, error) {
	return p.binaryLoop(p.unaryExpr, func() (BinOp, bool) {
		switch {
		case p.c.Match(Star) != nil:
			return OpMul, true
		case p.c.MatchText(Name, "div") != nil:
			return OpDiv, true
		case p.c.MatchText(Name, "mod") != nil:
			return OpMod, true
		}
		return 0, false
	})
}

func (p *parser) unaryExpr() (Expr, error) {
	neg := 0
	for p.c.Match(Minus) != nil {
		neg++
	}
	e, err := p.unionExpr()
	if err != nil {
		return nil, err
	}
	for ; neg > 0; neg-- {
		e = &NegExpr{X: e}
	}
	return e, nil
}

func (p *parser) unionExpr() (Expr, error) {
	e, err := p.pathExpr()
	if err != nil {
		return nil, err
	}
	if p.c.Peek().Kind != Union {
		return e, nil
	}
	u := &UnionExpr{Parts: []Expr{e}}
	for p.c.Match(Union) != nil {
		pe, err := p.pathExpr()
		if err != nil {
			return nil, err
		}
		u.Parts = append(u.Parts, pe)
	}
	return u, nil
}

// startsLocationPath reports whether the cursor begins a location path
// rather than a filter expression.
func (p *parser) startsLocationPath() bool {
	switch t := p.c.Peek(); t.Kind {
	case Slash, SlashSlash, Dot, DotDot, At, Star:
		return true
	case Name:
		// A name followed by '(' is a function call (filter side)
		// unless it is a node-type test.
		if p.c.Peek2().Kind == LParen {
			_, isNodeType := nodeTypeNames[t.Text]
			return isNodeType
		}
		return true
	}
	return false
}

func (p *parser) pathExpr() (Expr, error) {
	if p.startsLocationPath() {
		return p.locationPath()
	}

	f, err := p.filterExpr()
	if err != nil {
		return nil, err
	}

	var pe *PathExpr
	switch {
	case p.c.Match(SlashSlash) != nil:
		pe = &PathExpr{Filter: f}
		if err := p.relLocationPath(pe, true); err != nil {
			return nil, err
		}
	case p.c.Match(Slash) != nil:
		pe = &PathExpr{Filter: f}
		if err := p.relLocationPath(pe, false); err != nil {
			return nil, err
		}
	default:
		if len(f.Preds) == 0 {
			return f.Primary, nil
		}
		return f, nil
	}
	return pe, nil
}

func (p *parser) filterExpr() (*FilterExpr, error) {
	prim, err := p.primaryExpr()
	if err != nil {
		return nil, err
	}
	f := &FilterExpr{Primary: prim}
	for p.c.Peek().Kind == LBracket {
		pred, err := p.predicate()
		if err != nil {
			return nil, err
		}
		f.Preds = append(f.Preds, pred)
	}
	return f, nil
}

func (p *parser) primaryExpr() (Expr, error) {
	switch t := p.c.Peek(); t.Kind {
	case VarRef:
		p.c.Next()
		return &VarRefExpr{Prefix: t.Prefix, Name: t.Local, Pos: diag.Pos{Module: p.c.module, Line: t.Line, Col: t.Col}}, nil
	case LParen:
		p.c.Next()
		e, err := p.orExpr()
		if err != nil {
			return nil, err
		}
		if p.c.Match(RParen) == nil {
			return nil, p.errf("expected ')'")
		}
		return e, nil
	case Literal:
		p.c.Next()
		return StringLit(t.Text), nil
	case Number:
		p.c.Next()
		return NumberLit(t.Num), nil
	case Name:
		if p.c.Peek2().Kind == LParen {
			return p.functionCall()
		}
	}
	return nil, p.errf("unexpected %v", p.c.Peek().Kind)
}

func (p *parser) functionCall() (Expr, error) {
	t := p.c.Next()
	pos := diag.Pos{Module: p.c.module, Line: t.Line, Col: t.Col}
	if t.Prefix != "" {
		return nil, diag.New(diag.InvalidXPathExpr, pos, "prefixed function %s not supported", t.Text)
	}
	p.c.Next() // consume (

	call := &CallExpr{Name: t.Text, Pos: pos}
	if p.c.Match(RParen) == nil {
		for {
			arg, err := p.orExpr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if p.c.Match(Comma) != nil {
				continue
			}
			if p.c.Match(RParen) != nil {
				break
			}
			return nil, p.errf("expected ',' or ')' in call to %s", call.Name)
		}
	}

	fd := functions[call.Name]
	if fd == nil {
		return nil, diag.New(diag.InvalidXPathExpr, pos, "unknown function: %s", call.Name)
	}
	if len(call.Args) < fd.minArgs || (fd.maxArgs >= 0 && len(call.Args) > fd.maxArgs) {
		return nil, diag.New(diag.WrongNumberOfArgs, pos, "%s takes %s", call.Name, fd.arityString())
	}
	return call, nil
}

func (p *parser) locationPath() (Expr, error) {
	pe := &PathExpr{}
	switch {
	case p.c.Match(SlashSlash) != nil:
		pe.Absolute = true
		pe.AbsDesc = true
		if err := p.relLocationPath(pe, false); err != nil {
			return nil, err
		}
	case p.c.Match(Slash) != nil:
		pe.Absolute = true
		// A bare '/' selects the root.
		if p.startsStep() {
			if err := p.relLocationPath(pe, false); err != nil {
				return nil, err
			}
		}
	default:
		if err := p.relLocationPath(pe, false); err != nil {
			return nil, err
		}
	}
	return pe, nil
}

// startsStep reports whether the cursor begins a step.
func (p *parser) startsStep() bool {
	switch p.c.Peek().Kind {
	case Dot, DotDot, At, Star, Name:
		return true
	}
	return false
}

// relLocationPath parses Step (('/'|'//') Step)* appending to pe.  The
// first step carries desc if firstDesc is set.
func (p *parser) relLocationPath(pe *PathExpr, firstDesc bool) error {
	desc := firstDesc
	for {
		s, err := p.step()
		if err != nil {
			return err
		}
		s.Desc = desc
		pe.Steps = append(pe.Steps, s)
		switch {
		case p.c.Match(SlashSlash) != nil:
			desc = true
		case p.c.Match(Slash) != nil:
			desc = false
		default:
			return nil
		}
	}
}

func (p *parser) step() (*Step, error) {
	switch {
	case p.c.Match(Dot) != nil:
		return &Step{Axis: AxisSelf, Test: NodeTest{Kind: TestNode}}, nil
	case p.c.Match(DotDot) != nil:
		return &Step{Axis: AxisParent, Test: NodeTest{Kind: TestNode}}, nil
	}

	s := &Step{Axis: AxisChild}

	switch t := p.c.Peek(); t.Kind {
	case At:
		p.c.Next()
		s.Axis = AxisAttribute
	case Name:
		// 'identifier ::' is an axis specifier iff identifier is a
		// recognized axis name.
		if p.c.Peek2().Kind == ColonColon {
			ax, ok := axisNames[t.Text]
			if !ok {
				return nil, p.errf("unknown axis: %s", t.Text)
			}
			p.c.Next()
			p.c.Next()
			s.Axis = ax
		}
	}

	if err := p.nodeTest(s); err != nil {
		return nil, err
	}

	for p.c.Peek().Kind == LBracket {
		pred, err := p.predicate()
		if err != nil {
			return nil, err
		}
		s.Preds = append(s.Preds, pred)
	}
	return s, nil
}

func (p *parser) nodeTest(s *Step) error {
	switch t := p.c.Peek(); t.Kind {
	case Star:
		p.c.Next()
		s.Test = NodeTest{Kind: TestName, Name: "*"}
		return nil
	case Name:
		if kind, ok := nodeTypeNames[t.Text]; ok && t.Prefix == "" && p.c.Peek2().Kind == LParen {
			p.c.Next()
			p.c.Next() // consume (
			if kind == TestPI {
				p.c.Match(Literal) // optional target literal
			}
			if p.c.Match(RParen) == nil {
				return p.errf("expected ')' after %s(", t.Text)
			}
			s.Test = NodeTest{Kind: kind}
			return nil
		}
		p.c.Next()
		// t.Local is "*" for the prefix:* any-name test.
		s.Test = NodeTest{Kind: TestName, Prefix: t.Prefix, Name: t.Local}
		return nil
	default:
		return p.errf("expected a node test, got %v", t.Kind)
	}
}

func (p *parser) predicate() (Expr, error) {
	p.c.Next() // consume [
	e, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	if p.c.Match(RBracket) == nil {
		return nil, p.errf("expected ']'")
	}
	return e, nil
}
