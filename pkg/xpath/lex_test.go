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

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/openconfig/yax/pkg/diag"
)

// kindsOf tokenizes expr and returns the token kinds, excluding EOF.
func kindsOf(t *testing.T, expr string) []Kind {
	t.Helper()
	c, err := NewChain(expr, "test")
	if err != nil {
		t.Fatalf("NewChain(%q): %v", expr, err)
	}
	var kinds []Kind
	for {
		tok := c.Next()
		if tok.Kind == EOF {
			return kinds
		}
		kinds = append(kinds, tok.Kind)
	}
}

func TestChainKinds(t *testing.T) {
	for _, tt := range []struct {
		expr string
		want []Kind
	}{
		{"a/b", []Kind{Name, Slash, Name}},
		{"a//b", []Kind{Name, SlashSlash, Name}},
		{"../c = 'ok'", []Kind{DotDot, Slash, Name, Eq, Literal}},
		{"1.5 + .5", []Kind{Number, Plus, Number}},
		{"1e3", []Kind{Number}},
		{"$x | $p:y", []Kind{VarRef, Union, VarRef}},
		{"child::a[2]", []Kind{Name, ColonColon, Name, LBracket, Number, RBracket}},
		{"a != b <= c", []Kind{Name, NotEq, Name, LtEq, Name}},
		{"p:*", []Kind{Name}},
		{"count(a)", []Kind{Name, LParen, Name, RParen}},
		{"@attr", []Kind{At, Name}},
	} {
		t.Run(tt.expr, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, kindsOf(t, tt.expr)); diff != "" {
				t.Errorf("kinds (-want +got):\n%s", diff)
			}
		})
	}
}

func TestChainPrefixSplit(t *testing.T) {
	c, err := NewChain("if:interface", "test")
	if err != nil {
		t.Fatal(err)
	}
	tok := c.Next()
	if tok.Prefix != "if" || tok.Local != "interface" {
		t.Errorf("prefix split = %q:%q, want if:interface", tok.Prefix, tok.Local)
	}

	c, err = NewChain("$v", "test")
	if err != nil {
		t.Fatal(err)
	}
	tok = c.Next()
	if tok.Kind != VarRef || tok.Local != "v" || tok.Prefix != "" {
		t.Errorf("varref = %+v", tok)
	}
}

func TestChainCursor(t *testing.T) {
	c, err := NewChain("a / b", "test")
	if err != nil {
		t.Fatal(err)
	}

	if c.Peek().Kind != Name || c.Peek2().Kind != Slash {
		t.Fatal("peek/peek2 broken at start")
	}

	at := c.Save()
	c.Next()
	c.Next()
	if c.Peek().Text != "b" {
		t.Fatalf("cursor not advanced, at %v", c.Peek())
	}
	c.Rewind(at)
	if c.Peek().Text != "a" {
		t.Errorf("rewind did not restore the cursor")
	}

	c.Next()
	c.Reset()
	if c.Peek().Text != "a" {
		t.Errorf("reset did not return to the start")
	}

	// Match only advances on success.
	if c.Match(Slash) != nil {
		t.Error("Match(Slash) matched a name")
	}
	if c.Match(Name) == nil {
		t.Error("Match(Name) failed")
	}
}

func TestChainErrors(t *testing.T) {
	for _, expr := range []string{
		"'unterminated",
		"a ! b",
		"a : b",
		"1.5e",
		"#",
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := NewChain(expr, "test")
			if err == nil {
				t.Fatalf("NewChain(%q) did not fail", expr)
			}
			if diag.CodeOf(err) != diag.WrongToken {
				t.Errorf("error code = %v, want wrong-token", diag.CodeOf(err))
			}
		})
	}
}

func TestChainPositions(t *testing.T) {
	c, err := NewChain("aa + bb", "mod")
	if err != nil {
		t.Fatal(err)
	}
	c.Next() // aa
	c.Next() // +
	tok := c.Peek()
	if tok.Line != 1 || tok.Col != 6 {
		t.Errorf("bb at %d:%d, want 1:6", tok.Line, tok.Col)
	}
	if p := c.Pos(); p.Module != "mod" {
		t.Errorf("position module = %q", p.Module)
	}
}
