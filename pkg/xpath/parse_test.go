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

	"github.com/openconfig/yax/pkg/diag"
)

// parseTest compiles expr under variant with no module context.
func parseTest(t *testing.T, expr string, variant SourceVariant) (*PCB, error) {
	t.Helper()
	return Compile(expr, variant, nil)
}

func TestParseAccepts(t *testing.T) {
	for _, expr := range []string{
		"/a/b",
		"../c = 'ok'",
		"a | b | c",
		"a and b or c",
		"1 + 2 * 3 div 4 mod 5",
		"-1",
		"- - 1",
		"count(a) > 1",
		"a[b = 1][2]",
		"//b",
		"a//b/c",
		"ancestor-or-self::node()",
		"following-sibling::*",
		"self::p:name",
		"(a | b)[1]",
		"string()",
		"concat('a', 'b', 'c', 'd')",
		"substring('abc', 2)",
		"substring('abc', 2, 1)",
		"current()/../x",
		"module-loaded('m')",
		"module-loaded('m', '2023-01-01')",
		"feature-enabled('m', 'f')",
		"processing-instruction('target')",
		"text()",
		"$v = 1",
		". = 2",
		"/p:a/p:list[p:key='k1']/p:leaf",
	} {
		t.Run(expr, func(t *testing.T) {
			if _, err := parseTest(t, expr, MustWhen); err != nil {
				t.Errorf("Compile(%q) failed: %v", expr, err)
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, tt := range []struct {
		expr string
		code diag.Code
	}{
		{"", diag.InvalidXPathExpr},
		{"a b", diag.InvalidXPathExpr},
		{"a/", diag.InvalidXPathExpr},
		{"a[", diag.InvalidXPathExpr},
		{"a[]", diag.InvalidXPathExpr},
		{"(a", diag.InvalidXPathExpr},
		{"foo::a", diag.InvalidXPathExpr},
		{"nosuchfunction()", diag.InvalidXPathExpr},
		{"p:fn()", diag.InvalidXPathExpr},
		{"a = ", diag.InvalidXPathExpr},
	} {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := parseTest(t, tt.expr, MustWhen)
			if err == nil {
				t.Fatalf("Compile(%q) did not fail", tt.expr)
			}
			if got := diag.CodeOf(err); got != tt.code {
				t.Errorf("error code = %v, want %v", got, tt.code)
			}
			if p.ParseErr == nil {
				t.Error("ParseErr not recorded on the PCB")
			}
		})
	}
}

// Arity violations are reported at parse time, before any evaluation.
func TestParseArity(t *testing.T) {
	for _, expr := range []string{
		"substring('abc')",
		"substring('a', 1, 2, 3)",
		"concat('a')",
		"not()",
		"true(1)",
		"translate('a', 'b')",
		"position(1)",
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := parseTest(t, expr, MustWhen)
			if err == nil {
				t.Fatalf("Compile(%q) did not fail", expr)
			}
			if got := diag.CodeOf(err); got != diag.WrongNumberOfArgs {
				t.Errorf("error code = %v, want wrong-number-of-args", got)
			}
		})
	}
}

// A bare identifier followed by ( is a function call unless the
// identifier is a node-type name.
func TestParseDisambiguation(t *testing.T) {
	p, err := parseTest(t, "node()", MustWhen)
	if err != nil {
		t.Fatal(err)
	}
	pe, ok := p.AST().(*PathExpr)
	if !ok {
		t.Fatalf("node() parsed to %T, want a location path", p.AST())
	}
	if pe.Steps[0].Test.Kind != TestNode {
		t.Error("node() is not a node-type test")
	}

	p, err = parseTest(t, "count(a)", MustWhen)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.AST().(*CallExpr); !ok {
		t.Fatalf("count(a) parsed to %T, want a function call", p.AST())
	}
}

// Under the instance-identifier variant, anything outside the strict
// subset is rejected with a dedicated error code.
func TestInstanceIDGrammar(t *testing.T) {
	for _, expr := range []string{
		"/p:a/p:b",
		"/p:a/p:list[p:key='k1']/p:leaf",
		"/p:a/p:ll[.='v']",
		"/p:a/p:list[p:k1='a'][p:k2='b']",
	} {
		t.Run("accept "+expr, func(t *testing.T) {
			if _, err := parseTest(t, expr, InstanceID); err != nil {
				t.Errorf("Compile(%q) failed: %v", expr, err)
			}
		})
	}

	for _, expr := range []string{
		"a/b",
		"//p:a",
		"/p:a/p:b | /p:a/p:c",
		"/p:a[p:k != 'x']",
		"/p:a[count(p:b)]",
		"/p:a[p:k = p:other]",
		"/p:a/*",
		"/p:a/../p:b",
		"1 + 1",
	} {
		t.Run("reject "+expr, func(t *testing.T) {
			_, err := parseTest(t, expr, InstanceID)
			if err == nil {
				t.Fatalf("Compile(%q) did not fail", expr)
			}
			if got := diag.CodeOf(err); got != diag.InvalidInstanceID {
				t.Errorf("error code = %v, want invalid-instance-id", got)
			}
		})
	}
}

func TestParsePositions(t *testing.T) {
	_, err := parseTest(t, "a/\n  [", MustWhen)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	de, ok := err.(*diag.Error)
	if !ok {
		t.Fatalf("error type %T, want *diag.Error", err)
	}
	if de.Pos.Line != 2 {
		t.Errorf("error line = %d, want 2", de.Pos.Line)
	}
}
