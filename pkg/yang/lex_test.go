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

package yang

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// lexAll drains the lexer, returning codes and texts.
func lexAll(t *testing.T, input string) ([]code, []string, string) {
	t.Helper()
	l := newLexer(input, "test.yang")
	var errbuf bytes.Buffer
	l.errout = &errbuf

	var codes []code
	var texts []string
	for {
		tok := l.NextToken()
		if tok == nil {
			return codes, texts, errbuf.String()
		}
		codes = append(codes, tok.Code())
		texts = append(texts, tok.Text)
	}
}

func TestLex(t *testing.T) {
	for _, tt := range []struct {
		name  string
		in    string
		codes []code
		texts []string
	}{
		{
			name:  "simple statement",
			in:    "leaf b;",
			codes: []code{tIdentifier, tIdentifier, ';'},
			texts: []string{"leaf", "b", ";"},
		},
		{
			name:  "braces",
			in:    "container a { }",
			codes: []code{tIdentifier, tIdentifier, '{', '}'},
			texts: []string{"container", "a", "{", "}"},
		},
		{
			name:  "single quoted string",
			in:    "description 'a b';",
			codes: []code{tIdentifier, tString, ';'},
			texts: []string{"description", "a b", ";"},
		},
		{
			name:  "double quoted escapes",
			in:    `description "a\nb";`,
			codes: []code{tIdentifier, tString, ';'},
			texts: []string{"description", "a\nb", ";"},
		},
		{
			name:  "line comment",
			in:    "// nothing\nleaf c;",
			codes: []code{tIdentifier, tIdentifier, ';'},
			texts: []string{"leaf", "c", ";"},
		},
		{
			name:  "block comment",
			in:    "leaf /* gap */ d;",
			codes: []code{tIdentifier, tIdentifier, ';'},
			texts: []string{"leaf", "d", ";"},
		},
		{
			name:  "trailing whitespace stripped in quoted string",
			in:    "d \"one  \n  two\";",
			codes: []code{tIdentifier, tString, ';'},
			texts: []string{"d", "one\ntwo", ";"},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			codes, texts, errs := lexAll(t, tt.in)
			if errs != "" {
				t.Fatalf("unexpected errors:\n%s", errs)
			}
			if diff := cmp.Diff(tt.codes, codes); diff != "" {
				t.Errorf("codes (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.texts, texts); diff != "" {
				t.Errorf("texts (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLexMissingQuote(t *testing.T) {
	_, _, errs := lexAll(t, `description "never closed`)
	if errs == "" {
		t.Error("expected an error for an unterminated string")
	}
}

func TestLexPosition(t *testing.T) {
	l := newLexer("leaf x;\n  leaf-list y;", "pos.yang")
	var errbuf bytes.Buffer
	l.errout = &errbuf

	tok := l.NextToken()
	if tok.Line != 1 || tok.Col != 1 {
		t.Errorf("first token at %d:%d, want 1:1", tok.Line, tok.Col)
	}
	for i := 0; i < 3; i++ {
		tok = l.NextToken()
	}
	if tok.Text != "leaf-list" || tok.Line != 2 || tok.Col != 3 {
		t.Errorf("got %q at %d:%d, want leaf-list at 2:3", tok.Text, tok.Line, tok.Col)
	}
}
