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

package value

import (
	"errors"
	"strings"
	"testing"

	"github.com/openconfig/yax/pkg/yang"
)

const testModule = `
module vt {
  namespace "urn:vt";
  prefix vt;

  container box {
    leaf name { type string { length "1..8"; pattern "[a-z]+"; } }
    leaf count { type uint8 { range "1..10"; } }
    leaf ratio { type decimal64 { fraction-digits 2; } }
    leaf on { type boolean; }
    leaf mode { type enumeration { enum fast; enum slow; } }
    leaf flags { type bits { bit a; bit b { position 3; } } }
    leaf blob { type binary; }
    leaf mixed { type union { type uint8; type string; } }
  }

  identity color;
  identity red { base color; }
  leaf paint { type identityref { base color; } }

  container refs {
    leaf source { type string; }
    leaf alias { type leafref { path "../source"; } }
  }
}
`

// testSchema compiles the test module once per test.
func testSchema(t *testing.T) *yang.Obj {
	t.Helper()
	ms := yang.NewModules()
	if err := ms.Parse(testModule, "vt.yang"); err != nil {
		t.Fatal(err)
	}
	if errs := ms.Process(); len(errs) > 0 {
		t.Fatal(errs)
	}
	return ms.ObjFor(ms.Modules["vt"])
}

func leafSchema(t *testing.T, root *yang.Obj, path ...string) *yang.Obj {
	t.Helper()
	o := root
	for _, p := range path {
		o = o.Child(nil, p, yang.MatchExact)
		if o == nil {
			t.Fatalf("schema node %v not found", path)
		}
	}
	return o
}

func TestLeafParsing(t *testing.T) {
	root := testSchema(t)
	for _, tt := range []struct {
		name    string
		path    []string
		in      string
		wantErr string
		want    string // canonical form; "" means same as in
	}{
		{name: "string ok", path: []string{"box", "name"}, in: "abc"},
		{name: "string fails pattern", path: []string{"box", "name"}, in: "ABC", wantErr: "does not match pattern"},
		{name: "string too long", path: []string{"box", "name"}, in: "abcdefghi", wantErr: "length 9 out of range"},
		{name: "uint in range", path: []string{"box", "count"}, in: "5"},
		{name: "uint out of range", path: []string{"box", "count"}, in: "11", wantErr: "out of range"},
		{name: "uint malformed", path: []string{"box", "count"}, in: "five", wantErr: "invalid"},
		{name: "decimal64", path: []string{"box", "ratio"}, in: "3.14"},
		{name: "decimal64 pads", path: []string{"box", "ratio"}, in: "3.1", want: "3.10"},
		{name: "decimal64 excess precision", path: []string{"box", "ratio"}, in: "3.141", wantErr: "precision"},
		{name: "boolean", path: []string{"box", "on"}, in: "true"},
		{name: "boolean bad", path: []string{"box", "on"}, in: "yes", wantErr: "invalid boolean"},
		{name: "enum", path: []string{"box", "mode"}, in: "fast"},
		{name: "enum unknown", path: []string{"box", "mode"}, in: "medium", wantErr: "invalid enumeration"},
		{name: "bits", path: []string{"box", "flags"}, in: "a b"},
		{name: "bits unknown", path: []string{"box", "flags"}, in: "a c", wantErr: "unknown bit"},
		{name: "binary", path: []string{"box", "blob"}, in: "aGVsbG8="},
		{name: "binary bad", path: []string{"box", "blob"}, in: "###", wantErr: "invalid base64"},
		{name: "union first member", path: []string{"box", "mixed"}, in: "7"},
		{name: "union falls through", path: []string{"box", "mixed"}, in: "words"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			schema := leafSchema(t, root, tt.path...)
			n, err := NewLeaf(schema, tt.in)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("NewLeaf(%q) succeeded, want error containing %q", tt.in, tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("NewLeaf(%q) error %v, want substring %q", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLeaf(%q): %v", tt.in, err)
			}
			want := tt.want
			if want == "" {
				want = tt.in
			}
			if got := n.String(); got != want {
				t.Errorf("canonical form = %q, want %q", got, want)
			}
		})
	}
}

// Union members are tried in declaration order: "7" must land on the
// uint8 member, not the string member.
func TestUnionMemberSelection(t *testing.T) {
	root := testSchema(t)
	mixed := leafSchema(t, root, "box", "mixed")

	n, err := NewLeaf(mixed, "7")
	if err != nil {
		t.Fatal(err)
	}
	if k := n.Scalar().Kind; k != yang.Yuint8 {
		t.Errorf("scalar kind = %v, want uint8", k)
	}

	n, err = NewLeaf(mixed, "words")
	if err != nil {
		t.Fatal(err)
	}
	if k := n.Scalar().Kind; k != yang.Ystring {
		t.Errorf("scalar kind = %v, want string", k)
	}
}

func TestIdentityrefValue(t *testing.T) {
	root := testSchema(t)
	paint := leafSchema(t, root, "paint")

	n, err := NewLeaf(paint, "red")
	if err != nil {
		t.Fatal(err)
	}
	if n.Scalar().Identity == nil || n.Scalar().Identity.Name != "red" {
		t.Errorf("identity = %v", n.Scalar().Identity)
	}

	// color itself is the base, not derived from it.
	if _, err := NewLeaf(paint, "color"); err == nil {
		t.Error("assigning the base identity did not fail")
	}
	if _, err := NewLeaf(paint, "blue"); err == nil {
		t.Error("assigning an unknown identity did not fail")
	}
}

func TestLeafrefValueTyping(t *testing.T) {
	root := testSchema(t)
	alias := leafSchema(t, root, "refs", "alias")

	n, err := NewLeaf(alias, "anything")
	if err != nil {
		t.Fatal(err)
	}
	if k := n.Scalar().Kind; k != yang.Yleafref {
		t.Errorf("scalar kind = %v, want leafref", k)
	}
}

func TestComplexStringValue(t *testing.T) {
	root := testSchema(t)
	box := leafSchema(t, root, "box")

	n := New(box)
	for _, kv := range []struct{ name, val string }{
		{"name", "abc"},
		{"count", "5"},
		{"on", "true"},
	} {
		leaf, err := NewLeaf(leafSchema(t, root, "box", kv.name), kv.val)
		if err != nil {
			t.Fatal(err)
		}
		n.Append(leaf)
	}

	// Interior nodes concatenate simple descendants in document order,
	// newline separated.
	want := "abc\n5\ntrue"
	if got := n.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestVirtualResolve(t *testing.T) {
	root := testSchema(t)
	name := leafSchema(t, root, "box", "name")

	calls := 0
	v := NewVirtual(name, func(*Node) (*Node, error) {
		calls++
		return NewLeaf(name, "abc")
	})
	if !v.IsVirtual() {
		t.Fatal("node is not virtual")
	}
	if got := v.String(); got != "abc" {
		t.Errorf("resolved string = %q, want abc", got)
	}
	if calls == 0 {
		t.Error("resolver was never invoked")
	}

	// A resolver returning a virtual node is an error.
	loop := NewVirtual(name, func(n *Node) (*Node, error) {
		return NewVirtual(name, func(*Node) (*Node, error) { return nil, nil }), nil
	})
	if _, err := loop.Resolve(); err == nil {
		t.Error("virtual chain did not fail")
	}

	failing := NewVirtual(name, func(*Node) (*Node, error) {
		return nil, errors.New("boom")
	})
	if _, err := failing.Resolve(); err == nil {
		t.Error("failing resolver error was swallowed")
	}
}

func TestCloneIndependence(t *testing.T) {
	root := testSchema(t)
	box := leafSchema(t, root, "box")
	n := New(box)
	leaf, _ := NewLeaf(leafSchema(t, root, "box", "name"), "abc")
	n.Append(leaf)

	c := n.Clone()
	if c.Parent != nil {
		t.Error("clone kept a parent")
	}
	if len(c.Children()) != 1 || c.Children()[0] == leaf {
		t.Error("clone shares children with the original")
	}

	// Mutating the clone must not affect the original.
	c.Delete(c.Children()[0])
	if len(n.Children()) != 1 {
		t.Error("deleting from the clone changed the original")
	}
}

func TestReplaceReleasesSubtree(t *testing.T) {
	root := testSchema(t)
	box := leafSchema(t, root, "box")
	n := New(box)

	old, _ := NewLeaf(leafSchema(t, root, "box", "name"), "abc")
	n.Append(old)
	repl, _ := NewLeaf(leafSchema(t, root, "box", "name"), "xyz")
	n.Replace(repl)

	if len(n.Children()) != 1 {
		t.Fatalf("%d children after replace, want 1", len(n.Children()))
	}
	if n.Children()[0] != repl {
		t.Error("replacement child not installed")
	}
	if old.Parent != nil {
		t.Error("released subtree still points at the parent")
	}
}

func TestFromXML(t *testing.T) {
	root := testSchema(t)
	box := leafSchema(t, root, "box")

	n, err := FromXML(box, []byte(`<box><name>abc</name><count>5</count></box>`))
	if err != nil {
		t.Fatal(err)
	}
	if got := len(n.Children()); got != 2 {
		t.Fatalf("%d children, want 2", got)
	}
	if got := n.Child("count").String(); got != "5" {
		t.Errorf("count = %q, want 5", got)
	}

	if _, err := FromXML(box, []byte(`<box><bogus>1</bogus></box>`)); err == nil {
		t.Error("unknown element did not fail")
	}
	if _, err := FromXML(box, []byte(`<box><count>99</count></box>`)); err == nil {
		t.Error("out of range value did not fail")
	}
}

func TestScalarFloat(t *testing.T) {
	root := testSchema(t)
	count := leafSchema(t, root, "box", "count")
	n, _ := NewLeaf(count, "5")
	if got := n.Float(); got != 5 {
		t.Errorf("Float = %v, want 5", got)
	}

	name := leafSchema(t, root, "box", "name")
	sn, _ := NewLeaf(name, "abc")
	if got := sn.Float(); got == got { // NaN
		t.Errorf("Float of non-numeric = %v, want NaN", got)
	}
}
