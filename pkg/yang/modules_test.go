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
	"strings"
	"testing"

	"github.com/openconfig/gnmi/errdiff"
)

const modA = `
module a {
  namespace "urn:mod:a";
  prefix a;
  revision 2023-01-01;
  leaf x { type string; }
}
`

const modB = `
module b {
  namespace "urn:mod:b";
  prefix b;
  import a { prefix a; }
  leaf y { type string; }
}
`

func TestDuplicateModule(t *testing.T) {
	ms := NewModules()
	if err := ms.Parse(modA, "a.yang"); err != nil {
		t.Fatal(err)
	}
	err := ms.Parse(modA, "a2.yang")
	if diff := errdiff.Substring(err, "duplicate module"); diff != "" {
		t.Error(diff)
	}
}

func TestFindModuleByPrefixAndNamespace(t *testing.T) {
	ms := NewModules()
	for n, src := range map[string]string{"a": modA, "b": modB} {
		if err := ms.Parse(src, n+".yang"); err != nil {
			t.Fatal(err)
		}
	}
	if errs := ms.Process(); len(errs) > 0 {
		t.Fatal(errs)
	}

	m, err := ms.FindModuleByPrefix("a")
	if err != nil || m.Name != "a" {
		t.Errorf("FindModuleByPrefix(a) = %v, %v", m, err)
	}
	if _, err := ms.FindModuleByPrefix("zz"); err == nil {
		t.Error("FindModuleByPrefix(zz) did not fail")
	}

	m, err = ms.FindModuleByNamespace("urn:mod:b")
	if err != nil || m.Name != "b" {
		t.Errorf("FindModuleByNamespace(urn:mod:b) = %v, %v", m, err)
	}
	if _, err := ms.FindModuleByNamespace("urn:nowhere"); err == nil {
		t.Error("FindModuleByNamespace(urn:nowhere) did not fail")
	}
}

func TestRevisionAliases(t *testing.T) {
	ms := NewModules()
	if err := ms.Parse(modA, "a.yang"); err != nil {
		t.Fatal(err)
	}
	if ms.Modules["a"] == nil {
		t.Error("module not reachable by bare name")
	}
	if ms.Modules["a@2023-01-01"] == nil {
		t.Error("module not reachable by name@revision")
	}
	if ms.Modules["a"] != ms.Modules["a@2023-01-01"] {
		t.Error("name and name@revision resolve to different modules")
	}
}

func TestUnload(t *testing.T) {
	ms := NewModules()
	for n, src := range map[string]string{"a": modA, "b": modB} {
		if err := ms.Parse(src, n+".yang"); err != nil {
			t.Fatal(err)
		}
	}
	if errs := ms.Process(); len(errs) > 0 {
		t.Fatal(errs)
	}

	// a is imported by b: unload must be refused.
	err := ms.Unload("a")
	if diff := errdiff.Substring(err, "imported by b"); diff != "" {
		t.Error(diff)
	}

	if err := ms.Unload("b"); err != nil {
		t.Errorf("unload b: %v", err)
	}
	if ms.Modules["b"] != nil {
		t.Error("b still present after unload")
	}
	if err := ms.Unload("b"); err == nil {
		t.Error("second unload of b did not fail")
	}
}

func TestFeatures(t *testing.T) {
	ms := NewModules()
	if err := ms.Parse(`
module f {
  namespace "urn:f";
  prefix f;
  feature one;
  feature two;
}
`, "f.yang"); err != nil {
		t.Fatal(err)
	}
	m := ms.Modules["f"]

	// All declared features default to enabled.
	if !m.FeatureEnabled("one") || !m.FeatureEnabled("two") {
		t.Error("declared features should default to enabled")
	}
	if m.FeatureEnabled("three") {
		t.Error("undeclared feature reported enabled")
	}

	m.SetFeatures("one")
	if !m.FeatureEnabled("one") {
		t.Error("selected feature disabled")
	}
	if m.FeatureEnabled("two") {
		t.Error("unselected feature still enabled")
	}
}

func TestProcessIdempotent(t *testing.T) {
	ms := NewModules()
	if err := ms.Parse(modA, "a.yang"); err != nil {
		t.Fatal(err)
	}
	if errs := ms.Process(); len(errs) > 0 {
		t.Fatal(errs)
	}
	before := ms.ObjFor(ms.Modules["a"])
	if errs := ms.Process(); len(errs) > 0 {
		t.Fatal(errs)
	}
	if after := ms.ObjFor(ms.Modules["a"]); after != before {
		t.Error("second Process rebuilt the tree")
	}
}

func TestMissingImport(t *testing.T) {
	ms := NewModules()
	if err := ms.Parse(modB, "b.yang"); err != nil {
		t.Fatal(err)
	}
	errs := ms.Process()
	if len(errs) == 0 {
		t.Fatal("expected an error for the missing import")
	}
	if !strings.Contains(errs[0].Error(), "no such module") {
		t.Errorf("unexpected error: %v", errs[0])
	}
}

func TestTypedefChain(t *testing.T) {
	ms := NewModules()
	if err := ms.Parse(`
module td {
  namespace "urn:td";
  prefix td;

  typedef percent { type uint8 { range "0..100"; } }
  typedef half { type percent { range "0..50"; } }

  leaf level { type half; }
}
`, "td.yang"); err != nil {
		t.Fatal(err)
	}
	if errs := ms.Process(); len(errs) > 0 {
		t.Fatal(errs)
	}
	level := ms.ObjFor(ms.Modules["td"]).Child(nil, "level", MatchExact)
	if level.Type.BaseKind() != Yuint8 {
		t.Errorf("base kind = %v, want uint8", level.Type.BaseKind())
	}
	if got := level.Type.EffectiveRange().String(); got != "0..50" {
		t.Errorf("effective range = %s, want 0..50", got)
	}
}

func TestTypedefOutOfRangeRestriction(t *testing.T) {
	ms := NewModules()
	if err := ms.Parse(`
module tdbad {
  namespace "urn:tdbad";
  prefix tb;
  typedef percent { type uint8 { range "0..100"; } }
  leaf level { type percent { range "0..200"; } }
}
`, "tdbad.yang"); err != nil {
		t.Fatal(err)
	}
	errs := ms.Process()
	if len(errs) == 0 {
		t.Fatal("expected a range restriction error")
	}
	if !strings.Contains(errs[0].Error(), "bad range") {
		t.Errorf("unexpected error: %v", errs[0])
	}
}

func TestFractionDigitsImmutable(t *testing.T) {
	ms := NewModules()
	if err := ms.Parse(`
module fd {
  namespace "urn:fd";
  prefix fd;
  typedef money { type decimal64 { fraction-digits 2; } }
  leaf bad { type money { fraction-digits 4; } }
}
`, "fd.yang"); err != nil {
		t.Fatal(err)
	}
	errs := ms.Process()
	if len(errs) == 0 {
		t.Fatal("expected an error overriding fraction-digits")
	}
	if !strings.Contains(errs[0].Error(), "fraction-digits") {
		t.Errorf("unexpected error: %v", errs[0])
	}
}

func TestUnionMemberRestrictions(t *testing.T) {
	ms := NewModules()
	if err := ms.Parse(`
module un {
  namespace "urn:un";
  prefix un;
  leaf u {
    type union {
      type string;
      type empty;
    }
  }
}
`, "un.yang"); err != nil {
		t.Fatal(err)
	}
	errs := ms.Process()
	if len(errs) == 0 {
		t.Fatal("expected an error: empty union member")
	}
	if !strings.Contains(errs[0].Error(), "union member") {
		t.Errorf("unexpected error: %v", errs[0])
	}
}

func TestUnionMemberOrder(t *testing.T) {
	ms := NewModules()
	if err := ms.Parse(`
module uo {
  namespace "urn:uo";
  prefix uo;
  leaf u {
    type union {
      type int32;
      type string;
    }
  }
}
`, "uo.yang"); err != nil {
		t.Fatal(err)
	}
	if errs := ms.Process(); len(errs) > 0 {
		t.Fatal(errs)
	}
	u := ms.ObjFor(ms.Modules["uo"]).Child(nil, "u", MatchExact)
	if len(u.Type.Type) != 2 {
		t.Fatalf("union has %d members, want 2", len(u.Type.Type))
	}
	if u.Type.Type[0].Kind != Yint32 || u.Type.Type[1].Kind != Ystring {
		t.Errorf("union member order not preserved: %v, %v", u.Type.Type[0].Kind, u.Type.Type[1].Kind)
	}
}

func TestBadPattern(t *testing.T) {
	ms := NewModules()
	if err := ms.Parse(`
module pat {
  namespace "urn:pat";
  prefix p;
  leaf x { type string { pattern "([unclosed"; } }
}
`, "pat.yang"); err != nil {
		t.Fatal(err)
	}
	errs := ms.Process()
	if len(errs) == 0 {
		t.Fatal("expected a pattern compile error at schema time")
	}
	if !strings.Contains(errs[0].Error(), "bad pattern") {
		t.Errorf("unexpected error: %v", errs[0])
	}
}

func TestSessionRegistry(t *testing.T) {
	r := NewSessionRegistry()
	if err := r.Register(&Session{FD: 3, Name: "one"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&Session{FD: 3, Name: "dup"}); err == nil {
		t.Error("duplicate fd registration did not fail")
	}
	if s := r.Lookup(3); s == nil || s.Name != "one" {
		t.Errorf("Lookup(3) = %v", s)
	}
	if err := r.Remove(3); err != nil {
		t.Fatal(err)
	}
	if err := r.Remove(3); err == nil {
		t.Error("second remove did not fail")
	}
}
