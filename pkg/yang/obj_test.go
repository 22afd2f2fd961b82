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

	"github.com/google/go-cmp/cmp"
	"github.com/kylelemons/godebug/pretty"
)

// compileTest parses and processes the named modules, returning the
// table and the compiled tree for top.  Processing errors fail the test.
func compileTest(t *testing.T, sources map[string]string, top string) (*Modules, *Obj) {
	t.Helper()
	ms := NewModules()
	for name, src := range sources {
		if err := ms.Parse(src, name+".yang"); err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
	}
	if errs := ms.Process(); len(errs) > 0 {
		t.Fatalf("process: %v", errs)
	}
	root := ms.ObjFor(ms.Modules[top])
	if root == nil {
		t.Fatalf("no compiled tree for %s", top)
	}
	return ms, root
}

const baseModule = `
module base {
  namespace "urn:base";
  prefix b;

  container sys {
    leaf hostname { type string; }
    leaf-list dns { type string; ordered-by user; }
    list user {
      key "name";
      unique "uid";
      min-elements 1;
      leaf name { type string; }
      leaf uid { type uint32; }
    }
    choice transport {
      case tls { leaf tls-port { type uint16; } }
      leaf ssh-port { type uint16; }
    }
  }
  leaf mode { type string; config false; }
}
`

func TestCompileOrder(t *testing.T) {
	_, root := compileTest(t, map[string]string{"base": baseModule}, "base")

	var names []string
	for _, c := range root.DataChildren() {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"sys", "mode"}, names); diff != "" {
		t.Errorf("top-level order (-want +got):\n%s", diff)
	}

	sys := root.Child(nil, "sys", MatchExact)
	if sys == nil {
		t.Fatal("sys not found")
	}
	names = nil
	for _, c := range sys.DataChildren() {
		names = append(names, c.Name)
	}
	// Choice and case layers are transparent in the data view, so the
	// transport leafs appear in declaration order.
	want := []string{"hostname", "dns", "user", "tls-port", "ssh-port"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("sys children (-want +got):\n%s", diff)
	}
}

func TestListAttributes(t *testing.T) {
	_, root := compileTest(t, map[string]string{"base": baseModule}, "base")
	user := root.Child(nil, "sys", MatchExact).Child(nil, "user", MatchExact)
	if user == nil {
		t.Fatal("user list not found")
	}
	if user.Kind != ObjList {
		t.Fatalf("user is a %v, want list", user.Kind)
	}
	if user.Key != "name" {
		t.Errorf("key = %q, want name", user.Key)
	}
	if user.MinElements != 1 {
		t.Errorf("min-elements = %d, want 1", user.MinElements)
	}
	if got := user.Unique; len(got) != 1 || got[0] != "uid" {
		t.Errorf("unique = %v, want [uid]", got)
	}
	name := user.Child(nil, "name", MatchExact)
	if name == nil || !name.HasFlag(FlagKeyLeaf) {
		t.Error("key leaf name is not flagged")
	}
	if !user.Mandatory() {
		t.Error("list with min-elements 1 must be mandatory")
	}

	dns := root.Child(nil, "sys", MatchExact).Child(nil, "dns", MatchExact)
	if !dns.HasFlag(FlagUserOrdered) {
		t.Error("ordered-by user leaf-list is not flagged user-ordered")
	}
}

func TestConfigInheritance(t *testing.T) {
	_, root := compileTest(t, map[string]string{"base": baseModule}, "base")
	host := root.Child(nil, "sys", MatchExact).Child(nil, "hostname", MatchExact)
	if !host.IsConfig() {
		t.Error("hostname should inherit config true")
	}
	mode := root.Child(nil, "mode", MatchExact)
	if mode.IsConfig() {
		t.Error("mode is config false")
	}
}

const groupedModule = `
module grouped {
  namespace "urn:grouped";
  prefix g;

  grouping endpoint {
    leaf address { type string; mandatory true; }
    leaf port { type uint16; }
  }

  container server {
    uses endpoint {
      when "../enabled = 'true'";
      refine port { default 8080; }
    }
    leaf enabled { type string; }
  }

  augment /g:server {
    if-feature extras;
    leaf comment { type string; }
  }

  feature extras;
}
`

func TestUsesExpansion(t *testing.T) {
	_, root := compileTest(t, map[string]string{"grouped": groupedModule}, "grouped")
	server := root.Child(nil, "server", MatchExact)
	if server == nil {
		t.Fatal("server not found")
	}

	var names []string
	for _, c := range server.DataChildren() {
		names = append(names, c.Name)
	}
	addr := server.Child(nil, "address", MatchExact)
	if addr == nil {
		t.Fatalf("grouping child address was not cloned; have %s", pretty.Sprint(names))
	}
	if !addr.HasFlag(FlagFromUses) {
		t.Error("clone is not flagged from-uses")
	}
	if addr.CloneOf == nil || addr.CloneOf.Name != "address" {
		t.Error("clone does not record its source object")
	}
	if !addr.HasFlag(FlagMandatory) {
		t.Error("mandatory was lost in cloning")
	}

	// The uses condition is inherited by pointer, not copied.
	if len(addr.Inherited) != 1 || addr.Inherited[0].Kind != ObjUses {
		t.Fatalf("inherited = %v, want the uses node", addr.Inherited)
	}
	if addr.When != "" {
		t.Error("the when condition must not be copied onto the clone")
	}
	if got := addr.Inherited[0].When; got != "../enabled = 'true'" {
		t.Errorf("inherited when = %q", got)
	}

	port := server.Child(nil, "port", MatchExact)
	if port == nil || port.Default != "8080" {
		t.Errorf("refine default not applied: %v", port)
	}

	// The uses bookkeeping node stays in the tree, fully expanded.
	var uses *Obj
	for _, c := range server.Children() {
		if c.Kind == ObjUses {
			uses = c
		}
	}
	if uses == nil {
		t.Fatal("uses bookkeeping node dropped")
	}
	if uses.state != ExpandExpanded {
		t.Errorf("uses state = %v, want expanded", uses.state)
	}
}

func TestAugmentGraft(t *testing.T) {
	_, root := compileTest(t, map[string]string{"grouped": groupedModule}, "grouped")
	server := root.Child(nil, "server", MatchExact)

	comment := server.Child(nil, "comment", MatchExact)
	if comment == nil {
		t.Fatal("augment child comment not grafted")
	}
	if !comment.HasFlag(FlagFromAugment) {
		t.Error("graft is not flagged from-augment")
	}
	if len(comment.Inherited) != 1 || comment.Inherited[0].Kind != ObjAugment {
		t.Errorf("inherited = %v, want the augment node", comment.Inherited)
	}
	if got := comment.Inherited[0].IfFeature; len(got) != 1 || got[0] != "extras" {
		t.Errorf("inherited if-feature = %v", got)
	}
}

func TestAugmentUnresolvedTarget(t *testing.T) {
	ms := NewModules()
	err := ms.Parse(`
module broken {
  namespace "urn:broken";
  prefix k;
  augment /k:no-such-node {
    leaf x { type string; }
  }
}
`, "broken.yang")
	if err != nil {
		t.Fatal(err)
	}
	errs := ms.Process()
	if len(errs) == 0 {
		t.Fatal("expected an error for an unresolvable augment target")
	}
	if !strings.Contains(errs[0].Error(), "augment target not found") {
		t.Errorf("unexpected error: %v", errs[0])
	}
}

func TestMandatoryChoice(t *testing.T) {
	_, root := compileTest(t, map[string]string{"m": `
module m {
  namespace "urn:m";
  prefix m;
  container c {
    choice ch {
      mandatory true;
      case a { leaf x { type string; mandatory true; } }
      case b { leaf y { type string; mandatory true; } }
    }
    choice open {
      case a { leaf z { type string; } }
    }
    leaf w { type string; mandatory true; when "../x = 'on'"; }
  }
}
`}, "m")
	c := root.Child(nil, "c", MatchExact)
	var ch, open *Obj
	for _, k := range c.Children() {
		switch k.Name {
		case "ch":
			ch = k
		case "open":
			open = k
		}
	}
	if ch == nil || open == nil {
		t.Fatal("choices not found")
	}
	if !ch.Mandatory() {
		t.Error("choice ch should be mandatory: every case forces mandatory children")
	}
	if open.Mandatory() {
		t.Error("choice open is not mandatory")
	}
	// A when statement downgrades mandatory to conditional.
	w := c.Child(nil, "w", MatchExact)
	if w.Mandatory() {
		t.Error("leaf w has a when and must not be mandatory")
	}
}

func TestLeafrefResolution(t *testing.T) {
	_, root := compileTest(t, map[string]string{"lr": `
module lr {
  namespace "urn:lr";
  prefix lr;
  container ifs {
    list if {
      key "name";
      leaf name { type string; }
    }
  }
  leaf active { type leafref { path "../ifs/if/name"; } }
  leaf bad-units { type string; units "furlongs"; }
}
`}, "lr")
	active := root.Child(nil, "active", MatchExact)
	if active == nil || active.Type == nil {
		t.Fatal("active not compiled")
	}
	target := active.Type.Target
	if target == nil {
		t.Fatal("leafref target not resolved")
	}
	if target.Name != "name" || target.Kind != ObjLeaf {
		t.Errorf("leafref resolved to %v %s", target.Kind, target.Name)
	}
}

func TestLeafrefBadTarget(t *testing.T) {
	ms := NewModules()
	if err := ms.Parse(`
module lrbad {
  namespace "urn:lrbad";
  prefix lb;
  container box { leaf v { type string; } }
  leaf r { type leafref { path "../box"; } }
}
`, "lrbad.yang"); err != nil {
		t.Fatal(err)
	}
	errs := ms.Process()
	if len(errs) == 0 {
		t.Fatal("expected an error: leafref target is a container")
	}
	if !strings.Contains(errs[0].Error(), "not a leaf or leaf-list") {
		t.Errorf("unexpected error: %v", errs[0])
	}
}

func TestDeviateNotSupported(t *testing.T) {
	_, root := compileTest(t, map[string]string{"dv": `
module dv {
  namespace "urn:dv";
  prefix dv;
  container c {
    leaf keep { type string; }
    leaf drop { type string; }
  }
  deviation /dv:c/dv:drop {
    deviate not-supported;
  }
}
`}, "dv")
	c := root.Child(nil, "c", MatchExact)
	if c.Child(nil, "drop", MatchExact) != nil {
		t.Error("deviate not-supported leaf still visible in data children")
	}
	if c.Child(nil, "keep", MatchExact) == nil {
		t.Error("unrelated leaf was dropped")
	}
}

func TestWalkKeys(t *testing.T) {
	_, root := compileTest(t, map[string]string{"wk": `
module wk {
  namespace "urn:wk";
  prefix wk;
  list outer {
    key "a b";
    leaf a { type string; }
    leaf b { type string; }
    list inner {
      key "c";
      leaf c { type string; }
      leaf v { type string; }
    }
  }
}
`}, "wk")
	inner := root.Child(nil, "outer", MatchExact).Child(nil, "inner", MatchExact)
	var keys []string
	inner.WalkKeys(func(k *Obj) bool {
		keys = append(keys, k.Name)
		return true
	})
	if diff := cmp.Diff([]string{"a", "b", "c"}, keys); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
}

func TestChildMatchModes(t *testing.T) {
	_, root := compileTest(t, map[string]string{"base": baseModule}, "base")
	sys := root.Child(nil, "sys", MatchExact)

	if sys.Child(nil, "HOSTNAME", MatchExact) != nil {
		t.Error("exact match should be case sensitive")
	}
	if sys.Child(nil, "HOSTNAME", MatchCaseInsensitive) == nil {
		t.Error("case-insensitive match failed")
	}
}

func TestSubmoduleMerge(t *testing.T) {
	_, root := compileTest(t, map[string]string{
		"main": `
module main {
  namespace "urn:main";
  prefix mn;
  include sub;
  container top { leaf a { type string; } }
}
`,
		"sub": `
submodule sub {
  belongs-to main { prefix mn; }
  container extra { leaf b { type string; } }
}
`,
	}, "main")
	if root.Child(nil, "extra", MatchExact) == nil {
		t.Error("submodule content was not merged into the module tree")
	}
}
