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

package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/derekparker/trie"

	"github.com/openconfig/yax/pkg/yang"
	"github.com/pborman/getopt"
)

var showPrefix string

func init() {
	flags := getopt.New()
	flags.StringVarLong(&showPrefix, "show_prefix", 0, "only show objects whose qualified path starts with PREFIX", "PREFIX")
	register(&formatter{
		name:  "show",
		f:     doShow,
		help:  "show objects by qualified path, with prefix search",
		flags: flags,
	})
}

// doShow indexes every object path in a trie and prints the subset
// selected by --show_prefix (or everything).  Hidden nodes are skipped;
// secure and password nodes print a placeholder instead of their type.
func doShow(w io.Writer, roots []*yang.Obj) {
	t := trie.New()
	for _, root := range roots {
		root.WalkDescendants(func(o *yang.Obj) bool {
			t.Add(o.QualifiedPath(), o)
			return true
		})
	}

	var paths []string
	if showPrefix != "" {
		paths = t.PrefixSearch(showPrefix)
	} else {
		paths = t.Keys()
	}
	sort.Strings(paths)

	for _, p := range paths {
		node, ok := t.Find(p)
		if !ok {
			continue
		}
		o := node.Meta().(*yang.Obj)
		if o.HasFlag(yang.FlagHidden) {
			continue
		}
		showObj(w, p, o)
	}
}

func showObj(w io.Writer, path string, o *yang.Obj) {
	access := "rw"
	if !o.IsConfig() {
		access = "ro"
	}
	switch {
	case o.HasFlag(yang.FlagVerySecure):
		fmt.Fprintf(w, "%s %s (%v) <not displayed>\n", access, path, o.Kind)
	case o.HasFlag(yang.FlagPassword), o.HasFlag(yang.FlagSecure):
		fmt.Fprintf(w, "%s %s (%v) <secure>\n", access, path, o.Kind)
	case o.Type != nil:
		fmt.Fprintf(w, "%s %s (%v %s)\n", access, path, o.Kind, o.Type.Name)
	default:
		fmt.Fprintf(w, "%s %s (%v)\n", access, path, o.Kind)
	}
	if o.Kind == yang.ObjList && o.Key != "" {
		fmt.Fprintf(w, "   key: %s\n", o.Key)
	}
	for _, m := range o.Must {
		fmt.Fprintf(w, "   must: %s\n", m.Expr)
	}
	if o.When != "" {
		fmt.Fprintf(w, "   when: %s\n", o.When)
	}
}
