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

	"github.com/openconfig/yax/pkg/yang"
	"github.com/pborman/getopt"
)

var typesDebug bool
var typesVerbose bool

func init() {
	flags := getopt.New()
	flags.BoolVarLong(&typesDebug, "types_debug", 0, "display debug information")
	flags.BoolVarLong(&typesVerbose, "types_verbose", 0, "include base type information")
	register(&formatter{
		name:  "types",
		f:     doTypes,
		help:  "display found types",
		flags: flags,
	})
}

// typeEntry pairs a resolved type with one path that uses it.
type typeEntry struct {
	spec *yang.TypeSpec
	path string
}

func doTypes(w io.Writer, roots []*yang.Obj) {
	seen := map[*yang.TypeSpec]*typeEntry{}
	for _, root := range roots {
		root.WalkDescendants(func(o *yang.Obj) bool {
			if o.Type != nil && seen[o.Type] == nil {
				seen[o.Type] = &typeEntry{spec: o.Type, path: o.QualifiedPath()}
			}
			return true
		})
	}

	entries := make([]*typeEntry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })

	for _, e := range entries {
		printType(w, e)
	}
}

func printType(w io.Writer, e *typeEntry) {
	t := e.spec
	fmt.Fprintf(w, "%s: %s", e.path, t.Name)
	if typesVerbose && t.Root != nil && t.Root.Name != t.Name {
		fmt.Fprintf(w, " (%s)", t.Root.Name)
	}
	if len(t.Range) > 0 {
		fmt.Fprintf(w, " range %s", t.Range)
	}
	if len(t.Length) > 0 {
		fmt.Fprintf(w, " length %s", t.Length)
	}
	if t.Kind == yang.Ydecimal64 {
		fmt.Fprintf(w, " fraction-digits %d", t.FractionDigits)
	}
	if len(t.Pattern) > 0 {
		fmt.Fprintf(w, " pattern %d", len(t.Pattern))
	}
	if e := t.FirstEnum(); e != nil {
		fmt.Fprintf(w, " {%v}", e.Names())
	}
	if t.Kind == yang.Yleafref {
		fmt.Fprintf(w, " -> %s", t.Path)
	}
	if t.Kind == yang.Yidentityref && t.IdentityBase != nil {
		fmt.Fprintf(w, " base %s", t.IdentityBase.Name)
	}
	if typesDebug {
		fmt.Fprintf(w, " [kind %v]", t.Kind)
	}
	fmt.Fprintln(w)
}
