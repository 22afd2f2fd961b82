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

	"github.com/openconfig/yax/pkg/indent"
	"github.com/openconfig/yax/pkg/yang"
)

func init() {
	register(&formatter{
		name: "tree",
		f:    doTree,
		help: "display in a tree format",
	})
}

func doTree(w io.Writer, roots []*yang.Obj) {
	for _, root := range roots {
		for _, o := range root.DataChildren() {
			writeTree(w, o)
		}
	}
}

// writeTree writes o, formatted, and all of its children, to w.  Values
// flagged secure or password are shown without type detail; hidden nodes
// are skipped entirely.
func writeTree(w io.Writer, o *yang.Obj) {
	if o.HasFlag(yang.FlagHidden) {
		return
	}
	if o.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(indent.NewWriter(w, "// "), o.Description)
	}
	switch {
	case o.Kind == yang.ObjRPC:
		fmt.Fprintf(w, "RPC: ")
	case o.IsConfig():
		fmt.Fprintf(w, "rw: ")
	default:
		fmt.Fprintf(w, "RO: ")
	}
	if o.Type != nil {
		switch {
		case o.HasFlag(yang.FlagVerySecure):
			fmt.Fprintf(w, "<secret> ")
		case o.HasFlag(yang.FlagPassword), o.HasFlag(yang.FlagSecure):
			fmt.Fprintf(w, "<secure %s> ", o.Type.Name)
		default:
			fmt.Fprintf(w, "%s ", o.Type.Name)
		}
	}
	name := o.Name
	if m := o.Module; m != nil && m.GetPrefix() != "" {
		name = m.GetPrefix() + ":" + name
	}
	switch o.Kind {
	case yang.ObjLeafList:
		fmt.Fprintf(w, "[]%s\n", name)
		return
	case yang.ObjLeaf, yang.ObjAnyXML:
		fmt.Fprintf(w, "%s\n", name)
		return
	case yang.ObjList:
		fmt.Fprintf(w, "[%s]%s {\n", o.Key, name) //}
	default:
		fmt.Fprintf(w, "%s {\n", name) //}
	}
	if o.Kind == yang.ObjRPC {
		if o.Input != nil {
			writeTree(indent.NewWriter(w, "  "), o.Input)
		}
		if o.Output != nil {
			writeTree(indent.NewWriter(w, "  "), o.Output)
		}
	}
	for _, c := range o.DataChildren() {
		writeTree(indent.NewWriter(w, "  "), c)
	}
	// { to match the brace below to keep brace matching working
	fmt.Fprintln(w, "}")
}
