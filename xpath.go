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
	"os"

	"github.com/openconfig/yax/pkg/xpath"
	"github.com/openconfig/yax/pkg/yang"
	"github.com/pborman/getopt"
)

var xpathExpr string

func init() {
	flags := getopt.New()
	flags.StringVarLong(&xpathExpr, "xpath_expr", 0, "expression to validate against the schema", "EXPR")
	register(&formatter{
		name:  "xpath",
		f:     doXPath,
		help:  "validate must/when/leafref expressions, or --xpath_expr, against the schema",
		flags: flags,
	})
}

// doXPath validates the schema's own expressions, or a caller-provided
// one, in schema mode and prints the findings.
func doXPath(w io.Writer, roots []*yang.Obj) {
	for _, root := range roots {
		if xpathExpr != "" {
			pcb, err := xpath.Compile(xpathExpr, xpath.MustWhen, root.Module)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				stop(1)
			}
			res, errs := pcb.Validate(root)
			for _, err := range errs {
				fmt.Fprintf(os.Stderr, "%v\n", err)
			}
			if res != nil {
				printResult(w, root.Name, res)
			}
			for _, warn := range pcb.Warnings {
				fmt.Fprintf(w, "%s: warning: %v\n", root.Name, warn)
			}
			continue
		}

		rep := xpath.ValidateSchema(root, nil)
		for _, err := range rep.Errors {
			fmt.Fprintf(w, "%s: %v\n", root.Name, err)
		}
		for _, warn := range rep.Warnings {
			fmt.Fprintf(w, "%s: warning: %v\n", root.Name, warn)
		}
		if len(rep.Errors) == 0 && len(rep.Warnings) == 0 {
			fmt.Fprintf(w, "%s: all expressions valid\n", root.Name)
		}
	}
}

// printResult renders a result per its kind.
func printResult(w io.Writer, name string, res *xpath.Result) {
	switch res.Kind {
	case xpath.NodeSetResult:
		fmt.Fprintf(w, "%s: node-set of %d:\n", name, len(res.Nodes))
		for _, rn := range res.Nodes {
			if rn.Obj != nil {
				fmt.Fprintf(w, "  %s\n", rn.Obj.QualifiedPath())
			}
		}
	case xpath.NumberResult:
		fmt.Fprintf(w, "%s: number %s\n", name, xpath.NumberToString(res.Num))
	case xpath.StringResult:
		fmt.Fprintf(w, "%s: string %q\n", name, res.Str)
	case xpath.BooleanResult:
		fmt.Fprintf(w, "%s: boolean %v\n", name, res.Boo)
	default:
		fmt.Fprintf(w, "%s: no result\n", name)
	}
}
