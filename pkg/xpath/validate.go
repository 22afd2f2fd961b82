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

// This file implements the schema-time validation pass: compiling and
// evaluating, in schema mode, every must, when and leafref path
// expression of a compiled module.  The schema builder does not call
// into this package; callers run this pass after yang.Modules.Process so
// the two packages stay acyclic.

import (
	"github.com/openconfig/yax/pkg/diag"
	"github.com/openconfig/yax/pkg/yang"
)

// A SchemaReport holds the outcome of validating one module's
// expressions.
type SchemaReport struct {
	// Errors are the fatal expression errors found.
	Errors []error
	// Warnings are the non-fatal findings, post filtering.
	Warnings []*diag.Error
}

// ValidateSchema compiles and evaluates every must, when and leafref
// path expression under root in schema mode.  filter controls warning
// suppression; nil emits every warning.
func ValidateSchema(root *yang.Obj, filter *diag.Filter) *SchemaReport {
	rep := &SchemaReport{}
	mod := root.Module

	var walk func(o *yang.Obj)
	check := func(o *yang.Obj, expr string, variant SourceVariant) {
		pcb, err := Compile(expr, variant, mod)
		if err != nil {
			rep.Errors = append(rep.Errors, err)
			return
		}
		pcb.Filter = filter
		if _, errs := pcb.Validate(o); len(errs) > 0 {
			rep.Errors = append(rep.Errors, errs...)
		}
		rep.Warnings = append(rep.Warnings, pcb.Warnings...)
	}

	walk = func(o *yang.Obj) {
		for _, m := range o.Must {
			check(o, m.Expr, MustWhen)
		}
		if o.When != "" {
			// A when expression is evaluated with the parent as
			// context.
			ctx := o.DataParent()
			if ctx == nil {
				ctx = root
			}
			check(ctx, o.When, MustWhen)
		}
		if o.Type != nil && o.Type.Kind == yang.Yleafref && o.Type.Path != "" {
			check(o, o.Type.Path, LeafrefPath)
		}
		for _, c := range o.Children() {
			walk(c)
		}
		if o.Input != nil {
			walk(o.Input)
		}
		if o.Output != nil {
			walk(o.Output)
		}
	}
	walk(root)
	return rep
}
