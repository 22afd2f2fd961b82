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

// This file applies deviation statements to the compiled schema trees.
// Deviations are only valid under a module or submodule, which lets them
// be processed after every tree is compiled and expanded.

import (
	"fmt"
	"strconv"
)

// applyDeviations walks every module's deviations and merges them into
// the compiled trees.  Deviation targets that do not resolve are errors.
func (ms *Modules) applyDeviations() []error {
	var errs []error
	done := map[*Module]bool{}
	for _, m := range ms.Modules {
		if done[m] {
			continue
		}
		done[m] = true
		root := ms.objs[m]
		if root == nil {
			continue
		}
		for _, d := range m.Deviation {
			target := ms.findObjPath(root, d.Name)
			if target == nil {
				errs = append(errs, fmt.Errorf("%s: deviation target not found: %s", Source(d), d.Name))
				continue
			}
			for _, dv := range d.Deviate {
				if err := target.deviate(dv, ms.ParseOptions); err != nil {
					errs = append(errs, fmt.Errorf("%s: %v", Source(dv), err))
				}
			}
		}
	}
	return errs
}

// deviate merges one deviate statement into o.
func (o *Obj) deviate(d *Deviate, opts Options) error {
	switch d.Name {
	case "not-supported":
		if opts.IgnoreDeviateNotSupported {
			return nil
		}
		if o.Parent != nil && !o.Parent.IsConfig() && o.IsConfig() {
			// Unreachable by construction but kept as a guard: a
			// config node cannot hang below a state node.
			return fmt.Errorf("inconsistent config under %s", o.Parent.Name)
		}
		o.setFlag(FlagDeleted)
		return nil

	case "add", "replace":
		if d.Default != nil {
			o.Default = d.Default.Name
		}
		if d.Units != nil {
			o.Units = d.Units.Name
		}
		if d.Config != nil {
			o.setConfig(d.Config)
		}
		if d.Mandatory != nil {
			o.setMandatory(d.Mandatory)
		}
		if d.MinElements != nil {
			n, err := strconv.ParseUint(d.MinElements.Name, 10, 64)
			if err != nil {
				return fmt.Errorf("bad min-elements: %v", err)
			}
			o.MinElements = n
		}
		if d.MaxElements != nil {
			if d.MaxElements.Name == "unbounded" {
				o.MaxElements = 0
			} else {
				n, err := strconv.ParseUint(d.MaxElements.Name, 10, 64)
				if err != nil {
					return fmt.Errorf("bad max-elements: %v", err)
				}
				o.MaxElements = n
			}
		}
		if len(d.Must) > 0 {
			if d.Name == "replace" {
				o.Must = nil
			}
			o.Must = append(o.Must, buildMust(d.Must)...)
		}
		for _, u := range d.Unique {
			o.Unique = append(o.Unique, u.Name)
		}
		if d.Type != nil {
			if o.Kind != ObjLeaf && o.Kind != ObjLeafList {
				return fmt.Errorf("deviate type on %v %s", o.Kind, o.Name)
			}
			mod := module(o.Node)
			if mod == nil || mod.modules == nil {
				return fmt.Errorf("deviate type on unregistered node %s", o.Name)
			}
			if errs := d.Type.resolve(mod.modules.typeDict); len(errs) > 0 {
				return errs[0]
			}
			o.Type = d.Type.Spec
		}
		return nil

	case "delete":
		if d.Default != nil && o.Default == d.Default.Name {
			o.Default = ""
		}
		if d.Units != nil && o.Units == d.Units.Name {
			o.Units = ""
		}
		if len(d.Must) > 0 {
			var keep []*MustStmt
		Must:
			for _, m := range o.Must {
				for _, dm := range d.Must {
					if m.Expr == dm.Name {
						continue Must
					}
				}
				keep = append(keep, m)
			}
			o.Must = keep
		}
		if len(d.Unique) > 0 {
			var keep []string
		Unique:
			for _, u := range o.Unique {
				for _, du := range d.Unique {
					if u == du.Name {
						continue Unique
					}
				}
				keep = append(keep, u)
			}
			o.Unique = keep
		}
		return nil

	default:
		return fmt.Errorf("unknown deviate argument: %s", d.Name)
	}
}
