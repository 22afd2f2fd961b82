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

	"github.com/openconfig/yax/pkg/yang"
)

func init() {
	register(&formatter{
		name: "features",
		f:    doFeatures,
		help: "list the features declared by each module and their state",
	})
}

func doFeatures(w io.Writer, roots []*yang.Obj) {
	for _, root := range roots {
		m := root.Module
		if m == nil || len(m.Feature) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s:\n", m.Name)
		for _, f := range m.Feature {
			state := "enabled"
			if !m.FeatureEnabled(f.Name) {
				state = "disabled"
			}
			fmt.Fprintf(w, "  %s (%s)", f.Name, state)
			if len(f.IfFeature) > 0 {
				fmt.Fprintf(w, " if-feature")
				for _, c := range f.IfFeature {
					fmt.Fprintf(w, " %s", c.Name)
				}
			}
			fmt.Fprintln(w)
		}
	}
}
