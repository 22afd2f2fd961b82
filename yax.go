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

// Program yax parses YANG files, displays errors, and writes read-only
// views of the compiled schema on output.
//
// Usage: yax [--path DIR] [--format FORMAT] [FORMAT OPTIONS] [SOURCE ...]
//
// Each SOURCE may be a module name or a .yang file.  If no SOURCE is
// given, standard input is parsed.
//
// If DIR is specified, it is a comma separated list of paths to append
// to the module search path.  A DIR of the form dir/... searches dir and
// all of its subdirectories.
//
// FORMAT, which defaults to "tree", selects the view to produce.  Use
// "yax --help" for the list of formats.  FORMAT OPTIONS are flags that
// apply to a specific format; they must follow --format.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/openconfig/yax/pkg/indent"
	"github.com/openconfig/yax/pkg/yang"
	"github.com/pborman/getopt"
)

// Each format registers a formatter.  The function f is called once with
// the set of compiled module trees.
type formatter struct {
	name  string
	f     func(io.Writer, []*yang.Obj)
	help  string
	flags *getopt.Set
}

var formatters = map[string]*formatter{}

func register(f *formatter) {
	formatters[f.name] = f
}

// exitIfError writes errs to standard error and exits with status 1.  If
// errs is empty it does nothing.
func exitIfError(errs []error) {
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, err)
		}
		stop(1)
	}
}

var stop = os.Exit

func main() {
	var format string
	formats := make([]string, 0, len(formatters))
	for k := range formatters {
		formats = append(formats, k)
	}
	sort.Strings(formats)

	var help bool
	var paths []string
	var ignoreCircdep bool
	getopt.ListVarLong(&paths, "path", 0, "comma separated list of directories to add to search path", "DIR[,DIR...]")
	getopt.StringVarLong(&format, "format", 0, "format to display: "+strings.Join(formats, ", "), "FORMAT")
	getopt.BoolVarLong(&help, "help", '?', "display help")
	getopt.BoolVarLong(&ignoreCircdep, "ignore-circdep", 0, "ignore circular dependencies between submodules")
	getopt.SetParameters("[FORMAT OPTIONS] [SOURCE] [...]")

	if err := getopt.Getopt(func(o getopt.Option) bool {
		if o.Name() == "--format" {
			f, ok := formatters[format]
			if !ok {
				fmt.Fprintf(os.Stderr, "%s: invalid format.  Choices are %s\n", format, strings.Join(formats, ", "))
				stop(1)
			}
			if f.flags != nil {
				f.flags.VisitAll(func(o getopt.Option) {
					getopt.AddOption(o)
				})
			}
		}
		return true
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		getopt.PrintUsage(os.Stderr)
		os.Exit(1)
	}

	if help {
		getopt.CommandLine.PrintUsage(os.Stderr)
		fmt.Fprintf(os.Stderr, `
SOURCE may be a module name or a .yang file.

Formats:
`)
		for _, fn := range formats {
			f := formatters[fn]
			fmt.Fprintf(os.Stderr, "    %s - %s\n", f.name, f.help)
			if f.flags != nil {
				f.flags.PrintOptions(indent.NewWriter(os.Stderr, "   "))
			}
			fmt.Fprintln(os.Stderr)
		}
		stop(0)
	}

	if format == "" {
		format = "tree"
	}
	if _, ok := formatters[format]; !ok {
		fmt.Fprintf(os.Stderr, "%s: invalid format.  Choices are %s\n", format, strings.Join(formats, ", "))
		stop(1)
	}

	ms := yang.NewModules()
	ms.ParseOptions.IgnoreSubmoduleCircularDependencies = ignoreCircdep

	for _, path := range paths {
		expanded, err := yang.PathsWithModules(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		ms.AddPath(expanded...)
	}

	files := getopt.Args()
	if len(files) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err == nil {
			err = ms.Parse(string(data), "<STDIN>")
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			stop(1)
		}
	}

	for _, name := range files {
		if err := ms.Read(name); err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
	}

	// Compile the read files, exiting if any errors were found.
	exitIfError(ms.Process())

	formatters[format].f(os.Stdout, ms.Roots())
}
