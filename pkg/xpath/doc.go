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

// Package xpath implements an XPath 1.0 parser and evaluator over YANG
// schema and value trees.
//
// An expression is carried by a parse control block (PCB) from source
// text through three phases: Compile tokenizes and parses it, Validate
// evaluates it against the schema tree at compile time, and Eval
// evaluates it against a value tree at runtime.  The same evaluator
// serves both phases; only the node identity differs (schema object
// pointer versus value node pointer).
//
// A PCB is single-threaded.  Callers wanting parallel evaluation create
// one PCB per goroutine; schema trees are frozen after construction and
// shared freely.
//
// Conformance note: the mod operator truncates toward zero, matching the
// original floating-point truncation behavior rather than the IEEE
// remainder some XPath 1.0 implementations use.
package xpath
