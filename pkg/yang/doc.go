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

// Package yang parses YANG modules into a compiled schema tree.
//
// Source is processed in stages.  The lexer (lex.go) tokenizes YANG text;
// the statement parser (parse.go) builds a generic Statement tree; the AST
// builder (ast.go, stmts.go) converts Statements into typed Nodes; and the
// object compiler (obj.go) produces the Obj tree that the rest of the
// system consumes.  The Modules table (modules.go) owns every dictionary —
// typedefs, identities, compiled trees — so independent Modules instances
// never share state.
//
// A compiled module has had its typedefs resolved into TypeSpec chains,
// its groupings cloned into every uses site, its augments grafted onto
// their targets, implicit case statements inserted, leafrefs bound to
// their target objects, and deviations applied.  After Process returns
// the tree is frozen and may be shared between goroutines without
// locking.
package yang
