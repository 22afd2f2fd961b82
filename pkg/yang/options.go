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

// Options defines the options that should be used when parsing YANG
// modules, including specific overrides for potentially problematic YANG
// constructs.
type Options struct {
	// IgnoreSubmoduleCircularDependencies, when set, makes the parser
	// explicitly ignore the case where a submodule includes itself
	// through a circular reference.
	IgnoreSubmoduleCircularDependencies bool

	// IgnoreDeviateNotSupported retains nodes that are marked with
	// "deviate not-supported" instead of flagging them deleted.  An
	// example use case is interacting with different targets that have
	// different support for a leaf without needing a second schema.
	IgnoreDeviateNotSupported bool
}
