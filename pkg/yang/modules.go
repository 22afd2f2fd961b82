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

// This file implements the Modules type, the table of every module and
// submodule that has been read in.  This includes the processing of include
// and import statements, which must be done prior to compiling a module
// into an Obj tree.  All dictionaries (typedefs, identities, compiled
// trees) are scoped to one Modules value; two Modules instances are fully
// independent.

import (
	"fmt"
	"sort"
)

// Modules contains information about all the top level modules and
// submodules that are read into it via its Read method.
type Modules struct {
	Modules    map[string]*Module // All "module" nodes
	SubModules map[string]*Module // All "submodule" nodes

	// ParseOptions sets the options for the current parse operation.
	ParseOptions Options

	includes   map[*Module]bool   // modules include has been run on
	byPrefix   map[string]*Module // cache of prefix lookup
	byNS       map[string]*Module // cache of namespace lookup
	objs       map[*Module]*Obj   // compiled schema trees
	typeDict   *typeDictionary
	identities *identityDictionary
	processed  bool

	// pathList is the list of directories to look for .yang files in.
	pathList []string
	pathMap  map[string]bool
}

// NewModules returns a newly created and initialized Modules.
func NewModules() *Modules {
	return &Modules{
		Modules:    map[string]*Module{},
		SubModules: map[string]*Module{},
		includes:   map[*Module]bool{},
		byPrefix:   map[string]*Module{},
		byNS:       map[string]*Module{},
		objs:       map[*Module]*Obj{},
		typeDict:   newTypeDictionary(),
		identities: newIdentityDictionary(),
		pathMap:    map[string]bool{},
	}
}

// Read reads the named yang module into ms.  The name can be the name of an
// actual .yang file or a module/submodule name (the base name of a .yang
// file, e.g., foo.yang is named foo).  An error is returned if the file is
// not found or there was an error parsing the file.
func (ms *Modules) Read(name string) error {
	name, data, err := ms.findFile(name)
	if err != nil {
		return err
	}
	return ms.Parse(data, name)
}

// Parse parses data as YANG source and adds it to ms.  The name should
// reflect the source of data.
func (ms *Modules) Parse(data, name string) error {
	ss, err := Parse(data, name)
	if err != nil {
		return err
	}
	for _, s := range ss {
		n, err := BuildAST(s)
		if err != nil {
			return err
		}
		if err := ms.add(n); err != nil {
			return err
		}
	}
	return nil
}

// add adds Node n to ms.  n must be assignable to *Module (i.e., it is a
// "module" or "submodule").  An error is returned if n is a duplicate of a
// name already added, or n is not assignable to *Module.
func (ms *Modules) add(n Node) error {
	var m map[string]*Module

	name := n.NName()
	kind := n.Kind()
	switch kind {
	case "module":
		m = ms.Modules
	case "submodule":
		m = ms.SubModules
	default:
		return fmt.Errorf("not a module or submodule: %s is of type %s", name, kind)
	}

	mod := n.(*Module)
	fullName := mod.FullName()
	mod.modules = ms

	if o := m[fullName]; o != nil {
		return fmt.Errorf("duplicate %s %s at %s and %s", kind, fullName, Source(o), Source(n))
	}
	m[fullName] = mod
	ms.typeDict.registerTypedefs(mod)

	if fullName == name {
		return nil
	}

	// Add us to the map if name has not been added before, or fullname
	// is a more recent revision of the entry.
	if o := m[name]; o == nil || o.FullName() < fullName {
		m[name] = mod
	}
	return nil
}

// GetModule returns the compiled Obj tree of the module named by name.
// GetModule will search for and read the file named name + ".yang" if it
// cannot satisfy the request from what it has currently read.
//
// GetModule is a convenience for calling Read and Process and then looking
// up the module name.
func (ms *Modules) GetModule(name string) (*Obj, []error) {
	if ms.Modules[name] == nil {
		if err := ms.Read(name); err != nil {
			return nil, []error{err}
		}
		if ms.Modules[name] == nil {
			return nil, []error{fmt.Errorf("module not found: %s", name)}
		}
	}
	if errs := ms.Process(); len(errs) != 0 {
		return nil, errs
	}
	return ms.objs[ms.Modules[name]], nil
}

// GetModule optionally reads in a set of YANG source files, named by
// sources, and then returns the Obj for the module named module.  GetModule
// either returns an Obj or one or more errors.
func GetModule(name string, sources ...string) (*Obj, []error) {
	ms := NewModules()
	var errs []error
	for _, source := range sources {
		if err := ms.Read(source); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return ms.GetModule(name)
}

// ObjFor returns the compiled schema tree for module m, or nil if m has
// not been processed.
func (ms *Modules) ObjFor(m *Module) *Obj { return ms.objs[m] }

// objFor is ObjFor that also accepts submodules, mapping them to their
// belongs-to module.
func (ms *Modules) objFor(m *Module) *Obj {
	if o := ms.objs[m]; o != nil {
		return o
	}
	if m != nil && m.BelongsTo != nil {
		return ms.objs[ms.Modules[m.BelongsTo.Name]]
	}
	return nil
}

// Roots returns the compiled module trees in ms, one per processed
// module, sorted by module name.
func (ms *Modules) Roots() []*Obj {
	var out []*Obj
	for _, o := range ms.objs {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FindModule returns the Module/Submodule specified by n, which must be a
// *Include or *Import.  If n is a *Include then a submodule is returned.
// If n is a *Import then a module is returned.
func (ms *Modules) FindModule(n Node) *Module {
	name := n.NName()
	rev := name
	var m map[string]*Module

	switch i := n.(type) {
	case *Include:
		m = ms.SubModules
		if i.RevisionDate != nil {
			rev = name + "@" + i.RevisionDate.Name
		}
	case *Import:
		m = ms.Modules
		if i.RevisionDate != nil {
			rev = name + "@" + i.RevisionDate.Name
		}
	default:
		return nil
	}
	if n := m[rev]; n != nil {
		return n
	}
	if n := m[name]; n != nil {
		return n
	}

	// Try to read it in.
	if err := ms.Read(name); err != nil {
		return nil
	}
	if n := m[rev]; n != nil {
		return n
	}
	return m[name]
}

// FindModuleByNamespace either returns the Module specified by the
// namespace or returns an error.
func (ms *Modules) FindModuleByNamespace(ns string) (*Module, error) {
	if m, ok := ms.byNS[ns]; ok {
		if m == nil {
			return nil, fmt.Errorf("%s: no such namespace", ns)
		}
		return m, nil
	}
	var found *Module
	for _, m := range ms.Modules {
		if m.Namespace.Name == ns {
			switch {
			case m == found:
			case found != nil:
				return nil, fmt.Errorf("namespace %s matches two or more modules (%s, %s)",
					ns, found.Name, m.Name)
			default:
				found = m
			}
		}
	}
	ms.byNS[ns] = found
	if found == nil {
		return nil, fmt.Errorf("%s: no such namespace", ns)
	}
	return found, nil
}

// FindModuleByPrefix either returns the Module specified by prefix or
// returns an error.
func (ms *Modules) FindModuleByPrefix(prefix string) (*Module, error) {
	if m, ok := ms.byPrefix[prefix]; ok {
		if m == nil {
			return nil, fmt.Errorf("%s: no such prefix", prefix)
		}
		return m, nil
	}
	var found *Module
	for _, m := range ms.Modules {
		if m.Prefix.Name == prefix {
			switch {
			case m == found:
			case found != nil:
				return nil, fmt.Errorf("prefix %s matches two or more modules (%s, %s)", prefix, found.Name, m.Name)
			default:
				found = m
			}
		}
	}
	ms.byPrefix[prefix] = found
	if found == nil {
		return nil, fmt.Errorf("%s: no such prefix", prefix)
	}
	return found, nil
}

// process satisfies all include and import statements, then resolves
// identities and typedefs.  It must be called once all source modules have
// been read in and prior to compiling Obj trees.
func (ms *Modules) process() []error {
	var mods []*Module
	var errs []error

	// Collect the list of modules we know about now so the range below
	// does not pick up modules read during processing.
	for _, m := range ms.Modules {
		mods = append(mods, m)
	}
	for _, m := range mods {
		if err := ms.include(m); err != nil {
			errs = append(errs, err)
		}
	}

	// Resolve identities before typedefs: resolving a typedef that has
	// an identityref within it needs the identity dictionary.
	errs = append(errs, ms.identities.resolve(ms)...)
	errs = append(errs, ms.typeDict.resolveTypedefs()...)

	return errs
}

// Process processes all the modules and submodules that have been read
// into ms.  It resolves imports and includes, identities, and typedefs,
// compiles each module into an Obj tree, expands uses, grafts augments,
// inserts implied case statements, resolves leafrefs, and applies
// deviations.  Process may return multiple errors; it terminates early
// on structural failures.
func (ms *Modules) Process() []error {
	if ms.processed {
		var errs []error
		for _, m := range ms.Modules {
			if o := ms.objs[m]; o != nil {
				errs = append(errs, o.allErrors()...)
			}
		}
		return errorSort(errs)
	}
	ms.processed = true

	errs := ms.process()
	if len(errs) > 0 {
		return errorSort(errs)
	}

	gt := &groupingTrees{
		trees:    map[*Grouping]*Obj{},
		building: map[*Grouping]bool{},
	}

	// Compile each module then expand its uses.  Submodule content is
	// merged into the belonging module's tree.  The Modules map holds
	// both name and name@revision aliases for one *Module; compile each
	// distinct module once.
	var mods []*Module
	for _, m := range ms.Modules {
		if _, ok := ms.objs[m]; ok {
			continue
		}
		o := compileModule(m, ms.typeDict)
		ms.mergeSubmodules(m, o)
		ms.objs[m] = o
		mods = append(mods, m)
	}
	for _, m := range mods {
		ms.expandUses(ms.objs[m], ms.typeDict, gt)
	}

	// Handle all the augments.  Since augments can depend on other
	// augments there is no good ordering; repeat until no progress is
	// made.
	pending := append([]*Module(nil), mods...)
	for len(pending) > 0 {
		var processed int
		for i := 0; i < len(pending); {
			m := pending[i]
			p, s := ms.augment(ms.objs[m], false)
			processed += p
			if s == 0 {
				pending[i] = pending[len(pending)-1]
				pending = pending[:len(pending)-1]
				continue
			}
			i++
		}
		if processed == 0 {
			break
		}
	}

	for _, m := range mods {
		ms.objs[m].insertCases()
		ms.objs[m].markKeys()
	}

	// Report any augments that still have no target.
	for _, m := range pending {
		ms.augment(ms.objs[m], true)
	}

	for _, m := range mods {
		ms.resolveLeafrefs(ms.objs[m])
	}

	errs = ms.applyDeviations()

	for _, m := range mods {
		errs = append(errs, ms.objs[m].allErrors()...)
	}
	return errorSort(errs)
}

// mergeSubmodules merges the compiled trees of m's included submodules
// into o.  Submodules share the module's namespace; their top-level nodes
// appear as the module's own.
func (ms *Modules) mergeSubmodules(m *Module, o *Obj) {
	seen := map[*Module]bool{m: true}
	var merge func(mod *Module)
	merge = func(mod *Module) {
		for _, inc := range mod.Include {
			sm := inc.Module
			if sm == m {
				// The include graph cycles back to the module
				// being compiled.
				if !ms.ParseOptions.IgnoreSubmoduleCircularDependencies {
					o.errorf("%s: %s has a circular dependency, including %s", Source(m), mod.Name, sm.Name)
				}
				continue
			}
			if sm == nil || seen[sm] {
				continue
			}
			seen[sm] = true
			so := compileModule(sm, ms.typeDict)
			for _, c := range so.children {
				if dup := o.ChildAll(c.Name, MatchExact); dup != nil {
					o.errorf("%s: duplicate node %q included from %s", Source(m), c.Name, sm.Name)
					continue
				}
				o.append(c)
			}
			o.Identities = append(o.Identities, so.Identities...)
			merge(sm)
		}
	}
	merge(m)
}

// include resolves all the include and import statements for m.  It
// returns an error if m or, recursively, any of the modules it includes or
// imports, reference a module that cannot be found.
func (ms *Modules) include(m *Module) error {
	if ms.includes[m] {
		return nil
	}
	ms.includes[m] = true

	// First process any includes in this module.
	for _, i := range m.Include {
		im := ms.FindModule(i)
		if im == nil {
			return fmt.Errorf("no such submodule: %s", i.Name)
		}
		// Process the include statements in our included module.
		if err := ms.include(im); err != nil {
			return err
		}
		i.Module = im
	}

	// Next process any imports in this module.  Imports are used when
	// searching.
	for _, i := range m.Import {
		im := ms.FindModule(i)
		if im == nil {
			return fmt.Errorf("no such module: %s", i.Name)
		}
		if err := ms.include(im); err != nil {
			return err
		}

		i.Module = im
	}
	return nil
}

// Unload removes the module named name from ms.  It is an error to unload
// a module that another loaded module imports or includes, or whose
// compiled objects are still referenced by a value tree (the caller owns
// that check).
func (ms *Modules) Unload(name string) error {
	mod := ms.Modules[name]
	if mod == nil {
		return fmt.Errorf("module not loaded: %s", name)
	}
	for _, m := range ms.Modules {
		if m == mod {
			continue
		}
		for _, i := range m.Import {
			if i.Module == mod {
				return fmt.Errorf("cannot unload %s: imported by %s", name, m.Name)
			}
		}
	}
	for n, m := range ms.Modules {
		if m == mod {
			delete(ms.Modules, n)
		}
	}
	delete(ms.objs, mod)
	delete(ms.includes, mod)
	// The prefix and namespace caches may hold stale entries.
	ms.byPrefix = map[string]*Module{}
	ms.byNS = map[string]*Module{}
	return nil
}
