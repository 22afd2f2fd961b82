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

// This file implements the resolution of types and typedefs: walking the
// derivation chain from a type use to a builtin, merging the restrictions
// declared at each level into a single TypeSpec.

import (
	"fmt"
	"sync"
)

// A typeDictionary is a dictionary of all Typedefs defined in all
// Typedefers of one Modules instance.  A map of Nodes is used rather than
// a map of Typedefers to simplify usage when traversing up a Node tree.
type typeDictionary struct {
	mu        sync.Mutex
	dict      map[Node]map[string]*Typedef
	resolving map[*Typedef]bool // cycle detection during resolve
}

func newTypeDictionary() *typeDictionary {
	return &typeDictionary{
		dict:      map[Node]map[string]*Typedef{},
		resolving: map[*Typedef]bool{},
	}
}

// add adds an entry to the typeDictionary d.
func (d *typeDictionary) add(n Node, name string, td *Typedef) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dict[n] == nil {
		d.dict[n] = map[string]*Typedef{}
	}
	d.dict[n][name] = td
}

// find returns the Typedef name defined in node n, or nil.
func (d *typeDictionary) find(n Node, name string) *Typedef {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dict[n] == nil {
		return nil
	}
	return d.dict[n][name]
}

// findExternal finds the externally defined typedef name in the module
// imported by n's root with the specified prefix.
func (d *typeDictionary) findExternal(n Node, prefix, name string) (*Typedef, error) {
	root := FindModuleByPrefix(n, prefix)
	if root == nil {
		return nil, fmt.Errorf("%s: unknown prefix: %s for type %s", Source(n), prefix, name)
	}
	if td := d.find(root, name); td != nil {
		return td, nil
	}
	if prefix != "" {
		name = prefix + ":" + name
	}
	return nil, fmt.Errorf("%s: unknown type %s", Source(n), name)
}

// typedefs returns a slice of all typedefs in d.
func (d *typeDictionary) typedefs() []*Typedef {
	var tds []*Typedef
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, dict := range d.dict {
		for _, td := range dict {
			tds = append(tds, td)
		}
	}
	return tds
}

// addTypedefs registers the typedefs declared directly by t.
func (d *typeDictionary) addTypedefs(t Typedefer) {
	for _, td := range t.Typedefs() {
		d.add(t, td.Name, td)
	}
}

// registerTypedefs walks the AST below n registering every typedef found.
// It is called by Modules.add once per module or submodule.
func (d *typeDictionary) registerTypedefs(n Node) {
	if t, ok := n.(Typedefer); ok {
		d.addTypedefs(t)
	}
	forEachChildNode(n, d.registerTypedefs)
}

// resolveTypedefs is called after all modules and submodules have been
// read, as well as their imports and includes.  It resolves all typedefs
// found in all modules and submodules read in.
func (d *typeDictionary) resolveTypedefs() []error {
	var errs []error

	// Resolving a typedef may require looking up other typedefs.  We
	// gather all typedefs into a slice first so we don't deadlock on d.
	for _, td := range d.typedefs() {
		errs = append(errs, td.resolve(d)...)
	}
	return errs
}

// resolve creates a TypeSpec for t, if not already done.  Resolving t
// requires resolving the Type that t is based on.
func (t *Typedef) resolve(d *typeDictionary) []error {
	// If we have no parent we are a base type and are already resolved.
	if t.Parent == nil || t.Spec != nil {
		return nil
	}

	if d.resolving[t] {
		return []error{fmt.Errorf("%s: typedef loop detected for %s", Source(t), t.Name)}
	}
	d.resolving[t] = true
	defer delete(d.resolving, t)

	if errs := t.Type.resolve(d); len(errs) != 0 {
		return errs
	}

	// Make a copy of the TypeSpec we are based on and then update it
	// with local information.
	y := *t.Type.Spec
	y.Name = t.Name
	y.Base = t.Type

	if t.Units != nil {
		y.Units = t.Units.Name
	}
	if t.Default != nil {
		y.Default = t.Default.Name
	}

	if t.Type.IdentityBase != nil {
		// Copy over the identity base if the type has one.
		root := RootNode(t)
		if idBase, err := root.findIdentityBase(t.Type.IdentityBase.Name); err == nil {
			y.IdentityBase = idBase.Identity
		} else {
			return []error{fmt.Errorf("could not resolve identity base for typedef: %s", t.Type.IdentityBase.Name)}
		}
	}

	if errs := checkDefault(t, &y); len(errs) > 0 {
		return errs
	}

	// If we changed something, we are the new root.
	if y.Root == t.Type.Spec || !y.Equal(y.Root) {
		y.Root = &y
	}
	t.Spec = &y
	return nil
}

// checkDefault verifies that a numeric default value falls within the
// effective range of y.  Out-of-range defaults are schema errors.
func checkDefault(n Node, y *TypeSpec) []error {
	if y.Default == "" || !y.Kind.IsNumeric() || len(y.Range) == 0 {
		return nil
	}
	var def Number
	var err error
	if y.Kind == Ydecimal64 {
		def, err = ParseDecimal(y.Default, uint8(max(y.FractionDigits, 1)))
	} else if y.Kind != Yfloat64 {
		def, err = ParseInt(y.Default)
	} else {
		return nil
	}
	if err != nil {
		return []error{fmt.Errorf("%s: bad default %q: %v", Source(n), y.Default, err)}
	}
	if !y.Range.Accepts(def) {
		return []error{fmt.Errorf("%s: default %q out of range %v", Source(n), y.Default, y.Range)}
	}
	return nil
}

// resolve resolves Type t, as well as the underlying typedef for t.  If t
// cannot be resolved then one or more errors are returned.
func (t *Type) resolve(d *typeDictionary) (errs []error) {
	if t.Spec != nil {
		return nil
	}

	// If t.Name is a base type then td will not be nil, otherwise
	// td is looked up through the dictionary.
	td := baseTypedefs[t.Name]

	prefix, name := getPrefix(t.Name)
	root := RootNode(t)
	rootPrefix := root.GetPrefix()

	source := "unknown"
check:
	switch {
	case td != nil:
		source = "builtin"
	case prefix == "" || rootPrefix == prefix:
		source = "local"
		// If we have no prefix, or the prefix names our own root,
		// look in our ancestors for a typedef of name.
		for n := Node(t); n != nil; n = n.ParentNode() {
			if td = d.find(n, name); td != nil {
				break check
			}
		}
		// We need to check our sub-modules as well.
		for _, in := range root.Include {
			if in.Module == nil {
				continue
			}
			if td = d.find(in.Module, name); td != nil {
				break check
			}
		}
		var pname string
		switch {
		case prefix == "", root.Prefix != nil && prefix == root.Prefix.Name:
			pname = rootPrefix + ":" + name
		default:
			pname = fmt.Sprintf("%s[%s]:%s", prefix, rootPrefix, name)
		}

		return []error{fmt.Errorf("%s: unknown type: %s", Source(t), pname)}

	default:
		source = "imported"
		// The prefix is not local to our module, so we have to find
		// what module it is part of and whether name is defined at
		// the top level of that module.
		var err error
		td, err = d.findExternal(t, prefix, name)
		if err != nil {
			return []error{err}
		}
	}
	if errs := td.resolve(d); len(errs) > 0 {
		return errs
	}

	// Make a copy of the typedef we are based on so we can augment it.
	if td.Spec == nil {
		return []error{fmt.Errorf("%s: no TypeSpec defined for %s %s", Source(td), source, td.Name)}
	}
	y := *td.Spec

	y.Base = td.Type
	t.Spec = &y

	if v := t.RequireInstance; v != nil {
		b, err := v.asBool()
		if err != nil {
			errs = append(errs, err)
		}
		y.OptionalInstance = !b
	}
	if v := t.Path; v != nil {
		y.Path = v.asString()
	}
	isDecimal64 := y.Kind == Ydecimal64 && (t.Name == "decimal64" || y.FractionDigits != 0)
	switch {
	case isDecimal64 && y.FractionDigits != 0:
		// FractionDigits is immutable once set via type inheritance.
		if t.FractionDigits != nil {
			return append(errs, fmt.Errorf("%s: overriding of fraction-digits not allowed", Source(t)))
		}
	case isDecimal64:
		// A direct use of decimal64 must specify fraction-digits in
		// the range 1..18.
		i, err := t.FractionDigits.asRangeInt(1, 18)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %v", Source(t), err))
		}
		y.FractionDigits = int(i)
	case t.FractionDigits != nil:
		errs = append(errs, fmt.Errorf("%s: fraction-digits only allowed for decimal64 values", Source(t)))
	case y.Kind == Yidentityref:
		if source != "builtin" {
			// A typedef that refers to an identityref; maintain
			// the base that the typedef resolution provided.
			break
		}

		if t.IdentityBase == nil {
			errs = append(errs, fmt.Errorf("%s: an identityref must specify a base", Source(t)))
			break
		}

		root := RootNode(t.Parent)
		resolvedBase, baseErr := root.findIdentityBase(t.IdentityBase.Name)
		if baseErr != nil {
			errs = append(errs, baseErr...)
			break
		}

		if resolvedBase.Identity == nil {
			errs = append(errs, fmt.Errorf("%s: identity has a null base", t.IdentityBase.Name))
			break
		}
		y.IdentityBase = resolvedBase.Identity
	}

	if t.Range != nil {
		yr, err := parseRanges(t.Range.Name, isDecimal64, uint8(y.FractionDigits))
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: bad range: %v", Source(t.Range), err))
		case !y.Range.Contains(yr):
			errs = append(errs, fmt.Errorf("%s: bad range: %v not within %v", Source(t.Range), yr, y.Range))
		case yr.Equal(y.Range):
		default:
			y.Range = yr
		}
	}

	if t.Length != nil {
		yr, err := ParseRangesInt(t.Length.Name)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: bad length: %v", Source(t.Length), err))
		case !y.Length.Contains(yr):
			errs = append(errs, fmt.Errorf("%s: bad length: %v not within %v", Source(t.Length), yr, y.Length))
		case yr.Equal(y.Length):
		default:
			for _, r := range yr {
				if r.Min.Kind == Negative {
					errs = append(errs, fmt.Errorf("%s: negative length: %v", Source(t.Length), yr))
					break
				}
			}
			y.Length = yr
		}
	}

	set := func(e *EnumType, name string, value *Value) error {
		if value == nil {
			return e.SetNext(name)
		}
		n, err := ParseInt(value.Name)
		if err != nil {
			return err
		}
		i, err := n.Int()
		if err != nil {
			return err
		}
		return e.Set(name, i)
	}

	if len(t.Enum) > 0 {
		enum := NewEnumType()
		for _, e := range t.Enum {
			if err := set(enum, e.Name, e.Value); err != nil {
				errs = append(errs, fmt.Errorf("%s: %v", Source(e), err))
			}
		}
		y.Enum = enum
	}

	if len(t.Bit) > 0 {
		bit := NewBitfield()
		for _, e := range t.Bit {
			if err := set(bit, e.Name, e.Position); err != nil {
				errs = append(errs, fmt.Errorf("%s: %v", Source(e), err))
			}
		}
		y.Bit = bit
	}

	// Append any newly found patterns to the end of the list of
	// patterns.  Patterns are ANDed according to section 9.4.6.  If all
	// the patterns declared by t were also declared by the type t is
	// based on, then no patterns are added.
	seenPatterns := map[string]bool{}
	for _, p := range y.Pattern {
		seenPatterns[p] = true
	}
	for _, pv := range t.Pattern {
		if !seenPatterns[pv.Name] {
			seenPatterns[pv.Name] = true
			y.Pattern = append(y.Pattern, pv.Name)
		}
	}
	for _, err := range y.CompilePatterns() {
		errs = append(errs, fmt.Errorf("%s: %v", Source(t), err))
	}

	// Resolve union members, preserving declaration order and dropping
	// duplicates.  A union may not contain a member whose effective base
	// is leafref or empty.
looking:
	for _, ut := range t.Type {
		errs = append(errs, ut.resolve(d)...)
		if ut.Spec == nil {
			continue
		}
		switch ut.Spec.Kind {
		case Yleafref, Yempty:
			errs = append(errs, fmt.Errorf("%s: union member of type %s not allowed", Source(ut), ut.Spec.Kind))
			continue
		}
		for _, yt := range y.Type {
			if ut.Spec.Equal(yt) {
				continue looking
			}
		}
		y.Type = append(y.Type, ut.Spec)
	}

	if errs2 := checkDefault(t, &y); len(errs2) > 0 {
		errs = append(errs, errs2...)
	}

	// If we changed something, we are the new root.
	if !y.Equal(y.Root) {
		y.Root = &y
	}

	return errs
}
