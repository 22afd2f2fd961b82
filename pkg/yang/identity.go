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

// This file implements the resolution of identities.  Identities are
// resolved in one pass across all modules of a Modules instance before
// typedefs, as identityref typedefs consult the identity dictionary.

import (
	"fmt"
	"sync"
)

// identityDictionary stores the set of identities resolved within one
// Modules instance, identified by their prefixed name.
type identityDictionary struct {
	mu   sync.Mutex
	dict map[string]resolvedIdentity
}

func newIdentityDictionary() *identityDictionary {
	return &identityDictionary{dict: map[string]resolvedIdentity{}}
}

// resolvedIdentity is an Identity that has been disambiguated.
type resolvedIdentity struct {
	Module   *Module
	Identity *Identity
}

// isEmpty determines whether the resolvedIdentity value was defined.
func (r resolvedIdentity) isEmpty() bool {
	return r.Module == nil && r.Identity == nil
}

// newResolvedIdentity creates a resolved identity from an identity and its
// module, and returns the prefixed name (Prefix:IdentityName) along with
// the resolved identity.
func newResolvedIdentity(m *Module, i *Identity) (string, resolvedIdentity) {
	return i.PrefixedName(), resolvedIdentity{Module: m, Identity: i}
}

func appendIfNotIn(ids []*Identity, chk *Identity) []*Identity {
	for _, id := range ids {
		if id == chk {
			return ids
		}
	}
	return append(ids, chk)
}

// addChildren recursively adds r and its derived identities to ids.
func addChildren(r *Identity, ids []*Identity) []*Identity {
	ids = appendIfNotIn(ids, r)
	for _, ch := range r.Values {
		ids = addChildren(ch, ids)
	}
	return ids
}

// findIdentityBase returns the resolved identity corresponding to the
// baseStr string in the context of the Module mod.
func (mod *Module) findIdentityBase(baseStr string) (*resolvedIdentity, []error) {
	var base resolvedIdentity
	var ok bool
	var errs []error

	if mod.modules == nil {
		return nil, []error{fmt.Errorf("%s: module %s is not registered", Source(mod), mod.Name)}
	}
	ids := mod.modules.identities

	basePrefix, baseName := getPrefix(baseStr)
	rootPrefix := mod.GetPrefix()
	source := Source(mod)

	switch basePrefix {
	case "", rootPrefix:
		// This is a local identity defined within the current module.
		keyName := fmt.Sprintf("%s:%s", rootPrefix, baseName)
		base, ok = ids.dict[keyName]
		if !ok {
			errs = append(errs, fmt.Errorf("%s: can't resolve the local base %s as %s", source, baseStr, keyName))
		}
	default:
		// The identity we are looking for is prefix:basename.  If we
		// already know prefix:basename then just use it.  If not, try
		// again within the module identified by prefix.
		if id, ok := ids.dict[baseStr]; ok {
			base = id
			break
		}
		extmod := FindModuleByPrefix(mod, basePrefix)
		if extmod == nil {
			errs = append(errs,
				fmt.Errorf("%s: can't find external module with prefix %s", source, basePrefix))
			break
		}

		// Find the identity in the remote module that matches the
		// base we were given.
		for _, rid := range extmod.Identities() {
			if rid.Name == baseName {
				key := rid.PrefixedName()
				if id, ok := ids.dict[key]; ok {
					base = id
				} else {
					errs = append(errs, fmt.Errorf("%s: can't find base %s", source, baseStr))
				}
				break
			}
		}
		if base.isEmpty() {
			errs = append(errs, fmt.Errorf("%s: can't resolve remote base %s", source, baseStr))
		}
	}
	return &base, errs
}

// resolve builds the identity dictionary for ms and links derived
// identities into the Values of their bases.
func (d *identityDictionary) resolve(ms *Modules) []error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error

	// Across all modules, compile the declared identities into a fully
	// resolved map keyed by the module's real prefix and identity name.
	for _, mod := range ms.Modules {
		for _, i := range mod.Identities() {
			keyName, r := newResolvedIdentity(mod, i)
			d.dict[keyName] = r
		}

		// Hoist up all identities in included submodules.  We
		// deliberately do not range over ms.SubModules: that might
		// process a submodule no module included.
		for _, in := range mod.Include {
			if in.Module == nil {
				continue
			}
			for _, i := range in.Module.Identities() {
				keyName, r := newResolvedIdentity(in.Module, i)
				d.dict[keyName] = r
			}
		}
	}

	// Link each identity that has a base statement to its resolved
	// base, populating the base's Values with every derived identity so
	// that derivation checks become a membership test.
	for _, i := range d.dict {
		if i.Identity.Base == nil {
			continue
		}
		root := RootNode(i.Identity)
		base, baseErr := root.findIdentityBase(i.Identity.Base.asString())
		if baseErr != nil {
			errs = append(errs, baseErr...)
			continue
		}
		base.Identity.Values = append(base.Identity.Values, i.Identity)
	}

	// A final sweep flattens transitive derivations into each base.
	for _, i := range d.dict {
		newValues := []*Identity{}
		for _, j := range i.Identity.Values {
			newValues = addChildren(j, newValues)
		}
		i.Identity.Values = newValues
	}

	return errs
}

// FindIdentity resolves the prefixed identity name ref in the context of
// module mod.
func (ms *Modules) FindIdentity(mod *Module, ref string) (*Identity, error) {
	prefix, name := getPrefix(ref)
	target := mod
	if prefix != "" && prefix != mod.GetPrefix() {
		target = FindModuleByPrefix(mod, prefix)
		if target == nil {
			return nil, fmt.Errorf("unknown prefix: %s", prefix)
		}
	}
	for _, i := range target.Identities() {
		if i.Name == name {
			return i, nil
		}
	}
	return nil, fmt.Errorf("unknown identity: %s", ref)
}
