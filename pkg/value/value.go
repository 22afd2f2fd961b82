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

// Package value implements the typed instance tree validated against a
// compiled schema.  Each Node references the schema Obj it instantiates;
// scalar payloads are parsed and checked against the schema type at
// construction time.  A Node may instead be virtual, carrying a resolver
// invoked lazily to produce the effective value.
package value

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	log "github.com/golang/glog"

	"github.com/openconfig/yax/pkg/yang"
)

// A Resolver produces the materialized value of a virtual node.  It must
// be side-effect free; the returned node must not itself be virtual.  The
// snapshot is valid until the next modification of the ancestor subtree.
type Resolver func(*Node) (*Node, error)

// A Node is a typed instance of a schema object.  A parent exclusively
// owns its children; Parent is a weak back-reference.  Exactly one of
// children and scalar is populated for non-virtual nodes.
type Node struct {
	Schema *yang.Obj
	Parent *Node // weak
	Name   string
	// Namespace is the XML namespace URI of the defining module.
	Namespace string

	children []*Node
	scalar   *Scalar
	resolver Resolver
}

// A Scalar is a parsed simple-typed payload.
type Scalar struct {
	Kind yang.TypeKind

	Number   yang.Number // integer and decimal64 kinds
	Float    float64     // float64 kind
	Bool     bool
	Str      string   // string, enumeration, leafref, instance-identifier
	Bytes    []byte   // binary
	Bits     []string // bits, in declaration order of the input
	Identity *yang.Identity
	// Raw is the input text the scalar was parsed from.
	Raw string
}

// New returns an interior (container, list entry, or module root) node
// instantiating schema.
func New(schema *yang.Obj) *Node {
	n := &Node{Schema: schema}
	if schema != nil {
		n.Name = schema.Name
		if m := schema.Module; m != nil && m.Namespace != nil {
			n.Namespace = m.Namespace.Name
		}
	}
	return n
}

// NewVirtual returns a node whose value is produced on demand by r.
func NewVirtual(schema *yang.Obj, r Resolver) *Node {
	n := New(schema)
	n.resolver = r
	return n
}

// NewLeaf parses raw against schema's type and returns the resulting leaf
// node.  Type violations (out of range, failed pattern, wrong enum,
// fraction-digits overflow) are reported with the schema's source
// position.
func NewLeaf(schema *yang.Obj, raw string) (*Node, error) {
	if schema == nil || schema.Type == nil {
		return nil, fmt.Errorf("no type for leaf %q", raw)
	}
	s, err := parseScalar(schema, schema.Type, raw)
	if err != nil {
		return nil, err
	}
	n := New(schema)
	n.scalar = s
	return n, nil
}

// IsVirtual reports whether n's value is produced by a resolver.
func (n *Node) IsVirtual() bool { return n.resolver != nil }

// IsLeaf reports whether n carries a scalar payload.
func (n *Node) IsLeaf() bool { return n.scalar != nil }

// Scalar returns n's parsed payload, or nil for interior nodes.
func (n *Node) Scalar() *Scalar { return n.scalar }

// Children returns n's children in document order.  The returned slice is
// owned by n.
func (n *Node) Children() []*Node { return n.children }

// Append adds c as the last child of n and returns n.
func (n *Node) Append(c *Node) *Node {
	c.Parent = n
	n.children = append(n.children, c)
	return n
}

// Replace replaces the first child named old.Name (in old's namespace)
// with old, releasing the previous subtree.  If there is no such child,
// old is appended.
func (n *Node) Replace(old *Node) {
	for i, c := range n.children {
		if c.Name == old.Name && c.Namespace == old.Namespace {
			c.Parent = nil
			old.Parent = n
			n.children[i] = old
			return
		}
	}
	n.Append(old)
}

// Delete removes c from n's children.  It reports whether c was found.
func (n *Node) Delete(c *Node) bool {
	for i, ch := range n.children {
		if ch == c {
			copy(n.children[i:], n.children[i+1:])
			n.children = n.children[:len(n.children)-1]
			c.Parent = nil
			return true
		}
	}
	return false
}

// Child returns the first child of n named name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildAll returns every child of n named name.
func (n *Node) ChildAll(name string) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Root returns the document root of n's tree.
func (n *Node) Root() *Node {
	for ; n.Parent != nil; n = n.Parent {
	}
	return n
}

// Resolve returns the materialized, non-virtual form of n.  Non-virtual
// nodes resolve to themselves.  Equality and comparison always operate on
// the resolved form.
func (n *Node) Resolve() (*Node, error) {
	if n.resolver == nil {
		return n, nil
	}
	if log.V(5) {
		log.Infof("resolving virtual node %s", n.Name)
	}
	rn, err := n.resolver(n)
	if err != nil {
		return nil, err
	}
	if rn == nil || rn.IsVirtual() {
		return nil, fmt.Errorf("resolver for %s returned a virtual value", n.Name)
	}
	return rn, nil
}

// Clone returns a deep copy of n.  The copy has no parent.
func (n *Node) Clone() *Node {
	nn := *n
	nn.Parent = nil
	nn.children = make([]*Node, len(n.children))
	for i, c := range n.children {
		cc := c.Clone()
		cc.Parent = &nn
		nn.children[i] = cc
	}
	if n.scalar != nil {
		s := *n.scalar
		nn.scalar = &s
	}
	return &nn
}

// String returns the canonical XPath string value of n.  Simple types
// stringify through their canonical form; interior nodes concatenate the
// stringifications of all simple-typed descendants, separated by
// newlines, in document order.
func (n *Node) String() string {
	rn, err := n.Resolve()
	if err != nil {
		return ""
	}
	if rn.scalar != nil {
		return rn.scalar.Canonical()
	}
	var parts []string
	var walk func(*Node)
	walk = func(v *Node) {
		v, err := v.Resolve()
		if err != nil {
			return
		}
		if v.scalar != nil {
			parts = append(parts, v.scalar.Canonical())
			return
		}
		for _, c := range v.children {
			walk(c)
		}
	}
	for _, c := range rn.children {
		walk(c)
	}
	return strings.Join(parts, "\n")
}

// Float returns the numeric value of n per the XPath number() function:
// the canonical string parsed as a float64, or NaN.
func (n *Node) Float() float64 {
	s := strings.TrimSpace(n.String())
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// Canonical returns the canonical string form of s.
func (s *Scalar) Canonical() string {
	switch s.Kind {
	case yang.Ybool:
		if s.Bool {
			return "true"
		}
		return "false"
	case yang.Yempty:
		return ""
	case yang.Ybinary:
		return base64.StdEncoding.EncodeToString(s.Bytes)
	case yang.Ybits:
		return strings.Join(s.Bits, " ")
	case yang.Yfloat64:
		return strconv.FormatFloat(s.Float, 'g', -1, 64)
	case yang.Ydecimal64:
		return s.Number.String()
	default:
		if s.Kind.IsInteger() {
			return s.Number.String()
		}
		return s.Str
	}
}

// Equal reports whether s and t compare equal, numerically for numeric
// kinds and by canonical string otherwise.
func (s *Scalar) Equal(t *Scalar) bool {
	if s.Kind.IsNumeric() && t.Kind.IsNumeric() {
		if s.Kind == yang.Yfloat64 || t.Kind == yang.Yfloat64 {
			return s.Float64() == t.Float64()
		}
		return s.Number.Equal(t.Number)
	}
	return s.Canonical() == t.Canonical()
}

// Float64 returns the scalar as a float64, NaN if non-numeric.
func (s *Scalar) Float64() float64 {
	switch {
	case s.Kind == yang.Yfloat64:
		return s.Float
	case s.Kind.IsNumeric():
		return s.Number.Float()
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(s.Canonical()), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
}

// typeError builds the error reported for a value that fails its type.
func typeError(schema *yang.Obj, format string, v ...interface{}) error {
	return fmt.Errorf("%s: %s: %s", yang.Source(schema.Node), schema.Name, fmt.Sprintf(format, v...))
}

// parseScalar parses raw against spec, reporting violations against
// schema's source position.
func parseScalar(schema *yang.Obj, spec *yang.TypeSpec, raw string) (*Scalar, error) {
	s := &Scalar{Kind: spec.Kind, Raw: raw}

	switch spec.Kind {
	case yang.Ybool:
		switch raw {
		case "true":
			s.Bool = true
		case "false":
			s.Bool = false
		default:
			return nil, typeError(schema, "invalid boolean: %q", raw)
		}

	case yang.Yempty:
		if raw != "" {
			return nil, typeError(schema, "empty type takes no value: %q", raw)
		}

	case yang.Ystring:
		if err := checkLength(schema, spec, utf8.RuneCountInString(raw)); err != nil {
			return nil, err
		}
		if !spec.MatchString(raw) {
			return nil, typeError(schema, "%q does not match pattern", raw)
		}
		s.Str = raw

	case yang.Ybinary:
		b, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, typeError(schema, "invalid base64: %v", err)
		}
		if err := checkLength(schema, spec, len(b)); err != nil {
			return nil, err
		}
		s.Bytes = b

	case yang.Yenum:
		e := spec.FirstEnum()
		if e == nil || !e.IsDefined(raw) {
			return nil, typeError(schema, "invalid enumeration value: %q", raw)
		}
		s.Str = raw

	case yang.Ybits:
		e := spec.FirstEnum()
		for _, name := range strings.Fields(raw) {
			if e == nil || !e.IsDefined(name) {
				return nil, typeError(schema, "unknown bit: %q", name)
			}
			s.Bits = append(s.Bits, name)
		}

	case yang.Ydecimal64:
		fd := spec.FractionDigits
		if fd == 0 {
			fd = 1
		}
		num, err := yang.ParseDecimal(raw, uint8(fd))
		if err != nil {
			return nil, typeError(schema, "%v", err)
		}
		if r := spec.EffectiveRange(); !r.Accepts(num) {
			return nil, typeError(schema, "%q out of range %v", raw, r)
		}
		s.Number = num

	case yang.Yfloat64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, typeError(schema, "invalid float: %q", raw)
		}
		s.Float = f

	case yang.Yidentityref:
		id, err := resolveIdentity(schema, spec, raw)
		if err != nil {
			return nil, err
		}
		s.Identity = id
		s.Str = raw

	case yang.YinstanceIdentifier:
		// The path is validated against the tree at evaluation time;
		// construction only records it.
		s.Str = raw

	case yang.Yleafref:
		// A leafref value must be valid against the target's type.
		// Whether an instance exists is checked at evaluation time
		// per require-instance.
		if spec.Target != nil && spec.Target.Type != nil {
			ts, err := parseScalar(schema, spec.Target.Type, raw)
			if err != nil {
				return nil, err
			}
			ts.Kind = yang.Yleafref
			ts.Str = raw
			return ts, nil
		}
		s.Str = raw

	case yang.Yunion:
		var firstErr error
		for _, m := range spec.Type {
			ms, err := parseScalar(schema, m, raw)
			if err == nil {
				return ms, nil
			}
			if firstErr == nil {
				firstErr = err
			}
		}
		if firstErr == nil {
			firstErr = typeError(schema, "empty union")
		}
		return nil, firstErr

	default:
		if !spec.Kind.IsInteger() {
			return nil, typeError(schema, "unsupported type %v", spec.Kind)
		}
		num, err := yang.ParseInt(raw)
		if err != nil {
			return nil, typeError(schema, "%v", err)
		}
		r := spec.EffectiveRange()
		if !r.Accepts(num) {
			return nil, typeError(schema, "%q out of range %v", raw, r)
		}
		s.Number = num
	}

	return s, nil
}

// checkLength verifies a string or binary length restriction.
func checkLength(schema *yang.Obj, spec *yang.TypeSpec, n int) error {
	if len(spec.Length) == 0 {
		return nil
	}
	if !spec.Length.Accepts(yang.FromInt(int64(n))) {
		return typeError(schema, "length %d out of range %v", n, spec.Length)
	}
	return nil
}

// resolveIdentity resolves raw as a QName and verifies that it is
// transitively based on the identityref's base.
func resolveIdentity(schema *yang.Obj, spec *yang.TypeSpec, raw string) (*yang.Identity, error) {
	base := spec.IdentityBase
	if base == nil {
		return nil, typeError(schema, "identityref has no base")
	}
	mod := schema.Module
	if mod == nil || mod.Modules() == nil {
		return nil, typeError(schema, "identityref outside a registered module")
	}
	id, err := mod.Modules().FindIdentity(mod, raw)
	if err != nil {
		return nil, typeError(schema, "%v", err)
	}
	if !id.DerivedFrom(base) {
		return nil, typeError(schema, "identity %s is not derived from %s", raw, base.Name)
	}
	return id, nil
}

// FromXML builds a value tree from a simple XML rendering rooted at
// schema.  It exists for tests and tooling; production trees are built by
// the NETCONF layer.
func FromXML(schema *yang.Obj, data []byte) (*Node, error) {
	dec := newXMLDecoder(bytes.NewReader(data))
	return dec.decode(schema)
}
