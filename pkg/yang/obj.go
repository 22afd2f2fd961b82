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

// This file contains the code that compiles an AST (Node) tree into an Obj
// tree.  The Obj tree, once fully resolved and expanded, is the product of
// this package: every type is bound, every grouping is cloned into place,
// and every augment is grafted onto its target.  Children are held in
// declaration order; the XPath axes depend on that order.

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/openconfig/yax/pkg/indent"
)

// An ObjKind is the kind of schema node an Obj is.
type ObjKind int

// Enumeration of the kinds of Obj.
const (
	ObjModule = ObjKind(iota)
	ObjContainer
	ObjLeaf
	ObjLeafList
	ObjList
	ObjChoice
	ObjCase
	ObjUses
	ObjAugment
	ObjRPC
	ObjInput
	ObjOutput
	ObjNotification
	ObjAnyXML
)

var objKindToName = map[ObjKind]string{
	ObjModule:       "module",
	ObjContainer:    "container",
	ObjLeaf:         "leaf",
	ObjLeafList:     "leaf-list",
	ObjList:         "list",
	ObjChoice:       "choice",
	ObjCase:         "case",
	ObjUses:         "uses",
	ObjAugment:      "augment",
	ObjRPC:          "rpc",
	ObjInput:        "input",
	ObjOutput:       "output",
	ObjNotification: "notification",
	ObjAnyXML:       "anyxml",
}

func (k ObjKind) String() string {
	if s := objKindToName[k]; s != "" {
		return s
	}
	return fmt.Sprintf("unknown-obj-%d", k)
}

// ObjFlags records structural facts about an Obj as a bit set.
type ObjFlags uint32

const (
	// FlagConfigSet is set when config was explicitly stated.
	FlagConfigSet = ObjFlags(1 << iota)
	// FlagConfig is the stated config value; meaningful only with
	// FlagConfigSet.
	FlagConfig
	// FlagMandatorySet is set when mandatory was explicitly stated.
	FlagMandatorySet
	// FlagMandatory is the stated mandatory value.
	FlagMandatory
	// FlagTopLevel marks an immediate child of a module.
	FlagTopLevel
	// FlagFromUses marks a node cloned into place by uses expansion.
	FlagFromUses
	// FlagFromAugment marks a node grafted into place by an augment.
	FlagFromAugment
	// FlagKeyLeaf marks a leaf named by its parent list's key.
	FlagKeyLeaf
	// FlagPresence marks a presence container.
	FlagPresence
	// FlagUserOrdered marks ordered-by user lists and leaf-lists.
	FlagUserOrdered
	// FlagHidden marks nodes hidden from the show views.
	FlagHidden
	// FlagPassword marks password leafs; show views obscure the value.
	FlagPassword
	// FlagSecure marks nodes whose values require privileged access.
	FlagSecure
	// FlagVerySecure marks nodes whose values are never displayed.
	FlagVerySecure
	// FlagXPathString marks string leafs holding an XPath expression.
	FlagXPathString
	// FlagSchemaInstanceString marks string leafs holding an
	// instance-identifier.
	FlagSchemaInstanceString
	// FlagBlockCreate blocks create operations on the node.
	FlagBlockCreate
	// FlagBlockUpdate blocks update operations on the node.
	FlagBlockUpdate
	// FlagBlockDelete blocks delete operations on the node.
	FlagBlockDelete
	// FlagDeleted marks a node removed by deviate not-supported.
	FlagDeleted
)

// An ExpandState tracks the progress of uses and augment processing.
// The only transitions are pending -> resolved -> expanded (uses) and
// pending -> resolved -> grafted (augment).  Errors leave the node
// pending and mark the module invalid.
type ExpandState int

// States of uses/augment expansion.
const (
	ExpandPending = ExpandState(iota)
	ExpandResolved
	ExpandExpanded
	ExpandGrafted
)

func (s ExpandState) String() string {
	switch s {
	case ExpandPending:
		return "pending"
	case ExpandResolved:
		return "resolved"
	case ExpandExpanded:
		return "expanded"
	case ExpandGrafted:
		return "grafted"
	default:
		return fmt.Sprintf("expand-%d", int(s))
	}
}

// A MustStmt is one compiled must constraint.
type MustStmt struct {
	Expr         string // the XPath expression text
	ErrorMessage string
	ErrorAppTag  string
	Node         Node // the AST must node, for positions
}

// An Obj represents a single schema node compiled from the AST.  A parent
// exclusively owns its children; the Parent pointer is a weak
// back-reference.  After Modules.Process returns the tree is frozen.
type Obj struct {
	Kind   ObjKind
	Name   string
	Parent *Obj    // weak
	Module *Module // defining module
	Node   Node    // the AST node this Obj was compiled from
	Flags  ObjFlags

	Description string
	Reference   string

	// Conditions stated directly on this node.
	When      string
	IfFeature []string
	Must      []*MustStmt

	// Inherited holds the uses and augment Objs whose when/if-feature
	// conditions apply to this clone.  The pointers are weak; the
	// conditions are deliberately not copied.
	Inherited []*Obj

	// CloneOf points at the grouping or augment source this node was
	// cloned from, for diagnostics only.  Weak.
	CloneOf *Obj

	// Meta holds the extension statements found on the node.
	Meta []*Statement

	// Leaf and leaf-list payload.
	Type    *TypeSpec
	Default string
	Units   string

	// List payload.
	Key         string
	Unique      []string
	MinElements uint64
	MaxElements uint64 // 0 means unbounded
	OrderedBy   string

	// Container payload.
	Presence string

	// Choice payload.
	DefaultCase string

	// Uses payload: the referenced grouping.
	GroupingRef string

	// Augment payload: the target path and its resolution.
	TargetPath string
	target     *Obj

	// state tracks uses/augment expansion.
	state ExpandState

	// RPC payload.
	Input  *Obj
	Output *Obj

	// Module payload: identities declared by the module.
	Identities []*Identity

	children []*Obj
	Errors   []error
}

// errorf appends the error constructed from format and v to the errors on o.
func (o *Obj) errorf(format string, v ...interface{}) {
	o.Errors = append(o.Errors, fmt.Errorf(format, v...))
}

// addError appends err to the list of errors on o if err is not nil.
func (o *Obj) addError(err error) {
	if err != nil {
		o.Errors = append(o.Errors, err)
	}
}

// allErrors collects the errors found in o and its descendants, dropping
// duplicates and sorting by source position.
func (o *Obj) allErrors() []error {
	seen := map[string]bool{}
	var errs []error
	var walk func(*Obj)
	walk = func(o *Obj) {
		for _, err := range o.Errors {
			if !seen[err.Error()] {
				seen[err.Error()] = true
				errs = append(errs, err)
			}
		}
		for _, c := range o.children {
			walk(c)
		}
		if o.Input != nil {
			walk(o.Input)
		}
		if o.Output != nil {
			walk(o.Output)
		}
	}
	walk(o)
	return errorSort(errs)
}

// Children returns o's children in declaration order.  The returned slice
// is owned by o and must not be modified.
func (o *Obj) Children() []*Obj { return o.children }

// append adds child c to o, establishing the parent link.
func (o *Obj) append(c *Obj) {
	c.Parent = o
	o.children = append(o.children, c)
}

// insertAt inserts c into o's children at index i.
func (o *Obj) insertAt(i int, c *Obj) {
	c.Parent = o
	o.children = append(o.children, nil)
	copy(o.children[i+1:], o.children[i:])
	o.children[i] = c
}

// IsData reports whether o appears in the data tree.  Uses and augment
// nodes are bookkeeping; choice and case nodes are schema-only and
// transparent in the data tree.
func (o *Obj) IsData() bool {
	switch o.Kind {
	case ObjUses, ObjAugment, ObjChoice, ObjCase:
		return false
	}
	return !o.HasFlag(FlagDeleted)
}

// HasFlag reports whether all bits of f are set on o.
func (o *Obj) HasFlag(f ObjFlags) bool { return o.Flags&f == f }

// setFlag sets the bits of f on o.
func (o *Obj) setFlag(f ObjFlags) { o.Flags |= f }

// IsConfig reports whether o represents configuration.  An unstated config
// inherits from the parent; output subtrees are always state; the default
// at the top of the tree is true.
func (o *Obj) IsConfig() bool {
	switch {
	case o == nil:
		return true
	case o.Kind == ObjOutput, o.Kind == ObjNotification:
		return false
	case o.HasFlag(FlagConfigSet):
		return o.HasFlag(FlagConfig)
	default:
		return o.Parent.IsConfig()
	}
}

// Mandatory reports whether o is mandatory: a leaf or anyxml with its own
// mandatory set, a list or leaf-list with min-elements >= 1, a choice that
// is itself marked mandatory and whose every case has a mandatory child, or
// a non-presence container with a mandatory data child.  A when condition
// downgrades mandatory to conditional (reported false here).
func (o *Obj) Mandatory() bool {
	if o.When != "" {
		return false
	}
	switch o.Kind {
	case ObjLeaf, ObjAnyXML:
		return o.HasFlag(FlagMandatory)
	case ObjList, ObjLeafList:
		return o.MinElements >= 1
	case ObjChoice:
		if !o.HasFlag(FlagMandatory) {
			return false
		}
		for _, c := range o.children {
			mandatory := false
			for _, cc := range c.children {
				if cc.Mandatory() {
					mandatory = true
					break
				}
			}
			if !mandatory {
				return false
			}
		}
		return true
	case ObjContainer:
		if o.Presence != "" {
			return false
		}
		for _, c := range o.DataChildren() {
			if c.Mandatory() {
				return true
			}
		}
	}
	return false
}

// DataChildren returns the data-tree children of o in declaration order.
// Choice and case layers are flattened; uses and augment bookkeeping nodes
// and deleted nodes are skipped.
func (o *Obj) DataChildren() []*Obj {
	var out []*Obj
	for _, c := range o.children {
		switch c.Kind {
		case ObjUses, ObjAugment:
		case ObjChoice, ObjCase:
			out = append(out, c.DataChildren()...)
		default:
			if !c.HasFlag(FlagDeleted) {
				out = append(out, c)
			}
		}
	}
	return out
}

// A NameMatch selects how Child matches names.
type NameMatch int

const (
	// MatchExact requires an exact name match.
	MatchExact = NameMatch(iota)
	// MatchCaseInsensitive matches names ignoring ASCII case.
	MatchCaseInsensitive
	// MatchAltName also matches the argument of an alt-name extension
	// on the child.
	MatchAltName
)

// altName returns the argument of an alt-name extension on o, or "".
func (o *Obj) altName() string {
	for _, ext := range o.Meta {
		parts := strings.SplitN(ext.Keyword, ":", 2)
		if len(parts) == 2 && parts[1] == "alt-name" {
			return ext.Argument
		}
	}
	return ""
}

// nameMatches reports whether o's name (or alt-name) matches name under
// mode.
func (o *Obj) nameMatches(name string, mode NameMatch) bool {
	switch mode {
	case MatchCaseInsensitive:
		if strings.EqualFold(o.Name, name) {
			return true
		}
	case MatchAltName:
		if o.Name == name || o.altName() == name {
			return true
		}
	default:
		if o.Name == name {
			return true
		}
	}
	return false
}

// Child returns the data child of o named name in module mod, or nil.  A
// nil mod matches any module.  Mode selects the name-match behavior.
func (o *Obj) Child(mod *Module, name string, mode NameMatch) *Obj {
	for _, c := range o.DataChildren() {
		if mod != nil && module(c.Node) != nil && module(c.Node) != mod {
			continue
		}
		if c.nameMatches(name, mode) {
			return c
		}
	}
	return nil
}

// ChildAll is Child over all children including choice and case layers.
func (o *Obj) ChildAll(name string, mode NameMatch) *Obj {
	for _, c := range o.children {
		if c.nameMatches(name, mode) {
			return c
		}
	}
	return nil
}

// WalkDescendants calls fn for each data descendant of o in document
// (declaration) order, o excluded.  If fn returns false the walk stops.
func (o *Obj) WalkDescendants(fn func(*Obj) bool) bool {
	for _, c := range o.DataChildren() {
		if !fn(c) {
			return false
		}
		if !c.WalkDescendants(fn) {
			return false
		}
	}
	if o.Input != nil && !fn(o.Input) {
		return false
	}
	if o.Input != nil && !o.Input.WalkDescendants(fn) {
		return false
	}
	if o.Output != nil && !fn(o.Output) {
		return false
	}
	if o.Output != nil && !o.Output.WalkDescendants(fn) {
		return false
	}
	return true
}

// WalkAncestors calls fn for each ancestor of o, nearest first, stopping
// when fn returns false or the module root is reached.
func (o *Obj) WalkAncestors(fn func(*Obj) bool) {
	for p := o.Parent; p != nil; p = p.Parent {
		if !fn(p) {
			return
		}
	}
}

// DataParent returns the nearest ancestor of o that is a data node,
// skipping choice and case layers.
func (o *Obj) DataParent() *Obj {
	for p := o.Parent; p != nil; p = p.Parent {
		switch p.Kind {
		case ObjChoice, ObjCase:
		default:
			return p
		}
	}
	return nil
}

// Root returns the module-level ancestor of o.
func (o *Obj) Root() *Obj {
	for ; o.Parent != nil; o = o.Parent {
	}
	return o
}

// WalkKeys invokes fn once per key leaf, in key-statement order, for every
// list on the path from the root down to and including o.  It stops early
// if fn returns false.
func (o *Obj) WalkKeys(fn func(*Obj) bool) {
	var lists []*Obj
	for p := o; p != nil; p = p.Parent {
		if p.Kind == ObjList {
			lists = append(lists, p)
		}
	}
	// Outermost list first.
	for i := len(lists) - 1; i >= 0; i-- {
		l := lists[i]
		for _, k := range strings.Fields(l.Key) {
			kc := l.Child(nil, k, MatchExact)
			if kc == nil {
				continue
			}
			if !fn(kc) {
				return
			}
		}
	}
}

// Path returns the slash-separated schema path of o from the module root.
func (o *Obj) Path() string {
	if o == nil || o.Kind == ObjModule {
		return ""
	}
	return o.Parent.Path() + "/" + o.Name
}

// QualifiedPath returns o's path with each step prefixed by its defining
// module's name.
func (o *Obj) QualifiedPath() string {
	if o == nil || o.Kind == ObjModule {
		return ""
	}
	name := o.Name
	if m := module(o.Node); m != nil {
		name = m.Name + ":" + name
	}
	return o.Parent.QualifiedPath() + "/" + name
}

// Print writes a tree rendering of o to w.
func (o *Obj) Print(w io.Writer) {
	if o.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(indent.NewWriter(w, "// "), o.Description)
	}
	if o.IsConfig() {
		fmt.Fprintf(w, "rw: ")
	} else {
		fmt.Fprintf(w, "RO: ")
	}
	if o.Type != nil {
		fmt.Fprintf(w, "%s ", o.Type.Name)
	}
	switch o.Kind {
	case ObjLeafList:
		fmt.Fprintf(w, "[]%s\n", o.Name)
		return
	case ObjLeaf, ObjAnyXML:
		fmt.Fprintf(w, "%s\n", o.Name)
		return
	case ObjList:
		fmt.Fprintf(w, "[%s]%s {\n", o.Key, o.Name) //}
	default:
		fmt.Fprintf(w, "%s {\n", o.Name) //}
	}
	for _, c := range o.DataChildren() {
		c.Print(indent.NewWriter(w, "  "))
	}
	// { to keep brace matching working
	fmt.Fprintln(w, "}")
}

// newObj returns an Obj of kind k compiled from n in module mod.
func newObj(k ObjKind, n Node, mod *Module) *Obj {
	return &Obj{
		Kind:   k,
		Name:   n.NName(),
		Node:   n,
		Module: mod,
		Meta:   n.Exts(),
	}
}

// sortNodesBySource orders ns by source position so that children appear
// in declaration order even though the AST groups them by keyword.
func sortNodesBySource(ns []Node) {
	sort.SliceStable(ns, func(i, j int) bool {
		fi, li, ci := ns[i].Statement().Pos()
		fj, lj, cj := ns[j].Statement().Pos()
		if fi != fj {
			return fi < fj
		}
		if li != lj {
			return li < lj
		}
		return ci < cj
	})
}

// dataDefNodes returns the data-definition AST children of n in
// declaration order.
func dataDefNodes(n Node) []Node {
	var ns []Node
	forEachChildNode(n, func(c Node) {
		switch c.(type) {
		case *Container, *Leaf, *LeafList, *List, *Choice, *Case, *AnyXML, *Uses:
			ns = append(ns, c)
		}
	})
	sortNodesBySource(ns)
	return ns
}

// buildMust compiles the must substatements of the AST node.
func buildMust(musts []*Must) []*MustStmt {
	var out []*MustStmt
	for _, m := range musts {
		out = append(out, &MustStmt{
			Expr:         m.Name,
			ErrorMessage: m.ErrorMessage.asString(),
			ErrorAppTag:  m.ErrorAppTag.asString(),
			Node:         m,
		})
	}
	return out
}

// setConfig records an explicit config statement on o.
func (o *Obj) setConfig(v *Value) {
	b, err := v.asBool()
	if v == nil {
		return
	}
	if err != nil {
		o.addError(fmt.Errorf("%s: %v", Source(o.Node), err))
		return
	}
	o.setFlag(FlagConfigSet)
	if b {
		o.setFlag(FlagConfig)
	}
}

// setMandatory records an explicit mandatory statement on o.
func (o *Obj) setMandatory(v *Value) {
	b, err := v.asBool()
	if v == nil {
		return
	}
	if err != nil {
		o.addError(fmt.Errorf("%s: %v", Source(o.Node), err))
		return
	}
	o.setFlag(FlagMandatorySet)
	if b {
		o.setFlag(FlagMandatory)
	}
}

// setIfFeature records if-feature statements on o.
func (o *Obj) setIfFeature(vs []*Value) {
	for _, v := range vs {
		o.IfFeature = append(o.IfFeature, v.Name)
	}
}

// setListAttrs records min-elements, max-elements and ordered-by.
func (o *Obj) setListAttrs(min, max, orderedBy *Value) {
	if min != nil {
		if n, err := strconv.ParseUint(min.Name, 10, 64); err == nil {
			o.MinElements = n
		} else {
			o.errorf("%s: bad min-elements: %v", Source(o.Node), err)
		}
	}
	if max != nil && max.Name != "unbounded" {
		if n, err := strconv.ParseUint(max.Name, 10, 64); err == nil {
			o.MaxElements = n
		} else {
			o.errorf("%s: bad max-elements: %v", Source(o.Node), err)
		}
	}
	if orderedBy != nil {
		o.OrderedBy = orderedBy.Name
		if orderedBy.Name == "user" {
			o.setFlag(FlagUserOrdered)
		}
	}
}

// appinfoFlags maps appinfo extension identifiers to the Obj flag they
// set.  The extension prefix is not checked; these identifiers are
// treated as reserved.
var appinfoFlags = map[string]ObjFlags{
	"hidden":       FlagHidden,
	"password":     FlagPassword,
	"secure":       FlagSecure,
	"very-secure":  FlagVerySecure,
	"xpath":        FlagXPathString,
	"block-create": FlagBlockCreate,
	"block-update": FlagBlockUpdate,
	"block-delete": FlagBlockDelete,
}

// setAppinfoFlags sets flags derived from appinfo extensions on o.
func (o *Obj) setAppinfoFlags() {
	for _, ext := range o.Meta {
		parts := strings.SplitN(ext.Keyword, ":", 2)
		if len(parts) != 2 {
			continue
		}
		if f, ok := appinfoFlags[parts[1]]; ok {
			o.setFlag(f)
		}
	}
}

// buildObj compiles the AST node n into an Obj with mod as its defining
// module.  td resolves types.  Children are compiled recursively in
// declaration order.
func buildObj(n Node, mod *Module, td *typeDictionary) *Obj {
	var o *Obj

	switch s := n.(type) {
	case *Leaf:
		o = newObj(ObjLeaf, n, mod)
		if errs := s.Type.resolve(td); len(errs) > 0 {
			o.Errors = append(o.Errors, errs...)
		}
		o.Type = s.Type.Spec
		o.Description = s.Description.asString()
		o.Reference = s.Reference.asString()
		o.Default = s.Default.asString()
		o.Units = s.Units.asString()
		o.When = s.When.asString()
		o.Must = buildMust(s.Must)
		o.setConfig(s.Config)
		o.setMandatory(s.Mandatory)
		o.setIfFeature(s.IfFeature)
		if o.Type != nil {
			if o.Default == "" {
				o.Default = o.Type.Default
			}
			if o.Units == "" {
				o.Units = o.Type.Units
			}
			switch o.Type.Kind {
			case YinstanceIdentifier:
				o.setFlag(FlagSchemaInstanceString)
			}
		}

	case *LeafList:
		o = newObj(ObjLeafList, n, mod)
		if errs := s.Type.resolve(td); len(errs) > 0 {
			o.Errors = append(o.Errors, errs...)
		}
		o.Type = s.Type.Spec
		o.Description = s.Description.asString()
		o.Reference = s.Reference.asString()
		o.Units = s.Units.asString()
		o.When = s.When.asString()
		o.Must = buildMust(s.Must)
		o.setConfig(s.Config)
		o.setIfFeature(s.IfFeature)
		o.setListAttrs(s.MinElements, s.MaxElements, s.OrderedBy)

	case *Container:
		o = newObj(ObjContainer, n, mod)
		o.Description = s.Description.asString()
		o.Reference = s.Reference.asString()
		o.When = s.When.asString()
		o.Must = buildMust(s.Must)
		o.Presence = s.Presence.asString()
		if o.Presence != "" {
			o.setFlag(FlagPresence)
		}
		o.setConfig(s.Config)
		o.setIfFeature(s.IfFeature)

	case *List:
		o = newObj(ObjList, n, mod)
		o.Description = s.Description.asString()
		o.Reference = s.Reference.asString()
		o.When = s.When.asString()
		o.Must = buildMust(s.Must)
		o.Key = s.Key.asString()
		for _, u := range s.Unique {
			o.Unique = append(o.Unique, u.Name)
		}
		o.setConfig(s.Config)
		o.setIfFeature(s.IfFeature)
		o.setListAttrs(s.MinElements, s.MaxElements, s.OrderedBy)

	case *Choice:
		o = newObj(ObjChoice, n, mod)
		o.Description = s.Description.asString()
		o.When = s.When.asString()
		o.DefaultCase = s.Default.asString()
		o.setConfig(s.Config)
		o.setMandatory(s.Mandatory)
		o.setIfFeature(s.IfFeature)

	case *Case:
		o = newObj(ObjCase, n, mod)
		o.Description = s.Description.asString()
		o.When = s.When.asString()
		o.setIfFeature(s.IfFeature)

	case *AnyXML:
		o = newObj(ObjAnyXML, n, mod)
		o.Description = s.Description.asString()
		o.When = s.When.asString()
		o.Must = buildMust(s.Must)
		o.setConfig(s.Config)
		o.setMandatory(s.Mandatory)
		o.setIfFeature(s.IfFeature)

	case *Uses:
		o = newObj(ObjUses, n, mod)
		o.GroupingRef = s.Name
		o.When = s.When.asString()
		o.setIfFeature(s.IfFeature)

	case *RPC:
		o = newObj(ObjRPC, n, mod)
		o.Description = s.Description.asString()
		o.setIfFeature(s.IfFeature)
		if s.Input != nil {
			o.Input = buildObj(s.Input, mod, td)
			o.Input.Parent = o
		}
		if s.Output != nil {
			o.Output = buildObj(s.Output, mod, td)
			o.Output.Parent = o
		}
		return o

	case *Input:
		o = newObj(ObjInput, n, mod)
		o.Name = "input"
	case *Output:
		o = newObj(ObjOutput, n, mod)
		o.Name = "output"

	case *Notification:
		o = newObj(ObjNotification, n, mod)
		o.Description = s.Description.asString()
		o.setIfFeature(s.IfFeature)

	case *Augment:
		o = newObj(ObjAugment, n, mod)
		o.TargetPath = s.Name
		o.When = s.When.asString()
		o.setIfFeature(s.IfFeature)

	default:
		o = &Obj{Name: n.NName(), Node: n, Module: mod}
		o.errorf("%s: %T cannot be compiled to a schema object", Source(n), n)
		return o
	}

	o.setAppinfoFlags()

	for _, c := range dataDefNodes(n) {
		o.append(buildObj(c, mod, td))
	}

	return o
}

// markKeys flags the key leafs of every list under o.  It runs after
// uses expansion so keys contributed by groupings are visible.
func (o *Obj) markKeys() {
	if o.Kind == ObjList {
		for _, k := range strings.Fields(o.Key) {
			if kc := o.Child(nil, k, MatchExact); kc != nil && kc.Kind == ObjLeaf {
				kc.setFlag(FlagKeyLeaf)
			} else {
				o.errorf("%s: list %s: no such key leaf: %s", Source(o.Node), o.Name, k)
			}
		}
	}
	for _, c := range o.children {
		c.markKeys()
	}
	if o.Input != nil {
		o.Input.markKeys()
	}
	if o.Output != nil {
		o.Output.markKeys()
	}
}

// compileModule compiles mod's AST into the module-level Obj, including
// rpcs, notifications and augments.  The returned tree has not yet had
// uses expanded or augments grafted.
func compileModule(mod *Module, td *typeDictionary) *Obj {
	o := newObj(ObjModule, mod, mod)
	o.Description = mod.Description.asString()
	o.Identities = mod.Identity

	var tops []Node
	forEachChildNode(mod, func(c Node) {
		switch c.(type) {
		case *Container, *Leaf, *LeafList, *List, *Choice, *AnyXML, *Uses,
			*RPC, *Notification, *Augment:
			tops = append(tops, c)
		}
	})
	sortNodesBySource(tops)

	for _, n := range tops {
		c := buildObj(n, mod, td)
		c.setFlag(FlagTopLevel)
		o.append(c)
	}
	return o
}

// insertCases wraps bare data nodes inside a choice with an implicit case
// of the same name, so that every choice child is a case.
func (o *Obj) insertCases() {
	if o.Kind == ObjChoice {
		for i, c := range o.children {
			if c.Kind == ObjCase || c.Kind == ObjUses {
				continue
			}
			ce := &Obj{
				Kind:   ObjCase,
				Name:   c.Name,
				Node:   c.Node,
				Module: c.Module,
				Parent: o,
				Flags:  c.Flags & (FlagFromUses | FlagFromAugment),
			}
			ce.children = []*Obj{c}
			c.Parent = ce
			o.children[i] = ce
		}
	}
	for _, c := range o.children {
		c.insertCases()
	}
	if o.Input != nil {
		o.Input.insertCases()
	}
	if o.Output != nil {
		o.Output.insertCases()
	}
}

// clone returns a deep copy of o with parent p.  The copy records o as its
// clone source and carries flag extra.
func (o *Obj) clone(p *Obj, extra ObjFlags) *Obj {
	no := *o
	no.Parent = p
	no.Flags |= extra
	no.CloneOf = o
	no.Inherited = append([]*Obj(nil), o.Inherited...)
	no.children = make([]*Obj, len(o.children))
	for i, c := range o.children {
		no.children[i] = c.clone(&no, extra)
	}
	if o.Input != nil {
		no.Input = o.Input.clone(&no, extra)
	}
	if o.Output != nil {
		no.Output = o.Output.clone(&no, extra)
	}
	return &no
}

// inherit attaches cond as an inherited condition to every node in the
// subtree rooted at o.
func (o *Obj) inherit(cond *Obj) {
	o.Inherited = append(o.Inherited, cond)
	for _, c := range o.children {
		c.inherit(cond)
	}
}

// applyRefine applies the refine statements of u to the freshly cloned
// children cs (keyed by path relative to the uses node).
func applyRefine(u *Uses, cs []*Obj) {
	for _, r := range u.Refine {
		target := findRelative(cs, r.Name)
		if target == nil {
			continue
		}
		if r.Description != nil {
			target.Description = r.Description.Name
		}
		if r.Default != nil {
			target.Default = r.Default.Name
		}
		if r.Presence != nil {
			target.Presence = r.Presence.Name
			target.setFlag(FlagPresence)
		}
		target.setConfig(r.Config)
		target.setMandatory(r.Mandatory)
		if len(r.Must) > 0 {
			target.Must = append(target.Must, buildMust(r.Must)...)
		}
		target.setListAttrs(r.MinElements, r.MaxElements, nil)
	}
}

// findRelative finds the node named by the /-separated path among cs and
// their descendants.
func findRelative(cs []*Obj, path string) *Obj {
	parts := strings.Split(path, "/")
	cur := cs
	var found *Obj
	for _, part := range parts {
		_, name := getPrefix(part)
		found = nil
		for _, c := range cur {
			if c.Name == name {
				found = c
				break
			}
		}
		if found == nil {
			return nil
		}
		cur = found.children
	}
	return found
}

// groupingTrees caches compiled grouping subtrees so that every uses of
// the same grouping clones from one source, giving the clones a common
// CloneOf ancestor for diagnostics.
type groupingTrees struct {
	trees    map[*Grouping]*Obj
	building map[*Grouping]bool
}

// tree returns the compiled subtree for g, building it on first use.  A
// recursive uses chain is reported as an error on the returned node.
func (gt *groupingTrees) tree(g *Grouping, mod *Module, td *typeDictionary, ms *Modules) *Obj {
	if o := gt.trees[g]; o != nil {
		return o
	}
	if gt.building[g] {
		o := &Obj{Name: g.Name, Node: g, Module: mod}
		o.errorf("%s: grouping loop detected for %s", Source(g), g.Name)
		return o
	}
	gt.building[g] = true
	defer delete(gt.building, g)

	root := module(g)
	if root == nil {
		root = mod
	}
	o := newObj(ObjContainer, g, root)
	for _, c := range dataDefNodes(g) {
		o.append(buildObj(c, root, td))
	}
	// Groupings may contain uses themselves; expand them before the
	// tree is cloned anywhere.
	ms.expandUses(o, td, gt)
	gt.trees[g] = o
	return o
}

// expandUses resolves and expands every uses node under o.  Clones are
// inserted at the position of the uses node, with the uses node retained
// for bookkeeping.  The uses node's when/if-feature conditions become
// inherited conditions on each clone.
func (ms *Modules) expandUses(o *Obj, td *typeDictionary, gt *groupingTrees) {
	for i := 0; i < len(o.children); i++ {
		c := o.children[i]
		if c.Kind != ObjUses {
			ms.expandUses(c, td, gt)
			if c.Input != nil {
				ms.expandUses(c.Input, td, gt)
			}
			if c.Output != nil {
				ms.expandUses(c.Output, td, gt)
			}
			continue
		}
		if c.state == ExpandExpanded {
			continue
		}

		u := c.Node.(*Uses)
		g := FindGrouping(u, c.GroupingRef, map[string]bool{})
		if g == nil {
			c.errorf("%s: unknown grouping: %s", Source(u), c.GroupingRef)
			continue
		}
		c.state = ExpandResolved

		gtree := gt.tree(g, c.Module, td, ms)
		if len(gtree.Errors) > 0 {
			c.Errors = append(c.Errors, gtree.Errors...)
			c.state = ExpandPending
			continue
		}

		var clones []*Obj
		at := i + 1
		for _, gc := range gtree.children {
			nc := gc.clone(o, FlagFromUses)
			if c.When != "" || len(c.IfFeature) > 0 {
				nc.inherit(c)
			}
			clones = append(clones, nc)
			o.insertAt(at, nc)
			at++
		}
		applyRefine(u, clones)
		c.state = ExpandExpanded
	}
}

// augment grafts the module's pending augments whose targets resolve.  It
// returns the number processed and the number skipped.  When addErrors is
// set, unresolved targets are reported as errors on the augment node.
func (ms *Modules) augment(root *Obj, addErrors bool) (processed, skipped int) {
	for _, a := range root.children {
		if a.Kind != ObjAugment || a.state == ExpandGrafted {
			continue
		}
		target := ms.findObjPath(root, a.TargetPath)
		if target == nil {
			if addErrors {
				a.errorf("%s: augment target not found: %s", Source(a.Node), a.TargetPath)
			}
			skipped++
			continue
		}
		a.target = target
		a.state = ExpandResolved

		for _, c := range a.children {
			if dup := target.ChildAll(c.Name, MatchExact); dup != nil {
				a.errorf("%s: augment of %s: duplicate node %s", Source(a.Node), a.TargetPath, c.Name)
				continue
			}
			nc := c.clone(target, FlagFromAugment)
			if a.When != "" || len(a.IfFeature) > 0 {
				nc.inherit(a)
			}
			target.append(nc)
		}
		a.state = ExpandGrafted
		processed++
	}
	return processed, skipped
}

// findObjPath resolves an absolute schema path such as /p:a/p:b starting
// from root's module set.  Prefixes resolve against the module that
// declared the path.
func (ms *Modules) findObjPath(root *Obj, path string) *Obj {
	if !strings.HasPrefix(path, "/") {
		return nil
	}
	mod := root.Module
	cur := root
	for _, part := range strings.Split(path[1:], "/") {
		if part == "" {
			return nil
		}
		prefix, name := getPrefix(part)
		cmod := mod
		if prefix != "" {
			cmod = FindModuleByPrefix(mod, prefix)
			if cmod == nil {
				return nil
			}
		}
		if cur == root && cmod != nil && cmod != mod {
			// The path roots in another module's tree.
			other := ms.objFor(cmod)
			if other == nil {
				return nil
			}
			cur = other
		}
		var next *Obj
		for _, c := range cur.children {
			if c.Kind == ObjUses || c.Kind == ObjAugment || c.HasFlag(FlagDeleted) {
				continue
			}
			if c.Name == name {
				next = c
				break
			}
		}
		if next == nil && cur.Kind == ObjRPC {
			switch name {
			case "input":
				next = cur.Input
			case "output":
				next = cur.Output
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// resolveLeafrefs binds every leafref type under o to its target.  The
// target must be a leaf or leaf-list; the leafref's effective type is the
// target's effective type.
func (ms *Modules) resolveLeafrefs(o *Obj) {
	for _, c := range o.children {
		ms.resolveLeafrefs(c)
	}
	if o.Input != nil {
		ms.resolveLeafrefs(o.Input)
	}
	if o.Output != nil {
		ms.resolveLeafrefs(o.Output)
	}

	if o.Type == nil || o.Type.Kind != Yleafref {
		return
	}
	if o.Type.Path == "" {
		o.errorf("%s: leafref %s requires a path", Source(o.Node), o.Name)
		return
	}
	target := ms.resolveLeafrefPath(o, o.Type.Path)
	if target == nil {
		o.errorf("%s: leafref %s: cannot resolve path %s", Source(o.Node), o.Name, o.Type.Path)
		return
	}
	if target.Kind != ObjLeaf && target.Kind != ObjLeafList {
		o.errorf("%s: leafref %s: target %s is a %v, not a leaf or leaf-list", Source(o.Node), o.Name, o.Type.Path, target.Kind)
		return
	}
	// Bind on a copy so that other users of a shared typedef spec do
	// not see this leaf's target.
	spec := *o.Type
	spec.Target = target
	o.Type = &spec
}

// stripPredicates removes [...] predicate blocks from a leafref path.
// Predicate key expressions do not affect which schema node the path
// names.
func stripPredicates(path string) string {
	if !strings.Contains(path, "[") {
		return path
	}
	var b strings.Builder
	depth := 0
	for _, r := range path {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// resolveLeafrefPath resolves a leafref path expression.  A relative path
// starts at o itself, so its first ".." steps to o's data parent.
func (ms *Modules) resolveLeafrefPath(o *Obj, path string) *Obj {
	path = stripPredicates(path)
	mod := module(o.Node)
	if mod == nil {
		mod = o.Module
	}

	var cur *Obj
	parts := strings.Split(path, "/")
	if strings.HasPrefix(path, "/") {
		cur = o.Root()
		parts = parts[1:]
		if len(parts) > 0 {
			if prefix, _ := getPrefix(parts[0]); prefix != "" {
				if m := FindModuleByPrefix(mod, prefix); m != nil {
					if r := ms.objFor(m); r != nil {
						cur = r
					}
				}
			}
		}
	} else {
		// A relative path is evaluated with the leaf as context.
		cur = o
	}

	for _, part := range parts {
		switch {
		case cur == nil:
			return nil
		case part == "", part == ".":
		case part == "..":
			cur = cur.DataParent()
		default:
			_, name := getPrefix(part)
			cur = cur.Child(nil, name, MatchExact)
		}
	}
	return cur
}

// errorSort sorts errs by their file:line:col prefix, numerically on line
// and column, dropping duplicates.
func errorSort(errs []error) []error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs
	}
	sort.SliceStable(errs, func(i, j int) bool {
		return errLess(errs[i].Error(), errs[j].Error())
	})
	out := errs[:1]
	for _, err := range errs[1:] {
		if err.Error() != out[len(out)-1].Error() {
			out = append(out, err)
		}
	}
	return out
}

// errLess compares two error strings of the form file:line:col: text,
// comparing line and column numerically when present.
func errLess(a, b string) bool {
	fa := strings.SplitN(a, ":", 4)
	fb := strings.SplitN(b, ":", 4)
	if fa[0] != fb[0] {
		return fa[0] < fb[0]
	}
	for x := 1; x < 3 && x < len(fa) && x < len(fb); x++ {
		na, ea := strconv.Atoi(fa[x])
		nb, eb := strconv.Atoi(fb[x])
		switch {
		case ea == nil && eb == nil:
			if na != nb {
				return na < nb
			}
		case fa[x] != fb[x]:
			return fa[x] < fb[x]
		}
	}
	return a < b
}
