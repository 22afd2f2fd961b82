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

package value

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/openconfig/yax/pkg/yang"
)

// xmlDecoder builds value trees from XML instance documents.  Element
// names are matched against schema children by local name; namespace
// declarations are not interpreted beyond that.
type xmlDecoder struct {
	d *xml.Decoder
}

func newXMLDecoder(r io.Reader) *xmlDecoder {
	return &xmlDecoder{d: xml.NewDecoder(r)}
}

// decode reads the document and returns the value tree rooted at the
// single top-level element, which must correspond to schema or one of its
// data children.
func (x *xmlDecoder) decode(schema *yang.Obj) (*Node, error) {
	for {
		tok, err := x.d.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("empty document")
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		root := schema
		if schema.Name != se.Name.Local {
			if c := schema.Child(nil, se.Name.Local, yang.MatchExact); c != nil {
				root = c
			} else {
				return nil, fmt.Errorf("element %s not found in schema %s", se.Name.Local, schema.Name)
			}
		}
		n, err := x.element(root, se)
		if err != nil {
			return nil, err
		}
		if root == schema {
			return n, nil
		}
		// The element instantiates a child of schema; wrap it in a
		// document root so absolute paths resolve above it.
		doc := New(schema)
		doc.Append(n)
		return doc, nil
	}
}

// element decodes one element and its subtree against schema.
func (x *xmlDecoder) element(schema *yang.Obj, se xml.StartElement) (*Node, error) {
	switch schema.Kind {
	case yang.ObjLeaf, yang.ObjLeafList:
		text, err := x.text(se)
		if err != nil {
			return nil, err
		}
		return NewLeaf(schema, strings.TrimSpace(text))
	}

	n := New(schema)
	n.Name = se.Name.Local
	for {
		tok, err := x.d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			cs := schema.Child(nil, t.Name.Local, yang.MatchExact)
			if cs == nil {
				return nil, fmt.Errorf("element %s not found under %s", t.Name.Local, schema.Name)
			}
			c, err := x.element(cs, t)
			if err != nil {
				return nil, err
			}
			n.Append(c)
		case xml.EndElement:
			return n, nil
		}
	}
}

// text collects the character data up to the matching end element.
func (x *xmlDecoder) text(se xml.StartElement) (string, error) {
	var b strings.Builder
	for {
		tok, err := x.d.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			return b.String(), nil
		case xml.StartElement:
			return "", fmt.Errorf("unexpected element %s inside leaf %s", t.Name.Local, se.Name.Local)
		}
	}
}
