// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stream

import "encoding/xml"

// Node is one child of an Element: either another Element (Start non-nil)
// or a run of character data.
type Node struct {
	Start *Element
	Text  string
}

// Element is a namespace-aware XML element. It is the payload carried by a
// Stanza Packet and is deliberately payload-agnostic: nothing in this
// package knows what a <message/> or <iq/> is, only how to read and write
// generic XML trees. Payload-specific packages parse an Element into their
// own types and serialize back into one.
//
// Namespace prefixes are a wire detail only; two Elements with the same
// Name and Attr (ignoring prefixes) and equal children are the same
// Element as far as this package is concerned.
type Element struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []Node
}

// Attribute returns the value of the first attribute whose local name is
// local, whatever its namespace, and whether it was present.
func (e *Element) Attribute(local string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, a := range e.Attr {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// Text returns the concatenation of all top-level character data children,
// ignoring nested elements.
func (e *Element) Text() string {
	if e == nil {
		return ""
	}
	var s string
	for _, c := range e.Children {
		if c.Start == nil {
			s += c.Text
		}
	}
	return s
}

// Equal reports whether e and other have the same qualified name, the same
// attributes (order-independent, by qualified name), and equal children in
// order.
func (e *Element) Equal(other *Element) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.Name != other.Name {
		return false
	}
	if len(e.Attr) != len(other.Attr) {
		return false
	}
	for _, a := range e.Attr {
		v, ok := attrVal(other.Attr, a.Name)
		if !ok || v != a.Value {
			return false
		}
	}
	if len(e.Children) != len(other.Children) {
		return false
	}
	for i, c := range e.Children {
		o := other.Children[i]
		if (c.Start == nil) != (o.Start == nil) {
			return false
		}
		if c.Start != nil {
			if !c.Start.Equal(o.Start) {
				return false
			}
			continue
		}
		if c.Text != o.Text {
			return false
		}
	}
	return true
}

func attrVal(attrs []xml.Attr, name xml.Name) (string, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// UnmarshalXML reads a single element (and everything nested in it) into a
// tree of Elements and Nodes.
func (e *Element) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	e.Name = start.Name
	e.Attr = start.Attr
	e.Children = nil

	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child := &Element{}
			if err := child.UnmarshalXML(d, t); err != nil {
				return err
			}
			e.Children = append(e.Children, Node{Start: child})
		case xml.CharData:
			e.Children = append(e.Children, Node{Text: string(t)})
		case xml.EndElement:
			return nil
		}
	}
}

// MarshalXML writes the element tree, preserving attribute order and
// recursing into children.
func (e Element) MarshalXML(enc *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: e.Name, Attr: e.Attr}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, c := range e.Children {
		if c.Start != nil {
			if err := c.Start.MarshalXML(enc, xml.StartElement{}); err != nil {
				return err
			}
			continue
		}
		if err := enc.EncodeToken(xml.CharData(c.Text)); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}
