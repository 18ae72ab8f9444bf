// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stream

import (
	"encoding/xml"

	"n0desplit.dev/xmppcore/internal/ns"
)

// Features is a snapshot of the capabilities a server advertised in a
// <stream:features/> element.
type Features struct {
	CanStartTLS      bool
	StartTLSRequired bool
	Mechanisms       []string
	BindSupported    bool
	SessionSupported bool
}

// FeaturesFromStanza extracts a Features snapshot from a decoded Stanza
// Element. It returns the zero Features if elem is not a
// <stream:features/> element.
func FeaturesFromStanza(elem *Element) Features {
	var f Features
	if elem == nil || elem.Name.Local != "features" || elem.Name.Space != ns.Stream {
		return f
	}
	for _, c := range elem.Children {
		child := c.Start
		if child == nil {
			continue
		}
		switch {
		case child.Name.Local == "starttls" && child.Name.Space == ns.StartTLS:
			f.CanStartTLS = true
			for _, gc := range child.Children {
				if gc.Start != nil && gc.Start.Name.Local == "required" {
					f.StartTLSRequired = true
				}
			}
		case child.Name.Local == "mechanisms" && child.Name.Space == ns.SASL:
			for _, gc := range child.Children {
				if gc.Start != nil && gc.Start.Name.Local == "mechanism" {
					f.Mechanisms = append(f.Mechanisms, gc.Start.Text())
				}
			}
		case child.Name.Local == "bind" && child.Name.Space == ns.Bind:
			f.BindSupported = true
		case child.Name.Local == "session" && child.Name.Space == ns.Session:
			f.SessionSupported = true
		}
	}
	return f
}

// UnmarshalXML allows Features to be decoded directly from a
// <stream:features/> token stream, without going through an Element first.
func (f *Features) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	elem := &Element{}
	if err := elem.UnmarshalXML(d, start); err != nil {
		return err
	}
	*f = FeaturesFromStanza(elem)
	return nil
}
