// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"encoding/xml"

	"n0desplit.dev/xmppcore/internal/attr"
	"n0desplit.dev/xmppcore/internal/ns"
	"n0desplit.dev/xmppcore/jid"
	"n0desplit.dev/xmppcore/stream"
)

// bindResource sends the resource-binding <iq/> described in RFC 6120 §7.6
// and returns the server-assigned full JID. resource is a hint; the server
// may ignore it and assign its own.
func bindResource(codec *stream.Codec, resource string) (*jid.JID, error) {
	bind := &stream.Element{Name: xml.Name{Space: ns.Bind, Local: "bind"}}
	if resource != "" {
		bind.Children = append(bind.Children, stream.Node{Start: &stream.Element{
			Name:     xml.Name{Local: "resource"},
			Children: []stream.Node{{Text: resource}},
		}})
	}

	iq := &stream.Element{
		Name: xml.Name{Local: "iq"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "type"}, Value: "set"},
			{Name: xml.Name{Local: "id"}, Value: attr.RandomID()},
		},
		Children: []stream.Node{{Start: bind}},
	}
	if err := codec.Send(stream.StanzaPacket(iq)); err != nil {
		return nil, &Io{Err: err}
	}

	elem, err := nextStanza(codec)
	if err != nil {
		return nil, err
	}

	typ, _ := elem.Attribute("type")
	if elem.Name.Local != "iq" || typ != "result" {
		return nil, &ProtocolError{Condition: BindError}
	}

	for _, c := range elem.Children {
		if c.Start == nil || c.Start.Name.Local != "bind" || c.Start.Name.Space != ns.Bind {
			continue
		}
		for _, gc := range c.Start.Children {
			if gc.Start != nil && gc.Start.Name.Local == "jid" {
				boundJID, err := jid.Parse(gc.Start.Text())
				if err != nil {
					return nil, &ProtocolError{Condition: BindError, Err: err}
				}
				return boundJID, nil
			}
		}
	}
	return nil, &ProtocolError{Condition: BindError}
}
