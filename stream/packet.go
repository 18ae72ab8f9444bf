// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stream

import "encoding/xml"

// Kind discriminates the variants of a Packet.
type Kind int

// The four packet kinds of the stream model. A Codec's NextPacket yields
// KindStanza and KindText packets and at most one KindStreamEnd; the
// peer's opening tag is returned by Open as an Info rather than as a
// KindStreamStart packet, and Send does not accept KindStreamStart.
const (
	KindStreamStart Kind = iota
	KindStanza
	KindText
	KindStreamEnd
)

// String returns a human readable name for k, used in error messages and
// %v formatting.
func (k Kind) String() string {
	switch k {
	case KindStreamStart:
		return "stream-start"
	case KindStanza:
		return "stanza"
	case KindText:
		return "text"
	case KindStreamEnd:
		return "stream-end"
	default:
		return "unknown"
	}
}

// Packet is the tagged variant a Codec reads and writes. Only the field
// matching Kind is meaningful.
type Packet struct {
	Kind Kind

	// Attr holds the root attributes of the server's opening
	// <stream:stream> tag. Only set when Kind == KindStreamStart.
	Attr []xml.Attr

	// Elem holds a top-level stanza (or stream-negotiation element such as
	// <stream:features>). Only set when Kind == KindStanza.
	Elem *Element

	// CharData holds inter-stanza whitespace or text. Only set when
	// Kind == KindText.
	CharData string
}

// StreamStartPacket builds a KindStreamStart packet from the attributes of
// the peer's opening stream tag.
func StreamStartPacket(attr []xml.Attr) Packet {
	return Packet{Kind: KindStreamStart, Attr: attr}
}

// StanzaPacket builds a KindStanza packet wrapping elem.
func StanzaPacket(elem *Element) Packet {
	return Packet{Kind: KindStanza, Elem: elem}
}

// TextPacket builds a KindText packet from inter-stanza character data.
func TextPacket(s string) Packet {
	return Packet{Kind: KindText, CharData: s}
}

// EndPacket is the single KindStreamEnd packet value; a stream emits at
// most one of these and nothing follows it.
var EndPacket = Packet{Kind: KindStreamEnd}
