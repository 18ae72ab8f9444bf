// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stream_test

import (
	"encoding/xml"
	"strings"
	"testing"

	"n0desplit.dev/xmppcore/stream"
)

func decodeElement(t *testing.T, s string) *stream.Element {
	t.Helper()
	d := xml.NewDecoder(strings.NewReader(s))
	tok, err := d.Token()
	if err != nil {
		t.Fatal(err)
	}
	start, ok := tok.(xml.StartElement)
	if !ok {
		t.Fatalf("expected a start element, got %T", tok)
	}
	e := &stream.Element{}
	if err := e.UnmarshalXML(d, start); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestElementRoundTrip(t *testing.T) {
	const in = `<message to="a@b" type="chat"><body>hi</body></message>`
	e := decodeElement(t, in)

	if e.Name.Local != "message" {
		t.Fatalf("got name %q, want message", e.Name.Local)
	}
	to, ok := e.Attribute("to")
	if !ok || to != "a@b" {
		t.Fatalf("got to=%q ok=%v, want a@b", to, ok)
	}
	if len(e.Children) != 1 || e.Children[0].Start == nil {
		t.Fatalf("expected a single child element, got %+v", e.Children)
	}
	if body := e.Children[0].Start.Text(); body != "hi" {
		t.Fatalf("got body text %q, want hi", body)
	}

	var buf strings.Builder
	enc := xml.NewEncoder(&buf)
	if err := e.MarshalXML(enc, xml.StartElement{}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatal(err)
	}

	e2 := decodeElement(t, buf.String())
	if !e.Equal(e2) {
		t.Fatalf("round-tripped element not equal: %+v vs %+v", e, e2)
	}
}

func TestElementEqualIgnoresAttrOrder(t *testing.T) {
	a := decodeElement(t, `<iq id="1" type="get"></iq>`)
	b := decodeElement(t, `<iq type="get" id="1"></iq>`)
	if !a.Equal(b) {
		t.Fatal("elements differing only in attribute order should be equal")
	}
}

func TestElementEqualNil(t *testing.T) {
	var a, b *stream.Element
	if !a.Equal(b) {
		t.Fatal("two nil elements should be equal")
	}
	c := &stream.Element{Name: xml.Name{Local: "a"}}
	if a.Equal(c) || c.Equal(a) {
		t.Fatal("a nil element should never equal a non-nil one")
	}
}
