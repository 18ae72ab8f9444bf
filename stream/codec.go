// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sync"

	"n0desplit.dev/xmppcore/internal/decl"
	"n0desplit.dev/xmppcore/internal/ns"
)

// MaxDepth bounds the nesting depth a Codec will accept from its peer.
// Input nested deeper than this fails NextPacket with a ParseError instead
// of growing the Element tree without bound.
const MaxDepth = 1024

// ParseError reports XML that the codec itself rejects: a root that is not
// <stream:stream>, comments, processing instructions or directives in the
// stream, an unexpected end element, and nesting beyond MaxDepth.
// Well-formedness errors detected by encoding/xml (mismatched end tags,
// invalid UTF-8 and the like) are returned as the decoder reports them,
// typically *xml.SyntaxError, not as ParseError.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "stream: parse error: " + e.Reason
}

// ErrUnexpectedRestart is returned by NextPacket when the peer sends a
// second <stream:stream> after the stream has already been opened.
var ErrUnexpectedRestart = errors.New("stream: unexpected stream restart")

// Info carries the attributes of the peer's opening <stream:stream> tag,
// as returned by Open.
type Info struct {
	ID      string
	From    string
	To      string
	Version Version
	Attr    []xml.Attr
}

// Codec reads and writes the Packet stream described by RFC 6120 §4 over a
// single underlying transport. It never closes that transport (see Close).
// Once a StreamEnd has been sent or received, NextPacket returns io.EOF
// without reading further; Send still writes whatever it is given.
type Codec struct {
	rw  io.ReadWriter
	dec *xml.Decoder
	bw  *bufio.Writer

	// endMu guards ended, which NextPacket's reader goroutine and Send's
	// writer goroutine may touch concurrently (eg. a client driver sending
	// a closing tag while its reader is still draining the peer's final
	// stanzas).
	endMu sync.Mutex
	ended bool
}

func (c *Codec) isEnded() bool {
	c.endMu.Lock()
	defer c.endMu.Unlock()
	return c.ended
}

func (c *Codec) setEnded() {
	c.endMu.Lock()
	c.ended = true
	c.endMu.Unlock()
}

// NewCodec wraps rw in a Codec without performing the stream-open
// handshake. Open builds on it and then exchanges the stream headers; a
// Codec from NewCodec alone reads and writes top-level elements directly.
func NewCodec(rw io.ReadWriter) *Codec {
	return &Codec{rw: rw, dec: xml.NewDecoder(rw), bw: bufio.NewWriter(rw)}
}

// Open emits the initiating <stream:stream> header onto rw addressed
// `to`, declaring the given content namespace (eg. "jabber:client"), then
// blocks until the peer's opening tag arrives. id and lang may be empty.
func Open(ctx context.Context, rw io.ReadWriter, to, xmlns, id, lang string) (*Codec, Info, error) {
	c := NewCodec(rw)
	if err := c.sendHeader(to, xmlns, id, lang); err != nil {
		return nil, Info{}, err
	}
	info, err := c.expectStart(ctx)
	if err != nil {
		return nil, info, err
	}
	return c, info, nil
}

func (c *Codec) sendHeader(to, xmlns, id, lang string) error {
	idAttr := ""
	if id != "" {
		idAttr = `id='` + id + `' `
	}
	if _, err := fmt.Fprintf(c.bw,
		decl.XMLHeader+`<stream:stream %sto='%s' version='1.0'`,
		idAttr, to,
	); err != nil {
		return err
	}
	if lang != "" {
		if _, err := fmt.Fprint(c.bw, ` xml:lang='`); err != nil {
			return err
		}
		if err := xml.EscapeText(c.bw, []byte(lang)); err != nil {
			return err
		}
		if _, err := fmt.Fprint(c.bw, `'`); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(c.bw, ` xmlns='%s' xmlns:stream='%s'>`, xmlns, ns.Stream); err != nil {
		return err
	}
	return c.bw.Flush()
}

// expectStart reads tokens until the peer's opening <stream:stream> tag
// (or a stream-level error, or malformed input) is found.
func (c *Codec) expectStart(ctx context.Context) (Info, error) {
	d := decl.Skip(c.dec)
	for {
		select {
		case <-ctx.Done():
			return Info{}, ctx.Err()
		default:
		}
		tok, err := d.Token()
		if err != nil {
			return Info{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "stream" || t.Name.Space != ns.Stream {
				return Info{}, &ParseError{Reason: "expected <stream:stream>, got " + t.Name.Local}
			}
			return infoFromStart(t)
		case xml.CharData:
			if len(bytes.TrimLeft(t, " \t\r\n")) != 0 {
				return Info{}, &ParseError{Reason: "unexpected character data before stream start"}
			}
		case xml.ProcInst, xml.Comment, xml.Directive:
			return Info{}, &ParseError{Reason: "disallowed token before stream start"}
		case xml.EndElement:
			return Info{}, &ParseError{Reason: "unexpected end element before stream start"}
		}
	}
}

func infoFromStart(start xml.StartElement) (Info, error) {
	info := Info{Attr: start.Attr}
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "id":
			info.ID = a.Value
		case "from":
			info.From = a.Value
		case "to":
			info.To = a.Value
		case "version":
			if err := (&info.Version).UnmarshalXMLAttr(a); err != nil {
				return info, err
			}
		}
	}
	return info, nil
}

// NextPacket produces the next top-level Packet: a Stanza as soon as its
// root closing tag is consumed, interleaved Text for whitespace or
// character data between stanzas, or a single StreamEnd when the peer
// closes the stream.
func (c *Codec) NextPacket() (Packet, error) {
	if c.isEnded() {
		return Packet{}, io.EOF
	}
	for {
		tok, err := c.dec.Token()
		if err != nil {
			return Packet{}, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if s := string(t); s != "" {
				return TextPacket(s), nil
			}
		case xml.StartElement:
			if t.Name.Space == ns.Stream && t.Name.Local == "stream" {
				return Packet{}, ErrUnexpectedRestart
			}
			if t.Name.Space == ns.Stream && t.Name.Local == "error" {
				se := Error{}
				if err := xml.NewTokenDecoder(c.dec).DecodeElement(&se, &t); err != nil {
					return Packet{}, err
				}
				return Packet{}, se
			}
			elem, err := c.decodeElement(t, 1)
			if err != nil {
				return Packet{}, err
			}
			return StanzaPacket(elem), nil
		case xml.EndElement:
			if t.Name.Space == ns.Stream && t.Name.Local == "stream" {
				c.setEnded()
				return EndPacket, nil
			}
			return Packet{}, &ParseError{Reason: "unexpected end element " + t.Name.Local}
		case xml.ProcInst:
			return Packet{}, &ParseError{Reason: "disallowed processing instruction"}
		case xml.Comment:
			return Packet{}, &ParseError{Reason: "disallowed comment"}
		case xml.Directive:
			return Packet{}, &ParseError{Reason: "disallowed directive"}
		}
	}
}

// decodeElement recursively reads the children of a just-opened element,
// enforcing MaxDepth along the way.
func (c *Codec) decodeElement(start xml.StartElement, depth int) (*Element, error) {
	if depth > MaxDepth {
		return nil, &ParseError{Reason: "exceeded maximum element nesting depth"}
	}
	elem := &Element{Name: start.Name, Attr: start.Attr}
	for {
		tok, err := c.dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := c.decodeElement(t, depth+1)
			if err != nil {
				return nil, err
			}
			elem.Children = append(elem.Children, Node{Start: child})
		case xml.CharData:
			elem.Children = append(elem.Children, Node{Text: string(t)})
		case xml.EndElement:
			return elem, nil
		case xml.ProcInst:
			return nil, &ParseError{Reason: "disallowed processing instruction"}
		case xml.Comment:
			return nil, &ParseError{Reason: "disallowed comment"}
		case xml.Directive:
			return nil, &ParseError{Reason: "disallowed directive"}
		}
	}
}

// Send serializes p onto the transport. Stanzas are written with
// encoding/xml: every element whose Name.Space is set carries its own
// xmlns declaration, even where it repeats the stream's default namespace,
// and attributes are written as given, including those with empty values.
func (c *Codec) Send(p Packet) error {
	switch p.Kind {
	case KindStanza:
		if err := writeElement(c.bw, p.Elem); err != nil {
			return err
		}
	case KindText:
		if err := xml.EscapeText(c.bw, []byte(p.CharData)); err != nil {
			return err
		}
	case KindStreamEnd:
		if _, err := fmt.Fprint(c.bw, "</stream:stream>"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("stream: cannot send packet of kind %v", p.Kind)
	}
	if err := c.bw.Flush(); err != nil {
		return err
	}
	if p.Kind == KindStreamEnd {
		c.setEnded()
	}
	return nil
}

func writeElement(w io.Writer, e *Element) error {
	if e == nil {
		return errors.New("stream: nil stanza element")
	}
	enc := xml.NewEncoder(w)
	if err := e.MarshalXML(enc, xml.StartElement{}); err != nil {
		return err
	}
	return enc.Flush()
}

// Close emits the closing </stream:stream> tag and flushes the transport.
// It does not close the underlying transport; callers that own the
// connection are responsible for that.
func (c *Codec) Close() error {
	if c.isEnded() {
		return nil
	}
	return c.Send(EndPacket)
}
