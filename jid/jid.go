// Copyright 2014 Sam Whited.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

// Package jid provides data structures for working with XMPP addresses
// (historically, "Jabber IDs").
package jid

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
	"golang.org/x/text/secure/precis"
)

// JID is an XMPP address, as defined by RFC 7622: a node (optional), a
// domain, and a resource (optional). The canonical string form is
// "node@domain/resource".
//
// A JID with no resource is a "bare" JID. A JID with a resource is a "full"
// JID. The zero value is not a valid JID.
type JID struct {
	node     string
	domain   string
	resource string
}

// SplitString splits out the localpart, domainpart, and resourcepart from a
// string representation of a JID. The parts are not guaranteed to be valid,
// and each part must be 1023 bytes or less.
func SplitString(s string) (localpart, domainpart, resourcepart string, err error) {
	// RFC 7622 §3.1 Fundamentals:
	//
	//    Implementation Note: When dividing a JID into its component parts,
	//    an implementation needs to match the separator characters '@' and
	//    '/' before applying any transformation algorithms, which might
	//    decompose certain Unicode code points to the separator characters.
	parts := strings.SplitAfterN(s, "/", 2)

	if strings.HasSuffix(parts[0], "/") {
		if len(parts) == 2 && parts[1] != "" {
			resourcepart = parts[1]
		} else {
			err = errors.New("jid: the resourcepart must be larger than 0 bytes")
			return
		}
	}

	norp := strings.TrimSuffix(parts[0], "/")
	nolp := strings.SplitAfterN(norp, "@", 2)
	if nolp[0] == "@" {
		err = errors.New("jid: the localpart must be larger than 0 bytes")
		return
	}

	switch len(nolp) {
	case 1:
		domainpart = nolp[0]
	case 2:
		domainpart = nolp[1]
		localpart = strings.TrimSuffix(nolp[0], "@")
	}

	// RFC 7622 §3.2: a trailing label separator (dot) is stripped before any
	// other canonicalization is performed.
	domainpart = strings.TrimSuffix(domainpart, ".")

	return
}

func checkIP6String(domainpart string) error {
	if l := len(domainpart); l > 2 && strings.HasPrefix(domainpart, "[") && strings.HasSuffix(domainpart, "]") {
		if ip := net.ParseIP(domainpart[1 : l-1]); ip == nil || ip.To4() != nil {
			return errors.New("jid: domainpart is not a valid IPv6 address")
		}
	}
	return nil
}

func commonChecks(localpart, domainpart, resourcepart string) error {
	if l := len(localpart); l > 1023 {
		return errors.New("jid: the localpart must be smaller than 1024 bytes")
	}
	// RFC 7622 §3.3.1 forbids these characters in a localpart even though the
	// PRECIS IdentifierClass base class does not.
	if strings.ContainsAny(localpart, "\"&'/:<>@") {
		return errors.New("jid: localpart contains forbidden characters")
	}
	if l := len(resourcepart); l > 1023 {
		return errors.New("jid: the resourcepart must be smaller than 1024 bytes")
	}
	if l := len(domainpart); l < 1 || l > 1023 {
		return errors.New("jid: the domainpart must be between 1 and 1023 bytes")
	}
	return checkIP6String(domainpart)
}

// New constructs a JID from its three parts, normalizing and validating each
// one per RFC 7622. The localpart is enforced with the PRECIS
// UsernameCaseMapped profile, the resourcepart with OpaqueString, and the
// domainpart with IDNA ToUnicode, mirroring the case-folding the stringprep
// profiles (nodeprep/resourceprep) required before PRECIS superseded them.
func New(localpart, domainpart, resourcepart string) (*JID, error) {
	if !utf8.ValidString(localpart) || !utf8.ValidString(resourcepart) {
		return nil, errors.New("jid: contains invalid UTF-8")
	}

	domainpart, err := idna.ToUnicode(domainpart)
	if err != nil {
		return nil, err
	}
	if !utf8.ValidString(domainpart) {
		return nil, errors.New("jid: domainpart contains invalid UTF-8")
	}

	if localpart != "" {
		localpart, err = precis.UsernameCaseMapped.String(localpart)
		if err != nil {
			return nil, err
		}
	}
	if resourcepart != "" {
		resourcepart, err = precis.OpaqueString.String(resourcepart)
		if err != nil {
			return nil, err
		}
	}

	if err := commonChecks(localpart, domainpart, resourcepart); err != nil {
		return nil, err
	}

	return &JID{node: localpart, domain: domainpart, resource: resourcepart}, nil
}

// Parse parses the string representation of a JID ("node@domain/resource")
// into a JID, normalizing and validating its parts as New does.
func Parse(s string) (*JID, error) {
	localpart, domainpart, resourcepart, err := SplitString(s)
	if err != nil {
		return nil, err
	}
	return New(localpart, domainpart, resourcepart)
}

// MustParse is like Parse but panics if the JID is invalid. It is intended
// for use with constant strings known at compile time.
func MustParse(s string) *JID {
	j, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return j
}

// Localpart returns the node part of the JID (eg. "feste"), or the empty
// string if none is set.
func (j *JID) Localpart() string {
	if j == nil {
		return ""
	}
	return j.node
}

// Domainpart returns the domain part of the JID (eg. "example.net").
func (j *JID) Domainpart() string {
	if j == nil {
		return ""
	}
	return j.domain
}

// Resourcepart returns the resource part of the JID, or the empty string if
// the JID is bare.
func (j *JID) Resourcepart() string {
	if j == nil {
		return ""
	}
	return j.resource
}

// Bare returns a copy of the JID with the resourcepart removed.
func (j *JID) Bare() *JID {
	if j == nil {
		return nil
	}
	return &JID{node: j.node, domain: j.domain}
}

// Domain returns a copy of the JID with only the domainpart set.
func (j *JID) Domain() *JID {
	if j == nil {
		return nil
	}
	return &JID{domain: j.domain}
}

// WithResource returns a copy of the JID with the resourcepart replaced.
func (j *JID) WithResource(resourcepart string) (*JID, error) {
	return New(j.Localpart(), j.Domainpart(), resourcepart)
}

// Copy returns a deep copy of the JID.
func (j *JID) Copy() *JID {
	if j == nil {
		return nil
	}
	j2 := *j
	return &j2
}

// String returns the string representation of the JID.
func (j *JID) String() string {
	if j == nil {
		return ""
	}
	s := j.domain
	if j.node != "" {
		s = j.node + "@" + s
	}
	if j.resource != "" {
		s = s + "/" + j.resource
	}
	return s
}

// Equal reports whether j and other refer to the same address. Comparison
// is by normalized parts, not by raw string.
func (j *JID) Equal(other *JID) bool {
	if j == nil || other == nil {
		return j == other
	}
	return j.node == other.node && j.domain == other.domain && j.resource == other.resource
}

// Network satisfies the net.Addr interface, and is always "xmpp".
func (j *JID) Network() string { return "xmpp" }

// MarshalXMLAttr satisfies xml.MarshalerAttr.
func (j *JID) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	if j == nil {
		return xml.Attr{}, nil
	}
	return xml.Attr{Name: name, Value: j.String()}, nil
}

// UnmarshalXMLAttr satisfies xml.UnmarshalerAttr.
func (j *JID) UnmarshalXMLAttr(attr xml.Attr) error {
	parsed, err := Parse(attr.Value)
	if err != nil {
		return err
	}
	*j = *parsed
	return nil
}

// MarshalXML satisfies xml.Marshaler, encoding the JID as character data
// inside start.
func (j *JID) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if j == nil {
		return nil
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.EncodeToken(xml.CharData(j.String())); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// UnmarshalXML satisfies xml.Unmarshaler.
func (j *JID) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var s string
	if err := d.DecodeElement(&s, &start); err != nil {
		return err
	}
	if s == "" {
		return fmt.Errorf("jid: cannot unmarshal empty element into a JID")
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*j = *parsed
	return nil
}
