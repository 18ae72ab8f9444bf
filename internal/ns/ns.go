// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package ns provides namespace constants that are used by the xmpp package
// and other internal packages.
package ns // import "n0desplit.dev/xmppcore/internal/ns"

// List of commonly used namespaces.
const (
	Bind     = "urn:ietf:params:xml:ns:xmpp-bind"
	SASL     = "urn:ietf:params:xml:ns:xmpp-sasl"
	StartTLS = "urn:ietf:params:xml:ns:xmpp-tls"
	XML      = "http://www.w3.org/XML/1998/namespace"

	// Stream is the namespace of the <stream:stream> root element and its
	// framing (<stream:features>, <stream:error>).
	Stream = "http://etherx.jabber.org/streams"

	// Client is the stanza namespace used by c2s connections.
	Client = "jabber:client"

	// Server is the stanza namespace used by s2s connections (unused by this
	// core, which implements c2s only, but kept alongside Client since the
	// two namespaces are always discussed as a pair in RFC 6120).
	Server = "jabber:server"

	// StreamError is the namespace of the application-specific conditions
	// nested inside a <stream:error/>, eg. <not-well-formed/>.
	StreamError = "urn:ietf:params:xml:ns:xmpp-streams"

	// Session is the legacy session-establishment namespace some servers
	// still advertise in <stream:features/>.
	Session = "urn:ietf:params:xml:ns:xmpp-session"
)
