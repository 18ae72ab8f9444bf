// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"context"
	"crypto/tls"
	"encoding/xml"
	"net"

	"n0desplit.dev/xmppcore/internal/ns"
	"n0desplit.dev/xmppcore/jid"
	"n0desplit.dev/xmppcore/sasl"
	"n0desplit.dev/xmppcore/stream"
)

// clientNS is the content namespace this core always negotiates: it is a
// client, never a server or component.
const clientNS = "jabber:client"

// negotiate drives a freshly dialed connection through stream-open,
// mandatory STARTTLS, SASL authentication, the post-SASL stream restart
// RFC 6120 §6.3.2 requires, and resource binding. It returns the steady-
// state Codec (now running over the TLS-wrapped transport) and the
// server-assigned full JID, or the first error translated onto the error
// taxonomy in errors.go.
func negotiate(ctx context.Context, conn net.Conn, cfg Config) (*stream.Codec, *jid.JID, error) {
	domain := cfg.JID.Domainpart()

	codec, _, err := stream.Open(ctx, conn, domain, clientNS, "", "")
	if err != nil {
		return nil, nil, translateErr(err)
	}

	features, err := nextFeatures(codec)
	if err != nil {
		return nil, nil, err
	}
	if !features.CanStartTLS {
		return nil, nil, &ProtocolError{Condition: NoTls}
	}

	if err := codec.Send(stream.StanzaPacket(startTLSElement())); err != nil {
		return nil, nil, &Io{Err: err}
	}
	proceed, err := nextStanza(codec)
	if err != nil {
		return nil, nil, err
	}
	if proceed.Name.Local != "proceed" || proceed.Name.Space != ns.StartTLS {
		return nil, nil, &ProtocolError{Condition: NoTls}
	}

	tlsConn := tls.Client(conn, &tls.Config{
		ServerName: domain,
		MinVersion: tls.VersionTLS12,
		NextProtos: []string{"xmpp-client"},
	})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, nil, &Tls{Err: err}
	}
	cbData := tlsConn.ConnectionState().TLSUnique

	codec, _, err = stream.Open(ctx, tlsConn, domain, clientNS, "", "")
	if err != nil {
		return nil, nil, translateErr(err)
	}

	features, err = nextFeatures(codec)
	if err != nil {
		return nil, nil, err
	}

	creds := sasl.Credentials{
		Username:           cfg.JID.Localpart(),
		Password:           cfg.Password,
		ChannelBinding:     cfg.ChannelBinding,
		ChannelBindingData: cbData,
	}
	if err := sasl.Negotiate(codec, features.Mechanisms, true, creds); err != nil {
		return nil, nil, translateSaslErr(err)
	}

	// RFC 6120 §6.3.2: a new stream is required after successful SASL.
	codec, _, err = stream.Open(ctx, tlsConn, domain, clientNS, "", "")
	if err != nil {
		return nil, nil, translateErr(err)
	}
	if _, err := nextFeatures(codec); err != nil {
		return nil, nil, err
	}

	boundJID, err := bindResource(codec, cfg.JID.Resourcepart())
	if err != nil {
		return nil, nil, err
	}
	return codec, boundJID, nil
}

func startTLSElement() *stream.Element {
	return &stream.Element{Name: xml.Name{Space: ns.StartTLS, Local: "starttls"}}
}

// nextStanza reads packets until the next Stanza, translating a premature
// StreamEnd or read error onto the error taxonomy.
func nextStanza(codec *stream.Codec) (*stream.Element, error) {
	for {
		p, err := codec.NextPacket()
		if err != nil {
			return nil, translateErr(err)
		}
		switch p.Kind {
		case stream.KindStanza:
			return p.Elem, nil
		case stream.KindStreamEnd:
			return nil, ErrDisconnected
		}
	}
}

// nextFeatures reads the next stanza and requires it to be
// <stream:features/>; any other stanza is reported as a ParseError.
func nextFeatures(codec *stream.Codec) (stream.Features, error) {
	elem, err := nextStanza(codec)
	if err != nil {
		return stream.Features{}, err
	}
	if elem.Name.Local != "features" || elem.Name.Space != ns.Stream {
		return stream.Features{}, &ParseError{Reason: "expected <stream:features>, got " + elem.Name.Local}
	}
	return stream.FeaturesFromStanza(elem), nil
}
