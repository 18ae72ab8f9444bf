// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"context"
	"crypto/tls"
	"encoding/xml"
	"errors"
	"net"
	"testing"
	"time"

	"n0desplit.dev/xmppcore/internal/ns"
	"n0desplit.dev/xmppcore/internal/xmpptest"
	"n0desplit.dev/xmppcore/jid"
	"n0desplit.dev/xmppcore/stream"
)

const testDomain = "example.net"

func featuresElement(children ...stream.Node) *stream.Element {
	return &stream.Element{
		Name:     xml.Name{Space: ns.Stream, Local: "features"},
		Children: children,
	}
}

func startTLSFeature(required bool) stream.Node {
	starttls := &stream.Element{Name: xml.Name{Space: ns.StartTLS, Local: "starttls"}}
	if required {
		starttls.Children = append(starttls.Children, stream.Node{Start: &stream.Element{
			Name: xml.Name{Local: "required"},
		}})
	}
	return stream.Node{Start: starttls}
}

func mechanismsFeature(mechs ...string) stream.Node {
	mechanisms := &stream.Element{Name: xml.Name{Space: ns.SASL, Local: "mechanisms"}}
	for _, m := range mechs {
		mechanisms.Children = append(mechanisms.Children, stream.Node{Start: &stream.Element{
			Name:     xml.Name{Local: "mechanism"},
			Children: []stream.Node{{Text: m}},
		}})
	}
	return stream.Node{Start: mechanisms}
}

func bindFeature() stream.Node {
	return stream.Node{Start: &stream.Element{Name: xml.Name{Space: ns.Bind, Local: "bind"}}}
}

// negotiateServerUpToBind plays the server side of STARTTLS, PLAIN SASL,
// and resource binding over conn, then returns the resulting Codec so the
// caller can script whatever comes next (more stanzas, a stream close).
func negotiateServerUpToBind(conn net.Conn) (*stream.Codec, error) {
	codec, _, err := stream.Open(context.Background(), conn, testDomain, ns.Client, "", "")
	if err != nil {
		return nil, err
	}
	if err := codec.Send(stream.StanzaPacket(featuresElement(startTLSFeature(true)))); err != nil {
		return nil, err
	}
	if _, err := nextServerStanza(codec); err != nil { // <starttls/>
		return nil, err
	}
	proceed := &stream.Element{Name: xml.Name{Space: ns.StartTLS, Local: "proceed"}}
	if err := codec.Send(stream.StanzaPacket(proceed)); err != nil {
		return nil, err
	}

	tlsConn := tls.Server(conn, &tls.Config{Certificates: []tls.Certificate{xmpptest.Cert(testDomain)}})
	if err := tlsConn.HandshakeContext(context.Background()); err != nil {
		return nil, err
	}

	codec, _, err = stream.Open(context.Background(), tlsConn, testDomain, ns.Client, "", "")
	if err != nil {
		return nil, err
	}
	if err := codec.Send(stream.StanzaPacket(featuresElement(mechanismsFeature("PLAIN")))); err != nil {
		return nil, err
	}
	if _, err := nextServerStanza(codec); err != nil { // <auth/>
		return nil, err
	}
	success := &stream.Element{Name: xml.Name{Space: ns.SASL, Local: "success"}}
	if err := codec.Send(stream.StanzaPacket(success)); err != nil {
		return nil, err
	}

	codec, _, err = stream.Open(context.Background(), tlsConn, testDomain, ns.Client, "", "")
	if err != nil {
		return nil, err
	}
	if err := codec.Send(stream.StanzaPacket(featuresElement(bindFeature()))); err != nil {
		return nil, err
	}
	iq, err := nextServerStanza(codec) // <iq type='set'><bind/></iq>
	if err != nil {
		return nil, err
	}
	id, _ := iq.Attribute("id")
	result := &stream.Element{
		Name: xml.Name{Local: "iq"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "id"}, Value: id},
			{Name: xml.Name{Local: "type"}, Value: "result"},
		},
		Children: []stream.Node{{Start: &stream.Element{
			Name: xml.Name{Space: ns.Bind, Local: "bind"},
			Children: []stream.Node{{Start: &stream.Element{
				Name:     xml.Name{Local: "jid"},
				Children: []stream.Node{{Text: "user@" + testDomain + "/test"}},
			}}},
		}}},
	}
	if err := codec.Send(stream.StanzaPacket(result)); err != nil {
		return nil, err
	}
	return codec, nil
}

// runHappyPathServer plays the server side of a full STARTTLS/PLAIN/bind
// negotiation over conn and reports any error it observes to errc.
func runHappyPathServer(conn net.Conn, errc chan<- error) {
	_, err := negotiateServerUpToBind(conn)
	errc <- err
}

func nextServerStanza(codec *stream.Codec) (*stream.Element, error) {
	for {
		p, err := codec.NextPacket()
		if err != nil {
			return nil, err
		}
		if p.Kind == stream.KindStanza {
			return p.Elem, nil
		}
	}
}

func testConfig(t *testing.T) Config {
	t.Helper()
	j := jid.MustParse("user@" + testDomain + "/test")
	return Config{
		JID:      j,
		Password: PlainPassword("hunter2"),
		Server:   Manual{Host: testDomain, Port: "5222"},
	}
}

func TestNegotiateHappyPath(t *testing.T) {
	client, server := xmpptest.Pipe()
	defer client.Close()
	defer server.Close()

	errc := make(chan error, 1)
	go runHappyPathServer(server, errc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	codec, boundJID, err := negotiate(ctx, client, testConfig(t))
	if err != nil {
		t.Fatalf("negotiate returned error: %v", err)
	}
	defer codec.Close()

	want := "user@" + testDomain + "/test"
	if boundJID.String() != want {
		t.Errorf("wrong bound jid: want=%s, got=%s", want, boundJID)
	}

	if err := <-errc; err != nil {
		t.Errorf("fake server observed error: %v", err)
	}
}

// runNoStartTLSServer advertises a feature set with no <starttls/>, so the
// negotiator must abort rather than proceed in the clear.
func runNoStartTLSServer(conn net.Conn, errc chan<- error) {
	codec, _, err := stream.Open(context.Background(), conn, testDomain, ns.Client, "", "")
	if err != nil {
		errc <- err
		return
	}
	if err := codec.Send(stream.StanzaPacket(featuresElement(mechanismsFeature("PLAIN")))); err != nil {
		errc <- err
		return
	}
	errc <- nil
}

func TestNegotiateNoStartTLS(t *testing.T) {
	client, server := xmpptest.Pipe()
	defer client.Close()
	defer server.Close()

	errc := make(chan error, 1)
	go runNoStartTLSServer(server, errc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err := negotiate(ctx, client, testConfig(t))
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) || protoErr.Condition != NoTls {
		t.Fatalf("expected ProtocolError{NoTls}, got %v", err)
	}

	<-errc
}

// runSaslFailureServer completes STARTTLS but rejects the subsequent
// authentication attempt.
func runSaslFailureServer(conn net.Conn, errc chan<- error) {
	codec, _, err := stream.Open(context.Background(), conn, testDomain, ns.Client, "", "")
	if err != nil {
		errc <- err
		return
	}
	if err := codec.Send(stream.StanzaPacket(featuresElement(startTLSFeature(true)))); err != nil {
		errc <- err
		return
	}
	if _, err := nextServerStanza(codec); err != nil {
		errc <- err
		return
	}
	proceed := &stream.Element{Name: xml.Name{Space: ns.StartTLS, Local: "proceed"}}
	if err := codec.Send(stream.StanzaPacket(proceed)); err != nil {
		errc <- err
		return
	}

	tlsConn := tls.Server(conn, &tls.Config{Certificates: []tls.Certificate{xmpptest.Cert(testDomain)}})
	if err := tlsConn.HandshakeContext(context.Background()); err != nil {
		errc <- err
		return
	}

	codec, _, err = stream.Open(context.Background(), tlsConn, testDomain, ns.Client, "", "")
	if err != nil {
		errc <- err
		return
	}
	if err := codec.Send(stream.StanzaPacket(featuresElement(mechanismsFeature("PLAIN")))); err != nil {
		errc <- err
		return
	}
	if _, err := nextServerStanza(codec); err != nil {
		errc <- err
		return
	}
	failure := &stream.Element{
		Name: xml.Name{Space: ns.SASL, Local: "failure"},
		Children: []stream.Node{{Start: &stream.Element{
			Name: xml.Name{Local: "not-authorized"},
		}}},
	}
	errc <- codec.Send(stream.StanzaPacket(failure))
}

func TestNegotiateSaslFailure(t *testing.T) {
	client, server := xmpptest.Pipe()
	defer client.Close()
	defer server.Close()

	errc := make(chan error, 1)
	go runSaslFailureServer(server, errc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err := negotiate(ctx, client, testConfig(t))
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) || protoErr.Condition != NotAuthorized {
		t.Fatalf("expected ProtocolError{NotAuthorized}, got %v", err)
	}

	if err := <-errc; err != nil {
		t.Errorf("fake server observed error: %v", err)
	}
}
