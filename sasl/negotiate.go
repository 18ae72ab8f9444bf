// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package sasl

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"n0desplit.dev/xmppcore/scram"
	"n0desplit.dev/xmppcore/stream"
)

// ErrPlainRequiresPlaintext is returned when PLAIN is selected but the
// caller's Credentials wrap a precomputed Pbkdf2 password rather than a
// plaintext one; PLAIN has no use for a salted key.
var ErrPlainRequiresPlaintext = errors.New("sasl: PLAIN mechanism requires a plaintext password")

// Negotiate drives one authentication attempt to completion over codec:
// it selects a mechanism from serverMechanisms, runs its wire exchange,
// and returns nil only once a <success/> has been received and verified.
func Negotiate(codec *stream.Codec, serverMechanisms []string, tlsActive bool, creds Credentials) error {
	mech, err := Select(serverMechanisms, tlsActive, creds.ChannelBinding == scram.CBTLSUnique)
	if err != nil {
		return err
	}

	switch {
	case strings.HasPrefix(mech, "SCRAM-"):
		return negotiateScram(codec, mech, creds)
	case mech == Plain:
		return negotiatePlain(codec, creds)
	case mech == Anonymous:
		return negotiateAnonymous(codec)
	default:
		return fmt.Errorf("sasl: mechanism %s selected but not implemented", mech)
	}
}

// nextElement reads packets until the next Stanza, skipping inter-stanza
// Text; a StreamEnd or read error aborts the negotiation.
func nextElement(codec *stream.Codec) (*stream.Element, error) {
	for {
		p, err := codec.NextPacket()
		if err != nil {
			return nil, err
		}
		switch p.Kind {
		case stream.KindStanza:
			return p.Elem, nil
		case stream.KindStreamEnd:
			return nil, io.EOF
		}
	}
}

func negotiateScram(codec *stream.Codec, mech string, creds Credentials) error {
	h := scram.SHA1
	if strings.HasPrefix(mech, "SCRAM-SHA-256") {
		h = scram.SHA256
	}
	plus := strings.HasSuffix(mech, "-PLUS")

	client, err := scram.NewClient(h, creds.Username, creds.Password, creds.ChannelBinding, creds.ChannelBindingData, plus)
	if err != nil {
		return err
	}

	first := client.ClientFirst()
	if err := codec.Send(stream.StanzaPacket(authElement(mech, []byte(first)))); err != nil {
		return err
	}

	elem, err := nextElement(codec)
	if err != nil {
		return err
	}
	if fail, ferr := decodeFailure(elem); ferr == nil {
		return fail
	}
	challenge, err := decodeChallenge(elem)
	if err != nil {
		return err
	}
	if err := client.ReceiveServerFirst(string(challenge)); err != nil {
		return err
	}

	final := client.ClientFinal()
	if err := codec.Send(stream.StanzaPacket(responseElement([]byte(final)))); err != nil {
		return err
	}

	elem, err = nextElement(codec)
	if err != nil {
		return err
	}
	if fail, ferr := decodeFailure(elem); ferr == nil {
		return fail
	}
	payload, err := decodeSuccess(elem)
	if err != nil {
		return err
	}
	// An empty <success/> carries no server signature, which
	// ReceiveServerFinal rejects as malformed.
	if err := client.ReceiveServerFinal(string(payload)); err != nil {
		return err
	}
	return nil
}

func negotiatePlain(codec *stream.Codec, creds Credentials) error {
	pw, ok := creds.Password.PlainString()
	if !ok {
		return ErrPlainRequiresPlaintext
	}
	initial := []byte("\x00" + creds.Username + "\x00" + pw)
	if err := codec.Send(stream.StanzaPacket(authElement(Plain, initial))); err != nil {
		return err
	}
	return expectOutcome(codec)
}

func negotiateAnonymous(codec *stream.Codec) error {
	if err := codec.Send(stream.StanzaPacket(authElement(Anonymous, nil))); err != nil {
		return err
	}
	return expectOutcome(codec)
}

// expectOutcome reads the single <success/> or <failure/> that concludes
// a mechanism with no intermediate challenge, such as PLAIN or ANONYMOUS.
func expectOutcome(codec *stream.Codec) error {
	elem, err := nextElement(codec)
	if err != nil {
		return err
	}
	if fail, ferr := decodeFailure(elem); ferr == nil {
		return fail
	}
	if _, err := decodeSuccess(elem); err != nil {
		return err
	}
	return nil
}
