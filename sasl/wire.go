// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package sasl

import (
	"encoding/base64"
	"encoding/xml"
	"errors"

	"n0desplit.dev/xmppcore/internal/ns"
	"n0desplit.dev/xmppcore/stream"
)

// encodeB64 encodes data the way SASL framing requires: an empty payload
// is sent as the single character "=" rather than an empty string.
func encodeB64(data []byte) string {
	if len(data) == 0 {
		return "="
	}
	return base64.StdEncoding.EncodeToString(data)
}

// decodeB64 is the inverse of encodeB64.
func decodeB64(s string) ([]byte, error) {
	if s == "" || s == "=" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(s)
}

func saslElement(local string, data []byte) *stream.Element {
	return &stream.Element{
		Name:     xml.Name{Space: ns.SASL, Local: local},
		Children: []stream.Node{{Text: encodeB64(data)}},
	}
}

// authElement builds the initial <auth mechanism='…'>…</auth> element.
func authElement(mechanism string, initial []byte) *stream.Element {
	e := saslElement("auth", initial)
	e.Attr = []xml.Attr{{Name: xml.Name{Local: "mechanism"}, Value: mechanism}}
	return e
}

// responseElement builds a <response>…</response> element.
func responseElement(data []byte) *stream.Element {
	return saslElement("response", data)
}

// errMismatchedElement is returned internally when a stanza arrives that
// is not one of the SASL elements a particular step expects.
var errMismatchedElement = errors.New("sasl: unexpected element during negotiation")

func isNamed(e *stream.Element, local string) bool {
	return e != nil && e.Name.Space == ns.SASL && e.Name.Local == local
}

// decodeChallenge extracts the payload of a <challenge/> element.
func decodeChallenge(e *stream.Element) ([]byte, error) {
	if !isNamed(e, "challenge") {
		return nil, errMismatchedElement
	}
	return decodeB64(e.Text())
}

// decodeSuccess extracts the optional payload of a <success/> element.
func decodeSuccess(e *stream.Element) ([]byte, error) {
	if !isNamed(e, "success") {
		return nil, errMismatchedElement
	}
	return decodeB64(e.Text())
}

// FailureError wraps the application-specific condition nested inside a
// <failure/> element, eg. "not-authorized" or "temporary-auth-failure".
type FailureError struct {
	Condition string
}

func (e *FailureError) Error() string {
	return "sasl: authentication failed: " + e.Condition
}

// decodeFailure reads the condition out of a <failure/> element.
func decodeFailure(e *stream.Element) (*FailureError, error) {
	if !isNamed(e, "failure") {
		return nil, errMismatchedElement
	}
	for _, c := range e.Children {
		if c.Start != nil {
			return &FailureError{Condition: c.Start.Name.Local}, nil
		}
	}
	return &FailureError{Condition: "undefined-condition"}, nil
}
