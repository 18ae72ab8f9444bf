// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"errors"
	"fmt"
	"io"
	"net"

	"n0desplit.dev/xmppcore/sasl"
	"n0desplit.dev/xmppcore/scram"
	"n0desplit.dev/xmppcore/stream"
)

// Dns reports a failure resolving the server's address.
type Dns struct{ Err error }

func (e *Dns) Error() string { return fmt.Sprintf("xmpp: dns: %v", e.Err) }
func (e *Dns) Unwrap() error { return e.Err }

// Io reports a TCP read, write, or connect failure.
type Io struct{ Err error }

func (e *Io) Error() string { return fmt.Sprintf("xmpp: io: %v", e.Err) }
func (e *Io) Unwrap() error { return e.Err }

// Tls reports a TLS handshake or record-layer failure.
type Tls struct{ Err error }

func (e *Tls) Error() string { return fmt.Sprintf("xmpp: tls: %v", e.Err) }
func (e *Tls) Unwrap() error { return e.Err }

// ProtocolCondition names one of the narrow set of protocol-level failures
// the Stream Negotiator can report.
type ProtocolCondition int

const (
	// InvalidStreamStart indicates an unexpected <stream:stream> arrived
	// mid-session.
	InvalidStreamStart ProtocolCondition = iota
	// NoTls indicates the server does not support (or refused) STARTTLS.
	NoTls
	// NotAuthorized indicates the server rejected the chosen SASL mechanism.
	NotAuthorized
	// BindError indicates the resource-bind response was malformed or the
	// server refused the request.
	BindError
)

func (c ProtocolCondition) String() string {
	switch c {
	case InvalidStreamStart:
		return "invalid-stream-start"
	case NoTls:
		return "no-tls"
	case NotAuthorized:
		return "not-authorized"
	case BindError:
		return "bind-error"
	default:
		return "unknown-protocol-condition"
	}
}

// ProtocolError reports a failure in the Stream Negotiator's linear script.
type ProtocolError struct {
	Condition ProtocolCondition
	Err       error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("xmpp: protocol error: %s: %v", e.Condition, e.Err)
	}
	return "xmpp: protocol error: " + e.Condition.String()
}
func (e *ProtocolError) Unwrap() error { return e.Err }

// ParseError reports XML that failed to parse at the stream layer.
type ParseError struct{ Reason string }

func (e *ParseError) Error() string { return "xmpp: parse error: " + e.Reason }

// ParseIntError reports an attribute that was expected to hold an integer.
type ParseIntError struct {
	Attr, Value string
}

func (e *ParseIntError) Error() string {
	return fmt.Sprintf("xmpp: attribute %q has non-integer value %q", e.Attr, e.Value)
}

// SaslCondition names a failure internal to the SASL/SCRAM engine, as
// distinct from a failure condition reported by the server (see
// ProtocolError.NotAuthorized).
type SaslCondition int

const (
	// NoSupportedMechanism indicates none of the server-offered mechanisms
	// were usable.
	NoSupportedMechanism SaslCondition = iota
	// BadNonce indicates the server-first message's nonce did not begin
	// with the client's nonce.
	BadNonce
	// BadServerSignature indicates the server-final message's signature
	// did not verify.
	BadServerSignature
	// Canceled indicates the SASL exchange was abandoned before completion.
	Canceled
)

func (c SaslCondition) String() string {
	switch c {
	case NoSupportedMechanism:
		return "no-supported-mechanism"
	case BadNonce:
		return "bad-nonce"
	case BadServerSignature:
		return "bad-server-signature"
	case Canceled:
		return "canceled"
	default:
		return "unknown-sasl-condition"
	}
}

// SaslError reports a failure internal to the SASL/SCRAM engine.
type SaslError struct {
	Condition SaslCondition
	Err       error
}

func (e *SaslError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("xmpp: sasl: %s: %v", e.Condition, e.Err)
	}
	return "xmpp: sasl: " + e.Condition.String()
}
func (e *SaslError) Unwrap() error { return e.Err }

// ErrInvalidState is returned by SendStanza and SendEnd when called while
// the Client is not in the Connected state.
var ErrInvalidState = errors.New("xmpp: send attempted while not connected")

// ErrDisconnected reports an orderly peer close: the stream ended, or the
// underlying transport was closed, without any other reported error.
var ErrDisconnected = errors.New("xmpp: disconnected")

// translateErr maps an error raised by the stream, sasl, or scram packages
// (or the standard library) onto the taxonomy above, so that every
// Disconnected event carries one of these types.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, io.EOF):
		return ErrDisconnected
	case errors.Is(err, stream.ErrUnexpectedRestart):
		return &ProtocolError{Condition: InvalidStreamStart, Err: err}
	}

	var parseErr *stream.ParseError
	if errors.As(err, &parseErr) {
		return &ParseError{Reason: parseErr.Reason}
	}

	var attrErr *stream.AttrParseError
	if errors.As(err, &attrErr) {
		return &ParseIntError{Attr: attrErr.Attr, Value: attrErr.Value}
	}

	var streamErr stream.Error
	if errors.As(err, &streamErr) {
		return &ProtocolError{Condition: InvalidStreamStart, Err: err}
	}

	if ne, ok := err.(net.Error); ok {
		return &Io{Err: ne}
	}

	return translateSaslErr(err)
}

// translateSaslErr maps the sasl/scram packages' sentinel errors onto
// SaslError, or onto ProtocolError.NotAuthorized for a server-reported
// failure condition. Anything else passes through as an Io error: besides
// transport and stream read failures, that includes malformed SCRAM
// messages, unexpected SASL elements, and Derive's hash, salt and
// iteration-count mismatches.
func translateSaslErr(err error) error {
	var failure *sasl.FailureError
	if errors.As(err, &failure) {
		return &ProtocolError{Condition: NotAuthorized, Err: err}
	}
	var scramAttrErr *scram.AttrParseError
	if errors.As(err, &scramAttrErr) {
		return &ParseIntError{Attr: scramAttrErr.Attr, Value: scramAttrErr.Value}
	}
	switch {
	case errors.Is(err, sasl.ErrNoSupportedMechanism):
		return &SaslError{Condition: NoSupportedMechanism, Err: err}
	case errors.Is(err, scram.ErrBadNonce):
		return &SaslError{Condition: BadNonce, Err: err}
	case errors.Is(err, scram.ErrBadServerSignature):
		return &SaslError{Condition: BadServerSignature, Err: err}
	}
	return &Io{Err: err}
}
