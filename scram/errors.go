// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package scram

import (
	"errors"
	"fmt"
)

// IncompatibleHashingMethodError is returned by Derive when a Pbkdf2
// Password was computed with a different hash algorithm than the one the
// server's server-first message requested.
type IncompatibleHashingMethodError struct {
	Got, Want string
}

func (e *IncompatibleHashingMethodError) Error() string {
	return fmt.Sprintf("scram: incompatible hashing method, %s is not %s", e.Got, e.Want)
}

// IncompatibleIterationCountError is returned by Derive when a Pbkdf2
// Password's stored iteration count does not match the one the server
// requested.
type IncompatibleIterationCountError struct {
	Got, Want int
}

func (e *IncompatibleIterationCountError) Error() string {
	return fmt.Sprintf("scram: incompatible iteration count, %d is not %d", e.Got, e.Want)
}

// ErrIncorrectSalt is returned by Derive when a Pbkdf2 Password's stored
// salt does not match the one the server requested.
var ErrIncorrectSalt = errors.New("scram: incorrect salt")

// ErrBadNonce is returned when the server-first message's combined nonce
// does not begin with the exact client nonce the client sent.
var ErrBadNonce = errors.New("scram: server nonce does not extend client nonce")

// ErrBadServerSignature is returned when the server-final message's
// signature does not match the one the client computed.
var ErrBadServerSignature = errors.New("scram: server signature verification failed")

// ErrMalformedMessage is returned when a server message cannot be parsed
// as a sequence of SCRAM attribute-value pairs.
var ErrMalformedMessage = errors.New("scram: malformed message")

// AttrParseError is returned when a SCRAM attribute-value pair's value is
// expected to hold an integer (such as the "i=" iteration count) but does
// not.
type AttrParseError struct {
	Attr, Value string
}

func (e *AttrParseError) Error() string {
	return fmt.Sprintf("scram: attribute %q has non-integer value %q", e.Attr, e.Value)
}
