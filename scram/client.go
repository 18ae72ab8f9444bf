// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package scram

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"strconv"
	"strings"

	"golang.org/x/text/secure/precis"
)

// Client drives one SCRAM authentication attempt through its four
// messages. It is ephemeral: construct one with NewClient, advance it
// client-first → server-first → client-final → server-final, and discard
// it on completion or failure.
type Client struct {
	hash     Hash
	password Password
	username string
	cb       ChannelBinding
	cbData   []byte

	serverSupportsPlus bool
	gs2Header          string

	clientNonce     string
	clientFirstBare string

	combinedNonce  string
	serverFirst    string
	saltedPassword []byte
	authMessage    string
	serverSignature []byte

	completed bool
}

// NewClient starts a new SCRAM negotiation for username, authenticating
// with password, using hash h. cb and cbData describe what channel-binding
// material, if any, the caller can supply; serverSupportsPlus reports
// whether the server advertised the "-PLUS" variant of this mechanism in
// its mechanism list.
func NewClient(h Hash, username string, password Password, cb ChannelBinding, cbData []byte, serverSupportsPlus bool) (*Client, error) {
	nonce, err := generateNonce()
	if err != nil {
		return nil, err
	}
	escaped, err := escapeUsername(username)
	if err != nil {
		return nil, err
	}
	c := &Client{
		hash:               h,
		password:           password,
		username:           escaped,
		cb:                 cb,
		cbData:             cbData,
		serverSupportsPlus: serverSupportsPlus,
		gs2Header:          cb.gs2Header(serverSupportsPlus),
		clientNonce:        nonce,
	}
	return c, nil
}

func generateNonce() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// escapeUsername normalizes name with the OpaqueString PRECIS profile and
// then applies the SCRAM "saslname" escaping from RFC 5802 §5.1: "," →
// "=2C", "=" → "=3D".
func escapeUsername(name string) (string, error) {
	normalized, err := precis.OpaqueString.String(name)
	if err != nil {
		return "", err
	}
	normalized = strings.ReplaceAll(normalized, "=", "=3D")
	normalized = strings.ReplaceAll(normalized, ",", "=2C")
	return normalized, nil
}

// ClientFirst returns the client-first message to send as the SASL
// mechanism's initial response.
func (c *Client) ClientFirst() string {
	c.clientFirstBare = "n=" + c.username + ",r=" + c.clientNonce
	return c.gs2Header + c.clientFirstBare
}

// parseAttrs splits a SCRAM message of comma-separated "k=v" pairs into a
// map; it does not attempt to un-escape values.
func parseAttrs(msg string) map[string]string {
	attrs := make(map[string]string)
	for _, part := range strings.Split(msg, ",") {
		if len(part) < 2 || part[1] != '=' {
			continue
		}
		attrs[part[:1]] = part[2:]
	}
	return attrs
}

// ReceiveServerFirst processes the server-first message, validating that
// the returned nonce extends the client's own nonce.
func (c *Client) ReceiveServerFirst(msg string) error {
	attrs := parseAttrs(msg)
	nonce, ok := attrs["r"]
	if !ok {
		return ErrMalformedMessage
	}
	if !strings.HasPrefix(nonce, c.clientNonce) {
		return ErrBadNonce
	}
	saltB64, ok := attrs["s"]
	if !ok {
		return ErrMalformedMessage
	}
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return ErrMalformedMessage
	}
	iterStr, ok := attrs["i"]
	if !ok {
		return ErrMalformedMessage
	}
	iterations, err := strconv.Atoi(iterStr)
	if err != nil {
		return &AttrParseError{Attr: "i", Value: iterStr}
	}

	saltedPassword, err := Derive(c.hash, c.password, salt, iterations)
	if err != nil {
		return err
	}

	c.combinedNonce = nonce
	c.serverFirst = msg
	c.saltedPassword = saltedPassword
	return nil
}

// cbindInput returns the bytes encoded in the client-final message's "c="
// attribute: the GS2 header alone, or the GS2 header plus channel-binding
// data when the negotiation actually uses channel binding.
func (c *Client) cbindInput() []byte {
	if c.cb.usesChannelBinding(c.serverSupportsPlus) {
		return append([]byte(c.gs2Header), c.cbData...)
	}
	return []byte(c.gs2Header)
}

// ClientFinal computes and returns the client-final message, the last
// message the client sends.
func (c *Client) ClientFinal() string {
	clientFinalWithoutProof := "c=" + base64.StdEncoding.EncodeToString(c.cbindInput()) + ",r=" + c.combinedNonce

	c.authMessage = c.clientFirstBare + "," + c.serverFirst + "," + clientFinalWithoutProof

	clientKey := c.hash.HMAC(c.saltedPassword, []byte("Client Key"))
	storedKey := c.hash.Sum(clientKey)
	clientSignature := c.hash.HMAC(storedKey, []byte(c.authMessage))

	clientProof := make([]byte, len(clientKey))
	for i := range clientKey {
		clientProof[i] = clientKey[i] ^ clientSignature[i]
	}

	serverKey := c.hash.HMAC(c.saltedPassword, []byte("Server Key"))
	c.serverSignature = c.hash.HMAC(serverKey, []byte(c.authMessage))

	return clientFinalWithoutProof + ",p=" + base64.StdEncoding.EncodeToString(clientProof)
}

// ReceiveServerFinal verifies the server-final message's signature in
// constant time, completing the negotiation.
func (c *Client) ReceiveServerFinal(msg string) error {
	attrs := parseAttrs(msg)
	vb64, ok := attrs["v"]
	if !ok {
		return ErrMalformedMessage
	}
	v, err := base64.StdEncoding.DecodeString(vb64)
	if err != nil {
		return ErrMalformedMessage
	}
	if subtle.ConstantTimeCompare(v, c.serverSignature) != 1 {
		return ErrBadServerSignature
	}
	c.completed = true
	return nil
}

// Done reports whether the negotiation completed successfully.
func (c *Client) Done() bool {
	return c.completed
}
