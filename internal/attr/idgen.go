// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package attr

import "github.com/google/uuid"

// RandomID generates a new random identifier suitable for use as a stanza
// "id" attribute or a stream "id" attribute.
//
// The teacher generated IDs from a small hex-encoded crypto/rand buffer; this
// is replaced with a UUID-backed generator (mirroring the dependency the
// jackal example wires in for the same purpose) so that IDs collide with
// vanishingly small probability across concurrent connections. It panics if
// the OS's entropy pool cannot be read.
func RandomID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		panic(err)
	}
	return id.String()
}
