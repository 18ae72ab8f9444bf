// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package dial

import (
	"context"
	"errors"
	"net"
	"time"
)

// stagger is the delay RFC 8305 recommends between launching successive
// connection attempts in a Happy Eyeballs race.
const stagger = 250 * time.Millisecond

var errNoAddrs = errors.New("dial: no addresses to connect to")

// dialFunc matches net.Dialer.DialContext's signature so races can be
// driven by either a real dialer or, in tests, a stand-in.
type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// raceResult is what one staggered attempt reports back to the race.
type raceResult struct {
	conn net.Conn
	err  error
}

// race launches one TCP connection attempt per address in addrs, staggered
// by stagger, and returns the connection from whichever attempt completes
// first. Losing attempts are cancelled. If every attempt fails, race returns
// the error from the last attempt to finish.
func race(ctx context.Context, dial dialFunc, network string, addrs []string) (net.Conn, error) {
	if len(addrs) == 0 {
		return nil, errNoAddrs
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan raceResult, len(addrs))
	for i, addr := range addrs {
		delay := time.Duration(i) * stagger
		go func(addr string, delay time.Duration) {
			if delay > 0 {
				t := time.NewTimer(delay)
				defer t.Stop()
				select {
				case <-ctx.Done():
					results <- raceResult{err: ctx.Err()}
					return
				case <-t.C:
				}
			}
			conn, err := dial(ctx, network, addr)
			results <- raceResult{conn: conn, err: err}
		}(addr, delay)
	}

	var lastErr error
	for i := 0; i < len(addrs); i++ {
		res := <-results
		if res.err == nil {
			cancel()
			// Drain remaining results in the background so their goroutines
			// don't leak, discarding any connections they managed to open.
			go func(remaining int) {
				for ; remaining > 0; remaining-- {
					if r := <-results; r.conn != nil {
						r.conn.Close()
					}
				}
			}(len(addrs) - i - 1)
			return res.conn, nil
		}
		lastErr = res.err
	}
	return nil, lastErr
}

// interleave orders addresses AAAA-first, alternating address families the
// way RFC 8305 §4 describes, so that a race tries IPv6 before IPv4 at each
// stagger step without starving either family.
func interleave(v6, v4 []string) []string {
	out := make([]string, 0, len(v6)+len(v4))
	for i := 0; i < len(v6) || i < len(v4); i++ {
		if i < len(v6) {
			out = append(out, v6[i])
		}
		if i < len(v4) {
			out = append(out, v4[i])
		}
	}
	return out
}
