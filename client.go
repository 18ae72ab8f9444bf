// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"context"
	"encoding/xml"
	"errors"
	"net"
	"sync"
	"time"

	"n0desplit.dev/xmppcore/dial"
	"n0desplit.dev/xmppcore/internal/attr"
	"n0desplit.dev/xmppcore/jid"
	"n0desplit.dev/xmppcore/stream"
)

// ClientState is the outward state of a Client's connection lifecycle
// (§4.F). Invalid is never observed outside the Client itself; it exists
// so the zero value is distinguishable from a real state.
type ClientState int

const (
	StateInvalid ClientState = iota
	StateDisconnected
	StateConnecting
	StateConnected
)

// EventKind discriminates the variants of an Event.
type EventKind int

const (
	// EventOnline reports a successful connect: BoundJID and Resumed are
	// set.
	EventOnline EventKind = iota
	// EventStanza reports an inbound stanza: Elem is set.
	EventStanza
	// EventDisconnected reports a transition out of Connected, or a final
	// stop with reconnect disabled: Err is set unless the stop was
	// requested locally via Close.
	EventDisconnected
)

// Event is one item in a Client's inbound event sequence.
type Event struct {
	Kind EventKind

	BoundJID *jid.JID
	// Resumed is always false: stream resumption (XEP-0198) is not
	// implemented by this core.
	Resumed bool

	Elem *stream.Element

	Err error
}

// reconnectInterval rate-limits automatic reconnection to at most one
// attempt per second, per §4.F.
const reconnectInterval = time.Second

// Client is the top-level connection-lifecycle state machine: it owns a
// single stream exclusively, drives it through the Stream Negotiator on
// each connect, and exposes an inbound Event sequence alongside an
// outbound stanza sink. The connect phase runs on the driver goroutine
// itself under the driver's cancelable context and hands its outcome back
// as a single connectResult value, so that cancelling the context tears
// down every intermediate resource (§9's "single task" design note).
type Client struct {
	cfg Config

	mu        sync.Mutex
	state     ClientState
	reconnect bool

	events   chan Event
	outbound chan stream.Packet
	cancel   context.CancelFunc
	done     chan struct{}
}

// New constructs a Client for cfg and immediately spawns a connect task.
func New(cfg Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:       cfg,
		state:     StateDisconnected,
		reconnect: cfg.Reconnect,
		events:    make(chan Event, 16),
		outbound:  make(chan stream.Packet, 16),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go c.run(ctx)
	return c
}

// Events returns the Client's inbound event sequence. It is closed once
// the driver has stopped: either reconnect was (or became) false after a
// Disconnected event, or Close was called.
func (c *Client) Events() <-chan Event { return c.events }

// State reports the Client's current outward state.
func (c *Client) State() ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetReconnect controls whether a Disconnected state re-enters Connecting
// automatically on the next poll.
func (c *Client) SetReconnect(b bool) {
	c.mu.Lock()
	c.reconnect = b
	c.mu.Unlock()
}

// SendStanza adds a generated id attribute if elem does not already carry
// one, then queues it for send. It fails with ErrInvalidState unless the
// Client is Connected.
func (c *Client) SendStanza(elem *stream.Element) error {
	if _, ok := elem.Attribute("id"); !ok {
		elem.Attr = append(elem.Attr, xml.Attr{Name: xml.Name{Local: "id"}, Value: attr.RandomID()})
	}
	return c.send(stream.StanzaPacket(elem))
}

// SendEnd queues a StreamEnd packet. Callers that do not want an automatic
// reconnect afterward should call SetReconnect(false) first.
func (c *Client) SendEnd() error {
	return c.send(stream.EndPacket)
}

func (c *Client) send(p stream.Packet) error {
	if c.State() != StateConnected {
		return ErrInvalidState
	}
	select {
	case c.outbound <- p:
		return nil
	case <-c.done:
		return ErrInvalidState
	}
}

// Close terminates the connect task or the current connection, tearing
// down every resource the Client owns, and stops the driver. The Events
// channel closes once the driver has observed the cancellation.
func (c *Client) Close() {
	c.cancel()
}

func (c *Client) setState(s ClientState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// emit delivers ev on the events channel, returning false without
// delivering it if ctx has been cancelled first.
func (c *Client) emit(ctx context.Context, ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// run is the Client's single owning goroutine: it implements the outward
// state table of §4.F, spawning one connect attempt per Connecting phase
// and one serve loop per Connected phase.
func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.events)

	var lastAttempt time.Time
	first := true
	for {
		if !first {
			c.mu.Lock()
			reconnect := c.reconnect
			c.mu.Unlock()
			if !reconnect {
				c.setState(StateDisconnected)
				return
			}
		}
		first = false

		if wait := reconnectInterval - time.Since(lastAttempt); wait > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
		lastAttempt = time.Now()

		c.setState(StateConnecting)
		res := c.connect(ctx)
		if res.err != nil {
			if !c.emit(ctx, Event{Kind: EventDisconnected, Err: res.err}) {
				return
			}
			continue
		}

		c.setState(StateConnected)
		if !c.emit(ctx, Event{Kind: EventOnline, BoundJID: res.jid}) {
			res.conn.Close()
			return
		}

		err := c.serve(ctx, res.codec, res.conn)
		c.setState(StateDisconnected)
		if !c.emit(ctx, Event{Kind: EventDisconnected, Err: err}) {
			return
		}
	}
}

// connectResult is the one-shot completion handle a connect attempt
// reports back to run.
type connectResult struct {
	codec *stream.Codec
	conn  net.Conn
	jid   *jid.JID
	err   error
}

func (c *Client) connect(ctx context.Context) connectResult {
	conn, err := c.dialServer(ctx)
	if err != nil {
		return connectResult{err: translateDialErr(err)}
	}
	// Negotiation reads block on conn; closing it on cancellation is what
	// lets Close interrupt them.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	codec, boundJID, err := negotiate(ctx, conn, c.cfg)
	if err != nil {
		conn.Close()
		return connectResult{err: err}
	}
	return connectResult{codec: codec, conn: conn, jid: boundJID}
}

func (c *Client) dialServer(ctx context.Context) (net.Conn, error) {
	if manual, ok := c.cfg.server().(Manual); ok {
		return dial.ConnectToHost(ctx, manual.Host, manual.Port)
	}
	return dial.ConnectWithSRV(ctx, c.cfg.JID.Domainpart(), "xmpp-client", "5222")
}

func translateDialErr(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Dns{Err: err}
	}
	return &Io{Err: err}
}

// packetResult pairs a packet read from the codec with the error (if any)
// that ended the read.
type packetResult struct {
	p   stream.Packet
	err error
}

// serve runs the Connected phase: a dedicated goroutine pumps NextPacket
// into a channel so that the driver can select between inbound packets,
// outbound sends, and cancellation without blocking on a synchronous
// read, per the read-half/write-half split §9's "Shared outbound sink"
// note describes for a multi-threaded implementation. It returns the
// error to report on the resulting Disconnected event (ErrDisconnected
// for an orderly close).
func (c *Client) serve(ctx context.Context, codec *stream.Codec, conn net.Conn) error {
	defer conn.Close()

	inbound := make(chan packetResult, 1)
	go func() {
		for {
			p, err := codec.NextPacket()
			inbound <- packetResult{p, err}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case res := <-inbound:
			if res.err != nil {
				return translateErr(res.err)
			}
			switch res.p.Kind {
			case stream.KindStanza:
				if !c.emit(ctx, Event{Kind: EventStanza, Elem: res.p.Elem}) {
					return nil
				}
			case stream.KindText:
				// Ignorable inter-stanza whitespace: loop without
				// yielding, so the driver never mistakes it for the
				// stream having ended.
			case stream.KindStreamStart:
				return &ProtocolError{Condition: InvalidStreamStart}
			case stream.KindStreamEnd:
				return ErrDisconnected
			}
		case p := <-c.outbound:
			if err := codec.Send(p); err != nil {
				return translateErr(err)
			}
			// A StreamEnd send does not return immediately: the loop
			// keeps reading so a peer that replies with its own closing
			// tag is still observed as the Disconnected cause.
		case <-ctx.Done():
			return nil
		}
	}
}
