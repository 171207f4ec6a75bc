// Copyright (C) 2019-2026 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package network

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/algorand/go-deadlock"
	"github.com/google/uuid"

	"github.com/xrpl-synth/synthpeer/crypto"
	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/protocol"
	"github.com/xrpl-synth/synthpeer/relay"
)

// SessionState is the lifecycle state of a Session.
type SessionState int32

const (
	// StateConnecting is a session whose socket is being opened.
	StateConnecting SessionState = iota
	// StateHandshaking is a connected session exchanging handshake headers.
	StateHandshaking
	// StateEstablished is a session with a verified peer identity.
	StateEstablished
	// StateClosing is a session flushing its outbound queue.
	StateClosing
	// StateClosed is final.
	StateClosed
)

var sessionStateNames = [...]string{"Connecting", "Handshaking", "Established", "Closing", "Closed"}

func (st SessionState) String() string {
	if int(st) < len(sessionStateNames) {
		return sessionStateNames[st]
	}
	return fmt.Sprintf("state(%d)", int(st))
}

const (
	defaultSendQueueLength = 64
	defaultInboundLength   = 64
	defaultFlushTimeout    = 2 * time.Second
)

// Responder produces the replies to one received message.
type Responder func(s *Session, msg protocol.Message) []protocol.Message

// Behavior maps message types to automatic responders.
type Behavior map[protocol.MessageType]Responder

// DefaultBehavior answers pings.
func DefaultBehavior() Behavior {
	return Behavior{protocol.PingType: AnswerPing}
}

// AnswerPing replies to a ping request with a pong echoing its sequence.
func AnswerPing(s *Session, msg protocol.Message) []protocol.Message {
	p, err := msg.Decode()
	if err != nil {
		return nil
	}
	ping := p.(*protocol.Ping)
	if ping.Kind != protocol.PingRequest {
		return nil
	}
	return []protocol.Message{protocol.NewMessage(ping.Reply())}
}

// AdvertiseEndpoints returns a responder that answers an endpoints request,
// an endpoints message with no entries, with the list endpoints builds for
// the requesting session. Non-empty endpoints messages are gossip and get no
// reply.
func AdvertiseEndpoints(endpoints func(requester *Session) []protocol.Endpoint) Responder {
	return func(s *Session, msg protocol.Message) []protocol.Message {
		p, err := msg.Decode()
		if err != nil || len(p.(*protocol.Endpoints).Endpoints) > 0 {
			return nil
		}
		reply := &protocol.Endpoints{Version: 2, Endpoints: endpoints(s)}
		return []protocol.Message{protocol.NewMessage(reply)}
	}
}

// Handler receives messages that neither the behavior table nor the relay
// controller consumed. Returning ErrStop ends Run without error.
type Handler func(s *Session, msg protocol.Message) error

// ErrStop is returned by a Handler to end Run.
var ErrStop = errors.New("stop")

// SessionConfig parameterizes sessions.
type SessionConfig struct {
	Handshake HandshakeConfig
	// TLS wraps connections in TLS when set.
	TLS    *tls.Config
	Dialer *Dialer

	SendQueueLength int
	MaxPayload      int
	FlushTimeout    time.Duration
	// Compress sends LZ4 frames when both sides negotiated compression.
	Compress bool
	// Behavior defaults to DefaultBehavior when nil.
	Behavior Behavior
	Relay    *relay.Controller
	Log      logging.Logger
}

func (cfg SessionConfig) withDefaults() SessionConfig {
	if cfg.SendQueueLength <= 0 {
		cfg.SendQueueLength = defaultSendQueueLength
	}
	if cfg.MaxPayload <= 0 {
		cfg.MaxPayload = protocol.MaxPayloadSize
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = defaultFlushTimeout
	}
	if cfg.Behavior == nil {
		cfg.Behavior = DefaultBehavior()
	}
	if cfg.Log == nil {
		cfg.Log = logging.Base()
	}
	return cfg
}

type outbound struct {
	typ  protocol.MessageType
	data []byte
}

// Session is one connection to a remote peer. It is driven by a single
// owner; the reader and writer goroutines only move frames.
type Session struct {
	id       uuid.UUID
	state    atomic.Int32
	stream   *Stream
	outgoing bool
	identity PeerIdentity
	compress bool
	cfg      SessionConfig
	log      logging.Logger

	sendQueue  chan outbound
	inbound    chan protocol.Message
	closing    chan struct{}
	done       chan struct{}
	writerDone chan struct{}
	readerDone chan struct{}
	closeOnce  sync.Once

	errMu    deadlock.Mutex
	closeErr error

	pingMu deadlock.Mutex
	pings  map[uint32]chan time.Time
}

func newSession(conn net.Conn, outgoing bool, cfg SessionConfig) *Session {
	s := &Session{
		id:         uuid.New(),
		stream:     NewStream(conn),
		outgoing:   outgoing,
		cfg:        cfg,
		sendQueue:  make(chan outbound, cfg.SendQueueLength),
		inbound:    make(chan protocol.Message, defaultInboundLength),
		closing:    make(chan struct{}),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
		readerDone: make(chan struct{}),
		pings:      make(map[uint32]chan time.Time),
	}
	s.log = cfg.Log.With("session", s.id.String()).With("remote", conn.RemoteAddr().String())
	return s
}

// Dial connects to address and performs the initiator handshake.
func Dial(ctx context.Context, address string, cfg SessionConfig) (*Session, error) {
	cfg = cfg.withDefaults()
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = MakeDialer(nil)
	}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	if cfg.TLS != nil {
		conn = TLSClient(conn, cfg.TLS)
	}
	return handshake(ctx, conn, true, cfg)
}

// Accept performs the responder handshake on an accepted connection.
func Accept(ctx context.Context, conn net.Conn, cfg SessionConfig) (*Session, error) {
	cfg = cfg.withDefaults()
	if cfg.TLS != nil {
		conn = TLSServer(conn, cfg.TLS)
	}
	return handshake(ctx, conn, false, cfg)
}

func handshake(ctx context.Context, conn net.Conn, outgoing bool, cfg SessionConfig) (*Session, error) {
	if cfg.Handshake.Keys == nil {
		// sessions without a configured identity get a throwaway one
		keys, err := crypto.GenerateNodeKeys()
		if err != nil {
			conn.Close()
			return nil, err
		}
		cfg.Handshake.Keys = keys
	}
	s := newSession(conn, outgoing, cfg)
	s.setState(StateHandshaking)
	var id PeerIdentity
	var err error
	if outgoing {
		id, err = InitiatorHandshake(ctx, s.stream, cfg.Handshake)
	} else {
		id, err = ResponderHandshake(ctx, s.stream, cfg.Handshake)
	}
	if err != nil {
		conn.Close()
		s.setState(StateClosed)
		close(s.done)
		s.log.Debugf("handshake failed: %v", err)
		return nil, err
	}
	s.establish(id)
	return s, nil
}

func (s *Session) establish(id PeerIdentity) {
	s.identity = id
	s.compress = s.cfg.Compress && s.cfg.Handshake.Features.Compression && id.Features.Compression
	s.log = s.log.With("peer", id.PublicKey.String())
	s.setState(StateEstablished)
	networkEstablishedSessions.Add(1, nil)
	go s.writeLoop()
	go s.readLoop()
	s.log.Debugf("established %s (%s)", id.UserAgent, id.Protocol)
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id.String() }

// State returns the current lifecycle state.
func (s *Session) State() SessionState { return SessionState(s.state.Load()) }

func (s *Session) setState(st SessionState) { s.state.Store(int32(st)) }

// Identity returns the verified remote identity. It is only meaningful once
// the session is established.
func (s *Session) Identity() PeerIdentity { return s.identity }

// Outgoing reports whether this side dialed.
func (s *Session) Outgoing() bool { return s.outgoing }

// RemoteAddr returns the remote transport address.
func (s *Session) RemoteAddr() string { return s.stream.Conn.RemoteAddr().String() }

// Done is closed once the session reaches StateClosed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the reason the session closed, or nil for a local Close.
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.closeErr
}

func (s *Session) closedErr() error {
	if err := s.Err(); err != nil {
		return err
	}
	return ErrSessionClosed
}

// Send queues msg for writing.
func (s *Session) Send(msg protocol.Message) error {
	var data []byte
	if s.compress {
		data = protocol.EncodeCompressed(msg)
	} else {
		data = protocol.Encode(msg)
	}
	return s.enqueue(outbound{typ: msg.Type, data: data})
}

// SendRaw queues arbitrary bytes, written to the connection unframed.
func (s *Session) SendRaw(b []byte) error {
	return s.enqueue(outbound{typ: protocol.UnknownMessageType, data: append([]byte(nil), b...)})
}

func (s *Session) enqueue(out outbound) error {
	switch st := s.State(); {
	case st < StateEstablished:
		return ErrNotEstablished
	case st > StateEstablished:
		return s.closedErr()
	}
	select {
	case s.sendQueue <- out:
		return nil
	case <-s.closing:
		return s.closedErr()
	}
}

func (s *Session) write(out outbound) error {
	if _, err := s.stream.Conn.Write(out.data); err != nil {
		return err
	}
	networkMessagesSent.Inc(map[string]string{"type": out.typ.String()})
	return nil
}

func (s *Session) writeLoop() {
	defer close(s.writerDone)
	for {
		select {
		case out := <-s.sendQueue:
			if err := s.write(out); err != nil {
				s.shutdown(fmt.Errorf("%w: write: %v", ErrSessionClosed, err))
				return
			}
		case <-s.closing:
			s.flush()
			return
		}
	}
}

// flush writes whatever is still queued, bounded by the flush timeout.
func (s *Session) flush() {
	s.stream.Conn.SetWriteDeadline(time.Now().Add(s.cfg.FlushTimeout))
	for {
		select {
		case out := <-s.sendQueue:
			if err := s.write(out); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) readLoop() {
	defer close(s.readerDone)
	for {
		msg, err := protocol.ReadMessage(s.stream, s.cfg.MaxPayload)
		if err != nil {
			var de *protocol.DecodeError
			if errors.As(err, &de) {
				networkConnectionsDropped.Inc(map[string]string{"reason": "framing"})
				s.shutdown(err)
			} else {
				s.shutdown(fmt.Errorf("%w: %v", ErrSessionClosed, err))
			}
			return
		}
		networkMessagesReceived.Inc(map[string]string{"type": msg.Type.String()})
		if s.deliverPong(msg) {
			continue
		}
		select {
		case s.inbound <- msg:
		case <-s.closing:
			return
		}
	}
}

// deliverPong hands a pong to a waiting Ping call.
func (s *Session) deliverPong(msg protocol.Message) bool {
	if msg.Type != protocol.PingType {
		return false
	}
	p, err := msg.Decode()
	if err != nil {
		return false
	}
	ping := p.(*protocol.Ping)
	if ping.Kind != protocol.PingReply {
		return false
	}
	s.pingMu.Lock()
	ch, ok := s.pings[ping.Seq]
	delete(s.pings, ping.Seq)
	s.pingMu.Unlock()
	if ok {
		ch <- time.Now()
	}
	return ok
}

// shutdown moves the session to Closing and finishes closing it in the
// background. The first reason recorded wins.
func (s *Session) shutdown(reason error) {
	s.closeOnce.Do(func() {
		s.errMu.Lock()
		s.closeErr = reason
		s.errMu.Unlock()
		if s.State() == StateEstablished {
			s.setState(StateClosing)
		}
		close(s.closing)
		go func() {
			<-s.writerDone
			s.stream.Conn.Close()
			<-s.readerDone
			s.setState(StateClosed)
			networkEstablishedSessions.Add(-1, nil)
			if reason != nil {
				s.log.Debugf("closed: %v", reason)
			}
			close(s.done)
		}()
	})
}

// Close flushes queued messages, closes the connection and waits for the
// session to reach StateClosed.
func (s *Session) Close() error {
	if s.State() < StateEstablished {
		return nil
	}
	s.shutdown(nil)
	<-s.done
	return nil
}

// Recv returns the next message in receipt order.
func (s *Session) Recv(ctx context.Context) (protocol.Message, error) {
	select {
	case msg := <-s.inbound:
		return msg, nil
	default:
	}
	select {
	case msg := <-s.inbound:
		return msg, nil
	case <-s.closing:
		select {
		case msg := <-s.inbound:
			return msg, nil
		default:
		}
		return protocol.Message{}, s.closedErr()
	case <-ctx.Done():
		return protocol.Message{}, ctx.Err()
	}
}

// Ping sends a ping with seq and waits for the pong echoing it, returning
// the round trip time.
func (s *Session) Ping(ctx context.Context, seq uint32) (time.Duration, error) {
	ch := make(chan time.Time, 1)
	s.pingMu.Lock()
	s.pings[seq] = ch
	s.pingMu.Unlock()
	defer func() {
		s.pingMu.Lock()
		delete(s.pings, seq)
		s.pingMu.Unlock()
	}()

	start := time.Now()
	err := s.Send(protocol.NewMessage(&protocol.Ping{Kind: protocol.PingRequest, Seq: seq, PingTime: uint64(start.UnixNano())}))
	if err != nil {
		return 0, err
	}
	select {
	case at := <-ch:
		return at.Sub(start), nil
	case <-s.closing:
		return 0, s.closedErr()
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Run processes messages until ctx is done, the session closes or h fails.
// Each message is answered from the behavior table, routed through the relay
// controller, or passed to h, in that order.
func (s *Session) Run(ctx context.Context, h Handler) error {
	for {
		msg, err := s.Recv(ctx)
		if err != nil {
			return err
		}
		if err := s.dispatch(msg, h); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}

func (s *Session) dispatch(msg protocol.Message, h Handler) error {
	if respond, ok := s.cfg.Behavior[msg.Type]; ok {
		for _, reply := range respond(s, msg) {
			if err := s.Send(reply); err != nil {
				return err
			}
		}
		return nil
	}
	if s.cfg.Relay != nil && relay.Handles(msg.Type) {
		if d := s.cfg.Relay.Route(s, msg); d.Action != relay.Pass {
			return nil
		}
	}
	if h != nil {
		return h(s, msg)
	}
	return nil
}
