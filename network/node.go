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
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/algorand/go-deadlock"

	"github.com/xrpl-synth/synthpeer/crypto"
	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/relay"
	"github.com/xrpl-synth/synthpeer/util/metrics"
)

// NodeConfig parameterizes a synthetic Node.
type NodeConfig struct {
	ListenAddr string
	// MaxPeers sheds inbound connections beyond this many sessions with a
	// 503 response. Zero means unlimited.
	MaxPeers int
	Session  SessionConfig
	// EnableRelay routes propagation messages through a relay controller
	// shared by the node's sessions.
	EnableRelay bool
	// Handler receives messages not consumed by the behavior table or relay.
	Handler Handler
	// OnEstablished runs once per session, inbound or outbound, before its
	// messages are processed.
	OnEstablished func(s *Session)
	Registry      *metrics.Registry
}

// NodeStats counts inbound connection outcomes.
type NodeStats struct {
	Accepted uint64
	Rejected uint64
	Failed   uint64
}

// Node is a synthetic peer that listens for and dials sessions.
type Node struct {
	cfg      NodeConfig
	log      logging.Logger
	listener net.Listener
	relay    *relay.Controller

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       deadlock.Mutex
	sessions map[string]*Session
	pending  int

	accepted atomic.Uint64
	rejected atomic.Uint64
	failed   atomic.Uint64
}

// MakeNode creates a node. Keys are generated when the handshake
// configuration carries none.
func MakeNode(cfg NodeConfig) (*Node, error) {
	if cfg.Session.Handshake.Keys == nil {
		keys, err := crypto.GenerateNodeKeys()
		if err != nil {
			return nil, err
		}
		cfg.Session.Handshake.Keys = keys
	}
	cfg.Session = cfg.Session.withDefaults()
	n := &Node{
		cfg:      cfg,
		log:      cfg.Session.Log,
		sessions: make(map[string]*Session),
	}
	if cfg.EnableRelay {
		n.relay = relay.MakeController(relay.Config{
			LocalKey: cfg.Session.Handshake.Keys.Public,
			Log:      n.log,
			Registry: cfg.Registry,
		})
		n.cfg.Session.Relay = n.relay
	}
	n.ctx, n.cancel = context.WithCancel(context.Background())
	return n, nil
}

// Start opens the listener and begins accepting sessions. A node without a
// listen address only dials.
func (n *Node) Start() error {
	if n.cfg.ListenAddr == "" {
		return nil
	}
	listener, err := net.Listen("tcp", n.cfg.ListenAddr)
	if err != nil {
		return err
	}
	n.listener = listener
	n.log.Infof("synthetic peer %s listening on %s", n.PublicKey(), listener.Addr())
	n.wg.Add(1)
	go n.acceptLoop()
	return nil
}

// Addr returns the listening address, or "" when not listening.
func (n *Node) Addr() string {
	if n.listener == nil {
		return ""
	}
	return n.listener.Addr().String()
}

// PublicKey returns the node's identity.
func (n *Node) PublicKey() crypto.PublicKey {
	return n.cfg.Session.Handshake.Keys.Public
}

// Relay returns the node's relay controller, or nil when relaying is off.
func (n *Node) Relay() *relay.Controller {
	return n.relay
}

// Stats returns inbound connection counters.
func (n *Node) Stats() NodeStats {
	return NodeStats{Accepted: n.accepted.Load(), Rejected: n.rejected.Load(), Failed: n.failed.Load()}
}

func (n *Node) acceptLoop() {
	defer n.wg.Done()
	for {
		conn, err := n.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || n.ctx.Err() != nil {
				return
			}
			n.log.Warnf("accept failed: %v", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		n.wg.Add(1)
		go n.serve(conn)
	}
}

func (n *Node) reserve() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cfg.MaxPeers > 0 && len(n.sessions)+n.pending >= n.cfg.MaxPeers {
		return false
	}
	n.pending++
	return true
}

func (n *Node) release(s *Session) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending--
	if s != nil {
		n.sessions[s.ID()] = s
	}
}

func (n *Node) serve(conn net.Conn) {
	defer n.wg.Done()
	if !n.reserve() {
		n.rejected.Add(1)
		networkConnectionsDropped.Inc(map[string]string{"reason": "capacity"})
		if n.cfg.Session.TLS != nil {
			conn = TLSServer(conn, n.cfg.Session.TLS)
		}
		if err := RejectHandshake(n.ctx, NewStream(conn), n.cfg.Session.Handshake, n.peerIPs()); err != nil {
			n.log.Debugf("rejecting %s: %v", conn.RemoteAddr(), err)
		}
		conn.Close()
		return
	}
	s, err := Accept(n.ctx, conn, n.cfg.Session)
	n.release(s)
	if err != nil {
		n.failed.Add(1)
		networkConnectionsDropped.Inc(map[string]string{"reason": "handshake"})
		n.log.Infof("inbound handshake from %s failed: %v", conn.RemoteAddr(), err)
		return
	}
	n.accepted.Add(1)
	networkConnectionsAccepted.Inc(nil)
	n.run(s)
}

// Connect dials address and runs the session under the node.
func (n *Node) Connect(ctx context.Context, address string) (*Session, error) {
	s, err := Dial(ctx, address, n.cfg.Session)
	if err != nil {
		return nil, err
	}
	n.mu.Lock()
	n.sessions[s.ID()] = s
	n.mu.Unlock()
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.run(s)
	}()
	return s, nil
}

func (n *Node) run(s *Session) {
	if n.relay != nil {
		n.relay.Track(s)
		defer n.relay.Untrack(s)
	}
	if n.cfg.OnEstablished != nil {
		n.cfg.OnEstablished(s)
	}
	defer func() {
		s.Close()
		n.mu.Lock()
		delete(n.sessions, s.ID())
		n.mu.Unlock()
	}()
	if err := s.Run(n.ctx, n.cfg.Handler); err != nil && !errors.Is(err, ErrSessionClosed) && !errors.Is(err, context.Canceled) {
		n.log.Infof("session %s ended: %v", s.Identity(), err)
	}
}

// Sessions returns the established sessions.
func (n *Node) Sessions() []*Session {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Session, 0, len(n.sessions))
	for _, s := range n.sessions {
		out = append(out, s)
	}
	return out
}

// NumPeers returns the number of established sessions.
func (n *Node) NumPeers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sessions)
}

func (n *Node) peerIPs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sessions))
	for _, s := range n.sessions {
		out = append(out, s.RemoteAddr())
	}
	return out
}

// Close stops accepting, closes every session and waits for them.
func (n *Node) Close() {
	n.cancel()
	if n.listener != nil {
		n.listener.Close()
	}
	for _, s := range n.Sessions() {
		s.Close()
	}
	n.wg.Wait()
}
