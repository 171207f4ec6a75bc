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

// Package relay decides whether propagation messages received by a synthetic
// peer are forwarded, dropped or handed to the session's driver. Each
// synthetic peer owns one Controller; tables are never shared between peers.
package relay

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/algorand/go-deadlock"
	"github.com/benbjohnson/clock"
	"github.com/jellydator/ttlcache/v3"

	"github.com/xrpl-synth/synthpeer/crypto"
	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/protocol"
	"github.com/xrpl-synth/synthpeer/util/metrics"
)

const (
	// MaxRelays is the largest relay counter a forwarded message may carry.
	MaxRelays = 3
	// DefaultSquelchDuration applies when a squelch message carries no duration.
	DefaultSquelchDuration = 300 * time.Second
	// MaxSquelchDuration is the longest squelch accepted from a peer.
	MaxSquelchDuration = 3600 * time.Second

	defaultDedupTTL      = 30 * time.Second
	defaultDedupCapacity = 4096
)

// Action is the outcome of evaluating one message.
type Action int

const (
	// Pass hands the message to the session's driver.
	Pass Action = iota
	// Forward relays the rewritten message to the other tracked peers.
	Forward
	// Drop discards the message.
	Drop
	// Consumed means the controller applied the message to its own state.
	Consumed
)

func (a Action) String() string {
	switch a {
	case Pass:
		return "pass"
	case Forward:
		return "forward"
	case Drop:
		return "drop"
	case Consumed:
		return "consumed"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Decision describes what happened to a message.
type Decision struct {
	Action Action
	Reason string
	// Message is the message as forwarded, with the relay counter
	// decremented and the local key appended. Only set on Forward.
	Message protocol.Message
	// Relays is the relay counter carried by the forwarded message.
	Relays uint32
	// Forwarded counts the peers the message was written to.
	Forwarded int
}

// Handles reports whether messages of type t are subject to the controller.
func Handles(t protocol.MessageType) bool {
	return t == protocol.SquelchType || t.Relayed() || t.Attributed()
}

// Peer is a session the controller may forward to.
type Peer interface {
	ID() string
	Send(protocol.Message) error
}

// Config parameterizes a Controller.
type Config struct {
	// LocalKey is appended to the peer chain of forwarded messages.
	LocalKey crypto.PublicKey
	// Clock drives squelch expiry; the wall clock when nil.
	Clock    clock.Clock
	DedupTTL time.Duration
	Log      logging.Logger
	Registry *metrics.Registry
}

type squelchEntry struct {
	expiresAt time.Time
}

// Controller tracks squelched validators and forwards relayed messages to the
// sessions of one synthetic peer.
type Controller struct {
	mu        deadlock.Mutex
	squelched map[string]squelchEntry
	peers     map[string]Peer

	localKey  crypto.PublicKey
	clock     clock.Clock
	recent    *ttlcache.Cache[[sha256.Size]byte, struct{}]
	log       logging.Logger
	decisions *metrics.Counter
}

// MakeController creates a controller with empty tables.
func MakeController(cfg Config) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = defaultDedupTTL
	}
	if cfg.Log == nil {
		cfg.Log = logging.Base()
	}
	return &Controller{
		squelched: make(map[string]squelchEntry),
		peers:     make(map[string]Peer),
		localKey:  cfg.LocalKey,
		clock:     cfg.Clock,
		recent: ttlcache.New[[sha256.Size]byte, struct{}](
			ttlcache.WithTTL[[sha256.Size]byte, struct{}](cfg.DedupTTL),
			ttlcache.WithCapacity[[sha256.Size]byte, struct{}](defaultDedupCapacity),
			ttlcache.WithDisableTouchOnHit[[sha256.Size]byte, struct{}](),
		),
		log:       cfg.Log,
		decisions: metrics.MakeCounter(cfg.Registry, metrics.RelayDecisions, "action"),
	}
}

// Track adds p to the set of peers forwarded to.
func (c *Controller) Track(p Peer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peers[p.ID()] = p
}

// Untrack removes p.
func (c *Controller) Untrack(p Peer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.peers, p.ID())
}

// NumPeers returns the number of tracked peers.
func (c *Controller) NumPeers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.peers)
}

func (c *Controller) others(from Peer) []Peer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Peer, 0, len(c.peers))
	for id, p := range c.peers {
		if from != nil && id == from.ID() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Squelch installs or refreshes a squelch for key. A zero duration means the
// default; durations above MaxSquelchDuration are rejected.
func (c *Controller) Squelch(key []byte, duration time.Duration) error {
	if duration == 0 {
		duration = DefaultSquelchDuration
	}
	if duration < 0 || duration > MaxSquelchDuration {
		return fmt.Errorf("squelch duration %v out of range", duration)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.squelched[string(key)] = squelchEntry{expiresAt: c.clock.Now().Add(duration)}
	return nil
}

// Unsquelch removes any squelch for key.
func (c *Controller) Unsquelch(key []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.squelched, string(key))
}

// Squelched reports whether key is currently squelched. Expired entries are
// evicted here.
func (c *Controller) Squelched(key []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.squelched[string(key)]
	if !ok {
		return false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.squelched, string(key))
		return false
	}
	return true
}

// squelchCount returns the number of entries in the table, expired or not.
func (c *Controller) squelchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.squelched)
}

// Evaluate applies the relay policy to msg. Squelch messages update the
// squelch table; nothing is sent.
func (c *Controller) Evaluate(msg protocol.Message) Decision {
	switch {
	case msg.Type == protocol.SquelchType:
		return c.evaluateSquelch(msg)
	case msg.Type.Relayed():
		return c.evaluateRelayed(msg)
	case msg.Type.Attributed():
		return c.evaluateAttributed(msg)
	}
	return Decision{Action: Pass}
}

func (c *Controller) evaluateSquelch(msg protocol.Message) Decision {
	p, err := msg.Decode()
	if err != nil {
		return Decision{Action: Drop, Reason: err.Error()}
	}
	sq := p.(*protocol.Squelch)
	if crypto.PublicKeyType(sq.ValidatorPubKey) == crypto.KeyTypeUnknown {
		return Decision{Action: Drop, Reason: "unsupported key type"}
	}
	if !sq.Squelch {
		c.Unsquelch(sq.ValidatorPubKey)
		return Decision{Action: Consumed, Reason: "unsquelched"}
	}
	if err := c.Squelch(sq.ValidatorPubKey, time.Duration(sq.Duration)*time.Second); err != nil {
		return Decision{Action: Drop, Reason: err.Error()}
	}
	return Decision{Action: Consumed, Reason: "squelched"}
}

func (c *Controller) evaluateRelayed(msg protocol.Message) Decision {
	p, err := msg.Decode()
	if err != nil {
		return Decision{Action: Drop, Reason: err.Error()}
	}
	req := p.(*protocol.GetPeerShardInfoV2)
	for _, key := range req.PeerChain {
		if crypto.PublicKeyType(key) == crypto.KeyTypeUnknown {
			return Decision{Action: Drop, Reason: "unsupported key type"}
		}
	}
	switch {
	case req.Relays == 0:
		return Decision{Action: Drop, Reason: "relay counter exhausted"}
	case req.Relays > MaxRelays:
		return Decision{Action: Drop, Reason: "relay counter above limit"}
	}
	fwd := protocol.GetPeerShardInfoV2{
		PeerChain: append(append([][]byte(nil), req.PeerChain...), c.localKey.Bytes()),
		Relays:    req.Relays - 1,
	}
	return Decision{Action: Forward, Message: protocol.NewMessage(&fwd), Relays: fwd.Relays}
}

func (c *Controller) evaluateAttributed(msg protocol.Message) Decision {
	p, err := msg.Decode()
	if err != nil {
		return Decision{Action: Drop, Reason: err.Error()}
	}
	key := p.(protocol.Attributable).ValidatorKey()
	if key != nil && c.Squelched(key) {
		return Decision{Action: Drop, Reason: "validator squelched"}
	}
	return Decision{Action: Pass}
}

// Route evaluates msg received from peer from and forwards it to every other
// tracked peer when the policy allows. A payload already forwarded within the
// dedup window is dropped.
func (c *Controller) Route(from Peer, msg protocol.Message) Decision {
	d := c.Evaluate(msg)
	if d.Action == Forward {
		digest := sha256.Sum256(msg.Payload)
		if c.recent.Get(digest) != nil {
			d = Decision{Action: Drop, Reason: "duplicate"}
		} else {
			c.recent.Set(digest, struct{}{}, ttlcache.DefaultTTL)
			for _, p := range c.others(from) {
				if err := p.Send(d.Message); err != nil {
					c.log.Debugf("relay to %s failed: %v", p.ID(), err)
					continue
				}
				d.Forwarded++
			}
		}
	}
	if d.Action == Drop {
		c.log.Debugf("dropped %s: %s", msg.Type, d.Reason)
	}
	c.decisions.Inc(map[string]string{"action": d.Action.String()})
	return d
}
