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

// Package refnode runs an in-process reference node: a synthetic peer that
// answers the protocol the way a well-behaved node would, plus an admin
// JSON-RPC compatible with nodectl. Scenarios run against it in self-tests
// and dry runs.
package refnode

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/xrpl-synth/synthpeer/crypto"
	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/protocol"
	"github.com/xrpl-synth/synthpeer/util/metrics"
)

// Version is reported as the build version by server_info.
const Version = "synthpeer-refnode-1.0"

// Config parameterizes a reference node.
type Config struct {
	// PeerAddr is the peer protocol listen address.
	PeerAddr string
	// AdminAddr is the admin RPC listen address; empty disables the admin
	// endpoint.
	AdminAddr string
	MaxPeers  int
	// ConnectTimeout bounds outbound connections requested over the admin
	// endpoint.
	ConnectTimeout time.Duration
	// ProposeInterval is how often the node broadcasts a proposal.
	ProposeInterval time.Duration
	// Cluster lists the peers the node treats as cluster members.
	Cluster []crypto.PublicKey
	Session        network.SessionConfig
	Registry       *metrics.Registry
	Log            logging.Logger
}

// Node is a running reference node.
type Node struct {
	cfg  Config
	log  logging.Logger
	peer *network.Node

	admin         *echo.Echo
	adminServer   *http.Server
	adminListener net.Listener
	adminDone     chan struct{}

	ledger        *ledger
	txs           *txStore
	validator     *validator
	publisher     *validator
	validatorList *protocol.ValidatorListCollection

	ctx     context.Context
	cancel  context.CancelFunc
	dialing sync.WaitGroup
	loops   sync.WaitGroup
}

// Start brings up the peer listener and, when configured, the admin endpoint.
func Start(cfg Config) (*Node, error) {
	if cfg.Log == nil {
		cfg.Log = logging.Base()
	}
	if cfg.Session.Log == nil {
		cfg.Session.Log = cfg.Log
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.ProposeInterval <= 0 {
		cfg.ProposeInterval = defaultProposeInterval
	}
	if cfg.Session.Handshake.UserAgent == "" {
		cfg.Session.Handshake.UserAgent = Version
	}
	n := &Node{
		cfg:    cfg,
		log:    cfg.Log.With("component", "refnode"),
		ledger: makeLedger(defaultLedgerSeq, defaultStateAccounts),
		txs:    makeTxStore(),
	}
	var err error
	if n.validator, err = makeValidator(1); err != nil {
		return nil, err
	}
	if n.publisher, err = makeValidator(1); err != nil {
		return nil, err
	}
	if n.validatorList, err = validatorList(n.publisher, n.validator, time.Now()); err != nil {
		return nil, err
	}
	n.ctx, n.cancel = context.WithCancel(context.Background())

	cfg.Session.Behavior = network.DefaultBehavior()
	cfg.Session.Behavior[protocol.EndpointsType] = network.AdvertiseEndpoints(n.neighbors)
	cfg.Session.Behavior[protocol.GetLedgerType] = n.answerGetLedger
	cfg.Session.Behavior[protocol.GetObjectsType] = n.answerGetObjects
	cfg.Session.Behavior[protocol.HaveTransactionsType] = n.answerHaveTransactions
	cfg.Session.Behavior[protocol.TransactionType] = n.acceptTransaction
	cfg.Session.Behavior[protocol.ProofPathRequestType] = n.answerProofPath
	cfg.Session.Behavior[protocol.ReplayDeltaRequestType] = n.answerReplayDelta
	peer, err := network.MakeNode(network.NodeConfig{
		ListenAddr:    cfg.PeerAddr,
		MaxPeers:      cfg.MaxPeers,
		Session:       cfg.Session,
		EnableRelay:   true,
		OnEstablished: n.greet,
		Registry:      cfg.Registry,
	})
	if err != nil {
		return nil, err
	}
	if err := peer.Start(); err != nil {
		return nil, err
	}
	n.peer = peer

	if cfg.AdminAddr != "" {
		if err := n.startAdmin(); err != nil {
			n.cancel()
			peer.Close()
			return nil, err
		}
	}
	n.loops.Add(1)
	go n.propose(cfg.ProposeInterval)
	return n, nil
}

// Peer returns the underlying synthetic node.
func (n *Node) Peer() *network.Node { return n.peer }

// PeerAddr returns the peer protocol address.
func (n *Node) PeerAddr() string { return n.peer.Addr() }

// AdminAddr returns the admin endpoint address, or "" when disabled.
func (n *Node) AdminAddr() string {
	if n.adminListener == nil {
		return ""
	}
	return n.adminListener.Addr().String()
}

// AdminURL returns the URL nodectl clients should use.
func (n *Node) AdminURL() string {
	if n.adminListener == nil {
		return ""
	}
	return "http://" + n.AdminAddr() + "/"
}

// neighbors lists every connected peer other than requester one hop away,
// sorted by address.
func (n *Node) neighbors(requester *network.Session) []protocol.Endpoint {
	sessions := n.peer.Sessions()
	out := make([]protocol.Endpoint, 0, len(sessions))
	for _, s := range sessions {
		if requester != nil && s.ID() == requester.ID() {
			continue
		}
		out = append(out, protocol.Endpoint{Address: s.RemoteAddr(), Hops: 1})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// greet advertises the node and its neighbors to a new session, the way a
// node announces endpoints right after the handshake.
func (n *Node) greet(s *network.Session) {
	endpoints := append([]protocol.Endpoint{{Address: n.PeerAddr(), Hops: 0}}, n.neighbors(s)...)
	msgs := append([]protocol.Message{protocol.NewMessage(&protocol.Endpoints{Version: 2, Endpoints: endpoints})}, n.greeting(s)...)
	for _, msg := range msgs {
		if err := s.Send(msg); err != nil {
			n.log.Debugf("greeting %s failed: %v", s.Identity(), err)
			return
		}
	}
}

// Close shuts down the admin endpoint and every session.
func (n *Node) Close() {
	n.cancel()
	if n.adminServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := n.adminServer.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			n.log.Warnf("admin shutdown: %v", err)
		}
		cancel()
		<-n.adminDone
	}
	n.dialing.Wait()
	n.loops.Wait()
	n.peer.Close()
}
