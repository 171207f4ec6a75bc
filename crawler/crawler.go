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

// Package crawler discovers the peer network breadth first: it handshakes
// with every address it learns, records the endpoints each node advertises
// and serves the accumulated picture over JSON-RPC.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/xrpl-synth/synthpeer/crypto"
	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/protocol"
	"github.com/xrpl-synth/synthpeer/util/metrics"
)

// Config parameterizes a crawl.
type Config struct {
	Seeds   []string
	Workers int
	// VisitTimeout bounds dialing, the handshake and the wait for the
	// endpoints message of a single attempt.
	VisitTimeout time.Duration
	// DialRate and DialBurst pace outgoing dials across all workers.
	DialRate  rate.Limit
	DialBurst int
	// MaxRetries bounds the retries of transient dial failures. Zero selects
	// DefaultMaxRetries.
	MaxRetries     uint64
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// RecrawlInterval, when set, starts another pass over every known
	// address that long after a pass finishes.
	RecrawlInterval time.Duration
	Session         network.SessionConfig
	Resolver        *Resolver
	Registry        *metrics.Registry
	Log             logging.Logger
}

// Defaults for Config.
const (
	DefaultWorkers        = 16
	DefaultVisitTimeout   = 10 * time.Second
	DefaultDialRate       = rate.Limit(20)
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultMaxBackoff     = 10 * time.Second
)

func (cfg Config) withDefaults() Config {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.VisitTimeout <= 0 {
		cfg.VisitTimeout = DefaultVisitTimeout
	}
	if cfg.DialRate <= 0 {
		cfg.DialRate = DefaultDialRate
	}
	if cfg.DialBurst <= 0 {
		cfg.DialBurst = cfg.Workers
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.Log == nil {
		cfg.Log = logging.Base()
	}
	if cfg.Session.Log == nil {
		cfg.Session.Log = cfg.Log
	}
	return cfg
}

// Crawler owns a frontier and the worker pool that drains it.
type Crawler struct {
	cfg      Config
	log      logging.Logger
	frontier *Frontier
	session  network.SessionConfig
}

// MakeCrawler prepares a crawler. Node keys are generated when the session
// configuration carries none.
func MakeCrawler(cfg Config) (*Crawler, error) {
	cfg = cfg.withDefaults()
	session := cfg.Session
	if session.Handshake.Keys == nil {
		keys, err := crypto.GenerateNodeKeys()
		if err != nil {
			return nil, err
		}
		session.Handshake.Keys = keys
	}
	if session.Dialer == nil {
		session.Dialer = network.MakeDialer(rate.NewLimiter(cfg.DialRate, cfg.DialBurst))
	}
	return &Crawler{
		cfg:      cfg,
		log:      cfg.Log,
		frontier: MakeFrontier(cfg.Registry),
		session:  session,
	}, nil
}

// Frontier returns the shared crawl state.
func (c *Crawler) Frontier() *Frontier { return c.frontier }

// Snapshot returns a consistent copy of the known network.
func (c *Crawler) Snapshot() MetricsSnapshot { return c.frontier.Snapshot() }

// Run resolves the seeds and crawls until the frontier has nothing Pending
// or InFlight. With a RecrawlInterval it keeps crawling until ctx is done.
func (c *Crawler) Run(ctx context.Context) error {
	seeds, err := ResolveSeeds(ctx, c.cfg.Resolver, c.cfg.Seeds)
	if err != nil {
		return err
	}
	for _, seed := range seeds {
		c.frontier.Add(seed)
	}
	c.log.Infof("crawling from %d seeds with %d workers", len(seeds), c.cfg.Workers)
	for {
		start := time.Now()
		if err := c.crawl(ctx); err != nil {
			return err
		}
		s := c.frontier.Snapshot()
		c.log.Infof("crawl pass finished in %v: %d known, %d good, %d connections",
			time.Since(start), s.NumKnownNodes, s.NumGoodNodes, s.NumKnownConnections)
		if c.cfg.RecrawlInterval <= 0 {
			return nil
		}
		select {
		case <-time.After(c.cfg.RecrawlInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
		c.frontier.Requeue()
	}
}

// crawl runs one pass. The coordinator hands Pending addresses to at most
// Workers concurrent visits.
func (c *Crawler) crawl(ctx context.Context) error {
	sem := semaphore.NewWeighted(int64(c.cfg.Workers))
	g, gctx := errgroup.WithContext(ctx)
	for {
		if err := sem.Acquire(gctx, 1); err != nil {
			g.Wait()
			return err
		}
		address, ok := c.frontier.Next()
		if !ok {
			sem.Release(1)
			if c.frontier.Finished() {
				return g.Wait()
			}
			select {
			case <-c.frontier.Changed():
			case <-gctx.Done():
				g.Wait()
				return gctx.Err()
			}
			continue
		}
		g.Go(func() error {
			defer sem.Release(1)
			v := c.visit(gctx, address)
			if v.Err != nil && gctx.Err() != nil {
				c.frontier.Release(address)
				return nil
			}
			c.frontier.Complete(address, v)
			return nil
		})
	}
}

// visit checks address, retrying transient failures with exponential
// backoff. Other failures end the visit at once.
func (c *Crawler) visit(ctx context.Context, address string) Visit {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.InitialBackoff
	policy.MaxInterval = c.cfg.MaxBackoff
	policy.MaxElapsedTime = 0

	var v Visit
	op := func() error {
		v.Attempts++
		res, err := c.visitOnce(ctx, address)
		if err != nil {
			if network.IsTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		attempts := v.Attempts
		v = res
		v.Attempts = attempts
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.log.Debugf("visit %s failed, retrying in %v: %v", address, wait, err)
	}
	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(policy, c.cfg.MaxRetries), ctx), notify)
	if err != nil {
		v.Err = err
		c.log.Infof("giving up on %s after %d attempts: %v", address, v.Attempts, err)
	}
	return v
}

// errNoEndpoints is returned when a peer never advertised its endpoints.
var errNoEndpoints = errors.New("no endpoints received")

// visitOnce connects once, answers pings and waits for an endpoints message.
// Its own endpoints are sent first to prompt the reply.
func (c *Crawler) visitOnce(ctx context.Context, address string) (Visit, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.VisitTimeout)
	defer cancel()

	start := time.Now()
	s, err := network.Dial(ctx, address, c.session)
	if err != nil {
		return Visit{}, err
	}
	defer s.Close()
	id := s.Identity()
	v := Visit{
		PublicKey:     id.PublicKey.String(),
		UserAgent:     id.UserAgent,
		HandshakeTime: time.Since(start),
	}
	if err := s.Send(protocol.NewMessage(&protocol.Endpoints{Version: 2})); err != nil {
		return Visit{}, err
	}

	var endpoints *protocol.Endpoints
	err = s.Run(ctx, func(s *network.Session, msg protocol.Message) error {
		if msg.Type != protocol.EndpointsType {
			return nil
		}
		p, err := msg.Decode()
		if err != nil {
			return err
		}
		endpoints = p.(*protocol.Endpoints)
		return network.ErrStop
	})
	if endpoints == nil {
		if err == nil || errors.Is(err, context.DeadlineExceeded) {
			err = errNoEndpoints
		}
		return Visit{}, fmt.Errorf("%s: %w", address, err)
	}
	v.Neighbors = neighborAddresses(endpoints)
	return v, nil
}

// neighborAddresses keeps endpoints at least one hop away, adding the
// default port where an entry carries none.
func neighborAddresses(e *protocol.Endpoints) []string {
	var out []string
	for _, ep := range e.Endpoints {
		if ep.Hops < 1 || ep.Address == "" {
			continue
		}
		host, port, err := net.SplitHostPort(ep.Address)
		if err != nil {
			host, port = ep.Address, strconv.Itoa(DefaultPeerPort)
		}
		ip := net.ParseIP(host)
		if ip == nil {
			continue
		}
		out = append(out, net.JoinHostPort(ip.String(), port))
	}
	return out
}
