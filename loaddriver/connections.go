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

package loaddriver

import (
	"context"
	"errors"
	"time"

	"github.com/algorand/go-deadlock"
	"golang.org/x/sync/errgroup"

	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/util/metrics"
)

const (
	// DefaultHoldTime is how long established peers stay connected while
	// the node settles its peer set.
	DefaultHoldTime = 2 * time.Second
	// DefaultIterationTimeout bounds one connection load run.
	DefaultIterationTimeout = 20 * time.Second
)

// ConnectionConfig parameterizes the connection shedding scenario.
type ConnectionConfig struct {
	Target  string
	Session network.SessionConfig
	// MaxPeers is the capacity the node under test was configured with.
	MaxPeers int
	Peers    int
	// HoldTime is how long each accepted peer keeps its session open.
	HoldTime         time.Duration
	IterationTimeout time.Duration
	Registry         *metrics.Registry
	Log              logging.Logger
}

func (cfg ConnectionConfig) withDefaults() ConnectionConfig {
	if cfg.Peers <= 0 {
		cfg.Peers = 1
	}
	if cfg.HoldTime <= 0 {
		cfg.HoldTime = DefaultHoldTime
	}
	if cfg.IterationTimeout <= 0 {
		cfg.IterationTimeout = DefaultIterationTimeout
	}
	if cfg.Log == nil {
		cfg.Log = logging.Base()
	}
	if cfg.Session.Log == nil {
		cfg.Session.Log = cfg.Log
	}
	return cfg
}

// ConnectionReport counts how connection attempts ended.
type ConnectionReport struct {
	MaxPeers int
	Peers    int
	// Accepted completed the handshake.
	Accepted int
	// Rejected were refused during the handshake, typically with 503.
	Rejected int
	// Terminated were accepted and then closed by the node while held.
	Terminated int
	Errors     int
	TimedOut   int
	Elapsed    time.Duration
}

// Active is the number of sessions the node kept.
func (r ConnectionReport) Active() int { return r.Accepted - r.Terminated }

// Passed reports whether the node kept at most MaxPeers sessions and
// answered every attempt beyond that with a close or an error instead of
// leaving it hanging. A zero MaxPeers only checks for hangs.
func (r ConnectionReport) Passed() bool {
	if r.TimedOut > 0 {
		return false
	}
	return r.MaxPeers <= 0 || r.Active() <= r.MaxPeers
}

type connectionOutcome int

const (
	outcomeAccepted connectionOutcome = iota
	outcomeRejected
	outcomeTerminated
	outcomeError
	outcomeTimedOut
)

var connectionOutcomeNames = [...]string{"accepted", "rejected", "terminated", "error", "timed_out"}

func (o connectionOutcome) String() string { return connectionOutcomeNames[o] }

// RunConnectionLoad opens cfg.Peers sessions at once and holds the accepted
// ones for cfg.HoldTime, classifying how each attempt ended.
func RunConnectionLoad(ctx context.Context, cfg ConnectionConfig) (ConnectionReport, error) {
	cfg = cfg.withDefaults()
	counter := metrics.MakeCounter(cfg.Registry, metrics.LoadConnectionOutcomes, "outcome")
	runCtx, cancel := context.WithTimeout(ctx, cfg.IterationTimeout)
	defer cancel()

	var mu deadlock.Mutex
	report := ConnectionReport{MaxPeers: cfg.MaxPeers, Peers: cfg.Peers}
	record := func(o connectionOutcome) {
		counter.Inc(map[string]string{"outcome": o.String()})
		mu.Lock()
		defer mu.Unlock()
		switch o {
		case outcomeAccepted:
			report.Accepted++
		case outcomeRejected:
			report.Rejected++
		case outcomeTerminated:
			report.Terminated++
		case outcomeError:
			report.Errors++
		case outcomeTimedOut:
			report.TimedOut++
		}
	}

	start := time.Now()
	var g errgroup.Group
	for i := 0; i < cfg.Peers; i++ {
		g.Go(func() error {
			holdPeer(runCtx, cfg, record)
			return nil
		})
	}
	g.Wait()
	report.Elapsed = time.Since(start)
	cfg.Log.Infof("connection load: %d peers, %d accepted, %d rejected, %d terminated, %d errors, %d timed out",
		report.Peers, report.Accepted, report.Rejected, report.Terminated, report.Errors, report.TimedOut)
	return report, ctx.Err()
}

func holdPeer(ctx context.Context, cfg ConnectionConfig, record func(connectionOutcome)) {
	s, err := network.Dial(ctx, cfg.Target, cfg.Session)
	if err != nil {
		record(classifyDialError(err))
		return
	}
	record(outcomeAccepted)
	defer s.Close()
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go s.Run(runCtx, nil)

	select {
	case <-s.Done():
		record(outcomeTerminated)
	case <-time.After(cfg.HoldTime):
	case <-ctx.Done():
	}
}

func classifyDialError(err error) connectionOutcome {
	switch {
	case errors.Is(err, network.ErrRejected):
		return outcomeRejected
	case errors.Is(err, network.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return outcomeTimedOut
	}
	return outcomeError
}

// RunConnectionSweep runs the connection scenario once per peer count.
func RunConnectionSweep(ctx context.Context, cfg ConnectionConfig, peerCounts []int) ([]ConnectionReport, error) {
	reports := make([]ConnectionReport, 0, len(peerCounts))
	for _, n := range peerCounts {
		cfg.Peers = n
		r, err := RunConnectionLoad(ctx, cfg)
		reports = append(reports, r)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}
