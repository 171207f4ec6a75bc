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
	"sync/atomic"
	"time"

	"github.com/algorand/go-deadlock"
	"golang.org/x/sync/errgroup"

	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/util/metrics"
)

const (
	// DefaultPingsPerPeer matches the sustained ping scenario.
	DefaultPingsPerPeer = 50
	// DefaultPingTimeout bounds the wait for each pong.
	DefaultPingTimeout = 10 * time.Second
	// DefaultLatencyBound is the p99 latency a healthy node stays under.
	DefaultLatencyBound = time.Second
)

var latencyBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// PingConfig parameterizes the sustained ping scenario.
type PingConfig struct {
	Target       string
	Session      network.SessionConfig
	Peers        int
	PingsPerPeer int
	// Interval paces the pings of each peer; zero sends the next ping as
	// soon as the previous one is answered.
	Interval     time.Duration
	PingTimeout  time.Duration
	LatencyBound time.Duration
	Registry     *metrics.Registry
	Log          logging.Logger
}

func (cfg PingConfig) withDefaults() PingConfig {
	if cfg.Peers <= 0 {
		cfg.Peers = 1
	}
	if cfg.PingsPerPeer <= 0 {
		cfg.PingsPerPeer = DefaultPingsPerPeer
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = DefaultPingTimeout
	}
	if cfg.LatencyBound <= 0 {
		cfg.LatencyBound = DefaultLatencyBound
	}
	if cfg.Log == nil {
		cfg.Log = logging.Base()
	}
	if cfg.Session.Log == nil {
		cfg.Session.Log = cfg.Log
	}
	return cfg
}

// PingReport is the result of one ping load run.
type PingReport struct {
	Stats        LatencyStats
	LatencyBound time.Duration
	DialErrors   int
	Timeouts     int
	Dropped      int
}

// Passed reports whether every ping was answered and the p99 latency stayed
// within the bound.
func (r PingReport) Passed() bool {
	return r.Stats.Requested > 0 && r.Stats.Completed == r.Stats.Requested && r.Stats.P99 <= r.LatencyBound
}

type pingCollector struct {
	mu       deadlock.Mutex
	samples  []time.Duration
	dials    int
	timeouts int
	dropped  int
}

// RunPingLoad connects cfg.Peers synthetic peers concurrently, each sending
// cfg.PingsPerPeer pings and timing the pongs.
func RunPingLoad(ctx context.Context, cfg PingConfig) (PingReport, error) {
	cfg = cfg.withDefaults()
	latency := metrics.MakeHistogram(cfg.Registry, metrics.LoadPingLatency, latencyBuckets)
	var seq atomic.Uint32
	var col pingCollector

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Peers; i++ {
		g.Go(func() error {
			return pingPeer(gctx, cfg, &seq, &col, latency)
		})
	}
	err := g.Wait()

	stats := summarize(col.samples)
	stats.Peers = cfg.Peers
	stats.Requested = cfg.Peers * cfg.PingsPerPeer
	stats.Elapsed = time.Since(start)
	report := PingReport{
		Stats:        stats,
		LatencyBound: cfg.LatencyBound,
		DialErrors:   col.dials,
		Timeouts:     col.timeouts,
		Dropped:      col.dropped,
	}
	cfg.Log.Infof("ping load: %d peers, %d/%d answered, p99 %v", stats.Peers, stats.Completed, stats.Requested, stats.P99)
	return report, err
}

// pingPeer only fails for cancellation; unanswered pings are counted.
func pingPeer(ctx context.Context, cfg PingConfig, seq *atomic.Uint32, col *pingCollector, latency *metrics.Histogram) error {
	s, err := network.Dial(ctx, cfg.Target, cfg.Session)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		cfg.Log.Debugf("ping peer could not connect: %v", err)
		col.mu.Lock()
		col.dials++
		col.mu.Unlock()
		return nil
	}
	defer s.Close()
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go s.Run(runCtx, nil)

	samples := make([]time.Duration, 0, cfg.PingsPerPeer)
	var timeouts, dropped int
pings:
	for i := 0; i < cfg.PingsPerPeer; i++ {
		if i > 0 && cfg.Interval > 0 {
			select {
			case <-time.After(cfg.Interval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		pctx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
		rtt, err := s.Ping(pctx, seq.Add(1))
		cancel()
		switch {
		case err == nil:
			samples = append(samples, rtt)
			latency.ObserveDuration(rtt, nil)
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			timeouts++
		default:
			// the node dropped the session; the remaining pings are lost
			dropped = cfg.PingsPerPeer - i
			break pings
		}
	}

	col.mu.Lock()
	col.samples = append(col.samples, samples...)
	col.timeouts += timeouts
	col.dropped += dropped
	col.mu.Unlock()
	return nil
}

// RunPingSweep runs the ping scenario once per peer count.
func RunPingSweep(ctx context.Context, cfg PingConfig, peerCounts []int) ([]PingReport, error) {
	reports := make([]PingReport, 0, len(peerCounts))
	for _, n := range peerCounts {
		cfg.Peers = n
		r, err := RunPingLoad(ctx, cfg)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}
