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

package fuzzing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/util/metrics"
)

// Outcome is how the node under test reacted to one candidate.
type Outcome int

const (
	// Disconnected means the node closed the connection within the timeout.
	Disconnected Outcome = iota
	// Ignored means the connection stayed up and still answered a ping.
	Ignored
	// Hung means the node neither closed the connection nor answered.
	Hung
	// Unreachable means the candidate could not be delivered at all.
	Unreachable
)

var outcomeNames = [...]string{"disconnected", "ignored", "hung", "unreachable"}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

const (
	// DefaultDisconnectTimeout bounds the wait for the node to drop a
	// malformed connection.
	DefaultDisconnectTimeout = 200 * time.Millisecond
	// DefaultRecoveryTimeout bounds the well-formed connection attempted after
	// every candidate.
	DefaultRecoveryTimeout = 5 * time.Second
)

// RunnerConfig parameterizes a resistance run against one node.
type RunnerConfig struct {
	Target  string
	Session network.SessionConfig
	// PreHandshake writes candidates on a raw connection before any
	// handshake instead of over an established session.
	PreHandshake      bool
	DisconnectTimeout time.Duration
	RecoveryTimeout   time.Duration
	// RequireDisconnect makes an ignored candidate a failure.
	RequireDisconnect bool
	Registry          *metrics.Registry
	Log               logging.Logger
}

func (cfg RunnerConfig) withDefaults() RunnerConfig {
	if cfg.DisconnectTimeout <= 0 {
		cfg.DisconnectTimeout = DefaultDisconnectTimeout
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = DefaultRecoveryTimeout
	}
	if cfg.Log == nil {
		cfg.Log = logging.Base()
	}
	if cfg.Session.Log == nil {
		cfg.Session.Log = cfg.Log
	}
	return cfg
}

// Result records one candidate.
type Result struct {
	Index    int
	Category Category
	Size     int
	Outcome  Outcome
	// Recovered is set when a well-formed connection succeeded afterwards.
	Recovered bool
	Elapsed   time.Duration
	Err       error
}

// Passed reports whether the node handled the candidate acceptably.
func (r Result) Passed(requireDisconnect bool) bool {
	if !r.Recovered {
		return false
	}
	switch r.Outcome {
	case Disconnected:
		return true
	case Ignored:
		return !requireDisconnect
	}
	return false
}

// Report summarizes a run.
type Report struct {
	Seed              int64
	PreHandshake      bool
	RequireDisconnect bool
	Results           []Result
}

// Failures returns the results that did not pass.
func (r Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Passed(r.RequireDisconnect) {
			out = append(out, res)
		}
	}
	return out
}

// Passed reports whether every candidate passed.
func (r Report) Passed() bool { return len(r.Failures()) == 0 }

// Counts tallies outcomes per category.
func (r Report) Counts() map[Category]map[Outcome]int {
	out := make(map[Category]map[Outcome]int)
	for _, res := range r.Results {
		if out[res.Category] == nil {
			out[res.Category] = make(map[Outcome]int)
		}
		out[res.Category][res.Outcome]++
	}
	return out
}

// Runner delivers generated candidates to a node and judges its reaction.
type Runner struct {
	cfg      RunnerConfig
	log      logging.Logger
	outcomes *metrics.Counter
}

// MakeRunner returns a runner for cfg.Target.
func MakeRunner(cfg RunnerConfig) *Runner {
	cfg = cfg.withDefaults()
	return &Runner{
		cfg:      cfg,
		log:      cfg.Log.With("target", cfg.Target),
		outcomes: metrics.MakeCounter(cfg.Registry, metrics.FuzzOutcomes, "category", "outcome"),
	}
}

// Run drains gen, one fresh connection per candidate. It stops early only
// when ctx is done.
func (r *Runner) Run(ctx context.Context, gen *Generator) (Report, error) {
	report := Report{Seed: gen.Seed(), PreHandshake: r.cfg.PreHandshake, RequireDisconnect: r.cfg.RequireDisconnect}
	r.log.Infof("fuzzing with seed %d, %d candidates", gen.Seed(), gen.Len())
	for {
		c, ok := gen.Next()
		if !ok {
			return report, nil
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := r.Try(ctx, c)
		report.Results = append(report.Results, res)
		r.outcomes.Inc(map[string]string{"category": c.Category.String(), "outcome": res.Outcome.String()})
		if !res.Passed(r.cfg.RequireDisconnect) {
			r.log.Warnf("candidate %d (%s, %d bytes): %s, recovered %v: %v", c.Index, c.Category, len(c.Data), res.Outcome, res.Recovered, res.Err)
		}
	}
}

// Try delivers a single candidate and then checks that the node still
// accepts a well-formed connection.
func (r *Runner) Try(ctx context.Context, c Candidate) Result {
	res := Result{Index: c.Index, Category: c.Category, Size: len(c.Data)}
	start := time.Now()
	if r.cfg.PreHandshake {
		res.Outcome, res.Err = r.tryRaw(ctx, c.Data)
	} else {
		res.Outcome, res.Err = r.trySession(ctx, c.Data)
	}
	res.Elapsed = time.Since(start)
	if err := r.recover(ctx); err != nil {
		if res.Err == nil {
			res.Err = err
		}
	} else {
		res.Recovered = true
	}
	return res
}

func (r *Runner) trySession(ctx context.Context, data []byte) (Outcome, error) {
	s, err := network.Dial(ctx, r.cfg.Target, r.cfg.Session)
	if err != nil {
		return Unreachable, err
	}
	defer s.Close()
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go s.Run(runCtx, nil)

	if err := s.SendRaw(data); err != nil {
		return Unreachable, err
	}
	select {
	case <-s.Done():
		return Disconnected, nil
	case <-time.After(r.cfg.DisconnectTimeout):
	case <-ctx.Done():
		return Hung, ctx.Err()
	}

	pingCtx, cancel := context.WithTimeout(ctx, r.cfg.DisconnectTimeout)
	defer cancel()
	if _, err := s.Ping(pingCtx, uint32(time.Now().UnixNano())); err != nil {
		select {
		case <-s.Done():
			return Disconnected, nil
		default:
		}
		return Hung, err
	}
	return Ignored, nil
}

func (r *Runner) tryRaw(ctx context.Context, data []byte) (Outcome, error) {
	dialer := r.cfg.Session.Dialer
	if dialer == nil {
		dialer = network.MakeDialer(nil)
	}
	conn, err := dialer.DialContext(ctx, "tcp", r.cfg.Target)
	if err != nil {
		return Unreachable, err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(r.cfg.DisconnectTimeout))
	if _, err := conn.Write(data); err != nil {
		// a node may reset the connection before reading everything
		return Disconnected, nil
	}
	// drain whatever the node answers until it closes
	_, err = io.Copy(io.Discard, conn)
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Hung, err
	}
	return Disconnected, nil
}

func (r *Runner) recover(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RecoveryTimeout)
	defer cancel()
	s, err := network.Dial(ctx, r.cfg.Target, r.cfg.Session)
	if err != nil {
		return fmt.Errorf("well-formed connection failed: %w", err)
	}
	defer s.Close()
	go s.Run(ctx, nil)
	if _, err := s.Ping(ctx, 1); err != nil {
		return fmt.Errorf("well-formed ping failed: %w", err)
	}
	return nil
}
