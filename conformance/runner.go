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

package conformance

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/xrpl-synth/synthpeer/crypto"
	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/nodectl"
)

// Defaults for RunnerConfig.
const (
	DefaultTimeout         = 10 * time.Second
	DefaultRejectionWindow = 2 * time.Second
	DefaultListenAddr      = "127.0.0.1:0"
)

var errNeedsAdmin = errors.New("scenario needs the node's admin endpoint")

// skipError ends a scenario that does not apply to the node.
type skipError struct {
	reason string
}

func (e *skipError) Error() string { return e.reason }

func skipf(format string, args ...interface{}) error {
	return &skipError{reason: fmt.Sprintf(format, args...)}
}

// RunnerConfig parameterizes a Runner.
type RunnerConfig struct {
	// Target is the node's peer protocol address.
	Target string
	// Admin reaches the node's admin endpoint. Responder scenarios and peer
	// list checks need it.
	Admin *nodectl.Client
	// ListenAddr is where responder scenarios wait for the node. The node
	// must be able to reach it.
	ListenAddr string
	// Session is the template for synthetic sessions. Sessions without keys
	// get fresh ones.
	Session network.SessionConfig
	Timeout time.Duration
	// RejectionWindow is how long the node may keep a corrupted session
	// open before the scenario fails.
	RejectionWindow time.Duration
	// ClusterMember states that the node lists Session's public key in its
	// cluster configuration. Session must then carry fixed keys.
	ClusterMember bool
	Log           logging.Logger
}

// Runner executes scenarios one at a time.
type Runner struct {
	cfg RunnerConfig
	log logging.Logger
}

// MakeRunner creates a runner.
func MakeRunner(cfg RunnerConfig) *Runner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RejectionWindow <= 0 {
		cfg.RejectionWindow = DefaultRejectionWindow
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.Log == nil {
		cfg.Log = logging.Base()
	}
	if cfg.Session.Log == nil {
		cfg.Session.Log = cfg.Log
	}
	return &Runner{cfg: cfg, log: cfg.Log}
}

// Report collects the outcomes of a run.
type Report struct {
	Outcomes []Outcome
}

// Passed reports whether every scenario passed.
func (r Report) Passed() bool {
	return len(r.Failures()) == 0
}

// Count returns the number of outcomes with status st.
func (r Report) Count(st Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == st {
			n++
		}
	}
	return n
}

// Failures returns the outcomes that did not pass.
func (r Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Passed() {
			out = append(out, o)
		}
	}
	return out
}

// Run executes scenarios in order. A cancelled ctx stops the run early.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) Report {
	var report Report
	for _, sc := range scenarios {
		if ctx.Err() != nil {
			break
		}
		o := r.RunScenario(ctx, sc)
		switch {
		case o.Status == Skipped:
			r.log.Infof("scenario %s (%s): skipped: %s", o.Scenario, o.Role, o.Assertion)
		case o.Passed():
			r.log.Infof("scenario %s (%s): %s in %v", o.Scenario, o.Role, o.Status, o.Elapsed)
		default:
			r.log.Warnf("scenario %s (%s): %s in %v: %s (state %s)", o.Scenario, o.Role, o.Status, o.Elapsed, o.Assertion, o.LastState)
		}
		report.Outcomes = append(report.Outcomes, o)
	}
	return report
}

// sessionConfig copies the template, adds keys when missing and applies
// configure.
func (r *Runner) sessionConfig(configure func(*network.HandshakeConfig)) (network.SessionConfig, error) {
	cfg := r.cfg.Session
	if cfg.Handshake.Keys == nil {
		keys, err := crypto.GenerateNodeKeys()
		if err != nil {
			return cfg, err
		}
		cfg.Handshake.Keys = keys
	}
	if configure != nil {
		configure(&cfg.Handshake)
	}
	return cfg, nil
}

// RunScenario executes one scenario and never returns an error: everything
// that goes wrong is folded into the outcome.
func (r *Runner) RunScenario(ctx context.Context, sc Scenario) Outcome {
	start := time.Now()
	timeout := sc.Timeout
	if timeout <= 0 {
		timeout = r.cfg.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	o := Outcome{Scenario: sc.Name, Role: sc.Role, LastState: network.StateConnecting}
	finish := func(err error) Outcome {
		o.Elapsed = time.Since(start)
		o.Status, o.Assertion = classify(err)
		return o
	}

	cfg, err := r.sessionConfig(sc.Configure)
	if err != nil {
		return finish(err)
	}
	env := &Env{Target: r.cfg.Target, Admin: r.cfg.Admin, Session: cfg, ClusterMember: r.cfg.ClusterMember, runner: r}
	if r.cfg.Admin != nil {
		if peers, err := r.cfg.Admin.Peers(ctx); err == nil {
			env.Baseline, env.HaveBaseline = peers, true
		} else {
			r.log.Debugf("scenario %s: no peer baseline: %v", sc.Name, err)
		}
	}

	s, err := r.establish(ctx, sc.Role, cfg)
	if err != nil {
		var he *network.HandshakeError
		if errors.As(err, &he) {
			o.LastState = network.StateHandshaking
		}
	}
	if s != nil {
		defer s.Close()
	}
	if sc.ExpectRejection {
		err = r.expectRejection(ctx, env, s, err)
		if s != nil {
			o.LastState = s.State()
		}
		return finish(err)
	}
	if err != nil {
		return finish(err)
	}

	err = s.RunScript(ctx, sc.Script)
	if err == nil && sc.Check != nil {
		err = sc.Check(ctx, env, s)
	}
	var v *network.ProtocolViolation
	if errors.As(err, &v) {
		o.LastState = v.LastState
	} else {
		o.LastState = s.State()
	}
	return finish(err)
}

// classify maps a scenario error to a verdict.
func classify(err error) (Status, string) {
	var skip *skipError
	switch {
	case err == nil:
		return Pass, ""
	case errors.As(err, &skip):
		return Skipped, skip.reason
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, network.ErrTimeout):
		return Timeout, err.Error()
	}
	return Fail, err.Error()
}

// establish produces the primary session in the given role.
func (r *Runner) establish(ctx context.Context, role Role, cfg network.SessionConfig) (*network.Session, error) {
	if role == Initiator {
		return network.Dial(ctx, r.cfg.Target, cfg)
	}
	if r.cfg.Admin == nil {
		return nil, errNeedsAdmin
	}
	listener, err := net.Listen("tcp", r.cfg.ListenAddr)
	if err != nil {
		return nil, err
	}
	defer listener.Close()

	type accepted struct {
		conn net.Conn
		err  error
	}
	ch := make(chan accepted, 1)
	go func() {
		conn, err := listener.Accept()
		ch <- accepted{conn, err}
	}()
	if err := r.cfg.Admin.Connect(ctx, listener.Addr().String()); err != nil {
		return nil, fmt.Errorf("asking the node to connect: %w", err)
	}
	select {
	case a := <-ch:
		if a.err != nil {
			return nil, a.err
		}
		return network.Accept(ctx, a.conn, cfg)
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for the node to connect: %w", ctx.Err())
	}
}

// expectRejection checks that a corrupted handshake did not leave a session
// behind, then that a well-formed peer still gets in.
func (r *Runner) expectRejection(ctx context.Context, env *Env, s *network.Session, err error) error {
	if err != nil {
		var he *network.HandshakeError
		switch {
		case errors.Is(err, network.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
			return fmt.Errorf("node neither rejected nor completed the handshake: %w", err)
		case errors.Is(err, errNeedsAdmin):
			return err
		case !errors.As(err, &he):
			return fmt.Errorf("handshake did not reach the node: %w", err)
		}
		r.log.Debugf("handshake rejected: %v", err)
	} else {
		window := time.NewTimer(r.cfg.RejectionWindow)
		defer window.Stop()
		select {
		case <-s.Done():
		case <-window.C:
			return fmt.Errorf("node kept a session with a corrupted handshake open for %v", r.cfg.RejectionWindow)
		case <-ctx.Done():
			return fmt.Errorf("waiting for the node to drop the session: %w", ctx.Err())
		}
	}

	retry, err := env.Dial(ctx)
	if err != nil {
		return fmt.Errorf("node refused a well-formed connection after the rejection: %w", err)
	}
	defer retry.Close()
	go retry.Run(ctx, nil)
	if _, err := retry.Ping(ctx, rand.Uint32()); err != nil {
		return fmt.Errorf("node stopped answering pings after the rejection: %w", err)
	}
	return nil
}
