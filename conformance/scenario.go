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

// Package conformance runs declarative scenarios against a node: each one
// establishes a session in a given role, drives a script over it and checks
// what the node did.
package conformance

import (
	"context"
	"fmt"
	"time"

	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/nodectl"
)

// Role is the handshake side the synthetic peer takes.
type Role int

const (
	// Initiator dials the node.
	Initiator Role = iota
	// Responder listens and has the node dial it through the admin endpoint.
	Responder
)

func (r Role) String() string {
	switch r {
	case Initiator:
		return "initiator"
	case Responder:
		return "responder"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Status is a scenario verdict.
type Status int

const (
	// Pass means every assertion held.
	Pass Status = iota
	// Fail means an assertion did not hold.
	Fail
	// Timeout means the node never produced what the scenario waited for.
	Timeout
	// Skipped means the scenario does not apply to the node, for instance
	// because a feature it exercises was not negotiated.
	Skipped
)

var statusNames = [...]string{"pass", "fail", "timeout", "skip"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Scenario is a named interaction with the node.
type Scenario struct {
	Name string
	Role Role
	// Timeout bounds the whole scenario; zero uses the runner default.
	Timeout time.Duration
	// Configure adjusts the handshake of the primary session, for instance
	// to corrupt it.
	Configure func(*network.HandshakeConfig)
	// ExpectRejection passes when the node refuses the handshake or drops
	// the session right after it, and then still accepts a well-formed
	// connection.
	ExpectRejection bool
	// Script runs on the established primary session.
	Script network.Script
	// Check runs after the script.
	Check func(ctx context.Context, env *Env, s *network.Session) error
}

// Outcome is the result of one scenario.
type Outcome struct {
	Scenario string
	Role     Role
	Status   Status
	// Assertion describes what failed, or why the scenario was skipped;
	// empty on Pass.
	Assertion string
	// LastState is the state of the primary session when the scenario
	// ended.
	LastState network.SessionState
	Elapsed   time.Duration
}

// Passed reports whether the outcome is not a failure. Skipped scenarios
// pass.
func (o Outcome) Passed() bool { return o.Status == Pass || o.Status == Skipped }

// Env is what a Check sees besides the primary session.
type Env struct {
	Target string
	Admin  *nodectl.Client
	// Session is the configuration the primary session was established
	// with, keys included.
	Session network.SessionConfig
	// Baseline is the node's peer list before the primary session was
	// established; HaveBaseline is false when it could not be read.
	Baseline     []nodectl.Peer
	HaveBaseline bool
	// ClusterMember is set when the node lists the synthetic peer's key as
	// a cluster member.
	ClusterMember bool

	runner *Runner
}

// Dial opens an additional well-formed session to the target with fresh
// keys. The caller closes it.
func (e *Env) Dial(ctx context.Context) (*network.Session, error) {
	cfg, err := e.runner.sessionConfig(nil)
	if err != nil {
		return nil, err
	}
	return network.Dial(ctx, e.Target, cfg)
}

// Negotiated returns the features both sides of s enabled.
func (e *Env) Negotiated(s *network.Session) network.Features {
	return e.Session.Handshake.Features.Intersect(s.Identity().Features)
}
