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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xrpl-synth/synthpeer/crypto"
	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/nodectl"
	"github.com/xrpl-synth/synthpeer/protocol"
	"github.com/xrpl-synth/synthpeer/refnode"
	"github.com/xrpl-synth/synthpeer/test/partitiontest"
	"github.com/xrpl-synth/synthpeer/util/metrics"
)

func testSessionConfig(t *testing.T) network.SessionConfig {
	keys, err := crypto.GenerateNodeKeys()
	require.NoError(t, err)
	return network.SessionConfig{
		Handshake: network.HandshakeConfig{Keys: keys, Features: network.AllFeatures, Timeout: 2 * time.Second},
		Log:       logging.TestingLog(t),
	}
}

func startRefNode(t *testing.T, cluster ...crypto.PublicKey) *refnode.Node {
	n, err := refnode.Start(refnode.Config{
		PeerAddr:        "127.0.0.1:0",
		AdminAddr:       "127.0.0.1:0",
		Session:         testSessionConfig(t),
		Registry:        metrics.MakeRegistry(),
		Log:             logging.TestingLog(t),
		ProposeInterval: 100 * time.Millisecond,
		Cluster:         cluster,
	})
	require.NoError(t, err)
	t.Cleanup(n.Close)
	return n
}

func testRunnerConfig(t *testing.T, target string, admin *nodectl.Client) RunnerConfig {
	session := testSessionConfig(t)
	session.Handshake.Keys = nil
	return RunnerConfig{
		Target:          target,
		Admin:           admin,
		Session:         session,
		Timeout:         5 * time.Second,
		RejectionWindow: time.Second,
		Log:             logging.TestingLog(t),
	}
}

func testRunner(t *testing.T, target string, admin *nodectl.Client) *Runner {
	return MakeRunner(testRunnerConfig(t, target, admin))
}

func TestBuiltinsAgainstReferenceNode(t *testing.T) {
	partitiontest.PartitionTest(t)

	n := startRefNode(t)
	r := testRunner(t, n.PeerAddr(), nodectl.MakeClient(n.AdminURL()))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report := r.Run(ctx, Builtins(0xC0FFEE))
	require.Len(t, report.Outcomes, 27)
	require.True(t, report.Passed(), "%+v", report.Failures())
	for _, o := range report.Outcomes {
		require.Greater(t, o.Elapsed, time.Duration(0))
		if o.Scenario == "cluster" {
			// the runner's keys are fresh, so the node cannot list them
			require.Equal(t, Skipped, o.Status)
			require.NotEmpty(t, o.Assertion)
			continue
		}
		require.Equal(t, Pass, o.Status, o.Scenario)
		require.Empty(t, o.Assertion, o.Scenario)
	}
	require.Equal(t, 26, report.Count(Pass))
	require.Equal(t, 1, report.Count(Skipped))
}

func TestClusterMember(t *testing.T) {
	partitiontest.PartitionTest(t)

	keys, err := crypto.GenerateNodeKeys()
	require.NoError(t, err)
	n := startRefNode(t, keys.Public)
	cfg := testRunnerConfig(t, n.PeerAddr(), nil)
	cfg.Session.Handshake.Keys = keys

	o := MakeRunner(cfg).RunScenario(context.Background(), ClusterStatus())
	require.Equal(t, Skipped, o.Status)
	require.Contains(t, o.Assertion, "not a cluster member")

	cfg.ClusterMember = true
	o = MakeRunner(cfg).RunScenario(context.Background(), ClusterStatus())
	require.Equal(t, Pass, o.Status, o.Assertion)

	// a member key the node does not list never gets a report
	cfg.Session.Handshake.Keys = nil
	sc := ClusterStatus()
	sc.Timeout = 500 * time.Millisecond
	o = MakeRunner(cfg).RunScenario(context.Background(), sc)
	require.Equal(t, Timeout, o.Status)
}

func TestLedgerReplaySkipped(t *testing.T) {
	partitiontest.PartitionTest(t)

	n := startRefNode(t)
	cfg := testRunnerConfig(t, n.PeerAddr(), nodectl.MakeClient(n.AdminURL()))
	cfg.Session.Handshake.Features.LedgerReplay = false
	cfg.Session.Handshake.Features.TxReduceRelay = false
	r := MakeRunner(cfg)
	for _, sc := range []Scenario{ProofPath(), ReplayDelta(), HaveTransactionsQuery()} {
		o := r.RunScenario(context.Background(), sc)
		require.Equal(t, Skipped, o.Status, sc.Name)
		require.True(t, o.Passed(), sc.Name)
		require.Contains(t, o.Assertion, "not negotiated", sc.Name)
	}

	// with the feature but no admin endpoint the ledger hash is unknown
	cfg = testRunnerConfig(t, n.PeerAddr(), nil)
	o := MakeRunner(cfg).RunScenario(context.Background(), ProofPath())
	require.Equal(t, Fail, o.Status)
	require.Contains(t, o.Assertion, errNeedsAdmin.Error())
}

func TestOversizedHeader(t *testing.T) {
	partitiontest.PartitionTest(t)

	n := startRefNode(t)
	r := testRunner(t, n.PeerAddr(), nodectl.MakeClient(n.AdminURL()))
	for _, role := range []Role{Initiator, Responder} {
		sc := OversizedHeader(role)
		require.Equal(t, "oversized-header/"+role.String(), sc.Name)
		o := r.RunScenario(context.Background(), sc)
		require.Equal(t, Pass, o.Status, "%s: %s", sc.Name, o.Assertion)
	}
}

func TestPingEchoTimesOut(t *testing.T) {
	partitiontest.PartitionTest(t)

	cfg := testSessionConfig(t)
	cfg.Behavior = network.Behavior{}
	silent, err := network.MakeNode(network.NodeConfig{ListenAddr: "127.0.0.1:0", Session: cfg})
	require.NoError(t, err)
	require.NoError(t, silent.Start())
	t.Cleanup(silent.Close)

	sc := PingEcho(9)
	sc.Timeout = 300 * time.Millisecond
	o := testRunner(t, silent.Addr(), nil).RunScenario(context.Background(), sc)
	require.Equal(t, Timeout, o.Status)
	require.Equal(t, network.StateEstablished, o.LastState)
	require.NotEmpty(t, o.Assertion)
}

func TestPingEchoWrongSequence(t *testing.T) {
	partitiontest.PartitionTest(t)

	cfg := testSessionConfig(t)
	cfg.Behavior = network.Behavior{protocol.PingType: func(s *network.Session, msg protocol.Message) []protocol.Message {
		p, err := msg.Decode()
		if err != nil {
			return nil
		}
		pong := p.(*protocol.Ping).Reply()
		pong.Seq++
		return []protocol.Message{protocol.NewMessage(pong)}
	}}
	liar, err := network.MakeNode(network.NodeConfig{ListenAddr: "127.0.0.1:0", Session: cfg})
	require.NoError(t, err)
	require.NoError(t, liar.Start())
	t.Cleanup(liar.Close)

	o := testRunner(t, liar.Addr(), nil).RunScenario(context.Background(), PingEcho(9))
	require.Equal(t, Fail, o.Status)
	require.Equal(t, network.StateEstablished, o.LastState)
	require.Contains(t, o.Assertion, "pong echoes sequence 10, sent 9")
}

func TestResponderNeedsAdmin(t *testing.T) {
	partitiontest.PartitionTest(t)

	n := startRefNode(t)
	r := testRunner(t, n.PeerAddr(), nil)
	for _, sc := range []Scenario{PeerCountIncrement(), HandshakeBitflip(FlipSignature, Responder)} {
		o := r.RunScenario(context.Background(), sc)
		require.Equal(t, Fail, o.Status, sc.Name)
		require.Equal(t, network.StateConnecting, o.LastState, sc.Name)
		require.Contains(t, o.Assertion, errNeedsAdmin.Error(), sc.Name)
	}
}

func TestRejectionNotExpected(t *testing.T) {
	partitiontest.PartitionTest(t)

	// a corrupted handshake against an unreachable target is not a rejection
	n := startRefNode(t)
	addr := n.PeerAddr()
	n.Close()

	o := testRunner(t, addr, nil).RunScenario(context.Background(), HandshakeBitflip(FlipPublicKey, Initiator))
	require.Equal(t, Fail, o.Status)
	require.Contains(t, o.Assertion, "did not reach the node")
}

func TestSelect(t *testing.T) {
	partitiontest.PartitionTest(t)

	all := Builtins(1)
	bitflips := Select(all, []string{"bitflip/"})
	require.Len(t, bitflips, 6)
	require.Len(t, Select(all, nil), len(all))
	some := Select(all, []string{"ping", "handshake/initiator"})
	require.Len(t, some, 2)
	require.Equal(t, "handshake/initiator", some[0].Name)
	require.Equal(t, "ping-echo", some[1].Name)
	require.Len(t, Select(all, []string{"get-objects/"}), 2)
	require.Len(t, Select(all, []string{"oversized-header/"}), 2)
}

func TestNames(t *testing.T) {
	partitiontest.PartitionTest(t)

	require.Equal(t, "pass", Pass.String())
	require.Equal(t, "timeout", Timeout.String())
	require.Equal(t, "skip", Skipped.String())
	require.Equal(t, "status(7)", Status(7).String())
	require.Equal(t, "responder", Responder.String())
	require.Equal(t, "shared-value", FlipSharedValue.String())
}
