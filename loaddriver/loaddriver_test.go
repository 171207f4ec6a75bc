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
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/xrpl-synth/synthpeer/crypto"
	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/test/partitiontest"
	"github.com/xrpl-synth/synthpeer/util/metrics"
)

func testSessionConfig(t *testing.T) network.SessionConfig {
	keys, err := crypto.GenerateNodeKeys()
	require.NoError(t, err)
	return network.SessionConfig{
		Handshake: network.HandshakeConfig{Keys: keys, Features: network.AllFeatures, Timeout: 5 * time.Second},
		Log:       logging.TestingLog(t),
	}
}

func startTarget(t *testing.T, maxPeers int) *network.Node {
	n, err := network.MakeNode(network.NodeConfig{ListenAddr: "127.0.0.1:0", MaxPeers: maxPeers, Session: testSessionConfig(t)})
	require.NoError(t, err)
	require.NoError(t, n.Start())
	t.Cleanup(n.Close)
	return n
}

func TestSummarize(t *testing.T) {
	partitiontest.PartitionTest(t)

	samples := make([]time.Duration, 0, 100)
	for i := 100; i >= 1; i-- {
		samples = append(samples, time.Duration(i)*time.Millisecond)
	}
	st := summarize(samples)
	require.Equal(t, 100, st.Completed)
	require.Equal(t, time.Millisecond, st.Min)
	require.Equal(t, 100*time.Millisecond, st.Max)
	require.Equal(t, 50500*time.Microsecond, st.Mean)
	require.Equal(t, 10*time.Millisecond, st.P10)
	require.Equal(t, 50*time.Millisecond, st.P50)
	require.Equal(t, 90*time.Millisecond, st.P90)
	require.Equal(t, 99*time.Millisecond, st.P99)
	require.InDelta(t, float64(28866*time.Microsecond), float64(st.StdDev), float64(10*time.Microsecond))

	require.Equal(t, LatencyStats{}, summarize(nil))
}

func TestPercentilesOrdered(t *testing.T) {
	partitiontest.PartitionTest(t)

	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOfN(rapid.Int64Range(0, int64(time.Minute)), 1, 200).Draw(t, "samples")
		samples := make([]time.Duration, len(raw))
		for i, v := range raw {
			samples[i] = time.Duration(v)
		}
		st := summarize(samples)
		ordered := []time.Duration{st.Min, st.P10, st.P50, st.P75, st.P90, st.P99, st.Max}
		for i := 1; i < len(ordered); i++ {
			require.LessOrEqual(t, ordered[i-1], ordered[i])
		}
		require.LessOrEqual(t, st.Min, st.Mean)
		require.LessOrEqual(t, st.Mean, st.Max)
	})
}

func TestLatencyStatsRatios(t *testing.T) {
	partitiontest.PartitionTest(t)

	st := LatencyStats{Requested: 200, Completed: 150, Elapsed: 3 * time.Second}
	require.Equal(t, 75.0, st.Completion())
	require.Equal(t, 50.0, st.Throughput())
	require.Zero(t, LatencyStats{}.Completion())
	require.Zero(t, LatencyStats{}.Throughput())
}

func TestPingLoad(t *testing.T) {
	partitiontest.PartitionTest(t)

	target := startTarget(t, 0)
	reg := metrics.MakeRegistry()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	reports, err := RunPingSweep(ctx, PingConfig{
		Target:       target.Addr(),
		Session:      testSessionConfig(t),
		PingsPerPeer: 10,
		LatencyBound: 2 * time.Second,
		Registry:     reg,
		Log:          logging.TestingLog(t),
	}, []int{1, 3})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, r := range reports {
		require.True(t, r.Passed(), "%+v", r)
		require.Equal(t, r.Stats.Peers*10, r.Stats.Completed)
		require.Equal(t, 100.0, r.Stats.Completion())
		require.Zero(t, r.DialErrors)
	}

	var buf bytes.Buffer
	WritePingTable(&buf, reports)
	require.Contains(t, buf.String(), "completion %")
	require.Contains(t, buf.String(), "100.00")
}

func TestPingLoadUnreachable(t *testing.T) {
	partitiontest.PartitionTest(t)

	target := startTarget(t, 0)
	addr := target.Addr()
	target.Close()

	r, err := RunPingLoad(context.Background(), PingConfig{
		Target:       addr,
		Session:      testSessionConfig(t),
		Peers:        2,
		PingsPerPeer: 3,
		Registry:     metrics.MakeRegistry(),
		Log:          logging.TestingLog(t),
	})
	require.NoError(t, err)
	require.False(t, r.Passed())
	require.Equal(t, 2, r.DialErrors)
	require.Equal(t, 6, r.Stats.Requested)
	require.Zero(t, r.Stats.Completed)
}

func TestConnectionLoadSheds(t *testing.T) {
	partitiontest.PartitionTest(t)

	target := startTarget(t, 2)
	reg := metrics.MakeRegistry()
	r, err := RunConnectionLoad(context.Background(), ConnectionConfig{
		Target:   target.Addr(),
		Session:  testSessionConfig(t),
		MaxPeers: 2,
		Peers:    5,
		HoldTime: 500 * time.Millisecond,
		Registry: reg,
		Log:      logging.TestingLog(t),
	})
	require.NoError(t, err)
	require.Equal(t, 2, r.Accepted)
	require.Equal(t, 3, r.Rejected)
	require.Zero(t, r.TimedOut)
	require.True(t, r.Passed())

	outcomes := metrics.MakeCounter(reg, metrics.LoadConnectionOutcomes, "outcome")
	require.Equal(t, uint64(3), outcomes.GetUint64ValueForLabels(map[string]string{"outcome": "rejected"}))

	var buf bytes.Buffer
	WriteConnectionTable(&buf, []ConnectionReport{r})
	require.Contains(t, buf.String(), "terminated")
}

func TestConnectionReportPassed(t *testing.T) {
	partitiontest.PartitionTest(t)

	require.True(t, ConnectionReport{MaxPeers: 2, Accepted: 4, Terminated: 2}.Passed())
	require.False(t, ConnectionReport{MaxPeers: 2, Accepted: 3}.Passed())
	require.False(t, ConnectionReport{MaxPeers: 2, Accepted: 1, TimedOut: 1}.Passed())
	require.True(t, ConnectionReport{Accepted: 10}.Passed())
}

func TestClassifyDialError(t *testing.T) {
	partitiontest.PartitionTest(t)

	require.Equal(t, outcomeRejected, classifyDialError(&network.HandshakeError{Kind: network.Rejected}))
	require.Equal(t, outcomeTimedOut, classifyDialError(&network.HandshakeError{Kind: network.Timeout}))
	require.Equal(t, outcomeTimedOut, classifyDialError(context.DeadlineExceeded))
	require.Equal(t, outcomeError, classifyDialError(network.ErrBadSignature))
}
