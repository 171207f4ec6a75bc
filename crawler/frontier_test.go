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

package crawler

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/xrpl-synth/synthpeer/test/partitiontest"
	"github.com/xrpl-synth/synthpeer/util/metrics"
)

func TestFrontierUniqueFIFO(t *testing.T) {
	partitiontest.PartitionTest(t)

	f := MakeFrontier(metrics.MakeRegistry())
	require.True(t, f.Add("10.0.0.1:51235"))
	require.True(t, f.Add("10.0.0.2:51235"))
	require.False(t, f.Add("10.0.0.1:51235"))

	first, ok := f.Next()
	require.True(t, ok)
	require.Equal(t, "10.0.0.1:51235", first)
	second, ok := f.Next()
	require.True(t, ok)
	require.Equal(t, "10.0.0.2:51235", second)
	_, ok = f.Next()
	require.False(t, ok)
	require.False(t, f.Finished())
	require.Equal(t, map[Status]int{Pending: 0, InFlight: 2, Done: 0}, f.Counts())

	// a known address stays unique even after it is visited
	f.Complete(first, Visit{Attempts: 1, Neighbors: []string{"10.0.0.2:51235"}})
	require.False(t, f.Add(first))
	_, ok = f.Next()
	require.False(t, ok)
}

func TestFrontierComplete(t *testing.T) {
	partitiontest.PartitionTest(t)

	reg := metrics.MakeRegistry()
	f := MakeFrontier(reg)
	f.Add("a:1")
	address, _ := f.Next()

	f.Complete(address, Visit{
		PublicKey:     "n9Key",
		UserAgent:     "rippled-2.2.0",
		HandshakeTime: 15 * time.Millisecond,
		Neighbors:     []string{"b:1", "c:1", "a:1", "b:1"},
		Attempts:      2,
	})
	n, ok := f.Node("a:1")
	require.True(t, ok)
	require.Equal(t, Done, n.Status)
	require.True(t, n.Good())
	require.Equal(t, 2, n.Attempts)
	require.Equal(t, "rippled-2.2.0", n.UserAgent)
	require.ElementsMatch(t, []string{"b:1", "c:1"}, n.Neighbors.ToSlice())

	// completing twice, or completing an address not in flight, is ignored
	f.Complete("a:1", Visit{Err: errors.New("late")})
	f.Complete("b:1", Visit{Err: errors.New("not in flight")})
	n, _ = f.Node("a:1")
	require.True(t, n.Good())
	b, _ := f.Node("b:1")
	require.Equal(t, Pending, b.Status)

	next, _ := f.Next()
	require.Equal(t, "b:1", next)
	f.Complete(next, Visit{Attempts: 4, Err: errors.New("connection refused")})
	b, _ = f.Node("b:1")
	require.False(t, b.Good())
	require.Equal(t, "connection refused", b.Failure)
	require.Equal(t, 4, b.Attempts)

	require.Equal(t, uint64(2), metrics.MakeCounter(reg, metrics.CrawlerNodesVisited).GetUint64ValueForLabels(nil))
	require.Equal(t, uint64(1), metrics.MakeCounter(reg, metrics.CrawlerDialFailures).GetUint64ValueForLabels(nil))
	gauge := metrics.MakeGauge(reg, metrics.CrawlerFrontierSize, "status")
	require.Equal(t, float64(1), gauge.Value(map[string]string{"status": "pending"}))
	require.Equal(t, float64(2), gauge.Value(map[string]string{"status": "done"}))
}

func TestFrontierRequeueKeepsGoodNodes(t *testing.T) {
	partitiontest.PartitionTest(t)

	f := MakeFrontier(metrics.MakeRegistry())
	f.Add("a:1")
	address, _ := f.Next()
	f.Complete(address, Visit{Attempts: 1})
	require.True(t, f.Finished())

	require.Equal(t, 1, f.Requeue())
	require.False(t, f.Finished())
	s := f.Snapshot()
	require.Equal(t, 1, s.NumGoodNodes)
	require.Equal(t, 1, s.Pending)

	select {
	case <-f.Changed():
	default:
		t.Fatal("requeue did not signal a change")
	}
}

func TestSnapshot(t *testing.T) {
	partitiontest.PartitionTest(t)

	f := MakeFrontier(metrics.MakeRegistry())
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f.started = start
	f.now = func() time.Time { return start.Add(90*time.Second + 250*time.Millisecond) }

	f.Add("10.0.0.1:51235")
	a, _ := f.Next()
	f.Complete(a, Visit{UserAgent: "rippled-2.2.0", Attempts: 1, Neighbors: []string{"10.0.0.2:51235", "10.0.0.3:6000"}})
	b, _ := f.Next()
	f.Complete(b, Visit{UserAgent: "rippled-2.2.0", Attempts: 1, Neighbors: []string{"10.0.0.1:51235"}})
	c, _ := f.Next()
	f.Complete(c, Visit{Attempts: 3, Err: errors.New("timeout")})

	s := f.Snapshot()
	want := MetricsSnapshot{
		NumKnownNodes:       3,
		NumGoodNodes:        2,
		NumKnownConnections: 2,
		NodeIPs:             []string{"10.0.0.1", "10.0.0.2"},
		UserAgents:          map[string]int{"rippled-2.2.0": 2},
		CrawlerRuntime:      Duration{Secs: 90, Nanos: 250000000},
		Done:                3,
		Nodes: []NodeSnapshot{
			{Address: "10.0.0.1:51235", Status: "done", UserAgent: "rippled-2.2.0", Neighbors: []string{"10.0.0.2:51235", "10.0.0.3:6000"}, Attempts: 1},
			{Address: "10.0.0.2:51235", Status: "done", UserAgent: "rippled-2.2.0", Neighbors: []string{"10.0.0.1:51235"}, Attempts: 1},
			{Address: "10.0.0.3:6000", Status: "done", Neighbors: []string{}, Attempts: 3, Failure: "timeout"},
		},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestFrontierProperties(t *testing.T) {
	partitiontest.PartitionTest(t)

	rapid.Check(t, func(t *rapid.T) {
		f := MakeFrontier(metrics.MakeRegistry())
		addr := rapid.Custom(func(t *rapid.T) string {
			return fmt.Sprintf("10.0.0.%d:51235", rapid.IntRange(1, 12).Draw(t, "host"))
		})
		known := make(map[string]bool)
		var inFlight []string

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				a := addr.Draw(t, "add")
				require.Equal(t, !known[a], f.Add(a))
				known[a] = true
			case 1:
				if a, ok := f.Next(); ok {
					inFlight = append(inFlight, a)
				}
			case 2:
				if len(inFlight) == 0 {
					continue
				}
				j := rapid.IntRange(0, len(inFlight)-1).Draw(t, "complete")
				a := inFlight[j]
				inFlight = append(inFlight[:j], inFlight[j+1:]...)
				neighbors := rapid.SliceOfN(addr, 0, 4).Draw(t, "neighbors")
				f.Complete(a, Visit{Attempts: 1, Neighbors: neighbors})
				for _, n := range neighbors {
					known[n] = true
				}
			}

			counts := f.Counts()
			require.Equal(t, len(known), counts[Pending]+counts[InFlight]+counts[Done])
			require.Equal(t, len(inFlight), counts[InFlight])
			s := f.Snapshot()
			require.Len(t, s.Nodes, len(known))
		}
	})
}
