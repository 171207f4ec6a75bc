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
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xrpl-synth/synthpeer/crypto"
	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/protocol"
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

// advertised is the neighbor list a test peer hands out.
type advertised struct {
	mu    sync.Mutex
	addrs []string
}

func (a *advertised) set(addrs ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.addrs = addrs
}

func (a *advertised) endpoints(*network.Session) []protocol.Endpoint {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []protocol.Endpoint
	for _, addr := range a.addrs {
		out = append(out, protocol.Endpoint{Address: addr, Hops: 1})
	}
	return out
}

// startPeer runs a node that advertises the current neighbors when asked.
func startPeer(t *testing.T, userAgent string, neighbors *advertised) *network.Node {
	cfg := testSessionConfig(t)
	cfg.Handshake.UserAgent = userAgent
	cfg.Behavior = network.DefaultBehavior()
	cfg.Behavior[protocol.EndpointsType] = network.AdvertiseEndpoints(neighbors.endpoints)
	n, err := network.MakeNode(network.NodeConfig{ListenAddr: "127.0.0.1:0", Session: cfg})
	require.NoError(t, err)
	require.NoError(t, n.Start())
	t.Cleanup(n.Close)
	return n
}

// closedAddr returns a local address nothing listens on.
func closedAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestCrawlDiscoversNetwork(t *testing.T) {
	partitiontest.PartitionTest(t)

	var aNeighbors, bNeighbors, cNeighbors advertised
	a := startPeer(t, "rippled-2.2.0", &aNeighbors)
	b := startPeer(t, "rippled-2.2.0", &bNeighbors)
	c := startPeer(t, "rippled-2.1.1", &cNeighbors)
	dead := closedAddr(t)
	aNeighbors.set(b.Addr(), dead, "not-an-ip:51235")
	bNeighbors.set(a.Addr(), c.Addr())

	reg := metrics.MakeRegistry()
	cr, err := MakeCrawler(Config{
		Seeds:          []string{a.Addr()},
		Workers:        4,
		VisitTimeout:   2 * time.Second,
		DialRate:       1000,
		MaxRetries:     2,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     20 * time.Millisecond,
		Session:        testSessionConfig(t),
		Registry:       reg,
		Log:            logging.TestingLog(t),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, cr.Run(ctx))

	s := cr.Snapshot()
	require.Equal(t, 4, s.NumKnownNodes)
	require.Equal(t, 3, s.NumGoodNodes)
	require.Equal(t, 3, s.NumKnownConnections)
	require.Equal(t, []string{"127.0.0.1"}, s.NodeIPs)
	require.Equal(t, map[string]int{"rippled-2.2.0": 2, "rippled-2.1.1": 1}, s.UserAgents)
	require.Equal(t, 4, s.Done)

	node, ok := cr.Frontier().Node(b.Addr())
	require.True(t, ok)
	require.Equal(t, b.PublicKey().String(), node.PublicKey)
	require.ElementsMatch(t, []string{a.Addr(), c.Addr()}, node.Neighbors.ToSlice())

	// refused dials are retried before the address is given up on
	failed, ok := cr.Frontier().Node(dead)
	require.True(t, ok)
	require.False(t, failed.Good())
	require.Equal(t, 3, failed.Attempts)
	require.NotEmpty(t, failed.Failure)

	require.Equal(t, uint64(4), metrics.MakeCounter(reg, metrics.CrawlerNodesVisited).GetUint64ValueForLabels(nil))
	require.Equal(t, uint64(1), metrics.MakeCounter(reg, metrics.CrawlerDialFailures).GetUint64ValueForLabels(nil))
}

func TestCrawlSilentPeerFailsOnce(t *testing.T) {
	partitiontest.PartitionTest(t)

	// a node that never advertises endpoints
	cfg := testSessionConfig(t)
	silent, err := network.MakeNode(network.NodeConfig{ListenAddr: "127.0.0.1:0", Session: cfg})
	require.NoError(t, err)
	require.NoError(t, silent.Start())
	t.Cleanup(silent.Close)

	cr, err := MakeCrawler(Config{
		Seeds:        []string{silent.Addr()},
		VisitTimeout: 300 * time.Millisecond,
		Session:      testSessionConfig(t),
		Registry:     metrics.MakeRegistry(),
		Log:          logging.TestingLog(t),
	})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, cr.Run(ctx))

	node, ok := cr.Frontier().Node(silent.Addr())
	require.True(t, ok)
	require.Equal(t, 1, node.Attempts)
	require.Contains(t, node.Failure, errNoEndpoints.Error())
	require.Equal(t, 0, cr.Snapshot().NumGoodNodes)
}

func TestCrawlRecrawlStopsWithContext(t *testing.T) {
	partitiontest.PartitionTest(t)

	var neighbors advertised
	a := startPeer(t, "rippled-2.2.0", &neighbors)
	cr, err := MakeCrawler(Config{
		Seeds:           []string{a.Addr()},
		RecrawlInterval: 50 * time.Millisecond,
		Session:         testSessionConfig(t),
		Registry:        metrics.MakeRegistry(),
		Log:             logging.TestingLog(t),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, cr.Run(ctx), context.DeadlineExceeded)

	node, _ := cr.Frontier().Node(a.Addr())
	require.Greater(t, node.Attempts, 1)
	require.True(t, node.Good())
}

func TestCrawlUnresolvableSeed(t *testing.T) {
	partitiontest.PartitionTest(t)

	cr, err := MakeCrawler(Config{
		Seeds:    []string{"missing.test"},
		Resolver: startTestResolver(t),
		Registry: metrics.MakeRegistry(),
		Log:      logging.TestingLog(t),
	})
	require.NoError(t, err)
	var fatal *FatalSetupError
	require.ErrorAs(t, cr.Run(context.Background()), &fatal)
}

func TestNeighborAddresses(t *testing.T) {
	partitiontest.PartitionTest(t)

	got := neighborAddresses(&protocol.Endpoints{Version: 2, Endpoints: []protocol.Endpoint{
		{Address: "10.0.0.1:51235", Hops: 0},
		{Address: "10.0.0.2:6000", Hops: 1},
		{Address: "10.0.0.3", Hops: 2},
		{Address: "[2001:db8::2]:51235", Hops: 1},
		{Address: "host.example:51235", Hops: 1},
		{Address: "", Hops: 1},
	}})
	require.Equal(t, []string{"10.0.0.2:6000", "10.0.0.3:51235", "[2001:db8::2]:51235"}, got)
}
