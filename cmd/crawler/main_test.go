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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/xrpl-synth/synthpeer/config"
	"github.com/xrpl-synth/synthpeer/crawler"
	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/refnode"
	"github.com/xrpl-synth/synthpeer/test/partitiontest"
	"github.com/xrpl-synth/synthpeer/util/metrics"
)

func TestCrawlerConfig(t *testing.T) {
	partitiontest.PartitionTest(t)

	cfg := config.GetDefaultLocal()
	cfg.CrawlerSeeds = "10.0.0.1:51235; r.ripple.com"
	cfg.CrawlerDNSServers = "127.0.0.1:53"
	cfg.CrawlerDialRate = 5
	cc := crawlerConfig(cfg, network.SessionConfig{}, logging.TestingLog(t), metrics.MakeRegistry())
	require.Equal(t, []string{"10.0.0.1:51235", "r.ripple.com"}, cc.Seeds)
	require.Equal(t, []string{"127.0.0.1:53"}, cc.Resolver.Servers)
	require.Equal(t, rate.Limit(5), cc.DialRate)
	require.Equal(t, 16, cc.Workers)
	require.Equal(t, 10*time.Second, cc.VisitTimeout)
}

func TestRunNeedsSeeds(t *testing.T) {
	partitiontest.PartitionTest(t)

	var out bytes.Buffer
	err := run(context.Background(), config.GetDefaultLocal(), logging.TestingLog(t), &out)
	require.ErrorContains(t, err, "no seed addresses")
}

func TestRunCrawlsReferenceNode(t *testing.T) {
	partitiontest.PartitionTest(t)

	cfg := config.GetDefaultLocal()
	sc, err := network.MakeSessionConfig(cfg, logging.TestingLog(t))
	require.NoError(t, err)
	sc.Handshake.UserAgent = ""
	n, err := refnode.Start(refnode.Config{PeerAddr: "127.0.0.1:0", Session: sc, Registry: metrics.MakeRegistry(), Log: logging.TestingLog(t)})
	require.NoError(t, err)
	defer n.Close()

	cfg.CrawlerSeeds = n.PeerAddr()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	var out bytes.Buffer
	require.NoError(t, run(ctx, cfg, logging.TestingLog(t), &out))

	var s crawler.MetricsSnapshot
	require.NoError(t, json.Unmarshal(out.Bytes(), &s))
	require.Equal(t, 1, s.NumKnownNodes)
	require.Equal(t, 1, s.NumGoodNodes)
	require.Equal(t, map[string]int{refnode.Version: 1}, s.UserAgents)
	require.Equal(t, n.Peer().PublicKey().String(), s.Nodes[0].PublicKey)
}
