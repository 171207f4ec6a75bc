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

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xrpl-synth/synthpeer/test/partitiontest"
)

func TestCounterLabels(t *testing.T) {
	partitiontest.PartitionTest(t)

	reg := MakeRegistry()
	c := MakeCounter(reg, NetworkConnectionsDropped, "reason")
	c.Inc(map[string]string{"reason": "bad_data"})
	c.AddUint64(2, map[string]string{"reason": "bad_data"})
	c.Inc(map[string]string{"reason": "timeout"})
	// mismatched label sets are ignored rather than panicking
	c.Inc(map[string]string{"unknown": "x"})

	require.Equal(t, uint64(3), c.GetUint64ValueForLabels(map[string]string{"reason": "bad_data"}))
	require.Equal(t, uint64(1), c.GetUint64ValueForLabels(map[string]string{"reason": "timeout"}))
}

func TestSharedRegistration(t *testing.T) {
	partitiontest.PartitionTest(t)

	reg := MakeRegistry()
	a := MakeCounter(reg, CrawlerNodesVisited)
	b := MakeCounter(reg, CrawlerNodesVisited)
	a.Inc(nil)
	b.Inc(nil)
	require.Equal(t, uint64(2), a.GetUint64ValueForLabels(nil))
}

func TestGaugeAndHistogramExport(t *testing.T) {
	partitiontest.PartitionTest(t)

	reg := MakeRegistry()
	g := MakeGauge(reg, CrawlerFrontierSize, "status")
	g.Set(4, map[string]string{"status": "pending"})
	g.Add(-1, map[string]string{"status": "pending"})
	require.Equal(t, float64(3), g.Value(map[string]string{"status": "pending"}))

	h := MakeHistogram(reg, LoadPingLatency, nil)
	h.ObserveDuration(3*time.Millisecond, nil)

	srv := httptest.NewServer(reg.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `synthpeer_crawler_frontier_entries{status="pending"} 3`)
	require.Contains(t, string(body), "synthpeer_load_ping_latency_seconds_count 1")
}
