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
	"net"
	"sort"
	"time"
)

// Duration serializes as seconds and nanoseconds.
type Duration struct {
	Secs  uint64 `json:"secs"`
	Nanos uint32 `json:"nanos"`
}

func makeDuration(d time.Duration) Duration {
	if d < 0 {
		d = 0
	}
	return Duration{Secs: uint64(d / time.Second), Nanos: uint32(d % time.Second)}
}

// NodeSnapshot is the serializable view of one CrawlNode.
type NodeSnapshot struct {
	Address         string   `json:"address"`
	Status          string   `json:"status"`
	PublicKey       string   `json:"public_key,omitempty"`
	UserAgent       string   `json:"user_agent,omitempty"`
	Neighbors       []string `json:"neighbors"`
	HandshakeTimeMs int64    `json:"handshake_time_ms,omitempty"`
	Attempts        int      `json:"attempts"`
	Failure         string   `json:"failure,omitempty"`
}

// MetricsSnapshot is a consistent copy of the known network, safe to read
// while the crawl goes on.
type MetricsSnapshot struct {
	NumKnownNodes       int            `json:"num_known_nodes"`
	NumGoodNodes        int            `json:"num_good_nodes"`
	NumKnownConnections int            `json:"num_known_connections"`
	NodeIPs             []string       `json:"node_ips"`
	UserAgents          map[string]int `json:"user_agents"`
	CrawlerRuntime      Duration       `json:"crawler_runtime"`
	Pending             int            `json:"pending"`
	InFlight            int            `json:"in_flight"`
	Done                int            `json:"done"`
	Nodes               []NodeSnapshot `json:"nodes"`
}

// Snapshot copies the frontier under its lock.
func (f *Frontier) Snapshot() MetricsSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := f.countsLocked()
	s := MetricsSnapshot{
		NumKnownNodes:       len(f.nodes),
		NumKnownConnections: f.connections.Cardinality(),
		NodeIPs:             []string{},
		UserAgents:          make(map[string]int),
		CrawlerRuntime:      makeDuration(f.now().Sub(f.started)),
		Pending:             counts[Pending],
		InFlight:            counts[InFlight],
		Done:                counts[Done],
		Nodes:               make([]NodeSnapshot, 0, len(f.nodes)),
	}
	ips := make(map[string]struct{})
	for _, n := range f.nodes {
		neighbors := n.Neighbors.ToSlice()
		sort.Strings(neighbors)
		s.Nodes = append(s.Nodes, NodeSnapshot{
			Address:         n.Address,
			Status:          n.Status.String(),
			PublicKey:       n.PublicKey,
			UserAgent:       n.UserAgent,
			Neighbors:       neighbors,
			HandshakeTimeMs: n.HandshakeTime.Milliseconds(),
			Attempts:        n.Attempts,
			Failure:         n.Failure,
		})
		if !n.Good() {
			continue
		}
		s.NumGoodNodes++
		if n.UserAgent != "" {
			s.UserAgents[n.UserAgent]++
		}
		host, _, err := net.SplitHostPort(n.Address)
		if err != nil {
			host = n.Address
		}
		ips[host] = struct{}{}
	}
	for ip := range ips {
		s.NodeIPs = append(s.NodeIPs, ip)
	}
	sort.Strings(s.NodeIPs)
	sort.Slice(s.Nodes, func(i, j int) bool { return s.Nodes[i].Address < s.Nodes[j].Address })
	return s
}
