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

// Package metrics wraps the prometheus client with the small surface the
// harness needs: named counters, gauges and histograms that take label maps
// at update time and register themselves on a Registry.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricName describes the name and description of a single metric
type MetricName struct {
	Name        string
	Description string
}

var (
	// NetworkConnectionsAccepted counts inbound connections that completed a handshake
	NetworkConnectionsAccepted = MetricName{Name: "synthpeer_network_connections_accepted_total", Description: "Inbound connections that completed a handshake"}
	// NetworkConnectionsDropped counts connections closed before or after the handshake, by reason
	NetworkConnectionsDropped = MetricName{Name: "synthpeer_network_connections_dropped_total", Description: "Connections dropped, by reason"}
	// NetworkMessagesReceived counts decoded messages, by type
	NetworkMessagesReceived = MetricName{Name: "synthpeer_network_messages_received_total", Description: "Messages received, by type"}
	// NetworkMessagesSent counts framed messages written, by type
	NetworkMessagesSent = MetricName{Name: "synthpeer_network_messages_sent_total", Description: "Messages sent, by type"}
	// NetworkEstablishedSessions is the number of sessions currently established
	NetworkEstablishedSessions = MetricName{Name: "synthpeer_network_established_sessions", Description: "Sessions currently established"}
	// RelayDecisions counts relay controller decisions, by outcome
	RelayDecisions = MetricName{Name: "synthpeer_relay_decisions_total", Description: "Relay controller decisions, by outcome"}
	// LoadPingLatency is the ping round trip latency histogram in seconds
	LoadPingLatency = MetricName{Name: "synthpeer_load_ping_latency_seconds", Description: "Ping round trip latency"}
	// LoadConnectionOutcomes counts connection load attempts, by outcome
	LoadConnectionOutcomes = MetricName{Name: "synthpeer_load_connection_outcomes_total", Description: "Connection load attempts, by outcome"}
	// CrawlerNodesVisited counts addresses that reached Done
	CrawlerNodesVisited = MetricName{Name: "synthpeer_crawler_nodes_visited_total", Description: "Addresses visited by the crawler"}
	// CrawlerDialFailures counts addresses marked Done with a failure
	CrawlerDialFailures = MetricName{Name: "synthpeer_crawler_dial_failures_total", Description: "Addresses the crawler failed to reach"}
	// CrawlerFrontierSize is the number of frontier entries by status
	CrawlerFrontierSize = MetricName{Name: "synthpeer_crawler_frontier_entries", Description: "Frontier entries, by status"}
	// FuzzOutcomes counts fuzz candidates by category and outcome
	FuzzOutcomes = MetricName{Name: "synthpeer_fuzz_outcomes_total", Description: "Fuzz candidates, by category and outcome"}
)

// Registry holds the collectors of one harness process.
type Registry struct {
	reg *prometheus.Registry
}

var defaultRegistry = MakeRegistry()

// DefaultRegistry returns the registry used when a nil registry is passed.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// MakeRegistry creates a new, empty registry.
func MakeRegistry() *Registry {
	return &Registry{reg: prometheus.NewRegistry()}
}

// Gatherer exposes the underlying prometheus gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus text exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// register adds c to the registry. A collector with an identical
// description that is already registered is returned instead, so that two
// components creating the same metric share one series.
func (r *Registry) register(c prometheus.Collector) prometheus.Collector {
	if r == nil {
		r = defaultRegistry
	}
	if err := r.reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		// inconsistent descriptions; keep the collector usable but unexported
		return c
	}
	return c
}
