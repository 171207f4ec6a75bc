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

package config

import (
	"time"
)

// Local holds the harness settings shared by every synthpeer command.
//
// The version tags record the default of each field per config version and
// must not change once released. A new default is introduced by adding a
// version[N] tag to the field and to Version.
type Local struct {
	// Version tracks the defaults a config file was written against so that
	// values equal to an old default migrate to the new one.
	Version uint32 `version[0]:"0" version[1]:"1"`

	// LogLevel is one of panic, fatal, error, warn, info or debug.
	LogLevel string `version[0]:"info"`

	// LogJSON switches log output to one JSON object per line.
	LogJSON bool `version[0]:"false"`

	// LogFile, when set, sends logs to a file instead of stderr. The file is
	// moved to LogArchiveFile once it reaches LogSizeLimit bytes.
	LogFile        string `version[0]:""`
	LogArchiveFile string `version[0]:""`
	LogSizeLimit   uint64 `version[0]:"1073741824"`

	// UsageLogPeriod logs the CPU share of long running commands this often.
	// Zero disables it.
	UsageLogPeriod time.Duration `version[0]:"0"`

	// NetworkID is sent in the Network-ID header when set and checked
	// against the one the remote peer sends.
	NetworkID string `version[0]:""`

	// UserAgent is sent in the User-Agent and Server headers.
	UserAgent string `version[0]:"synthpeer-1.0"`

	// NodeSecretToken fixes the node identity of synthetic peers. Empty
	// generates a fresh key pair per session.
	NodeSecretToken string `version[0]:""`

	// EnableTLS wraps peer connections in TLS 1.2. The shared value is then
	// derived from the TLS Finished messages instead of the endpoint
	// addresses.
	EnableTLS bool `version[0]:"true"`

	// EnableCompression advertises and uses LZ4 compressed frames.
	EnableCompression bool `version[0]:"false"`

	// MaxPayloadSize bounds decoded payloads. Zero selects the protocol limit.
	MaxPayloadSize int `version[0]:"0"`

	// HandshakeTimeout bounds the HTTP upgrade exchange.
	HandshakeTimeout time.Duration `version[0]:"5000000000"`

	// TargetAddress is the peer protocol address of the node under test.
	TargetAddress string `version[0]:"127.0.0.1:51235"`

	// AdminURL is the admin RPC endpoint of the node under test. Responder
	// scenarios are skipped without it.
	AdminURL string `version[0]:""`

	// ListenAddress is where the harness waits for connections the node
	// under test makes.
	ListenAddress string `version[0]:"127.0.0.1:0"`

	// ConformanceTimeout bounds each conformance scenario.
	ConformanceTimeout time.Duration `version[0]:"10000000000"`

	// RejectionWindow is how long a node may keep a corrupted session open.
	RejectionWindow time.Duration `version[0]:"2000000000"`

	// ScenarioFilter is a ;-separated list of scenario name prefixes. Empty
	// runs every scenario.
	ScenarioFilter string `version[0]:""`

	// ClusterMember states that the node under test lists the public key of
	// NodeSecretToken in its cluster configuration. The cluster scenario is
	// skipped otherwise.
	ClusterMember bool `version[0]:"false"`

	// FuzzSeed seeds the fuzz generator. Zero picks a seed from the clock;
	// the seed used is always logged.
	FuzzSeed int64 `version[0]:"0"`

	// FuzzIterations is the number of candidates per category.
	FuzzIterations int `version[0]:"20"`

	// FuzzMaxSize bounds the length of random payloads.
	FuzzMaxSize int `version[0]:"65536"`

	// FuzzCorruptPercent is the share of body bytes a corrupted body rewrites.
	FuzzCorruptPercent int `version[0]:"25"`

	// FuzzCategories is a ;-separated list of categories. Empty runs all.
	FuzzCategories string `version[0]:""`

	// FuzzPreHandshake sends candidates before any handshake.
	FuzzPreHandshake bool `version[0]:"false"`

	// FuzzDisconnectTimeout bounds the wait for the node to drop a session
	// after a candidate.
	FuzzDisconnectTimeout time.Duration `version[0]:"200000000"`

	// FuzzRecoveryTimeout bounds the well-formed connection made after each
	// candidate.
	FuzzRecoveryTimeout time.Duration `version[0]:"5000000000"`

	// FuzzRequireDisconnect fails candidates the node ignores.
	FuzzRequireDisconnect bool `version[0]:"false"`

	// LoadPeers is the ;-separated sweep of concurrent peer counts.
	LoadPeers string `version[0]:"1;10;50"`

	// LoadPingsPerPeer is the number of pings each peer sends.
	LoadPingsPerPeer int `version[0]:"50"`

	// LoadPingInterval paces the pings of one peer.
	LoadPingInterval time.Duration `version[0]:"0"`

	// LoadPingTimeout bounds the wait for each pong.
	LoadPingTimeout time.Duration `version[0]:"10000000000"`

	// LoadLatencyBound is the p99 ping latency the node must stay under.
	LoadLatencyBound time.Duration `version[0]:"1000000000"`

	// LoadMaxPeers is the peer capacity the node under test was configured
	// with. Zero skips the connection sweep.
	LoadMaxPeers int `version[0]:"0"`

	// LoadHoldTime is how long accepted peers stay connected.
	LoadHoldTime time.Duration `version[0]:"2000000000"`

	// LoadIterationTimeout bounds one connection load run.
	LoadIterationTimeout time.Duration `version[0]:"20000000000"`

	// CrawlerSeeds is the ;-separated list of seed addresses or host names.
	CrawlerSeeds string `version[0]:""`

	// CrawlerRPCAddress is where the crawler serves its JSON-RPC endpoint.
	// Empty disables the endpoint.
	CrawlerRPCAddress string `version[0]:""`

	// CrawlerWorkers bounds concurrent visits.
	CrawlerWorkers int `version[0]:"8" version[1]:"16"`

	// CrawlerVisitTimeout bounds a single visit attempt.
	CrawlerVisitTimeout time.Duration `version[0]:"5000000000" version[1]:"10000000000"`

	// CrawlerDialRate is the number of dials per second across all workers.
	CrawlerDialRate int `version[0]:"20"`

	// CrawlerMaxRetries bounds retries of transient dial failures.
	CrawlerMaxRetries uint64 `version[0]:"3"`

	// CrawlerRecrawlInterval starts another pass that long after a pass
	// finishes. Zero crawls once.
	CrawlerRecrawlInterval time.Duration `version[0]:"0"`

	// CrawlerDNSServers is a ;-separated list of resolvers used for seed host
	// names. Empty uses the system configuration.
	CrawlerDNSServers string `version[0]:""`

	// RefNodePeerAddress is the peer listen address of synthpeer serve.
	RefNodePeerAddress string `version[0]:"127.0.0.1:51235"`

	// RefNodeAdminAddress is the admin RPC listen address of synthpeer serve.
	RefNodeAdminAddress string `version[0]:"127.0.0.1:5005"`

	// RefNodeMaxPeers bounds inbound peers of synthpeer serve.
	RefNodeMaxPeers int `version[0]:"21"`
}
