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
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xrpl-synth/synthpeer/config"
	"github.com/xrpl-synth/synthpeer/conformance"
	"github.com/xrpl-synth/synthpeer/fuzzing"
	"github.com/xrpl-synth/synthpeer/loaddriver"
	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/nodectl"
	"github.com/xrpl-synth/synthpeer/refnode"
	"github.com/xrpl-synth/synthpeer/util/metrics"
)

// loadLocal reads the config file. A missing file is only an error when it
// was named explicitly.
func loadLocal(path string, explicit, reset bool) (config.Local, error) {
	if reset {
		return config.GetDefaultLocal(), nil
	}
	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return config.GetDefaultLocal(), nil
		}
		return cfg, fmt.Errorf("loading %s: %w", path, err)
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Local) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("target") {
		cfg.TargetAddress = targetAddr
	}
	if flags.Changed("admin") {
		cfg.AdminURL = adminURL
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func makeLogger(cfg config.Local) (logging.Logger, io.Closer, error) {
	l := logging.NewLogger()
	l.SetLevel(logging.LevelFromString(cfg.LogLevel))
	if cfg.LogJSON {
		l.SetJSONFormatter()
	}
	if cfg.LogFile == "" {
		return l, nopCloser{}, nil
	}
	archive := cfg.LogArchiveFile
	if archive == "" {
		archive = cfg.LogFile + ".archive"
	}
	w, err := logging.MakeCyclicFileWriter(cfg.LogFile, archive, cfg.LogSizeLimit)
	if err != nil {
		return nil, nil, err
	}
	l.SetOutput(w)
	return l, w, nil
}

func conformanceConfig(cfg config.Local, sc network.SessionConfig, l logging.Logger) conformance.RunnerConfig {
	rc := conformance.RunnerConfig{
		Target:          cfg.TargetAddress,
		ListenAddr:      cfg.ListenAddress,
		Session:         sc,
		Timeout:         cfg.ConformanceTimeout,
		RejectionWindow: cfg.RejectionWindow,
		ClusterMember:   cfg.ClusterMember,
		Log:             l,
	}
	if cfg.AdminURL != "" {
		rc.Admin = nodectl.MakeClient(cfg.AdminURL)
	}
	return rc
}

// conformanceScenarios applies ScenarioFilter and drops responder scenarios
// when there is no admin endpoint to make the node dial out.
func conformanceScenarios(cfg config.Local, pingSeq uint32) (run []conformance.Scenario, skipped []string) {
	for _, sc := range conformance.Select(conformance.Builtins(pingSeq), config.SplitList(cfg.ScenarioFilter)) {
		if sc.Role == conformance.Responder && cfg.AdminURL == "" {
			skipped = append(skipped, sc.Name)
			continue
		}
		run = append(run, sc)
	}
	return
}

func fuzzConfigs(cfg config.Local, sc network.SessionConfig, l logging.Logger, reg *metrics.Registry) (fuzzing.GeneratorConfig, fuzzing.RunnerConfig, error) {
	gen := fuzzing.GeneratorConfig{
		Seed:           cfg.FuzzSeed,
		Iterations:     cfg.FuzzIterations,
		MaxSize:        cfg.FuzzMaxSize,
		CorruptPercent: cfg.FuzzCorruptPercent,
	}
	if gen.Seed == 0 {
		gen.Seed = time.Now().UnixNano()
	}
	for _, name := range config.SplitList(cfg.FuzzCategories) {
		c, err := fuzzing.ParseCategory(name)
		if err != nil {
			return gen, fuzzing.RunnerConfig{}, err
		}
		gen.Categories = append(gen.Categories, c)
	}
	run := fuzzing.RunnerConfig{
		Target:            cfg.TargetAddress,
		Session:           sc,
		PreHandshake:      cfg.FuzzPreHandshake,
		DisconnectTimeout: cfg.FuzzDisconnectTimeout,
		RecoveryTimeout:   cfg.FuzzRecoveryTimeout,
		RequireDisconnect: cfg.FuzzRequireDisconnect,
		Registry:          reg,
		Log:               l,
	}
	return gen, run, nil
}

func loadConfigs(cfg config.Local, sc network.SessionConfig, l logging.Logger, reg *metrics.Registry) (loaddriver.PingConfig, loaddriver.ConnectionConfig) {
	ping := loaddriver.PingConfig{
		Target:       cfg.TargetAddress,
		Session:      sc,
		PingsPerPeer: cfg.LoadPingsPerPeer,
		Interval:     cfg.LoadPingInterval,
		PingTimeout:  cfg.LoadPingTimeout,
		LatencyBound: cfg.LoadLatencyBound,
		Registry:     reg,
		Log:          l,
	}
	conns := loaddriver.ConnectionConfig{
		Target:           cfg.TargetAddress,
		Session:          sc,
		MaxPeers:         cfg.LoadMaxPeers,
		HoldTime:         cfg.LoadHoldTime,
		IterationTimeout: cfg.LoadIterationTimeout,
		Registry:         reg,
		Log:              l,
	}
	return ping, conns
}

func refnodeConfig(cfg config.Local, sc network.SessionConfig, l logging.Logger, reg *metrics.Registry) refnode.Config {
	return refnode.Config{
		PeerAddr:  cfg.RefNodePeerAddress,
		AdminAddr: cfg.RefNodeAdminAddress,
		MaxPeers:  cfg.RefNodeMaxPeers,
		Session:   sc,
		Registry:  reg,
		Log:       l,
	}
}

func randomPingSeq() uint32 {
	return rand.Uint32()
}
