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
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/xrpl-synth/synthpeer/config"
	"github.com/xrpl-synth/synthpeer/conformance"
	"github.com/xrpl-synth/synthpeer/fuzzing"
	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/refnode"
	"github.com/xrpl-synth/synthpeer/test/partitiontest"
	"github.com/xrpl-synth/synthpeer/util/metrics"
)

func init() {
	color.NoColor = true
}

func TestLoadLocal(t *testing.T) {
	partitiontest.PartitionTest(t)

	dir := t.TempDir()
	missing := filepath.Join(dir, "absent.json")

	cfg, err := loadLocal(missing, false, false)
	require.NoError(t, err)
	require.Equal(t, config.GetDefaultLocal(), cfg)

	_, err = loadLocal(missing, true, false)
	require.Error(t, err)

	path := filepath.Join(dir, "synthpeer.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Version": 1, "TargetAddress": "10.0.0.9:51235"}`), 0644))
	cfg, err = loadLocal(path, true, false)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.9:51235", cfg.TargetAddress)

	cfg, err = loadLocal(path, true, true)
	require.NoError(t, err)
	require.Equal(t, config.GetDefaultLocal(), cfg)
}

func TestMakeLoggerToFile(t *testing.T) {
	partitiontest.PartitionTest(t)

	cfg := config.GetDefaultLocal()
	cfg.LogFile = filepath.Join(t.TempDir(), "synthpeer.log")
	cfg.LogJSON = true
	cfg.LogLevel = "debug"
	l, closer, err := makeLogger(cfg)
	require.NoError(t, err)
	l.Debugf("written to %s", "file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"written to file"`)
}

func TestConformanceScenariosSkipResponders(t *testing.T) {
	partitiontest.PartitionTest(t)

	cfg := config.GetDefaultLocal()
	cfg.ScenarioFilter = "handshake/;bitflip/signature"
	run, skipped := conformanceScenarios(cfg, 1)
	var names []string
	for _, sc := range run {
		names = append(names, sc.Name)
	}
	require.Equal(t, []string{"handshake/initiator", "bitflip/signature/initiator"}, names)
	require.Equal(t, []string{"handshake/responder", "bitflip/signature/responder"}, skipped)

	cfg.AdminURL = "http://127.0.0.1:5005"
	run, skipped = conformanceScenarios(cfg, 1)
	require.Len(t, run, 4)
	require.Empty(t, skipped)
	require.NotNil(t, conformanceConfig(cfg, network.SessionConfig{}, logging.TestingLog(t)).Admin)
}

func TestFuzzConfigs(t *testing.T) {
	partitiontest.PartitionTest(t)

	cfg := config.GetDefaultLocal()
	cfg.FuzzCategories = "random_bytes;length_mismatch"
	cfg.FuzzSeed = 42
	cfg.FuzzRequireDisconnect = true
	gen, run, err := fuzzConfigs(cfg, network.SessionConfig{}, logging.TestingLog(t), metrics.MakeRegistry())
	require.NoError(t, err)
	require.Equal(t, int64(42), gen.Seed)
	require.Len(t, gen.Categories, 2)
	require.True(t, run.RequireDisconnect)
	require.Equal(t, cfg.TargetAddress, run.Target)

	cfg.FuzzSeed = 0
	gen, _, err = fuzzConfigs(cfg, network.SessionConfig{}, logging.TestingLog(t), metrics.MakeRegistry())
	require.NoError(t, err)
	require.NotZero(t, gen.Seed)

	cfg.FuzzCategories = "random_bytes;nonsense"
	_, _, err = fuzzConfigs(cfg, network.SessionConfig{}, logging.TestingLog(t), metrics.MakeRegistry())
	require.Error(t, err)
}

func TestLoadSettings(t *testing.T) {
	partitiontest.PartitionTest(t)

	cfg := config.GetDefaultLocal()
	cfg.LoadMaxPeers = 21
	cfg.LoadPingTimeout = 3 * time.Second
	ping, conns := loadConfigs(cfg, network.SessionConfig{}, logging.TestingLog(t), metrics.MakeRegistry())
	require.Equal(t, 3*time.Second, ping.PingTimeout)
	require.Equal(t, 50, ping.PingsPerPeer)
	require.Equal(t, 21, conns.MaxPeers)

	require.Equal(t, uint64(2*50+256), descriptorsFor([]int{1, 10, 50}, 0))
	require.Equal(t, uint64(2*100+256), descriptorsFor([]int{1}, 100))
}

func TestPrintConformance(t *testing.T) {
	partitiontest.PartitionTest(t)

	report := conformance.Report{Outcomes: []conformance.Outcome{
		{Scenario: "handshake/initiator", Status: conformance.Pass, Elapsed: 12 * time.Millisecond},
		{Scenario: "ping-echo", Status: conformance.Timeout, Assertion: "no pong", LastState: network.StateEstablished},
	}}
	var out bytes.Buffer
	printConformance(&out, report, []string{"handshake/responder"})
	s := out.String()
	require.Contains(t, s, "PASS     handshake/initiator")
	require.Contains(t, s, "TIMEOUT  ping-echo")
	require.Contains(t, s, "no pong (session Established)")
	require.Contains(t, s, "SKIP     handshake/responder")
	require.Contains(t, s, "1/2 scenarios passed")
	require.NotContains(t, s, "not applicable")

	report.Outcomes = append(report.Outcomes, conformance.Outcome{
		Scenario: "proof-path", Status: conformance.Skipped, Assertion: "ledger replay was not negotiated",
	})
	out.Reset()
	printConformance(&out, report, nil)
	s = out.String()
	require.Contains(t, s, "SKIP     proof-path")
	require.Contains(t, s, "ledger replay was not negotiated\n")
	require.Contains(t, s, "1/2 scenarios passed, 1 not applicable")
}

func TestPrintFuzz(t *testing.T) {
	partitiontest.PartitionTest(t)

	report := fuzzing.Report{Seed: 7, Results: []fuzzing.Result{
		{Index: 0, Category: fuzzing.RandomBytes, Size: 10, Outcome: fuzzing.Disconnected, Recovered: true},
		{Index: 1, Category: fuzzing.RandomBytes, Size: 20, Outcome: fuzzing.Hung, Err: errors.New("no answer")},
	}}
	var out bytes.Buffer
	printFuzz(&out, report)
	s := out.String()
	require.Contains(t, s, "seed 7, post-handshake, 2 candidates")
	require.Contains(t, s, "disconnected=1 ignored=0 hung=1 unreachable=0")
	require.Contains(t, s, "FAIL #1 random_bytes size=20 outcome=hung recovered=false err=no answer")
	require.Contains(t, s, "1/2 candidates failed")
}

func TestConformAgainstReferenceNode(t *testing.T) {
	partitiontest.PartitionTest(t)

	sc, err := network.MakeSessionConfig(config.GetDefaultLocal(), logging.TestingLog(t))
	require.NoError(t, err)
	n, err := refnode.Start(refnode.Config{
		PeerAddr:  "127.0.0.1:0",
		AdminAddr: "127.0.0.1:0",
		Session:   sc,
		Registry:  metrics.MakeRegistry(),
		Log:       logging.TestingLog(t),
	})
	require.NoError(t, err)
	defer n.Close()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"conform",
		"--config", filepath.Join(t.TempDir(), "synthpeer.json"), "--reset",
		"--target", n.PeerAddr(), "--admin", n.AdminURL(),
		"--scenarios", "handshake/;ping-echo", "--log-level", "warn"})
	require.NoError(t, rootCmd.Execute(), out.String())
	require.Contains(t, out.String(), "3/3 scenarios passed")
}
