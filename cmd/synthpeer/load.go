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

	"github.com/spf13/cobra"

	"github.com/xrpl-synth/synthpeer/loaddriver"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/util"
)

var (
	loadPeers    string
	loadMaxPeers int
)

func init() {
	loadCmd.Flags().StringVarP(&loadPeers, "peers", "p", "", "Override LoadPeers, the ;-separated sweep of concurrent peer counts")
	loadCmd.Flags().IntVar(&loadMaxPeers, "max-peers", 0, "Override LoadMaxPeers; non-zero also runs the connection sweep")
}

// descriptorsFor leaves room for the sessions of the largest sweep entry
// plus the process's own files.
func descriptorsFor(counts []int, maxPeers int) uint64 {
	most := maxPeers
	for _, c := range counts {
		most = max(most, c)
	}
	return uint64(2*most + 256)
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Measure ping latency and connection handling under concurrent peers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := local
		if cmd.Flags().Changed("peers") {
			cfg.LoadPeers = loadPeers
		}
		if cmd.Flags().Changed("max-peers") {
			cfg.LoadMaxPeers = loadMaxPeers
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		counts, _ := cfg.LoadPeerCounts()
		if len(counts) == 0 {
			return fmt.Errorf("LoadPeers is empty")
		}
		if limit, err := util.RaiseFdSoftLimit(descriptorsFor(counts, cfg.LoadMaxPeers)); err != nil {
			log.Warnf("cannot raise the open file limit: %v", err)
		} else {
			log.Debugf("open file limit %d", limit)
		}

		sc, err := network.MakeSessionConfig(cfg, log)
		if err != nil {
			return err
		}
		pingCfg, connCfg := loadConfigs(cfg, sc, log, registry)

		ctx, cancel := interruptContext()
		defer cancel()
		out := cmd.OutOrStdout()
		passed := true

		pings, err := loaddriver.RunPingSweep(ctx, pingCfg, counts)
		loaddriver.WritePingTable(out, pings)
		if err != nil {
			return err
		}
		for _, r := range pings {
			passed = passed && r.Passed()
		}
		printVerdict(out, "ping latency", passed)

		if cfg.LoadMaxPeers > 0 {
			sweep := []int{cfg.LoadMaxPeers, cfg.LoadMaxPeers + 1, 2 * cfg.LoadMaxPeers}
			conns, err := loaddriver.RunConnectionSweep(ctx, connCfg, sweep)
			loaddriver.WriteConnectionTable(out, conns)
			if err != nil {
				return err
			}
			connsPassed := true
			for _, r := range conns {
				connsPassed = connsPassed && r.Passed()
			}
			printVerdict(out, "connection capacity", connsPassed)
			passed = passed && connsPassed
		}

		if !passed {
			return errChecksFailed
		}
		return nil
	},
}
