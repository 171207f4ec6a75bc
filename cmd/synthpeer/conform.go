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

	"github.com/xrpl-synth/synthpeer/conformance"
	"github.com/xrpl-synth/synthpeer/network"
)

var scenarioFilter string

func init() {
	conformCmd.Flags().StringVarP(&scenarioFilter, "scenarios", "s", "", "Override ScenarioFilter, a ;-separated list of scenario name prefixes")
	conformCmd.Flags().BoolVar(&listScenarios, "list", false, "List the scenarios and exit")
}

var listScenarios bool

var conformCmd = &cobra.Command{
	Use:   "conform",
	Short: "Run the conformance scenarios against the node",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := local
		if cmd.Flags().Changed("scenarios") {
			cfg.ScenarioFilter = scenarioFilter
		}
		scenarios, skipped := conformanceScenarios(cfg, randomPingSeq())
		out := cmd.OutOrStdout()
		if listScenarios {
			for _, sc := range scenarios {
				fmt.Fprintf(out, "%s\t%s\n", sc.Name, sc.Role)
			}
			return nil
		}

		sc, err := network.MakeSessionConfig(cfg, log)
		if err != nil {
			return err
		}
		for _, name := range skipped {
			log.Warnf("skipping %s: no AdminURL configured", name)
		}

		ctx, cancel := interruptContext()
		defer cancel()
		report := conformance.MakeRunner(conformanceConfig(cfg, sc, log)).Run(ctx, scenarios)
		printConformance(out, report, skipped)
		if !report.Passed() {
			return errChecksFailed
		}
		return nil
	},
}
