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
	"github.com/spf13/cobra"

	"github.com/xrpl-synth/synthpeer/fuzzing"
	"github.com/xrpl-synth/synthpeer/network"
)

var (
	fuzzSeed       int64
	fuzzIterations int
	preHandshake   bool
)

func init() {
	fuzzCmd.Flags().Int64Var(&fuzzSeed, "seed", 0, "Override FuzzSeed; rerunning with a reported seed repeats the run")
	fuzzCmd.Flags().IntVarP(&fuzzIterations, "iterations", "n", 0, "Override FuzzIterations, the candidates per category")
	fuzzCmd.Flags().BoolVar(&preHandshake, "pre-handshake", false, "Override FuzzPreHandshake and send candidates before any handshake")
}

var fuzzCmd = &cobra.Command{
	Use:   "fuzz",
	Short: "Send malformed messages and check the node drops them and stays up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := local
		flags := cmd.Flags()
		if flags.Changed("seed") {
			cfg.FuzzSeed = fuzzSeed
		}
		if flags.Changed("iterations") {
			cfg.FuzzIterations = fuzzIterations
		}
		if flags.Changed("pre-handshake") {
			cfg.FuzzPreHandshake = preHandshake
		}

		sc, err := network.MakeSessionConfig(cfg, log)
		if err != nil {
			return err
		}
		genCfg, runCfg, err := fuzzConfigs(cfg, sc, log, registry)
		if err != nil {
			return err
		}
		gen := fuzzing.MakeGenerator(genCfg)
		log.Infof("fuzzing %s with seed %d", cfg.TargetAddress, gen.Seed())

		ctx, cancel := interruptContext()
		defer cancel()
		report, err := fuzzing.MakeRunner(runCfg).Run(ctx, gen)
		if err != nil {
			return err
		}
		printFuzz(cmd.OutOrStdout(), report)
		if !report.Passed() {
			return errChecksFailed
		}
		return nil
	},
}
