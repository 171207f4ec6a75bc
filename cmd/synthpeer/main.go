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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xrpl-synth/synthpeer/config"
	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/util/metrics"
)

var (
	configFile  string
	logLevel    string
	targetAddr  string
	adminURL    string
	saveConfig  bool
	useDefaults bool
)

// set up by the root command before any subcommand runs
var (
	local    config.Local
	log      logging.Logger
	logClose io.Closer
	registry = metrics.DefaultRegistry()
)

// errChecksFailed makes the process exit non-zero after a report was printed.
var errChecksFailed = errors.New("one or more checks failed")

var rootCmd = &cobra.Command{
	Use:           "synthpeer",
	Short:         "Conformance, resistance and load harness for XRPL peer nodes",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadLocal(configFile, cmd.Flags().Changed("config"), useDefaults)
		if err != nil {
			return err
		}
		applyFlags(cmd, &cfg)
		if err = cfg.Validate(); err != nil {
			return err
		}
		if saveConfig {
			if err = cfg.SaveToFile(configFile); err != nil {
				return fmt.Errorf("saving %s: %w", configFile, err)
			}
		}
		local = cfg
		log, logClose, err = makeLogger(cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logClose != nil {
			logClose.Close()
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.HelpFunc()(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.ConfigFilename, "Config file; settings it leaves out take their defaults")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LogLevel (panic, fatal, error, warn, info, debug)")
	rootCmd.PersistentFlags().StringVarP(&targetAddr, "target", "t", "", "Override TargetAddress, the peer address of the node under test")
	rootCmd.PersistentFlags().StringVar(&adminURL, "admin", "", "Override AdminURL, the admin RPC endpoint of the node under test")
	rootCmd.PersistentFlags().BoolVar(&saveConfig, "save", false, "Save the effective configuration to the config file")
	rootCmd.PersistentFlags().BoolVar(&useDefaults, "reset", false, "Start from the default configuration instead of the config file")

	rootCmd.AddCommand(conformCmd)
	rootCmd.AddCommand(fuzzCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(serveCmd)
}

// interruptContext is cancelled on SIGINT or SIGTERM.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
