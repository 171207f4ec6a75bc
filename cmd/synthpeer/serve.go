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

	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/refnode"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference node the harness is tested against",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := network.MakeSessionConfig(local, log)
		if err != nil {
			return err
		}
		n, err := refnode.Start(refnodeConfig(local, sc, log, registry))
		if err != nil {
			return err
		}
		defer n.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "peer %s key %s\n", n.PeerAddr(), n.Peer().PublicKey())
		if url := n.AdminURL(); url != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s\n", url)
		}

		ctx, cancel := interruptContext()
		defer cancel()
		if local.UsageLogPeriod > 0 {
			go logging.UsageLogThread(ctx, log, local.UsageLogPeriod)
		}
		<-ctx.Done()
		log.Infof("shutting down")
		return nil
	},
}
