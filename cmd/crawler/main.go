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
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/xrpl-synth/synthpeer/config"
	"github.com/xrpl-synth/synthpeer/crawler"
	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/util/codecs"
	"github.com/xrpl-synth/synthpeer/util/metrics"
)

var (
	configFile string
	seedAddrs  []string
	rpcAddr    string
	workers    int
	recrawl    time.Duration
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:          "crawler",
	Short:        "Map an XRPL peer network from a set of seed nodes",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigFromFile(configFile)
		if err != nil && !(os.IsNotExist(err) && !cmd.Flags().Changed("config")) {
			return fmt.Errorf("loading %s: %w", configFile, err)
		}
		applyFlags(cmd, &cfg)
		if err = cfg.Validate(); err != nil {
			return err
		}

		log := logging.NewLogger()
		log.SetLevel(logging.LevelFromString(cfg.LogLevel))
		if cfg.LogJSON {
			log.SetJSONFormatter()
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return run(ctx, cfg, log, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", config.ConfigFilename, "Config file; settings it leaves out take their defaults")
	rootCmd.Flags().StringSliceVarP(&seedAddrs, "seed-addrs", "s", nil, "The initial addresses to connect to (overrides CrawlerSeeds)")
	rootCmd.Flags().StringVarP(&rpcAddr, "rpc-addr", "r", "", "If present, start an RPC server at the specified address (overrides CrawlerRPCAddress)")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Override CrawlerWorkers")
	rootCmd.Flags().DurationVar(&recrawl, "recrawl", 0, "Override CrawlerRecrawlInterval; zero crawls once")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Override LogLevel")
}

func applyFlags(cmd *cobra.Command, cfg *config.Local) {
	flags := cmd.Flags()
	if flags.Changed("seed-addrs") {
		cfg.CrawlerSeeds = strings.Join(seedAddrs, ";")
	}
	if flags.Changed("rpc-addr") {
		cfg.CrawlerRPCAddress = rpcAddr
	}
	if flags.Changed("workers") {
		cfg.CrawlerWorkers = workers
	}
	if flags.Changed("recrawl") {
		cfg.CrawlerRecrawlInterval = recrawl
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
}

func crawlerConfig(cfg config.Local, sc network.SessionConfig, log logging.Logger, reg *metrics.Registry) crawler.Config {
	return crawler.Config{
		Seeds:           config.SplitList(cfg.CrawlerSeeds),
		Workers:         cfg.CrawlerWorkers,
		VisitTimeout:    cfg.CrawlerVisitTimeout,
		DialRate:        rate.Limit(cfg.CrawlerDialRate),
		MaxRetries:      cfg.CrawlerMaxRetries,
		RecrawlInterval: cfg.CrawlerRecrawlInterval,
		Session:         sc,
		Resolver:        &crawler.Resolver{Servers: config.SplitList(cfg.CrawlerDNSServers)},
		Registry:        reg,
		Log:             log,
	}
}

// run crawls and, with an RPC address, keeps serving the final snapshot
// until ctx is done. The snapshot is written to out on exit.
func run(ctx context.Context, cfg config.Local, log logging.Logger, out io.Writer) error {
	if len(config.SplitList(cfg.CrawlerSeeds)) == 0 {
		return errors.New("no seed addresses: pass --seed-addrs or set CrawlerSeeds")
	}
	sc, err := network.MakeSessionConfig(cfg, log)
	if err != nil {
		return err
	}
	reg := metrics.DefaultRegistry()
	cr, err := crawler.MakeCrawler(crawlerConfig(cfg, sc, log, reg))
	if err != nil {
		return err
	}

	if cfg.UsageLogPeriod > 0 {
		go logging.UsageLogThread(ctx, log, cfg.UsageLogPeriod)
	}

	var rpc *crawler.RPCServer
	if cfg.CrawlerRPCAddress != "" {
		rpc, err = crawler.StartRPCServer(cfg.CrawlerRPCAddress, cr, reg, log)
		if err != nil {
			return err
		}
		log.Infof("serving JSON-RPC on %s", rpc.Addr())
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			rpc.Shutdown(shutdownCtx)
		}()
	}

	err = cr.Run(ctx)
	if err == nil && rpc != nil {
		log.Infof("crawl finished, serving results until interrupted")
		<-ctx.Done()
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if encErr := codecs.NewFormattedJSONEncoder(out).Encode(cr.Snapshot()); encErr != nil && err == nil {
		err = encErr
	}
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
