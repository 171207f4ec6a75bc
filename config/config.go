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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xrpl-synth/synthpeer/util/codecs"
)

// ConfigFilename is the name of the config file looked up in the working
// directory when no path is given.
const ConfigFilename = "synthpeer.json"

var defaultLocal = GetVersionedDefaultLocalConfig(getLatestConfigVersion())

// GetDefaultLocal returns a copy of the current default config.
func GetDefaultLocal() Local {
	return defaultLocal
}

// LoadConfigFromFile merges the settings in configFile over the defaults
// and migrates values that still hold the default of an older version. If
// the file cannot be read the defaults are returned with the error.
func LoadConfigFromFile(configFile string) (c Local, err error) {
	c = defaultLocal
	f, err := os.Open(configFile)
	if err != nil {
		return c, err
	}
	defer f.Close()
	c, _, err = loadConfig(f)
	return
}

// LoadConfig is LoadConfigFromFile reading from r. The migrations applied
// are returned for logging.
func LoadConfig(r io.Reader) (Local, []MigrationResult, error) {
	return loadConfig(r)
}

func loadConfig(r io.Reader) (Local, []MigrationResult, error) {
	c := defaultLocal
	// a file without a version predates versioning
	c.Version = 0
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return defaultLocal, nil, fmt.Errorf("parsing config: %w", err)
	}
	return migrate(c)
}

// SaveToFile writes the settings that differ from the defaults to filename.
// Version is always written.
func (cfg Local) SaveToFile(filename string) error {
	return codecs.SaveNonDefaultValuesToFile(filename, cfg, defaultLocal, []string{"Version"})
}

// Validate reports settings no command can run with.
func (cfg Local) Validate() error {
	if _, err := cfg.LoadPeerCounts(); err != nil {
		return err
	}
	if cfg.FuzzCorruptPercent < 0 || cfg.FuzzCorruptPercent > 100 {
		return fmt.Errorf("FuzzCorruptPercent %d is outside 0..100", cfg.FuzzCorruptPercent)
	}
	if cfg.MaxPayloadSize < 0 {
		return fmt.Errorf("MaxPayloadSize %d is negative", cfg.MaxPayloadSize)
	}
	if cfg.CrawlerWorkers < 0 || cfg.CrawlerDialRate < 0 {
		return fmt.Errorf("crawler workers and dial rate must not be negative")
	}
	if cfg.ClusterMember && cfg.NodeSecretToken == "" {
		return fmt.Errorf("ClusterMember needs the fixed identity of NodeSecretToken")
	}
	return nil
}

// SplitList splits a ;-separated setting, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadPeerCounts parses LoadPeers.
func (cfg Local) LoadPeerCounts() ([]int, error) {
	var counts []int
	for _, part := range SplitList(cfg.LoadPeers) {
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("LoadPeers entry %q is not a positive number", part)
		}
		counts = append(counts, n)
	}
	return counts, nil
}
