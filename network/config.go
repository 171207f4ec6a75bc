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

package network

import (
	"fmt"

	"github.com/xrpl-synth/synthpeer/config"
	"github.com/xrpl-synth/synthpeer/crypto"
	"github.com/xrpl-synth/synthpeer/logging"
)

// MakeSessionConfig builds the session template shared by the harness
// commands from the local config.
func MakeSessionConfig(cfg config.Local, log logging.Logger) (SessionConfig, error) {
	sc := SessionConfig{
		Handshake: HandshakeConfig{
			UserAgent: cfg.UserAgent,
			Features:  AllFeatures,
			NetworkID: cfg.NetworkID,
			Timeout:   cfg.HandshakeTimeout,
		},
		MaxPayload: cfg.MaxPayloadSize,
		Compress:   cfg.EnableCompression,
		Log:        log,
	}
	sc.Handshake.Features.Compression = cfg.EnableCompression
	if cfg.NodeSecretToken != "" {
		keys, err := crypto.NodeKeysFromToken(cfg.NodeSecretToken)
		if err != nil {
			return SessionConfig{}, fmt.Errorf("NodeSecretToken: %w", err)
		}
		sc.Handshake.Keys = keys
	}
	if cfg.EnableTLS {
		tlsConfig, err := SelfSignedTLSConfig()
		if err != nil {
			return SessionConfig{}, err
		}
		sc.TLS = tlsConfig
	}
	return sc, nil
}
