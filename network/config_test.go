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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xrpl-synth/synthpeer/config"
	"github.com/xrpl-synth/synthpeer/crypto"
	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/test/partitiontest"
)

func TestMakeSessionConfig(t *testing.T) {
	partitiontest.PartitionTest(t)

	keys, err := crypto.GenerateNodeKeys()
	require.NoError(t, err)

	local := config.GetDefaultLocal()
	local.NodeSecretToken = keys.SecretToken()
	local.NetworkID = "21337"
	local.HandshakeTimeout = time.Second
	sc, err := MakeSessionConfig(local, logging.TestingLog(t))
	require.NoError(t, err)
	require.Equal(t, keys.Public, sc.Handshake.Keys.Public)
	require.Equal(t, "21337", sc.Handshake.NetworkID)
	require.Equal(t, time.Second, sc.Handshake.Timeout)
	require.NotNil(t, sc.TLS)
	require.False(t, sc.Handshake.Features.Compression)
	require.True(t, sc.Handshake.Features.LedgerReplay)

	local.EnableTLS = false
	local.EnableCompression = true
	local.NodeSecretToken = ""
	sc, err = MakeSessionConfig(local, logging.TestingLog(t))
	require.NoError(t, err)
	require.Nil(t, sc.TLS)
	require.Nil(t, sc.Handshake.Keys)
	require.True(t, sc.Compress)
	require.True(t, sc.Handshake.Features.Compression)

	local.NodeSecretToken = "not-a-token"
	_, err = MakeSessionConfig(local, logging.TestingLog(t))
	require.Error(t, err)
}

func TestSessionsWithoutKeysGetFreshIdentity(t *testing.T) {
	partitiontest.PartitionTest(t)

	local := config.GetDefaultLocal()
	sc, err := MakeSessionConfig(local, logging.TestingLog(t))
	require.NoError(t, err)

	n, err := MakeNode(NodeConfig{ListenAddr: "127.0.0.1:0", Session: sc})
	require.NoError(t, err)
	require.NoError(t, n.Start())
	defer n.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := Dial(ctx, n.Addr(), sc)
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, n.PublicKey(), s.Identity().PublicKey)
}
