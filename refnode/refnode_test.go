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

package refnode

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xrpl-synth/synthpeer/crypto"
	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/nodectl"
	"github.com/xrpl-synth/synthpeer/protocol"
	"github.com/xrpl-synth/synthpeer/test/partitiontest"
	"github.com/xrpl-synth/synthpeer/util/metrics"
)

func testSessionConfig(t *testing.T) network.SessionConfig {
	keys, err := crypto.GenerateNodeKeys()
	require.NoError(t, err)
	return network.SessionConfig{
		Handshake: network.HandshakeConfig{Keys: keys, Features: network.AllFeatures, Timeout: 2 * time.Second},
		Log:       logging.TestingLog(t),
	}
}

func startTestNode(t *testing.T) *Node {
	return startNode(t, nil)
}

func startNode(t *testing.T, configure func(*Config)) *Node {
	cfg := Config{
		PeerAddr:  "127.0.0.1:0",
		AdminAddr: "127.0.0.1:0",
		Session:   testSessionConfig(t),
		Registry:  metrics.MakeRegistry(),
		Log:       logging.TestingLog(t),
	}
	if configure != nil {
		configure(&cfg)
	}
	n, err := Start(cfg)
	require.NoError(t, err)
	return n
}

// recvType returns the next message of type typ, skipping others.
func recvType(ctx context.Context, t *testing.T, s *network.Session, typ protocol.MessageType) protocol.Payload {
	for {
		msg, err := s.Recv(ctx)
		require.NoError(t, err)
		if msg.Type != typ {
			continue
		}
		p, err := msg.Decode()
		require.NoError(t, err)
		return p
	}
}

func TestGreetsWithEndpoints(t *testing.T) {
	partitiontest.PartitionTest(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	n := startTestNode(t)
	defer n.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	first, err := network.Dial(ctx, n.PeerAddr(), testSessionConfig(t))
	require.NoError(t, err)
	defer first.Close()
	greeting := recvType(ctx, t, first, protocol.EndpointsType).(*protocol.Endpoints)
	// a peer is never told about itself
	require.Equal(t, []protocol.Endpoint{{Address: n.PeerAddr(), Hops: 0}}, greeting.Endpoints)

	second, err := network.Dial(ctx, n.PeerAddr(), testSessionConfig(t))
	require.NoError(t, err)
	defer second.Close()
	recvType(ctx, t, second, protocol.EndpointsType)

	// an empty endpoints message asks for the current neighbors
	require.NoError(t, second.Send(protocol.NewMessage(&protocol.Endpoints{Version: 2})))
	reply := recvType(ctx, t, second, protocol.EndpointsType).(*protocol.Endpoints)
	require.Len(t, reply.Endpoints, 1)
	require.Equal(t, uint32(1), reply.Endpoints[0].Hops)

	rtt, err := first.Ping(ctx, 42)
	require.NoError(t, err)
	require.Greater(t, rtt, time.Duration(0))
}

func TestAdminRPC(t *testing.T) {
	partitiontest.PartitionTest(t)

	n := startTestNode(t)
	defer n.Close()
	client := nodectl.MakeClient(n.AdminURL())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	info, err := client.ServerInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, n.Peer().PublicKey().String(), info.PubkeyNode)
	require.Equal(t, 0, info.Peers)
	require.Equal(t, Version, info.BuildVersion)

	// the node dials a listening synthetic peer on request
	cfg := testSessionConfig(t)
	synth, err := network.MakeNode(network.NodeConfig{ListenAddr: "127.0.0.1:0", Session: cfg})
	require.NoError(t, err)
	require.NoError(t, synth.Start())
	defer synth.Close()

	require.NoError(t, client.Connect(ctx, synth.Addr()))
	peers, err := client.WaitForPeer(ctx, synth.PublicKey().String(), 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, peers, 1)
	require.False(t, peers[0].Inbound)
	require.Equal(t, synth.Addr(), peers[0].Address)
	require.Eventually(t, func() bool { return synth.NumPeers() == 1 }, 5*time.Second, 10*time.Millisecond)

	var rpcErr *nodectl.RPCError
	require.ErrorAs(t, client.Connect(ctx, ":6000"), &rpcErr)
	require.Equal(t, "invalidParams", rpcErr.Code)

	lgr, err := client.Ledger(ctx, nodectl.LedgerParams{LedgerIndex: "validated", Accounts: true})
	require.NoError(t, err)
	hash, err := lgr.Hash()
	require.NoError(t, err)
	require.Equal(t, n.ledger.hash[:], hash)
	seq, err := lgr.Seq()
	require.NoError(t, err)
	require.Equal(t, n.ledger.seq, seq)
	keys, err := lgr.StateKeys()
	require.NoError(t, err)
	require.Len(t, keys, defaultStateAccounts)

	lgr, err = client.Ledger(ctx, nodectl.LedgerParams{LedgerIndex: "closed"})
	require.NoError(t, err)
	require.Empty(t, lgr.AccountState)

	_, err = client.Ledger(ctx, nodectl.LedgerParams{LedgerIndex: "current"})
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, "lgrNotFound", rpcErr.Code)
}

func TestRelaysShardInfo(t *testing.T) {
	partitiontest.PartitionTest(t)

	n := startTestNode(t)
	defer n.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfgA := testSessionConfig(t)
	a, err := network.Dial(ctx, n.PeerAddr(), cfgA)
	require.NoError(t, err)
	defer a.Close()
	b, err := network.Dial(ctx, n.PeerAddr(), testSessionConfig(t))
	require.NoError(t, err)
	defer b.Close()
	require.Eventually(t, func() bool { return n.Peer().NumPeers() == 2 }, 5*time.Second, 10*time.Millisecond)

	origin := cfgA.Handshake.Keys.Public.Bytes()
	require.NoError(t, a.Send(protocol.NewMessage(&protocol.GetPeerShardInfoV2{PeerChain: [][]byte{origin}, Relays: 2})))
	fwd := recvType(ctx, t, b, protocol.GetPeerShardInfoV2Type).(*protocol.GetPeerShardInfoV2)
	require.Equal(t, uint32(1), fwd.Relays)
	require.Equal(t, [][]byte{origin, n.Peer().PublicKey().Bytes()}, fwd.PeerChain)
}
