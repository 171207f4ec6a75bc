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
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xrpl-synth/synthpeer/crypto"
	"github.com/xrpl-synth/synthpeer/protocol"
	"github.com/xrpl-synth/synthpeer/test/partitiontest"
)

func TestSignManifest(t *testing.T) {
	partitiontest.PartitionTest(t)

	v, err := makeValidator(3)
	require.NoError(t, err)
	key, err := protocol.SigningPubKey(v.manifest)
	require.NoError(t, err)
	require.Equal(t, v.signing.Public.Bytes(), key)

	unsigned := protocol.NewManifestObject(3, v.master.Public.Bytes(), v.signing.Public.Bytes(), nil, nil)
	require.True(t, len(v.manifest) > len(unsigned))
	require.Equal(t, unsigned, v.manifest[:len(unsigned)])
}

func TestValidatorList(t *testing.T) {
	partitiontest.PartitionTest(t)

	publisher, err := makeValidator(1)
	require.NoError(t, err)
	v, err := makeValidator(1)
	require.NoError(t, err)
	now := time.Unix(rippleEpoch+1000, 0)
	list, err := validatorList(publisher, v, now)
	require.NoError(t, err)
	require.Equal(t, uint32(validatorListVersion), list.Version)
	require.Len(t, list.Blobs, 1)

	raw, err := base64.StdEncoding.DecodeString(string(list.Blobs[0].Blob))
	require.NoError(t, err)
	var blob validatorListBlob
	require.NoError(t, json.Unmarshal(raw, &blob))
	require.Equal(t, rippleTime(now)+uint32(validatorListTTL/time.Second), blob.Expiration)
	require.Len(t, blob.Validators, 1)
	require.Equal(t, strings.ToUpper(hex.EncodeToString(v.master.Public.Bytes())), blob.Validators[0].ValidationPublicKey)

	manifest, err := base64.StdEncoding.DecodeString(blob.Validators[0].Manifest)
	require.NoError(t, err)
	require.Equal(t, v.manifest, manifest)
}

func TestGreetsWithValidatorsAndStatus(t *testing.T) {
	partitiontest.PartitionTest(t)

	n := startTestNode(t)
	defer n.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s := dialNode(ctx, t, n, testSessionConfig(t))

	manifests := recvType(ctx, t, s, protocol.ManifestsType).(*protocol.Manifests)
	require.Equal(t, [][]byte{n.validator.manifest}, manifests.List)
	list := recvType(ctx, t, s, protocol.ValidatorListCollectionType).(*protocol.ValidatorListCollection)
	require.Equal(t, n.validatorList.Blobs, list.Blobs)
	status := recvType(ctx, t, s, protocol.StatusChangeType).(*protocol.StatusChange)
	require.Equal(t, n.ledger.seq, status.LedgerSeq)
	require.Equal(t, n.ledger.hash[:], status.LedgerHash)

	// no cluster report for a peer outside the cluster
	quiet(ctx, t, s, protocol.ClusterType)
}

func TestClusterReport(t *testing.T) {
	partitiontest.PartitionTest(t)

	cfg := testSessionConfig(t)
	n := startNode(t, func(c *Config) { c.Cluster = []crypto.PublicKey{cfg.Handshake.Keys.Public} })
	defer n.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s := dialNode(ctx, t, n, cfg)

	cluster := recvType(ctx, t, s, protocol.ClusterType).(*protocol.Cluster)
	require.Len(t, cluster.Nodes, 2)
	require.Equal(t, n.Peer().PublicKey().String(), cluster.Nodes[0].PublicKey)
	require.Equal(t, cfg.Handshake.Keys.Public.String(), cluster.Nodes[1].PublicKey)
}

func TestProposals(t *testing.T) {
	partitiontest.PartitionTest(t)

	n := startNode(t, func(c *Config) { c.ProposeInterval = 20 * time.Millisecond })
	defer n.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s := dialNode(ctx, t, n, testSessionConfig(t))

	p := recvType(ctx, t, s, protocol.ProposeLedgerType).(*protocol.ProposeSet)
	require.Equal(t, n.validator.signing.Public.Bytes(), p.NodePubKey)
	require.Equal(t, n.ledger.hash[:], p.PreviousLedger)
	var fixed [8]byte
	binary.BigEndian.PutUint32(fixed[:4], p.ProposeSeq)
	binary.BigEndian.PutUint32(fixed[4:], p.CloseTime)
	digest := crypto.SHA512Half(prefixProposal, fixed[:], p.PreviousLedger, p.CurrentTxHash)
	require.True(t, crypto.Verify(n.validator.signing.Public, digest[:], p.Signature))

	// squelching the node's own validator does not silence it
	require.NoError(t, s.Send(protocol.NewMessage(&protocol.Squelch{Squelch: true, ValidatorPubKey: p.NodePubKey})))
	require.NoError(t, s.Send(protocol.NewMessage(&protocol.Transaction{RawTransaction: testTx, Status: protocol.TxNew})))
	var want hash256
	require.Eventually(t, func() bool {
		h, ok := n.txs.setHash()
		want = h
		return ok
	}, 5*time.Second, 10*time.Millisecond)
	for {
		have := recvType(ctx, t, s, protocol.HaveSetType).(*protocol.HaveTransactionSet)
		require.Equal(t, protocol.TxSetHave, have.Status)
		if string(have.Hash) == string(want[:]) {
			break
		}
	}
	next := recvType(ctx, t, s, protocol.ProposeLedgerType).(*protocol.ProposeSet)
	require.Greater(t, next.ProposeSeq, p.ProposeSeq)
	require.Equal(t, want[:], next.CurrentTxHash)
}
