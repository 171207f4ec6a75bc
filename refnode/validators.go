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
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/xrpl-synth/synthpeer/crypto"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/protocol"
)

const (
	defaultProposeInterval = time.Second

	// node status and event codes of a status change
	statusConnected      = 2
	eventAcceptedLedger  = 2
	validatorListVersion = 2
	validatorListTTL     = 365 * 24 * time.Hour
)

var prefixManifest = []byte("MAN\x00")

// validator is the identity the node proposes under. Its master key is
// published in the node's validator list.
type validator struct {
	master   *crypto.NodeKeys
	signing  *crypto.NodeKeys
	manifest []byte
}

func makeValidator(seq uint32) (*validator, error) {
	master, err := crypto.GenerateNodeKeys()
	if err != nil {
		return nil, err
	}
	signing, err := crypto.GenerateNodeKeys()
	if err != nil {
		return nil, err
	}
	return &validator{master: master, signing: signing, manifest: signManifest(seq, master, signing)}, nil
}

func signManifest(seq uint32, master, signing *crypto.NodeKeys) []byte {
	unsigned := protocol.NewManifestObject(seq, master.Public.Bytes(), signing.Public.Bytes(), nil, nil)
	digest := crypto.SHA512Half(prefixManifest, unsigned)
	return protocol.NewManifestObject(seq, master.Public.Bytes(), signing.Public.Bytes(),
		signing.Sign(digest[:]), master.Sign(digest[:]))
}

func rippleTime(t time.Time) uint32 {
	return uint32(t.Unix() - rippleEpoch)
}

type listedValidator struct {
	ValidationPublicKey string `json:"validation_public_key"`
	Manifest            string `json:"manifest"`
}

type validatorListBlob struct {
	Sequence   uint32            `json:"sequence"`
	Expiration uint32            `json:"expiration"`
	Validators []listedValidator `json:"validators"`
}

// validatorList publishes v in a list signed by publisher. The blob is
// base64 of the JSON list, the signature hex, as the node expects.
func validatorList(publisher *validator, v *validator, now time.Time) (*protocol.ValidatorListCollection, error) {
	blob, err := json.Marshal(validatorListBlob{
		Sequence:   1,
		Expiration: rippleTime(now.Add(validatorListTTL)),
		Validators: []listedValidator{{
			ValidationPublicKey: strings.ToUpper(hex.EncodeToString(v.master.Public.Bytes())),
			Manifest:            base64.StdEncoding.EncodeToString(v.manifest),
		}},
	})
	if err != nil {
		return nil, err
	}
	digest := crypto.SHA512Half(blob)
	return &protocol.ValidatorListCollection{
		Version:  validatorListVersion,
		Manifest: []byte(base64.StdEncoding.EncodeToString(publisher.manifest)),
		Blobs: []protocol.ValidatorBlobInfo{{
			Blob:      []byte(base64.StdEncoding.EncodeToString(blob)),
			Signature: []byte(strings.ToUpper(hex.EncodeToString(publisher.signing.Sign(digest[:])))),
		}},
	}, nil
}

// greeting is what the node sends every peer right after the handshake.
func (n *Node) greeting(s *network.Session) []protocol.Message {
	now := time.Now()
	out := []protocol.Message{
		protocol.NewMessage(&protocol.Manifests{List: [][]byte{n.validator.manifest}}),
		protocol.NewMessage(n.validatorList),
		protocol.NewMessage(&protocol.StatusChange{
			NewStatus:   statusConnected,
			NewEvent:    eventAcceptedLedger,
			LedgerSeq:   n.ledger.seq,
			LedgerHash:  n.ledger.hash[:],
			NetworkTime: uint64(rippleTime(now)),
			FirstSeq:    n.ledger.seq,
			LastSeq:     n.ledger.seq,
		}),
	}
	if peer := s.Identity().PublicKey; n.inCluster(peer) {
		self := n.peer.PublicKey()
		out = append(out, protocol.NewMessage(&protocol.Cluster{Nodes: []protocol.ClusterNode{
			{PublicKey: self.String(), ReportTime: rippleTime(now), NodeName: "refnode"},
			{PublicKey: peer.String(), ReportTime: rippleTime(now), Address: s.RemoteAddr()},
		}}))
	}
	return out
}

func (n *Node) inCluster(key crypto.PublicKey) bool {
	for _, k := range n.cfg.Cluster {
		if k == key {
			return true
		}
	}
	return false
}

// proposal signs the node's current position on the next ledger.
func (n *Node) proposal(seq uint32, now time.Time) *protocol.ProposeSet {
	txSet, _ := n.txs.setHash()
	closeTime := rippleTime(now)
	var fixed [8]byte
	binary.BigEndian.PutUint32(fixed[:4], seq)
	binary.BigEndian.PutUint32(fixed[4:], closeTime)
	digest := crypto.SHA512Half(prefixProposal, fixed[:], n.ledger.hash[:], txSet[:])
	return &protocol.ProposeSet{
		ProposeSeq:     seq,
		CurrentTxHash:  txSet[:],
		NodePubKey:     n.validator.signing.Public.Bytes(),
		CloseTime:      closeTime,
		Signature:      n.validator.signing.Sign(digest[:]),
		PreviousLedger: n.ledger.hash[:],
	}
}

// propose broadcasts a proposal, and the open transaction set once there is
// one, every interval until the node closes. Squelches received from peers
// only hold back relayed messages, never the node's own proposals.
func (n *Node) propose(interval time.Duration) {
	defer n.loops.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var seq uint32
	for {
		select {
		case <-n.ctx.Done():
			return
		case now := <-ticker.C:
			msgs := []protocol.Message{protocol.NewMessage(n.proposal(seq, now))}
			if h, ok := n.txs.setHash(); ok {
				msgs = append(msgs, protocol.NewMessage(&protocol.HaveTransactionSet{Status: protocol.TxSetHave, Hash: h[:]}))
			}
			seq++
			for _, s := range n.peer.Sessions() {
				for _, msg := range msgs {
					if err := s.Send(msg); err != nil {
						n.log.Debugf("proposal to %s: %v", s.Identity(), err)
						break
					}
				}
			}
		}
	}
}
