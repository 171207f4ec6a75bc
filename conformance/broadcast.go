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

package conformance

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xrpl-synth/synthpeer/crypto"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/nodectl"
	"github.com/xrpl-synth/synthpeer/protocol"
	"github.com/xrpl-synth/synthpeer/relay"
)

// SamplePayment is a signed XRP payment. Nodes relay and store it without
// being able to apply it.
var SamplePayment = mustDecodeHex("12000022000000002400000001201B0000001E61400000012A05F200" +
	"68400000000000000A73210330E7FC9D56BB25D6893BA3F317AE5BCF33B3291BD63DB32654A313222F7F" +
	"D020744630440220297389244D36AF12115296F409C446D9A5D808880DC7FF323AA207ED529CE6C80220" +
	"7AAC5D2A96CB102CBDE85D2A4BA814253CA133AC9277041CAE2E1A349FB233FF8114B5F762798A53D543" +
	"A014CAF8B297CFF8F2F937E883149193D6AED0CBBC25790ADE05D020C9C6D9201DCF")

// squelchProposals is how many of its own proposals the node must send
// after being asked to squelch itself. The first may already be in flight.
const squelchProposals = 2

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// ManifestsAdvertised expects the node to send validator manifests after the
// handshake, each carrying a signing key.
func ManifestsAdvertised() Scenario {
	return Scenario{
		Name: "manifests",
		Role: Initiator,
		Script: network.Script{
			Name:   "manifests",
			Ignore: ignoreExcept(protocol.ManifestsType),
			Steps: []network.Step{{
				Name:   "manifests",
				Expect: protocol.ManifestsType,
				Match: func(p protocol.Payload) error {
					list := p.(*protocol.Manifests).List
					if len(list) == 0 {
						return errors.New("manifests message carries no manifests")
					}
					for i, m := range list {
						key, err := protocol.SigningPubKey(m)
						if err != nil {
							return fmt.Errorf("manifest %d: %w", i, err)
						}
						if crypto.PublicKeyType(key) == crypto.KeyTypeUnknown {
							return fmt.Errorf("manifest %d has a signing key of unknown type", i)
						}
					}
					return nil
				},
			}},
		},
	}
}

type validatorListEntry struct {
	ValidationPublicKey string `json:"validation_public_key"`
	Manifest            string `json:"manifest"`
}

type validatorListBlob struct {
	Sequence   uint32               `json:"sequence"`
	Expiration uint32               `json:"expiration"`
	Validators []validatorListEntry `json:"validators"`
}

// ValidatorListAdvertised expects a published validator list, singly or in
// a collection, whose blobs decode to validators with valid keys.
func ValidatorListAdvertised() Scenario {
	return Scenario{
		Name:  "validator-list",
		Role:  Initiator,
		Check: checkValidatorList,
	}
}

func checkValidatorList(ctx context.Context, env *Env, s *network.Session) error {
	var blobs [][]byte
	err := await(ctx, s, func(msg protocol.Message) (bool, error) {
		switch msg.Type {
		case protocol.ValidatorListType, protocol.ValidatorListCollectionType:
		default:
			return false, nil
		}
		p, err := msg.Decode()
		if err != nil {
			return false, err
		}
		switch v := p.(type) {
		case *protocol.ValidatorList:
			blobs = append(blobs, v.Blob)
		case *protocol.ValidatorListCollection:
			for _, b := range v.Blobs {
				blobs = append(blobs, b.Blob)
			}
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	if len(blobs) == 0 {
		return errors.New("validator list collection carries no blobs")
	}
	for i, b := range blobs {
		if err := checkValidatorBlob(b); err != nil {
			return fmt.Errorf("validator list blob %d: %w", i, err)
		}
	}
	return nil
}

func checkValidatorBlob(b []byte) error {
	raw, err := base64.StdEncoding.DecodeString(string(b))
	if err != nil {
		return fmt.Errorf("not base64: %w", err)
	}
	var list validatorListBlob
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("not a JSON list: %w", err)
	}
	if len(list.Validators) == 0 {
		return errors.New("lists no validators")
	}
	for _, v := range list.Validators {
		key, err := hex.DecodeString(v.ValidationPublicKey)
		if err != nil || len(key) != crypto.PublicKeySize || crypto.PublicKeyType(key) == crypto.KeyTypeUnknown {
			return fmt.Errorf("invalid validator key %q", v.ValidationPublicKey)
		}
		if v.Manifest == "" {
			return fmt.Errorf("validator %s has no manifest", v.ValidationPublicKey)
		}
	}
	return nil
}

// StatusChangeMatchesLedger expects the node to announce its last closed
// ledger, the same one its admin endpoint reports.
func StatusChangeMatchesLedger() Scenario {
	return Scenario{
		Name:  "status-change",
		Role:  Initiator,
		Check: checkStatusChange,
	}
}

func checkStatusChange(ctx context.Context, env *Env, s *network.Session) error {
	if env.Admin == nil {
		return errNeedsAdmin
	}
	info, err := env.Admin.Ledger(ctx, nodectl.LedgerParams{LedgerIndex: "closed"})
	if err != nil {
		return fmt.Errorf("reading the closed ledger: %w", err)
	}
	hash, err := info.Hash()
	if err != nil {
		return err
	}
	seq, err := info.Seq()
	if err != nil {
		return err
	}
	var last *protocol.StatusChange
	err = awaitPayload(ctx, s, protocol.StatusChangeType, func(st *protocol.StatusChange) (bool, error) {
		last = st
		// a node that closed a ledger meanwhile announces a later one
		return st.LedgerSeq == seq && bytes.Equal(st.LedgerHash, hash), nil
	})
	if err != nil && last != nil {
		return fmt.Errorf("node announced ledger %d %X, reports %d %X: %w", last.LedgerSeq, last.LedgerHash, seq, hash, err)
	}
	return err
}

// ClusterStatus expects a cluster report listing the synthetic peer. It only
// applies when the node is configured with the peer's key as a cluster
// member.
func ClusterStatus() Scenario {
	return Scenario{
		Name:  "cluster",
		Role:  Initiator,
		Check: checkCluster,
	}
}

func checkCluster(ctx context.Context, env *Env, s *network.Session) error {
	if !env.ClusterMember {
		return skipf("the synthetic peer is not a cluster member")
	}
	self := env.Session.Handshake.Keys.Public.String()
	return awaitPayload(ctx, s, protocol.ClusterType, func(c *protocol.Cluster) (bool, error) {
		if len(c.Nodes) < 2 {
			return false, fmt.Errorf("cluster report lists %d nodes", len(c.Nodes))
		}
		for _, n := range c.Nodes {
			if n.PublicKey == self {
				return true, nil
			}
		}
		return false, fmt.Errorf("cluster report does not list %s", self)
	})
}

// SquelchOwnProposals asks the node to squelch its own validator and
// expects its proposals to keep coming: a squelch holds back relaying, not
// what a node originates.
func SquelchOwnProposals() Scenario {
	return Scenario{
		Name:    "squelch/own-proposals",
		Role:    Initiator,
		Timeout: 30 * time.Second,
		Check:   checkSquelchOwnProposals,
	}
}

func checkSquelchOwnProposals(ctx context.Context, env *Env, s *network.Session) error {
	var key []byte
	err := awaitPayload(ctx, s, protocol.ProposeLedgerType, func(p *protocol.ProposeSet) (bool, error) {
		key = p.NodePubKey
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("waiting for a first proposal: %w", err)
	}
	squelch := &protocol.Squelch{Squelch: true, ValidatorPubKey: key, Duration: uint32(relay.DefaultSquelchDuration / time.Second)}
	if err := s.Send(protocol.NewMessage(squelch)); err != nil {
		return err
	}
	defer func() {
		_ = s.Send(protocol.NewMessage(&protocol.Squelch{ValidatorPubKey: key}))
	}()

	seen := 0
	err = awaitPayload(ctx, s, protocol.ProposeLedgerType, func(p *protocol.ProposeSet) (bool, error) {
		if bytes.Equal(p.NodePubKey, key) {
			seen++
		}
		return seen == squelchProposals, nil
	})
	if err != nil {
		return fmt.Errorf("node sent %d of its proposals after the squelch: %w", seen, err)
	}
	return nil
}

// TransactionRelay relays tx on the primary session and expects the node to
// forward it to a second peer as a current, not deferred, transaction.
func TransactionRelay(tx []byte) Scenario {
	return Scenario{
		Name:  "transaction-relay",
		Role:  Initiator,
		Check: func(ctx context.Context, env *Env, s *network.Session) error { return checkTransactionRelay(ctx, env, s, tx) },
	}
}

func checkTransactionRelay(ctx context.Context, env *Env, s *network.Session, tx []byte) error {
	other, err := env.Dial(ctx)
	if err != nil {
		return fmt.Errorf("second peer: %w", err)
	}
	defer other.Close()
	if _, err := other.Ping(ctx, 1); err != nil {
		return fmt.Errorf("second peer: %w", err)
	}
	if err := s.Send(protocol.NewMessage(&protocol.Transaction{RawTransaction: tx, Status: protocol.TxNew})); err != nil {
		return err
	}
	err = awaitPayload(ctx, other, protocol.TransactionType, func(t *protocol.Transaction) (bool, error) {
		if !bytes.Equal(t.RawTransaction, tx) {
			return false, nil
		}
		if t.Status != protocol.TxCurrent || t.Deferred {
			return false, fmt.Errorf("relayed transaction has status %d, deferred %v", t.Status, t.Deferred)
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("waiting for the relayed transaction: %w", err)
	}
	return nil
}

// HaveSetAnnounced relays tx and expects the node to announce a transaction
// set it holds.
func HaveSetAnnounced(tx []byte) Scenario {
	return Scenario{
		Name: "haveset",
		Role: Initiator,
		Script: network.Script{
			Name:   "haveset",
			Ignore: ignoreExcept(protocol.HaveSetType),
			Steps: []network.Step{{
				Name:   "haveset",
				Send:   []protocol.Message{protocol.NewMessage(&protocol.Transaction{RawTransaction: tx, Status: protocol.TxNew})},
				Expect: protocol.HaveSetType,
				Match: func(p protocol.Payload) error {
					h := p.(*protocol.HaveTransactionSet)
					if h.Status != protocol.TxSetHave {
						return fmt.Errorf("transaction set announced with status %d", h.Status)
					}
					if len(h.Hash) != 32 {
						return fmt.Errorf("transaction set hash has %d bytes", len(h.Hash))
					}
					return nil
				},
			}},
		},
	}
}
