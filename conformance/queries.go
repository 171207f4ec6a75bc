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
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/xrpl-synth/synthpeer/crypto"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/nodectl"
	"github.com/xrpl-synth/synthpeer/protocol"
)

// maxProofPathKeys bounds the state keys a proof path scenario asks about.
const maxProofPathKeys = 8

var ledgerInfoNames = map[protocol.LedgerInfoType]string{
	protocol.LedgerInfoBase:        "base",
	protocol.LedgerInfoTxNode:      "tx-node",
	protocol.LedgerInfoAsNode:      "as-node",
	protocol.LedgerInfoTsCandidate: "ts-candidate",
}

// GetLedger asks for part of the last closed ledger and expects ledger data
// of the same kind. Every info type other than the header names the root
// node, an all-zero node ID.
func GetLedger(info protocol.LedgerInfoType) Scenario {
	req := &protocol.GetLedger{InfoType: info, LedgerType: protocol.LedgerTypeClosed}
	if info != protocol.LedgerInfoBase {
		req.NodeIDs = [][]byte{make([]byte, 33)}
	}
	name := "get-ledger/" + ledgerInfoNames[info]
	return Scenario{
		Name: name,
		Role: Initiator,
		Script: network.Script{
			Name:   name,
			Ignore: gossip,
			Steps: []network.Step{{
				Name:   "ledger-data",
				Send:   []protocol.Message{protocol.NewMessage(req)},
				Expect: protocol.LedgerDataType,
				Match: func(p protocol.Payload) error {
					data := p.(*protocol.LedgerData)
					if data.Error != 0 {
						return fmt.Errorf("ledger data carries error %d", data.Error)
					}
					if data.InfoType != info {
						return fmt.Errorf("ledger data of type %d, asked for %d", data.InfoType, info)
					}
					if len(data.Nodes) == 0 {
						return errors.New("ledger data carries no nodes")
					}
					return nil
				},
			}},
		},
	}
}

// GetTransactions relays tx and then asks for it by hash.
func GetTransactions(tx []byte) Scenario {
	id := crypto.TransactionID(tx)
	query := &protocol.GetObjectByHash{
		Type:    protocol.ObjectTransactions,
		Query:   true,
		Seq:     1,
		Objects: []protocol.IndexedObject{{Hash: id[:]}},
	}
	return Scenario{
		Name: "get-objects/transactions",
		Role: Initiator,
		Script: network.Script{
			Name:   "get-objects/transactions",
			Ignore: gossip,
			Steps: []network.Step{{
				Name: "relay",
				Send: []protocol.Message{protocol.NewMessage(&protocol.Transaction{RawTransaction: tx, Status: protocol.TxNew})},
			}, {
				Name:   "query",
				Send:   []protocol.Message{protocol.NewMessage(query)},
				Expect: protocol.TransactionsType,
				Match: func(p protocol.Payload) error {
					txs := p.(*protocol.Transactions).Transactions
					if len(txs) != 1 {
						return fmt.Errorf("got %d transactions, asked for 1", len(txs))
					}
					if !bytes.Equal(txs[0].RawTransaction, tx) {
						return errors.New("returned transaction differs from the one relayed")
					}
					return nil
				},
			}},
		},
	}
}

// HaveTransactionsQuery announces a transaction the node cannot know and
// expects the node to ask for it. Nodes only take announcements from peers
// that negotiated transaction reduce-relay.
func HaveTransactionsQuery() Scenario {
	return Scenario{
		Name:  "get-objects/have-transactions",
		Role:  Initiator,
		Check: checkHaveTransactions,
	}
}

func checkHaveTransactions(ctx context.Context, env *Env, s *network.Session) error {
	if !env.Negotiated(s).TxReduceRelay {
		return skipf("transaction reduce-relay was not negotiated")
	}
	hash := make([]byte, 32)
	if _, err := rand.Read(hash); err != nil {
		return err
	}
	if err := s.Send(protocol.NewMessage(&protocol.HaveTransactions{Hashes: [][]byte{hash}})); err != nil {
		return err
	}
	return awaitPayload(ctx, s, protocol.GetObjectsType, func(q *protocol.GetObjectByHash) (bool, error) {
		if !q.Query || q.Type != protocol.ObjectTransactions {
			return false, nil
		}
		if len(q.Objects) != 1 || !bytes.Equal(q.Objects[0].Hash, hash) {
			return false, fmt.Errorf("node asked for %d transactions, not the one announced", len(q.Objects))
		}
		return true, nil
	})
}

// ledgerReplayLedger checks that ledger replay was negotiated and reads the
// validated ledger over the admin endpoint.
func ledgerReplayLedger(ctx context.Context, env *Env, s *network.Session, accounts bool) (nodectl.LedgerInfo, []byte, error) {
	if !env.Negotiated(s).LedgerReplay {
		return nodectl.LedgerInfo{}, nil, skipf("ledger replay was not negotiated")
	}
	if env.Admin == nil {
		return nodectl.LedgerInfo{}, nil, errNeedsAdmin
	}
	info, err := env.Admin.Ledger(ctx, nodectl.LedgerParams{LedgerIndex: "validated", Accounts: accounts})
	if err != nil {
		return info, nil, fmt.Errorf("reading the validated ledger: %w", err)
	}
	hash, err := info.Hash()
	return info, hash, err
}

// ProofPath asks for the proof path of state objects of the validated
// ledger and expects each answer to name the same key and ledger and to
// carry a path.
func ProofPath() Scenario {
	return Scenario{
		Name:  "proof-path",
		Role:  Initiator,
		Check: checkProofPath,
	}
}

func checkProofPath(ctx context.Context, env *Env, s *network.Session) error {
	info, ledgerHash, err := ledgerReplayLedger(ctx, env, s, true)
	if err != nil {
		return err
	}
	keys, err := info.StateKeys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("ledger %s lists no state objects", info.LedgerIndex)
	}
	if len(keys) > maxProofPathKeys {
		keys = keys[:maxProofPathKeys]
	}
	for _, key := range keys {
		req := &protocol.ProofPathRequest{Key: key, LedgerHash: ledgerHash, Type: protocol.LedgerMapAccountState}
		if err := s.Send(protocol.NewMessage(req)); err != nil {
			return err
		}
		err := awaitPayload(ctx, s, protocol.ProofPathResponseType, func(resp *protocol.ProofPathResponse) (bool, error) {
			if !bytes.Equal(resp.Key, key) {
				return false, nil
			}
			switch {
			case !bytes.Equal(resp.LedgerHash, ledgerHash):
				return false, fmt.Errorf("proof path for key %X names another ledger", key)
			case resp.Error != protocol.ReplyNone:
				return false, fmt.Errorf("proof path for key %X carries error %d", key, resp.Error)
			case len(resp.Path) == 0:
				return false, fmt.Errorf("proof path for key %X is empty", key)
			}
			return true, nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ReplayDelta asks for the transactions of the validated ledger.
func ReplayDelta() Scenario {
	return Scenario{
		Name:  "replay-delta",
		Role:  Initiator,
		Check: checkReplayDelta,
	}
}

func checkReplayDelta(ctx context.Context, env *Env, s *network.Session) error {
	_, ledgerHash, err := ledgerReplayLedger(ctx, env, s, false)
	if err != nil {
		return err
	}
	if err := s.Send(protocol.NewMessage(&protocol.ReplayDeltaRequest{LedgerHash: ledgerHash})); err != nil {
		return err
	}
	return awaitPayload(ctx, s, protocol.ReplayDeltaResponseType, func(resp *protocol.ReplayDeltaResponse) (bool, error) {
		if !bytes.Equal(resp.LedgerHash, ledgerHash) {
			return false, errors.New("replay delta names another ledger")
		}
		if resp.Error != protocol.ReplyNone {
			return false, fmt.Errorf("replay delta carries error %d", resp.Error)
		}
		return true, nil
	})
}

// awaitPayload waits on s for a message of type t that match accepts. A
// match error ends the wait.
func awaitPayload[T protocol.Payload](ctx context.Context, s *network.Session, t protocol.MessageType, match func(T) (bool, error)) error {
	return await(ctx, s, func(msg protocol.Message) (bool, error) {
		if msg.Type != t {
			return false, nil
		}
		p, err := msg.Decode()
		if err != nil {
			return false, err
		}
		v, ok := p.(T)
		if !ok {
			return false, fmt.Errorf("%s decoded to %T", t, p)
		}
		return match(v)
	})
}
