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
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/algorand/go-deadlock"

	"github.com/xrpl-synth/synthpeer/crypto"
	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/protocol"
)

// Hash prefixes, as the node uses them.
var (
	prefixLedger   = []byte("LWR\x00")
	prefixLeaf     = []byte("MLN\x00")
	prefixInner    = []byte("MIN\x00")
	prefixProposal = []byte("PRP\x00")
)

const (
	// rippleEpoch is 2000-01-01T00:00:00Z in Unix seconds.
	rippleEpoch = 946684800

	defaultLedgerSeq     = 2
	defaultStateAccounts = 4
)

type hash256 = [32]byte

// ledger is the one closed ledger the reference node serves. Its state tree
// is flat: every object hangs off the root.
type ledger struct {
	seq       uint32
	hash      hash256
	header    []byte
	root      []byte
	stateKeys []hash256
	state     map[hash256][]byte
}

func makeLedger(seq uint32, accounts int) *ledger {
	l := &ledger{seq: seq, state: make(map[hash256][]byte, accounts)}
	var idx [4]byte
	for i := 0; i < accounts; i++ {
		binary.BigEndian.PutUint32(idx[:], uint32(i))
		key := crypto.SHA512Half([]byte("account"), idx[:])
		obj := crypto.SHA512Half([]byte("object"), key[:])
		l.state[key] = obj[:]
		l.stateKeys = append(l.stateKeys, key)
	}
	sort.Slice(l.stateKeys, func(i, j int) bool { return bytes.Compare(l.stateKeys[i][:], l.stateKeys[j][:]) < 0 })
	for _, key := range l.stateKeys {
		leaf := l.leafHash(key)
		l.root = append(l.root, leaf[:]...)
	}
	stateRoot := crypto.SHA512Half(prefixInner, l.root)

	var parent, txRoot hash256
	binary.BigEndian.PutUint32(idx[:], seq-1)
	parent = crypto.SHA512Half(prefixLedger, idx[:])
	h := binary.BigEndian.AppendUint32(nil, seq)
	h = binary.BigEndian.AppendUint64(h, 100_000_000_000_000_000)
	h = append(h, parent[:]...)
	h = append(h, txRoot[:]...)
	h = append(h, stateRoot[:]...)
	h = binary.BigEndian.AppendUint32(h, 0)
	h = binary.BigEndian.AppendUint32(h, 0)
	h = append(h, 10, 0)
	l.header = h
	l.hash = crypto.SHA512Half(prefixLedger, h)
	return l
}

func (l *ledger) leafHash(key hash256) hash256 {
	return crypto.SHA512Half(prefixLeaf, l.state[key], key[:])
}

// matches reports whether a request naming hash and seq refers to l. Zero
// values name the closed ledger.
func (l *ledger) matches(hash []byte, seq uint32) bool {
	if len(hash) > 0 && !bytes.Equal(hash, l.hash[:]) {
		return false
	}
	return seq == 0 || seq == l.seq
}

// txStore keeps every transaction the node has seen, in arrival order.
type txStore struct {
	mu    deadlock.Mutex
	blobs map[hash256][]byte
	order []hash256
}

func makeTxStore() *txStore {
	return &txStore{blobs: make(map[hash256][]byte)}
}

// add stores raw and reports whether it was new.
func (st *txStore) add(raw []byte) (hash256, bool) {
	id := crypto.TransactionID(raw)
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.blobs[id]; ok {
		return id, false
	}
	st.blobs[id] = append([]byte(nil), raw...)
	st.order = append(st.order, id)
	return id, true
}

func (st *txStore) get(id []byte) ([]byte, bool) {
	var key hash256
	if len(id) != len(key) {
		return nil, false
	}
	copy(key[:], id)
	st.mu.Lock()
	defer st.mu.Unlock()
	raw, ok := st.blobs[key]
	return raw, ok
}

// setHash is the hash of the open transaction set; ok is false while the
// set is empty.
func (st *txStore) setHash() (h hash256, ok bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.order) == 0 {
		return h, false
	}
	buf := make([]byte, 0, len(st.order)*len(h))
	for _, id := range st.order {
		buf = append(buf, id[:]...)
	}
	return crypto.SHA512Half(prefixInner, buf), true
}

// negotiated is the feature set both the node and the peer on s enabled.
func (n *Node) negotiated(s *network.Session) network.Features {
	return n.cfg.Session.Handshake.Features.Intersect(s.Identity().Features)
}

func decodeAs[T protocol.Payload](msg protocol.Message) (T, bool) {
	var zero T
	p, err := msg.Decode()
	if err != nil {
		return zero, false
	}
	t, ok := p.(T)
	return t, ok
}

func reply(p protocol.Payload) []protocol.Message {
	return []protocol.Message{protocol.NewMessage(p)}
}

func (n *Node) answerGetLedger(s *network.Session, msg protocol.Message) []protocol.Message {
	req, ok := decodeAs[*protocol.GetLedger](msg)
	if !ok {
		return nil
	}
	l := n.ledger
	if !l.matches(req.LedgerHash, req.LedgerSeq) {
		n.log.Debugf("%s asked for an unknown ledger", s.Identity())
		return nil
	}
	resp := &protocol.LedgerData{
		LedgerHash:    l.hash[:],
		LedgerSeq:     l.seq,
		InfoType:      req.InfoType,
		RequestCookie: uint32(req.RequestCookie),
	}
	switch req.InfoType {
	case protocol.LedgerInfoBase:
		resp.Nodes = []protocol.LedgerNode{{NodeData: l.header}}
	case protocol.LedgerInfoAsNode, protocol.LedgerInfoTxNode:
		if len(req.NodeIDs) == 0 {
			resp.Error = uint32(protocol.ReplyBadRequest)
			break
		}
		// both trees are a single level deep, so every node ID resolves to
		// the root; the transaction tree is empty
		data := l.root
		if req.InfoType == protocol.LedgerInfoTxNode {
			data = nil
		}
		for _, id := range req.NodeIDs {
			resp.Nodes = append(resp.Nodes, protocol.LedgerNode{NodeData: data, NodeID: id})
		}
	default:
		resp.Error = uint32(protocol.ReplyNoNode)
	}
	return reply(resp)
}

func (n *Node) answerGetObjects(s *network.Session, msg protocol.Message) []protocol.Message {
	req, ok := decodeAs[*protocol.GetObjectByHash](msg)
	if !ok || !req.Query {
		return nil
	}
	if req.Type == protocol.ObjectTransactions {
		var found protocol.Transactions
		for _, o := range req.Objects {
			if raw, ok := n.txs.get(o.Hash); ok {
				found.Transactions = append(found.Transactions, protocol.Transaction{RawTransaction: raw, Status: protocol.TxCurrent})
			}
		}
		if len(found.Transactions) == 0 {
			return nil
		}
		return reply(&found)
	}

	resp := &protocol.GetObjectByHash{Type: req.Type, Seq: req.Seq, LedgerHash: req.LedgerHash}
	for _, o := range req.Objects {
		var data []byte
		switch req.Type {
		case protocol.ObjectTransaction:
			data, _ = n.txs.get(o.Hash)
		case protocol.ObjectLedger:
			if bytes.Equal(o.Hash, n.ledger.hash[:]) {
				data = n.ledger.header
			}
		case protocol.ObjectStateNode:
			var key hash256
			copy(key[:], o.Hash)
			data = n.ledger.state[key]
		}
		if data != nil {
			resp.Objects = append(resp.Objects, protocol.IndexedObject{Hash: o.Hash, Data: data})
		}
	}
	return reply(resp)
}

// answerHaveTransactions asks the announcing peer for the transactions the
// node does not hold yet.
func (n *Node) answerHaveTransactions(s *network.Session, msg protocol.Message) []protocol.Message {
	if !n.negotiated(s).TxReduceRelay {
		return nil
	}
	have, ok := decodeAs[*protocol.HaveTransactions](msg)
	if !ok {
		return nil
	}
	query := &protocol.GetObjectByHash{Type: protocol.ObjectTransactions, Query: true}
	for _, h := range have.Hashes {
		if _, known := n.txs.get(h); !known {
			query.Objects = append(query.Objects, protocol.IndexedObject{Hash: h})
		}
	}
	if len(query.Objects) == 0 {
		return nil
	}
	return reply(query)
}

// acceptTransaction stores a relayed transaction and passes it on to every
// other peer the first time it is seen.
func (n *Node) acceptTransaction(s *network.Session, msg protocol.Message) []protocol.Message {
	tx, ok := decodeAs[*protocol.Transaction](msg)
	if !ok || len(tx.RawTransaction) == 0 {
		return nil
	}
	if _, fresh := n.txs.add(tx.RawTransaction); !fresh {
		return nil
	}
	fwd := protocol.NewMessage(&protocol.Transaction{RawTransaction: tx.RawTransaction, Status: protocol.TxCurrent})
	for _, other := range n.peer.Sessions() {
		if other.ID() == s.ID() {
			continue
		}
		if err := other.Send(fwd); err != nil {
			n.log.Debugf("relaying a transaction to %s: %v", other.Identity(), err)
		}
	}
	return nil
}

func (n *Node) answerProofPath(s *network.Session, msg protocol.Message) []protocol.Message {
	if !n.negotiated(s).LedgerReplay {
		return nil
	}
	req, ok := decodeAs[*protocol.ProofPathRequest](msg)
	if !ok {
		return nil
	}
	l := n.ledger
	resp := &protocol.ProofPathResponse{Key: req.Key, LedgerHash: req.LedgerHash, Type: req.Type}
	var key hash256
	copy(key[:], req.Key)
	_, known := l.state[key]
	switch {
	case len(req.Key) != len(key) || len(req.LedgerHash) != len(l.hash):
		resp.Error = protocol.ReplyBadRequest
	case !bytes.Equal(req.LedgerHash, l.hash[:]):
		resp.Error = protocol.ReplyNoLedger
	case req.Type != protocol.LedgerMapAccountState || !known:
		resp.Error = protocol.ReplyNoNode
	default:
		leaf := append(append([]byte(nil), l.state[key]...), key[:]...)
		resp.LedgerHeader = l.header
		resp.Path = [][]byte{leaf, l.root}
	}
	return reply(resp)
}

func (n *Node) answerReplayDelta(s *network.Session, msg protocol.Message) []protocol.Message {
	if !n.negotiated(s).LedgerReplay {
		return nil
	}
	req, ok := decodeAs[*protocol.ReplayDeltaRequest](msg)
	if !ok {
		return nil
	}
	resp := &protocol.ReplayDeltaResponse{LedgerHash: req.LedgerHash}
	switch {
	case len(req.LedgerHash) != len(n.ledger.hash):
		resp.Error = protocol.ReplyBadRequest
	case !bytes.Equal(req.LedgerHash, n.ledger.hash[:]):
		resp.Error = protocol.ReplyNoLedger
	default:
		// the closed ledger applied no transactions
		resp.LedgerHeader = n.ledger.header
	}
	return reply(resp)
}
