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

package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// presence records which field numbers were seen while decoding, so that
// required fields can be enforced the way proto2 parsers do.
type presence uint64

func (p *presence) mark(num protowire.Number) {
	if num < 64 {
		*p |= 1 << uint(num)
	}
}

func (p presence) require(nums ...protowire.Number) error {
	for _, num := range nums {
		if p&(1<<uint(num)) == 0 {
			return fmt.Errorf("missing required field %d", num)
		}
	}
	return nil
}

// PingKind distinguishes a ping from its reply.
type PingKind uint32

const (
	// PingRequest asks the peer to reply.
	PingRequest PingKind = 0
	// PingReply answers a PingRequest, echoing its sequence.
	PingReply PingKind = 1
)

// Ping is the keep-alive and latency check.
type Ping struct {
	Kind     PingKind
	Seq      uint32
	PingTime uint64
	NetTime  uint64
}

// MessageType implements Payload.
func (*Ping) MessageType() MessageType { return PingType }

// Marshal implements Payload.
func (p *Ping) Marshal() []byte {
	var e encoder
	e.varint(1, uint64(p.Kind))
	e.varint(2, uint64(p.Seq))
	e.optVarint(3, p.PingTime)
	e.optVarint(4, p.NetTime)
	return e.b
}

// Unmarshal implements Payload.
func (p *Ping) Unmarshal(b []byte) error {
	*p = Ping{}
	var seen presence
	err := walk(b, func(f field) error {
		seen.mark(f.num)
		switch f.num {
		case 1:
			p.Kind = PingKind(f.u)
		case 2:
			p.Seq = f.u32()
		case 3:
			p.PingTime = f.u
		case 4:
			p.NetTime = f.u
		}
		return nil
	})
	if err != nil {
		return err
	}
	return seen.require(1)
}

// Reply builds the pong for a ping.
func (p *Ping) Reply() *Ping {
	r := *p
	r.Kind = PingReply
	return &r
}

// Squelch asks the receiver to stop (or resume) relaying messages
// attributed to a validator.
type Squelch struct {
	Squelch         bool
	ValidatorPubKey []byte
	// Duration in seconds; zero means the receiver's default.
	Duration uint32
}

// MessageType implements Payload.
func (*Squelch) MessageType() MessageType { return SquelchType }

// Marshal implements Payload.
func (s *Squelch) Marshal() []byte {
	var e encoder
	e.boolean(1, s.Squelch)
	e.bytes(2, s.ValidatorPubKey)
	e.optVarint(3, uint64(s.Duration))
	return e.b
}

// Unmarshal implements Payload.
func (s *Squelch) Unmarshal(b []byte) error {
	*s = Squelch{}
	var seen presence
	err := walk(b, func(f field) error {
		seen.mark(f.num)
		switch f.num {
		case 1:
			s.Squelch = f.boolean()
		case 2:
			s.ValidatorPubKey = f.bytes()
		case 3:
			s.Duration = f.u32()
		}
		return nil
	})
	if err != nil {
		return err
	}
	return seen.require(1, 2)
}

// Endpoint is one advertised peer address with its distance in hops.
type Endpoint struct {
	Address string
	Hops    uint32
}

// Marshal encodes the nested endpoint.
func (ep *Endpoint) Marshal() []byte {
	var e encoder
	e.str(1, ep.Address)
	e.varint(2, uint64(ep.Hops))
	return e.b
}

func (ep *Endpoint) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			ep.Address = f.str()
		case 2:
			ep.Hops = f.u32()
		}
		return nil
	})
}

// Endpoints advertises addresses the sender knows about. Hops zero is the
// sender itself.
type Endpoints struct {
	Version   uint32
	Endpoints []Endpoint
}

// MessageType implements Payload.
func (*Endpoints) MessageType() MessageType { return EndpointsType }

// Marshal implements Payload.
func (m *Endpoints) Marshal() []byte {
	var e encoder
	e.varint(1, uint64(m.Version))
	for i := range m.Endpoints {
		e.embedded(3, &m.Endpoints[i])
	}
	return e.b
}

// Unmarshal implements Payload.
func (m *Endpoints) Unmarshal(b []byte) error {
	*m = Endpoints{}
	var seen presence
	err := walk(b, func(f field) error {
		seen.mark(f.num)
		switch f.num {
		case 1:
			m.Version = f.u32()
		case 3:
			var ep Endpoint
			if err := ep.unmarshal(f.b); err != nil {
				return err
			}
			m.Endpoints = append(m.Endpoints, ep)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return seen.require(1)
}

// ClusterNode reports the status of one cluster member.
type ClusterNode struct {
	PublicKey  string
	ReportTime uint32
	NodeLoad   uint32
	NodeName   string
	Address    string
}

// LoadSource reports load attributed to a source.
type LoadSource struct {
	Name  string
	Cost  uint32
	Count uint32
}

// Cluster carries cluster status between trusted cluster members.
type Cluster struct {
	Nodes       []ClusterNode
	LoadSources []LoadSource
}

// MessageType implements Payload.
func (*Cluster) MessageType() MessageType { return ClusterType }

// Marshal implements Payload.
func (c *Cluster) Marshal() []byte {
	var e encoder
	for _, n := range c.Nodes {
		var ne encoder
		ne.str(1, n.PublicKey)
		ne.varint(2, uint64(n.ReportTime))
		ne.varint(3, uint64(n.NodeLoad))
		ne.optStr(4, n.NodeName)
		ne.optStr(5, n.Address)
		e.bytes(1, ne.b)
	}
	for _, s := range c.LoadSources {
		var se encoder
		se.str(1, s.Name)
		se.varint(2, uint64(s.Cost))
		se.optVarint(3, uint64(s.Count))
		e.bytes(2, se.b)
	}
	return e.b
}

// Unmarshal implements Payload.
func (c *Cluster) Unmarshal(b []byte) error {
	*c = Cluster{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			var n ClusterNode
			err := walk(f.b, func(nf field) error {
				switch nf.num {
				case 1:
					n.PublicKey = nf.str()
				case 2:
					n.ReportTime = nf.u32()
				case 3:
					n.NodeLoad = nf.u32()
				case 4:
					n.NodeName = nf.str()
				case 5:
					n.Address = nf.str()
				}
				return nil
			})
			if err != nil {
				return err
			}
			c.Nodes = append(c.Nodes, n)
		case 2:
			var s LoadSource
			err := walk(f.b, func(sf field) error {
				switch sf.num {
				case 1:
					s.Name = sf.str()
				case 2:
					s.Cost = sf.u32()
				case 3:
					s.Count = sf.u32()
				}
				return nil
			})
			if err != nil {
				return err
			}
			c.LoadSources = append(c.LoadSources, s)
		}
		return nil
	})
}

// Manifests carries serialized validator manifests.
type Manifests struct {
	List    [][]byte
	History bool
}

// MessageType implements Payload.
func (*Manifests) MessageType() MessageType { return ManifestsType }

// Marshal implements Payload.
func (m *Manifests) Marshal() []byte {
	var e encoder
	for _, obj := range m.List {
		var me encoder
		me.bytes(1, obj)
		e.bytes(1, me.b)
	}
	e.optBool(2, m.History)
	return e.b
}

// Unmarshal implements Payload.
func (m *Manifests) Unmarshal(b []byte) error {
	*m = Manifests{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			var obj []byte
			err := walk(f.b, func(mf field) error {
				if mf.num == 1 {
					obj = mf.bytes()
				}
				return nil
			})
			if err != nil {
				return err
			}
			m.List = append(m.List, obj)
		case 2:
			m.History = f.boolean()
		}
		return nil
	})
}

// ProposeSet is a consensus proposal from a validator.
type ProposeSet struct {
	ProposeSeq       uint32
	CurrentTxHash    []byte
	NodePubKey       []byte
	CloseTime        uint32
	Signature        []byte
	PreviousLedger   []byte
	CheckedSignature bool
	Added            [][]byte
	Removed          [][]byte
	Hops             uint32
}

// MessageType implements Payload.
func (*ProposeSet) MessageType() MessageType { return ProposeLedgerType }

// Marshal implements Payload.
func (p *ProposeSet) Marshal() []byte {
	var e encoder
	e.varint(1, uint64(p.ProposeSeq))
	e.bytes(2, p.CurrentTxHash)
	e.bytes(3, p.NodePubKey)
	e.varint(4, uint64(p.CloseTime))
	e.bytes(5, p.Signature)
	e.bytes(6, p.PreviousLedger)
	e.optBool(7, p.CheckedSignature)
	e.repeatedBytes(10, p.Added)
	e.repeatedBytes(11, p.Removed)
	e.optVarint(12, uint64(p.Hops))
	return e.b
}

// Unmarshal implements Payload.
func (p *ProposeSet) Unmarshal(b []byte) error {
	*p = ProposeSet{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			p.ProposeSeq = f.u32()
		case 2:
			p.CurrentTxHash = f.bytes()
		case 3:
			p.NodePubKey = f.bytes()
		case 4:
			p.CloseTime = f.u32()
		case 5:
			p.Signature = f.bytes()
		case 6:
			p.PreviousLedger = f.bytes()
		case 7:
			p.CheckedSignature = f.boolean()
		case 10:
			p.Added = append(p.Added, f.bytes())
		case 11:
			p.Removed = append(p.Removed, f.bytes())
		case 12:
			p.Hops = f.u32()
		}
		return nil
	})
}

// ValidatorKey implements Attributable.
func (p *ProposeSet) ValidatorKey() []byte {
	return p.NodePubKey
}

// Validation carries a serialized validation object.
type Validation struct {
	Validation       []byte
	CheckedSignature bool
	Hops             uint32
}

// MessageType implements Payload.
func (*Validation) MessageType() MessageType { return ValidationType }

// Marshal implements Payload.
func (v *Validation) Marshal() []byte {
	var e encoder
	e.bytes(1, v.Validation)
	e.optBool(2, v.CheckedSignature)
	e.optVarint(3, uint64(v.Hops))
	return e.b
}

// Unmarshal implements Payload.
func (v *Validation) Unmarshal(b []byte) error {
	*v = Validation{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			v.Validation = f.bytes()
		case 2:
			v.CheckedSignature = f.boolean()
		case 3:
			v.Hops = f.u32()
		}
		return nil
	})
}

// ValidatorKey implements Attributable. It returns nil when the serialized
// validation carries no signing key.
func (v *Validation) ValidatorKey() []byte {
	key, err := SigningPubKey(v.Validation)
	if err != nil {
		return nil
	}
	return key
}

// Attributable is implemented by payloads that are attributed to a validator.
type Attributable interface {
	ValidatorKey() []byte
}

// TransactionStatus is the relay status of a transaction.
type TransactionStatus uint32

const (
	// TxNew is a transaction not yet applied.
	TxNew TransactionStatus = 1
	// TxCurrent is a transaction applied to the open ledger.
	TxCurrent TransactionStatus = 2
	// TxCommitted is a transaction in a closed ledger.
	TxCommitted TransactionStatus = 3
	// TxRejectConflict is rejected because of a conflict.
	TxRejectConflict TransactionStatus = 4
	// TxRejectInvalid is rejected as invalid.
	TxRejectInvalid TransactionStatus = 5
	// TxRejectFunds is rejected for insufficient funds.
	TxRejectFunds TransactionStatus = 6
	// TxHeldSeq is held for a sequence gap.
	TxHeldSeq TransactionStatus = 7
	// TxHeldLedger is held for a future ledger.
	TxHeldLedger TransactionStatus = 8
)

// Transaction relays one serialized transaction.
type Transaction struct {
	RawTransaction   []byte
	Status           TransactionStatus
	ReceiveTimestamp uint64
	Deferred         bool
}

// MessageType implements Payload.
func (*Transaction) MessageType() MessageType { return TransactionType }

// Marshal implements Payload.
func (t *Transaction) Marshal() []byte {
	var e encoder
	e.bytes(1, t.RawTransaction)
	e.varint(2, uint64(t.Status))
	e.optVarint(3, t.ReceiveTimestamp)
	e.optBool(4, t.Deferred)
	return e.b
}

// Unmarshal implements Payload.
func (t *Transaction) Unmarshal(b []byte) error {
	*t = Transaction{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			t.RawTransaction = f.bytes()
		case 2:
			t.Status = TransactionStatus(f.u)
		case 3:
			t.ReceiveTimestamp = f.u
		case 4:
			t.Deferred = f.boolean()
		}
		return nil
	})
}

// Transactions answers a HaveTransactions request.
type Transactions struct {
	Transactions []Transaction
}

// MessageType implements Payload.
func (*Transactions) MessageType() MessageType { return TransactionsType }

// Marshal implements Payload.
func (t *Transactions) Marshal() []byte {
	var e encoder
	for i := range t.Transactions {
		e.embedded(1, &t.Transactions[i])
	}
	return e.b
}

// Unmarshal implements Payload.
func (t *Transactions) Unmarshal(b []byte) error {
	*t = Transactions{}
	return walk(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		var tx Transaction
		if err := tx.Unmarshal(f.b); err != nil {
			return err
		}
		t.Transactions = append(t.Transactions, tx)
		return nil
	})
}

// HaveTransactions announces transaction hashes the sender holds.
type HaveTransactions struct {
	Hashes [][]byte
}

// MessageType implements Payload.
func (*HaveTransactions) MessageType() MessageType { return HaveTransactionsType }

// Marshal implements Payload.
func (h *HaveTransactions) Marshal() []byte {
	var e encoder
	e.repeatedBytes(1, h.Hashes)
	return e.b
}

// Unmarshal implements Payload.
func (h *HaveTransactions) Unmarshal(b []byte) error {
	*h = HaveTransactions{}
	return walk(b, func(f field) error {
		if f.num == 1 {
			h.Hashes = append(h.Hashes, f.bytes())
		}
		return nil
	})
}

// TxSetStatus reports how much of a transaction set the sender has.
type TxSetStatus uint32

const (
	// TxSetHave means the sender has the set.
	TxSetHave TxSetStatus = 1
	// TxSetCanGet means the sender can get the set.
	TxSetCanGet TxSetStatus = 2
	// TxSetNeed means the sender needs the set.
	TxSetNeed TxSetStatus = 3
)

// HaveTransactionSet announces a transaction set.
type HaveTransactionSet struct {
	Status TxSetStatus
	Hash   []byte
}

// MessageType implements Payload.
func (*HaveTransactionSet) MessageType() MessageType { return HaveSetType }

// Marshal implements Payload.
func (h *HaveTransactionSet) Marshal() []byte {
	var e encoder
	e.varint(1, uint64(h.Status))
	e.bytes(2, h.Hash)
	return e.b
}

// Unmarshal implements Payload.
func (h *HaveTransactionSet) Unmarshal(b []byte) error {
	*h = HaveTransactionSet{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			h.Status = TxSetStatus(f.u)
		case 2:
			h.Hash = f.bytes()
		}
		return nil
	})
}

// StatusChange reports a change in the sender's ledger or operating state.
type StatusChange struct {
	NewStatus          uint32
	NewEvent           uint32
	LedgerSeq          uint32
	LedgerHash         []byte
	LedgerHashPrevious []byte
	NetworkTime        uint64
	FirstSeq           uint32
	LastSeq            uint32
}

// MessageType implements Payload.
func (*StatusChange) MessageType() MessageType { return StatusChangeType }

// Marshal implements Payload.
func (s *StatusChange) Marshal() []byte {
	var e encoder
	e.optVarint(1, uint64(s.NewStatus))
	e.optVarint(2, uint64(s.NewEvent))
	e.optVarint(3, uint64(s.LedgerSeq))
	e.optBytes(4, s.LedgerHash)
	e.optBytes(5, s.LedgerHashPrevious)
	e.optVarint(6, s.NetworkTime)
	e.optVarint(7, uint64(s.FirstSeq))
	e.optVarint(8, uint64(s.LastSeq))
	return e.b
}

// Unmarshal implements Payload.
func (s *StatusChange) Unmarshal(b []byte) error {
	*s = StatusChange{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			s.NewStatus = f.u32()
		case 2:
			s.NewEvent = f.u32()
		case 3:
			s.LedgerSeq = f.u32()
		case 4:
			s.LedgerHash = f.bytes()
		case 5:
			s.LedgerHashPrevious = f.bytes()
		case 6:
			s.NetworkTime = f.u
		case 7:
			s.FirstSeq = f.u32()
		case 8:
			s.LastSeq = f.u32()
		}
		return nil
	})
}

// ValidatorList publishes a signed validator list.
type ValidatorList struct {
	Manifest  []byte
	Blob      []byte
	Signature []byte
	Version   uint32
}

// MessageType implements Payload.
func (*ValidatorList) MessageType() MessageType { return ValidatorListType }

// Marshal implements Payload.
func (v *ValidatorList) Marshal() []byte {
	var e encoder
	e.bytes(1, v.Manifest)
	e.bytes(2, v.Blob)
	e.bytes(3, v.Signature)
	e.varint(4, uint64(v.Version))
	return e.b
}

// Unmarshal implements Payload.
func (v *ValidatorList) Unmarshal(b []byte) error {
	*v = ValidatorList{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			v.Manifest = f.bytes()
		case 2:
			v.Blob = f.bytes()
		case 3:
			v.Signature = f.bytes()
		case 4:
			v.Version = f.u32()
		}
		return nil
	})
}

// ValidatorBlobInfo is one blob of a validator list collection.
type ValidatorBlobInfo struct {
	Manifest  []byte
	Blob      []byte
	Signature []byte
}

// ValidatorListCollection publishes several validator list blobs at once.
type ValidatorListCollection struct {
	Version  uint32
	Manifest []byte
	Blobs    []ValidatorBlobInfo
}

// MessageType implements Payload.
func (*ValidatorListCollection) MessageType() MessageType { return ValidatorListCollectionType }

// Marshal implements Payload.
func (v *ValidatorListCollection) Marshal() []byte {
	var e encoder
	e.varint(1, uint64(v.Version))
	e.bytes(2, v.Manifest)
	for _, blob := range v.Blobs {
		var be encoder
		be.optBytes(1, blob.Manifest)
		be.bytes(2, blob.Blob)
		be.bytes(3, blob.Signature)
		e.bytes(3, be.b)
	}
	return e.b
}

// Unmarshal implements Payload.
func (v *ValidatorListCollection) Unmarshal(b []byte) error {
	*v = ValidatorListCollection{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			v.Version = f.u32()
		case 2:
			v.Manifest = f.bytes()
		case 3:
			var blob ValidatorBlobInfo
			err := walk(f.b, func(bf field) error {
				switch bf.num {
				case 1:
					blob.Manifest = bf.bytes()
				case 2:
					blob.Blob = bf.bytes()
				case 3:
					blob.Signature = bf.bytes()
				}
				return nil
			})
			if err != nil {
				return err
			}
			v.Blobs = append(v.Blobs, blob)
		}
		return nil
	})
}
