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

// LedgerInfoType selects which part of a ledger a GetLedger asks for.
type LedgerInfoType uint32

const (
	// LedgerInfoBase asks for the ledger header.
	LedgerInfoBase LedgerInfoType = 0
	// LedgerInfoTxNode asks for transaction tree nodes.
	LedgerInfoTxNode LedgerInfoType = 1
	// LedgerInfoAsNode asks for account state tree nodes.
	LedgerInfoAsNode LedgerInfoType = 2
	// LedgerInfoTsCandidate asks for a candidate transaction set.
	LedgerInfoTsCandidate LedgerInfoType = 3
)

// Ledger types a GetLedger names when it carries no hash or sequence.
const (
	LedgerTypeAccepted uint32 = 0
	LedgerTypeClosed   uint32 = 2
)

// GetLedger requests ledger data.
type GetLedger struct {
	InfoType      LedgerInfoType
	LedgerType    uint32
	LedgerHash    []byte
	LedgerSeq     uint32
	NodeIDs       [][]byte
	RequestCookie uint64
	QueryType     uint32
	QueryDepth    uint32
}

// MessageType implements Payload.
func (*GetLedger) MessageType() MessageType { return GetLedgerType }

// Marshal implements Payload.
func (g *GetLedger) Marshal() []byte {
	var e encoder
	e.varint(1, uint64(g.InfoType))
	e.optVarint(2, uint64(g.LedgerType))
	e.optBytes(3, g.LedgerHash)
	e.optVarint(4, uint64(g.LedgerSeq))
	e.repeatedBytes(5, g.NodeIDs)
	e.optVarint(6, g.RequestCookie)
	e.optVarint(7, uint64(g.QueryType))
	e.optVarint(8, uint64(g.QueryDepth))
	return e.b
}

// Unmarshal implements Payload.
func (g *GetLedger) Unmarshal(b []byte) error {
	*g = GetLedger{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			g.InfoType = LedgerInfoType(f.u)
		case 2:
			g.LedgerType = f.u32()
		case 3:
			g.LedgerHash = f.bytes()
		case 4:
			g.LedgerSeq = f.u32()
		case 5:
			g.NodeIDs = append(g.NodeIDs, f.bytes())
		case 6:
			g.RequestCookie = f.u
		case 7:
			g.QueryType = f.u32()
		case 8:
			g.QueryDepth = f.u32()
		}
		return nil
	})
}

// LedgerNode is one node of ledger data.
type LedgerNode struct {
	NodeData []byte
	NodeID   []byte
}

// LedgerData answers a GetLedger.
type LedgerData struct {
	LedgerHash    []byte
	LedgerSeq     uint32
	InfoType      LedgerInfoType
	Nodes         []LedgerNode
	RequestCookie uint32
	Error         uint32
}

// MessageType implements Payload.
func (*LedgerData) MessageType() MessageType { return LedgerDataType }

// Marshal implements Payload.
func (l *LedgerData) Marshal() []byte {
	var e encoder
	e.bytes(1, l.LedgerHash)
	e.varint(2, uint64(l.LedgerSeq))
	e.varint(3, uint64(l.InfoType))
	for _, n := range l.Nodes {
		var ne encoder
		ne.bytes(1, n.NodeData)
		ne.optBytes(2, n.NodeID)
		e.bytes(4, ne.b)
	}
	e.optVarint(5, uint64(l.RequestCookie))
	e.optVarint(6, uint64(l.Error))
	return e.b
}

// Unmarshal implements Payload.
func (l *LedgerData) Unmarshal(b []byte) error {
	*l = LedgerData{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			l.LedgerHash = f.bytes()
		case 2:
			l.LedgerSeq = f.u32()
		case 3:
			l.InfoType = LedgerInfoType(f.u)
		case 4:
			var n LedgerNode
			err := walk(f.b, func(nf field) error {
				switch nf.num {
				case 1:
					n.NodeData = nf.bytes()
				case 2:
					n.NodeID = nf.bytes()
				}
				return nil
			})
			if err != nil {
				return err
			}
			l.Nodes = append(l.Nodes, n)
		case 5:
			l.RequestCookie = f.u32()
		case 6:
			l.Error = f.u32()
		}
		return nil
	})
}

// ObjectType selects what a GetObjectByHash refers to.
type ObjectType uint32

const (
	// ObjectUnknown is an unspecified object.
	ObjectUnknown ObjectType = 0
	// ObjectLedger is a ledger header.
	ObjectLedger ObjectType = 1
	// ObjectTransaction is a transaction.
	ObjectTransaction ObjectType = 2
	// ObjectTransactionNode is a transaction tree node.
	ObjectTransactionNode ObjectType = 3
	// ObjectStateNode is a state tree node.
	ObjectStateNode ObjectType = 4
	// ObjectCasObject is a content-addressed object.
	ObjectCasObject ObjectType = 5
	// ObjectFetchPack is a fetch pack.
	ObjectFetchPack ObjectType = 6
	// ObjectTransactions is a list of transactions.
	ObjectTransactions ObjectType = 7
)

// IndexedObject is one object of a GetObjectByHash.
type IndexedObject struct {
	Hash      []byte
	NodeID    []byte
	Index     []byte
	Data      []byte
	LedgerSeq uint32
}

func (o *IndexedObject) Marshal() []byte {
	var e encoder
	e.optBytes(1, o.Hash)
	e.optBytes(2, o.NodeID)
	e.optBytes(3, o.Index)
	e.optBytes(4, o.Data)
	e.optVarint(5, uint64(o.LedgerSeq))
	return e.b
}

func (o *IndexedObject) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			o.Hash = f.bytes()
		case 2:
			o.NodeID = f.bytes()
		case 3:
			o.Index = f.bytes()
		case 4:
			o.Data = f.bytes()
		case 5:
			o.LedgerSeq = f.u32()
		}
		return nil
	})
}

// GetObjectByHash requests (Query true) or returns objects by hash.
type GetObjectByHash struct {
	Type       ObjectType
	Query      bool
	Seq        uint32
	LedgerHash []byte
	Fat        bool
	Objects    []IndexedObject
}

// MessageType implements Payload.
func (*GetObjectByHash) MessageType() MessageType { return GetObjectsType }

// Marshal implements Payload.
func (g *GetObjectByHash) Marshal() []byte {
	var e encoder
	e.varint(1, uint64(g.Type))
	e.boolean(2, g.Query)
	e.optVarint(3, uint64(g.Seq))
	e.optBytes(4, g.LedgerHash)
	e.optBool(5, g.Fat)
	for i := range g.Objects {
		e.embedded(6, &g.Objects[i])
	}
	return e.b
}

// Unmarshal implements Payload.
func (g *GetObjectByHash) Unmarshal(b []byte) error {
	*g = GetObjectByHash{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			g.Type = ObjectType(f.u)
		case 2:
			g.Query = f.boolean()
		case 3:
			g.Seq = f.u32()
		case 4:
			g.LedgerHash = f.bytes()
		case 5:
			g.Fat = f.boolean()
		case 6:
			var o IndexedObject
			if err := o.unmarshal(f.b); err != nil {
				return err
			}
			g.Objects = append(g.Objects, o)
		}
		return nil
	})
}

// LedgerMapType selects the tree a proof path refers to.
type LedgerMapType uint32

const (
	// LedgerMapTransaction is the transaction tree.
	LedgerMapTransaction LedgerMapType = 1
	// LedgerMapAccountState is the account state tree.
	LedgerMapAccountState LedgerMapType = 2
)

// ReplyError is the error code carried by replay and proof path responses.
type ReplyError uint32

const (
	// ReplyNone means no error.
	ReplyNone ReplyError = 0
	// ReplyNoLedger means the ledger is unknown to the responder.
	ReplyNoLedger ReplyError = 1
	// ReplyNoNode means the requested node is unknown.
	ReplyNoNode ReplyError = 2
	// ReplyBadRequest means the request was malformed.
	ReplyBadRequest ReplyError = 3
)

// ProofPathRequest asks for a merkle proof path for a key.
type ProofPathRequest struct {
	Key        []byte
	LedgerHash []byte
	Type       LedgerMapType
}

// MessageType implements Payload.
func (*ProofPathRequest) MessageType() MessageType { return ProofPathRequestType }

// Marshal implements Payload.
func (p *ProofPathRequest) Marshal() []byte {
	var e encoder
	e.bytes(1, p.Key)
	e.bytes(2, p.LedgerHash)
	e.varint(3, uint64(p.Type))
	return e.b
}

// Unmarshal implements Payload.
func (p *ProofPathRequest) Unmarshal(b []byte) error {
	*p = ProofPathRequest{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			p.Key = f.bytes()
		case 2:
			p.LedgerHash = f.bytes()
		case 3:
			p.Type = LedgerMapType(f.u)
		}
		return nil
	})
}

// ProofPathResponse answers a ProofPathRequest.
type ProofPathResponse struct {
	Key          []byte
	LedgerHash   []byte
	Type         LedgerMapType
	LedgerHeader []byte
	Path         [][]byte
	Error        ReplyError
}

// MessageType implements Payload.
func (*ProofPathResponse) MessageType() MessageType { return ProofPathResponseType }

// Marshal implements Payload.
func (p *ProofPathResponse) Marshal() []byte {
	var e encoder
	e.bytes(1, p.Key)
	e.bytes(2, p.LedgerHash)
	e.varint(3, uint64(p.Type))
	e.optBytes(4, p.LedgerHeader)
	e.repeatedBytes(5, p.Path)
	e.optVarint(6, uint64(p.Error))
	return e.b
}

// Unmarshal implements Payload.
func (p *ProofPathResponse) Unmarshal(b []byte) error {
	*p = ProofPathResponse{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			p.Key = f.bytes()
		case 2:
			p.LedgerHash = f.bytes()
		case 3:
			p.Type = LedgerMapType(f.u)
		case 4:
			p.LedgerHeader = f.bytes()
		case 5:
			p.Path = append(p.Path, f.bytes())
		case 6:
			p.Error = ReplyError(f.u)
		}
		return nil
	})
}

// ReplayDeltaRequest asks for the transactions of a ledger.
type ReplayDeltaRequest struct {
	LedgerHash []byte
}

// MessageType implements Payload.
func (*ReplayDeltaRequest) MessageType() MessageType { return ReplayDeltaRequestType }

// Marshal implements Payload.
func (r *ReplayDeltaRequest) Marshal() []byte {
	var e encoder
	e.bytes(1, r.LedgerHash)
	return e.b
}

// Unmarshal implements Payload.
func (r *ReplayDeltaRequest) Unmarshal(b []byte) error {
	*r = ReplayDeltaRequest{}
	return walk(b, func(f field) error {
		if f.num == 1 {
			r.LedgerHash = f.bytes()
		}
		return nil
	})
}

// ReplayDeltaResponse answers a ReplayDeltaRequest.
type ReplayDeltaResponse struct {
	LedgerHash   []byte
	LedgerHeader []byte
	Transactions [][]byte
	Error        ReplyError
}

// MessageType implements Payload.
func (*ReplayDeltaResponse) MessageType() MessageType { return ReplayDeltaResponseType }

// Marshal implements Payload.
func (r *ReplayDeltaResponse) Marshal() []byte {
	var e encoder
	e.bytes(1, r.LedgerHash)
	e.optBytes(2, r.LedgerHeader)
	e.repeatedBytes(3, r.Transactions)
	e.optVarint(4, uint64(r.Error))
	return e.b
}

// Unmarshal implements Payload.
func (r *ReplayDeltaResponse) Unmarshal(b []byte) error {
	*r = ReplayDeltaResponse{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			r.LedgerHash = f.bytes()
		case 2:
			r.LedgerHeader = f.bytes()
		case 3:
			r.Transactions = append(r.Transactions, f.bytes())
		case 4:
			r.Error = ReplyError(f.u)
		}
		return nil
	})
}
