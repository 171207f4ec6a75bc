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
	"bytes"
)

// Message is a framed (type, payload) pair. Messages are values; the codec
// never retains or aliases the buffers it decodes from.
type Message struct {
	Type    MessageType
	Payload []byte
}

// Equal compares type and payload bytes, treating nil and empty payloads as equal.
func (m Message) Equal(o Message) bool {
	return m.Type == o.Type && bytes.Equal(m.Payload, o.Payload)
}

// Payload is a typed message body.
type Payload interface {
	MessageType() MessageType
	Marshal() []byte
	Unmarshal([]byte) error
}

// NewMessage wraps a typed payload into a Message.
func NewMessage(p Payload) Message {
	return Message{Type: p.MessageType(), Payload: p.Marshal()}
}

var payloadFactories = map[MessageType]func() Payload{
	ManifestsType:               func() Payload { return &Manifests{} },
	PingType:                    func() Payload { return &Ping{} },
	ClusterType:                 func() Payload { return &Cluster{} },
	EndpointsType:               func() Payload { return &Endpoints{} },
	TransactionType:             func() Payload { return &Transaction{} },
	GetLedgerType:               func() Payload { return &GetLedger{} },
	LedgerDataType:              func() Payload { return &LedgerData{} },
	ProposeLedgerType:           func() Payload { return &ProposeSet{} },
	StatusChangeType:            func() Payload { return &StatusChange{} },
	HaveSetType:                 func() Payload { return &HaveTransactionSet{} },
	ValidationType:              func() Payload { return &Validation{} },
	GetObjectsType:              func() Payload { return &GetObjectByHash{} },
	ValidatorListType:           func() Payload { return &ValidatorList{} },
	SquelchType:                 func() Payload { return &Squelch{} },
	ValidatorListCollectionType: func() Payload { return &ValidatorListCollection{} },
	ProofPathRequestType:        func() Payload { return &ProofPathRequest{} },
	ProofPathResponseType:       func() Payload { return &ProofPathResponse{} },
	ReplayDeltaRequestType:      func() Payload { return &ReplayDeltaRequest{} },
	ReplayDeltaResponseType:     func() Payload { return &ReplayDeltaResponse{} },
	GetPeerShardInfoV2Type:      func() Payload { return &GetPeerShardInfoV2{} },
	PeerShardInfoV2Type:         func() Payload { return &PeerShardInfoV2{} },
	HaveTransactionsType:        func() Payload { return &HaveTransactions{} },
	TransactionsType:            func() Payload { return &Transactions{} },
}

// NewPayload returns an empty typed payload for t, or nil for unknown types.
func NewPayload(t MessageType) Payload {
	f, ok := payloadFactories[t]
	if !ok {
		return nil
	}
	return f()
}

// Decode parses the payload as its declared type.
func (m Message) Decode() (Payload, error) {
	p := NewPayload(m.Type)
	if p == nil {
		return nil, &DecodeError{Kind: UnknownType, Type: m.Type}
	}
	if err := p.Unmarshal(m.Payload); err != nil {
		return nil, &DecodeError{Kind: MalformedPayload, Type: m.Type, Err: err}
	}
	return p, nil
}
