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
	"strconv"
)

// MessageType is the type code carried in every frame header. Handlers are
// registered per MessageType.
type MessageType uint16

// Message types of the peer protocol, in numeric order. The values are fixed
// by the wire format.
const (
	UnknownMessageType          MessageType = 0
	ManifestsType               MessageType = 2
	PingType                    MessageType = 3
	ClusterType                 MessageType = 5
	EndpointsType               MessageType = 15
	TransactionType             MessageType = 30
	GetLedgerType               MessageType = 31
	LedgerDataType              MessageType = 32
	ProposeLedgerType           MessageType = 33
	StatusChangeType            MessageType = 34
	HaveSetType                 MessageType = 35
	ValidationType              MessageType = 41
	GetObjectsType              MessageType = 42
	ValidatorListType           MessageType = 54
	SquelchType                 MessageType = 55
	ValidatorListCollectionType MessageType = 56
	ProofPathRequestType        MessageType = 57
	ProofPathResponseType       MessageType = 58
	ReplayDeltaRequestType      MessageType = 59
	ReplayDeltaResponseType     MessageType = 60
	GetPeerShardInfoV2Type      MessageType = 61
	PeerShardInfoV2Type         MessageType = 62
	HaveTransactionsType        MessageType = 63
	TransactionsType            MessageType = 64
)

var messageTypeNames = map[MessageType]string{
	ManifestsType:               "manifests",
	PingType:                    "ping",
	ClusterType:                 "cluster",
	EndpointsType:               "endpoints",
	TransactionType:             "transaction",
	GetLedgerType:               "get_ledger",
	LedgerDataType:              "ledger_data",
	ProposeLedgerType:           "propose_ledger",
	StatusChangeType:            "status_change",
	HaveSetType:                 "have_set",
	ValidationType:              "validation",
	GetObjectsType:              "get_objects",
	ValidatorListType:           "validator_list",
	SquelchType:                 "squelch",
	ValidatorListCollectionType: "validator_list_collection",
	ProofPathRequestType:        "proof_path_request",
	ProofPathResponseType:       "proof_path_response",
	ReplayDeltaRequestType:      "replay_delta_request",
	ReplayDeltaResponseType:     "replay_delta_response",
	GetPeerShardInfoV2Type:      "get_peer_shard_info_v2",
	PeerShardInfoV2Type:         "peer_shard_info_v2",
	HaveTransactionsType:        "have_transactions",
	TransactionsType:            "transactions",
}

// MessageTypes lists every known type in ascending order.
var MessageTypes = []MessageType{
	ManifestsType, PingType, ClusterType, EndpointsType, TransactionType,
	GetLedgerType, LedgerDataType, ProposeLedgerType, StatusChangeType, HaveSetType,
	ValidationType, GetObjectsType, ValidatorListType, SquelchType,
	ValidatorListCollectionType, ProofPathRequestType, ProofPathResponseType,
	ReplayDeltaRequestType, ReplayDeltaResponseType, GetPeerShardInfoV2Type,
	PeerShardInfoV2Type, HaveTransactionsType, TransactionsType,
}

// Known reports whether t belongs to the closed set of message types.
func (t MessageType) Known() bool {
	_, ok := messageTypeNames[t]
	return ok
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(t)) + ")"
}

// Complement is a convenience function for returning a corresponding response/request type
func (t MessageType) Complement() MessageType {
	switch t {
	case GetLedgerType:
		return LedgerDataType
	case LedgerDataType:
		return GetLedgerType
	case ProofPathRequestType:
		return ProofPathResponseType
	case ProofPathResponseType:
		return ProofPathRequestType
	case ReplayDeltaRequestType:
		return ReplayDeltaResponseType
	case ReplayDeltaResponseType:
		return ReplayDeltaRequestType
	case GetPeerShardInfoV2Type:
		return PeerShardInfoV2Type
	case PeerShardInfoV2Type:
		return GetPeerShardInfoV2Type
	case PingType, GetObjectsType:
		return t
	default:
		return UnknownMessageType
	}
}

// Relayed reports whether messages of this type carry an embedded relay
// counter that forwarding peers decrement.
func (t MessageType) Relayed() bool {
	return t == GetPeerShardInfoV2Type
}

// Attributed reports whether messages of this type are attributed to a
// validator key and are therefore subject to squelching.
func (t MessageType) Attributed() bool {
	return t == ProposeLedgerType || t == ValidationType
}
