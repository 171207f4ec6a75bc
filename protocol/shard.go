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

// GetPeerShardInfoV2 asks peers, and through relaying their peers, for shard
// information. Each forwarding peer appends its public key to PeerChain and
// decrements Relays.
type GetPeerShardInfoV2 struct {
	PeerChain [][]byte
	Relays    uint32
}

// MessageType implements Payload.
func (*GetPeerShardInfoV2) MessageType() MessageType { return GetPeerShardInfoV2Type }

// Marshal implements Payload.
func (g *GetPeerShardInfoV2) Marshal() []byte {
	var e encoder
	for _, key := range g.PeerChain {
		e.bytes(1, publicKeyEntry(key))
	}
	e.varint(2, uint64(g.Relays))
	return e.b
}

// Unmarshal implements Payload.
func (g *GetPeerShardInfoV2) Unmarshal(b []byte) error {
	*g = GetPeerShardInfoV2{}
	var seen presence
	err := walk(b, func(f field) error {
		seen.mark(f.num)
		switch f.num {
		case 1:
			key, err := parsePublicKeyEntry(f.b)
			if err != nil {
				return err
			}
			g.PeerChain = append(g.PeerChain, key)
		case 2:
			g.Relays = f.u32()
		}
		return nil
	})
	if err != nil {
		return err
	}
	return seen.require(2)
}

// ShardState is the state of an incomplete shard.
type ShardState uint32

const (
	// ShardAcquire is a shard being acquired.
	ShardAcquire ShardState = 0
	// ShardComplete is a shard fully acquired.
	ShardComplete ShardState = 1
	// ShardFinalizing is a shard being finalized.
	ShardFinalizing ShardState = 2
	// ShardFinalized is a finalized shard.
	ShardFinalized ShardState = 3
	// ShardQueued is a shard queued for acquisition.
	ShardQueued ShardState = 4
)

// IncompleteShard reports progress on one shard.
type IncompleteShard struct {
	ShardIndex uint32
	State      ShardState
	Progress   uint32
}

// PeerShardInfoV2 answers GetPeerShardInfoV2.
type PeerShardInfoV2 struct {
	Timestamp  uint32
	Incomplete []IncompleteShard
	Finalized  []byte
	PublicKey  []byte
	Signature  []byte
	PeerChain  [][]byte
}

// MessageType implements Payload.
func (*PeerShardInfoV2) MessageType() MessageType { return PeerShardInfoV2Type }

// Marshal implements Payload.
func (p *PeerShardInfoV2) Marshal() []byte {
	var e encoder
	e.varint(1, uint64(p.Timestamp))
	for _, s := range p.Incomplete {
		var se encoder
		se.varint(1, uint64(s.ShardIndex))
		se.varint(2, uint64(s.State))
		se.optVarint(3, uint64(s.Progress))
		e.bytes(2, se.b)
	}
	e.optBytes(3, p.Finalized)
	e.bytes(4, p.PublicKey)
	e.bytes(5, p.Signature)
	for _, key := range p.PeerChain {
		e.bytes(6, publicKeyEntry(key))
	}
	return e.b
}

// Unmarshal implements Payload.
func (p *PeerShardInfoV2) Unmarshal(b []byte) error {
	*p = PeerShardInfoV2{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			p.Timestamp = f.u32()
		case 2:
			var s IncompleteShard
			err := walk(f.b, func(sf field) error {
				switch sf.num {
				case 1:
					s.ShardIndex = sf.u32()
				case 2:
					s.State = ShardState(sf.u)
				case 3:
					s.Progress = sf.u32()
				}
				return nil
			})
			if err != nil {
				return err
			}
			p.Incomplete = append(p.Incomplete, s)
		case 3:
			p.Finalized = f.bytes()
		case 4:
			p.PublicKey = f.bytes()
		case 5:
			p.Signature = f.bytes()
		case 6:
			key, err := parsePublicKeyEntry(f.b)
			if err != nil {
				return err
			}
			p.PeerChain = append(p.PeerChain, key)
		}
		return nil
	})
}

func publicKeyEntry(key []byte) []byte {
	var e encoder
	e.bytes(1, key)
	return e.b
}

func parsePublicKeyEntry(b []byte) (key []byte, err error) {
	err = walk(b, func(f field) error {
		if f.num == 1 {
			key = f.bytes()
		}
		return nil
	})
	return
}
