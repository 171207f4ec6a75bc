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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xrpl-synth/synthpeer/network"
	"github.com/xrpl-synth/synthpeer/protocol"
	"github.com/xrpl-synth/synthpeer/relay"
)

// gossip is what a node sends unprompted; scripts skip it while waiting.
var gossip = []protocol.MessageType{
	protocol.ManifestsType,
	protocol.ClusterType,
	protocol.EndpointsType,
	protocol.TransactionType,
	protocol.ProposeLedgerType,
	protocol.StatusChangeType,
	protocol.HaveSetType,
	protocol.ValidationType,
	protocol.ValidatorListType,
	protocol.ValidatorListCollectionType,
	protocol.SquelchType,
	protocol.GetPeerShardInfoV2Type,
	protocol.HaveTransactionsType,
	protocol.GetLedgerType,
}

// ignoreExcept returns the gossip types other than t.
func ignoreExcept(t protocol.MessageType) []protocol.MessageType {
	out := make([]protocol.MessageType, 0, len(gossip))
	for _, g := range gossip {
		if g != t {
			out = append(out, g)
		}
	}
	return out
}

// HandshakeSucceeds establishes a session in role and nothing else.
func HandshakeSucceeds(role Role) Scenario {
	return Scenario{Name: "handshake/" + role.String(), Role: role}
}

// PingEcho sends a ping with sequence seq and expects the pong to echo it.
func PingEcho(seq uint32) Scenario {
	return Scenario{
		Name: "ping-echo",
		Role: Initiator,
		Script: network.Script{
			Name:   "ping-echo",
			Ignore: gossip,
			Steps: []network.Step{{
				Name:   "ping",
				Send:   []protocol.Message{protocol.NewMessage(&protocol.Ping{Kind: protocol.PingRequest, Seq: seq})},
				Expect: protocol.PingType,
				Match: func(p protocol.Payload) error {
					pong := p.(*protocol.Ping)
					if pong.Kind != protocol.PingReply {
						return fmt.Errorf("expected a pong, got ping kind %d", pong.Kind)
					}
					if pong.Seq != seq {
						return fmt.Errorf("pong echoes sequence %d, sent %d", pong.Seq, seq)
					}
					return nil
				},
			}},
		},
	}
}

// BitflipField names the handshake value a bit flip corrupts.
type BitflipField int

const (
	// FlipPublicKey corrupts the advertised node public key.
	FlipPublicKey BitflipField = iota
	// FlipSharedValue signs a corrupted session shared value.
	FlipSharedValue
	// FlipSignature corrupts the session signature.
	FlipSignature
)

var bitflipNames = [...]string{"public-key", "shared-value", "signature"}

func (f BitflipField) String() string {
	if int(f) < len(bitflipNames) {
		return bitflipNames[f]
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// HandshakeBitflip corrupts one bit of field and expects the node to refuse
// the session.
func HandshakeBitflip(field BitflipField, role Role) Scenario {
	return Scenario{
		Name:            fmt.Sprintf("bitflip/%s/%s", field, role),
		Role:            role,
		ExpectRejection: true,
		Configure: func(h *network.HandshakeConfig) {
			switch field {
			case FlipPublicKey:
				h.BitflipPublicKey = true
			case FlipSharedValue:
				h.BitflipSharedValue = true
			case FlipSignature:
				h.BitflipSignature = true
			}
		},
	}
}

// OversizedHeader stretches a header the node parses past the size any node
// accepts, expects a rejection and then a successful well-formed handshake.
// The initiator pads User-Agent in its request, the responder pads Server in
// its response.
func OversizedHeader(role Role) Scenario {
	header := network.UserAgentHeader
	if role == Responder {
		header = network.ServerHeader
	}
	return Scenario{
		Name:            "oversized-header/" + role.String(),
		Role:            role,
		ExpectRejection: true,
		Configure: func(h *network.HandshakeConfig) {
			h.HeaderOverrides = map[string]string{header: strings.Repeat("x", network.DefaultMaxHeaderSize)}
		},
	}
}

// EndpointsAdvertised expects the node to send endpoints after the
// handshake without being asked.
func EndpointsAdvertised() Scenario {
	return Scenario{
		Name: "endpoints-advertised",
		Role: Initiator,
		Script: network.Script{
			Name:   "endpoints-advertised",
			Ignore: ignoreExcept(protocol.EndpointsType),
			Steps: []network.Step{{
				Name:   "endpoints",
				Expect: protocol.EndpointsType,
				Match: func(p protocol.Payload) error {
					if len(p.(*protocol.Endpoints).Endpoints) == 0 {
						return errors.New("endpoints message carries no entries")
					}
					return nil
				},
			}},
		},
	}
}

// ShardInfoRelay checks relay precedence on shard-info requests: exhausted
// and over-limit counters are not forwarded, a valid one is forwarded with
// the counter decremented and the node's key appended.
func ShardInfoRelay() Scenario {
	return Scenario{
		Name:  "shard-info-relay",
		Role:  Initiator,
		Check: checkShardInfoRelay,
	}
}

func checkShardInfoRelay(ctx context.Context, env *Env, s *network.Session) error {
	other, err := env.Dial(ctx)
	if err != nil {
		return fmt.Errorf("second peer: %w", err)
	}
	defer other.Close()
	// a pong on the second session means the node routes to it
	if _, err := other.Ping(ctx, 1); err != nil {
		return fmt.Errorf("second peer: %w", err)
	}

	origin := env.Session.Handshake.Keys.Public.Bytes()
	for _, relays := range []uint32{0, relay.MaxRelays + 1, relay.MaxRelays} {
		req := &protocol.GetPeerShardInfoV2{PeerChain: [][]byte{origin}, Relays: relays}
		if err := s.Send(protocol.NewMessage(req)); err != nil {
			return err
		}
	}

	var fwd *protocol.GetPeerShardInfoV2
	err = await(ctx, other, func(msg protocol.Message) (bool, error) {
		if msg.Type != protocol.GetPeerShardInfoV2Type {
			return false, nil
		}
		p, err := msg.Decode()
		if err != nil {
			return false, err
		}
		req := p.(*protocol.GetPeerShardInfoV2)
		if len(req.PeerChain) == 0 || !bytes.Equal(req.PeerChain[0], origin) {
			// the node's own query
			return false, nil
		}
		fwd = req
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("waiting for the relayed request: %w", err)
	}
	if fwd.Relays != relay.MaxRelays-1 {
		return fmt.Errorf("relayed request carries counter %d, want %d", fwd.Relays, relay.MaxRelays-1)
	}
	nodeKey := other.Identity().PublicKey.Bytes()
	if len(fwd.PeerChain) != 2 || !bytes.Equal(fwd.PeerChain[1], nodeKey) {
		return fmt.Errorf("relayed peer chain has %d keys and does not end with the node's key", len(fwd.PeerChain))
	}
	return nil
}

// await reads s, answering pings, until match accepts a message.
func await(ctx context.Context, s *network.Session, match func(protocol.Message) (bool, error)) error {
	for {
		msg, err := s.Recv(ctx)
		if err != nil {
			return err
		}
		if msg.Type == protocol.PingType {
			for _, reply := range network.AnswerPing(s, msg) {
				if err := s.Send(reply); err != nil {
					return err
				}
			}
			continue
		}
		ok, err := match(msg)
		if err != nil || ok {
			return err
		}
	}
}

// PeerCountIncrement has the node dial the synthetic peer and expects the
// node's peer list to grow by exactly one entry, ours.
func PeerCountIncrement() Scenario {
	return Scenario{
		Name:  "peer-count-increment",
		Role:  Responder,
		Check: checkPeerCount,
	}
}

func checkPeerCount(ctx context.Context, env *Env, s *network.Session) error {
	if env.Admin == nil {
		return errNeedsAdmin
	}
	key := env.Session.Handshake.Keys.Public.String()
	peers, err := env.Admin.WaitForPeer(ctx, key, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("node never listed peer %s: %w", key, err)
	}
	if !env.HaveBaseline {
		return nil
	}
	// peers that left meanwhile do not matter, new ones other than us do
	before := make(map[string]bool, len(env.Baseline))
	for _, p := range env.Baseline {
		before[p.PublicKey] = true
	}
	var added []string
	for _, p := range peers {
		if !before[p.PublicKey] {
			added = append(added, p.PublicKey)
		}
	}
	if len(added) != 1 {
		return fmt.Errorf("node gained %d peers %v, want exactly %s", len(added), added, key)
	}
	return nil
}

// Builtins returns every built-in scenario. Responder scenarios need the
// node's admin endpoint.
func Builtins(pingSeq uint32) []Scenario {
	out := []Scenario{
		HandshakeSucceeds(Initiator),
		HandshakeSucceeds(Responder),
		PingEcho(pingSeq),
		OversizedHeader(Initiator),
		OversizedHeader(Responder),
		EndpointsAdvertised(),
		ManifestsAdvertised(),
		ValidatorListAdvertised(),
		StatusChangeMatchesLedger(),
		ClusterStatus(),
		ShardInfoRelay(),
		PeerCountIncrement(),
		GetLedger(protocol.LedgerInfoBase),
		GetLedger(protocol.LedgerInfoAsNode),
		// relay first: a node forwards a transaction only the first time it
		// sees it
		TransactionRelay(SamplePayment),
		GetTransactions(SamplePayment),
		HaveTransactionsQuery(),
		HaveSetAnnounced(SamplePayment),
		ProofPath(),
		ReplayDelta(),
		SquelchOwnProposals(),
	}
	for _, field := range []BitflipField{FlipPublicKey, FlipSharedValue, FlipSignature} {
		out = append(out, HandshakeBitflip(field, Initiator), HandshakeBitflip(field, Responder))
	}
	return out
}

// Select returns the scenarios whose names start with one of prefixes, or
// all of them when prefixes is empty.
func Select(scenarios []Scenario, prefixes []string) []Scenario {
	if len(prefixes) == 0 {
		return scenarios
	}
	var out []Scenario
	for _, sc := range scenarios {
		for _, p := range prefixes {
			if strings.HasPrefix(sc.Name, p) {
				out = append(out, sc)
				break
			}
		}
	}
	return out
}
