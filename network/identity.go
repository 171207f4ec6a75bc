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

package network

import (
	"fmt"
	"strings"

	"github.com/xrpl-synth/synthpeer/crypto"
)

// Header names exchanged during the handshake.
const (
	UserAgentHeader        = "User-Agent"
	ServerHeader           = "Server"
	UpgradeHeader          = "Upgrade"
	ConnectionHeader       = "Connection"
	ConnectAsHeader        = "Connect-As"
	ProtocolCtlHeader      = "X-Protocol-Ctl"
	PublicKeyHeader        = "Public-Key"
	SessionSignatureHeader = "Session-Signature"
	NetworkIDHeader        = "Network-Id"
	ContentTypeHeader      = "Content-Type"
	ContentLengthHeader    = "Content-Length"
)

const (
	// ProtocolVersion is the version the synthetic peer negotiates.
	ProtocolVersion = "XRPL/2.2"
	// SupportedProtocols is offered by initiators.
	SupportedProtocols = "XRPL/2.0, XRPL/2.1, XRPL/2.2"
	// DefaultUserAgent identifies the synthetic peer unless configured otherwise.
	DefaultUserAgent = "rippled-1.9.4"
)

// Features is the set of optional protocol features negotiated through the
// X-Protocol-Ctl header.
type Features struct {
	LedgerReplay  bool
	TxReduceRelay bool
	VPReduceRelay bool
	Compression   bool
}

// AllFeatures enables every optional feature.
var AllFeatures = Features{LedgerReplay: true, TxReduceRelay: true, VPReduceRelay: true, Compression: true}

// ParseFeatures reads an X-Protocol-Ctl value such as
// "ledgerreplay=1;txrr=1;vprr=1;compr=lz4". Unknown entries are ignored.
func ParseFeatures(v string) Features {
	var f Features
	for _, item := range strings.Split(v, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "ledgerreplay":
			f.LedgerReplay = value == "1"
		case "txrr":
			f.TxReduceRelay = value == "1"
		case "vprr":
			f.VPReduceRelay = value == "1"
		case "compr":
			for _, algo := range strings.Split(value, ",") {
				if strings.TrimSpace(algo) == "lz4" {
					f.Compression = true
				}
			}
		}
	}
	return f
}

// String renders f as an X-Protocol-Ctl value.
func (f Features) String() string {
	var parts []string
	if f.LedgerReplay {
		parts = append(parts, "ledgerreplay=1")
	}
	if f.TxReduceRelay {
		parts = append(parts, "txrr=1")
	}
	if f.VPReduceRelay {
		parts = append(parts, "vprr=1")
	}
	if f.Compression {
		parts = append(parts, "compr=lz4")
	}
	return strings.Join(parts, ";")
}

// Intersect returns the features enabled on both sides.
func (f Features) Intersect(o Features) Features {
	return Features{
		LedgerReplay:  f.LedgerReplay && o.LedgerReplay,
		TxReduceRelay: f.TxReduceRelay && o.TxReduceRelay,
		VPReduceRelay: f.VPReduceRelay && o.VPReduceRelay,
		Compression:   f.Compression && o.Compression,
	}
}

// PeerIdentity is what a completed handshake learned about the remote peer.
type PeerIdentity struct {
	PublicKey crypto.PublicKey
	Address   string
	Features  Features
	UserAgent string
	Protocol  string
	NetworkID string
}

func (p PeerIdentity) String() string {
	return fmt.Sprintf("%s@%s", p.PublicKey, p.Address)
}
