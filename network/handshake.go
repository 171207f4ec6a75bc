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
	"context"
	"crypto/sha512"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/xrpl-synth/synthpeer/crypto"
)

const (
	// DefaultHandshakeTimeout bounds a whole handshake.
	DefaultHandshakeTimeout = 10 * time.Second
	// DefaultMaxHeaderSize is the size at which a header line is rejected.
	DefaultMaxHeaderSize = 8192

	sessionExporterLabel = "EXPORTER-xrpl-session"
	maxRejectionBody     = 64 * 1024
)

// HeaderField is a single extra header sent verbatim.
type HeaderField struct {
	Name  string
	Value string
}

// HandshakeConfig describes how a synthetic peer presents itself. The Bitflip
// and header options deliberately corrupt the exchange for resistance
// scenarios.
type HandshakeConfig struct {
	Keys          *crypto.NodeKeys
	UserAgent     string
	Features      Features
	NetworkID     string
	Timeout       time.Duration
	MaxHeaderSize int

	BitflipSharedValue bool
	BitflipPublicKey   bool
	BitflipSignature   bool
	// ExporterSharedValue binds the session signature to TLS exported keying
	// material rather than the Finished messages. Both ends must be synthetic
	// peers with the same setting.
	ExporterSharedValue bool
	// HeaderOverrides replaces the value of generated headers.
	HeaderOverrides map[string]string
	ExtraHeaders    []HeaderField
}

func (cfg HandshakeConfig) withDefaults() HandshakeConfig {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHandshakeTimeout
	}
	if cfg.MaxHeaderSize <= 0 {
		cfg.MaxHeaderSize = DefaultMaxHeaderSize
	}
	return cfg
}

// SharedValue derives the 32-byte value both ends of conn sign. Over TLS it
// is bound to the two Finished messages, as the node computes it; with
// exporter set it is bound to exported keying material instead, which only
// another synthetic peer reproduces. Over plain TCP it is bound to the two
// endpoint addresses.
func SharedValue(conn net.Conn, exporter bool) ([]byte, error) {
	switch c := conn.(type) {
	case *TLSConn:
		if exporter {
			return exportedSharedValue(c.ConnectionState())
		}
		client, server, err := c.Finished()
		if err != nil {
			return nil, err
		}
		return finishedSharedValue(client, server), nil
	case *tls.Conn:
		if exporter {
			return exportedSharedValue(c.ConnectionState())
		}
		return nil, errors.New("tls connection was not opened with TLSClient or TLSServer")
	}
	a, b := conn.LocalAddr().String(), conn.RemoteAddr().String()
	if a > b {
		a, b = b, a
	}
	sum := crypto.SHA512Half([]byte(a), []byte{0}, []byte(b))
	return sum[:], nil
}

func exportedSharedValue(state tls.ConnectionState) ([]byte, error) {
	ekm, err := state.ExportKeyingMaterial(sessionExporterLabel, nil, 64)
	if err != nil {
		return nil, err
	}
	sum := sha512.Sum512(ekm)
	return sum[:32], nil
}

type tlsHandshaker interface {
	HandshakeContext(ctx context.Context) error
}

func tlsHandshake(ctx context.Context, conn net.Conn) error {
	tc, ok := conn.(tlsHandshaker)
	if !ok {
		return nil
	}
	if err := tc.HandshakeContext(ctx); err != nil {
		return classifyIOError("tls", err)
	}
	return nil
}

func (cfg HandshakeConfig) addIdentity(h *headerBlock, shared []byte) {
	pk := cfg.Keys.Public.Bytes()
	if cfg.BitflipPublicKey {
		pk = crypto.FlipBit(pk, len(pk)*8-1)
	}
	signed := shared
	if cfg.BitflipSharedValue {
		signed = crypto.FlipBit(shared, 0)
	}
	sig := cfg.Keys.Sign(signed)
	if cfg.BitflipSignature {
		sig = crypto.FlipBit(sig, len(sig)*8-1)
	}
	h.set(ConnectAsHeader, "Peer")
	if f := cfg.Features.String(); f != "" {
		h.set(ProtocolCtlHeader, f)
	}
	if cfg.NetworkID != "" {
		h.set(NetworkIDHeader, cfg.NetworkID)
	}
	h.set(PublicKeyHeader, crypto.EncodeToken(crypto.TokenNodePublic, pk))
	h.set(SessionSignatureHeader, base64.StdEncoding.EncodeToString(sig))
}

func (cfg HandshakeConfig) applyOverrides(h *headerBlock) {
	for name, value := range cfg.HeaderOverrides {
		h.set(name, value)
	}
	for _, f := range cfg.ExtraHeaders {
		h.set(f.Name, f.Value)
	}
}

// verifyPeer checks the remote identity headers against shared.
func (cfg HandshakeConfig) verifyPeer(h *headerBlock, shared []byte) (PeerIdentity, error) {
	var id PeerIdentity
	token := h.get(PublicKeyHeader)
	if token == "" {
		return id, &HandshakeError{Kind: BadPublicKey, Field: PublicKeyHeader, Err: fmt.Errorf("missing")}
	}
	pk, err := crypto.DecodeNodePublic(token)
	if err != nil {
		return id, &HandshakeError{Kind: BadPublicKey, Field: PublicKeyHeader, Err: err}
	}
	if pk == cfg.Keys.Public {
		return id, &HandshakeError{Kind: SelfConnection, Field: PublicKeyHeader}
	}
	sig, err := base64.StdEncoding.DecodeString(h.get(SessionSignatureHeader))
	if err != nil || len(sig) == 0 {
		return id, &HandshakeError{Kind: BadSignature, Field: SessionSignatureHeader, Err: err}
	}
	if !crypto.Verify(pk, shared, sig) {
		return id, &HandshakeError{Kind: BadSignature, Field: SessionSignatureHeader}
	}
	netID := h.get(NetworkIDHeader)
	if cfg.NetworkID != "" && netID != "" && netID != cfg.NetworkID {
		return id, &HandshakeError{Kind: Rejected, Field: NetworkIDHeader, Err: fmt.Errorf("peer is on network %s", netID)}
	}
	id.PublicKey = pk
	id.Features = ParseFeatures(h.get(ProtocolCtlHeader))
	id.NetworkID = netID
	return id, nil
}

func writeBlock(s *Stream, h *headerBlock, body []byte) error {
	if _, err := s.Conn.Write(append(h.bytes(), body...)); err != nil {
		return classifyIOError("write", err)
	}
	return nil
}

// InitiatorHandshake performs the dialing side of the handshake on s.
func InitiatorHandshake(ctx context.Context, s *Stream, cfg HandshakeConfig) (PeerIdentity, error) {
	cfg = cfg.withDefaults()
	defer s.watch(ctx, cfg.Timeout)()

	if err := tlsHandshake(ctx, s.Conn); err != nil {
		return PeerIdentity{}, err
	}
	shared, err := SharedValue(s.Conn, cfg.ExporterSharedValue)
	if err != nil {
		return PeerIdentity{}, &HandshakeError{Kind: Malformed, Field: "shared value", Err: err}
	}

	req := makeHeaderBlock("GET / HTTP/1.1")
	req.set(UserAgentHeader, cfg.UserAgent)
	req.set(UpgradeHeader, SupportedProtocols)
	req.set(ConnectionHeader, "Upgrade")
	cfg.addIdentity(req, shared)
	cfg.applyOverrides(req)
	if err := writeBlock(s, req, nil); err != nil {
		return PeerIdentity{}, err
	}

	resp, err := readHeaderBlock(s.r, cfg.MaxHeaderSize)
	if err != nil {
		return PeerIdentity{}, err
	}
	status := strings.Fields(resp.startLine)
	if len(status) < 2 || !strings.HasPrefix(status[0], "HTTP/1.") {
		return PeerIdentity{}, &HandshakeError{Kind: Malformed, Field: "status line", Err: fmt.Errorf("%q", resp.startLine)}
	}
	switch status[1] {
	case "101":
	case "503":
		return PeerIdentity{}, readRejection(s, resp)
	default:
		return PeerIdentity{}, &HandshakeError{Kind: Rejected, Field: "status " + status[1]}
	}
	if !strings.HasPrefix(resp.get(UpgradeHeader), "XRPL/2.") {
		return PeerIdentity{}, &HandshakeError{Kind: Malformed, Field: UpgradeHeader, Err: fmt.Errorf("%q", resp.get(UpgradeHeader))}
	}
	id, err := cfg.verifyPeer(resp, shared)
	if err != nil {
		return PeerIdentity{}, err
	}
	id.Address = s.Conn.RemoteAddr().String()
	id.UserAgent = resp.get(ServerHeader)
	id.Protocol = resp.get(UpgradeHeader)
	return id, nil
}

// ResponderHandshake performs the accepting side of the handshake on s.
func ResponderHandshake(ctx context.Context, s *Stream, cfg HandshakeConfig) (PeerIdentity, error) {
	cfg = cfg.withDefaults()
	defer s.watch(ctx, cfg.Timeout)()

	if err := tlsHandshake(ctx, s.Conn); err != nil {
		return PeerIdentity{}, err
	}
	shared, err := SharedValue(s.Conn, cfg.ExporterSharedValue)
	if err != nil {
		return PeerIdentity{}, &HandshakeError{Kind: Malformed, Field: "shared value", Err: err}
	}
	req, err := readHeaderBlock(s.r, cfg.MaxHeaderSize)
	if err == nil {
		err = checkUpgradeRequest(req)
	}
	var id PeerIdentity
	if err == nil {
		id, err = cfg.verifyPeer(req, shared)
	}
	if err != nil {
		if he, ok := err.(*HandshakeError); ok && he.Kind != PrematureClose && he.Kind != Timeout {
			writeBlock(s, makeHeaderBlock("HTTP/1.1 400 Bad Request"), nil)
		}
		return PeerIdentity{}, err
	}

	resp := makeHeaderBlock("HTTP/1.1 101 Switching Protocols")
	resp.set(ConnectionHeader, "Upgrade")
	resp.set(UpgradeHeader, ProtocolVersion)
	resp.set(ServerHeader, cfg.UserAgent)
	cfg.addIdentity(resp, shared)
	cfg.applyOverrides(resp)
	if err := writeBlock(s, resp, nil); err != nil {
		return PeerIdentity{}, err
	}
	id.Address = s.Conn.RemoteAddr().String()
	id.UserAgent = req.get(UserAgentHeader)
	id.Protocol = ProtocolVersion
	return id, nil
}

func checkUpgradeRequest(req *headerBlock) error {
	line := strings.Fields(req.startLine)
	if len(line) != 3 || line[0] != "GET" || !strings.HasPrefix(line[2], "HTTP/1.") {
		return &HandshakeError{Kind: Malformed, Field: "request line", Err: fmt.Errorf("%q", req.startLine)}
	}
	if !strings.Contains(req.get(UpgradeHeader), "XRPL/2.") {
		return &HandshakeError{Kind: Malformed, Field: UpgradeHeader, Err: fmt.Errorf("%q", req.get(UpgradeHeader))}
	}
	if as := req.get(ConnectAsHeader); as != "" && !strings.EqualFold(as, "peer") {
		return &HandshakeError{Kind: Malformed, Field: ConnectAsHeader, Err: fmt.Errorf("%q", as)}
	}
	return nil
}

type rejectionBody struct {
	PeerIPs []string `json:"peer-ips"`
}

// RejectHandshake answers an incoming handshake with 503 Service Unavailable,
// offering peerIPs as alternatives. The request is read first so the
// initiator sees a response rather than a reset.
func RejectHandshake(ctx context.Context, s *Stream, cfg HandshakeConfig, peerIPs []string) error {
	cfg = cfg.withDefaults()
	defer s.watch(ctx, cfg.Timeout)()

	if err := tlsHandshake(ctx, s.Conn); err != nil {
		return err
	}
	if _, err := readHeaderBlock(s.r, cfg.MaxHeaderSize); err != nil {
		return err
	}
	if peerIPs == nil {
		peerIPs = []string{}
	}
	body, err := json.Marshal(rejectionBody{PeerIPs: peerIPs})
	if err != nil {
		return err
	}
	resp := makeHeaderBlock("HTTP/1.1 503 Service Unavailable")
	resp.set(ServerHeader, cfg.UserAgent)
	resp.set(ContentTypeHeader, "application/json")
	resp.set(ContentLengthHeader, strconv.Itoa(len(body)))
	resp.set(ConnectionHeader, "close")
	return writeBlock(s, resp, body)
}

func readRejection(s *Stream, resp *headerBlock) error {
	rejected := &HandshakeError{Kind: Rejected, Field: "503 Service Unavailable"}
	var body []byte
	var err error
	if n, convErr := strconv.Atoi(resp.get(ContentLengthHeader)); convErr == nil && n >= 0 && n <= maxRejectionBody {
		body = make([]byte, n)
		_, err = io.ReadFull(s.r, body)
	} else {
		body, err = io.ReadAll(io.LimitReader(s.r, maxRejectionBody))
	}
	if err != nil {
		return rejected
	}
	var parsed rejectionBody
	if json.Unmarshal(body, &parsed) == nil {
		rejected.PeerIPs = parsed.PeerIPs
	}
	return rejected
}
