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
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/tls"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"net"
	"strings"
	"sync/atomic"

	"github.com/algorand/go-deadlock"

	"github.com/xrpl-synth/synthpeer/crypto"
)

// Peers sign a value derived from both TLS 1.2 Finished messages. crypto/tls
// keeps those to itself, so a TLSConn records the plaintext handshake records
// below the TLS layer and takes the master secret from the key log; the
// verify_data of both Finished messages is then recomputed with the TLS 1.2
// PRF.

const (
	recordHeaderLen            = 5
	recordTypeChangeCipherSpec = 20
	recordTypeHandshake        = 22
	handshakeTypeFinished      = 20
	finishedVerifyDataLen      = 12
	maxTranscriptSize          = 256 * 1024

	dirLocal  = 0
	dirRemote = 1
)

var (
	errTranscriptTooLarge = errors.New("tls handshake transcript too large")
	errNoMasterSecret     = errors.New("tls master secret was not logged")
	errIncompleteFinished = errors.New("tls handshake did not exchange both ChangeCipherSpec records")
)

// TLSConn is a peer TLS connection that can reproduce its Finished messages.
type TLSConn struct {
	*tls.Conn
	client bool
	rec    *handshakeRecorder
	keys   *masterSecretLog
}

// TLSClient wraps conn as the client side of a peer TLS connection. cfg is
// cloned and pinned to TLS 1.2 without session resumption.
func TLSClient(conn net.Conn, cfg *tls.Config) *TLSConn {
	return newTLSConn(conn, cfg, true)
}

// TLSServer wraps conn as the server side of a peer TLS connection.
func TLSServer(conn net.Conn, cfg *tls.Config) *TLSConn {
	return newTLSConn(conn, cfg, false)
}

func newTLSConn(conn net.Conn, cfg *tls.Config, client bool) *TLSConn {
	rec := newHandshakeRecorder(conn)
	keys := &masterSecretLog{}
	c := cfg.Clone()
	c.MinVersion = tls.VersionTLS12
	c.MaxVersion = tls.VersionTLS12
	c.SessionTicketsDisabled = true
	c.ClientSessionCache = nil
	c.KeyLogWriter = keys

	t := &TLSConn{client: client, rec: rec, keys: keys}
	if client {
		t.Conn = tls.Client(rec, c)
	} else {
		t.Conn = tls.Server(rec, c)
	}
	return t
}

// Finished returns the verify_data of the client and server Finished
// messages of the completed handshake.
func (c *TLSConn) Finished() (client, server []byte, err error) {
	state := c.ConnectionState()
	if !state.HandshakeComplete {
		return nil, nil, errors.New("tls handshake not complete")
	}
	if state.Version != tls.VersionTLS12 {
		return nil, nil, fmt.Errorf("finished messages need TLS 1.2, negotiated %s", tls.VersionName(state.Version))
	}
	ms := c.keys.secret()
	if ms == nil {
		return nil, nil, errNoMasterSecret
	}
	return c.rec.finished(ms, c.client, prfHash(state.CipherSuite))
}

// masterSecretLog keeps the TLS 1.2 master secret written to the key log.
type masterSecretLog struct {
	mu     deadlock.Mutex
	master []byte
}

func (l *masterSecretLog) Write(p []byte) (int, error) {
	fields := strings.Fields(string(p))
	if len(fields) == 3 && fields[0] == "CLIENT_RANDOM" {
		if ms, err := hex.DecodeString(fields[2]); err == nil {
			l.mu.Lock()
			l.master = ms
			l.mu.Unlock()
		}
	}
	return len(p), nil
}

func (l *masterSecretLog) secret() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.master
}

// handshakeRecorder copies plaintext handshake records in both directions
// until each side has sent ChangeCipherSpec.
type handshakeRecorder struct {
	net.Conn

	done atomic.Bool

	mu         deadlock.Mutex
	pending    [2][]byte
	transcript []byte
	ccsAt      [2]int
	ccsOrder   []int
	err        error
}

func newHandshakeRecorder(conn net.Conn) *handshakeRecorder {
	return &handshakeRecorder{Conn: conn, ccsAt: [2]int{-1, -1}}
}

func (r *handshakeRecorder) Read(p []byte) (int, error) {
	n, err := r.Conn.Read(p)
	r.record(dirRemote, p[:n])
	return n, err
}

func (r *handshakeRecorder) Write(p []byte) (int, error) {
	n, err := r.Conn.Write(p)
	r.record(dirLocal, p[:n])
	return n, err
}

func (r *handshakeRecorder) record(dir int, p []byte) {
	if len(p) == 0 || r.done.Load() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ccsAt[dir] >= 0 {
		return
	}
	r.pending[dir] = append(r.pending[dir], p...)
	for r.ccsAt[dir] < 0 && len(r.pending[dir]) >= recordHeaderLen {
		buf := r.pending[dir]
		n := int(binary.BigEndian.Uint16(buf[3:5]))
		if len(buf) < recordHeaderLen+n {
			break
		}
		switch buf[0] {
		case recordTypeHandshake:
			if len(r.transcript)+n > maxTranscriptSize {
				r.err = errTranscriptTooLarge
				r.done.Store(true)
				return
			}
			r.transcript = append(r.transcript, buf[recordHeaderLen:recordHeaderLen+n]...)
		case recordTypeChangeCipherSpec:
			r.ccsAt[dir] = len(r.transcript)
			r.ccsOrder = append(r.ccsOrder, dir)
		}
		r.pending[dir] = buf[recordHeaderLen+n:]
	}
	if r.ccsAt[dir] >= 0 {
		r.pending[dir] = nil
	}
	if r.ccsAt[dirLocal] >= 0 && r.ccsAt[dirRemote] >= 0 {
		r.done.Store(true)
	}
}

// finished recomputes both verify_data values. The side that changed cipher
// first hashes the transcript up to its ChangeCipherSpec; the other side's
// hash also covers that first Finished message.
func (r *handshakeRecorder) finished(masterSecret []byte, localIsClient bool, h func() hash.Hash) (client, server []byte, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, nil, r.err
	}
	if len(r.ccsOrder) != 2 {
		return nil, nil, errIncompleteFinished
	}
	clientDir := dirRemote
	if localIsClient {
		clientDir = dirLocal
	}
	label := func(dir int) string {
		if dir == clientDir {
			return "client finished"
		}
		return "server finished"
	}

	first, second := r.ccsOrder[0], r.ccsOrder[1]
	p1, p2 := r.ccsAt[first], r.ccsAt[second]
	v1 := finishedVerifyData(h, masterSecret, label(first), r.transcript[:p1])

	msgs := make([]byte, 0, p2+4+len(v1))
	msgs = append(msgs, r.transcript[:p1]...)
	msgs = append(msgs, handshakeTypeFinished, 0, 0, byte(len(v1)))
	msgs = append(msgs, v1...)
	msgs = append(msgs, r.transcript[p1:p2]...)
	v2 := finishedVerifyData(h, masterSecret, label(second), msgs)

	if first == clientDir {
		return v1, v2, nil
	}
	return v2, v1, nil
}

func finishedVerifyData(h func() hash.Hash, masterSecret []byte, label string, msgs []byte) []byte {
	d := h()
	d.Write(msgs)
	return prf12(h, masterSecret, label, d.Sum(nil), finishedVerifyDataLen)
}

// prfHash is the PRF hash of a TLS 1.2 cipher suite.
func prfHash(suite uint16) func() hash.Hash {
	switch suite {
	case tls.TLS_RSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384:
		return sha512.New384
	}
	return sha256.New
}

// prf12 is the TLS 1.2 pseudo-random function of RFC 5246 section 5.
func prf12(h func() hash.Hash, secret []byte, label string, seed []byte, n int) []byte {
	labelAndSeed := make([]byte, 0, len(label)+len(seed))
	labelAndSeed = append(labelAndSeed, label...)
	labelAndSeed = append(labelAndSeed, seed...)

	out := make([]byte, n)
	mac := hmac.New(h, secret)
	mac.Write(labelAndSeed)
	a := mac.Sum(nil)
	for j := 0; j < n; {
		mac.Reset()
		mac.Write(a)
		mac.Write(labelAndSeed)
		j += copy(out[j:], mac.Sum(nil))

		mac.Reset()
		mac.Write(a)
		a = mac.Sum(nil)
	}
	return out
}

// finishedSharedValue combines the two Finished messages the way the node
// does: SHA-512 of each, XORed, then the first half of SHA-512 of the result.
// The XOR makes the value independent of which side computes it.
func finishedSharedValue(client, server []byte) []byte {
	a := sha512.Sum512(client)
	b := sha512.Sum512(server)
	for i := range a {
		a[i] ^= b[i]
	}
	half := crypto.SHA512Half(a[:])
	return half[:]
}
