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
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/xrpl-synth/synthpeer/protocol"
)

// HandshakeErrorKind distinguishes the ways a handshake can fail.
type HandshakeErrorKind int

const (
	// HeaderTooLarge is a header line or value at or above the size limit.
	HeaderTooLarge HandshakeErrorKind = iota + 1
	// BadSignature is a session signature that does not verify.
	BadSignature
	// BadPublicKey is a missing or undecodable public key.
	BadPublicKey
	// PrematureClose is a connection closed before the exchange completed.
	PrematureClose
	// Timeout is a deadline expiring while waiting for the remote side.
	Timeout
	// Malformed is any other syntactically invalid exchange.
	Malformed
	// Rejected is a well-formed refusal, e.g. a responder at capacity.
	Rejected
	// SelfConnection is a remote peer presenting our own key.
	SelfConnection
)

var handshakeErrorKindNames = map[HandshakeErrorKind]string{
	HeaderTooLarge: "header too large",
	BadSignature:   "bad signature",
	BadPublicKey:   "bad public key",
	PrematureClose: "premature close",
	Timeout:        "timeout",
	Malformed:      "malformed",
	Rejected:       "rejected",
	SelfConnection: "self connection",
}

func (k HandshakeErrorKind) String() string {
	if n, ok := handshakeErrorKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// HandshakeError reports a failed handshake. The listener or dialer that
// produced it remains usable.
type HandshakeError struct {
	Kind  HandshakeErrorKind
	Field string
	// PeerIPs lists the alternatives offered by a responder at capacity.
	PeerIPs []string
	Err     error
}

func (e *HandshakeError) Error() string {
	msg := "handshake: " + e.Kind.String()
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// Is matches another *HandshakeError of the same kind.
func (e *HandshakeError) Is(target error) bool {
	t, ok := target.(*HandshakeError)
	return ok && t.Kind == e.Kind
}

// Handshake error sentinels for errors.Is.
var (
	ErrHeaderTooLarge = &HandshakeError{Kind: HeaderTooLarge}
	ErrBadSignature   = &HandshakeError{Kind: BadSignature}
	ErrBadPublicKey   = &HandshakeError{Kind: BadPublicKey}
	ErrPrematureClose = &HandshakeError{Kind: PrematureClose}
	ErrTimeout        = &HandshakeError{Kind: Timeout}
	ErrMalformed      = &HandshakeError{Kind: Malformed}
	ErrRejected       = &HandshakeError{Kind: Rejected}
	ErrSelfConnection = &HandshakeError{Kind: SelfConnection}
)

// classifyIOError turns a transport error seen mid-handshake into a
// HandshakeError.
func classifyIOError(field string, err error) *HandshakeError {
	var ne net.Error
	switch {
	case errors.As(err, &ne) && ne.Timeout():
		return &HandshakeError{Kind: Timeout, Field: field, Err: err}
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET), errors.Is(err, net.ErrClosed), errors.Is(err, syscall.EPIPE):
		return &HandshakeError{Kind: PrematureClose, Field: field, Err: err}
	}
	return &HandshakeError{Kind: Malformed, Field: field, Err: err}
}

// ErrSessionClosed is returned by operations on a session that is closing or
// closed.
var ErrSessionClosed = errors.New("session closed")

// ErrNotEstablished is returned when sending on a session before the
// handshake completed.
var ErrNotEstablished = errors.New("session not established")

// ProtocolViolation reports a well-formed message that does not fit the
// script a session is running.
type ProtocolViolation struct {
	Script    string
	Step      int
	Expected  protocol.MessageType
	Got       protocol.MessageType
	Reason    string
	LastState SessionState
}

func (v *ProtocolViolation) Error() string {
	msg := fmt.Sprintf("protocol violation in %q step %d: expected %s, got %s", v.Script, v.Step, v.Expected, v.Got)
	if v.Reason != "" {
		msg += ": " + v.Reason
	}
	return msg + " (state " + v.LastState.String() + ")"
}

// IsTransient reports whether err is a network failure worth retrying:
// refused or reset connections and timeouts.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var he *HandshakeError
	if errors.As(err, &he) {
		return he.Kind == Timeout || he.Kind == PrematureClose
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
