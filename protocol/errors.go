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
)

// DecodeErrorKind classifies framing failures.
type DecodeErrorKind int

const (
	// Truncated means fewer bytes were available than the header, or than the
	// declared payload length when reading from a stream.
	Truncated DecodeErrorKind = iota + 1
	// UnknownType means the type code is outside the closed set.
	UnknownType
	// LengthMismatch means the declared payload length disagrees with the
	// body size of a complete frame.
	LengthMismatch
	// ChecksumInvalid means an integrity field did not match the body.
	ChecksumInvalid
	// Oversized means the declared length exceeds the payload cap.
	Oversized
	// BadHeader means reserved header bits were set or the compression
	// algorithm is not supported.
	BadHeader
	// MalformedPayload means a framed payload could not be parsed as its
	// declared type.
	MalformedPayload
)

var decodeErrorKindNames = map[DecodeErrorKind]string{
	Truncated:        "truncated",
	UnknownType:      "unknown type",
	LengthMismatch:   "length mismatch",
	ChecksumInvalid:  "checksum invalid",
	Oversized:        "oversized",
	BadHeader:        "bad header",
	MalformedPayload: "malformed payload",
}

func (k DecodeErrorKind) String() string {
	if s, ok := decodeErrorKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("decode error kind %d", int(k))
}

// DecodeError is returned by the codec for any framing failure.
type DecodeError struct {
	Kind     DecodeErrorKind
	Type     MessageType
	Declared int
	Actual   int
	Err      error
}

// Sentinel values for errors.Is comparisons; only Kind is compared.
var (
	ErrTruncated        = &DecodeError{Kind: Truncated}
	ErrUnknownType      = &DecodeError{Kind: UnknownType}
	ErrLengthMismatch   = &DecodeError{Kind: LengthMismatch}
	ErrChecksumInvalid  = &DecodeError{Kind: ChecksumInvalid}
	ErrOversized        = &DecodeError{Kind: Oversized}
	ErrBadHeader        = &DecodeError{Kind: BadHeader}
	ErrMalformedPayload = &DecodeError{Kind: MalformedPayload}
)

func (e *DecodeError) Error() string {
	msg := "decode: " + e.Kind.String()
	switch e.Kind {
	case UnknownType:
		msg += fmt.Sprintf(" %d", uint16(e.Type))
	case Truncated, LengthMismatch, Oversized, ChecksumInvalid:
		if e.Declared != 0 || e.Actual != 0 {
			msg += fmt.Sprintf(" (declared %d, actual %d)", e.Declared, e.Actual)
		}
	case MalformedPayload:
		msg += " for " + e.Type.String()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is matches any DecodeError of the same kind.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	return ok && t.Kind == e.Kind
}
