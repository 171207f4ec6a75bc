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

package crypto

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// TokenType is the leading byte of a base58check token.
type TokenType byte

const (
	// TokenAccountID prefixes account addresses.
	TokenAccountID TokenType = 0
	// TokenNodePublic prefixes node public keys.
	TokenNodePublic TokenType = 28
	// TokenNodePrivate prefixes node secrets.
	TokenNodePrivate TokenType = 32
)

const rippleAlphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

var alphabet = base58.NewAlphabet(rippleAlphabet)

var (
	// ErrTokenChecksum is returned when a token's checksum does not match.
	ErrTokenChecksum = errors.New("token checksum mismatch")
	// ErrTokenType is returned when a token has an unexpected prefix.
	ErrTokenType = errors.New("unexpected token type")
)

func tokenChecksum(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:4]
}

// EncodeToken renders payload as a base58check token of type t.
func EncodeToken(t TokenType, payload []byte) string {
	data := make([]byte, 0, 1+len(payload)+4)
	data = append(data, byte(t))
	data = append(data, payload...)
	data = append(data, tokenChecksum(data)...)
	return base58.EncodeAlphabet(data, alphabet)
}

// DecodeToken parses a base58check token and checks its type and checksum.
func DecodeToken(t TokenType, token string) ([]byte, error) {
	data, err := base58.DecodeAlphabet(token, alphabet)
	if err != nil {
		return nil, err
	}
	if len(data) < 5 {
		return nil, fmt.Errorf("token too short: %d bytes", len(data))
	}
	body, sum := data[:len(data)-4], data[len(data)-4:]
	if !bytes.Equal(tokenChecksum(body), sum) {
		return nil, ErrTokenChecksum
	}
	if TokenType(body[0]) != t {
		return nil, fmt.Errorf("%w: %d", ErrTokenType, body[0])
	}
	return body[1:], nil
}

// EncodeNodePublic renders pk as a node public token (an "n..." string).
func EncodeNodePublic(pk PublicKey) string {
	return EncodeToken(TokenNodePublic, pk[:])
}

// DecodeNodePublic parses a node public token.
func DecodeNodePublic(token string) (PublicKey, error) {
	raw, err := DecodeToken(TokenNodePublic, token)
	if err != nil {
		return PublicKey{}, err
	}
	return ParsePublicKey(raw)
}
