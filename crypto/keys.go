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
	"crypto/sha512"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// PublicKeySize is the size of a compressed node public key.
const PublicKeySize = 33

// KeyType is the signature algorithm of a public key, identified by its
// leading byte.
type KeyType int

const (
	// KeyTypeUnknown is any key the protocol does not support.
	KeyTypeUnknown KeyType = iota
	// KeyTypeSecp256k1 is a compressed secp256k1 point (0x02 or 0x03 prefix).
	KeyTypeSecp256k1
	// KeyTypeEd25519 is an ed25519 key with the 0xED prefix.
	KeyTypeEd25519
)

func (t KeyType) String() string {
	switch t {
	case KeyTypeSecp256k1:
		return "secp256k1"
	case KeyTypeEd25519:
		return "ed25519"
	default:
		return "unknown"
	}
}

// PublicKeyType classifies a serialized public key. Only the length and prefix
// are inspected.
func PublicKeyType(pk []byte) KeyType {
	if len(pk) != PublicKeySize {
		return KeyTypeUnknown
	}
	switch pk[0] {
	case 0x02, 0x03:
		return KeyTypeSecp256k1
	case 0xed:
		return KeyTypeEd25519
	default:
		return KeyTypeUnknown
	}
}

// PublicKey is a compressed secp256k1 node public key.
type PublicKey [PublicKeySize]byte

// ErrInvalidPublicKey is returned for bytes that are not a point on the curve.
var ErrInvalidPublicKey = errors.New("invalid node public key")

// ParsePublicKey validates b as a compressed secp256k1 point.
func ParsePublicKey(b []byte) (PublicKey, error) {
	var pk PublicKey
	if PublicKeyType(b) != KeyTypeSecp256k1 {
		return pk, ErrInvalidPublicKey
	}
	if _, err := secp256k1.ParsePubKey(b); err != nil {
		return pk, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	copy(pk[:], b)
	return pk, nil
}

// Bytes returns a copy of the serialized key.
func (pk PublicKey) Bytes() []byte {
	return append([]byte(nil), pk[:]...)
}

// String renders the key as a node public token.
func (pk PublicKey) String() string {
	return EncodeNodePublic(pk)
}

// IsZero reports whether pk is unset.
func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

// NodeKeys is the identity of a synthetic peer.
type NodeKeys struct {
	secret *secp256k1.PrivateKey
	Public PublicKey
}

// GenerateNodeKeys creates a fresh random identity.
func GenerateNodeKeys() (*NodeKeys, error) {
	secret, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return makeNodeKeys(secret), nil
}

// NodeKeysFromSecret rebuilds an identity from a 32-byte secret.
func NodeKeysFromSecret(secret []byte) (*NodeKeys, error) {
	if len(secret) != secp256k1.PrivKeyBytesLen {
		return nil, fmt.Errorf("node secret must be %d bytes, got %d", secp256k1.PrivKeyBytesLen, len(secret))
	}
	return makeNodeKeys(secp256k1.PrivKeyFromBytes(secret)), nil
}

// NodeKeysFromToken rebuilds an identity from a node private token, which is
// how predefined identities are stored in configuration.
func NodeKeysFromToken(token string) (*NodeKeys, error) {
	secret, err := DecodeToken(TokenNodePrivate, token)
	if err != nil {
		return nil, err
	}
	return NodeKeysFromSecret(secret)
}

func makeNodeKeys(secret *secp256k1.PrivateKey) *NodeKeys {
	k := &NodeKeys{secret: secret}
	copy(k.Public[:], secret.PubKey().SerializeCompressed())
	return k
}

// SecretToken renders the secret as a node private token.
func (k *NodeKeys) SecretToken() string {
	return EncodeToken(TokenNodePrivate, k.secret.Serialize())
}

// Sign signs a 32-byte digest and returns the DER encoded signature.
func (k *NodeKeys) Sign(digest []byte) []byte {
	return ecdsa.Sign(k.secret, digest).Serialize()
}

// Verify checks a DER signature over digest against pk.
func Verify(pk PublicKey, digest, sig []byte) bool {
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	pub, err := secp256k1.ParsePubKey(pk[:])
	if err != nil {
		return false
	}
	return parsed.Verify(digest, pub)
}

// SHA512Half returns the first half of the SHA-512 digest of the
// concatenated inputs.
func SHA512Half(data ...[]byte) [32]byte {
	h := sha512.New()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// TransactionID is the hash a serialized transaction is known by.
func TransactionID(raw []byte) [32]byte {
	return SHA512Half([]byte("TXN\x00"), raw)
}
