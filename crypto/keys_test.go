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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/xrpl-synth/synthpeer/test/partitiontest"
)

func TestSignVerify(t *testing.T) {
	partitiontest.PartitionTest(t)

	keys, err := GenerateNodeKeys()
	require.NoError(t, err)
	require.Equal(t, KeyTypeSecp256k1, PublicKeyType(keys.Public[:]))

	digest := SHA512Half([]byte("session"))
	sig := keys.Sign(digest[:])
	require.True(t, Verify(keys.Public, digest[:], sig))

	other := SHA512Half([]byte("other"))
	require.False(t, Verify(keys.Public, other[:], sig))
	require.False(t, Verify(keys.Public, digest[:], FlipBit(sig, 40)))

	stranger, err := GenerateNodeKeys()
	require.NoError(t, err)
	require.False(t, Verify(stranger.Public, digest[:], sig))
}

func TestNodeKeysFromToken(t *testing.T) {
	partitiontest.PartitionTest(t)

	keys, err := GenerateNodeKeys()
	require.NoError(t, err)
	restored, err := NodeKeysFromToken(keys.SecretToken())
	require.NoError(t, err)
	require.Equal(t, keys.Public, restored.Public)

	_, err = NodeKeysFromToken(keys.Public.String())
	require.ErrorIs(t, err, ErrTokenType)

	_, err = NodeKeysFromSecret([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestNodePublicToken(t *testing.T) {
	partitiontest.PartitionTest(t)

	keys, err := GenerateNodeKeys()
	require.NoError(t, err)
	token := keys.Public.String()
	require.Equal(t, byte('n'), token[0])

	pk, err := DecodeNodePublic(token)
	require.NoError(t, err)
	require.Equal(t, keys.Public, pk)

	// corrupt one character in the body
	corrupted := []byte(token)
	if corrupted[5] == 'r' {
		corrupted[5] = 'p'
	} else {
		corrupted[5] = 'r'
	}
	_, err = DecodeNodePublic(string(corrupted))
	require.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	partitiontest.PartitionTest(t)

	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "payload")
		typ := TokenType(rapid.SampledFrom([]byte{0, 28, 32}).Draw(t, "type"))
		got, err := DecodeToken(typ, EncodeToken(typ, payload))
		require.NoError(t, err)
		require.Equal(t, payload, got)
	})
}

func TestPublicKeyType(t *testing.T) {
	partitiontest.PartitionTest(t)

	key := func(prefix byte) []byte {
		k := bytes.Repeat([]byte{1}, PublicKeySize)
		k[0] = prefix
		return k
	}
	require.Equal(t, KeyTypeSecp256k1, PublicKeyType(key(0x02)))
	require.Equal(t, KeyTypeSecp256k1, PublicKeyType(key(0x03)))
	require.Equal(t, KeyTypeEd25519, PublicKeyType(key(0xed)))
	require.Equal(t, KeyTypeUnknown, PublicKeyType(key(0x04)))
	require.Equal(t, KeyTypeUnknown, PublicKeyType(key(0x02)[:32]))
	require.Equal(t, "ed25519", KeyTypeEd25519.String())

	_, err := ParsePublicKey(key(0xed))
	require.ErrorIs(t, err, ErrInvalidPublicKey)
}

func TestFlipBit(t *testing.T) {
	partitiontest.PartitionTest(t)

	in := []byte{0x00, 0xff}
	require.Equal(t, []byte{0x80, 0xff}, FlipBit(in, 0))
	require.Equal(t, []byte{0x00, 0xfe}, FlipBit(in, 15))
	require.Equal(t, []byte{0x00, 0xff}, in)
	require.Empty(t, FlipBit(nil, 3))

	rng := rand.New(rand.NewSource(1))
	flipped := FlipRandomBit(in, rng)
	diff := 0
	for i := range in {
		x := in[i] ^ flipped[i]
		for ; x != 0; x &= x - 1 {
			diff++
		}
	}
	require.Equal(t, 1, diff)
}
