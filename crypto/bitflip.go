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
	"math/rand"
)

// FlipBit returns a copy of b with one bit inverted. bit counts from the
// most significant bit of b[0].
func FlipBit(b []byte, bit int) []byte {
	out := append([]byte(nil), b...)
	if len(out) == 0 {
		return out
	}
	bit %= len(out) * 8
	out[bit/8] ^= 0x80 >> uint(bit%8)
	return out
}

// FlipRandomBit returns a copy of b with a single random bit inverted.
func FlipRandomBit(b []byte, rng *rand.Rand) []byte {
	if len(b) == 0 {
		return nil
	}
	return FlipBit(b, rng.Intn(len(b)*8))
}
