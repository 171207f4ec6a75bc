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
	"encoding/binary"
	"errors"
	"fmt"
)

// Serialized ledger objects (validations, manifests) use a tagged field
// encoding. Only enough of it is understood here to locate a validator's
// signing key; nothing is validated.

const (
	stUInt16    = 1
	stUInt32    = 2
	stUInt64    = 3
	stHash128   = 4
	stHash256   = 5
	stAmount    = 6
	stBlob      = 7
	stAccountID = 8
	stUInt8     = 16
	stHash160   = 17
	stVector256 = 19

	fieldPublicKey       = 1
	fieldFlags           = 2
	fieldSequence        = 4
	fieldLedgerSequence  = 6
	fieldMasterSignature = 18
	fieldSigningTime     = 9
	fieldLedgerHash      = 1
	fieldSigningPubKey   = 3
	fieldSignature       = 6
)

var errSTEnd = errors.New("unexpected end of serialized object")

var stFixedSizes = map[int]int{
	stUInt16:  2,
	stUInt32:  4,
	stUInt64:  8,
	stHash128: 16,
	stHash256: 32,
	stUInt8:   1,
	stHash160: 20,
}

func stFieldID(b []byte) (typ, name, n int, err error) {
	if len(b) == 0 {
		return 0, 0, 0, errSTEnd
	}
	typ = int(b[0] >> 4)
	name = int(b[0] & 0x0f)
	n = 1
	if typ == 0 {
		if len(b) <= n {
			return 0, 0, 0, errSTEnd
		}
		typ = int(b[n])
		n++
	}
	if name == 0 {
		if len(b) <= n {
			return 0, 0, 0, errSTEnd
		}
		name = int(b[n])
		n++
	}
	return typ, name, n, nil
}

func stVLLength(b []byte) (length, n int, err error) {
	if len(b) == 0 {
		return 0, 0, errSTEnd
	}
	b0 := int(b[0])
	switch {
	case b0 <= 192:
		return b0, 1, nil
	case b0 <= 240:
		if len(b) < 2 {
			return 0, 0, errSTEnd
		}
		return 193 + (b0-193)*256 + int(b[1]), 2, nil
	case b0 <= 254:
		if len(b) < 3 {
			return 0, 0, errSTEnd
		}
		return 12481 + (b0-241)*65536 + int(b[1])*256 + int(b[2]), 3, nil
	}
	return 0, 0, fmt.Errorf("invalid length prefix %#x", b0)
}

// SigningPubKey extracts the signing public key from a serialized validation.
func SigningPubKey(obj []byte) ([]byte, error) {
	for len(obj) > 0 {
		typ, name, n, err := stFieldID(obj)
		if err != nil {
			return nil, err
		}
		obj = obj[n:]
		var size int
		switch typ {
		case stBlob, stAccountID, stVector256:
			length, ln, err := stVLLength(obj)
			if err != nil {
				return nil, err
			}
			obj = obj[ln:]
			if typ == stBlob && name == fieldSigningPubKey {
				if len(obj) < length {
					return nil, errSTEnd
				}
				return cloneBytes(obj[:length]), nil
			}
			size = length
		case stAmount:
			if len(obj) == 0 {
				return nil, errSTEnd
			}
			size = 8
			if obj[0]&0x80 != 0 {
				size = 48
			}
		default:
			fixed, ok := stFixedSizes[typ]
			if !ok {
				return nil, fmt.Errorf("unsupported field type %d", typ)
			}
			size = fixed
		}
		if len(obj) < size {
			return nil, errSTEnd
		}
		obj = obj[size:]
	}
	return nil, errors.New("no signing key in serialized object")
}

func appendSTFieldID(dst []byte, typ, name int) []byte {
	switch {
	case typ < 16 && name < 16:
		return append(dst, byte(typ<<4|name))
	case typ < 16:
		return append(dst, byte(typ<<4), byte(name))
	case name < 16:
		return append(dst, byte(name), byte(typ))
	default:
		return append(dst, 0, byte(typ), byte(name))
	}
}

func appendSTVL(dst []byte, v []byte) []byte {
	n := len(v)
	switch {
	case n <= 192:
		dst = append(dst, byte(n))
	case n <= 12480:
		n -= 193
		dst = append(dst, byte(193+n/256), byte(n%256))
	default:
		n -= 12481
		dst = append(dst, byte(241+n/65536), byte(n/256%256), byte(n%256))
	}
	return append(dst, v...)
}

// NewValidationObject builds a minimal serialized validation with the given
// ledger sequence, ledger hash, signing key and signature. Fields are written
// in canonical order.
func NewValidationObject(ledgerSeq, signingTime uint32, ledgerHash, signingKey, signature []byte) []byte {
	var u32 [4]byte
	obj := appendSTFieldID(nil, stUInt32, fieldFlags)
	binary.BigEndian.PutUint32(u32[:], 0x80000001)
	obj = append(obj, u32[:]...)
	obj = appendSTFieldID(obj, stUInt32, fieldLedgerSequence)
	binary.BigEndian.PutUint32(u32[:], ledgerSeq)
	obj = append(obj, u32[:]...)
	obj = appendSTFieldID(obj, stUInt32, fieldSigningTime)
	binary.BigEndian.PutUint32(u32[:], signingTime)
	obj = append(obj, u32[:]...)
	var hash [32]byte
	copy(hash[:], ledgerHash)
	obj = appendSTFieldID(obj, stHash256, fieldLedgerHash)
	obj = append(obj, hash[:]...)
	obj = appendSTFieldID(obj, stBlob, fieldSigningPubKey)
	obj = appendSTVL(obj, signingKey)
	if len(signature) > 0 {
		obj = appendSTFieldID(obj, stBlob, fieldSignature)
		obj = appendSTVL(obj, signature)
	}
	return obj
}

// NewManifestObject builds a serialized validator manifest that binds
// signingKey to masterKey. Signatures are left out when empty, which gives
// the bytes both signatures are computed over.
func NewManifestObject(seq uint32, masterKey, signingKey, signature, masterSignature []byte) []byte {
	var u32 [4]byte
	obj := appendSTFieldID(nil, stUInt32, fieldSequence)
	binary.BigEndian.PutUint32(u32[:], seq)
	obj = append(obj, u32[:]...)
	obj = appendSTFieldID(obj, stBlob, fieldPublicKey)
	obj = appendSTVL(obj, masterKey)
	obj = appendSTFieldID(obj, stBlob, fieldSigningPubKey)
	obj = appendSTVL(obj, signingKey)
	if len(signature) > 0 {
		obj = appendSTFieldID(obj, stBlob, fieldSignature)
		obj = appendSTVL(obj, signature)
	}
	if len(masterSignature) > 0 {
		obj = appendSTFieldID(obj, stBlob, fieldMasterSignature)
		obj = appendSTVL(obj, masterSignature)
	}
	return obj
}
