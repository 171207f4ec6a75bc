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

	"google.golang.org/protobuf/encoding/protowire"
)

// Payload bodies are protobuf messages. They are small and fixed, so they are
// encoded field by field instead of through generated code. Optional scalar
// fields are omitted when zero; required ones are always written.

type encoder struct {
	b []byte
}

func (e *encoder) varint(num protowire.Number, v uint64) {
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, v)
}

func (e *encoder) optVarint(num protowire.Number, v uint64) {
	if v != 0 {
		e.varint(num, v)
	}
}

func (e *encoder) boolean(num protowire.Number, v bool) {
	e.varint(num, protowire.EncodeBool(v))
}

func (e *encoder) optBool(num protowire.Number, v bool) {
	if v {
		e.boolean(num, v)
	}
}

func (e *encoder) bytes(num protowire.Number, v []byte) {
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, v)
}

func (e *encoder) optBytes(num protowire.Number, v []byte) {
	if len(v) > 0 {
		e.bytes(num, v)
	}
}

func (e *encoder) repeatedBytes(num protowire.Number, vs [][]byte) {
	for _, v := range vs {
		e.bytes(num, v)
	}
}

func (e *encoder) str(num protowire.Number, v string) {
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, v)
}

func (e *encoder) optStr(num protowire.Number, v string) {
	if v != "" {
		e.str(num, v)
	}
}

func (e *encoder) embedded(num protowire.Number, m interface{ Marshal() []byte }) {
	e.bytes(num, m.Marshal())
}

type field struct {
	num protowire.Number
	typ protowire.Type
	u   uint64
	b   []byte
}

func (f field) bytes() []byte {
	return cloneBytes(f.b)
}

func (f field) str() string {
	return string(f.b)
}

func (f field) boolean() bool {
	return protowire.DecodeBool(f.u)
}

func (f field) u32() uint32 {
	return uint32(f.u)
}

// walk visits every field of a serialized message. Groups and unknown wire
// types are skipped.
func walk(b []byte, visit func(field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.u, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.b, n = protowire.ConsumeBytes(b)
		case protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			f.u = uint64(v)
		case protowire.Fixed64Type:
			f.u, n = protowire.ConsumeFixed64(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
		if err := visit(f); err != nil {
			return err
		}
	}
	return nil
}
