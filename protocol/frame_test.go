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
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/xrpl-synth/synthpeer/test/partitiontest"
)

func frameWithLengths(t MessageType, declared, actual int) []byte {
	frame := make([]byte, HeaderSize+actual)
	binary.BigEndian.PutUint32(frame[0:4], uint32(declared))
	binary.BigEndian.PutUint16(frame[4:6], uint16(t))
	return frame
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	partitiontest.PartitionTest(t)

	rapid.Check(t, func(t *rapid.T) {
		m := Message{
			Type:    rapid.SampledFrom(MessageTypes).Draw(t, "type"),
			Payload: rapid.SliceOfN(rapid.Byte(), 0, 4096).Draw(t, "payload"),
		}
		got, err := Decode(Encode(m))
		require.NoError(t, err)
		require.True(t, m.Equal(got), "got %v want %v", got, m)

		got, err = Decode(EncodeCompressed(m))
		require.NoError(t, err)
		require.True(t, m.Equal(got))
	})
}

func TestDecodeLengthMismatch(t *testing.T) {
	partitiontest.PartitionTest(t)

	rapid.Check(t, func(t *rapid.T) {
		declared := rapid.IntRange(0, 8192).Draw(t, "declared")
		delta := rapid.IntRange(1, 512).Draw(t, "delta")
		actual := declared + delta
		if rapid.Bool().Draw(t, "shorter") && declared >= delta {
			actual = declared - delta
		}
		typ := rapid.SampledFrom(MessageTypes).Draw(t, "type")

		_, err := Decode(frameWithLengths(typ, declared, actual))
		require.ErrorIs(t, err, ErrLengthMismatch)
		var de *DecodeError
		require.ErrorAs(t, err, &de)
		require.Equal(t, declared, de.Declared)
		require.Equal(t, actual, de.Actual)
	})
}

func TestDecodeShortHeader(t *testing.T) {
	partitiontest.PartitionTest(t)

	for n := 0; n < HeaderSize; n++ {
		_, err := Decode(make([]byte, n))
		require.ErrorIs(t, err, ErrTruncated, "header of %d bytes", n)
	}

	compressed := EncodeCompressed(Message{Type: TransactionType, Payload: bytes.Repeat([]byte("abcd"), 200)})
	require.NotZero(t, compressed[0]&compressedBit)
	_, err := Decode(compressed[:8])
	require.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeUnknownType(t *testing.T) {
	partitiontest.PartitionTest(t)

	frame := Encode(Message{Type: MessageType(9999), Payload: []byte{1, 2, 3}})
	_, err := Decode(frame)
	require.ErrorIs(t, err, ErrUnknownType)
	require.Contains(t, err.Error(), "9999")
}

func TestCompressedFrames(t *testing.T) {
	partitiontest.PartitionTest(t)

	m := Message{Type: LedgerDataType, Payload: bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 1024)}
	frame := EncodeCompressed(m)
	require.Equal(t, byte(algorithmLZ4), frame[0]&algorithmMask)
	require.Less(t, len(frame), len(Encode(m)))
	require.Equal(t, uint32(len(m.Payload)), binary.BigEndian.Uint32(frame[6:10]))

	got, err := Decode(frame)
	require.NoError(t, err)
	require.True(t, m.Equal(got))

	// small payloads stay uncompressed
	small := Message{Type: PingType, Payload: []byte{8, 0, 16, 1}}
	require.Equal(t, Encode(small), EncodeCompressed(small))
}

func TestCompressedIntegrityField(t *testing.T) {
	partitiontest.PartitionTest(t)

	m := Message{Type: LedgerDataType, Payload: bytes.Repeat([]byte("ledger"), 512)}
	for _, delta := range []int{-1, 1, 1000} {
		frame := EncodeCompressed(m)
		binary.BigEndian.PutUint32(frame[6:10], uint32(len(m.Payload)+delta))
		_, err := Decode(frame)
		require.ErrorIs(t, err, ErrChecksumInvalid, "delta %d", delta)
	}
}

func TestBadHeaderBits(t *testing.T) {
	partitiontest.PartitionTest(t)

	frame := EncodeCompressed(Message{Type: LedgerDataType, Payload: bytes.Repeat([]byte("x"), 256)})

	reserved := append([]byte(nil), frame...)
	reserved[0] |= 0x04
	_, err := Decode(reserved)
	require.ErrorIs(t, err, ErrBadHeader)

	algo := append([]byte(nil), frame...)
	algo[0] = (algo[0] &^ algorithmMask) | 0xa0
	_, err = Decode(algo)
	require.ErrorIs(t, err, ErrBadHeader)

	sizeBits := Encode(Message{Type: PingType})
	sizeBits[0] = 0x40
	_, err = Decode(sizeBits)
	require.ErrorIs(t, err, ErrBadHeader)
}

func TestSplit(t *testing.T) {
	partitiontest.PartitionTest(t)

	a := Message{Type: PingType, Payload: NewMessage(&Ping{Seq: 7}).Payload}
	b := Message{Type: EndpointsType, Payload: NewMessage(&Endpoints{Version: 2}).Payload}
	buf := append(Encode(a), Encode(b)...)

	m, n, err := Split(buf)
	require.NoError(t, err)
	require.True(t, a.Equal(m))
	m, _, err = Split(buf[n:])
	require.NoError(t, err)
	require.True(t, b.Equal(m))

	_, _, err = Split(buf[:n-1])
	require.ErrorIs(t, err, ErrTruncated)
}

func TestReadMessage(t *testing.T) {
	partitiontest.PartitionTest(t)

	msgs := []Message{
		NewMessage(&Ping{Seq: 1}),
		{Type: LedgerDataType, Payload: bytes.Repeat([]byte("node"), 300)},
		NewMessage(&Squelch{Squelch: true, ValidatorPubKey: []byte{0x02, 1, 2}, Duration: 300}),
	}
	var stream bytes.Buffer
	stream.Write(Encode(msgs[0]))
	stream.Write(EncodeCompressed(msgs[1]))
	stream.Write(Encode(msgs[2]))

	for _, want := range msgs {
		got, err := ReadMessage(&stream, 0)
		require.NoError(t, err)
		require.True(t, want.Equal(got))
	}
	_, err := ReadMessage(&stream, 0)
	require.ErrorIs(t, err, io.EOF)

	frame := Encode(msgs[1])
	_, err = ReadMessage(bytes.NewReader(frame[:len(frame)-10]), 0)
	require.ErrorIs(t, err, ErrTruncated)

	_, err = ReadMessage(bytes.NewReader(frame), 100)
	require.ErrorIs(t, err, ErrOversized)
}

func TestReadMessageCapsDecompressedSize(t *testing.T) {
	partitiontest.PartitionTest(t)

	// 4800 bytes that compress far below the cap
	m := Message{Type: LedgerDataType, Payload: bytes.Repeat([]byte("ledger"), 800)}
	frame := EncodeCompressed(m)
	require.Less(t, len(frame)-CompressedHeaderSize, 1000)

	_, err := ReadMessage(bytes.NewReader(frame), 1000)
	require.ErrorIs(t, err, ErrOversized)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, len(m.Payload), de.Declared)

	got, err := ReadMessage(bytes.NewReader(frame), len(m.Payload))
	require.NoError(t, err)
	require.True(t, m.Equal(got))

	// a declared original size past the cap is refused before inflating
	binary.BigEndian.PutUint32(frame[6:10], MaxPayloadSize+1)
	_, err = Decode(frame)
	require.ErrorIs(t, err, ErrOversized)
}

func TestDecodeNeverAliasesInput(t *testing.T) {
	partitiontest.PartitionTest(t)

	frame := Encode(Message{Type: TransactionType, Payload: []byte{1, 2, 3}})
	m, err := Decode(frame)
	require.NoError(t, err)
	frame[HeaderSize] = 9
	require.Equal(t, []byte{1, 2, 3}, m.Payload)
}

func TestDecodeArbitraryBytes(t *testing.T) {
	partitiontest.PartitionTest(t)

	rapid.Check(t, func(t *rapid.T) {
		b := rapid.SliceOfN(rapid.Byte(), 0, 256).Draw(t, "bytes")
		m, err := Decode(b)
		if err == nil {
			require.True(t, m.Type.Known())
			return
		}
		var de *DecodeError
		require.ErrorAs(t, err, &de)
	})
}
