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
	"io"

	"github.com/pierrec/lz4/v4"
)

const (
	// HeaderSize is the size of an uncompressed frame header.
	HeaderSize = 6
	// CompressedHeaderSize is the size of a compressed frame header, which
	// additionally carries the uncompressed payload length.
	CompressedHeaderSize = 10

	// MaxPayloadSize is the largest payload a peer accepts, before or after
	// decompression.
	MaxPayloadSize = 64 << 20

	// payloads below this size are never worth compressing
	minCompressibleSize = 70

	compressedBit    = 0x80
	algorithmMask    = 0xf0
	algorithmLZ4     = 0x90
	reservedMask     = 0x0c
	uncompressedMask = 0xfc
	compressedSize   = 0x0fffffff
)

type header struct {
	size         int
	payloadSize  int
	originalSize int
	msgType      MessageType
	compressed   bool
}

func parseHeader(b []byte) (header, error) {
	if len(b) == 0 {
		return header{}, &DecodeError{Kind: Truncated, Declared: HeaderSize}
	}
	if b[0]&uncompressedMask == 0 {
		if len(b) < HeaderSize {
			return header{}, &DecodeError{Kind: Truncated, Declared: HeaderSize, Actual: len(b)}
		}
		size := int(binary.BigEndian.Uint32(b[0:4]))
		return header{
			size:         HeaderSize,
			payloadSize:  size,
			originalSize: size,
			msgType:      MessageType(binary.BigEndian.Uint16(b[4:6])),
		}, nil
	}
	if b[0]&compressedBit == 0 {
		return header{}, &DecodeError{Kind: BadHeader, Err: errors.New("reserved size bits set")}
	}
	if b[0]&reservedMask != 0 {
		return header{}, &DecodeError{Kind: BadHeader, Err: errors.New("reserved compression bits set")}
	}
	if b[0]&algorithmMask != algorithmLZ4 {
		return header{}, &DecodeError{Kind: BadHeader, Err: fmt.Errorf("unsupported compression algorithm %#x", b[0]&algorithmMask)}
	}
	if len(b) < CompressedHeaderSize {
		return header{}, &DecodeError{Kind: Truncated, Declared: CompressedHeaderSize, Actual: len(b)}
	}
	return header{
		size:         CompressedHeaderSize,
		payloadSize:  int(binary.BigEndian.Uint32(b[0:4]) & compressedSize),
		originalSize: int(binary.BigEndian.Uint32(b[6:10])),
		msgType:      MessageType(binary.BigEndian.Uint16(b[4:6])),
		compressed:   true,
	}, nil
}

// Encode frames m with an uncompressed header. The payload must be smaller
// than MaxPayloadSize.
func Encode(m Message) []byte {
	frame := make([]byte, HeaderSize+len(m.Payload))
	binary.BigEndian.PutUint32(frame[0:4], uint32(len(m.Payload)))
	binary.BigEndian.PutUint16(frame[4:6], uint16(m.Type))
	copy(frame[HeaderSize:], m.Payload)
	return frame
}

// EncodeCompressed frames m with an LZ4 compressed payload. Payloads that are
// small or do not shrink are framed uncompressed instead, as a node would.
func EncodeCompressed(m Message) []byte {
	if len(m.Payload) < minCompressibleSize {
		return Encode(m)
	}
	buf := make([]byte, CompressedHeaderSize+lz4.CompressBlockBound(len(m.Payload)))
	n, err := lz4.CompressBlock(m.Payload, buf[CompressedHeaderSize:], nil)
	if err != nil || n == 0 || n >= len(m.Payload) {
		return Encode(m)
	}
	binary.BigEndian.PutUint32(buf[0:4], uint32(n)&compressedSize)
	buf[0] |= algorithmLZ4
	binary.BigEndian.PutUint16(buf[4:6], uint16(m.Type))
	binary.BigEndian.PutUint32(buf[6:10], uint32(len(m.Payload)))
	return buf[:CompressedHeaderSize+n]
}

// Decode parses exactly one complete frame. It checks framing only; the
// payload is returned as raw bytes.
func Decode(frame []byte) (Message, error) {
	return decode(frame, MaxPayloadSize)
}

// decode is Decode with maxPayload capping the payload both as framed and
// once decompressed.
func decode(frame []byte, maxPayload int) (Message, error) {
	h, err := parseHeader(frame)
	if err != nil {
		return Message{}, err
	}
	if h.payloadSize > maxPayload {
		return Message{}, &DecodeError{Kind: Oversized, Type: h.msgType, Declared: h.payloadSize, Actual: len(frame) - h.size}
	}
	body := frame[h.size:]
	if len(body) != h.payloadSize {
		return Message{}, &DecodeError{Kind: LengthMismatch, Type: h.msgType, Declared: h.payloadSize, Actual: len(body)}
	}
	if !h.msgType.Known() {
		return Message{}, &DecodeError{Kind: UnknownType, Type: h.msgType}
	}
	payload, err := h.decompress(body, maxPayload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: h.msgType, Payload: payload}, nil
}

func (h header) decompress(body []byte, maxPayload int) ([]byte, error) {
	if !h.compressed {
		return cloneBytes(body), nil
	}
	if h.originalSize > maxPayload {
		return nil, &DecodeError{Kind: Oversized, Type: h.msgType, Declared: h.originalSize}
	}
	out := make([]byte, h.originalSize)
	n, err := lz4.UncompressBlock(body, out)
	if err != nil {
		return nil, &DecodeError{Kind: ChecksumInvalid, Type: h.msgType, Declared: h.originalSize, Err: err}
	}
	if n != h.originalSize {
		return nil, &DecodeError{Kind: ChecksumInvalid, Type: h.msgType, Declared: h.originalSize, Actual: n}
	}
	return out, nil
}

// Split decodes the first frame of buf and returns the number of bytes it
// occupied. A buffer holding only part of a frame yields Truncated.
func Split(buf []byte) (Message, int, error) {
	h, err := parseHeader(buf)
	if err != nil {
		return Message{}, 0, err
	}
	if h.payloadSize > MaxPayloadSize {
		return Message{}, 0, &DecodeError{Kind: Oversized, Type: h.msgType, Declared: h.payloadSize}
	}
	total := h.size + h.payloadSize
	if len(buf) < total {
		return Message{}, 0, &DecodeError{Kind: Truncated, Type: h.msgType, Declared: h.payloadSize, Actual: len(buf) - h.size}
	}
	m, err := Decode(buf[:total])
	return m, total, err
}

// ReadMessage reads one frame from r. A clean end of stream before the first
// header byte is returned as io.EOF; a stream ending inside a frame yields
// Truncated. Other read errors, such as deadlines, are returned unchanged.
// maxPayload caps the declared length and the decompressed length; zero
// selects MaxPayloadSize.
func ReadMessage(r io.Reader, maxPayload int) (Message, error) {
	var hdr [CompressedHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:1]); err != nil {
		return Message{}, err
	}
	size := HeaderSize
	if hdr[0]&compressedBit != 0 {
		size = CompressedHeaderSize
	}
	if _, err := io.ReadFull(r, hdr[1:size]); err != nil {
		return Message{}, truncatedRead(err, size, 0)
	}
	h, err := parseHeader(hdr[:size])
	if err != nil {
		return Message{}, err
	}
	if maxPayload <= 0 || maxPayload > MaxPayloadSize {
		maxPayload = MaxPayloadSize
	}
	if h.payloadSize > maxPayload {
		return Message{}, &DecodeError{Kind: Oversized, Type: h.msgType, Declared: h.payloadSize}
	}
	frame := make([]byte, size+h.payloadSize)
	copy(frame, hdr[:size])
	if n, err := io.ReadFull(r, frame[size:]); err != nil {
		return Message{}, truncatedRead(err, h.payloadSize, n)
	}
	return decode(frame, maxPayload)
}

func truncatedRead(err error, declared, actual int) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &DecodeError{Kind: Truncated, Declared: declared, Actual: actual, Err: err}
	}
	return err
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}
