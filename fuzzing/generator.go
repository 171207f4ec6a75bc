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

package fuzzing

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand"

	fuzz "github.com/google/gofuzz"

	"github.com/xrpl-synth/synthpeer/protocol"
)

// Category is a class of malformed payload.
type Category int

const (
	// RandomBytes is uniformly random bytes of random length.
	RandomBytes Category = iota
	// PlausibleSize is random bytes exactly as long as a real frame.
	PlausibleSize
	// ValidHeaderRandomBody is a well-formed header over a random body.
	ValidHeaderRandomBody
	// CorruptedBody is a valid message with part of its body overwritten.
	CorruptedBody
	// BadChecksum is a compressed frame whose uncompressed length is wrong.
	BadChecksum
	// LengthMismatch is a valid message whose declared size disagrees with
	// the body that follows.
	LengthMismatch
)

// Categories lists every category in generation order.
var Categories = []Category{RandomBytes, PlausibleSize, ValidHeaderRandomBody, CorruptedBody, BadChecksum, LengthMismatch}

var categoryNames = [...]string{"random_bytes", "plausible_size", "valid_header_random_body", "corrupted_body", "bad_checksum", "length_mismatch"}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory maps a category name back to its value.
func ParseCategory(name string) (Category, error) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown fuzz category %q", name)
}

// Candidate is one malformed payload, written to the wire as is.
type Candidate struct {
	Index    int
	Category Category
	// Base is the type of the valid message the candidate was derived from,
	// if any.
	Base protocol.MessageType
	Data []byte
}

const (
	// DefaultIterations is the number of candidates per category.
	DefaultIterations = 20
	// DefaultMaxSize bounds the length of random payloads.
	DefaultMaxSize = 64 << 10
	// DefaultCorruptPercent is the share of body bytes CorruptedBody rewrites.
	DefaultCorruptPercent = 25
)

// GeneratorConfig selects what a Generator produces.
type GeneratorConfig struct {
	Seed int64
	// Categories defaults to every category.
	Categories []Category
	Iterations int
	MinSize    int
	MaxSize    int
	// CorruptPercent is clamped to 1..100.
	CorruptPercent int
}

func (cfg GeneratorConfig) withDefaults() GeneratorConfig {
	if len(cfg.Categories) == 0 {
		cfg.Categories = Categories
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = DefaultIterations
	}
	if cfg.MinSize <= 0 {
		cfg.MinSize = 1
	}
	if cfg.MaxSize < cfg.MinSize {
		cfg.MaxSize = DefaultMaxSize
		if cfg.MaxSize < cfg.MinSize {
			cfg.MaxSize = cfg.MinSize
		}
	}
	if cfg.CorruptPercent <= 0 {
		cfg.CorruptPercent = DefaultCorruptPercent
	}
	if cfg.CorruptPercent > 100 {
		cfg.CorruptPercent = 100
	}
	return cfg
}

// Generator lazily yields a finite sequence of candidates. Every category
// contributes Iterations candidates in turn. The sequence depends only on the
// configuration, so Reset replays it exactly.
type Generator struct {
	cfg   GeneratorConfig
	rng   *rand.Rand
	typed *fuzz.Fuzzer
	next  int
}

// MakeGenerator returns a generator positioned at the first candidate.
func MakeGenerator(cfg GeneratorConfig) *Generator {
	g := &Generator{cfg: cfg.withDefaults()}
	g.Reset()
	return g
}

// Seed returns the seed the sequence derives from.
func (g *Generator) Seed() int64 { return g.cfg.Seed }

// Len returns the total number of candidates.
func (g *Generator) Len() int { return len(g.cfg.Categories) * g.cfg.Iterations }

// Reset rewinds the generator to the first candidate.
func (g *Generator) Reset() {
	g.rng = rand.New(rand.NewSource(g.cfg.Seed))
	g.typed = fuzz.NewWithSeed(g.cfg.Seed).NilChance(0).NumElements(1, 4)
	g.next = 0
}

// Next returns the next candidate, or false once the sequence is exhausted.
func (g *Generator) Next() (Candidate, bool) {
	if g.next >= g.Len() {
		return Candidate{}, false
	}
	c := Candidate{Index: g.next, Category: g.cfg.Categories[g.next/g.cfg.Iterations]}
	g.next++
	switch c.Category {
	case RandomBytes:
		c.Data = g.randomBytes(g.randomSize())
	case PlausibleSize:
		m := g.validMessage()
		c.Base = m.Type
		c.Data = g.randomBytes(len(protocol.Encode(m)))
	case ValidHeaderRandomBody:
		c.Base = g.randomType()
		body := g.randomBytes(g.randomSize())
		c.Data = protocol.Encode(protocol.Message{Type: c.Base, Payload: body})
	case CorruptedBody:
		m := g.validMessage()
		c.Base = m.Type
		c.Data = g.corrupt(protocol.Encode(m))
	case BadChecksum:
		c.Base = protocol.TransactionType
		c.Data = g.badChecksum()
	case LengthMismatch:
		m := g.validMessage()
		c.Base = m.Type
		c.Data = g.mismatch(protocol.Encode(m))
	}
	return c, true
}

func (g *Generator) randomSize() int {
	return g.cfg.MinSize + g.rng.Intn(g.cfg.MaxSize-g.cfg.MinSize+1)
}

func (g *Generator) randomBytes(n int) []byte {
	b := make([]byte, n)
	g.rng.Read(b)
	return b
}

func (g *Generator) randomType() protocol.MessageType {
	return protocol.MessageTypes[g.rng.Intn(len(protocol.MessageTypes))]
}

// validMessage fills a payload of a random type with random field values.
// Messages that encode to an empty body are padded with a manifest so
// corruption has something to work on.
func (g *Generator) validMessage() protocol.Message {
	p := protocol.NewPayload(g.randomType())
	g.typed.Fuzz(p)
	m := protocol.NewMessage(p)
	if len(m.Payload) == 0 {
		m = protocol.NewMessage(&protocol.Manifests{List: [][]byte{g.randomBytes(32)}})
	}
	return m
}

func (g *Generator) corrupt(frame []byte) []byte {
	body := frame[protocol.HeaderSize:]
	n := len(body) * g.cfg.CorruptPercent / 100
	if n == 0 {
		n = 1
	}
	for _, i := range g.rng.Perm(len(body))[:n] {
		// a rewritten byte must differ from the original
		body[i] ^= byte(1 + g.rng.Intn(255))
	}
	return frame
}

// badChecksum compresses a repetitive transaction, which always shrinks,
// then disagrees with the decompressed size.
func (g *Generator) badChecksum() []byte {
	raw := bytes.Repeat([]byte{byte(g.rng.Intn(256))}, 256+g.rng.Intn(4096))
	frame := protocol.EncodeCompressed(protocol.NewMessage(&protocol.Transaction{RawTransaction: raw, Status: protocol.TxNew}))
	declared := binary.BigEndian.Uint32(frame[6:10])
	delta := uint32(1 + g.rng.Intn(1024))
	if g.rng.Intn(2) == 0 && declared > delta {
		declared -= delta
	} else {
		declared += delta
	}
	binary.BigEndian.PutUint32(frame[6:10], declared)
	return frame
}

// mismatch grows the body past its declared size with random trailing bytes
// that cannot start a valid frame.
func (g *Generator) mismatch(frame []byte) []byte {
	tail := g.randomBytes(protocol.HeaderSize + g.rng.Intn(256))
	tail[0] |= 0x40
	return append(frame, tail...)
}
