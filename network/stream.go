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

package network

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"net/textproto"
	"strings"
	"time"
)

// Stream is a connection with a read buffer shared by the handshake and the
// framed message reader, so bytes buffered while reading headers are not lost.
type Stream struct {
	net.Conn
	r *bufio.Reader
}

// NewStream wraps conn.
func NewStream(conn net.Conn) *Stream {
	return &Stream{Conn: conn, r: bufio.NewReaderSize(conn, 16*1024)}
}

func (s *Stream) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// watch bounds blocking I/O on s by ctx and timeout. The returned function
// clears the deadline and must be called once the guarded I/O is done.
func (s *Stream) watch(ctx context.Context, timeout time.Duration) func() {
	deadline, ok := ctx.Deadline()
	if timeout > 0 {
		if d := time.Now().Add(timeout); !ok || d.Before(deadline) {
			deadline, ok = d, true
		}
	}
	if ok {
		s.Conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		s.Conn.SetDeadline(time.Unix(1, 0))
	})
	return func() {
		stop()
		s.Conn.SetDeadline(time.Time{})
	}
}

// headerBlock is the start line and header fields of a handshake request or
// response.
type headerBlock struct {
	startLine string
	fields    map[string]string
	order     []string
}

func (h *headerBlock) get(name string) string {
	return h.fields[textproto.CanonicalMIMEHeaderKey(name)]
}

func (h *headerBlock) set(name, value string) {
	key := textproto.CanonicalMIMEHeaderKey(name)
	if _, ok := h.fields[key]; !ok {
		h.order = append(h.order, key)
	}
	h.fields[key] = value
}

func makeHeaderBlock(startLine string) *headerBlock {
	return &headerBlock{startLine: startLine, fields: make(map[string]string)}
}

func (h *headerBlock) bytes() []byte {
	var b bytes.Buffer
	b.WriteString(h.startLine)
	b.WriteString("\r\n")
	for _, k := range h.order {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(h.fields[k])
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return b.Bytes()
}

// maxHeaderFields bounds the number of header lines accepted.
const maxHeaderFields = 64

// readHeaderBlock reads a start line and header fields up to the blank line.
// Any line of maxLine bytes or more fails with HeaderTooLarge; the oversized
// line is never fully buffered.
func readHeaderBlock(r *bufio.Reader, maxLine int) (*headerBlock, error) {
	start, err := readHeaderLine(r, maxLine, "start line")
	if err != nil {
		return nil, err
	}
	h := makeHeaderBlock(start)
	for i := 0; ; i++ {
		line, err := readHeaderLine(r, maxLine, "header")
		if err != nil {
			return nil, err
		}
		if line == "" {
			return h, nil
		}
		if i >= maxHeaderFields {
			return nil, &HandshakeError{Kind: HeaderTooLarge, Field: "header count"}
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, &HandshakeError{Kind: Malformed, Field: line}
		}
		h.set(strings.TrimSpace(name), strings.TrimSpace(value))
	}
}

func readHeaderLine(r *bufio.Reader, maxLine int, what string) (string, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(bytes.TrimRight(line, "\r\n")) >= maxLine {
			return "", &HandshakeError{Kind: HeaderTooLarge, Field: fieldName(line, what)}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			return "", classifyIOError(what, err)
		}
		return string(bytes.TrimRight(line, "\r\n")), nil
	}
}

func fieldName(line []byte, fallback string) string {
	if i := bytes.IndexByte(line, ':'); i > 0 && i < 64 {
		return textproto.CanonicalMIMEHeaderKey(string(bytes.TrimSpace(line[:i])))
	}
	return fallback
}
