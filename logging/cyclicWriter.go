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

package logging

import (
	"fmt"
	"os"

	"github.com/algorand/go-deadlock"
)

// CyclicFileWriter is an io.Writer over a log file that never grows past a
// size limit. When the next entry would not fit, the live file is moved to the
// archive path and a new live file is started.
type CyclicFileWriter struct {
	mu        deadlock.Mutex
	writer    *os.File
	liveLog   string
	archive   string
	nextWrite uint64
	limit     uint64
}

// MakeCyclicFileWriter opens liveLogFilePath for appending.
func MakeCyclicFileWriter(liveLogFilePath, archiveFilePath string, sizeLimitBytes uint64) (*CyclicFileWriter, error) {
	cyclic := &CyclicFileWriter{liveLog: liveLogFilePath, archive: archiveFilePath, limit: sizeLimitBytes}
	if fs, err := os.Stat(liveLogFilePath); err == nil {
		cyclic.nextWrite = uint64(fs.Size())
	}
	writer, err := os.OpenFile(liveLogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("CyclicFileWriter: cannot open log file: %w", err)
	}
	cyclic.writer = writer
	return cyclic, nil
}

// Write archives the live file first if p does not fit in what is left of
// the limit.
func (cyclic *CyclicFileWriter) Write(p []byte) (n int, err error) {
	cyclic.mu.Lock()
	defer cyclic.mu.Unlock()

	if uint64(len(p)) > cyclic.limit {
		return 0, fmt.Errorf("CyclicFileWriter: input too long to write. Len = %v", len(p))
	}
	if cyclic.writer == nil {
		return 0, os.ErrClosed
	}

	if cyclic.nextWrite+uint64(len(p)) > cyclic.limit {
		cyclic.writer.Close()
		cyclic.writer = nil
		if err = os.Rename(cyclic.liveLog, cyclic.archive); err != nil {
			return 0, fmt.Errorf("CyclicFileWriter: cannot archive full log: %w", err)
		}
		cyclic.writer, err = os.OpenFile(cyclic.liveLog, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
		if err != nil {
			cyclic.writer = nil
			return 0, fmt.Errorf("CyclicFileWriter: cannot open log file: %w", err)
		}
		cyclic.nextWrite = 0
	}
	n, err = cyclic.writer.Write(p)
	cyclic.nextWrite += uint64(n)
	return
}

// Close closes the live file.
func (cyclic *CyclicFileWriter) Close() error {
	cyclic.mu.Lock()
	defer cyclic.mu.Unlock()
	if cyclic.writer == nil {
		return nil
	}
	err := cyclic.writer.Close()
	cyclic.writer = nil
	return err
}
