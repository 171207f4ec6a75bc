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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xrpl-synth/synthpeer/test/partitiontest"
)

func TestCyclicWrite(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	dir := t.TempDir()
	liveFileName := filepath.Join(dir, "live.test")
	archiveFileName := filepath.Join(dir, "archive.test")

	space := 1024
	cyclicWriter, err := MakeCyclicFileWriter(liveFileName, archiveFileName, uint64(space))
	require.NoError(t, err)
	defer cyclicWriter.Close()

	firstWrite := bytes.Repeat([]byte{'A'}, space)
	n, err := cyclicWriter.Write(firstWrite)
	require.NoError(t, err)
	require.Equal(t, len(firstWrite), n)

	n, err = cyclicWriter.Write([]byte{'B'})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	liveData, err := os.ReadFile(liveFileName)
	require.NoError(t, err)
	require.Equal(t, []byte{'B'}, liveData)

	oldData, err := os.ReadFile(archiveFileName)
	require.NoError(t, err)
	require.Equal(t, firstWrite, oldData)

	_, err = cyclicWriter.Write(make([]byte, space+1))
	require.Error(t, err)
}

func TestCyclicWriteResumesExistingFile(t *testing.T) {
	partitiontest.PartitionTest(t)

	dir := t.TempDir()
	live := filepath.Join(dir, "live.log")
	require.NoError(t, os.WriteFile(live, []byte("0123456789"), 0666))

	w, err := MakeCyclicFileWriter(live, filepath.Join(dir, "archive.log"), 16)
	require.NoError(t, err)
	_, err = w.Write([]byte("abcdefgh"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	archived, err := os.ReadFile(filepath.Join(dir, "archive.log"))
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(archived))

	_, err = w.Write([]byte("x"))
	require.ErrorIs(t, err, os.ErrClosed)
}
