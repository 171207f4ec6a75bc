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

// Package partitiontest splits a test run across CI workers. Every test calls
// PartitionTest first; tests outside the current partition are skipped.
package partitiontest

import (
	"hash/crc32"
	"os"
	"strconv"
	"testing"
)

// PartitionTest checks if the current partition should run this test, and skips it if not.
func PartitionTest(t testing.TB) {
	pt, found := os.LookupEnv("PARTITION_TOTAL")
	if !found {
		return
	}
	partitions, err := strconv.Atoi(pt)
	if err != nil || partitions <= 1 {
		return
	}
	partitionID, err := strconv.Atoi(os.Getenv("PARTITION_ID"))
	if err != nil {
		return
	}
	name := t.Name()
	idx := crc32.ChecksumIEEE([]byte(name)) % uint32(partitions)
	if idx != uint32(partitionID) {
		t.Skipf("test %s belongs to partition %d", name, idx)
	}
}
