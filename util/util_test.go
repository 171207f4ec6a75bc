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

package util

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xrpl-synth/synthpeer/test/partitiontest"
)

func TestRaiseFdSoftLimitNeverLowers(t *testing.T) {
	partitiontest.PartitionTest(t)

	before, err := RaiseFdSoftLimit(0)
	require.NoError(t, err)
	require.NotZero(t, before)

	after, err := RaiseFdSoftLimit(before)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestProcessTimesAdvance(t *testing.T) {
	partitiontest.PartitionTest(t)

	u1, s1, err := GetCurrentProcessTimes()
	require.NoError(t, err)
	x := 0
	for i := 0; i < 50_000_000; i++ {
		x += i % 7
	}
	require.NotZero(t, x)
	u2, s2, err := GetCurrentProcessTimes()
	require.NoError(t, err)
	require.GreaterOrEqual(t, u2+s2, u1+s1)
}
