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

package conformance

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xrpl-synth/synthpeer/test/partitiontest"
)

func TestSamplePayment(t *testing.T) {
	partitiontest.PartitionTest(t)

	// TransactionType field, ttPAYMENT
	require.Equal(t, []byte{0x12, 0x00, 0x00}, SamplePayment[:3])
	require.Len(t, SamplePayment, 188)
}

func TestCheckValidatorBlob(t *testing.T) {
	partitiontest.PartitionTest(t)

	enc := func(s string) []byte { return []byte(base64.StdEncoding.EncodeToString([]byte(s))) }
	key := "02" + strings.Repeat("11", 32)

	require.NoError(t, checkValidatorBlob(enc(`{"sequence":1,"validators":[{"validation_public_key":"`+key+`","manifest":"AA=="}]}`)))

	for name, blob := range map[string][]byte{
		"not base64":   []byte("%%%"),
		"not json":     enc("{"),
		"empty":        enc(`{"sequence":1,"validators":[]}`),
		"short key":    enc(`{"validators":[{"validation_public_key":"02AB","manifest":"AA=="}]}`),
		"unknown type": enc(`{"validators":[{"validation_public_key":"05` + key[2:] + `","manifest":"AA=="}]}`),
		"no manifest":  enc(`{"validators":[{"validation_public_key":"` + key + `"}]}`),
	} {
		require.Error(t, checkValidatorBlob(blob), name)
	}
}
