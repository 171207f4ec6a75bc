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

package codecs

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xrpl-synth/synthpeer/test/partitiontest"
)

type testValue struct {
	Bool   bool
	String string
	Int    int
}

func TestIsDefaultValue(t *testing.T) {
	partitiontest.PartitionTest(t)

	a := require.New(t)

	v := testValue{Bool: true, String: "default", Int: 1}
	def := testValue{Bool: true, String: "default", Int: 2}

	objectValues := createValueMap(v)
	defaultValues := createValueMap(def)

	a.True(isDefaultValue("Bool", objectValues, defaultValues))
	a.True(isDefaultValue("String", objectValues, defaultValues))
	a.False(isDefaultValue("Int", objectValues, defaultValues))
	a.True(isDefaultValue("Missing", objectValues, defaultValues))
}

func TestWriteNonDefaultValues(t *testing.T) {
	partitiontest.PartitionTest(t)

	v := testValue{Bool: true, String: "changed", Int: 2}
	def := testValue{Bool: true, String: "default", Int: 2}

	var buf bytes.Buffer
	require.NoError(t, WriteNonDefaultValues(&buf, v, def, []string{"Int"}))
	require.Equal(t, "{\n\t\"String\": \"changed\",\n\t\"Int\": 2\n}\n", buf.String())

	var back map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	require.Len(t, back, 2)

	buf.Reset()
	require.NoError(t, WriteNonDefaultValues(&buf, def, def, nil))
	require.JSONEq(t, "{}", buf.String())
}

func TestNestedTypesRejected(t *testing.T) {
	partitiontest.PartitionTest(t)

	type nested struct {
		Inner testValue
	}
	var buf bytes.Buffer
	err := WriteNonDefaultValues(&buf, nested{Inner: testValue{Int: 1}}, nested{}, nil)
	require.Error(t, err)
}

func TestSaveAndLoadObject(t *testing.T) {
	partitiontest.PartitionTest(t)

	path := filepath.Join(t.TempDir(), "value.json")
	v := testValue{Bool: true, String: "<tag>", Int: 7}
	require.NoError(t, SaveObjectToFile(path, v, true))

	var got testValue
	require.NoError(t, LoadObjectFromFile(path, &got))
	require.Equal(t, v, got)

	require.NoError(t, SaveNonDefaultValuesToFile(path, v, testValue{Int: 7}, nil))
	got = testValue{Int: 7}
	require.NoError(t, LoadObjectFromFile(path, &got))
	require.Equal(t, v, got)
}
