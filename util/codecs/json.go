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
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strings"
)

// NewFormattedJSONEncoder returns a json encoder that writes one field per
// line with tab indentation.
func NewFormattedJSONEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	enc.SetEscapeHTML(false)
	return enc
}

// LoadObjectFromFile decodes the json in filename into object.
func LoadObjectFromFile(filename string, object interface{}) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(object)
}

// SaveObjectToFile writes object to filename as json.
func SaveObjectToFile(filename string, object interface{}, prettyFormat bool) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return encodeObject(f, object, prettyFormat)
}

func encodeObject(w io.Writer, object interface{}, prettyFormat bool) error {
	enc := json.NewEncoder(w)
	if prettyFormat {
		enc = NewFormattedJSONEncoder(w)
	}
	return enc.Encode(object)
}

// SaveNonDefaultValuesToFile writes object to filename as formatted json,
// leaving out every field whose value equals the one in defaultObject.
// Fields named in alwaysInclude are written regardless. Only flat structs
// are supported.
func SaveNonDefaultValuesToFile(filename string, object, defaultObject interface{}, alwaysInclude []string) error {
	var buf bytes.Buffer
	if err := WriteNonDefaultValues(&buf, object, defaultObject, alwaysInclude); err != nil {
		return err
	}
	return os.WriteFile(filename, buf.Bytes(), 0644)
}

// WriteNonDefaultValues is SaveNonDefaultValuesToFile writing to w.
func WriteNonDefaultValues(w io.Writer, object, defaultObject interface{}, alwaysInclude []string) error {
	var full bytes.Buffer
	if err := encodeObject(&full, object, true); err != nil {
		return err
	}

	objectValues := createValueMap(object)
	defaultValues := createValueMap(defaultObject)

	var kept []string
	inContent := false
	for _, line := range strings.Split(full.String(), "\n") {
		if line == "" {
			continue
		}
		name := extractValueName(line)
		if name == "" {
			switch {
			case !inContent && strings.Contains(line, "{"):
				inContent = true
			case inContent && strings.Contains(line, "}"):
				inContent = false
			default:
				return fmt.Errorf("error processing serialized object - nested types are not supported: %s", line)
			}
			kept = append(kept, line)
			continue
		}
		if !inContent {
			return fmt.Errorf("error processing serialized object - should be at EOF: %s", line)
		}
		if !slices.Contains(alwaysInclude, name) && isDefaultValue(name, objectValues, defaultValues) {
			continue
		}
		kept = append(kept, line)
	}

	// the closing brace is last; the line before it must not end in a comma
	if n := len(kept); n > 2 {
		kept[n-2] = strings.TrimSuffix(kept[n-2], ",")
	}
	_, err := io.WriteString(w, strings.Join(kept, "\n")+"\n")
	return err
}

func extractValueName(line string) string {
	start := strings.Index(line, "\"")
	if start < 0 {
		return ""
	}
	end := strings.Index(line, "\":")
	if end <= start {
		return ""
	}
	return line[start+1 : end]
}

func createValueMap(object interface{}) map[string]interface{} {
	valueMap := make(map[string]interface{})
	val := reflect.Indirect(reflect.ValueOf(object))
	for i := 0; i < val.NumField(); i++ {
		field := val.Type().Field(i)
		name := field.Name
		if tag, ok := field.Tag.Lookup("json"); ok {
			if n := strings.Split(tag, ",")[0]; n != "" {
				name = n
			}
		}
		valueMap[name] = val.Field(i).Interface()
	}
	return valueMap
}

func isDefaultValue(name string, values, defaults map[string]interface{}) bool {
	val, hasVal := values[name]
	def, hasDef := defaults[name]
	if hasVal != hasDef {
		return false
	}
	return reflect.DeepEqual(val, def)
}
