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

package config

import (
	"fmt"
	"reflect"
	"strconv"
)

// MigrationResult records one field moved to a newer default.
type MigrationResult struct {
	FieldName              string
	OldVersion, NewVersion uint32
	OldValue, NewValue     any
}

func (m MigrationResult) String() string {
	return fmt.Sprintf("%s: %v (v%d) -> %v (v%d)", m.FieldName, m.OldValue, m.OldVersion, m.NewValue, m.NewVersion)
}

// migrate walks cfg forward one version at a time. A field still holding
// the default of its version takes the default of the next one; values set
// explicitly are kept.
func migrate(cfg Local) (Local, []MigrationResult, error) {
	latest := getLatestConfigVersion()
	if cfg.Version > latest {
		return cfg, nil, fmt.Errorf("unexpected config version: %d", cfg.Version)
	}

	var migrations []MigrationResult
	localType := reflect.TypeFor[Local]()
	for cfg.Version < latest {
		current := GetVersionedDefaultLocalConfig(cfg.Version)
		next := cfg.Version + 1
		tag := fmt.Sprintf("version[%d]", next)

		out := reflect.ValueOf(&cfg).Elem()
		for i := 0; i < localType.NumField(); i++ {
			field := localType.Field(i)
			raw, ok := field.Tag.Lookup(tag)
			if !ok || field.Name == "Version" {
				continue
			}
			value := out.Field(i)
			if !value.Equal(reflect.ValueOf(current).Field(i)) {
				continue
			}
			old := value.Interface()
			if err := setFromTag(value, raw); err != nil {
				return cfg, nil, fmt.Errorf("%s %s: %w", field.Name, tag, err)
			}
			if old != value.Interface() {
				migrations = append(migrations, MigrationResult{
					FieldName:  field.Name,
					OldVersion: cfg.Version,
					NewVersion: next,
					OldValue:   old,
					NewValue:   value.Interface(),
				})
			}
		}
		cfg.Version = next
	}
	return cfg, migrations, nil
}

func getLatestConfigVersion() uint32 {
	versionField, found := reflect.TypeFor[Local]().FieldByName("Version")
	if !found {
		return 0
	}
	version := uint32(0)
	for {
		if _, ok := versionField.Tag.Lookup(fmt.Sprintf("version[%d]", version+1)); !ok {
			return version
		}
		version++
	}
}

// GetVersionedDefaultLocalConfig returns the defaults as of version.
func GetVersionedDefaultLocalConfig(version uint32) (local Local) {
	if version > 0 {
		local = GetVersionedDefaultLocalConfig(version - 1)
	}
	tag := fmt.Sprintf("version[%d]", version)
	localType := reflect.TypeFor[Local]()
	out := reflect.ValueOf(&local).Elem()
	for i := 0; i < localType.NumField(); i++ {
		raw, ok := localType.Field(i).Tag.Lookup(tag)
		if !ok {
			continue
		}
		if err := setFromTag(out.Field(i), raw); err != nil {
			panic(fmt.Sprintf("config.Local %s %s: %v", localType.Field(i).Name, tag, err))
		}
	}
	return
}

// setFromTag parses a version tag value into v. Durations are written in
// nanoseconds.
func setFromTag(v reflect.Value, raw string) error {
	switch v.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.String:
		v.SetString(raw)
	default:
		return fmt.Errorf("unsupported kind %s", v.Kind())
	}
	return nil
}
