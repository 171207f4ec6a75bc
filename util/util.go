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

//go:build !windows

package util

import (
	"syscall"
)

// RaiseFdSoftLimit raises the soft limit on open files to want, capped at the
// hard limit. It never lowers the limit and returns the limit in effect.
func RaiseFdSoftLimit(want uint64) (uint64, error) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}
	if rLimit.Cur >= want {
		return rLimit.Cur, nil
	}
	if want > rLimit.Max {
		want = rLimit.Max
	}
	rLimit.Cur = want
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}
	return want, nil
}

// GetCurrentProcessTimes returns the user and kernel time of this process in
// nanoseconds.
func GetCurrentProcessTimes() (utime int64, stime int64, err error) {
	var usage syscall.Rusage
	if err = syscall.Getrusage(syscall.RUSAGE_SELF, &usage); err != nil {
		return 0, 0, err
	}
	return usage.Utime.Nano(), usage.Stime.Nano(), nil
}
