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
	"math"
	"syscall"
	"time"
)

// RaiseFdSoftLimit is a no-op; Windows has no descriptor limit to raise.
func RaiseFdSoftLimit(_ uint64) (uint64, error) {
	return math.MaxUint64, nil
}

// GetCurrentProcessTimes returns the user and kernel time of this process in
// nanoseconds.
func GetCurrentProcessTimes() (utime int64, stime int64, err error) {
	var creation, exit, kernel, user syscall.Filetime
	handle, err := syscall.GetCurrentProcess()
	if err != nil {
		return 0, 0, err
	}
	if err = syscall.GetProcessTimes(handle, &creation, &exit, &kernel, &user); err != nil {
		return 0, 0, err
	}
	return filetimeToDuration(&user).Nanoseconds(), filetimeToDuration(&kernel).Nanoseconds(), nil
}

func filetimeToDuration(ft *syscall.Filetime) time.Duration {
	// 100-nanosecond intervals
	n := int64(ft.HighDateTime)<<32 + int64(ft.LowDateTime)
	return time.Duration(n * 100)
}
