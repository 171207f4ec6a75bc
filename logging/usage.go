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
	"context"
	"time"

	"github.com/xrpl-synth/synthpeer/util"
)

// UsageLogThread logs the CPU share of this process every period until ctx
// is done.
func UsageLogThread(ctx context.Context, log Logger, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	prevUtime, prevStime, _ := util.GetCurrentProcessTimes()
	prevTime := time.Now()
	for {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}

		now := time.Now()
		utime, stime, err := util.GetCurrentProcessTimes()
		if err != nil {
			log.Warnf("usage: %v", err)
			continue
		}
		userNanos := utime - prevUtime
		sysNanos := stime - prevStime
		wallNanos := now.Sub(prevTime).Nanoseconds()
		userf := float64(userNanos) / float64(wallNanos)
		sysf := float64(sysNanos) / float64(wallNanos)
		log.Infof("usage nanos wall=%d user=%d sys=%d pu=%0.4f%% ps=%0.4f%%", wallNanos, userNanos, sysNanos, userf*100.0, sysf*100.0)

		prevUtime, prevStime, prevTime = utime, stime, now
	}
}
