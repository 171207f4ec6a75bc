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

package loaddriver

import (
	"math"
	"sort"
	"time"
)

// LatencyStats summarizes ping round trips of one load run.
type LatencyStats struct {
	Peers     int
	Requested int
	Completed int
	Min       time.Duration
	Max       time.Duration
	Mean      time.Duration
	StdDev    time.Duration
	P10       time.Duration
	P50       time.Duration
	P75       time.Duration
	P90       time.Duration
	P99       time.Duration
	Elapsed   time.Duration
}

// Completion is the share of requested pings that were answered, in
// percent.
func (s LatencyStats) Completion() float64 {
	if s.Requested == 0 {
		return 0
	}
	return 100 * float64(s.Completed) / float64(s.Requested)
}

// Throughput is answered pings per second of wall time.
func (s LatencyStats) Throughput() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Completed) / s.Elapsed.Seconds()
}

// summarize computes statistics over samples; it sorts samples in place.
func summarize(samples []time.Duration) LatencyStats {
	var st LatencyStats
	st.Completed = len(samples)
	if len(samples) == 0 {
		return st
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	st.Min = samples[0]
	st.Max = samples[len(samples)-1]

	var sum float64
	for _, d := range samples {
		sum += float64(d)
	}
	mean := sum / float64(len(samples))
	var sq float64
	for _, d := range samples {
		diff := float64(d) - mean
		sq += diff * diff
	}
	st.Mean = time.Duration(mean)
	st.StdDev = time.Duration(math.Sqrt(sq / float64(len(samples))))
	st.P10 = percentile(samples, 10)
	st.P50 = percentile(samples, 50)
	st.P75 = percentile(samples, 75)
	st.P90 = percentile(samples, 90)
	st.P99 = percentile(samples, 99)
	return st
}

// percentile uses the nearest-rank method over sorted samples.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
