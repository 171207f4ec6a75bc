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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Counter represent a single counter variable.
type Counter struct {
	vec *prometheus.CounterVec
}

// MakeCounter create a new counter with the provided name and description.
// labels lists the label names that Inc and AddUint64 accept.
func MakeCounter(reg *Registry, metric MetricName, labels ...string) *Counter {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metric.Name,
		Help: metric.Description,
	}, labels)
	if existing, ok := reg.register(vec).(*prometheus.CounterVec); ok {
		vec = existing
	}
	return &Counter{vec: vec}
}

// Inc increases counter by 1
func (counter *Counter) Inc(labels map[string]string) {
	counter.AddUint64(1, labels)
}

// AddUint64 increases counter by x. Label maps that do not match the
// declared label names are ignored.
func (counter *Counter) AddUint64(x uint64, labels map[string]string) {
	c, err := counter.vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return
	}
	c.Add(float64(x))
}

// GetUint64ValueForLabels returns the value of the counter for the given labels or 0 if it's not found.
func (counter *Counter) GetUint64ValueForLabels(labels map[string]string) uint64 {
	c, err := counter.vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return 0
	}
	return uint64(testutil.ToFloat64(c))
}
