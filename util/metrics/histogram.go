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
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LatencyBuckets spans 100us to ~6.5s, which covers loopback pings as well
// as a heavily loaded node.
var LatencyBuckets = prometheus.ExponentialBuckets(0.0001, 2, 17)

// Histogram tracks a distribution of observations.
type Histogram struct {
	vec *prometheus.HistogramVec
}

// MakeHistogram creates a histogram with the given buckets. A nil bucket
// list selects LatencyBuckets.
func MakeHistogram(reg *Registry, metric MetricName, buckets []float64, labels ...string) *Histogram {
	if buckets == nil {
		buckets = LatencyBuckets
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metric.Name,
		Help:    metric.Description,
		Buckets: buckets,
	}, labels)
	if existing, ok := reg.register(vec).(*prometheus.HistogramVec); ok {
		vec = existing
	}
	return &Histogram{vec: vec}
}

// Observe records a single value.
func (h *Histogram) Observe(v float64, labels map[string]string) {
	if o, err := h.vec.GetMetricWith(prometheus.Labels(labels)); err == nil {
		o.Observe(v)
	}
}

// ObserveDuration records d in seconds.
func (h *Histogram) ObserveDuration(d time.Duration, labels map[string]string) {
	h.Observe(d.Seconds(), labels)
}
