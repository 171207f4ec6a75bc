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

// Gauge represent a single gauge variable.
type Gauge struct {
	vec *prometheus.GaugeVec
}

// MakeGauge create a new gauge with the provided name and description.
func MakeGauge(reg *Registry, metric MetricName, labels ...string) *Gauge {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: metric.Name,
		Help: metric.Description,
	}, labels)
	if existing, ok := reg.register(vec).(*prometheus.GaugeVec); ok {
		vec = existing
	}
	return &Gauge{vec: vec}
}

// Set sets the gauge value for the given labels.
func (gauge *Gauge) Set(x float64, labels map[string]string) {
	if g, err := gauge.vec.GetMetricWith(prometheus.Labels(labels)); err == nil {
		g.Set(x)
	}
}

// Add adds x, which may be negative, to the gauge.
func (gauge *Gauge) Add(x float64, labels map[string]string) {
	if g, err := gauge.vec.GetMetricWith(prometheus.Labels(labels)); err == nil {
		g.Add(x)
	}
}

// Value returns the current value for the given labels.
func (gauge *Gauge) Value(labels map[string]string) float64 {
	g, err := gauge.vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return 0
	}
	return testutil.ToFloat64(g)
}
