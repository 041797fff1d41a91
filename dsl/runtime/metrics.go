// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package runtime

import "github.com/prometheus/client_golang/prometheus"

const (
	MetricBuffersMaterialized = "buffers_materialized_total"
	MetricPointsBuffered      = "points_buffered_total"
	MetricQuotientDropped     = "quotient_points_dropped_total"
)

var CounterBuffersMaterialized = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "mistake",
		Name:      MetricBuffersMaterialized,
		Help:      "Number of tensor streams drained into buffers.",
	},
)

var CounterPointsBuffered = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "mistake",
		Name:      MetricPointsBuffered,
		Help:      "Number of points consumed while materializing buffers.",
	},
)

var CounterQuotientDropped = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "mistake",
		Name:      MetricQuotientDropped,
		Help:      "Number of quotient points skipped for a zero or absent denominator.",
	},
)

func init() {
	prometheus.MustRegister(CounterBuffersMaterialized)
	prometheus.MustRegister(CounterPointsBuffered)
	prometheus.MustRegister(CounterQuotientDropped)
}
