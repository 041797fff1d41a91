// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package source

import "github.com/prometheus/client_golang/prometheus"

const MetricRowsRead = "source_rows_read_total"

var CounterRowsRead = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "mistake",
		Name:      MetricRowsRead,
		Help:      "Number of CSV rows read by base tensors.",
	},
)

func init() {
	prometheus.MustRegister(CounterRowsRead)
}
