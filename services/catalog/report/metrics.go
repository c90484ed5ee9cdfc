// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/model"
)

// Metrics exposes a summary as Prometheus gauges.
type Metrics struct {
	documents *prometheus.GaugeVec
	runs      *prometheus.GaugeVec
	generated prometheus.Gauge
}

// NewMetrics registers the report gauges on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		documents: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "catalog_collection_documents",
			Help: "Member documents per collection",
		}, []string{"collection"}),
		runs: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "catalog_run_documents",
			Help: "Documents per collection, run key and run status",
		}, []string{"collection", "run_key", "status"}),
		generated: factory.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_report_generated_timestamp_seconds",
			Help: "Unix time the report was generated",
		}),
	}
}

// Observe replaces the gauge values with s.
func (m *Metrics) Observe(s *Summary) {
	m.documents.Reset()
	m.runs.Reset()
	for _, c := range s.Collections {
		m.documents.WithLabelValues(c.ShortName).Set(float64(c.Documents))
		for _, r := range c.Runs {
			counts := map[model.RunStatus]int{
				model.StatusComplete:    r.Complete,
				model.StatusOutstanding: r.Outstanding,
				model.StatusError:       r.Error,
			}
			for _, st := range model.RunStatuses {
				m.runs.WithLabelValues(c.ShortName, r.RunKey, st.String()).Set(float64(counts[st]))
			}
		}
	}
	m.generated.Set(float64(s.GeneratedAt.Unix()))
}

// WriteTextfile writes everything g gathers to path in the text
// exposition format, for the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write textfile %s: %w", path, err)
	}
	return nil
}
