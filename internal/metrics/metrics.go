// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts what a harvest run did, per stage, in a Prometheus
// registry that can be written to a node-exporter textfile.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "oa_harvester"

// Metrics holds the counters for one run.
type Metrics struct {
	Registry *prometheus.Registry

	Pages         prometheus.Counter
	Records       prometheus.Counter
	Access        *prometheus.CounterVec
	Downloads     *prometheus.CounterVec
	DownloadBytes prometheus.Counter
	Extractions   *prometheus.CounterVec
	Persist       *prometheus.CounterVec
	Mirror        *prometheus.CounterVec
}

// New registers a fresh set of counters on their own registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Pages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "SRU result pages fetched.",
		}),
		Records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_seen_total",
			Help:      "Records returned by the search endpoint.",
		}),
		Access: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_decisions_total",
			Help:      "Open-access filter verdicts by reason.",
		}, []string{"pass", "reason"}),
		Downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "PDF downloads by result (downloaded, skipped, failed).",
		}, []string{"result"}),
		DownloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_bytes_total",
			Help:      "Bytes of PDF written to disk.",
		}),
		Extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Author/email extraction results (found, none, failed).",
		}, []string{"result"}),
		Persist: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_outcomes_total",
			Help:      "Metadata insert gate outcomes.",
		}, []string{"outcome"}),
		Mirror: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_uploads_total",
			Help:      "S3 mirror uploads by result (uploaded, failed).",
		}, []string{"result"}),
	}
	m.Registry.MustRegister(m.Pages, m.Records, m.Access, m.Downloads, m.DownloadBytes,
		m.Extractions, m.Persist, m.Mirror)
	return m
}

// WriteFile writes the registry in the text exposition format, atomically.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
