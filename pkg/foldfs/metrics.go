// Copyright 2025 Velda Inc
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//  http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package foldfs

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks request latency and the bookkeeping done for case preservation.
type Metrics struct {
	fuseLatency *prometheus.SummaryVec

	// Case name storage
	NamesStored       prometheus.Counter
	NameStoreFailures prometheus.Counter

	// Directory listing
	StaleNamesHealed prometheus.Counter
	HiddenEntries    prometheus.Counter

	CredentialSwitches prometheus.Counter
	OpenHandles        *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		fuseLatency: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name: "foldfs_fuse_latency",
			Help: "Latency of foldfs operations in seconds",
		}, []string{"name"}),
		NamesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foldfs_case_names_stored_total",
			Help: "Number of original names recorded in the backing store",
		}),
		NameStoreFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foldfs_case_name_store_failures_total",
			Help: "Number of original names that could not be recorded",
		}),
		StaleNamesHealed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foldfs_stale_names_healed_total",
			Help: "Number of stored names removed because they no longer matched the physical name",
		}),
		HiddenEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foldfs_hidden_entries_total",
			Help: "Number of backing entries skipped in listings because they are not in folded form",
		}),
		CredentialSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foldfs_credential_switches_total",
			Help: "Number of operations executed under the caller's credentials",
		}),
		OpenHandles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "foldfs_open_handles",
			Help: "Number of open file and directory handles",
		}, []string{"kind"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.fuseLatency,
		m.NamesStored,
		m.NameStoreFailures,
		m.StaleNamesHealed,
		m.HiddenEntries,
		m.CredentialSwitches,
		m.OpenHandles,
	}
}

// Register adds all collectors to reg. Collectors that are already
// registered are left in place.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

func (m *Metrics) Unregister(reg prometheus.Registerer) {
	for _, c := range m.collectors() {
		reg.Unregister(c)
	}
}

func (m *Metrics) Add(name string, dt time.Duration) {
	m.fuseLatency.WithLabelValues(name).Observe(dt.Seconds())
	m.fuseLatency.WithLabelValues("all").Observe(dt.Seconds())
}
