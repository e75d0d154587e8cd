// Package metrics records per-run pipeline counters for the node exporter
// textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run holds the Prometheus metrics of one pipeline or enrichment run.
type Run struct {
	registry *prometheus.Registry

	MatchesProcessed *prometheus.CounterVec
	MatchesSkipped   *prometheus.CounterVec
	RecordErrors     *prometheus.CounterVec
	PhaseDuration    *prometheus.GaugeVec

	PlayersSeen prometheus.Gauge
	Eligible    prometheus.Gauge
	RosterSize  prometheus.Gauge
	Finals      prometheus.Gauge

	EnrichOutcomes *prometheus.CounterVec
}

// New creates a Run with every metric registered on a private registry.
func New() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),

		MatchesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cricroster_matches_processed_total",
				Help: "Matches folded into the aggregate store by format",
			},
			[]string{"format"},
		),

		MatchesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cricroster_matches_skipped_total",
				Help: "Matches skipped by format and reason",
			},
			[]string{"format", "reason"},
		),

		RecordErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cricroster_record_errors_total",
				Help: "Malformed match records by format",
			},
			[]string{"format"},
		),

		PhaseDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cricroster_phase_duration_seconds",
				Help: "Wall time of each pipeline phase in seconds",
			},
			[]string{"phase"},
		),

		PlayersSeen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cricroster_players_seen",
				Help: "Distinct players in the aggregate store",
			},
		),

		Eligible: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cricroster_players_eligible",
				Help: "Players passing the eligibility filter",
			},
		),

		RosterSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cricroster_roster_size",
				Help: "Players emitted in the roster",
			},
		),

		Finals: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cricroster_finals_detected",
				Help: "Tournament finals detected",
			},
		),

		EnrichOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cricroster_enrich_outcomes_total",
				Help: "Enrichment attempts by outcome",
			},
			[]string{"outcome"},
		),
	}

	r.registry.MustRegister(
		r.MatchesProcessed,
		r.MatchesSkipped,
		r.RecordErrors,
		r.PhaseDuration,
		r.PlayersSeen,
		r.Eligible,
		r.RosterSize,
		r.Finals,
		r.EnrichOutcomes,
	)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// ObservePhase records how long phase took, measured from start.
func (r *Run) ObservePhase(phase string, start time.Time) {
	if r == nil {
		return
	}
	r.PhaseDuration.WithLabelValues(phase).Set(time.Since(start).Seconds())
}

// WriteTextfile writes the current metric values to path in the Prometheus
// text format, creating parent directories.
func (r *Run) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
