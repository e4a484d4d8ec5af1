package hybrid

import (
	"time"

	"github.com/kailas-cloud/hybridsync/internal/domain"
	domset "github.com/kailas-cloud/hybridsync/internal/domain/settings"
	migrationuc "github.com/kailas-cloud/hybridsync/internal/usecase/migration"
)

// Record is a dense-only source record. Payload should carry page_content
// (the text the sparse vector is built from) and an optional metadata map.
type Record struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Result is one hybrid query hit.
type Result struct {
	ID      string
	Score   float64
	Content string
	Payload map[string]any
	// Vector is nil when the client was built with WithSearch(..., false).
	Vector []float32
}

// Report summarizes a migration or incremental load.
type Report struct {
	Pages       int
	Exported    int
	Loaded      int
	Failed      []string
	ResumedFrom string
	Duration    time.Duration
}

// Progress is a running migration total.
type Progress = migrationuc.Progress

// MigrateOptions control a full migration.
type MigrateOptions struct {
	FailFast bool
	Resume   bool
	Progress func(Progress)
}

// Settings are the runtime query knobs.
type Settings struct {
	NumberOfHybridItems int
	HybridThreshold     float64
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"/"missing"
}

func toSourceRecords(recs []Record) []domain.SourceRecord {
	out := make([]domain.SourceRecord, len(recs))
	for i, r := range recs {
		out[i] = domain.SourceRecord{ID: r.ID, Dense: r.Vector, Payload: domain.Payload(r.Payload)}
	}
	return out
}

func fromScored(rs []domain.ScoredRecord) []Result {
	out := make([]Result, len(rs))
	for i, r := range rs {
		out[i] = Result{
			ID:      r.ID,
			Score:   r.Score,
			Content: r.Payload.PageContent(),
			Payload: r.Payload,
			Vector:  r.Dense,
		}
	}
	return out
}

func fromReport(r migrationuc.Report) Report {
	return Report{
		Pages:       r.Pages,
		Exported:    r.Exported,
		Loaded:      r.Loaded,
		Failed:      r.Failed,
		ResumedFrom: r.ResumedFrom,
		Duration:    r.Duration,
	}
}

func fromSettings(s domset.Settings) Settings {
	return Settings{NumberOfHybridItems: s.NumberOfHybridItems, HybridThreshold: s.HybridThreshold}
}

func (s Settings) toDomain() domset.Settings {
	return domset.Settings{NumberOfHybridItems: s.NumberOfHybridItems, HybridThreshold: s.HybridThreshold}
}
