// Package storage persists experiments, their runs and model snapshots.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/thalesfsp/ntbea"
	"github.com/thalesfsp/ntbea/benchmark"
)

// ErrNotInitialized is returned by stores used before Init.
var ErrNotInitialized = errors.New("store is not initialized")

// Store persists experiments, their runs and the final tuple statistics of
// each run.
type Store interface {
	Init(ctx context.Context) error
	SaveExperiment(ctx context.Context, record ExperimentRecord) error
	GetExperiment(ctx context.Context, id string) (ExperimentRecord, bool, error)
	ListExperiments(ctx context.Context) ([]ExperimentRecord, error)
	SaveRun(ctx context.Context, record RunRecord) error
	ListRuns(ctx context.Context, experimentID string) ([]RunRecord, error)
	SaveSnapshot(ctx context.Context, record SnapshotRecord) error
	GetSnapshot(ctx context.Context, runID string) (SnapshotRecord, bool, error)
	Close() error
}

// VersionedRecord tags every payload with the versions it was written with.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// ExperimentSummary holds the aggregate results of an experiment.
type ExperimentSummary struct {
	ActualMean   float64                `json:"actual_mean"`
	ActualStdErr float64                `json:"actual_std_err"`
	DeltaMean    float64                `json:"delta_mean"`
	Popular      []benchmark.Popularity `json:"popular"`
	FinishedAt   time.Time              `json:"finished_at"`
}

// ExperimentRecord is a stored experiment.
type ExperimentRecord struct {
	VersionedRecord

	Experiment benchmark.Experiment `json:"experiment"`
	Summary    ExperimentSummary    `json:"summary"`
}

// RunRecord is one stored run of an experiment.
type RunRecord struct {
	VersionedRecord

	ExperimentID string               `json:"experiment_id"`
	Outcome      benchmark.RunOutcome `json:"outcome"`
}

// SnapshotRecord holds the tuple statistics of a run's final model.
type SnapshotRecord struct {
	VersionedRecord

	RunID  string                `json:"run_id"`
	Tuples []ntbea.TupleSnapshot `json:"tuples"`
}

func currentVersion() VersionedRecord {
	return VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

// NewExperimentRecord summarises report for storage.
func NewExperimentRecord(report *benchmark.Report) ExperimentRecord {
	record := ExperimentRecord{
		VersionedRecord: currentVersion(),
		Experiment:      report.Experiment,
		Summary: ExperimentSummary{
			ActualMean: report.Collator.Mean("ActualValue"),
			DeltaMean:  report.Collator.Mean("Delta"),
			Popular:    report.Popular,
			FinishedAt: time.Now().UTC(),
		},
	}

	if ss, ok := report.Collator.Get("ActualValue"); ok {
		record.Summary.ActualStdErr = ss.StdErr()
	}

	return record
}

// NewRunRecord wraps a run outcome for storage.
func NewRunRecord(experimentID string, outcome benchmark.RunOutcome) RunRecord {
	return RunRecord{VersionedRecord: currentVersion(), ExperimentID: experimentID, Outcome: outcome}
}

// NewSnapshotRecord wraps a run's tuple statistics for storage.
func NewSnapshotRecord(runID string, tuples []ntbea.TupleSnapshot) SnapshotRecord {
	return SnapshotRecord{VersionedRecord: currentVersion(), RunID: runID, Tuples: tuples}
}

// SaveReport stores the experiment of report, every run and every snapshot.
func SaveReport(ctx context.Context, store Store, report *benchmark.Report) error {
	if err := store.SaveExperiment(ctx, NewExperimentRecord(report)); err != nil {
		return err
	}

	for _, out := range report.Outcomes {
		if err := store.SaveRun(ctx, NewRunRecord(report.Experiment.ID, out)); err != nil {
			return err
		}

		if out.Snapshot == nil {
			continue
		}

		if err := store.SaveSnapshot(ctx, NewSnapshotRecord(out.ID, out.Snapshot)); err != nil {
			return err
		}
	}

	return nil
}
