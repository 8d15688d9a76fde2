// Package etl implements the SmartBudget pipeline: transaction CSV ingest
// into a staging table, transformation into canonical expenses with label
// assignment, priority scoring, and recommendation generation. Each stage is
// usable on its own; Pipeline chains them and records every stage execution
// in run history.
package etl

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"smartbudget/pkg/db"
	"smartbudget/pkg/metrics"
)

// Options selects the inputs of a pipeline run. CSVURL takes precedence over
// CSVPath when both are set.
type Options struct {
	SeedPath string
	CSVPath  string
	CSVURL   string
}

// Result summarizes a full pipeline run.
type Result struct {
	RunID     string
	Seeded    int64
	Ingest    *IngestResult
	Transform *TransformResult
	Score     *ScoreResult
	Recommend *RecommendResult
}

// Pipeline executes the ETL stages in order against one store.
type Pipeline struct {
	conn         *db.Connection
	runs         *db.Runs
	sourceSystem string
	now          func() time.Time
}

// NewPipeline creates a new Pipeline for a source system.
func NewPipeline(conn *db.Connection, sourceSystem string) *Pipeline {
	return &Pipeline{
		conn:         conn,
		runs:         db.NewRuns(conn),
		sourceSystem: sourceSystem,
		now:          time.Now,
	}
}

// Run executes seed, ingest, and transform in order, then scoring and
// recommendations concurrently (they read expenses and write disjoint
// tables). Every stage is recorded in run history under one run id; the
// first stage failure aborts the pipeline.
func (p *Pipeline) Run(opts Options) (*Result, error) {
	result := &Result{RunID: uuid.New().String()}
	slog.Info("Starting pipeline run", "run_id", result.RunID, "source_system", p.sourceSystem)

	err := p.runStage(result.RunID, db.StageSeed, func() (int64, int64, error) {
		cfg, err := LoadSeedConfigOrDefault(opts.SeedPath)
		if err != nil {
			return 0, 0, err
		}

		applied, err := NewSeeder(p.conn).Apply(cfg)
		if err != nil {
			return 0, 0, err
		}

		result.Seeded = applied
		return applied, applied, nil
	})
	if err != nil {
		return nil, err
	}

	err = p.runStage(result.RunID, db.StageIngest, func() (int64, int64, error) {
		res, err := p.ingest(opts)
		if err != nil {
			return 0, 0, err
		}

		result.Ingest = res
		metrics.RecordRowsIngested(res.Valid)
		metrics.RecordRowsRejected(res.Rejected)
		return int64(res.Valid + res.Rejected), int64(res.Valid), nil
	})
	if err != nil {
		return nil, err
	}

	err = p.runStage(result.RunID, db.StageTransform, func() (int64, int64, error) {
		res, err := NewTransformer(p.conn, p.sourceSystem).Run()
		if err != nil {
			return 0, 0, err
		}

		result.Transform = res
		metrics.RecordExpensesUpserted(res.Upserted)
		metrics.RecordLabelsAssigned(res.LabelsAssigned)
		metrics.RecordUnmappedCategories(res.Unmapped)
		return int64(res.Staged), res.Upserted, nil
	})
	if err != nil {
		return nil, err
	}

	var g errgroup.Group
	g.Go(func() error {
		return p.runStage(result.RunID, db.StageScore, func() (int64, int64, error) {
			res, err := NewScorer(p.conn).Run()
			if err != nil {
				return 0, 0, err
			}

			result.Score = res
			metrics.RecordExpensesScored(res.Scored)
			return int64(res.Scorable), int64(res.Scored), nil
		})
	})
	g.Go(func() error {
		return p.runStage(result.RunID, db.StageRecommend, func() (int64, int64, error) {
			res, err := NewRecommender(p.conn).Run()
			if err != nil {
				return 0, 0, err
			}

			result.Recommend = res
			metrics.RecordRecommendations(res.Generated)
			return int64(res.Candidates), int64(res.Generated), nil
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("Pipeline run complete", "run_id", result.RunID)

	return result, nil
}

// ingest reads the CSV selected by the options, from a URL or from disk.
func (p *Pipeline) ingest(opts Options) (*IngestResult, error) {
	ingester := NewIngester(p.conn, p.sourceSystem)

	if opts.CSVURL != "" {
		body, err := NewFetcher(FetcherConfig{}).Fetch(opts.CSVURL)
		if err != nil {
			return nil, err
		}
		defer body.Close()

		return ingester.Run(body)
	}

	return ingester.RunFile(opts.CSVPath)
}

// runStage wraps one stage execution with run history and metrics: a start
// row, the duration observation, and the finish row carrying rows in/out and
// the outcome.
func (p *Pipeline) runStage(runID, stage string, fn func() (rowsIn, rowsOut int64, err error)) error {
	startedAt := p.now()
	if err := p.runs.RecordStart(runID, stage, startedAt); err != nil {
		return err
	}

	rowsIn, rowsOut, stageErr := fn()

	finishedAt := p.now()
	metrics.ObserveStageDuration(stage, finishedAt.Sub(startedAt).Seconds())

	run := db.StageRun{
		RunID:      runID,
		Stage:      stage,
		FinishedAt: sql.NullTime{Time: finishedAt, Valid: true},
		RowsIn:     rowsIn,
		RowsOut:    rowsOut,
		Status:     db.RunStatusOK,
	}
	if stageErr != nil {
		run.Status = db.RunStatusFailed
		run.Error = sql.NullString{String: stageErr.Error(), Valid: true}
		metrics.RecordStageError(stage)
	}

	if err := p.runs.RecordFinish(run); err != nil {
		return err
	}

	if stageErr != nil {
		return fmt.Errorf("%s stage failed: %w", stage, stageErr)
	}

	slog.Info("Stage complete",
		"run_id", runID,
		"stage", stage,
		"rows_in", rowsIn,
		"rows_out", rowsOut,
		"duration", finishedAt.Sub(startedAt),
	)

	return nil
}
