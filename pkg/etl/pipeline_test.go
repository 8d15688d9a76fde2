package etl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"smartbudget/pkg/db"
)

func TestPipelineRun(t *testing.T) {
	conn := openTestDB(t)

	csvData := `date,item,category,quantity,price,notes,payment_mode
2026-08-01,Milk,supermarket,1,4.50,,card
2026-08-02,Dinner,restaurant,2,60.00,team dinner,card
2026-08-03,Taxi,uber,1,15.00,,cash
not-a-date,Croissant,bakery,1,3.50,,cash
`
	csvPath := filepath.Join(t.TempDir(), "sample.csv")
	if err := os.WriteFile(csvPath, []byte(csvData), 0644); err != nil {
		t.Fatalf("failed to write CSV: %v", err)
	}

	pipeline := NewPipeline(conn, "google_sheets")
	result, err := pipeline.Run(Options{
		SeedPath: filepath.Join(t.TempDir(), "absent.yaml"),
		CSVPath:  csvPath,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.RunID == "" {
		t.Error("Run() returned an empty run id")
	}
	if result.Seeded == 0 {
		t.Error("Run() seeded nothing, expected the built-in defaults")
	}
	if result.Ingest == nil || result.Ingest.Valid != 3 || result.Ingest.Rejected != 1 {
		t.Errorf("ingest result = %+v, expected 3 valid and 1 rejected", result.Ingest)
	}
	if result.Transform == nil || result.Transform.Upserted != 3 {
		t.Errorf("transform result = %+v, expected 3 upserted", result.Transform)
	}
	// Milk and Dinner carry rule labels; the taxi ride has none.
	if result.Score == nil || result.Score.Scored != 2 {
		t.Errorf("score result = %+v, expected 2 scored", result.Score)
	}
	// ceil(3/4) of the candidates.
	if result.Recommend == nil || result.Recommend.Generated != 1 {
		t.Errorf("recommend result = %+v, expected 1 recommendation", result.Recommend)
	}

	runs, err := db.NewRuns(conn).GetRun(result.RunID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if len(runs) != 5 {
		t.Fatalf("run history has %d stages, expected 5", len(runs))
	}
	for _, run := range runs {
		if run.Status != db.RunStatusOK {
			t.Errorf("stage %s status = %q, expected %q", run.Stage, run.Status, db.RunStatusOK)
		}
		if !run.FinishedAt.Valid {
			t.Errorf("stage %s has no finish time", run.Stage)
		}
	}
}

func TestPipelineRunIsRepeatable(t *testing.T) {
	conn := openTestDB(t)

	csvData := "date,item,category,quantity,price,notes,payment_mode\n" +
		"2026-08-01,Milk,supermarket,1,4.50,,card\n"
	csvPath := filepath.Join(t.TempDir(), "sample.csv")
	if err := os.WriteFile(csvPath, []byte(csvData), 0644); err != nil {
		t.Fatalf("failed to write CSV: %v", err)
	}

	pipeline := NewPipeline(conn, "google_sheets")
	opts := Options{SeedPath: filepath.Join(t.TempDir(), "absent.yaml"), CSVPath: csvPath}

	first, err := pipeline.Run(opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := pipeline.Run(opts)
	if err != nil {
		t.Fatalf("Run() second pass error = %v", err)
	}
	if first.RunID == second.RunID {
		t.Error("both runs share a run id, expected fresh ids")
	}

	count, err := db.NewExpenses(conn).Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("expenses has %d rows after two runs, expected 1", count)
	}
}

func TestPipelineRunRecordsStageFailure(t *testing.T) {
	conn := openTestDB(t)

	pipeline := NewPipeline(conn, "google_sheets")
	_, err := pipeline.Run(Options{
		SeedPath: filepath.Join(t.TempDir(), "absent.yaml"),
		CSVPath:  filepath.Join(t.TempDir(), "missing.csv"),
	})
	if err == nil {
		t.Fatal("Run() expected error for a missing CSV file")
	}
	if !strings.Contains(err.Error(), "ingest stage failed") {
		t.Errorf("Run() error = %q, expected an ingest stage failure", err)
	}

	lastRuns, err := db.NewRuns(conn).GetLastRuns()
	if err != nil {
		t.Fatalf("GetLastRuns() error = %v", err)
	}

	var ingestRun *db.StageRun
	for i := range lastRuns {
		if lastRuns[i].Stage == db.StageIngest {
			ingestRun = &lastRuns[i]
		}
	}
	if ingestRun == nil {
		t.Fatal("no ingest stage in run history")
	}
	if ingestRun.Status != db.RunStatusFailed {
		t.Errorf("ingest status = %q, expected %q", ingestRun.Status, db.RunStatusFailed)
	}
	if !ingestRun.Error.Valid || ingestRun.Error.String == "" {
		t.Error("ingest stage recorded no error text")
	}
}
