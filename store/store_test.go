package store

import (
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/pxharvest/pxharvest/errors"
	"github.com/pxharvest/pxharvest/px"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Migrate(db, nil); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return NewStore(db)
}

func TestJournalRoundTrip(t *testing.T) {
	st := openTestStore(t)

	run := NewRun("march inventory")
	if run.ID == "" {
		t.Fatal("NewRun did not assign an ID")
	}
	if err := st.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	results := []px.Result{
		{
			Accession:      "PXD000001",
			Repository:     px.RepositoryPRIDE,
			RawFileCount:   12,
			TotalSizeBytes: 4096,
			Source:         px.SourcePRIDE,
			Success:        true,
			Metadata:       px.Metadata{Title: "TMT spikes", Instruments: []string{"LTQ Orbitrap Velos"}},
		},
		{
			Accession:          "PXD000002",
			Repository:         px.RepositoryUnknown,
			DeclaredRepository: "PeptideAtlas",
			RawFileCount:       3,
			Source:             px.SourceEmbedded,
			Success:            true,
		},
		{
			Accession:  "PXD000003",
			Repository: px.RepositoryUnknown,
			Source:     px.SourceNone,
			Success:    false,
			Err:        "registry unreachable",
		},
	}
	for _, res := range results {
		if err := st.AppendResult(run.ID, res); err != nil {
			t.Fatalf("AppendResult(%s) failed: %v", res.Accession, err)
		}
	}

	stored, err := st.Results(run.ID)
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("Results = %d rows, want 3", len(stored))
	}
	if stored[0].Accession != "PXD000001" || stored[0].RawFileCount != 12 || !stored[0].Success {
		t.Errorf("stored[0] = %+v", stored[0])
	}
	if stored[0].Metadata.Title != "TMT spikes" || len(stored[0].Metadata.Instruments) != 1 {
		t.Errorf("stored[0].Metadata = %+v, want metadata round-tripped", stored[0].Metadata)
	}
	if stored[1].DeclaredRepository != "PeptideAtlas" {
		t.Errorf("stored[1].DeclaredRepository = %q", stored[1].DeclaredRepository)
	}
	if stored[2].Success || stored[2].Err != "registry unreachable" {
		t.Errorf("stored[2] = %+v, want the failure preserved", stored[2])
	}

	completed, err := st.CompletedAccessions(run.ID)
	if err != nil {
		t.Fatalf("CompletedAccessions failed: %v", err)
	}
	if len(completed) != 2 || !completed["PXD000001"] || !completed["PXD000002"] {
		t.Errorf("completed = %v, want only the two successes", completed)
	}

	if err := st.FinishRun(run.ID, 3, 2, 1); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}
	got, err := st.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Total != 3 || got.Succeeded != 2 || got.Failed != 1 {
		t.Errorf("run tallies = %+v, want 3/2/1", got)
	}
	if got.FinishedAt == nil {
		t.Error("FinishedAt not stamped")
	}
	if got.Notes != "march inventory" {
		t.Errorf("Notes = %q", got.Notes)
	}

	latest, err := st.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if latest.ID != run.ID {
		t.Errorf("LatestRun = %s, want %s", latest.ID, run.ID)
	}

	runs, err := st.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID {
		t.Errorf("ListRuns = %v", runs)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if err := Migrate(db, nil); err != nil {
		t.Fatalf("first Migrate failed: %v", err)
	}
	if err := Migrate(db, nil); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestAppendResultOverwritesRetry(t *testing.T) {
	st := openTestStore(t)
	run := NewRun("")
	if err := st.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	failed := px.Result{Accession: "PXD000010", Repository: px.RepositoryUnknown, Source: px.SourceNone, Err: "timeout"}
	if err := st.AppendResult(run.ID, failed); err != nil {
		t.Fatalf("AppendResult failed: %v", err)
	}
	retried := px.Result{Accession: "PXD000010", Repository: px.RepositoryPRIDE, RawFileCount: 7, Source: px.SourcePRIDE, Success: true}
	if err := st.AppendResult(run.ID, retried); err != nil {
		t.Fatalf("AppendResult retry failed: %v", err)
	}

	stored, err := st.Results(run.ID)
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("Results = %d rows, want the retry to overwrite", len(stored))
	}
	if !stored[0].Success || stored[0].RawFileCount != 7 {
		t.Errorf("stored[0] = %+v, want the retried result", stored[0])
	}
}

func TestFinishRunMissing(t *testing.T) {
	st := openTestStore(t)
	if err := st.FinishRun("no-such-run", 0, 0, 0); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestGetRunNotFound(t *testing.T) {
	st := openTestStore(t)
	_, err := st.GetRun("no-such-run")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetRun error = %v, want ErrNotFound", err)
	}

	_, err = st.LatestRun()
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("LatestRun on empty journal = %v, want ErrNotFound", err)
	}
}

func TestAppendResultDBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT OR REPLACE INTO results").WillReturnError(errors.New("disk I/O error"))

	st := NewStore(db)
	appendErr := st.AppendResult("run-1", px.Result{Accession: "PXD000001"})
	if appendErr == nil {
		t.Fatal("expected append error to propagate")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListRunsDBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, started_at").WillReturnError(errors.New("database is locked"))

	st := NewStore(db)
	if _, listErr := st.ListRuns(5); listErr == nil {
		t.Fatal("expected list error to propagate")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
