package reconcile

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pxharvest/pxharvest/archive"
	"github.com/pxharvest/pxharvest/errors"
	"github.com/pxharvest/pxharvest/px"
	"github.com/pxharvest/pxharvest/registry"
)

func TestRunBatchOneResultPerAccession(t *testing.T) {
	resolver := &stubResolver{
		resolutions: map[px.Accession]registry.Resolution{
			"PXD000001": prideResolution("PXD000001", docWithFiles("a.raw")),
			"PXD000003": prideResolution("PXD000003", docWithFiles("b.raw", "c.raw")),
			"PXD000005": {Accession: "PXD000005", Repository: px.RepositoryUnknown, Document: &registry.Document{}},
		},
		errs: map[px.Accession]error{
			"PXD000002": errors.New("registry unreachable"),
			"PXD000004": errors.New("registry unreachable"),
		},
	}
	r := New(Config{Resolver: resolver, Adapters: stubAdapters{}, Logger: testLogger()})

	accessions := []px.Accession{"PXD000001", "PXD000002", "PXD000003", "PXD000004", "PXD000005"}
	results := r.RunBatch(context.Background(), accessions, 3, nil)

	if len(results) != len(accessions) {
		t.Fatalf("results = %d, want one per accession (%d)", len(results), len(accessions))
	}
	for i, res := range results {
		if res.Accession != accessions[i] {
			t.Errorf("results[%d].Accession = %s, want input order preserved (%s)", i, res.Accession, accessions[i])
		}
	}

	succeeded, failed := Summarize(results)
	if succeeded != 3 || failed != 2 {
		t.Errorf("summary = %d succeeded / %d failed, want 3/2", succeeded, failed)
	}
	for _, idx := range []int{1, 3} {
		if results[idx].Success || results[idx].Err == "" {
			t.Errorf("results[%d] = %+v, want failure with recorded error", idx, results[idx])
		}
	}
}

func TestRunBatchMixedRepositories(t *testing.T) {
	pride := &stubAdapter{source: px.SourcePRIDE, outcome: archive.Outcome{Count: 12, Resolved: true}}
	resolver := &stubResolver{
		resolutions: map[px.Accession]registry.Resolution{
			"PXD000001": prideResolution("PXD000001", &registry.Document{}),
			"PXD000002": {
				Accession:  "PXD000002",
				Repository: px.RepositoryUnknown,
				Document:   docWithFiles("a.raw", "b.raw", "c.raw", "notes.txt", "search.mzid"),
			},
		},
	}
	r := New(Config{
		Resolver: resolver,
		Adapters: stubAdapters{px.RepositoryPRIDE: pride},
		Logger:   testLogger(),
	})

	results := r.RunBatch(context.Background(), []px.Accession{"PXD000001", "PXD000002"}, 2, nil)

	if !results[0].Success || results[0].Repository != px.RepositoryPRIDE || results[0].RawFileCount != 12 {
		t.Errorf("results[0] = %+v, want 12 files via PRIDE", results[0])
	}
	if !results[1].Success || results[1].Repository != px.RepositoryUnknown || results[1].RawFileCount != 3 {
		t.Errorf("results[1] = %+v, want 3 files despite the unknown repository", results[1])
	}
}

func TestRunBatchPanicIsolation(t *testing.T) {
	pride := &stubAdapter{source: px.SourcePRIDE, panicMsg: "adapter exploded"}
	resolver := &stubResolver{
		resolutions: map[px.Accession]registry.Resolution{
			"PXD000001": prideResolution("PXD000001", &registry.Document{}),
			"PXD000002": {Accession: "PXD000002", Repository: px.RepositoryUnknown, Document: docWithFiles("a.raw")},
			"PXD000003": {Accession: "PXD000003", Repository: px.RepositoryUnknown, Document: docWithFiles("b.raw")},
		},
	}
	r := New(Config{
		Resolver: resolver,
		Adapters: stubAdapters{px.RepositoryPRIDE: pride},
		Logger:   testLogger(),
	})

	results := r.RunBatch(context.Background(), []px.Accession{"PXD000001", "PXD000002", "PXD000003"}, 2, nil)

	if results[0].Success || !strings.Contains(results[0].Err, "panic") {
		t.Errorf("results[0] = %+v, want panic captured as failure", results[0])
	}
	for _, idx := range []int{1, 2} {
		if !results[idx].Success || results[idx].RawFileCount != 1 {
			t.Errorf("results[%d] = %+v, want sibling unaffected by the panic", idx, results[idx])
		}
	}
}

type trackingResolver struct {
	active atomic.Int32
	max    atomic.Int32
	calls  atomic.Int32
}

func (s *trackingResolver) Resolve(_ context.Context, acc px.Accession) (registry.Resolution, error) {
	cur := s.active.Add(1)
	for {
		max := s.max.Load()
		if cur <= max || s.max.CompareAndSwap(max, cur) {
			break
		}
	}
	s.calls.Add(1)
	time.Sleep(10 * time.Millisecond)
	s.active.Add(-1)
	return registry.Resolution{Accession: acc, Repository: px.RepositoryUnknown}, nil
}

func TestRunBatchBoundsConcurrency(t *testing.T) {
	resolver := &trackingResolver{}
	r := New(Config{Resolver: resolver, Adapters: stubAdapters{}, Logger: testLogger()})

	accessions := make([]px.Accession, 9)
	for i := range accessions {
		accessions[i] = px.Accession("PXD00000" + string(rune('1'+i)))
	}
	results := r.RunBatch(context.Background(), accessions, 3, nil)

	if len(results) != 9 {
		t.Fatalf("results = %d, want 9", len(results))
	}
	if got := resolver.calls.Load(); got != 9 {
		t.Errorf("resolver calls = %d, want 9", got)
	}
	if got := resolver.max.Load(); got > 3 {
		t.Errorf("max concurrent resolutions = %d, want at most the 3 configured workers", got)
	}
}

func TestRunBatchCallback(t *testing.T) {
	resolver := &stubResolver{resolutions: map[px.Accession]registry.Resolution{}}
	r := New(Config{Resolver: resolver, Adapters: stubAdapters{}, Logger: testLogger()})

	accessions := []px.Accession{"PXD000001", "PXD000002", "PXD000003", "PXD000004"}
	seen := make(map[px.Accession]bool)
	results := r.RunBatch(context.Background(), accessions, 2, func(res px.Result) {
		// Serialized by contract, so plain map access is fine here.
		seen[res.Accession] = true
	})

	if len(seen) != len(results) {
		t.Errorf("callback saw %d accessions, want %d", len(seen), len(results))
	}
	for _, acc := range accessions {
		if !seen[acc] {
			t.Errorf("callback never saw %s", acc)
		}
	}
}

func TestRunBatchEmptyInput(t *testing.T) {
	r := New(Config{Resolver: &stubResolver{}, Adapters: stubAdapters{}, Logger: testLogger()})
	if results := r.RunBatch(context.Background(), nil, 4, nil); results != nil {
		t.Errorf("RunBatch(nil) = %v, want nil", results)
	}
}

func TestRunBatchCancelledContextStillYieldsResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(Config{Resolver: &stubResolver{}, Adapters: stubAdapters{}, Logger: testLogger()})
	accessions := []px.Accession{"PXD000001", "PXD000002", "PXD000003"}
	results := r.RunBatch(ctx, accessions, 2, nil)

	if len(results) != len(accessions) {
		t.Fatalf("results = %d, want one per accession even when cancelled", len(results))
	}
	for i, res := range results {
		if res.Accession == "" {
			t.Errorf("results[%d] has no accession; cancelled batches must still fill every slot", i)
		}
	}
}

func TestByAccession(t *testing.T) {
	results := []px.Result{
		{Accession: "PXD000001", Repository: px.RepositoryPRIDE, RawFileCount: 12, Success: true},
		{Accession: "PXD000002", Repository: px.RepositoryUnknown, Success: false, Err: "registry unreachable"},
		{Accession: "PXD000002", Repository: px.RepositoryUnknown, RawFileCount: 3, Success: true},
	}

	m := ByAccession(results)

	if len(m) != 2 {
		t.Fatalf("len = %d, want 2 distinct accessions", len(m))
	}
	if got := m["PXD000001"]; got.RawFileCount != 12 || !got.Success {
		t.Errorf("m[PXD000001] = %+v, want the PRIDE success", got)
	}
	if got := m["PXD000002"]; got.RawFileCount != 3 || !got.Success {
		t.Errorf("m[PXD000002] = %+v, want the later result to win", got)
	}
}
