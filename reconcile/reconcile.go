// Package reconcile turns accessions into results: it owns the fallback
// chain that tries each counting strategy in policy order, and the bounded
// worker pool that runs whole batches of accessions through that chain.
package reconcile

import (
	"context"

	"go.uber.org/zap"

	"github.com/pxharvest/pxharvest/archive"
	"github.com/pxharvest/pxharvest/logger"
	"github.com/pxharvest/pxharvest/px"
	"github.com/pxharvest/pxharvest/registry"
)

// Order selects which counting strategy runs first when both the registry
// document and the hosting archive could answer.
type Order string

const (
	// OrderEmbeddedFirst prefers the file list already embedded in the
	// registry document, skipping the archive round-trip when it answers.
	OrderEmbeddedFirst Order = "embedded-first"
	// OrderArchiveFirst asks the hosting archive before trusting the
	// embedded list; archives are fresher but slower.
	OrderArchiveFirst Order = "archive-first"
)

// IsValidOrder reports whether s names a known fallback order.
func IsValidOrder(s string) bool {
	switch Order(s) {
	case OrderEmbeddedFirst, OrderArchiveFirst:
		return true
	default:
		return false
	}
}

// Resolver answers registry lookups. Satisfied by *registry.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, acc px.Accession) (registry.Resolution, error)
}

// AdapterSet maps repositories to counting adapters. Satisfied by
// *archive.Adapters.
type AdapterSet interface {
	ForRepository(repo px.Repository) (archive.Adapter, bool)
}

// Config wires a Reconciler together.
type Config struct {
	Resolver Resolver
	Adapters AdapterSet
	// Fallback defaults to a fresh document-scan strategy when nil.
	Fallback *archive.XMLFallback
	// Order defaults to OrderEmbeddedFirst when empty or unknown.
	Order  Order
	Logger *zap.SugaredLogger
}

// Reconciler produces exactly one Result per accession, however little the
// registry and archives turn out to know about it.
type Reconciler struct {
	resolver Resolver
	adapters AdapterSet
	fallback *archive.XMLFallback
	order    Order
	logger   *zap.SugaredLogger
}

// New builds a Reconciler.
func New(config Config) *Reconciler {
	log := config.Logger
	if log == nil {
		log = logger.Logger
	}
	fallback := config.Fallback
	if fallback == nil {
		fallback = archive.NewXMLFallback(log)
	}
	order := config.Order
	if !IsValidOrder(string(order)) {
		order = OrderEmbeddedFirst
	}
	return &Reconciler{
		resolver: config.Resolver,
		adapters: config.Adapters,
		fallback: fallback,
		order:    order,
		logger:   log,
	}
}

// stageFunc is one link of the fallback chain. A nil error with an
// unresolved Outcome means "I have no answer, ask the next stage"; an error
// means the stage broke and the chain should likewise move on.
type stageFunc func(ctx context.Context, res registry.Resolution) (archive.Outcome, px.Source, error)

func (r *Reconciler) stages() []stageFunc {
	shortcut := func(_ context.Context, res registry.Resolution) (archive.Outcome, px.Source, error) {
		return r.fallback.Shortcut(res.Document), px.SourceEmbedded, nil
	}
	adapter := func(ctx context.Context, res registry.Resolution) (archive.Outcome, px.Source, error) {
		a, ok := r.adapters.ForRepository(res.Repository)
		if !ok {
			return archive.Outcome{}, px.SourceNone, nil
		}
		out, err := a.CountFiles(ctx, res.Accession, res.CrossRefs)
		return out, a.Source(), err
	}
	scan := func(_ context.Context, res registry.Resolution) (archive.Outcome, px.Source, error) {
		return r.fallback.FullScan(res.Document), px.SourceXMLScan, nil
	}

	if r.order == OrderArchiveFirst {
		return []stageFunc{adapter, shortcut, scan}
	}
	return []stageFunc{shortcut, adapter, scan}
}

// Reconcile resolves one accession and walks the fallback chain until some
// stage produces an answer.
//
// The only failure it reports is a registry resolution failure; everything
// after that degrades instead. A stage that errors or has no answer just
// passes the baton, and a dataset nothing can account for comes back as a
// successful zero-count result with Source "none".
func (r *Reconciler) Reconcile(ctx context.Context, acc px.Accession) px.Result {
	result := px.Result{
		Accession:  acc,
		Repository: px.RepositoryUnknown,
		Source:     px.SourceNone,
		Success:    true,
	}

	res, err := r.resolver.Resolve(ctx, acc)
	result.Repository = res.Repository
	result.DeclaredRepository = res.DeclaredRepository
	result.Metadata = res.Metadata
	if err != nil {
		result.Success = false
		result.Err = err.Error()
		r.logger.Warnw("resolution failed",
			"accession", acc,
			"error", err)
		return result
	}

	for _, stage := range r.stages() {
		out, source, err := stage(ctx, res)
		if err != nil {
			r.logger.Warnw("counting stage failed, trying next",
				"accession", acc,
				"source", source,
				"error", err)
			continue
		}
		if !out.Resolved {
			continue
		}
		result.RawFileCount = out.Count
		result.TotalSizeBytes = out.TotalSize
		result.Source = source
		r.logger.Infow("reconciled",
			"accession", acc,
			"repository", result.RepositoryName(),
			"raw_files", out.Count,
			"source", source)
		return result
	}

	// Nothing could account for the dataset. Still a result, not a failure.
	r.logger.Infow("no file listing found anywhere",
		"accession", acc,
		"repository", result.RepositoryName())
	return result
}
