package commands

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"golang.org/x/time/rate"

	"github.com/pxharvest/pxharvest/archive"
	"github.com/pxharvest/pxharvest/config"
	"github.com/pxharvest/pxharvest/errors"
	"github.com/pxharvest/pxharvest/internal/httpclient"
	"github.com/pxharvest/pxharvest/logger"
	"github.com/pxharvest/pxharvest/px"
	"github.com/pxharvest/pxharvest/reconcile"
	"github.com/pxharvest/pxharvest/registry"
	"github.com/pxharvest/pxharvest/store"
	"github.com/pxharvest/pxharvest/version"
)

// openJournal opens and migrates the results journal using the specified path.
// If dbPath is empty, it loads from config. Uses logger.Logger for db operations.
func openJournal(dbPath string) (*sql.DB, error) {
	// Determine journal path
	if dbPath == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load config")
		}
		dbPath = cfg.GetJournalPath()
	}

	// Open journal with logger
	db, err := store.Open(dbPath, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open journal at %s", dbPath)
	}

	// Run migrations with logger
	if err := store.Migrate(db, logger.Logger); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to run migrations on %s", dbPath)
	}

	return db, nil
}

// newReconciler wires the registry resolver, the per-repository archive
// adapters and the fallback policy from loaded configuration.
func newReconciler(cfg *config.Config) *reconcile.Reconciler {
	limit := rate.Limit(cfg.Fetch.RequestsPerSecond)
	if cfg.Fetch.RequestsPerSecond == 0 {
		limit = rate.Inf
	}

	client := httpclient.New(httpclient.Config{
		Timeout:    cfg.Fetch.Timeout(),
		MaxRetries: cfg.Fetch.MaxRetries,
		RateLimit:  limit,
		UserAgent:  cfg.Fetch.UserAgent,
		Logger:     logger.Logger,
	})

	resolver := registry.NewResolver(registry.Config{
		BaseURL: cfg.Endpoints.Registry,
		Client:  client,
		Logger:  logger.Logger,
	})

	adapters := archive.New(archive.Config{
		Client:         client,
		Logger:         logger.Logger,
		PRIDEBaseURL:   cfg.Endpoints.PRIDE,
		MassIVEBaseURL: cfg.Endpoints.MassIVE,
		JPOSTBaseURL:   cfg.Endpoints.JPOST,
		IProXBaseURL:   cfg.Endpoints.IProX,
	})

	return reconcile.New(reconcile.Config{
		Resolver: resolver,
		Adapters: adapters,
		Order:    reconcile.Order(cfg.Batch.FallbackOrder),
		Logger:   logger.Logger,
	})
}

// batchContext derives a context that is cancelled on SIGINT/SIGTERM so an
// interrupted batch finishes its in-flight datasets and keeps the journal
// consistent instead of dying mid-write.
func batchContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		pterm.Warning.Println("Interrupted, finishing in-flight datasets...")
		cancel()
	}()

	return ctx, cancel
}

// executeBatch reconciles accessions under a journaled run, streaming
// progress to the terminal and appending every result as it lands.
func executeBatch(ctx context.Context, st *store.Store, rec *reconcile.Reconciler, runID string, accessions []px.Accession, workers int) []px.Result {
	versionInfo := version.Get()
	logger.Debugw("starting reconciliation batch",
		"run_id", runID,
		"datasets", len(accessions),
		"workers", workers,
		"version", versionInfo.Short())

	progress, _ := pterm.DefaultProgressbar.WithTotal(len(accessions)).WithTitle("Reconciling").Start()

	results := rec.RunBatch(ctx, accessions, workers, func(res px.Result) {
		if err := st.AppendResult(runID, res); err != nil {
			logger.Warnw("failed to journal result",
				"run_id", runID,
				"accession", res.Accession,
				"error", err)
		}
		if progress != nil {
			progress.Increment()
		}
	})

	if progress != nil {
		_, _ = progress.Stop()
	}
	return results
}

// finishRun recomputes the run's tallies from everything journaled under it,
// which keeps resumed runs accurate across invocations.
func finishRun(st *store.Store, runID string) (*store.Run, error) {
	stored, err := st.Results(runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load journaled results")
	}

	succeeded, failed := reconcile.Summarize(stored)
	if err := st.FinishRun(runID, len(stored), succeeded, failed); err != nil {
		return nil, errors.Wrap(err, "failed to finish run")
	}

	return st.GetRun(runID)
}

// truncate shortens a string to maxLen characters with ellipsis
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
