package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/pxharvest/pxharvest/config"
	"github.com/pxharvest/pxharvest/discovery"
	"github.com/pxharvest/pxharvest/export"
	"github.com/pxharvest/pxharvest/logger"
	"github.com/pxharvest/pxharvest/px"
	"github.com/pxharvest/pxharvest/store"
)

// ScanCmd represents the scan command
var ScanCmd = &cobra.Command{
	Use:   "scan <keyword>...",
	Short: "Search ProteomeCentral and reconcile every matching dataset",
	Long: `Search the ProteomeCentral dataset browser for one or more keywords and
reconcile the raw instrument-file count of every dataset they return.

The search UI renders results client-side, so discovery drives a headless
browser through the result pages. Every discovered accession is then resolved
through the registry and counted, the results are journaled as one run per
keyword, and the runs are exported to a spreadsheet. Several keywords produce
one worksheet each.

Examples:
  pxharvest scan "human liver"                  # Scan and export matching datasets
  pxharvest scan liver kidney plasma            # One worksheet per keyword
  pxharvest scan cancer --pages 10 --workers 8  # Wider search, more concurrency
  pxharvest scan cancer --dry-run               # List matches without reconciling
  pxharvest scan cancer --resume <run-id>       # Finish an interrupted scan`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

var (
	scanPages    int
	scanWorkers  int
	scanResume   string
	scanOutput   string
	scanCSV      bool
	scanAppend   bool
	scanNoExport bool
)

func init() {
	ScanCmd.Flags().IntVar(&scanPages, "pages", 0, "Result pages to walk (default: discovery.page_limit from config)")
	ScanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Concurrent datasets (default: batch.workers from config)")
	ScanCmd.Flags().StringVar(&scanResume, "resume", "", "Resume a run, skipping datasets it already counted")
	ScanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Workbook filename (default: proteomexchange_data.xlsx)")
	ScanCmd.Flags().BoolVar(&scanCSV, "csv", false, "Also write a CSV next to the workbook")
	ScanCmd.Flags().BoolVar(&scanAppend, "append", false, "Append rows to an existing workbook instead of replacing it")
	ScanCmd.Flags().BoolVar(&scanNoExport, "no-export", false, "Journal results without writing a spreadsheet")
	ScanCmd.Flags().Bool("dry-run", false, "List discovered datasets without reconciling them")
}

// keywordRun pairs a search keyword with the journaled run it produced.
type keywordRun struct {
	keyword string
	run     *store.Run
}

func runScan(cmd *cobra.Command, args []string) error {
	keywords := args
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if scanResume != "" && len(keywords) > 1 {
		return fmt.Errorf("--resume works with a single keyword")
	}
	if scanAppend && len(keywords) > 1 {
		return fmt.Errorf("--append works with a single keyword; several keywords already get a worksheet each")
	}

	pterm.DefaultHeader.WithFullWidth().Printf("ProteomeXchange Scan - Raw File Reconciliation")
	pterm.Println()

	if dryRun {
		pterm.Warning.Println("DRY RUN MODE: Datasets will be listed but not reconciled")
		pterm.Println()
	}

	for _, keyword := range keywords {
		pterm.Info.Printf("Search keyword: %s", keyword)
	}
	if scanResume != "" {
		pterm.Info.Printf("Resuming run: %s", scanResume)
	}
	pterm.Println()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := batchContext()
	defer cancel()

	if dryRun {
		return listDiscovered(ctx, cfg, keywords)
	}

	db, err := openJournal("")
	if err != nil {
		return err
	}
	defer db.Close()

	st := store.NewStore(db)

	workers := scanWorkers
	if workers == 0 {
		workers = cfg.Batch.Workers
	}
	rec := newReconciler(cfg)

	startTime := time.Now()
	var runs []keywordRun

	for _, keyword := range keywords {
		if ctx.Err() != nil {
			break
		}

		accessions, err := discoverDatasets(ctx, cfg, keyword)
		if err != nil {
			return err
		}
		if len(accessions) == 0 {
			pterm.Warning.Printf("No datasets matched %q\n", keyword)
			continue
		}

		var run *store.Run
		if scanResume != "" {
			run, err = st.GetRun(scanResume)
			if err != nil {
				return fmt.Errorf("failed to load run %s: %w", scanResume, err)
			}
			done, err := st.CompletedAccessions(run.ID)
			if err != nil {
				return fmt.Errorf("failed to load completed accessions: %w", err)
			}
			accessions = skipCompleted(accessions, done)
			if len(accessions) == 0 {
				pterm.Info.Printf("Run %s already covers every discovered dataset\n", run.ID)
				return exportScan(cfg, st, []keywordRun{{keyword: keyword, run: run}})
			}
			pterm.Info.Printf("%d dataset(s) left to reconcile\n", len(accessions))
		} else {
			run = store.NewRun(fmt.Sprintf("scan %q", keyword))
			if err := st.CreateRun(run); err != nil {
				return fmt.Errorf("failed to create run: %w", err)
			}
		}

		executeBatch(ctx, st, rec, run.ID, accessions, workers)

		finished, err := finishRun(st, run.ID)
		if err != nil {
			return err
		}
		runs = append(runs, keywordRun{keyword: keyword, run: finished})
	}

	if len(runs) == 0 {
		return nil
	}

	total, succeeded, failed := 0, 0, 0
	for _, kr := range runs {
		total += kr.run.Total
		succeeded += kr.run.Succeeded
		failed += kr.run.Failed
	}

	pterm.Println()
	pterm.Success.Printf("Scan completed!")
	pterm.Println()

	pterm.Info.Printf("Statistics:")
	pterm.Printf("  Datasets reconciled: %d", total)
	pterm.Printf("  Succeeded: %d", succeeded)
	pterm.Printf("  Failed: %d", failed)
	pterm.Printf("  Processing time: %s", time.Since(startTime).Round(time.Millisecond))
	for _, kr := range runs {
		if len(runs) == 1 {
			pterm.Printf("  Run ID: %s", kr.run.ID)
		} else {
			pterm.Printf("  Run ID: %s (%s)", kr.run.ID, kr.keyword)
		}
	}
	pterm.Println()

	if err := exportScan(cfg, st, runs); err != nil {
		return err
	}

	for _, kr := range runs {
		if kr.run.Failed > 0 {
			pterm.Info.Printf("Retry failures with 'pxharvest scan %q --resume %s'", kr.keyword, kr.run.ID)
		}
	}

	return nil
}

// listDiscovered walks the search results for every keyword and prints what a
// real scan would reconcile.
func listDiscovered(ctx context.Context, cfg *config.Config, keywords []string) error {
	for _, keyword := range keywords {
		accessions, err := discoverDatasets(ctx, cfg, keyword)
		if err != nil {
			return err
		}
		if len(accessions) == 0 {
			pterm.Warning.Printf("No datasets matched %q\n", keyword)
			continue
		}
		for _, acc := range accessions {
			fmt.Printf("  %-14s %s\n", acc, px.DatasetURL(acc))
		}
	}
	pterm.Println()
	pterm.Info.Println("Use 'pxharvest scan' without --dry-run to reconcile these datasets")
	return nil
}

// discoverDatasets walks the search result pages under the configured session
// budget and returns the accessions found, with a spinner for company.
func discoverDatasets(ctx context.Context, cfg *config.Config, keyword string) ([]px.Accession, error) {
	pageLimit := scanPages
	if pageLimit == 0 {
		pageLimit = cfg.Discovery.PageLimit
	}

	d := discovery.NewDiscoverer(discovery.Config{
		Headless:  cfg.Discovery.Headless,
		PageLimit: pageLimit,
		Logger:    logger.Logger,
	})

	spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Searching datasets for %q...", keyword))

	dctx, dcancel := context.WithTimeout(ctx, cfg.Discovery.Timeout())
	defer dcancel()

	accessions, err := d.Discover(dctx, keyword)
	if err != nil && len(accessions) == 0 {
		if spinner != nil {
			spinner.Fail(fmt.Sprintf("Search failed: %v", err))
		}
		return nil, fmt.Errorf("failed to discover datasets: %w", err)
	}

	if spinner != nil {
		if err != nil {
			spinner.Warning(fmt.Sprintf("Search ended early (%v), continuing with %d dataset(s)", err, len(accessions)))
		} else {
			spinner.Success(fmt.Sprintf("Found %d dataset(s)", len(accessions)))
		}
	}

	return accessions, nil
}

// exportScan writes the journaled results to the workbook, one worksheet per
// keyword when several were scanned, plus a CSV sibling when asked for. The
// CSV has no worksheets, so it gets every keyword's rows in one flat file.
func exportScan(cfg *config.Config, st *store.Store, runs []keywordRun) error {
	if scanNoExport {
		return nil
	}

	if len(runs) == 1 {
		if err := exportRun(cfg, st, runs[0].run.ID, defaultFilename(scanOutput, "xlsx"), scanAppend); err != nil {
			return err
		}
		if scanCSV {
			if err := exportRun(cfg, st, runs[0].run.ID, defaultFilename(scanOutput, "csv"), false); err != nil {
				return err
			}
		}
		return nil
	}

	writer := export.NewWriter(cfg.GetOutputDir(), logger.Logger)

	sheets := make([]export.Sheet, 0, len(runs))
	total := 0
	for _, kr := range runs {
		stored, err := st.Results(kr.run.ID)
		if err != nil {
			return fmt.Errorf("failed to load results for run %s: %w", kr.run.ID, err)
		}
		sheets = append(sheets, export.Sheet{Name: kr.keyword, Results: stored})
		total += len(stored)
	}

	path, err := writer.WriteSheets(defaultFilename(scanOutput, "xlsx"), sheets)
	if err != nil {
		return fmt.Errorf("failed to export scan: %w", err)
	}
	pterm.Success.Printf("Exported %d dataset(s) across %d worksheet(s) to %s\n", total, len(sheets), path)

	if scanCSV {
		var all []px.Result
		for _, sheet := range sheets {
			all = append(all, sheet.Results...)
		}
		csvPath, err := writer.WriteCSV(defaultFilename(scanOutput, "csv"), all)
		if err != nil {
			return fmt.Errorf("failed to export scan: %w", err)
		}
		pterm.Success.Printf("Exported %d dataset(s) to %s\n", len(all), csvPath)
	}

	return nil
}
