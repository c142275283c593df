package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/pxharvest/pxharvest/config"
	"github.com/pxharvest/pxharvest/export"
	"github.com/pxharvest/pxharvest/logger"
	"github.com/pxharvest/pxharvest/px"
	"github.com/pxharvest/pxharvest/store"
)

// CountCmd represents the count command
var CountCmd = &cobra.Command{
	Use:   "count <accession>...",
	Short: "Reconcile raw-file counts for known accessions",
	Long: `Reconcile raw instrument-file counts for a known set of ProteomeXchange
accessions.

Each accession is resolved through the ProteomeXchange registry, then counted
against the hosting repository's file API where one exists, falling back to
the file links embedded in the registry document. Results are journaled as a
run that can be re-exported or resumed later.

Examples:
  pxharvest count PXD000001
  pxharvest count PXD000001 PXD000002 --workers 8
  pxharvest count --input accessions.txt
  pxharvest count --input accessions.txt --output counts.xlsx
  pxharvest count --input accessions.txt --resume <run-id>`,
	Args: cobra.ArbitraryArgs,
	RunE: runCount,
}

var (
	countInput   string
	countWorkers int
	countResume  string
	countOutput  string
	countAppend  bool
)

func init() {
	CountCmd.Flags().StringVarP(&countInput, "input", "i", "", "File with one accession per line (# comments allowed)")
	CountCmd.Flags().IntVar(&countWorkers, "workers", 0, "Concurrent datasets (default: batch.workers from config)")
	CountCmd.Flags().StringVar(&countResume, "resume", "", "Resume a run, skipping accessions it already counted")
	CountCmd.Flags().StringVarP(&countOutput, "output", "o", "", "Also export the run to this file (.xlsx or .csv)")
	CountCmd.Flags().BoolVar(&countAppend, "append", false, "Append rows to an existing workbook instead of replacing it")
}

func runCount(cmd *cobra.Command, args []string) error {
	accessions := make([]px.Accession, 0, len(args))
	for _, arg := range args {
		accessions = append(accessions, px.Accession(strings.TrimSpace(arg)))
	}

	if countInput != "" {
		fromFile, err := readAccessionsFile(countInput)
		if err != nil {
			return err
		}
		accessions = append(accessions, fromFile...)
	}

	accessions = dedupeAccessions(accessions)
	if len(accessions) == 0 {
		return fmt.Errorf("no accessions given (pass them as arguments or via --input)")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := openJournal("")
	if err != nil {
		return err
	}
	defer db.Close()

	st := store.NewStore(db)

	runID := countResume
	if runID != "" {
		if _, err := st.GetRun(runID); err != nil {
			return fmt.Errorf("failed to load run %s: %w", runID, err)
		}
		done, err := st.CompletedAccessions(runID)
		if err != nil {
			return fmt.Errorf("failed to load completed accessions: %w", err)
		}
		accessions = skipCompleted(accessions, done)
		if len(accessions) == 0 {
			pterm.Info.Printf("Run %s already covers every accession\n", runID)
			return nil
		}
		pterm.Info.Printf("Resuming run %s: %d accession(s) left\n", runID, len(accessions))
	} else {
		run := store.NewRun(fmt.Sprintf("count %d accession(s)", len(accessions)))
		if err := st.CreateRun(run); err != nil {
			return fmt.Errorf("failed to create run: %w", err)
		}
		runID = run.ID
	}

	workers := countWorkers
	if workers == 0 {
		workers = cfg.Batch.Workers
	}

	rec := newReconciler(cfg)
	ctx, cancel := batchContext()
	defer cancel()

	results := executeBatch(ctx, st, rec, runID, accessions, workers)

	run, err := finishRun(st, runID)
	if err != nil {
		return err
	}

	fmt.Printf("\n")
	printResults(results)
	fmt.Printf("\n")

	if run.Failed > 0 {
		pterm.Warning.Printf("Counted %d dataset(s), %d failed (run %s)\n", run.Total, run.Failed, run.ID)
	} else {
		pterm.Success.Printf("Counted %d dataset(s) (run %s)\n", run.Total, run.ID)
	}

	if countOutput != "" {
		if err := exportRun(cfg, st, run.ID, countOutput, countAppend); err != nil {
			return err
		}
	}

	return nil
}

// readAccessionsFile reads one accession per line, skipping blank lines and
// #-comments.
func readAccessionsFile(path string) ([]px.Accession, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	var accessions []px.Accession
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		accessions = append(accessions, px.Accession(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	return accessions, nil
}

// dedupeAccessions drops duplicates while preserving first-seen order.
func dedupeAccessions(accessions []px.Accession) []px.Accession {
	seen := make(map[px.Accession]bool, len(accessions))
	deduped := accessions[:0]
	for _, acc := range accessions {
		if acc == "" || seen[acc] {
			continue
		}
		seen[acc] = true
		deduped = append(deduped, acc)
	}
	return deduped
}

// skipCompleted filters out accessions a resumed run already counted
// successfully. Failed ones stay in, so a resume retries them.
func skipCompleted(accessions []px.Accession, done map[px.Accession]bool) []px.Accession {
	pending := accessions[:0]
	for _, acc := range accessions {
		if done[acc] {
			continue
		}
		pending = append(pending, acc)
	}
	return pending
}

// exportRun writes everything journaled under a run to the given file, with
// the format picked by extension. Appending only works for workbooks; a CSV
// cannot grow without repeating its header.
func exportRun(cfg *config.Config, st *store.Store, runID, filename string, appendRows bool) error {
	stored, err := st.Results(runID)
	if err != nil {
		return fmt.Errorf("failed to load results for run %s: %w", runID, err)
	}

	writer := export.NewWriter(cfg.GetOutputDir(), logger.Logger)

	var path string
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		if appendRows {
			return fmt.Errorf("--append only supports .xlsx output")
		}
		path, err = writer.WriteCSV(filename, stored)
	case appendRows:
		path, err = writer.AppendXLSX(filename, stored)
	default:
		path, err = writer.WriteXLSX(filename, stored)
	}
	if err != nil {
		return fmt.Errorf("failed to export run %s: %w", runID, err)
	}

	verb := "Exported"
	if appendRows {
		verb = "Appended"
	}
	pterm.Success.Printf("%s %d dataset(s) to %s\n", verb, len(stored), path)
	return nil
}
