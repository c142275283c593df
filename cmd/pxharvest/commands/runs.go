package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pxharvest/pxharvest/px"
	"github.com/pxharvest/pxharvest/store"
)

// RunsCmd represents the runs command
var RunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List reconciliation runs recorded in the journal",
	Long: `List reconciliation runs recorded in the journal.

Every scan and count invocation is journaled as a run together with its
per-dataset results, so interrupted batches can be resumed and finished
batches re-exported.

Examples:
  pxharvest runs                 # List recent runs
  pxharvest runs --limit 50      # List more runs
  pxharvest runs show <run-id>   # Show one run with its results`,
	RunE: runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run and its per-dataset results",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsLimit int

func init() {
	RunsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")

	RunsCmd.AddCommand(runsShowCmd)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	db, err := openJournal("")
	if err != nil {
		return err
	}
	defer db.Close()

	st := store.NewStore(db)
	runs, err := st.ListRuns(runsLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	fmt.Printf("%-38s %-17s %-17s %6s %6s %7s %s\n", "RUN ID", "STARTED", "FINISHED", "TOTAL", "OK", "FAILED", "NOTES")
	fmt.Printf("%-38s %-17s %-17s %6s %6s %7s %s\n", "------", "-------", "--------", "-----", "--", "------", "-----")

	for _, run := range runs {
		finished := "running"
		if run.FinishedAt != nil {
			finished = run.FinishedAt.Format("2006-01-02 15:04")
		}

		fmt.Printf("%-38s %-17s %-17s %6d %6d %7d %s\n",
			run.ID,
			run.StartedAt.Format("2006-01-02 15:04"),
			finished,
			run.Total,
			run.Succeeded,
			run.Failed,
			truncate(run.Notes, 30))
	}

	fmt.Printf("\nTotal: %d run(s)\n", len(runs))
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	runID := args[0]

	db, err := openJournal("")
	if err != nil {
		return err
	}
	defer db.Close()

	st := store.NewStore(db)
	run, err := st.GetRun(runID)
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	fmt.Printf("Run ID: %s\n", run.ID)
	if run.Notes != "" {
		fmt.Printf("  Notes: %s\n", run.Notes)
	}
	fmt.Printf("  Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.FinishedAt != nil {
		fmt.Printf("  Finished: %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("  Datasets: %d total, %d succeeded, %d failed\n", run.Total, run.Succeeded, run.Failed)

	results, err := st.Results(runID)
	if err != nil {
		return fmt.Errorf("failed to load results for run %s: %w", runID, err)
	}
	if len(results) == 0 {
		return nil
	}

	fmt.Printf("\n")
	printResults(results)
	return nil
}

// printResults renders per-dataset outcomes as a fixed-width table.
func printResults(results []px.Result) {
	fmt.Printf("%-14s %-14s %9s %10s %-10s %s\n", "ACCESSION", "REPOSITORY", "RAW FILES", "SIZE (GB)", "SOURCE", "STATUS")
	fmt.Printf("%-14s %-14s %9s %10s %-10s %s\n", "---------", "----------", "---------", "---------", "------", "------")

	for _, res := range results {
		status := "ok"
		if !res.Success {
			status = "failed: " + truncate(res.Err, 40)
		}

		fmt.Printf("%-14s %-14s %9d %10.2f %-10s %s\n",
			res.Accession,
			res.RepositoryName(),
			res.RawFileCount,
			res.TotalSizeGB(),
			res.Source,
			status)
	}
}
