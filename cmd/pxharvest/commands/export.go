package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/pxharvest/pxharvest/config"
	"github.com/pxharvest/pxharvest/export"
	"github.com/pxharvest/pxharvest/logger"
	"github.com/pxharvest/pxharvest/store"
)

// ExportCmd represents the export command
var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a journaled run to a spreadsheet",
	Long: `Export the results of a journaled run to an Excel workbook or CSV file.

Without --run the most recent run is exported.

Examples:
  pxharvest export                                 # Latest run as XLSX
  pxharvest export --run <run-id>                  # Specific run
  pxharvest export --format csv                    # CSV instead of XLSX
  pxharvest export --output cancer_datasets.xlsx   # Custom filename
  pxharvest export --run <run-id> --append         # Add rows to an existing workbook`,
	RunE: runExport,
}

var (
	exportRunID  string
	exportFormat string
	exportOutput string
	exportAppend bool
)

func init() {
	ExportCmd.Flags().StringVar(&exportRunID, "run", "", "Run ID to export (default: latest)")
	ExportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "Output format: xlsx, csv")
	ExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output filename (default: proteomexchange_data.<format>)")
	ExportCmd.Flags().BoolVar(&exportAppend, "append", false, "Append rows to an existing workbook instead of replacing it")
}

func runExport(cmd *cobra.Command, args []string) error {
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

	runID := exportRunID
	if runID == "" {
		run, err := st.LatestRun()
		if err != nil {
			return fmt.Errorf("failed to find latest run: %w", err)
		}
		runID = run.ID
	}

	results, err := st.Results(runID)
	if err != nil {
		return fmt.Errorf("failed to load results for run %s: %w", runID, err)
	}
	if len(results) == 0 {
		pterm.Warning.Printf("Run %s has no results to export\n", runID)
		return nil
	}

	writer := export.NewWriter(cfg.GetOutputDir(), logger.Logger)

	var path string
	switch exportFormat {
	case "xlsx":
		if exportAppend {
			path, err = writer.AppendXLSX(defaultFilename(exportOutput, "xlsx"), results)
		} else {
			path, err = writer.WriteXLSX(defaultFilename(exportOutput, "xlsx"), results)
		}
	case "csv":
		if exportAppend {
			return fmt.Errorf("--append requires --format xlsx")
		}
		path, err = writer.WriteCSV(defaultFilename(exportOutput, "csv"), results)
	default:
		return fmt.Errorf("unsupported format: %s (supported: xlsx, csv)", exportFormat)
	}
	if err != nil {
		return fmt.Errorf("failed to export run %s: %w", runID, err)
	}

	verb := "Exported"
	if exportAppend {
		verb = "Appended"
	}
	pterm.Success.Printf("%s %d dataset(s) from run %s to %s\n", verb, len(results), runID, path)
	return nil
}

// defaultFilename falls back to the conventional workbook name and fixes the
// extension to match the requested format.
func defaultFilename(name, format string) string {
	if name == "" {
		name = "proteomexchange_data"
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return name + "." + format
}
