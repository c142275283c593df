package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pxharvest/pxharvest/cmd/pxharvest/commands"
	"github.com/pxharvest/pxharvest/logger"
)

var rootCmd = &cobra.Command{
	Use:   "pxharvest",
	Short: "pxharvest - ProteomeXchange raw-file inventory",
	Long: `pxharvest - Raw instrument-file inventory for ProteomeXchange datasets.

pxharvest discovers proteomics datasets on ProteomeCentral, resolves each
accession through the ProteomeXchange registry, counts the raw instrument
files held by the hosting repository (PRIDE, MassIVE, jPOST, iProX), and
exports the reconciled inventory to spreadsheets.

Available commands:
  scan    - Search ProteomeCentral and reconcile every matching dataset
  count   - Reconcile raw-file counts for known accessions
  export  - Export a journaled run to a spreadsheet
  runs    - List reconciliation runs recorded in the journal
  config  - Manage pxharvest configuration
  version - Show version information

Examples:
  pxharvest scan "human liver"        # Search, reconcile and export
  pxharvest count PXD000001           # Count one known dataset
  pxharvest runs                      # List recorded runs
  pxharvest export --format csv       # Re-export the latest run as CSV
  pxharvest config show               # Show current configuration`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize global logger before any command runs
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if err := logger.InitializeWithVerbosity(jsonOutput, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Structured JSON log output")

	// Add commands
	rootCmd.AddCommand(commands.ScanCmd)
	rootCmd.AddCommand(commands.CountCmd)
	rootCmd.AddCommand(commands.ExportCmd)
	rootCmd.AddCommand(commands.RunsCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
