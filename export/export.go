// Package export serializes reconciliation results to the spreadsheet and
// CSV shapes the inventory workflows consume. Both writers share one flat
// column order so a CSV and an XLSX of the same run line up cell for cell.
package export

import (
	"math"
	"strconv"
	"strings"

	"github.com/pxharvest/pxharvest/px"
)

// SheetName is the worksheet reconciliation runs land on.
const SheetName = "ProteomeXchange Datasets"

// Columns is the logical column order, shared by every writer.
var Columns = []string{
	"Accession",
	"Title",
	"Lab Head",
	"Repository",
	"Instruments",
	"Keywords",
	"Raw File Count",
	"Total Size (GB)",
	"Success",
	"Error",
	"Dataset URL",
}

// listSeparator joins multi-valued metadata into one cell. Semicolons keep
// the CSV rendition untouched by instrument names containing commas.
const listSeparator = "; "

// cellValues returns one result as typed spreadsheet cells, in column order.
func cellValues(r px.Result) []interface{} {
	return []interface{}{
		string(r.Accession),
		r.Metadata.Title,
		r.Metadata.LabHead,
		r.RepositoryName(),
		strings.Join(r.Metadata.Instruments, listSeparator),
		strings.Join(r.Metadata.Keywords, listSeparator),
		r.RawFileCount,
		roundGB(r.TotalSizeGB()),
		r.Success,
		r.Err,
		px.DatasetURL(r.Accession),
	}
}

// stringValues returns the same row as strings, for CSV output and for
// column-width measurement.
func stringValues(r px.Result) []string {
	return []string{
		string(r.Accession),
		r.Metadata.Title,
		r.Metadata.LabHead,
		r.RepositoryName(),
		strings.Join(r.Metadata.Instruments, listSeparator),
		strings.Join(r.Metadata.Keywords, listSeparator),
		strconv.Itoa(r.RawFileCount),
		strconv.FormatFloat(roundGB(r.TotalSizeGB()), 'f', 2, 64),
		strconv.FormatBool(r.Success),
		r.Err,
		px.DatasetURL(r.Accession),
	}
}

// roundGB trims sizes to the two decimals the inventories report.
func roundGB(gb float64) float64 {
	return math.Round(gb*100) / 100
}

// displayWidth measures text the way it renders in a spreadsheet column:
// runes outside ASCII (CJK in practice) take two cells.
func displayWidth(text string) int {
	width := 0
	for _, r := range text {
		if r > 127 {
			width += 2
		} else {
			width++
		}
	}
	return width
}

// columnWidth clamps a content width into something readable.
func columnWidth(maxContent int) float64 {
	width := maxContent + 2
	if width < 10 {
		width = 10
	}
	if width > 50 {
		width = 50
	}
	return float64(width)
}
