package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/pxharvest/pxharvest/errors"
	"github.com/pxharvest/pxharvest/logger"
	"github.com/pxharvest/pxharvest/px"
)

// Writer lands exports in one output directory, creating it on first use.
type Writer struct {
	dir    string
	logger *zap.SugaredLogger
}

// NewWriter creates a Writer rooted at dir ("data" when empty).
func NewWriter(dir string, log *zap.SugaredLogger) *Writer {
	if dir == "" {
		dir = "data"
	}
	if log == nil {
		log = logger.Logger
	}
	return &Writer{dir: dir, logger: log}
}

// Sheet groups results under one worksheet name, for keyword-per-sheet
// workbooks.
type Sheet struct {
	Name    string
	Results []px.Result
}

func (w *Writer) target(filename string) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create output directory %s", w.dir)
	}
	return filepath.Join(w.dir, filename), nil
}

// WriteXLSX writes results to a fresh styled workbook and returns its path.
func (w *Writer) WriteXLSX(filename string, results []px.Result) (string, error) {
	path, err := w.target(filename)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return "", errors.Wrap(err, "failed to name worksheet")
	}
	if err := writeSheet(f, SheetName, results); err != nil {
		return "", err
	}
	if err := f.SaveAs(path); err != nil {
		return "", errors.Wrapf(err, "failed to save workbook %s", path)
	}

	w.logger.Infow("wrote spreadsheet",
		"path", path,
		"rows", len(results))
	return path, nil
}

// WriteSheets writes one worksheet per entry, in order. Empty names fall
// back to the default sheet name.
func (w *Writer) WriteSheets(filename string, sheets []Sheet) (string, error) {
	if len(sheets) == 0 {
		return w.WriteXLSX(filename, nil)
	}

	path, err := w.target(filename)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	total := 0
	for i, sheet := range sheets {
		name := sheet.Name
		if name == "" {
			name = SheetName
		}
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return "", errors.Wrapf(err, "failed to name worksheet %s", name)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return "", errors.Wrapf(err, "failed to add worksheet %s", name)
			}
		}
		if err := writeSheet(f, name, sheet.Results); err != nil {
			return "", err
		}
		total += len(sheet.Results)
	}

	if err := f.SaveAs(path); err != nil {
		return "", errors.Wrapf(err, "failed to save workbook %s", path)
	}

	w.logger.Infow("wrote spreadsheet",
		"path", path,
		"sheets", len(sheets),
		"rows", total)
	return path, nil
}

// AppendXLSX adds results to an existing workbook, creating it when absent.
func (w *Writer) AppendXLSX(filename string, results []px.Result) (string, error) {
	path, err := w.target(filename)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return w.WriteXLSX(filename, results)
		}
		return "", errors.Wrapf(err, "failed to stat %s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open workbook %s", path)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(SheetName)
	if err != nil {
		return "", errors.Wrap(err, "failed to look up worksheet")
	}
	if idx < 0 {
		if _, err := f.NewSheet(SheetName); err != nil {
			return "", errors.Wrap(err, "failed to add worksheet")
		}
		if err := writeSheet(f, SheetName, results); err != nil {
			return "", err
		}
	} else if err := appendRows(f, SheetName, results); err != nil {
		return "", err
	}

	if err := f.SaveAs(path); err != nil {
		return "", errors.Wrapf(err, "failed to save workbook %s", path)
	}

	w.logger.Infow("appended to spreadsheet",
		"path", path,
		"rows", len(results))
	return path, nil
}

// writeSheet fills a worksheet from scratch: header, rows, styling, column
// widths, frozen header row.
func writeSheet(f *excelize.File, sheet string, results []px.Result) error {
	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "failed to write header row")
	}
	for i, r := range results {
		cells := cellValues(r)
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &cells); err != nil {
			return errors.Wrapf(err, "failed to write row for %s", r.Accession)
		}
	}

	headerStyle, bodyStyle, err := newStyles(f)
	if err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(Columns))
	if err != nil {
		return errors.Wrap(err, "failed to name last column")
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return errors.Wrap(err, "failed to style header row")
	}
	if len(results) > 0 {
		bottom := fmt.Sprintf("%s%d", lastCol, len(results)+1)
		if err := f.SetCellStyle(sheet, "A2", bottom, bodyStyle); err != nil {
			return errors.Wrap(err, "failed to style data rows")
		}
	}

	rows := make([][]string, 0, len(results)+1)
	rows = append(rows, Columns)
	for _, r := range results {
		rows = append(rows, stringValues(r))
	}
	if err := setColumnWidths(f, sheet, rows); err != nil {
		return err
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return errors.Wrap(err, "failed to freeze header row")
	}
	return nil
}

// appendRows extends an already-styled worksheet and refits column widths
// to old and new content together.
func appendRows(f *excelize.File, sheet string, results []px.Result) error {
	existing, err := f.GetRows(sheet)
	if err != nil {
		return errors.Wrap(err, "failed to read existing rows")
	}

	start := len(existing) + 1
	for i, r := range results {
		cells := cellValues(r)
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", start+i), &cells); err != nil {
			return errors.Wrapf(err, "failed to write row for %s", r.Accession)
		}
	}

	if len(results) > 0 {
		_, bodyStyle, err := newStyles(f)
		if err != nil {
			return err
		}
		lastCol, err := excelize.ColumnNumberToName(len(Columns))
		if err != nil {
			return errors.Wrap(err, "failed to name last column")
		}
		bottom := fmt.Sprintf("%s%d", lastCol, start+len(results)-1)
		if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", start), bottom, bodyStyle); err != nil {
			return errors.Wrap(err, "failed to style appended rows")
		}
	}

	rows := existing
	for _, r := range results {
		rows = append(rows, stringValues(r))
	}
	return setColumnWidths(f, sheet, rows)
}

func newStyles(f *excelize.File) (header, body int, err error) {
	header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to create header style")
	}
	body, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to create body style")
	}
	return header, body, nil
}

func setColumnWidths(f *excelize.File, sheet string, rows [][]string) error {
	for c := range Columns {
		max := 0
		for _, row := range rows {
			if c >= len(row) {
				continue
			}
			if w := displayWidth(row[c]); w > max {
				max = w
			}
		}
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return errors.Wrap(err, "failed to name column")
		}
		if err := f.SetColWidth(sheet, col, col, columnWidth(max)); err != nil {
			return errors.Wrap(err, "failed to set column width")
		}
	}
	return nil
}
