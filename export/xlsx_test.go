package export

import (
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/pxharvest/pxharvest/px"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func sampleResults() []px.Result {
	return []px.Result{
		{
			Accession:      "PXD000001",
			Repository:     px.RepositoryPRIDE,
			RawFileCount:   12,
			TotalSizeBytes: 1610612736, // 1.5 GB
			Source:         px.SourcePRIDE,
			Success:        true,
			Metadata: px.Metadata{
				Title:       "TMT spikes",
				LabHead:     "Henning Hermjakob",
				Instruments: []string{"LTQ Orbitrap Velos", "Q Exactive"},
				Keywords:    []string{"Biological", "Technical"},
			},
		},
		{
			Accession:          "PXD000002",
			Repository:         px.RepositoryUnknown,
			DeclaredRepository: "PeptideAtlas",
			RawFileCount:       3,
			Source:             px.SourceXMLScan,
			Success:            true,
		},
	}
}

func TestWriteXLSX(t *testing.T) {
	w := NewWriter(t.TempDir(), testLogger())

	path, err := w.WriteXLSX("datasets.xlsx", sampleResults())
	if err != nil {
		t.Fatalf("WriteXLSX() failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopening workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}

	if rows[0][0] != "Accession" || rows[0][10] != "Dataset URL" {
		t.Errorf("unexpected header row: %v", rows[0])
	}
	if rows[1][0] != "PXD000001" || rows[1][3] != "PRIDE" {
		t.Errorf("unexpected first data row: %v", rows[1])
	}
	if rows[1][4] != "LTQ Orbitrap Velos; Q Exactive" {
		t.Errorf("instruments cell = %q", rows[1][4])
	}
	if rows[1][6] != "12" || rows[1][7] != "1.5" {
		t.Errorf("count/size cells = %q, %q", rows[1][6], rows[1][7])
	}
	// Unknown repository keeps the name the registry declared
	if rows[2][3] != "PeptideAtlas" {
		t.Errorf("repository cell = %q, want PeptideAtlas", rows[2][3])
	}
	if rows[2][10] != "https://proteomecentral.proteomexchange.org/ui?pxid=PXD000002" {
		t.Errorf("dataset URL cell = %q", rows[2][10])
	}

	// Accession column fits its content: max("Accession", "PXD000001") + 2
	width, err := f.GetColWidth(SheetName, "A")
	if err != nil {
		t.Fatalf("GetColWidth() failed: %v", err)
	}
	if width != 11 {
		t.Errorf("column A width = %v, want 11", width)
	}
}

func TestAppendXLSX(t *testing.T) {
	w := NewWriter(t.TempDir(), testLogger())
	results := sampleResults()

	if _, err := w.WriteXLSX("datasets.xlsx", results[:1]); err != nil {
		t.Fatalf("WriteXLSX() failed: %v", err)
	}
	path, err := w.AppendXLSX("datasets.xlsx", results[1:])
	if err != nil {
		t.Fatalf("AppendXLSX() failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopening workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows after append, want 3", len(rows))
	}
	if rows[1][0] != "PXD000001" || rows[2][0] != "PXD000002" {
		t.Errorf("rows out of order: %v / %v", rows[1][0], rows[2][0])
	}
}

func TestAppendXLSXCreatesMissingWorkbook(t *testing.T) {
	w := NewWriter(t.TempDir(), testLogger())

	path, err := w.AppendXLSX("fresh.xlsx", sampleResults()[:1])
	if err != nil {
		t.Fatalf("AppendXLSX() failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopening workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want header + 1", len(rows))
	}
}

func TestWriteSheets(t *testing.T) {
	w := NewWriter(t.TempDir(), testLogger())
	results := sampleResults()

	path, err := w.WriteSheets("keywords.xlsx", []Sheet{
		{Name: "cancer", Results: results[:1]},
		{Name: "liver", Results: results[1:]},
	})
	if err != nil {
		t.Fatalf("WriteSheets() failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopening workbook: %v", err)
	}
	defer f.Close()

	for _, name := range []string{"cancer", "liver"} {
		idx, err := f.GetSheetIndex(name)
		if err != nil || idx < 0 {
			t.Fatalf("worksheet %q missing (idx %d, err %v)", name, idx, err)
		}
		rows, err := f.GetRows(name)
		if err != nil {
			t.Fatalf("GetRows(%q) failed: %v", name, err)
		}
		if len(rows) != 2 {
			t.Errorf("worksheet %q has %d rows, want 2", name, len(rows))
		}
	}
}

func TestColumnWidthClamp(t *testing.T) {
	if got := columnWidth(3); got != 10 {
		t.Errorf("columnWidth(3) = %v, want 10", got)
	}
	if got := columnWidth(20); got != 22 {
		t.Errorf("columnWidth(20) = %v, want 22", got)
	}
	if got := columnWidth(80); got != 50 {
		t.Errorf("columnWidth(80) = %v, want 50", got)
	}
}

func TestDisplayWidthCountsWideRunes(t *testing.T) {
	if got := displayWidth("raw"); got != 3 {
		t.Errorf("displayWidth(raw) = %d, want 3", got)
	}
	if got := displayWidth("质谱数据"); got != 8 {
		t.Errorf("displayWidth(质谱数据) = %d, want 8", got)
	}
}
