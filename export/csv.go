package export

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/pxharvest/pxharvest/errors"
	"github.com/pxharvest/pxharvest/px"
)

// EncodeCSV writes the header and one line per result to w, in the shared
// column order.
func EncodeCSV(w io.Writer, results []px.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}
	for _, r := range results {
		if err := cw.Write(stringValues(r)); err != nil {
			return errors.Wrapf(err, "failed to write CSV row for %s", r.Accession)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush CSV")
}

// WriteCSV writes results to a CSV file in the output directory and
// returns its path.
func (w *Writer) WriteCSV(filename string, results []px.Result) (string, error) {
	path, err := w.target(filename)
	if err != nil {
		return "", err
	}

	file, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create %s", path)
	}
	defer file.Close()

	if err := EncodeCSV(file, results); err != nil {
		return "", err
	}

	w.logger.Infow("wrote CSV",
		"path", path,
		"rows", len(results))
	return path, nil
}
