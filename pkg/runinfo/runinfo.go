// Package runinfo extracts SRA run accessions from run-info tables, the
// comma-delimited metadata exports produced by the SRA run selector. Only
// the accession column is consumed; the rest of the table is ignored.
package runinfo

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/glorpus-work/sigsync/pkg/errors"
)

// DefaultColumn is the header naming the accession column in run-info exports.
const DefaultColumn = "Run"

// Accessions reads a comma-delimited table with a header row and returns the
// deduplicated set of values found under column. Empty values are skipped.
func Accessions(r io.Reader, column string) (map[string]struct{}, error) {
	if column == "" {
		column = DefaultColumn
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // run-info exports often have ragged rows

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.Wrap(errors.ErrMissingRunColumn, "empty input")
		}
		return nil, errors.Wrap(err, "failed to read header")
	}

	colIdx := -1
	for i, name := range header {
		if strings.TrimSpace(name) == column {
			colIdx = i
			break
		}
	}
	if colIdx < 0 {
		return nil, errors.Wrapf(errors.ErrMissingRunColumn, "column %q", column)
	}

	accessions := make(map[string]struct{})
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read record")
		}
		if colIdx >= len(record) {
			continue
		}
		if acc := strings.TrimSpace(record[colIdx]); acc != "" {
			accessions[acc] = struct{}{}
		}
	}

	return accessions, nil
}

// AccessionsFromFile reads accessions from a run-info file on disk.
func AccessionsFromFile(path, column string) (map[string]struct{}, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open run-info file %s", path)
	}
	defer func() { _ = file.Close() }()

	return Accessions(file, column)
}
