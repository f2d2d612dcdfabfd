package importer

import (
	"encoding/csv"
	"errors"
	"io"
)

var errEmptyFile = errors.New("file contains no rows")

// newCSVReader builds the reader used for both sampling and full parses.
// Ragged rows are tolerated here; the normalizer reports missing fields
// per row with a usable index instead of a csv package position error.
func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

// ReadSample reads the header row plus up to limit data rows.
func ReadSample(r io.Reader, limit int) ([][]string, error) {
	cr := newCSVReader(r)

	var records [][]string
	for len(records) < limit+1 {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Cause: err}
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, &ParseError{Cause: errEmptyFile}
	}
	return records, nil
}

// ReadAll reads the header row and every data row.
func ReadAll(r io.Reader) ([][]string, error) {
	records, err := newCSVReader(r).ReadAll()
	if err != nil {
		return nil, &ParseError{Cause: err}
	}
	if len(records) == 0 {
		return nil, &ParseError{Cause: errEmptyFile}
	}
	return records, nil
}
