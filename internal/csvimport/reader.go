// Package csvimport reads bank statement exports into raw transactions.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"budget/internal/core"
)

const (
	colDate        = "#Data operacji"
	colDescription = "#Opis operacji"
	colAccount     = "#Rachunek"
	colCategory    = "#Kategoria"
	colAmount      = "#Kwota"
)

var required = []string{colDate, colDescription, colAccount, colCategory, colAmount}

// ErrNoHeader is returned when the input has no line with the expected columns
var ErrNoHeader = errors.New("csv header not found")

// Read parses a ';'-delimited statement. Lines before the header row are
// skipped, as banks prepend account details to their exports. Rows that cannot
// be split into the header's columns are counted as malformed; field values are
// returned untouched and validated by the importer.
func Read(r io.Reader) ([]core.RawTransaction, int, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	cols, err := findHeader(reader)
	if err != nil {
		return nil, 0, err
	}

	var (
		records   []core.RawTransaction
		malformed int
	)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				malformed++
				continue
			}
			return nil, malformed, fmt.Errorf("read csv: %w", err)
		}
		if blank(row) {
			continue
		}
		if len(row) < cols.width {
			malformed++
			continue
		}

		records = append(records, core.RawTransaction{
			OperationDate: strings.TrimSpace(row[cols.date]),
			Description:   collapseSpaces(row[cols.description]),
			AccountName:   strings.TrimSpace(row[cols.account]),
			CategoryHint:  strings.TrimSpace(row[cols.category]),
			Amount:        strings.TrimSpace(row[cols.amount]),
		})
	}

	return records, malformed, nil
}

type columns struct {
	date, description, account, category, amount int
	width                                        int
}

func findHeader(reader *csv.Reader) (columns, error) {
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return columns{}, ErrNoHeader
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return columns{}, fmt.Errorf("read csv header: %w", err)
		}

		index := make(map[string]int, len(row))
		for i, name := range row {
			index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
		}
		if !hasAll(index) {
			continue
		}

		c := columns{
			date:        index[colDate],
			description: index[colDescription],
			account:     index[colAccount],
			category:    index[colCategory],
			amount:      index[colAmount],
		}
		c.width = max(c.date, c.description, c.account, c.category, c.amount) + 1
		return c, nil
	}
}

func hasAll(index map[string]int) bool {
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return false
		}
	}
	return true
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
