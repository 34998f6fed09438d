// Package winners loads raffle winner rows from the prize-draw spreadsheet export.
package winners

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

// Required header names, matched case-sensitively.
const (
	ColumnPrize  = "Prizes"
	ColumnTicket = "Winning Ticket"
	ColumnName   = "Winner Name"
	ColumnEmail  = "Winner Email"
	ColumnPhone  = "Winner Phone"
)

// RequiredColumns lists every header a winners file must carry.
var RequiredColumns = []string{ColumnPrize, ColumnTicket, ColumnName, ColumnEmail, ColumnPhone}

// Record is one winner row.
type Record struct {
	Prize  string `csv:"Prizes"`
	Ticket string `csv:"Winning Ticket"`
	Name   string `csv:"Winner Name"`
	Email  string `csv:"Winner Email"`
	Phone  string `csv:"Winner Phone"`

	Row int `csv:"-"` // 1-based data row, header excluded
}

// PrizeDetail parses the record's prize cell.
func (r Record) PrizeDetail() Prize {
	return ParsePrize(r.Prize)
}

// FirstName is the first word of the winner name.
func (r Record) FirstName() string {
	fields := strings.Fields(r.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Skipped is a row that will not be emailed.
type Skipped struct {
	Record Record
	Reason string
}

// LoadOptions controls row-level policy.
type LoadOptions struct {
	// SkipEmptyEmail skips rows without an address instead of failing the load.
	SkipEmptyEmail bool
}

// Load reads the winners file at path. Rows come back in file order.
func Load(path string, opts LoadOptions) ([]Record, []Skipped, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return Parse(path, bytes.NewReader(data), opts)
}

// Parse reads winner rows from r; name is only used in error messages.
func Parse(name string, r io.Reader, opts LoadOptions) ([]Record, []Skipped, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrConfiguration, name, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: %s: header row is missing", ErrConfiguration, name)
	}

	normalizeHeader(rows[0])
	if missing := missingColumns(rows[0]); len(missing) > 0 {
		return nil, nil, &MissingColumnsError{Path: name, Missing: missing}
	}

	if len(rows) == 1 {
		return nil, nil, nil
	}

	var decoded []Record
	if err := gocsv.UnmarshalCSV(&rowSource{rows: rows}, &decoded); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrConfiguration, name, err)
	}

	records := make([]Record, 0, len(decoded))
	var skipped []Skipped

	for i, rec := range decoded {
		rec.Row = i + 1
		rec.Prize = strings.TrimSpace(rec.Prize)
		rec.Ticket = strings.TrimSpace(rec.Ticket)
		rec.Name = strings.TrimSpace(rec.Name)
		rec.Email = strings.TrimSpace(rec.Email)
		rec.Phone = strings.TrimSpace(rec.Phone)

		if isBlank(rows[i+1]) {
			continue
		}

		if rec.Email == "" {
			if !opts.SkipEmptyEmail {
				return nil, nil, fmt.Errorf("%w: %s: row %d has no %s", ErrConfiguration, name, rec.Row, ColumnEmail)
			}
			skipped = append(skipped, Skipped{Record: rec, Reason: "missing email"})
			continue
		}

		records = append(records, rec)
	}

	return records, skipped, nil
}

func normalizeHeader(header []string) {
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.TrimSpace(h)
	}
}

func missingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// rowSource replays already-read rows to gocsv so the normalized header is
// what gets matched against struct tags.
type rowSource struct {
	rows [][]string
	next int
}

func (s *rowSource) Read() ([]string, error) {
	if s.next >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.next]
	s.next++
	return row, nil
}

func (s *rowSource) ReadAll() ([][]string, error) {
	rest := s.rows[s.next:]
	s.next = len(s.rows)
	return rest, nil
}
