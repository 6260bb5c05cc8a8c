package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	moodErrors "github.com/quantself/moodlab/pkg/errors"
)

// LoadOptions configures CSV loading.
type LoadOptions struct {
	// DateColumn names the date column (default "date").
	DateColumn string
	// DateFormat is the primary date layout (default "2006-01-02").
	// Common alternatives are tried when it does not match.
	DateFormat string
	// Delimiter is the field separator (default ',').
	Delimiter rune
	// SkipRows skips leading rows before the header.
	SkipRows int
}

// DefaultLoadOptions returns options for a standard diary CSV.
func DefaultLoadOptions() *LoadOptions {
	return &LoadOptions{
		DateColumn: DateColumn,
		DateFormat: "2006-01-02",
		Delimiter:  ',',
	}
}

// naTokens are cell values treated as a missing observation.
var naTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
}

// dateFormats are layouts tried after the configured one.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
}

// Load reads a diary from a CSV file.
func Load(path string, opts *LoadOptions) (*Diary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, moodErrors.Wrap(err, "failed to open file")
	}
	defer f.Close()

	return LoadReader(f, opts)
}

// LoadReader reads a diary from CSV data. The first non-skipped row must
// be a header containing the date column; every other header field
// becomes a value column. Cells holding "", "NA", "NaN" or "null" load
// as NaN.
func LoadReader(r io.Reader, opts *LoadOptions) (*Diary, error) {
	if opts == nil {
		opts = DefaultLoadOptions()
	}
	dateCol := opts.DateColumn
	if dateCol == "" {
		dateCol = DateColumn
	}
	dateFormat := opts.DateFormat
	if dateFormat == "" {
		dateFormat = "2006-01-02"
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, moodErrors.Wrap(err, "failed to skip rows")
		}
	}

	header, err := reader.Read()
	if err != nil {
		return nil, moodErrors.Wrap(err, "failed to read header")
	}

	dateIdx := -1
	cols := make([]string, 0, len(header)-1)
	colIdx := make([]int, 0, len(header)-1)
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if seen[name] {
			return nil, moodErrors.NewValueError("dataset.LoadReader",
				fmt.Sprintf("duplicate column %q in header", name))
		}
		seen[name] = true

		if name == dateCol {
			dateIdx = i
			continue
		}
		cols = append(cols, name)
		colIdx = append(colIdx, i)
	}
	if dateIdx < 0 {
		return nil, moodErrors.NewValueError("dataset.LoadReader",
			fmt.Sprintf("date column %q not found in header", dateCol))
	}
	if len(cols) == 0 {
		return nil, moodErrors.NewValueError("dataset.LoadReader", "no value columns in header")
	}

	var dates []time.Time
	values := make([][]float64, len(cols))

	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, moodErrors.Wrap(err, "failed to read record")
		}
		row++

		date, err := parseDate(strings.TrimSpace(record[dateIdx]), dateFormat)
		if err != nil {
			return nil, moodErrors.NewValueError("dataset.LoadReader",
				fmt.Sprintf("row %d: %v", row, err))
		}
		dates = append(dates, date)

		for j, idx := range colIdx {
			cell := strings.TrimSpace(record[idx])
			if naTokens[cell] {
				values[j] = append(values[j], math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, moodErrors.NewValueError("dataset.LoadReader",
					fmt.Sprintf("row %d, column %q: cannot parse %q as a number", row, cols[j], cell))
			}
			values[j] = append(values[j], v)
		}
	}

	if len(dates) == 0 {
		return nil, moodErrors.NewModelError("dataset.LoadReader", "no data rows", moodErrors.ErrEmptyData)
	}

	d := New(dates)
	for j, col := range cols {
		if err := d.AddColumn(col, values[j]); err != nil {
			return nil, err
		}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func parseDate(s, primary string) (time.Time, error) {
	if t, err := time.Parse(primary, s); err == nil {
		return t, nil
	}
	for _, layout := range dateFormats {
		if layout == primary {
			continue
		}
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q", s)
}

// Save writes the diary to a CSV file.
func (d *Diary) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return moodErrors.Wrap(err, "failed to create file")
	}
	defer f.Close()

	if err := d.WriteCSV(f); err != nil {
		return err
	}
	return f.Sync()
}

// WriteCSV writes the diary as CSV: the date column first, then the value
// columns in source order. NaN cells are written as "NA".
func (d *Diary) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)

	header := append([]string{DateColumn}, d.Columns...)
	if _, err := bw.WriteString(strings.Join(header, ",") + "\n"); err != nil {
		return moodErrors.Wrap(err, "failed to write header")
	}

	fields := make([]string, len(header))
	for i := 0; i < d.Len(); i++ {
		fields[0] = d.Dates[i].Format("2006-01-02")
		for j, col := range d.Columns {
			v := d.data[col][i]
			if math.IsNaN(v) {
				fields[j+1] = "NA"
			} else {
				fields[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if _, err := bw.WriteString(strings.Join(fields, ",") + "\n"); err != nil {
			return moodErrors.Wrap(err, "failed to write record")
		}
	}

	return bw.Flush()
}
