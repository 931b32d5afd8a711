package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
)

// ErrFileNotFound is returned when the input path does not resolve.
var ErrFileNotFound = errors.New("dataset file not found")

// RenameMap maps source headers to canonical column names.
var RenameMap = map[string]string{
	"Chest pain type":         ColChestPainType,
	"FBS over 120":            ColFastingBS,
	"EKG results":             ColRestingECG,
	"Max HR":                  ColMaxHR,
	"Exercise angina":         ColExAngina,
	"ST depression":           ColOldpeak,
	"Slope of ST":             ColSTSlope,
	"Number of vessels fluro": ColNumVessels,
	"Heart Disease":           ColTarget,
}

// Options controls how a file is parsed and annotated.
type Options struct {
	Delimiter rune
	Labels    LabelMap
}

// Views holds the two views produced by the loader. They share no rows.
type Views struct {
	Raw       *Table
	Annotated *Table
}

// Load reads the delimited file at path and returns its raw and annotated views.
func Load(path string, opts Options) (*Views, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	return Parse(bufio.NewReader(f), opts)
}

// Parse reads delimited data from r and returns its raw and annotated views.
func Parse(r io.Reader, opts Options) (*Views, error) {
	table, err := readTable(r, opts.Delimiter)
	if err != nil {
		return nil, err
	}
	labels := opts.Labels
	if labels == nil {
		labels = DefaultLabels()
	}
	return &Views{
		Raw:       table.Clone(),
		Annotated: Annotate(table, labels),
	}, nil
}

// Annotate returns a copy of t with a label column added for every
// labelled column present in t. Codes without a label leave the cell absent.
func Annotate(t *Table, labels LabelMap) *Table {
	out := t.Clone()

	cols := make([]string, 0, len(labels))
	for col := range labels {
		if t.HasColumn(col) {
			cols = append(cols, col)
		}
	}
	sort.Strings(cols)

	for _, col := range cols {
		out.Columns = append(out.Columns, LabelColumn(col))
		for _, row := range out.Rows {
			code, ok := row[col]
			if !ok {
				continue
			}
			if label, ok := labels.Lookup(col, code); ok {
				row[LabelColumn(col)] = label
			}
		}
	}
	return out
}

func readTable(r io.Reader, delimiter rune) (*Table, error) {
	reader := csv.NewReader(r)
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("reading headers: empty input")
		}
		return nil, fmt.Errorf("reading headers: %w", err)
	}

	columns := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if canonical, ok := RenameMap[h]; ok {
			h = canonical
		}
		columns[i] = h
	}

	t := &Table{Columns: columns}
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}
		row := make(Row, len(columns))
		for i, v := range rec {
			if i >= len(columns) {
				break
			}
			row[columns[i]] = strings.TrimSpace(v)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
