package dataset

import (
	"strconv"
	"strings"
)

// Canonical column names after header renaming.
const (
	ColAge           = "Age"
	ColSex           = "Sex"
	ColChestPainType = "ChestPainType"
	ColBP            = "BP"
	ColCholesterol   = "Cholesterol"
	ColFastingBS     = "FastingBS"
	ColRestingECG    = "RestingECG"
	ColMaxHR         = "MaxHR"
	ColExAngina      = "ExAngina"
	ColOldpeak       = "Oldpeak"
	ColSTSlope       = "ST_Slope"
	ColNumVessels    = "NumVessels"
	ColThallium      = "Thallium"
	ColTarget        = "Target"
)

// Target levels as they appear in the source file.
const (
	TargetPresent = "Presence"
	TargetAbsent  = "Absence"
)

// LabelSuffix is appended to a column name to form its annotated column.
const LabelSuffix = "_Desc"

// LabelColumn returns the name of the derived label column for col.
func LabelColumn(col string) string {
	return col + LabelSuffix
}

// Row maps column names to cell values.
type Row map[string]string

// Get returns the cell for col and whether it is present.
func (r Row) Get(col string) (string, bool) {
	v, ok := r[col]
	return v, ok
}

// Float parses the cell for col as a number.
func (r Row) Float(col string) (float64, bool) {
	v, ok := r[col]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Table is an ordered collection of rows sharing a column list.
type Table struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether col is part of the table's schema.
func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[k] = v
		}
		out.Rows[i] = nr
	}
	return out
}

// Filter returns a new table holding copies of the rows for which keep is true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{Columns: append([]string(nil), t.Columns...)}
	for _, r := range t.Rows {
		if keep(r) {
			nr := make(Row, len(r))
			for k, v := range r {
				nr[k] = v
			}
			out.Rows = append(out.Rows, nr)
		}
	}
	return out
}

// Floats returns the numeric values of col, skipping rows where it is
// missing or not a number.
func (t *Table) Floats(col string) []float64 {
	out := make([]float64, 0, len(t.Rows))
	for _, r := range t.Rows {
		if v, ok := r.Float(col); ok {
			out = append(out, v)
		}
	}
	return out
}
