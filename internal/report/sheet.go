// Package report turns a raw customer-aging workbook into a processed sheet:
// header row located, column names standardized, summary rows removed,
// vehicle categories rewritten to two-digit tags and the derived other
// balance computed. The processed sheet is the immutable input of the
// per-vehicle analyzer.
package report

import (
	"strings"

	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/turkish"
)

// Sheet is a rectangular table of string cells under named columns.
type Sheet struct {
	Columns []string
	Rows    [][]string
}

// NewSheet creates a sheet and pads every row to the column count.
func NewSheet(columns []string, rows [][]string) *Sheet {
	s := &Sheet{Columns: columns, Rows: rows}
	for i := range s.Rows {
		for len(s.Rows[i]) < len(columns) {
			s.Rows[i] = append(s.Rows[i], "")
		}
	}
	return s
}

// Cell returns the cell at (row, col), or "" when out of range.
func (s *Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row]) {
		return ""
	}
	return s.Rows[row][col]
}

// SetCell writes the cell at (row, col); out-of-range writes are ignored.
func (s *Sheet) SetCell(row, col int, value string) {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row]) {
		return
	}
	s.Rows[row][col] = value
}

// ColumnIndex returns the index of the first column whose name contains all
// given substrings under Turkish case folding, or -1.
func (s *Sheet) ColumnIndex(substrings ...string) int {
	for i, name := range s.Columns {
		match := true
		for _, sub := range substrings {
			if !turkish.ContainsFold(name, sub) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// ColumnValues returns a copy of all values in the given column.
func (s *Sheet) ColumnValues(col int) []string {
	values := make([]string, len(s.Rows))
	for i := range s.Rows {
		values[i] = s.Cell(i, col)
	}
	return values
}

// AddColumn appends a column filled with the initial value and returns its
// index.
func (s *Sheet) AddColumn(name, initial string) int {
	s.Columns = append(s.Columns, name)
	for i := range s.Rows {
		s.Rows[i] = append(s.Rows[i], initial)
	}
	return len(s.Columns) - 1
}

// DropColumns removes the columns at the given indices.
func (s *Sheet) DropColumns(indices map[int]bool) {
	if len(indices) == 0 {
		return
	}
	keptCols := make([]string, 0, len(s.Columns))
	for i, name := range s.Columns {
		if !indices[i] {
			keptCols = append(keptCols, name)
		}
	}
	for r := range s.Rows {
		kept := make([]string, 0, len(keptCols))
		for i, cell := range s.Rows[r] {
			if i < len(s.Columns) && !indices[i] {
				kept = append(kept, cell)
			}
		}
		s.Rows[r] = kept
	}
	s.Columns = keptCols
}

// Clone returns a deep copy of the sheet.
func (s *Sheet) Clone() *Sheet {
	columns := make([]string, len(s.Columns))
	copy(columns, s.Columns)
	rows := make([][]string, len(s.Rows))
	for i, row := range s.Rows {
		rows[i] = make([]string, len(row))
		copy(rows[i], row)
	}
	return &Sheet{Columns: columns, Rows: rows}
}

// isBlank reports whether a cell holds no usable value.
func isBlank(cell string) bool {
	return strings.TrimSpace(cell) == ""
}
