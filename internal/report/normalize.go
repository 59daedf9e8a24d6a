package report

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	apperrors "github.com/alibedirhan/Bup-Yonetim-sub000/internal/errors"
	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/turkish"
)

// summaryTokens mark aggregate rows that must never reach the analyzer.
var summaryTokens = []string{"TOPLAM", "TOTAL", "GENEL", "SUM", "ÖZET"}

// identifierTokens qualify a column name as a product-or-account identifier
// during header detection.
var identifierTokens = []string{"ismi", "isim", "kodu"}

// valueTokens qualify a column name as a value column during header detection.
var valueTokens = []string{"satış", "miktar", "fiyat", "tutar"}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalizer locates the header row of a raw export and produces a cleaned
// sheet.
type Normalizer struct {
	logger   *slog.Logger
	scanRows int
}

// NewNormalizer creates a normalizer scanning the first scanRows rows for a
// header (default 5).
func NewNormalizer(logger *slog.Logger, scanRows int) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if scanRows <= 0 {
		scanRows = 5
	}
	return &Normalizer{logger: logger, scanRows: scanRows}
}

// Normalize converts raw workbook rows into a cleaned sheet: masthead rows
// stripped, column names standardized, blank-key and summary rows dropped.
func (n *Normalizer) Normalize(rows [][]string) (*Sheet, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewInputRejected("normalize", "no rows to normalize", nil)
	}

	headerRow := n.detectHeaderRow(rows)
	n.logger.Info("header row selected", slog.Int("row_index", headerRow))

	if headerRow >= len(rows) {
		return nil, apperrors.NewInputRejected("normalize",
			fmt.Sprintf("header row %d is beyond the sheet's %d rows", headerRow, len(rows)), nil)
	}

	columns := cleanColumnNames(rows[headerRow])
	sheet := NewSheet(columns, copyRows(rows[headerRow+1:]))

	keyCol := findKeyColumn(sheet)
	if keyCol >= 0 {
		n.dropNonDataRows(sheet, keyCol)
	} else {
		n.logger.Warn("key column not found during normalization; row cleaning skipped")
	}

	if len(sheet.Rows) == 0 {
		return nil, apperrors.NewInputRejected("normalize", "no data rows left after cleaning", nil)
	}
	return sheet, nil
}

// detectHeaderRow scans the first scanRows rows for one that looks like a
// header: an identifier column plus at least two value columns. Exports vary
// in masthead depth, so when nothing qualifies row 1 is assumed.
func (n *Normalizer) detectHeaderRow(rows [][]string) int {
	bound := n.scanRows
	if bound > len(rows) {
		bound = len(rows)
	}

	for i := 0; i < bound; i++ {
		if isHeaderCandidate(rows[i]) {
			return i
		}
	}
	return 1
}

func isHeaderCandidate(row []string) bool {
	hasIdentifier := false
	valueCount := 0

	for _, cell := range row {
		name := turkish.Lower(strings.TrimSpace(cell))
		if name == "" {
			continue
		}
		if strings.Contains(name, "stok") {
			for _, tok := range identifierTokens {
				if strings.Contains(name, tok) {
					hasIdentifier = true
					break
				}
			}
		}
		for _, tok := range valueTokens {
			if strings.Contains(name, tok) {
				valueCount++
				break
			}
		}
	}
	return hasIdentifier && valueCount >= 2
}

// cleanColumnNames collapses whitespace, strips carriage returns and fills in
// Column_<i> for blank names.
func cleanColumnNames(header []string) []string {
	columns := make([]string, len(header))
	for i, name := range header {
		name = strings.ReplaceAll(name, "\r", "")
		name = whitespaceRun.ReplaceAllString(strings.TrimSpace(name), " ")
		if name == "" {
			name = fmt.Sprintf("Column_%d", i+1)
		}
		columns[i] = name
	}
	return columns
}

// dropNonDataRows removes rows with a blank key cell and rows whose key cell
// carries a summary token.
func (n *Normalizer) dropNonDataRows(sheet *Sheet, keyCol int) {
	kept := sheet.Rows[:0]
	dropped := 0
	for _, row := range sheet.Rows {
		key := ""
		if keyCol < len(row) {
			key = strings.TrimSpace(row[keyCol])
		}
		if key == "" || isSummaryKey(key) {
			dropped++
			continue
		}
		kept = append(kept, row)
	}
	sheet.Rows = kept
	if dropped > 0 {
		n.logger.Info("dropped non-data rows", slog.Int("count", dropped))
	}
}

func isSummaryKey(key string) bool {
	upper := turkish.Upper(key)
	for _, tok := range summaryTokens {
		if strings.Contains(upper, tok) {
			return true
		}
	}
	return false
}

// findKeyColumn locates the account-title column: "cari" with "ünvan", then
// customer-name fallbacks, then the first column.
func findKeyColumn(sheet *Sheet) int {
	if idx := sheet.ColumnIndex("cari", "ünvan"); idx >= 0 {
		return idx
	}
	if idx := sheet.ColumnIndex("cari", "unvan"); idx >= 0 {
		return idx
	}
	for _, name := range []string{"müşteri", "firma", "isim", "ad"} {
		if idx := sheet.ColumnIndex(name); idx >= 0 {
			return idx
		}
	}
	if len(sheet.Columns) > 0 {
		return 0
	}
	return -1
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		copy(out[i], row)
	}
	return out
}
