package report

import (
	"log/slog"
	"strings"

	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/numeric"
	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/turkish"
)

// displayColumnTokens select the columns rendered as Turkish integers.
var displayColumnTokens = []string{"hesap", "gün", "bakiye"}

// DisplayFormatter rewrites numeric columns into Turkish thousand-separated
// integers. The other balance column is deliberately left raw; the analyzer
// computes on it.
type DisplayFormatter struct {
	logger *slog.Logger
}

// NewDisplayFormatter creates a display formatter.
func NewDisplayFormatter(logger *slog.Logger) *DisplayFormatter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DisplayFormatter{logger: logger}
}

// Format reformats every hesap/gün/bakiye column in place, skipping any
// column whose name contains "diğer".
func (d *DisplayFormatter) Format(sheet *Sheet) {
	formatted := 0
	for i, name := range sheet.Columns {
		if !isDisplayColumn(name) {
			continue
		}
		for r := range sheet.Rows {
			sheet.SetCell(r, i, numeric.FormatValue(sheet.Cell(r, i)))
		}
		formatted++
	}
	d.logger.Debug("display columns formatted", slog.Int("column_count", formatted))
}

func isDisplayColumn(name string) bool {
	lower := turkish.Lower(name)
	if strings.Contains(lower, "diğer") {
		return false
	}
	for _, tok := range displayColumnTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
