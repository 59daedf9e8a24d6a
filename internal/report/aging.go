package report

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/numeric"
	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/turkish"
)

// OtherBalanceColumn is the derived column holding the sum of all aging
// buckets past the youngest one. It stays raw (unformatted) because the
// analyzer computes on it.
const OtherBalanceColumn = "Diğer Bakiye"

// AgingBucketTokens are the day-bucket name fragments summed into the other
// balance, in canonical aging order.
var AgingBucketTokens = []string{
	"8-14", "15-21", "22-28", "29-35", "36-42",
	"43-49", "50-56", "57-63", "64-70", "71-77", "77+",
}

// protectedColumnTokens name columns that survive the blank-column drop
// unconditionally.
var protectedColumnTokens = []string{"diğer bakiye", "cari", "ünvan", "kategori"}

// AgingAggregator derives the other balance and strips inactive rows and
// empty columns.
type AgingAggregator struct {
	logger *slog.Logger
}

// NewAgingAggregator creates an aging aggregator.
func NewAgingAggregator(logger *slog.Logger) *AgingAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &AgingAggregator{logger: logger}
}

// Aggregate computes the other balance column, drops rows whose activity is
// confined to the youngest bucket and drops all-blank value columns.
func (a *AgingAggregator) Aggregate(sheet *Sheet) {
	dayCols := dayBucketColumns(sheet)
	if len(dayCols) > 0 {
		a.dropInactiveRows(sheet, dayCols)
	}

	otherCol := sheet.ColumnIndex("diğer bakiye")
	if otherCol < 0 {
		otherCol = sheet.AddColumn(OtherBalanceColumn, "0")
	}
	a.computeOtherBalance(sheet, otherCol)
	a.dropEmptyColumns(sheet)
}

// dayBucketColumns returns the indices of day-bucket columns beyond the
// youngest one.
func dayBucketColumns(sheet *Sheet) []int {
	var cols []int
	for i, name := range sheet.Columns {
		lower := turkish.Lower(name)
		if strings.Contains(lower, "gün") &&
			!strings.Contains(lower, "0-7") &&
			!strings.Contains(lower, "diğer") {
			cols = append(cols, i)
		}
	}
	return cols
}

// dropInactiveRows removes rows whose day buckets past 0-7 all parse to zero.
// Accounts with activity only in the youngest bucket carry no aging risk.
func (a *AgingAggregator) dropInactiveRows(sheet *Sheet, dayCols []int) {
	kept := sheet.Rows[:0]
	dropped := 0
	for _, row := range sheet.Rows {
		active := false
		for _, col := range dayCols {
			if numeric.Parse(cellOf(row, col)) != 0 {
				active = true
				break
			}
		}
		if active {
			kept = append(kept, row)
		} else {
			dropped++
		}
	}
	sheet.Rows = kept
	if dropped > 0 {
		a.logger.Info("dropped rows without aged balances", slog.Int("count", dropped))
	}
}

// computeOtherBalance sums the day-bucket columns carrying one of the fixed
// bucket tokens into the other balance column, stored raw with at most two
// decimals. A column naming a bucket range without "gün" is not a day bucket
// and must not leak into the sum.
func (a *AgingAggregator) computeOtherBalance(sheet *Sheet, otherCol int) {
	var bucketCols []int
	for _, i := range dayBucketColumns(sheet) {
		if i == otherCol {
			continue
		}
		lower := turkish.Lower(sheet.Columns[i])
		for _, tok := range AgingBucketTokens {
			if strings.Contains(lower, tok) {
				bucketCols = append(bucketCols, i)
				break
			}
		}
	}

	for r := range sheet.Rows {
		sum := 0.0
		for _, col := range bucketCols {
			sum += numeric.Parse(sheet.Cell(r, col))
		}
		sum = math.Round(sum*100) / 100
		sheet.SetCell(r, otherCol, strconv.FormatFloat(sum, 'f', -1, 64))
	}
}

// dropEmptyColumns removes columns carrying no information. Protected
// columns (other balance, account identifiers, categories) always stay; a
// day-bucket column stays iff some cell parses to non-zero; anything else
// stays iff some cell is non-blank and not "0".
func (a *AgingAggregator) dropEmptyColumns(sheet *Sheet) {
	toDrop := make(map[int]bool)

	for i, name := range sheet.Columns {
		lower := turkish.Lower(name)
		if isProtectedColumn(lower) {
			continue
		}

		if strings.Contains(lower, "gün") {
			hasValue := false
			for r := range sheet.Rows {
				if numeric.Parse(sheet.Cell(r, i)) != 0 {
					hasValue = true
					break
				}
			}
			if !hasValue {
				toDrop[i] = true
			}
			continue
		}

		hasValue := false
		for r := range sheet.Rows {
			cell := strings.TrimSpace(sheet.Cell(r, i))
			if cell != "" && cell != "0" {
				hasValue = true
				break
			}
		}
		if !hasValue {
			toDrop[i] = true
		}
	}

	if len(toDrop) > 0 {
		a.logger.Info("dropped empty columns", slog.Int("count", len(toDrop)))
		sheet.DropColumns(toDrop)
	}
}

func isProtectedColumn(lowerName string) bool {
	for _, tok := range protectedColumnTokens {
		if strings.Contains(lowerName, tok) {
			return true
		}
	}
	return false
}
