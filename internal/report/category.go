package report

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/turkish"
)

// UnknownVehicleTag is the sentinel for a vehicle-tagged category whose
// number could not be extracted.
const UnknownVehicleTag = "00"

// vehicleTagPatterns are applied in order against the Turkish-uppercased
// cell; the first match wins. Order matters: the bracketed form is the most
// specific, the bare digit run is the fallback.
var vehicleTagPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[İZMİR ARAÇ (\d+)\]`),
	regexp.MustCompile(`İZMİR ARAÇ (\d+)`),
	regexp.MustCompile(`(\d+)`),
}

// ExtractVehicleTag pulls the two-digit vehicle tag out of a free-form
// category cell. The second return is false when the cell carries no ARAÇ
// marker at all; an ARAÇ cell without a usable number yields the "00"
// sentinel.
func ExtractVehicleTag(cell string) (string, bool) {
	upper := turkish.Upper(cell)
	if !strings.Contains(upper, "ARAÇ") {
		return "", false
	}
	for _, pattern := range vehicleTagPatterns {
		if m := pattern.FindStringSubmatch(upper); m != nil {
			return PadVehicleTag(m[1]), true
		}
	}
	return UnknownVehicleTag, true
}

// PadVehicleTag left-pads a vehicle number to two digits.
func PadVehicleTag(number string) string {
	number = strings.TrimSpace(number)
	if len(number) == 1 {
		return "0" + number
	}
	return number
}

// CategoryRewriter replaces vehicle-tagged category cells with their
// two-digit tag and orders rows with numeric categories first.
type CategoryRewriter struct {
	logger *slog.Logger
}

// NewCategoryRewriter creates a category rewriter.
func NewCategoryRewriter(logger *slog.Logger) *CategoryRewriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryRewriter{logger: logger}
}

// Rewrite processes the first column whose name contains "kategori". Sheets
// without a category column pass through untouched.
func (c *CategoryRewriter) Rewrite(sheet *Sheet) {
	col := sheet.ColumnIndex("kategori")
	if col < 0 {
		c.logger.Warn("no category column found; rewrite skipped")
		return
	}

	original := sheet.ColumnValues(col)
	rewritten := 0
	for i := range sheet.Rows {
		if tag, ok := ExtractVehicleTag(sheet.Cell(i, col)); ok {
			sheet.SetCell(i, col, tag)
			rewritten++
		}
	}
	c.logger.Info("category cells rewritten",
		slog.Int("rewritten", rewritten),
		slog.Int("total", len(sheet.Rows)))

	if !c.sortByCategory(sheet, col) {
		// Restore the pre-rewrite values so the sheet stays coherent.
		for i := range sheet.Rows {
			if i < len(original) {
				sheet.SetCell(i, col, original[i])
			}
		}
		c.logger.Warn("category sort failed; original values restored")
	}
}

// sortByCategory stable-sorts rows: numeric categories ascending, then text
// categories in lexical order, blanks last. Returns false when sorting
// panicked.
func (c *CategoryRewriter) sortByCategory(sheet *Sheet, col int) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	sort.SliceStable(sheet.Rows, func(i, j int) bool {
		return categoryLess(cellOf(sheet.Rows[i], col), cellOf(sheet.Rows[j], col))
	})
	return true
}

func categoryLess(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	aBlank, bBlank := a == "", b == ""
	if aBlank || bBlank {
		return !aBlank && bBlank
	}

	aNum, aErr := strconv.Atoi(a)
	bNum, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return aNum < bNum
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	default:
		return a < b
	}
}

func cellOf(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}
