package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	apperrors "github.com/alibedirhan/Bup-Yonetim-sub000/internal/errors"
	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/numeric"
	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/report"
	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/turkish"
)

// vehicleColumnNames are tried first, as exact (folded) matches.
var vehicleColumnNames = []string{"Cari Kategori 3", "Kategori 3", "ARAÇ", "Cari Grubu 3"}

// nonVehicleTokens mark category values that are locations, not vehicles.
var nonVehicleTokens = []string{"DEPO", "MERKEZ", "GENEL", "KESİMHANE", "ŞUBE"}

// bucketNameTokens qualify a column as an aging bucket, beyond the fixed
// day-range tokens.
var bucketNameTokens = []string{"açık hesap", "diğer bakiye", "toplam", "gün", "bakiye", "tutar"}

// canonicalBucketOrder defines the display order of aging labels: open
// account first, then the day ranges, then the derived and total columns.
var canonicalBucketOrder = []string{
	"Açık Hesap", "0-7 Gün", "8-14 Gün", "15-21 Gün", "22-28 Gün", "29-35 Gün",
	"36-42 Gün", "43-49 Gün", "50-56 Gün", "57-63 Gün", "64-70 Gün", "71-77 Gün",
	"77+ Gün", "Diğer Bakiye", "Toplam",
}

// columnRoles holds the one-shot role detection result.
type columnRoles struct {
	vehicleCol int
	keyCol     int
	bucketCols []int
}

// Analyzer extracts per-vehicle portfolios from a processed sheet.
type Analyzer struct {
	logger *slog.Logger
	sheet  *report.Sheet
	roles  columnRoles
}

// NewAnalyzer detects the column roles on the processed sheet. It fails with
// a SchemaMismatch when the vehicle, account-title or bucket columns cannot
// be identified; the caller keeps the user on the load screen in that case.
func NewAnalyzer(logger *slog.Logger, sheet *report.Sheet) (*Analyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "analysis"))

	roles, err := detectColumnRoles(sheet)
	if err != nil {
		return nil, err
	}

	logger.Info("column roles detected",
		slog.String("vehicle_column", sheet.Columns[roles.vehicleCol]),
		slog.String("key_column", sheet.Columns[roles.keyCol]),
		slog.Int("bucket_columns", len(roles.bucketCols)))

	return &Analyzer{logger: logger, sheet: sheet, roles: roles}, nil
}

func detectColumnRoles(sheet *report.Sheet) (columnRoles, error) {
	roles := columnRoles{
		vehicleCol: findVehicleColumn(sheet),
		keyCol:     findKeyColumn(sheet),
		bucketCols: findBucketColumns(sheet),
	}

	switch {
	case roles.vehicleCol < 0:
		return roles, apperrors.NewSchemaMismatch("analyze", "vehicle", "vehicle category column not found")
	case roles.keyCol < 0:
		return roles, apperrors.NewSchemaMismatch("analyze", "key", "account title column not found")
	case len(roles.bucketCols) == 0:
		return roles, apperrors.NewSchemaMismatch("analyze", "buckets", "no aging bucket columns found")
	}
	return roles, nil
}

func findVehicleColumn(sheet *report.Sheet) int {
	for i, name := range sheet.Columns {
		for _, want := range vehicleColumnNames {
			if turkish.EqualFold(strings.TrimSpace(name), want) {
				return i
			}
		}
	}
	if idx := sheet.ColumnIndex("kategori", "3"); idx >= 0 {
		return idx
	}
	if idx := sheet.ColumnIndex("araç"); idx >= 0 {
		return idx
	}
	return sheet.ColumnIndex("arac")
}

func findKeyColumn(sheet *report.Sheet) int {
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
	return firstTextColumn(sheet)
}

// firstTextColumn returns the first column whose first non-blank cell
// contains a letter.
func firstTextColumn(sheet *report.Sheet) int {
	for i := range sheet.Columns {
		for r := range sheet.Rows {
			cell := strings.TrimSpace(sheet.Cell(r, i))
			if cell == "" {
				continue
			}
			if strings.IndexFunc(cell, unicode.IsLetter) >= 0 {
				return i
			}
			break
		}
	}
	return -1
}

func findBucketColumns(sheet *report.Sheet) []int {
	var cols []int
	for i, name := range sheet.Columns {
		lower := turkish.Lower(name)
		if isBucketName(lower) {
			cols = append(cols, i)
		}
	}

	// Canonical aging order; unknown bucket names go last.
	sort.SliceStable(cols, func(a, b int) bool {
		return bucketRank(sheet.Columns[cols[a]]) < bucketRank(sheet.Columns[cols[b]])
	})
	return cols
}

func isBucketName(lowerName string) bool {
	for _, tok := range report.AgingBucketTokens {
		if strings.Contains(lowerName, tok) {
			return true
		}
	}
	if strings.Contains(lowerName, "0-7") {
		return true
	}
	for _, tok := range bucketNameTokens {
		if strings.Contains(lowerName, tok) {
			return true
		}
	}
	return false
}

func bucketRank(name string) int {
	label := CanonicalBucketLabel(name)
	for i, canonical := range canonicalBucketOrder {
		if label == canonical {
			return i
		}
	}
	return len(canonicalBucketOrder)
}

// CanonicalBucketLabel maps a bucket column name to its canonical aging
// label; unknown names fall back to their lowercased form.
func CanonicalBucketLabel(name string) string {
	lower := turkish.Lower(strings.TrimSpace(name))
	switch {
	case strings.Contains(lower, "açık hesap"):
		return "Açık Hesap"
	case strings.Contains(lower, "diğer bakiye"):
		return "Diğer Bakiye"
	case strings.Contains(lower, "0-7"):
		return "0-7 Gün"
	case strings.Contains(lower, "toplam"):
		return "Toplam"
	}
	for _, tok := range report.AgingBucketTokens {
		if strings.Contains(lower, tok) {
			return tok + " Gün"
		}
	}
	return lower
}

// Vehicles enumerates the recognized vehicle numbers on the sheet, ascending.
func (a *Analyzer) Vehicles() []int {
	seen := make(map[int]bool)
	for r := range a.sheet.Rows {
		value := strings.TrimSpace(a.sheet.Cell(r, a.roles.vehicleCol))
		if value == "" {
			continue
		}
		if n, ok := parseVehicleNumber(value); ok {
			seen[n] = true
		}
	}

	vehicles := make([]int, 0, len(seen))
	for n := range seen {
		vehicles = append(vehicles, n)
	}
	sort.Ints(vehicles)
	return vehicles
}

// parseVehicleNumber recognizes a category value as a vehicle number in
// [1, 99]. Location-style values (depots, branches) are rejected outright.
func parseVehicleNumber(value string) (int, bool) {
	upper := turkish.Upper(value)
	for _, tok := range nonVehicleTokens {
		if strings.Contains(upper, tok) {
			return 0, false
		}
	}

	candidate := ""
	if tag, tagged := report.ExtractVehicleTag(value); tagged {
		candidate = tag
	} else if allDigits(strings.TrimSpace(value)) {
		candidate = strings.TrimSpace(value)
	}
	if candidate == "" {
		return 0, false
	}

	n, err := strconv.Atoi(candidate)
	if err != nil || n < 1 || n > 99 {
		return 0, false
	}
	return n, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// vehicleRowPattern matches category values belonging to vehicle n. The
// word boundaries are load-bearing: without them vehicle 1 swallows
// vehicles 10 through 19.
func vehicleRowPattern(n int) *regexp.Regexp {
	nn := fmt.Sprintf("%02d", n)
	bare := strconv.Itoa(n)

	alts := []string{
		regexp.QuoteMeta(fmt.Sprintf("[İZMİR ARAÇ %s]", nn)),
		regexp.QuoteMeta(fmt.Sprintf("[İZMİR ARAÇ %s]", bare)),
		fmt.Sprintf(`İZMİR ARAÇ %s\b`, nn),
		fmt.Sprintf(`İZMİR ARAÇ %s\b`, bare),
		fmt.Sprintf(`ARAÇ %s\b`, nn),
		fmt.Sprintf(`ARAÇ %s\b`, bare),
		fmt.Sprintf(`^%s$`, nn),
		fmt.Sprintf(`^%s$`, bare),
	}
	return regexp.MustCompile(strings.Join(alts, "|"))
}

// AnalyzeVehicle builds the portfolio of a single vehicle.
func (a *Analyzer) AnalyzeVehicle(n int) *VehicleAnalysis {
	pattern := vehicleRowPattern(n)

	va := &VehicleAnalysis{
		Vehicle:           fmt.Sprintf("%02d", n),
		AnalysisTimestamp: time.Now(),
		AgingBreakdown:    make(map[string]float64),
		Statistics:        make(map[string]float64),
	}

	for r := range a.sheet.Rows {
		value := turkish.Upper(strings.TrimSpace(a.sheet.Cell(r, a.roles.vehicleCol)))
		if !pattern.MatchString(value) {
			continue
		}

		customer := CustomerRecord{
			Title:            strings.TrimSpace(a.sheet.Cell(r, a.roles.keyCol)),
			BalanceBreakdown: make(map[string]float64),
		}
		for _, col := range a.roles.bucketCols {
			label := CanonicalBucketLabel(a.sheet.Columns[col])
			amount := numeric.Parse(a.sheet.Cell(r, col))
			customer.BalanceBreakdown[label] += amount
			customer.TotalBalance += amount
			if label == "Açık Hesap" {
				va.OpenAccount += amount
			}
			va.AgingBreakdown[label] += amount
		}

		va.Customers = append(va.Customers, customer)
		va.TotalBalance += customer.TotalBalance
	}

	va.CustomerCount = len(va.Customers)
	if va.CustomerCount > 0 {
		totals := make([]float64, va.CustomerCount)
		for i, c := range va.Customers {
			totals[i] = c.TotalBalance
		}
		va.Statistics = ComputeStatistics(totals)
	}
	return va
}

// Analyze builds the portfolios of every recognized vehicle. The optional
// onVehicle callback fires after each vehicle; returning false cancels the
// run.
func (a *Analyzer) Analyze(ctx context.Context, onVehicle func(done, total int) bool) (*Result, error) {
	vehicles := a.Vehicles()
	a.logger.Info("analysis started", slog.Int("vehicle_count", len(vehicles)))

	result := &Result{GeneratedAt: time.Now()}
	for i, n := range vehicles {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.NewCancelled("analyze")
		}

		result.Vehicles = append(result.Vehicles, a.AnalyzeVehicle(n))

		if onVehicle != nil && !onVehicle(i+1, len(vehicles)) {
			return nil, apperrors.NewCancelled("analyze")
		}
	}

	a.logger.Info("analysis complete",
		slog.Int("vehicle_count", len(result.Vehicles)))
	return result, nil
}
