package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/alibedirhan/Bup-Yonetim-sub000/internal/errors"
)

func agingRawRows() [][]string {
	return [][]string{
		{"BUPİLİÇ CARİ YAŞLANDIRMA RAPORU"},
		{"Cari Ünvan", "Cari Kategori 3", "Açık Hesap", "0-7 Gün", "8-14 Gün", "15-21 Gün", ""},
		{"MARKET A", "[İZMİR ARAÇ 06] İZMİR ARAÇ 06", "100", "50", "200", "300", "x"},
		{"MARKET B", "İZMİR ARAÇ 1", "0", "10", "20", "0", ""},
		{"", "İZMİR ARAÇ 1", "5", "5", "5", "5", ""},
		{"GENEL TOPLAM", "", "105", "65", "225", "305", ""},
	}
}

func TestNormalizeStripsMastheadAndSummaries(t *testing.T) {
	n := NewNormalizer(nil, 5)

	sheet, err := n.Normalize(agingRawRows())
	require.NoError(t, err)

	// Header row 1 promoted; blank column name replaced.
	assert.Equal(t, "Cari Ünvan", sheet.Columns[0])
	assert.Equal(t, "Column_7", sheet.Columns[6])

	// Blank-key and summary rows are gone.
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "MARKET A", sheet.Cell(0, 0))
	assert.Equal(t, "MARKET B", sheet.Cell(1, 0))
}

func TestNormalizeNoSummaryKeysRemain(t *testing.T) {
	rows := agingRawRows()
	rows = append(rows,
		[]string{"ARA TOPLAM", "", "1", "1", "1", "1", ""},
		[]string{"özet satırı", "", "1", "1", "1", "1", ""},
		[]string{"Total", "", "1", "1", "1", "1", ""},
	)

	sheet, err := NewNormalizer(nil, 5).Normalize(rows)
	require.NoError(t, err)

	for i := range sheet.Rows {
		key := sheet.Cell(i, 0)
		assert.NotEmpty(t, key)
		assert.False(t, isSummaryKey(key), "summary key survived: %q", key)
	}
}

func TestDetectHeaderRowQualifying(t *testing.T) {
	rows := [][]string{
		{"FİYAT LİSTESİ"},
		{"meta", "meta"},
		{"Stok İsmi", "Satış Miktarı", "Birim Fiyat", "Tutar"},
		{"PİLİÇ BUT", "10", "100", "1000"},
	}

	n := NewNormalizer(nil, 5)
	assert.Equal(t, 2, n.detectHeaderRow(rows))
}

func TestDetectHeaderRowDefaultsToSecondRow(t *testing.T) {
	n := NewNormalizer(nil, 5)
	assert.Equal(t, 1, n.detectHeaderRow(agingRawRows()))
}

func TestNormalizeEmptyInput(t *testing.T) {
	_, err := NewNormalizer(nil, 5).Normalize(nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInputRejected))

	_, err = NewNormalizer(nil, 5).Normalize([][]string{{"only masthead"}})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInputRejected))
}

func TestCleanColumnNames(t *testing.T) {
	cleaned := cleanColumnNames([]string{" Cari  Ünvan\r", "", "8-14\nGün"})
	assert.Equal(t, "Cari Ünvan", cleaned[0])
	assert.Equal(t, "Column_2", cleaned[1])
	assert.Equal(t, "8-14 Gün", cleaned[2])
}

func TestFindKeyColumnFallbacks(t *testing.T) {
	assert.Equal(t, 1, findKeyColumn(NewSheet([]string{"X", "Cari Ünvan"}, nil)))
	assert.Equal(t, 1, findKeyColumn(NewSheet([]string{"X", "Müşteri Adı"}, nil)))
	assert.Equal(t, 0, findKeyColumn(NewSheet([]string{"Whatever"}, nil)))
}
