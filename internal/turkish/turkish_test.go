package turkish

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpper(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"izmir araç", "İZMİR ARAÇ"},
		{"kesimhane", "KESİMHANE"},
		{"ışık", "IŞIK"},
		{"ARAÇ 06", "ARAÇ 06"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Upper(tt.in), "Upper(%q)", tt.in)
	}
}

func TestLower(t *testing.T) {
	assert.Equal(t, "izmir", Lower("İZMİR"))
	assert.Equal(t, "ışık", Lower("IŞIK"))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Cari Ünvan", "ünvan"))
	assert.True(t, ContainsFold("İZMİR ARAÇ 06", "izmir"))
	assert.False(t, ContainsFold("Toplam Bakiye", "araç"))
}

func TestEqualFold(t *testing.T) {
	assert.True(t, EqualFold("İZMİR", "izmir"))
	assert.False(t, EqualFold("ışık", "isik"))
}

// The analyzer cases cells from a background goroutine while the shell folds
// search terms; the casers must hold up under the race detector.
func TestCasingIsConcurrencySafe(t *testing.T) {
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				assert.Equal(t, "İZMİR ARAÇ 06", Upper("izmir araç 06"))
				assert.Equal(t, "ışık", Lower("IŞIK"))
				assert.True(t, ContainsFold("İZMİR ARAÇ 06", "izmir"))
				assert.True(t, EqualFold("İZMİR", "izmir"))
			}
		}()
	}
	wg.Wait()
}
