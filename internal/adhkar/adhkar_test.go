package adhkar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in     string
		want   Category
		wantOK bool
	}{
		{"morning", Morning, true},
		{" Evening ", Evening, true},
		{"SLEEP", Sleep, true},
		{"night", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseCategory(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestForCategory(t *testing.T) {
	assert.Len(t, ForCategory(Morning), 4)
	assert.Len(t, ForCategory(Evening), 4)

	sleep := ForCategory(Sleep)
	assert.Len(t, sleep, 5)
	assert.Equal(t, 34, sleep[4].Count)

	assert.Empty(t, ForCategory("night"))
}

func TestForCategoryReturnsCopy(t *testing.T) {
	list := ForCategory(Morning)
	list[0].Count = 999
	assert.Equal(t, 1, ForCategory(Morning)[0].Count)
}

func TestRandomSalawat(t *testing.T) {
	pool := SalawatMessages()
	for i := range pool {
		got := RandomSalawat(func(n int) int {
			assert.Equal(t, len(pool), n)
			return i
		})
		assert.Equal(t, pool[i], got)
	}
	assert.Contains(t, pool, RandomSalawat(nil))
}
