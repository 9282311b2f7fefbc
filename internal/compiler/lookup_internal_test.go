package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		rows, cols, r, c int
		hasCol           bool
		want             int
		ok               bool
	}{
		{"row vector by position", 1, 4, 3, 0, false, 2, true},
		{"column vector by position", 4, 1, 3, 0, false, 2, true},
		{"grid cell", 2, 3, 2, 3, true, 5, true},
		{"zero row of a single row", 1, 3, 0, 2, true, 1, true},
		{"zero column of a single column", 3, 1, 2, 0, true, 1, true},
		{"row outside", 2, 2, 3, 1, true, 0, false},
		{"negative column", 2, 2, 1, -1, true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := offset(tt.rows, tt.cols, tt.r, tt.c, tt.hasCol)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolvePrefersExactNames(t *testing.T) {
	t.Parallel()

	m := map[string]int{"Total": 1, "total": 2}

	key, ok := resolve(m, "total")
	assert.True(t, ok)
	assert.Equal(t, "total", key)

	key, ok = resolve(map[string]int{"Total": 1}, "TOTAL")
	assert.True(t, ok)
	assert.Equal(t, "Total", key)

	_, ok = resolve(m, "sum")
	assert.False(t, ok)
}
