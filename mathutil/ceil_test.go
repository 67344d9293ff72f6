package mathutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xeptore/sadl/mathutil"
)

func TestCeilInts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b, want int64
	}{
		{a: 0, b: 3, want: 0},
		{a: 9, b: 3, want: 3},
		{a: 10, b: 3, want: 4},
		{a: 1, b: 1000, want: 1},
		{a: -10, b: 3, want: -3},
		{a: 10, b: -3, want: -3},
		{a: -10, b: -3, want: 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mathutil.CeilInts(tt.a, tt.b), "CeilInts(%d, %d)", tt.a, tt.b)
	}

	assert.Equal(t, uint8(2), mathutil.CeilInts[uint8](3, 2))
}
