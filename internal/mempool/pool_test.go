package mempool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClass(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"zero size", 0, 1024},
		{"negative size", -1, 1024},
		{"small size gets minimum", 1, 1024},
		{"exactly 1024", 1024, 1024},
		{"just over 1024", 1025, 2048},
		{"odd number", 1500, 2048},
		{"large size", 10000, 10240},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sizeClass(tt.input))
		})
	}
}

func TestGetInt_ZeroedAfterReuse(t *testing.T) {
	buf := GetInt(500)
	require.Len(t, buf, 500)
	for i := range buf {
		buf[i] = i + 1
	}
	PutInt(buf)

	again := GetInt(700)
	require.Len(t, again, 700)
	for _, v := range again {
		assert.Zero(t, v)
	}
	PutInt(again)
}

func TestGetBool_ZeroedAfterReuse(t *testing.T) {
	buf := GetBool(3000)
	require.Len(t, buf, 3000)
	assert.GreaterOrEqual(t, cap(buf), 3072)
	for i := range buf {
		buf[i] = true
	}
	PutBool(buf)

	again := GetBool(3000)
	for _, v := range again {
		assert.False(t, v)
	}
	PutBool(again)
}

func TestPut_IgnoresNilAndForeignSlices(t *testing.T) {
	assert.NotPanics(t, func() {
		PutInt(nil)
		PutBool(nil)
		PutInt(make([]int, 10))
		PutBool(make([]bool, 1500))
	})
	buf := GetBool(1500)
	assert.Len(t, buf, 1500)
	assert.GreaterOrEqual(t, cap(buf), 2048)
}

func TestConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for range 50 {
				b := GetInt(n)
				for i := range b {
					if b[i] != 0 {
						t.Errorf("dirty buffer at %d", i)
						return
					}
					b[i] = 7
				}
				PutInt(b)
			}
		}(640*480 + g)
	}
	wg.Wait()
}
