package utils

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiThread(t *testing.T) {
	for _, n := range []int{0, 10, SerialThreshold + 1, 3 * SerialThreshold} {
		counts := make([]int32, n)
		var total int64

		MultiThread(0, n, func(i int) {
			atomic.AddInt32(&counts[i], 1)
			atomic.AddInt64(&total, 1)
		}, 100, 2)

		assert.Equal(t, int64(n), total, "n = %d", n)
		for i, c := range counts {
			if !assert.Equal(t, int32(1), c, "n = %d, index %d", n, i) {
				break
			}
		}
	}
}

func TestMultiThreadOffset(t *testing.T) {
	var sum int64
	MultiThread(5, 5+2*SerialThreshold, func(i int) {
		atomic.AddInt64(&sum, int64(i))
	}, 7, 1)

	end := int64(5 + 2*SerialThreshold)
	assert.Equal(t, (end*(end-1))/2-10, sum)
}
