// Package utils holds small helpers shared by the operators and optimizers.
package utils

import (
	"runtime"
	"sync"
)

// SerialThreshold is the size of range below which MultiThread does not start any goroutines.
// Most layers in the retention-time models are small enough that the overhead would dominate.
var SerialThreshold = 2048

// MultiThread runs an operation on a range of integers, split across goroutines.
//
// should be run sequentially, not in a separate thread
// designed for use by operators or optimizers in their mass calculations
//
// the range includes 'start' and excludes 'end'. MultiThread assumes that end ≥ start.
//
// 'f' is the function that should be run for each value in the range. It must be safe to call
// concurrently for different values.
// 'opsPerThread' is the number of operations that each goroutine will handle before requesting
// another set
// 'threadsPerCPU' is the number of goroutines created for each CPU
func MultiThread(start, end int, f func(int), opsPerThread, threadsPerCPU int) {
	if end-start < SerialThreshold || opsPerThread >= end-start {
		for i := start; i < end; i++ {
			f(i)
		}
		return
	}

	if opsPerThread < 1 {
		opsPerThread = 1
	}

	numThreads := runtime.NumCPU() * threadsPerCPU
	if numThreads < 1 {
		numThreads = 1
	}

	chunks := make(chan int, numThreads)
	go func() {
		for i := start; i < end; i += opsPerThread {
			chunks <- i
		}
		close(chunks)
	}()

	var wg sync.WaitGroup
	wg.Add(numThreads)
	for thread := 0; thread < numThreads; thread++ {
		go func() {
			defer wg.Done()
			for i := range chunks {
				e := i + opsPerThread
				if e > end {
					e = end
				}

				for ; i < e; i++ {
					f(i)
				}
			}
		}()
	}

	wg.Wait()
}
