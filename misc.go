package xirt

import (
	"math"
)

// CorrectRound returns whether every output rounds to its target. Outputs are compared at a
// threshold of 0.5, so this is intended for binary or ordinal outputs.
//
// assumes len(outs) == len(targets)
func CorrectRound(outs, targets []float64) bool {
	for i := range outs {
		var o float64
		if outs[i] > 0.5 {
			o = 1
		}

		if o != math.Round(targets[i]) {
			return false
		}
	}

	return true
}

// TrainUntil returns a function that satisfies TrainArgs.RunCondition, stopping after the given
// number of iterations.
func TrainUntil(maxIterations int) func(int) bool {
	return func(iteration int) bool {
		return iteration < maxIterations
	}
}

// Every returns a function that satisfies TrainArgs.SendStatus or TrainArgs.ShouldTest.
// 'frequency' is in units of iterations
//
// this function is self-explanatory from viewing the source
func Every(frequency int) func(int) bool {
	return func(iteration int) bool {
		return iteration%frequency == 0
	}
}

// EndEvery returns a function that satisfies DataSupplier.BatchEnded, where the batch ends after
// every 'frequency' samples.
func EndEvery(frequency int) func(int) bool {
	return func(iteration int) bool {
		return (iteration+1)%frequency == 0
	}
}
