package utils

import "runtime"

// ParallelFactor is the default number of independent jobs to run at once. On large machines it
// is a quarter of the available processors so one batch does not take them all.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
	quarterProcs := float64(ParallelFactor) * .25
	if quarterProcs > 8 {
		ParallelFactor = int(quarterProcs)
	}
}
