package aggregator

import (
	"math"
	"time"

	"scanserver/internal/model"
)

// Rate returns (count-1) events per second over elapsed. The first event
// only opens the window, so it is left out of the numerator. Zero elapsed
// time yields NaN.
func Rate(count int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return math.NaN()
	}
	if count < 1 {
		return 0
	}
	return float64(count-1) / elapsed.Seconds()
}

// RatesFor derives the throughput figures shown next to a ranking.
func RatesFor(timing model.Timing) model.Rates {
	elapsed := time.Duration(timing.ElapsedMs) * time.Millisecond
	return model.Rates{
		Accept: Rate(timing.AcceptedTotal, elapsed),
		Detect: Rate(timing.AcceptedTotal+timing.RejectedTotal, elapsed),
		Scan:   Rate(timing.ScanCount, elapsed),
	}
}
