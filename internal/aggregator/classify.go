package aggregator

import (
	"math"
	"sort"

	"scanserver/internal/model"
)

// clusterWidth is how many standard deviations below the leading count a
// code may fall and still belong to the cluster.
const clusterWidth = 1.5

// Classify ranks the accepted table and decides whether scanning can stop.
// It is a pure function of the table contents.
func Classify(accepted map[string]int, stopCount int) ([]model.Entry, bool) {
	if len(accepted) == 0 {
		return []model.Entry{}, false
	}

	entries := make([]model.Entry, 0, len(accepted))
	counts := make([]int, 0, len(accepted))
	for code, count := range accepted {
		entries = append(entries, model.Entry{Code: code, Count: count, Status: model.StatusWaiting})
		counts = append(counts, count)
	}

	stop := false
	if len(entries) == 1 {
		if entries[0].Count >= stopCount {
			entries[0].Status = model.StatusPerfect
			stop = true
		}
	} else {
		stddev := standardDeviation(counts)
		max := maxOf(counts)

		if stddev > 1 && max >= stopCount {
			cutoff := float64(max) - clusterWidth*stddev

			clusterSize := 0
			for _, e := range entries {
				if float64(e.Count) >= cutoff {
					clusterSize++
				}
			}

			for i := range entries {
				switch {
				case float64(entries[i].Count) < cutoff:
					tier := int(math.Floor(float64(max-entries[i].Count) / stddev))
					entries[i].Status = model.GarbageStatus(tier)
				case clusterSize == 1:
					entries[i].Status = model.StatusSingle
				default:
					entries[i].Status = model.StatusCluster
				}
			}
			stop = clusterSize == 1
		}
	}

	sortEntries(entries)
	return entries, stop
}

// sortEntries orders by count descending, then code ascending.
func sortEntries(entries []model.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Code < entries[j].Code
	})
}

// standardDeviation is the population (ddof=0) standard deviation.
func standardDeviation(values []int) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / n

	variance := 0.0
	for _, v := range values {
		d := float64(v) - mean
		variance += d * d
	}
	return math.Sqrt(variance / n)
}

func maxOf(values []int) int {
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}
