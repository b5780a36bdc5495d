// Package stats accumulates per-key min/mean/max and merges partial results.
package stats

// RunningStats summarises every value seen for one key. Sum is the exact
// running total; the mean is derived on demand.
type RunningStats struct {
	Min   float64
	Max   float64
	Sum   float64
	Count uint64
}

func newRunningStats(v float64) RunningStats {
	return RunningStats{Min: v, Max: v, Sum: v, Count: 1}
}

// Add folds one value in.
func (s *RunningStats) Add(v float64) {
	s.Min = min(s.Min, v)
	s.Max = max(s.Max, v)
	s.Sum += v
	s.Count++
}

// Merge folds another summary of the same key in.
func (s *RunningStats) Merge(o RunningStats) {
	s.Min = min(s.Min, o.Min)
	s.Max = max(s.Max, o.Max)
	s.Sum += o.Sum
	s.Count += o.Count
}

func (s RunningStats) Mean() float64 {
	return s.Sum / float64(s.Count)
}
