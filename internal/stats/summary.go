package stats

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"slices"

	"golang.org/x/exp/maps"
)

// Summary is the global aggregate: one entry per distinct key in the file.
type Summary map[string]RunningStats

// Add folds a partial result for key in.
func (s Summary) Add(key string, r RunningStats) {
	if cur, ok := s[key]; ok {
		cur.Merge(r)
		s[key] = cur
		return
	}
	s[key] = r
}

// Keys returns the keys in ascending byte order.
func (s Summary) Keys() []string {
	keys := maps.Keys(s)
	slices.Sort(keys)
	return keys
}

// Merge folds partition tables into one Summary. The fold is commutative
// and associative, so the order of tables only affects float rounding of
// the sums. Nil tables are skipped.
func Merge(tables ...*Table) Summary {
	s := make(Summary)
	for _, t := range tables {
		if t == nil {
			continue
		}
		t.Range(s.Add)
	}
	return s
}

// Round rounds half up to one decimal place.
func Round(x float64) float64 {
	r := math.Floor(x*10+0.5) / 10
	if r == 0 {
		// no "-0.0" in the report
		return 0
	}
	return r
}

// Format writes one "key=min/mean/max" line per key, sorted by key.
func Format(w io.Writer, s Summary) error {
	bw := bufio.NewWriter(w)
	for _, k := range s.Keys() {
		v := s[k]
		fmt.Fprintf(bw, "%s=%.1f/%.1f/%.1f\n", k, Round(v.Min), Round(v.Mean()), Round(v.Max))
	}
	return bw.Flush()
}
