package pipeline

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary compares the counts of the methods that succeeded.
type Summary struct {
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	Mean      float64 `json:"mean_count"`
	StdDev    float64 `json:"std_dev"`
	Min       int     `json:"min_count"`
	Max       int     `json:"max_count"`
}

// Summary returns count statistics over the succeeded methods. StdDev is the
// sample standard deviation and is zero with fewer than two succeeded
// methods; all statistics are zero when none succeeded.
func (rs *ResultSet) Summary() Summary {
	var s Summary
	counts := make([]float64, 0, len(rs.Results))
	for _, r := range rs.Results {
		if r.Succeeded() {
			counts = append(counts, float64(r.Count))
		} else {
			s.Failed++
		}
	}
	s.Succeeded = len(counts)
	if len(counts) == 0 {
		return s
	}

	s.Min = int(floats.Min(counts))
	s.Max = int(floats.Max(counts))
	if len(counts) == 1 {
		s.Mean = counts[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(counts, nil)
	return s
}
