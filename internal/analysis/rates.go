package analysis

import (
	"math"
	"sort"
	"strconv"

	"startupstats/domain/dataset"
)

// Bucket is the success tally for one group of rows
type Bucket struct {
	Key       string
	Count     int
	Successes int
}

// Rate is the share of rows labelled success; NaN for an empty bucket
func (b Bucket) Rate() float64 {
	if b.Count == 0 {
		return math.NaN()
	}
	return float64(b.Successes) / float64(b.Count)
}

// RateTable is a success-rate aggregation. Overall covers exactly the rows
// counted in Buckets, so its rate is the size-weighted mean of theirs.
type RateTable struct {
	Buckets []Bucket
	Overall Bucket
}

// Bucket returns the tally for key
func (r *RateTable) Bucket(key string) (Bucket, bool) {
	for _, b := range r.Buckets {
		if b.Key == key {
			return b, true
		}
	}
	return Bucket{}, false
}

// SuccessRatesByValue groups rows on a numeric column, buckets in
// ascending numeric order. Rows with a missing key or outcome are skipped.
func SuccessRatesByValue(keys, success []float64) *RateTable {
	tallies := make(map[float64]*Bucket)
	var order []float64
	overall := Bucket{Key: "overall"}

	for i, k := range keys {
		if math.IsNaN(k) || math.IsNaN(success[i]) {
			continue
		}
		b, ok := tallies[k]
		if !ok {
			b = &Bucket{Key: strconv.FormatFloat(k, 'f', -1, 64)}
			tallies[k] = b
			order = append(order, k)
		}
		b.Count++
		overall.Count++
		if success[i] == 1 {
			b.Successes++
			overall.Successes++
		}
	}

	sort.Float64s(order)
	table := &RateTable{Overall: overall}
	for _, k := range order {
		table.Buckets = append(table.Buckets, *tallies[k])
	}
	return table
}

// SuccessRatesByCategory groups rows on a categorical column. Buckets
// follow order when given, then any remaining keys lexicographically.
func SuccessRatesByCategory(keys *dataset.Column, success []float64, order []string) *RateTable {
	tallies := make(map[string]*Bucket)
	overall := Bucket{Key: "overall"}

	for i := 0; i < keys.Len(); i++ {
		k, ok := keys.Text(i)
		if !ok || math.IsNaN(success[i]) {
			continue
		}
		b, exists := tallies[k]
		if !exists {
			b = &Bucket{Key: k}
			tallies[k] = b
		}
		b.Count++
		overall.Count++
		if success[i] == 1 {
			b.Successes++
			overall.Successes++
		}
	}

	table := &RateTable{Overall: overall}
	used := make(map[string]bool, len(tallies))
	for _, k := range order {
		if b, ok := tallies[k]; ok && !used[k] {
			table.Buckets = append(table.Buckets, *b)
			used[k] = true
		}
	}
	var rest []string
	for k := range tallies {
		if !used[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		table.Buckets = append(table.Buckets, *tallies[k])
	}
	return table
}
