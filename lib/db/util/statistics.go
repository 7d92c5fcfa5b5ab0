// This file implements the size histogram and distribution statistics used by
// maple's GetInfo. Sizes are bucketed exponentially so that a small, fixed
// number of counters covers values from a few bytes to gigabytes.
package util

import (
	"math"
	"sort"
	"sync"
)

// ----------------------------------------------------------------------------
// Stats
// ----------------------------------------------------------------------------

type Stats struct {
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// NewStats computes mean, population standard deviation, min and max of values
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	s := Stats{Min: values[0], Max: values[0]}
	var sum float64
	for _, v := range values {
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = sum / float64(len(values))

	var squares float64
	for _, v := range values {
		squares += (v - s.Mean) * (v - s.Mean)
	}
	s.StdDeviation = math.Sqrt(squares / float64(len(values)))

	s.MinMaxRatio = 1
	if s.Max > 0 {
		s.MinMaxRatio = s.Min / s.Max
	}
	return s
}

type DistributionStats struct {
	Stats
	DistributionQuality float64 `json:"distribution_quality"`
}

// NewDistributionStats rates how evenly entries are spread over shards.
// Quality is 1 for a perfect spread and approaches 0 for a skewed one.
func NewDistributionStats(shardSizes []float64) DistributionStats {
	stats := NewStats(shardSizes)

	var cv float64
	if stats.Mean > 0 {
		cv = stats.StdDeviation / stats.Mean
	}

	return DistributionStats{
		Stats:               stats,
		DistributionQuality: (1.0-math.Min(1.0, cv))*0.5 + stats.MinMaxRatio*0.5,
	}
}

// ----------------------------------------------------------------------------
// SizeHistogram
// ----------------------------------------------------------------------------

// bucketBounds are the inclusive upper bounds of all but the last bucket
var bucketBounds = []int{
	16, 64, 256, 1024, 4096,
	16384, 65536, 262144, 1048576,
	4194304, 16777216, 67108864,
	268435456, 1073741824, 4294967296,
}

// SizeHistogram tracks the distribution of value sizes.
//
// Thread-safety: All methods are safe for concurrent use.
type SizeHistogram struct {
	mu      sync.Mutex
	buckets [16]int64
	count   int64
	sum     int64
}

func NewSizeHistogram() *SizeHistogram {
	return &SizeHistogram{}
}

// AddSample records one value of the given size
func (h *SizeHistogram) AddSample(size int) {
	idx := sort.SearchInts(bucketBounds, size)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.buckets[idx]++
	h.count++
	h.sum += int64(size)
}

// Count returns the number of samples
func (h *SizeHistogram) Count() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// AverageSize returns the mean sample size
func (h *SizeHistogram) AverageSize() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 {
		return 0
	}
	return int(h.sum / h.count)
}

// PercentileEstimate estimates the given percentile (0-100) from the bucket
// the percentile falls into.
func (h *SizeHistogram) PercentileEstimate(percentile int) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 || percentile < 0 || percentile > 100 {
		return 0
	}

	target := int64(math.Ceil(float64(h.count) * float64(percentile) / 100.0))
	var cumulative int64
	for i, n := range h.buckets {
		cumulative += n
		if cumulative < target {
			continue
		}
		switch {
		case i == 0:
			return bucketBounds[0] / 2
		case i < len(bucketBounds):
			return (bucketBounds[i-1] + bucketBounds[i]) / 2
		default:
			return bucketBounds[len(bucketBounds)-1] * 2
		}
	}
	return int(h.sum / h.count)
}

// MedianEstimate is PercentileEstimate(50)
func (h *SizeHistogram) MedianEstimate() int {
	return h.PercentileEstimate(50)
}
