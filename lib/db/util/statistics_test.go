package util

import (
	"math"
	"testing"
)

func TestNewStats(t *testing.T) {
	s := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})

	if s.Mean != 5 {
		t.Errorf("Expected mean 5, got %f", s.Mean)
	}
	if s.StdDeviation != 2 {
		t.Errorf("Expected std deviation 2, got %f", s.StdDeviation)
	}
	if s.Min != 2 || s.Max != 9 {
		t.Errorf("Expected min 2 and max 9, got %f and %f", s.Min, s.Max)
	}

	if empty := NewStats(nil); empty != (Stats{}) {
		t.Errorf("Expected zero stats for no values, got %+v", empty)
	}
}

func TestDistributionQuality(t *testing.T) {
	even := NewDistributionStats([]float64{10, 10, 10, 10})
	if even.DistributionQuality != 1 {
		t.Errorf("Expected quality 1 for an even spread, got %f", even.DistributionQuality)
	}

	skewed := NewDistributionStats([]float64{0, 0, 0, 40})
	if skewed.DistributionQuality >= even.DistributionQuality {
		t.Errorf("Skewed spread should rate lower, got %f", skewed.DistributionQuality)
	}
}

func TestSizeHistogram(t *testing.T) {
	h := NewSizeHistogram()
	if h.MedianEstimate() != 0 || h.AverageSize() != 0 {
		t.Error("Empty histogram should estimate 0")
	}

	for i := 0; i < 90; i++ {
		h.AddSample(10) // first bucket
	}
	for i := 0; i < 10; i++ {
		h.AddSample(2000) // (1024, 4096] bucket
	}

	if h.Count() != 100 {
		t.Errorf("Expected 100 samples, got %d", h.Count())
	}
	if h.MedianEstimate() != 8 {
		t.Errorf("Expected median estimate 8, got %d", h.MedianEstimate())
	}
	if p := h.PercentileEstimate(95); p != (1024+4096)/2 {
		t.Errorf("Expected p95 estimate %d, got %d", (1024+4096)/2, p)
	}
	if avg := h.AverageSize(); math.Abs(float64(avg-209)) > 1 {
		t.Errorf("Expected average ~209, got %d", avg)
	}
}
