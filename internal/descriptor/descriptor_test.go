package descriptor

import (
	"math"
	"testing"

	"faceclock/models"
)

func synthetic(seed float64) Descriptor {
	d := make(Descriptor, models.DescriptorDim)
	for i := range d {
		d[i] = math.Sin(seed + float64(i)*0.1)
	}
	return d
}

func TestDistanceSymmetryAndIdentity(t *testing.T) {
	a := synthetic(1)
	b := synthetic(2)

	ab, err := Distance(a, b)
	if err != nil {
		t.Fatalf("Distance(a,b): %v", err)
	}
	ba, err := Distance(b, a)
	if err != nil {
		t.Fatalf("Distance(b,a): %v", err)
	}
	if math.Abs(ab-ba) > 1e-12 {
		t.Errorf("distance not symmetric: %v vs %v", ab, ba)
	}

	aa, err := Distance(a, a)
	if err != nil {
		t.Fatalf("Distance(a,a): %v", err)
	}
	if aa != 0 {
		t.Errorf("Distance(a,a) = %v, want 0", aa)
	}
}

func TestDistanceRejectsBadDimension(t *testing.T) {
	short := make(Descriptor, 64)
	if _, err := Distance(short, synthetic(1)); err == nil {
		t.Error("expected error for 64-d descriptor")
	}
	if _, err := New(make([]float64, 192)); err == nil {
		t.Error("expected error for 192-d input")
	}
}

func TestAverage(t *testing.T) {
	d := synthetic(3)

	single := Average([]Descriptor{d})
	for i := range d {
		if single[i] != d[i] {
			t.Fatalf("Average([d]) differs at %d: %v != %v", i, single[i], d[i])
		}
	}

	double := Average([]Descriptor{d, d})
	for i := range d {
		if math.Abs(double[i]-d[i]) > 1e-12 {
			t.Fatalf("Average([d,d]) differs at %d", i)
		}
	}

	if !Average(nil).IsZero() {
		t.Error("Average(nil) should be the zero sentinel")
	}
}

func TestAverageDoesNotMutateInputs(t *testing.T) {
	a := synthetic(1)
	b := synthetic(2)
	a0, b0 := a[0], b[0]
	Average([]Descriptor{a, b})
	if a[0] != a0 || b[0] != b0 {
		t.Error("Average mutated its inputs")
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		distance, threshold, want float64
	}{
		{0, 0.55, 1},
		{0.55, 0.55, 0},
		{1.1, 0.55, 0}, // clamped
		{0.275, 0.55, 0.5},
		{0.3, 0, 0}, // degenerate threshold
	}
	for _, tt := range tests {
		if got := Similarity(tt.distance, tt.threshold); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%v, %v) = %v, want %v", tt.distance, tt.threshold, got, tt.want)
		}
	}
}
