package descriptor

import (
	"fmt"

	"faceclock/models"

	"gonum.org/v1/gonum/floats"
)

// ============================================================
// FACE DESCRIPTOR - fixed 128-d embedding vector
// ============================================================

// Descriptor is an immutable face embedding. Every constructor copies its
// input; nothing in the pipeline mutates one after creation.
type Descriptor []float64

var ErrBadDimension = fmt.Errorf("descriptor must have exactly %d dimensions", models.DescriptorDim)

// New validates dimensionality and returns an owned copy.
func New(v []float64) (Descriptor, error) {
	if len(v) != models.DescriptorDim {
		return nil, fmt.Errorf("%w (got %d)", ErrBadDimension, len(v))
	}
	d := make(Descriptor, models.DescriptorDim)
	copy(d, v)
	return d, nil
}

// Zero returns the all-zeros sentinel. Callers must treat it as a failure
// marker, never as a usable descriptor.
func Zero() Descriptor {
	return make(Descriptor, models.DescriptorDim)
}

// IsZero reports whether d is the failure sentinel.
func (d Descriptor) IsZero() bool {
	for _, v := range d {
		if v != 0 {
			return false
		}
	}
	return true
}

// Distance is the Euclidean distance between two descriptors. Mismatched
// lengths are a programming error upstream and reported as +Inf would hide
// it, so they error instead.
func Distance(a, b Descriptor) (float64, error) {
	if len(a) != models.DescriptorDim || len(b) != models.DescriptorDim {
		return 0, ErrBadDimension
	}
	return floats.Distance(a, b, 2), nil
}

// Similarity converts a distance to the display-only [0,1] score.
func Similarity(distance, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	s := 1 - distance/threshold
	if s < 0 {
		return 0
	}
	return s
}

// ============================================================
// AVERAGING
// ============================================================

// Average reduces enrollment samples to one descriptor by elementwise mean.
// One sample passes through unchanged; zero samples yield the zero sentinel.
func Average(samples []Descriptor) Descriptor {
	if len(samples) == 0 {
		return Zero()
	}
	out := make(Descriptor, models.DescriptorDim)
	copy(out, samples[0])
	if len(samples) == 1 {
		return out
	}
	for _, s := range samples[1:] {
		floats.Add(out, s)
	}
	floats.Scale(1/float64(len(samples)), out)
	return out
}
