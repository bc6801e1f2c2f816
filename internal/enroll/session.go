package enroll

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"faceclock/internal/descriptor"
	"faceclock/internal/extractor"
	"faceclock/internal/matcher"
	"faceclock/models"

	"github.com/google/uuid"
)

// ============================================================
// ENROLLMENT SESSION - center → left → right pose capture
// ============================================================

var (
	ErrSessionExpired = errors.New("enrollment session expired")
	ErrNoSamples      = errors.New("no samples captured")
	// ErrDuplicateFace carries the already-enrolled identity in Duplicate.
	ErrDuplicateFace = errors.New("face already enrolled")
)

// DuplicateError reports which existing worker the new face collided with.
type DuplicateError struct {
	Existing models.MatchResult
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("face already enrolled as %q (worker %d, distance %.3f)",
		e.Existing.WorkerName, e.Existing.WorkerId, e.Existing.Distance)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateFace }

// Sample is one captured pose during registration. Samples live only for
// the session; after averaging, only the result and the center-pose photo
// survive.
type Sample struct {
	Descriptor descriptor.Descriptor
	Pose       extractor.HeadPose
	CropJPEG   []byte
}

// Session is the multi-pose capture state machine. It advances only when
// the extractor reports the pose currently being asked for.
type Session struct {
	Id         string
	WorkerName string

	required []extractor.HeadPose
	samples  []Sample
	deadline time.Time
	canceled bool
	mu       sync.Mutex
}

// NewSession arms a capture sequence. The fast path settles for center and
// left; the full sequence wants all three poses.
func NewSession(cfg models.EnrollConfig, workerName string, now time.Time) *Session {
	required := []extractor.HeadPose{extractor.PoseCenter, extractor.PoseLeft, extractor.PoseRight}
	if cfg.FastPath {
		required = required[:2]
	}
	return &Session{
		Id:         uuid.NewString(),
		WorkerName: workerName,
		required:   required,
		deadline:   now.Add(cfg.SessionDeadline),
	}
}

// RequiredPose is what the attendee should do next; empty when done.
func (s *Session) RequiredPose() extractor.HeadPose {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.samples) >= len(s.required) {
		return ""
	}
	return s.required[len(s.samples)]
}

// Offer feeds one extraction into the sequence. The sample is kept only if
// its pose matches the one currently required. done turns true after the
// final pose lands.
func (s *Session) Offer(ext *extractor.Extraction, now time.Time) (accepted, done bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.canceled {
		return false, false, ErrNoSamples
	}
	if now.After(s.deadline) {
		return false, false, ErrSessionExpired
	}
	if len(s.samples) >= len(s.required) {
		return false, true, nil
	}
	if ext == nil {
		return false, false, nil
	}

	want := s.required[len(s.samples)]
	if ext.HeadPose != want {
		return false, false, nil
	}
	// Center capture must actually be frontal, not merely in the bucket.
	if want == extractor.PoseCenter && !ext.IsFrontal {
		return false, false, nil
	}

	s.samples = append(s.samples, Sample{
		Descriptor: ext.Descriptor,
		Pose:       ext.HeadPose,
		CropJPEG:   ext.CropJPEG,
	})
	return true, len(s.samples) >= len(s.required), nil
}

// Cancel aborts the session and discards everything captured so far.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canceled = true
	s.samples = nil
}

// Expired reports whether the hard deadline passed before completion.
func (s *Session) Expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.After(s.deadline) && len(s.samples) < len(s.required)
}

// ============================================================
// AGGREGATION & DUPLICATE REJECTION
// ============================================================

// Result is what enrollment persists: the averaged descriptor and the
// center-pose photo.
type Result struct {
	Descriptor descriptor.Descriptor
	PhotoJPEG  []byte
}

// Finalize averages the captured descriptors and rejects duplicates
// against the already-enrolled fleet before anything is written.
func (s *Session) Finalize(enrolled []matcher.Candidate, duplicateThreshold float64) (*Result, error) {
	s.mu.Lock()
	samples := s.samples
	s.mu.Unlock()

	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	descs := make([]descriptor.Descriptor, len(samples))
	var photo []byte
	for i, sample := range samples {
		descs[i] = sample.Descriptor
		if sample.Pose == extractor.PoseCenter && photo == nil {
			photo = sample.CropJPEG
		}
	}
	if photo == nil {
		photo = samples[0].CropJPEG
	}

	avg := descriptor.Average(descs)
	if avg.IsZero() {
		return nil, ErrNoSamples
	}

	if dup := matcher.FindBestMatch(avg, enrolled, duplicateThreshold); dup != nil {
		s.Cancel() // hard reject: discard captured samples
		return nil, &DuplicateError{Existing: *dup}
	}

	return &Result{Descriptor: avg, PhotoJPEG: photo}, nil
}
