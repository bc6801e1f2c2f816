package matcher

import (
	"faceclock/internal/descriptor"
	"faceclock/models"
)

// ============================================================
// NEAREST-NEIGHBOR MATCHER
// ============================================================

// Candidate is one enrolled worker eligible for matching.
type Candidate struct {
	WorkerId   int64
	WorkerName string
	Descriptor descriptor.Descriptor
}

// FindBestMatch scans all candidates for the nearest descriptor and accepts
// it only within threshold. Linear O(n·d) on purpose: the fleet is tens to
// low hundreds of workers and an ANN index would be dead weight here.
//
// Candidates with a missing or wrongly-sized descriptor are skipped, never
// fatal. Ties on distance resolve to the lowest worker ID so the result is
// deterministic regardless of slice order.
func FindBestMatch(probe descriptor.Descriptor, candidates []Candidate, threshold float64) *models.MatchResult {
	if len(probe) != models.DescriptorDim {
		return nil
	}

	var best *models.MatchResult
	for _, c := range candidates {
		if len(c.Descriptor) != models.DescriptorDim {
			continue
		}
		d, err := descriptor.Distance(probe, c.Descriptor)
		if err != nil {
			continue
		}
		if best == nil || d < best.Distance || (d == best.Distance && c.WorkerId < best.WorkerId) {
			best = &models.MatchResult{
				WorkerId:   c.WorkerId,
				WorkerName: c.WorkerName,
				Distance:   d,
			}
		}
	}

	if best == nil || best.Distance > threshold {
		return nil
	}
	best.Similarity = descriptor.Similarity(best.Distance, threshold)
	return best
}
