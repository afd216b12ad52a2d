package detections

import (
	"sort"

	"github.com/lastchair/go-vision/images"
)

// DefaultIoUThreshold is the suppression threshold used when callers have
// no tuned value.
const DefaultIoUThreshold float32 = 0.5

// NMS prunes overlapping detections, greedily keeping the most confident
// box of every cluster.
//
// Candidates are ordered by confidence descending (equal confidences keep
// their input order), then swept: the best remaining box is accepted and
// every unprocessed box overlapping it with IoU strictly above the
// threshold is dropped. Running NMS on its own output returns it unchanged.
//
// Arguments:
// - dets: Candidate detections in any order. Never mutated.
// - iouThreshold: Suppression cutoff; boxes must overlap MORE than this to
//   be dropped.
//
// Returns:
// - []Detection: Survivors in confidence-descending order.
func NMS(dets []Detection, iouThreshold float32) []Detection {
	if len(dets) == 0 {
		return nil
	}

	sorted := make([]Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]Detection, 0, len(sorted))
	suppressed := make([]bool, len(sorted))
	for i := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, sorted[i])
		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] {
				continue
			}
			if images.IoU(sorted[i].Box, sorted[j].Box) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}
