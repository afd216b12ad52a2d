// Package match pairs detected people with detected chairs.
//
// A person counts as sitting on a chair when enough of their box lies on the
// chair's box. Coverage is directional on purpose: a small person fully
// inside a large chair is a perfect sit even though most of the chair is
// uncovered, so plain IoU would under-score exactly the pairs we care about.
package match

import (
	"image"

	"github.com/lastchair/go-vision/detections"
	"github.com/lastchair/go-vision/images"
)

// DefaultMinOverlap is the fraction of the person's box that must lie on the
// chair before the pair is considered at all.
const DefaultMinOverlap = 0.1

// Match is a person paired with the chair they are sitting on.
type Match struct {
	// Person and Chair are the paired detections.
	Person detections.Detection `json:"person"`
	Chair  detections.Detection `json:"chair"`
	// Overlap is the fraction of the person's box covered by the chair.
	Overlap float64 `json:"overlap"`
	// CenterDistance is the distance between the two box centers, in
	// normalized coordinates.
	CenterDistance float32 `json:"centerDistance"`
}

// Best picks the person-chair pair most likely to be an actual sitter.
//
// Every pair is scored by the intersection of the two boxes in pixel space
// divided by the person's box area. Pairs at or below minOverlap are
// discarded. Among the rest the winner has the highest overlap; ties fall
// back to the smaller center distance, then to the more confident person.
//
// Arguments:
// - persons: Person detections, boxes normalized to the frame.
// - chairs: Chair detections, boxes normalized to the frame.
// - width: Frame width in pixels.
// - height: Frame height in pixels.
// - minOverlap: Exclusive lower bound on overlap, e.g. DefaultMinOverlap.
//
// Returns:
// - *Match: The winning pair, or nil when no pair clears minOverlap.
func Best(persons, chairs []detections.Detection, width, height int, minOverlap float64) *Match {
	var best *Match
	for _, person := range persons {
		personRect := person.Box.Rect(width, height)
		personArea := rectArea(personRect)
		if personArea <= 0 {
			continue
		}
		for _, chair := range chairs {
			inter := personRect.Intersect(chair.Box.Rect(width, height))
			overlap := float64(rectArea(inter)) / float64(personArea)
			if overlap <= minOverlap {
				continue
			}
			cand := &Match{
				Person:         person,
				Chair:          chair,
				Overlap:        overlap,
				CenterDistance: images.CenterDistance(person.Box, chair.Box),
			}
			if better(cand, best) {
				best = cand
			}
		}
	}
	return best
}

// better reports whether a beats b. A nil incumbent always loses.
func better(a, b *Match) bool {
	if b == nil {
		return true
	}
	if a.Overlap != b.Overlap {
		return a.Overlap > b.Overlap
	}
	if a.CenterDistance != b.CenterDistance {
		return a.CenterDistance < b.CenterDistance
	}
	return a.Person.Confidence > b.Person.Confidence
}

func rectArea(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}
