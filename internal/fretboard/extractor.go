package fretboard

import "github.com/ayusman/fretwise/internal/detector"

// Extractor turns the hands of one frame into finger positions.
// It holds no per-frame state and is safe for concurrent use.
type Extractor struct {
	Layout     Layout
	Classifier Classifier
}

// NewExtractor creates an Extractor with the given layout and the default classifier.
func NewExtractor(layout Layout) *Extractor {
	return &Extractor{
		Layout:     layout,
		Classifier: DefaultClassifier(),
	}
}

// Extract returns one Position per (hand, finger) that presses inside the
// fretboard region of a width x height canvas.
//
// Fingers are identified by landmark slot alone, so hands are not told apart:
// positions from every hand are appended to one list, duplicates included.
// Hands with non-finite landmarks are skipped.
func (e *Extractor) Extract(hands []detector.HandLandmarks, width, height float64) []Position {
	region := e.Layout.Region(width, height)
	if region.Validate() != nil {
		return nil
	}

	var positions []Position
	for i := range hands {
		hand := &hands[i]
		if !hand.Valid() {
			continue
		}

		for f := 0; f < NumFingers; f++ {
			tip, base := hand.Fingertip(f)
			if !e.Classifier.Pressing(tip, base) {
				continue
			}

			cell, ok := region.Locate(Point2D{X: tip.X * width, Y: tip.Y * height})
			if !ok {
				continue
			}

			positions = append(positions, Position{
				Finger: Finger(f + 1),
				String: cell.String,
				Fret:   cell.Fret,
			})
		}
	}

	return positions
}
