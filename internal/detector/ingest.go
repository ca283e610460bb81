package detector

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteHand is returned for a hand that does not carry exactly NumLandmarks points.
	ErrIncompleteHand = errors.New("incomplete hand")
	// ErrInvalidLandmark is returned for a hand with a NaN or infinite coordinate.
	ErrInvalidLandmark = errors.New("invalid landmark")
)

// RawHand is the loosely typed hand payload produced by external trackers
// (the MediaPipe subprocess or a browser client).
type RawHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

// ToHandLandmarks converts a raw hand into the fixed landmark schema.
func (h RawHand) ToHandLandmarks() (HandLandmarks, error) {
	lm := HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	if len(h.Points) != NumLandmarks {
		return lm, fmt.Errorf("%w: got %d points, want %d", ErrIncompleteHand, len(h.Points), NumLandmarks)
	}

	for i, p := range h.Points {
		if !p.IsFinite() {
			return lm, fmt.Errorf("%w: point %d", ErrInvalidLandmark, i)
		}
		lm.Points[i] = p
	}

	return lm, nil
}

// DecodeHands converts every raw hand it can. Malformed hands are dropped and
// reported in the joined error; well-formed hands are always returned, so a
// caller may use the hands and merely log the error.
func DecodeHands(raw []RawHand) ([]HandLandmarks, error) {
	hands := make([]HandLandmarks, 0, len(raw))
	var errs []error

	for i, h := range raw {
		lm, err := h.ToHandLandmarks()
		if err != nil {
			errs = append(errs, fmt.Errorf("hand %d: %w", i, err))
			continue
		}
		hands = append(hands, lm)
	}

	return hands, errors.Join(errs...)
}
