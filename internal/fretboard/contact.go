package fretboard

import "github.com/ayusman/fretwise/internal/detector"

// PressThreshold is how much closer to the camera than its knuckle a
// fingertip must be to count as pressing, in landmark depth units.
const PressThreshold = 0.02

// Classifier decides whether a finger is touching the fretboard plane.
// Each frame is classified on its own; there is no hysteresis.
type Classifier struct {
	Threshold float64
}

// DefaultClassifier returns a Classifier using PressThreshold.
func DefaultClassifier() Classifier {
	return Classifier{Threshold: PressThreshold}
}

// Pressing reports whether tip is more than Threshold in front of base.
// Both landmarks must come from the same hand and frame.
func (c Classifier) Pressing(tip, base detector.Point3D) bool {
	return tip.Z < base.Z-c.Threshold
}

// IsPressing classifies with the default threshold.
func IsPressing(tip, base detector.Point3D) bool {
	return DefaultClassifier().Pressing(tip, base)
}
