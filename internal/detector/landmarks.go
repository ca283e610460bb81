// Package detector provides hand detection interfaces and the landmark schema
// shared by every hand-tracking source.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// FingertipIndices lists the tips of the four fretting fingers, index to pinky.
var FingertipIndices = [4]int{IndexTip, MiddleTip, RingTip, PinkyTip}

// BaseIndices lists the knuckle (MCP) joint paired with each entry of FingertipIndices.
var BaseIndices = [4]int{IndexMCP, MiddleMCP, RingMCP, PinkyMCP}

// Point3D is a single landmark. X and Y are normalized to [0,1] of the frame,
// Z is relative depth (more negative is closer to the camera) and is only
// comparable within the same hand and frame.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// IsFinite reports whether all three coordinates are real numbers.
func (p Point3D) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) &&
		!math.IsNaN(p.Z) && !math.IsInf(p.Z, 0)
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Valid reports whether every landmark of the hand has finite coordinates.
func (h *HandLandmarks) Valid() bool {
	if h == nil {
		return false
	}
	for _, p := range h.Points {
		if !p.IsFinite() {
			return false
		}
	}
	return true
}

// Fingertip returns the tip and base landmarks of fretting finger i
// (0 = index .. 3 = pinky).
func (h *HandLandmarks) Fingertip(i int) (tip, base Point3D) {
	return h.Points[FingertipIndices[i]], h.Points[BaseIndices[i]]
}
