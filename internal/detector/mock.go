package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// PressDepth is how far in front of its knuckle a fixture fingertip is placed
// when it presses. Comfortably past the 0.02 contact threshold.
const PressDepth = 0.05

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// FingerPress places one fretting finger (0 = index .. 3 = pinky) at a
// normalized image position, pressing or hovering.
type FingerPress struct {
	Finger  int
	X, Y    float64
	Pressed bool
}

// RestingHand returns a left hand hovering above the fretboard: every
// fingertip sits at the same depth as its knuckle, so nothing presses.
func RestingHand() HandLandmarks {
	hand := HandLandmarks{
		Handedness: "Left",
		Score:      0.95,
	}

	hand.Points[Wrist] = Point3D{X: 0.40, Y: 0.85, Z: 0.0}
	hand.Points[ThumbCMC] = Point3D{X: 0.43, Y: 0.80, Z: -0.01}
	hand.Points[ThumbMCP] = Point3D{X: 0.46, Y: 0.75, Z: -0.02}
	hand.Points[ThumbIP] = Point3D{X: 0.48, Y: 0.70, Z: -0.02}
	hand.Points[ThumbTip] = Point3D{X: 0.50, Y: 0.66, Z: -0.02}

	// Knuckles in a row below the neck, fingers pointing up at it.
	for i := range FingertipIndices {
		x := 0.32 + float64(i)*0.05
		base := FingertipIndices[i] - 3
		hand.Points[base] = Point3D{X: x, Y: 0.72, Z: -0.03}
		hand.Points[base+1] = Point3D{X: x, Y: 0.68, Z: -0.03}
		hand.Points[base+2] = Point3D{X: x, Y: 0.66, Z: -0.03}
		hand.Points[FingertipIndices[i]] = Point3D{X: x, Y: 0.64, Z: -0.03}
	}

	return hand
}

// FrettingHand returns RestingHand with the given fingertips moved to their
// positions. Pressed fingertips are PressDepth closer to the camera than
// their knuckle.
func FrettingHand(presses ...FingerPress) HandLandmarks {
	hand := RestingHand()

	for _, p := range presses {
		if p.Finger < 0 || p.Finger >= len(FingertipIndices) {
			continue
		}
		base := hand.Points[BaseIndices[p.Finger]]
		z := base.Z
		if p.Pressed {
			z -= PressDepth
		}
		hand.Points[FingertipIndices[p.Finger]] = Point3D{X: p.X, Y: p.Y, Z: z}
	}

	return hand
}
