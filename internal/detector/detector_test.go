package detector

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func completeRawHand() RawHand {
	hand := RestingHand()
	return RawHand{
		Points:     hand.Points[:],
		Handedness: hand.Handedness,
		Score:      hand.Score,
	}
}

func TestRawHand_ToHandLandmarks(t *testing.T) {
	t.Run("complete hand converts", func(t *testing.T) {
		raw := completeRawHand()

		lm, err := raw.ToHandLandmarks()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lm.Points[IndexTip] != raw.Points[IndexTip] {
			t.Errorf("index tip = %+v, want %+v", lm.Points[IndexTip], raw.Points[IndexTip])
		}
		if lm.Handedness != "Left" {
			t.Errorf("expected handedness Left, got %s", lm.Handedness)
		}
	})

	t.Run("short hand is rejected", func(t *testing.T) {
		raw := completeRawHand()
		raw.Points = raw.Points[:17]

		_, err := raw.ToHandLandmarks()
		if !errors.Is(err, ErrIncompleteHand) {
			t.Errorf("expected ErrIncompleteHand, got %v", err)
		}
	})

	t.Run("extra points are rejected", func(t *testing.T) {
		raw := completeRawHand()
		raw.Points = append(raw.Points, Point3D{})

		_, err := raw.ToHandLandmarks()
		if !errors.Is(err, ErrIncompleteHand) {
			t.Errorf("expected ErrIncompleteHand, got %v", err)
		}
	})

	t.Run("NaN coordinate is rejected", func(t *testing.T) {
		raw := completeRawHand()
		points := make([]Point3D, len(raw.Points))
		copy(points, raw.Points)
		points[PinkyTip].Z = math.NaN()
		raw.Points = points

		_, err := raw.ToHandLandmarks()
		if !errors.Is(err, ErrInvalidLandmark) {
			t.Errorf("expected ErrInvalidLandmark, got %v", err)
		}
	})
}

func TestDecodeHands(t *testing.T) {
	good := completeRawHand()
	bad := RawHand{Points: make([]Point3D, 5)}

	hands, err := DecodeHands([]RawHand{bad, good})

	if len(hands) != 1 {
		t.Fatalf("expected 1 surviving hand, got %d", len(hands))
	}
	if !errors.Is(err, ErrIncompleteHand) {
		t.Errorf("expected joined ErrIncompleteHand, got %v", err)
	}

	hands, err = DecodeHands(nil)
	if err != nil {
		t.Errorf("expected no error for no hands, got %v", err)
	}
	if len(hands) != 0 {
		t.Errorf("expected no hands, got %d", len(hands))
	}
}

func TestHandLandmarks_Valid(t *testing.T) {
	hand := RestingHand()
	if !hand.Valid() {
		t.Error("resting hand should be valid")
	}

	hand.Points[RingMCP].X = math.Inf(1)
	if hand.Valid() {
		t.Error("hand with infinite coordinate should be invalid")
	}

	var nilHand *HandLandmarks
	if nilHand.Valid() {
		t.Error("nil hand should be invalid")
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{RestingHand(), FrettingHand()})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
	})
}

func TestRestingHand(t *testing.T) {
	hand := RestingHand()

	for i := range FingertipIndices {
		tip, base := hand.Fingertip(i)
		if tip.Z != base.Z {
			t.Errorf("finger %d: tip z %f should equal base z %f", i, tip.Z, base.Z)
		}
		if tip.Y >= base.Y {
			t.Errorf("finger %d: tip should point up from the knuckle", i)
		}
	}
}

func TestFrettingHand(t *testing.T) {
	hand := FrettingHand(
		FingerPress{Finger: 0, X: 0.5, Y: 0.4, Pressed: true},
		FingerPress{Finger: 2, X: 0.6, Y: 0.5, Pressed: false},
		FingerPress{Finger: 7, X: 0.9, Y: 0.9, Pressed: true},
	)

	tip, base := hand.Fingertip(0)
	if tip.X != 0.5 || tip.Y != 0.4 {
		t.Errorf("index tip at (%f,%f), want (0.5,0.4)", tip.X, tip.Y)
	}
	if math.Abs((base.Z-tip.Z)-PressDepth) > 1e-12 {
		t.Errorf("index tip should be %f in front of its knuckle, got %f", PressDepth, base.Z-tip.Z)
	}

	tip, base = hand.Fingertip(2)
	if tip.Z != base.Z {
		t.Error("hovering ring finger should stay at knuckle depth")
	}

	resting := RestingHand()
	if hand.Points[PinkyTip] != resting.Points[PinkyTip] {
		t.Error("out of range finger index should be ignored")
	}
}

func TestServiceArgs(t *testing.T) {
	args := serviceArgs(DefaultConfig())
	want := []string{
		"--max-hands", "2",
		"--min-detection-confidence", "0.5",
		"--min-tracking-confidence", "0.5",
	}
	if strings.Join(args, " ") != strings.Join(want, " ") {
		t.Errorf("serviceArgs() = %v, want %v", args, want)
	}
}

func TestServiceArgs_AcceptedByScript(t *testing.T) {
	script, err := os.ReadFile(filepath.Join("..", "..", "scripts", "mediapipe_service.py"))
	if err != nil {
		t.Fatalf("read service script: %v", err)
	}

	for _, arg := range serviceArgs(DefaultConfig()) {
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		if !strings.Contains(string(script), `"`+arg+`"`) {
			t.Errorf("script does not declare flag %s", arg)
		}
	}
}
