// Package tutor runs the per-frame practice loop: extract finger positions,
// match them against the chord library, and score them against the target.
package tutor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ayusman/fretwise/internal/chord"
	"github.com/ayusman/fretwise/internal/detector"
	"github.com/ayusman/fretwise/internal/fretboard"
)

// Feedback bands, as shown on the accuracy bar.
const (
	BandGood = "good"
	BandFair = "fair"
	BandPoor = "poor"
)

// Frame is everything needed to evaluate one video frame.
type Frame struct {
	Hands  []detector.HandLandmarks
	Width  float64
	Height float64
	// Target overrides the tutor's selected chord for this frame when set.
	Target string
}

// Source produces frames, e.g. a camera paired with a hand detector.
type Source interface {
	NextFrame(ctx context.Context) (Frame, error)
}

// Result is the observable outcome of one frame. It never refers back to an
// earlier frame.
type Result struct {
	FrameID   string               `json:"frame_id"`
	Timestamp int64                `json:"timestamp"`
	Target    string               `json:"target"`
	Detected  string               `json:"detected,omitempty"`
	Matched   bool                 `json:"matched"`
	Positions []fretboard.Position `json:"positions"`
	Missing   []fretboard.Position `json:"missing"`
	Accuracy  float64              `json:"accuracy"`
	Complete  bool                 `json:"complete"`
}

// Band buckets the accuracy: good from 80, fair from 50, poor below.
func (r Result) Band() string {
	switch {
	case r.Accuracy >= 80:
		return BandGood
	case r.Accuracy >= 50:
		return BandFair
	default:
		return BandPoor
	}
}

// Tutor holds the chord library, the fretboard layout and the selected
// target. Evaluate may be called from several goroutines at once: each call
// reads the current library and layout once and shares nothing else.
type Tutor struct {
	library   atomic.Pointer[chord.Library]
	extractor atomic.Pointer[fretboard.Extractor]

	mu     sync.RWMutex
	target string
}

// New creates a Tutor. The target must be in the library.
func New(lib *chord.Library, layout fretboard.Layout, target string) (*Tutor, error) {
	if lib == nil {
		return nil, fmt.Errorf("nil chord library")
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if !lib.Has(target) {
		return nil, fmt.Errorf("%w: %q", chord.ErrUnknownChord, target)
	}

	t := &Tutor{target: target}
	t.library.Store(lib)
	t.extractor.Store(fretboard.NewExtractor(layout))
	return t, nil
}

// Library returns the library snapshot currently in use.
func (t *Tutor) Library() *chord.Library {
	return t.library.Load()
}

// SetLibrary swaps in a new library. Frames already being evaluated finish
// with the old one. The target is left alone even if the new library lacks
// it; it then scores 0 until changed.
func (t *Tutor) SetLibrary(lib *chord.Library) {
	if lib == nil {
		return
	}
	t.library.Store(lib)
}

// Layout returns the fretboard layout in use.
func (t *Tutor) Layout() fretboard.Layout {
	return t.extractor.Load().Layout
}

// SetLayout changes where the fretboard sits on the canvas.
func (t *Tutor) SetLayout(layout fretboard.Layout) error {
	if err := layout.Validate(); err != nil {
		return err
	}
	t.extractor.Store(fretboard.NewExtractor(layout))
	return nil
}

// Target returns the selected chord name.
func (t *Tutor) Target() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.target
}

// SetTarget selects the chord to practise. Unknown names are rejected.
func (t *Tutor) SetTarget(name string) error {
	if !t.library.Load().Has(name) {
		return fmt.Errorf("%w: %q", chord.ErrUnknownChord, name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.target = name
	return nil
}

// Evaluate runs one frame through extraction, matching and scoring.
// Bad hand data never fails a frame; it just contributes no positions.
func (t *Tutor) Evaluate(frame Frame) Result {
	lib := t.library.Load()
	ext := t.extractor.Load()

	target := frame.Target
	if target == "" {
		target = t.Target()
	}

	positions := ext.Extract(frame.Hands, frame.Width, frame.Height)
	assessment := lib.Assess(positions, target)

	return Result{
		FrameID:   ulid.Make().String(),
		Timestamp: time.Now().UnixMilli(),
		Target:    target,
		Detected:  assessment.Detected,
		Matched:   assessment.Matched,
		Positions: nonNil(positions),
		Missing:   nonNil(assessment.Missing),
		Accuracy:  assessment.Accuracy,
		Complete:  assessment.Accuracy == 100,
	}
}

// Step pulls one frame from src and evaluates it.
func (t *Tutor) Step(ctx context.Context, src Source) (Result, error) {
	frame, err := src.NextFrame(ctx)
	if err != nil {
		return Result{}, err
	}
	return t.Evaluate(frame), nil
}

func nonNil(p []fretboard.Position) []fretboard.Position {
	if p == nil {
		return []fretboard.Position{}
	}
	return p
}
