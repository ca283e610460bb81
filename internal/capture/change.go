package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frame differencing constants.
const (
	// BlurSize is the Gaussian kernel applied before differencing.
	BlurSize = 21
	// PixelThreshold is the grey-level step that counts a pixel as changed.
	PixelThreshold = 25
	// DefaultChangeThreshold is the percentage of changed pixels that makes
	// a frame worth re-detecting.
	DefaultChangeThreshold = 0.3
	// DefaultMaxSkip caps how many frames in a row may skip detection.
	DefaultMaxSkip = 5
)

// ChangeGate decides whether a frame differs enough from the last detected
// frame to run the hand tracker again. While the picture holds still frames
// are skipped, at most maxSkip in a row.
//
// The baseline only moves when a frame passes the gate, so slow drift still
// accumulates until it crosses the threshold.
type ChangeGate struct {
	threshold float64
	maxSkip  int

	mu       sync.Mutex
	baseline gocv.Mat
	ready    bool
	skipped  int
}

// NewChangeGate creates a gate that passes frames with more than threshold
// percent of pixels changed, and at least every maxSkip+1 frames regardless.
// A maxSkip of 0 passes every frame.
func NewChangeGate(threshold float64, maxSkip int) *ChangeGate {
	if threshold <= 0 {
		threshold = DefaultChangeThreshold
	}
	if maxSkip < 0 {
		maxSkip = 0
	}
	return &ChangeGate{
		threshold: threshold,
		maxSkip:  maxSkip,
		baseline:  gocv.NewMat(),
	}
}

// Pass reports whether frame should be sent to the detector, along with the
// percentage of pixels that changed against the baseline.
func (g *ChangeGate) Pass(frame *gocv.Mat) (bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	blurred := prepare(frame)
	defer blurred.Close()

	if !g.ready || g.baseline.Rows() != blurred.Rows() || g.baseline.Cols() != blurred.Cols() {
		g.rebase(blurred)
		return true, 100
	}

	changed := percentChanged(blurred, g.baseline)
	if changed > g.threshold || g.skipped >= g.maxSkip {
		g.rebase(blurred)
		return true, changed
	}

	g.skipped++
	return false, changed
}

// Reset forgets the baseline so the next frame always passes.
func (g *ChangeGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ready = false
	g.skipped = 0
}

// Close releases the baseline image.
func (g *ChangeGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.baseline.Empty() {
		g.baseline.Close()
		g.baseline = gocv.NewMat()
	}
	g.ready = false
}

func (g *ChangeGate) rebase(blurred gocv.Mat) {
	blurred.CopyTo(&g.baseline)
	g.ready = true
	g.skipped = 0
}

// prepare converts to grey and blurs away sensor noise.
func prepare(frame *gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: BlurSize, Y: BlurSize}, 0, 0, gocv.BorderDefault)
	return blurred
}

func percentChanged(a, b gocv.Mat) float64 {
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a, b, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, PixelThreshold, 255, gocv.ThresholdBinary)

	total := thresh.Rows() * thresh.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(thresh)) / float64(total) * 100.0
}
