// Package app runs the live camera pipeline of the chord tutor.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/fretwise/internal/capture"
	"github.com/ayusman/fretwise/internal/detector"
	"github.com/ayusman/fretwise/internal/session"
	"github.com/ayusman/fretwise/internal/tutor"
)

// Config holds configuration options for the application.
type Config struct {
	Session *session.Session
	// Camera defaults to capture device CameraID.
	Camera   capture.Camera
	CameraID int
	// Detector defaults to MediaPipe, falling back to the mock detector.
	Detector detector.Detector
	FPS      int
	// ChangeThreshold and MaxSkip tune the change gate. Zero values take
	// the capture defaults; a negative MaxSkip detects every frame.
	ChangeThreshold float64
	MaxSkip         int
	Mirror          bool
}

// App reads camera frames, runs hand detection and feeds the session.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	session  *session.Session
	frames   *capture.FrameBuffer
	gate     *capture.ChangeGate

	enabled bool
	mu      sync.RWMutex
	stopCh  chan struct{}
	done    chan struct{}

	// frameMu serialises NextFrame; the gate belongs to it.
	frameMu sync.Mutex
}

// ErrStillFrame is returned by NextFrame for frames the change gate holds
// back. Such frames are streamed but not evaluated.
var ErrStillFrame = errors.New("frame unchanged since last detection")

// New creates a new App. The session is required.
func New(config Config) (*App, error) {
	if config.Session == nil {
		return nil, fmt.Errorf("app: session is required")
	}
	if config.FPS <= 0 {
		config.FPS = capture.DefaultFPS
	}
	if config.MaxSkip == 0 {
		config.MaxSkip = capture.DefaultMaxSkip
	}

	a := &App{
		config:   config,
		camera:   config.Camera,
		detector: config.Detector,
		session:  config.Session,
		frames:   capture.NewFrameBuffer(),
		gate:     capture.NewChangeGate(config.ChangeThreshold, config.MaxSkip),
		enabled:  true,
	}

	if a.camera == nil {
		camCfg := capture.DefaultConfig()
		camCfg.DeviceID = config.CameraID
		camCfg.FPS = config.FPS
		camCfg.Mirror = config.Mirror
		a.camera = capture.NewCamera(camCfg)
	}

	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			a.detector = mp
			log.Info("using MediaPipe hand detection")
		} else {
			log.WithError(err).Warn("MediaPipe not available, using mock detector")
			a.detector = detector.NewMockDetector()
		}
	}

	return a, nil
}

// SetEnabled pauses or resumes evaluation. The camera keeps streaming.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether frames are currently evaluated.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Frames returns the buffer holding the newest JPEG frame, for streaming.
func (a *App) Frames() *capture.FrameBuffer {
	return a.frames
}

// Running reports whether the pipeline goroutine is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Start opens the camera and begins the pipeline. Starting a running app
// is a no-op.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(a.config.FPS)

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	log.WithField("fps", a.config.FPS).Info("detection pipeline started")
	return nil
}

// Stop halts the pipeline and releases the camera. Stop waits for the
// frame in flight to finish.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done

	if err := a.camera.Close(); err != nil {
		log.WithError(err).Error("error closing camera")
	}
	a.gate.Reset()

	log.Info("detection pipeline stopped")
}

// Close stops the pipeline and releases the detector and gate.
func (a *App) Close() error {
	a.Stop()
	a.gate.Close()
	if d := a.Detector(); d != nil {
		return d.Close()
	}
	return nil
}

// NextFrame reads one camera frame, publishes it for streaming and returns
// the hands in it. Frames that barely differ from the last detected one
// return ErrStillFrame without running the detector; no hands carry over
// from earlier frames. NextFrame implements tutor.Source.
func (a *App) NextFrame(ctx context.Context) (tutor.Frame, error) {
	if err := ctx.Err(); err != nil {
		return tutor.Frame{}, err
	}

	a.frameMu.Lock()
	defer a.frameMu.Unlock()

	mat, err := a.camera.ReadFrame()
	if err != nil {
		return tutor.Frame{}, fmt.Errorf("read frame: %w", err)
	}
	defer mat.Close()

	if err := a.frames.Publish(mat); err != nil {
		log.WithError(err).Warn("failed to publish stream frame")
	}

	frame := tutor.Frame{
		Width:  float64(mat.Cols()),
		Height: float64(mat.Rows()),
	}

	pass, changed := a.gate.Pass(mat)
	if !pass {
		return tutor.Frame{}, ErrStillFrame
	}

	d := a.Detector()
	if d == nil {
		return frame, nil
	}
	hands, err := d.Detect(mat)
	if err != nil {
		a.gate.Reset()
		return tutor.Frame{}, fmt.Errorf("detect hands: %w", err)
	}
	log.WithFields(log.Fields{"changed": changed, "hands": len(hands)}).Debug("hands detected")

	frame.Hands = hands
	return frame, nil
}
