package app

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

// maxErrorLogs bounds how many consecutive frame errors are logged at Warn
// before the pipeline goes quiet until a frame succeeds.
const maxErrorLogs = 3

// runPipeline evaluates one frame per tick until stopCh closes:
//
//  1. read a frame and publish it to the stream buffer
//  2. detect hands, skipping frames while the picture is still
//  3. evaluate the frame against the target chord
//  4. the session hands the result to its listeners (WebSocket, tray)
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		frame, err := a.NextFrame(ctx)
		if errors.Is(err, ErrStillFrame) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			if failures <= maxErrorLogs {
				log.WithError(err).Warn("frame skipped")
			}
			continue
		}
		if failures > 0 {
			log.WithField("skipped", failures).Info("pipeline recovered")
			failures = 0
		}

		if !a.IsEnabled() {
			continue
		}
		a.session.Evaluate(frame)
	}
}
