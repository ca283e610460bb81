package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/fretwise/internal/app"
	"github.com/ayusman/fretwise/internal/config"
	"github.com/ayusman/fretwise/internal/logger"
	"github.com/ayusman/fretwise/internal/server"
	"github.com/ayusman/fretwise/internal/session"
	"github.com/ayusman/fretwise/internal/store"
	"github.com/ayusman/fretwise/internal/tray"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	closer, err := logger.Setup(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.WithError(err).Fatal("failed to set up logging")
	}
	defer closer.Close()

	log.Info("Fretwise - guitar chord tutor")

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.WithError(err).Fatal("failed to create data directory")
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		log.WithError(err).Fatal("failed to initialize store")
	}
	defer st.Close()

	sess, err := session.New(st, session.Defaults{Target: cfg.Target, Layout: cfg.Layout})
	if err != nil {
		log.WithError(err).Fatal("failed to restore session")
	}

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		log.WithField("dir", webDir).Info("serving static files")
	}

	srvCfg := server.Config{
		StaticDir: webDir,
		Session:   sess,
		StreamFPS: cfg.FPS,
		EvalRate:  cfg.EvalRate,
		EvalBurst: cfg.EvalBurst,
	}

	var pipeline *app.App
	if cfg.CameraEnabled {
		pipeline, err = app.New(app.Config{Session: sess, CameraID: cfg.CameraID, FPS: cfg.FPS})
		if err != nil {
			log.WithError(err).Fatal("failed to create pipeline")
		}
		if err := pipeline.Start(); err != nil {
			log.WithError(err).Error("camera unavailable, continuing without live pipeline")
		} else {
			srvCfg.Frames = pipeline.Frames()
		}
		defer pipeline.Close()
	}

	srv := server.New(srvCfg)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if cfg.TrayEnabled {
		t := tray.New(sess)
		if pipeline != nil {
			t.OnToggle(pipeline.SetEnabled)
		}
		t.OnOpen(func() { openBrowser(browserURL(cfg.Addr)) })
		t.OnQuit(stop)
		go func() {
			select {
			case <-ctx.Done():
			case <-errCh:
				stop()
			}
			t.Quit()
		}()
		// systray needs the main thread on macOS.
		t.Run()
	} else {
		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil {
				log.WithError(err).Error("server failed")
			}
		}
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	dataWeb := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWeb); err == nil && info.IsDir() {
		return dataWeb
	}

	return ""
}

// browserURL turns a listen address like ":8080" into a local URL.
func browserURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://localhost:8080"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.WithError(err).WithField("url", url).Warn("failed to open browser")
	}
}
