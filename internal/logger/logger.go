// Package logger configures the process-wide logrus logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls Setup.
type Options struct {
	// Level is a logrus level name such as "debug" or "info".
	Level string
	// File, when set, receives a rotated copy of every log line.
	File string
	// Caller adds file:line of the call site to each entry.
	Caller bool
}

// Setup configures the logrus standard logger, which every package logs
// through. The returned closer flushes and closes the log file, if any.
func Setup(opts Options) (io.Closer, error) {
	return configure(logrus.StandardLogger(), opts, os.Stderr)
}

func configure(l *logrus.Logger, opts Options, console io.Writer) (io.Closer, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}
	l.SetLevel(level)

	l.SetFormatter(&formatter.Formatter{
		TimestampFormat: "2006-01-02 15:04:05",
		HideKeys:        false,
		NoColors:        opts.File != "",
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, s[len(s)-1])
		},
	})
	l.SetReportCaller(opts.Caller)

	writers := []io.Writer{console}
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    20,
			MaxAge:     7,
			MaxBackups: 3,
		}
		writers = append(writers, file)
		closer = file
	}

	l.SetOutput(io.MultiWriter(writers...))
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
