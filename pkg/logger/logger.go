package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is usable before InitLogger runs so packages and tests never see nil.
var Log = newLogger()

// fileWriter is kept so Close can flush the rotating log file on shutdown.
var fileWriter io.WriteCloser

// Options controls level and optional file output.
type Options struct {
	Level      string // logrus level name, default "info"
	File       string // rotating log file; empty logs to stdout only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func newLogger() *logrus.Logger {
	l := logrus.New()

	// Output to stdout instead of the default stderr
	l.Out = os.Stdout

	// Set JSON formatter for structured logging
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// InitLogger resets Log to JSON on stdout at info level.
func InitLogger() {
	Log = newLogger()
}

// Configure applies opts to Log. An unknown level falls back to info.
func Configure(opts Options) {
	InitLogger()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	if opts.File == "" {
		return
	}
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 50
	}
	fileWriter = &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	Log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
}

// Close releases the log file, if any.
func Close() error {
	if fileWriter == nil {
		return nil
	}
	err := fileWriter.Close()
	fileWriter = nil
	return err
}
