package logger

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
)

var (
	log      = logrus.New()
	mediaLog = zerolog.Nop()
)

func Init(level string) {
	log = logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z",
	})

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	mediaLog = newMediaLogger(log.WriterLevel(logrus.WarnLevel))
}

func newMediaLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(zerolog.WarnLevel).With().Str("component", "ffmpeg").Logger()
}

// MediaContext attaches the ffmpeg subprocess logger to ctx. The ffmpeg helpers
// read their logger from the context, so their stderr ends up in the same
// JSON stream as everything else.
func MediaContext(ctx context.Context) context.Context {
	return mediaLog.WithContext(ctx)
}

func Debug(args ...interface{}) {
	log.Debug(args...)
}

func Info(args ...interface{}) {
	log.Info(args...)
}

func Warn(args ...interface{}) {
	log.Warn(args...)
}

func Error(args ...interface{}) {
	log.Error(args...)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return log.WithFields(fields)
}
