package textgen

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// LoggingGenerator is a decorator that records every generation call.
type LoggingGenerator struct {
	inner Generator
	log   *logrus.Entry
}

// WithLogging wraps a Generator with structured logging.
func WithLogging(g Generator, log *logrus.Entry) Generator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &LoggingGenerator{inner: g, log: log}
}

func (l *LoggingGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	fields := logrus.Fields{
		"model":      l.inner.ModelID(),
		"latency_ms": time.Since(start).Milliseconds(),
	}
	if resp != nil {
		fields["input_tokens"] = resp.InputTokens
		fields["output_tokens"] = resp.OutputTokens
	}

	if err != nil {
		l.log.WithFields(fields).WithError(err).Warn("text generation failed")
	} else {
		l.log.WithFields(fields).Debug("text generated")
	}

	return resp, err
}

func (l *LoggingGenerator) ModelID() string {
	return l.inner.ModelID()
}
