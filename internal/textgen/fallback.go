package textgen

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// WithFallback runs a generation call under its own timeout and returns the
// model's text, or the supplied fallback when the call errors, times out,
// or produces nothing. It never returns an error: every caller has canned
// copy that is good enough to keep the conversation moving.
func WithFallback(ctx context.Context, g Generator, req Request, fallback string, timeout time.Duration, log *logrus.Entry) string {
	if g == nil {
		return fallback
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := g.Generate(ctx, req)
	if err != nil {
		log.WithError(err).Debug("generation failed, using fallback text")
		return fallback
	}
	if resp.Text == "" {
		return fallback
	}
	return resp.Text
}
