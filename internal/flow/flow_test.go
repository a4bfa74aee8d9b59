package flow

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/tebogo/mathmate/internal/difficulty"
	"github.com/tebogo/mathmate/internal/evaluator"
	"github.com/tebogo/mathmate/internal/selector"
	"github.com/tebogo/mathmate/internal/store"
	"github.com/tebogo/mathmate/internal/textgen"
)

// testNow is the fixed clock all flow tests run under.
var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestDeps(t *testing.T) (Deps, *store.Store) {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	log := logrus.NewEntry(logger)

	cfg := difficulty.DefaultConfig()
	now := func() time.Time { return testNow }

	d := Deps{
		Users:      s.Users(),
		Responses:  s.Responses(),
		Selector:   selector.New(s.Questions(), s.Users(), now, log),
		Evaluator:  evaluator.New(s.Questions(), s.Responses(), s.Weaknesses(), s.Users(), cfg, now, log),
		Diff:       cfg,
		Gen:        textgen.NewMockGenerator(), // empty queue: every AI call takes the fallback
		GenTimeout: time.Second,
		Now:        now,
		Log:        log,
	}
	return d, s
}

func newTestUser(t *testing.T, s *store.Store, identity, grade string) *store.User {
	t.Helper()
	u, _, err := s.Users().GetOrCreate(context.Background(), identity, testNow)
	require.NoError(t, err)
	if grade != "" {
		u.Grade = grade
		require.NoError(t, s.Users().Update(context.Background(), u))
	}
	return u
}

func newTestSession(u *store.User, flow store.FlowType) *store.Session {
	return &store.Session{ID: "test-session", UserID: u.ID, FlowType: flow, StartedAt: testNow}
}

// seedBank creates n active questions with correct answer A.
func seedBank(t *testing.T, s *store.Store, topic string, band difficulty.Band, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		q := &store.Question{
			Topic:      topic,
			Subject:    Subject,
			Difficulty: band,
			Text:       "What is 1 + 1?",
			Correct:    "A",
			Active:     true,
			Choices: []store.Choice{
				{Letter: "A", Text: "2"},
				{Letter: "B", Text: "3", WeaknessTag: "off-by-one"},
			},
		}
		require.NoError(t, s.DB().Create(q).Error)
	}
}
