package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tebogo/mathmate/internal/difficulty"
	"github.com/tebogo/mathmate/internal/evaluator"
	"github.com/tebogo/mathmate/internal/flow"
	"github.com/tebogo/mathmate/internal/selector"
	"github.com/tebogo/mathmate/internal/store"
	"github.com/tebogo/mathmate/internal/textgen"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *store.Store) {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	log := logrus.NewEntry(logger)

	cfg := difficulty.DefaultConfig()
	now := func() time.Time { return testNow }

	deps := flow.Deps{
		Users:      s.Users(),
		Responses:  s.Responses(),
		Selector:   selector.New(s.Questions(), s.Users(), now, log),
		Evaluator:  evaluator.New(s.Questions(), s.Responses(), s.Weaknesses(), s.Users(), cfg, now, log),
		Diff:       cfg,
		Gen:        textgen.NewMockGenerator(),
		GenTimeout: time.Second,
		Now:        now,
		Log:        log,
	}
	return New(s.Users(), s.Sessions(), deps, log), s
}

func TestHandleMessage_Validation(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.HandleMessage(ctx, Inbound{UserIdentity: "", Message: "hi"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = o.HandleMessage(ctx, Inbound{UserIdentity: "u1", Message: "  "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestHandleMessage_FirstContactShowsWelcome(t *testing.T) {
	o, s := newTestOrchestrator(t)
	ctx := context.Background()

	reply, err := o.HandleMessage(ctx, Inbound{UserIdentity: "27831112222", Message: "hello"})
	require.NoError(t, err)
	assert.Contains(t, reply, "MathMate")
	assert.Contains(t, reply, "1.")

	u, created, err := s.Users().GetOrCreate(ctx, "27831112222", testNow)
	require.NoError(t, err)
	assert.False(t, created, "user was created by the first message")
	assert.Equal(t, testNow, u.LastActiveAt.UTC())
}

func TestHandleMessage_EntryKeywordStartsFlow(t *testing.T) {
	o, s := newTestOrchestrator(t)
	ctx := context.Background()

	reply, err := o.HandleMessage(ctx, Inbound{UserIdentity: "u2", Message: "stressed"})
	require.NoError(t, err)
	assert.Contains(t, reply, "what grade")

	u, _, err := s.Users().GetOrCreate(ctx, "u2", testNow)
	require.NoError(t, err)
	sess, err := s.Sessions().Active(ctx, u.ID, store.FlowStress)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Contains(t, sess.State, "ask_grade")
}

func TestHandleMessage_ConversationAdvances(t *testing.T) {
	o, s := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.HandleMessage(ctx, Inbound{UserIdentity: "u3", Message: "stressed"})
	require.NoError(t, err)

	reply, err := o.HandleMessage(ctx, Inbound{UserIdentity: "u3", Message: "11"})
	require.NoError(t, err)
	assert.Contains(t, reply, "1 to 4")

	reply, err = o.HandleMessage(ctx, Inbound{UserIdentity: "u3", Message: "2"})
	require.NoError(t, err)
	assert.Contains(t, reply, "topic")

	u, _, err := s.Users().GetOrCreate(ctx, "u3", testNow)
	require.NoError(t, err)
	assert.Equal(t, store.Grade11, u.Grade)

	sess, err := s.Sessions().Active(ctx, u.ID, store.FlowStress)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Contains(t, sess.State, "ask_topic")
	assert.Equal(t, 2, sess.PanicLevel)
}

func TestHandleMessage_MenuCancelsActiveSession(t *testing.T) {
	o, s := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.HandleMessage(ctx, Inbound{UserIdentity: "u4", Message: "practice"})
	require.NoError(t, err)

	reply, err := o.HandleMessage(ctx, Inbound{UserIdentity: "u4", Message: "menu"})
	require.NoError(t, err)
	assert.Contains(t, reply, "MathMate")

	u, _, err := s.Users().GetOrCreate(ctx, "u4", testNow)
	require.NoError(t, err)
	sess, err := s.Sessions().ActiveAny(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, sess, "cancel must end the active session")
	assert.Equal(t, "welcome", u.CurrentMenu)
	assert.Nil(t, u.CurrentQuestionID)
}

func TestHandleMessage_UnknownStepResetsFlow(t *testing.T) {
	o, s := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.HandleMessage(ctx, Inbound{UserIdentity: "u5", Message: "practice"})
	require.NoError(t, err)

	u, _, err := s.Users().GetOrCreate(ctx, "u5", testNow)
	require.NoError(t, err)
	sess, err := s.Sessions().ActiveAny(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, sess)

	// Corrupt the persisted step, as an old build would leave behind.
	sess.State = `{"step":"select_avatar"}`
	require.NoError(t, s.Sessions().Update(ctx, sess))

	reply, err := o.HandleMessage(ctx, Inbound{UserIdentity: "u5", Message: "anything"})
	require.NoError(t, err)
	assert.Contains(t, reply, "Which topic", "unknown step restarts the flow, not an error")
}

func TestHandleMessage_StaleWriteRetriesOnce(t *testing.T) {
	o, s := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.HandleMessage(ctx, Inbound{UserIdentity: "u6", Message: "practice"})
	require.NoError(t, err)

	// Make the orchestrator's first write lose the race.
	o.sessions = &staleOnce{SessionRepo: s.Sessions()}

	reply, err := o.HandleMessage(ctx, Inbound{UserIdentity: "u6", Message: "nonsense topic"})
	require.NoError(t, err)
	assert.Contains(t, reply, "pick a topic", "retried turn must still produce the re-prompt")
}

// staleOnce fails the first Update with ErrStaleSession, then delegates.
type staleOnce struct {
	store.SessionRepo
	failed bool
}

func (f *staleOnce) Update(ctx context.Context, sess *store.Session) error {
	if !f.failed {
		f.failed = true
		return store.ErrStaleSession
	}
	return f.SessionRepo.Update(ctx, sess)
}

func TestHandleMessage_StoreFailureRendersRetryMessage(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.HandleMessage(ctx, Inbound{UserIdentity: "u7", Message: "practice"})
	require.NoError(t, err)

	o.sessions = &alwaysFails{}

	reply, err := o.HandleMessage(ctx, Inbound{UserIdentity: "u7", Message: "1"})
	require.NoError(t, err, "processing failures degrade to a message, not an error")
	assert.Contains(t, reply, "menu", "retry message must point at a recoverable command")
}

type alwaysFails struct{}

func (f *alwaysFails) Create(context.Context, *store.Session) error { return assert.AnError }
func (f *alwaysFails) Active(context.Context, uint, store.FlowType) (*store.Session, error) {
	return nil, assert.AnError
}
func (f *alwaysFails) ActiveAny(context.Context, uint) (*store.Session, error) {
	return nil, assert.AnError
}
func (f *alwaysFails) Update(context.Context, *store.Session) error { return assert.AnError }
