// Package orchestrator routes inbound messages: it owns users and
// sessions, dispatches turns to the right flow engine, and persists the
// outcome. One inbound message in, one rendered reply out.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tebogo/mathmate/internal/flow"
	"github.com/tebogo/mathmate/internal/store"
)

// ErrValidation is returned when the inbound envelope is missing a
// required field. Distinct from processing failures: nothing was mutated.
var ErrValidation = errors.New("user_identity and message are required")

// Inbound is the neutral envelope the transport collaborator delivers.
type Inbound struct {
	UserIdentity string `json:"user_identity" validate:"required"`
	Message      string `json:"message" validate:"required"`
}

const msgRetry = "Something went wrong on my side. Please send that again, or type *menu* to start over."

const welcomeMenu = "Hi, I'm MathMate! What do you need right now?\n" +
	"1. I'm stressed about maths\n" +
	"2. Build my confidence\n" +
	"3. I have an exam coming up\n" +
	"4. Just practice\n" +
	"Reply with a number, or type *menu* any time to come back here."

// Orchestrator dispatches turns to flow engines and persists the results.
type Orchestrator struct {
	users    store.UserRepo
	sessions store.SessionRepo
	engines  map[store.FlowType]flow.Engine
	locks    *userLocks
	now      func() time.Time
	log      *logrus.Entry
}

// New wires an Orchestrator with one engine per flow family.
func New(users store.UserRepo, sessions store.SessionRepo, deps flow.Deps, log *logrus.Entry) *Orchestrator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	engines := map[store.FlowType]flow.Engine{}
	for _, e := range []flow.Engine{
		flow.NewStress(deps),
		flow.NewConfidence(deps),
		flow.NewExamPrep(deps),
		flow.NewPractice(deps),
	} {
		engines[e.FlowType()] = e
	}

	return &Orchestrator{
		users:    users,
		sessions: sessions,
		engines:  engines,
		locks:    newUserLocks(),
		now:      now,
		log:      log,
	}
}

// HandleMessage processes one inbound message and returns the reply text.
// Only validation failures surface as errors; store and collaborator
// failures degrade to a generic retry message, already logged.
func (o *Orchestrator) HandleMessage(ctx context.Context, in Inbound) (string, error) {
	identity := strings.TrimSpace(in.UserIdentity)
	message := strings.TrimSpace(in.Message)
	if identity == "" || message == "" {
		return "", ErrValidation
	}

	unlock := o.locks.lock(identity)
	defer unlock()

	reply, err := o.turn(ctx, identity, message)
	if errors.Is(err, store.ErrStaleSession) {
		// A concurrent turn won the write race. Re-run once against the
		// fresh state; the duplicate usually collapses into a re-prompt.
		o.log.WithField("identity", identity).Info("stale session write, retrying turn")
		reply, err = o.turn(ctx, identity, message)
	}
	if err != nil {
		o.log.WithError(err).WithField("identity", identity).Error("turn failed")
		return msgRetry, nil
	}
	return reply, nil
}

// turn runs a single attempt at the message against current persisted
// state.
func (o *Orchestrator) turn(ctx context.Context, identity, message string) (string, error) {
	now := o.now()

	u, created, err := o.users.GetOrCreate(ctx, identity, now)
	if err != nil {
		return "", err
	}

	sess, err := o.sessions.ActiveAny(ctx, u.ID)
	if err != nil {
		return "", err
	}

	if isCancel(message) {
		if sess != nil {
			if err := o.endSession(ctx, sess, now); err != nil {
				return "", err
			}
			o.clearUser(u)
		}
		return welcomeMenu, o.touch(ctx, u, now)
	}

	if sess != nil {
		return o.continueSession(ctx, u, sess, message, now)
	}

	engine, ok := o.routeEntry(message)
	if !ok {
		if created {
			return welcomeMenu, o.touch(ctx, u, now)
		}
		return "I didn't catch that.\n\n" + welcomeMenu, o.touch(ctx, u, now)
	}
	return o.startSession(ctx, u, engine, now)
}

// continueSession advances an active session one step and persists it.
func (o *Orchestrator) continueSession(ctx context.Context, u *store.User, sess *store.Session, message string, now time.Time) (string, error) {
	engine, ok := o.engines[sess.FlowType]
	if !ok {
		// A flow family this build doesn't know. End it and start over.
		o.log.WithField("flow", sess.FlowType).Warn("unknown flow type on active session")
		if err := o.endSession(ctx, sess, now); err != nil {
			return "", err
		}
		o.clearUser(u)
		return welcomeMenu, o.touch(ctx, u, now)
	}

	state := flow.DecodeState(sess.State)
	res, err := engine.Handle(ctx, u, sess, state, message)
	if err != nil {
		return "", err
	}

	encoded, err := res.State.Encode()
	if err != nil {
		return "", err
	}
	sess.State = encoded
	if res.EndSession {
		ended := now
		sess.EndedAt = &ended
	}
	if err := o.sessions.Update(ctx, sess); err != nil {
		return "", err
	}

	if res.ClearUser {
		o.clearUser(u)
	}
	return res.Reply, o.touch(ctx, u, now)
}

// startSession opens a new session for the routed flow.
func (o *Orchestrator) startSession(ctx context.Context, u *store.User, engine flow.Engine, now time.Time) (string, error) {
	res, err := engine.Start(ctx, u)
	if err != nil {
		return "", err
	}

	encoded, err := res.State.Encode()
	if err != nil {
		return "", err
	}
	sess := &store.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		FlowType:  engine.FlowType(),
		StartedAt: now,
		State:     encoded,
	}
	if res.EndSession {
		ended := now
		sess.EndedAt = &ended
	}
	if err := o.sessions.Create(ctx, sess); err != nil {
		return "", err
	}

	u.CurrentMenu = string(engine.FlowType())
	return res.Reply, o.touch(ctx, u, now)
}

// endSession stamps the session ended with an optimistic version check.
func (o *Orchestrator) endSession(ctx context.Context, sess *store.Session, now time.Time) error {
	ended := now
	sess.EndedAt = &ended
	return o.sessions.Update(ctx, sess)
}

// clearUser resets the user's flow-scoped fields to the welcome state.
// Persisted by the touch at the end of the turn.
func (o *Orchestrator) clearUser(u *store.User) {
	u.CurrentQuestionID = nil
	u.CurrentMenu = "welcome"
}

// touch persists the user's activity timestamp along with any other
// fields the turn changed.
func (o *Orchestrator) touch(ctx context.Context, u *store.User, now time.Time) error {
	u.LastActiveAt = now
	return o.users.Update(ctx, u)
}

// isCancel matches the generic escape commands that work at any step.
func isCancel(message string) bool {
	switch strings.ToLower(strings.TrimSpace(message)) {
	case "menu", "stop", "cancel", "exit":
		return true
	}
	return false
}

// routeEntry maps fresh input onto a flow family.
func (o *Orchestrator) routeEntry(message string) (flow.Engine, bool) {
	switch strings.ToLower(strings.TrimSpace(message)) {
	case "1", "stress", "stressed", "panic", "panicking", "help":
		return o.engines[store.FlowStress], true
	case "2", "confidence", "confident":
		return o.engines[store.FlowConfidence], true
	case "3", "exam", "test", "exam prep":
		return o.engines[store.FlowExamPrep], true
	case "4", "practice", "practise", "questions":
		return o.engines[store.FlowPractice], true
	}
	return nil, false
}
