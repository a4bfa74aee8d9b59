// Package flow implements the conversational state machines: stress triage,
// confidence building, exam preparation, and free practice. Each engine is
// a pure function of (persisted state, input) plus its collaborators; all
// durable state lives in the session row between turns.
package flow

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tebogo/mathmate/internal/difficulty"
	"github.com/tebogo/mathmate/internal/evaluator"
	"github.com/tebogo/mathmate/internal/selector"
	"github.com/tebogo/mathmate/internal/store"
	"github.com/tebogo/mathmate/internal/textgen"
)

// Deps bundles the collaborators every engine needs. Everything is
// injected; engines hold no globals and no open resources of their own.
type Deps struct {
	Users     store.UserRepo
	Responses store.ResponseRepo
	Selector  *selector.Selector
	Evaluator *evaluator.Evaluator
	Diff      difficulty.Config

	// Gen may be nil; every call site supplies a static fallback.
	Gen        textgen.Generator
	GenTimeout time.Duration

	Now func() time.Time
	Log *logrus.Entry
}

// Result is one turn's outcome: the reply to render and the state to
// persist. The orchestrator owns the actual writes.
type Result struct {
	Reply string
	State State

	// EndSession marks the session ended after this turn.
	EndSession bool

	// ClearUser resets the user's flow-scoped fields to the welcome state.
	// Set together with EndSession on every exit path.
	ClearUser bool
}

// Engine is one flow family's state machine.
type Engine interface {
	// FlowType identifies the flow family this engine drives.
	FlowType() store.FlowType

	// Start produces the opening reply and initial state for a new
	// session.
	Start(ctx context.Context, u *store.User) (*Result, error)

	// Handle advances the machine one step. sess carries the persisted
	// row so engines can record reportable fields (panic level, exam
	// date); state is the decoded step payload. Input arrives trimmed
	// but otherwise raw.
	Handle(ctx context.Context, u *store.User, sess *store.Session, state State, input string) (*Result, error)
}

// genText asks the model for a blurb, falling back to canned copy on any
// failure. Never errors.
func (d Deps) genText(ctx context.Context, system, prompt, fallback string) string {
	timeout := d.GenTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return textgen.WithFallback(ctx, d.Gen, textgen.Request{
		System:      system,
		Prompt:      prompt,
		MaxTokens:   300,
		Temperature: 0.7,
	}, fallback, timeout, d.Log)
}

// now returns the injected clock, defaulting to time.Now.
func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// initialBand places a learner before a session has its own signal: the
// count-gated bootstrap over lifetime stats. Within the session the
// EMA-driven SelectBand takes over.
func (d Deps) initialBand(ctx context.Context, u *store.User) difficulty.Band {
	total, correct, err := d.Responses.Stats(ctx, u.ID)
	if err != nil {
		d.Log.WithError(err).Warn("response stats unavailable, defaulting band")
		return difficulty.BandMedium
	}
	rate := 0.0
	if total > 0 {
		rate = float64(correct) / float64(total)
	}
	return difficulty.BootstrapBand(rate, total)
}

// recordAnswer grades the user's current question, persists the attempt,
// and folds the result into the user's rate, streak, and the session band.
// A stale current-question reference returns evaluator.ErrQuestionNotFound
// for the caller to recover from.
func (d Deps) recordAnswer(ctx context.Context, u *store.User, state *State, input string) (*evaluator.Verdict, error) {
	if u.CurrentQuestionID == nil {
		return nil, evaluator.ErrQuestionNotFound
	}
	qid := *u.CurrentQuestionID

	v, err := d.Evaluator.Evaluate(ctx, qid, input)
	if err != nil {
		return nil, err
	}
	if err := d.Evaluator.Record(ctx, u, qid, v); err != nil {
		return nil, err
	}
	d.Evaluator.UpdateUserStats(u, v.Correct)
	if !state.PinBand {
		state.Band = d.Diff.SelectBand(u.SkillRate, state.Band)
	}

	if err := d.Users.Update(ctx, u); err != nil {
		return nil, err
	}
	return v, nil
}
