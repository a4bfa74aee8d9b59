package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tebogo/mathmate/internal/difficulty"
	"github.com/tebogo/mathmate/internal/store"
)

// TestStress_HappyPath walks the triage: no grade on file → grade → stress
// level → topic → skippable exam date → plan menu.
func TestStress_HappyPath(t *testing.T) {
	d, s := newTestDeps(t)
	ctx := context.Background()
	e := NewStress(d)

	u := newTestUser(t, s, "stress-1", "")
	sess := newTestSession(u, store.FlowStress)

	res, err := e.Start(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, StepAskGrade, res.State.Step)
	assert.Contains(t, res.Reply, "what grade")

	res, err = e.Handle(ctx, u, sess, res.State, "11")
	require.NoError(t, err)
	assert.Equal(t, StepAskLevel, res.State.Step)
	assert.Equal(t, store.Grade11, u.Grade)
	assert.Contains(t, res.Reply, "1 to 4")

	res, err = e.Handle(ctx, u, sess, res.State, "2")
	require.NoError(t, err)
	assert.Equal(t, StepAskTopic, res.State.Step)
	assert.Equal(t, 2, res.State.PanicLevel)
	assert.Equal(t, 2, sess.PanicLevel)
	assert.Contains(t, res.Reply, "Algebra")

	res, err = e.Handle(ctx, u, sess, res.State, "1")
	require.NoError(t, err)
	assert.Equal(t, StepAskExamDate, res.State.Step)
	assert.Equal(t, "algebra", res.State.Topic)

	res, err = e.Handle(ctx, u, sess, res.State, "skip")
	require.NoError(t, err)
	assert.Equal(t, StepPlan, res.State.Step)
	assert.Nil(t, res.State.ExamDate)
	assert.Contains(t, res.Reply, "1.")
	assert.Contains(t, res.Reply, "2.")
	assert.Contains(t, res.Reply, "3.")
}

func TestStress_GradeSkippedWhenKnown(t *testing.T) {
	d, s := newTestDeps(t)
	e := NewStress(d)

	u := newTestUser(t, s, "stress-2", store.Grade10)

	res, err := e.Start(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, StepAskLevel, res.State.Step)
}

func TestStress_LevelOutOfRangeReprompts(t *testing.T) {
	d, s := newTestDeps(t)
	e := NewStress(d)

	u := newTestUser(t, s, "stress-3", store.Grade10)
	sess := newTestSession(u, store.FlowStress)

	state := State{Step: StepAskLevel, Band: difficulty.BandMedium}
	for _, in := range []string{"7", "0", "high", ""} {
		res, err := e.Handle(context.Background(), u, sess, state, in)
		require.NoError(t, err)
		assert.Equal(t, StepAskLevel, res.State.Step, "input %q must not advance", in)
		assert.Contains(t, res.Reply, "1 to 4")
	}
}

// TestStress_BurstCompletesExactlyOnce answers a full 3-question burst and
// expects the momentum menu exactly at the third answer, with the score
// counting the correct answers.
func TestStress_BurstCompletesExactlyOnce(t *testing.T) {
	d, s := newTestDeps(t)
	ctx := context.Background()
	e := NewStress(d)

	seedBank(t, s, "algebra", difficulty.BandMedium, 4)
	u := newTestUser(t, s, "stress-4", store.Grade11)
	sess := newTestSession(u, store.FlowStress)

	state := State{Step: StepPlan, Band: difficulty.BandMedium, Topic: "algebra"}
	res, err := e.Handle(ctx, u, sess, state, "2")
	require.NoError(t, err)
	assert.Equal(t, StepBurst, res.State.Step)
	assert.Contains(t, res.Reply, "What is 1 + 1?")

	// Two correct, one wrong.
	res, err = e.Handle(ctx, u, sess, res.State, "a")
	require.NoError(t, err)
	assert.Equal(t, StepBurst, res.State.Step)
	assert.NotContains(t, res.Reply, "What next?")

	res, err = e.Handle(ctx, u, sess, res.State, "B")
	require.NoError(t, err)
	assert.Equal(t, StepBurst, res.State.Step)

	res, err = e.Handle(ctx, u, sess, res.State, "A")
	require.NoError(t, err)
	assert.Equal(t, StepMomentumMenu, res.State.Step)
	assert.Contains(t, res.Reply, "You got 2 out of 3.")
	assert.Contains(t, res.Reply, "What next?")
	assert.Equal(t, 2, res.State.Burst.CorrectCount)
}

func TestStress_MomentumLoopsIntoFreshBurst(t *testing.T) {
	d, s := newTestDeps(t)
	ctx := context.Background()
	e := NewStress(d)

	seedBank(t, s, "algebra", difficulty.BandMedium, 6)
	u := newTestUser(t, s, "stress-5", store.Grade11)
	sess := newTestSession(u, store.FlowStress)

	state := State{
		Step:  StepMomentumMenu,
		Band:  difficulty.BandMedium,
		Topic: "algebra",
		Burst: &BurstState{Index: 3, CorrectCount: 3, Size: 3},
	}

	res, err := e.Handle(ctx, u, sess, state, "1")
	require.NoError(t, err)
	assert.Equal(t, StepBurst, res.State.Step)
	assert.Equal(t, 0, res.State.Burst.Index, "score resets on a fresh burst")
	assert.Equal(t, 0, res.State.Burst.CorrectCount)
}

func TestStress_BreakEndsSession(t *testing.T) {
	d, s := newTestDeps(t)
	e := NewStress(d)

	u := newTestUser(t, s, "stress-6", store.Grade11)
	sess := newTestSession(u, store.FlowStress)

	state := State{Step: StepMomentumMenu, Band: difficulty.BandMedium, Topic: "algebra",
		Burst: &BurstState{Index: 3, Size: 3}}
	res, err := e.Handle(context.Background(), u, sess, state, "3")
	require.NoError(t, err)
	assert.True(t, res.EndSession)
	assert.True(t, res.ClearUser)
	assert.Contains(t, res.Reply, "menu")
}

func TestStress_NeedsResetRestarts(t *testing.T) {
	d, s := newTestDeps(t)
	e := NewStress(d)

	u := newTestUser(t, s, "stress-7", store.Grade11)
	sess := newTestSession(u, store.FlowStress)

	res, err := e.Handle(context.Background(), u, sess, State{Step: StepNeedsReset}, "anything")
	require.NoError(t, err)
	assert.Equal(t, StepAskLevel, res.State.Step)
}
