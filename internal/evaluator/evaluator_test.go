package evaluator

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tebogo/mathmate/internal/difficulty"
	"github.com/tebogo/mathmate/internal/store"
)

func newTestEvaluator(t *testing.T) (*Evaluator, *store.Store) {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	e := New(s.Questions(), s.Responses(), s.Weaknesses(), s.Users(), difficulty.DefaultConfig(), func() time.Time {
		return time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC)
	}, logrus.NewEntry(log))
	return e, s
}

func seedQuestion(t *testing.T, s *store.Store) uint {
	t.Helper()
	q := &store.Question{
		Topic:      "fractions",
		Subject:    "maths",
		Difficulty: difficulty.BandEasy,
		Text:       "1/2 + 1/4 = ?",
		Correct:    "A",
		Active:     true,
		Choices: []store.Choice{
			{Letter: "A", Text: "3/4"},
			{Letter: "B", Text: "2/6", WeaknessTag: "adds-denominators"},
			{Letter: "C", Text: "1/8"},
		},
	}
	require.NoError(t, s.DB().Create(q).Error)
	return q.ID
}

func TestNormalize(t *testing.T) {
	for _, in := range []string{" a ", "a", "A", "\ta\n"} {
		assert.Equal(t, "A", Normalize(in), "input %q", in)
	}
}

func TestEvaluate_NormalizedInputsGradeEqually(t *testing.T) {
	e, s := newTestEvaluator(t)
	id := seedQuestion(t, s)

	for _, in := range []string{" a ", "a", "A"} {
		v, err := e.Evaluate(context.Background(), id, in)
		require.NoError(t, err)
		assert.True(t, v.Correct, "input %q", in)
		assert.Empty(t, v.WeaknessTag)
	}
}

func TestEvaluate_WrongAnswerCarriesDistractorTag(t *testing.T) {
	e, s := newTestEvaluator(t)
	id := seedQuestion(t, s)

	v, err := e.Evaluate(context.Background(), id, "b")
	require.NoError(t, err)
	assert.False(t, v.Correct)
	assert.Equal(t, "adds-denominators", v.WeaknessTag)
}

func TestEvaluate_UntaggedOrUnknownChoiceFallsBackToGeneric(t *testing.T) {
	e, s := newTestEvaluator(t)
	id := seedQuestion(t, s)

	// C exists but has no tag.
	v, err := e.Evaluate(context.Background(), id, "c")
	require.NoError(t, err)
	assert.Equal(t, GenericWeaknessTag, v.WeaknessTag)

	// Z matches no choice at all.
	v, err = e.Evaluate(context.Background(), id, "z")
	require.NoError(t, err)
	assert.Equal(t, GenericWeaknessTag, v.WeaknessTag)
}

func TestEvaluate_MissingQuestion(t *testing.T) {
	e, _ := newTestEvaluator(t)

	_, err := e.Evaluate(context.Background(), 9999, "a")
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestRecord_PersistsAttemptAndWeakness(t *testing.T) {
	e, s := newTestEvaluator(t)
	ctx := context.Background()
	id := seedQuestion(t, s)

	u := &store.User{Identity: "eval-1"}
	require.NoError(t, s.DB().Create(u).Error)

	v, err := e.Evaluate(ctx, id, "b")
	require.NoError(t, err)
	require.NoError(t, e.Record(ctx, u, id, v))

	total, correct, err := s.Responses().Stats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 0, correct)

	list, err := s.Weaknesses().ByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "adds-denominators", list[0].Tag)

	// A correct attempt bumps the question's correctness stat.
	v, err = e.Evaluate(ctx, id, "a")
	require.NoError(t, err)
	require.NoError(t, e.Record(ctx, u, id, v))

	q, err := s.Questions().ByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, q.TimesCorrect)
}

func TestUpdateUserStats(t *testing.T) {
	e, _ := newTestEvaluator(t)

	qid := uint(7)
	u := &store.User{SkillRate: 0.5, StreakCount: 2, CurrentQuestionID: &qid}

	e.UpdateUserStats(u, true)
	assert.InDelta(t, 0.6, u.SkillRate, 1e-9)
	assert.Equal(t, 3, u.StreakCount)
	assert.Nil(t, u.CurrentQuestionID)

	e.UpdateUserStats(u, false)
	assert.InDelta(t, 0.48, u.SkillRate, 1e-9)
	assert.Equal(t, 0, u.StreakCount)
}
