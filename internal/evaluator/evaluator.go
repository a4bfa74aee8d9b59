// Package evaluator grades submitted answers and applies the resulting
// bookkeeping: attempt records, per-question stats, weakness counters, and
// the learner's skill rate and streak.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tebogo/mathmate/internal/difficulty"
	"github.com/tebogo/mathmate/internal/store"
)

// ErrQuestionNotFound signals that the question a user is answering no
// longer resolves. Callers clear the dangling reference and re-prompt
// instead of surfacing this to the user.
var ErrQuestionNotFound = errors.New("question not found")

// GenericWeaknessTag is logged for a wrong answer when the chosen
// distractor carries no tag of its own, or the submission matched no
// choice at all.
const GenericWeaknessTag = "general"

// Verdict is the graded outcome of one attempt.
type Verdict struct {
	Correct       bool
	Submitted     string // normalized form of the input
	CorrectLetter string
	WeaknessTag   string // set only on a wrong answer
}

// Evaluator grades answers and persists the follow-on writes.
type Evaluator struct {
	questions  store.QuestionRepo
	responses  store.ResponseRepo
	weaknesses store.WeaknessRepo
	users      store.UserRepo
	cfg        difficulty.Config
	now        func() time.Time
	log        *logrus.Entry
}

// New builds an Evaluator. now may be nil, in which case time.Now is used.
func New(questions store.QuestionRepo, responses store.ResponseRepo, weaknesses store.WeaknessRepo, users store.UserRepo, cfg difficulty.Config, now func() time.Time, log *logrus.Entry) *Evaluator {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Evaluator{
		questions:  questions,
		responses:  responses,
		weaknesses: weaknesses,
		users:      users,
		cfg:        cfg,
		now:        now,
		log:        log,
	}
}

// Normalize maps raw input to the canonical answer form: surrounding
// whitespace stripped, upper-cased. " a ", "a" and "A" all grade the same.
func Normalize(input string) string {
	return strings.ToUpper(strings.TrimSpace(input))
}

// Evaluate grades the submitted answer against the question the user is
// currently pinned to. Pure with respect to the store: no writes happen
// here, so a failed turn can re-grade without double counting.
func (e *Evaluator) Evaluate(ctx context.Context, questionID uint, submitted string) (*Verdict, error) {
	q, err := e.questions.ByID(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("load question %d: %w", questionID, err)
	}
	if q == nil {
		return nil, ErrQuestionNotFound
	}

	norm := Normalize(submitted)
	v := &Verdict{
		Submitted:     norm,
		CorrectLetter: Normalize(q.Correct),
	}
	v.Correct = norm == v.CorrectLetter
	if !v.Correct {
		v.WeaknessTag = weaknessTag(q, norm)
	}
	return v, nil
}

// weaknessTag resolves the misconception label for a wrong answer from the
// distractor the learner picked.
func weaknessTag(q *store.Question, submitted string) string {
	for _, c := range q.Choices {
		if Normalize(c.Letter) == submitted && c.WeaknessTag != "" {
			return c.WeaknessTag
		}
	}
	return GenericWeaknessTag
}

// Record persists the attempt. The response row is the record of truth and
// its failure aborts the turn; stat and weakness updates are best-effort
// and only logged on failure so the user-visible flow keeps moving.
func (e *Evaluator) Record(ctx context.Context, u *store.User, questionID uint, v *Verdict) error {
	err := e.responses.Insert(ctx, &store.Response{
		UserID:     u.ID,
		QuestionID: questionID,
		Submitted:  v.Submitted,
		Correct:    v.Correct,
	})
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}

	if err := e.questions.RecordResult(ctx, questionID, v.Correct); err != nil {
		e.log.WithError(err).WithField("question_id", questionID).
			Warn("question stat update failed")
	}
	if !v.Correct {
		if err := e.weaknesses.Increment(ctx, u.ID, v.WeaknessTag, e.now()); err != nil {
			e.log.WithError(err).WithFields(logrus.Fields{
				"user_id": u.ID,
				"tag":     v.WeaknessTag,
			}).Warn("weakness log failed")
		}
	}
	return nil
}

// UpdateUserStats folds the verdict into the learner's skill rate and
// streak, and clears the answered question. The caller persists the user.
func (e *Evaluator) UpdateUserStats(u *store.User, correct bool) {
	u.SkillRate = e.cfg.UpdateRate(u.SkillRate, correct)
	if correct {
		u.StreakCount++
	} else {
		u.StreakCount = 0
	}
	u.CurrentQuestionID = nil
}
