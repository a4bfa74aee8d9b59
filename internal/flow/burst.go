package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/tebogo/mathmate/internal/evaluator"
	"github.com/tebogo/mathmate/internal/store"
)

// defaultBurstSize is the standard rapid-fire burst length.
const defaultBurstSize = 3

// startBurst initializes burst tracking on the state and serves the first
// question. The bool is false when the bank had nothing to offer; the
// returned reply is then the graceful no-content message.
func (d Deps) startBurst(ctx context.Context, u *store.User, state *State, size int) (string, bool, error) {
	state.Burst = &BurstState{Size: size}
	return d.serveBurstQuestion(ctx, u, state)
}

// serveBurstQuestion picks, persists, and renders the next question for
// the burst. A nil pick is reported as (msgNoContent, false, nil).
func (d Deps) serveBurstQuestion(ctx context.Context, u *store.User, state *State) (string, bool, error) {
	q, err := d.Selector.Next(ctx, state.Topic, Subject, state.Band, state.Burst.UsedIDs)
	if err != nil {
		return "", false, err
	}
	if q == nil {
		return msgNoContent, false, nil
	}
	if err := d.Selector.Serve(ctx, u, q); err != nil {
		return "", false, err
	}
	state.Burst.UsedIDs = append(state.Burst.UsedIDs, q.ID)
	return renderQuestion(q), true, nil
}

// burstTurn grades one burst answer and advances the burst. done reports
// that the final answer of the burst has been graded; the caller appends
// its own follow-up (summary, menu) to the reply.
func (d Deps) burstTurn(ctx context.Context, u *store.User, state *State, input string) (reply string, done bool, err error) {
	v, err := d.recordAnswer(ctx, u, state, input)
	if errors.Is(err, evaluator.ErrQuestionNotFound) {
		// The pinned question vanished (stale reference). Clear it and
		// re-serve without advancing the burst.
		u.CurrentQuestionID = nil
		if uerr := d.Users.Update(ctx, u); uerr != nil {
			return "", false, uerr
		}
		text, ok, serr := d.serveBurstQuestion(ctx, u, state)
		if serr != nil {
			return "", false, serr
		}
		if !ok {
			return text, true, nil
		}
		return "That question is no longer available — here is another one.\n\n" + text, false, nil
	}
	if err != nil {
		return "", false, err
	}

	state.Burst.Index++
	if v.Correct {
		state.Burst.CorrectCount++
	}
	reply = feedbackLine(v.Correct, v.CorrectLetter)

	if state.Burst.Index >= state.Burst.Size {
		return reply, true, nil
	}

	text, ok, err := d.serveBurstQuestion(ctx, u, state)
	if err != nil {
		return "", false, err
	}
	if !ok {
		// Bank ran dry mid-burst: close the burst out gracefully.
		return reply + "\n\n" + text, true, nil
	}
	return reply + "\n\n" + text, false, nil
}

// burstSummary renders the end-of-burst score line.
func burstSummary(b *BurstState) string {
	return fmt.Sprintf("You got %d out of %d.", b.CorrectCount, b.Index)
}
