package flow

import (
	"context"
	"fmt"

	"github.com/tebogo/mathmate/internal/store"
)

// Stress is the panic-triage flow: capture how bad it is, pick a topic,
// offer a short rescue plan, then build momentum with question bursts.
type Stress struct {
	Deps
}

// NewStress builds the stress-flow engine.
func NewStress(d Deps) *Stress { return &Stress{Deps: d} }

func (e *Stress) FlowType() store.FlowType { return store.FlowStress }

const stressOpening = "I hear you — maths stress is real, and we can work through it together."

const stressLevelPrompt = "First, how stressed are you right now?\n" +
	"1. A bit uneasy\n" +
	"2. Worried\n" +
	"3. Really anxious\n" +
	"4. Full panic\n" +
	"Reply with a number from 1 to 4."

const stressExamDatePrompt = "When is the test or exam you're worried about? Reply with a date (like *tomorrow* or *12 June*), or *skip* if there isn't one."

const stressPlanMenu = "Here's a short rescue plan:\n" +
	"1. A 2-minute calm-down lesson\n" +
	"2. Straight into 3 quick questions\n" +
	"3. Not right now\n" +
	"Reply 1, 2 or 3."

const stressMomentumMenu = "What next?\n" +
	"1. Keep going (3 more questions)\n" +
	"2. Switch topic\n" +
	"3. Take a break\n" +
	"4. Remind me tonight\n" +
	"Reply 1, 2, 3 or 4."

func (e *Stress) Start(ctx context.Context, u *store.User) (*Result, error) {
	state := State{Band: e.initialBand(ctx, u)}

	if u.Grade == "" {
		state.Step = StepAskGrade
		return &Result{
			Reply: stressOpening + "\n\n" + gradePrompt,
			State: state,
		}, nil
	}

	state.Step = StepAskLevel
	return &Result{
		Reply: stressOpening + "\n\n" + stressLevelPrompt,
		State: state,
	}, nil
}

func (e *Stress) Handle(ctx context.Context, u *store.User, sess *store.Session, state State, input string) (*Result, error) {
	switch state.Step {
	case StepAskGrade:
		grade, ok := parseGrade(input)
		if !ok {
			return &Result{Reply: gradeReprompt, State: state}, nil
		}
		u.Grade = grade
		if err := e.Users.Update(ctx, u); err != nil {
			return nil, err
		}
		state.Step = StepAskLevel
		return &Result{Reply: stressLevelPrompt, State: state}, nil

	case StepAskLevel:
		level, ok := parseChoice(input, 4)
		if !ok {
			return &Result{Reply: "Please reply with a number from 1 to 4.\n\n" + stressLevelPrompt, State: state}, nil
		}
		state.PanicLevel = level
		sess.PanicLevel = level
		state.Step = StepAskTopic
		return &Result{
			Reply: "Got it. Deep breath — we'll take this one step at a time.\n\nWhich topic is stressing you most?\n" + topicMenu(),
			State: state,
		}, nil

	case StepAskTopic:
		topic, ok := parseTopic(input)
		if !ok {
			return &Result{Reply: "Please pick a topic from the list:\n" + topicMenu(), State: state}, nil
		}
		state.Topic = topic
		state.Step = StepAskExamDate
		return &Result{Reply: stressExamDatePrompt, State: state}, nil

	case StepAskExamDate:
		if !isSkip(input) {
			when, ok := parseExamDate(input, e.now())
			if !ok {
				return &Result{Reply: "I couldn't read that date. Try something like *tomorrow* or *12 June*, or reply *skip*.", State: state}, nil
			}
			state.ExamDate = &when
			sess.ExamDate = &when
		}
		state.Step = StepPlan
		return &Result{Reply: stressPlanMenu, State: state}, nil

	case StepPlan:
		choice, ok := parseChoice(input, 3)
		if !ok {
			return &Result{Reply: "Please reply 1, 2 or 3.\n\n" + stressPlanMenu, State: state}, nil
		}
		switch choice {
		case 1:
			state.Step = StepMicroModule
			lesson := e.genText(ctx,
				"You are a calm, encouraging maths tutor. Keep it under 80 words, plain text.",
				fmt.Sprintf("Write a 2-minute calm-down mini lesson on %s for a stressed grade %s learner.", state.Topic, u.Grade),
				microModuleFallback(state.Topic))
			return &Result{Reply: lesson + "\n\nReply *ready* when you want some questions.", State: state}, nil
		case 2:
			return e.beginBurst(ctx, u, state)
		default:
			return &Result{
				Reply:      "No problem. I'm here whenever you're ready — just type *menu*.",
				State:      state,
				EndSession: true,
				ClearUser:  true,
			}, nil
		}

	case StepMicroModule:
		// Any reply means they're ready.
		return e.beginBurst(ctx, u, state)

	case StepBurst:
		reply, done, err := e.burstTurn(ctx, u, &state, input)
		if err != nil {
			return nil, err
		}
		if !done {
			return &Result{Reply: reply, State: state}, nil
		}
		if state.Burst.Index > 0 {
			reply += "\n\n" + burstSummary(state.Burst)
		}
		state.Step = StepMomentumMenu
		return &Result{Reply: reply + "\n\n" + stressMomentumMenu, State: state}, nil

	case StepMomentumMenu:
		choice, ok := parseChoice(input, 4)
		if !ok {
			return &Result{Reply: "Please reply 1, 2, 3 or 4.\n\n" + stressMomentumMenu, State: state}, nil
		}
		switch choice {
		case 1:
			return e.beginBurst(ctx, u, state)
		case 2:
			state.Step = StepAskTopic
			state.Burst = nil
			return &Result{Reply: "Which topic next?\n" + topicMenu(), State: state}, nil
		case 3:
			return &Result{
				Reply:      "Good call — rest matters too. Type *menu* when you're back.",
				State:      state,
				EndSession: true,
				ClearUser:  true,
			}, nil
		default:
			return &Result{
				Reply:      "Will do. I'll check in with you tonight. Type *menu* any time before then.",
				State:      state,
				EndSession: true,
				ClearUser:  true,
			}, nil
		}

	case StepNeedsReset:
		return e.Start(ctx, u)
	}

	return nil, fmt.Errorf("stress flow: unhandled step %q", state.Step)
}

// beginBurst starts a fresh 3-question burst, resetting any previous score.
func (e *Stress) beginBurst(ctx context.Context, u *store.User, state State) (*Result, error) {
	state.Step = StepBurst
	text, ok, err := e.startBurst(ctx, u, &state, defaultBurstSize)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Result{Reply: text, State: state, EndSession: true, ClearUser: true}, nil
	}
	return &Result{Reply: "Let's go — 3 quick questions.\n\n" + text, State: state}, nil
}

func microModuleFallback(topic string) string {
	return fmt.Sprintf("Quick reset: close your eyes, breathe in for 4, out for 4. "+
		"Now remember — %s is just a set of small steps, and you only ever need the next one. "+
		"Read each question slowly, write down what you know, and the path usually shows itself.", topic)
}

func isSkip(input string) bool {
	switch normalizeInput(input) {
	case "skip", "none", "no":
		return true
	}
	return false
}
