package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/tebogo/mathmate/internal/store"
)

// ExamPrep is the exam-preparation flow: scope the problem, anchor it to a
// date, build a plan sized to the time left, then lesson and practice.
type ExamPrep struct {
	Deps
}

// NewExamPrep builds the exam-prep engine.
func NewExamPrep(d Deps) *ExamPrep { return &ExamPrep{Deps: d} }

func (e *ExamPrep) FlowType() store.FlowType { return store.FlowExamPrep }

// examPracticeSize is the practice-round length in this flow.
const examPracticeSize = 5

// shortPlanHours is the cutoff under which there's no time for a full
// study plan and the learner gets the focused crash version instead.
const shortPlanHours = 3.0

const examOpening = "Exam coming up? Good — let's get you ready properly."

const examDatePrompt = "When is the exam? Reply with a date, like *tomorrow*, *12 June* or *2026-06-12*."

const examPlanActionMenu = "1. Start the lesson now\n" +
	"2. Straight to practice questions\n" +
	"3. Later — I'll come back\n" +
	"Reply 1, 2 or 3."

const examContinueMenu = "1. Another practice round\n" +
	"2. Done for now\n" +
	"Reply 1 or 2."

func (e *ExamPrep) Start(ctx context.Context, u *store.User) (*Result, error) {
	state := State{Band: e.initialBand(ctx, u)}

	if u.Grade == "" {
		state.Step = StepAskGrade
		return &Result{Reply: examOpening + "\n\n" + gradePrompt, State: state}, nil
	}

	state.Step = StepAskSubject
	return &Result{
		Reply: examOpening + "\n\nWhich topic is the exam on?\n" + topicMenu(),
		State: state,
	}, nil
}

func (e *ExamPrep) Handle(ctx context.Context, u *store.User, sess *store.Session, state State, input string) (*Result, error) {
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
		state.Step = StepAskSubject
		return &Result{Reply: "Which topic is the exam on?\n" + topicMenu(), State: state}, nil

	case StepAskSubject:
		topic, ok := parseTopic(input)
		if !ok {
			return &Result{Reply: "Please pick a topic from the list:\n" + topicMenu(), State: state}, nil
		}
		state.Topic = topic
		state.Step = StepAskProblemDetails
		return &Result{
			Reply: fmt.Sprintf("Okay, %s it is. What specifically is giving you trouble? The more detail, the better the plan.", capitalize(topic)),
			State: state,
		}, nil

	case StepAskProblemDetails:
		details := strings.TrimSpace(input)
		if details == "" {
			return &Result{Reply: "Even a rough description helps — what part trips you up?", State: state}, nil
		}
		state.ProblemDetails = details
		state.Step = StepExamDate
		return &Result{Reply: examDatePrompt, State: state}, nil

	case StepExamDate:
		when, ok := parseExamDate(input, e.now())
		if !ok {
			return &Result{Reply: "I couldn't read that date. " + examDatePrompt, State: state}, nil
		}
		state.ExamDate = &when
		sess.ExamDate = &when

		if hoursUntil(when, e.now()) > shortPlanHours {
			state.Step = StepAskPreferredTime
			return &Result{
				Reply: "There's enough runway for a proper plan. When do you study best — mornings, afternoons or evenings?",
				State: state,
			}, nil
		}
		state.Step = StepPlanAction
		return &Result{Reply: e.shortPlan(state) + "\n\n" + examPlanActionMenu, State: state}, nil

	case StepAskPreferredTime:
		pref := strings.TrimSpace(input)
		if pref == "" {
			return &Result{Reply: "Mornings, afternoons or evenings — when do you study best?", State: state}, nil
		}
		state.PreferredTime = pref
		state.Step = StepPlanAction
		return &Result{Reply: e.longPlan(state) + "\n\n" + examPlanActionMenu, State: state}, nil

	case StepPlanAction:
		choice, ok := parseChoice(input, 3)
		if !ok {
			return &Result{Reply: "Please reply 1, 2 or 3.\n\n" + examPlanActionMenu, State: state}, nil
		}
		switch choice {
		case 1:
			state.Step = StepLesson
			lesson := e.genText(ctx,
				"You are a precise, encouraging maths tutor. Under 120 words, plain text.",
				fmt.Sprintf("Write a focused mini lesson on %s for a grade %s learner who says: %q.", state.Topic, u.Grade, state.ProblemDetails),
				lessonFallback(state.Topic))
			return &Result{Reply: lesson + "\n\nReply *ready* when you want practice questions.", State: state}, nil
		case 2:
			return e.beginPractice(ctx, u, state)
		default:
			return &Result{
				Reply:      "Plan saved in spirit — come back with *menu* when you're ready to work it.",
				State:      state,
				EndSession: true,
				ClearUser:  true,
			}, nil
		}

	case StepLesson:
		// Any reply means they're ready.
		return e.beginPractice(ctx, u, state)

	case StepPractice:
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
		state.Step = StepPracticeContinue
		return &Result{Reply: reply + "\n\n" + examContinueMenu, State: state}, nil

	case StepPracticeContinue:
		choice, ok := parseChoice(input, 2)
		if !ok {
			return &Result{Reply: "Please reply 1 or 2.\n\n" + examContinueMenu, State: state}, nil
		}
		if choice == 1 {
			return e.beginPractice(ctx, u, state)
		}
		return &Result{
			Reply:      "Solid session. Keep working the plan, and type *menu* whenever you want another round.",
			State:      state,
			EndSession: true,
			ClearUser:  true,
		}, nil

	case StepNeedsReset:
		return e.Start(ctx, u)
	}

	return nil, fmt.Errorf("examprep flow: unhandled step %q", state.Step)
}

// beginPractice starts a fresh practice round.
func (e *ExamPrep) beginPractice(ctx context.Context, u *store.User, state State) (*Result, error) {
	state.Step = StepPractice
	text, ok, err := e.startBurst(ctx, u, &state, examPracticeSize)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Result{Reply: text, State: state, EndSession: true, ClearUser: true}, nil
	}
	return &Result{
		Reply: fmt.Sprintf("Practice round — %d questions on %s.\n\n%s", examPracticeSize, state.Topic, text),
		State: state,
	}, nil
}

// shortPlan is the crash plan for an exam within the cutoff window.
func (e *ExamPrep) shortPlan(state State) string {
	return fmt.Sprintf("The exam is close, so here's the focused version:\n"+
		"1. 10 minutes: skim your %s notes, mark anything about %q\n"+
		"2. 15 minutes: practice questions with me, hardest topics first\n"+
		"3. 5 minutes: redo only the ones you got wrong",
		capitalize(state.Topic), state.ProblemDetails)
}

// longPlan is the multi-day plan when there's real runway.
func (e *ExamPrep) longPlan(state State) string {
	return fmt.Sprintf("Here's your plan, built around %s study sessions:\n"+
		"1. Each day: 20 minutes on %s, starting with %q\n"+
		"2. Every session ends with 5 practice questions here\n"+
		"3. The day before the exam: review mistakes only, nothing new",
		strings.ToLower(state.PreferredTime), capitalize(state.Topic), state.ProblemDetails)
}

func lessonFallback(topic string) string {
	return fmt.Sprintf("Core approach for %s: write down what the question gives you, "+
		"write down what it asks for, and look for the rule that connects the two. "+
		"Work one line at a time and check each line before moving on — most marks are "+
		"lost to skipped steps, not missing knowledge.", topic)
}
