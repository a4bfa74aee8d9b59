package flow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tebogo/mathmate/internal/store"
)

// Subject is the only subject in the current content bank. Topic menus
// partition it; selector fallbacks widen back out to it.
const Subject = "maths"

// Topics are the topic choices presented in every topic menu, in menu
// order. Seed content covers each of them.
var Topics = []string{"algebra", "geometry", "trigonometry", "functions", "probability"}

const msgNoContent = "I don't have a question ready for that right now. Please try again a bit later, or type *menu* to pick something else."

const msgRetry = "Something went wrong on my side. Please send that again, or type *menu* to start over."

// topicMenu renders the numbered topic list.
func topicMenu() string {
	var b strings.Builder
	for i, t := range Topics {
		fmt.Fprintf(&b, "%d. %s\n", i+1, capitalize(t))
	}
	return strings.TrimRight(b.String(), "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// normalizeInput lowercases and trims user input for keyword matching.
func normalizeInput(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// parseTopic accepts a menu number or a topic name, case-insensitively.
func parseTopic(input string) (string, bool) {
	in := strings.ToLower(strings.TrimSpace(input))
	if n, err := strconv.Atoi(in); err == nil {
		if n >= 1 && n <= len(Topics) {
			return Topics[n-1], true
		}
		return "", false
	}
	for _, t := range Topics {
		if t == in {
			return t, true
		}
	}
	return "", false
}

// parseChoice validates a numeric menu choice against [1, max].
func parseChoice(input string, max int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > max {
		return 0, false
	}
	return n, true
}

// parseGrade maps free input onto the accepted grade values.
func parseGrade(input string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "10", "grade 10":
		return store.Grade10, true
	case "11", "grade 11":
		return store.Grade11, true
	case "varsity", "university", "uni":
		return store.GradeVarsity, true
	}
	return "", false
}

// renderQuestion formats an MCQ for chat.
func renderQuestion(q *store.Question) string {
	var b strings.Builder
	b.WriteString(q.Text)
	b.WriteString("\n\n")
	for _, c := range q.Choices {
		fmt.Fprintf(&b, "%s) %s\n", c.Letter, c.Text)
	}
	b.WriteString("\nReply with the letter of your answer.")
	return b.String()
}

// feedbackLine renders the graded outcome of one answer.
func feedbackLine(correct bool, correctLetter string) string {
	if correct {
		return "Correct! Nice work."
	}
	return fmt.Sprintf("Not quite — the answer was %s.", correctLetter)
}

// gradePrompt asks for the learner's grade.
const gradePrompt = "Quick one first: what grade are you in? Reply *10*, *11*, or *varsity*."

const gradeReprompt = "I didn't catch that. Reply *10*, *11*, or *varsity*."
