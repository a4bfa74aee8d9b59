package flow

import (
	"strings"
	"time"
)

// examDateLayouts are the permissive free-text date formats accepted in
// exam-date prompts, tried in order.
var examDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02/01",
	"2 January 2006",
	"2 January",
	"2 Jan 2006",
	"2 Jan",
	"January 2",
	"Jan 2",
}

// parseExamDate reads a user-supplied exam date. It accepts the relative
// keywords "today" and "tomorrow" plus the layouts above; layouts without
// a year resolve to the next occurrence at or after today. Returns false
// when nothing matches — callers re-prompt, never default silently.
func parseExamDate(input string, now time.Time) (time.Time, bool) {
	in := strings.TrimSpace(input)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch strings.ToLower(in) {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	}

	// Month names must be capitalized for time.Parse; accept "12 june" too.
	titled := titleWords(in)

	for _, layout := range examDateLayouts {
		t, err := time.Parse(layout, in)
		if err != nil {
			t, err = time.Parse(layout, titled)
		}
		if err != nil {
			continue
		}
		if !strings.Contains(layout, "2006") {
			// Year-less input: next occurrence from today.
			t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
			if t.Before(today) {
				t = t.AddDate(1, 0, 0)
			}
		} else {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
		}
		return t, true
	}

	return time.Time{}, false
}

func titleWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

// hoursUntil reports the whole-and-fractional hours between now and the
// end of the exam day; exams land "some time that day", so the gate treats
// the exam as starting at 08:00.
func hoursUntil(exam, now time.Time) float64 {
	start := time.Date(exam.Year(), exam.Month(), exam.Day(), 8, 0, 0, 0, exam.Location())
	return start.Sub(now).Hours()
}
