package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tebogo/mathmate/internal/flow"
	"github.com/tebogo/mathmate/internal/store"
)

func TestDefaultSeedIsValid(t *testing.T) {
	bank, err := Default()
	require.NoError(t, err)
	assert.NotEmpty(t, bank.Questions)

	// Every topic on the menu has seed content.
	byTopic := map[string]int{}
	for _, q := range bank.Questions {
		byTopic[q.Topic]++
		assert.Equal(t, "maths", q.Subject)
	}
	for _, topic := range flow.Topics {
		assert.Greater(t, byTopic[topic], 0, "no seed questions for topic %q", topic)
	}
}

func TestParse_RejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"no questions":       `{"questions":[]}`,
		"missing difficulty": `{"questions":[{"topic":"algebra","subject":"maths","text":"?","correct":"A","choices":[{"letter":"A","text":"1"},{"letter":"B","text":"2"}]}]}`,
		"bad difficulty":     `{"questions":[{"topic":"algebra","subject":"maths","difficulty":"extreme","text":"?","correct":"A","choices":[{"letter":"A","text":"1"},{"letter":"B","text":"2"}]}]}`,
		"one choice":         `{"questions":[{"topic":"algebra","subject":"maths","difficulty":"easy","text":"?","correct":"A","choices":[{"letter":"A","text":"1"}]}]}`,
		"lowercase correct":  `{"questions":[{"topic":"algebra","subject":"maths","difficulty":"easy","text":"?","correct":"a","choices":[{"letter":"A","text":"1"},{"letter":"B","text":"2"}]}]}`,
	}
	for name, raw := range cases {
		_, err := Parse([]byte(raw))
		assert.Error(t, err, name)
	}
}

func TestParse_RejectsDanglingCorrectLetter(t *testing.T) {
	raw := `{"questions":[{"topic":"algebra","subject":"maths","difficulty":"easy","text":"?","correct":"C","choices":[{"letter":"A","text":"1"},{"letter":"B","text":"2"}]}]}`
	_, err := Parse([]byte(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matches no choice")
}

func TestSeed_Idempotent(t *testing.T) {
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	bank, err := Default()
	require.NoError(t, err)

	n, err := Seed(context.Background(), s.DB(), bank)
	require.NoError(t, err)
	assert.Equal(t, len(bank.Questions), n)

	// Second run inserts nothing.
	n, err = Seed(context.Background(), s.DB(), bank)
	require.NoError(t, err)
	assert.Zero(t, n)

	var count int64
	require.NoError(t, s.DB().Model(&store.Question{}).Count(&count).Error)
	assert.Equal(t, int64(len(bank.Questions)), count)
}
