// Package content loads and validates question-bank files and seeds them
// into the store. Every file is checked against the embedded JSON Schema
// before a single row is written.
package content

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gorm.io/gorm"

	"github.com/tebogo/mathmate/internal/difficulty"
	"github.com/tebogo/mathmate/internal/store"
)

//go:embed bank.schema.json
var bankSchema []byte

//go:embed seed.json
var defaultSeed []byte

// Bank is a parsed, schema-valid question bank.
type Bank struct {
	Questions []QuestionSpec `json:"questions"`
}

// QuestionSpec is one question as authored in a bank file.
type QuestionSpec struct {
	Topic      string          `json:"topic"`
	Subject    string          `json:"subject"`
	Difficulty difficulty.Band `json:"difficulty"`
	Text       string          `json:"text"`
	Correct    string          `json:"correct"`
	Choices    []ChoiceSpec    `json:"choices"`
}

// ChoiceSpec is one answer option. WeaknessTag labels the misconception a
// distractor reveals; omitted on correct choices.
type ChoiceSpec struct {
	Letter      string `json:"letter"`
	Text        string `json:"text"`
	WeaknessTag string `json:"weakness_tag,omitempty"`
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var parsed any
		if err := json.Unmarshal(bankSchema, &parsed); err != nil {
			compileErr = fmt.Errorf("parse embedded schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://question-bank.json"
		if err := c.AddResource(url, parsed); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(url)
	})
	return compiledSchema, compileErr
}

// Parse validates raw bank JSON against the schema and decodes it.
func Parse(data []byte) (*Bank, error) {
	s, err := schema()
	if err != nil {
		return nil, err
	}

	// The jsonschema library validates a parsed JSON value, not raw bytes.
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := s.Validate(parsed); err != nil {
		return nil, fmt.Errorf("question bank failed schema validation: %w", err)
	}

	var bank Bank
	if err := json.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}

	for i, q := range bank.Questions {
		if err := checkQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return &bank, nil
}

// checkQuestion covers the cross-field rules the schema cannot express.
func checkQuestion(q QuestionSpec) error {
	seen := map[string]bool{}
	hasCorrect := false
	for _, c := range q.Choices {
		if seen[c.Letter] {
			return fmt.Errorf("duplicate choice letter %q", c.Letter)
		}
		seen[c.Letter] = true
		if c.Letter == q.Correct {
			hasCorrect = true
		}
	}
	if !hasCorrect {
		return errors.New("correct letter matches no choice")
	}
	return nil
}

// LoadFile parses and validates a bank file on disk.
func LoadFile(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded seed bank.
func Default() (*Bank, error) {
	return Parse(defaultSeed)
}

// Seed inserts the bank's questions, skipping any (topic, text) pair that
// already exists so re-seeding is idempotent. Returns the number of
// questions inserted.
func Seed(ctx context.Context, db *gorm.DB, bank *Bank) (int, error) {
	inserted := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, spec := range bank.Questions {
			var count int64
			err := tx.Model(&store.Question{}).
				Where("topic = ? AND text = ?", spec.Topic, spec.Text).
				Count(&count).Error
			if err != nil {
				return fmt.Errorf("check existing question: %w", err)
			}
			if count > 0 {
				continue
			}

			q := store.Question{
				Topic:      spec.Topic,
				Subject:    spec.Subject,
				Difficulty: spec.Difficulty,
				Text:       spec.Text,
				Correct:    spec.Correct,
				Active:     true,
			}
			for _, c := range spec.Choices {
				q.Choices = append(q.Choices, store.Choice{
					Letter:      c.Letter,
					Text:        c.Text,
					WeaknessTag: c.WeaknessTag,
				})
			}
			if err := tx.Create(&q).Error; err != nil {
				return fmt.Errorf("insert question: %w", err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
