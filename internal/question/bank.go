package question

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

//go:embed data/questions.json
var bundledQuestions []byte

// Bank holds the static bundled question set. Records never change after load,
// so Filter hands out copies and callers may shuffle them freely.
type Bank struct {
	questions []Question
}

// LoadBank parses the embedded question data. Records that fail validation are
// skipped with a warning rather than aborting startup.
func LoadBank(logger zerolog.Logger) (*Bank, error) {
	var raw []Question
	if err := json.Unmarshal(bundledQuestions, &raw); err != nil {
		return nil, fmt.Errorf("parse bundled questions: %w", err)
	}

	valid := make([]Question, 0, len(raw))
	for _, q := range raw {
		if err := validate(q); err != nil {
			logger.Warn().Err(err).Str("question_id", q.ID).Msg("skip malformed question")
			continue
		}
		valid = append(valid, q)
	}

	return &Bank{questions: valid}, nil
}

// Filter returns the questions matching subject and level, in bank order.
// The returned slice is owned by the caller.
func (b *Bank) Filter(subject Subject, level Level) []Question {
	var out []Question
	for _, q := range b.questions {
		if q.Subject == subject && q.Level == level {
			out = append(out, q)
		}
	}
	return out
}

// Len reports the total number of loaded questions.
func (b *Bank) Len() int {
	return len(b.questions)
}

func validate(q Question) error {
	if q.ID == "" {
		return fmt.Errorf("missing id")
	}
	if q.Prompt == "" {
		return fmt.Errorf("missing prompt")
	}
	if _, err := ParseSubject(string(q.Subject)); err != nil {
		return err
	}
	if _, err := ParseLevel(int(q.Level)); err != nil {
		return err
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("no options")
	}
	for _, opt := range q.Options {
		if opt.Value == q.Answer {
			return nil
		}
	}
	return fmt.Errorf("answer %q not present in options", q.Answer)
}
