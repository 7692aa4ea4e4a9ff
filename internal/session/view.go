package session

import (
	"github.com/google/uuid"

	"github.com/arrastaplay/game-platform/internal/question"
)

// View is a read-only snapshot of the session for the rendering shell.
type View struct {
	ID          uuid.UUID        `json:"id"`
	Subject     question.Subject `json:"subject"`
	Level       question.Level   `json:"level"`
	State       State            `json:"state"`
	Index       int              `json:"index"`
	Total       int              `json:"total"`
	Score       int              `json:"score"`
	Feedback    Feedback         `json:"feedback"`
	DragOver    bool             `json:"drag_over"`
	HintVisible bool             `json:"hint_visible"`
	Question    *QuestionView    `json:"question,omitempty"`
}

// QuestionView is the client-facing projection of the active question. The
// correct answer is never included; hint text appears only once revealed and
// celebration media only alongside correct feedback.
type QuestionView struct {
	ID           string                `json:"id"`
	Prompt       string                `json:"prompt"`
	Options      []question.Option     `json:"options"`
	Illustration question.Image        `json:"illustration"`
	Generating   bool                  `json:"generating"`
	Hint         string                `json:"hint,omitempty"`
	Celebration  *question.Celebration `json:"celebration,omitempty"`
}

// Snapshot returns the current view state. Repeated calls within a session
// observe the same question order.
func (e *Engine) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{
		ID:       e.id,
		Subject:  e.subject,
		Level:    e.level,
		State:    StatePlaying,
		Index:    e.index,
		Total:    len(e.questions),
		Score:    e.score,
		Feedback: e.attempt.feedback,
	}

	switch {
	case e.Empty():
		v.State = StateNoQuestions
		v.Feedback = FeedbackNone
		return v
	case e.complete:
		v.State = StateComplete
		return v
	}

	q := e.questions[e.index]
	qv := &QuestionView{
		ID:           q.ID,
		Prompt:       q.Prompt,
		Options:      q.Options,
		Illustration: e.attempt.illustration,
		Generating:   e.attempt.generating,
	}
	if e.attempt.hintVisible {
		qv.Hint = q.Hint
	}
	if e.attempt.feedback == FeedbackCorrect {
		celebration := q.Celebration
		qv.Celebration = &celebration
	}

	v.DragOver = e.attempt.dragOver
	v.HintVisible = e.attempt.hintVisible
	v.Question = qv
	return v
}
