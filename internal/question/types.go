package question

import "fmt"

// Subject identifies the school subject a question belongs to.
type Subject string

const (
	SubjectMath       Subject = "math"
	SubjectPortuguese Subject = "portuguese"
)

// Level is the difficulty tier within a subject.
type Level int

const (
	LevelOne Level = 1
	LevelTwo Level = 2
)

// CelebrationKind constants.
const (
	CelebrationVideo = "video"
	CelebrationGif   = "gif"
)

// Image points at a displayable asset with its accessibility text.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Celebration is the media played after a correct answer is acknowledged.
type Celebration struct {
	Kind string `json:"kind"`
	Src  string `json:"src"`
	Alt  string `json:"alt"`
}

// Option is a draggable answer candidate. Value is what drop evaluation
// compares against the question's Answer.
type Option struct {
	Value string `json:"value"`
	Color string `json:"color"`
	Image *Image `json:"image,omitempty"`
}

// Question is an immutable record from the bundled question bank.
type Question struct {
	ID           string      `json:"id"`
	Subject      Subject     `json:"subject"`
	Level        Level       `json:"level"`
	Prompt       string      `json:"prompt"`
	Illustration Image       `json:"illustration"`
	Options      []Option    `json:"options"`
	Answer       string      `json:"answer"`
	Hint         string      `json:"hint"`
	Celebration  Celebration `json:"celebration"`
}

// ParseSubject validates a client-provided subject string.
func ParseSubject(s string) (Subject, error) {
	switch Subject(s) {
	case SubjectMath, SubjectPortuguese:
		return Subject(s), nil
	default:
		return "", fmt.Errorf("unknown subject %q", s)
	}
}

// ParseLevel validates a client-provided level number.
func ParseLevel(n int) (Level, error) {
	switch Level(n) {
	case LevelOne, LevelTwo:
		return Level(n), nil
	default:
		return 0, fmt.Errorf("unknown level %d", n)
	}
}
