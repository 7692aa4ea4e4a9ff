package illustration

import (
	"fmt"

	"github.com/arrastaplay/game-platform/internal/question"
)

// Instruction templates per subject. Math illustrations must show the exact
// object counts inside the named shapes so the picture itself is the exercise;
// Portuguese illustrations set a simple narrative scene around the word.
const (
	mathTemplate = "Create a bright, friendly illustration for a children's math exercise. " +
		"Draw exactly the number of objects stated in the question, placed inside the named shape, " +
		"with nothing extra that could change the count. Question: %q"

	portugueseTemplate = "Create a bright, friendly illustration for a children's Portuguese exercise. " +
		"Show a simple narrative scene that makes the word or idea in the question easy to recognize. " +
		"Question: %q"
)

func buildInstruction(subject question.Subject, questionText string) string {
	if subject == question.SubjectMath {
		return fmt.Sprintf(mathTemplate, questionText)
	}
	return fmt.Sprintf(portugueseTemplate, questionText)
}
