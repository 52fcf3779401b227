package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"quizcore/models"
)

func sampleQuestion() models.Question {
	return models.Question{
		QuestionID:    "q1",
		Text:          "2+2?",
		Type:          models.MCQ,
		Options:       []string{"3", "4"},
		CorrectAnswer: "4",
		Explanation:   "basic addition",
		Hints:         []string{"count on your fingers"},
	}
}

func TestQuestion_StripsSolutionsByDefault(t *testing.T) {
	got := Question(sampleQuestion(), Options{})
	assert.Empty(t, got.CorrectAnswer)
	assert.Empty(t, got.Explanation)
	assert.Nil(t, got.Hints)
	assert.Equal(t, "2+2?", got.Text)
}

func TestQuestion_IncludesSolutionsWhenRequested(t *testing.T) {
	got := Question(sampleQuestion(), Options{IncludeSolutions: true})
	assert.Equal(t, "4", got.CorrectAnswer)
	assert.Equal(t, "basic addition", got.Explanation)
}

func TestQuestion_HintsIndependentOfSolutions(t *testing.T) {
	got := Question(sampleQuestion(), Options{IncludeSolutions: true, IncludeHints: true})
	assert.Equal(t, []string{"count on your fingers"}, got.Hints)
}

func TestQuestions_AppliesProjectionToEachElement(t *testing.T) {
	qs := []models.Question{sampleQuestion(), sampleQuestion()}
	got := Questions(qs, Options{})
	for _, q := range got {
		assert.Empty(t, q.CorrectAnswer)
	}
	assert.Len(t, got, 2)
}
