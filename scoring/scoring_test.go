package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quizcore/errs"
	"quizcore/models"
)

func q(id string, qtype models.QuestionType, correct string, points int) models.Question {
	return models.Question{
		QuestionID:    models.QuestionID(id),
		Type:          qtype,
		CorrectAnswer: correct,
		Points:        points,
	}
}

func TestGrade_McqCaseInsensitiveTrim(t *testing.T) {
	questions := []models.Question{q("q1", models.MCQ, "Paris", 10)}
	answers := []models.UserAnswer{{QuestionID: "q1", UserAnswer: "  paris  "}}

	graded, err := Grade(questions, answers, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, graded, 1)
	assert.True(t, graded[0].IsCorrect)
	assert.Equal(t, 10, graded[0].PointsEarned)
}

func TestGrade_ShortAnswerFuzzySubstring(t *testing.T) {
	questions := []models.Question{q("q1", models.ShortAnswer, "the car is scarce", 10)}
	answers := []models.UserAnswer{{QuestionID: "q1", UserAnswer: "scarce car"}}

	graded, err := Grade(questions, answers, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, graded[0].IsCorrect)
}

func TestGrade_HintPenaltyRounding(t *testing.T) {
	questions := []models.Question{q("q1", models.MCQ, "yes", 10)}
	answers := []models.UserAnswer{{QuestionID: "q1", UserAnswer: "yes", HintsUsed: 5}}

	graded, err := Grade(questions, answers, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, graded[0].IsCorrect)
	assert.Equal(t, 5, graded[0].PointsEarned)
}

func TestGrade_MissingCorrectAnswerIsFatal(t *testing.T) {
	questions := []models.Question{q("q1", models.MCQ, "", 10)}
	answers := []models.UserAnswer{{QuestionID: "q1", UserAnswer: "yes"}}

	_, err := Grade(questions, answers, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrQuizDataInvalid)
}

func TestGrade_UnknownQuestionIDIsDroppedNotFatal(t *testing.T) {
	questions := []models.Question{q("q1", models.MCQ, "yes", 10)}
	answers := []models.UserAnswer{
		{QuestionID: "q1", UserAnswer: "yes"},
		{QuestionID: "missing", UserAnswer: "whatever"},
	}

	graded, err := Grade(questions, answers, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, graded, 1)
}

func TestSummarize_GradeLetterThresholds(t *testing.T) {
	cases := []struct {
		correct, total int
		wantGrade      models.Grade
	}{
		{10, 10, models.GradeA},
		{9, 10, models.GradeA},
		{8, 10, models.GradeB},
		{7, 10, models.GradeC},
		{6, 10, models.GradeD},
		{5, 10, models.GradeF},
		{0, 10, models.GradeF},
	}

	for _, c := range cases {
		graded := make([]models.GradedAnswer, c.total)
		for i := 0; i < c.correct; i++ {
			graded[i].IsCorrect = true
		}
		scoring := Summarize(graded)
		assert.Equal(t, c.wantGrade, scoring.Grade, "correct=%d total=%d", c.correct, c.total)
	}
}

func TestSummarize_ZeroQuestions(t *testing.T) {
	scoring := Summarize(nil)
	assert.Equal(t, 0, scoring.TotalQuestions)
	assert.Equal(t, 0.0, scoring.ScorePercentage)
	assert.Equal(t, models.GradeF, scoring.Grade)
}
