package synthesis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quizcore/gateway"
	"quizcore/models"
	"quizcore/store"
)

type fakePerformance struct {
	records []models.PerformanceHistory
}

func (f *fakePerformance) ListAllForUser(ctx context.Context, userID models.UserID) ([]models.PerformanceHistory, error) {
	return f.records, nil
}

type fakeGenerator struct {
	lastParams gateway.QuizGenerationParams
	questions  []models.Question
}

func (f *fakeGenerator) GenerateQuestions(ctx context.Context, params gateway.QuizGenerationParams) ([]models.Question, error) {
	f.lastParams = params
	return f.questions, nil
}

type fakeQuizStore struct {
	created models.Quiz
}

func (f *fakeQuizStore) GetQuizById(ctx context.Context, id models.QuizID) (models.Quiz, error) {
	return models.Quiz{}, nil
}
func (f *fakeQuizStore) ListQuizzes(ctx context.Context, filter store.QuizFilter, page store.Page) ([]models.Quiz, int, error) {
	return nil, 0, nil
}
func (f *fakeQuizStore) CreateQuiz(ctx context.Context, quiz models.Quiz) (models.QuizID, error) {
	quiz.QuizID = "generated-quiz-id"
	f.created = quiz
	return quiz.QuizID, nil
}
func (f *fakeQuizStore) UpdateQuiz(ctx context.Context, id models.QuizID, patch store.QuizPatch, expectedVersion int) (models.Quiz, error) {
	return models.Quiz{}, nil
}
func (f *fakeQuizStore) SoftDelete(ctx context.Context, id models.QuizID) error { return nil }
func (f *fakeQuizStore) UpdateQuestionHints(ctx context.Context, quizID models.QuizID, questionID models.QuestionID, hints []string) (int, error) {
	return 0, nil
}

func sampleQuestions(n int) []models.Question {
	out := make([]models.Question, n)
	for i := range out {
		out[i] = models.Question{
			QuestionID:    models.QuestionID("q"),
			Text:          "text",
			Type:          models.MCQ,
			Options:       []string{"a", "b"},
			CorrectAnswer: "a",
			Explanation:   "because",
			Difficulty:    models.Medium,
			Points:        10,
		}
	}
	return out
}

func TestGenerateAdaptiveQuiz_NoHistoryUsesZeroBaselineAndSanitizes(t *testing.T) {
	perf := &fakePerformance{}
	gen := &fakeGenerator{questions: sampleQuestions(5)}
	qs := &fakeQuizStore{}
	o := New(perf, gen, qs, zap.NewNop())

	quiz, err := o.GenerateAdaptiveQuiz(context.Background(), Request{
		UserID:  "u1",
		Grade:   5,
		Subject: "math",
		Title:   "Adaptive Math",
		Count:   5,
	})
	require.NoError(t, err)

	assert.Equal(t, models.QuizID("generated-quiz-id"), quiz.QuizID)
	assert.Equal(t, models.QuizAdaptive, quiz.Metadata.Difficulty)
	require.NotNil(t, quiz.Metadata.AdaptiveMetadata)
	assert.Equal(t, 100, quiz.Metadata.AdaptiveMetadata.Distribution.Easy+
		quiz.Metadata.AdaptiveMetadata.Distribution.Medium+
		quiz.Metadata.AdaptiveMetadata.Distribution.Hard)
	assert.Equal(t, models.ConfidenceLow, quiz.Metadata.AdaptiveMetadata.ConfidenceLevel)

	for _, q := range quiz.Questions {
		assert.Empty(t, q.CorrectAnswer)
		assert.Empty(t, q.Explanation)
	}

	assert.Equal(t, models.QuizMixed, gen.lastParams.Difficulty)
	assert.Equal(t, qs.created.Metadata.AdaptiveMetadata.Distribution, gen.lastParams.Distribution)
}

func TestGenerateAdaptiveQuiz_GlobalAverageIsWeightedAcrossSubjects(t *testing.T) {
	perf := &fakePerformance{records: []models.PerformanceHistory{
		{
			Subject: "math", Grade: 5,
			Stats: models.PerformanceStats{TotalQuizzes: 8, AverageScore: 90},
		},
		{
			Subject: "science", Grade: 5,
			Stats: models.PerformanceStats{TotalQuizzes: 2, AverageScore: 40},
			RecentPerformance: []models.RecentAttempt{
				{Date: time.Now().Add(-24 * time.Hour), Score: 40},
				{Date: time.Now().Add(-48 * time.Hour), Score: 40},
			},
		},
	}}
	gen := &fakeGenerator{questions: sampleQuestions(3)}
	qs := &fakeQuizStore{}
	o := New(perf, gen, qs, zap.NewNop())

	quiz, err := o.GenerateAdaptiveQuiz(context.Background(), Request{
		UserID: "u1", Grade: 5, Subject: "science", Title: "t", Count: 3,
	})
	require.NoError(t, err)

	// weighted global average = (90*8 + 40*2) / 10 = 80; subjectAverage = 40;
	// performanceScore = round(0.3*80 + 0.7*40) = round(24+28) = 52.
	assert.Equal(t, 52, quiz.Metadata.AdaptiveMetadata.PerformanceScore)
}

func TestGenerateAdaptiveQuiz_RejectsNonPositiveCount(t *testing.T) {
	o := New(&fakePerformance{}, &fakeGenerator{}, &fakeQuizStore{}, zap.NewNop())
	_, err := o.GenerateAdaptiveQuiz(context.Background(), Request{UserID: "u1", Grade: 5, Subject: "math", Count: 0})
	require.Error(t, err)
}
