package submission

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quizcore/gateway"
	"quizcore/models"
	"quizcore/projector"
	"quizcore/store/memstore"
)

type fakeEvaluator struct {
	result gateway.EvaluationResult
	err    error
	calls  int32
}

func (f *fakeEvaluator) EvaluateSubmission(ctx context.Context, wrong []gateway.WrongAnswerDetail) (gateway.EvaluationResult, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.result, f.err
}

type fakeProjector struct {
	err   error
	calls int32
}

func (f *fakeProjector) Project(ctx context.Context, userID models.UserID, subject string, grade int, facts projector.SubmissionFacts) error {
	atomic.AddInt32(&f.calls, 1)
	return f.err
}

func seedQuiz(t *testing.T, store *memstore.Store) models.Quiz {
	t.Helper()
	quiz := models.Quiz{
		Title: "math quiz",
		Metadata: models.QuizMetadata{
			Grade: 5, Subject: "math", Difficulty: models.QuizMedium,
		},
		Questions: []models.Question{
			{QuestionID: "q1", Type: models.MCQ, CorrectAnswer: "4", Points: 10, Difficulty: models.Medium, Topic: "arithmetic"},
			{QuestionID: "q2", Type: models.MCQ, CorrectAnswer: "red", Points: 10, Difficulty: models.Medium, Topic: "color"},
		},
		IsActive: true,
	}
	id, err := store.QuizStore().CreateQuiz(context.Background(), quiz)
	require.NoError(t, err)
	quiz.QuizID = id
	return quiz
}

func TestSubmitQuiz_GradesPersistsAndProjectsBestEffort(t *testing.T) {
	ms := memstore.New()
	quiz := seedQuiz(t, ms)

	eval := &fakeEvaluator{result: gateway.EvaluationResult{Suggestions: []string{"a", "b"}, Provider: "gemini"}}
	proj := &fakeProjector{}
	orch := New(ms.QuizStore(), ms.SubmissionStore(), eval, proj, zap.NewNop())

	now := time.Now()
	result, err := orch.SubmitQuiz(context.Background(), Request{
		UserID: "u1",
		QuizID: quiz.QuizID,
		Answers: []models.UserAnswer{
			{QuestionID: "q1", UserAnswer: "4", TimeSpent: 10},
			{QuestionID: "q2", UserAnswer: "blue", TimeSpent: 5},
		},
		StartedAt:         now.Add(-time.Minute),
		SubmittedAt:       now,
		RequestEvaluation: true,
		UserAgent:         "Mozilla/5.0 (iPhone; CPU iPhone OS)",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Results.CorrectAnswers)
	assert.Equal(t, models.DeviceMobile, result.Submission.Metadata.DeviceType)
	assert.True(t, result.Analytics.Updated)
	require.NotNil(t, result.Results.AIModel)
	assert.Equal(t, "gemini", *result.Results.AIModel)
	assert.Equal(t, int32(1), atomic.LoadInt32(&proj.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&eval.calls))
}

func TestSubmitQuiz_EvaluationFailureIsSwallowed(t *testing.T) {
	ms := memstore.New()
	quiz := seedQuiz(t, ms)

	eval := &fakeEvaluator{err: errors.New("both providers down")}
	proj := &fakeProjector{}
	orch := New(ms.QuizStore(), ms.SubmissionStore(), eval, proj, zap.NewNop())

	now := time.Now()
	result, err := orch.SubmitQuiz(context.Background(), Request{
		UserID:            "u1",
		QuizID:            quiz.QuizID,
		Answers:           []models.UserAnswer{{QuestionID: "q1", UserAnswer: "4"}, {QuestionID: "q2", UserAnswer: "red"}},
		StartedAt:         now.Add(-time.Minute),
		SubmittedAt:       now,
		RequestEvaluation: true,
	})
	require.NoError(t, err)
	assert.Nil(t, result.Results.AIModel)
	assert.Empty(t, result.Results.Suggestions)
}

func TestSubmitQuiz_ProjectionFailureIsSwallowed(t *testing.T) {
	ms := memstore.New()
	quiz := seedQuiz(t, ms)

	eval := &fakeEvaluator{}
	proj := &fakeProjector{err: errors.New("conflict exhausted")}
	orch := New(ms.QuizStore(), ms.SubmissionStore(), eval, proj, zap.NewNop())

	now := time.Now()
	result, err := orch.SubmitQuiz(context.Background(), Request{
		UserID:      "u1",
		QuizID:      quiz.QuizID,
		Answers:     []models.UserAnswer{{QuestionID: "q1", UserAnswer: "4"}, {QuestionID: "q2", UserAnswer: "red"}},
		StartedAt:   now.Add(-time.Minute),
		SubmittedAt: now,
	})
	require.NoError(t, err)
	assert.False(t, result.Analytics.Updated)
}

func TestSubmitQuiz_RejectsEmptyAnswers(t *testing.T) {
	ms := memstore.New()
	quiz := seedQuiz(t, ms)
	orch := New(ms.QuizStore(), ms.SubmissionStore(), &fakeEvaluator{}, &fakeProjector{}, zap.NewNop())

	now := time.Now()
	_, err := orch.SubmitQuiz(context.Background(), Request{
		UserID: "u1", QuizID: quiz.QuizID, StartedAt: now.Add(-time.Minute), SubmittedAt: now,
	})
	require.Error(t, err)
}

func TestSubmitQuiz_RejectsOutOfRangeHints(t *testing.T) {
	ms := memstore.New()
	quiz := seedQuiz(t, ms)
	orch := New(ms.QuizStore(), ms.SubmissionStore(), &fakeEvaluator{}, &fakeProjector{}, zap.NewNop())

	now := time.Now()
	_, err := orch.SubmitQuiz(context.Background(), Request{
		UserID:      "u1",
		QuizID:      quiz.QuizID,
		Answers:     []models.UserAnswer{{QuestionID: "q1", UserAnswer: "4", HintsUsed: 99}},
		StartedAt:   now.Add(-time.Minute),
		SubmittedAt: now,
	})
	require.Error(t, err)
}

func TestDetectDeviceType(t *testing.T) {
	cases := []struct {
		ua   string
		want models.DeviceType
	}{
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64)", models.DeviceDesktop},
		{"Mozilla/5.0 (Linux; Android 13; Mobile)", models.DeviceMobile},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)", models.DeviceMobile},
		{"Mozilla/5.0 (iPad; CPU OS 17_0)", models.DeviceMobile},
		{"Mozilla/5.0 (Linux; Tablet)", models.DeviceTablet},
		{"", models.DeviceDesktop},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, detectDeviceType(c.ua), "ua=%q", c.ua)
	}
}

func TestSubmitQuiz_SequentialAttemptsIncrementAttemptNumber(t *testing.T) {
	ms := memstore.New()
	quiz := seedQuiz(t, ms)
	orch := New(ms.QuizStore(), ms.SubmissionStore(), &fakeEvaluator{}, &fakeProjector{}, zap.NewNop())

	now := time.Now()
	req := Request{
		UserID:      "u1",
		QuizID:      quiz.QuizID,
		Answers:     []models.UserAnswer{{QuestionID: "q1", UserAnswer: "4"}, {QuestionID: "q2", UserAnswer: "red"}},
		StartedAt:   now.Add(-time.Minute),
		SubmittedAt: now,
	}

	first, err := orch.SubmitQuiz(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Submission.AttemptNumber)

	second, err := orch.SubmitQuiz(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Submission.AttemptNumber)
}

func TestGetSubmissionDetails_IncludesSolutions(t *testing.T) {
	ms := memstore.New()
	quiz := seedQuiz(t, ms)
	orch := New(ms.QuizStore(), ms.SubmissionStore(), &fakeEvaluator{}, &fakeProjector{}, zap.NewNop())

	now := time.Now()
	result, err := orch.SubmitQuiz(context.Background(), Request{
		UserID:      "u1",
		QuizID:      quiz.QuizID,
		Answers:     []models.UserAnswer{{QuestionID: "q1", UserAnswer: "4"}, {QuestionID: "q2", UserAnswer: "red"}},
		StartedAt:   now.Add(-time.Minute),
		SubmittedAt: now,
	})
	require.NoError(t, err)

	details, err := orch.GetSubmissionDetails(context.Background(), result.Submission.SubmissionID, "u1")
	require.NoError(t, err)
	for _, q := range details.Quiz.Questions {
		assert.NotEmpty(t, q.CorrectAnswer)
	}
}
