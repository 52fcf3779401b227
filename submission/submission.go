// Package submission implements the Submission Orchestrator (C6): grading,
// persistence, and the two best-effort side effects (AI evaluation and
// performance projection) that follow a completed quiz attempt.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quizcore/errs"
	"quizcore/gateway"
	"quizcore/models"
	"quizcore/projector"
	"quizcore/sanitize"
	"quizcore/scoring"
	"quizcore/store"
)

// Evaluator is the subset of gateway.Gateway the orchestrator needs.
type Evaluator interface {
	EvaluateSubmission(ctx context.Context, wrong []gateway.WrongAnswerDetail) (gateway.EvaluationResult, error)
}

// Projector is the subset of projector.Projector the orchestrator needs.
type Projector interface {
	Project(ctx context.Context, userID models.UserID, subject string, grade int, facts projector.SubmissionFacts) error
}

// Orchestrator wires the quiz/submission stores to C3 (scoring), C1
// (evaluation), and C5 (projection).
type Orchestrator struct {
	Quizzes      store.QuizStore
	Submissions  store.SubmissionStore
	Evaluator    Evaluator
	Projector    Projector
	Log          *zap.Logger
}

func New(quizzes store.QuizStore, submissions store.SubmissionStore, evaluator Evaluator, proj Projector, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		Quizzes:     quizzes,
		Submissions: submissions,
		Evaluator:   evaluator,
		Projector:   proj,
		Log:         log.With(zap.String("component", "submission")),
	}
}

// Request is the input to SubmitQuiz.
type Request struct {
	UserID            models.UserID
	QuizID            models.QuizID
	Answers           []models.UserAnswer
	StartedAt         time.Time
	SubmittedAt       time.Time
	RequestEvaluation bool
	IPAddress         string
	UserAgent         string
}

// Validate enforces the numeric bounds the original request schema encoded
// as Joi rules (0 ≤ hintsUsed ≤ 10, 0 ≤ timeSpent ≤ 7200s per question) and
// the structural requirement that at least one answer was submitted.
func (r Request) Validate() error {
	if len(r.Answers) == 0 {
		return fmt.Errorf("answers: must not be empty: %w", errs.ErrValidation)
	}
	if !r.SubmittedAt.After(r.StartedAt) {
		return fmt.Errorf("submittedAt: must be after startedAt: %w", errs.ErrValidation)
	}
	for _, a := range r.Answers {
		if a.HintsUsed < 0 || a.HintsUsed > 10 {
			return fmt.Errorf("answers[%s].hintsUsed: must be between 0 and 10: %w", a.QuestionID, errs.ErrValidation)
		}
		if a.TimeSpent < 0 || a.TimeSpent > 7200 {
			return fmt.Errorf("answers[%s].timeSpent: must be between 0 and 7200 seconds: %w", a.QuestionID, errs.ErrValidation)
		}
	}
	return nil
}

// Result is SubmitQuiz's return shape, mirroring spec.md §6's submission
// wire format.
type Result struct {
	Submission models.Submission
	Results    Results
	Analytics  Analytics
}

type Results struct {
	Score          float64
	Grade          models.Grade
	CorrectAnswers int
	TotalQuestions int
	TotalTimeSpent int
	Suggestions    []string
	Strengths      []string
	Weaknesses     []string
	AIModel        *string
}

type Analytics struct {
	Updated bool
}

// SubmitQuiz implements spec.md §4.6's eight-step sequence. Steps 1, 2, 3,
// and 5 are mandatory; evaluation (step 6) and projection (step 7) are
// best-effort and run concurrently once the submission is durably
// persisted, via errgroup so neither can block the response past its own
// deadline.
func (o *Orchestrator) SubmitQuiz(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	quiz, err := o.Quizzes.GetQuizById(ctx, req.QuizID)
	if err != nil {
		return Result{}, err
	}

	graded, err := scoring.Grade(quiz.Questions, req.Answers, o.Log)
	if err != nil {
		return Result{}, err
	}
	summary := scoring.Summarize(graded)

	sub, err := o.persistWithRetry(ctx, req, quiz, graded, summary)
	if err != nil {
		return Result{}, err
	}

	var (
		evalResult *gateway.EvaluationResult
		projected  bool
	)

	g, gctx := errgroup.WithContext(ctx)
	if req.RequestEvaluation {
		g.Go(func() error {
			result, err := o.evaluate(gctx, quiz, graded)
			if err != nil {
				o.Log.Warn("evaluation failed, continuing without it", zap.Error(err))
				return nil
			}
			evalResult = &result
			if err := o.Submissions.UpdateAIEvaluation(gctx, sub.SubmissionID, models.AIEvaluation{
				Provider:    result.Provider,
				Suggestions: result.Suggestions,
				Strengths:   result.Strengths,
				Weaknesses:  result.Weaknesses,
				EvaluatedAt: time.Now(),
			}); err != nil {
				o.Log.Warn("failed to persist AI evaluation", zap.Error(err))
			}
			return nil
		})
	}

	g.Go(func() error {
		facts := projectorFacts(quiz, graded, sub, summary)
		if err := o.Projector.Project(gctx, req.UserID, quiz.Metadata.Subject, quiz.Metadata.Grade, facts); err != nil {
			o.Log.Warn("projection failed, continuing", zap.Error(err))
			return nil
		}
		projected = true
		return nil
	})

	_ = g.Wait()

	results := Results{
		Score:          summary.ScorePercentage,
		Grade:          summary.Grade,
		CorrectAnswers: summary.CorrectAnswers,
		TotalQuestions: summary.TotalQuestions,
		TotalTimeSpent: sub.Timing.TotalTimeSpent,
	}
	if evalResult != nil {
		results.Suggestions = evalResult.Suggestions
		results.Strengths = evalResult.Strengths
		results.Weaknesses = evalResult.Weaknesses
		provider := evalResult.Provider
		results.AIModel = &provider
	} else {
		results.Suggestions = []string{}
	}

	return Result{
		Submission: sub,
		Results:    results,
		Analytics:  Analytics{Updated: projected},
	}, nil
}

// persistWithRetry implements steps 3 and 5: compute attemptNumber and
// persist, retrying up to 3 times on errs.ErrDuplicateAttempt since a
// naive count+1 scheme can race with a concurrent submission for the same
// (userId, quizId).
func (o *Orchestrator) persistWithRetry(ctx context.Context, req Request, quiz models.Quiz, graded []models.GradedAnswer, summary models.Scoring) (models.Submission, error) {
	totalTimeSpent := int(req.SubmittedAt.Sub(req.StartedAt).Seconds())

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		count, err := o.Submissions.CountAttempts(ctx, req.UserID, req.QuizID)
		if err != nil {
			return models.Submission{}, fmt.Errorf("submission: count attempts: %w", err)
		}
		attemptNumber := count + 1

		sub := models.Submission{
			QuizID:        req.QuizID,
			UserID:        req.UserID,
			AttemptNumber: attemptNumber,
			Answers:       graded,
			Scoring:       summary,
			Timing: models.Timing{
				StartedAt:      req.StartedAt,
				SubmittedAt:    req.SubmittedAt,
				TotalTimeSpent: totalTimeSpent,
			},
			Metadata: models.SubmissionMetadata{
				IPAddress:  req.IPAddress,
				UserAgent:  req.UserAgent,
				DeviceType: detectDeviceType(req.UserAgent),
			},
			IsCompleted: true,
		}

		id, err := o.Submissions.CreateSubmission(ctx, sub)
		if err == nil {
			sub.SubmissionID = id
			return sub, nil
		}
		if !isDuplicateAttempt(err) {
			return models.Submission{}, err
		}
		lastErr = err
		backoff := time.Duration(attempt+1) * 20 * time.Millisecond
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return models.Submission{}, ctx.Err()
		}
	}
	return models.Submission{}, lastErr
}

func isDuplicateAttempt(err error) bool {
	return errors.Is(err, errs.ErrDuplicateAttempt)
}

// detectDeviceType implements spec.md §4.6 step 4: substring checks over
// the user-agent string, mobile markers taking priority over tablet.
func detectDeviceType(userAgent string) models.DeviceType {
	for _, marker := range []string{"Mobile", "Android", "iPhone", "iPad"} {
		if strings.Contains(userAgent, marker) {
			return models.DeviceMobile
		}
	}
	if strings.Contains(userAgent, "Tablet") {
		return models.DeviceTablet
	}
	return models.DeviceDesktop
}

func (o *Orchestrator) evaluate(ctx context.Context, quiz models.Quiz, graded []models.GradedAnswer) (gateway.EvaluationResult, error) {
	byID := make(map[models.QuestionID]models.Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		byID[q.QuestionID] = q
	}

	var wrong []gateway.WrongAnswerDetail
	for _, g := range graded {
		if g.IsCorrect {
			continue
		}
		q, ok := byID[g.QuestionID]
		if !ok {
			continue
		}
		wrong = append(wrong, gateway.WrongAnswerDetail{
			QuestionText:  q.Text,
			UserAnswer:    g.UserAnswer,
			CorrectAnswer: q.CorrectAnswer,
			Topic:         q.Topic,
		})
	}

	return o.Evaluator.EvaluateSubmission(ctx, wrong)
}

func projectorFacts(quiz models.Quiz, graded []models.GradedAnswer, sub models.Submission, summary models.Scoring) projector.SubmissionFacts {
	byID := make(map[models.QuestionID]models.Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		byID[q.QuestionID] = q
	}

	topics := make([]projector.AnsweredTopic, 0, len(graded))
	for _, g := range graded {
		q, ok := byID[g.QuestionID]
		if !ok || q.Topic == "" {
			continue
		}
		topics = append(topics, projector.AnsweredTopic{Topic: q.Topic, IsCorrect: g.IsCorrect, TimeSpent: g.TimeSpent})
	}

	return projector.SubmissionFacts{
		QuizID:         quiz.QuizID,
		Difficulty:     dominantDifficulty(quiz.Questions),
		Score:          summary.ScorePercentage,
		TotalTimeSpent: sub.Timing.TotalTimeSpent,
		Topics:         topics,
	}
}

// SubmissionDetails pairs a completed submission with the quiz it was taken
// against, questions included, so a client can render explanations after
// the fact.
type SubmissionDetails struct {
	Submission models.Submission
	Quiz       models.Quiz
}

// GetSubmissionDetails fetches a submission and its quiz together. Unlike a
// fresh quiz fetch, solutions are included here deliberately: this is a
// post-hoc review of the caller's own completed attempt, not a live quiz
// about to be taken, so there is nothing left to protect by hiding them.
func (o *Orchestrator) GetSubmissionDetails(ctx context.Context, submissionID models.SubmissionID, userID models.UserID) (SubmissionDetails, error) {
	sub, err := o.Submissions.GetSubmission(ctx, submissionID, userID)
	if err != nil {
		return SubmissionDetails{}, err
	}

	quiz, err := o.Quizzes.GetQuizById(ctx, sub.QuizID)
	if err != nil {
		return SubmissionDetails{}, err
	}
	quiz.Questions = sanitize.Questions(quiz.Questions, sanitize.Options{IncludeSolutions: true, IncludeHints: true})

	return SubmissionDetails{Submission: sub, Quiz: quiz}, nil
}

func dominantDifficulty(questions []models.Question) models.DifficultyLevel {
	counts := map[models.DifficultyLevel]int{}
	for _, q := range questions {
		counts[q.Difficulty]++
	}
	best := models.Medium
	bestCount := -1
	for level, count := range counts {
		if count > bestCount {
			best = level
			bestCount = count
		}
	}
	return best
}
