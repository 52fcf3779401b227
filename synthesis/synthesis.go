// Package synthesis implements the Quiz Synthesis Orchestrator (C7): the
// entry point that turns a learner's performance history into a freshly
// generated, persisted, and sanitized quiz.
package synthesis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"quizcore/difficulty"
	"quizcore/errs"
	"quizcore/gateway"
	"quizcore/models"
	"quizcore/sanitize"
	"quizcore/store"
)

// PerformanceSource is the subset of the Performance store the orchestrator
// needs to build the offline engine's input.
type PerformanceSource interface {
	ListAllForUser(ctx context.Context, userID models.UserID) ([]models.PerformanceHistory, error)
}

// QuestionGenerator is the subset of gateway.Gateway the orchestrator needs.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, params gateway.QuizGenerationParams) ([]models.Question, error)
}

// Orchestrator wires C5's store, C4's offline engine, C1's generation call,
// the quiz store, and C2's sanitizer into one adaptive-quiz-generation flow.
type Orchestrator struct {
	Performance PerformanceSource
	Generator   QuestionGenerator
	Quizzes     store.QuizStore
	Log         *zap.Logger
}

func New(performance PerformanceSource, generator QuestionGenerator, quizzes store.QuizStore, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		Performance: performance,
		Generator:   generator,
		Quizzes:     quizzes,
		Log:         log.With(zap.String("component", "synthesis")),
	}
}

// Request is the input to GenerateAdaptiveQuiz.
type Request struct {
	UserID     models.UserID
	Grade      int
	Subject    string
	Title      string
	Count      int
	Topics     []string
	Requested  models.RequestedDifficulty
	CreatedBy  models.UserID
	IsPublic   bool
}

// Validate enforces the numeric bounds the original generate-quiz request
// schema encoded as Joi rules (grade 1-12, question count 1-50).
func (r Request) Validate() error {
	if r.Grade < 1 || r.Grade > 12 {
		return fmt.Errorf("grade: must be between 1 and 12: %w", errs.ErrValidation)
	}
	if r.Count < 1 || r.Count > 50 {
		return fmt.Errorf("count: must be between 1 and 50: %w", errs.ErrValidation)
	}
	if r.Subject == "" {
		return fmt.Errorf("subject: must not be empty: %w", errs.ErrValidation)
	}
	return nil
}

// GenerateAdaptiveQuiz implements spec.md §4.7's five-step sequence: read
// performance, recommend a distribution offline, generate questions against
// that distribution, persist the quiz with its adaptiveMetadata, and return
// it sanitized for the requesting learner.
func (o *Orchestrator) GenerateAdaptiveQuiz(ctx context.Context, req Request) (models.Quiz, error) {
	if err := req.Validate(); err != nil {
		return models.Quiz{}, err
	}

	data, err := o.buildPerformanceData(ctx, req.UserID, req.Subject, req.Grade)
	if err != nil {
		return models.Quiz{}, fmt.Errorf("synthesis: load performance: %w", err)
	}

	recommendation := difficulty.Recommend(data, req.Subject, req.Requested)
	o.Log.Info("offline recommendation computed",
		zap.String("userId", req.UserID.String()),
		zap.String("subject", req.Subject),
		zap.Int("easy", recommendation.Distribution.Easy),
		zap.Int("medium", recommendation.Distribution.Medium),
		zap.Int("hard", recommendation.Distribution.Hard),
		zap.String("confidence", string(recommendation.ConfidenceLevel)),
	)

	params := gateway.QuizGenerationParams{
		Grade:        fmt.Sprintf("%d", req.Grade),
		Subject:      req.Subject,
		Count:        req.Count,
		Topics:       req.Topics,
		Difficulty:   models.QuizMixed,
		Distribution: recommendation.Distribution,
	}

	questions, err := o.Generator.GenerateQuestions(ctx, params)
	if err != nil {
		return models.Quiz{}, fmt.Errorf("synthesis: generate questions: %w", err)
	}

	now := time.Now()
	quiz := models.Quiz{
		Title:       req.Title,
		Description: fmt.Sprintf("Adaptive %s quiz, grade %d", req.Subject, req.Grade),
		Metadata: models.QuizMetadata{
			Grade:            req.Grade,
			Subject:          req.Subject,
			TotalQuestions:   len(questions),
			TimeLimitMinutes: timeLimitFor(len(questions)),
			Difficulty:       models.QuizAdaptive,
			Category:         req.Subject,
			AdaptiveMetadata: &models.AdaptiveMetadata{
				Distribution:       recommendation.Distribution,
				ConfidenceLevel:    recommendation.ConfidenceLevel,
				PerformanceScore:   recommendation.PerformanceScore,
				ConsistencyScore:   recommendation.ConsistencyScore,
				ImprovementTrend:   recommendation.ImprovementTrend,
				SubjectFamiliarity: recommendation.SubjectFamiliarity,
				Baseline:           data,
			},
		},
		Questions: questions,
		CreatedBy: req.CreatedBy,
		IsPublic:  req.IsPublic,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	id, err := o.Quizzes.CreateQuiz(ctx, quiz)
	if err != nil {
		return models.Quiz{}, fmt.Errorf("synthesis: persist quiz: %w", err)
	}
	quiz.QuizID = id

	sanitized := quiz
	sanitized.Questions = sanitize.Questions(quiz.Questions, sanitize.Options{IncludeSolutions: false, IncludeHints: true})
	return sanitized, nil
}

// buildPerformanceData derives the offline engine's PerformanceData input
// from every PerformanceHistory record the learner has: a quiz-weighted
// global average across all of them, plus the record matching subject and
// grade. When no such record exists, the subject-scoped fields stay zero.
func (o *Orchestrator) buildPerformanceData(ctx context.Context, userID models.UserID, subject string, grade int) (models.PerformanceData, error) {
	all, err := o.Performance.ListAllForUser(ctx, userID)
	if err != nil {
		return models.PerformanceData{}, err
	}

	globalAverage, globalQuizzes := weightedAverage(all)

	var subjectRecord *models.PerformanceHistory
	for i := range all {
		if strings.EqualFold(all[i].Subject, subject) && all[i].Grade == grade {
			subjectRecord = &all[i]
			break
		}
	}

	if subjectRecord == nil {
		return models.PerformanceData{
			GlobalAverage: globalAverage,
			TotalQuizzes:  globalQuizzes,
		}, nil
	}

	recent := append([]models.RecentAttempt(nil), subjectRecord.RecentPerformance...)
	sort.Slice(recent, func(i, j int) bool { return recent[i].Date.After(recent[j].Date) })

	daysSince := 0
	if len(recent) > 0 {
		daysSince = int(time.Since(recent[0].Date).Hours() / 24)
	}

	return models.PerformanceData{
		GlobalAverage:       globalAverage,
		SubjectAverage:      subjectRecord.Stats.AverageScore,
		HasSubjectHistory:   subjectRecord.Stats.TotalQuizzes > 0,
		TotalSubjectQuizzes: subjectRecord.Stats.TotalQuizzes,
		TotalQuizzes:        globalQuizzes,
		RecentScores:        recent,
		DaysSinceLastQuiz:   daysSince,
	}, nil
}

// weightedAverage folds every subject's average score into one global
// average, weighted by how many quizzes contributed to each subject's
// average so a subject attempted once doesn't outweigh one attempted fifty
// times.
func weightedAverage(all []models.PerformanceHistory) (float64, int) {
	totalQuizzes := 0
	weightedSum := 0.0
	for _, ph := range all {
		totalQuizzes += ph.Stats.TotalQuizzes
		weightedSum += ph.Stats.AverageScore * float64(ph.Stats.TotalQuizzes)
	}
	if totalQuizzes == 0 {
		return 0, 0
	}
	return weightedSum / float64(totalQuizzes), totalQuizzes
}

// timeLimitFor allots two minutes per question, mirroring the fixed-rate
// estimate the teacher's sample-quiz generator used.
func timeLimitFor(count int) int {
	if count <= 0 {
		return 0
	}
	return count * 2
}
