// Package store declares the persistence contracts for Quizzes,
// Submissions, and PerformanceHistory (spec.md §6). Two implementations
// exist: mongostore (production, backed by MongoDB) and memstore (an
// in-memory implementation for tests and no-Mongo hosts).
package store

import (
	"context"
	"time"

	"quizcore/models"
)

// QuizFilter narrows ListQuizzes.
type QuizFilter struct {
	Subject    string
	Grade      int
	Difficulty models.QuizDifficulty
	CreatedBy  models.UserID
	IsPublic   *bool
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// QuizStore is the persistence contract for Quiz aggregates.
type QuizStore interface {
	// GetQuizById returns the full quiz, including solutions.
	GetQuizById(ctx context.Context, id models.QuizID) (models.Quiz, error)
	// ListQuizzes returns quizzes without their Questions populated, plus
	// the total match count for pagination.
	ListQuizzes(ctx context.Context, filter QuizFilter, page Page) ([]models.Quiz, int, error)
	CreateQuiz(ctx context.Context, quiz models.Quiz) (models.QuizID, error)
	// UpdateQuiz applies patch only if the stored version equals
	// expectedVersion (optimistic concurrency).
	UpdateQuiz(ctx context.Context, id models.QuizID, patch QuizPatch, expectedVersion int) (models.Quiz, error)
	SoftDelete(ctx context.Context, id models.QuizID) error
	UpdateQuestionHints(ctx context.Context, quizID models.QuizID, questionID models.QuestionID, hints []string) (int, error)
}

// QuizPatch carries optional field updates for UpdateQuiz.
type QuizPatch struct {
	Title       *string
	Description *string
	IsPublic    *bool
	IsActive    *bool
}

// SortField is a caller-chosen sort key for ListSubmissions, mirroring the
// original submission-history endpoint's sortable fields.
type SortField string

const (
	SortBySubmittedAt SortField = "submittedAt"
	SortByScore       SortField = "score"
)

type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// SubmissionFilter narrows ListSubmissions. MinScore/MaxScore/From/To are
// all optional range bounds; nil means unbounded.
type SubmissionFilter struct {
	QuizID    models.QuizID
	Since     *time.Time // deprecated alias for From, kept for existing callers
	MinScore  *float64
	MaxScore  *float64
	From      *time.Time
	To        *time.Time
	SortBy    SortField
	SortOrder SortOrder
}

// SubmissionPage is ListSubmissions' pagination envelope: the matched slice
// plus enough metadata for a caller to render a pager without a second
// round trip.
type SubmissionPage struct {
	Submissions []models.Submission
	Total       int
	TotalPages  int
	HasNextPage bool
	HasPrevPage bool
}

// SubmissionStore is the persistence contract for Submission aggregates.
type SubmissionStore interface {
	// CreateSubmission fails with errs.ErrDuplicateAttempt on a
	// (userId, quizId, attemptNumber) conflict.
	CreateSubmission(ctx context.Context, s models.Submission) (models.SubmissionID, error)
	GetSubmission(ctx context.Context, id models.SubmissionID, userID models.UserID) (models.Submission, error)
	ListSubmissions(ctx context.Context, userID models.UserID, filter SubmissionFilter, page Page) (SubmissionPage, error)
	CountAttempts(ctx context.Context, userID models.UserID, quizID models.QuizID) (int, error)
	// UpdateAIEvaluation attaches an evaluation to an already-persisted
	// submission; used by the Submission Orchestrator's best-effort step 6.
	UpdateAIEvaluation(ctx context.Context, id models.SubmissionID, eval models.AIEvaluation) error
}

// LeaderboardFilter narrows ListForLeaderboard.
type LeaderboardFilter struct {
	Subject string
	Grade   int
}

// LeaderboardRow is one ranked entry.
type LeaderboardRow struct {
	UserID       models.UserID
	AverageScore float64
	TotalQuizzes int
}

// PerformanceStore is the persistence contract for PerformanceHistory.
type PerformanceStore interface {
	// GetPerformance matches Subject case-insensitively. Returns nil, nil
	// if no record exists yet.
	GetPerformance(ctx context.Context, userID models.UserID, subject string, grade int) (*models.PerformanceHistory, error)
	// ListAllForUser returns every PerformanceHistory record the user has,
	// across all subjects and grades, for computing a global average.
	ListAllForUser(ctx context.Context, userID models.UserID) ([]models.PerformanceHistory, error)
	// UpsertPerformance writes ph. If expectedLastCalculatedAt is non-nil,
	// the write fails with errs.ErrProjectorConflict if the stored
	// LastCalculatedAt no longer matches (optimistic concurrency).
	UpsertPerformance(ctx context.Context, ph models.PerformanceHistory, expectedLastCalculatedAt *time.Time) (models.PerformanceHistory, error)
	ListForLeaderboard(ctx context.Context, filter LeaderboardFilter, limit int) ([]LeaderboardRow, error)
}
