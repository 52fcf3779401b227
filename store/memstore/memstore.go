// Package memstore implements the store contracts entirely in memory,
// guarded by sync.RWMutex. It backs tests and hosts that run without a
// MongoDB instance.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	quizerrs "quizcore/errs"
	"quizcore/models"
	"quizcore/store"
)

// Store holds all three aggregates. Embedding them behind one struct keeps
// the seeding helper and a single RWMutex over all three maps in one place;
// callers typically pass the three typed views (QuizStore(), SubmissionStore(),
// PerformanceStore()) to the components that only need one contract.
type Store struct {
	mu sync.RWMutex

	quizzes      map[models.QuizID]models.Quiz
	submissions  map[models.SubmissionID]models.Submission
	performance  map[string]models.PerformanceHistory
}

func New() *Store {
	return &Store{
		quizzes:     make(map[models.QuizID]models.Quiz),
		submissions: make(map[models.SubmissionID]models.Submission),
		performance: make(map[string]models.PerformanceHistory),
	}
}

func (s *Store) QuizStore() store.QuizStore             { return (*quizView)(s) }
func (s *Store) SubmissionStore() store.SubmissionStore { return (*submissionView)(s) }
func (s *Store) PerformanceStore() store.PerformanceStore { return (*performanceView)(s) }

func performanceKey(userID models.UserID, subject string, grade int) string {
	return fmt.Sprintf("%s|%s|%d", userID, strings.ToLower(subject), grade)
}

type quizView Store

func (v *quizView) GetQuizById(ctx context.Context, id models.QuizID) (models.Quiz, error) {
	s := (*Store)(v)
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return models.Quiz{}, fmt.Errorf("quiz %s: %w", id, quizerrs.ErrQuizNotFound)
	}
	return quiz, nil
}

func (v *quizView) ListQuizzes(ctx context.Context, filter store.QuizFilter, page store.Page) ([]models.Quiz, int, error) {
	s := (*Store)(v)
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		if !quiz.IsActive {
			continue
		}
		if filter.Subject != "" && !strings.EqualFold(quiz.Metadata.Subject, filter.Subject) {
			continue
		}
		if filter.Grade != 0 && quiz.Metadata.Grade != filter.Grade {
			continue
		}
		if filter.Difficulty != "" && quiz.Metadata.Difficulty != filter.Difficulty {
			continue
		}
		if filter.CreatedBy != "" && quiz.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.IsPublic != nil && quiz.IsPublic != *filter.IsPublic {
			continue
		}
		stripped := quiz
		stripped.Questions = nil
		matched = append(matched, stripped)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	start := (page.Number - 1) * page.Size
	if start < 0 || start >= total {
		return []models.Quiz{}, total, nil
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (v *quizView) CreateQuiz(ctx context.Context, quiz models.Quiz) (models.QuizID, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	if quiz.QuizID == "" {
		quiz.QuizID = models.QuizID(uuid.NewString())
	}
	quiz.Version = 1
	now := time.Now()
	quiz.CreatedAt, quiz.UpdatedAt = now, now
	s.quizzes[quiz.QuizID] = quiz
	return quiz.QuizID, nil
}

func (v *quizView) UpdateQuiz(ctx context.Context, id models.QuizID, patch store.QuizPatch, expectedVersion int) (models.Quiz, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	quiz, ok := s.quizzes[id]
	if !ok {
		return models.Quiz{}, fmt.Errorf("quiz %s: %w", id, quizerrs.ErrQuizNotFound)
	}
	if quiz.Version != expectedVersion {
		return models.Quiz{}, fmt.Errorf("quiz %s: version mismatch: %w", id, quizerrs.ErrValidation)
	}

	if patch.Title != nil {
		quiz.Title = *patch.Title
	}
	if patch.Description != nil {
		quiz.Description = *patch.Description
	}
	if patch.IsPublic != nil {
		quiz.IsPublic = *patch.IsPublic
	}
	if patch.IsActive != nil {
		quiz.IsActive = *patch.IsActive
	}
	quiz.Version++
	quiz.UpdatedAt = time.Now()
	s.quizzes[id] = quiz
	return quiz, nil
}

func (v *quizView) SoftDelete(ctx context.Context, id models.QuizID) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	quiz, ok := s.quizzes[id]
	if !ok {
		return fmt.Errorf("quiz %s: %w", id, quizerrs.ErrQuizNotFound)
	}
	quiz.IsActive = false
	quiz.UpdatedAt = time.Now()
	s.quizzes[id] = quiz
	return nil
}

func (v *quizView) UpdateQuestionHints(ctx context.Context, quizID models.QuizID, questionID models.QuestionID, hints []string) (int, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	quiz, ok := s.quizzes[quizID]
	if !ok {
		return 0, fmt.Errorf("quiz %s: %w", quizID, quizerrs.ErrQuizNotFound)
	}
	found := false
	for i := range quiz.Questions {
		if quiz.Questions[i].QuestionID == questionID {
			quiz.Questions[i].Hints = hints
			found = true
			break
		}
	}
	if !found {
		return 0, fmt.Errorf("question %s in quiz %s: %w", questionID, quizID, quizerrs.ErrQuestionNotFound)
	}
	quiz.Version++
	quiz.UpdatedAt = time.Now()
	s.quizzes[quizID] = quiz
	return quiz.Version, nil
}

type submissionView Store

func (v *submissionView) CreateSubmission(ctx context.Context, sub models.Submission) (models.SubmissionID, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.submissions {
		if existing.UserID == sub.UserID && existing.QuizID == sub.QuizID && existing.AttemptNumber == sub.AttemptNumber {
			return "", fmt.Errorf("submission (%s,%s,%d): %w", sub.UserID, sub.QuizID, sub.AttemptNumber, quizerrs.ErrDuplicateAttempt)
		}
	}

	if sub.SubmissionID == "" {
		sub.SubmissionID = models.SubmissionID(uuid.NewString())
	}
	sub.CreatedAt = time.Now()
	s.submissions[sub.SubmissionID] = sub
	return sub.SubmissionID, nil
}

func (v *submissionView) GetSubmission(ctx context.Context, id models.SubmissionID, userID models.UserID) (models.Submission, error) {
	s := (*Store)(v)
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.submissions[id]
	if !ok || sub.UserID != userID {
		return models.Submission{}, fmt.Errorf("submission %s: %w", id, quizerrs.ErrSubmissionNotFound)
	}
	return sub, nil
}

func (v *submissionView) ListSubmissions(ctx context.Context, userID models.UserID, filter store.SubmissionFilter, page store.Page) (store.SubmissionPage, error) {
	s := (*Store)(v)
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.Submission, 0)
	for _, sub := range s.submissions {
		if sub.UserID != userID {
			continue
		}
		if filter.QuizID != "" && sub.QuizID != filter.QuizID {
			continue
		}
		if filter.Since != nil && sub.Timing.SubmittedAt.Before(*filter.Since) {
			continue
		}
		if filter.From != nil && sub.Timing.SubmittedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && sub.Timing.SubmittedAt.After(*filter.To) {
			continue
		}
		if filter.MinScore != nil && sub.Scoring.ScorePercentage < *filter.MinScore {
			continue
		}
		if filter.MaxScore != nil && sub.Scoring.ScorePercentage > *filter.MaxScore {
			continue
		}
		matched = append(matched, sub)
	}

	ascending := filter.SortOrder == store.SortAscending
	byScore := filter.SortBy == store.SortByScore
	sort.Slice(matched, func(i, j int) bool {
		a, b := i, j
		if !ascending {
			a, b = j, i
		}
		if byScore {
			return matched[a].Scoring.ScorePercentage < matched[b].Scoring.ScorePercentage
		}
		return matched[a].Timing.SubmittedAt.Before(matched[b].Timing.SubmittedAt)
	})

	total := len(matched)
	totalPages := (total + page.Size - 1) / page.Size
	if totalPages < 1 {
		totalPages = 1
	}
	start := (page.Number - 1) * page.Size
	if start < 0 || start >= total {
		return store.SubmissionPage{Submissions: []models.Submission{}, Total: total, TotalPages: totalPages, HasPrevPage: page.Number > 1}, nil
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	return store.SubmissionPage{
		Submissions: matched[start:end],
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: page.Number < totalPages,
		HasPrevPage: page.Number > 1,
	}, nil
}

func (v *submissionView) CountAttempts(ctx context.Context, userID models.UserID, quizID models.QuizID) (int, error) {
	s := (*Store)(v)
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, sub := range s.submissions {
		if sub.UserID == userID && sub.QuizID == quizID {
			count++
		}
	}
	return count, nil
}

func (v *submissionView) UpdateAIEvaluation(ctx context.Context, id models.SubmissionID, eval models.AIEvaluation) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok {
		return fmt.Errorf("submission %s: %w", id, quizerrs.ErrSubmissionNotFound)
	}
	sub.AIEvaluation = &eval
	s.submissions[id] = sub
	return nil
}

type performanceView Store

func (v *performanceView) GetPerformance(ctx context.Context, userID models.UserID, subject string, grade int) (*models.PerformanceHistory, error) {
	s := (*Store)(v)
	s.mu.RLock()
	defer s.mu.RUnlock()

	ph, ok := s.performance[performanceKey(userID, subject, grade)]
	if !ok {
		return nil, nil
	}
	cp := ph
	return &cp, nil
}

func (v *performanceView) UpsertPerformance(ctx context.Context, ph models.PerformanceHistory, expectedLastCalculatedAt *time.Time) (models.PerformanceHistory, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	key := performanceKey(ph.UserID, ph.Subject, ph.Grade)
	existing, ok := s.performance[key]

	if expectedLastCalculatedAt != nil {
		if !ok || !existing.LastCalculatedAt.Equal(*expectedLastCalculatedAt) {
			return models.PerformanceHistory{}, fmt.Errorf("performance (%s,%s,%d): %w", ph.UserID, ph.Subject, ph.Grade, quizerrs.ErrProjectorConflict)
		}
	} else if ok {
		return models.PerformanceHistory{}, fmt.Errorf("performance (%s,%s,%d): %w", ph.UserID, ph.Subject, ph.Grade, quizerrs.ErrProjectorConflict)
	}

	s.performance[key] = ph
	return ph, nil
}

func (v *performanceView) ListAllForUser(ctx context.Context, userID models.UserID) ([]models.PerformanceHistory, error) {
	s := (*Store)(v)
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.PerformanceHistory, 0)
	for _, ph := range s.performance {
		if ph.UserID == userID {
			records = append(records, ph)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Subject < records[j].Subject })
	return records, nil
}

func (v *performanceView) ListForLeaderboard(ctx context.Context, filter store.LeaderboardFilter, limit int) ([]store.LeaderboardRow, error) {
	s := (*Store)(v)
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.PerformanceHistory, 0)
	for _, ph := range s.performance {
		if filter.Subject != "" && !strings.EqualFold(ph.Subject, filter.Subject) {
			continue
		}
		if filter.Grade != 0 && ph.Grade != filter.Grade {
			continue
		}
		matched = append(matched, ph)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Stats.AverageScore > matched[j].Stats.AverageScore })

	if len(matched) > limit {
		matched = matched[:limit]
	}

	rows := make([]store.LeaderboardRow, 0, len(matched))
	for _, ph := range matched {
		rows = append(rows, store.LeaderboardRow{
			UserID:       ph.UserID,
			AverageScore: ph.Stats.AverageScore,
			TotalQuizzes: ph.Stats.TotalQuizzes,
		})
	}
	return rows, nil
}
