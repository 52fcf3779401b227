// Package projector implements the Performance Projector (C5), the sole
// writer of PerformanceHistory records. Project folds one completed
// submission into the learner's running per-subject statistics.
package projector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"quizcore/errs"
	"quizcore/models"
)

// Store is the subset of the Performance store contract the projector needs.
type Store interface {
	GetPerformance(ctx context.Context, userID models.UserID, subject string, grade int) (*models.PerformanceHistory, error)
	UpsertPerformance(ctx context.Context, ph models.PerformanceHistory, expectedLastCalculatedAt *time.Time) (models.PerformanceHistory, error)
}

// AnsweredTopic is one graded answer's topic contribution, used to update
// per-topic stats in step 7 of the update sequence.
type AnsweredTopic struct {
	Topic     string
	IsCorrect bool
	TimeSpent int // seconds spent on this question
}

// SubmissionFacts is the subset of a Submission the projector needs, so the
// package does not import submission orchestration logic.
type SubmissionFacts struct {
	QuizID         models.QuizID
	Difficulty     models.DifficultyLevel
	Score          float64
	TotalTimeSpent int // seconds
	Topics         []AnsweredTopic
}

// Projector folds submissions into PerformanceHistory, one key
// (userId, subject, grade) at a time. Each key gets its own *sync.Mutex so
// concurrent projections for the same key run one after another — each with
// its own facts fully applied — rather than racing on read-modify-write.
type Projector struct {
	store Store
	log   *zap.Logger

	keyMu sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store Store, log *zap.Logger) *Projector {
	return &Projector{
		store: store,
		log:   log.With(zap.String("component", "projector")),
		locks: make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex for key, creating it on first use.
func (p *Projector) lockFor(key string) *sync.Mutex {
	p.keyMu.Lock()
	defer p.keyMu.Unlock()
	m, ok := p.locks[key]
	if !ok {
		m = &sync.Mutex{}
		p.locks[key] = m
	}
	return m
}

// Project implements spec.md §4.5's 8-step update sequence. It retries up
// to 3 times on ErrProjectorConflict (optimistic-concurrency loss), then
// logs and returns nil — projection is eventually consistent and must never
// block a submission response.
func (p *Projector) Project(ctx context.Context, userID models.UserID, subject string, grade int, facts SubmissionFacts) error {
	key := fmt.Sprintf("%s|%s|%d", userID, strings.ToLower(subject), grade)

	lock := p.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if err := p.projectOnce(ctx, userID, subject, grade, facts); err != nil {
			lastErr = err
			if !isConflict(err) {
				return err
			}
			continue
		}
		return nil
	}

	p.log.Warn("dropping projection after repeated optimistic-concurrency conflicts",
		zap.String("userId", userID.String()), zap.String("subject", subject), zap.Error(lastErr))
	return nil
}

func isConflict(err error) bool {
	return errors.Is(err, errs.ErrProjectorConflict)
}

func (p *Projector) projectOnce(ctx context.Context, userID models.UserID, subject string, grade int, facts SubmissionFacts) error {
	existing, err := p.store.GetPerformance(ctx, userID, subject, grade)
	if err != nil {
		return fmt.Errorf("projector: get performance: %w", err)
	}

	var ph models.PerformanceHistory
	var expected *time.Time
	if existing != nil {
		ph = *existing
		t := ph.LastCalculatedAt
		expected = &t
	} else {
		ph = models.PerformanceHistory{UserID: userID, Subject: subject, Grade: grade}
	}

	now := time.Now()
	newScore := facts.Score
	newTimeMinutes := int(math.Round(float64(facts.TotalTimeSpent) / 60))

	n := ph.Stats.TotalQuizzes + 1
	oldAverage := ph.Stats.AverageScore
	newAverage := (oldAverage*float64(ph.Stats.TotalQuizzes) + newScore) / float64(n)

	best := ph.Stats.BestScore
	if n == 1 || newScore > best {
		best = newScore
	}
	worst := ph.Stats.WorstScore
	if n == 1 || newScore < worst {
		worst = newScore
	}

	ph.Stats.TotalQuizzes = n
	ph.Stats.AverageScore = newAverage
	ph.Stats.BestScore = best
	ph.Stats.WorstScore = worst
	ph.Stats.TotalTimeSpentMinutes += newTimeMinutes

	scoreSeries := make([]float64, 0, len(ph.RecentPerformance)+1)
	scoreSeries = append(scoreSeries, newScore)
	for _, r := range ph.RecentPerformance {
		scoreSeries = append(scoreSeries, r.Score)
	}
	ph.Stats.Consistency = consistencyFromSeries(scoreSeries)

	ph.RecentPerformance = append([]models.RecentAttempt{{
		Date:       now,
		Score:      newScore,
		QuizID:     facts.QuizID,
		Difficulty: facts.Difficulty,
	}}, ph.RecentPerformance...)
	if len(ph.RecentPerformance) > models.MaxRecentPerformance {
		ph.RecentPerformance = ph.RecentPerformance[:models.MaxRecentPerformance]
	}

	ph.Trends = recomputeTrends(ph.RecentPerformance, ph.Stats.AverageScore)

	ph.TopicWiseStats = updateTopicStats(ph.TopicWiseStats, facts.Topics)

	ph.LastCalculatedAt = now

	updated, err := p.store.UpsertPerformance(ctx, ph, expected)
	if err != nil {
		return err
	}
	_ = updated
	return nil
}

func consistencyFromSeries(scores []float64) float64 {
	if len(scores) < 2 {
		return 100
	}
	variance, err := stats.PopulationVariance(scores)
	if err != nil {
		return 100
	}
	stdev := math.Sqrt(variance)
	v := 100 - stdev
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func recomputeTrends(recent []models.RecentAttempt, average float64) models.Trends {
	if len(recent) < 3 {
		return models.Trends{Improving: true, TrendDirection: models.TrendStable, RecommendedDifficulty: models.Medium}
	}

	newest := recent[:3]
	sum := 0.0
	for _, r := range newest {
		sum += r.Score
	}
	avg3 := sum / 3

	diff := avg3 - average
	var direction models.TrendDirection
	improving := true
	switch {
	case diff > 5:
		direction = models.TrendUp
		improving = true
	case diff < -5:
		direction = models.TrendDown
		improving = false
	default:
		direction = models.TrendStable
	}

	var recommended models.DifficultyLevel
	switch {
	case avg3 >= 85:
		recommended = models.Hard
	case avg3 < 65:
		recommended = models.Easy
	default:
		recommended = models.Medium
	}

	return models.Trends{Improving: improving, TrendDirection: direction, RecommendedDifficulty: recommended}
}

func updateTopicStats(existing []models.TopicStats, topics []AnsweredTopic) []models.TopicStats {
	indexByTopic := make(map[string]int, len(existing))
	for i := range existing {
		indexByTopic[existing[i].Topic] = i
	}

	for _, t := range topics {
		if t.Topic == "" {
			continue
		}
		idx, ok := indexByTopic[t.Topic]
		if !ok {
			existing = append(existing, models.TopicStats{Topic: t.Topic})
			idx = len(existing) - 1
			indexByTopic[t.Topic] = idx
		}

		stat := &existing[idx]
		prevCount := stat.TotalQuestions
		stat.TotalQuestions++
		if t.IsCorrect {
			stat.CorrectAnswers++
		}
		stat.Accuracy = float64(stat.CorrectAnswers) / float64(stat.TotalQuestions)
		stat.AvgTimePerQuestion = (stat.AvgTimePerQuestion*float64(prevCount) + float64(t.TimeSpent)) / float64(stat.TotalQuestions)
	}

	return existing
}
