package projector

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quizcore/models"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]models.PerformanceHistory
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]models.PerformanceHistory)}
}

func (m *memStore) key(userID models.UserID, subject string, grade int) string {
	return string(userID) + "|" + subject + "|" + string(rune(grade))
}

func (m *memStore) GetPerformance(ctx context.Context, userID models.UserID, subject string, grade int) (*models.PerformanceHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ph, ok := m.data[m.key(userID, subject, grade)]
	if !ok {
		return nil, nil
	}
	cp := ph
	return &cp, nil
}

func (m *memStore) UpsertPerformance(ctx context.Context, ph models.PerformanceHistory, expected *time.Time) (models.PerformanceHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[m.key(ph.UserID, ph.Subject, ph.Grade)] = ph
	return ph, nil
}

func TestProject_FirstSubmissionInitializesStats(t *testing.T) {
	store := newMemStore()
	p := New(store, zap.NewNop())

	err := p.Project(context.Background(), "u1", "math", 5, SubmissionFacts{
		QuizID: "q1", Difficulty: models.Medium, Score: 80, TotalTimeSpent: 120,
		Topics: []AnsweredTopic{{Topic: "algebra", IsCorrect: true}},
	})
	require.NoError(t, err)

	ph, err := store.GetPerformance(context.Background(), "u1", "math", 5)
	require.NoError(t, err)
	require.NotNil(t, ph)
	assert.Equal(t, 1, ph.Stats.TotalQuizzes)
	assert.Equal(t, 80.0, ph.Stats.AverageScore)
	assert.Len(t, ph.RecentPerformance, 1)
	assert.Len(t, ph.TopicWiseStats, 1)
	assert.Equal(t, "algebra", ph.TopicWiseStats[0].Topic)
	assert.Equal(t, 1.0, ph.TopicWiseStats[0].Accuracy)
}

func TestProject_RunningAverageAndBestWorst(t *testing.T) {
	store := newMemStore()
	p := New(store, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, p.Project(ctx, "u1", "math", 5, SubmissionFacts{QuizID: "q1", Score: 60, TotalTimeSpent: 60}))
	require.NoError(t, p.Project(ctx, "u1", "math", 5, SubmissionFacts{QuizID: "q2", Score: 100, TotalTimeSpent: 60}))

	ph, err := store.GetPerformance(ctx, "u1", "math", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, ph.Stats.TotalQuizzes)
	assert.Equal(t, 80.0, ph.Stats.AverageScore)
	assert.Equal(t, 100.0, ph.Stats.BestScore)
	assert.Equal(t, 60.0, ph.Stats.WorstScore)
}

func TestProject_RecentPerformanceTruncatesAt20(t *testing.T) {
	store := newMemStore()
	p := New(store, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		require.NoError(t, p.Project(ctx, "u1", "math", 5, SubmissionFacts{QuizID: "q1", Score: 50, TotalTimeSpent: 30}))
	}

	ph, err := store.GetPerformance(ctx, "u1", "math", 5)
	require.NoError(t, err)
	assert.Len(t, ph.RecentPerformance, models.MaxRecentPerformance)
	assert.Equal(t, 25, ph.Stats.TotalQuizzes)
}

func TestProject_ConcurrentSameKeyAppliesEverySubmission(t *testing.T) {
	store := newMemStore()
	p := New(store, zap.NewNop())
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			require.NoError(t, p.Project(ctx, "u1", "math", 5, SubmissionFacts{QuizID: "q1", Score: 70, TotalTimeSpent: 60}))
		}()
	}
	wg.Wait()

	ph, err := store.GetPerformance(ctx, "u1", "math", 5)
	require.NoError(t, err)
	assert.Equal(t, n, ph.Stats.TotalQuizzes)
}

func TestProject_TopicStatsUseEachAnswersOwnTime(t *testing.T) {
	store := newMemStore()
	p := New(store, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, p.Project(ctx, "u1", "math", 5, SubmissionFacts{
		QuizID: "q1", Score: 100, TotalTimeSpent: 100,
		Topics: []AnsweredTopic{
			{Topic: "algebra", IsCorrect: true, TimeSpent: 90},
			{Topic: "geometry", IsCorrect: true, TimeSpent: 10},
		},
	}))

	ph, err := store.GetPerformance(ctx, "u1", "math", 5)
	require.NoError(t, err)
	byTopic := make(map[string]models.TopicStats, len(ph.TopicWiseStats))
	for _, ts := range ph.TopicWiseStats {
		byTopic[ts.Topic] = ts
	}
	assert.Equal(t, 90.0, byTopic["algebra"].AvgTimePerQuestion)
	assert.Equal(t, 10.0, byTopic["geometry"].AvgTimePerQuestion)
}

func TestProject_TrendsNeedsAtLeastThreeEntries(t *testing.T) {
	store := newMemStore()
	p := New(store, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, p.Project(ctx, "u1", "math", 5, SubmissionFacts{QuizID: "q1", Score: 80, TotalTimeSpent: 60}))
	ph, err := store.GetPerformance(ctx, "u1", "math", 5)
	require.NoError(t, err)
	assert.Equal(t, models.TrendStable, ph.Trends.TrendDirection)
	assert.True(t, ph.Trends.Improving)
}
