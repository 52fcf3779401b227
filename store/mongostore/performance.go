package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	quizerrs "quizcore/errs"
	"quizcore/models"
	"quizcore/store"
)

type PerformanceStore struct {
	collection *mongo.Collection
}

func NewPerformanceStore(db *mongo.Database) *PerformanceStore {
	return &PerformanceStore{collection: db.Collection("performance_history")}
}

// subjectPattern matches Subject case-insensitively without a collation,
// mirroring the store contract's "case-insensitive subject" requirement.
func subjectPattern(subject string) bson.M {
	return bson.M{"$regex": "^" + escapeRegex(subject) + "$", "$options": "i"}
}

func escapeRegex(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`, `.`, `\.`, `+`, `\+`, `*`, `\*`, `?`, `\?`,
		`(`, `\(`, `)`, `\)`, `[`, `\[`, `]`, `\]`, `^`, `\^`, `$`, `\$`, `|`, `\|`,
	)
	return replacer.Replace(s)
}

func (s *PerformanceStore) GetPerformance(ctx context.Context, userID models.UserID, subject string, grade int) (*models.PerformanceHistory, error) {
	var ph models.PerformanceHistory
	err := s.collection.FindOne(ctx, bson.M{
		"userId":  userID,
		"subject": subjectPattern(subject),
		"grade":   grade,
	}).Decode(&ph)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongostore: get performance: %w", err)
	}
	return &ph, nil
}

func (s *PerformanceStore) UpsertPerformance(ctx context.Context, ph models.PerformanceHistory, expectedLastCalculatedAt *time.Time) (models.PerformanceHistory, error) {
	filter := bson.M{
		"userId":  ph.UserID,
		"subject": subjectPattern(ph.Subject),
		"grade":   ph.Grade,
	}
	if expectedLastCalculatedAt != nil {
		filter["lastCalculatedAt"] = *expectedLastCalculatedAt
	} else {
		filter["lastCalculatedAt"] = bson.M{"$exists": false}
	}

	result := s.collection.FindOneAndUpdate(ctx,
		filter,
		bson.M{"$set": ph},
		options.FindOneAndUpdate().SetUpsert(expectedLastCalculatedAt == nil).SetReturnDocument(options.After),
	)

	var updated models.PerformanceHistory
	if err := result.Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.PerformanceHistory{}, fmt.Errorf("performance (%s,%s,%d): %w", ph.UserID, ph.Subject, ph.Grade, quizerrs.ErrProjectorConflict)
		}
		return models.PerformanceHistory{}, fmt.Errorf("mongostore: upsert performance: %w", err)
	}
	return updated, nil
}

func (s *PerformanceStore) ListAllForUser(ctx context.Context, userID models.UserID) ([]models.PerformanceHistory, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("mongostore: list performance for user: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.PerformanceHistory
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("mongostore: decode performance for user: %w", err)
	}
	return records, nil
}

func (s *PerformanceStore) ListForLeaderboard(ctx context.Context, filter store.LeaderboardFilter, limit int) ([]store.LeaderboardRow, error) {
	query := bson.M{}
	if filter.Subject != "" {
		query["subject"] = subjectPattern(filter.Subject)
	}
	if filter.Grade != 0 {
		query["grade"] = filter.Grade
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "stats.averageScore", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore: list leaderboard: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.PerformanceHistory
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("mongostore: decode leaderboard: %w", err)
	}

	rows := make([]store.LeaderboardRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, store.LeaderboardRow{
			UserID:       r.UserID,
			AverageScore: r.Stats.AverageScore,
			TotalQuizzes: r.Stats.TotalQuizzes,
		})
	}
	return rows, nil
}
