// Package mongostore implements the store contracts (store.QuizStore,
// store.SubmissionStore, store.PerformanceStore) against MongoDB, adapting
// the connection and indexing conventions of the host's Mongo stack.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Config mirrors the host's Mongo connection settings.
type Config struct {
	URI         string
	Name        string
	MaxPoolSize uint64
}

// Connect opens a database handle and creates the indexes required by
// spec.md §6, then returns it ready for NewQuizStore/NewSubmissionStore/
// NewPerformanceStore.
func Connect(ctx context.Context, cfg Config, log *zap.Logger) (*mongo.Database, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMaxConnIdleTime(30 * time.Minute).
		SetServerSelectionTimeout(5 * time.Second)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("mongostore: ping: %w", err)
	}

	log.Info("connected to MongoDB", zap.String("database", cfg.Name))

	db := client.Database(cfg.Name)
	if err := createIndexes(ctx, db); err != nil {
		log.Warn("failed to create indexes", zap.Error(err))
	}
	return db, nil
}

// createIndexes builds the three indexes spec.md §6 requires: a unique
// compound attempt index, a submittedAt-descending index for listing, and a
// unique per-(user,subject,grade) performance index, plus a fourth index on
// quizzes.createdBy.
func createIndexes(ctx context.Context, db *mongo.Database) error {
	submissions := db.Collection("submissions")

	attemptIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "quizId", Value: 1}, {Key: "attemptNumber", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	submittedAtIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timing.submittedAt", Value: -1}},
	}
	if _, err := submissions.Indexes().CreateMany(ctx, []mongo.IndexModel{attemptIndex, submittedAtIndex}); err != nil {
		return fmt.Errorf("failed to create submissions indexes: %w", err)
	}

	performance := db.Collection("performance_history")
	performanceIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "subject", Value: 1}, {Key: "grade", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := performance.Indexes().CreateMany(ctx, []mongo.IndexModel{performanceIndex}); err != nil {
		return fmt.Errorf("failed to create performance_history indexes: %w", err)
	}

	quizzes := db.Collection("quizzes")
	quizIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "createdBy", Value: 1}},
	}
	if _, err := quizzes.Indexes().CreateMany(ctx, []mongo.IndexModel{quizIndex}); err != nil {
		return fmt.Errorf("failed to create quizzes indexes: %w", err)
	}

	return nil
}
