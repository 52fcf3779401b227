package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	quizerrs "quizcore/errs"
	"quizcore/models"
	"quizcore/store"
)

type SubmissionStore struct {
	collection *mongo.Collection
}

func NewSubmissionStore(db *mongo.Database) *SubmissionStore {
	return &SubmissionStore{collection: db.Collection("submissions")}
}

func (s *SubmissionStore) CreateSubmission(ctx context.Context, sub models.Submission) (models.SubmissionID, error) {
	if sub.SubmissionID == "" {
		sub.SubmissionID = models.SubmissionID(uuid.NewString())
	}
	sub.CreatedAt = time.Now()

	_, err := s.collection.InsertOne(ctx, sub)
	if mongo.IsDuplicateKeyError(err) {
		return "", fmt.Errorf("submission (%s,%s,%d): %w", sub.UserID, sub.QuizID, sub.AttemptNumber, quizerrs.ErrDuplicateAttempt)
	}
	if err != nil {
		return "", fmt.Errorf("mongostore: create submission: %w", err)
	}
	return sub.SubmissionID, nil
}

func (s *SubmissionStore) GetSubmission(ctx context.Context, id models.SubmissionID, userID models.UserID) (models.Submission, error) {
	var sub models.Submission
	err := s.collection.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Submission{}, fmt.Errorf("submission %s: %w", id, quizerrs.ErrSubmissionNotFound)
	}
	if err != nil {
		return models.Submission{}, fmt.Errorf("mongostore: get submission: %w", err)
	}
	return sub, nil
}

func (s *SubmissionStore) ListSubmissions(ctx context.Context, userID models.UserID, filter store.SubmissionFilter, page store.Page) (store.SubmissionPage, error) {
	query := bson.M{"userId": userID}
	if filter.QuizID != "" {
		query["quizId"] = filter.QuizID
	}

	submittedAt := bson.M{}
	if filter.Since != nil {
		submittedAt["$gte"] = *filter.Since
	}
	if filter.From != nil {
		submittedAt["$gte"] = *filter.From
	}
	if filter.To != nil {
		submittedAt["$lte"] = *filter.To
	}
	if len(submittedAt) > 0 {
		query["timing.submittedAt"] = submittedAt
	}

	score := bson.M{}
	if filter.MinScore != nil {
		score["$gte"] = *filter.MinScore
	}
	if filter.MaxScore != nil {
		score["$lte"] = *filter.MaxScore
	}
	if len(score) > 0 {
		query["scoring.scorePercentage"] = score
	}

	total, err := s.collection.CountDocuments(ctx, query)
	if err != nil {
		return store.SubmissionPage{}, fmt.Errorf("mongostore: count submissions: %w", err)
	}

	sortField := "timing.submittedAt"
	if filter.SortBy == store.SortByScore {
		sortField = "scoring.scorePercentage"
	}
	sortDir := -1
	if filter.SortOrder == store.SortAscending {
		sortDir = 1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: sortDir}}).
		SetSkip(int64((page.Number - 1) * page.Size)).
		SetLimit(int64(page.Size))

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return store.SubmissionPage{}, fmt.Errorf("mongostore: list submissions: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []models.Submission
	if err := cursor.All(ctx, &subs); err != nil {
		return store.SubmissionPage{}, fmt.Errorf("mongostore: decode submissions: %w", err)
	}
	return buildSubmissionPage(subs, int(total), page), nil
}

func buildSubmissionPage(subs []models.Submission, total int, page store.Page) store.SubmissionPage {
	totalPages := (total + page.Size - 1) / page.Size
	if totalPages < 1 {
		totalPages = 1
	}
	return store.SubmissionPage{
		Submissions: subs,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: page.Number < totalPages,
		HasPrevPage: page.Number > 1,
	}
}

func (s *SubmissionStore) CountAttempts(ctx context.Context, userID models.UserID, quizID models.QuizID) (int, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{"userId": userID, "quizId": quizID})
	if err != nil {
		return 0, fmt.Errorf("mongostore: count attempts: %w", err)
	}
	return int(count), nil
}

func (s *SubmissionStore) UpdateAIEvaluation(ctx context.Context, id models.SubmissionID, eval models.AIEvaluation) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"aiEvaluation": eval}},
	)
	if err != nil {
		return fmt.Errorf("mongostore: update ai evaluation: %w", err)
	}
	return nil
}
