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

type QuizStore struct {
	collection *mongo.Collection
}

func NewQuizStore(db *mongo.Database) *QuizStore {
	return &QuizStore{collection: db.Collection("quizzes")}
}

func (s *QuizStore) GetQuizById(ctx context.Context, id models.QuizID) (models.Quiz, error) {
	var quiz models.Quiz
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&quiz)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Quiz{}, fmt.Errorf("quiz %s: %w", id, quizerrs.ErrQuizNotFound)
	}
	if err != nil {
		return models.Quiz{}, fmt.Errorf("mongostore: get quiz: %w", err)
	}
	return quiz, nil
}

func (s *QuizStore) ListQuizzes(ctx context.Context, filter store.QuizFilter, page store.Page) ([]models.Quiz, int, error) {
	query := bson.M{"isActive": true}
	if filter.Subject != "" {
		query["metadata.subject"] = filter.Subject
	}
	if filter.Grade != 0 {
		query["metadata.grade"] = filter.Grade
	}
	if filter.Difficulty != "" {
		query["metadata.difficulty"] = filter.Difficulty
	}
	if filter.CreatedBy != "" {
		query["createdBy"] = filter.CreatedBy
	}
	if filter.IsPublic != nil {
		query["isPublic"] = *filter.IsPublic
	}

	total, err := s.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("mongostore: count quizzes: %w", err)
	}

	opts := options.Find().
		SetProjection(bson.M{"questions": 0}).
		SetSkip(int64((page.Number - 1) * page.Size)).
		SetLimit(int64(page.Size))

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("mongostore: list quizzes: %w", err)
	}
	defer cursor.Close(ctx)

	var quizzes []models.Quiz
	if err := cursor.All(ctx, &quizzes); err != nil {
		return nil, 0, fmt.Errorf("mongostore: decode quizzes: %w", err)
	}
	return quizzes, int(total), nil
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz models.Quiz) (models.QuizID, error) {
	if quiz.QuizID == "" {
		quiz.QuizID = models.QuizID(uuid.NewString())
	}
	quiz.Version = 1
	now := time.Now()
	quiz.CreatedAt, quiz.UpdatedAt = now, now

	if _, err := s.collection.InsertOne(ctx, quiz); err != nil {
		return "", fmt.Errorf("mongostore: create quiz: %w", err)
	}
	return quiz.QuizID, nil
}

func (s *QuizStore) UpdateQuiz(ctx context.Context, id models.QuizID, patch store.QuizPatch, expectedVersion int) (models.Quiz, error) {
	set := bson.M{"updatedAt": time.Now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.IsPublic != nil {
		set["isPublic"] = *patch.IsPublic
	}
	if patch.IsActive != nil {
		set["isActive"] = *patch.IsActive
	}

	result := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "version": expectedVersion},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Quiz
	if err := result.Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, getErr := s.GetQuizById(ctx, id); getErr != nil {
				return models.Quiz{}, getErr
			}
			return models.Quiz{}, fmt.Errorf("quiz %s: version mismatch: %w", id, quizerrs.ErrValidation)
		}
		return models.Quiz{}, fmt.Errorf("mongostore: update quiz: %w", err)
	}
	return updated, nil
}

func (s *QuizStore) SoftDelete(ctx context.Context, id models.QuizID) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("mongostore: soft delete quiz: %w", err)
	}
	return nil
}

func (s *QuizStore) UpdateQuestionHints(ctx context.Context, quizID models.QuizID, questionID models.QuestionID, hints []string) (int, error) {
	result := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": quizID, "questions.questionId": questionID},
		bson.M{
			"$set": bson.M{"questions.$.hints": hints, "updatedAt": time.Now()},
			"$inc": bson.M{"version": 1},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Quiz
	if err := result.Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, fmt.Errorf("question %s in quiz %s: %w", questionID, quizID, quizerrs.ErrQuestionNotFound)
		}
		return 0, fmt.Errorf("mongostore: update question hints: %w", err)
	}
	return updated.Version, nil
}
