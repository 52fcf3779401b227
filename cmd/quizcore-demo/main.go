// Command quizcore-demo wires the core components together against either
// a real MongoDB instance or the in-memory store, then runs one adaptive
// quiz generation and one submission end to end. It is a wiring
// demonstration, not a server: there is no HTTP transport here, mirroring
// the teacher's own cmd/seed-dev-users as a standalone entry point rather
// than the full gin-based main.go.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"quizcore/config"
	"quizcore/gateway"
	"quizcore/internal/obslog"
	"quizcore/models"
	"quizcore/projector"
	"quizcore/providers/gemini"
	"quizcore/providers/volcengine"
	"quizcore/store"
	"quizcore/store/memstore"
	"quizcore/store/mongostore"
	"quizcore/submission"
	"quizcore/synthesis"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	baseLog, err := obslog.New(obslog.Config{Development: cfg.Log.Development})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer baseLog.Sync()

	ctx := context.Background()

	primary := volcengine.New(cfg.Gateway.VolcengineAPIKey, cfg.Gateway.VolcengineModel)
	fallback, err := gemini.Dial(ctx, cfg.Gateway.GeminiAPIKey, cfg.Gateway.GeminiModel)
	if err != nil {
		baseLog.Fatal("failed to dial gemini", zap.Error(err))
	}
	gw := gateway.New(primary, fallback, obslog.Component(baseLog, "gateway"))

	quizzes, submissions, performance := wireStore(ctx, cfg, baseLog)

	synth := synthesis.New(performance, gw, quizzes, obslog.Component(baseLog, "synthesis"))
	proj := projector.New(performance, obslog.Component(baseLog, "projector"))
	orch := submission.New(quizzes, submissions, gw, proj, obslog.Component(baseLog, "submission"))

	quiz, err := synth.GenerateAdaptiveQuiz(ctx, synthesis.Request{
		UserID:    "demo-user",
		Grade:     6,
		Subject:   "math",
		Title:     "Adaptive Math Quiz",
		Count:     5,
		CreatedBy: "demo-user",
		IsPublic:  true,
	})
	if err != nil {
		fmt.Printf("adaptive generation failed: %v\n", err)
		return
	}
	fmt.Printf("generated quiz %s with %d questions\n", quiz.QuizID, len(quiz.Questions))

	now := time.Now()
	answers := make([]models.UserAnswer, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		answers = append(answers, models.UserAnswer{QuestionID: q.QuestionID, UserAnswer: "demo-answer", TimeSpent: 30})
	}

	result, err := orch.SubmitQuiz(ctx, submission.Request{
		UserID:            "demo-user",
		QuizID:            quiz.QuizID,
		Answers:           answers,
		StartedAt:         now.Add(-5 * time.Minute),
		SubmittedAt:       now,
		RequestEvaluation: true,
	})
	if err != nil {
		fmt.Printf("submission failed: %v\n", err)
		return
	}
	fmt.Printf("scored %.1f%%, grade %s\n", result.Results.Score, result.Results.Grade)
}

// wireStore connects to MongoDB when MONGO_URI resolves to a reachable
// server, and otherwise falls back to the in-memory store seeded with a
// handful of sample questions so the demo still runs without a database.
func wireStore(ctx context.Context, cfg config.Config, baseLog *zap.Logger) (store.QuizStore, store.SubmissionStore, store.PerformanceStore) {
	db, err := mongostore.Connect(ctx, mongostore.Config{
		URI: cfg.Database.URI, Name: cfg.Database.Name, MaxPoolSize: cfg.Database.MaxPoolSize,
	}, obslog.Component(baseLog, "mongostore"))
	if err == nil {
		return mongostore.NewQuizStore(db), mongostore.NewSubmissionStore(db), mongostore.NewPerformanceStore(db)
	}

	baseLog.Warn("mongo unavailable, falling back to in-memory store", zap.Error(err))
	ms := memstore.New()
	if _, seedErr := ms.SeedSampleQuestions(ctx, "demo-user", "math", 6); seedErr != nil {
		baseLog.Warn("failed to seed sample questions", zap.Error(seedErr))
	}
	return ms.QuizStore(), ms.SubmissionStore(), ms.PerformanceStore()
}
