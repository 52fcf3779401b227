package memstore

import (
	"context"

	"github.com/google/uuid"

	"quizcore/models"
)

type sampleTemplate struct {
	text    string
	options []string
	correct int
	topic   string
}

var easyTemplates = []sampleTemplate{
	{"What is 2 + 2?", []string{"3", "4", "5", "6"}, 1, "arithmetic"},
	{"What is the capital of France?", []string{"London", "Berlin", "Paris", "Madrid"}, 2, "geography"},
	{"Which color is made by mixing red and blue?", []string{"Green", "Purple", "Yellow", "Orange"}, 1, "art"},
	{"How many days are in a week?", []string{"5", "6", "7", "8"}, 2, "general"},
}

var mediumTemplates = []sampleTemplate{
	{"What is the time complexity of binary search?", []string{"O(n)", "O(log n)", "O(n^2)", "O(1)"}, 1, "algorithms"},
	{"Which HTTP status code indicates Not Found?", []string{"200", "404", "500", "301"}, 1, "web"},
	{"What does SQL stand for?", []string{"Structured Query Language", "Simple Query Language", "Standard Query Language", "Sequential Query Language"}, 0, "databases"},
	{"Which data structure follows LIFO?", []string{"Queue", "Array", "Stack", "Tree"}, 2, "data-structures"},
}

var hardTemplates = []sampleTemplate{
	{"Which algorithm has the best average-case sorting time complexity?", []string{"Bubble Sort", "Quick Sort", "Merge Sort", "Selection Sort"}, 2, "algorithms"},
	{"What does the CAP theorem state?", []string{"Pick two of Consistency, Availability, Partition tolerance", "All distributed systems are consistent", "Performance beats consistency", "Databases must always be available"}, 0, "distributed-systems"},
	{"Which design pattern ensures a class has only one instance?", []string{"Factory", "Observer", "Singleton", "Strategy"}, 2, "design-patterns"},
}

// SeedSampleQuestions populates a quiz's question bank with hardcoded
// samples for local development and tests, bucketed by difficulty. It
// mirrors the shape of a quiz the Synthesis Orchestrator would otherwise
// build from AI-generated questions.
func (s *Store) SeedSampleQuestions(ctx context.Context, createdBy models.UserID, subject string, grade int) (models.QuizID, error) {
	questions := make([]models.Question, 0, len(easyTemplates)+len(mediumTemplates)+len(hardTemplates))
	questions = append(questions, buildQuestions(easyTemplates, models.Easy)...)
	questions = append(questions, buildQuestions(mediumTemplates, models.Medium)...)
	questions = append(questions, buildQuestions(hardTemplates, models.Hard)...)

	quiz := models.Quiz{
		QuizID:      models.QuizID(uuid.NewString()),
		Title:       "Sample " + subject + " Quiz",
		Description: "Seeded sample quiz for local development.",
		Metadata: models.QuizMetadata{
			Grade:            grade,
			Subject:          subject,
			TotalQuestions:   len(questions),
			TimeLimitMinutes: 20,
			Difficulty:       models.QuizMixed,
		},
		Questions: questions,
		CreatedBy: createdBy,
		IsPublic:  true,
		IsActive:  true,
	}

	return s.QuizStore().CreateQuiz(ctx, quiz)
}

func buildQuestions(templates []sampleTemplate, difficulty models.DifficultyLevel) []models.Question {
	out := make([]models.Question, 0, len(templates))
	for _, tpl := range templates {
		out = append(out, models.Question{
			QuestionID:    models.QuestionID(uuid.NewString()),
			Text:          tpl.text,
			Type:          models.MCQ,
			Options:       tpl.options,
			CorrectAnswer: tpl.options[tpl.correct],
			Explanation:   "",
			Difficulty:    difficulty,
			Points:        10,
			Topic:         tpl.topic,
		})
	}
	return out
}
