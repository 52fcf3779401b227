package models

import "time"

// AdaptiveMetadata is attached to a quiz only when metadata.Difficulty is
// QuizAdaptive; it records the difficulty engine's decision so the quiz is
// reproducible after the fact.
type AdaptiveMetadata struct {
	Distribution      DifficultyDistribution `json:"distribution" bson:"distribution"`
	ConfidenceLevel   ConfidenceLevel        `json:"confidenceLevel" bson:"confidenceLevel"`
	PerformanceScore  int                    `json:"performanceScore" bson:"performanceScore"`
	ConsistencyScore  int                    `json:"consistencyScore" bson:"consistencyScore"`
	ImprovementTrend  int                    `json:"improvementTrend" bson:"improvementTrend"`
	SubjectFamiliarity int                   `json:"subjectFamiliarity" bson:"subjectFamiliarity"`
	Baseline          PerformanceData        `json:"baseline" bson:"baseline"`
}

// QuizMetadata carries the quiz-wide configuration spec.md §3 describes.
type QuizMetadata struct {
	Grade            int               `json:"grade" bson:"grade"`
	Subject          string            `json:"subject" bson:"subject"`
	TotalQuestions   int               `json:"totalQuestions" bson:"totalQuestions"`
	TimeLimitMinutes int               `json:"timeLimitMinutes" bson:"timeLimitMinutes"`
	Difficulty       QuizDifficulty    `json:"difficulty" bson:"difficulty"`
	Tags             []string          `json:"tags,omitempty" bson:"tags,omitempty"`
	Category         string            `json:"category" bson:"category"`
	AdaptiveMetadata *AdaptiveMetadata `json:"adaptiveMetadata,omitempty" bson:"adaptiveMetadata,omitempty"`
}

// Quiz is the top-level aggregate. Questions are owned by value — a Quiz
// never holds a reference to a Question stored elsewhere.
type Quiz struct {
	QuizID      QuizID     `json:"quizId" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	Metadata    QuizMetadata `json:"metadata" bson:"metadata"`
	Questions   []Question `json:"questions" bson:"questions"`
	CreatedBy   UserID     `json:"createdBy" bson:"createdBy"`
	IsPublic    bool       `json:"isPublic" bson:"isPublic"`
	IsActive    bool       `json:"isActive" bson:"isActive"`
	Version     int        `json:"version" bson:"version"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Duplicate returns a fresh-identity copy per spec.md §3 lifecycle: a new
// QuizID, version reset to 1, and never public regardless of the source.
func (q Quiz) Duplicate(newID QuizID, now time.Time) Quiz {
	dup := q
	dup.QuizID = newID
	dup.Version = 1
	dup.IsPublic = false
	dup.CreatedAt = now
	dup.UpdatedAt = now
	dup.Questions = append([]Question(nil), q.Questions...)
	return dup
}
