package models

import "time"

// GradedAnswer is one answer after scoring (C3). UserAnswer is preserved
// verbatim; IsCorrect/PointsEarned are scoring.Grade's output.
type GradedAnswer struct {
	QuestionID   QuestionID `json:"questionId" bson:"questionId"`
	UserAnswer   string     `json:"userAnswer" bson:"userAnswer"`
	IsCorrect    bool       `json:"isCorrect" bson:"isCorrect"`
	PointsEarned int        `json:"pointsEarned" bson:"pointsEarned"`
	TimeSpent    int        `json:"timeSpent" bson:"timeSpent"` // seconds
	HintsUsed    int        `json:"hintsUsed" bson:"hintsUsed"`
}

// UserAnswer is the raw, unscored input to the Scoring Engine.
type UserAnswer struct {
	QuestionID QuestionID `json:"questionId"`
	UserAnswer string     `json:"userAnswer"`
	TimeSpent  int        `json:"timeSpent"`
	HintsUsed  int        `json:"hintsUsed"`
}

// Grade is the A-F letter grade derived from scorePercentage.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

type Scoring struct {
	TotalQuestions  int     `json:"totalQuestions" bson:"totalQuestions"`
	CorrectAnswers  int     `json:"correctAnswers" bson:"correctAnswers"`
	TotalPoints     int     `json:"totalPoints" bson:"totalPoints"`
	ScorePercentage float64 `json:"scorePercentage" bson:"scorePercentage"`
	Grade           Grade   `json:"grade" bson:"grade"`
}

type Timing struct {
	StartedAt       time.Time `json:"startedAt" bson:"startedAt"`
	SubmittedAt     time.Time `json:"submittedAt" bson:"submittedAt"`
	TotalTimeSpent  int       `json:"totalTimeSpent" bson:"totalTimeSpent"` // seconds
}

type AIEvaluation struct {
	Provider    string    `json:"provider" bson:"provider"`
	Suggestions []string  `json:"suggestions" bson:"suggestions"`
	Strengths   []string  `json:"strengths" bson:"strengths"`
	Weaknesses  []string  `json:"weaknesses" bson:"weaknesses"`
	EvaluatedAt time.Time `json:"evaluatedAt" bson:"evaluatedAt"`
}

type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceDesktop DeviceType = "desktop"
)

type SubmissionMetadata struct {
	IPAddress  string     `json:"ipAddress" bson:"ipAddress"`
	UserAgent  string     `json:"userAgent" bson:"userAgent"`
	DeviceType DeviceType `json:"deviceType" bson:"deviceType"`
}

// Submission is immutable once IsCompleted is true. Identity is SubmissionID;
// (UserID, QuizID, AttemptNumber) is globally unique (enforced by the store).
type Submission struct {
	SubmissionID  SubmissionID        `json:"submissionId" bson:"_id"`
	QuizID        QuizID              `json:"quizId" bson:"quizId"`
	UserID        UserID              `json:"userId" bson:"userId"`
	AttemptNumber int                 `json:"attemptNumber" bson:"attemptNumber"`
	Answers       []GradedAnswer      `json:"answers" bson:"answers"`
	Scoring       Scoring             `json:"scoring" bson:"scoring"`
	Timing        Timing              `json:"timing" bson:"timing"`
	AIEvaluation  *AIEvaluation       `json:"aiEvaluation,omitempty" bson:"aiEvaluation,omitempty"`
	Metadata      SubmissionMetadata  `json:"metadata" bson:"metadata"`
	IsCompleted   bool                `json:"isCompleted" bson:"isCompleted"`
	CreatedAt     time.Time           `json:"createdAt" bson:"createdAt"`
}
