package models

// Opaque identity types. Kept distinct from plain string so a quiz id can
// never be passed where a user id is expected, mirroring the document-store
// reference style of the original service (userId/quizId) without losing
// type safety in Go.

type QuestionID string

type QuizID string

type SubmissionID string

type UserID string

func (id QuestionID) String() string  { return string(id) }
func (id QuizID) String() string      { return string(id) }
func (id SubmissionID) String() string { return string(id) }
func (id UserID) String() string      { return string(id) }
