// Package sanitize implements the Content Sanitizer (C2): a pure projection
// over a question sequence that strips solution-bearing fields before a
// question reaches a client.
package sanitize

import "quizcore/models"

// Options drives which solution-bearing fields survive the projection.
// IncludeSolutions is true only for internal grading calls; IncludeHints is
// independent of it. There is deliberately no way to flip IncludeSolutions
// from caller-supplied request data — it must be set by the calling code
// path, never parsed from a query parameter.
type Options struct {
	IncludeSolutions bool
	IncludeHints     bool
}

// Questions returns a copy of qs with correctAnswer and explanation omitted
// unless opts.IncludeSolutions, and hints omitted unless opts.IncludeHints.
func Questions(qs []models.Question, opts Options) []models.Question {
	out := make([]models.Question, len(qs))
	for i, q := range qs {
		out[i] = Question(q, opts)
	}
	return out
}

// Question applies the same projection to a single question.
func Question(q models.Question, opts Options) models.Question {
	sanitized := q
	if !opts.IncludeSolutions {
		sanitized.CorrectAnswer = ""
		sanitized.Explanation = ""
	}
	if !opts.IncludeHints {
		sanitized.Hints = nil
	}
	return sanitized
}
