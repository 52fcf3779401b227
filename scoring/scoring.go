// Package scoring implements the Scoring Engine (C3): type-aware grading of
// raw answers against a quiz's questions, and summarization into the
// aggregate Scoring block stored on a Submission.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"quizcore/errs"
	"quizcore/models"
)

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
}

// Grade scores each userAnswer against its matching question. An answer
// whose QuestionID is absent from questions is dropped with a warning. A
// question missing CorrectAnswer raises errs.ErrQuizDataInvalid, since it
// signals corrupt storage rather than a bad submission.
func Grade(questions []models.Question, answers []models.UserAnswer, log *zap.Logger) ([]models.GradedAnswer, error) {
	byID := make(map[models.QuestionID]models.Question, len(questions))
	for _, q := range questions {
		byID[q.QuestionID] = q
	}

	graded := make([]models.GradedAnswer, 0, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			log.Warn("dropping answer for unknown question", zap.String("questionId", a.QuestionID.String()))
			continue
		}
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			return nil, fmt.Errorf("scoring: question %s missing correctAnswer: %w", q.QuestionID, errs.ErrQuizDataInvalid)
		}

		correct := isCorrect(q, a.UserAnswer)
		points := 0
		if correct {
			points = pointsEarned(q.Points, a.HintsUsed)
		}

		graded = append(graded, models.GradedAnswer{
			QuestionID:   a.QuestionID,
			UserAnswer:   a.UserAnswer,
			IsCorrect:    correct,
			PointsEarned: points,
			TimeSpent:    a.TimeSpent,
			HintsUsed:    a.HintsUsed,
		})
	}
	return graded, nil
}

// Summarize aggregates graded answers into the Scoring block.
func Summarize(graded []models.GradedAnswer) models.Scoring {
	total := len(graded)
	correct := 0
	points := 0
	for _, g := range graded {
		if g.IsCorrect {
			correct++
		}
		points += g.PointsEarned
	}

	pct := 0.0
	if total > 0 {
		pct = math.Round(100 * float64(correct) / float64(total))
	}

	return models.Scoring{
		TotalQuestions:  total,
		CorrectAnswers:  correct,
		TotalPoints:     points,
		ScorePercentage: pct,
		Grade:           gradeLetter(pct),
	}
}

func gradeLetter(pct float64) models.Grade {
	switch {
	case pct >= 90:
		return models.GradeA
	case pct >= 80:
		return models.GradeB
	case pct >= 70:
		return models.GradeC
	case pct >= 60:
		return models.GradeD
	default:
		return models.GradeF
	}
}

// pointsEarned applies the hint penalty: points * (1 - min(0.1*hintsUsed, 0.5)),
// rounded to nearest integer.
func pointsEarned(points, hintsUsed int) int {
	penalty := math.Min(0.1*float64(hintsUsed), 0.5)
	return int(math.Round(float64(points) * (1 - penalty)))
}

func isCorrect(q models.Question, userAnswer string) bool {
	switch q.Type {
	case models.MCQ, models.TrueFalse:
		return strings.EqualFold(strings.TrimSpace(userAnswer), strings.TrimSpace(q.CorrectAnswer))
	case models.ShortAnswer:
		return fuzzyMatch(q.CorrectAnswer, userAnswer)
	default:
		return strings.EqualFold(strings.TrimSpace(userAnswer), strings.TrimSpace(q.CorrectAnswer))
	}
}

// fuzzyMatch implements spec.md §4.3's short-answer matching: clean both
// sides, extract key words (reference tokens longer than 2 chars), and
// require substring-containment overlap on at least ceil(0.7 * |keyWords|)
// of them. If the reference has no key words, fall back to exact cleaned
// equality.
func fuzzyMatch(reference, userAnswer string) bool {
	cleanRef := clean(reference)
	cleanUser := clean(userAnswer)

	refTokens := strings.Fields(cleanRef)
	userTokens := strings.Fields(cleanUser)

	keyWords := make([]string, 0, len(refTokens))
	for _, t := range refTokens {
		if len(t) > 2 {
			keyWords = append(keyWords, t)
		}
	}

	if len(keyWords) == 0 {
		return cleanRef == cleanUser
	}

	matched := 0
	for _, kw := range keyWords {
		for _, ut := range userTokens {
			if strings.Contains(ut, kw) || strings.Contains(kw, ut) {
				matched++
				break
			}
		}
	}

	required := int(math.Ceil(0.7 * float64(len(keyWords))))
	return matched >= required
}

// clean lowercases, trims, strips punctuation, removes stopwords, and
// collapses whitespace.
func clean(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	tokens := strings.Fields(b.String())
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, stop := stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return strings.Join(out, " ")
}
