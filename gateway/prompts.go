package gateway

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"quizcore/models"
)

// questionGenerationPrompt implements spec.md §4.1's question-generation
// template: grade, subject, count, topics, and a difficulty instruction that
// is either a fixed level or a percentage mix, with the output contract
// pinned to a bare JSON array.
func questionGenerationPrompt(params QuizGenerationParams) string {
	var difficultyInstruction string
	if params.Difficulty == models.QuizMixed || params.Difficulty == "" {
		difficultyInstruction = fmt.Sprintf(
			"Mix difficulty across the batch: approximately %d%% easy, %d%% medium, %d%% hard.",
			params.Distribution.Easy, params.Distribution.Medium, params.Distribution.Hard)
	} else {
		difficultyInstruction = fmt.Sprintf("Every question must be at %q difficulty.", string(params.Difficulty))
	}

	topics := "no specific topics requested; choose broadly within the subject"
	if len(params.Topics) > 0 {
		topics = strings.Join(params.Topics, ", ")
	}

	var b strings.Builder
	b.WriteString("You are generating quiz questions for an adaptive learning platform.\n")
	fmt.Fprintf(&b, "Grade level: %s\n", params.Grade)
	fmt.Fprintf(&b, "Subject: %s\n", params.Subject)
	fmt.Fprintf(&b, "Total questions required: %d\n", params.Count)
	fmt.Fprintf(&b, "Topics: %s\n", topics)
	b.WriteString(difficultyInstruction + "\n")
	b.WriteString("Respond with a bare JSON array only — no markdown fences, no commentary, no wrapping object.\n")
	b.WriteString("Each element must have exactly these fields: ")
	b.WriteString(`"text" (string), "type" (one of "mcq", "true_false", "short_answer"), ` +
		`"options" (array of strings, present for mcq only), "correctAnswer" (string), ` +
		`"explanation" (string), "difficulty" (one of "easy", "medium", "hard"), ` +
		`"points" (integer), "hints" (array of 0-3 strings), "topic" (string).` + "\n")
	return b.String()
}

// hintPrompt asks for a single short hint that does not reveal the answer.
func hintPrompt(q models.Question) string {
	var b strings.Builder
	b.WriteString("A student is stuck on the following quiz question and asked for a hint.\n")
	fmt.Fprintf(&b, "Question: %s\n", q.Text)
	fmt.Fprintf(&b, "Topic: %s\n", q.Topic)
	fmt.Fprintf(&b, "Difficulty: %s\n", string(q.Difficulty))
	b.WriteString("Give exactly one short hint sentence that nudges the student toward the answer without stating it. Respond with the hint text only, no quotes, no preamble.\n")
	return b.String()
}

// evaluationPrompt feeds the list of wrong answers and requests exactly two
// suggestions plus strengths/weaknesses.
func evaluationPrompt(wrong []WrongAnswerDetail) string {
	var b strings.Builder
	b.WriteString("A student just completed a quiz. Here are the questions they answered incorrectly:\n")
	for i, w := range wrong {
		fmt.Fprintf(&b, "%d. Topic: %s | Question: %s | Their answer: %q | Correct answer: %q\n",
			i+1, w.Topic, w.QuestionText, w.UserAnswer, w.CorrectAnswer)
	}
	if len(wrong) == 0 {
		b.WriteString("(no incorrect answers — the student answered everything correctly)\n")
	}
	b.WriteString("Respond with a bare JSON object only — no markdown fences, no commentary.\n")
	b.WriteString(`It must have exactly these fields: "suggestions" (array of exactly two actionable ` +
		`study suggestions), "strengths" (array of strings), "weaknesses" (array of strings).` + "\n")
	return b.String()
}

// normalizeSuggestions implements spec.md §4.1 step 6: exactly two entries,
// truncating or padding as needed.
func normalizeSuggestions(in []string) []string {
	generic := []string{
		"Review the topics covered by the questions you missed and try a few practice problems.",
		"Revisit the explanations for incorrect answers before attempting a similar quiz.",
	}

	out := make([]string, 0, 2)
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == 2 {
			return out
		}
	}
	for i := 0; len(out) < 2; i++ {
		out = append(out, generic[i%len(generic)])
	}
	return out
}

// canonicalAliases maps common variant spellings onto the canonical
// three-value QuestionType set (spec.md §4.1 step 5).
var canonicalAliases = map[string]models.QuestionType{
	"mcq":             models.MCQ,
	"multiple_choice": models.MCQ,
	"multiple-choice": models.MCQ,
	"multiplechoice":  models.MCQ,
	"choice":          models.MCQ,
	"true_false":      models.TrueFalse,
	"true/false":      models.TrueFalse,
	"true-false":      models.TrueFalse,
	"truefalse":       models.TrueFalse,
	"tf":              models.TrueFalse,
	"boolean":         models.TrueFalse,
	"bool":            models.TrueFalse,
	"short_answer":    models.ShortAnswer,
	"short-answer":    models.ShortAnswer,
	"shortanswer":     models.ShortAnswer,
	"short_response":  models.ShortAnswer,
	"text":            models.ShortAnswer,
	"fill_in":         models.ShortAnswer,
	"fill-in":         models.ShortAnswer,
}

// canonicalizeType maps a raw, loosely-typed questionType string from a
// provider onto the canonical QuestionType set. Unknown values default to
// mcq and are logged at warn level here.
func canonicalizeType(raw string, log *zap.Logger) models.QuestionType {
	key := strings.ToLower(strings.TrimSpace(raw))
	if t, ok := canonicalAliases[key]; ok {
		return t
	}
	log.Warn("unrecognized question type from provider, defaulting to mcq", zap.String("raw", raw))
	return models.MCQ
}

// questionFromRecord builds a models.Question from a loosely-typed decoded
// JSON map, tolerating missing or wrongly-typed fields.
func questionFromRecord(rec map[string]interface{}, log *zap.Logger) models.Question {
	return models.Question{
		Text:          stringField(rec, "text"),
		Type:          canonicalizeType(stringField(rec, "type"), log),
		Options:       stringArrayField(rec, "options"),
		CorrectAnswer: stringField(rec, "correctAnswer"),
		Explanation:   stringField(rec, "explanation"),
		Difficulty:    models.DifficultyLevel(normalizeDifficulty(stringField(rec, "difficulty"))),
		Points:        intField(rec, "points", 10),
		Hints:         stringArrayField(rec, "hints"),
		Topic:         stringField(rec, "topic"),
	}
}

func normalizeDifficulty(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "easy":
		return "easy"
	case "hard":
		return "hard"
	default:
		return "medium"
	}
}

func stringField(rec map[string]interface{}, key string) string {
	v, ok := rec[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func stringArrayField(rec map[string]interface{}, key string) []string {
	v, ok := rec[key]
	if !ok {
		return nil
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intField(rec map[string]interface{}, key string, fallback int) int {
	v, ok := rec[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return parsed
		}
	}
	return fallback
}
