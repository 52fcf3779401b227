package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quizcore/errs"
)

type fakeProvider struct {
	name     string
	response ProviderResponse
	err      error
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Complete(ctx context.Context, req ProviderRequest) (ProviderResponse, error) {
	return f.response, f.err
}

func TestExtractJSON_BareArray(t *testing.T) {
	raw := `[{"text":"2+2?"}]`
	got, err := extractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, raw, got)
}

func TestExtractJSON_FencedCodeBlock(t *testing.T) {
	raw := "```json\n[{\"text\":\"2+2?\"}]\n```"
	got, err := extractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"text":"2+2?"}]`, got)
}

func TestExtractJSON_LeadingTrailingCommentary(t *testing.T) {
	raw := "Sure, here are the questions:\n[{\"text\":\"2+2?\"}]\nHope that helps!"
	got, err := extractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"text":"2+2?"}]`, got)
}

func TestExtractJSON_NoJSONToken(t *testing.T) {
	_, err := extractJSON("no json here at all")
	require.Error(t, err)
}

func TestDecodeArray_BareArray(t *testing.T) {
	recs, err := decodeArray(`[{"text":"a"},{"text":"b"}]`)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestDecodeArray_QuestionsEnvelope(t *testing.T) {
	recs, err := decodeArray(`{"questions":[{"text":"a"}]}`)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestDecodeArray_ItemsEnvelope(t *testing.T) {
	recs, err := decodeArray(`{"items":[{"text":"a"},{"text":"b"},{"text":"c"}]}`)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestDecodeArray_DataAndQuizEnvelopesAllYieldSameShape(t *testing.T) {
	data, err := decodeArray(`{"data":[{"text":"a"}]}`)
	require.NoError(t, err)
	quiz, err := decodeArray(`{"quiz":[{"text":"a"}]}`)
	require.NoError(t, err)
	assert.Equal(t, data, quiz)
}

func TestDecodeArray_NoKnownEnvelopeKey(t *testing.T) {
	_, err := decodeArray(`{"unexpected":[{"text":"a"}]}`)
	require.Error(t, err)
}

func TestCanonicalizeType_KnownAliases(t *testing.T) {
	log := zap.NewNop()
	cases := map[string]string{
		"mcq": "mcq", "multiple_choice": "mcq", "multiple-choice": "mcq", "choice": "mcq",
		"true_false": "true_false", "tf": "true_false", "boolean": "true_false", "bool": "true_false",
		"short_answer": "short_answer", "shortanswer": "short_answer", "text": "short_answer", "fill_in": "short_answer",
	}
	for alias, want := range cases {
		assert.Equal(t, want, string(canonicalizeType(alias, log)), "alias %q", alias)
	}
}

func TestCanonicalizeType_UnknownDefaultsToMCQ(t *testing.T) {
	assert.Equal(t, "mcq", string(canonicalizeType("essay", zap.NewNop())))
}

func TestNormalizeSuggestions_TruncatesToTwo(t *testing.T) {
	got := normalizeSuggestions([]string{"one", "two", "three"})
	assert.Len(t, got, 2)
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestNormalizeSuggestions_PadsWithGenericWhenEmpty(t *testing.T) {
	got := normalizeSuggestions(nil)
	assert.Len(t, got, 2)
	assert.NotEmpty(t, got[0])
	assert.NotEmpty(t, got[1])
}

func TestNormalizeSuggestions_PadsWithGenericWhenOne(t *testing.T) {
	got := normalizeSuggestions([]string{"only one"})
	require.Len(t, got, 2)
	assert.Equal(t, "only one", got[0])
}

func TestNormalizeSuggestions_SkipsBlankEntries(t *testing.T) {
	got := normalizeSuggestions([]string{"", "  ", "real suggestion"})
	require.Len(t, got, 2)
	assert.Equal(t, "real suggestion", got[0])
}

func TestGateway_GenerateQuestions_FallsOverToSecondProvider(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("transport error")}
	fallback := &fakeProvider{name: "fallback", response: ProviderResponse{
		RawText: `[{"text":"2+2?","type":"mcq","correctAnswer":"4","points":10}]`,
	}}
	g := New(primary, fallback, zap.NewNop())

	questions, err := g.GenerateQuestions(context.Background(), QuizGenerationParams{Grade: "5", Subject: "math", Count: 1})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "2+2?", questions[0].Text)
}

func TestGateway_GenerateQuestions_BothProvidersFailReturnsExhausted(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("boom")}
	fallback := &fakeProvider{name: "fallback", err: errors.New("boom too")}
	g := New(primary, fallback, zap.NewNop())

	_, err := g.GenerateQuestions(context.Background(), QuizGenerationParams{Grade: "5", Subject: "math", Count: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrProviderExhausted))
}

func TestClassifyProviderError_DeadlineExceededIsTimeout(t *testing.T) {
	err := classifyProviderError(context.DeadlineExceeded)
	assert.True(t, errors.Is(err, errProviderTimeout))
}

func TestClassifyProviderError_OtherErrorIsTransport(t *testing.T) {
	err := classifyProviderError(errors.New("connection reset"))
	assert.True(t, errors.Is(err, errProviderTransport))
}

func TestClassifyProviderError_NilIsEmpty(t *testing.T) {
	err := classifyProviderError(nil)
	assert.True(t, errors.Is(err, errProviderEmpty))
}

func TestGateway_EvaluateSubmission_ReportsWinningProvider(t *testing.T) {
	primary := &fakeProvider{name: "primary", response: ProviderResponse{
		RawText: `{"suggestions":["a","b"],"strengths":["s1"],"weaknesses":["w1"]}`,
	}}
	fallback := &fakeProvider{name: "fallback"}
	g := New(primary, fallback, zap.NewNop())

	result, err := g.EvaluateSubmission(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "primary", result.Provider)
	assert.Equal(t, []string{"a", "b"}, result.Suggestions)
}
