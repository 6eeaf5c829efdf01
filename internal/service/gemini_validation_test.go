package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/mthsena/corrigeai/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evaluationJSON(mutate func(m map[string]interface{})) string {
	m := map[string]interface{}{
		"general_feedback": "Texto bem estruturado com argumentação consistente.",
	}
	scores := []int{200, 160, 160, 120, 160}
	for i, s := range scores {
		m[fmt.Sprintf("competency_%d", i+1)] = map[string]interface{}{
			"score":    s,
			"feedback": fmt.Sprintf("Comentário detalhado sobre a competência %d.", i+1),
		}
	}
	if mutate != nil {
		mutate(m)
	}
	raw, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return string(raw)
}

func TestParseEvaluationJSONValid(t *testing.T) {
	result, err := ParseEvaluationJSON(evaluationJSON(nil))
	require.NoError(t, err)
	assert.Equal(t, 200, result.Competencies[0].Score)
	assert.Equal(t, 160, result.Competencies[4].Score)
	assert.Equal(t, 800, CalculateOverallScore(result))
	assert.NotEmpty(t, result.GeneralFeedback)
}

func TestParseEvaluationJSONStripsMarkdownFences(t *testing.T) {
	wrapped := "```json\n" + evaluationJSON(nil) + "\n```"
	result, err := ParseEvaluationJSON(wrapped)
	require.NoError(t, err)
	assert.Equal(t, 800, CalculateOverallScore(result))
}

func TestParseEvaluationJSONIgnoresSurroundingProse(t *testing.T) {
	wrapped := "Segue a avaliação:\n" + evaluationJSON(nil) + "\nEspero ter ajudado."
	result, err := ParseEvaluationJSON(wrapped)
	require.NoError(t, err)
	assert.Equal(t, 800, CalculateOverallScore(result))
}

func TestParseEvaluationJSONAcceptsOffBandScore(t *testing.T) {
	// 150 is not on the official 0/40/80/120/160/200 band but is in range;
	// the upstream accepts it and so do we.
	text := evaluationJSON(func(m map[string]interface{}) {
		m["competency_2"].(map[string]interface{})["score"] = 150
	})
	result, err := ParseEvaluationJSON(text)
	require.NoError(t, err)
	assert.Equal(t, 150, result.Competencies[1].Score)
}

func TestParseEvaluationJSONCountsFeedbackInCharacters(t *testing.T) {
	text := evaluationJSON(func(m map[string]interface{}) {
		m["competency_3"].(map[string]interface{})["feedback"] = strings.Repeat("ã", 10)
	})
	result, err := ParseEvaluationJSON(text)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ã", 10), result.Competencies[2].Feedback)
}

func TestParseEvaluationJSONRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(m map[string]interface{})
	}{
		{"missing competency", func(m map[string]interface{}) { delete(m, "competency_3") }},
		{"missing score", func(m map[string]interface{}) {
			delete(m["competency_1"].(map[string]interface{}), "score")
		}},
		{"score above range", func(m map[string]interface{}) {
			m["competency_1"].(map[string]interface{})["score"] = 250
		}},
		{"negative score", func(m map[string]interface{}) {
			m["competency_4"].(map[string]interface{})["score"] = -1
		}},
		{"short feedback", func(m map[string]interface{}) {
			m["competency_5"].(map[string]interface{})["feedback"] = "curto"
		}},
		{"short accented feedback", func(m map[string]interface{}) {
			// 9 characters but 18 bytes; still under the minimum.
			m["competency_5"].(map[string]interface{})["feedback"] = strings.Repeat("ã", 9)
		}},
		{"missing feedback", func(m map[string]interface{}) {
			delete(m["competency_2"].(map[string]interface{}), "feedback")
		}},
		{"missing general feedback", func(m map[string]interface{}) { delete(m, "general_feedback") }},
		{"short general feedback", func(m map[string]interface{}) { m["general_feedback"] = "ok" }},
		{"short accented general feedback", func(m map[string]interface{}) {
			m["general_feedback"] = strings.Repeat("é", 9)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseEvaluationJSON(evaluationJSON(tc.mutate))
			assert.True(t, apperror.IsKind(err, apperror.KindInvalidAIResponse))
		})
	}
}

func TestParseEvaluationJSONRejectsNonJSON(t *testing.T) {
	_, err := ParseEvaluationJSON("Desculpe, não consigo avaliar esta redação.")
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidAIResponse))
}

func TestCalculateOverallScoreSumsCompetencies(t *testing.T) {
	cases := []struct {
		scores [5]int
		want   int
	}{
		{[5]int{0, 0, 0, 0, 0}, 0},
		{[5]int{200, 200, 200, 200, 200}, 1000},
		{[5]int{200, 160, 160, 120, 160}, 800},
		{[5]int{40, 80, 120, 160, 200}, 600},
	}
	for _, tc := range cases {
		result := evaluationResultWithScores(tc.scores)
		assert.Equal(t, tc.want, CalculateOverallScore(result))
	}
}

func TestCleanJSONResponse(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced bare", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", "aqui está: {\"a\":1} pronto", `{"a":1}`},
		{"whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cleanJSONResponse(tc.in))
		})
	}
}

func TestEvaluateRejectsShortTranscription(t *testing.T) {
	svc := &geminiLLMService{}

	cases := []struct {
		name string
		text string
	}{
		{"ascii", strings.Repeat("a", MinTranscriptionLength-1)},
		// Twice the minimum in bytes, one character short of it.
		{"accented", strings.Repeat("ã", MinTranscriptionLength-1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Evaluate(context.Background(), tc.text)
			assert.True(t, apperror.IsKind(err, apperror.KindPreconditionFailed))
		})
	}
}
