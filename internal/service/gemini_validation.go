package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mthsena/corrigeai/internal/apperror"
)

// minFeedbackLength is in characters; the feedback is Portuguese prose.
const minFeedbackLength = 10

// competencyPayload uses pointer fields so a missing key can be told apart
// from a zero value.
type competencyPayload struct {
	Score    *float64 `json:"score"`
	Feedback *string  `json:"feedback"`
}

type evaluationPayload struct {
	Competency1     *competencyPayload `json:"competency_1"`
	Competency2     *competencyPayload `json:"competency_2"`
	Competency3     *competencyPayload `json:"competency_3"`
	Competency4     *competencyPayload `json:"competency_4"`
	Competency5     *competencyPayload `json:"competency_5"`
	GeneralFeedback *string            `json:"general_feedback"`
}

// ParseEvaluationJSON parses and validates the generative backend's rubric
// response. Any structural defect rejects the whole response; nothing is
// clamped or repaired. Scores are range-checked to [0,200] only — off-band
// values such as 150 pass, matching the upstream contract.
func ParseEvaluationJSON(text string) (*EvaluationResult, error) {
	cleaned := cleanJSONResponse(text)

	var payload evaluationPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidAIResponse, "AI response is not valid JSON", err)
	}

	competencies := [5]*competencyPayload{
		payload.Competency1,
		payload.Competency2,
		payload.Competency3,
		payload.Competency4,
		payload.Competency5,
	}

	var result EvaluationResult
	for i, comp := range competencies {
		n := i + 1
		if comp == nil {
			return nil, apperror.New(apperror.KindInvalidAIResponse,
				fmt.Sprintf("Missing competency_%d in evaluation result", n))
		}
		if comp.Score == nil || *comp.Score < 0 || *comp.Score > 200 {
			return nil, apperror.New(apperror.KindInvalidAIResponse,
				fmt.Sprintf("Invalid score for competency_%d", n))
		}
		if comp.Feedback == nil || utf8.RuneCountInString(*comp.Feedback) < minFeedbackLength {
			return nil, apperror.New(apperror.KindInvalidAIResponse,
				fmt.Sprintf("Invalid feedback for competency_%d", n))
		}
		result.Competencies[i] = CompetencyResult{
			Score:    int(*comp.Score),
			Feedback: *comp.Feedback,
		}
	}

	if payload.GeneralFeedback == nil || utf8.RuneCountInString(*payload.GeneralFeedback) < minFeedbackLength {
		return nil, apperror.New(apperror.KindInvalidAIResponse, "Invalid general_feedback in evaluation result")
	}
	result.GeneralFeedback = *payload.GeneralFeedback

	return &result, nil
}

// cleanJSONResponse strips markdown code fences and any prose around the
// outermost JSON object. Models occasionally wrap output despite the strict
// JSON instruction.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end != -1 && end > start {
		content = content[start : end+1]
	}

	return strings.TrimSpace(content)
}
