package dto

// TranscribeRequest triggers the OCR step for an essay the caller owns.
type TranscribeRequest struct {
	EssayID string `json:"essay_id" binding:"required"`
}

// EvaluateRequest triggers the rubric evaluation step for an essay.
type EvaluateRequest struct {
	EssayID string `json:"essay_id" binding:"required"`
}
