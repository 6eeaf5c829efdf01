package dto

import "time"

type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

// UploadedEssayDTO is the per-file outcome of a multipart upload. Exactly one
// of EssayID/Error is meaningful: a failed file reports its error and leaves
// the rest of the batch untouched.
type UploadedEssayDTO struct {
	FileName string `json:"file_name"`
	EssayID  string `json:"essay_id,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Error    string `json:"error,omitempty"`
}

type UploadResponseDTO struct {
	Success bool               `json:"success"`
	Essays  []UploadedEssayDTO `json:"essays"`
}

// EssaySummaryDTO lists an essay for the dashboard, with the evaluation's
// overall score when one exists.
type EssaySummaryDTO struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Theme        *string   `json:"theme,omitempty"`
	Status       string    `json:"status"`
	OverallScore *int      `json:"overall_score,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type EssayDetailDTO struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Theme            *string        `json:"theme,omitempty"`
	ImageURL         string         `json:"image_url"`
	RawTranscription *string        `json:"raw_transcription,omitempty"`
	Transcription    *string        `json:"transcription,omitempty"`
	Status           string         `json:"status"`
	Evaluation       *EvaluationDTO `json:"evaluation,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type CompetencyDTO struct {
	Number   int    `json:"number"`
	Title    string `json:"title"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

type EvaluationDTO struct {
	ID              string          `json:"id"`
	EssayID         string          `json:"essay_id"`
	OverallScore    int             `json:"overall_score"`
	Competencies    []CompetencyDTO `json:"competencies"`
	GeneralFeedback string          `json:"general_feedback"`
	CreatedAt       time.Time       `json:"created_at"`
}

type TranscribeResponseDTO struct {
	Success       bool   `json:"success"`
	Transcription string `json:"transcription"`
	Message       string `json:"message"`
}

type EvaluateResponseDTO struct {
	Success    bool          `json:"success"`
	Evaluation EvaluationDTO `json:"evaluation"`
}

type DeleteResponseDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
