package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Evaluation holds the rubric result for exactly one essay: five competency
// scores in 0..200 with their feedback, plus the derived overall score.
type Evaluation struct {
	ID      string `gorm:"type:uuid;primaryKey" json:"id"`
	EssayID string `gorm:"type:uuid;not null;uniqueIndex" json:"essay_id"`

	// OverallScore is always the sum of the five competency scores; it is
	// computed by the orchestrator, never taken from input.
	OverallScore int `gorm:"not null" json:"overall_score"`

	Competency1Score int `gorm:"not null" json:"competency_1_score"`
	Competency2Score int `gorm:"not null" json:"competency_2_score"`
	Competency3Score int `gorm:"not null" json:"competency_3_score"`
	Competency4Score int `gorm:"not null" json:"competency_4_score"`
	Competency5Score int `gorm:"not null" json:"competency_5_score"`

	Competency1Feedback string `gorm:"type:text;not null" json:"competency_1_feedback"`
	Competency2Feedback string `gorm:"type:text;not null" json:"competency_2_feedback"`
	Competency3Feedback string `gorm:"type:text;not null" json:"competency_3_feedback"`
	Competency4Feedback string `gorm:"type:text;not null" json:"competency_4_feedback"`
	Competency5Feedback string `gorm:"type:text;not null" json:"competency_5_feedback"`

	GeneralFeedback string `gorm:"type:text;not null" json:"general_feedback"`

	CreatedAt time.Time `json:"created_at"`
}

func (ev *Evaluation) BeforeCreate(tx *gorm.DB) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	return nil
}
