package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EssayStatus string

const (
	StatusUploaded    EssayStatus = "uploaded"
	StatusTranscribed EssayStatus = "transcribed"
	StatusEvaluated   EssayStatus = "evaluated"
)

type Essay struct {
	ID     string  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string  `gorm:"type:uuid;not null;index" json:"user_id"`
	Title  string  `gorm:"not null" json:"title"`
	Theme  *string `json:"theme,omitempty"`
	// ImageURL is the public URL of the source image; immutable after create.
	ImageURL string `gorm:"not null" json:"image_url"`
	// ImagePath is the object key inside the bucket, kept so deletion does
	// not have to re-derive it from the URL.
	ImagePath        string         `gorm:"not null" json:"-"`
	RawTranscription *string        `gorm:"type:text" json:"raw_transcription,omitempty"`
	Transcription    *string        `gorm:"type:text" json:"transcription,omitempty"`
	Status           EssayStatus    `gorm:"not null;default:'uploaded';index" json:"status"`
	Evaluation       *Evaluation    `gorm:"foreignKey:EssayID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"evaluation,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (e *Essay) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = StatusUploaded
	}
	return nil
}

// HasTranscription reports whether the OCR step already ran for this essay.
func (e *Essay) HasTranscription() bool {
	return e.Transcription != nil && *e.Transcription != ""
}
