package repository

import (
	"github.com/mthsena/corrigeai/internal/model"
	"gorm.io/gorm"
)

// EssayRepository owns row-level access to essays. Every read and write is
// scoped by user id, so one tenant can never touch another tenant's rows.
type EssayRepository interface {
	Create(essay *model.Essay) error
	FindByIDAndUser(id, userID string) (*model.Essay, error)
	FindByIDAndUserWithEvaluation(id, userID string) (*model.Essay, error)
	FindAllByUser(userID string) ([]model.Essay, error)
	// SetTranscription writes both transcription fields and flips the status
	// to transcribed, conditional on the essay still being in the uploaded
	// state. Returns false when another request won the race.
	SetTranscription(id, userID, rawTranscription, transcription string) (bool, error)
	// SetStatusIf flips status from one state to another as a single
	// conditional write. Returns false when the essay was not in `from`.
	SetStatusIf(id string, from, to model.EssayStatus) (bool, error)
	Delete(id, userID string) error
}

type essayRepository struct {
	db *gorm.DB
}

func NewEssayRepository(db *gorm.DB) EssayRepository {
	return &essayRepository{db: db}
}

func (r *essayRepository) Create(essay *model.Essay) error {
	return r.db.Create(essay).Error
}

func (r *essayRepository) FindByIDAndUser(id, userID string) (*model.Essay, error) {
	var essay model.Essay
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&essay).Error; err != nil {
		return nil, err
	}
	return &essay, nil
}

func (r *essayRepository) FindByIDAndUserWithEvaluation(id, userID string) (*model.Essay, error) {
	var essay model.Essay
	if err := r.db.Preload("Evaluation").Where("id = ? AND user_id = ?", id, userID).First(&essay).Error; err != nil {
		return nil, err
	}
	return &essay, nil
}

func (r *essayRepository) FindAllByUser(userID string) ([]model.Essay, error) {
	var essays []model.Essay
	if err := r.db.Preload("Evaluation").Where("user_id = ?", userID).Order("created_at DESC").Find(&essays).Error; err != nil {
		return nil, err
	}
	return essays, nil
}

func (r *essayRepository) SetTranscription(id, userID, rawTranscription, transcription string) (bool, error) {
	res := r.db.Model(&model.Essay{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, model.StatusUploaded).
		Updates(map[string]interface{}{
			"raw_transcription": rawTranscription,
			"transcription":     transcription,
			"status":            model.StatusTranscribed,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *essayRepository) SetStatusIf(id string, from, to model.EssayStatus) (bool, error) {
	res := r.db.Model(&model.Essay{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *essayRepository) Delete(id, userID string) error {
	// The evaluation row goes first so a soft-deleted essay never leaves an
	// orphaned evaluation behind.
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("essay_id = ?", id).Delete(&model.Evaluation{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Essay{}).Error
	})
}
