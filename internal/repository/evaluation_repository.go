package repository

import (
	"github.com/mthsena/corrigeai/internal/model"
	"gorm.io/gorm"
)

// EvaluationRepository owns the evaluations table. At most one row exists per
// essay; the unique index on essay_id backs that up.
type EvaluationRepository interface {
	Create(evaluation *model.Evaluation) error
	FindByEssayID(essayID string) (*model.Evaluation, error)
	DeleteByEssayID(essayID string) error
}

type evaluationRepository struct {
	db *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Create(evaluation *model.Evaluation) error {
	return r.db.Create(evaluation).Error
}

func (r *evaluationRepository) FindByEssayID(essayID string) (*model.Evaluation, error) {
	var evaluation model.Evaluation
	if err := r.db.Where("essay_id = ?", essayID).First(&evaluation).Error; err != nil {
		return nil, err
	}
	return &evaluation, nil
}

func (r *evaluationRepository) DeleteByEssayID(essayID string) error {
	return r.db.Where("essay_id = ?", essayID).Delete(&model.Evaluation{}).Error
}
