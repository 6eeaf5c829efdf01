package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jinzhu/copier"
	"github.com/mthsena/corrigeai/internal/apperror"
	"github.com/mthsena/corrigeai/internal/dto"
	"github.com/mthsena/corrigeai/internal/model"
	"github.com/mthsena/corrigeai/internal/repository"
	"github.com/mthsena/corrigeai/internal/storage"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// UploadFile is one file of a multipart essay upload.
type UploadFile struct {
	FileName    string
	Content     []byte
	ContentType string
}

// EssayService covers essay CRUD around the pipeline: uploads, listing,
// detail reads, evaluation reads, and cascading deletion.
type EssayService interface {
	Upload(ctx context.Context, userID, title, theme string, files []UploadFile) (*dto.UploadResponseDTO, error)
	List(userID string) ([]dto.EssaySummaryDTO, error)
	Get(id, userID string) (*dto.EssayDetailDTO, error)
	GetEvaluation(id, userID string) (*dto.EvaluationDTO, error)
	Delete(ctx context.Context, id, userID string) error
}

type essayService struct {
	essayRepo repository.EssayRepository
	images    storage.ImageStorage
}

func NewEssayService(essayRepo repository.EssayRepository, images storage.ImageStorage) EssayService {
	return &essayService{essayRepo: essayRepo, images: images}
}

// Length bounds are in characters, not bytes; Portuguese titles are full of
// multi-byte runes.
func validateEssayInput(title, theme string) error {
	trimmed := strings.TrimSpace(title)
	if n := utf8.RuneCountInString(trimmed); n < 3 || n > 100 {
		return apperror.New(apperror.KindValidation, "Title must be between 3 and 100 characters")
	}
	if utf8.RuneCountInString(theme) > 200 {
		return apperror.New(apperror.KindValidation, "Theme must be at most 200 characters")
	}
	return nil
}

// Upload stores each file and creates its essay row. Files are processed
// sequentially; one file failing does not abort the rest of the batch, the
// failure is reported per file instead.
func (s *essayService) Upload(ctx context.Context, userID, title, theme string, files []UploadFile) (*dto.UploadResponseDTO, error) {
	if err := validateEssayInput(title, theme); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperror.New(apperror.KindValidation, "At least one file is required")
	}

	baseTitle := strings.TrimSpace(title)
	if len(files) > 1 {
		// The per-file " (N)" suffix counts against the title bound too.
		widest := fmt.Sprintf("%s (%d)", baseTitle, len(files))
		if utf8.RuneCountInString(widest) > 100 {
			return nil, apperror.New(apperror.KindValidation, "Title with its file number suffix must be at most 100 characters")
		}
	}

	resp := &dto.UploadResponseDTO{}
	succeeded := 0
	for i, file := range files {
		entry := dto.UploadedEssayDTO{FileName: file.FileName}

		stored, err := s.images.Store(ctx, file.Content, file.ContentType, userID)
		if err != nil {
			log.Warn().Err(err).Str("fileName", file.FileName).Msg("Upload: failed to store file")
			entry.Error = apperror.Message(err)
			resp.Essays = append(resp.Essays, entry)
			continue
		}

		essayTitle := baseTitle
		if len(files) > 1 {
			essayTitle = fmt.Sprintf("%s (%d)", essayTitle, i+1)
		}
		essay := &model.Essay{
			UserID:    userID,
			Title:     essayTitle,
			ImageURL:  stored.PublicURL,
			ImagePath: stored.Path,
			Status:    model.StatusUploaded,
		}
		if theme != "" {
			t := theme
			essay.Theme = &t
		}

		if err := s.essayRepo.Create(essay); err != nil {
			log.Error().Err(err).Str("fileName", file.FileName).Msg("Upload: failed to create essay row")
			// The stored object is unreachable without its row; best-effort
			// cleanup, an orphan is acceptable if this fails too.
			if rmErr := s.images.Remove(ctx, stored.Path); rmErr != nil {
				log.Warn().Err(rmErr).Str("path", stored.Path).Msg("Upload: failed to clean up stored file")
			}
			entry.Error = "Failed to save essay"
			resp.Essays = append(resp.Essays, entry)
			continue
		}

		entry.EssayID = essay.ID
		entry.ImageURL = essay.ImageURL
		resp.Essays = append(resp.Essays, entry)
		succeeded++
	}

	resp.Success = succeeded > 0
	return resp, nil
}

func (s *essayService) List(userID string) ([]dto.EssaySummaryDTO, error) {
	essays, err := s.essayRepo.FindAllByUser(userID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindPersistence, "Failed to list essays", err)
	}

	summaries := make([]dto.EssaySummaryDTO, 0, len(essays))
	for _, essay := range essays {
		summary := dto.EssaySummaryDTO{
			ID:        essay.ID,
			Title:     essay.Title,
			Theme:     essay.Theme,
			Status:    string(essay.Status),
			CreatedAt: essay.CreatedAt,
		}
		if essay.Evaluation != nil {
			score := essay.Evaluation.OverallScore
			summary.OverallScore = &score
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *essayService) Get(id, userID string) (*dto.EssayDetailDTO, error) {
	essay, err := s.essayRepo.FindByIDAndUserWithEvaluation(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "Essay not found")
		}
		return nil, apperror.Wrap(apperror.KindPersistence, "Failed to load essay", err)
	}

	// Self-healing read: an evaluation row with a lagging status means the
	// flip after an earlier evaluation was lost. Repair in place.
	if essay.Evaluation != nil && essay.Status != model.StatusEvaluated {
		if _, healErr := s.essayRepo.SetStatusIf(essay.ID, model.StatusTranscribed, model.StatusEvaluated); healErr != nil {
			log.Warn().Err(healErr).Str("essayID", essay.ID).Msg("Failed to heal lagging essay status")
		} else {
			essay.Status = model.StatusEvaluated
			log.Info().Str("essayID", essay.ID).Msg("Healed lagging essay status to evaluated")
		}
	}

	var detail dto.EssayDetailDTO
	if err := copier.Copy(&detail, essay); err != nil {
		return nil, apperror.Wrap(apperror.KindPersistence, "Failed to prepare essay response", err)
	}
	detail.Status = string(essay.Status)
	if essay.Evaluation != nil {
		ev := dto.NewEvaluationDTO(essay.Evaluation)
		detail.Evaluation = &ev
	}
	return &detail, nil
}

func (s *essayService) GetEvaluation(id, userID string) (*dto.EvaluationDTO, error) {
	essay, err := s.essayRepo.FindByIDAndUserWithEvaluation(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "Essay not found")
		}
		return nil, apperror.Wrap(apperror.KindPersistence, "Failed to load essay", err)
	}
	if essay.Evaluation == nil {
		return nil, apperror.New(apperror.KindNotFound, "Evaluation not found")
	}
	ev := dto.NewEvaluationDTO(essay.Evaluation)
	return &ev, nil
}

// Delete removes the backing image best-effort, then deletes the row with
// its evaluation. Storage failures never block the database delete; a
// database failure is a hard error.
func (s *essayService) Delete(ctx context.Context, id, userID string) error {
	essay, err := s.essayRepo.FindByIDAndUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(apperror.KindNotFound, "Essay not found")
		}
		return apperror.Wrap(apperror.KindPersistence, "Failed to load essay", err)
	}

	if err := s.images.Remove(ctx, essay.ImagePath); err != nil {
		log.Warn().Err(err).Str("essayID", essay.ID).Str("path", essay.ImagePath).
			Msg("Failed to remove essay image; continuing with database deletion")
	}

	if err := s.essayRepo.Delete(essay.ID, userID); err != nil {
		return apperror.Wrap(apperror.KindPersistence, "Failed to delete essay", err)
	}
	log.Info().Str("essayID", essay.ID).Msg("Essay deleted")
	return nil
}
