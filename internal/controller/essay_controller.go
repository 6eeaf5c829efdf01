package controller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mthsena/corrigeai/internal/apperror"
	"github.com/mthsena/corrigeai/internal/auth"
	"github.com/mthsena/corrigeai/internal/dto"
	"github.com/mthsena/corrigeai/internal/service"
	"github.com/mthsena/corrigeai/internal/storage"
	"github.com/rs/zerolog/log"
)

type EssayController struct {
	essayService service.EssayService
}

func NewEssayController(essayService service.EssayService) *EssayController {
	return &EssayController{essayService: essayService}
}

// Upload godoc
// @Summary Upload one or more essay images
// @Description Stores the images and creates one essay per file in the `uploaded` state. Files are processed sequentially; per-file failures are reported in the response.
// @Tags Essays
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Essay title (3-100 characters)"
// @Param theme formData string false "Essay theme (max 200 characters)"
// @Param files formData file true "Essay image files (JPG, PNG or PDF, max 10MB each)"
// @Success 200 {object} dto.UploadResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid title, theme or file"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /essays [post]
func (c *EssayController) Upload(ctx *gin.Context) {
	userID, ok := auth.CurrentUser(ctx)
	if !ok {
		respondError(ctx, apperror.New(apperror.KindUnauthorized, "Not authenticated"))
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		respondError(ctx, apperror.New(apperror.KindValidation, "Invalid multipart form"))
		return
	}

	fileHeaders := form.File["files"]
	files := make([]service.UploadFile, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		f, err := header.Open()
		if err != nil {
			respondError(ctx, apperror.Wrap(apperror.KindValidation, "Failed to read uploaded file", err))
			return
		}
		// Reads are capped one byte past the size limit; the overflow byte is
		// enough for validation to reject the file without buffering it whole.
		content, err := io.ReadAll(io.LimitReader(f, storage.MaxImageSize+1))
		f.Close()
		if err != nil {
			respondError(ctx, apperror.Wrap(apperror.KindValidation, "Failed to read uploaded file", err))
			return
		}
		files = append(files, service.UploadFile{
			FileName:    header.Filename,
			Content:     content,
			ContentType: header.Header.Get("Content-Type"),
		})
	}

	resp, err := c.essayService.Upload(ctx.Request.Context(), userID, ctx.PostForm("title"), ctx.PostForm("theme"), files)
	if err != nil {
		respondError(ctx, err)
		return
	}
	log.Info().Str("userID", userID).Int("files", len(files)).Msg("Essay upload processed")
	ctx.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary List the caller's essays
// @Tags Essays
// @Produce json
// @Success 200 {array} dto.EssaySummaryDTO
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /essays [get]
func (c *EssayController) List(ctx *gin.Context) {
	userID, ok := auth.CurrentUser(ctx)
	if !ok {
		respondError(ctx, apperror.New(apperror.KindUnauthorized, "Not authenticated"))
		return
	}

	essays, err := c.essayService.List(userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, essays)
}

// Get godoc
// @Summary Get one essay with its transcription and evaluation
// @Tags Essays
// @Produce json
// @Param id path string true "Essay ID"
// @Success 200 {object} dto.EssayDetailDTO
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Essay not found or owned by another user"
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /essays/{id} [get]
func (c *EssayController) Get(ctx *gin.Context) {
	userID, ok := auth.CurrentUser(ctx)
	if !ok {
		respondError(ctx, apperror.New(apperror.KindUnauthorized, "Not authenticated"))
		return
	}

	detail, err := c.essayService.Get(ctx.Param("id"), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, detail)
}

// Delete godoc
// @Summary Delete an essay
// @Description Best-effort removes the stored image, then deletes the essay row and its evaluation. Storage failures do not block the deletion.
// @Tags Essays
// @Produce json
// @Param id path string true "Essay ID"
// @Success 200 {object} dto.DeleteResponseDTO
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /essays/{id} [delete]
func (c *EssayController) Delete(ctx *gin.Context) {
	userID, ok := auth.CurrentUser(ctx)
	if !ok {
		respondError(ctx, apperror.New(apperror.KindUnauthorized, "Not authenticated"))
		return
	}

	if err := c.essayService.Delete(ctx.Request.Context(), ctx.Param("id"), userID); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.DeleteResponseDTO{Success: true, Message: "Essay deleted successfully"})
}

// GetEvaluation godoc
// @Summary Get the evaluation of an essay
// @Tags Evaluations
// @Produce json
// @Param id path string true "Essay ID"
// @Success 200 {object} dto.EvaluationDTO
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Essay or evaluation not found"
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /essays/{id}/evaluation [get]
func (c *EssayController) GetEvaluation(ctx *gin.Context) {
	userID, ok := auth.CurrentUser(ctx)
	if !ok {
		respondError(ctx, apperror.New(apperror.KindUnauthorized, "Not authenticated"))
		return
	}

	evaluation, err := c.essayService.GetEvaluation(ctx.Param("id"), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, evaluation)
}
