package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mthsena/corrigeai/internal/apperror"
	"github.com/mthsena/corrigeai/internal/auth"
	"github.com/mthsena/corrigeai/internal/dto"
	"github.com/mthsena/corrigeai/internal/service"
	"github.com/rs/zerolog/log"
)

// PipelineController exposes the two state-machine transitions (OCR and
// evaluation) plus the re-evaluation escape hatch.
type PipelineController struct {
	pipeline service.EssayPipelineService
}

func NewPipelineController(pipeline service.EssayPipelineService) *PipelineController {
	return &PipelineController{pipeline: pipeline}
}

// Transcribe godoc
// @Summary Run OCR and reconstruction on an uploaded essay
// @Description Extracts the handwritten text from the essay image and reconstructs it into clean prose. Idempotent: repeated calls return the stored transcription without new AI calls.
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param request body dto.TranscribeRequest true "Essay to transcribe"
// @Success 200 {object} dto.TranscribeResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid essay_id"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Essay not found or owned by another user"
// @Failure 500 {object} dto.ErrorResponse "OCR or reconstruction backend failure"
// @Security BearerAuth
// @Router /ocr [post]
func (c *PipelineController) Transcribe(ctx *gin.Context) {
	userID, ok := auth.CurrentUser(ctx)
	if !ok {
		respondError(ctx, apperror.New(apperror.KindUnauthorized, "Not authenticated"))
		return
	}

	var req dto.TranscribeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, apperror.New(apperror.KindValidation, "Essay ID is required"))
		return
	}

	outcome, err := c.pipeline.Transcribe(ctx.Request.Context(), req.EssayID, userID)
	if err != nil {
		log.Warn().Err(err).Str("essayID", req.EssayID).Msg("Transcription failed")
		respondError(ctx, err)
		return
	}

	message := "Text extracted and reconstructed successfully"
	if outcome.AlreadyDone {
		message = "Essay already transcribed"
	}
	ctx.JSON(http.StatusOK, dto.TranscribeResponseDTO{
		Success:       true,
		Transcription: outcome.Transcription,
		Message:       message,
	})
}

// Evaluate godoc
// @Summary Score a transcribed essay against the ENEM rubric
// @Description Produces five competency scores (0-200 each) with feedback and the derived overall score (0-1000). Idempotent: an already-evaluated essay returns its stored evaluation without a new AI call.
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param request body dto.EvaluateRequest true "Essay to evaluate"
// @Success 200 {object} dto.EvaluateResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Missing essay_id or essay not yet transcribed"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Essay not found or owned by another user"
// @Failure 500 {object} dto.ErrorResponse "Evaluation backend failure or invalid AI response"
// @Security BearerAuth
// @Router /evaluate [post]
func (c *PipelineController) Evaluate(ctx *gin.Context) {
	userID, ok := auth.CurrentUser(ctx)
	if !ok {
		respondError(ctx, apperror.New(apperror.KindUnauthorized, "Not authenticated"))
		return
	}

	var req dto.EvaluateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, apperror.New(apperror.KindValidation, "Essay ID is required"))
		return
	}

	evaluation, err := c.pipeline.Evaluate(ctx.Request.Context(), req.EssayID, userID)
	if err != nil {
		log.Warn().Err(err).Str("essayID", req.EssayID).Msg("Evaluation failed")
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.EvaluateResponseDTO{
		Success:    true,
		Evaluation: dto.NewEvaluationDTO(evaluation),
	})
}

// DeleteEvaluation godoc
// @Summary Delete an evaluation to allow re-evaluation
// @Description Removes the evaluation row and rolls the essay back to the `transcribed` state.
// @Tags Evaluations
// @Produce json
// @Param id path string true "Essay ID"
// @Success 200 {object} dto.DeleteResponseDTO
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Essay or evaluation not found"
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /essays/{id}/evaluation [delete]
func (c *PipelineController) DeleteEvaluation(ctx *gin.Context) {
	userID, ok := auth.CurrentUser(ctx)
	if !ok {
		respondError(ctx, apperror.New(apperror.KindUnauthorized, "Not authenticated"))
		return
	}

	if err := c.pipeline.DeleteEvaluation(ctx.Request.Context(), ctx.Param("id"), userID); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.DeleteResponseDTO{Success: true, Message: "Evaluation deleted; essay can be re-evaluated"})
}
