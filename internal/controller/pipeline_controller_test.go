package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mthsena/corrigeai/internal/apperror"
	"github.com/mthsena/corrigeai/internal/auth"
	"github.com/mthsena/corrigeai/internal/dto"
	"github.com/mthsena/corrigeai/internal/model"
	"github.com/mthsena/corrigeai/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPipeline struct {
	outcome    *service.TranscriptionOutcome
	evaluation *model.Evaluation
	err        error
}

func (s *stubPipeline) Transcribe(ctx context.Context, essayID, userID string) (*service.TranscriptionOutcome, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.outcome, nil
}

func (s *stubPipeline) Evaluate(ctx context.Context, essayID, userID string) (*model.Evaluation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.evaluation, nil
}

func (s *stubPipeline) DeleteEvaluation(ctx context.Context, essayID, userID string) error {
	return s.err
}

func newPipelineRouter(pipeline service.EssayPipelineService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	// Stands in for the auth middleware.
	router.Use(func(ctx *gin.Context) { ctx.Set(auth.ContextUserKey, "user-1") })
	c := NewPipelineController(pipeline)
	router.POST("/ocr", c.Transcribe)
	router.POST("/evaluate", c.Evaluate)
	router.DELETE("/essays/:id/evaluation", c.DeleteEvaluation)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestTranscribeEndpointSuccess(t *testing.T) {
	router := newPipelineRouter(&stubPipeline{
		outcome: &service.TranscriptionOutcome{Transcription: "texto reconstruído"},
	})

	w := postJSON(t, router, "/ocr", `{"essay_id":"essay-1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.TranscribeResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "texto reconstruído", resp.Transcription)
	assert.Equal(t, "Text extracted and reconstructed successfully", resp.Message)
}

func TestTranscribeEndpointReportsAlreadyDone(t *testing.T) {
	router := newPipelineRouter(&stubPipeline{
		outcome: &service.TranscriptionOutcome{Transcription: "texto armazenado", AlreadyDone: true},
	})

	w := postJSON(t, router, "/ocr", `{"essay_id":"essay-1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.TranscribeResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Essay already transcribed", resp.Message)
}

func TestTranscribeEndpointRequiresEssayID(t *testing.T) {
	router := newPipelineRouter(&stubPipeline{})

	w := postJSON(t, router, "/ocr", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluateEndpointReturnsEvaluationDTO(t *testing.T) {
	router := newPipelineRouter(&stubPipeline{
		evaluation: &model.Evaluation{
			ID:               "eval-1",
			EssayID:          "essay-1",
			OverallScore:     800,
			Competency1Score: 200,
		},
	})

	w := postJSON(t, router, "/evaluate", `{"essay_id":"essay-1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.EvaluateResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 800, resp.Evaluation.OverallScore)
	require.Len(t, resp.Evaluation.Competencies, 5)
	assert.Equal(t, 200, resp.Evaluation.Competencies[0].Score)
	assert.Equal(t, dto.CompetencyTitles[0], resp.Evaluation.Competencies[0].Title)
}

func TestPipelineEndpointsMapErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", apperror.New(apperror.KindNotFound, "Essay not found"), http.StatusNotFound},
		{"precondition", apperror.New(apperror.KindPreconditionFailed, "Essay must be transcribed before evaluation"), http.StatusBadRequest},
		{"invalid ai response", apperror.New(apperror.KindInvalidAIResponse, "Invalid score for competency_1"), http.StatusInternalServerError},
		{"upstream", apperror.New(apperror.KindUpstream, "Vision API request failed"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newPipelineRouter(&stubPipeline{err: tc.err})

			w := postJSON(t, router, "/evaluate", `{"essay_id":"essay-1"}`)
			assert.Equal(t, tc.want, w.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestDeleteEvaluationEndpoint(t *testing.T) {
	router := newPipelineRouter(&stubPipeline{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/essays/essay-1/evaluation", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.DeleteResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestPipelineEndpointsRejectMissingUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	c := NewPipelineController(&stubPipeline{})
	router.POST("/ocr", c.Transcribe)

	w := postJSON(t, router, "/ocr", `{"essay_id":"essay-1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
