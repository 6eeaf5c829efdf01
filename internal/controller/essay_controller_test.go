package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mthsena/corrigeai/internal/apperror"
	"github.com/mthsena/corrigeai/internal/auth"
	"github.com/mthsena/corrigeai/internal/dto"
	"github.com/mthsena/corrigeai/internal/service"
	"github.com/mthsena/corrigeai/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEssayService struct {
	uploadResp    *dto.UploadResponseDTO
	uploadedFiles []service.UploadFile
	uploadTitle   string
	summaries     []dto.EssaySummaryDTO
	detail        *dto.EssayDetailDTO
	evaluation    *dto.EvaluationDTO
	err           error
}

func (s *stubEssayService) Upload(ctx context.Context, userID, title, theme string, files []service.UploadFile) (*dto.UploadResponseDTO, error) {
	s.uploadTitle = title
	s.uploadedFiles = files
	if s.err != nil {
		return nil, s.err
	}
	return s.uploadResp, nil
}

func (s *stubEssayService) List(userID string) ([]dto.EssaySummaryDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.summaries, nil
}

func (s *stubEssayService) Get(id, userID string) (*dto.EssayDetailDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.detail, nil
}

func (s *stubEssayService) GetEvaluation(id, userID string) (*dto.EvaluationDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.evaluation, nil
}

func (s *stubEssayService) Delete(ctx context.Context, id, userID string) error {
	return s.err
}

func newEssayRouter(svc service.EssayService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(ctx *gin.Context) { ctx.Set(auth.ContextUserKey, "user-1") })
	c := NewEssayController(svc)
	router.POST("/essays", c.Upload)
	router.GET("/essays", c.List)
	router.GET("/essays/:id", c.Get)
	router.DELETE("/essays/:id", c.Delete)
	router.GET("/essays/:id/evaluation", c.GetEvaluation)
	return router
}

func multipartUpload(t *testing.T, title, theme string, fileNames ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("title", title))
	if theme != "" {
		require.NoError(t, writer.WriteField("theme", theme))
	}
	for _, name := range fileNames {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
		header.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("png-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadEndpointForwardsFilesAndFields(t *testing.T) {
	svc := &stubEssayService{
		uploadResp: &dto.UploadResponseDTO{
			Success: true,
			Essays:  []dto.UploadedEssayDTO{{FileName: "a.png", EssayID: "essay-1"}},
		},
	}
	router := newEssayRouter(svc)

	body, contentType := multipartUpload(t, "Minha Redação", "Educação", "a.png")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/essays", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Minha Redação", svc.uploadTitle)
	require.Len(t, svc.uploadedFiles, 1)
	assert.Equal(t, "a.png", svc.uploadedFiles[0].FileName)
	assert.Equal(t, "image/png", svc.uploadedFiles[0].ContentType)
	assert.Equal(t, []byte("png-bytes"), svc.uploadedFiles[0].Content)

	var resp dto.UploadResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Essays, 1)
	assert.Equal(t, "essay-1", resp.Essays[0].EssayID)
}

func TestUploadEndpointCapsOversizedFileReads(t *testing.T) {
	svc := &stubEssayService{uploadResp: &dto.UploadResponseDTO{}}
	router := newEssayRouter(svc)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("title", "Minha Redação"))
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="files"; filename="big.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0xFF}, storage.MaxImageSize+4096))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/essays", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.uploadedFiles, 1)
	// Just past the limit: enough for validation to reject, nothing more is
	// held in memory.
	assert.Len(t, svc.uploadedFiles[0].Content, storage.MaxImageSize+1)
}

func TestUploadEndpointMapsValidationError(t *testing.T) {
	svc := &stubEssayService{err: apperror.New(apperror.KindValidation, "Title must be between 3 and 100 characters")}
	router := newEssayRouter(svc)

	body, contentType := multipartUpload(t, "ab", "", "a.png")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/essays", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEndpoint(t *testing.T) {
	score := 800
	svc := &stubEssayService{summaries: []dto.EssaySummaryDTO{
		{ID: "essay-1", Title: "Minha Redação", Status: "evaluated", OverallScore: &score},
	}}
	router := newEssayRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/essays", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp []dto.EssaySummaryDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.NotNil(t, resp[0].OverallScore)
	assert.Equal(t, 800, *resp[0].OverallScore)
}

func TestGetEndpointMapsNotFound(t *testing.T) {
	svc := &stubEssayService{err: apperror.New(apperror.KindNotFound, "Essay not found")}
	router := newEssayRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/essays/unknown", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(apperror.KindNotFound), resp.Error)
	assert.Equal(t, "Essay not found", resp.Message)
}

func TestDeleteEndpoint(t *testing.T) {
	router := newEssayRouter(&stubEssayService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/essays/essay-1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.DeleteResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestGetEvaluationEndpoint(t *testing.T) {
	svc := &stubEssayService{evaluation: &dto.EvaluationDTO{ID: "eval-1", EssayID: "essay-1", OverallScore: 760}}
	router := newEssayRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/essays/essay-1/evaluation", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.EvaluationDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 760, resp.OverallScore)
}
