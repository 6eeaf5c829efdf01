package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/mthsena/corrigeai/config"
	"github.com/mthsena/corrigeai/internal/apperror"
	"github.com/rs/zerolog/log"
)

const defaultVisionEndpoint = "https://vision.googleapis.com/v1/images:annotate"

// OCRResult is the raw output of the vision backend for one image.
type OCRResult struct {
	Text       string
	Confidence float64
}

// OCRService extracts text from a publicly reachable image URL. It is a pure
// transform; nothing stored is mutated here.
type OCRService interface {
	ExtractText(ctx context.Context, imageURL string) (*OCRResult, error)
}

type visionOCRService struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewVisionOCRService builds the Google Vision REST client. The language is
// pinned to Portuguese: the rubric and the essays are Portuguese-only, so it
// is configuration, not a parameter.
func NewVisionOCRService(cfg *config.Config) OCRService {
	return &visionOCRService{
		apiKey:   cfg.VisionApiKey,
		endpoint: defaultVisionEndpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// annotateRequest mirrors the images:annotate payload, configured for
// handwritten document OCR with per-page confidence scores enabled.
type annotateRequest struct {
	Requests []annotateItem `json:"requests"`
}

type annotateItem struct {
	Image struct {
		Source struct {
			ImageURI string `json:"imageUri"`
		} `json:"source"`
	} `json:"image"`
	Features []struct {
		Type       string `json:"type"`
		MaxResults int    `json:"maxResults,omitempty"`
	} `json:"features"`
	ImageContext struct {
		LanguageHints       []string `json:"languageHints"`
		TextDetectionParams struct {
			EnableTextDetectionConfidenceScore bool `json:"enableTextDetectionConfidenceScore"`
		} `json:"textDetectionParams"`
	} `json:"imageContext"`
}

type annotateResponse struct {
	Responses []struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		FullTextAnnotation *struct {
			Text  string `json:"text"`
			Pages []struct {
				Confidence float64 `json:"confidence"`
			} `json:"pages"`
		} `json:"fullTextAnnotation"`
	} `json:"responses"`
}

func (s *visionOCRService) ExtractText(ctx context.Context, imageURL string) (*OCRResult, error) {
	var reqBody annotateRequest
	item := annotateItem{}
	item.Image.Source.ImageURI = imageURL
	item.Features = append(item.Features, struct {
		Type       string `json:"type"`
		MaxResults int    `json:"maxResults,omitempty"`
	}{Type: "DOCUMENT_TEXT_DETECTION", MaxResults: 150})
	item.ImageContext.LanguageHints = []string{"pt"}
	item.ImageContext.TextDetectionParams.EnableTextDetectionConfidenceScore = true
	reqBody.Requests = append(reqBody.Requests, item)

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUpstream, "Failed to build OCR request", err)
	}

	url := fmt.Sprintf("%s?key=%s", s.endpoint, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUpstream, "Failed to build OCR request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUpstream, "Vision API request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUpstream, "Failed to read Vision API response", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Msg("Vision API returned non-200 status")
		return nil, apperror.New(apperror.KindUpstream,
			fmt.Sprintf("Vision API request failed with status %d", resp.StatusCode))
	}

	var annotated annotateResponse
	if err := json.Unmarshal(body, &annotated); err != nil {
		return nil, apperror.Wrap(apperror.KindUpstream, "Failed to parse Vision API response", err)
	}
	if len(annotated.Responses) == 0 {
		return nil, apperror.New(apperror.KindUpstream, "No response from Vision API")
	}

	first := annotated.Responses[0]
	if first.Error != nil && first.Error.Message != "" {
		return nil, apperror.New(apperror.KindUpstream, fmt.Sprintf("Vision API error: %s", first.Error.Message))
	}
	if first.FullTextAnnotation == nil || strings.TrimSpace(first.FullTextAnnotation.Text) == "" {
		return nil, apperror.New(apperror.KindUpstream, "No text found in image")
	}

	// Mean of the page-level confidences; the service does not always supply
	// them, in which case 0.9 is assumed.
	var total float64
	var count int
	for _, page := range first.FullTextAnnotation.Pages {
		if page.Confidence > 0 {
			total += page.Confidence
			count++
		}
	}
	confidence := 0.9
	if count > 0 {
		confidence = total / float64(count)
	}

	return &OCRResult{
		Text:       strings.TrimSpace(first.FullTextAnnotation.Text),
		Confidence: math.Round(confidence*100) / 100,
	}, nil
}
