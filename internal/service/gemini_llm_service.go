package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"github.com/mthsena/corrigeai/config"
	"github.com/mthsena/corrigeai/internal/apperror"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// MinTranscriptionLength is the minimum trimmed length, in characters, an
// essay text must have before the rubric call is attempted.
const MinTranscriptionLength = 50

// enemCriteria is the fixed ENEM rubric embedded into every evaluation
// prompt: five competencies, each scored on the discrete bands
// 0/40/80/120/160/200.
const enemCriteria = `
COMPETÊNCIA 1 (0-200 pontos): Demonstrar domínio da modalidade escrita formal da língua portuguesa
- Ortografia e acentuação corretas
- Pontuação adequada
- Concordância verbal e nominal
- Regência verbal e nominal
- Uso apropriado de conectivos
- Ausência de marcas de oralidade
- Vocabulário adequado ao registro formal

COMPETÊNCIA 2 (0-200 pontos): Compreender a proposta de redação e aplicar conceitos das várias áreas de conhecimento
- Compreensão completa do tema proposto
- Desenvolvimento do tema sem tangenciá-lo
- Repertório sociocultural produtivo (referências, dados, citações)
- Argumentação consistente e bem fundamentada
- Articulação entre tema e conhecimentos de diferentes áreas

COMPETÊNCIA 3 (0-200 pontos): Selecionar, relacionar, organizar e interpretar informações, fatos, opiniões e argumentos
- Organização clara das ideias
- Coerência argumentativa
- Progressão textual lógica
- Relação adequada entre informações, fatos e opiniões
- Defesa consistente de um ponto de vista
- Estrutura dissertativo-argumentativa bem definida

COMPETÊNCIA 4 (0-200 pontos): Demonstrar conhecimento dos mecanismos linguísticos necessários para a construção da argumentação
- Uso adequado de conectivos e operadores argumentativos
- Coesão referencial (pronomes, sinônimos, hiperônimos)
- Coesão sequencial (progressão temática)
- Articulação eficiente entre parágrafos
- Encadeamento lógico das ideias
- Ausência de repetições desnecessárias

COMPETÊNCIA 5 (0-200 pontos): Elaborar proposta de intervenção para o problema abordado
- Proposta de intervenção clara e detalhada
- Respeito aos direitos humanos
- Presença dos 5 elementos: agente, ação, modo/meio, finalidade, detalhamento
- Relação direta com o tema e a argumentação desenvolvida
- Viabilidade e especificidade da proposta

NÍVEIS DE PONTUAÇÃO POR COMPETÊNCIA:
- 200 pontos: Excelente domínio
- 160 pontos: Bom domínio
- 120 pontos: Domínio mediano
- 80 pontos: Domínio insuficiente
- 40 pontos: Domínio precário
- 0 pontos: Desclassificação ou ausência total
`

// CompetencyResult is one validated competency entry of an AI evaluation.
type CompetencyResult struct {
	Score    int
	Feedback string
}

// EvaluationResult is the validated output of the rubric call.
type EvaluationResult struct {
	Competencies    [5]CompetencyResult
	GeneralFeedback string
}

// CalculateOverallScore sums the five competency scores. This sum is the
// only legitimate source of an evaluation's overall score.
func CalculateOverallScore(result *EvaluationResult) int {
	total := 0
	for _, c := range result.Competencies {
		total += c.Score
	}
	return total
}

// LLMService is the generative-text collaborator: it reconstructs noisy OCR
// output into clean prose and scores transcriptions against the ENEM rubric.
type LLMService interface {
	Reconstruct(ctx context.Context, rawText string) (string, error)
	Evaluate(ctx context.Context, transcription string) (*EvaluationResult, error)
}

type geminiLLMService struct {
	textModel *genai.GenerativeModel
	jsonModel *genai.GenerativeModel
}

// NewGeminiLLMService initializes the Gemini client with two model handles:
// a plain-text one for reconstruction and a strict-JSON one for evaluation.
func NewGeminiLLMService(cfg *config.Config) (LLMService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	textModel := client.GenerativeModel("gemini-2.5-pro")
	textModel.SetTemperature(0.3)
	textModel.SetMaxOutputTokens(8192)

	jsonModel := client.GenerativeModel("gemini-2.5-pro")
	jsonModel.SetTemperature(0.7)
	jsonModel.SetMaxOutputTokens(8192)
	jsonModel.ResponseMIMEType = "application/json"

	return &geminiLLMService{textModel: textModel, jsonModel: jsonModel}, nil
}

func (s *geminiLLMService) Reconstruct(ctx context.Context, rawText string) (string, error) {
	prompt := fmt.Sprintf(`Você é um especialista em transcrição de redações manuscritas do ENEM.
O texto abaixo foi extraído por OCR de uma foto de redação manuscrita e contém ruídos típicos:
espaçamento incorreto, acentuação perdida, palavras quebradas entre linhas e caracteres trocados.

Reconstrua o texto corrigindo APENAS esses ruídos de OCR. NÃO altere o conteúdo, o vocabulário,
a argumentação nem os erros gramaticais do autor — eles fazem parte da avaliação.

TEXTO EXTRAÍDO POR OCR:
"""
%s
"""

Retorne APENAS o texto reconstruído, sem comentários nem formatação adicional.`, rawText)

	text, err := s.generate(ctx, s.textModel, prompt)
	if err != nil {
		return "", err
	}
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return "", apperror.New(apperror.KindUpstream, "Reconstruction returned an empty text")
	}
	return cleaned, nil
}

func (s *geminiLLMService) Evaluate(ctx context.Context, transcription string) (*EvaluationResult, error) {
	if utf8.RuneCountInString(strings.TrimSpace(transcription)) < MinTranscriptionLength {
		return nil, apperror.New(apperror.KindPreconditionFailed, "Transcription is too short to evaluate")
	}

	prompt := fmt.Sprintf(`Você é um avaliador especializado em redações do ENEM (Exame Nacional do Ensino Médio).
Sua tarefa é avaliar a seguinte redação segundo as 5 competências do ENEM, fornecendo uma pontuação de 0 a 200 para cada competência e feedback detalhado.

CRITÉRIOS DE AVALIAÇÃO:
%s

REDAÇÃO A SER AVALIADA:
"""
%s
"""

INSTRUÇÕES:
1. Avalie cuidadosamente cada competência
2. Atribua uma pontuação de 0 a 200 para cada competência (use apenas valores: 0, 40, 80, 120, 160, 200)
3. Forneça feedback específico e construtivo para cada competência
4. Identifique pontos fortes e áreas de melhoria
5. No feedback geral, resuma a avaliação e dê orientações para melhorar

Retorne APENAS um JSON válido no seguinte formato (sem markdown, sem %s):
{
  "competency_1": {"score": 160, "feedback": "Feedback detalhado sobre domínio da língua portuguesa..."},
  "competency_2": {"score": 160, "feedback": "Feedback detalhado sobre compreensão do tema..."},
  "competency_3": {"score": 160, "feedback": "Feedback detalhado sobre organização de informações..."},
  "competency_4": {"score": 160, "feedback": "Feedback detalhado sobre mecanismos linguísticos..."},
  "competency_5": {"score": 160, "feedback": "Feedback detalhado sobre proposta de intervenção..."},
  "general_feedback": "Feedback geral sobre a redação..."
}`, enemCriteria, transcription, "```json")

	text, err := s.generate(ctx, s.jsonModel, prompt)
	if err != nil {
		return nil, err
	}

	result, err := ParseEvaluationJSON(text)
	if err != nil {
		log.Warn().Err(err).Str("rawResponse", text).Msg("Gemini evaluation response failed validation")
		return nil, err
	}
	return result, nil
}

func (s *geminiLLMService) generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Error().Err(err).Msg("Gemini API error")
		return "", apperror.Wrap(apperror.KindUpstream, "Gemini API request failed", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", apperror.New(apperror.KindUpstream, "Gemini returned no content")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", apperror.New(apperror.KindUpstream, "Gemini returned no text content")
	}
	return sb.String(), nil
}
