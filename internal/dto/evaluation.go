package dto

import "github.com/mthsena/corrigeai/internal/model"

// CompetencyTitles are the fixed names of the five ENEM rubric dimensions.
var CompetencyTitles = [5]string{
	"Domínio da língua portuguesa",
	"Compreensão do tema",
	"Organização de informações",
	"Mecanismos linguísticos",
	"Proposta de intervenção",
}

// NewEvaluationDTO flattens an evaluation row into the response shape with
// its competencies numbered and titled.
func NewEvaluationDTO(ev *model.Evaluation) EvaluationDTO {
	scores := [5]int{ev.Competency1Score, ev.Competency2Score, ev.Competency3Score, ev.Competency4Score, ev.Competency5Score}
	feedbacks := [5]string{ev.Competency1Feedback, ev.Competency2Feedback, ev.Competency3Feedback, ev.Competency4Feedback, ev.Competency5Feedback}

	competencies := make([]CompetencyDTO, 5)
	for i := 0; i < 5; i++ {
		competencies[i] = CompetencyDTO{
			Number:   i + 1,
			Title:    CompetencyTitles[i],
			Score:    scores[i],
			Feedback: feedbacks[i],
		}
	}

	return EvaluationDTO{
		ID:              ev.ID,
		EssayID:         ev.EssayID,
		OverallScore:    ev.OverallScore,
		Competencies:    competencies,
		GeneralFeedback: ev.GeneralFeedback,
		CreatedAt:       ev.CreatedAt,
	}
}
