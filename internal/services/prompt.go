package services

import (
	"fmt"
	"strings"

	"projetodesenvolve/meeting-evaluator/internal/models"
	"projetodesenvolve/meeting-evaluator/internal/rubric"
)

const (
	defaultSummaryHeading = "**Resumo da Análise:**"
	defaultFinalScoreTag  = "FINAL_SCORE:"
)

type PromptBuilder struct {
	summaryHeading string
	finalScoreTag  string
}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		summaryHeading: defaultSummaryHeading,
		finalScoreTag:  defaultFinalScoreTag,
	}
}

// BuildMeetingEvaluationPrompt asks the generator to score one meeting
// against every criterion of the rubric, in the layout the parser reads back.
func (pb *PromptBuilder) BuildMeetingEvaluationPrompt(schema *rubric.Schema, meeting *models.Meeting) string {
	return fmt.Sprintf(`Analise a transcrição da reunião de monitoria. Sua análise e pontuação devem se basear estritamente nos diálogos e eventos descritos na transcrição.

**TAREFA:**

1. Para CADA UM dos subcritérios listados abaixo, atribua uma pontuação.
2. A pontuação de cada subcritério deve ser o valor máximo indicado se o critério foi totalmente cumprido, ou 0 se não foi cumprido ou se a informação não está na transcrição.
3. Liste a pontuação de cada subcritério de forma explícita, no formato "- <critério> (<máximo> pontos): <pontuação> (<justificativa>)".
4. Some todas as pontuações para calcular o Score Final.
5. Apresente um resumo da sua análise após o título %s.
6. No final de TUDO, adicione a linha no formato exato: '%s <seu score final aqui>'.

**CRITÉRIOS DE AVALIAÇÃO:**

%s
--- DADOS DA REUNIÃO ---

Título: %s
Monitor: %s
Resumo (Contexto Secundário): %s
TRANSCRIÇÃO COMPLETA (Fonte Principal): %s`,
		pb.summaryHeading, pb.finalScoreTag,
		FormatRubric(schema),
		meeting.Title, meeting.OwnerName, meeting.Summary, meeting.Transcript)
}

// FormatRubric renders the schema as numbered bold headers with one bullet
// per criterion.
func FormatRubric(schema *rubric.Schema) string {
	var b strings.Builder
	for i, sec := range schema.Sections() {
		fmt.Fprintf(&b, "**%d. %s (Peso Total: %d pontos)**\n", i+1, sec.Title, sec.MaxPoints)
		for _, crit := range sec.Criteria {
			fmt.Fprintf(&b, "   - %s (%d pontos):\n", crit.Label, crit.MaxPoints)
		}
		b.WriteString("\n")
	}
	return b.String()
}
