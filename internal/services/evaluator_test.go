package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projetodesenvolve/meeting-evaluator/internal/metrics"
	"projetodesenvolve/meeting-evaluator/internal/models"
	"projetodesenvolve/meeting-evaluator/internal/repositories"
	"projetodesenvolve/meeting-evaluator/internal/rubric"
)

const notConducted = "No summary available due to limited meeting data."

type evaluatorFixture struct {
	repo     repositories.MeetingRepository
	gemini   *fakeGemini
	qdrant   *fakeQdrant
	archive  *fakeArchive
	recorder *metrics.Recorder
	service  EvaluatorService
}

func newEvaluatorFixture(t *testing.T, withSearch bool) *evaluatorFixture {
	t.Helper()
	f := &evaluatorFixture{
		repo:     newTestRepo(t),
		gemini:   &fakeGemini{text: evaluationText},
		archive:  &fakeArchive{},
		recorder: metrics.New(),
	}
	opts := EvaluatorOptions{
		Schema:              testSchema(t),
		NotConductedSummary: notConducted,
		MaxRetries:          1,
		Archive:             f.archive,
		Metrics:             f.recorder,
	}
	if withSearch {
		f.qdrant = &fakeQdrant{}
		opts.Qdrant = f.qdrant
	}
	f.service = NewEvaluatorService(f.repo, f.gemini, opts)
	return f
}

// metricValue reads one sample from the recorder's registry; labelValue is
// matched against any label of the sample, or ignored when empty.
func metricValue(t *testing.T, rec *metrics.Recorder, name, labelValue string) float64 {
	t.Helper()
	families, err := rec.Registry().Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			matched := labelValue == ""
			for _, l := range m.GetLabel() {
				if l.GetValue() == labelValue {
					matched = true
				}
			}
			if !matched {
				continue
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

func TestEvaluateMeeting_StoresParsedResult(t *testing.T) {
	f := newEvaluatorFixture(t, true)
	id := insertMeeting(t, f.repo, models.Meeting{
		SessionID:  "s-1",
		Title:      "Monitoria semanal",
		OwnerName:  "Ana",
		Summary:    "Conversa sobre metas.",
		Transcript: "Ana: como foi a semana?",
	})

	require.NoError(t, f.service.EvaluateMeeting(context.Background(), id))

	m, err := f.repo.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, m.Status)
	require.NotNil(t, m.Score)
	assert.Equal(t, 15, *m.Score)
	assert.Equal(t, rubric.StatusOk, m.ParseStatus)
	assert.Equal(t, evaluationText, m.EvaluationText)
	assert.Equal(t, "Boa reunião, metas pouco claras.", m.AnalysisSummary)
	require.Len(t, m.Sections, 1)
	assert.Len(t, m.Sections[0].Criteria, 2)
	assert.Empty(t, m.ErrorMessage)

	require.Equal(t, 1, f.gemini.calls())
	assert.Contains(t, f.gemini.prompts[0], "Ana: como foi a semana?")
	assert.Contains(t, f.gemini.prompts[0], "Perguntou sobre o progresso (10 pontos):")

	assert.Equal(t, []uuid.UUID{id}, f.qdrant.deleted)
	require.NotEmpty(t, f.qdrant.chunks)
	assert.Equal(t, "s-1", f.qdrant.chunks[0].SessionID)
	assert.Contains(t, f.qdrant.chunks[0].Text, "Boa reunião")
	assert.Contains(t, f.qdrant.chunks[0].Text, "meta vaga")

	assert.Empty(t, f.archive.records)
	assert.Equal(t, 1.0, metricValue(t, f.recorder, "meeting_evaluator_evaluations_total", "Ok"))
	assert.Equal(t, 1.0, metricValue(t, f.recorder, "meeting_evaluator_parse_duration_seconds", ""))
}

func TestEvaluateMeeting_NotConductedSkipsGenerator(t *testing.T) {
	f := newEvaluatorFixture(t, false)
	id := insertMeeting(t, f.repo, models.Meeting{Summary: notConducted})

	require.NoError(t, f.service.EvaluateMeeting(context.Background(), id))

	m, err := f.repo.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSkipped, m.Status)
	require.NotNil(t, m.Score)
	assert.Equal(t, 0, *m.Score)
	assert.Equal(t, NotConductedText, m.EvaluationText)
	assert.Zero(t, f.gemini.calls())
	assert.Equal(t, 1.0, metricValue(t, f.recorder, "meeting_evaluator_evaluations_total", "skipped"))
}

func TestEvaluateMeeting_GeneratorErrorKeepsPriorScore(t *testing.T) {
	f := newEvaluatorFixture(t, false)
	id := insertMeeting(t, f.repo, models.Meeting{Summary: "Reunião normal."})
	prior := 42
	require.NoError(t, f.repo.UpdateResult(id, &repositories.EvaluationUpdateData{
		Score:           &prior,
		ParseStatus:     rubric.StatusOk,
		EvaluationText:  "texto anterior",
		AnalysisSummary: "resumo anterior",
	}))

	f.gemini.err = errors.New("quota exceeded")
	err := f.service.EvaluateMeeting(context.Background(), id)
	require.Error(t, err)
	assert.ErrorContains(t, err, "quota exceeded")

	m, err := f.repo.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, m.Status)
	require.NotNil(t, m.Score)
	assert.Equal(t, 42, *m.Score)
	assert.Equal(t, rubric.StatusPartialFailure, m.ParseStatus)
	assert.Equal(t, "texto anterior", m.EvaluationText)
	assert.Equal(t, "resumo anterior", m.AnalysisSummary)
	assert.Contains(t, m.ErrorMessage, "quota exceeded")
	assert.Empty(t, f.archive.records, "nothing was generated, so nothing is archived")
	assert.Equal(t, 1.0, metricValue(t, f.recorder, "meeting_evaluator_generator_errors_total", ""))
}

func TestEvaluateMeeting_GeneratorErrorWithoutPrior(t *testing.T) {
	f := newEvaluatorFixture(t, false)
	id := insertMeeting(t, f.repo, models.Meeting{Summary: "Reunião normal."})

	f.gemini.err = errors.New("unavailable")
	require.Error(t, f.service.EvaluateMeeting(context.Background(), id))

	m, err := f.repo.FindByID(id)
	require.NoError(t, err)
	require.NotNil(t, m.Score)
	assert.Equal(t, rubric.FailureScore, *m.Score)
	assert.Equal(t, rubric.StatusTotalFailure, m.ParseStatus)
}

func TestEvaluateMeeting_UnparseableTextIsArchived(t *testing.T) {
	f := newEvaluatorFixture(t, true)
	id := insertMeeting(t, f.repo, models.Meeting{SessionID: "s-garbage", Summary: "Reunião normal."})
	f.gemini.text = "Não consegui avaliar esta reunião."

	require.NoError(t, f.service.EvaluateMeeting(context.Background(), id))

	m, err := f.repo.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, m.Status)
	assert.Equal(t, rubric.StatusTotalFailure, m.ParseStatus)
	require.NotNil(t, m.Score)
	assert.Equal(t, rubric.FailureScore, *m.Score)

	require.Contains(t, f.archive.records, "s-garbage")
	archived := f.archive.records["s-garbage"]
	require.NotNil(t, archived.RawText)
	assert.Equal(t, "Não consegui avaliar esta reunião.", *archived.RawText)
	assert.Empty(t, f.qdrant.chunks, "failed evaluations are not indexed")
	assert.Equal(t, 1.0, metricValue(t, f.recorder, "meeting_evaluator_parse_failures_archived_total", ""))
}

func TestEvaluateMeeting_MissingMeeting(t *testing.T) {
	f := newEvaluatorFixture(t, false)

	err := f.service.EvaluateMeeting(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repositories.ErrMeetingNotFound)
	assert.Zero(t, f.gemini.calls())
}

func TestNewEvaluatorService_PanicsWithoutSchema(t *testing.T) {
	assert.Panics(t, func() {
		NewEvaluatorService(newTestRepo(t), &fakeGemini{}, EvaluatorOptions{})
	})
}
