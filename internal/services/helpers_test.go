package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"projetodesenvolve/meeting-evaluator/internal/models"
	"projetodesenvolve/meeting-evaluator/internal/repositories"
	"projetodesenvolve/meeting-evaluator/internal/rubric"
)

const evaluationText = `**1. Progresso do Aluno (Peso Total: 20 pontos)**
- Perguntou sobre o progresso? (10 pontos): 10 (perguntou logo no início)
- Definiu metas? (10 pontos): 5 (meta vaga)
**Resumo da Análise:** Boa reunião, metas pouco claras.
FINAL_SCORE: 15`

func testSchema(t *testing.T) *rubric.Schema {
	t.Helper()
	s, err := rubric.Define([]rubric.SectionSpec{
		{
			Title:     "Progresso do Aluno",
			MaxPoints: 20,
			Criteria: []rubric.CriterionSpec{
				{Label: "Perguntou sobre o progresso", MaxPoints: 10},
				{Label: "Definiu metas", MaxPoints: 10},
			},
		},
		{
			Title:     "Redutores",
			MaxPoints: -10,
			Penalty:   true,
			Criteria: []rubric.CriterionSpec{
				{Label: "Linguagem inadequada", MaxPoints: -10},
			},
		},
	})
	require.NoError(t, err)
	return s
}

func newTestRepo(t *testing.T) repositories.MeetingRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Meeting{}))
	return repositories.NewMeetingRepository(db)
}

func insertMeeting(t *testing.T, repo repositories.MeetingRepository, m models.Meeting) uuid.UUID {
	t.Helper()
	if m.SessionID == "" {
		m.SessionID = uuid.NewString()
	}
	ids, err := repo.UpsertNew([]models.Meeting{m})
	require.NoError(t, err)
	require.Len(t, ids, 1)
	return ids[0]
}

type fakeGemini struct {
	mu      sync.Mutex
	text    string
	err     error
	prompts []string
	embeds  []string
}

func (f *fakeGemini) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeds = append(f.embeds, text)
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeGemini) GenerateText(_ context.Context, prompt string, _ float32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func (f *fakeGemini) GenerateTextWithRetry(ctx context.Context, prompt string, temperature float32, _ int) (string, error) {
	return f.GenerateText(ctx, prompt, temperature)
}

func (f *fakeGemini) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type upsertedChunk struct {
	MeetingID uuid.UUID
	SessionID string
	Index     int
	Text      string
}

type fakeQdrant struct {
	mu       sync.Mutex
	chunks   []upsertedChunk
	deleted  []uuid.UUID
	results  []SearchResult
	searchFn func(limit int)
}

func (f *fakeQdrant) InitCollection(context.Context) error { return nil }

func (f *fakeQdrant) UpsertChunk(_ context.Context, meetingID uuid.UUID, sessionID string, index int, text string, _ []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = append(f.chunks, upsertedChunk{meetingID, sessionID, index, text})
	return nil
}

func (f *fakeQdrant) SearchSimilar(_ context.Context, _ []float32, limit int) ([]SearchResult, error) {
	if f.searchFn != nil {
		f.searchFn(limit)
	}
	return f.results, nil
}

func (f *fakeQdrant) DeleteMeeting(_ context.Context, meetingID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, meetingID)
	return nil
}

func (f *fakeQdrant) Close() error { return nil }

type fakeArchive struct {
	records map[string]rubric.Result
}

func (f *fakeArchive) Record(sessionID string, result rubric.Result) {
	if f.records == nil {
		f.records = map[string]rubric.Result{}
	}
	f.records[sessionID] = result
}

func (f *fakeArchive) Close() error { return nil }
