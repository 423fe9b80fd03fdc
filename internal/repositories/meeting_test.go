package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"projetodesenvolve/meeting-evaluator/internal/models"
	"projetodesenvolve/meeting-evaluator/internal/rubric"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Meeting{}))
	return db
}

func day(s string) *time.Time {
	d, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return &d
}

func score(v int) *int { return &v }

func seed(t *testing.T, db *gorm.DB, meetings ...models.Meeting) {
	t.Helper()
	for i := range meetings {
		require.NoError(t, db.Create(&meetings[i]).Error)
	}
}

func TestMeetingRepository_UpsertNewIsIdempotent(t *testing.T) {
	repo := NewMeetingRepository(newTestDB(t))

	batch := []models.Meeting{
		{SessionID: "s-1", Title: "Monitoria 1", Topics: []string{"metas"}},
		{SessionID: "s-2", Title: "Monitoria 2"},
		{SessionID: "s-1", Title: "Duplicate in same batch"},
	}

	ids, err := repo.UpsertNew(batch)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	again, err := repo.UpsertNew([]models.Meeting{
		{SessionID: "s-2", Title: "Changed title"},
		{SessionID: "s-3", Title: "Monitoria 3"},
	})
	require.NoError(t, err)
	require.Len(t, again, 1)

	m, err := repo.FindByID(again[0])
	require.NoError(t, err)
	assert.Equal(t, "s-3", m.SessionID)
	assert.Equal(t, models.StatusQueued, m.Status)

	all, err := repo.List(MeetingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, m := range all {
		assert.NotEqual(t, "Changed title", m.Title)
		assert.NotEqual(t, "Duplicate in same batch", m.Title)
	}
}

func TestMeetingRepository_FindByIDNotFound(t *testing.T) {
	repo := NewMeetingRepository(newTestDB(t))

	_, err := repo.FindByID(uuid.New())
	assert.ErrorIs(t, err, ErrMeetingNotFound)
}

func TestMeetingRepository_UpdateResultRoundTripsSections(t *testing.T) {
	db := newTestDB(t)
	repo := NewMeetingRepository(db)
	m := models.Meeting{SessionID: "s-1", ErrorMessage: "old"}
	seed(t, db, m)
	stored, err := repo.List(MeetingFilter{})
	require.NoError(t, err)
	id := stored[0].ID

	sections := []rubric.Section{{
		Title:     "Progresso do Aluno",
		MaxPoints: 50,
		Criteria:  []rubric.Criterion{{Text: "Perguntou sobre a semana?", AwardedPoints: 5, MaxPoints: 5}},
	}}
	err = repo.UpdateResult(id, &EvaluationUpdateData{
		Score:           score(5),
		ParseStatus:     rubric.StatusOk,
		EvaluationText:  "texto",
		AnalysisSummary: "resumo",
		Sections:        sections,
	})
	require.NoError(t, err)

	got, err := repo.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	require.NotNil(t, got.Score)
	assert.Equal(t, 5, *got.Score)
	assert.Equal(t, rubric.StatusOk, got.ParseStatus)
	assert.Equal(t, sections, got.Sections)
	assert.Empty(t, got.ErrorMessage, "a successful result clears the previous error")

	assert.ErrorIs(t, repo.UpdateResult(uuid.New(), &EvaluationUpdateData{}), ErrMeetingNotFound)
}

func TestMeetingRepository_StatusTransitions(t *testing.T) {
	db := newTestDB(t)
	repo := NewMeetingRepository(db)
	ids, err := repo.UpsertNew([]models.Meeting{{SessionID: "a"}, {SessionID: "b"}})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStatus(ids[0], models.StatusProcessing))
	require.NoError(t, repo.UpdateError(ids[1], "generator unavailable"))

	pending, err := repo.FindPendingJobs(10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	failed, err := repo.FindByID(ids[1])
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, failed.Status)
	assert.Equal(t, "generator unavailable", failed.ErrorMessage)

	assert.ErrorIs(t, repo.UpdateStatus(uuid.New(), models.StatusQueued), ErrMeetingNotFound)
	assert.ErrorIs(t, repo.UpdateError(uuid.New(), "x"), ErrMeetingNotFound)
}

func TestMeetingRepository_ListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewMeetingRepository(db)
	seed(t, db,
		models.Meeting{SessionID: "1", Title: "Monitoria Ana", OwnerName: "Ana", StartTime: day("2024-05-01 10:00"), Score: score(80), Status: models.StatusCompleted},
		models.Meeting{SessionID: "2", Title: "Monitoria Bruno", OwnerName: "Bruno", StartTime: day("2024-05-02 23:30"), Score: score(60), Status: models.StatusCompleted},
		models.Meeting{SessionID: "3", Title: "Monitoria Bruno", OwnerName: "Bruno", StartTime: day("2024-05-03 09:00"), Score: score(0), Status: models.StatusSkipped},
		models.Meeting{SessionID: "4", Title: "Monitoria Ana", OwnerName: "Ana", StartTime: day("2024-05-04 09:00"), Score: score(-1), Status: models.StatusCompleted},
		models.Meeting{SessionID: "5", Title: "Monitoria Ana", OwnerName: "Ana", StartTime: day("2024-05-05 09:00"), Status: models.StatusFailed},
	)

	sessions := func(ms []models.Meeting) []string {
		var out []string
		for _, m := range ms {
			out = append(out, m.SessionID)
		}
		return out
	}

	all, err := repo.List(MeetingFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "4", "3", "2", "1"}, sessions(all))

	ranged, err := repo.List(MeetingFilter{StartDate: day("2024-05-02 00:00"), EndDate: day("2024-05-02 00:00")})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, sessions(ranged), "end date covers the whole day")

	desc, err := repo.List(MeetingFilter{Mode: FilterScoreDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, sessions(desc))

	asc, err := repo.List(MeetingFilter{Mode: FilterScoreAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"}, sessions(asc))

	notConducted, err := repo.List(MeetingFilter{Mode: FilterNotConducted})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, sessions(notConducted))

	byOwner, err := repo.List(MeetingFilter{Owner: "Bruno"})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2"}, sessions(byOwner))

	byKeyword, err := repo.List(MeetingFilter{Keyword: "ANA", Mode: FilterScoreDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, sessions(byKeyword))
}

func TestMeetingRepository_NotConductedExcludesScoredZero(t *testing.T) {
	db := newTestDB(t)
	repo := NewMeetingRepository(db)
	seed(t, db,
		models.Meeting{SessionID: "scored-zero", StartTime: day("2024-05-01 10:00"), Score: score(0), Status: models.StatusCompleted, ParseStatus: rubric.StatusOk},
		models.Meeting{SessionID: "skipped", StartTime: day("2024-05-02 10:00"), Score: score(0), Status: models.StatusSkipped},
	)

	got, err := repo.List(MeetingFilter{Mode: FilterNotConducted})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "skipped", got[0].SessionID)
}

func TestMeetingRepository_FindEvaluated(t *testing.T) {
	db := newTestDB(t)
	repo := NewMeetingRepository(db)
	seed(t, db,
		models.Meeting{SessionID: "1", EvaluationText: "a", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		models.Meeting{SessionID: "2", CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		models.Meeting{SessionID: "3", EvaluationText: "c", CreatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
	)

	first, err := repo.FindEvaluated(1, 0)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "1", first[0].SessionID)

	second, err := repo.FindEvaluated(10, 1)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "3", second[0].SessionID)
}

func TestMeetingRepository_MonitorAverages(t *testing.T) {
	db := newTestDB(t)
	repo := NewMeetingRepository(db)
	seed(t, db,
		models.Meeting{SessionID: "1", OwnerName: "Ana", Score: score(80)},
		models.Meeting{SessionID: "2", OwnerName: "Ana", Score: score(91)},
		models.Meeting{SessionID: "3", OwnerName: "Ana", Score: score(0)},
		models.Meeting{SessionID: "4", OwnerName: "Bruno", Score: score(95)},
		models.Meeting{SessionID: "5", OwnerName: "Carla", Score: score(60)},
		models.Meeting{SessionID: "6", OwnerName: "Carla", Score: score(70)},
		models.Meeting{SessionID: "7", OwnerName: "Carla", Score: score(-1)},
	)

	averages, err := repo.MonitorAverages(2)
	require.NoError(t, err)
	assert.Equal(t, []models.MonitorAverage{
		{OwnerName: "Ana", Average: 86, Meetings: 2},
		{OwnerName: "Carla", Average: 65, Meetings: 2},
	}, averages)
}

func TestParseFilterMode(t *testing.T) {
	m, err := ParseFilterMode("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, m)

	m, err = ParseFilterMode("Score_Desc")
	require.NoError(t, err)
	assert.Equal(t, FilterScoreDesc, m)

	_, err = ParseFilterMode("random")
	assert.Error(t, err)
}
