package repositories

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"projetodesenvolve/meeting-evaluator/internal/models"
	"projetodesenvolve/meeting-evaluator/internal/rubric"
)

var ErrMeetingNotFound = errors.New("meeting not found")

type FilterMode string

const (
	FilterAll          FilterMode = "all"
	FilterNotConducted FilterMode = "not_conducted"
	FilterScoreDesc    FilterMode = "score_desc"
	FilterScoreAsc     FilterMode = "score_asc"
)

func ParseFilterMode(s string) (FilterMode, error) {
	switch m := FilterMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return FilterAll, nil
	case FilterAll, FilterNotConducted, FilterScoreDesc, FilterScoreAsc:
		return m, nil
	default:
		return "", fmt.Errorf("unknown filter %q", s)
	}
}

// MeetingFilter narrows List. EndDate is inclusive of the whole day.
type MeetingFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Owner     string
	Keyword   string
	Mode      FilterMode
}

type EvaluationUpdateData struct {
	Status          models.MeetingStatus
	Score           *int
	ParseStatus     rubric.Status
	EvaluationText  string
	AnalysisSummary string
	Sections        []rubric.Section
	ErrorMessage    string
}

type MeetingRepository interface {
	UpsertNew(meetings []models.Meeting) ([]uuid.UUID, error)
	FindByID(id uuid.UUID) (*models.Meeting, error)
	List(filter MeetingFilter) ([]models.Meeting, error)
	UpdateStatus(id uuid.UUID, status models.MeetingStatus) error
	UpdateResult(id uuid.UUID, data *EvaluationUpdateData) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindPendingJobs(limit int) ([]models.Meeting, error)
	FindEvaluated(limit, offset int) ([]models.Meeting, error)
	MonitorAverages(minCount int) ([]models.MonitorAverage, error)
}

type meetingRepository struct {
	db *gorm.DB
}

func NewMeetingRepository(db *gorm.DB) MeetingRepository {
	return &meetingRepository{db: db}
}

// UpsertNew inserts the meetings whose session id is not stored yet and
// returns the ids of the inserted rows. Existing rows are left untouched, so
// re-running a sync never duplicates or overwrites meetings.
func (r *meetingRepository) UpsertNew(meetings []models.Meeting) ([]uuid.UUID, error) {
	var inserted []uuid.UUID

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for i := range meetings {
			m := meetings[i]
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "session_id"}},
				DoNothing: true,
			}).Create(&m)
			if result.Error != nil {
				return fmt.Errorf("failed to insert meeting %s: %w", m.SessionID, result.Error)
			}
			if result.RowsAffected == 1 {
				inserted = append(inserted, m.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return inserted, nil
}

func (r *meetingRepository) FindByID(id uuid.UUID) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := r.db.Where("id = ?", id).First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to find meeting: %w", err)
	}
	return &meeting, nil
}

func (r *meetingRepository) List(filter MeetingFilter) ([]models.Meeting, error) {
	q := r.db.Model(&models.Meeting{})

	if filter.StartDate != nil {
		q = q.Where("start_time >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("start_time < ?", filter.EndDate.AddDate(0, 0, 1))
	}
	if owner := strings.TrimSpace(filter.Owner); owner != "" {
		q = q.Where("owner_name = ?", owner)
	}
	if kw := strings.ToLower(strings.TrimSpace(filter.Keyword)); kw != "" {
		like := "%" + kw + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(owner_name) LIKE ?)", like, like)
	}

	switch filter.Mode {
	case FilterNotConducted:
		q = q.Where("status = ?", models.StatusSkipped).Order("start_time DESC")
	case FilterScoreDesc:
		q = q.Where("score > ?", 0).Order("score DESC").Order("start_time DESC")
	case FilterScoreAsc:
		q = q.Where("score > ?", 0).Order("score ASC").Order("start_time DESC")
	default:
		q = q.Order("start_time DESC")
	}

	var meetings []models.Meeting
	if err := q.Find(&meetings).Error; err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	return meetings, nil
}

func (r *meetingRepository) UpdateStatus(id uuid.UUID, status models.MeetingStatus) error {
	result := r.db.Model(&models.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrMeetingNotFound
	}

	return nil
}

func (r *meetingRepository) UpdateResult(id uuid.UUID, data *EvaluationUpdateData) error {
	status := data.Status
	if status == "" {
		status = models.StatusCompleted
	}

	// A struct update keeps the JSON serializer on sections; Select forces
	// zero values (empty error, nil score) to be written too.
	result := r.db.Model(&models.Meeting{}).
		Where("id = ?", id).
		Select("status", "score", "parse_status", "evaluation_text", "analysis_summary", "sections", "error_message", "updated_at").
		Updates(&models.Meeting{
			Status:          status,
			Score:           data.Score,
			ParseStatus:     data.ParseStatus,
			EvaluationText:  data.EvaluationText,
			AnalysisSummary: data.AnalysisSummary,
			Sections:        data.Sections,
			ErrorMessage:    data.ErrorMessage,
			UpdatedAt:       time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update result: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrMeetingNotFound
	}

	return nil
}

func (r *meetingRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	result := r.db.Model(&models.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.StatusFailed,
			"error_message": errorMsg,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update error: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrMeetingNotFound
	}

	return nil
}

func (r *meetingRepository) FindPendingJobs(limit int) ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&meetings).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return meetings, nil
}

// FindEvaluated pages through meetings that have stored evaluation text.
func (r *meetingRepository) FindEvaluated(limit, offset int) ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := r.db.
		Where("evaluation_text <> ?", "").
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&meetings).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find evaluated meetings: %w", err)
	}

	return meetings, nil
}

// MonitorAverages averages positive scores per owner, keeping owners with at
// least minCount scored meetings, best first.
func (r *meetingRepository) MonitorAverages(minCount int) ([]models.MonitorAverage, error) {
	var rows []models.MonitorAverage
	err := r.db.Model(&models.Meeting{}).
		Select("owner_name, AVG(score) AS average, COUNT(*) AS meetings").
		Where("score > ?", 0).
		Group("owner_name").
		Having("COUNT(*) >= ?", minCount).
		Order("average DESC").
		Order("owner_name ASC").
		Scan(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("failed to compute monitor averages: %w", err)
	}

	for i := range rows {
		rows[i].Average = math.Round(rows[i].Average)
	}
	return rows, nil
}
