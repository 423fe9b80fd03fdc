package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"projetodesenvolve/meeting-evaluator/internal/rubric"
)

type MeetingStatus string

const (
	StatusQueued     MeetingStatus = "queued"
	StatusProcessing MeetingStatus = "processing"
	StatusCompleted  MeetingStatus = "completed"
	StatusFailed     MeetingStatus = "failed"
	// StatusSkipped marks meetings that never took place; they are scored 0
	// without calling the generator.
	StatusSkipped MeetingStatus = "skipped"
)

type Chapter struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Meeting struct {
	ID           uuid.UUID     `gorm:"type:char(36);primaryKey" json:"id"`
	SessionID    string        `gorm:"size:191;uniqueIndex;not null" json:"session_id"`
	Title        string        `gorm:"type:text" json:"meeting_title"`
	OwnerName    string        `gorm:"size:191;index" json:"owner_name"`
	StartTime    *time.Time    `gorm:"index" json:"start_time,omitempty"`
	EndTime      *time.Time    `json:"end_time,omitempty"`
	Summary      string        `gorm:"type:text" json:"summary"`
	Topics       []string      `gorm:"type:text;serializer:json" json:"topics"`
	Sentiments   string        `gorm:"type:text" json:"sentiments"`
	ReportURL    string        `gorm:"type:text" json:"report_url"`
	Chapters     []Chapter     `gorm:"type:text;serializer:json" json:"chapters"`
	Transcript   string        `gorm:"type:text" json:"transcript,omitempty"`
	Participants []Participant `gorm:"type:text;serializer:json" json:"participants"`

	Status          MeetingStatus    `gorm:"size:32;not null;default:'queued';index" json:"status"`
	Score           *int             `json:"score,omitempty"`
	ParseStatus     rubric.Status    `gorm:"size:32" json:"parse_status,omitempty"`
	EvaluationText  string           `gorm:"type:text" json:"evaluation_text,omitempty"`
	AnalysisSummary string           `gorm:"type:text" json:"analysis_summary,omitempty"`
	Sections        []rubric.Section `gorm:"type:text;serializer:json" json:"sections,omitempty"`
	ErrorMessage    string           `gorm:"type:text" json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Meeting) TableName() string {
	return "meetings"
}

func (m *Meeting) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = StatusQueued
	}
	return nil
}

// NotConducted reports whether the recorder flagged the meeting as never
// having happened.
func (m *Meeting) NotConducted(sentinel string) bool {
	return sentinel != "" && m.Summary == sentinel
}
