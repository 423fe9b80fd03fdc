package models

import (
	"time"

	"projetodesenvolve/meeting-evaluator/internal/rubric"
)

// MeetingResponse is the list view of a meeting, without the transcript and
// the raw evaluation text.
type MeetingResponse struct {
	ID          string        `json:"id"`
	SessionID   string        `json:"session_id"`
	Title       string        `json:"meeting_title"`
	OwnerName   string        `json:"owner_name"`
	StartTime   *time.Time    `json:"start_time,omitempty"`
	Topics      []string      `json:"topics"`
	Sentiments  string        `json:"sentiments"`
	ReportURL   string        `json:"report_url"`
	Status      string        `json:"status"`
	Score       *int          `json:"score,omitempty"`
	ParseStatus rubric.Status `json:"parse_status,omitempty"`
}

func NewMeetingResponse(m Meeting) MeetingResponse {
	return MeetingResponse{
		ID:          m.ID.String(),
		SessionID:   m.SessionID,
		Title:       m.Title,
		OwnerName:   m.OwnerName,
		StartTime:   m.StartTime,
		Topics:      m.Topics,
		Sentiments:  m.Sentiments,
		ReportURL:   m.ReportURL,
		Status:      string(m.Status),
		Score:       m.Score,
		ParseStatus: m.ParseStatus,
	}
}

// MeetingDetailResponse pairs a meeting with its evaluation parsed against
// the current rubric.
type MeetingDetailResponse struct {
	Meeting    Meeting        `json:"meeting"`
	Evaluation *rubric.Result `json:"evaluation,omitempty"`
}

type EvaluateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type SyncResponse struct {
	RunID    string `json:"run_id"`
	Fetched  int    `json:"fetched"`
	Inserted int    `json:"inserted"`
	Message  string `json:"message"`
}

type ParseRequest struct {
	Text       string `json:"text"`
	PriorScore *int   `json:"prior_score,omitempty"`
}

type MonitorAverage struct {
	OwnerName string  `json:"owner_name"`
	Average   float64 `json:"average"`
	Meetings  int64   `json:"meetings"`
}

type SearchHit struct {
	MeetingID string  `json:"meeting_id"`
	SessionID string  `json:"session_id"`
	Score     float32 `json:"score"`
	Text      string  `json:"text"`
}
