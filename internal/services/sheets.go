package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"projetodesenvolve/meeting-evaluator/internal/models"
)

// SheetsSource reads meeting records exported by the meeting recorder.
type SheetsSource interface {
	FetchMeetings(ctx context.Context) ([]models.Meeting, error)
}

type SheetsOptions struct {
	SpreadsheetID   string
	Range           string
	APIKey          string
	CredentialsFile string
}

type sheetsSource struct {
	service       *sheets.Service
	spreadsheetID string
	readRange     string
}

func NewSheetsSource(ctx context.Context, opts SheetsOptions) (SheetsSource, error) {
	if opts.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is empty")
	}

	var clientOpts []option.ClientOption
	switch {
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	case opts.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	default:
		return nil, fmt.Errorf("sheets needs an api key or a credentials file")
	}

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	return &sheetsSource{
		service:       service,
		spreadsheetID: opts.SpreadsheetID,
		readRange:     opts.Range,
	}, nil
}

// FetchMeetings implements SheetsSource.
func (s *sheetsSource) FetchMeetings(ctx context.Context) ([]models.Meeting, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet range %s: %w", s.readRange, err)
	}

	meetings := MapRows(resp.Values)
	log.Printf("📄 Read %d meetings from spreadsheet", len(meetings))
	return meetings, nil
}

// Spreadsheet columns, A through L.
const (
	colSessionID = iota
	colTitle
	colStart
	colEnd
	colOwner
	colSummary
	colTopics
	colSentiments
	colReportURL
	colChapters
	colTranscript
	colParticipants
)

// MapRows converts raw sheet rows into meetings. The first row is the
// header; rows without a session id are dropped.
func MapRows(rows [][]interface{}) []models.Meeting {
	if len(rows) < 2 {
		return nil
	}

	meetings := make([]models.Meeting, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cell := func(i int) string {
			if i >= len(row) || row[i] == nil {
				return ""
			}
			return fmt.Sprint(row[i])
		}

		sessionID := strings.TrimSpace(cell(colSessionID))
		if sessionID == "" {
			continue
		}

		meetings = append(meetings, models.Meeting{
			SessionID:    sessionID,
			Title:        orDefault(cell(colTitle), "Sem título"),
			StartTime:    parseSheetTime(cell(colStart)),
			EndTime:      parseSheetTime(cell(colEnd)),
			OwnerName:    orDefault(strings.TrimSpace(cell(colOwner)), "Desconhecido"),
			Summary:      orDefault(cell(colSummary), "Sem resumo"),
			Topics:       splitTopics(cell(colTopics)),
			Sentiments:   orDefault(cell(colSentiments), "Unknown"),
			ReportURL:    cell(colReportURL),
			Chapters:     splitChapters(cell(colChapters)),
			Transcript:   cell(colTranscript),
			Participants: splitParticipants(cell(colParticipants)),
		})
	}
	return meetings
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitTopics(raw string) []string {
	topics := []string{}
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" || strings.EqualFold(t, "nenhum") {
			continue
		}
		topics = append(topics, t)
	}
	return topics
}

// splitChapters reads "title, description; title, description".
func splitChapters(raw string) []models.Chapter {
	chapters := []models.Chapter{}
	for _, c := range strings.Split(raw, ";") {
		if strings.TrimSpace(c) == "" {
			continue
		}
		title, desc, _ := strings.Cut(c, ",")
		if i := strings.Index(desc, ","); i >= 0 {
			desc = desc[:i]
		}
		chapters = append(chapters, models.Chapter{
			Title:       strings.TrimSpace(title),
			Description: strings.TrimSpace(desc),
		})
	}
	return chapters
}

// splitParticipants reads "name, email, name, email". A trailing name
// without an email is dropped.
func splitParticipants(raw string) []models.Participant {
	participants := []models.Participant{}
	if strings.TrimSpace(raw) == "" {
		return participants
	}
	parts := strings.Split(raw, ",")
	for i := 0; i+1 < len(parts); i += 2 {
		if parts[i+1] == "" {
			continue
		}
		participants = append(participants, models.Participant{
			Name:  strings.TrimSpace(parts[i]),
			Email: strings.TrimSpace(parts[i+1]),
		})
	}
	return participants
}

var sheetTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
	"02/01/2006",
}

func parseSheetTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range sheetTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
