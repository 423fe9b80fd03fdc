package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"projetodesenvolve/meeting-evaluator/internal/metrics"
	"projetodesenvolve/meeting-evaluator/internal/repositories"
)

type SyncReport struct {
	RunID    uuid.UUID
	Fetched  int
	Inserted int
}

// SyncService pulls meetings from the spreadsheet and queues the new ones
// for evaluation.
type SyncService interface {
	Sync(ctx context.Context) (*SyncReport, error)
}

// JobQueue is the part of Worker the sync needs.
type JobQueue interface {
	EnqueueJob(meetingID uuid.UUID) bool
}

type syncService struct {
	source      SheetsSource
	meetingRepo repositories.MeetingRepository
	queue       JobQueue
	metrics     *metrics.Recorder
}

func NewSyncService(source SheetsSource, meetingRepo repositories.MeetingRepository, queue JobQueue, recorder *metrics.Recorder) SyncService {
	return &syncService{
		source:      source,
		meetingRepo: meetingRepo,
		queue:       queue,
		metrics:     recorder,
	}
}

func (s *syncService) Sync(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{RunID: uuid.New()}
	log.Printf("🔄 Sync %s started", report.RunID)

	meetings, err := s.source.FetchMeetings(ctx)
	if err != nil {
		s.metrics.SyncRun(0, err)
		return nil, fmt.Errorf("failed to fetch meetings: %w", err)
	}
	report.Fetched = len(meetings)

	ids, err := s.meetingRepo.UpsertNew(meetings)
	if err != nil {
		s.metrics.SyncRun(0, err)
		return nil, fmt.Errorf("failed to store meetings: %w", err)
	}
	report.Inserted = len(ids)

	for _, id := range ids {
		s.queue.EnqueueJob(id)
	}

	s.metrics.SyncRun(report.Inserted, nil)
	log.Printf("✅ Sync %s finished: %d fetched, %d new", report.RunID, report.Fetched, report.Inserted)
	return report, nil
}
