package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"projetodesenvolve/meeting-evaluator/internal/metrics"
	"projetodesenvolve/meeting-evaluator/internal/repositories"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(meetingID uuid.UUID) bool
}

type WorkerOptions struct {
	Concurrency  int
	QueueSize    int
	PollInterval time.Duration
	Metrics      *metrics.Recorder
}

type worker struct {
	meetingRepo      repositories.MeetingRepository
	evaluatorService EvaluatorService
	jobQueue         chan uuid.UUID
	pending          sync.Map
	concurrency      int
	pollInterval     time.Duration
	metrics          *metrics.Recorder
	wg               sync.WaitGroup
	stopChan         chan struct{}
	stopOnce         sync.Once
}

func NewWorker(
	meetingRepo repositories.MeetingRepository,
	evaluatorService EvaluatorService,
	opts WorkerOptions,
) Worker {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 100
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	return &worker{
		meetingRepo:      meetingRepo,
		evaluatorService: evaluatorService,
		jobQueue:         make(chan uuid.UUID, opts.QueueSize),
		concurrency:      opts.Concurrency,
		pollInterval:     opts.PollInterval,
		metrics:          opts.Metrics,
		stopChan:         make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	log.Printf("🚀 Starting worker with %d concurrent workers", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)

	log.Println("✅ Worker started successfully")
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		log.Println("🛑 Stopping worker...")
		close(w.stopChan)
		w.wg.Wait()
		log.Println("✅ Worker stopped")
	})
}

// EnqueueJob implements Worker. It never blocks: when the queue is full the
// meeting stays queued in the database and the poller picks it up later. A
// meeting already waiting in the queue is not added twice.
func (w *worker) EnqueueJob(meetingID uuid.UUID) bool {
	select {
	case <-w.stopChan:
		log.Printf("⚠️  Worker stopped, cannot enqueue meeting %s", meetingID)
		return false
	default:
	}

	if _, loaded := w.pending.LoadOrStore(meetingID, struct{}{}); loaded {
		return false
	}

	select {
	case w.jobQueue <- meetingID:
		w.metrics.SetQueueDepth(len(w.jobQueue))
		log.Printf("📥 Meeting %s enqueued", meetingID)
		return true
	default:
		w.pending.Delete(meetingID)
		log.Printf("⚠️  Queue full, meeting %s left for the poller", meetingID)
		return false
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			log.Printf("👷 Worker #%d stopped", workerID)
			return
		case <-ctx.Done():
			log.Printf("👷 Worker #%d stopped: %v", workerID, ctx.Err())
			return
		case meetingID := <-w.jobQueue:
			w.metrics.SetQueueDepth(len(w.jobQueue))
			log.Printf("👷 Worker #%d processing meeting %s", workerID, meetingID)
			if err := w.evaluatorService.EvaluateMeeting(ctx, meetingID); err != nil {
				log.Printf("❌ Worker #%d failed to process meeting %s: %v", workerID, meetingID, err)
			} else {
				log.Printf("✅ Worker #%d completed meeting %s", workerID, meetingID)
			}
			w.pending.Delete(meetingID)
		}
	}
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			log.Println("🔄 Pending jobs poller stopped")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pendingJobs, err := w.meetingRepo.FindPendingJobs(cap(w.jobQueue))
			if err != nil {
				log.Printf("⚠️  Failed to fetch pending jobs: %v", err)
				continue
			}

			if len(pendingJobs) > 0 {
				log.Printf("📋 Found %d pending meetings", len(pendingJobs))
			}

			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
