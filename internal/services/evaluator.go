package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"projetodesenvolve/meeting-evaluator/internal/metrics"
	"projetodesenvolve/meeting-evaluator/internal/models"
	"projetodesenvolve/meeting-evaluator/internal/repositories"
	"projetodesenvolve/meeting-evaluator/internal/rubric"
)

// NotConductedText is stored as the evaluation of meetings that never
// happened.
const NotConductedText = "Não realizada (resumo indicou dados de reunião limitados)."

type EvaluatorService interface {
	EvaluateMeeting(ctx context.Context, id uuid.UUID) error
}

type EvaluatorOptions struct {
	Schema              *rubric.Schema
	NotConductedSummary string
	Temperature         float32
	MaxRetries          int

	Archive FailureArchive
	// Qdrant is optional; without it narratives are not indexed for search.
	// Chunker defaults to NewTextChunker.
	Qdrant  QdrantService
	Chunker TextChunker
	Metrics *metrics.Recorder
}

type evaluatorService struct {
	meetingRepo   repositories.MeetingRepository
	geminiService GeminiService
	promptBuilder *PromptBuilder
	indexer       *NarrativeIndexer
	opts          EvaluatorOptions
}

func NewEvaluatorService(
	meetingRepo repositories.MeetingRepository,
	geminiService GeminiService,
	opts EvaluatorOptions,
) EvaluatorService {
	if opts.Schema == nil {
		panic("services: evaluator needs a rubric schema")
	}
	e := &evaluatorService{
		meetingRepo:   meetingRepo,
		geminiService: geminiService,
		promptBuilder: NewPromptBuilder(),
		opts:          opts,
	}
	if opts.Qdrant != nil {
		e.indexer = NewNarrativeIndexer(geminiService, opts.Qdrant, opts.Chunker)
	}
	return e
}

func (e *evaluatorService) EvaluateMeeting(ctx context.Context, id uuid.UUID) error {
	if err := e.meetingRepo.UpdateStatus(id, models.StatusProcessing); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	log.Printf("🔄 Starting evaluation for meeting ID: %s", id)

	meeting, err := e.meetingRepo.FindByID(id)
	if err != nil {
		e.meetingRepo.UpdateError(id, err.Error())
		return fmt.Errorf("failed to get meeting: %w", err)
	}

	if meeting.NotConducted(e.opts.NotConductedSummary) {
		return e.skip(meeting)
	}

	prompt := e.promptBuilder.BuildMeetingEvaluationPrompt(e.opts.Schema, meeting)
	log.Printf("📝 Evaluation prompt length: %d characters", len(prompt))

	text, genErr := e.geminiService.GenerateTextWithRetry(ctx, prompt, e.opts.Temperature, e.opts.MaxRetries)
	if genErr != nil {
		log.Printf("❌ Evaluation generation failed for %s: %v", meeting.SessionID, genErr)
		e.opts.Metrics.GeneratorError()
		text = ""
	}

	start := time.Now()
	result := rubric.Parse(text, e.opts.Schema, meeting.Score)
	e.opts.Metrics.ObserveParse(time.Since(start))
	e.opts.Metrics.ObserveEvaluation(string(result.Status))

	score := result.FinalScore
	update := &repositories.EvaluationUpdateData{
		Status:          models.StatusCompleted,
		Score:           &score,
		ParseStatus:     result.Status,
		EvaluationText:  text,
		AnalysisSummary: result.Summary,
		Sections:        result.Sections,
	}

	if genErr != nil {
		// Keep whatever narrative the meeting already had; only the score
		// recovered from it and the error are new.
		update.Status = models.StatusFailed
		update.EvaluationText = meeting.EvaluationText
		update.AnalysisSummary = meeting.AnalysisSummary
		update.Sections = meeting.Sections
		update.ErrorMessage = fmt.Sprintf("failed to generate evaluation: %v", genErr)
	}

	log.Println("💾 Saving evaluation results...")
	if err := e.meetingRepo.UpdateResult(id, update); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	if genErr != nil {
		return fmt.Errorf("failed to generate evaluation: %w", genErr)
	}

	if result.Failed() {
		log.Printf("⚠️  Evaluation for %s could not be parsed, archiving raw text", meeting.SessionID)
		if e.opts.Archive != nil {
			e.opts.Archive.Record(meeting.SessionID, result)
			e.opts.Metrics.Archived()
		}
	} else if e.indexer != nil {
		if _, err := e.indexer.Index(ctx, meeting, result); err != nil {
			log.Printf("⚠️  Warning: failed to index evaluation for %s: %v", meeting.SessionID, err)
		}
	}

	log.Printf("✅ Evaluation completed for meeting %s: score %d (%s)", meeting.SessionID, result.FinalScore, result.Status)
	return nil
}

func (e *evaluatorService) skip(meeting *models.Meeting) error {
	log.Printf("⏭️  Meeting %s was not conducted, scoring 0", meeting.SessionID)

	zero := 0
	err := e.meetingRepo.UpdateResult(meeting.ID, &repositories.EvaluationUpdateData{
		Status:          models.StatusSkipped,
		Score:           &zero,
		ParseStatus:     rubric.StatusOk,
		EvaluationText:  NotConductedText,
		AnalysisSummary: NotConductedText,
	})
	if err != nil {
		return fmt.Errorf("failed to save skipped meeting: %w", err)
	}

	e.opts.Metrics.ObserveEvaluation(string(models.StatusSkipped))
	return nil
}
