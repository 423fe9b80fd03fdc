package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"projetodesenvolve/meeting-evaluator/internal/config"
	"projetodesenvolve/meeting-evaluator/internal/models"
	"projetodesenvolve/meeting-evaluator/internal/repositories"
	"projetodesenvolve/meeting-evaluator/internal/rubric"
	"projetodesenvolve/meeting-evaluator/internal/services"
)

const pageSize = 100

// Re-parses every stored evaluation with the current rubric. Run after
// editing the rubric file:
//
//	go run scripts/reparse_evaluations.go [-dry-run] [-reindex]
func main() {
	dryRun := flag.Bool("dry-run", false, "report changes without writing them")
	reindex := flag.Bool("reindex", false, "rebuild the Qdrant search index for every parsed evaluation")
	flag.Parse()

	log.Println("🚀 Starting evaluation reparse...")

	cfg := config.Load()

	schema, err := config.LoadRubric(cfg.Rubric.Path)
	if err != nil {
		log.Fatalf("❌ Failed to load rubric: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	meetingRepo := repositories.NewMeetingRepository(db)

	ctx := context.Background()

	var indexer *services.NarrativeIndexer
	if *reindex {
		indexer = newIndexer(ctx, cfg)
	}

	var scanned, changed, failed, indexed int
	for offset := 0; ; offset += pageSize {
		meetings, err := meetingRepo.FindEvaluated(pageSize, offset)
		if err != nil {
			log.Fatalf("❌ Failed to load evaluations: %v", err)
		}
		if len(meetings) == 0 {
			break
		}

		for i := range meetings {
			m := &meetings[i]
			if m.Status == models.StatusSkipped {
				continue
			}
			scanned++

			result := rubric.Parse(m.EvaluationText, schema, m.Score)
			if result.Failed() {
				failed++
			}

			if scoreChanged(m.Score, result.FinalScore) || m.ParseStatus != result.Status {
				changed++
				log.Printf("📋 %s: %s → %d (%s)", m.SessionID, formatScore(m.Score), result.FinalScore, result.Status)
			}

			if *dryRun {
				continue
			}

			score := result.FinalScore
			err := meetingRepo.UpdateResult(m.ID, &repositories.EvaluationUpdateData{
				Status:          m.Status,
				Score:           &score,
				ParseStatus:     result.Status,
				EvaluationText:  m.EvaluationText,
				AnalysisSummary: result.Summary,
				Sections:        result.Sections,
				ErrorMessage:    m.ErrorMessage,
			})
			if err != nil {
				log.Printf("❌ Failed to update %s: %v", m.SessionID, err)
				continue
			}

			if indexer != nil && !result.Failed() {
				if _, err := indexer.Index(ctx, m, result); err != nil {
					log.Printf("⚠️  Failed to index %s: %v", m.SessionID, err)
					continue
				}
				indexed++
			}
		}
	}

	log.Printf("✅ Reparse finished: %d scanned, %d changed, %d unparseable, %d indexed", scanned, changed, failed, indexed)
	if *dryRun {
		log.Println("ℹ️  Dry run, nothing was written")
	}
}

func newIndexer(ctx context.Context, cfg *config.Config) *services.NarrativeIndexer {
	if !cfg.Qdrant.Enabled {
		log.Fatal("❌ -reindex needs QDRANT_ENABLED=true")
	}

	geminiService, err := services.NewGeminiService(ctx, services.GeminiOptions{
		APIKey:         cfg.Gemini.APIKey,
		Model:          cfg.Gemini.Model,
		EmbeddingModel: cfg.Gemini.EmbeddingModel,
		RetryDelay:     cfg.Worker.RetryInitialDelay,
	})
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini: %v", err)
	}

	qdrantService, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, cfg.Qdrant.VectorSize)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}
	if err := qdrantService.InitCollection(ctx); err != nil {
		log.Fatalf("❌ Failed to initialize collection: %v", err)
	}

	return services.NewNarrativeIndexer(geminiService, qdrantService, services.NewTextChunker())
}

func scoreChanged(stored *int, parsed int) bool {
	return stored == nil || *stored != parsed
}

func formatScore(score *int) string {
	if score == nil {
		return "none"
	}
	return fmt.Sprint(*score)
}
