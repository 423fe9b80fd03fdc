package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"projetodesenvolve/meeting-evaluator/internal/models"
	"projetodesenvolve/meeting-evaluator/internal/rubric"
)

const (
	narrativeChunkSize    = 1000
	narrativeChunkOverlap = 100
)

// NarrativeIndexer embeds evaluation narratives into Qdrant.
type NarrativeIndexer struct {
	geminiService GeminiService
	qdrantService QdrantService
	chunker       TextChunker
}

func NewNarrativeIndexer(geminiService GeminiService, qdrantService QdrantService, chunker TextChunker) *NarrativeIndexer {
	if chunker == nil {
		chunker = NewTextChunker()
	}
	return &NarrativeIndexer{
		geminiService: geminiService,
		qdrantService: qdrantService,
		chunker:       chunker,
	}
}

// Index replaces the meeting's points with embeddings of its summary and
// criterion justifications. It returns the number of chunks written.
func (ix *NarrativeIndexer) Index(ctx context.Context, meeting *models.Meeting, result rubric.Result) (int, error) {
	if err := ix.qdrantService.DeleteMeeting(ctx, meeting.ID); err != nil {
		return 0, err
	}

	chunks := ix.chunker.ChunkText(Narrative(meeting, result), narrativeChunkSize, narrativeChunkOverlap)
	for i, chunk := range chunks {
		embedding, err := ix.geminiService.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return i, fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}
		if err := ix.qdrantService.UpsertChunk(ctx, meeting.ID, meeting.SessionID, i, chunk, embedding); err != nil {
			return i, err
		}
	}

	log.Printf("🔍 Indexed %d chunks for meeting %s", len(chunks), meeting.SessionID)
	return len(chunks), nil
}

// Narrative is the searchable text of an evaluation.
func Narrative(meeting *models.Meeting, result rubric.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n\n%s", meeting.Title, meeting.OwnerName, strings.TrimSpace(result.Summary))
	for _, sec := range result.Sections {
		var lines []string
		for _, c := range sec.Criteria {
			if c.Justification == "" {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: %s", c.Text, c.Justification))
		}
		if len(lines) > 0 {
			fmt.Fprintf(&b, "\n\n%s\n%s", sec.Title, strings.Join(lines, "\n"))
		}
	}
	return b.String()
}
