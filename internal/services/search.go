package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"projetodesenvolve/meeting-evaluator/internal/models"
)

var ErrSearchDisabled = errors.New("semantic search is disabled")

type SearchService interface {
	Search(ctx context.Context, query string, limit int) ([]models.SearchHit, error)
}

type searchService struct {
	geminiService GeminiService
	qdrantService QdrantService
}

// NewSearchService returns a service that answers ErrSearchDisabled when
// qdrantService is nil.
func NewSearchService(geminiService GeminiService, qdrantService QdrantService) SearchService {
	return &searchService{geminiService: geminiService, qdrantService: qdrantService}
}

func (s *searchService) Search(ctx context.Context, query string, limit int) ([]models.SearchHit, error) {
	if s.qdrantService == nil || s.geminiService == nil {
		return nil, ErrSearchDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SearchHit{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	embedding, err := s.geminiService.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	results, err := s.qdrantService.SearchSimilar(ctx, embedding, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]models.SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, models.SearchHit{
			MeetingID: r.MeetingID,
			SessionID: r.SessionID,
			Score:     r.Score,
			Text:      r.Text,
		})
	}
	return hits, nil
}
