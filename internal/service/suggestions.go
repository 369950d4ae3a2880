package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/claimsflow/backend/internal/ai"
	"github.com/claimsflow/backend/internal/db"
	"github.com/claimsflow/backend/internal/models"
)

// SuggestionStore is the suggestion persistence surface. *db.Store
// satisfies it.
type SuggestionStore interface {
	InsertSuggestions(ctx context.Context, suggestions []models.Suggestion) (int64, error)
	GetSuggestion(ctx context.Context, id string) (models.Suggestion, error)
	ListSuggestionsByClaim(ctx context.Context, claimID string, status string) ([]models.Suggestion, error)
	ListPendingSuggestions(ctx context.Context) ([]models.Suggestion, error)
	ListHighConfidenceSuggestions(ctx context.Context, threshold float64) ([]models.Suggestion, error)
	ReviewSuggestion(ctx context.Context, id string, review models.SuggestionReview, reviewedAt time.Time) (models.Suggestion, error)
	CountSuggestionsByStatus(ctx context.Context) (db.SuggestionStatusCounts, error)
	CountSuggestionsByType(ctx context.Context) ([]models.TypeCount, error)
}

type SuggestionsService struct {
	Store  SuggestionStore
	Claims ClaimStore
	AI     ai.Adapter
	Logger zerolog.Logger
}

// Generate produces a fresh pending suggestion set for the claim. Each
// call appends a new independent set; earlier suggestions and their
// review outcomes are kept as the feedback record.
func (s *SuggestionsService) Generate(ctx context.Context, claimID string) ([]models.Suggestion, error) {
	claim, err := s.Claims.GetClaim(ctx, claimID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return s.GenerateFor(ctx, claim)
}

func (s *SuggestionsService) GenerateFor(ctx context.Context, claim models.Claim) ([]models.Suggestion, error) {
	candidates, err := s.AI.AnalyzeClaim(ctx, claim)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	suggestions := make([]models.Suggestion, 0, len(candidates))
	for _, c := range candidates {
		if err := validateCandidate(c); err != nil {
			return nil, err
		}
		c.ID = uuid.NewString()
		c.ClaimID = claim.ID
		c.Status = models.SuggestionPending
		c.CreatedAt = now
		if len(c.SuggestedAction) == 0 {
			c.SuggestedAction = []byte(`{}`)
		}
		suggestions = append(suggestions, c)
	}

	if _, err := s.Store.InsertSuggestions(ctx, suggestions); err != nil {
		return nil, err
	}
	s.Logger.Info().Str("claim_id", claim.ID).Int("count", len(suggestions)).Msg("suggestions generated")
	return suggestions, nil
}

func (s *SuggestionsService) Get(ctx context.Context, id string) (models.Suggestion, error) {
	sg, err := s.Store.GetSuggestion(ctx, id)
	if err != nil {
		return models.Suggestion{}, mapNoRows(err)
	}
	return sg, nil
}

func (s *SuggestionsService) ListForClaim(ctx context.Context, claimID string, status string) ([]models.Suggestion, error) {
	if _, err := s.Claims.GetClaim(ctx, claimID); err != nil {
		return nil, mapNoRows(err)
	}
	return s.Store.ListSuggestionsByClaim(ctx, claimID, status)
}

func (s *SuggestionsService) Pending(ctx context.Context) ([]models.Suggestion, error) {
	return s.Store.ListPendingSuggestions(ctx)
}

func (s *SuggestionsService) HighConfidence(ctx context.Context, threshold float64) ([]models.Suggestion, error) {
	if threshold < 0 || threshold > 1 {
		return nil, &ValidationError{Detail: "threshold must be between 0 and 1"}
	}
	return s.Store.ListHighConfidenceSuggestions(ctx, threshold)
}

// Review applies the one-shot reviewer decision. The update is a single
// compare-and-set write: reviewing an already-reviewed suggestion fails
// with ErrConflict and leaves the stored record untouched.
func (s *SuggestionsService) Review(ctx context.Context, id string, review models.SuggestionReview) (models.Suggestion, error) {
	if !review.Decision.ValidDecision() {
		return models.Suggestion{}, &ValidationError{Detail: fmt.Sprintf("decision must be accepted, rejected or modified, got %q", review.Decision)}
	}
	if strings.TrimSpace(review.ReviewerID) == "" {
		return models.Suggestion{}, &ValidationError{Detail: "reviewer_id is required"}
	}
	if review.Decision == models.SuggestionModified && len(review.ModifiedAction) == 0 {
		return models.Suggestion{}, &ValidationError{Detail: "modified_action is required when decision is modified"}
	}
	if review.Decision != models.SuggestionModified && len(review.ModifiedAction) > 0 {
		return models.Suggestion{}, &ValidationError{Detail: "modified_action is only allowed when decision is modified"}
	}

	sg, err := s.Store.ReviewSuggestion(ctx, id, review, time.Now().UTC())
	if err != nil {
		if errors.Is(err, db.ErrAlreadyReviewed) {
			return models.Suggestion{}, fmt.Errorf("%w: suggestion has already been reviewed", ErrConflict)
		}
		return models.Suggestion{}, mapNoRows(err)
	}
	s.Logger.Info().
		Str("suggestion_id", id).
		Str("decision", string(review.Decision)).
		Str("reviewer_id", review.ReviewerID).
		Msg("suggestion reviewed")
	return sg, nil
}

// Metrics aggregates review outcomes. Pending suggestions are excluded
// from the rate denominator and reported separately, so the three rates
// sum to 1.0 whenever anything has been reviewed.
func (s *SuggestionsService) Metrics(ctx context.Context) (models.SuggestionMetrics, error) {
	counts, err := s.Store.CountSuggestionsByStatus(ctx)
	if err != nil {
		return models.SuggestionMetrics{}, err
	}
	byType, err := s.Store.CountSuggestionsByType(ctx)
	if err != nil {
		return models.SuggestionMetrics{}, err
	}

	m := models.SuggestionMetrics{
		TotalReviewed: counts.Accepted + counts.Rejected + counts.Modified,
		PendingCount:  counts.Pending,
		ByType:        byType,
	}
	if m.TotalReviewed > 0 {
		total := float64(m.TotalReviewed)
		m.AcceptanceRate = float64(counts.Accepted) / total
		m.RejectionRate = float64(counts.Rejected) / total
		m.ModificationRate = float64(counts.Modified) / total
	}
	return m, nil
}

func validateCandidate(c models.Suggestion) error {
	if strings.TrimSpace(string(c.Type)) == "" {
		return &ValidationError{Detail: "suggestion type is required"}
	}
	if c.ConfidenceScore < 0 || c.ConfidenceScore > 1 {
		return &ValidationError{Detail: fmt.Sprintf("confidence_score %v is outside [0, 1]", c.ConfidenceScore)}
	}
	return nil
}
