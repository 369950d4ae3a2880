package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/claimsflow/backend/internal/ai"
	"github.com/claimsflow/backend/internal/db"
	"github.com/claimsflow/backend/internal/models"
	"github.com/claimsflow/backend/internal/video"
)

// ClaimStore is the claim persistence surface the services depend on.
// *db.Store satisfies it; tests substitute fakes.
type ClaimStore interface {
	CreateClaim(ctx context.Context, c models.Claim) error
	GetClaim(ctx context.Context, id string) (models.Claim, error)
	ListClaims(ctx context.Context, f db.ClaimFilter) ([]models.Claim, error)
	UpdateClaim(ctx context.Context, c models.Claim) error
	DeleteClaimCascade(ctx context.Context, id string) error
	ListRecentClaims(ctx context.Context, days int) ([]models.Claim, error)
	ListClaimsWithVideo(ctx context.Context) ([]models.Claim, error)
	SetVideoAnalysis(ctx context.Context, id string, analysis json.RawMessage) error
}

// SuggestionGenerator regenerates the pending suggestion set for a claim.
// Implemented by SuggestionsService.
type SuggestionGenerator interface {
	GenerateFor(ctx context.Context, claim models.Claim) ([]models.Suggestion, error)
}

// ClaimPatch carries a partial claim update; nil fields are left as-is.
type ClaimPatch struct {
	PolicyNumber     *string
	PolicyholderName *string
	DateOfLoss       *time.Time
	Description      *string
	TotalAmount      *float64
	IncidentLocation *models.Address
	Items            []models.ClaimItem
	Status           *models.ClaimStatus
	AssignedAdjuster *string
}

type ClaimsService struct {
	Store     ClaimStore
	AI        ai.Adapter
	Video     video.Validator
	Generator SuggestionGenerator
	Logger    zerolog.Logger
}

func (s *ClaimsService) CreateClaim(ctx context.Context, c models.Claim) (models.Claim, error) {
	if err := validateClaim(c); err != nil {
		return models.Claim{}, err
	}

	now := time.Now().UTC()
	c.ID = uuid.NewString()
	c.Status = models.ClaimSubmitted
	c.CreatedAt = now
	c.UpdatedAt = now
	c.VideoAnalysis = nil

	if err := s.Store.CreateClaim(ctx, c); err != nil {
		return models.Claim{}, err
	}
	s.Logger.Info().Str("claim_id", c.ID).Str("policy_number", c.PolicyNumber).Msg("claim created")
	return c, nil
}

func (s *ClaimsService) GetClaim(ctx context.Context, id string) (models.Claim, error) {
	c, err := s.Store.GetClaim(ctx, id)
	if err != nil {
		return models.Claim{}, mapNoRows(err)
	}
	return c, nil
}

func (s *ClaimsService) ListClaims(ctx context.Context, f db.ClaimFilter) ([]models.Claim, error) {
	return s.Store.ListClaims(ctx, f)
}

func (s *ClaimsService) RecentClaims(ctx context.Context, days int) ([]models.Claim, error) {
	if days <= 0 {
		days = 7
	}
	return s.Store.ListRecentClaims(ctx, days)
}

func (s *ClaimsService) ClaimsWithVideoAnalysis(ctx context.Context) ([]models.Claim, error) {
	return s.Store.ListClaimsWithVideo(ctx)
}

func (s *ClaimsService) UpdateClaim(ctx context.Context, id string, patch ClaimPatch) (models.Claim, error) {
	c, err := s.Store.GetClaim(ctx, id)
	if err != nil {
		return models.Claim{}, mapNoRows(err)
	}

	if patch.Status != nil {
		next := *patch.Status
		if !next.Valid() {
			return models.Claim{}, &ValidationError{Detail: fmt.Sprintf("unknown claim status %q", next)}
		}
		if !c.Status.CanTransitionTo(next) {
			return models.Claim{}, fmt.Errorf("%w: cannot transition claim from %s to %s", ErrConflict, c.Status, next)
		}
		c.Status = next
	}
	if patch.PolicyNumber != nil {
		c.PolicyNumber = *patch.PolicyNumber
	}
	if patch.PolicyholderName != nil {
		c.PolicyholderName = *patch.PolicyholderName
	}
	if patch.DateOfLoss != nil {
		c.DateOfLoss = *patch.DateOfLoss
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.TotalAmount != nil {
		c.TotalAmount = *patch.TotalAmount
	}
	if patch.IncidentLocation != nil {
		c.IncidentLocation = *patch.IncidentLocation
	}
	if patch.Items != nil {
		c.Items = patch.Items
	}
	if patch.AssignedAdjuster != nil {
		c.AssignedAdjuster = patch.AssignedAdjuster
	}

	if err := validateClaim(c); err != nil {
		return models.Claim{}, err
	}

	c.UpdatedAt = time.Now().UTC()
	if err := s.Store.UpdateClaim(ctx, c); err != nil {
		return models.Claim{}, mapNoRows(err)
	}
	return c, nil
}

func (s *ClaimsService) DeleteClaim(ctx context.Context, id string) error {
	if err := s.Store.DeleteClaimCascade(ctx, id); err != nil {
		return mapNoRows(err)
	}
	s.Logger.Info().Str("claim_id", id).Msg("claim deleted with suggestions")
	return nil
}

// ProcessVideo validates uploaded video evidence, analyzes it through the
// AI collaborator, stores the analysis on the claim, and regenerates the
// claim's suggestion set with the new evidence in scope. Validation
// failures reject the upload before any storage or AI call.
func (s *ClaimsService) ProcessVideo(ctx context.Context, claimID, filename string, data []byte) (json.RawMessage, []models.Suggestion, error) {
	claim, err := s.Store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, nil, mapNoRows(err)
	}

	if err := s.Video.Validate(filename, data); err != nil {
		return nil, nil, err
	}

	analysis, err := s.AI.AnalyzeVideo(ctx, claim, data)
	if err != nil {
		return nil, nil, err
	}

	if err := s.Store.SetVideoAnalysis(ctx, claimID, analysis); err != nil {
		return nil, nil, mapNoRows(err)
	}

	claim.VideoAnalysis = analysis
	suggestions, err := s.Generator.GenerateFor(ctx, claim)
	if err != nil {
		return nil, nil, err
	}
	return analysis, suggestions, nil
}

func validateClaim(c models.Claim) error {
	var invalid []string
	if strings.TrimSpace(c.PolicyNumber) == "" {
		invalid = append(invalid, "policy_number")
	}
	if strings.TrimSpace(c.PolicyholderName) == "" {
		invalid = append(invalid, "policyholder_name")
	}
	if c.DateOfLoss.IsZero() {
		invalid = append(invalid, "date_of_loss")
	}
	if strings.TrimSpace(c.Description) == "" {
		invalid = append(invalid, "description")
	}
	if c.TotalAmount < 0 {
		invalid = append(invalid, "total_amount")
	}
	for i, item := range c.Items {
		if strings.TrimSpace(item.Name) == "" || item.EstimatedValue < 0 {
			invalid = append(invalid, fmt.Sprintf("items[%d]", i))
		}
	}
	if len(invalid) > 0 {
		return &ValidationError{Detail: "invalid fields: " + strings.Join(invalid, ", ")}
	}
	return nil
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
