package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimsflow/backend/internal/db"
	"github.com/claimsflow/backend/internal/models"
)

type fakeSuggestionStore struct {
	inserted     []models.Suggestion
	suggestions  map[string]models.Suggestion
	statusCounts db.SuggestionStatusCounts
	typeCounts   []models.TypeCount
	reviewErr    error
}

func newFakeSuggestionStore(suggestions ...models.Suggestion) *fakeSuggestionStore {
	f := &fakeSuggestionStore{suggestions: map[string]models.Suggestion{}}
	for _, sg := range suggestions {
		f.suggestions[sg.ID] = sg
	}
	return f
}

func (f *fakeSuggestionStore) InsertSuggestions(_ context.Context, suggestions []models.Suggestion) (int64, error) {
	f.inserted = append(f.inserted, suggestions...)
	for _, sg := range suggestions {
		f.suggestions[sg.ID] = sg
	}
	return int64(len(suggestions)), nil
}

func (f *fakeSuggestionStore) GetSuggestion(_ context.Context, id string) (models.Suggestion, error) {
	sg, ok := f.suggestions[id]
	if !ok {
		return models.Suggestion{}, pgx.ErrNoRows
	}
	return sg, nil
}

func (f *fakeSuggestionStore) ListSuggestionsByClaim(_ context.Context, claimID string, status string) ([]models.Suggestion, error) {
	var out []models.Suggestion
	for _, sg := range f.suggestions {
		if sg.ClaimID == claimID && (status == "" || string(sg.Status) == status) {
			out = append(out, sg)
		}
	}
	return out, nil
}

func (f *fakeSuggestionStore) ListPendingSuggestions(_ context.Context) ([]models.Suggestion, error) {
	var out []models.Suggestion
	for _, sg := range f.suggestions {
		if sg.Status == models.SuggestionPending {
			out = append(out, sg)
		}
	}
	return out, nil
}

func (f *fakeSuggestionStore) ListHighConfidenceSuggestions(_ context.Context, threshold float64) ([]models.Suggestion, error) {
	var out []models.Suggestion
	for _, sg := range f.suggestions {
		if sg.ConfidenceScore >= threshold {
			out = append(out, sg)
		}
	}
	return out, nil
}

func (f *fakeSuggestionStore) ReviewSuggestion(_ context.Context, id string, review models.SuggestionReview, reviewedAt time.Time) (models.Suggestion, error) {
	if f.reviewErr != nil {
		return models.Suggestion{}, f.reviewErr
	}
	sg, ok := f.suggestions[id]
	if !ok {
		return models.Suggestion{}, pgx.ErrNoRows
	}
	if sg.Status != models.SuggestionPending {
		return models.Suggestion{}, db.ErrAlreadyReviewed
	}
	sg.Status = review.Decision
	sg.ReviewerID = &review.ReviewerID
	sg.ReviewerNotes = review.ReviewerNotes
	sg.ModifiedAction = review.ModifiedAction
	sg.ReviewedAt = &reviewedAt
	f.suggestions[id] = sg
	return sg, nil
}

func (f *fakeSuggestionStore) CountSuggestionsByStatus(_ context.Context) (db.SuggestionStatusCounts, error) {
	return f.statusCounts, nil
}

func (f *fakeSuggestionStore) CountSuggestionsByType(_ context.Context) ([]models.TypeCount, error) {
	return f.typeCounts, nil
}

func newSuggestionsService(store *fakeSuggestionStore, claims *fakeClaimStore, adapter *stubAdapter) *SuggestionsService {
	return &SuggestionsService{
		Store:  store,
		Claims: claims,
		AI:     adapter,
		Logger: zerolog.Nop(),
	}
}

func TestGenerate(t *testing.T) {
	store := newFakeSuggestionStore()
	claims := newFakeClaimStore(validClaim("claim-1", models.ClaimSubmitted))
	adapter := &stubAdapter{candidates: []models.Suggestion{
		{Type: models.SuggestApproveClaim, Description: "Standard approval", ConfidenceScore: 0.8, ModelVersion: "mock-v1"},
		{Type: models.SuggestFlagFraud, Description: "Large amount", ConfidenceScore: 0.75, ModelVersion: "mock-v1"},
	}}
	svc := newSuggestionsService(store, claims, adapter)

	out, err := svc.Generate(context.Background(), "claim-1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Len(t, store.inserted, 2)
	for _, sg := range out {
		assert.NotEmpty(t, sg.ID)
		assert.Equal(t, "claim-1", sg.ClaimID)
		assert.Equal(t, models.SuggestionPending, sg.Status)
		assert.False(t, sg.CreatedAt.IsZero())
		assert.JSONEq(t, `{}`, string(sg.SuggestedAction))
	}
}

func TestGenerate_ClaimNotFound(t *testing.T) {
	svc := newSuggestionsService(newFakeSuggestionStore(), newFakeClaimStore(), &stubAdapter{})
	_, err := svc.Generate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerate_InvalidConfidence(t *testing.T) {
	store := newFakeSuggestionStore()
	claims := newFakeClaimStore(validClaim("claim-1", models.ClaimSubmitted))
	adapter := &stubAdapter{candidates: []models.Suggestion{
		{Type: models.SuggestApproveClaim, ConfidenceScore: 1.4},
	}}
	svc := newSuggestionsService(store, claims, adapter)

	_, err := svc.Generate(context.Background(), "claim-1")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, store.inserted)
}

func TestListForClaim_ClaimNotFound(t *testing.T) {
	svc := newSuggestionsService(newFakeSuggestionStore(), newFakeClaimStore(), &stubAdapter{})
	_, err := svc.ListForClaim(context.Background(), "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHighConfidence_BadThreshold(t *testing.T) {
	svc := newSuggestionsService(newFakeSuggestionStore(), newFakeClaimStore(), &stubAdapter{})
	_, err := svc.HighConfidence(context.Background(), 1.5)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func pendingSuggestion(id string) models.Suggestion {
	return models.Suggestion{
		ID:              id,
		ClaimID:         "claim-1",
		Type:            models.SuggestApproveClaim,
		ConfidenceScore: 0.8,
		SuggestedAction: []byte(`{"action":"approve"}`),
		Status:          models.SuggestionPending,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestReview_Accepted(t *testing.T) {
	store := newFakeSuggestionStore(pendingSuggestion("sg-1"))
	svc := newSuggestionsService(store, newFakeClaimStore(), &stubAdapter{})

	out, err := svc.Review(context.Background(), "sg-1", models.SuggestionReview{
		Decision:   models.SuggestionAccepted,
		ReviewerID: "adjuster-7",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionAccepted, out.Status)
	require.NotNil(t, out.ReviewerID)
	assert.Equal(t, "adjuster-7", *out.ReviewerID)
	assert.NotNil(t, out.ReviewedAt)
}

func TestReview_Validation(t *testing.T) {
	svc := newSuggestionsService(newFakeSuggestionStore(pendingSuggestion("sg-1")), newFakeClaimStore(), &stubAdapter{})

	cases := []struct {
		name   string
		review models.SuggestionReview
	}{
		{"pending is not a decision", models.SuggestionReview{Decision: models.SuggestionPending, ReviewerID: "adjuster-7"}},
		{"unknown decision", models.SuggestionReview{Decision: "escalated", ReviewerID: "adjuster-7"}},
		{"missing reviewer", models.SuggestionReview{Decision: models.SuggestionAccepted}},
		{"modified without action", models.SuggestionReview{Decision: models.SuggestionModified, ReviewerID: "adjuster-7"}},
		{"action without modified", models.SuggestionReview{Decision: models.SuggestionAccepted, ReviewerID: "adjuster-7", ModifiedAction: []byte(`{"amount":100}`)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Review(context.Background(), "sg-1", tc.review)
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestReview_SecondReviewConflicts(t *testing.T) {
	store := newFakeSuggestionStore(pendingSuggestion("sg-1"))
	svc := newSuggestionsService(store, newFakeClaimStore(), &stubAdapter{})

	first := models.SuggestionReview{Decision: models.SuggestionAccepted, ReviewerID: "adjuster-7"}
	_, err := svc.Review(context.Background(), "sg-1", first)
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), "sg-1", models.SuggestionReview{Decision: models.SuggestionRejected, ReviewerID: "adjuster-8"})
	assert.ErrorIs(t, err, ErrConflict)

	// The stored record still carries the first decision.
	sg, err := svc.Get(context.Background(), "sg-1")
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionAccepted, sg.Status)
	assert.Equal(t, "adjuster-7", *sg.ReviewerID)
}

func TestReview_NotFound(t *testing.T) {
	svc := newSuggestionsService(newFakeSuggestionStore(), newFakeClaimStore(), &stubAdapter{})
	_, err := svc.Review(context.Background(), "missing", models.SuggestionReview{
		Decision:   models.SuggestionAccepted,
		ReviewerID: "adjuster-7",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMetrics(t *testing.T) {
	store := newFakeSuggestionStore()
	store.statusCounts = db.SuggestionStatusCounts{Pending: 4, Accepted: 6, Rejected: 3, Modified: 1}
	store.typeCounts = []models.TypeCount{
		{Type: models.SuggestApproveClaim, Count: 9},
		{Type: models.SuggestFlagFraud, Count: 5},
	}
	svc := newSuggestionsService(store, newFakeClaimStore(), &stubAdapter{})

	m, err := svc.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), m.TotalReviewed)
	assert.Equal(t, int64(4), m.PendingCount)
	assert.InDelta(t, 0.6, m.AcceptanceRate, 1e-9)
	assert.InDelta(t, 0.3, m.RejectionRate, 1e-9)
	assert.InDelta(t, 0.1, m.ModificationRate, 1e-9)
	assert.InDelta(t, 1.0, m.AcceptanceRate+m.RejectionRate+m.ModificationRate, 1e-9)
	require.Len(t, m.ByType, 2)
}

func TestMetrics_NothingReviewed(t *testing.T) {
	store := newFakeSuggestionStore()
	store.statusCounts = db.SuggestionStatusCounts{Pending: 5}
	svc := newSuggestionsService(store, newFakeClaimStore(), &stubAdapter{})

	m, err := svc.Metrics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, m.TotalReviewed)
	assert.Equal(t, int64(5), m.PendingCount)
	assert.Zero(t, m.AcceptanceRate)
	assert.Zero(t, m.RejectionRate)
	assert.Zero(t, m.ModificationRate)
}
