package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/claimsflow/backend/internal/models"
)

// ErrAlreadyReviewed is returned when a review targets a suggestion whose
// status is no longer pending.
var ErrAlreadyReviewed = errors.New("suggestion already reviewed")

const suggestionColumns = `id, claim_id, type, description, confidence_score, ai_explanation,
	suggested_action, status, reviewer_id, reviewer_notes, modified_action,
	model_version, created_at, reviewed_at`

var suggestionInsertColumns = []string{
	"id", "claim_id", "type", "description", "confidence_score", "ai_explanation",
	"suggested_action", "status", "model_version", "created_at",
}

// InsertSuggestions bulk-inserts a freshly generated suggestion set.
func (s *Store) InsertSuggestions(ctx context.Context, suggestions []models.Suggestion) (int64, error) {
	if len(suggestions) == 0 {
		return 0, nil
	}
	rows := make([][]any, 0, len(suggestions))
	for _, sg := range suggestions {
		rows = append(rows, []any{
			sg.ID, sg.ClaimID, sg.Type, sg.Description, sg.ConfidenceScore,
			sg.AIExplanation, []byte(sg.SuggestedAction), sg.Status,
			sg.ModelVersion, sg.CreatedAt,
		})
	}
	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{"suggestions"}, suggestionInsertColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrap(err, "db: insert suggestions")
	}
	return n, nil
}

func (s *Store) GetSuggestion(ctx context.Context, id string) (models.Suggestion, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+suggestionColumns+` FROM suggestions WHERE id = $1`, id)
	sg, err := scanSuggestion(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return models.Suggestion{}, err
		}
		return models.Suggestion{}, eris.Wrap(err, "db: get suggestion")
	}
	return sg, nil
}

func (s *Store) ListSuggestionsByClaim(ctx context.Context, claimID string, status string) ([]models.Suggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE claim_id = $1`
	args := []any{claimID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "db: list claim suggestions")
	}
	defer rows.Close()
	return collectSuggestions(rows)
}

func (s *Store) ListPendingSuggestions(ctx context.Context) ([]models.Suggestion, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+suggestionColumns+` FROM suggestions
		WHERE status = $1
		ORDER BY created_at ASC
	`, models.SuggestionPending)
	if err != nil {
		return nil, eris.Wrap(err, "db: list pending suggestions")
	}
	defer rows.Close()
	return collectSuggestions(rows)
}

func (s *Store) ListHighConfidenceSuggestions(ctx context.Context, threshold float64) ([]models.Suggestion, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+suggestionColumns+` FROM suggestions
		WHERE confidence_score >= $1
		ORDER BY confidence_score DESC, created_at DESC
	`, threshold)
	if err != nil {
		return nil, eris.Wrap(err, "db: list high confidence suggestions")
	}
	defer rows.Close()
	return collectSuggestions(rows)
}

// ReviewSuggestion applies a one-shot review as a compare-and-set on the
// pending status. Of two concurrent reviews exactly one matches the
// predicate; the loser gets ErrAlreadyReviewed.
func (s *Store) ReviewSuggestion(ctx context.Context, id string, review models.SuggestionReview, reviewedAt time.Time) (models.Suggestion, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE suggestions
		SET status = $2, reviewer_id = $3, reviewer_notes = $4, modified_action = $5, reviewed_at = $6
		WHERE id = $1 AND status = $7
		RETURNING `+suggestionColumns, id, review.Decision, review.ReviewerID,
		review.ReviewerNotes, rawOrNil(review.ModifiedAction), reviewedAt, models.SuggestionPending)

	sg, err := scanSuggestion(row)
	if err == nil {
		return sg, nil
	}
	if !eris.Is(err, pgx.ErrNoRows) {
		return models.Suggestion{}, eris.Wrap(err, "db: review suggestion")
	}

	// CAS missed: distinguish an unknown suggestion from one already
	// reviewed so the caller can answer 404 vs 409.
	var status models.SuggestionStatus
	if err := s.pool.QueryRow(ctx, `SELECT status FROM suggestions WHERE id = $1`, id).Scan(&status); err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return models.Suggestion{}, pgx.ErrNoRows
		}
		return models.Suggestion{}, eris.Wrap(err, "db: review suggestion status check")
	}
	return models.Suggestion{}, ErrAlreadyReviewed
}

type SuggestionStatusCounts struct {
	Pending  int64
	Accepted int64
	Rejected int64
	Modified int64
}

func (s *Store) CountSuggestionsByStatus(ctx context.Context) (SuggestionStatusCounts, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM suggestions GROUP BY status`)
	if err != nil {
		return SuggestionStatusCounts{}, eris.Wrap(err, "db: count suggestions by status")
	}
	defer rows.Close()

	var counts SuggestionStatusCounts
	for rows.Next() {
		var (
			status models.SuggestionStatus
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return SuggestionStatusCounts{}, eris.Wrap(err, "db: scan status count")
		}
		switch status {
		case models.SuggestionPending:
			counts.Pending = n
		case models.SuggestionAccepted:
			counts.Accepted = n
		case models.SuggestionRejected:
			counts.Rejected = n
		case models.SuggestionModified:
			counts.Modified = n
		}
	}
	return counts, rows.Err()
}

func (s *Store) CountSuggestionsByType(ctx context.Context) ([]models.TypeCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT type, COUNT(*) FROM suggestions
		GROUP BY type
		ORDER BY COUNT(*) DESC, type ASC
	`)
	if err != nil {
		return nil, eris.Wrap(err, "db: count suggestions by type")
	}
	defer rows.Close()

	var out []models.TypeCount
	for rows.Next() {
		var tc models.TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, eris.Wrap(err, "db: scan type count")
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func scanSuggestion(row pgx.Row) (models.Suggestion, error) {
	var (
		sg       models.Suggestion
		action   []byte
		modified []byte
	)
	if err := row.Scan(&sg.ID, &sg.ClaimID, &sg.Type, &sg.Description,
		&sg.ConfidenceScore, &sg.AIExplanation, &action, &sg.Status,
		&sg.ReviewerID, &sg.ReviewerNotes, &modified, &sg.ModelVersion,
		&sg.CreatedAt, &sg.ReviewedAt); err != nil {
		return models.Suggestion{}, err
	}
	sg.SuggestedAction = json.RawMessage(action)
	if len(modified) > 0 {
		sg.ModifiedAction = json.RawMessage(modified)
	}
	return sg, nil
}

func collectSuggestions(rows pgx.Rows) ([]models.Suggestion, error) {
	var out []models.Suggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, eris.Wrap(err, "db: scan suggestion")
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}
