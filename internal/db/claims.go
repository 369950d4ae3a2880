package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/claimsflow/backend/internal/models"
)

const claimColumns = `id, policy_number, policyholder_name, date_of_loss, description,
	total_amount, incident_location, items, status, assigned_adjuster,
	video_analysis, created_at, updated_at`

type ClaimFilter struct {
	Status           string
	PolicyNumber     string
	PolicyholderName string
	Skip             int
	Limit            int
}

func (s *Store) CreateClaim(ctx context.Context, c models.Claim) error {
	location, err := json.Marshal(c.IncidentLocation)
	if err != nil {
		return eris.Wrap(err, "db: marshal incident location")
	}
	items, err := json.Marshal(c.Items)
	if err != nil {
		return eris.Wrap(err, "db: marshal claim items")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO claims (id, policy_number, policyholder_name, date_of_loss, description,
			total_amount, incident_location, items, status, assigned_adjuster,
			video_analysis, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, c.ID, c.PolicyNumber, c.PolicyholderName, c.DateOfLoss, c.Description,
		c.TotalAmount, location, items, c.Status, c.AssignedAdjuster,
		rawOrNil(c.VideoAnalysis), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return eris.Wrap(err, "db: insert claim")
	}
	return nil
}

func (s *Store) GetClaim(ctx context.Context, id string) (models.Claim, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = $1`, id)
	c, err := scanClaim(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return models.Claim{}, err
		}
		return models.Claim{}, eris.Wrap(err, "db: get claim")
	}
	return c, nil
}

func (s *Store) ListClaims(ctx context.Context, f ClaimFilter) ([]models.Claim, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 100
	}
	if f.Skip < 0 {
		f.Skip = 0
	}

	query := `SELECT ` + claimColumns + ` FROM claims`
	var args []any
	var wheres []string
	if f.Status != "" {
		args = append(args, f.Status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.PolicyNumber != "" {
		args = append(args, f.PolicyNumber)
		wheres = append(wheres, fmt.Sprintf("policy_number = $%d", len(args)))
	}
	if f.PolicyholderName != "" {
		args = append(args, f.PolicyholderName)
		wheres = append(wheres, fmt.Sprintf("policyholder_name = $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC OFFSET $%d LIMIT $%d", len(args)+1, len(args)+2)
	args = append(args, f.Skip, f.Limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "db: list claims")
	}
	defer rows.Close()
	return collectClaims(rows)
}

// UpdateClaim rewrites the mutable columns of a claim. The caller merges
// partial updates and validates the status transition beforehand.
func (s *Store) UpdateClaim(ctx context.Context, c models.Claim) error {
	location, err := json.Marshal(c.IncidentLocation)
	if err != nil {
		return eris.Wrap(err, "db: marshal incident location")
	}
	items, err := json.Marshal(c.Items)
	if err != nil {
		return eris.Wrap(err, "db: marshal claim items")
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE claims
		SET policy_number = $2, policyholder_name = $3, date_of_loss = $4, description = $5,
			total_amount = $6, incident_location = $7, items = $8, status = $9,
			assigned_adjuster = $10, video_analysis = $11, updated_at = $12
		WHERE id = $1
	`, c.ID, c.PolicyNumber, c.PolicyholderName, c.DateOfLoss, c.Description,
		c.TotalAmount, location, items, c.Status, c.AssignedAdjuster,
		rawOrNil(c.VideoAnalysis), c.UpdatedAt)
	if err != nil {
		return eris.Wrap(err, "db: update claim")
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteClaimCascade removes a claim and all of its suggestions in one
// transaction: either every row goes or none does.
func (s *Store) DeleteClaimCascade(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM suggestions WHERE claim_id = $1`, id); err != nil {
			return eris.Wrap(err, "db: delete claim suggestions")
		}
		tag, err := tx.Exec(ctx, `DELETE FROM claims WHERE id = $1`, id)
		if err != nil {
			return eris.Wrap(err, "db: delete claim")
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func (s *Store) ListRecentClaims(ctx context.Context, days int) ([]models.Claim, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+claimColumns+` FROM claims
		WHERE created_at >= $1
		ORDER BY created_at DESC
	`, time.Now().UTC().AddDate(0, 0, -days))
	if err != nil {
		return nil, eris.Wrap(err, "db: list recent claims")
	}
	defer rows.Close()
	return collectClaims(rows)
}

func (s *Store) ListClaimsWithVideo(ctx context.Context) ([]models.Claim, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+claimColumns+` FROM claims
		WHERE video_analysis IS NOT NULL
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, eris.Wrap(err, "db: list claims with video")
	}
	defer rows.Close()
	return collectClaims(rows)
}

func (s *Store) SetVideoAnalysis(ctx context.Context, id string, analysis json.RawMessage) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE claims SET video_analysis = $2, updated_at = $3 WHERE id = $1
	`, id, []byte(analysis), time.Now().UTC())
	if err != nil {
		return eris.Wrap(err, "db: set video analysis")
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanClaim(row pgx.Row) (models.Claim, error) {
	var (
		c        models.Claim
		location []byte
		items    []byte
		video    []byte
	)
	if err := row.Scan(&c.ID, &c.PolicyNumber, &c.PolicyholderName, &c.DateOfLoss,
		&c.Description, &c.TotalAmount, &location, &items, &c.Status,
		&c.AssignedAdjuster, &video, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Claim{}, err
	}
	if err := json.Unmarshal(location, &c.IncidentLocation); err != nil {
		return models.Claim{}, eris.Wrap(err, "db: unmarshal incident location")
	}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return models.Claim{}, eris.Wrap(err, "db: unmarshal claim items")
	}
	if len(video) > 0 {
		c.VideoAnalysis = json.RawMessage(video)
	}
	return c, nil
}

func collectClaims(rows pgx.Rows) ([]models.Claim, error) {
	var out []models.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, eris.Wrap(err, "db: scan claim")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func rawOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
