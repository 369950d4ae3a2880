package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimsflow/backend/internal/models"
)

func claimRow(id string) *pgxmock.Rows {
	now := time.Now().UTC()
	return pgxmock.NewRows([]string{
		"id", "policy_number", "policyholder_name", "date_of_loss", "description",
		"total_amount", "incident_location", "items", "status", "assigned_adjuster",
		"video_analysis", "created_at", "updated_at",
	}).AddRow(
		id, "POL-1001", "Jordan Reyes", now.AddDate(0, 0, -2), "Water damage in kitchen",
		4200.0, []byte(`{"street":"12 Elm St","city":"Austin","state":"TX","zipcode":"78701","country":"USA"}`),
		[]byte(`[{"name":"Dishwasher","description":"","category":"appliance","estimated_value":900}]`),
		models.ClaimSubmitted, nil, []byte(nil), now, now,
	)
}

func TestGetClaim(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM claims WHERE id`).
		WithArgs("claim-1").
		WillReturnRows(claimRow("claim-1"))

	c, err := store.GetClaim(context.Background(), "claim-1")
	require.NoError(t, err)
	assert.Equal(t, "claim-1", c.ID)
	assert.Equal(t, "POL-1001", c.PolicyNumber)
	assert.Equal(t, "Austin", c.IncidentLocation.City)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "Dishwasher", c.Items[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetClaim_NotFound(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM claims WHERE id`).WillReturnError(pgx.ErrNoRows)

	_, err := store.GetClaim(context.Background(), "missing")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListClaims_Filters(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM claims WHERE status = \$1 AND policy_number = \$2`).
		WithArgs("submitted", "POL-1001", 0, 25).
		WillReturnRows(claimRow("claim-1"))

	out, err := store.ListClaims(context.Background(), ClaimFilter{
		Status:       "submitted",
		PolicyNumber: "POL-1001",
		Limit:        25,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListClaims_DefaultLimit(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM claims ORDER BY created_at DESC`).
		WithArgs(0, 100).
		WillReturnRows(claimRow("claim-1"))

	_, err := store.ListClaims(context.Background(), ClaimFilter{Limit: 500})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateClaim_NotFound(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectExec(`UPDATE claims`).WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.UpdateClaim(context.Background(), models.Claim{ID: "missing"})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteClaimCascade(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM suggestions WHERE claim_id`).
		WithArgs("claim-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`DELETE FROM claims WHERE id`).
		WithArgs("claim-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err := store.DeleteClaimCascade(context.Background(), "claim-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteClaimCascade_NotFound(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM suggestions WHERE claim_id`).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM claims WHERE id`).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := store.DeleteClaimCascade(context.Background(), "missing")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetVideoAnalysis(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectExec(`UPDATE claims SET video_analysis`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := store.SetVideoAnalysis(context.Background(), "claim-1", []byte(`{"summary":"ok"}`))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
