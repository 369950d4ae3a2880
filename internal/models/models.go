package models

import (
	"encoding/json"
	"time"
)

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zipcode string `json:"zipcode"`
	Country string `json:"country"`
}

type ClaimItem struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	EstimatedValue  float64    `json:"estimated_value"`
	PurchaseDate    *time.Time `json:"purchase_date,omitempty"`
	ReplacementCost *float64   `json:"replacement_cost,omitempty"`
}

type Claim struct {
	ID               string          `json:"id"`
	PolicyNumber     string          `json:"policy_number"`
	PolicyholderName string          `json:"policyholder_name"`
	DateOfLoss       time.Time       `json:"date_of_loss"`
	Description      string          `json:"description"`
	TotalAmount      float64         `json:"total_amount"`
	IncidentLocation Address         `json:"incident_location"`
	Items            []ClaimItem     `json:"items"`
	Status           ClaimStatus     `json:"status"`
	AssignedAdjuster *string         `json:"assigned_adjuster,omitempty"`
	VideoAnalysis    json.RawMessage `json:"video_analysis,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type Suggestion struct {
	ID              string           `json:"id"`
	ClaimID         string           `json:"claim_id"`
	Type            SuggestionType   `json:"type"`
	Description     string           `json:"description"`
	ConfidenceScore float64          `json:"confidence_score"`
	AIExplanation   string           `json:"ai_explanation"`
	SuggestedAction json.RawMessage  `json:"suggested_action"`
	Status          SuggestionStatus `json:"status"`
	ReviewerID      *string          `json:"reviewer_id,omitempty"`
	ReviewerNotes   *string          `json:"reviewer_notes,omitempty"`
	ModifiedAction  json.RawMessage  `json:"modified_action,omitempty"`
	ModelVersion    string           `json:"model_version"`
	CreatedAt       time.Time        `json:"created_at"`
	ReviewedAt      *time.Time       `json:"reviewed_at,omitempty"`
}

// SuggestionReview carries the one-shot reviewer decision applied to a
// pending suggestion.
type SuggestionReview struct {
	Decision       SuggestionStatus `json:"decision"`
	ReviewerID     string           `json:"reviewer_id"`
	ReviewerNotes  *string          `json:"reviewer_notes,omitempty"`
	ModifiedAction json.RawMessage  `json:"modified_action,omitempty"`
}

type TypeCount struct {
	Type  SuggestionType `json:"type"`
	Count int64          `json:"count"`
}

// SuggestionMetrics reports review outcomes over all suggestions. Pending
// suggestions are excluded from the rate denominator and surfaced only as
// PendingCount, so the three rates sum to 1.0 whenever TotalReviewed > 0.
type SuggestionMetrics struct {
	TotalReviewed    int64       `json:"total_reviewed"`
	PendingCount     int64       `json:"pending_count"`
	AcceptanceRate   float64     `json:"acceptance_rate"`
	RejectionRate    float64     `json:"rejection_rate"`
	ModificationRate float64     `json:"modification_rate"`
	ByType           []TypeCount `json:"by_type"`
}
