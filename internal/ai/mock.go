package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claimsflow/backend/internal/models"
	"github.com/claimsflow/backend/internal/utils"
)

// MockAdapter generates rule-based suggestions without calling an external
// model. Output is deterministic per claim ID so local runs are stable.
type MockAdapter struct {
	ModelVersion string
}

func (m MockAdapter) AnalyzeClaim(ctx context.Context, claim models.Claim) ([]models.Suggestion, error) {
	var out []models.Suggestion

	if claim.TotalAmount > 10000 {
		action, _ := json.Marshal(map[string]any{
			"action":         "review",
			"reason":         "high_value",
			"threshold":      10000,
			"current_amount": claim.TotalAmount,
		})
		out = append(out, models.Suggestion{
			Type:            models.SuggestAdjustAmount,
			Description:     "High-value claim detected",
			ConfidenceScore: 0.85,
			AIExplanation:   "Claim amount exceeds normal threshold",
			SuggestedAction: action,
			ModelVersion:    m.ModelVersion,
		})
	}

	if claim.TotalAmount > 50000 || len(claim.Items) > 10 {
		indicator := "high_amount"
		if claim.TotalAmount <= 50000 {
			indicator = "excessive_items"
		}
		action, _ := json.Marshal(map[string]any{
			"action":     "investigate",
			"indicators": []string{indicator},
			"risk_level": "medium",
		})
		out = append(out, models.Suggestion{
			Type:            models.SuggestFlagFraud,
			Description:     "Potential fraud indicators detected",
			ConfidenceScore: 0.75,
			AIExplanation:   "Unusual claim characteristics detected",
			SuggestedAction: action,
			ModelVersion:    m.ModelVersion,
		})
	}

	confidence := 0.80
	if utils.HashStringToUint64(claim.ID)%5 == 0 {
		confidence = 0.62
	}
	action, _ := json.Marshal(map[string]any{
		"action":       "approve",
		"total_amount": claim.TotalAmount,
	})
	out = append(out, models.Suggestion{
		Type:            models.SuggestApproveClaim,
		Description:     "Basic claim recommendation",
		ConfidenceScore: confidence,
		AIExplanation:   "Initial review suggests approval pending detailed analysis",
		SuggestedAction: action,
		ModelVersion:    m.ModelVersion,
	})

	return out, nil
}

func (m MockAdapter) AnalyzeVideo(ctx context.Context, claim models.Claim, video []byte) (json.RawMessage, error) {
	h := utils.HashStringToUint64(claim.ID)
	severities := []string{"low", "medium", "high"}
	analysis := map[string]any{
		"damage_assessment": map[string]any{
			"visible_damage": []string{"exterior"},
			"severity":       severities[int(h)%len(severities)],
			"confidence":     0.7,
		},
		"evidence_quality": map[string]any{
			"coverage": "partial",
			"clarity":  "moderate",
		},
		"summary": fmt.Sprintf("Video evidence for claim %s processed (%d bytes)", claim.ID, len(video)),
	}
	b, _ := json.Marshal(analysis)
	return b, nil
}
