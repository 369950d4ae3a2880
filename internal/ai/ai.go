// Package ai defines the suggestion generator collaborator: an adapter
// that turns a claim (and any video evidence) into candidate suggestions
// pending human review.
package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claimsflow/backend/internal/models"
)

type Adapter interface {
	// AnalyzeClaim produces zero or more candidate suggestions for the
	// claim. Video analysis attached to the claim is part of the input.
	AnalyzeClaim(ctx context.Context, claim models.Claim) ([]models.Suggestion, error)

	// AnalyzeVideo inspects uploaded video evidence and returns a
	// structured analysis document.
	AnalyzeVideo(ctx context.Context, claim models.Claim, video []byte) (json.RawMessage, error)
}

// UpstreamError marks a failure of the external generator, as opposed to
// an internal one, so callers can answer 502 and decide to retry.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ai: %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
