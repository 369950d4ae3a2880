package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaimStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to ClaimStatus
		ok       bool
	}{
		{ClaimSubmitted, ClaimUnderReview, true},
		{ClaimSubmitted, ClaimApproved, true},
		{ClaimSubmitted, ClaimDenied, true},
		{ClaimUnderReview, ClaimAdditionalInfo, true},
		{ClaimUnderReview, ClaimPartiallyApproved, true},
		{ClaimAdditionalInfo, ClaimApproved, true},

		// No-op writes keep the current status.
		{ClaimSubmitted, ClaimSubmitted, true},
		{ClaimApproved, ClaimApproved, true},

		// Nothing moves backwards.
		{ClaimUnderReview, ClaimSubmitted, false},
		{ClaimAdditionalInfo, ClaimUnderReview, false},

		// Nothing leaves a terminal status.
		{ClaimApproved, ClaimDenied, false},
		{ClaimDenied, ClaimUnderReview, false},
		{ClaimPartiallyApproved, ClaimApproved, false},

		{ClaimSubmitted, ClaimStatus("closed"), false},
		{ClaimStatus(""), ClaimUnderReview, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestClaimStatusTerminal(t *testing.T) {
	assert.True(t, ClaimApproved.Terminal())
	assert.True(t, ClaimPartiallyApproved.Terminal())
	assert.True(t, ClaimDenied.Terminal())
	assert.False(t, ClaimSubmitted.Terminal())
	assert.False(t, ClaimAdditionalInfo.Terminal())
}

func TestSuggestionValidDecision(t *testing.T) {
	assert.True(t, SuggestionAccepted.ValidDecision())
	assert.True(t, SuggestionRejected.ValidDecision())
	assert.True(t, SuggestionModified.ValidDecision())
	assert.False(t, SuggestionPending.ValidDecision())
	assert.False(t, SuggestionStatus("escalated").ValidDecision())
}
