package models

type ClaimStatus string

const (
	ClaimSubmitted         ClaimStatus = "submitted"
	ClaimUnderReview       ClaimStatus = "under_review"
	ClaimAdditionalInfo    ClaimStatus = "additional_info_needed"
	ClaimPartiallyApproved ClaimStatus = "partially_approved"
	ClaimApproved          ClaimStatus = "approved"
	ClaimDenied            ClaimStatus = "denied"
)

// claimStatusRank orders the claim lifecycle. Transitions must move to a
// strictly higher rank; the three adjudication outcomes share the final
// rank and are terminal.
var claimStatusRank = map[ClaimStatus]int{
	ClaimSubmitted:         1,
	ClaimUnderReview:       2,
	ClaimAdditionalInfo:    3,
	ClaimPartiallyApproved: 4,
	ClaimApproved:          4,
	ClaimDenied:            4,
}

func (s ClaimStatus) Valid() bool {
	_, ok := claimStatusRank[s]
	return ok
}

func (s ClaimStatus) Terminal() bool {
	return claimStatusRank[s] == 4
}

// CanTransitionTo reports whether a claim may move from s to next.
// A same-status write is allowed as a no-op; everything else must move
// forward, and nothing leaves a terminal status.
func (s ClaimStatus) CanTransitionTo(next ClaimStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	return claimStatusRank[next] > claimStatusRank[s]
}

// SuggestionType is an open, string-backed enumeration: the generator may
// emit types beyond the known constants and they are stored as-is.
type SuggestionType string

const (
	SuggestApproveClaim SuggestionType = "approve_claim"
	SuggestDenyClaim    SuggestionType = "deny_claim"
	SuggestRequestInfo  SuggestionType = "request_info"
	SuggestFlagFraud    SuggestionType = "flag_fraud"
	SuggestAdjustAmount SuggestionType = "adjust_amount"
	SuggestReplaceItem  SuggestionType = "replace_item"
	SuggestRepairItem   SuggestionType = "repair_item"
)

type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionAccepted SuggestionStatus = "accepted"
	SuggestionRejected SuggestionStatus = "rejected"
	SuggestionModified SuggestionStatus = "modified"
)

// ValidDecision reports whether s is a reviewable terminal outcome.
// PENDING is not a decision.
func (s SuggestionStatus) ValidDecision() bool {
	switch s {
	case SuggestionAccepted, SuggestionRejected, SuggestionModified:
		return true
	}
	return false
}
