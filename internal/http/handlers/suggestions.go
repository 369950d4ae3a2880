package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/claimsflow/backend/internal/models"
)

type reviewRequest struct {
	Decision       string          `json:"decision" validate:"required"`
	ReviewerID     string          `json:"reviewer_id" validate:"required"`
	ReviewerNotes  *string         `json:"reviewer_notes"`
	ModifiedAction json.RawMessage `json:"modified_action"`
}

// @Summary Generate suggestions
// @Description Run the AI generator against the claim and persist a fresh pending suggestion set
// @Tags suggestions
// @Produce json
// @Success 201 {array} models.Suggestion
// @Failure 404 {object} map[string]any
// @Router /api/claims/{id}/suggestions [post]
func (h *Handler) GenerateSuggestions(c *gin.Context) {
	suggestions, err := h.Suggestions.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, nonNilSuggestions(suggestions))
}

func (h *Handler) ListClaimSuggestions(c *gin.Context) {
	suggestions, err := h.Suggestions.ListForClaim(c.Request.Context(), c.Param("id"), c.Query("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilSuggestions(suggestions))
}

func (h *Handler) GetSuggestion(c *gin.Context) {
	sg, err := h.Suggestions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sg)
}

func (h *Handler) PendingSuggestions(c *gin.Context) {
	suggestions, err := h.Suggestions.Pending(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilSuggestions(suggestions))
}

func (h *Handler) HighConfidenceSuggestions(c *gin.Context) {
	threshold := 0.8
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(c, http.StatusBadRequest, "threshold must be a number")
			return
		}
		threshold = parsed
	}

	suggestions, err := h.Suggestions.HighConfidence(c.Request.Context(), threshold)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilSuggestions(suggestions))
}

// @Summary Review a suggestion
// @Description Apply the one-shot accept/reject/modify decision to a pending suggestion
// @Tags suggestions
// @Accept json
// @Produce json
// @Success 200 {object} models.Suggestion
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/suggestions/{id}/review [post]
func (h *Handler) ReviewSuggestion(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, fieldList(err))
		return
	}

	sg, err := h.Suggestions.Review(c.Request.Context(), c.Param("id"), models.SuggestionReview{
		Decision:       models.SuggestionStatus(req.Decision),
		ReviewerID:     req.ReviewerID,
		ReviewerNotes:  req.ReviewerNotes,
		ModifiedAction: req.ModifiedAction,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sg)
}

func (h *Handler) SuggestionMetrics(c *gin.Context) {
	m, err := h.Suggestions.Metrics(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if m.ByType == nil {
		m.ByType = []models.TypeCount{}
	}
	c.JSON(http.StatusOK, m)
}

func nonNilSuggestions(suggestions []models.Suggestion) []models.Suggestion {
	if suggestions == nil {
		return []models.Suggestion{}
	}
	return suggestions
}
