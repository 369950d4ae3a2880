package handlers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/claimsflow/backend/internal/db"
	"github.com/claimsflow/backend/internal/models"
	"github.com/claimsflow/backend/internal/service"
)

type claimItemPayload struct {
	Name            string     `json:"name" validate:"required"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	EstimatedValue  float64    `json:"estimated_value" validate:"gte=0"`
	PurchaseDate    *time.Time `json:"purchase_date"`
	ReplacementCost *float64   `json:"replacement_cost"`
}

type createClaimRequest struct {
	PolicyNumber     string             `json:"policy_number" validate:"required"`
	PolicyholderName string             `json:"policyholder_name" validate:"required"`
	DateOfLoss       time.Time          `json:"date_of_loss" validate:"required"`
	Description      string             `json:"description" validate:"required"`
	TotalAmount      float64            `json:"total_amount" validate:"gte=0"`
	IncidentLocation models.Address     `json:"incident_location"`
	Items            []claimItemPayload `json:"items" validate:"dive"`
}

type updateClaimRequest struct {
	PolicyNumber     *string            `json:"policy_number"`
	PolicyholderName *string            `json:"policyholder_name"`
	DateOfLoss       *time.Time         `json:"date_of_loss"`
	Description      *string            `json:"description"`
	TotalAmount      *float64           `json:"total_amount"`
	IncidentLocation *models.Address    `json:"incident_location"`
	Items            []claimItemPayload `json:"items"`
	Status           *string            `json:"status"`
	AssignedAdjuster *string            `json:"assigned_adjuster"`
}

// @Summary Create a claim
// @Description Submit a new insurance claim; initial status is "submitted"
// @Tags claims
// @Accept json
// @Produce json
// @Success 201 {object} models.Claim
// @Failure 400 {object} map[string]any
// @Router /api/claims [post]
func (h *Handler) CreateClaim(c *gin.Context) {
	var req createClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, fieldList(err))
		return
	}

	claim, err := h.Claims.CreateClaim(c.Request.Context(), models.Claim{
		PolicyNumber:     req.PolicyNumber,
		PolicyholderName: req.PolicyholderName,
		DateOfLoss:       req.DateOfLoss,
		Description:      req.Description,
		TotalAmount:      req.TotalAmount,
		IncidentLocation: req.IncidentLocation,
		Items:            toClaimItems(req.Items),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, claim)
}

func (h *Handler) GetClaim(c *gin.Context) {
	claim, err := h.Claims.GetClaim(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

func (h *Handler) ListClaims(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	claims, err := h.Claims.ListClaims(c.Request.Context(), db.ClaimFilter{
		Status:           c.Query("status"),
		PolicyNumber:     c.Query("policy_number"),
		PolicyholderName: c.Query("policyholder_name"),
		Skip:             skip,
		Limit:            limit,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilClaims(claims))
}

func (h *Handler) UpdateClaim(c *gin.Context) {
	var req updateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	patch := service.ClaimPatch{
		PolicyNumber:     req.PolicyNumber,
		PolicyholderName: req.PolicyholderName,
		DateOfLoss:       req.DateOfLoss,
		Description:      req.Description,
		TotalAmount:      req.TotalAmount,
		IncidentLocation: req.IncidentLocation,
		AssignedAdjuster: req.AssignedAdjuster,
	}
	if req.Items != nil {
		patch.Items = toClaimItems(req.Items)
	}
	if req.Status != nil {
		status := models.ClaimStatus(*req.Status)
		patch.Status = &status
	}

	claim, err := h.Claims.UpdateClaim(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

func (h *Handler) DeleteClaim(c *gin.Context) {
	if err := h.Claims.DeleteClaim(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Claim deleted successfully"})
}

func (h *Handler) RecentClaims(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	claims, err := h.Claims.RecentClaims(c.Request.Context(), days)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilClaims(claims))
}

func (h *Handler) ClaimsWithVideoAnalysis(c *gin.Context) {
	claims, err := h.Claims.ClaimsWithVideoAnalysis(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilClaims(claims))
}

// @Summary Upload claim video
// @Description Validate video evidence (format, size, duration), analyze it and regenerate suggestions
// @Tags claims
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} map[string]any
// @Failure 413 {object} map[string]any
// @Failure 415 {object} map[string]any
// @Router /api/claims/{id}/video [post]
func (h *Handler) UploadVideo(c *gin.Context) {
	file, err := c.FormFile("video")
	if err != nil {
		writeError(c, http.StatusBadRequest, "video file required")
		return
	}
	if h.MaxVideoBytes > 0 && file.Size > h.MaxVideoBytes {
		writeError(c, http.StatusRequestEntityTooLarge, "video file exceeds the size limit")
		return
	}

	f, err := file.Open()
	if err != nil {
		writeError(c, http.StatusBadRequest, "could not read video file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(c, http.StatusBadRequest, "could not read video file")
		return
	}

	analysis, suggestions, err := h.Claims.ProcessVideo(c.Request.Context(), c.Param("id"), file.Filename, data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":     "Video processed successfully",
		"analysis":    analysis,
		"suggestions": nonNilSuggestions(suggestions),
	})
}

func toClaimItems(items []claimItemPayload) []models.ClaimItem {
	out := make([]models.ClaimItem, 0, len(items))
	for _, it := range items {
		out = append(out, models.ClaimItem{
			Name:            it.Name,
			Description:     it.Description,
			Category:        it.Category,
			EstimatedValue:  it.EstimatedValue,
			PurchaseDate:    it.PurchaseDate,
			ReplacementCost: it.ReplacementCost,
		})
	}
	return out
}

func nonNilClaims(claims []models.Claim) []models.Claim {
	if claims == nil {
		return []models.Claim{}
	}
	return claims
}
