package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/claimsflow/backend/internal/ai"
	"github.com/claimsflow/backend/internal/service"
	"github.com/claimsflow/backend/internal/video"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Claims        *service.ClaimsService
	Suggestions   *service.SuggestionsService
	DB            Pinger
	Validator     *validator.Validate
	Logger        zerolog.Logger
	MaxVideoBytes int64
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.DB.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}

// respondError translates the service error taxonomy into status codes
// with the standard {"detail": ...} envelope. Internal details are never
// leaked on 5xx.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	var uerr *ai.UpstreamError
	switch {
	case errors.As(err, &verr):
		writeError(c, http.StatusBadRequest, verr.Detail)
	case errors.Is(err, service.ErrNotFound):
		writeError(c, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, video.ErrUnsupportedFormat):
		writeError(c, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, video.ErrTooLarge), errors.Is(err, video.ErrTooLong):
		writeError(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.As(err, &uerr):
		h.Logger.Error().Err(err).Msg("upstream AI call failed")
		writeError(c, http.StatusBadGateway, "AI service unavailable, retry later")
	default:
		h.Logger.Error().Err(err).Msg("internal error")
		writeError(c, http.StatusInternalServerError, "internal server error")
	}
}

// fieldList flattens validator errors into the invalid field names so the
// client sees which inputs to fix.
func fieldList(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}
