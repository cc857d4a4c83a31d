package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/palmyard/backend/internal/analytics"
	"github.com/palmyard/backend/internal/models"
	"github.com/palmyard/backend/internal/service"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type AnnouncementStore interface {
	ListAnnouncements(ctx context.Context, limit int) ([]models.Announcement, error)
	CreateAnnouncement(ctx context.Context, a models.Announcement) (models.Announcement, error)
	DeleteAnnouncement(ctx context.Context, id string) error
}

type Handler struct {
	DB            Pinger
	Imports       *service.ImportService
	Dashboard     *service.DashboardService
	Insights      *service.InsightService
	Announcements AnnouncementStore
	Validator     *validator.Validate
	Logger        zerolog.Logger

	// MaxUploadBytes caps import bodies; zero means no limit.
	MaxUploadBytes int64
}

const defaultWindow = string(analytics.WindowMonth)

// DashboardQuery is the shared filter for every read endpoint.
type DashboardQuery struct {
	Window   string `form:"window" json:"window" validate:"omitempty,oneof=today week month custom all"`
	Start    string `form:"start" json:"start" validate:"omitempty,datetime=2006-01-02"`
	End      string `form:"end" json:"end" validate:"omitempty,datetime=2006-01-02"`
	Category string `form:"category" json:"category" validate:"omitempty,oneof=all id plate location"`
	Q        string `form:"q" json:"q" validate:"max=200"`
	Location string `form:"location" json:"location" validate:"max=200"`
	Now      string `form:"now" json:"now" validate:"omitempty,datetime=2006-01-02"`
	Horizon  int    `form:"horizon" json:"horizon" validate:"omitempty,min=1,max=60"`
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.DB.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bindQuery reads and validates DashboardQuery from the query string. It
// writes the error response itself and reports false on failure.
func (h *Handler) bindQuery(c *gin.Context) (service.Query, bool) {
	var dq DashboardQuery
	if err := c.ShouldBindQuery(&dq); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid query", err.Error())
		return service.Query{}, false
	}
	return h.toQuery(c, dq)
}

func (h *Handler) toQuery(c *gin.Context, dq DashboardQuery) (service.Query, bool) {
	if err := h.Validator.Struct(dq); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return service.Query{}, false
	}
	if dq.Window == "" {
		dq.Window = defaultWindow
	}
	q := service.Query{
		Window:   analytics.ParseWindow(dq.Window, dq.Start, dq.End),
		Search:   analytics.Search{Category: analytics.SearchCategory(dq.Category), Query: dq.Q},
		Location: strings.TrimSpace(dq.Location),
		Horizon:  dq.Horizon,
	}
	if q.Search.Category == "" {
		q.Search.Category = analytics.SearchAll
	}
	if dq.Now != "" {
		now, err := h.Dashboard.ReferenceDay(dq.Now)
		if err != nil {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid now", err.Error())
			return service.Query{}, false
		}
		q.Now = now
	}
	return q, true
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
