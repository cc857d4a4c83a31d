package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/palmyard/backend/internal/ai"
	"github.com/palmyard/backend/internal/analytics"
	"github.com/palmyard/backend/internal/service"
)

func (h *Handler) loadDashboard(c *gin.Context) (analytics.Dashboard, bool) {
	q, ok := h.bindQuery(c)
	if !ok {
		return analytics.Dashboard{}, false
	}
	d, err := h.Dashboard.Dashboard(c.Request.Context(), q)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load tickets", err.Error())
		return analytics.Dashboard{}, false
	}
	return d, true
}

// @Summary Dashboard
// @Description KPI, quality grades, leaderboard, trend, location report and forecast for one window.
// @Tags analytics
// @Produce json
// @Param window query string false "today|week|month|custom|all"
// @Param start query string false "custom window start (YYYY-MM-DD)"
// @Param end query string false "custom window end (YYYY-MM-DD)"
// @Param category query string false "all|id|plate|location"
// @Param q query string false "search text"
// @Param location query string false "location for the location report"
// @Param now query string false "evaluate as of this day (YYYY-MM-DD)"
// @Success 200 {object} analytics.Dashboard
// @Router /api/dashboard [get]
func (h *Handler) DashboardView(c *gin.Context) {
	d, ok := h.loadDashboard(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, d)
}

// @Summary KPI
// @Tags analytics
// @Produce json
// @Success 200 {object} analytics.KPI
// @Router /api/kpi [get]
func (h *Handler) KPI(c *gin.Context) {
	d, ok := h.loadDashboard(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, d.KPI)
}

// @Summary Quality grades
// @Tags analytics
// @Produce json
// @Success 200 {object} analytics.Quality
// @Router /api/quality [get]
func (h *Handler) Quality(c *gin.Context) {
	d, ok := h.loadDashboard(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, d.Quality)
}

func (h *Handler) Leaderboard(c *gin.Context) {
	d, ok := h.loadDashboard(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": d.Leaderboard})
}

func (h *Handler) LocationsList(c *gin.Context) {
	items, err := h.Dashboard.Locations(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list locations", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Location report
// @Tags analytics
// @Produce json
// @Param name path string true "Location name"
// @Success 200 {object} analytics.LocationReport
// @Failure 404 {object} map[string]any
// @Router /api/locations/{name} [get]
func (h *Handler) LocationDetails(c *gin.Context) {
	rep, err := h.Dashboard.LocationReport(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Location not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load location", err.Error())
		return
	}
	c.JSON(http.StatusOK, rep)
}

// @Summary Intake forecast
// @Tags analytics
// @Produce json
// @Param horizon query int false "days to project (1-60)"
// @Success 200 {object} service.ForecastView
// @Router /api/forecast [get]
func (h *Handler) Forecast(c *gin.Context) {
	horizon := 0
	if raw := c.Query("horizon"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || h.Validator.Var(n, "min=1,max=60") != nil {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "horizon must be between 1 and 60", nil)
			return
		}
		horizon = n
	}
	fc, err := h.Dashboard.Forecast(c.Request.Context(), horizon)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load tickets", err.Error())
		return
	}
	c.JSON(http.StatusOK, fc)
}

// InsightRequest mirrors DashboardQuery for the JSON body of POST /api/insights.
type InsightRequest = DashboardQuery

// @Summary Narrative insight
// @Description Summarises KPI, recent trend and weather into a short briefing.
// @Tags insights
// @Accept json
// @Produce json
// @Param payload body InsightRequest false "filter"
// @Success 200 {object} service.InsightResult
// @Failure 429 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Router /api/insights [post]
func (h *Handler) GenerateInsight(c *gin.Context) {
	var req InsightRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
			return
		}
	}
	q, ok := h.toQuery(c, req)
	if !ok {
		return
	}

	res, err := h.Insights.Generate(c.Request.Context(), q)
	if err != nil {
		var rl ai.RateLimitError
		if errors.As(err, &rl) {
			if rl.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(rl.RetryAfter.Seconds())))
			}
			writeError(c, http.StatusTooManyRequests, "AI_RATE_LIMITED", "Insight provider is rate limited", rl.Error())
			return
		}
		writeError(c, http.StatusBadGateway, "AI_ERROR", "Insight generation failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, res)
}
