package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/palmyard/backend/internal/models"
)

type AnnouncementRequest struct {
	Title  string `json:"title" validate:"required,max=200"`
	Body   string `json:"body" validate:"required,max=4000"`
	Author string `json:"author" validate:"max=100"`
}

func (h *Handler) AnnouncementsList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	items, err := h.Announcements.ListAnnouncements(c.Request.Context(), limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list announcements", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Post an announcement
// @Tags announcements
// @Accept json
// @Produce json
// @Param payload body AnnouncementRequest true "announcement"
// @Success 201 {object} models.Announcement
// @Router /api/announcements [post]
func (h *Handler) AnnouncementCreate(c *gin.Context) {
	var req AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Body = strings.TrimSpace(req.Body)
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	a, err := h.Announcements.CreateAnnouncement(c.Request.Context(), models.Announcement{
		Title:  req.Title,
		Body:   req.Body,
		Author: strings.TrimSpace(req.Author),
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save announcement", err.Error())
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) AnnouncementDelete(c *gin.Context) {
	if err := h.Announcements.DeleteAnnouncement(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Announcement not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to delete announcement", err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}
