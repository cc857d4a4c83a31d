package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/palmyard/backend/internal/service"
	"github.com/palmyard/backend/internal/ticketcsv"
)

// @Summary Import weighbridge tickets
// @Description Upload a ticket CSV (multipart field "file" or a text/csv body). Rows are merged by ticket id.
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "tickets.csv"
// @Success 200 {object} service.ImportSummary
// @Failure 400 {object} map[string]any
// @Failure 413 {object} map[string]any
// @Failure 422 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	body, closeFn, ok := h.importBody(c)
	if !ok {
		return
	}
	defer closeFn()

	summary, err := h.Imports.Import(c.Request.Context(), body)
	if err != nil {
		if tooLarge(err) {
			writeError(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Upload exceeds size limit", summary)
			return
		}
		if errors.Is(err, ticketcsv.ErrEmptyImport) {
			writeError(c, http.StatusUnprocessableEntity, "EMPTY_IMPORT", "No valid tickets in upload", summary)
			return
		}
		h.Logger.Error().Err(err).Msg("import failed")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Import failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) importBody(c *gin.Context) (io.Reader, func(), bool) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}
	if strings.HasPrefix(c.ContentType(), "text/csv") {
		return c.Request.Body, func() {}, true
	}
	fh, err := c.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			writeError(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Upload exceeds size limit", nil)
			return nil, nil, false
		}
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "file is required", nil)
		return nil, nil, false
	}
	if !validateExt(fh.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "file must be .csv", nil)
		return nil, nil, false
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "cannot read file", err.Error())
		return nil, nil, false
	}
	return f, func() { _ = f.Close() }, true
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// @Summary Latest import run
// @Tags import
// @Produce json
// @Success 200 {object} service.ImportRunView
// @Failure 404 {object} map[string]any
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	result, err := h.Imports.LatestRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, service.ErrNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load run", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary List tickets
// @Description Tickets inside the window that match the search, in stored order.
// @Tags tickets
// @Produce json
// @Param window query string false "today|week|month|custom|all"
// @Param category query string false "all|id|plate|location"
// @Param q query string false "search text"
// @Success 200 {object} map[string]any
// @Router /api/tickets [get]
func (h *Handler) TicketsList(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}
	items, err := h.Dashboard.Tickets(c.Request.Context(), q)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list tickets", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// @Summary Export tickets as CSV
// @Tags tickets
// @Produce text/csv
// @Router /api/export [get]
func (h *Handler) Export(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.Dashboard.Export(c.Request.Context(), &buf, q); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Export failed", err.Error())
		return
	}
	name := fmt.Sprintf("tickets-%s.csv", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func validateExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".csv"
}
