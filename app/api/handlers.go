package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/page-comb/app/database"
	"github.com/lysyi3m/page-comb/app/registry"
	"github.com/lysyi3m/page-comb/app/render"
)

// NewHandler wires the HTTP handlers. history may be nil when refresh
// history is disabled.
func NewHandler(renderer RendererInterface, reg RegistryInterface, history database.HistoryRepository, version string) *Handler {
	return &Handler{
		renderer: renderer,
		registry: reg,
		history:  history,
		version:  version,
	}
}

func (h *Handler) GetRender(c *gin.Context) {
	req := render.Request{
		URL:       c.Query("url"),
		Template:  c.Query("template"),
		UserAgent: c.Request.UserAgent(),
	}

	result, err := h.renderer.Render(c.Request.Context(), req)
	if err != nil {
		var notFound *render.NotFoundError
		if errors.As(err, &notFound) {
			slog.Debug("Render target not found", "url", req.URL, "template", req.Template, "error", err)
			c.String(http.StatusNotFound, err.Error())
			return
		}

		slog.Error("Render failed", "url", req.URL, "template", req.Template, "error", err)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	if result.Cached {
		c.Header("X-Cache", "HIT")
	}
	c.Data(http.StatusOK, result.ContentType, []byte(result.Body))
}

func (h *Handler) GetHealth(c *gin.Context) {
	state := h.registry.State()

	health := map[string]interface{}{
		"timestamp":  time.Now().In(time.Local).Format(time.RFC3339),
		"parsers":    state.Parsers.Len(),
		"templates":  state.Templates.Len(),
		"refreshing": h.registry.Refreshing(),
	}

	if !state.LastRefreshAt.IsZero() {
		health["last_refresh_at"] = state.LastRefreshAt.In(time.Local).Format(time.RFC3339)
	}
	if state.LastRefreshError != nil {
		health["last_refresh_error"] = state.LastRefreshError.Error()
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIGetCatalog(c *gin.Context) {
	state := h.registry.State()

	parsers := make([]catalogEntry, 0, state.Parsers.Len())
	for _, parser := range state.Parsers.Values() {
		parsers = append(parsers, catalogEntry{Name: parser.Name(), Link: parser.Link(), Local: parser.Local()})
	}

	templates := make([]catalogEntry, 0, state.Templates.Len())
	for _, tmpl := range state.Templates.Values() {
		templates = append(templates, catalogEntry{Name: tmpl.Name(), Link: tmpl.Link(), Local: tmpl.Local()})
	}

	c.JSON(http.StatusOK, gin.H{
		"parsers":   parsers,
		"templates": templates,
	})
}

func (h *Handler) APIRefresh(c *gin.Context) {
	err := h.registry.Refresh(c.Request.Context())
	state := h.registry.State()

	response := gin.H{
		"success":   err == nil,
		"parsers":   state.Parsers.Len(),
		"templates": state.Templates.Len(),
	}

	var refreshErr *registry.RefreshError
	switch {
	case err == nil:
	case errors.As(err, &refreshErr):
		failures := make([]string, len(refreshErr.Failures))
		for i, failure := range refreshErr.Failures {
			failures[i] = failure.Error()
		}
		response["failures"] = failures
	default:
		slog.Error("Catalog refresh request failed", "error", err)
		response["error"] = err.Error()
		c.JSON(http.StatusBadGateway, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APIListRefreshes(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Refresh history is disabled (DB_PATH not set)"})
		return
	}

	limit := database.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := h.history.ListRefreshes(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_refreshes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	refreshes := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		refreshes = append(refreshes, map[string]interface{}{
			"id":          record.ID,
			"started_at":  record.StartedAt.Format(time.RFC3339),
			"finished_at": record.FinishedAt.Format(time.RFC3339),
			"duration":    record.FinishedAt.Sub(record.StartedAt).String(),
			"parsers":     record.ParserCount,
			"templates":   record.TemplateCount,
			"failures":    record.FailureCount,
			"error":       record.Error,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"refreshes": refreshes,
		"total":     len(refreshes),
	})
}
