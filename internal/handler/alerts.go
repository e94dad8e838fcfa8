package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repopulse/internal/repository"
)

type AlertsHandler struct {
	Store repository.Store
}

func (h *AlertsHandler) Register(r *gin.Engine) {
	r.GET("/api/alerts", h.recent)
}

func (h *AlertsHandler) recent(c *gin.Context) {
	limit := queryInt(c, "limit", 50, 1, 500)

	rows, err := h.Store.RecentAlerts(c.Request.Context(), limit)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, rows, map[string]any{"limit": limit})
}
