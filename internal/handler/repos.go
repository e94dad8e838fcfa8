package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"repopulse/internal/repository"
)

// ReposHandler serves the trending leaderboard. The read window defaults to
// 24h so the UI shows a broader picture than the 6h scoring window.
type ReposHandler struct {
	Store repository.Store
	Now   func() time.Time
}

func (h *ReposHandler) Register(r *gin.Engine) {
	r.GET("/api/repos/top", h.top)
}

func (h *ReposHandler) top(c *gin.Context) {
	limit := queryInt(c, "limit", 20, 1, 200)
	windowHours := queryInt(c, "windowHours", 24, 1, 720)

	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	windowStart := now.Add(-time.Duration(windowHours) * time.Hour)

	rows, err := h.Store.TopRepositories(c.Request.Context(), windowStart, limit)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, rows, map[string]any{"limit": limit, "windowHours": windowHours})
}
