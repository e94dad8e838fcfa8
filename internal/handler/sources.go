package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repopulse/internal/repository"
)

type SourcesHandler struct {
	Store repository.Store
}

func (h *SourcesHandler) Register(r *gin.Engine) {
	r.GET("/api/sources/health", h.health)
}

func (h *SourcesHandler) health(c *gin.Context) {
	rows, err := h.Store.ListSourceHealth(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, rows, nil)
}
