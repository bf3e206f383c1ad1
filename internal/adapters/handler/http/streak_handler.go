package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

type StreakHandler struct {
	svc *services.StreakService
}

func NewStreakHandler(svc *services.StreakService) *StreakHandler {
	return &StreakHandler{svc: svc}
}

func (h *StreakHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/habits/:name/streaks", h.HabitStreaks)

	stats := r.Group("/stats")
	{
		stats.GET("/streaks", h.Report)
		stats.GET("/ranking", h.Ranking)
		stats.GET("/longest-run", h.LongestRun)
	}
}

func (h *StreakHandler) HabitStreaks(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context(), c.Param("name"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *StreakHandler) Report(c *gin.Context) {
	report, err := h.svc.Report(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *StreakHandler) Ranking(c *gin.Context) {
	ranking, err := h.svc.Ranking(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ranking)
}

func (h *StreakHandler) LongestRun(c *gin.Context) {
	name, ok, err := h.svc.LongestRun(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no habits tracked yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"habit": name})
}
