package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

type HabitHandler struct {
	svc *services.HabitService
}

func NewHabitHandler(svc *services.HabitService) *HabitHandler {
	return &HabitHandler{
		svc: svc,
	}
}

type createHabitRequest struct {
	Name            string `json:"name" binding:"required"`
	Period          string `json:"period" binding:"required"`
	WithExampleData bool   `json:"with_example_data"`
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.POST("", h.Create)
		habits.GET("", h.List)
		habits.GET("/predefined", h.Predefined)
		habits.GET("/periodicity", h.Periodicity)
		habits.GET("/:name", h.Get)
		habits.DELETE("/:name", h.Delete)
		habits.POST("/:name/completions", h.Complete)
	}
}

func (h *HabitHandler) Create(c *gin.Context) {
	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	habit, err := h.svc.Create(c.Request.Context(), services.CreateHabitInput{
		Name:            req.Name,
		Period:          req.Period,
		WithExampleData: req.WithExampleData,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, habit.ToRecord())
}

func (h *HabitHandler) List(c *gin.Context) {
	habits, err := h.svc.ListByPeriod(c.Request.Context(), c.Query("period"))
	if err != nil {
		handleError(c, err)
		return
	}

	records := make([]domain.HabitRecord, 0, len(habits))
	for _, habit := range habits {
		records = append(records, habit.ToRecord())
	}
	c.JSON(http.StatusOK, records)
}

func (h *HabitHandler) Predefined(c *gin.Context) {
	c.JSON(http.StatusOK, services.PredefinedHabits())
}

func (h *HabitHandler) Periodicity(c *gin.Context) {
	groups, err := h.svc.GroupByPeriod(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *HabitHandler) Get(c *gin.Context) {
	habit, err := h.svc.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, habit.ToRecord())
}

func (h *HabitHandler) Delete(c *gin.Context) {
	if err := h.svc.Remove(c.Request.Context(), c.Param("name")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Complete records a completion for today, or for the day given in ?date=.
func (h *HabitHandler) Complete(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Param("name")

	var (
		recorded bool
		err      error
	)
	if raw := c.Query("date"); raw != "" {
		var day time.Time
		day, err = domain.ParseDate(raw)
		if err != nil {
			handleError(c, errInvalidDate)
			return
		}
		recorded, err = h.svc.CompleteOn(ctx, name, day)
	} else {
		recorded, err = h.svc.Complete(ctx, name)
	}
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recorded": recorded})
}
