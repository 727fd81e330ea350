package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

type HabitHandler struct{}

func NewHabitHandler() *HabitHandler {
	return &HabitHandler{}
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.GET("/categories", h.ListCategories)
		habits.POST("/categories", h.AddCategory)
		habits.PUT("/categories/order", h.ReorderCategories)
		habits.DELETE("/categories/:id", h.RemoveCategory)
		habits.GET("/entries/:date", h.GetEntry)
		habits.POST("/entries/:date/toggle/:id", h.Toggle)
	}
}

type addCategoryRequest struct {
	Name       string `json:"name" binding:"required"`
	Subtitle   string `json:"subtitle"`
	Icon       string `json:"icon"`
	ColorClass string `json:"colorClass"`
}

type reorderRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

func (h *HabitHandler) ListCategories(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Challenge.HabitCategories())
}

func (h *HabitHandler) AddCategory(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	var req addCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	category, err := s.Challenge.AddHabitCategory(domain.HabitCategorySpec{
		Name:       req.Name,
		Subtitle:   req.Subtitle,
		Icon:       req.Icon,
		ColorClass: req.ColorClass,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *HabitHandler) RemoveCategory(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	if err := s.Challenge.RemoveHabitCategory(c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HabitHandler) ReorderCategories(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	categories, err := s.Challenge.ReorderHabitCategories(req.IDs)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *HabitHandler) GetEntry(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	entry, err := s.Challenge.GetDailyHabitEntry(c.Param("date"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *HabitHandler) Toggle(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	entry, err := s.Challenge.ToggleDailyHabit(c.Param("date"), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
