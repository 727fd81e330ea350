package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

type StatsHandler struct {
	calendar *domain.Calendar
}

func NewStatsHandler(calendar *domain.Calendar) *StatsHandler {
	return &StatsHandler{calendar: calendar}
}

func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	stats := r.Group("/stats")
	{
		stats.GET("/overview", h.GetOverview)
		stats.GET("/streaks", h.GetStreaks)
		stats.GET("/weekly", h.GetWeeklyStats)
		stats.GET("/monthly", h.GetMonthlyStats)
		stats.GET("/heatmap", h.GetHeatmap)
		stats.GET("/habits/weekly", h.GetHabitWeeklyStats)
		stats.GET("/habits/monthly", h.GetHabitMonthlyStats)
		stats.GET("/habits/heatmap", h.GetHabitHeatmap)
	}
}

// weekStart reads ?week_start, defaulting to the week that ends today.
func (h *StatsHandler) weekStart(c *gin.Context) string {
	if v := c.Query("week_start"); v != "" {
		return v
	}
	return domain.AddDays(h.calendar.Today(), -6)
}

// yearMonth reads ?year and ?month, defaulting to the current civil month.
func (h *StatsHandler) yearMonth(c *gin.Context) (int, time.Month, bool) {
	now := h.calendar.Now().In(domain.CivilZone)
	year, month := now.Year(), now.Month()

	if v := c.Query("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidYear.Error()})
			return 0, 0, false
		}
		year = y
	}
	if v := c.Query("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidMonth.Error()})
			return 0, 0, false
		}
		month = time.Month(m)
	}
	return year, month, true
}

func (h *StatsHandler) GetOverview(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Stats.Overview())
}

func (h *StatsHandler) GetStreaks(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Stats.Streaks())
}

func (h *StatsHandler) GetWeeklyStats(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	stats, err := s.Stats.Weekly(h.weekStart(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) GetMonthlyStats(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	year, month, ok := h.yearMonth(c)
	if !ok {
		return
	}

	stats, err := s.Stats.Monthly(year, month)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) GetHeatmap(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Stats.Heatmap())
}

func (h *StatsHandler) GetHabitWeeklyStats(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	stats, err := s.Stats.HabitWeekly(h.weekStart(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) GetHabitMonthlyStats(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	year, month, ok := h.yearMonth(c)
	if !ok {
		return
	}

	stats, err := s.Stats.HabitMonthly(year, month)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) GetHabitHeatmap(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	year, month, ok := h.yearMonth(c)
	if !ok {
		return
	}

	days, err := s.Stats.HabitHeatmap(year, month)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, days)
}
