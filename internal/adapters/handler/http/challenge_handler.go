package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/services"
)

const maxPhotoBytes = 10 << 20

type ChallengeHandler struct{}

func NewChallengeHandler() *ChallengeHandler {
	return &ChallengeHandler{}
}

func (h *ChallengeHandler) RegisterRoutes(router *gin.RouterGroup) {
	challenge := router.Group("/challenge")
	{
		challenge.GET("", h.Get)
		challenge.PUT("/start-date", h.SetStartDate)
		challenge.POST("/reset", h.Reset)

		entries := challenge.Group("/entries/:date")
		entries.GET("", h.GetEntry)
		entries.PATCH("", h.PatchEntry)
		entries.POST("/toggle/:habit", h.ToggleHabit)
		entries.PUT("/water", h.SetWater)
		entries.POST("/water/increment", h.IncrementWater)
		entries.POST("/photos", h.UploadPhoto)
		entries.DELETE("/photos", h.DeletePhoto)
	}

	router.PUT("/profile/name", h.SetUserName)
	router.POST("/onboarding/challenge", h.CompleteOnboarding)
	router.POST("/onboarding/habits", h.CompleteHabitOnboarding)
}

type challengeResponse struct {
	Today     string                   `json:"today"`
	DayNumber int                      `json:"day_number"`
	SyncError string                   `json:"sync_error,omitempty"`
	Document  domain.ChallengeDocument `json:"document"`
	Device    domain.DeviceFlags       `json:"device"`
}

type setWaterRequest struct {
	Water *int `json:"water" binding:"required"`
}

type setStartDateRequest struct {
	StartDate string `json:"start_date" binding:"required"`
}

type setUserNameRequest struct {
	Name string `json:"name"`
}

type toggleResponse struct {
	Entry   domain.ChallengeEntry `json:"entry"`
	Toggled bool                  `json:"toggled"`
}

type photoResponse struct {
	URL   string                `json:"url"`
	Entry domain.ChallengeEntry `json:"entry"`
}

// currentSession is set by middleware.SessionMiddleware on every route here.
func currentSession(c *gin.Context) (*services.Session, bool) {
	s, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return s, ok
}

func (h *ChallengeHandler) Get(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	snap := s.Challenge.Snapshot()
	overview := s.Stats.Overview()

	c.JSON(http.StatusOK, challengeResponse{
		Today:     overview.Today,
		DayNumber: overview.DayNumber,
		SyncError: s.Sync.SyncError(),
		Document:  snap.Challenge,
		Device:    snap.Device,
	})
}

func (h *ChallengeHandler) GetEntry(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	date := c.Param("date")
	if !domain.IsValidDate(date) {
		handleError(c, domain.ErrInvalidDate)
		return
	}
	c.JSON(http.StatusOK, s.Challenge.GetEntry(date))
}

func (h *ChallengeHandler) PatchEntry(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	var patch domain.EntryPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	entry, err := s.Challenge.PatchEntry(c.Param("date"), patch)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *ChallengeHandler) ToggleHabit(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	entry, known, err := s.Challenge.ToggleHabit(c.Param("date"), c.Param("habit"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toggleResponse{Entry: entry, Toggled: known})
}

func (h *ChallengeHandler) SetWater(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	var req setWaterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	entry, err := s.Challenge.SetWater(c.Param("date"), *req.Water)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *ChallengeHandler) IncrementWater(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	entry, err := s.Challenge.AddWater(c.Param("date"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *ChallengeHandler) UploadPhoto(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	if fh.Size > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		handleError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxPhotoBytes+1))
	if err != nil {
		handleError(c, err)
		return
	}
	if len(data) > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo too large"})
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be an image"})
		return
	}

	date := c.Param("date")
	url, err := s.Sync.UploadPhoto(c.Request.Context(), date, fh.Filename, contentType, data)
	if err != nil {
		handleBlobError(c, err)
		return
	}

	c.JSON(http.StatusCreated, photoResponse{URL: url, Entry: s.Challenge.GetEntry(date)})
}

func (h *ChallengeHandler) DeletePhoto(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	date := c.Param("date")
	if err := s.Sync.DeletePhoto(c.Request.Context(), date, url); err != nil {
		handleBlobError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.Challenge.GetEntry(date))
}

func (h *ChallengeHandler) SetStartDate(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	var req setStartDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := s.Challenge.SetStartDate(req.StartDate); err != nil {
		handleError(c, err)
		return
	}

	snap := s.Challenge.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"start_date":        snap.Challenge.StartDate,
		"start_date_locked": snap.Challenge.StartDateLocked,
	})
}

func (h *ChallengeHandler) Reset(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	if err := s.Challenge.ResetChallenge(); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChallengeHandler) SetUserName(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	var req setUserNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := s.Challenge.SetUserName(req.Name); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChallengeHandler) CompleteOnboarding(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	if err := s.Sync.CompleteOnboarding(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChallengeHandler) CompleteHabitOnboarding(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	if err := s.Sync.CompleteHabitOnboarding(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
