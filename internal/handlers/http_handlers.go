package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"giveaway/internal/config"
	"giveaway/internal/models"
	"giveaway/internal/services"
)

// HTTPHandler holds the dependencies for the HTTP handlers: the giveaway
// service and the configured creation defaults.
type HTTPHandler struct {
	service  *services.GiveawayService
	defaults config.GiveawayConfig
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.GiveawayService, defaults config.GiveawayConfig) *HTTPHandler {
	return &HTTPHandler{
		service:  service,
		defaults: defaults,
	}
}

// RegisterRoutes registers all the application routes.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/giveaways", h.CreateGiveaway)
	api.GET("/giveaways/:id", h.GetGiveaway)
	api.POST("/giveaways/:id/entries", h.Enter)
	api.DELETE("/giveaways/:id/entries/:participant", h.Withdraw)
	api.GET("/giveaways/:id/participants", h.ListParticipants)
	api.POST("/giveaways/:id/close", h.ForceClose)
	api.DELETE("/giveaways/:id", h.RemoveGiveaway)
}

type createGiveawayRequest struct {
	Prize       string         `json:"prize" binding:"required"`
	HostID      string         `json:"host_id" binding:"required"`
	Duration    string         `json:"duration"`
	WinnerCount int            `json:"winner_count"`
	BonusRules  map[string]int `json:"bonus_rules"`
	ClaimWindow string         `json:"claim_window"`
}

type enterRequest struct {
	ParticipantID string   `json:"participant_id" binding:"required"`
	Groups        []string `json:"groups"`
}

// CreateGiveaway starts a new drawing. Missing fields fall back to the
// configured defaults; durations accept the "10s/5m/1h/2d" shorthand.
func (h *HTTPHandler) CreateGiveaway(c *gin.Context) {
	var req createGiveawayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	duration := h.defaults.DefaultDuration
	if req.Duration != "" {
		var err error
		if duration, err = ParseDuration(req.Duration); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	claimWindow := h.defaults.DefaultClaimWindow
	if req.ClaimWindow != "" {
		var err error
		if claimWindow, err = ParseDuration(req.ClaimWindow); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	winnerCount := req.WinnerCount
	if winnerCount == 0 {
		winnerCount = h.defaults.DefaultWinnerCount
	}
	bonusRules := models.BonusRules(req.BonusRules)
	if bonusRules == nil {
		bonusRules = h.defaults.BonusGroups
	}

	deadline := time.Now().Add(duration)
	id, err := h.service.CreateGiveaway(models.GiveawayConfig{
		Prize:       req.Prize,
		HostID:      req.HostID,
		Deadline:    deadline,
		WinnerCount: winnerCount,
		BonusRules:  bonusRules,
		ClaimWindow: claimWindow,
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "deadline": deadline})
}

// GetGiveaway returns the panel view of one giveaway.
func (h *HTTPHandler) GetGiveaway(c *gin.Context) {
	summary, err := h.service.Describe(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Enter adds a participant to a giveaway.
func (h *HTTPHandler) Enter(c *gin.Context) {
	var req enterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Enter(c.Param("id"), req.ParticipantID, req.Groups); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "entered"})
}

// Withdraw removes a participant from a giveaway.
func (h *HTTPHandler) Withdraw(c *gin.Context) {
	if err := h.service.Withdraw(c.Param("id"), c.Param("participant")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "withdrawn"})
}

// ListParticipants returns the current entrants, sorted by id.
func (h *HTTPHandler) ListParticipants(c *gin.Context) {
	participants, err := h.service.ListParticipants(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

// ForceClose ends a giveaway immediately and returns the winners.
func (h *HTTPHandler) ForceClose(c *gin.Context) {
	winners, err := h.service.ForceClose(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if winners == nil {
		winners = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"winners": winners})
}

// RemoveGiveaway drops a closed giveaway from the registry.
func (h *HTTPHandler) RemoveGiveaway(c *gin.Context) {
	if err := h.service.RemoveGiveaway(c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrAlreadyEntered),
		errors.Is(err, services.ErrNotEntered),
		errors.Is(err, services.ErrNotClosed):
		return http.StatusConflict
	case errors.Is(err, services.ErrAlreadyClosed):
		return http.StatusGone
	case errors.Is(err, services.ErrInvalidConfig):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
