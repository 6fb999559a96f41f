package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/efootballarena/backend/internal/players"
	"github.com/efootballarena/backend/internal/settings"
)

// UpsertPlayer ensures a player row exists, recording the referrer on
// first contact.
func UpsertPlayer(svc *players.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PlayerID   int64  `json:"player_id" binding:"required"`
			Username   string `json:"username"`
			ReferrerID *int64 `json:"referrer_id"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		p, err := svc.GetOrCreate(c.Request.Context(), req.PlayerID, req.Username, req.ReferrerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create player"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// CompleteRegistration stores the in-game name and phone and pays the
// one-time bonuses.
func CompleteRegistration(svc *players.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || playerID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
			return
		}
		var req struct {
			IngameName  string `json:"ingame_name" binding:"required"`
			PhoneNumber string `json:"phone_number" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		p, err := svc.CompleteRegistration(c.Request.Context(), playerID, req.IngameName, req.PhoneNumber)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// GetProfile returns the player's profile, stats, and balance.
func GetProfile(svc *players.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || playerID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
			return
		}
		p, err := svc.Get(c.Request.Context(), playerID)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// Leaderboard returns registered players ranked by rating, then wins.
func Leaderboard(svc *players.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if limit <= 0 || limit > 100 {
			limit = 10
		}
		rows, err := svc.Leaderboard(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load leaderboard"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"leaderboard": rows})
	}
}

// GetRules returns the operator-editable rules text.
func GetRules(svc *settings.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		text, err := svc.Get(c.Request.Context(), settings.KeyRulesText)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load rules"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rules": text})
	}
}
