package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/efootballarena/backend/internal/engine"
	"github.com/efootballarena/backend/internal/settings"
	"github.com/efootballarena/backend/internal/store"
)

// RequestMatch pairs the caller against a waiting opponent at the same
// stake or queues a new challenge. Free play can be switched off at
// runtime without a restart.
func RequestMatch(eng *engine.Engine, cfgStore *settings.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PlayerID int64   `json:"player_id" binding:"required"`
			Stake    float64 `json:"stake"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		if req.Stake == 0 {
			status, err := cfgStore.Get(c.Request.Context(), settings.KeyFreePlayStatus)
			if err == nil && status == "off" {
				c.JSON(http.StatusForbidden, gin.H{"error": "Free play is currently disabled"})
				return
			}
		}

		result, err := eng.RequestMatch(c.Request.Context(), req.PlayerID, req.Stake)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// CancelSearch withdraws the caller's waiting challenge.
func CancelSearch(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PlayerID int64 `json:"player_id" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		existed, err := eng.CancelSearch(c.Request.Context(), req.PlayerID)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"cancelled": existed})
	}
}

// SetRoomCode records the room code from player1 and opens the match.
func SetRoomCode(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PlayerID int64  `json:"player_id" binding:"required"`
			RoomCode string `json:"room_code" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		matchID := c.Param("id")
		if err := eng.SetRoomCode(c.Request.Context(), matchID, req.PlayerID, req.RoomCode); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"match_id": matchID, "status": "in_progress"})
	}
}

// SubmitEvidence stores the caller's proof of outcome.
func SubmitEvidence(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PlayerID    int64  `json:"player_id" binding:"required"`
			EvidenceRef string `json:"evidence_ref" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		matchID := c.Param("id")
		if err := eng.SubmitEvidence(c.Request.Context(), matchID, req.PlayerID, req.EvidenceRef); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"match_id": matchID, "submitted": true})
	}
}

// GetMatch returns the stored match record.
func GetMatch(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := eng.QueryMatch(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

// GetChallenge reports whether the player has a waiting challenge.
func GetChallenge(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, err := strconv.ParseInt(c.Query("player_id"), 10, 64)
		if err != nil || playerID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player_id"})
			return
		}
		ch := eng.QueryChallenge(playerID)
		if ch == nil {
			c.JSON(http.StatusOK, gin.H{"searching": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"searching": true, "challenge": ch})
	}
}

// MatchHistory lists the player's recent matches.
func MatchHistory(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || playerID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		matches, err := st.MatchesForPlayer(c.Request.Context(), playerID, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load matches"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"matches": matches})
	}
}
