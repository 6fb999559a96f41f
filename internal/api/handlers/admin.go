package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/efootballarena/backend/internal/admin"
	"github.com/efootballarena/backend/internal/config"
	"github.com/efootballarena/backend/internal/engine"
	"github.com/efootballarena/backend/internal/middleware"
	"github.com/efootballarena/backend/internal/settings"
	"github.com/efootballarena/backend/internal/store"
	"github.com/efootballarena/backend/internal/wallet"
)

// AdminLogin validates phone + token and issues a session JWT.
func AdminLogin(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Phone string `json:"phone" binding:"required"`
			Token string `json:"token" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		phone := strings.TrimSpace(req.Phone)
		acc, err := admin.ValidateAdminPhoneAndToken(db, phone, strings.TrimSpace(req.Token))
		if err != nil {
			log.Printf("[ADMIN] Login failed for %s: %v", phone, err)
			admin.LogAdminAction(db, phone, c.ClientIP(), c.FullPath(), "login", nil, false)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		token, err := middleware.IssueAdminToken(cfg, acc.Phone)
		if err != nil {
			log.Printf("[ADMIN] Failed to issue token for %s: %v", phone, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}

		admin.LogAdminAction(db, phone, c.ClientIP(), c.FullPath(), "login", nil, true)
		c.JSON(http.StatusOK, gin.H{"token": token, "display_name": acc.DisplayName})
	}
}

// AdminResolveMatch declares the winner of a contested match.
func AdminResolveMatch(db *sqlx.DB, eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			WinnerID int64 `json:"winner_id" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		matchID := c.Param("id")
		adminPhone := c.GetString("admin_phone")
		err := eng.Resolve(c.Request.Context(), matchID, req.WinnerID)
		admin.LogAdminAction(db, adminPhone, c.ClientIP(), c.FullPath(), "resolve_match",
			map[string]interface{}{"match_id": matchID, "winner_id": req.WinnerID}, err == nil)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"match_id": matchID, "winner_id": req.WinnerID})
	}
}

// AdminCancelMatch voids a live match and refunds both stakes.
func AdminCancelMatch(db *sqlx.DB, eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		matchID := c.Param("id")
		adminPhone := c.GetString("admin_phone")
		err := eng.CancelMatch(c.Request.Context(), matchID)
		admin.LogAdminAction(db, adminPhone, c.ClientIP(), c.FullPath(), "cancel_match",
			map[string]interface{}{"match_id": matchID}, err == nil)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"match_id": matchID, "status": "cancelled"})
	}
}

// AdminRecentMatches lists the latest matches.
func AdminRecentMatches(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		matches, err := st.RecentMatches(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load matches"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"matches": matches})
	}
}

// AdminApproveDeposit credits a pending deposit.
func AdminApproveDeposit(db *sqlx.DB, svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
			return
		}
		adminPhone := c.GetString("admin_phone")
		req, err := svc.ApproveDeposit(c.Request.Context(), reqID)
		admin.LogAdminAction(db, adminPhone, c.ClientIP(), c.FullPath(), "approve_deposit",
			map[string]interface{}{"request_id": reqID}, err == nil)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, req)
	}
}

// AdminApproveWithdrawal marks a pending withdrawal paid out.
func AdminApproveWithdrawal(db *sqlx.DB, svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
			return
		}
		adminPhone := c.GetString("admin_phone")
		req, err := svc.ApproveWithdrawal(c.Request.Context(), reqID)
		admin.LogAdminAction(db, adminPhone, c.ClientIP(), c.FullPath(), "approve_withdrawal",
			map[string]interface{}{"request_id": reqID}, err == nil)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, req)
	}
}

// AdminRejectWithdrawal refunds and rejects a pending withdrawal.
func AdminRejectWithdrawal(db *sqlx.DB, svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
			return
		}
		adminPhone := c.GetString("admin_phone")
		req, err := svc.RejectWithdrawal(c.Request.Context(), reqID)
		admin.LogAdminAction(db, adminPhone, c.ClientIP(), c.FullPath(), "reject_withdrawal",
			map[string]interface{}{"request_id": reqID}, err == nil)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, req)
	}
}

// AdminSetSetting upserts a runtime setting.
func AdminSetSetting(db *sqlx.DB, svc *settings.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Key   string `json:"key" binding:"required"`
			Value string `json:"value"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		adminPhone := c.GetString("admin_phone")
		err := svc.Set(c.Request.Context(), req.Key, req.Value)
		admin.LogAdminAction(db, adminPhone, c.ClientIP(), c.FullPath(), "set_setting",
			map[string]interface{}{"key": req.Key}, err == nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save setting"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"key": req.Key, "value": req.Value})
	}
}

// AdminAuditLogs lists recent admin actions.
func AdminAuditLogs(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		logs, err := admin.GetAdminAuditLogs(db, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load audit logs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs})
	}
}
