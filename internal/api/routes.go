package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/efootballarena/backend/internal/api/handlers"
	"github.com/efootballarena/backend/internal/config"
	"github.com/efootballarena/backend/internal/engine"
	"github.com/efootballarena/backend/internal/ledger"
	"github.com/efootballarena/backend/internal/middleware"
	"github.com/efootballarena/backend/internal/players"
	"github.com/efootballarena/backend/internal/settings"
	"github.com/efootballarena/backend/internal/store"
	"github.com/efootballarena/backend/internal/wallet"
	"github.com/efootballarena/backend/internal/ws"
)

// Services bundles everything the routes need.
type Services struct {
	DB       *sqlx.DB
	Cfg      *config.Config
	Engine   *engine.Engine
	Players  *players.Service
	Ledger   *ledger.Service
	Wallet   *wallet.Service
	Settings *settings.Service
	Store    *store.Store
	Hub      *ws.Hub
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, s *Services) {
	router.Use(middleware.CORSMiddleware(s.Cfg))

	if s.Cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.GET("/ws", ws.HandleConnection(s.Hub))
		v1.GET("/leaderboard", handlers.Leaderboard(s.Players))
		v1.GET("/rules", handlers.GetRules(s.Settings))

		// Match endpoints
		match := v1.Group("/match")
		{
			match.POST("/request", handlers.RequestMatch(s.Engine, s.Settings))
			match.POST("/cancel", handlers.CancelSearch(s.Engine))
			match.GET("/challenge", handlers.GetChallenge(s.Engine))
			match.GET("/:id", handlers.GetMatch(s.Engine))
			match.POST("/:id/room-code", handlers.SetRoomCode(s.Engine))
			match.POST("/:id/evidence", handlers.SubmitEvidence(s.Engine))
		}

		// Player endpoints
		player := v1.Group("/player")
		{
			player.POST("", handlers.UpsertPlayer(s.Players))
			player.GET("/:id", handlers.GetProfile(s.Players))
			player.POST("/:id/register", handlers.CompleteRegistration(s.Players))
			player.GET("/:id/balance", handlers.GetBalance(s.Ledger))
			player.GET("/:id/matches", handlers.MatchHistory(s.Store))
		}

		// Wallet endpoints
		walletGroup := v1.Group("/wallet")
		{
			walletGroup.POST("/deposit", handlers.CreateDeposit(s.Wallet))
			walletGroup.POST("/withdraw", handlers.CreateWithdrawal(s.Wallet))
		}

		// Admin endpoints
		adminGroup := v1.Group("/admin")
		{
			adminGroup.POST("/login", handlers.AdminLogin(s.DB, s.Cfg))

			authed := adminGroup.Group("", middleware.AdminAuth(s.Cfg))
			{
				authed.GET("/matches", handlers.AdminRecentMatches(s.Store))
				authed.POST("/match/:id/resolve", handlers.AdminResolveMatch(s.DB, s.Engine))
				authed.POST("/match/:id/cancel", handlers.AdminCancelMatch(s.DB, s.Engine))
				authed.POST("/deposit/:id/approve", handlers.AdminApproveDeposit(s.DB, s.Wallet))
				authed.POST("/withdrawal/:id/approve", handlers.AdminApproveWithdrawal(s.DB, s.Wallet))
				authed.POST("/withdrawal/:id/reject", handlers.AdminRejectWithdrawal(s.DB, s.Wallet))
				authed.POST("/settings", handlers.AdminSetSetting(s.DB, s.Settings))
				authed.GET("/audit", handlers.AdminAuditLogs(s.DB))
			}
		}
	}
}
