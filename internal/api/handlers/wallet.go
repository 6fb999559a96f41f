package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/efootballarena/backend/internal/ledger"
	"github.com/efootballarena/backend/internal/wallet"
)

// GetBalance returns the player's current balance.
func GetBalance(ldg *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || playerID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
			return
		}
		balance, err := ldg.Balance(c.Request.Context(), playerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load balance"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"player_id": playerID, "balance": balance})
	}
}

// CreateDeposit records a pending top-up claim for admin review.
func CreateDeposit(svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PlayerID int64   `json:"player_id" binding:"required"`
			TxID     string  `json:"txid" binding:"required"`
			Amount   float64 `json:"amount" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		id, err := svc.CreateDepositRequest(c.Request.Context(), req.PlayerID, req.TxID, req.Amount)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"request_id": id, "status": "pending"})
	}
}

// CreateWithdrawal debits the amount and records a pending payout claim.
func CreateWithdrawal(svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PlayerID      int64   `json:"player_id" binding:"required"`
			Amount        float64 `json:"amount" binding:"required"`
			Method        string  `json:"method" binding:"required"`
			AccountNumber string  `json:"account_number" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		id, err := svc.CreateWithdrawalRequest(c.Request.Context(), req.PlayerID, req.Amount, req.Method, req.AccountNumber)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"request_id": id, "status": "pending"})
	}
}
