package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Cache TTL

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Exact money amounts

	"wallet_ledger/internal/ledger" // Ledger engine
	"wallet_ledger/internal/utils"  // Utility functions
)

// TransferRequest represents a transfer request
type TransferRequest struct {
	WalletNumber int64            `json:"walletNumber"` // Target wallet number
	Amount       *decimal.Decimal `json:"amount"`       // Transfer amount, nil when omitted
	Pin          string           `json:"pin"`          // Sender PIN
	Notes        string           `json:"notes"`        // Free text note
}

// TopUpRequest represents a top up request
type TopUpRequest struct {
	Amount        *decimal.Decimal `json:"amount"`        // Top up amount, nil when omitted
	PaymentMethod string           `json:"paymentMethod"` // External funding source
	Pin           string           `json:"pin"`           // User PIN
	Description   string           `json:"description"`   // Free text note
}

// TransferHandler moves funds from the user's wallet to another wallet
func TransferHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req TransferRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		res, err := svc.Transfer(c.Request.Context(), userID, ledger.TransferInput{
			ToWalletNumber: req.WalletNumber,
			Amount:         req.Amount,
			Pin:            req.Pin,
			Notes:          req.Notes,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		// Balances moved on both sides
		invalidate(c.Request.Context(), rdb, userID, res.RecipientUserID)
		c.JSON(http.StatusOK, res)
	}
}

// TopUpHandler credits the user's wallet from an external payment method
func TopUpHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req TopUpRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		res, err := svc.TopUp(c.Request.Context(), userID, ledger.TopUpInput{
			Amount:        req.Amount,
			PaymentMethod: req.PaymentMethod,
			Pin:           req.Pin,
			Description:   req.Description,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		invalidate(c.Request.Context(), rdb, userID)
		c.JSON(http.StatusOK, res)
	}
}

// BalanceHandler returns the wallet balance, served from cache when possible
func BalanceHandler(svc *ledger.Service, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		view, err := cachedForUser(ctx, rdb, userID, utils.BalanceKey(userID), ttl, func() (*ledger.BalanceView, error) {
			return svc.Balance(ctx, userID)
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  ledger.StatusSuccess,
			"message": "Balance retrieved successfully",
			"data":    view,
		})
	}
}

// WalletOwnerHandler resolves the holder of a wallet number
func WalletOwnerHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		number, err := strconv.ParseInt(c.Param("walletNumber"), 10, 64)
		if err != nil {
			badRequest(c, "Invalid wallet number")
			return
		}
		owner, err := svc.WalletOwner(c.Request.Context(), number)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": ledger.StatusSuccess, "data": owner})
	}
}
