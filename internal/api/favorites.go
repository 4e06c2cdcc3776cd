package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"github.com/gin-gonic/gin" // Gin web framework

	"wallet_ledger/internal/ledger" // Ledger engine
)

// FavoriteRequest names the wallet to remember
type FavoriteRequest struct {
	WalletNumber int64 `json:"walletNumber"` // Wallet number to save
}

// AddFavoriteHandler saves a transfer recipient for the user
func AddFavoriteHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req FavoriteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		res, err := svc.AddFavorite(c.Request.Context(), userID, req.WalletNumber)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// ListFavoritesHandler lists the user's favorites with live names
func ListFavoritesHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		favs, err := svc.ListFavorites(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": ledger.StatusSuccess, "data": favs})
	}
}

// DeleteFavoriteHandler removes a favorite by wallet number
func DeleteFavoriteHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		number, err := strconv.ParseInt(c.Query("walletNumber"), 10, 64)
		if err != nil {
			badRequest(c, "Invalid wallet number")
			return
		}
		res, err := svc.DeleteFavorite(c.Request.Context(), userID, number)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
