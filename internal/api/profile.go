package api

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client

	"wallet_ledger/internal/ledger" // Ledger engine
)

// ProfileRequest carries editable profile fields
type ProfileRequest struct {
	FullName  string `json:"fullName"`  // Display name
	Username  string `json:"username"`  // Handle
	AvatarURL string `json:"avatarUrl"` // Avatar image location
}

// ProfileHandler returns the user's profile with wallet details
func ProfileHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		profile, err := svc.Profile(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": ledger.StatusSuccess, "message": "User profile fetched", "data": profile})
	}
}

// UpdateProfileHandler edits the user's display fields
func UpdateProfileHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req ProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		profile, err := svc.UpdateProfile(c.Request.Context(), userID, ledger.ProfileUpdate{
			FullName:  req.FullName,
			Username:  req.Username,
			AvatarURL: req.AvatarURL,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		// Cached balance carries the account name
		invalidate(c.Request.Context(), rdb, userID)
		c.JSON(http.StatusOK, gin.H{"status": ledger.StatusSuccess, "message": "Profile updated", "data": profile})
	}
}
