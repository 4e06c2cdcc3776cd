package api

import (
	"net/http" // HTTP status codes
	"regexp"   // Regular expressions
	"time"     // Token lifetime

	"github.com/gin-gonic/gin" // Gin web framework

	"wallet_ledger/internal/ledger" // Ledger engine
	"wallet_ledger/internal/utils"  // Utility functions
)

// Request struct for registration
type RegisterRequest struct {
	Email    string `json:"email"`    // Login email
	Password string `json:"password"` // Plain password, hashed before storage
	Pin      string `json:"pin"`      // Transaction PIN
	FullName string `json:"fullName"` // Display name
	Username string `json:"username"` // Handle
	Gender   string `json:"gender"`   // Optional
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	Status  string `json:"status"`  // Success marker
	Message string `json:"message"` // Human readable outcome
	Token   string `json:"token"`   // JWT token
}

var pinPattern = regexp.MustCompile(`^[0-9]{6}$`)

// isValidPassword checks if the password length is between 8 and 64 characters
func isValidPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 64 // Return true if length is valid
}

// isValidPin checks that the PIN is exactly six digits
func isValidPin(pin string) bool {
	return pinPattern.MatchString(pin)
}

// RegisterHandler opens a new account with its wallet
func RegisterHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			badRequest(c, "Invalid request")
			return
		}
		// Missing fields are reported by the ledger; only check format here
		if req.Password != "" && !isValidPassword(req.Password) {
			badRequest(c, "Password must be 8-64 characters")
			return
		}
		if req.Pin != "" && !isValidPin(req.Pin) {
			badRequest(c, "Pin must be 6 digits")
			return
		}
		user, err := svc.OpenAccount(c.Request.Context(), ledger.NewAccount{
			Email:    req.Email,
			Password: req.Password,
			Pin:      req.Pin,
			FullName: req.FullName,
			Username: req.Username,
			Gender:   req.Gender,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		// Return success response with the allocated wallet number
		c.JSON(http.StatusCreated, gin.H{
			"status":       ledger.StatusSuccess,
			"message":      "User registered successfully",
			"walletNumber": user.Wallet.WalletNumber,
		})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(svc *ledger.Service, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			badRequest(c, "Invalid request")
			return
		}
		user, err := svc.Authenticate(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, user.Email, jwtSecret, ttl)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"status": ledger.StatusError, "message": "Failed to generate token"})
			return
		}
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Status: ledger.StatusSuccess, Message: "Login succeed", Token: token})
	}
}
