package api

import (
	"time" // Token and cache lifetimes

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client

	"wallet_ledger/internal/ledger"     // Ledger engine
	"wallet_ledger/internal/middleware" // Custom middleware
)

// Deps are the collaborators shared by all handlers
type Deps struct {
	Ledger    *ledger.Service // Ledger operations
	Redis     *redis.Client   // Read model cache, optional
	JWTSecret string          // Token signing key
	JWTTTL    time.Duration   // Token lifetime
	CacheTTL  time.Duration   // Lifetime of cached read models
}

// RegisterRoutes mounts every endpoint on r
func RegisterRoutes(r *gin.Engine, d Deps) {
	if d.CacheTTL == 0 {
		d.CacheTTL = time.Minute
	}
	if d.JWTTTL == 0 {
		d.JWTTTL = 24 * time.Hour
	}

	// Auth routes
	auth := r.Group("/api/auth")
	auth.POST("/register", RegisterHandler(d.Ledger))                  // Registration endpoint
	auth.POST("/login", LoginHandler(d.Ledger, d.JWTSecret, d.JWTTTL)) // Login endpoint

	// Wallet routes (protected by JWT)
	user := r.Group("/api")
	user.Use(middleware.JWTAuthMiddleware(d.JWTSecret))
	user.POST("/transfer", TransferHandler(d.Ledger, d.Redis))
	user.POST("/topup", TopUpHandler(d.Ledger, d.Redis))
	user.GET("/balance", BalanceHandler(d.Ledger, d.Redis, d.CacheTTL))
	user.GET("/wallet/owner/:walletNumber", WalletOwnerHandler(d.Ledger))
	user.POST("/favorite", AddFavoriteHandler(d.Ledger))
	user.DELETE("/favorite/delete", DeleteFavoriteHandler(d.Ledger))
	user.GET("/getfavorites", ListFavoritesHandler(d.Ledger))
	user.GET("/history", HistoryHandler(d.Ledger))
	user.GET("/summary", SummaryHandler(d.Ledger, d.Redis, d.CacheTTL))
	user.GET("/cashflow", CashflowHandler(d.Ledger, d.Redis, d.CacheTTL))
	user.GET("/statement", StatementHandler(d.Ledger))
	user.GET("/profile", ProfileHandler(d.Ledger))
	user.PUT("/profile", UpdateProfileHandler(d.Ledger, d.Redis))

	// Admin routes (protected, admin only)
	admin := r.Group("/admin")
	admin.Use(middleware.JWTAuthMiddleware(d.JWTSecret), middleware.AdminOnlyMiddleware(d.Ledger))
	admin.GET("/users", ListUsersHandler(d.Ledger, d.Redis, d.CacheTTL))
	admin.GET("/transactions", ListTransactionsHandler(d.Ledger, d.Redis, d.CacheTTL))
	admin.GET("/wallets/:walletNumber/reconcile", ReconcileHandler(d.Ledger))
}
