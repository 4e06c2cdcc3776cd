package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation
	"time"     // Time durations

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Exact money amounts

	"wallet_ledger/internal/domain" // Importing domain models
	"wallet_ledger/internal/ledger" // Ledger engine
)

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	ID           uint            `json:"id"`           // User ID
	Email        string          `json:"email"`        // Login email
	FullName     string          `json:"fullName"`     // Display name
	Role         string          `json:"role"`         // User role
	WalletNumber int64           `json:"walletNumber"` // Associated wallet number
	Balance      decimal.Decimal `json:"balance"`      // Associated wallet balance
}

// adminPage is a paginated admin listing as returned and cached
type adminPage[T any] struct {
	Items      []T   `json:"items"`       // Items on this page
	Page       int   `json:"page"`        // Current page
	PageSize   int   `json:"page_size"`   // Page size
	Total      int64 `json:"total"`       // Total number of items
	TotalPages int   `json:"total_pages"` // Total pages
}

// pagination reads page and page_size, defaulting to 1 and 20
func pagination(c *gin.Context) (page, pageSize int) {
	page = 1      // Default page number
	pageSize = 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size
		}
	}
	return page, pageSize
}

func newAdminPage[T any](items []T, page, pageSize int, total int64) adminPage[T] {
	if items == nil {
		items = []T{}
	}
	return adminPage[T]{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (int(total) + pageSize - 1) / pageSize, // Calculate total pages
	}
}

// ListUsersHandler returns all users with their wallet info
func ListUsersHandler(svc *ledger.Service, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := pagination(c)
		// Create a cache key based on pagination parameters
		cacheKey := "admin:users:page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		resp, err := cached(ctx, rdb, cacheKey, ttl, func() (adminPage[UserAdminResponse], error) {
			res, err := svc.ListUsers(ctx, (page-1)*pageSize, pageSize)
			if err != nil {
				return adminPage[UserAdminResponse]{}, err
			}
			// Map users to response format
			users := make([]UserAdminResponse, len(res.Users))
			for i, u := range res.Users {
				users[i] = UserAdminResponse{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}
				if u.Wallet != nil {
					users[i].WalletNumber = u.Wallet.WalletNumber
					users[i].Balance = u.Wallet.Balance
				}
			}
			return newAdminPage(users, page, pageSize, res.Total), nil
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// ListTransactionsHandler returns the journal, with optional filtering by wallet, type, or date
func ListTransactionsHandler(svc *ledger.Service, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := pagination(c)
		var f ledger.TransactionFilter
		if raw := c.Query("wallet_number"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				badRequest(c, "Invalid wallet number")
				return
			}
			f.WalletNumber = n
		}
		if raw := c.Query("type"); raw != "" {
			t, ok := domain.ParseTransactionType(raw)
			if !ok {
				badRequest(c, "Invalid transaction type")
				return
			}
			f.Type = t
		}
		from, ok := parseDate(c, "from", svc.Location())
		if !ok {
			badRequest(c, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		if from != nil {
			f.From = *from
		}
		to, ok := parseDate(c, "to", svc.Location())
		if !ok {
			badRequest(c, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		if to != nil {
			f.To = to.AddDate(0, 0, 1) // Inclusive end date
		}
		// Build cache key from all query params
		var keyParts []string
		for _, k := range []string{"wallet_number", "type", "from", "to"} {
			keyParts = append(keyParts, k+"="+c.Query(k))
		}
		keyParts = append(keyParts, "page="+strconv.Itoa(page), "size="+strconv.Itoa(pageSize))
		cacheKey := "admin:txs:" + strings.Join(keyParts, ":")
		resp, err := cached(ctx, rdb, cacheKey, ttl, func() (adminPage[domain.Transaction], error) {
			res, err := svc.ListTransactions(ctx, f, (page-1)*pageSize, pageSize)
			if err != nil {
				return adminPage[domain.Transaction]{}, err
			}
			return newAdminPage(res.Transactions, page, pageSize, res.Total), nil
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// ReconcileHandler checks a wallet's balance against its journal
func ReconcileHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		number, err := strconv.ParseInt(c.Param("walletNumber"), 10, 64)
		if err != nil {
			badRequest(c, "Invalid wallet number")
			return
		}
		rec, err := svc.Reconcile(c.Request.Context(), number)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": ledger.StatusSuccess, "data": rec})
	}
}
