package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation
	"time"     // Date parsing and cache TTL

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client

	"wallet_ledger/internal/ledger" // Ledger engine
	"wallet_ledger/internal/utils"  // Utility functions
)

// dateLayout is the format of fromDate and toDate
const dateLayout = "2006-01-02"

// parseDate reads an optional calendar date from the query string
func parseDate(c *gin.Context, name string, loc *time.Location) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// HistoryHandler lists the user's journal with filters and ordering
func HistoryHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		from, ok := parseDate(c, "fromDate", svc.Location())
		if !ok {
			badRequest(c, "Invalid fromDate, expected YYYY-MM-DD")
			return
		}
		to, ok := parseDate(c, "toDate", svc.Location())
		if !ok {
			badRequest(c, "Invalid toDate, expected YYYY-MM-DD")
			return
		}
		rows, err := svc.History(c.Request.Context(), userID, ledger.HistoryQuery{
			Type:   c.Query("transactionType"),
			From:   from,
			To:     to,
			Search: c.Query("search"),
			Sort:   c.Query("sortOrder"),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": ledger.StatusSuccess, "data": rows})
	}
}

// SummaryHandler returns income, expense and balance totals
func SummaryHandler(svc *ledger.Service, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		summary, err := cachedForUser(ctx, rdb, userID, utils.SummaryKey(userID), ttl, func() (*ledger.Summary, error) {
			return svc.Summary(ctx, userID)
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": ledger.StatusSuccess, "data": summary})
	}
}

// CashflowHandler buckets income and expense by period
func CashflowHandler(svc *ledger.Service, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		period := strings.ToLower(strings.TrimSpace(c.DefaultQuery("period", ledger.PeriodMonthly)))
		rows, err := cachedForUser(ctx, rdb, userID, utils.CashflowKey(userID, period), ttl, func() ([]ledger.CashflowRow, error) {
			return svc.Cashflow(ctx, userID, period)
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": ledger.StatusSuccess, "period": period, "data": rows})
	}
}

// StatementHandler lists the journal rows of one calendar month
func StatementHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		// Unparseable values fall through as zero and are rejected by the ledger
		month, _ := strconv.Atoi(c.Query("month"))
		year, _ := strconv.Atoi(c.Query("year"))
		txs, err := svc.MonthlyTransactions(c.Request.Context(), userID, month, year)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": ledger.StatusSuccess, "data": txs})
	}
}
