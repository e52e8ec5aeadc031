package handler

import (
	"wallet-ledger/internal/adapter/http/middleware"
	redisStore "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	LedgerSvc      ports.LedgerService
	QuerySvc       ports.LedgerQueryService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (verifies PostgreSQL and Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	walletHandler := NewWalletHandler(deps.LedgerSvc, deps.QuerySvc)
	txHandler := NewTransactionHandler(deps.LedgerSvc, deps.QuerySvc)

	wallets := v1.Group("/wallets")
	{
		wallets.POST("", rl("wallets_create"), walletHandler.CreateWallet)
		wallets.GET("", rl("queries"), walletHandler.ListWallets)
		wallets.GET("/:id", rl("queries"), walletHandler.GetWallet)
		wallets.PATCH("/:id/label", rl("wallets_manage"), walletHandler.UpdateLabel)
		wallets.POST("/:id/deactivate", rl("wallets_manage"), walletHandler.DeactivateWallet)
	}

	transactions := v1.Group("/transactions")
	{
		transactions.POST("", rl("transactions"), txHandler.ApplyTransaction)
		transactions.GET("", rl("queries"), txHandler.SearchTransactions)
		transactions.GET("/:txid", rl("queries"), txHandler.GetTransaction)
	}

	return r
}
