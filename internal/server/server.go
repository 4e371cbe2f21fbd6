package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/farellandr/namitix/config"
	"github.com/farellandr/namitix/internal/audit"
	"github.com/farellandr/namitix/internal/catalog"
	"github.com/farellandr/namitix/internal/clock"
	"github.com/farellandr/namitix/internal/handlers"
	"github.com/farellandr/namitix/internal/issuance"
	"github.com/farellandr/namitix/internal/middleware"
	"github.com/farellandr/namitix/internal/reconcile"
	"github.com/farellandr/namitix/internal/services"
	"github.com/farellandr/namitix/internal/sui"
	"github.com/farellandr/namitix/internal/tickets"
	"github.com/farellandr/namitix/internal/walrus"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	outboundTimeout = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *gorm.DB
	if cfg.DatabaseEnabled() {
		db, err = config.InitDatabase(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
	} else {
		logger.Warn("database not configured, issuance audit goes to the log only")
	}

	keyring, err := cfg.Keyring()
	if err != nil {
		return fmt.Errorf("failed to load signers: %w", err)
	}
	if len(keyring) == 0 {
		logger.Warn("no signer seeds configured, purchases will fail")
	}

	hc := &http.Client{Timeout: outboundTimeout}
	ledger := sui.NewClient(cfg.SuiRPCURL, cfg.SuiNetwork, keyring, logger, hc, sui.WithGasBudget(cfg.SuiGasBudget))
	blobs := walrus.NewClient(cfg.WalrusPublisherURL, cfg.WalrusAggregatorURL, cfg.WalrusEpochs, logger, hc)

	var metadata services.MetadataReader = blobs
	if cfg.RedisURL != "" {
		rdb, err := config.InitRedis(ctx, cfg)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, blob metadata is read uncached")
		} else {
			defer rdb.Close()
			metadata = walrus.NewCachedReader(blobs, rdb, cfg.BlobCacheTTL, logger)
		}
	}

	var recorder audit.Recorder = audit.NewLogRecorder(logger)
	if db != nil {
		recorder = audit.NewRepository(db, logger)
	}

	events := catalog.Default()
	clk := clock.NewSystem()

	svc := &services.Services{
		Registry: tickets.NewRegistry(clk, cfg.SessionTTL),
		Catalog:  events,
		Issuer: issuance.NewOrchestrator(ledger, blobs, events, cfg.SuiPackageID, clk, logger,
			issuance.WithCompleteHold(cfg.CompleteHold),
			issuance.WithRecorder(recorder),
		),
		Loader:        reconcile.NewLoader(ledger, events, cfg.SuiPackageID, clk, logger),
		Metadata:      metadata,
		Blobs:         blobs,
		Wallets:       keyring.Addresses(),
		Logger:        logger,
		SessionSecret: []byte(cfg.JWTSecret),
	}

	r := NewRouter(svc, db, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"port":    cfg.Port,
			"network": ledger.Network(),
			"wallets": len(svc.Wallets),
		}).Info("namitix server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewRouter builds the API engine. CORS is enabled only when
// allowedOrigins is non-empty; "*" allows any origin.
func NewRouter(svc *services.Services, db *gorm.DB, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(svc.Logger))
	if len(allowedOrigins) > 0 {
		r.Use(corsMiddleware(allowedOrigins))
	}
	setupRoutes(r, svc, db)
	return r
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(allowedOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}

func setupRoutes(r *gin.Engine, svc *services.Services, db *gorm.DB) {
	r.Use(middleware.ServicesMiddleware(svc), middleware.DatabaseMiddleware(db))

	public := r.Group("/v1")
	{
		public.POST("/sessions", handlers.CreateSession)
		public.GET("/wallets", handlers.ListWallets)

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", handlers.ListEvents)
			eventPublic.GET("/:id", handlers.GetEvent)
		}

		blobPublic := public.Group("/blobs")
		{
			blobPublic.GET("/:blobId", handlers.GetBlob)
			blobPublic.GET("/:blobId/verify", handlers.VerifyBlob)
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.SessionAuthMiddleware())
	{
		sessionProtected := protected.Group("/session")
		{
			sessionProtected.GET("", handlers.GetSession)
			sessionProtected.PUT("/wallet", handlers.ConnectWallet)
			sessionProtected.DELETE("/wallet", handlers.DisconnectWallet)
			sessionProtected.POST("/reconcile", handlers.ReconcileSession)
			sessionProtected.PUT("/view", handlers.SetView)
			sessionProtected.DELETE("/notice", handlers.DismissWalletNotice)
		}

		protected.POST("/events/:id/purchase", handlers.PurchaseTicket)

		ticketProtected := protected.Group("/tickets")
		{
			ticketProtected.GET("", handlers.ListTickets)
			ticketProtected.POST("/:id/reveal", handlers.RevealTicket)
			ticketProtected.GET("/:id/qr", handlers.TicketQR)
		}

		protected.GET("/audit", handlers.ListIssuances)
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithContext(c.Request.Context()).WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("request failed")
			return
		}
		entry.Debug("request handled")
	}
}
