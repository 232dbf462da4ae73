package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Godszeal/votting-sub000/internal/auth"
	"github.com/Godszeal/votting-sub000/internal/config"
	"github.com/Godszeal/votting-sub000/internal/election"
	"github.com/Godszeal/votting-sub000/internal/httpapi"
	"github.com/Godszeal/votting-sub000/internal/httpmiddleware"
	"github.com/Godszeal/votting-sub000/internal/identity"
	"github.com/Godszeal/votting-sub000/internal/obs"
	"github.com/Godszeal/votting-sub000/internal/store"
	"github.com/Godszeal/votting-sub000/internal/voting"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx, db.Client); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	users := identity.NewService(identity.NewRepository(db.Client))
	elections := election.NewManager(election.NewRepository(db.Client))
	votes := voting.NewService(
		identity.NewRepository(db.Client),
		election.NewRepository(db.Client),
		voting.NewRepository(db.Client),
	)

	if cfg.AdminMatric != "" && cfg.AdminPassword != "" {
		if err := users.EnsureAdmin(ctx, cfg.AdminMatric, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Printf("warning: admin seed failed: %v", err)
		}
	}

	obs.Init()

	logins := httpmiddleware.NewLoginLimiter(redisClient.Client, cfg.LoginMaxFailures, cfg.LoginLockWindow)
	h := httpapi.New(cfg, users, elections, votes, logins)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           24 * time.Hour,
	}))

	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewIPRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst).GinMiddleware())

	r.GET("/metrics", gin.WrapH(obs.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		redisHealthy := redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "db": dbHealthy, "redis": redisHealthy})
	})

	// Public surface: account creation, login and shared voting links.
	r.POST("/auth/register", h.Register)
	r.POST("/auth/signup", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/voting/:token", h.ResolveVotingLink)
	r.GET("/voting/link/:token", h.ResolveVotingLink)

	authed := r.Group("/user", auth.RequireAuth(cfg.JWTSigningKey, cfg.JWTIssuer))
	authed.GET("/me", h.Me)
	authed.POST("/change-password", h.ChangePassword)
	authed.GET("/elections", h.ListElections)
	authed.GET("/elections/:id/eligibility", h.Eligibility)
	authed.POST("/vote", h.CastVote)
	authed.GET("/results/:id", h.Results)

	admin := r.Group("/admin", auth.RequireAuth(cfg.JWTSigningKey, cfg.JWTIssuer), auth.RequireAdmin())
	admin.GET("/elections", h.AdminListElections)
	admin.POST("/elections", h.CreateElection)
	admin.GET("/elections/:id", h.AdminGetElection)
	admin.PUT("/elections/:id", h.UpdateElection)
	admin.DELETE("/elections/:id", h.DeleteElection)
	admin.POST("/elections/:id/end", h.EndElection)
	admin.GET("/elections/:id/votes", h.ElectionVotes)
	admin.DELETE("/votes/:id", h.RemoveVote)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
