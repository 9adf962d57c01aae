package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/auth"
	"rollcall/internal/checkin"
	"rollcall/internal/config"
	"rollcall/internal/directory"
	"rollcall/internal/httpmiddleware"
	"rollcall/internal/metrics"
	"rollcall/internal/pages"
	"rollcall/internal/queue"
	"rollcall/internal/store"
	"rollcall/internal/timeform"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		// A nil DB means the connection string itself was rejected;
		// nothing downstream can work without a handle.
		if db == nil {
			return err
		}
		log.Printf("warning: db not reachable: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var sessions auth.SessionStore
	if cfg.SessionBackend == "memory" {
		sessions = auth.NewMemorySessions(cfg.SessionTTL)
	} else {
		sessions = auth.NewRedisSessions(redisClient.Client, cfg.SessionTTL)
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "rollcall:checkins")
	}

	users := directory.NewRepository(db.Client)
	repo := checkin.NewRepository(db.Client)
	svc := checkin.NewService(repo, cfg.GraceWindow, cfg.StoreTimeout)
	authenticator := auth.NewAuthenticator(sessions, users, cfg.JWTSigningKey, cfg.JWTIssuer)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())
	r.Use(auth.Resolve(authenticator))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Healthy(c.Request.Context())
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/auth/login", func(c *gin.Context) {
		var req struct {
			Username string `form:"username" json:"username" binding:"required"`
			Password string `form:"password" json:"password" binding:"required"`
		}
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
			return
		}

		id, err := users.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				metrics.LoginsTotal.WithLabelValues("rejected").Inc()
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			metrics.LoginsTotal.WithLabelValues("fault").Inc()
			log.Printf("login failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login unavailable"})
			return
		}

		sessionToken, err := sessions.Create(c.Request.Context(), id)
		if err != nil {
			metrics.LoginsTotal.WithLabelValues("fault").Inc()
			log.Printf("session create failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login unavailable"})
			return
		}

		tokens, err := auth.Issue(id, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			metrics.LoginsTotal.WithLabelValues("fault").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}

		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(auth.SessionCookie, sessionToken, int(cfg.SessionTTL.Seconds()), "/", "", false, true)
		metrics.LoginsTotal.WithLabelValues("ok").Inc()

		if strings.Contains(c.GetHeader("Accept"), "text/html") {
			c.Redirect(http.StatusSeeOther, "/dashboard")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"identity":      id,
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	r.POST("/auth/logout", func(c *gin.Context) {
		if cookie, err := c.Request.Cookie(auth.SessionCookie); err == nil && cookie.Value != "" {
			if err := sessions.Delete(c.Request.Context(), cookie.Value); err != nil {
				log.Printf("session delete failed: %v", err)
			}
		}
		c.SetCookie(auth.SessionCookie, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"status": "signed out"})
	})

	attendance := r.Group("/attendance", auth.Require(auth.AnyAuthenticated()))

	attendance.POST("/checkin", func(c *gin.Context) {
		var req struct {
			EventID string `json:"event_id" binding:"required"`
			UserID  string `json:"user_id" binding:"required"`
			Method  string `json:"check_in_method" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		actx := auth.FromContext(c)
		rec, err := svc.CheckIn(c.Request.Context(), req.EventID, req.UserID, req.Method, *actx)
		if err != nil {
			status, outcome, msg := checkinFailure(err)
			metrics.CheckinsTotal.WithLabelValues(outcome).Inc()
			if status == http.StatusInternalServerError {
				log.Printf("checkin fault for event=%s user=%s: %v", req.EventID, req.UserID, err)
			}
			c.JSON(status, gin.H{"error": msg})
			return
		}

		metrics.CheckinsTotal.WithLabelValues("ok").Inc()
		if err := q.Publish(c.Request.Context(), queue.Message{Type: "checkin", Body: []byte(rec.EventID)}); err != nil {
			log.Printf("queue publish failed: %v", err)
		}
		c.JSON(http.StatusOK, rec)
	})

	attendance.GET("/records", func(c *gin.Context) {
		eventID := c.Query("event_id")
		userID := c.Query("user_id")

		// Non-elevated callers only see their own records.
		actx := auth.FromContext(c)
		if !actx.Identity.Role.Elevated() {
			userID = actx.Identity.UserID
		}

		limit, offset := 50, 0
		if v := c.Query("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				limit = parsed
			}
		}
		if v := c.Query("offset"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				offset = parsed
			}
		}
		records, err := repo.ListRecords(c.Request.Context(), eventID, userID, limit, offset)
		if err != nil {
			log.Printf("list records failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "records unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
	})

	pages.Register(r)

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

// checkinFailure maps recorder errors to HTTP statuses. Infrastructure
// faults answer a generic 500: the write's final state is unknown, so no
// business outcome may be implied.
func checkinFailure(err error) (status int, outcome, msg string) {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, "forbidden", "not allowed to check in this user"
	case errors.Is(err, checkin.ErrEventNotFound):
		return http.StatusNotFound, "not_found", "event not found"
	case errors.Is(err, checkin.ErrEventNotActive):
		return http.StatusUnprocessableEntity, "inactive", "event not active"
	case errors.Is(err, checkin.ErrAlreadyCheckedIn):
		return http.StatusConflict, "conflict", "already checked in"
	case errors.Is(err, timeform.ErrInvalidTimeFormat):
		return http.StatusUnprocessableEntity, "bad_time", "invalid time format"
	default:
		return http.StatusInternalServerError, "fault", "check-in unavailable, re-query records to confirm"
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
