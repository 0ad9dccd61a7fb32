package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"catalog-api/internal/session"
	"catalog-api/pkg/browser"
	"catalog-api/pkg/cache"
)

const (
	SessionCookie = "catalog_session"
	Version       = "1.0.0"

	sessionKey = "session"
)

// ScrollProber runs a live browser scroll check.
type ScrollProber interface {
	Run(ctx context.Context, pageURL string, offsets []float64) ([]browser.Sample, error)
}

type Deps struct {
	Store  *session.Store
	Cache  *cache.RedisCache
	Probe  ScrollProber
	Logger *slog.Logger

	// ProbeHosts lists the hostnames /test/scroll may visit.
	ProbeHosts []string

	RateLimit float64
	RateBurst int

	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
}

type Server struct {
	deps     Deps
	logger   *slog.Logger
	limiters *ipLimiters
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.RateLimit <= 0 {
		deps.RateLimit = 10
	}
	if deps.RateBurst <= 0 {
		deps.RateBurst = 20
	}

	s := &Server{
		deps:     deps,
		logger:   deps.Logger,
		limiters: newIPLimiters(rate.Limit(deps.RateLimit), deps.RateBurst),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if gin.Mode() == gin.DebugMode {
		r.Use(gin.Logger())
	}
	r.Use(corsMiddleware())
	r.Use(s.requestIDMiddleware())
	r.Use(s.rateLimitMiddleware())

	r.GET("/health", s.health)
	r.GET("/api/info", s.info)
	r.GET("/rate-limit/status", s.rateLimitStatus)

	r.GET("/cache/stats", s.cacheStats)
	r.GET("/cache/debug", s.cacheDebug)
	r.DELETE("/cache/flush", s.cacheFlush)

	views := r.Group("/", s.sessionMiddleware())
	views.GET("/home", s.home)
	views.GET("/articles", s.articles)
	views.POST("/articles/refresh", s.refreshArticles)
	views.GET("/products", s.products)
	views.GET("/products/categories", s.categories)
	views.GET("/products/:id", s.product)
	views.GET("/header", s.header)
	views.POST("/header/scroll", s.headerScroll)

	// Only mounted when a probe is configured; main does that in debug mode.
	if deps.Probe != nil {
		r.GET("/test/scroll", s.testScroll)
	}

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		s.logger.Info("request",
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Duration("took", time.Since(start)),
			slog.Int("status", c.Writer.Status()),
		)
	}
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !s.limiters.get(ip).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests from your IP",
				"retry_after": "1 second",
				"ip":          ip,
			})
			return
		}
		c.Next()
	}
}

// sessionMiddleware resolves the caller's session from its cookie, issuing a
// new cookie when the session is new or was swept.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(SessionCookie)
		sess, created := s.deps.Store.Get(id)
		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, sess.ID, 0, "/", "", s.deps.SecureCookie, true)
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

type ipLimiters struct {
	limit rate.Limit
	burst int

	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

func newIPLimiters(limit rate.Limit, burst int) *ipLimiters {
	return &ipLimiters{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[ip]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, exists := l.limiters[ip]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(l.limit, l.burst)
	l.limiters[ip] = limiter
	return limiter
}
