package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"catalog-api/internal/collection"
	"catalog-api/internal/models"
	"catalog-api/internal/sources"
	"catalog-api/pkg/browser"
)

func badRequest(c *gin.Context, code string, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   code,
		Code:    http.StatusBadRequest,
		Message: err.Error(),
	})
}

func hostNotAllowed(c *gin.Context, err error) {
	c.JSON(http.StatusForbidden, models.ErrorResponse{
		Error:   "host_not_allowed",
		Code:    http.StatusForbidden,
		Message: err.Error(),
	})
}

func (s *Server) health(c *gin.Context) {
	health := gin.H{
		"status":   "healthy",
		"service":  "catalog-api",
		"version":  Version,
		"sessions": s.deps.Store.Len(),
	}

	if s.deps.Cache.IsAvailable() {
		health["cache"] = "redis connected"
	} else {
		health["cache"] = "redis unavailable"
	}

	c.JSON(http.StatusOK, health)
}

func (s *Server) info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "Catalog API",
		"version":     Version,
		"description": "Paginated article and filtered product views with a scroll-aware header",
		"features":    []string{"Server-side pagination", "Sorting", "Client-side filtering", "Redis caching", "Scroll-direction header"},
		"endpoints": map[string]string{
			"GET /home":                "Welcome flag and featured products",
			"GET /articles":            "Paginated articles (page, size, sort)",
			"POST /articles/refresh":   "Retry the current article page",
			"GET /products":            "Filtered products (q, category)",
			"GET /products/categories": "Category options",
			"GET /products/:id":        "Product detail",
			"GET /header":              "Header visibility",
			"POST /header/scroll":      "Report a scroll offset",
			"GET /health":              "Health check",
			"GET /cache/stats":         "Cache statistics",
			"GET /api/info":            "API information",
		},
	})
}

func (s *Server) rateLimitStatus(c *gin.Context) {
	ip := c.ClientIP()
	limiter := s.limiters.get(ip)

	c.JSON(http.StatusOK, gin.H{
		"ip":               ip,
		"limit_per_second": float64(limiter.Limit()),
		"burst_capacity":   limiter.Burst(),
		"tokens_available": limiter.Tokens(),
		"next_token_at":    time.Now().Add(time.Duration(float64(time.Second) / float64(limiter.Limit()))),
	})
}

func (s *Server) cacheUnavailable(c *gin.Context) bool {
	if s.deps.Cache.IsAvailable() {
		return false
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error": "cache not available",
	})
	return true
}

func (s *Server) cacheStats(c *gin.Context) {
	if s.cacheUnavailable(c) {
		return
	}
	c.JSON(http.StatusOK, s.deps.Cache.GetStats(c.Request.Context()))
}

func (s *Server) cacheDebug(c *gin.Context) {
	if s.cacheUnavailable(c) {
		return
	}

	ctx := c.Request.Context()
	keys := s.deps.Cache.GetAllKeys(ctx)

	keyDetails := make([]gin.H, 0, len(keys))
	for _, key := range keys {
		ttl := s.deps.Cache.GetKeyTTL(ctx, key)
		keyDetails = append(keyDetails, gin.H{
			"key":         key,
			"ttl_seconds": int(ttl.Seconds()),
			"expires_in":  ttl.String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"total_keys":  len(keys),
		"cache_keys":  keyDetails,
		"cache_stats": s.deps.Cache.GetStats(ctx),
		"debug_info": gin.H{
			"redis_available": true,
			"timestamp":       time.Now().Format(time.RFC3339),
		},
	})
}

func (s *Server) cacheFlush(c *gin.Context) {
	if s.cacheUnavailable(c) {
		return
	}

	if err := s.deps.Cache.FlushCache(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to flush cache",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "cache flushed successfully",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) home(c *gin.Context) {
	sess := sessionFrom(c)
	welcome := sess.ConsumeWelcome()

	v := HomeView{Welcome: welcome}
	if welcome {
		v.Message = welcomeMessage
	}

	if err := sess.EnsureProducts(c.Request.Context()); err != nil {
		v.Error = err.Error()
		v.Retry = true
	}
	v.Featured = productViews(sess.Products.Featured(featuredCount))
	v.Empty = len(v.Featured) == 0

	c.JSON(http.StatusOK, v)
}

// parseArticleQuery overlays the page, size and sort parameters on the
// session's current tuple. Absent parameters keep their current value.
func parseArticleQuery(c *gin.Context, current models.ArticleQuery) (models.ArticleQuery, error) {
	q := current

	if raw, ok := c.GetQuery("page"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return q, collection.ErrInvalidPage
		}
		q.Page = n
	}

	if raw, ok := c.GetQuery("size"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, collection.ErrInvalidPageSize
		}
		q.PageSize = n
	}

	if raw, ok := c.GetQuery("sort"); ok {
		k, err := models.ParseSortKey(raw)
		if err != nil {
			return q, collection.ErrInvalidSort
		}
		q.Sort = k
	}

	return q, nil
}

func (s *Server) articles(c *gin.Context) {
	sess := sessionFrom(c)
	ctrl := sess.Articles

	q, err := parseArticleQuery(c, ctrl.Query())
	if err != nil {
		badRequest(c, "invalid_query", err)
		return
	}
	if err := ctrl.SetQuery(q); err != nil {
		if errors.Is(err, collection.ErrClosed) {
			c.JSON(http.StatusGone, models.ErrorResponse{
				Error:   "session_closed",
				Code:    http.StatusGone,
				Message: err.Error(),
			})
			return
		}
		badRequest(c, "invalid_query", err)
		return
	}
	ctrl.Start()

	s.renderArticles(c)
}

func (s *Server) refreshArticles(c *gin.Context) {
	sessionFrom(c).Articles.Refresh()
	s.renderArticles(c)
}

// renderArticles waits for the latest fetch. If the client goes away first,
// the last known state is still rendered with loading set.
func (s *Server) renderArticles(c *gin.Context) {
	ctrl := sessionFrom(c).Articles

	state, err := ctrl.Wait(c.Request.Context())
	if err != nil {
		s.logger.Debug("articles wait interrupted", slog.Any("err", err))
	}
	c.JSON(http.StatusOK, newArticlesView(state, ctrl.PageSizes()))
}

func (s *Server) products(c *gin.Context) {
	sess := sessionFrom(c)
	f := sess.Products

	// Load failures are reported in the view; partial data still renders.
	_ = sess.EnsureProducts(c.Request.Context())

	sel, err := f.Select(c.Query("q"), c.Query("category"))
	if err != nil {
		badRequest(c, "invalid_category", err)
		return
	}

	c.JSON(http.StatusOK, newProductsView(f, sel))
}

func (s *Server) categories(c *gin.Context) {
	sess := sessionFrom(c)

	v := gin.H{}
	if err := sess.EnsureProducts(c.Request.Context()); err != nil {
		v["error"] = err.Error()
		v["retry"] = true
	}
	v["categories"] = sess.Products.Categories()

	c.JSON(http.StatusOK, v)
}

func (s *Server) product(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		badRequest(c, "invalid_id", errors.New("product id must be a positive integer"))
		return
	}

	p, err := sessionFrom(c).Products.Product(c.Request.Context(), id)
	switch {
	case errors.Is(err, sources.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Code:    http.StatusNotFound,
			Message: err.Error(),
		})
		return
	case err != nil:
		s.logger.Error("fetch product failed", slog.Int("id", id), slog.Any("err", err))
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "source_unavailable",
			Code:    http.StatusBadGateway,
			Message: "could not load product",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, productViews([]models.Product{*p})[0])
}

func (s *Server) header(c *gin.Context) {
	h := sessionFrom(c).Header
	c.JSON(http.StatusOK, gin.H{
		"visible": h.Visible(),
		"last_y":  h.Last(),
	})
}

type scrollRequest struct {
	Y *float64 `json:"y" binding:"required"`
}

func (s *Server) headerScroll(c *gin.Context) {
	var req scrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_body", err)
		return
	}

	sess := sessionFrom(c)
	sess.Window.Scroll(*req.Y)

	c.JSON(http.StatusOK, gin.H{
		"visible": sess.Header.Visible(),
		"last_y":  sess.Header.Last(),
	})
}

func (s *Server) testScroll(c *gin.Context) {
	pageURL := c.Query("url")
	if err := browser.ValidateURL(pageURL, s.deps.ProbeHosts); err != nil {
		if errors.Is(err, browser.ErrHostNotAllowed) {
			hostNotAllowed(c, err)
			return
		}
		badRequest(c, "invalid_url", err)
		return
	}
	offsets, err := browser.ParseOffsets(c.Query("offsets"))
	if err != nil {
		badRequest(c, "invalid_offsets", err)
		return
	}

	samples, err := s.deps.Probe.Run(c.Request.Context(), pageURL, offsets)
	if errors.Is(err, browser.ErrHostNotAllowed) {
		hostNotAllowed(c, err)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "scroll probe failed",
			"details": err.Error(),
			"samples": samples,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":     pageURL,
		"count":   len(samples),
		"samples": samples,
	})
}
