// Package api exposes the admin HTTP surface: pipeline control, origin and
// provider management, taxonomy review and live event subscriptions.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"quotewire/internal/cache"
	"quotewire/internal/config"
	"quotewire/internal/models"
	"quotewire/internal/notify"
	"quotewire/internal/orchestrator"
	"quotewire/internal/providers"
	"quotewire/internal/security"
	"quotewire/internal/storage"
	"quotewire/internal/taxonomy"
	"quotewire/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Server struct {
	router        *gin.Engine
	store         storage.Storage
	orchestrator  *orchestrator.Orchestrator
	framework     *providers.Framework
	taxonomy      *taxonomy.Service
	hub           *notify.Hub
	cacheManager  *cache.Manager
	upgrader      websocket.Upgrader
	port          int
	swaggerServer *web.SwaggerServer
}

func NewServer(store storage.Storage, orch *orchestrator.Orchestrator, framework *providers.Framework, tax *taxonomy.Service, hub *notify.Hub, cacheManager *cache.Manager, cfg *config.Config) *Server {
	router := gin.Default()

	securityConfig := &security.SecurityConfig{
		EnableRateLimit:       cfg.Security.EnableRateLimit,
		RateLimitPerSecond:    cfg.Security.RateLimitPerSecond,
		RateLimitBurst:        cfg.Security.RateLimitBurst,
		EnableCORS:            cfg.Security.EnableCORS,
		AllowedOrigins:        cfg.Security.AllowedOrigins,
		EnableSecurityHeaders: cfg.Security.EnableSecurityHeaders,
		MaxRequestSize:        cfg.Security.MaxRequestSize,
		EnableRequestID:       cfg.Security.EnableRequestID,
	}
	security.SetupSecurityMiddleware(router, securityConfig)

	server := &Server{
		router:       router,
		store:        store,
		orchestrator: orch,
		framework:    framework,
		taxonomy:     tax,
		hub:          hub,
		cacheManager: cacheManager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		port:          cfg.Port,
		swaggerServer: web.NewSwaggerServer(cfg.EnableSwagger),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/ws", s.subscribe)

	api := s.router.Group("/api/v1")
	{
		api.POST("/cycle/run", s.runCycle)
		api.GET("/cycle/status", s.getCycleStatus)

		api.GET("/sources", s.listSources)
		api.POST("/sources", s.createSource)
		api.PATCH("/sources/:id/enabled", s.setSourceEnabled)

		api.GET("/providers", s.listProviders)
		api.PATCH("/providers/:key/enabled", s.setProviderEnabled)
		api.POST("/providers/:key/test", s.testProvider)

		api.GET("/suggestions", s.listSuggestions)
		api.POST("/suggestions/:id/approve", s.approveSuggestion)
		api.POST("/suggestions/:id/reject", s.rejectSuggestion)

		api.GET("/quotes/recent", s.recentQuotes)
		api.GET("/backfill/attempts", s.listBackfillAttempts)

		api.GET("/settings", s.getSettings)
		api.PUT("/settings/:key", s.updateSetting)
	}

	s.swaggerServer.RegisterRoutes(s.router)
}

func (s *Server) Start() error {
	return s.router.Run(":" + strconv.Itoa(s.port))
}

// StartWithContext serves until the context is cancelled, then shuts down
// gracefully with a short drain window.
func (s *Server) StartWithContext(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(s.port),
		Handler: s.router,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"service":     "quotewire",
		"subscribers": s.hub.SubscriberCount(),
	})
}

// subscribe upgrades the connection to a websocket and hands it to the hub.
// The read loop exists only to detect the client going away.
func (s *Server) subscribe(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	s.hub.Register(conn)

	go func() {
		defer s.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) runCycle(c *gin.Context) {
	if err := s.orchestrator.RunCycle(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Cycle started"})
}

func (s *Server) getCycleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.orchestrator.Status())
}

func (s *Server) listSources(c *gin.Context) {
	sources, err := s.store.ListSources(false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources, "count": len(sources)})
}

func (s *Server) createSource(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Domain   string `json:"domain" binding:"required"`
		FeedURL  string `json:"feed_url" binding:"required"`
		TopStory bool   `json:"top_story"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == "" {
		req.Name = req.Domain
	}

	source := models.Source{
		Name:     req.Name,
		Domain:   req.Domain,
		FeedURL:  req.FeedURL,
		Enabled:  true,
		TopStory: req.TopStory,
	}
	created, err := s.store.CreateSource(&source)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !created {
		c.JSON(http.StatusConflict, gin.H{"error": "a source with this feed URL already exists"})
		return
	}
	c.JSON(http.StatusCreated, source)
}

func (s *Server) setSourceEnabled(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source id"})
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.SetSourceEnabled(id, req.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if req.Enabled {
		// Re-enabling clears the failure streak for a fresh start.
		s.store.ResetSourceFailures(id)
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "enabled": req.Enabled})
}

func (s *Server) listProviders(c *gin.Context) {
	records, err := s.store.ListProviders(false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": records, "count": len(records)})
}

func (s *Server) setProviderEnabled(c *gin.Context) {
	key := c.Param("key")
	if _, ok := s.framework.Get(key); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("provider %q not registered", key)})
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.SetProviderEnabled(key, req.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "enabled": req.Enabled})
}

func (s *Server) testProvider(c *gin.Context) {
	key := c.Param("key")
	provider, ok := s.framework.Get(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("provider %q not registered", key)})
		return
	}

	detail, err := provider.TestConnection(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"key": key, "ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "ok": true, "detail": detail})
}

func (s *Server) listSuggestions(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	suggestions, err := s.store.ListSuggestions(c.Query("type"), c.DefaultQuery("status", models.SuggestionPending), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions, "count": len(suggestions)})
}

func (s *Server) approveSuggestion(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid suggestion id"})
		return
	}

	// Reviewers may submit an edited payload; an empty body approves as-is.
	var edited *models.SuggestionPayload
	if c.Request.ContentLength > 0 {
		var payload models.SuggestionPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		edited = &payload
	}

	if err := s.taxonomy.Approve(id, edited); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	s.cacheManager.Flush()
	c.JSON(http.StatusOK, gin.H{"id": id, "status": "approved"})
}

func (s *Server) rejectSuggestion(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid suggestion id"})
		return
	}

	if err := s.taxonomy.Reject(id); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": "rejected"})
}

func (s *Server) recentQuotes(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	cacheKey := fmt.Sprintf("quotes:recent:%d", limit)
	if cached, found := s.cacheManager.Get(cacheKey); found {
		if quotes, ok := cached.([]models.Quote); ok {
			c.JSON(http.StatusOK, gin.H{"quotes": quotes, "count": len(quotes), "cached": true})
			return
		}
	}

	quotes, err := s.store.RecentQuotes(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.cacheManager.Set(cacheKey, quotes, 30*time.Second)
	c.JSON(http.StatusOK, gin.H{"quotes": quotes, "count": len(quotes)})
}

func (s *Server) listBackfillAttempts(c *gin.Context) {
	limit := 30
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	attempts, err := s.store.ListBackfillAttempts(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempts": attempts, "count": len(attempts)})
}

func (s *Server) getSettings(c *gin.Context) {
	settings, err := s.store.GetSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) updateSetting(c *gin.Context) {
	key := c.Param("key")

	var req struct {
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.UpdateSetting(key, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}
