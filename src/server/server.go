package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"rescue-screener/src/export"
	"rescue-screener/src/interfaces"
	"rescue-screener/src/logger"
	"rescue-screener/src/models"
	"rescue-screener/src/screener"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

type Server struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Screener *screener.Screener
	Gateway  interfaces.IMarketGateway
	Exporter *export.CSVExporter
	engine   *gin.Engine

	// WebSocket clients. The clients map belongs to the hub goroutine;
	// handlers read the connection count through the atomic counter.
	clients     map[*Client]struct{}
	clientCount atomic.Int64
	broadcast   chan models.MRunStatus // Strongly typed and Buffered Queue
	register    chan *Client
	unregister  chan *Client
	done        chan struct{}
	stopOnce    sync.Once

	// At most one screening run in flight; the latest run is kept so its
	// results stay queryable after completion.
	runMutex   sync.RWMutex
	currentRun *screener.Run
	running    bool
	cancelRun  context.CancelFunc
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewServer(cfg *models.MConfig, sc *screener.Screener, gw interfaces.IMarketGateway, exp *export.CSVExporter, logger *logger.Logger) *Server {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		Config:   cfg,
		Logger:   logger,
		Screener: sc,
		Gateway:  gw,
		Exporter: exp,
		engine:   gin.Default(),
		clients:  make(map[*Client]struct{}),
		// Buffered channel to prevent lock/blocking
		// Queue size of 256 ensures we can handle bursts of updates
		broadcast:  make(chan models.MRunStatus, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Screening lifecycle
	s.engine.POST("/screen", s.startScreen)
	s.engine.POST("/screen/batch", s.screenBatch)
	s.engine.GET("/progress", s.getProgress)
	s.engine.GET("/results", s.getResults)
	s.engine.GET("/status", s.getStatus)
	s.engine.POST("/export/csv", s.exportCSV)

	// REST API endpoints
	s.engine.GET("/api/stats", s.getStats)
	s.engine.GET("/api/health", s.getHealth)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

// Stop cancels any in-flight run and signals the hub loop to exit. The hub
// channels stay open; producers (run goroutine, websocket handlers) may still
// hold references to them, so shutdown is signalled through done instead.
func (s *Server) Stop() error {
	s.runMutex.Lock()
	if s.cancelRun != nil {
		s.cancelRun()
	}
	s.runMutex.Unlock()

	s.stopOnce.Do(func() {
		close(s.done)
	})
	return nil
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

type screenRequest struct {
	TargetDate string `json:"target_date"`
	MaxSymbols int    `json:"max_symbols"`
}

// -----------------------------------------------------------------------------

// startScreen launches a screening run in the background. Only one run may be
// in flight; a second POST while running is rejected with 409.
func (s *Server) startScreen(c *gin.Context) {
	var req screenRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s.runMutex.Lock()
	if s.running {
		s.runMutex.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "a screening run is already in progress"})
		return
	}

	run := screener.NewRun(req.TargetDate)
	ctx, cancel := context.WithCancel(context.Background())
	s.currentRun = run
	s.running = true
	s.cancelRun = cancel
	s.runMutex.Unlock()

	go func() {
		defer cancel()
		onProgress := func(percent int, message string) {
			s.Broadcast(run.Status())
		}
		if _, err := s.Screener.Run(ctx, run, req.MaxSymbols, onProgress); err != nil {
			s.Logger.Error("Screening run failed: %v", err)
		}

		s.runMutex.Lock()
		s.running = false
		s.cancelRun = nil
		s.runMutex.Unlock()

		// Terminal snapshot so connected clients see the final state.
		s.Broadcast(run.Status())
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status":      models.RunStateRunning,
		"target_date": req.TargetDate,
	})
}

// -----------------------------------------------------------------------------

type batchRequest struct {
	Offset int `json:"offset"`
	Size   int `json:"size"`
}

// screenBatch evaluates one offset window synchronously, for callers that
// page through the universe themselves instead of holding a long run.
func (s *Server) screenBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.Screener.RunBatch(c.Request.Context(), req.Offset, req.Size)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// -----------------------------------------------------------------------------

func (s *Server) getProgress(c *gin.Context) {
	run := s.latestRun()
	if run == nil {
		c.JSON(http.StatusOK, gin.H{
			"status":   models.RunStateIdle,
			"progress": 0,
			"message":  "",
		})
		return
	}

	status := run.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":   status.Status,
		"progress": status.Progress,
		"message":  status.Message,
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getStatus(c *gin.Context) {
	run := s.latestRun()
	if run == nil {
		c.JSON(http.StatusOK, models.MRunStatus{Status: models.RunStateIdle})
		return
	}
	c.JSON(http.StatusOK, run.Status())
}

// -----------------------------------------------------------------------------

func (s *Server) getResults(c *gin.Context) {
	run := s.latestRun()
	if run == nil || run.State() != models.RunStateCompleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "no completed screening run"})
		return
	}

	status := run.Status()
	c.JSON(http.StatusOK, gin.H{
		"target_date": status.TargetDate,
		"results":     status.Results,
		"summary":     status.Summary,
	})
}

// -----------------------------------------------------------------------------

// exportCSV writes the latest completed result set to disk and streams the
// file back as an attachment.
func (s *Server) exportCSV(c *gin.Context) {
	run := s.latestRun()
	if run == nil || run.State() != models.RunStateCompleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "no completed screening run"})
		return
	}

	path, err := s.Exporter.Export(run.Results())
	if err != nil {
		s.Logger.Error("CSV export failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}

// -----------------------------------------------------------------------------

func (s *Server) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.Gateway.CallStatistics())
}

// -----------------------------------------------------------------------------

func (s *Server) getHealth(c *gin.Context) {
	s.runMutex.RLock()
	running := s.running
	s.runMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": s.clientCount.Load(),
		"running":     running,
	})
}

// -----------------------------------------------------------------------------
// Helper Methods
// -----------------------------------------------------------------------------

func (s *Server) latestRun() *screener.Run {
	s.runMutex.RLock()
	defer s.runMutex.RUnlock()
	return s.currentRun
}
