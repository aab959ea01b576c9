// Package api handles HTTP and WebSocket API endpoints
package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/thereceipt/print-agent/internal/apperr"
	"github.com/thereceipt/print-agent/internal/command"
	"github.com/thereceipt/print-agent/internal/logger"
	"github.com/thereceipt/print-agent/internal/order"
)

// Server is the API server
type Server struct {
	router     *gin.Engine
	dispatcher command.Dispatcher
	directory  command.Directory
	previewer  command.Previewer
	executor   *command.Executor
	hub        *hub
	logger     *zap.Logger
	upgrader   websocket.Upgrader

	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer creates a new API server. previewer may be nil, which disables
// POST /preview.
func NewServer(dispatcher command.Dispatcher, directory command.Directory, previewer command.Previewer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("api")

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(logger.Recovery(log))
	router.Use(logger.GinMiddleware(log))
	router.Use(corsMiddleware())

	server := &Server{
		router:     router,
		dispatcher: dispatcher,
		directory:  directory,
		previewer:  previewer,
		executor:   command.NewRemoteExecutor(dispatcher, directory),
		hub:        newHub(log),
		logger:     log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/printers", s.handleGetPrinters)
	s.router.GET("/update-printers", s.handleUpdatePrinters)
	s.router.POST("/print", s.handlePrint)
	s.router.POST("/preview", s.handlePreview)

	s.router.POST("/command", s.handleCommand)

	s.router.GET("/ws", s.handleWebSocket)

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.router
}

// handleGetPrinters returns the cached printer list
func (s *Server) handleGetPrinters(c *gin.Context) {
	printers, err := s.directory.List()
	if err != nil {
		c.JSON(StatusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, printers)
}

// handleUpdatePrinters discovers printers again and returns the new list
func (s *Server) handleUpdatePrinters(c *gin.Context) {
	c.JSON(http.StatusOK, s.directory.Refresh(c.Request.Context()))
}

// handlePrint renders and prints one order
func (s *Server) handlePrint(c *gin.Context) {
	var req order.PrintJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, &apperr.ValidationError{Reason: err.Error()})
		return
	}

	if err := s.dispatcher.Dispatch(c.Request.Context(), req); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handlePreview renders an order and returns the PNG without printing it
func (s *Server) handlePreview(c *gin.Context) {
	if s.previewer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "preview is not available"})
		return
	}

	var rec order.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		s.writeError(c, &apperr.ValidationError{Reason: err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := s.previewer.RenderPNG(&buf, &rec); err != nil {
		s.writeError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// handleCommand handles command execution requests
func (s *Server) handleCommand(c *gin.Context) {
	var req struct {
		Command string `json:"command" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "command is required"})
		return
	}

	result := s.executor.Execute(c.Request.Context(), req.Command)

	response := gin.H{
		"success": result.Success,
	}
	if result.Message != "" {
		response["message"] = result.Message
	}
	if result.Error != "" {
		response["error"] = result.Error
	}
	for k, v := range result.Data {
		response[k] = v
	}

	if result.Success {
		c.JSON(http.StatusOK, response)
	} else {
		c.JSON(http.StatusBadRequest, response)
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusFor maps an agent error to its HTTP status code
func StatusFor(err error) int {
	var ve *apperr.ValidationError
	var re *apperr.RenderError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &re):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrDirectoryUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Run serves on addr until Shutdown is called
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info("listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and closes
// every WebSocket client
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
