// Package web is the external API layer: mapping CRUD, status, and a
// websocket feed of live events. Handlers are thin; all behavior lives
// behind the Core interface.
package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tagtone/broadcast"
	"tagtone/presence"
	"tagtone/store"
)

// Core is the set of operations the API layer needs from the daemon.
type Core interface {
	ListMappings() ([]store.Mapping, error)
	GetMapping(tag string) (store.Mapping, error)
	PutMapping(tag, action, description string) error
	DeleteMapping(tag string) (bool, error)
	LastScan() (presence.Scan, bool)
	ReaderAvailable() bool
}

// Config holds HTTP server settings.
type Config struct {
	Listen string `yaml:"listen"` // e.g. ":8080"; empty disables the server
}

// Server serves the mapping API and the websocket event feed.
type Server struct {
	cfg    Config
	core   Core
	broker *broadcast.Broker
	engine *gin.Engine
}

// New builds the router. Run starts serving.
func New(cfg Config, core Core, broker *broadcast.Broker) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		cfg:    cfg,
		core:   core,
		broker: broker,
		engine: engine,
	}

	api := engine.Group("/api")
	{
		api.GET("/mappings", s.listMappings)
		api.POST("/mappings", s.putMapping)
		api.GET("/mappings/:tag", s.getMapping)
		api.DELETE("/mappings/:tag", s.deleteMapping)
		api.GET("/status", s.status)
	}
	engine.GET("/ws", s.serveWS)

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("Web API listening on %s", s.cfg.Listen)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) listMappings(c *gin.Context) {
	ms, err := s.core.ListMappings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ms == nil {
		ms = []store.Mapping{}
	}
	c.JSON(http.StatusOK, gin.H{"mappings": ms})
}

func (s *Server) getMapping(c *gin.Context) {
	m, err := s.core.GetMapping(c.Param("tag"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "mapping not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) putMapping(c *gin.Context) {
	var input struct {
		Tag         string `json:"tag" binding:"required"`
		Action      string `json:"action" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.core.PutMapping(input.Tag, input.Action, input.Description); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) deleteMapping(c *gin.Context) {
	ok, err := s.core.DeleteMapping(c.Param("tag"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

func (s *Server) status(c *gin.Context) {
	resp := gin.H{"reader": "unavailable"}
	if s.core.ReaderAvailable() {
		resp["reader"] = "available"
	}
	if scan, ok := s.core.LastScan(); ok {
		resp["last_scan"] = gin.H{
			"tag":       scan.Tag,
			"timestamp": scan.At.UTC().Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, resp)
}
