// Package httpapi implements the frontend's HTTP surface: task submission,
// status polling, result retrieval, and a registry-wide summary.
package httpapi

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"scrapeforge.xyz/orchestrator/internal/pipeline"
	"scrapeforge.xyz/orchestrator/internal/task"
)

// Server holds the dependencies the HTTP handlers need: the task registry
// and the orchestrator that launches new pipelines.
type Server struct {
	registry *task.Registry
	orch     *pipeline.Orchestrator
}

// New wires a gin engine with the scrape API routes.
func New(registry *task.Registry, orch *pipeline.Orchestrator) *gin.Engine {
	s := &Server{registry: registry, orch: orch}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", s.handleIndex)
	r.GET("/scrape", s.handleScrape)
	r.GET("/status/:id", s.handleStatus)
	r.GET("/result/:id", s.handleResult)
	r.GET("/tasks", s.handleTasks)

	return r
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "scrapeforge-orchestrator",
		"version": "1.0",
		"routes":  []string{"/scrape", "/status/:id", "/result/:id", "/tasks"},
	})
}

func (s *Server) handleScrape(c *gin.Context) {
	raw := c.Query("url")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'url' parameter"})
		return
	}
	if !isValidURL(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL"})
		return
	}

	t := s.registry.Create(raw)
	resp := gin.H{
		"task_id": t.ID,
		"status":  string(t.Status),
		"url":     t.URL,
		"message": "Scraping task created",
	}
	s.orch.Run(t)

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStatus(c *gin.Context) {
	id := c.Param("id")
	snap, ok := s.registry.GetStatus(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleResult(c *gin.Context) {
	id := c.Param("id")
	result, ok := s.registry.GetResult(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	snap, _ := s.registry.GetStatus(id)
	if !snap.Status.IsTerminal() {
		c.JSON(http.StatusAccepted, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleTasks(c *gin.Context) {
	counts := s.registry.Counts()
	byStatus := make(map[string]int, len(counts))
	for status, n := range counts {
		byStatus[string(status)] = n
	}
	c.JSON(http.StatusOK, gin.H{
		"total_tasks": s.registry.Total(),
		"by_status":   byStatus,
	})
}

// isValidURL accepts only URLs whose parse yields a scheme of http/https and
// a non-empty host.
func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
