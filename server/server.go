// Package server exposes archived digests over HTTP, as rendered pages and as
// JSON.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pevans/headlines/archive"
	"github.com/pevans/headlines/digest"
	"github.com/pevans/headlines/render"
)

// DefaultListLimit is the page size used when no limit is given.
const DefaultListLimit = 20

// Builder builds a fresh digest.
type Builder interface {
	Build(ctx context.Context) (*digest.Result, error)
}

// APIServer serves digests from an archive.
type APIServer struct {
	store    *archive.Store
	renderer *render.Renderer
	builder  Builder
	title    string
	logger   *log.Logger
}

// NewAPIServer creates a new API server. builder may be nil, in which case
// POST /api/v1/digests is not available.
func NewAPIServer(store *archive.Store, renderer *render.Renderer, builder Builder, title string, logger *log.Logger) *APIServer {
	if logger == nil {
		logger = log.Default()
	}
	return &APIServer{
		store:    store,
		renderer: renderer,
		builder:  builder,
		title:    title,
		logger:   logger,
	}
}

// SetupRouter configures the Gin router with page and API routes.
func (s *APIServer) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/", s.HandleLatestPage)
	router.GET("/digests/:id", s.HandleDigestPage)

	api := router.Group("/api/v1/digests")
	api.GET("", s.HandleListDigests)
	api.POST("", s.HandleBuildDigest)
	api.GET("/:id", s.HandleGetDigest)
	api.DELETE("/:id", s.HandleDeleteDigest)

	return router
}

// requestLogger logs each request through the server's logger.
func (s *APIServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}

// ListDigestsResponse represents the response for GET /api/v1/digests.
type ListDigestsResponse struct {
	Digests []archive.Entry `json:"digests"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// HandleListDigests handles GET /api/v1/digests.
func (s *APIServer) HandleListDigests(c *gin.Context) {
	limit, ok := queryInt(c, "limit", DefaultListLimit)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}

	entries, err := s.store.List(limit, offset)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to list digests: "+err.Error())
		return
	}

	total, err := s.store.Count()
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to count digests: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, ListDigestsResponse{
		Digests: entries,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// HandleGetDigest handles GET /api/v1/digests/:id.
func (s *APIServer) HandleGetDigest(c *gin.Context) {
	entry, ok := s.lookup(c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, entry)
}

// HandleDeleteDigest handles DELETE /api/v1/digests/:id.
func (s *APIServer) HandleDeleteDigest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_id", "Invalid digest ID")
		return
	}

	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, archive.ErrDigestNotFound) {
			errorJSON(c, http.StatusNotFound, "not_found", "Digest not found")
			return
		}
		errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to delete digest: "+err.Error())
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleBuildDigest handles POST /api/v1/digests: it builds a digest now,
// archives it, and returns the new entry.
func (s *APIServer) HandleBuildDigest(c *gin.Context) {
	if s.builder == nil {
		errorJSON(c, http.StatusNotImplemented, "not_implemented", "Building is not enabled on this server")
		return
	}

	result, err := s.builder.Build(c.Request.Context())
	if err != nil {
		s.logger.Error("build failed", "err", err)
		errorJSON(c, http.StatusBadGateway, "build_failed", err.Error())
		return
	}

	entry, err := s.store.Save(s.title, result.Digest)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to archive digest: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// HandleLatestPage handles GET /: the newest archived digest as HTML.
func (s *APIServer) HandleLatestPage(c *gin.Context) {
	entry, err := s.store.Latest()
	if errors.Is(err, archive.ErrDigestNotFound) {
		c.String(http.StatusNotFound, "No digests have been built yet.\n")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to load digest: %v\n", err)
		return
	}
	s.writePage(c, entry)
}

// HandleDigestPage handles GET /digests/:id.
func (s *APIServer) HandleDigestPage(c *gin.Context) {
	entry, ok := s.lookup(c, true)
	if !ok {
		return
	}
	s.writePage(c, entry)
}

func (s *APIServer) writePage(c *gin.Context, entry *archive.Entry) {
	page, err := s.renderer.RenderAt(entry.Digest, entry.CreatedAt)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to render digest: %v\n", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// lookup resolves the :id parameter to an archived digest, writing an error
// response (plain text for pages, JSON otherwise) when it can't.
func (s *APIServer) lookup(c *gin.Context, page bool) (*archive.Entry, bool) {
	fail := func(status int, code, message string) {
		if page {
			c.String(status, "%s\n", message)
			return
		}
		errorJSON(c, status, code, message)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(http.StatusBadRequest, "invalid_id", "Invalid digest ID")
		return nil, false
	}

	entry, err := s.store.Get(id)
	if errors.Is(err, archive.ErrDigestNotFound) {
		fail(http.StatusNotFound, "not_found", "Digest not found")
		return nil, false
	}
	if err != nil {
		fail(http.StatusInternalServerError, "internal_error", "Failed to load digest: "+err.Error())
		return nil, false
	}

	return entry, true
}

// queryInt parses a non-negative integer query parameter, writing a 400 when
// it is malformed.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		errorJSON(c, http.StatusBadRequest, "invalid_parameter", "Invalid "+name+" parameter: must be a non-negative integer")
		return 0, false
	}
	return n, true
}
