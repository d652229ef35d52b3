// Package server exposes the single-page web surface: an embedded HTML page
// for uploading or capturing an image plus an optional question, and a JSON
// API that runs the analysis pipeline against the configured backend.
package server

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"image-recognise-go/internal/config"
	"image-recognise-go/internal/utils"
	"image-recognise-go/pkg/backend"
	"image-recognise-go/pkg/normalize"
	"image-recognise-go/pkg/ollama"
	"image-recognise-go/pkg/recognize"
	"image-recognise-go/pkg/webhook"
)

//go:embed web/index.html
var indexHTML []byte

const maxUploadBytes = 50 << 20

// Server serves the web page and the analysis API.
type Server struct {
	cfg     *config.Config
	log     *slog.Logger
	engine  *gin.Engine
	encoder *normalize.Encoder
}

// New creates a Server from the application configuration.
func New(cfg *config.Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	encoder := normalize.NewEncoder()
	encoder.Quality = cfg.JPEGQuality
	encoder.MaxDim = cfg.SendMaxDim

	s := &Server{
		cfg:     cfg,
		log:     log,
		encoder: encoder,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Content-Type"}
	engine.Use(cors.New(corsCfg))

	engine.MaxMultipartMemory = maxUploadBytes

	engine.GET("/", s.handleIndex)
	engine.GET("/healthz", s.handleHealth)
	engine.POST("/api/analyze", s.handleAnalyze)

	s.engine = engine
	return s
}

// Handler returns the underlying HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the server on the configured address and blocks.
func (s *Server) Run() error {
	s.log.Info("server starting", "addr", s.cfg.Addr, "backend", s.cfg.Backend)
	return s.engine.Run(s.cfg.Addr)
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleAnalyze runs one full analysis for an uploaded image. The endpoint
// URL may come with the request; the configured default applies otherwise.
func (s *Server) handleAnalyze(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image uploaded"})
		return
	}
	if !utils.IsImageFile(fileHeader.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported file type: %s", fileHeader.Filename)})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}

	img, err := normalize.DecodeBytes(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to decode image"})
		return
	}

	query := c.PostForm("query")

	b, err := s.backendFor(c.PostForm("endpoint"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.log.Info("analyzing image",
		"file", fileHeader.Filename,
		"size", utils.FormatFileSize(fileHeader.Size),
		"query", query != "")

	pipeline := recognize.New(b, s.encoder, s.log)
	result, err := pipeline.Analyze(c.Request.Context(), img, query)
	if err != nil {
		s.respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// backendFor picks the inference backend for one request. For the webhook
// backend a per-request endpoint overrides the configured default; an
// analysis without any endpoint is rejected before the pipeline runs.
func (s *Server) backendFor(endpoint string) (backend.Backend, error) {
	if s.cfg.Backend == "ollama" {
		return ollama.NewClient(s.cfg.OllamaURL, s.cfg.OllamaModel)
	}
	if endpoint == "" {
		endpoint = s.cfg.WebhookURL
	}
	if endpoint == "" {
		return nil, recognize.ErrNoEndpoint
	}
	return webhook.NewClientWithTimeout(endpoint, s.cfg.RequestTimeout), nil
}

func (s *Server) respondPipelineError(c *gin.Context, err error) {
	var netErr *webhook.NetworkError
	var decErr *webhook.DecodeError

	switch {
	case errors.Is(err, recognize.ErrNoEndpoint):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &netErr), errors.As(err, &decErr):
		s.log.Warn("analysis failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		s.log.Error("analysis failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
