package gateway

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shortform-pipeline/config"
)

// Server is the HTTP intake for raw videos. Uploads land in the planner's
// watched directory under a fresh UUID name; processing itself is
// asynchronous, so the upload endpoint only ever acknowledges receipt.
type Server struct {
	cfg    *config.Config
	log    *zap.SugaredLogger
	engine *gin.Engine
}

// New builds the router
func New(cfg *config.Config, log *zap.SugaredLogger) *Server {
	s := &Server{cfg: cfg, log: log}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger(), corsMiddleware())
	engine.POST("/upload", s.handleUpload)
	engine.GET("/health", s.handleHealth)

	s.engine = engine
	return s
}

// Engine exposes the router for tests
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run blocks serving HTTP on the configured port
func (s *Server) Run() error {
	s.log.Infow("gateway starting", "port", s.cfg.Gateway.Port)
	return s.engine.Run(":" + s.cfg.Gateway.Port)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Infow("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		s.log.Errorw("upload failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file is received"})
		return
	}

	metadata := c.PostForm("metadata")

	ext := filepath.Ext(file.Filename)
	storedName := uuid.New().String() + ext
	dst := filepath.Join(s.cfg.Paths.Raw, storedName)

	if err := c.SaveUploadedFile(file, dst); err != nil {
		s.log.Errorw("save failed", "filename", storedName, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to save file: " + err.Error()})
		return
	}

	// Sidecar failures must not fail the upload itself
	if metadata != "" {
		sidecar := filepath.Join(s.cfg.Paths.Raw, storedName+"_metadata.json")
		if err := os.WriteFile(sidecar, []byte(metadata), 0644); err != nil {
			s.log.Errorw("metadata save failed", "filename", storedName, "error", err)
		} else {
			s.log.Infow("metadata saved", "filename", storedName)
		}
	}

	s.log.Infow("file received",
		"original_name", file.Filename,
		"stored_name", storedName,
		"has_metadata", metadata != "",
	)

	c.JSON(http.StatusAccepted, gin.H{
		"message":  "File uploaded successfully",
		"filename": storedName,
		"status":   "processing_started",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
