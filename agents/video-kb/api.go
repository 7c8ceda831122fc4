package videokb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"video-kb/shared/logger"
	"video-kb/shared/monitoring"
	"video-kb/shared/youtube"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// API exposes the Service over HTTP: /add_video, /ask_question, /get_videos,
// /delete_video/:id plus health and status.
type API struct {
	service *Service
	monitor *monitoring.Monitor
	log     *logger.Logger
	router  *gin.Engine
}

type addVideoRequest struct {
	URL *string `json:"url"`
}

type askQuestionRequest struct {
	Question *string `json:"question"`
}

func NewAPI(service *Service, monitor *monitoring.Monitor, log *logger.Logger) *API {
	a := &API{
		service: service,
		monitor: monitor,
		log:     log,
	}

	r := gin.New()
	r.Use(gin.Recovery(), a.requestContext())

	r.POST("/add_video", a.addVideo)
	r.POST("/ask_question", a.askQuestion)
	r.GET("/get_videos", a.getVideos)
	r.DELETE("/delete_video/:id", a.deleteVideo)
	monitoring.RegisterRoutes(r, monitor)

	a.router = r
	return a
}

func (a *API) Handler() http.Handler {
	return a.router
}

// Run serves on port until ctx is cancelled, then shuts down gracefully.
func (a *API) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	a.log.Info("HTTP server stopped")
	return nil
}

func (a *API) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Set("request_id", id)

		start := time.Now()
		c.Next()

		a.log.Debug("HTTP request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (a *API) addVideo(c *gin.Context) {
	var req addVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing JSON in request"})
		return
	}
	if req.URL == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'url' in JSON data"})
		return
	}

	result, err := a.service.Ingest(c.Request.Context(), *req.URL)
	if result != nil {
		switch result.Status {
		case StatusCreated:
			c.JSON(http.StatusCreated, gin.H{"message": "Video processed and added successfully", "title": result.Title})
			return
		case StatusDuplicate:
			c.JSON(http.StatusOK, gin.H{"message": "Video already exists in database"})
			return
		case StatusUnprocessable:
			c.JSON(http.StatusBadRequest, gin.H{"message": "Couldn't retrieve or process transcript"})
			return
		}
	}

	if errors.Is(err, youtube.ErrInvalidURL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid YouTube URL"})
		return
	}
	a.log.Error("Failed to add video", "request_id", c.GetString("request_id"), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error processing video: %v", err)})
}

func (a *API) askQuestion(c *gin.Context) {
	var req askQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request must be JSON"})
		return
	}
	if req.Question == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'question' in JSON data"})
		return
	}

	answer, err := a.service.Answer(c.Request.Context(), *req.Question)
	if err != nil {
		if errors.Is(err, ErrEmptyQuestion) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Question must not be empty"})
			return
		}
		a.log.Error("Failed to answer question", "request_id", c.GetString("request_id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error processing question: %v", err)})
		return
	}

	resp := gin.H{"answer": answer.Text}
	if answer.HTML != "" {
		resp["html"] = answer.HTML
	}
	c.JSON(http.StatusOK, resp)
}

func (a *API) getVideos(c *gin.Context) {
	videos, err := a.service.ListVideos(c.Request.Context())
	if err != nil {
		a.log.Error("Failed to list videos", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing videos"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

func (a *API) deleteVideo(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid video id"})
		return
	}

	deleted, err := a.service.DeleteVideo(c.Request.Context(), id)
	if err != nil {
		a.log.Error("Failed to delete video", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting video"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Video deleted successfully"})
}
