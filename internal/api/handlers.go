package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"heiconv/internal/models"
	"heiconv/internal/ratelimit"
	"heiconv/internal/service/convert"
	"heiconv/internal/storage"
)

// Handler wires HTTP routes to the conversion service.
type Handler struct {
	svc      *convert.Service
	history  *storage.History
	limiter  *ratelimit.Limiter
	maxBytes int64
}

// NewHandler constructs a Handler instance. history and limiter may be
// nil, disabling /stats detail and upload rate limiting respectively.
func NewHandler(svc *convert.Service, history *storage.History, limiter *ratelimit.Limiter, maxBytes int64) *Handler {
	return &Handler{
		svc:      svc,
		history:  history,
		limiter:  limiter,
		maxBytes: maxBytes,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.index)
	router.StaticFile("/robots.txt", "./static/robots.txt")
	router.StaticFile("/sitemap.xml", "./static/sitemap.xml")
	router.POST("/upload", h.upload)
	router.POST("/convert", h.convert)
	router.GET("/download/:session_id", h.download)
	router.GET("/status/:session_id", h.status)
	router.DELETE("/clear/:session_id", h.clear)
	router.GET("/stats", h.stats)
}

func (h *Handler) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"maxUploadMB": h.maxBytes >> 20,
	})
}

// uploadBodySlack covers multipart framing and form fields beyond the
// file bytes themselves.
const uploadBodySlack = 256 << 10

func (h *Handler) upload(c *gin.Context) {
	if !h.limiter.Allow(c.Request.Context(), c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many uploads, please retry shortly."})
		return
	}
	// Cap the request at the transport so an oversized body is cut off
	// during parsing instead of being spooled to disk first.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+uploadBodySlack)
	file, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("File too large. Maximum size is %d MB.", h.maxBytes>>20)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open file failed"})
		return
	}
	defer src.Close()

	sess, err := h.svc.SaveUpload(file.Filename, file.Size, src)
	if err != nil {
		var vErr *convert.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save file failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID,
		"filename":   sess.OriginalFilename,
		"status":     sess.Status,
	})
}

type convertRequest struct {
	SessionID    string `json:"session_id"`
	OutputFormat string `json:"output_format"`
	StripExif    bool   `json:"strip_exif"`
}

func (h *Handler) convert(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	format := models.FormatJPEG
	if req.OutputFormat != "" {
		parsed, ok := models.ParseOutputFormat(req.OutputFormat)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported output format"})
			return
		}
		format = parsed
	}

	sess, err := h.svc.Convert(c.Request.Context(), req.SessionID, format, req.StripExif)
	if err != nil {
		switch {
		case errors.Is(err, convert.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, convert.ErrInvalidState):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			// Codec and IO failures both surface as 500 with their detail;
			// the same detail is captured on the session for /status.
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        sess.Status,
		"output_format": sess.OutputFormat,
	})
}

func (h *Handler) download(c *gin.Context) {
	info, err := h.svc.Download(c.Param("session_id"))
	if err != nil {
		if errors.Is(err, convert.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "file not ready for download"})
		return
	}
	c.Header("Content-Type", info.MIME)
	c.FileAttachment(info.Path, info.Filename)
}

func (h *Handler) status(c *gin.Context) {
	sess, err := h.svc.Status(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	body := gin.H{"status": sess.Status}
	if sess.ErrorDetail != "" {
		body["error"] = sess.ErrorDetail
	}
	if sess.OutputFormat != "" {
		body["output_format"] = sess.OutputFormat
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) clear(c *gin.Context) {
	h.svc.Clear(c.Param("session_id"))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) stats(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	stats, err := h.history.ConversionStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	recent, err := h.history.RecentConversions(c.Request.Context(), 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enabled": true,
		"stats":   stats,
		"recent":  recent,
	})
}
