package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/export"
	"github.com/joseph-ayodele/docextract/internal/pipeline"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HTTPHandler serves POST /v1/extract and GET /healthz.
type HTTPHandler struct {
	processor      DocumentProcessor
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewHTTPHandler returns the gin engine for the extraction API.
func NewHTTPHandler(processor DocumentProcessor, maxUploadBytes int64, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	h := &HTTPHandler{processor: processor, maxUploadBytes: maxUploadBytes, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), h.requestID(), h.accessLog())
	if maxUploadBytes > 0 {
		r.MaxMultipartMemory = maxUploadBytes
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/v1/extract", h.extract)
	return r
}

func (h *HTTPHandler) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (h *HTTPHandler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Info("http.request",
			"req_id", common.RequestIDFromContext(c.Request.Context()),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (h *HTTPHandler) extract(c *gin.Context) {
	ctx := c.Request.Context()
	rid := common.RequestIDFromContext(ctx)

	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "xlsx" {
		h.fail(c, common.Kind(common.ErrInvalidInput, "INVALID_REQUEST", fmt.Sprintf("format must be json or xlsx, got %q", format), nil))
		return
	}

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	fh, err := c.FormFile("file")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, newErrorBody(
			common.Kind(common.ErrInvalidInput, "UPLOAD_TOO_LARGE", fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), nil), rid))
		return
	}
	if err != nil {
		h.fail(c, common.Kind(common.ErrInvalidInput, "INVALID_REQUEST", "multipart field \"file\" is required", err))
		return
	}

	req, err := requestFromForm(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	// keep the extension; the loader dispatches on it
	dir, err := os.MkdirTemp("", "docextract-upload-")
	if err != nil {
		h.fail(c, common.NewAppError("INTERNAL", "creating upload dir", err))
		return
	}
	defer func() { _ = os.RemoveAll(dir) }()

	req.Path = filepath.Join(dir, "upload"+strings.ToLower(filepath.Ext(fh.Filename)))
	if err := c.SaveUploadedFile(fh, req.Path); err != nil {
		h.fail(c, common.NewAppError("INTERNAL", "saving upload", err))
		return
	}
	h.logger.Info("http.extract.upload", "req_id", rid, "filename", fh.Filename, "size", fh.Size)

	result, err := h.processor.ProcessDocument(ctx, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	if format == "xlsx" {
		data, err := export.XLSX(result, h.logger)
		if err != nil {
			h.fail(c, common.NewAppError("EXPORT_FAILED", "rendering workbook", err))
			return
		}
		name := strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename)) + ".xlsx"
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Data(http.StatusOK, xlsxContentType, data)
		return
	}
	c.JSON(http.StatusOK, result)
}

// requestFromForm reads fields, auto_detect and doc_type. auto_detect
// defaults to true.
func requestFromForm(c *gin.Context) (pipeline.Request, error) {
	req := pipeline.Request{
		Fields:     SplitFields(c.PostForm("fields")),
		AutoDetect: true,
		DocType:    strings.TrimSpace(c.PostForm("doc_type")),
	}
	if raw := strings.TrimSpace(c.PostForm("auto_detect")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return req, common.Kind(common.ErrInvalidInput, "INVALID_REQUEST", fmt.Sprintf("auto_detect must be a boolean, got %q", raw), nil)
		}
		req.AutoDetect = v
	}
	if req.DocType != "" {
		if _, ok := constants.ParseDocType(req.DocType); !ok {
			return req, common.Kind(common.ErrInvalidInput, "INVALID_REQUEST",
				fmt.Sprintf("doc_type must be one of %s", strings.Join(constants.AsStringSlice(), ", ")), nil)
		}
	}
	return req, nil
}

// SplitFields parses a comma-separated field list, dropping blanks.
func SplitFields(raw string) []string {
	var out []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func (h *HTTPHandler) fail(c *gin.Context, err error) {
	rid := common.RequestIDFromContext(c.Request.Context())
	code := common.HTTPStatus(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("http.extract.failed", "req_id", rid, "status", code, "error", err)
	} else {
		h.logger.Warn("http.extract.rejected", "req_id", rid, "status", code, "error", err)
	}
	c.AbortWithStatusJSON(code, newErrorBody(err, rid))
}
