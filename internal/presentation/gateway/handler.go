package gateway

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"github.com/swapspot/swapspot/internal/infrastructure/metrics"
	"github.com/swapspot/swapspot/internal/infrastructure/rpc"
	"github.com/swapspot/swapspot/internal/infrastructure/storage"
	"github.com/swapspot/swapspot/internal/infrastructure/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Handler is the single entry point of the public API. It parses
// /<service>/<command>[/<id>] paths and forwards them over the RPC registry;
// it owns no domain logic of its own.
type Handler struct {
	registry *rpc.Registry
	files    storage.FileStore
	logger   *logger.Logger
	tracer   trace.Tracer
}

func NewHandler(registry *rpc.Registry, files storage.FileStore, logger *logger.Logger) *Handler {
	return &Handler{
		registry: registry,
		files:    files,
		logger:   logger,
		tracer:   tracing.GetTracer("gateway"),
	}
}

// Dispatch is the catch-all route. Every registered service is reached the
// same way; the gateway never inspects the command beyond normalizing it.
func (h *Handler) Dispatch(c *gin.Context) {
	r, err := parseRoute(c.Request.URL.Path)
	if err != nil {
		h.fail(c, err)
		return
	}

	client, ok := h.registry.Client(r.Service)
	if !ok {
		h.fail(c, apperr.NotFound("unknown service %q", r.Service))
		return
	}

	payload, err := h.buildPayload(c, r)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "gateway.dispatch",
		trace.WithAttributes(
			attribute.String("rpc.service", r.Service),
			attribute.String("rpc.command", r.Command),
		))
	defer span.End()

	var result json.RawMessage
	err = client.Call(ctx, r.Command, payload, &result)
	metrics.ObserveRPC(r.Service, err)
	if err != nil {
		span.RecordError(err)
		h.fail(c, err)
		return
	}

	if len(result) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	// The downstream reply goes back verbatim.
	c.Data(http.StatusOK, "application/json; charset=utf-8", result)
}

// buildPayload shapes the RPC payload from the HTTP request. Body-carrying
// methods forward the body; the rest synthesize an {id} payload from the
// third path segment.
func (h *Handler) buildPayload(c *gin.Context, r route) (json.RawMessage, error) {
	switch c.Request.Method {
	case http.MethodPost, http.MethodPut:
		body, err := h.readBody(c)
		if err != nil {
			return nil, err
		}
		if emptyBody(body) {
			return nil, apperr.BadRequest("empty request body")
		}
		return body, nil
	default:
		if r.ID == "" {
			return nil, nil
		}
		payload, err := json.Marshal(map[string]string{"id": r.ID})
		if err != nil {
			return nil, apperr.BadRequest("invalid id: %v", err)
		}
		return payload, nil
	}
}

// readBody returns the JSON document to forward. Multipart requests carry
// their JSON in the "data" field; an uploaded "file" is stored locally and
// its path merged into the document before forwarding.
func (h *Handler) readBody(c *gin.Context) (json.RawMessage, error) {
	contentType := c.ContentType()
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		body, err := c.GetRawData()
		if err != nil {
			return nil, apperr.BadRequest("unreadable request body: %v", err)
		}
		return body, nil
	}

	doc := map[string]json.RawMessage{}
	if data := c.PostForm("data"); data != "" {
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, apperr.BadRequest("invalid data field: %v", err)
		}
	}

	fileHeader, err := c.FormFile("file")
	if err == nil {
		f, err := fileHeader.Open()
		if err != nil {
			return nil, apperr.BadRequest("unreadable upload: %v", err)
		}
		defer f.Close()
		path, err := h.files.Save(c.Request.Context(), fileHeader.Filename, f)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(path)
		if err != nil {
			return nil, apperr.BadRequest("invalid file path: %v", err)
		}
		doc["imagePath"] = encoded
		h.logger.Info("upload stored",
			zap.String("file", fileHeader.Filename),
			zap.String("path", path))
	}

	if len(doc) == 0 {
		return nil, apperr.BadRequest("empty request body")
	}
	return json.Marshal(doc)
}

// emptyBody treats a missing body and a bare "{}" the same: nothing to
// forward.
func emptyBody(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return trimmed == "" || trimmed == "{}"
}

func (h *Handler) fail(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status := apperr.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("dispatch failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": err.Error()}})
}
