package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/quickdl-go/api/middleware"
	"github.com/yourusername/quickdl-go/internal/app"
	"github.com/yourusername/quickdl-go/internal/domain"
	"go.uber.org/zap"
)

// PlatformHandler exposes the per-platform download workflow
type PlatformHandler struct {
	registry *app.Registry
	logger   *zap.Logger
}

// NewPlatformHandler creates a new platform handler
func NewPlatformHandler(registry *app.Registry, logger *zap.Logger) *PlatformHandler {
	return &PlatformHandler{
		registry: registry,
		logger:   logger,
	}
}

// SubmitRequest represents a metadata request
type SubmitRequest struct {
	URL     string `json:"url"`
	Mode    string `json:"mode"`
	Quality string `json:"quality"`
}

// RateRequest represents a rating submission
type RateRequest struct {
	Rating int `json:"rating" binding:"required"`
}

// SubmitResponse is returned by a successful metadata phase
type SubmitResponse struct {
	Result *domain.DownloadResult `json:"result"`
	State  app.ModuleState        `json:"state"`
}

// ErrorResponse carries the user-facing message of a failed operation
type ErrorResponse struct {
	Error string           `json:"error"`
	State *app.ModuleState `json:"state,omitempty"`
}

// Mount handles POST /api/v1/platforms/:platform/mount
func (h *PlatformHandler) Mount(c *gin.Context) {
	identity, platform, ok := h.target(c)
	if !ok {
		return
	}

	module, err := h.registry.Mount(c.Request.Context(), identity, platform)
	if err != nil {
		h.logger.Error("Failed to mount module", zap.String("platform", string(platform)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: domain.GenericErrorMessage})
		return
	}

	c.JSON(http.StatusOK, module.State())
}

// Unmount handles DELETE /api/v1/platforms/:platform
func (h *PlatformHandler) Unmount(c *gin.Context) {
	identity, platform, ok := h.target(c)
	if !ok {
		return
	}

	h.registry.Unmount(identity, platform)
	c.Status(http.StatusNoContent)
}

// GetState handles GET /api/v1/platforms/:platform
func (h *PlatformHandler) GetState(c *gin.Context) {
	module, ok := h.module(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, module.State())
}

// Submit handles POST /api/v1/platforms/:platform/submit
func (h *PlatformHandler) Submit(c *gin.Context) {
	module, ok := h.module(c)
	if !ok {
		return
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body."})
		return
	}

	var options map[string]string
	if req.Quality != "" {
		options = map[string]string{"quality": req.Quality}
	}

	result, err := module.Submit(detached(c), req.URL, domain.DownloadMode(req.Mode), options)
	if err != nil {
		h.fail(c, module, err, domain.UserMessage(err, ""))
		return
	}

	c.JSON(http.StatusOK, SubmitResponse{Result: result, State: module.State()})
}

// File handles GET /api/v1/platforms/:platform/file and streams the
// retrieved binary as an attachment
func (h *PlatformHandler) File(c *gin.Context) {
	module, ok := h.module(c)
	if !ok {
		return
	}

	sink := &AttachmentSink{w: c.Writer}
	if _, err := module.Retrieve(c.Request.Context(), sink); err != nil {
		if sink.started {
			// headers are gone; the client sees a truncated body
			h.logger.Warn("File stream interrupted", zap.Error(err))
			return
		}
		h.fail(c, module, err, domain.UserMessage(err, app.MsgRetrieveFailed))
	}
}

// Rate handles POST /api/v1/platforms/:platform/rating
func (h *PlatformHandler) Rate(c *gin.Context) {
	module, ok := h.module(c)
	if !ok {
		return
	}

	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: domain.UserMessage(domain.ErrInvalidRating, "")})
		return
	}

	if err := module.Rate(detached(c), req.Rating); err != nil {
		msg := app.MsgRatingFailed
		if statusFor(err) < http.StatusInternalServerError {
			msg = domain.UserMessage(err, app.MsgRatingFailed)
		}
		h.fail(c, module, err, msg)
		return
	}

	c.JSON(http.StatusOK, module.State())
}

// GetNotification handles GET /api/v1/platforms/:platform/notification
func (h *PlatformHandler) GetNotification(c *gin.Context) {
	module, ok := h.module(c)
	if !ok {
		return
	}

	n, shown := module.Notifications().Current()
	if !shown {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, n)
}

// DismissNotification handles DELETE /api/v1/platforms/:platform/notification
func (h *PlatformHandler) DismissNotification(c *gin.Context) {
	module, ok := h.module(c)
	if !ok {
		return
	}
	module.Notifications().Dismiss()
	c.Status(http.StatusNoContent)
}

// detached keeps the request's values but outlives the client connection, so
// a service call finishes and lands in module state after the browser leaves
func detached(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// target reads the session identity and a known platform from the request
func (h *PlatformHandler) target(c *gin.Context) (domain.SessionIdentity, domain.Platform, bool) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "No session identity."})
		return identity, "", false
	}

	platform := domain.Platform(c.Param("platform"))
	if !domain.ValidatePlatform(platform) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("Unknown platform %q.", platform)})
		return identity, "", false
	}
	return identity, platform, true
}

// module returns the session's mounted module for the requested platform
func (h *PlatformHandler) module(c *gin.Context) (*app.Module, bool) {
	identity, platform, ok := h.target(c)
	if !ok {
		return nil, false
	}

	module, ok := h.registry.Get(identity, platform)
	if !ok {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Platform is not mounted."})
		return nil, false
	}
	return module, true
}

func (h *PlatformHandler) fail(c *gin.Context, module *app.Module, err error, msg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("Request failed",
			zap.String("platform", string(module.Descriptor().Platform)),
			zap.Error(err))
	}
	if errors.Is(err, domain.ErrUnmounted) {
		c.JSON(status, ErrorResponse{Error: "Platform is not mounted."})
		return
	}
	state := module.State()
	c.JSON(status, ErrorResponse{Error: msg, State: &state})
}

// statusFor maps workflow errors to HTTP status codes
func statusFor(err error) int {
	var se *domain.ServiceError
	switch {
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrBusy),
		errors.Is(err, domain.ErrUnmounted),
		errors.Is(err, domain.ErrNoResult),
		errors.Is(err, domain.ErrRatingHidden),
		errors.Is(err, domain.ErrAlreadyRated):
		return http.StatusConflict
	case errors.As(err, &se),
		errors.Is(err, domain.ErrRatingNotLoaded):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AttachmentSink streams a retrieved file to the HTTP client as a download
type AttachmentSink struct {
	w       gin.ResponseWriter
	started bool
}

// Save implements domain.FileSink
func (s *AttachmentSink) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	header := s.w.Header()
	header.Set("Content-Type", "application/octet-stream")
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	s.w.WriteHeader(http.StatusOK)
	s.started = true

	if _, err := io.Copy(s.w, r); err != nil {
		return "", fmt.Errorf("stream %s: %w", name, err)
	}
	return name, nil
}
