package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yourusername/quickdl-go/internal/domain"
	"go.uber.org/zap"
)

// Orchestrator runs the two-phase download protocol against the extraction
// service: metadata first, then the binary on an explicit retrieval.
type Orchestrator struct {
	service domain.ExtractionService
	desc    domain.PlatformDescriptor
	logger  *zap.Logger
}

// NewOrchestrator creates an orchestrator for one platform
func NewOrchestrator(service domain.ExtractionService, desc domain.PlatformDescriptor, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		service: service,
		desc:    desc,
		logger:  logger.With(zap.String("platform", string(desc.Platform))),
	}
}

// Descriptor returns the platform the orchestrator serves
func (o *Orchestrator) Descriptor() domain.PlatformDescriptor {
	return o.desc
}

// FetchMetadata performs the metadata phase. It is not retried.
func (o *Orchestrator) FetchMetadata(ctx context.Context, req *domain.DownloadRequest) (*domain.DownloadResult, error) {
	o.logger.Info("Requesting metadata",
		zap.String("url", req.SourceURL),
		zap.String("mode", string(req.Mode)))

	resp, err := o.service.FetchMetadata(ctx, o.desc, req)
	if err != nil {
		o.logger.Warn("Metadata request failed", zap.Error(err))
		return nil, err
	}
	if strings.TrimSpace(resp.FilePath) == "" {
		err := &domain.ServiceError{
			Sentinel:  domain.ErrBadResponse,
			Operation: "metadata",
			Err:       fmt.Errorf("response has no file_path"),
		}
		o.logger.Error("Malformed metadata response", zap.Error(err))
		return nil, err
	}

	title := strings.TrimSpace(resp.Title)
	if title == "" {
		title = o.desc.DefaultTitle
	}

	result := &domain.DownloadResult{
		Platform:   o.desc.Platform,
		SourceURL:  req.SourceURL,
		FilePath:   resp.FilePath,
		PreviewURL: domain.ResolvePreviewURL(o.desc, o.service.BaseURL(), req.SourceURL, resp.Thumbnail),
		Title:      title,
		Message:    resp.Message,
	}

	o.logger.Info("Metadata received",
		zap.String("title", result.Title),
		zap.String("file_path", result.FilePath))

	return result, nil
}

// Retrieve performs the retrieval phase for a displayed result and hands the
// binary to sink. It returns where the sink stored the file.
func (o *Orchestrator) Retrieve(ctx context.Context, result *domain.DownloadResult, sink domain.FileSink) (string, error) {
	if result == nil {
		return "", domain.ErrNoResult
	}

	body, err := o.service.FetchFile(ctx, o.desc, result.FilePath)
	if err != nil {
		o.logger.Warn("File request failed",
			zap.String("file_path", result.FilePath),
			zap.Error(err))
		return "", err
	}
	defer body.Close()

	name := result.Filename()
	saved, err := sink.Save(ctx, name, body)
	if err != nil {
		o.logger.Error("Failed to save file",
			zap.String("filename", name),
			zap.Error(err))
		return "", fmt.Errorf("failed to save %s: %w", name, err)
	}

	o.logger.Info("File retrieved",
		zap.String("filename", name),
		zap.String("saved_to", saved))

	return saved, nil
}
