package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yourusername/quickdl-go/internal/domain"
	"go.uber.org/zap"
)

// maxErrorBody bounds how much of an error response is read for its detail
const maxErrorBody = 64 << 10

// ServiceClient talks to the extraction service and its rating endpoints
type ServiceClient struct {
	base         string
	http         *http.Client
	averageScale int
	logger       *zap.Logger
}

// NewServiceClient creates a client for the service at config.BaseURL
func NewServiceClient(config domain.ServiceConfig, averageScale int, logger *zap.Logger) *ServiceClient {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServiceClient{
		base:         strings.TrimRight(config.BaseURL, "/"),
		http:         &http.Client{Timeout: timeout},
		averageScale: averageScale,
		logger:       logger,
	}
}

// BaseURL returns the service root
func (c *ServiceClient) BaseURL() string {
	return c.base
}

func (c *ServiceClient) endpoint(path string, query url.Values) string {
	u := c.base + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// FetchMetadata implements domain.ExtractionService
func (c *ServiceClient) FetchMetadata(ctx context.Context, desc domain.PlatformDescriptor, req *domain.DownloadRequest) (*domain.MetadataResponse, error) {
	const op = "metadata"

	res, err := c.doJSON(ctx, op, http.MethodPost, c.endpoint(desc.MetadataPath(req.Mode), nil), req.Body())
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var meta domain.MetadataResponse
	if err := json.NewDecoder(res.Body).Decode(&meta); err != nil {
		return nil, &domain.ServiceError{Sentinel: domain.ErrBadResponse, Operation: op, Status: res.StatusCode, Err: err}
	}
	return &meta, nil
}

// FetchFile implements domain.ExtractionService. The caller closes the body.
func (c *ServiceClient) FetchFile(ctx context.Context, desc domain.PlatformDescriptor, filePath string) (io.ReadCloser, error) {
	query := url.Values{"file_path": []string{filePath}}
	res, err := c.do(ctx, "file", http.MethodGet, c.endpoint(desc.FilePath(), query), nil)
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

type userRatingResponse struct {
	Rating *float64 `json:"rating"`
}

// GetUserRating implements domain.RatingService. A 404 means no rating.
func (c *ServiceClient) GetUserRating(ctx context.Context, identity domain.SessionIdentity, platform domain.Platform) (*domain.Rating, error) {
	const op = "user rating"
	query := url.Values{
		"user_session":  []string{identity.Token},
		"download_type": []string{string(platform)},
	}

	res, err := c.do(ctx, op, http.MethodGet, c.endpoint("api/ratings/user", query), nil)
	if err != nil {
		var se *domain.ServiceError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	defer res.Body.Close()

	var body userRatingResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &domain.ServiceError{Sentinel: domain.ErrBadResponse, Operation: op, Status: res.StatusCode, Err: err}
	}
	if body.Rating == nil || *body.Rating <= 0 {
		return nil, nil
	}
	return &domain.Rating{
		Identity: identity.Token,
		Platform: platform,
		Value:    int(math.Round(*body.Rating)),
	}, nil
}

// SubmitRating implements domain.RatingService
func (c *ServiceClient) SubmitRating(ctx context.Context, rating domain.Rating) error {
	res, err := c.doJSON(ctx, "rating", http.MethodPost, c.endpoint("api/ratings", nil), rating)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, res.Body)
	return res.Body.Close()
}

type averageRatingResponse struct {
	Average float64 `json:"average_rating"`
	Total   int     `json:"total_ratings"`
}

// GetAverageRating implements domain.RatingService
func (c *ServiceClient) GetAverageRating(ctx context.Context, platform domain.Platform) (*domain.AverageRating, error) {
	const op = "average rating"
	query := url.Values{"download_type": []string{string(platform)}}

	res, err := c.do(ctx, op, http.MethodGet, c.endpoint("api/ratings/average", query), nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var body averageRatingResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, &domain.ServiceError{Sentinel: domain.ErrBadResponse, Operation: op, Status: res.StatusCode, Err: err}
	}
	return &domain.AverageRating{
		Platform: platform,
		Average:  math.Round(body.Average*100) / 100,
		Total:    body.Total,
		Scale:    c.averageScale,
	}, nil
}

func (c *ServiceClient) doJSON(ctx context.Context, op, method, target string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
	}
	return c.do(ctx, op, method, target, bytes.NewReader(body))
}

// do sends the request and turns transport failures and non-2xx statuses
// into *domain.ServiceError. On success the caller owns the body.
func (c *ServiceClient) do(ctx context.Context, op, method, target string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Service request failed",
			zap.String("op", op),
			zap.String("url", target),
			zap.Error(err))
		return nil, &domain.ServiceError{Sentinel: domain.ErrTransport, Operation: op, Err: err}
	}

	c.logger.Debug("Service request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", res.StatusCode),
		zap.Duration("took", time.Since(start)))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		res.Body.Close()
		return nil, &domain.ServiceError{
			Sentinel:  domain.ErrServiceRejected,
			Operation: op,
			Status:    res.StatusCode,
			Detail:    parseDetail(raw),
		}
	}
	return res, nil
}

// parseDetail extracts the human-readable "detail" of an error body. The
// service sends either a string or a list of validation entries.
func parseDetail(raw []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var entries []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &entries); err == nil {
		msgs := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Msg != "" {
				msgs = append(msgs, e.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
