package domain

import (
	"context"
	"io"
)

// MetadataResponse is the service payload of a successful metadata phase
type MetadataResponse struct {
	Message   string `json:"message"`
	FilePath  string `json:"file_path"`
	Title     string `json:"title,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// ExtractionService is the remote extraction/conversion service
type ExtractionService interface {
	// FetchMetadata submits the source URL and returns the file locator
	FetchMetadata(ctx context.Context, desc PlatformDescriptor, req *DownloadRequest) (*MetadataResponse, error)

	// FetchFile opens the binary addressed by a file locator
	FetchFile(ctx context.Context, desc PlatformDescriptor, filePath string) (io.ReadCloser, error)

	// BaseURL returns the service root used to resolve relative references
	BaseURL() string
}

// RatingService is the remote rating store
type RatingService interface {
	// GetUserRating returns the stored rating for the pair, or nil when none exists
	GetUserRating(ctx context.Context, identity SessionIdentity, platform Platform) (*Rating, error)

	// SubmitRating creates the rating for the pair
	SubmitRating(ctx context.Context, rating Rating) error

	// GetAverageRating returns the aggregate for a platform or PlatformOverall
	GetAverageRating(ctx context.Context, platform Platform) (*AverageRating, error)
}

// FileSink is the save-as mechanism receiving a retrieved binary
type FileSink interface {
	// Save consumes r and returns where the file ended up
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}
