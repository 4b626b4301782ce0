package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DownloadRequest is one user-initiated submit. It is immutable once sent and
// never retried; a new submit builds a new request.
type DownloadRequest struct {
	Platform  Platform
	SourceURL string
	Mode      DownloadMode
	Options   map[string]string
}

// NewDownloadRequest validates the input and fills option defaults
func NewDownloadRequest(platform Platform, sourceURL string, mode DownloadMode, options map[string]string) (*DownloadRequest, error) {
	desc, ok := Describe(platform)
	if !ok {
		return nil, fmt.Errorf("unsupported platform %q: %w", platform, ErrInvalidURL)
	}
	if err := Validate(platform, sourceURL); err != nil {
		return nil, err
	}

	if mode == ModeDefault {
		mode = desc.DefaultMode
	}
	if !desc.SupportsMode(mode) {
		return nil, &ValidationError{
			Platform: platform,
			Err:      ErrInvalidMode,
			Message:  fmt.Sprintf("Unsupported %s format: %s.", desc.DisplayName, mode),
		}
	}

	resolved := make(map[string]string)
	for _, opt := range desc.Options {
		if !opt.appliesTo(mode) {
			continue
		}
		value := strings.TrimSpace(options[opt.Name])
		if value == "" {
			value = opt.Default
		}
		if len(opt.Allowed) > 0 && !contains(opt.Allowed, value) {
			return nil, &ValidationError{
				Platform: platform,
				Err:      ErrInvalidOption,
				Message:  fmt.Sprintf("Unsupported %s: %s.", opt.Name, value),
			}
		}
		resolved[opt.Name] = value
	}

	return &DownloadRequest{
		Platform:  platform,
		SourceURL: strings.TrimSpace(sourceURL),
		Mode:      mode,
		Options:   resolved,
	}, nil
}

// Body returns the JSON body for the metadata phase
func (r *DownloadRequest) Body() map[string]string {
	body := make(map[string]string, len(r.Options)+1)
	for k, v := range r.Options {
		body[k] = v
	}
	body["url"] = r.SourceURL
	return body
}

func (s OptionSpec) appliesTo(mode DownloadMode) bool {
	return len(s.Modes) == 0 || containsMode(s.Modes, mode)
}

// DownloadResult is the outcome of a successful metadata phase
type DownloadResult struct {
	Platform   Platform `json:"platform"`
	SourceURL  string   `json:"source_url"`
	FilePath   string   `json:"file_path"`
	PreviewURL *string  `json:"preview_url"`
	Title      string   `json:"title"`
	Message    string   `json:"message"`
}

// Filename returns the save-as name for the retrieval phase
func (r *DownloadResult) Filename() string {
	return FilenameFromLocator(r.FilePath)
}

// DownloadRecord is a local history entry for a completed metadata phase
type DownloadRecord struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	Platform    Platform   `json:"platform" gorm:"not null;index"`
	SourceURL   string     `json:"source_url" gorm:"not null"`
	Title       string     `json:"title"`
	FilePath    string     `json:"file_path"`
	PreviewURL  string     `json:"preview_url,omitempty"`
	SavedPath   string     `json:"saved_path,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime;index"`
	RetrievedAt *time.Time `json:"retrieved_at,omitempty"`
}

// TableName specifies the table name for GORM
func (DownloadRecord) TableName() string {
	return "download_records"
}

// NewDownloadRecord creates a history entry for a result
func NewDownloadRecord(result *DownloadResult) *DownloadRecord {
	rec := &DownloadRecord{
		ID:        uuid.New().String(),
		Platform:  result.Platform,
		SourceURL: result.SourceURL,
		Title:     result.Title,
		FilePath:  result.FilePath,
		CreatedAt: time.Now(),
	}
	if result.PreviewURL != nil {
		rec.PreviewURL = *result.PreviewURL
	}
	return rec
}

// MarkRetrieved records where the binary was saved
func (r *DownloadRecord) MarkRetrieved(savedPath string) {
	r.SavedPath = savedPath
	now := time.Now()
	r.RetrievedAt = &now
}

// IsRetrieved checks if the file has been saved locally
func (r *DownloadRecord) IsRetrieved() bool {
	return r.RetrievedAt != nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func containsMode(modes []DownloadMode, m DownloadMode) bool {
	for _, s := range modes {
		if s == m {
			return true
		}
	}
	return false
}
