package domain

// HistoryRepository defines the interface for local download history
type HistoryRepository interface {
	// Create stores a new record
	Create(record *DownloadRecord) error

	// Update updates an existing record
	Update(record *DownloadRecord) error

	// FindByID finds a record by ID
	FindByID(id string) (*DownloadRecord, error)

	// FindRecent returns the newest records, optionally filtered by platform
	FindRecent(platform Platform, limit int) ([]*DownloadRecord, error)

	// GetStats returns history statistics
	GetStats() (*HistoryStats, error)
}

// HistoryStats represents download history statistics
type HistoryStats struct {
	Total      int64              `json:"total"`
	Retrieved  int64              `json:"retrieved"`
	ByPlatform map[Platform]int64 `json:"by_platform"`
}
