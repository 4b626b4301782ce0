package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yourusername/quickdl-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements IdentityStore and HistoryRepository using SQLite.
// It is the CLI's durable client store.
type SQLiteStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the store at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database: %w", err)
	}
	// a single connection serializes writers
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&domain.Cookie{}, &domain.DownloadRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ============================================================================
// IdentityStore implementation
// ============================================================================

// Get returns the live cookie for name and path, or nil
func (s *SQLiteStore) Get(ctx context.Context, name, path string) (*domain.Cookie, error) {
	var cookie domain.Cookie
	err := s.db.WithContext(ctx).Where("name = ? AND path = ?", name, path).First(&cookie).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if cookie.Expired(s.now()) {
		return nil, nil
	}
	return &cookie, nil
}

// SetIfAbsent inserts cookie unless a live one exists and returns the
// stored cookie. An expired cookie is replaced.
func (s *SQLiteStore) SetIfAbsent(ctx context.Context, cookie *domain.Cookie) (*domain.Cookie, error) {
	db := s.db.WithContext(ctx)

	if err := db.Where("name = ? AND path = ? AND expires_at > ? AND expires_at <= ?",
		cookie.Name, cookie.Path, time.Time{}, s.now()).
		Delete(&domain.Cookie{}).Error; err != nil {
		return nil, fmt.Errorf("failed to purge expired cookie: %w", err)
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(cookie).Error; err != nil {
		return nil, fmt.Errorf("failed to store cookie: %w", err)
	}

	var stored domain.Cookie
	if err := db.Where("name = ? AND path = ?", cookie.Name, cookie.Path).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to read back cookie: %w", err)
	}
	return &stored, nil
}

// ============================================================================
// HistoryRepository implementation
// ============================================================================

// Create creates a new history record
func (s *SQLiteStore) Create(record *domain.DownloadRecord) error {
	return s.db.Create(record).Error
}

// Update updates an existing history record
func (s *SQLiteStore) Update(record *domain.DownloadRecord) error {
	return s.db.Save(record).Error
}

// FindByID finds a record by ID, returning nil when absent
func (s *SQLiteStore) FindByID(id string) (*domain.DownloadRecord, error) {
	var record domain.DownloadRecord
	err := s.db.First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// FindRecent returns the newest records first, optionally for one platform
func (s *SQLiteStore) FindRecent(platform domain.Platform, limit int) ([]*domain.DownloadRecord, error) {
	var records []*domain.DownloadRecord
	query := s.db.Order("created_at DESC")
	if platform != "" {
		query = query.Where("platform = ?", platform)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}

// GetStats returns history statistics
func (s *SQLiteStore) GetStats() (*domain.HistoryStats, error) {
	stats := &domain.HistoryStats{ByPlatform: make(map[domain.Platform]int64)}

	if err := s.db.Model(&domain.DownloadRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&domain.DownloadRecord{}).
		Where("retrieved_at IS NOT NULL").
		Count(&stats.Retrieved).Error; err != nil {
		return nil, err
	}

	platformCounts := []struct {
		Platform domain.Platform
		Count    int64
	}{}
	if err := s.db.Model(&domain.DownloadRecord{}).
		Select("platform, count(*) as count").
		Group("platform").
		Scan(&platformCounts).Error; err != nil {
		return nil, err
	}
	for _, pc := range platformCounts {
		stats.ByPlatform[pc.Platform] = pc.Count
	}

	return stats, nil
}
