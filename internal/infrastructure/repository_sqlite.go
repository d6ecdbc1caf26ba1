package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourusername/media-fetch-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteRunRepository implements RunRepository using SQLite
type SQLiteRunRepository struct {
	db *gorm.DB
}

// NewSQLiteRunRepository opens (and migrates) the run history database
func NewSQLiteRunRepository(dbPath string) (*SQLiteRunRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.RunRecord{}, &domain.ItemRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteRunRepository{db: db}, nil
}

// Create creates a new run record
func (r *SQLiteRunRepository) Create(run *domain.RunRecord) error {
	return r.db.Omit("Items").Create(run).Error
}

// Update saves the run and replaces its item records
func (r *SQLiteRunRepository) Update(run *domain.RunRecord) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(run).Error; err != nil {
			return err
		}
		if err := tx.Where("run_id = ?", run.ID).Delete(&domain.ItemRecord{}).Error; err != nil {
			return err
		}
		if len(run.Items) == 0 {
			return nil
		}
		for i := range run.Items {
			run.Items[i].ID = 0
			run.Items[i].RunID = run.ID
		}
		return tx.Create(&run.Items).Error
	})
}

// FindByID finds a run by ID with its items ordered by position
func (r *SQLiteRunRepository) FindByID(id string) (*domain.RunRecord, error) {
	var run domain.RunRecord
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&run, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// FindRecent returns the most recent runs without their items, newest first
func (r *SQLiteRunRepository) FindRecent(limit int) ([]*domain.RunRecord, error) {
	var runs []*domain.RunRecord
	query := r.db.Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&runs).Error
	return runs, err
}

// GetStats returns run statistics
func (r *SQLiteRunRepository) GetStats() (*domain.RunStats, error) {
	stats := &domain.RunStats{}

	if err := r.db.Model(&domain.RunRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	stateCounts := []struct {
		State domain.RunState
		Count int64
	}{}

	if err := r.db.Model(&domain.RunRecord{}).
		Select("state, count(*) as count").
		Group("state").
		Scan(&stateCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range stateCounts {
		switch sc.State {
		case domain.RunCompleted:
			stats.Completed = sc.Count
		case domain.RunStopped:
			stats.Stopped = sc.Count
		case domain.RunFailed:
			stats.Failed = sc.Count
		}
	}

	if err := r.db.Model(&domain.ItemRecord{}).Count(&stats.Items).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&domain.ItemRecord{}).
		Where("state = ?", domain.ItemFinished).
		Count(&stats.ItemsOK).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteRunRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
