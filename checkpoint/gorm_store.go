package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// checkpointRecord is the database row backing one snapshot.
type checkpointRecord struct {
	WorkflowID string    `gorm:"primaryKey;column:workflow_id;size:128"`
	Data       []byte    `gorm:"column:data"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (checkpointRecord) TableName() string { return "workflow_checkpoints" }

// GormStore keeps snapshots in a relational database through GORM. Any
// dialector works; tests use the pure-Go SQLite driver.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over an open GORM handle and migrates its
// table.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&checkpointRecord{}); err != nil {
		return nil, fmt.Errorf("migrate checkpoint table: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Put(ctx context.Context, workflowID string, data []byte) error {
	record := checkpointRecord{
		WorkflowID: workflowID,
		Data:       data,
		UpdatedAt:  time.Now(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "workflow_id"}},
			UpdateAll: true,
		}).
		Create(&record).Error
}

func (s *GormStore) Get(ctx context.Context, workflowID string) ([]byte, error) {
	var record checkpointRecord
	err := s.db.WithContext(ctx).First(&record, "workflow_id = ?", workflowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record.Data, nil
}

func (s *GormStore) Exists(ctx context.Context, workflowID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&checkpointRecord{}).
		Where("workflow_id = ?", workflowID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) Delete(ctx context.Context, workflowID string) error {
	return s.db.WithContext(ctx).
		Delete(&checkpointRecord{}, "workflow_id = ?", workflowID).Error
}

func (s *GormStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&checkpointRecord{}).
		Order("workflow_id").
		Pluck("workflow_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
