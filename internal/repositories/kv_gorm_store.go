package repositories

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVRecord is the row layout of the kv_records table.
type KVRecord struct {
	Key       string `gorm:"primaryKey;type:varchar(128)"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName pins the table name.
func (KVRecord) TableName() string {
	return "kv_records"
}

// GORMKVStore is a GORM implementation of KVStore.
type GORMKVStore struct {
	db *gorm.DB
}

// NewGORMKVStore creates a new GORMKVStore and migrates its table.
func NewGORMKVStore(db *gorm.DB) (*GORMKVStore, error) {
	if err := db.AutoMigrate(&KVRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv_records: %w", err)
	}
	return &GORMKVStore{db: db}, nil
}

// Get retrieves the value stored under key.
func (s *GORMKVStore) Get(key string) ([]byte, error) {
	var rec KVRecord
	if err := s.db.First(&rec, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return []byte(rec.Value), nil
}

// Set inserts or replaces the value stored under key.
func (s *GORMKVStore) Set(key string, value []byte) error {
	rec := KVRecord{Key: key, Value: string(value), UpdatedAt: time.Now()}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *GORMKVStore) Delete(key string) error {
	if err := s.db.Delete(&KVRecord{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}
