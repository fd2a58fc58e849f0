package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-slidegen-be/pkg/report"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SlideCacheModel is the persisted cache record: one row per fingerprint.
type SlideCacheModel struct {
	Fingerprint string         `gorm:"primaryKey;column:fingerprint"`
	Payload     datatypes.JSON `gorm:"column:payload"`
	WrittenAt   time.Time      `gorm:"column:written_at"`
}

func (SlideCacheModel) TableName() string {
	return "slide_cache"
}

// PostgresStore persists cached slide lists across restarts. The upsert runs
// as one statement, so readers never see a partial entry.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&SlideCacheModel{}); err != nil {
		return nil, fmt.Errorf("migrate slide_cache: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*Entry, bool, error) {
	var row SlideCacheModel
	err := s.db.WithContext(ctx).First(&row, "fingerprint = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("postgres get: %w", err)
	}

	var payload []report.Slide
	if err := json.Unmarshal(row.Payload, &payload); err != nil {
		return nil, false, fmt.Errorf("postgres payload decode: %w", err)
	}

	return &Entry{Payload: payload, WrittenAt: row.WrittenAt}, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, entry *Entry) error {
	data, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("postgres payload encode: %w", err)
	}

	row := SlideCacheModel{
		Fingerprint: key,
		Payload:     datatypes.JSON(data),
		WrittenAt:   entry.WrittenAt,
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fingerprint"}},
			UpdateAll: true,
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("postgres set: %w", err)
	}
	return nil
}
