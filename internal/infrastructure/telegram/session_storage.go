package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gotd/td/session"
	"gorm.io/gorm"
)

// GormSessionStorage implements session.Storage on PostgreSQL, keyed by a
// client record's session key
type GormSessionStorage struct {
	db         *gorm.DB
	sessionKey string
}

// NewGormSessionStorage creates session storage for one client record
func NewGormSessionStorage(db *gorm.DB, sessionKey string) (*GormSessionStorage, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is required")
	}

	return &GormSessionStorage{db: db, sessionKey: sessionKey}, nil
}

// LoadSession loads session data from PostgreSQL
func (s *GormSessionStorage) LoadSession(ctx context.Context) ([]byte, error) {
	var sess SessionModel
	result := s.db.WithContext(ctx).Where("session_key = ?", s.sessionKey).First(&sess)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, session.ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load session: %w", result.Error)
	}

	if len(sess.SessionData) == 0 {
		return nil, session.ErrNotFound
	}

	return sess.SessionData, nil
}

// StoreSession stores session data to PostgreSQL
func (s *GormSessionStorage) StoreSession(ctx context.Context, data []byte) error {
	var sess SessionModel
	result := s.db.WithContext(ctx).Where("session_key = ?", s.sessionKey).First(&sess)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		sess = SessionModel{
			SessionKey:  s.sessionKey,
			SessionData: data,
			UpdatedAt:   time.Now().Unix(),
		}
		if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		return nil
	}
	if result.Error != nil {
		return fmt.Errorf("failed to query session: %w", result.Error)
	}

	err := s.db.WithContext(ctx).Model(&sess).Updates(map[string]interface{}{
		"session_data": data,
		"updated_at":   time.Now().Unix(),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// DeleteSession removes the session from the database
func (s *GormSessionStorage) DeleteSession(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("session_key = ?", s.sessionKey).Delete(&SessionModel{}).Error
}

// Ensure GormSessionStorage implements session.Storage interface
var _ session.Storage = (*GormSessionStorage)(nil)
