package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/novabot/stats-service/internal/domain/statcache/deps"
	"github.com/novabot/stats-service/internal/domain/statcache/entities"
	cacheerrors "github.com/novabot/stats-service/internal/domain/statcache/errors"
)

// Repository is a gorm-backed store for the channel statistics cache
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) deps.CacheRepository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, identifier string, horizon int) (*entities.Entry, error) {
	var model entities.EntryModel
	result := r.db.WithContext(ctx).
		Where("channel_identifier = ? AND horizon = ?", identifier, horizon).
		First(&model)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, cacheerrors.ErrDatabaseOperation
	}
	return model.ToEntity(), nil
}

func (r *Repository) IsFresh(ctx context.Context, identifier string, horizon int, maxAge time.Duration) (bool, error) {
	entry, err := r.Get(ctx, identifier, horizon)
	if err != nil {
		return false, err
	}
	return entry.Fresh(time.Now(), maxAge), nil
}

// SetValue is the single write path for a completed successful refresh.
func (r *Repository) SetValue(ctx context.Context, identifier string, horizon int, value json.RawMessage) (*entities.Entry, error) {
	now := time.Now().Unix()
	return r.upsert(ctx, identifier, horizon, map[string]interface{}{
		"value":               []byte(value),
		"updated_at":          now,
		"last_attempt_at":     now,
		"refresh_in_progress": false,
		"error_message":       "",
	}, &entities.EntryModel{
		ChannelIdentifier: identifier,
		Horizon:           horizon,
		Value:             []byte(value),
		UpdatedAt:         now,
		LastAttemptAt:     now,
	})
}

// SetError records a failed refresh. The last good value and updated_at are
// left untouched so stale-but-valid data keeps serving readers.
func (r *Repository) SetError(ctx context.Context, identifier string, horizon int, message string) (*entities.Entry, error) {
	now := time.Now().Unix()
	return r.upsert(ctx, identifier, horizon, map[string]interface{}{
		"last_attempt_at":     now,
		"refresh_in_progress": false,
		"error_message":       message,
	}, &entities.EntryModel{
		ChannelIdentifier: identifier,
		Horizon:           horizon,
		Value:             []byte("{}"),
		LastAttemptAt:     now,
		ErrorMessage:      message,
	})
}

// MarkRefreshInProgress implements single-flight with a conditional UPDATE:
// the database decides who wins the flag, not a read-then-write.
func (r *Repository) MarkRefreshInProgress(ctx context.Context, identifier string, horizon int, inProgress bool) (bool, error) {
	if !inProgress {
		result := r.db.WithContext(ctx).
			Model(&entities.EntryModel{}).
			Where("channel_identifier = ? AND horizon = ?", identifier, horizon).
			Update("refresh_in_progress", false)
		if result.Error != nil {
			return false, cacheerrors.ErrDatabaseOperation
		}
		return true, nil
	}

	result := r.db.WithContext(ctx).
		Model(&entities.EntryModel{}).
		Where("channel_identifier = ? AND horizon = ? AND refresh_in_progress = ?",
			identifier, horizon, false).
		Update("refresh_in_progress", true)
	if result.Error != nil {
		return false, cacheerrors.ErrDatabaseOperation
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	// Either the row is absent or someone else holds the flag.
	entry, err := r.Get(ctx, identifier, horizon)
	if err != nil {
		return false, err
	}
	if entry != nil {
		return false, nil
	}

	// First refresh for this key: create a placeholder so concurrent
	// callers can observe the in-flight refresh before any value exists.
	model := entities.EntryModel{
		ChannelIdentifier: identifier,
		Horizon:           horizon,
		Value:             []byte("{}"),
		UpdatedAt:         0,
		RefreshInProgress: true,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the create race to another refresher.
			return false, nil
		}
		return false, cacheerrors.ErrDatabaseOperation
	}
	return true, nil
}

func (r *Repository) ClearStaleRefreshFlags(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Unix() - int64(maxAge.Seconds())

	result := r.db.WithContext(ctx).
		Model(&entities.EntryModel{}).
		Where("refresh_in_progress = ? AND updated_at < ?", true, cutoff).
		Updates(map[string]interface{}{
			"refresh_in_progress": false,
			"error_message":       cacheerrors.StaleRefreshTimeout,
		})
	if result.Error != nil {
		return 0, cacheerrors.ErrDatabaseOperation
	}
	return result.RowsAffected, nil
}

func (r *Repository) upsert(ctx context.Context, identifier string, horizon int, fields map[string]interface{}, insert *entities.EntryModel) (*entities.Entry, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.EntryModel{}).
		Where("channel_identifier = ? AND horizon = ?", identifier, horizon).
		Updates(fields)
	if result.Error != nil {
		return nil, cacheerrors.ErrDatabaseOperation
	}

	if result.RowsAffected == 0 {
		if err := r.db.WithContext(ctx).Create(insert).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Concurrent insert for the same key: retry as update.
				retry := r.db.WithContext(ctx).
					Model(&entities.EntryModel{}).
					Where("channel_identifier = ? AND horizon = ?", identifier, horizon).
					Updates(fields)
				if retry.Error != nil {
					return nil, cacheerrors.ErrDatabaseOperation
				}
			} else {
				return nil, cacheerrors.ErrDatabaseOperation
			}
		}
	}

	return r.Get(ctx, identifier, horizon)
}
