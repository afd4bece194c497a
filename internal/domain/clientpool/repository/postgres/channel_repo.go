package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/novabot/stats-service/internal/domain/clientpool/deps"
	"github.com/novabot/stats-service/internal/domain/clientpool/entities"
	pullerrors "github.com/novabot/stats-service/internal/domain/clientpool/errors"
)

// ChannelDirectory reads and writes the round-robin cursor and access hash
// on the shared channels table.
type ChannelDirectory struct {
	db *gorm.DB
}

func NewChannelDirectory(db *gorm.DB) deps.ChannelDirectory {
	return &ChannelDirectory{db: db}
}

func (r *ChannelDirectory) LastClientID(ctx context.Context, channelID int64) (int64, error) {
	var model entities.ChannelModel
	result := r.db.WithContext(ctx).First(&model, channelID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		// Unknown channel means no cursor yet, not an error: the selector
		// treats 0 as "start of the ring".
		return 0, nil
	}
	if result.Error != nil {
		return 0, pullerrors.ErrDatabaseOperation
	}
	return model.LastClientID, nil
}

func (r *ChannelDirectory) SetLastClientID(ctx context.Context, channelID, clientID int64) error {
	result := r.db.WithContext(ctx).
		Model(&entities.ChannelModel{}).
		Where("id = ?", channelID).
		Update("last_client_id", clientID)
	if result.Error != nil {
		return pullerrors.ErrDatabaseOperation
	}
	if result.RowsAffected == 0 {
		return pullerrors.ErrChannelNotFound
	}
	return nil
}

func (r *ChannelDirectory) AccessHash(ctx context.Context, channelID int64) (int64, error) {
	var model entities.ChannelModel
	result := r.db.WithContext(ctx).First(&model, channelID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return 0, pullerrors.ErrChannelNotFound
	}
	if result.Error != nil {
		return 0, pullerrors.ErrDatabaseOperation
	}
	return model.AccessHash, nil
}
