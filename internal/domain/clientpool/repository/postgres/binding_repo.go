package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/novabot/stats-service/internal/domain/clientpool/deps"
	"github.com/novabot/stats-service/internal/domain/clientpool/entities"
	pullerrors "github.com/novabot/stats-service/internal/domain/clientpool/errors"
)

// BindingRepository is a gorm-backed store for client-channel bindings
type BindingRepository struct {
	db *gorm.DB
}

func NewBindingRepository(db *gorm.DB) deps.BindingRepository {
	return &BindingRepository{db: db}
}

func (r *BindingRepository) GetOrCreate(ctx context.Context, clientID, channelID int64) (*entities.ChannelBinding, error) {
	var model entities.ChannelBindingModel
	result := r.db.WithContext(ctx).
		Where("client_id = ? AND channel_id = ?", clientID, channelID).
		First(&model)

	if result.Error == nil {
		return model.ToEntity(), nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, pullerrors.ErrDatabaseOperation
	}

	model = entities.ChannelBindingModel{ClientID: clientID, ChannelID: channelID}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		// Lost a create race: the row exists now, read it back.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			result = r.db.WithContext(ctx).
				Where("client_id = ? AND channel_id = ?", clientID, channelID).
				First(&model)
			if result.Error != nil {
				return nil, pullerrors.ErrDatabaseOperation
			}
			return model.ToEntity(), nil
		}
		return nil, pullerrors.ErrDatabaseOperation
	}
	return model.ToEntity(), nil
}

func (r *BindingRepository) ListForChannel(ctx context.Context, channelID int64) ([]entities.ChannelBinding, error) {
	var models []entities.ChannelBindingModel
	result := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("id ASC").
		Find(&models)
	if result.Error != nil {
		return nil, pullerrors.ErrDatabaseOperation
	}
	return toBindingEntities(models), nil
}

// SetMembership updates the supplied membership fields. Raising a
// preferred flag clears it on the channel's other bindings in the same
// transaction, keeping at most one preferred binding per channel per flag.
func (r *BindingRepository) SetMembership(ctx context.Context, clientID, channelID int64, upd entities.BindingUpdate) error {
	fields := bindingFields(upd)
	if len(fields) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, flag := range []string{"preferred_for_stats", "preferred_for_stories"} {
			raised := false
			switch flag {
			case "preferred_for_stats":
				raised = upd.PreferredForStats != nil && *upd.PreferredForStats
			case "preferred_for_stories":
				raised = upd.PreferredForStories != nil && *upd.PreferredForStories
			}
			if !raised {
				continue
			}
			if err := tx.Model(&entities.ChannelBindingModel{}).
				Where("channel_id = ? AND client_id <> ?", channelID, clientID).
				Update(flag, false).Error; err != nil {
				return err
			}
		}

		result := tx.Model(&entities.ChannelBindingModel{}).
			Where("client_id = ? AND channel_id = ?", clientID, channelID).
			Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pullerrors.ErrBindingNotFound
	}
	if err != nil {
		return pullerrors.ErrDatabaseOperation
	}
	return nil
}

func (r *BindingRepository) PreferredForStats(ctx context.Context, channelID int64) (*entities.ChannelBinding, error) {
	return r.firstWhere(ctx, "channel_id = ? AND preferred_for_stats = ?", channelID, true)
}

func (r *BindingRepository) PreferredForStories(ctx context.Context, channelID int64) (*entities.ChannelBinding, error) {
	return r.firstWhere(ctx, "channel_id = ? AND preferred_for_stories = ?", channelID, true)
}

// AnyForChannel returns any binding for the channel, used as fallback when
// no preferred binding exists.
func (r *BindingRepository) AnyForChannel(ctx context.Context, channelID int64) (*entities.ChannelBinding, error) {
	return r.firstWhere(ctx, "channel_id = ?", channelID)
}

func (r *BindingRepository) ListByClient(ctx context.Context, clientID int64) ([]entities.ChannelBinding, error) {
	var models []entities.ChannelBindingModel
	result := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Find(&models)
	if result.Error != nil {
		return nil, pullerrors.ErrDatabaseOperation
	}
	return toBindingEntities(models), nil
}

func (r *BindingRepository) DeleteByClient(ctx context.Context, clientID int64) error {
	result := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Delete(&entities.ChannelBindingModel{})
	if result.Error != nil {
		return pullerrors.ErrDatabaseOperation
	}
	return nil
}

func (r *BindingRepository) firstWhere(ctx context.Context, query string, args ...interface{}) (*entities.ChannelBinding, error) {
	var model entities.ChannelBindingModel
	result := r.db.WithContext(ctx).Where(query, args...).Order("id ASC").First(&model)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, pullerrors.ErrDatabaseOperation
	}
	return model.ToEntity(), nil
}

func bindingFields(upd entities.BindingUpdate) map[string]interface{} {
	fields := make(map[string]interface{})
	if upd.IsMember != nil {
		fields["is_member"] = *upd.IsMember
	}
	if upd.IsAdmin != nil {
		fields["is_admin"] = *upd.IsAdmin
	}
	if upd.CanPostMessages != nil {
		fields["can_post_messages"] = *upd.CanPostMessages
	}
	if upd.CanPostStories != nil {
		fields["can_post_stories"] = *upd.CanPostStories
	}
	if upd.PreferredForStats != nil {
		fields["preferred_for_stats"] = *upd.PreferredForStats
	}
	if upd.PreferredForStories != nil {
		fields["preferred_for_stories"] = *upd.PreferredForStories
	}
	if upd.LastJoinedAt != nil {
		fields["last_joined_at"] = *upd.LastJoinedAt
	}
	if upd.LastSeenAt != nil {
		fields["last_seen_at"] = *upd.LastSeenAt
	}
	if upd.LastErrorCode != nil {
		fields["last_error_code"] = *upd.LastErrorCode
	}
	if upd.LastErrorAt != nil {
		fields["last_error_at"] = *upd.LastErrorAt
	}
	return fields
}

func toBindingEntities(models []entities.ChannelBindingModel) []entities.ChannelBinding {
	bindings := make([]entities.ChannelBinding, 0, len(models))
	for i := range models {
		bindings = append(bindings, *models[i].ToEntity())
	}
	return bindings
}
