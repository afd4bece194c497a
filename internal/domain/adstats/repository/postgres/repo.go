package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/novabot/stats-service/internal/domain/adstats/deps"
	"github.com/novabot/stats-service/internal/domain/adstats/entities"
	aderrors "github.com/novabot/stats-service/internal/domain/adstats/errors"
)

// Repository is a gorm-backed store for ad link mappings, leads and
// subscriptions
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) deps.Repository {
	return &Repository{db: db}
}

func (r *Repository) TrackableMappingsByChannel(ctx context.Context) (map[int64][]entities.LinkMapping, error) {
	var models []entities.LinkMappingModel
	result := r.db.WithContext(ctx).
		Where("target_type = ? AND track_enabled = ? AND target_channel_id <> 0",
			string(entities.TargetChannel), true).
		Order("id ASC").
		Find(&models)
	if result.Error != nil {
		return nil, aderrors.ErrDatabaseOperation
	}

	grouped := make(map[int64][]entities.LinkMapping)
	for i := range models {
		mapping := models[i].ToEntity()
		grouped[mapping.TargetChannelID] = append(grouped[mapping.TargetChannelID], *mapping)
	}
	return grouped, nil
}

// UpsertMapping replaces the target fields of an existing (purchase, slot)
// mapping or creates a new one. The scan cursor is preserved on re-mapping.
func (r *Repository) UpsertMapping(ctx context.Context, mapping *entities.LinkMapping) (*entities.LinkMapping, error) {
	var existing entities.LinkMappingModel
	result := r.db.WithContext(ctx).
		Where("ad_purchase_id = ? AND slot_id = ?", mapping.AdPurchaseID, mapping.SlotID).
		First(&existing)

	if result.Error == nil {
		updates := map[string]interface{}{
			"original_url":      mapping.OriginalURL,
			"target_type":       string(mapping.TargetType),
			"target_channel_id": mapping.TargetChannelID,
			"invite_link":       mapping.InviteLink,
			"ref_param":         mapping.RefParam,
			"track_enabled":     mapping.TrackEnabled,
		}
		if err := r.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			return nil, aderrors.ErrDatabaseOperation
		}
		if err := r.db.WithContext(ctx).First(&existing, existing.ID).Error; err != nil {
			return nil, aderrors.ErrDatabaseOperation
		}
		return existing.ToEntity(), nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, aderrors.ErrDatabaseOperation
	}

	model := entities.LinkMappingModel{
		AdPurchaseID:    mapping.AdPurchaseID,
		SlotID:          mapping.SlotID,
		OriginalURL:     mapping.OriginalURL,
		TargetType:      string(mapping.TargetType),
		TargetChannelID: mapping.TargetChannelID,
		InviteLink:      mapping.InviteLink,
		RefParam:        mapping.RefParam,
		TrackEnabled:    mapping.TrackEnabled,
		CreatedAt:       time.Now().Unix(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, aderrors.ErrDatabaseOperation
	}
	return model.ToEntity(), nil
}

// AdvanceCursor is a conditional UPDATE: the WHERE clause guarantees the
// high-water mark only moves forward, even under replays.
func (r *Repository) AdvanceCursor(ctx context.Context, mappingID, eventID int64) error {
	result := r.db.WithContext(ctx).
		Model(&entities.LinkMappingModel{}).
		Where("id = ? AND last_scanned_id < ?", mappingID, eventID).
		Update("last_scanned_id", eventID)
	if result.Error != nil {
		return aderrors.ErrDatabaseOperation
	}
	return nil
}

// ProcessJoinEvent finds the mapping owning the invite link, records a lead
// (deduplicated by user+purchase) and adds or reactivates the subscription.
func (r *Repository) ProcessJoinEvent(ctx context.Context, channelID, userID int64, inviteLink string) (*entities.Attribution, error) {
	var mappingModel entities.LinkMappingModel
	result := r.db.WithContext(ctx).
		Where("invite_link = ?", inviteLink).
		First(&mappingModel)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, aderrors.ErrDatabaseOperation
	}
	mapping := mappingModel.ToEntity()

	if err := r.addLead(ctx, userID, mapping); err != nil {
		return nil, err
	}

	subscribed, err := r.addSubscription(ctx, userID, channelID, mapping)
	if err != nil {
		return nil, err
	}

	return &entities.Attribution{
		AdPurchaseID: mapping.AdPurchaseID,
		SlotID:       mapping.SlotID,
		Subscribed:   subscribed,
	}, nil
}

func (r *Repository) UpdateSubscriptionStatus(ctx context.Context, userID, channelID int64, status entities.SubscriptionStatus) error {
	fields := map[string]interface{}{"status": string(status)}
	if status == entities.SubscriptionLeft || status == entities.SubscriptionKicked {
		fields["left_timestamp"] = time.Now().Unix()
	}

	result := r.db.WithContext(ctx).
		Model(&entities.SubscriptionModel{}).
		Where("user_id = ? AND channel_id = ?", userID, channelID).
		Updates(fields)
	if result.Error != nil {
		return aderrors.ErrDatabaseOperation
	}
	return nil
}

// addLead records the lead unless one already exists for (user, purchase).
// A join implies intent even when no prior click was captured.
func (r *Repository) addLead(ctx context.Context, userID int64, mapping *entities.LinkMapping) error {
	ref := mapping.RefParam
	if ref == "" {
		ref = syntheticRefParam(mapping.AdPurchaseID, mapping.SlotID)
	}

	model := entities.LeadModel{
		UserID:       userID,
		AdPurchaseID: mapping.AdPurchaseID,
		SlotID:       mapping.SlotID,
		RefParam:     ref,
		CreatedAt:    time.Now().Unix(),
	}
	err := r.db.WithContext(ctx).Create(&model).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return aderrors.ErrDatabaseOperation
	}
	return nil
}

// addSubscription creates the subscription or reactivates one whose user
// previously left. Returns whether the subscription is newly active.
func (r *Repository) addSubscription(ctx context.Context, userID, channelID int64, mapping *entities.LinkMapping) (bool, error) {
	var existing entities.SubscriptionModel
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND channel_id = ? AND ad_purchase_id = ?",
			userID, channelID, mapping.AdPurchaseID).
		First(&existing)

	if result.Error == nil {
		if existing.Status == string(entities.SubscriptionActive) {
			return false, nil
		}
		err := r.db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
			"status":         string(entities.SubscriptionActive),
			"left_timestamp": 0,
		}).Error
		if err != nil {
			return false, aderrors.ErrDatabaseOperation
		}
		return true, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return false, aderrors.ErrDatabaseOperation
	}

	model := entities.SubscriptionModel{
		UserID:       userID,
		ChannelID:    channelID,
		AdPurchaseID: mapping.AdPurchaseID,
		SlotID:       mapping.SlotID,
		InviteLink:   mapping.InviteLink,
		Status:       string(entities.SubscriptionActive),
		CreatedAt:    time.Now().Unix(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, aderrors.ErrDatabaseOperation
	}
	return true, nil
}

// syntheticRefParam marks leads discovered through the admin log rather
// than a tracked click.
func syntheticRefParam(purchaseID, slotID int64) string {
	return fmt.Sprintf("auto_%d_%d", purchaseID, slotID)
}
