package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/novabot/stats-service/internal/domain/clientpool/deps"
	"github.com/novabot/stats-service/internal/domain/clientpool/entities"
	pullerrors "github.com/novabot/stats-service/internal/domain/clientpool/errors"
)

// ClientRepository is a gorm-backed store for MTProto client identities
type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) deps.ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, record *entities.ClientRecord) (*entities.ClientRecord, error) {
	model := entities.FromEntity(record)
	if model.CreatedAt == 0 {
		model.CreatedAt = time.Now().Unix()
	}
	if model.Status == "" {
		model.Status = string(entities.StatusNew)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, pullerrors.ErrDatabaseOperation
	}
	return model.ToEntity(), nil
}

func (r *ClientRepository) Get(ctx context.Context, clientID int64) (*entities.ClientRecord, error) {
	var model entities.ClientRecordModel
	result := r.db.WithContext(ctx).First(&model, clientID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, pullerrors.ErrClientNotFound
	}
	if result.Error != nil {
		return nil, pullerrors.ErrDatabaseOperation
	}
	return model.ToEntity(), nil
}

func (r *ClientRepository) ListByPool(ctx context.Context, pool entities.PoolType) ([]entities.ClientRecord, error) {
	var models []entities.ClientRecordModel
	result := r.db.WithContext(ctx).
		Where("pool_type = ?", string(pool)).
		Order("id ASC").
		Find(&models)
	if result.Error != nil {
		return nil, pullerrors.ErrDatabaseOperation
	}
	return toEntities(models), nil
}

// ListActiveInternal returns the round-robin ring: usable internal clients
// in stable id order.
func (r *ClientRepository) ListActiveInternal(ctx context.Context) ([]entities.ClientRecord, error) {
	var models []entities.ClientRecordModel
	result := r.db.WithContext(ctx).
		Where("pool_type = ? AND is_active = ? AND status = ?",
			string(entities.PoolInternal), true, string(entities.StatusActive)).
		Order("id ASC").
		Find(&models)
	if result.Error != nil {
		return nil, pullerrors.ErrDatabaseOperation
	}
	return toEntities(models), nil
}

// ListActiveExternal returns usable external clients, least used first.
// Ties on usage_count fall back to the staler last_used_at.
func (r *ClientRepository) ListActiveExternal(ctx context.Context) ([]entities.ClientRecord, error) {
	var models []entities.ClientRecordModel
	result := r.db.WithContext(ctx).
		Where("pool_type = ? AND is_active = ? AND status = ?",
			string(entities.PoolExternal), true, string(entities.StatusActive)).
		Order("usage_count ASC, last_used_at ASC").
		Find(&models)
	if result.Error != nil {
		return nil, pullerrors.ErrDatabaseOperation
	}
	return toEntities(models), nil
}

// IncrementUsage is a single atomic UPDATE so concurrent selections cannot
// lose counts to a read-then-write race.
func (r *ClientRepository) IncrementUsage(ctx context.Context, clientID int64) error {
	result := r.db.WithContext(ctx).
		Model(&entities.ClientRecordModel{}).
		Where("id = ?", clientID).
		Updates(map[string]interface{}{
			"usage_count":  gorm.Expr("usage_count + 1"),
			"last_used_at": time.Now().Unix(),
		})
	if result.Error != nil {
		return pullerrors.ErrDatabaseOperation
	}
	if result.RowsAffected == 0 {
		return pullerrors.ErrClientNotFound
	}
	return nil
}

func (r *ClientRepository) UpdateStatus(ctx context.Context, clientID int64, status entities.ClientStatus, isActive bool) error {
	return r.updateFields(ctx, clientID, map[string]interface{}{
		"status":    string(status),
		"is_active": isActive,
	})
}

func (r *ClientRepository) RecordError(ctx context.Context, clientID int64, code string) error {
	return r.updateFields(ctx, clientID, map[string]interface{}{
		"last_error_code": code,
		"last_error_at":   time.Now().Unix(),
	})
}

func (r *ClientRepository) RecordSelfCheck(ctx context.Context, clientID int64) error {
	return r.updateFields(ctx, clientID, map[string]interface{}{
		"last_self_check_at": time.Now().Unix(),
	})
}

func (r *ClientRepository) SetFloodWait(ctx context.Context, clientID int64, until int64) error {
	return r.updateFields(ctx, clientID, map[string]interface{}{
		"flood_wait_until": until,
	})
}

func (r *ClientRepository) updateFields(ctx context.Context, clientID int64, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&entities.ClientRecordModel{}).
		Where("id = ?", clientID).
		Updates(fields)
	if result.Error != nil {
		return pullerrors.ErrDatabaseOperation
	}
	if result.RowsAffected == 0 {
		return pullerrors.ErrClientNotFound
	}
	return nil
}

func toEntities(models []entities.ClientRecordModel) []entities.ClientRecord {
	records := make([]entities.ClientRecord, 0, len(models))
	for i := range models {
		records = append(records, *models[i].ToEntity())
	}
	return records
}
