package business

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/novabot/stats-service/internal/domain/clientpool/deps"
	"github.com/novabot/stats-service/internal/domain/clientpool/entities"
)

// Lifecycle covers client registration and decommissioning: adopting
// orphan sessions into a pool and resetting a client out of its channels.
type Lifecycle struct {
	clients  deps.ClientRepository
	bindings deps.BindingRepository
	logger   zerolog.Logger
}

func NewLifecycle(
	clients deps.ClientRepository,
	bindings deps.BindingRepository,
	logger zerolog.Logger,
) *Lifecycle {
	return &Lifecycle{
		clients:  clients,
		bindings: bindings,
		logger:   logger.With().Str("component", "client_lifecycle").Logger(),
	}
}

// Register creates a client record for a session identity, classifying the
// pool from the account's display data when no pool is given.
func (l *Lifecycle) Register(ctx context.Context, sessionKey, username, firstName, lastName string, pool entities.PoolType) (*entities.ClientRecord, error) {
	if pool == "" {
		pool = DeterminePoolType(username, firstName, lastName)
	}

	record, err := l.clients.Create(ctx, &entities.ClientRecord{
		Alias:      GenerateAlias(username, firstName, lastName, pool),
		PoolType:   pool,
		SessionKey: sessionKey,
		Status:     entities.StatusNew,
		IsActive:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("create client record: %w", err)
	}

	l.logger.Info().
		Int64("client_id", record.ID).
		Str("pool", string(record.PoolType)).
		Msg("Client registered")
	return record, nil
}

// Decommission marks the client RESETTING and drops all of its channel
// bindings. The record itself is kept: reset re-provisions, never removes.
func (l *Lifecycle) Decommission(ctx context.Context, clientID int64) error {
	if err := l.clients.UpdateStatus(ctx, clientID, entities.StatusResetting, false); err != nil {
		return fmt.Errorf("mark client %d resetting: %w", clientID, err)
	}
	if err := l.bindings.DeleteByClient(ctx, clientID); err != nil {
		return fmt.Errorf("drop bindings for client %d: %w", clientID, err)
	}

	l.logger.Info().Int64("client_id", clientID).Msg("Client decommissioned")
	return nil
}

// DeterminePoolType classifies an account by keywords in its display data:
// "super" accounts are internal, "ultra" accounts are external, anything
// else waits for manual moderation.
func DeterminePoolType(username, firstName, lastName string) entities.PoolType {
	search := strings.ToLower(username + " " + firstName + " " + lastName)
	switch {
	case strings.Contains(search, "super"):
		return entities.PoolInternal
	case strings.Contains(search, "ultra"):
		return entities.PoolExternal
	default:
		return entities.PoolUnassigned
	}
}

// GenerateAlias builds a human alias from the account's display data.
func GenerateAlias(username, firstName, lastName string, pool entities.PoolType) string {
	fullName := strings.TrimSpace(firstName + " " + lastName)
	switch {
	case fullName != "" && username != "":
		return fmt.Sprintf("%s (@%s)", fullName, username)
	case fullName != "":
		return fullName
	case username != "":
		return "@" + username
	default:
		return string(pool) + "-auto"
	}
}
