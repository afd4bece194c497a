package business

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/novabot/stats-service/internal/domain/clientpool/entities"
	"github.com/novabot/stats-service/internal/infrastructure/metrics"
)

// mockClientRepository is an in-memory deps.ClientRepository
type mockClientRepository struct {
	internal []entities.ClientRecord
	external []entities.ClientRecord
	usage    map[int64]int64
	errs     map[int64]string
}

func newMockClientRepository() *mockClientRepository {
	return &mockClientRepository{
		usage: make(map[int64]int64),
		errs:  make(map[int64]string),
	}
}

func (m *mockClientRepository) Create(ctx context.Context, r *entities.ClientRecord) (*entities.ClientRecord, error) {
	return r, nil
}

func (m *mockClientRepository) Get(ctx context.Context, clientID int64) (*entities.ClientRecord, error) {
	for _, pool := range [][]entities.ClientRecord{m.internal, m.external} {
		for i := range pool {
			if pool[i].ID == clientID {
				return &pool[i], nil
			}
		}
	}
	return nil, nil
}

func (m *mockClientRepository) ListByPool(ctx context.Context, pool entities.PoolType) ([]entities.ClientRecord, error) {
	if pool == entities.PoolInternal {
		return m.internal, nil
	}
	return m.external, nil
}

func (m *mockClientRepository) ListActiveInternal(ctx context.Context) ([]entities.ClientRecord, error) {
	return m.internal, nil
}

func (m *mockClientRepository) ListActiveExternal(ctx context.Context) ([]entities.ClientRecord, error) {
	return m.external, nil
}

func (m *mockClientRepository) IncrementUsage(ctx context.Context, clientID int64) error {
	m.usage[clientID]++
	return nil
}

func (m *mockClientRepository) UpdateStatus(ctx context.Context, clientID int64, status entities.ClientStatus, isActive bool) error {
	return nil
}

func (m *mockClientRepository) RecordError(ctx context.Context, clientID int64, code string) error {
	m.errs[clientID] = code
	return nil
}

func (m *mockClientRepository) RecordSelfCheck(ctx context.Context, clientID int64) error {
	return nil
}

func (m *mockClientRepository) SetFloodWait(ctx context.Context, clientID int64, until int64) error {
	return nil
}

// mockChannelDirectory is an in-memory deps.ChannelDirectory
type mockChannelDirectory struct {
	cursors map[int64]int64
}

func newMockChannelDirectory() *mockChannelDirectory {
	return &mockChannelDirectory{cursors: make(map[int64]int64)}
}

func (m *mockChannelDirectory) LastClientID(ctx context.Context, channelID int64) (int64, error) {
	return m.cursors[channelID], nil
}

func (m *mockChannelDirectory) SetLastClientID(ctx context.Context, channelID, clientID int64) error {
	m.cursors[channelID] = clientID
	return nil
}

func (m *mockChannelDirectory) AccessHash(ctx context.Context, channelID int64) (int64, error) {
	return 0, nil
}

func internalRecord(id int64) entities.ClientRecord {
	return entities.ClientRecord{
		ID:       id,
		PoolType: entities.PoolInternal,
		Status:   entities.StatusActive,
		IsActive: true,
	}
}

func externalRecord(id, usageCount, lastUsedAt int64) entities.ClientRecord {
	return entities.ClientRecord{
		ID:         id,
		PoolType:   entities.PoolExternal,
		Status:     entities.StatusActive,
		IsActive:   true,
		UsageCount: usageCount,
		LastUsedAt: lastUsedAt,
	}
}

func newTestSelector(repo *mockClientRepository, dir *mockChannelDirectory) *Selector {
	return NewSelector(repo, dir, metrics.GetDefaultMetrics(), zerolog.Nop())
}

func TestNextInternalClient_RoundRobinStep(t *testing.T) {
	repo := newMockClientRepository()
	repo.internal = []entities.ClientRecord{internalRecord(1), internalRecord(2), internalRecord(3)}
	dir := newMockChannelDirectory()
	dir.cursors[100] = 2 // last used B

	selector := newTestSelector(repo, dir)

	got, err := selector.NextInternalClient(context.Background(), 100)
	if err != nil {
		t.Fatalf("NextInternalClient failed: %v", err)
	}
	if got == nil || got.ID != 3 {
		t.Errorf("expected client 3 after cursor 2, got %+v", got)
	}
}

func TestNextInternalClient_WrapsAround(t *testing.T) {
	repo := newMockClientRepository()
	repo.internal = []entities.ClientRecord{internalRecord(1), internalRecord(2), internalRecord(3)}
	dir := newMockChannelDirectory()
	dir.cursors[100] = 3 // last used C

	selector := newTestSelector(repo, dir)

	got, err := selector.NextInternalClient(context.Background(), 100)
	if err != nil {
		t.Fatalf("NextInternalClient failed: %v", err)
	}
	if got == nil || got.ID != 1 {
		t.Errorf("expected wrap to client 1 after cursor 3, got %+v", got)
	}
}

func TestNextInternalClient_NoCursorReturnsFirst(t *testing.T) {
	repo := newMockClientRepository()
	repo.internal = []entities.ClientRecord{internalRecord(5), internalRecord(7)}
	dir := newMockChannelDirectory()

	selector := newTestSelector(repo, dir)

	got, err := selector.NextInternalClient(context.Background(), 100)
	if err != nil {
		t.Fatalf("NextInternalClient failed: %v", err)
	}
	if got == nil || got.ID != 5 {
		t.Errorf("expected first ring member 5, got %+v", got)
	}
}

func TestNextInternalClient_SelfHealsOnRemovedCursor(t *testing.T) {
	repo := newMockClientRepository()
	repo.internal = []entities.ClientRecord{internalRecord(1), internalRecord(2), internalRecord(3)}
	dir := newMockChannelDirectory()
	dir.cursors[100] = 99 // no longer in the ring

	selector := newTestSelector(repo, dir)

	got, err := selector.NextInternalClient(context.Background(), 100)
	if err != nil {
		t.Fatalf("NextInternalClient failed: %v", err)
	}
	if got == nil || got.ID != 1 {
		t.Errorf("expected restart at first ring member, got %+v", got)
	}
}

func TestNextInternalClient_EmptyPool(t *testing.T) {
	selector := newTestSelector(newMockClientRepository(), newMockChannelDirectory())

	got, err := selector.NextInternalClient(context.Background(), 100)
	if err != nil {
		t.Fatalf("NextInternalClient failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for empty pool, got %+v", got)
	}
}

func TestNextExternalClient_LeastUsed(t *testing.T) {
	repo := newMockClientRepository()
	// Repository contract: ordered by usage_count asc, last_used_at asc.
	repo.external = []entities.ClientRecord{
		externalRecord(2, 2, 100),
		externalRecord(3, 2, 200),
		externalRecord(1, 5, 50),
	}

	selector := newTestSelector(repo, newMockChannelDirectory())

	got, err := selector.NextExternalClient(context.Background())
	if err != nil {
		t.Fatalf("NextExternalClient failed: %v", err)
	}
	if got == nil || got.ID != 2 {
		t.Errorf("expected least-used client 2 with earliest last_used_at, got %+v", got)
	}
}

func TestNextExternalClient_EmptyPool(t *testing.T) {
	selector := newTestSelector(newMockClientRepository(), newMockChannelDirectory())

	got, err := selector.NextExternalClient(context.Background())
	if err != nil {
		t.Fatalf("NextExternalClient failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for empty pool, got %+v", got)
	}
}

func TestRecordUsage(t *testing.T) {
	repo := newMockClientRepository()
	repo.external = []entities.ClientRecord{externalRecord(1, 0, 0)}
	selector := newTestSelector(repo, newMockChannelDirectory())

	if err := selector.RecordUsage(context.Background(), 1); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}
	if repo.usage[1] != 1 {
		t.Errorf("expected usage 1, got %d", repo.usage[1])
	}
}

func TestRecordFailure(t *testing.T) {
	repo := newMockClientRepository()
	repo.external = []entities.ClientRecord{externalRecord(1, 0, 0)}
	selector := newTestSelector(repo, newMockChannelDirectory())

	if err := selector.RecordFailure(context.Background(), 1, "FLOOD_WAIT"); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}
	if repo.errs[1] != "FLOOD_WAIT" {
		t.Errorf("expected error code FLOOD_WAIT recorded, got %q", repo.errs[1])
	}
}

func TestAdvanceCursor(t *testing.T) {
	dir := newMockChannelDirectory()
	selector := newTestSelector(newMockClientRepository(), dir)

	if err := selector.AdvanceCursor(context.Background(), 100, 7); err != nil {
		t.Fatalf("AdvanceCursor failed: %v", err)
	}
	if dir.cursors[100] != 7 {
		t.Errorf("expected cursor 7, got %d", dir.cursors[100])
	}
}

func TestDeterminePoolType(t *testing.T) {
	cases := []struct {
		username string
		first    string
		want     entities.PoolType
	}{
		{"super_acc", "", entities.PoolInternal},
		{"", "Ultra Bot", entities.PoolExternal},
		{"plain", "Name", entities.PoolUnassigned},
	}

	for _, tc := range cases {
		if got := DeterminePoolType(tc.username, tc.first, ""); got != tc.want {
			t.Errorf("DeterminePoolType(%q, %q) = %q, want %q", tc.username, tc.first, got, tc.want)
		}
	}
}

func TestGenerateAlias(t *testing.T) {
	if got := GenerateAlias("user", "First", "Last", entities.PoolInternal); got != "First Last (@user)" {
		t.Errorf("unexpected alias %q", got)
	}
	if got := GenerateAlias("", "", "", entities.PoolExternal); got != "external-auto" {
		t.Errorf("unexpected fallback alias %q", got)
	}
}
