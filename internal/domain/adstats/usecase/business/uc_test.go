package business

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novabot/stats-service/config"
	"github.com/novabot/stats-service/internal/domain/adstats/deps"
	"github.com/novabot/stats-service/internal/domain/adstats/entities"
	"github.com/novabot/stats-service/internal/infrastructure/metrics"
)

type memoryRepository struct {
	mappings      []entities.LinkMapping
	leads         map[[2]int64]bool // (userID, purchaseID)
	subscriptions map[[3]int64]entities.SubscriptionStatus
	cursorCalls   []int64
	failTrackable bool
}

func newMemoryRepository(mappings ...entities.LinkMapping) *memoryRepository {
	return &memoryRepository{
		mappings:      mappings,
		leads:         make(map[[2]int64]bool),
		subscriptions: make(map[[3]int64]entities.SubscriptionStatus),
	}
}

func (r *memoryRepository) TrackableMappingsByChannel(_ context.Context) (map[int64][]entities.LinkMapping, error) {
	if r.failTrackable {
		return nil, errors.New("db down")
	}
	grouped := make(map[int64][]entities.LinkMapping)
	for _, m := range r.mappings {
		if m.Trackable() {
			grouped[m.TargetChannelID] = append(grouped[m.TargetChannelID], m)
		}
	}
	return grouped, nil
}

func (r *memoryRepository) UpsertMapping(_ context.Context, mapping *entities.LinkMapping) (*entities.LinkMapping, error) {
	r.mappings = append(r.mappings, *mapping)
	return mapping, nil
}

func (r *memoryRepository) AdvanceCursor(_ context.Context, mappingID, eventID int64) error {
	r.cursorCalls = append(r.cursorCalls, eventID)
	for i := range r.mappings {
		if r.mappings[i].ID == mappingID && r.mappings[i].LastScannedID < eventID {
			r.mappings[i].LastScannedID = eventID
		}
	}
	return nil
}

func (r *memoryRepository) ProcessJoinEvent(_ context.Context, channelID, userID int64, inviteLink string) (*entities.Attribution, error) {
	for _, m := range r.mappings {
		if m.InviteLink != inviteLink {
			continue
		}
		r.leads[[2]int64{userID, m.AdPurchaseID}] = true
		key := [3]int64{userID, channelID, m.AdPurchaseID}
		subscribed := r.subscriptions[key] != entities.SubscriptionActive
		r.subscriptions[key] = entities.SubscriptionActive
		return &entities.Attribution{
			AdPurchaseID: m.AdPurchaseID,
			SlotID:       m.SlotID,
			Subscribed:   subscribed,
		}, nil
	}
	return nil, nil
}

func (r *memoryRepository) UpdateSubscriptionStatus(_ context.Context, userID, channelID int64, status entities.SubscriptionStatus) error {
	for key := range r.subscriptions {
		if key[0] == userID && key[1] == channelID {
			r.subscriptions[key] = status
		}
	}
	return nil
}

func (r *memoryRepository) cursorOf(mappingID int64) int64 {
	for _, m := range r.mappings {
		if m.ID == mappingID {
			return m.LastScannedID
		}
	}
	return -1
}

type stubHandle struct {
	events []entities.AdminLogEvent
	err    error
}

func (h *stubHandle) AdminLog(_ context.Context, _ int64, minID int64) ([]entities.AdminLogEvent, error) {
	if h.err != nil {
		return nil, h.err
	}
	var out []entities.AdminLogEvent
	for _, e := range h.events {
		if e.ID > minID {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubProvider struct {
	handles map[int64]*stubHandle
	errs    map[int64]error
}

func (p *stubProvider) StatsClient(_ context.Context, channelID int64) (deps.ClientHandle, int64, error) {
	if err := p.errs[channelID]; err != nil {
		return nil, 0, err
	}
	h, ok := p.handles[channelID]
	if !ok {
		return nil, 0, nil
	}
	return h, 42, nil
}

type recordingPublisher struct {
	leads    []int64
	statuses []entities.SubscriptionStatus
	err      error
}

func (p *recordingPublisher) PublishLead(_ context.Context, _, userID int64, _ *entities.Attribution, _ string) error {
	if p.err != nil {
		return p.err
	}
	p.leads = append(p.leads, userID)
	return nil
}

func (p *recordingPublisher) PublishSubscriptionStatus(_ context.Context, _, _ int64, status entities.SubscriptionStatus) error {
	if p.err != nil {
		return p.err
	}
	p.statuses = append(p.statuses, status)
	return nil
}

func (p *recordingPublisher) IsHealthy() bool { return true }
func (p *recordingPublisher) Close() error    { return nil }

func newTestScanner(repo deps.Repository, provider deps.ClientProvider, publisher deps.EventPublisher) *Scanner {
	cfg := &config.ScannerConfig{Interval: 600 * time.Second, ChannelTimeout: 2 * time.Minute}
	return NewScanner(repo, provider, publisher, cfg, metrics.GetDefaultMetrics(), zerolog.Nop())
}

func trackedMapping(id, purchaseID, channelID int64, inviteLink string) entities.LinkMapping {
	return entities.LinkMapping{
		ID:              id,
		AdPurchaseID:    purchaseID,
		SlotID:          7,
		TargetType:      entities.TargetChannel,
		TargetChannelID: channelID,
		InviteLink:      inviteLink,
		TrackEnabled:    true,
	}
}

func TestScanner_JoinThenLeave(t *testing.T) {
	repo := newMemoryRepository(trackedMapping(1, 10, 100, "https://t.me/+abc"))
	provider := &stubProvider{handles: map[int64]*stubHandle{
		100: {events: []entities.AdminLogEvent{
			{ID: 1, Action: entities.ActionJoinByInvite, UserID: 555, InviteLink: "https://t.me/+abc"},
			{ID: 2, Action: entities.ActionLeft, UserID: 555},
		}},
	}}
	publisher := &recordingPublisher{}

	scanner := newTestScanner(repo, provider, publisher)
	require.NoError(t, scanner.RunCycle(context.Background()))

	assert.True(t, repo.leads[[2]int64{555, 10}], "lead should be recorded")
	assert.Equal(t, entities.SubscriptionLeft, repo.subscriptions[[3]int64{555, 100, 10}])
	assert.Equal(t, int64(2), repo.cursorOf(1))
	assert.Equal(t, []int64{555}, publisher.leads)
	assert.Equal(t, []entities.SubscriptionStatus{entities.SubscriptionLeft}, publisher.statuses)
}

func TestScanner_NormalizesInviteLinks(t *testing.T) {
	repo := newMemoryRepository(trackedMapping(1, 10, 100, "https://t.me/+AbC123"))
	provider := &stubProvider{handles: map[int64]*stubHandle{
		100: {events: []entities.AdminLogEvent{
			{ID: 5, Action: entities.ActionJoinByInvite, UserID: 7, InviteLink: "t.me/+AbC123"},
		}},
	}}
	publisher := &recordingPublisher{}

	scanner := newTestScanner(repo, provider, publisher)
	require.NoError(t, scanner.RunCycle(context.Background()))

	assert.True(t, repo.leads[[2]int64{7, 10}])
}

func TestScanner_UnmatchedLinkOnlyAdvancesCursor(t *testing.T) {
	repo := newMemoryRepository(trackedMapping(1, 10, 100, "https://t.me/+abc"))
	provider := &stubProvider{handles: map[int64]*stubHandle{
		100: {events: []entities.AdminLogEvent{
			{ID: 3, Action: entities.ActionJoinByInvite, UserID: 9, InviteLink: "https://t.me/+other"},
		}},
	}}
	publisher := &recordingPublisher{}

	scanner := newTestScanner(repo, provider, publisher)
	require.NoError(t, scanner.RunCycle(context.Background()))

	assert.Empty(t, repo.leads)
	assert.Empty(t, publisher.leads)
	assert.Equal(t, int64(3), repo.cursorOf(1))
}

func TestScanner_KickedMarksKicked(t *testing.T) {
	repo := newMemoryRepository(trackedMapping(1, 10, 100, "https://t.me/+abc"))
	repo.subscriptions[[3]int64{555, 100, 10}] = entities.SubscriptionActive
	provider := &stubProvider{handles: map[int64]*stubHandle{
		100: {events: []entities.AdminLogEvent{
			{ID: 8, Action: entities.ActionMemberKicked, UserID: 555},
		}},
	}}
	publisher := &recordingPublisher{}

	scanner := newTestScanner(repo, provider, publisher)
	require.NoError(t, scanner.RunCycle(context.Background()))

	assert.Equal(t, entities.SubscriptionKicked, repo.subscriptions[[3]int64{555, 100, 10}])
}

func TestScanner_ReplayIsIdempotent(t *testing.T) {
	repo := newMemoryRepository(trackedMapping(1, 10, 100, "https://t.me/+abc"))
	handle := &stubHandle{events: []entities.AdminLogEvent{
		{ID: 1, Action: entities.ActionJoinByInvite, UserID: 555, InviteLink: "https://t.me/+abc"},
	}}
	provider := &stubProvider{handles: map[int64]*stubHandle{100: handle}}
	publisher := &recordingPublisher{}

	scanner := newTestScanner(repo, provider, publisher)
	require.NoError(t, scanner.RunCycle(context.Background()))

	// Second cycle starts past the cursor so the event is not re-read.
	require.NoError(t, scanner.RunCycle(context.Background()))

	assert.Len(t, repo.leads, 1)
	assert.Len(t, publisher.leads, 1)
	assert.Equal(t, int64(1), repo.cursorOf(1))
}

func TestScanner_CursorNeverRegresses(t *testing.T) {
	mapping := trackedMapping(1, 10, 100, "https://t.me/+abc")
	mapping.LastScannedID = 50
	repo := newMemoryRepository(mapping)
	provider := &stubProvider{handles: map[int64]*stubHandle{
		100: {events: []entities.AdminLogEvent{
			{ID: 49, Action: entities.ActionJoinByInvite, UserID: 1, InviteLink: "https://t.me/+abc"},
			{ID: 51, Action: entities.ActionJoinByInvite, UserID: 2, InviteLink: "https://t.me/+abc"},
		}},
	}}
	publisher := &recordingPublisher{}

	scanner := newTestScanner(repo, provider, publisher)
	require.NoError(t, scanner.RunCycle(context.Background()))

	// Event 49 is behind the cursor and filtered at the source; the
	// cursor ends at 51 and never passed through 49.
	assert.Equal(t, int64(51), repo.cursorOf(1))
	assert.NotContains(t, repo.cursorCalls, int64(49))
	assert.False(t, repo.leads[[2]int64{1, 10}])
}

func TestScanner_LaggingMappingReadsFromSlowestCursor(t *testing.T) {
	fast := trackedMapping(1, 10, 100, "https://t.me/+abc")
	fast.LastScannedID = 20
	slow := trackedMapping(2, 11, 100, "https://t.me/+def")
	slow.LastScannedID = 5
	repo := newMemoryRepository(fast, slow)
	provider := &stubProvider{handles: map[int64]*stubHandle{
		100: {events: []entities.AdminLogEvent{
			{ID: 10, Action: entities.ActionJoinByInvite, UserID: 1, InviteLink: "https://t.me/+def"},
			{ID: 30, Action: entities.ActionJoinByInvite, UserID: 2, InviteLink: "https://t.me/+abc"},
		}},
	}}
	publisher := &recordingPublisher{}

	scanner := newTestScanner(repo, provider, publisher)
	require.NoError(t, scanner.RunCycle(context.Background()))

	// The slow mapping catches up through event 10, both finish at 30.
	assert.True(t, repo.leads[[2]int64{1, 11}])
	assert.True(t, repo.leads[[2]int64{2, 10}])
	assert.Equal(t, int64(30), repo.cursorOf(1))
	assert.Equal(t, int64(30), repo.cursorOf(2))
}

func TestScanner_ChannelFailureIsIsolated(t *testing.T) {
	repo := newMemoryRepository(
		trackedMapping(1, 10, 100, "https://t.me/+abc"),
		trackedMapping(2, 11, 200, "https://t.me/+def"),
	)
	provider := &stubProvider{
		handles: map[int64]*stubHandle{
			200: {events: []entities.AdminLogEvent{
				{ID: 1, Action: entities.ActionJoinByInvite, UserID: 555, InviteLink: "https://t.me/+def"},
			}},
		},
		errs: map[int64]error{100: errors.New("flood wait")},
	}
	publisher := &recordingPublisher{}

	scanner := newTestScanner(repo, provider, publisher)
	require.NoError(t, scanner.RunCycle(context.Background()))

	assert.True(t, repo.leads[[2]int64{555, 11}], "healthy channel should still be scanned")
	assert.Equal(t, int64(0), repo.cursorOf(1), "failed channel cursor must not move")
}

func TestScanner_NoUsableClientSkipsChannel(t *testing.T) {
	repo := newMemoryRepository(trackedMapping(1, 10, 100, "https://t.me/+abc"))
	provider := &stubProvider{handles: map[int64]*stubHandle{}}
	publisher := &recordingPublisher{}

	scanner := newTestScanner(repo, provider, publisher)
	require.NoError(t, scanner.RunCycle(context.Background()))

	assert.Equal(t, int64(0), repo.cursorOf(1))
}

func TestScanner_PublishFailureDoesNotBlockCursor(t *testing.T) {
	repo := newMemoryRepository(trackedMapping(1, 10, 100, "https://t.me/+abc"))
	provider := &stubProvider{handles: map[int64]*stubHandle{
		100: {events: []entities.AdminLogEvent{
			{ID: 1, Action: entities.ActionJoinByInvite, UserID: 555, InviteLink: "https://t.me/+abc"},
		}},
	}}
	publisher := &recordingPublisher{err: errors.New("broker unreachable")}

	scanner := newTestScanner(repo, provider, publisher)
	require.NoError(t, scanner.RunCycle(context.Background()))

	assert.True(t, repo.leads[[2]int64{555, 10}])
	assert.Equal(t, int64(1), repo.cursorOf(1))
}

func TestScanner_RepositoryFailureFailsCycle(t *testing.T) {
	repo := newMemoryRepository()
	repo.failTrackable = true

	scanner := newTestScanner(repo, &stubProvider{}, &recordingPublisher{})
	assert.Error(t, scanner.RunCycle(context.Background()))
}
