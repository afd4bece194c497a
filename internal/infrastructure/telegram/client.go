package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/novabot/stats-service/config"
	"github.com/novabot/stats-service/internal/domain/clientpool/entities"
)

// Handle is a live MTProto connection for one client record
type Handle struct {
	client *telegram.Client

	clientID int64

	connected bool
	mu        sync.RWMutex
	cancel    context.CancelFunc
	runDone   chan struct{}

	logger zerolog.Logger

	api *tg.Client

	rateLimiter *rate.Limiter
}

// Manager lazily connects and caches one Handle per client record.
// A record whose session fails to authorize yields an error on every
// resolve until the session is repaired.
type Manager struct {
	db      *gorm.DB
	apiID   int
	apiHash string
	logger  zerolog.Logger

	mu      sync.Mutex
	handles map[int64]*Handle
}

// NewManager creates a new handle manager
func NewManager(db *gorm.DB, tgCfg *config.TelegramConfig, logger zerolog.Logger) *Manager {
	return &Manager{
		db:      db,
		apiID:   tgCfg.APIID,
		apiHash: tgCfg.APIHash,
		logger:  logger.With().Str("component", "mtproto_manager").Logger(),
		handles: make(map[int64]*Handle),
	}
}

// Handle returns a connected handle for the record, connecting on first
// use. The record must already hold an authorized session; this service
// never drives interactive login.
func (m *Manager) Handle(ctx context.Context, record *entities.ClientRecord) (*Handle, error) {
	m.mu.Lock()
	if h, ok := m.handles[record.ID]; ok {
		m.mu.Unlock()
		if h.IsConnected() {
			return h, nil
		}
		return nil, fmt.Errorf("client %d lost its connection", record.ID)
	}
	m.mu.Unlock()

	storage, err := NewGormSessionStorage(m.db, record.SessionKey)
	if err != nil {
		return nil, err
	}

	h := &Handle{
		clientID:    record.ID,
		logger:      m.logger.With().Int64("client_id", record.ID).Logger(),
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 10),
	}
	h.client = telegram.NewClient(m.apiID, m.apiHash, telegram.Options{
		SessionStorage: storage,
	})

	if err := h.connect(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.handles[record.ID] = h
	m.mu.Unlock()
	return h, nil
}

// CloseAll disconnects every cached handle
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	handles := make([]*Handle, 0, len(m.handles))
	for _, h := range m.handles {
		handles = append(handles, h)
	}
	m.handles = make(map[int64]*Handle)
	m.mu.Unlock()

	for _, h := range handles {
		h.disconnect(ctx)
	}
}

// connect starts the gotd client loop and waits until the session is
// authorized and the API surface is ready
func (h *Handle) connect(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connected {
		return nil
	}

	h.logger.Info().Msg("connecting to Telegram")

	clientCtx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	readyChan := make(chan struct{})
	errChan := make(chan error, 1)
	h.runDone = make(chan struct{})

	go func() {
		defer close(h.runDone)
		err := h.client.Run(clientCtx, func(ctx context.Context) error {
			h.api = h.client.API()

			status, err := h.client.Auth().Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to check auth status: %w", err)
			}
			if !status.Authorized {
				return fmt.Errorf("session is not authorized")
			}

			h.connected = true
			h.logger.Info().Msg("session restored from storage")
			close(readyChan)

			<-ctx.Done()
			return ctx.Err()
		})
		select {
		case errChan <- err:
		default:
		}
	}()

	select {
	case <-readyChan:
		return nil
	case err := <-errChan:
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

func (h *Handle) disconnect(ctx context.Context) {
	h.mu.Lock()
	if !h.connected {
		h.mu.Unlock()
		return
	}
	h.logger.Info().Msg("disconnecting from Telegram")
	cancel := h.cancel
	runDone := h.runDone
	h.mu.Unlock()

	if cancel != nil {
		cancel()
		if runDone != nil {
			select {
			case <-runDone:
			case <-ctx.Done():
				h.logger.Warn().Msg("disconnect timeout while waiting for client shutdown")
			}
		}
	}

	h.mu.Lock()
	h.api = nil
	h.connected = false
	h.cancel = nil
	h.runDone = nil
	h.mu.Unlock()
}

// IsConnected checks if the handle is connected to Telegram
func (h *Handle) IsConnected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connected
}

// ClientID returns the client record id this handle serves
func (h *Handle) ClientID() int64 {
	return h.clientID
}

func (h *Handle) apiClient() (*tg.Client, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.connected || h.api == nil {
		return nil, fmt.Errorf("client %d is not connected", h.clientID)
	}
	return h.api, nil
}
