package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/novabot/stats-service/config"
	"github.com/novabot/stats-service/internal/domain/adstats/deps"
	"github.com/novabot/stats-service/internal/domain/adstats/entities"
	"github.com/novabot/stats-service/internal/infrastructure/metrics"
)

// LeadMessage announces a join attributed to an ad purchase
type LeadMessage struct {
	Event        string `json:"event"`
	ChannelID    int64  `json:"channel_id"`
	UserID       int64  `json:"user_id"`
	AdPurchaseID int64  `json:"ad_purchase_id"`
	SlotID       int64  `json:"slot_id"`
	Subscribed   bool   `json:"subscribed"`
	InviteLink   string `json:"invite_link"`
	Timestamp    int64  `json:"timestamp"`
}

// SubscriptionStatusMessage announces a subscription status change
type SubscriptionStatusMessage struct {
	Event     string `json:"event"`
	ChannelID int64  `json:"channel_id"`
	UserID    int64  `json:"user_id"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// Producer publishes attribution events to Kafka
type Producer struct {
	writer  *kafka.Writer
	topic   string
	metrics *metrics.Metrics
	logger  zerolog.Logger
	healthy atomic.Bool
}

func NewProducer(cfg *config.KafkaConfig, m *metrics.Metrics, logger zerolog.Logger) (deps.EventPublisher, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.AttributionTopic).
		Msg("Kafka producer initialized")

	p := &Producer{
		writer:  writer,
		topic:   cfg.AttributionTopic,
		metrics: m,
		logger:  logger.With().Str("component", "kafka_producer").Logger(),
	}
	p.healthy.Store(true)
	return p, nil
}

// PublishLead publishes an attributed join
func (p *Producer) PublishLead(ctx context.Context, channelID, userID int64, attribution *entities.Attribution, inviteLink string) error {
	msg := LeadMessage{
		Event:        "lead",
		ChannelID:    channelID,
		UserID:       userID,
		AdPurchaseID: attribution.AdPurchaseID,
		SlotID:       attribution.SlotID,
		Subscribed:   attribution.Subscribed,
		InviteLink:   inviteLink,
		Timestamp:    time.Now().Unix(),
	}

	if err := p.send(ctx, fmt.Sprintf("purchase-%d", attribution.AdPurchaseID), msg); err != nil {
		p.logger.Error().Err(err).
			Int64("user_id", userID).
			Int64("ad_purchase_id", attribution.AdPurchaseID).
			Msg("Failed to send lead message")
		return err
	}

	p.logger.Debug().
		Int64("user_id", userID).
		Int64("ad_purchase_id", attribution.AdPurchaseID).
		Msg("Lead message sent")
	return nil
}

// PublishSubscriptionStatus publishes a left or kicked status change
func (p *Producer) PublishSubscriptionStatus(ctx context.Context, channelID, userID int64, status entities.SubscriptionStatus) error {
	msg := SubscriptionStatusMessage{
		Event:     "subscription_status",
		ChannelID: channelID,
		UserID:    userID,
		Status:    string(status),
		Timestamp: time.Now().Unix(),
	}

	if err := p.send(ctx, fmt.Sprintf("channel-%d", channelID), msg); err != nil {
		p.logger.Error().Err(err).
			Int64("user_id", userID).
			Int64("channel_id", channelID).
			Msg("Failed to send subscription status message")
		return err
	}

	p.logger.Debug().
		Int64("user_id", userID).
		Str("status", string(status)).
		Msg("Subscription status message sent")
	return nil
}

func (p *Producer) send(ctx context.Context, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(key),
		Value: data,
	})
	if err != nil {
		p.metrics.KafkaProduceErrors.Inc()
		p.healthy.Store(false)
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.metrics.KafkaMessagesProduced.Inc()
	p.healthy.Store(true)
	return nil
}

// IsHealthy reports whether the last write succeeded
func (p *Producer) IsHealthy() bool {
	return p.healthy.Load()
}

// Close closes the underlying writer
func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
