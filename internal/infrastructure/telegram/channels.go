package telegram

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"
)

// ResolveChannel resolves a public username to an InputChannel
func (h *Handle) ResolveChannel(ctx context.Context, username string) (*tg.InputChannel, error) {
	api, err := h.apiClient()
	if err != nil {
		return nil, err
	}

	if err := h.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	resolved, err := api.ContactsResolveUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel: %w", err)
	}

	for _, chat := range resolved.Chats {
		if channel, ok := chat.(*tg.Channel); ok {
			return &tg.InputChannel{
				ChannelID:  channel.ID,
				AccessHash: channel.AccessHash,
			}, nil
		}
	}

	return nil, fmt.Errorf("resolved peer is not a channel")
}

// FullChannel fetches the full channel overview
func (h *Handle) FullChannel(ctx context.Context, input *tg.InputChannel) (*tg.ChannelFull, error) {
	api, err := h.apiClient()
	if err != nil {
		return nil, err
	}

	if err := h.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	result, err := api.ChannelsGetFullChannel(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get full channel: %w", err)
	}

	full, ok := result.FullChat.(*tg.ChannelFull)
	if !ok {
		return nil, fmt.Errorf("unexpected full chat type %T", result.FullChat)
	}
	return full, nil
}

// RecentMessages returns messages newer than sinceUnix, newest first,
// reading at most maxPages pages of history
func (h *Handle) RecentMessages(ctx context.Context, input *tg.InputChannel, sinceUnix int64, maxPages int) ([]*tg.Message, error) {
	api, err := h.apiClient()
	if err != nil {
		return nil, err
	}

	peer := &tg.InputPeerChannel{ChannelID: input.ChannelID, AccessHash: input.AccessHash}

	var messages []*tg.Message
	offsetID := 0

	for page := 0; page < maxPages; page++ {
		if err := h.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
		}

		result, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:     peer,
			OffsetID: offsetID,
			Limit:    100,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get history: %w", err)
		}

		channelMessages, ok := result.(*tg.MessagesChannelMessages)
		if !ok {
			return messages, nil
		}
		if len(channelMessages.Messages) == 0 {
			return messages, nil
		}

		reachedCutoff := false
		for _, raw := range channelMessages.Messages {
			message, ok := raw.(*tg.Message)
			if !ok {
				continue
			}
			if int64(message.Date) < sinceUnix {
				reachedCutoff = true
				break
			}
			messages = append(messages, message)
			offsetID = message.ID
		}
		if reachedCutoff {
			return messages, nil
		}
	}

	return messages, nil
}
