package telegram

import (
	"context"
	"fmt"
	"sort"

	"github.com/gotd/td/tg"

	"github.com/novabot/stats-service/internal/domain/adstats/entities"
)

const adminLogPageSize = 100

// AdminLog returns membership events with id > minID in ascending id
// order. The server hands pages newest-first, so the walk goes backwards
// through MaxID until it reaches minID, then the result is reversed.
func (h *Handle) AdminLog(ctx context.Context, channelID, accessHash, minID int64) ([]entities.AdminLogEvent, error) {
	api, err := h.apiClient()
	if err != nil {
		return nil, err
	}

	input := &tg.InputChannel{ChannelID: channelID, AccessHash: accessHash}
	filter := tg.ChannelAdminLogEventsFilter{
		Join:   true,
		Leave:  true,
		Invite: true,
		Ban:    true,
		Kick:   true,
	}

	var events []entities.AdminLogEvent
	maxID := int64(0)

	for {
		if err := h.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
		}

		result, err := api.ChannelsGetAdminLog(ctx, &tg.ChannelsGetAdminLogRequest{
			Channel:      input,
			Q:            "",
			EventsFilter: filter,
			MaxID:        maxID,
			MinID:        minID,
			Limit:        adminLogPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get admin log: %w", err)
		}

		if len(result.Events) == 0 {
			break
		}

		for _, raw := range result.Events {
			if raw.ID <= minID {
				continue
			}
			if event := mapAdminLogEvent(&raw); event != nil {
				events = append(events, *event)
			}
			if maxID == 0 || raw.ID < maxID {
				maxID = raw.ID
			}
		}

		if len(result.Events) < adminLogPageSize {
			break
		}
		if maxID <= minID {
			break
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

// mapAdminLogEvent converts a raw admin log entry into the domain event.
// Entries the attribution pipeline does not care about map to nil.
func mapAdminLogEvent(raw *tg.ChannelAdminLogEvent) *entities.AdminLogEvent {
	event := entities.AdminLogEvent{
		ID:     raw.ID,
		UserID: raw.UserID,
		Date:   int64(raw.Date),
	}

	switch action := raw.Action.(type) {
	case *tg.ChannelAdminLogEventActionParticipantJoinByInvite:
		event.Action = entities.ActionJoinByInvite
		if invite, ok := action.Invite.(*tg.ChatInviteExported); ok {
			event.InviteLink = invite.Link
		}
	case *tg.ChannelAdminLogEventActionParticipantLeave:
		event.Action = entities.ActionLeft
	case *tg.ChannelAdminLogEventActionParticipantToggleBan:
		// raw.UserID is the admin who toggled the ban; the affected
		// member sits in NewParticipant. Only a ban that removed the
		// member counts as a kick, an unban or a restriction does not.
		banned, ok := action.NewParticipant.(*tg.ChannelParticipantBanned)
		if !ok || !banned.Left {
			return nil
		}
		peer, ok := banned.Peer.(*tg.PeerUser)
		if !ok {
			return nil
		}
		event.Action = entities.ActionMemberKicked
		event.UserID = peer.UserID
	case *tg.ChannelAdminLogEventActionParticipantInvite:
		event.Action = entities.ActionMemberInvited
	default:
		return nil
	}

	return &event
}
