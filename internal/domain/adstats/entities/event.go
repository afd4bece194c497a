package entities

// EventAction discriminates the admin log event variants the scanner
// understands. Modeled as a closed set so the scanner's branch over
// actions stays exhaustive.
type EventAction string

const (
	ActionJoinByInvite  EventAction = "JOIN_BY_INVITE"
	ActionLeft          EventAction = "LEFT"
	ActionMemberKicked  EventAction = "MEMBER_KICKED"
	ActionMemberInvited EventAction = "MEMBER_INVITED"
)

// AdminLogEvent is one membership event from a channel's admin log.
// IDs are strictly increasing and totally ordered per channel.
// InviteLink is set only for ActionJoinByInvite.
type AdminLogEvent struct {
	ID         int64       `json:"id"`
	Action     EventAction `json:"action"`
	UserID     int64       `json:"userId"`
	InviteLink string      `json:"inviteLink,omitempty"`
	Date       int64       `json:"date"`
}
