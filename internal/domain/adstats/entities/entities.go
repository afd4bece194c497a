package entities

// TargetType classifies what an advertising link points at. Only CHANNEL
// targets are trackable through the admin log.
type TargetType string

const (
	TargetChannel   TargetType = "CHANNEL"
	TargetBot       TargetType = "BOT"
	TargetExternal  TargetType = "EXTERNAL"
	TargetUntouched TargetType = "UNTOUCHED"
)

// SubscriptionStatus is the lifecycle status of an ad-attributed subscription
type SubscriptionStatus string

const (
	SubscriptionActive SubscriptionStatus = "active"
	SubscriptionLeft   SubscriptionStatus = "left"
	SubscriptionKicked SubscriptionStatus = "kicked"
)

// LinkMapping ties a specific invite link issued for an ad purchase slot to
// its target channel. LastScannedID is the high-water-mark cursor into the
// channel's admin log; it only ever moves forward.
type LinkMapping struct {
	ID              int64      `json:"id"`
	AdPurchaseID    int64      `json:"adPurchaseId"`
	SlotID          int64      `json:"slotId"`
	OriginalURL     string     `json:"originalUrl"`
	TargetType      TargetType `json:"targetType"`
	TargetChannelID int64      `json:"targetChannelId"`
	InviteLink      string     `json:"inviteLink"`
	RefParam        string     `json:"refParam"`
	TrackEnabled    bool       `json:"trackEnabled"`
	LastScannedID   int64      `json:"lastScannedId"`
	CreatedAt       int64      `json:"createdAt"`
}

// Trackable reports whether the scanner should correlate events for this mapping
func (m *LinkMapping) Trackable() bool {
	return m.TargetType == TargetChannel && m.TrackEnabled && m.TargetChannelID != 0
}

// Lead records that a user arrived through an advertising link.
// Deduplicated by (user, ad purchase).
type Lead struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"userId"`
	AdPurchaseID int64  `json:"adPurchaseId"`
	SlotID       int64  `json:"slotId"`
	RefParam     string `json:"refParam"`
	CreatedAt    int64  `json:"createdAt"`
}

// Subscription records that a user joined a channel through an advertising
// link. Unique per (user, channel, ad purchase); leaving flips the status
// instead of deleting the row.
type Subscription struct {
	ID            int64              `json:"id"`
	UserID        int64              `json:"userId"`
	ChannelID     int64              `json:"channelId"`
	AdPurchaseID  int64              `json:"adPurchaseId"`
	SlotID        int64              `json:"slotId"`
	InviteLink    string             `json:"inviteLink"`
	Status        SubscriptionStatus `json:"status"`
	LeftTimestamp int64              `json:"leftTimestamp"`
	CreatedAt     int64              `json:"createdAt"`
}

// Attribution is the outcome of processing a join event: which purchase and
// slot the join was credited to, and whether a new subscription appeared.
type Attribution struct {
	AdPurchaseID int64 `json:"adPurchaseId"`
	SlotID       int64 `json:"slotId"`
	Subscribed   bool  `json:"subscribed"`
}
