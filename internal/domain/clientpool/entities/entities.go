package entities

import "time"

// PoolType classifies how a client identity is scheduled
type PoolType string

const (
	// PoolInternal clients are dedicated accounts selected by round-robin
	PoolInternal PoolType = "internal"
	// PoolExternal clients are a shared set selected by least usage
	PoolExternal PoolType = "external"
	// PoolUnassigned clients await manual moderation before entering a pool
	PoolUnassigned PoolType = "unassigned"
)

// ClientStatus is the lifecycle status of a client identity
type ClientStatus string

const (
	StatusNew          ClientStatus = "NEW"
	StatusActive       ClientStatus = "ACTIVE"
	StatusResetting    ClientStatus = "RESETTING"
	StatusTempBlocked  ClientStatus = "TEMP_BLOCKED"
	StatusUnauthorized ClientStatus = "UNAUTHORIZED"
)

// ClientRecord is a persisted MTProto session identity
type ClientRecord struct {
	ID              int64        `json:"id"`
	Alias           string       `json:"alias"`
	PoolType        PoolType     `json:"poolType"`
	SessionKey      string       `json:"sessionKey"`
	Status          ClientStatus `json:"status"`
	IsActive        bool         `json:"isActive"`
	CreatedAt       int64        `json:"createdAt"`
	LastSelfCheckAt int64        `json:"lastSelfCheckAt"`
	LastErrorCode   string       `json:"lastErrorCode"`
	LastErrorAt     int64        `json:"lastErrorAt"`
	FloodWaitUntil  int64        `json:"floodWaitUntil"`
	UsageCount      int64        `json:"usageCount"`
	LastUsedAt      int64        `json:"lastUsedAt"`
}

// Usable reports whether the record may serve requests right now.
// Soft-disabled, non-ACTIVE and flood-waited clients are excluded.
func (r *ClientRecord) Usable(now time.Time) bool {
	if r == nil || !r.IsActive || r.Status != StatusActive {
		return false
	}
	return r.FloodWaitUntil == 0 || r.FloodWaitUntil <= now.Unix()
}

// ChannelBinding records that a client has seen a channel, with its
// membership state as of LastSeenAt
type ChannelBinding struct {
	ID                  int64  `json:"id"`
	ClientID            int64  `json:"clientId"`
	ChannelID           int64  `json:"channelId"`
	IsMember            bool   `json:"isMember"`
	IsAdmin             bool   `json:"isAdmin"`
	CanPostMessages     bool   `json:"canPostMessages"`
	CanPostStories      bool   `json:"canPostStories"`
	PreferredForStats   bool   `json:"preferredForStats"`
	PreferredForStories bool   `json:"preferredForStories"`
	LastJoinedAt        int64  `json:"lastJoinedAt"`
	LastSeenAt          int64  `json:"lastSeenAt"`
	LastErrorCode       string `json:"lastErrorCode"`
	LastErrorAt         int64  `json:"lastErrorAt"`
}

// BindingUpdate carries the membership fields SetMembership may change.
// Nil pointers leave the stored value untouched.
type BindingUpdate struct {
	IsMember            *bool
	IsAdmin             *bool
	CanPostMessages     *bool
	CanPostStories      *bool
	PreferredForStats   *bool
	PreferredForStories *bool
	LastJoinedAt        *int64
	LastSeenAt          *int64
	LastErrorCode       *string
	LastErrorAt         *int64
}
