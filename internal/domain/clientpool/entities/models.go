package entities

// ClientRecordModel is a GORM model for the mt_clients table
type ClientRecordModel struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	Alias           string `gorm:"size:64;not null"`
	PoolType        string `gorm:"size:32;not null;index"`
	SessionKey      string `gorm:"size:255;not null"`
	Status          string `gorm:"size:32;not null;default:NEW"`
	IsActive        bool   `gorm:"not null;default:true"`
	CreatedAt       int64  `gorm:"not null;default:0"`
	LastSelfCheckAt int64  `gorm:"not null;default:0"`
	LastErrorCode   string `gorm:"size:64;default:''"`
	LastErrorAt     int64  `gorm:"not null;default:0"`
	FloodWaitUntil  int64  `gorm:"not null;default:0"`
	UsageCount      int64  `gorm:"not null;default:0"`
	LastUsedAt      int64  `gorm:"not null;default:0"`
}

func (ClientRecordModel) TableName() string {
	return "mt_clients"
}

// ToEntity converts DB model to domain entity
func (m *ClientRecordModel) ToEntity() *ClientRecord {
	return &ClientRecord{
		ID:              m.ID,
		Alias:           m.Alias,
		PoolType:        PoolType(m.PoolType),
		SessionKey:      m.SessionKey,
		Status:          ClientStatus(m.Status),
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		LastSelfCheckAt: m.LastSelfCheckAt,
		LastErrorCode:   m.LastErrorCode,
		LastErrorAt:     m.LastErrorAt,
		FloodWaitUntil:  m.FloodWaitUntil,
		UsageCount:      m.UsageCount,
		LastUsedAt:      m.LastUsedAt,
	}
}

// FromEntity converts domain entity to DB model
func FromEntity(r *ClientRecord) *ClientRecordModel {
	return &ClientRecordModel{
		ID:              r.ID,
		Alias:           r.Alias,
		PoolType:        string(r.PoolType),
		SessionKey:      r.SessionKey,
		Status:          string(r.Status),
		IsActive:        r.IsActive,
		CreatedAt:       r.CreatedAt,
		LastSelfCheckAt: r.LastSelfCheckAt,
		LastErrorCode:   r.LastErrorCode,
		LastErrorAt:     r.LastErrorAt,
		FloodWaitUntil:  r.FloodWaitUntil,
		UsageCount:      r.UsageCount,
		LastUsedAt:      r.LastUsedAt,
	}
}

// ChannelBindingModel is a GORM model for the mt_client_channels table
type ChannelBindingModel struct {
	ID                  int64  `gorm:"primaryKey;autoIncrement"`
	ClientID            int64  `gorm:"not null;uniqueIndex:uq_client_channel"`
	ChannelID           int64  `gorm:"not null;uniqueIndex:uq_client_channel;index:idx_channel_stats,priority:1;index:idx_channel_stories,priority:1"`
	IsMember            bool   `gorm:"not null;default:false"`
	IsAdmin             bool   `gorm:"not null;default:false"`
	CanPostMessages     bool   `gorm:"not null;default:false"`
	CanPostStories      bool   `gorm:"not null;default:false"`
	PreferredForStats   bool   `gorm:"not null;default:false;index:idx_channel_stats,priority:2"`
	PreferredForStories bool   `gorm:"not null;default:false;index:idx_channel_stories,priority:2"`
	LastJoinedAt        int64  `gorm:"not null;default:0"`
	LastSeenAt          int64  `gorm:"not null;default:0"`
	LastErrorCode       string `gorm:"size:64;default:''"`
	LastErrorAt         int64  `gorm:"not null;default:0"`
}

func (ChannelBindingModel) TableName() string {
	return "mt_client_channels"
}

// ToEntity converts DB model to domain entity
func (m *ChannelBindingModel) ToEntity() *ChannelBinding {
	return &ChannelBinding{
		ID:                  m.ID,
		ClientID:            m.ClientID,
		ChannelID:           m.ChannelID,
		IsMember:            m.IsMember,
		IsAdmin:             m.IsAdmin,
		CanPostMessages:     m.CanPostMessages,
		CanPostStories:      m.CanPostStories,
		PreferredForStats:   m.PreferredForStats,
		PreferredForStories: m.PreferredForStories,
		LastJoinedAt:        m.LastJoinedAt,
		LastSeenAt:          m.LastSeenAt,
		LastErrorCode:       m.LastErrorCode,
		LastErrorAt:         m.LastErrorAt,
	}
}

// ChannelModel maps the slice of the channels table this service owns:
// the round-robin cursor and the MTProto access hash. The surrounding bot
// platform owns the rest of the row.
type ChannelModel struct {
	ID           int64 `gorm:"primaryKey"`
	LastClientID int64 `gorm:"not null;default:0"`
	AccessHash   int64 `gorm:"not null;default:0"`
}

func (ChannelModel) TableName() string {
	return "channels"
}
