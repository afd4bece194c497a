package entities

import "encoding/json"

// EntryModel is a GORM model for the channel_stats_cache table
type EntryModel struct {
	ID                int64  `gorm:"primaryKey;autoIncrement"`
	ChannelIdentifier string `gorm:"size:255;not null;uniqueIndex:uq_channel_horizon"`
	Horizon           int    `gorm:"not null;uniqueIndex:uq_channel_horizon"`
	Value             []byte `gorm:"type:jsonb;not null;default:'{}'"`
	UpdatedAt         int64  `gorm:"not null;default:0"`
	LastAttemptAt     int64  `gorm:"not null;default:0"`
	RefreshInProgress bool   `gorm:"not null;default:false;index"`
	ErrorMessage      string `gorm:"size:500;default:''"`
}

func (EntryModel) TableName() string {
	return "channel_stats_cache"
}

// ToEntity converts DB model to domain entity
func (m *EntryModel) ToEntity() *Entry {
	return &Entry{
		ID:                m.ID,
		ChannelIdentifier: m.ChannelIdentifier,
		Horizon:           m.Horizon,
		Value:             json.RawMessage(m.Value),
		UpdatedAt:         m.UpdatedAt,
		LastAttemptAt:     m.LastAttemptAt,
		RefreshInProgress: m.RefreshInProgress,
		ErrorMessage:      m.ErrorMessage,
	}
}
