package telegram

// SessionModel is a GORM model for the mt_sessions table. One row per
// client record, keyed by the record's session key.
type SessionModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	SessionKey  string `gorm:"size:128;not null;uniqueIndex"`
	SessionData []byte `gorm:"type:bytea"`
	UpdatedAt   int64  `gorm:"not null;default:0"`
}

func (SessionModel) TableName() string {
	return "mt_sessions"
}
