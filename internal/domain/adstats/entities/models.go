package entities

// LinkMappingModel is a GORM model for the ad_purchase_link_mappings table
type LinkMappingModel struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	AdPurchaseID    int64  `gorm:"not null;index"`
	SlotID          int64  `gorm:"not null;index"`
	OriginalURL     string `gorm:"size:500;not null"`
	TargetType      string `gorm:"size:32;not null"`
	TargetChannelID int64  `gorm:"not null;default:0;index"`
	InviteLink      string `gorm:"size:255;default:'';index"`
	RefParam        string `gorm:"size:255;default:''"`
	TrackEnabled    bool   `gorm:"not null;default:true"`
	LastScannedID   int64  `gorm:"not null;default:0"`
	CreatedAt       int64  `gorm:"not null;default:0"`
}

func (LinkMappingModel) TableName() string {
	return "ad_purchase_link_mappings"
}

// ToEntity converts DB model to domain entity
func (m *LinkMappingModel) ToEntity() *LinkMapping {
	return &LinkMapping{
		ID:              m.ID,
		AdPurchaseID:    m.AdPurchaseID,
		SlotID:          m.SlotID,
		OriginalURL:     m.OriginalURL,
		TargetType:      TargetType(m.TargetType),
		TargetChannelID: m.TargetChannelID,
		InviteLink:      m.InviteLink,
		RefParam:        m.RefParam,
		TrackEnabled:    m.TrackEnabled,
		LastScannedID:   m.LastScannedID,
		CreatedAt:       m.CreatedAt,
	}
}

// LeadModel is a GORM model for the ad_leads table
type LeadModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	UserID       int64  `gorm:"not null;uniqueIndex:uq_lead_user_purchase"`
	AdPurchaseID int64  `gorm:"not null;uniqueIndex:uq_lead_user_purchase"`
	SlotID       int64  `gorm:"not null"`
	RefParam     string `gorm:"size:255;not null"`
	CreatedAt    int64  `gorm:"not null;default:0"`
}

func (LeadModel) TableName() string {
	return "ad_leads"
}

// ToEntity converts DB model to domain entity
func (m *LeadModel) ToEntity() *Lead {
	return &Lead{
		ID:           m.ID,
		UserID:       m.UserID,
		AdPurchaseID: m.AdPurchaseID,
		SlotID:       m.SlotID,
		RefParam:     m.RefParam,
		CreatedAt:    m.CreatedAt,
	}
}

// SubscriptionModel is a GORM model for the ad_subscriptions table
type SubscriptionModel struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	UserID        int64  `gorm:"not null;uniqueIndex:uq_sub_user_channel_purchase;index"`
	ChannelID     int64  `gorm:"not null;uniqueIndex:uq_sub_user_channel_purchase;index"`
	AdPurchaseID  int64  `gorm:"not null;uniqueIndex:uq_sub_user_channel_purchase;index"`
	SlotID        int64  `gorm:"not null"`
	InviteLink    string `gorm:"size:255;not null"`
	Status        string `gorm:"size:32;not null;default:active"`
	LeftTimestamp int64  `gorm:"not null;default:0"`
	CreatedAt     int64  `gorm:"not null;default:0"`
}

func (SubscriptionModel) TableName() string {
	return "ad_subscriptions"
}

// ToEntity converts DB model to domain entity
func (m *SubscriptionModel) ToEntity() *Subscription {
	return &Subscription{
		ID:            m.ID,
		UserID:        m.UserID,
		ChannelID:     m.ChannelID,
		AdPurchaseID:  m.AdPurchaseID,
		SlotID:        m.SlotID,
		InviteLink:    m.InviteLink,
		Status:        SubscriptionStatus(m.Status),
		LeftTimestamp: m.LeftTimestamp,
		CreatedAt:     m.CreatedAt,
	}
}
