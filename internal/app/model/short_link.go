package model

import "time"

// ShortLink is a UTM-tagged profile link, optionally reachable through a short code.
// Clicks only ever grows, and only through an atomic relative increment.
type ShortLink struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	UserID    string    `json:"userId" gorm:"type:uuid;index;not null"`
	ProfileID string    `json:"profileId" gorm:"type:uuid;index;not null"`
	Code      *string   `json:"shortCode" gorm:"column:short_code;uniqueIndex;size:16"`
	FullURL   string    `json:"fullUrl" gorm:"type:text;not null"`
	UTM       UTMParams `json:"utmParams" gorm:"column:utm_params;type:jsonb;serializer:json"`
	Clicks    int64     `json:"clicks" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName pins the table shared with the link management service.
func (ShortLink) TableName() string {
	return "utm_links"
}

// ShortCode returns the assigned code or "" when the link has none.
func (l *ShortLink) ShortCode() string {
	if l.Code == nil {
		return ""
	}
	return *l.Code
}

// LinkSnapshot is the denormalized projection of a ShortLink held by the redirect cache.
// It is advisory only; the directory row stays the source of truth for Clicks.
type LinkSnapshot struct {
	FullURL string `json:"fullUrl"`
	ID      string `json:"id"`
	Clicks  int64  `json:"clicks"`
}

// Snapshot projects the link into its cacheable form.
func (l *ShortLink) Snapshot() LinkSnapshot {
	return LinkSnapshot{
		FullURL: l.FullURL,
		ID:      l.ID,
		Clicks:  l.Clicks,
	}
}
