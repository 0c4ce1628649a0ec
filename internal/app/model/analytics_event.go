package model

import "time"

// EventKind distinguishes page views from block clicks.
type EventKind string

const (
	EventView  EventKind = "view"
	EventClick EventKind = "click"
)

// Device classes produced by the enricher.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

// UserAgentParsed carries the best-effort parse of the raw user agent.
type UserAgentParsed struct {
	Browser        string `json:"browser,omitempty"`
	BrowserVersion string `json:"browserVersion,omitempty"`
	OS             string `json:"os,omitempty"`
	OSVersion      string `json:"osVersion,omitempty"`
	Device         string `json:"device,omitempty"`
}

// AnalyticsEvent is an immutable, enriched view or click record.
// A click always carries a BlockID belonging to ProfileID; a view never does.
type AnalyticsEvent struct {
	ID              string          `json:"id" gorm:"primaryKey;type:uuid"`
	ProfileID       string          `json:"profileId" gorm:"type:uuid;not null;index:idx_analytics_profile_created,priority:1"`
	BlockID         *string         `json:"blockId" gorm:"type:uuid;index"`
	EventType       EventKind       `json:"eventType" gorm:"size:16;not null"`
	UTMSource       string          `json:"utmSource,omitempty" gorm:"column:utm_source"`
	UTMMedium       string          `json:"utmMedium,omitempty" gorm:"column:utm_medium"`
	UTMCampaign     string          `json:"utmCampaign,omitempty" gorm:"column:utm_campaign"`
	UTMContent      string          `json:"utmContent,omitempty" gorm:"column:utm_content"`
	UTMTerm         string          `json:"utmTerm,omitempty" gorm:"column:utm_term"`
	Referrer        string          `json:"referrer,omitempty"`
	TrafficSource   string          `json:"trafficSource" gorm:"size:64"`
	UserAgent       string          `json:"userAgent,omitempty" gorm:"type:text"`
	UserAgentParsed UserAgentParsed `json:"userAgentParsed" gorm:"type:jsonb;serializer:json"`
	DeviceType      string          `json:"deviceType" gorm:"size:16"`
	IPHash          string          `json:"-" gorm:"column:ip_hash;size:64;not null"`
	Country         string          `json:"country,omitempty" gorm:"size:64"`
	City            string          `json:"city,omitempty" gorm:"size:128"`
	CreatedAt       time.Time       `json:"createdAt" gorm:"not null;index:idx_analytics_profile_created,priority:2"`
}

// TableName keeps the table name stable regardless of struct renames.
func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}

// SetUTM copies the extracted campaign parameters onto the event.
func (e *AnalyticsEvent) SetUTM(p UTMParams) {
	e.UTMSource = p.Source
	e.UTMMedium = p.Medium
	e.UTMCampaign = p.Campaign
	e.UTMContent = p.Content
	e.UTMTerm = p.Term
}
