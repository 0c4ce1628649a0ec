package model

import "time"

// ClickCountTask asks the counter worker to add one click to a short link and
// reconcile the cached snapshot afterwards.
type ClickCountTask struct {
	LinkID      string    `json:"link_id"`
	Code        string    `json:"code"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

const (
	ClickStreamName     = "LINK_CLICKS"
	ClickStreamSubject  = "links.clicks.increment"
	ClickConsumerName   = "click-counter"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
