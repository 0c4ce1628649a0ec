package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sifan077/PowerBio/internal/app/model"
	"gorm.io/gorm"
)

// AnalyticsEventRepository is the append-only analytics store.
type AnalyticsEventRepository interface {
	Create(ctx context.Context, event *model.AnalyticsEvent) error
	// ListRange returns the profile's events with from <= created_at <= to.
	ListRange(ctx context.Context, profileID string, from, to time.Time) ([]model.AnalyticsEvent, error)
}

type analyticsEventRepository struct {
	db   *gorm.DB
	pool *pgxpool.Pool
}

// NewAnalyticsEventRepository writes through GORM and scans ranges through pgx,
// which avoids the reflection cost on large windows.
func NewAnalyticsEventRepository(db *gorm.DB, pool *pgxpool.Pool) AnalyticsEventRepository {
	return &analyticsEventRepository{db: db, pool: pool}
}

func (r *analyticsEventRepository) Create(ctx context.Context, event *model.AnalyticsEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

const listRangeSQL = `
SELECT id::text, block_id::text, event_type, coalesce(traffic_source, ''), coalesce(device_type, ''),
       ip_hash, coalesce(country, ''), created_at
FROM analytics_events
WHERE profile_id = $1 AND created_at >= $2 AND created_at <= $3
ORDER BY created_at`

func (r *analyticsEventRepository) ListRange(ctx context.Context, profileID string, from, to time.Time) ([]model.AnalyticsEvent, error) {
	rows, err := r.pool.Query(ctx, listRangeSQL, profileID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query analytics events: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.AnalyticsEvent, error) {
		var (
			e    model.AnalyticsEvent
			kind string
		)
		err := row.Scan(&e.ID, &e.BlockID, &kind, &e.TrafficSource, &e.DeviceType,
			&e.IPHash, &e.Country, &e.CreatedAt)
		e.ProfileID = profileID
		e.EventType = model.EventKind(kind)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan analytics events: %w", err)
	}
	return events, nil
}
