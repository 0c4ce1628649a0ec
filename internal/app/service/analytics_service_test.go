package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sifan077/PowerBio/internal/app/enrich"
	"github.com/sifan077/PowerBio/internal/app/geo"
	"github.com/sifan077/PowerBio/internal/app/model"
	"github.com/sifan077/PowerBio/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalytics(events *mockEventRepository) AnalyticsService {
	return NewAnalyticsService(AnalyticsDeps{
		Events:   events,
		Profiles: newTestProfiles(),
		Enricher: enrich.New(enrich.Options{
			Locator: geo.StaticLocator{
				"203.0.113.7": {Country: "NL", City: "Amsterdam"},
			},
		}),
		Now: func() time.Time { return aggNow },
	})
}

func TestAnalyticsService_RecordView(t *testing.T) {
	events := &mockEventRepository{}
	svc := newTestAnalytics(events)

	id, err := svc.RecordView(context.Background(), EventInput{
		ProfileID: testProfileID,
		URL:       "https://example.com/u/alice?utm_source=instagram&utm_medium=social",
		Headers: enrich.MapHeaders{
			"X-Forwarded-For": "203.0.113.7, 10.0.0.1",
			"User-Agent":      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148",
		},
	})
	require.NoError(t, err)
	require.Len(t, events.created, 1)

	e := events.created[0]
	assert.Equal(t, id, e.ID)
	assert.Equal(t, testProfileID, e.ProfileID)
	assert.Nil(t, e.BlockID)
	assert.Equal(t, model.EventView, e.EventType)
	assert.Equal(t, "instagram", e.UTMSource)
	assert.Equal(t, "instagram", e.TrafficSource)
	assert.Equal(t, model.DeviceMobile, e.DeviceType)
	assert.Equal(t, "NL", e.Country)
	assert.Len(t, e.IPHash, 64)
	assert.NotContains(t, e.IPHash, "203.0.113.7")
	assert.Equal(t, aggNow, e.CreatedAt)
}

func TestAnalyticsService_RecordViewErrors(t *testing.T) {
	events := &mockEventRepository{}
	svc := newTestAnalytics(events)
	ctx := context.Background()

	_, err := svc.RecordView(ctx, EventInput{Headers: enrich.MapHeaders{}})
	assert.ErrorIs(t, err, ErrMissingProfileID)

	_, err = svc.RecordView(ctx, EventInput{ProfileID: "alice", Headers: enrich.MapHeaders{}})
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = svc.RecordView(ctx, EventInput{ProfileID: "5b0d1e3c-0000-4000-8000-0000000000ff", Headers: enrich.MapHeaders{}})
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)

	assert.Empty(t, events.created)
}

func TestAnalyticsService_RecordViewStoreFailure(t *testing.T) {
	boom := errors.New("db down")
	svc := newTestAnalytics(&mockEventRepository{
		createFn: func(context.Context, *model.AnalyticsEvent) error { return boom },
	})

	_, err := svc.RecordView(context.Background(), EventInput{ProfileID: testProfileID, Headers: enrich.MapHeaders{}})
	assert.ErrorIs(t, err, boom)
}

func TestAnalyticsService_RecordClick(t *testing.T) {
	events := &mockEventRepository{}
	svc := newTestAnalytics(events)

	_, err := svc.RecordClick(context.Background(), EventInput{
		ProfileID: testProfileID,
		BlockID:   testBlockID,
		Headers:   enrich.MapHeaders{"Referer": "https://www.google.com/search?q=alice"},
	})
	require.NoError(t, err)
	require.Len(t, events.created, 1)

	e := events.created[0]
	assert.Equal(t, model.EventClick, e.EventType)
	require.NotNil(t, e.BlockID)
	assert.Equal(t, testBlockID, *e.BlockID)
	assert.Equal(t, "google", e.TrafficSource)
	assert.Equal(t, "", e.Country)
}

func TestAnalyticsService_RecordClickRejectsForeignBlock(t *testing.T) {
	events := &mockEventRepository{}
	svc := newTestAnalytics(events)
	ctx := context.Background()

	_, err := svc.RecordClick(ctx, EventInput{ProfileID: testProfileID, BlockID: otherBlockID, Headers: enrich.MapHeaders{}})
	assert.ErrorIs(t, err, ErrBlockProfileMismatch)

	_, err = svc.RecordClick(ctx, EventInput{ProfileID: testProfileID, Headers: enrich.MapHeaders{}})
	assert.ErrorIs(t, err, ErrMissingBlockID)

	_, err = svc.RecordClick(ctx, EventInput{ProfileID: testProfileID, BlockID: "9c4e2f10-0000-4000-8000-0000000000ff", Headers: enrich.MapHeaders{}})
	assert.ErrorIs(t, err, repository.ErrBlockNotFound)

	assert.Empty(t, events.created, "rejected clicks must not be stored")
}

func TestAnalyticsService_Overview(t *testing.T) {
	var gotFrom, gotTo time.Time
	events := &mockEventRepository{
		listRangeFn: func(_ context.Context, profileID string, from, to time.Time) ([]model.AnalyticsEvent, error) {
			gotFrom, gotTo = from, to
			return []model.AnalyticsEvent{
				view(aggNow, "h1", "direct", "desktop", "US"),
				click(aggNow, testBlockID),
			}, nil
		},
	}
	svc := newTestAnalytics(events)

	out, err := svc.Overview(context.Background(), testUserID, testProfileID, "7")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), gotFrom)
	assert.True(t, gotTo.After(aggNow))
	assert.Equal(t, 1, out.Overview.TotalViews)
	assert.Equal(t, 100.0, out.Overview.ClickRate)
	require.Len(t, out.TopLinks, 1)
	assert.Equal(t, "Shop", out.TopLinks[0].Title)
	assert.Len(t, out.ViewsChart, 7)
}

func TestAnalyticsService_OverviewPeriodSelectors(t *testing.T) {
	svc := newTestAnalytics(&mockEventRepository{})
	ctx := context.Background()

	for period, days := range map[string]int{"1": 1, "2": 7, "3": 30, "30": 30, "": 7, "abc": 7} {
		out, err := svc.Overview(ctx, testUserID, testProfileID, period)
		require.NoError(t, err, "period %q", period)
		assert.Len(t, out.ViewsChart, days, "period %q", period)
	}
}

func TestAnalyticsService_OverviewErrors(t *testing.T) {
	svc := newTestAnalytics(&mockEventRepository{})
	ctx := context.Background()

	_, err := svc.Overview(ctx, otherUserID, testProfileID, "7")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Overview(ctx, testUserID, "not-a-uuid", "7")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = svc.Overview(ctx, testUserID, "", "7")
	assert.ErrorIs(t, err, ErrMissingProfileID)

	_, err = svc.Overview(ctx, testUserID, "5b0d1e3c-0000-4000-8000-0000000000ff", "7")
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)
}
