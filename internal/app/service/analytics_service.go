package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sifan077/PowerBio/internal/app/enrich"
	"github.com/sifan077/PowerBio/internal/app/model"
	"github.com/sifan077/PowerBio/internal/app/repository"
	metrics "github.com/sifan077/PowerBio/internal/infra/prometheus"
	"go.uber.org/zap"
)

var (
	ErrMissingProfileID = errors.New("profileId is required")
	ErrMissingBlockID   = errors.New("profileId and blockId are required")
	// ErrInvalidID means an identifier is present but is not a UUID.
	ErrInvalidID = errors.New("identifier must be a UUID")
	// ErrBlockProfileMismatch means a click names a block of another profile.
	ErrBlockProfileMismatch = errors.New("block does not belong to profile")
)

// EventInput is one view or click reported by a public page.
type EventInput struct {
	ProfileID string
	BlockID   string
	// URL is the page URL as seen by the visitor, used for UTM extraction.
	URL     string
	Headers enrich.Headers
}

// AnalyticsService records enriched events and summarizes them for owners.
type AnalyticsService interface {
	RecordView(ctx context.Context, input EventInput) (string, error)
	RecordClick(ctx context.Context, input EventInput) (string, error)
	Overview(ctx context.Context, userID, profileID, period string) (*Overview, error)
}

// AnalyticsDeps groups the collaborators of the analytics service.
type AnalyticsDeps struct {
	Events   repository.AnalyticsEventRepository
	Profiles repository.ProfileDirectory
	Enricher *enrich.Enricher
	Logger   *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type analyticsService struct {
	events   repository.AnalyticsEventRepository
	profiles repository.ProfileDirectory
	enricher *enrich.Enricher
	logger   *zap.Logger
	now      func() time.Time
}

func NewAnalyticsService(deps AnalyticsDeps) AnalyticsService {
	s := &analyticsService{
		events:   deps.Events,
		profiles: deps.Profiles,
		enricher: deps.Enricher,
		logger:   deps.Logger,
		now:      deps.Now,
	}
	if s.enricher == nil {
		s.enricher = enrich.New(enrich.Options{Logger: deps.Logger})
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *analyticsService) RecordView(ctx context.Context, input EventInput) (string, error) {
	if input.ProfileID == "" {
		return "", ErrMissingProfileID
	}
	if !isUUID(input.ProfileID) {
		return "", ErrInvalidID
	}
	if _, err := s.profiles.GetProfile(ctx, input.ProfileID); err != nil {
		return "", err
	}
	return s.record(ctx, input, model.EventView, nil)
}

func (s *analyticsService) RecordClick(ctx context.Context, input EventInput) (string, error) {
	if input.ProfileID == "" || input.BlockID == "" {
		return "", ErrMissingBlockID
	}
	if !isUUID(input.ProfileID) || !isUUID(input.BlockID) {
		return "", ErrInvalidID
	}
	if _, err := s.profiles.GetProfile(ctx, input.ProfileID); err != nil {
		return "", err
	}
	block, err := s.profiles.GetBlock(ctx, input.BlockID)
	if err != nil {
		return "", err
	}
	if block.ProfileID != input.ProfileID {
		return "", ErrBlockProfileMismatch
	}
	blockID := block.ID
	return s.record(ctx, input, model.EventClick, &blockID)
}

func (s *analyticsService) record(ctx context.Context, input EventInput, kind model.EventKind, blockID *string) (string, error) {
	event := s.enricher.Enrich(ctx, enrich.Request{
		Headers:        input.Headers,
		DestinationURL: input.URL,
		Kind:           kind,
	})
	event.ID = uuid.NewString()
	event.ProfileID = input.ProfileID
	event.BlockID = blockID
	event.CreatedAt = s.now().UTC()

	if err := s.events.Create(ctx, &event); err != nil {
		return "", fmt.Errorf("store %s event: %w", kind, err)
	}

	metrics.EventsIngestedTotal.WithLabelValues(string(kind)).Inc()
	s.logger.Debug("analytics event recorded",
		zap.String("event_id", event.ID),
		zap.String("profile_id", event.ProfileID),
		zap.String("kind", string(kind)),
		zap.String("source", event.TrafficSource),
	)
	return event.ID, nil
}

func (s *analyticsService) Overview(ctx context.Context, userID, profileID, period string) (*Overview, error) {
	if profileID == "" {
		return nil, ErrMissingProfileID
	}
	if !isUUID(profileID) {
		return nil, ErrInvalidID
	}
	window := PeriodWindow(period, s.now())

	profile, err := s.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile.UserID != userID {
		return nil, ErrForbidden
	}

	start := time.Now()
	events, err := s.events.ListRange(ctx, profileID, window.From, window.To)
	if err != nil {
		return nil, fmt.Errorf("load analytics events: %w", err)
	}

	var blocks []model.Block
	if hasClicks(events) {
		blocks, err = s.profiles.ListBlocks(ctx, profileID)
		if err != nil {
			return nil, fmt.Errorf("load blocks: %w", err)
		}
	}

	overview := Summarize(events, blocks, window)
	metrics.SummarizeDuration.Observe(time.Since(start).Seconds())
	return overview, nil
}

func hasClicks(events []model.AnalyticsEvent) bool {
	for i := range events {
		if events[i].EventType == model.EventClick {
			return true
		}
	}
	return false
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// IsNotFound reports whether err means an unknown profile, block or link.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrProfileNotFound) ||
		errors.Is(err, repository.ErrBlockNotFound) ||
		errors.Is(err, repository.ErrShortLinkNotFound)
}
