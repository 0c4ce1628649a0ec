package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/sifan077/PowerBio/internal/app/cache"
	"github.com/sifan077/PowerBio/internal/app/enrich"
	"github.com/sifan077/PowerBio/internal/app/model"
	"github.com/sifan077/PowerBio/internal/app/repository"
)

var (
	// ErrForbidden means the caller does not own the profile or link.
	ErrForbidden = errors.New("forbidden")
	// ErrMissingUTM means a generated link would carry no campaign parameter.
	ErrMissingUTM = errors.New("at least one UTM parameter is required")
	// ErrInvalidDestination means the destination is not an absolute http(s) URL.
	ErrInvalidDestination = errors.New("destination must be an absolute http(s) URL")
)

// ShortLinkService is the short-link directory plus the owner-facing link
// generation flow built on it.
type ShortLinkService interface {
	// Create stores a link to destinationURL and assigns it a fresh short code.
	Create(ctx context.Context, userID, profileID, destinationURL string) (*model.ShortLink, error)
	// Resolve returns the directory snapshot for code.
	Resolve(ctx context.Context, code string) (model.LinkSnapshot, error)
	// IncrementClicks adds exactly one click and returns the new total.
	IncrementClicks(ctx context.Context, id string) (int64, error)

	Generate(ctx context.Context, userID string, input GenerateLinkInput) (*model.ShortLink, error)
	Get(ctx context.Context, userID, id string) (*model.ShortLink, error)
	List(ctx context.Context, userID, profileID string) ([]model.ShortLink, error)
	Delete(ctx context.Context, userID, id string) error
}

// GenerateLinkInput captures a request to tag a profile URL with UTM parameters.
type GenerateLinkInput struct {
	ProfileID         string
	UTM               model.UTMParams
	GenerateShortCode bool
}

// ShortLinkDeps groups the collaborators of the short-link service.
type ShortLinkDeps struct {
	Links       repository.ShortLinkRepository
	Profiles    repository.ProfileDirectory
	Cache       *cache.LinkCache
	Codes       *CodeGenerator
	FrontendURL string
}

type shortLinkService struct {
	links       repository.ShortLinkRepository
	profiles    repository.ProfileDirectory
	cache       *cache.LinkCache
	codes       *CodeGenerator
	frontendURL string
}

// NewShortLinkService returns the service; Codes defaults to a generator
// backed by the repository.
func NewShortLinkService(deps ShortLinkDeps) ShortLinkService {
	codes := deps.Codes
	if codes == nil {
		codes = NewCodeGenerator(deps.Links.CodeExists)
	}
	return &shortLinkService{
		links:       deps.Links,
		profiles:    deps.Profiles,
		cache:       deps.Cache,
		codes:       codes,
		frontendURL: strings.TrimRight(deps.FrontendURL, "/"),
	}
}

func (s *shortLinkService) Create(ctx context.Context, userID, profileID, destinationURL string) (*model.ShortLink, error) {
	if !isAbsoluteHTTP(destinationURL) {
		return nil, ErrInvalidDestination
	}
	profile, err := s.ownedProfile(ctx, userID, profileID)
	if err != nil {
		return nil, err
	}
	link := &model.ShortLink{
		UserID:    userID,
		ProfileID: profile.ID,
		FullURL:   destinationURL,
		UTM:       enrich.ExtractUTM(destinationURL),
	}
	if err := s.insert(ctx, link, true); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *shortLinkService) Resolve(ctx context.Context, code string) (model.LinkSnapshot, error) {
	link, err := s.links.GetByCode(ctx, code)
	if err != nil {
		return model.LinkSnapshot{}, err
	}
	s.codes.MarkTaken(code)
	return link.Snapshot(), nil
}

func (s *shortLinkService) IncrementClicks(ctx context.Context, id string) (int64, error) {
	clicks, err := s.links.IncrementClicks(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("increment clicks: %w", err)
	}
	return clicks, nil
}

func (s *shortLinkService) Generate(ctx context.Context, userID string, input GenerateLinkInput) (*model.ShortLink, error) {
	params := input.UTM.Clean()
	if !params.HasAny() {
		return nil, ErrMissingUTM
	}

	profile, err := s.ownedProfile(ctx, userID, input.ProfileID)
	if err != nil {
		return nil, err
	}

	fullURL, err := params.Apply(fmt.Sprintf("%s/u/%s", s.frontendURL, url.PathEscape(profile.Slug)))
	if err != nil {
		return nil, fmt.Errorf("build link url: %w", err)
	}

	link := &model.ShortLink{
		UserID:    userID,
		ProfileID: profile.ID,
		FullURL:   fullURL,
		UTM:       params,
	}
	if err := s.insert(ctx, link, input.GenerateShortCode); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *shortLinkService) Get(ctx context.Context, userID, id string) (*model.ShortLink, error) {
	if !isUUID(id) {
		return nil, repository.ErrShortLinkNotFound
	}
	link, err := s.links.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	if link.UserID != userID {
		return nil, ErrForbidden
	}
	return link, nil
}

func (s *shortLinkService) List(ctx context.Context, userID, profileID string) ([]model.ShortLink, error) {
	if profileID != "" && !isUUID(profileID) {
		return nil, ErrInvalidID
	}
	links, err := s.links.ListByUser(ctx, userID, profileID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (s *shortLinkService) Delete(ctx context.Context, userID, id string) error {
	link, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.links.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	if code := link.ShortCode(); code != "" && s.cache != nil {
		s.cache.Delete(ctx, code)
	}
	return nil
}

func (s *shortLinkService) ownedProfile(ctx context.Context, userID, profileID string) (*model.Profile, error) {
	if profileID == "" {
		return nil, ErrMissingProfileID
	}
	if !isUUID(profileID) {
		return nil, ErrInvalidID
	}
	profile, err := s.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile.UserID != userID {
		return nil, ErrForbidden
	}
	return profile, nil
}

// insert persists link, drawing a new code on every unique-index collision.
func (s *shortLinkService) insert(ctx context.Context, link *model.ShortLink, withCode bool) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		link.ID = uuid.NewString()
		if withCode {
			code, err := s.codes.Next(ctx)
			if err != nil {
				return err
			}
			link.Code = &code
		}

		err := s.links.Create(ctx, link)
		if err == nil {
			if withCode {
				s.codes.MarkTaken(*link.Code)
			}
			return nil
		}
		if !withCode || !errors.Is(err, repository.ErrDuplicateCode) {
			return fmt.Errorf("create link: %w", err)
		}
		s.codes.MarkTaken(*link.Code)
	}
	return ErrCodeGenerationExhausted
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
