package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sifan077/PowerBio/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrShortLinkNotFound signals that the requested short link does not exist.
	ErrShortLinkNotFound = errors.New("short link not found")
	// ErrDuplicateCode signals a unique violation on the short code column.
	ErrDuplicateCode = errors.New("short code already taken")
)

const uniqueViolation = "23505"

// ShortLinkRepository is the durable short-link directory.
type ShortLinkRepository interface {
	Create(ctx context.Context, link *model.ShortLink) error
	GetByID(ctx context.Context, id string) (*model.ShortLink, error)
	GetByCode(ctx context.Context, code string) (*model.ShortLink, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ListByUser(ctx context.Context, userID, profileID string) ([]model.ShortLink, error)
	// IncrementClicks adds one click as a relative update and returns the new count.
	IncrementClicks(ctx context.Context, id string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type shortLinkRepository struct {
	db *gorm.DB
}

// NewShortLinkRepository returns a GORM-backed ShortLinkRepository.
func NewShortLinkRepository(db *gorm.DB) ShortLinkRepository {
	return &shortLinkRepository{db: db}
}

func (r *shortLinkRepository) Create(ctx context.Context, link *model.ShortLink) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return err
	}
	return nil
}

func (r *shortLinkRepository) GetByID(ctx context.Context, id string) (*model.ShortLink, error) {
	var link model.ShortLink
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShortLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *shortLinkRepository) GetByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	var link model.ShortLink
	if err := r.db.WithContext(ctx).Where("short_code = ?", code).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShortLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *shortLinkRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.ShortLink{}).
		Where("short_code = ?", code).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *shortLinkRepository) ListByUser(ctx context.Context, userID, profileID string) ([]model.ShortLink, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if profileID != "" {
		q = q.Where("profile_id = ?", profileID)
	}

	var result []model.ShortLink
	if err := q.Order("created_at DESC").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *shortLinkRepository) IncrementClicks(ctx context.Context, id string) (int64, error) {
	var link model.ShortLink
	result := r.db.WithContext(ctx).
		Raw("UPDATE utm_links SET clicks = clicks + 1, updated_at = NOW() WHERE id = ? RETURNING clicks", id).
		Scan(&link)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrShortLinkNotFound
	}
	return link.Clicks, nil
}

func (r *shortLinkRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ShortLink{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrShortLinkNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return strings.Contains(err.Error(), "SQLSTATE "+uniqueViolation)
}
