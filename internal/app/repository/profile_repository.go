package repository

import (
	"context"
	"errors"

	"github.com/sifan077/PowerBio/internal/app/model"
	"gorm.io/gorm"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrBlockNotFound   = errors.New("block not found")
)

// ProfileDirectory answers ownership and membership questions about profiles
// and blocks. The rows are owned by the profile management service.
type ProfileDirectory interface {
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	GetBlock(ctx context.Context, id string) (*model.Block, error)
	ListBlocks(ctx context.Context, profileID string) ([]model.Block, error)
}

type profileDirectory struct {
	db *gorm.DB
}

// NewProfileDirectory returns a read-only GORM ProfileDirectory.
func NewProfileDirectory(db *gorm.DB) ProfileDirectory {
	return &profileDirectory{db: db}
}

func (r *profileDirectory) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *profileDirectory) GetBlock(ctx context.Context, id string) (*model.Block, error) {
	var b model.Block
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlockNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *profileDirectory) ListBlocks(ctx context.Context, profileID string) ([]model.Block, error) {
	var blocks []model.Block
	if err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("position ASC").
		Find(&blocks).Error; err != nil {
		return nil, err
	}
	return blocks, nil
}
