package friend

import (
	"context"
	"errors"

	"github.com/xcnya/friend-apply/internal/models"
	"gorm.io/gorm"
)

// Store is the persistence contract for friend applications.
type Store interface {
	Insert(ctx context.Context, rec *models.FriendApplyModel) (string, error)
	// FindByID returns (nil, nil) when the record does not exist.
	FindByID(ctx context.Context, id string) (*models.FriendApplyModel, error)
	UpdateByID(ctx context.Context, id string, fields map[string]interface{}) error
	// ListAll returns every application, newest first.
	ListAll(ctx context.Context) ([]models.FriendApplyModel, error)
}

type gormStore struct{ db *gorm.DB }

func NewStore(db *gorm.DB) Store { return &gormStore{db: db} }

func (s *gormStore) Insert(ctx context.Context, rec *models.FriendApplyModel) (string, error) {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (s *gormStore) FindByID(ctx context.Context, id string) (*models.FriendApplyModel, error) {
	var rec models.FriendApplyModel
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (s *gormStore) UpdateByID(ctx context.Context, id string, fields map[string]interface{}) error {
	return s.db.WithContext(ctx).
		Model(&models.FriendApplyModel{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (s *gormStore) ListAll(ctx context.Context) ([]models.FriendApplyModel, error) {
	var items []models.FriendApplyModel
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error
	return items, err
}
