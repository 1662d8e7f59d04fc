package postgres

import (
	"context"
	"time"

	"github.com/arunvm123/eventease/model"
	"github.com/arunvm123/eventease/repository"
	"gorm.io/gorm"
)

// Venue operations
func (s *PostgresStore) CreateVenue(ctx context.Context, venue *model.Venue) error {
	venue.Version = 1
	return translateError(s.db.WithContext(ctx).Create(venue).Error)
}

func (s *PostgresStore) GetVenueByID(ctx context.Context, id uint) (*model.Venue, error) {
	var venue model.Venue
	if err := s.db.WithContext(ctx).First(&venue, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &venue, nil
}

func (s *PostgresStore) ListVenues(ctx context.Context) ([]model.Venue, error) {
	var venues []model.Venue
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&venues).Error; err != nil {
		return nil, translateError(err)
	}
	return venues, nil
}

func (s *PostgresStore) UpdateVenue(ctx context.Context, venue *model.Venue, expectedVersion int) error {
	result := s.db.WithContext(ctx).Model(&model.Venue{}).
		Where("id = ? AND version = ?", venue.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":       venue.Name,
			"location":   venue.Location,
			"capacity":   venue.Capacity,
			"image_url":  venue.ImageURL,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrStaleVersion
	}

	venue.Version = expectedVersion + 1
	return nil
}

func (s *PostgresStore) DeleteVenue(ctx context.Context, id uint) error {
	return s.deleteByID(ctx, &model.Venue{}, id)
}

func (s *PostgresStore) VenueExists(ctx context.Context, id uint) (bool, error) {
	return s.exists(ctx, &model.Venue{}, id)
}
