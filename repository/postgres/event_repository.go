package postgres

import (
	"context"
	"time"

	"github.com/arunvm123/eventease/model"
	"github.com/arunvm123/eventease/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Event operations
func (s *PostgresStore) CreateEvent(ctx context.Context, event *model.Event) error {
	event.Version = 1
	return translateError(s.db.WithContext(ctx).Omit(clause.Associations).Create(event).Error)
}

func (s *PostgresStore) GetEventByID(ctx context.Context, id uint) (*model.Event, error) {
	var event model.Event
	if err := s.db.WithContext(ctx).Preload("Venue").First(&event, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &event, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := s.db.WithContext(ctx).Preload("Venue").Order("id ASC").Find(&events).Error; err != nil {
		return nil, translateError(err)
	}
	return events, nil
}

func (s *PostgresStore) UpdateEvent(ctx context.Context, event *model.Event, expectedVersion int) error {
	result := s.db.WithContext(ctx).Model(&model.Event{}).
		Where("id = ? AND version = ?", event.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":        event.Name,
			"event_date":  event.EventDate,
			"description": event.Description,
			"venue_id":    event.VenueID,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrStaleVersion
	}

	event.Version = expectedVersion + 1
	return nil
}

func (s *PostgresStore) DeleteEvent(ctx context.Context, id uint) error {
	return s.deleteByID(ctx, &model.Event{}, id)
}

func (s *PostgresStore) EventExists(ctx context.Context, id uint) (bool, error) {
	return s.exists(ctx, &model.Event{}, id)
}
