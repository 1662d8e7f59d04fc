package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arunvm123/eventease/model"
	"github.com/arunvm123/eventease/repository"
	"github.com/arunvm123/eventease/storage"
	"github.com/sirupsen/logrus"
)

type venueStore interface {
	repository.VenueRepository
	CountBookingsByVenue(ctx context.Context, venueID uint) (int64, error)
}

type VenueManager struct {
	repo  venueStore
	blobs storage.BlobStore
	log   logrus.FieldLogger
}

func NewVenueManager(repo venueStore, blobs storage.BlobStore, log logrus.FieldLogger) *VenueManager {
	return &VenueManager{
		repo:  repo,
		blobs: blobs,
		log:   log,
	}
}

func (m *VenueManager) List(ctx context.Context) ([]model.Venue, error) {
	return m.repo.ListVenues(ctx)
}

func (m *VenueManager) Get(ctx context.Context, id uint) (*model.Venue, error) {
	return m.repo.GetVenueByID(ctx, id)
}

// Create validates input, uploads image when given and persists the venue.
// Nothing is written when the upload fails.
func (m *VenueManager) Create(ctx context.Context, input model.VenueInput, image *model.ImageUpload) (*model.Venue, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	venue := &model.Venue{
		Name:     input.Name,
		Location: input.Location,
		Capacity: input.Capacity,
	}
	if url := strings.TrimSpace(input.ImageURL); url != "" {
		venue.ImageURL = &url
	}

	if image != nil {
		url, err := m.upload(ctx, image)
		if err != nil {
			return nil, err
		}
		venue.ImageURL = &url
	}

	if err := m.repo.CreateVenue(ctx, venue); err != nil {
		m.log.WithError(err).WithField("venue_name", venue.Name).Error("Failed to create venue")
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	m.log.WithField("venue_id", venue.ID).Info("Venue created")
	return venue, nil
}

// Update applies only the fields of input that carry a value. An uploaded
// image always replaces ImageURL.
func (m *VenueManager) Update(ctx context.Context, id uint, input model.VenueInput, image *model.ImageUpload) (*model.Venue, error) {
	venue, err := m.repo.GetVenueByID(ctx, id)
	if err != nil {
		return nil, err
	}

	expectedVersion := venue.Version
	if input.Version > 0 {
		expectedVersion = input.Version
	}

	if strings.TrimSpace(input.Name) != "" {
		venue.Name = input.Name
	}
	if strings.TrimSpace(input.Location) != "" {
		venue.Location = input.Location
	}
	if input.Capacity > 0 {
		venue.Capacity = input.Capacity
	}
	if url := strings.TrimSpace(input.ImageURL); url != "" {
		venue.ImageURL = &url
	}

	if image != nil {
		url, err := m.upload(ctx, image)
		if err != nil {
			return nil, err
		}
		venue.ImageURL = &url
	}

	err = m.repo.UpdateVenue(ctx, venue, expectedVersion)
	if errors.Is(err, repository.ErrStaleVersion) {
		return nil, staleOutcome(m.repo.VenueExists(ctx, id))
	}
	if err != nil {
		m.log.WithError(err).WithField("venue_id", id).Error("Failed to update venue")
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	return venue, nil
}

// Delete refuses with ErrHasBookings while any booking references the venue
// or one of its events. The venue's events are removed with it.
func (m *VenueManager) Delete(ctx context.Context, id uint) error {
	count, err := m.repo.CountBookingsByVenue(ctx, id)
	if err != nil {
		m.log.WithError(err).WithField("venue_id", id).Error("Failed to count venue bookings")
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	if count > 0 {
		return ErrHasBookings
	}

	err = m.repo.DeleteVenue(ctx, id)
	switch {
	case err == nil:
		m.log.WithField("venue_id", id).Info("Venue deleted")
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrForeignKey):
		// a booking landed after the count, or one of the venue's events is
		// booked at another venue and blocks the cascade
		m.log.WithError(err).WithField("venue_id", id).Warn("Venue delete blocked by bookings")
		return ErrHasBookings
	}

	m.log.WithError(err).WithField("venue_id", id).Error("Failed to delete venue")
	return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
}

// Options lists venues as drop-down choices
func (m *VenueManager) Options(ctx context.Context) ([]model.Option, error) {
	venues, err := m.repo.ListVenues(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]model.Option, 0, len(venues))
	for _, v := range venues {
		options = append(options, model.Option{ID: v.ID, Label: v.Name})
	}
	return options, nil
}

func (m *VenueManager) upload(ctx context.Context, image *model.ImageUpload) (string, error) {
	url, err := m.blobs.Upload(ctx, *image)
	if err != nil {
		m.log.WithError(err).Warn("Venue image upload failed")
		return "", fieldError("ImageFile", fmt.Sprintf("Error uploading image: %v", err))
	}
	return url, nil
}
