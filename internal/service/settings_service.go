package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/events"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/storage"
)

// SettingsService reads and writes the user settings singleton
type SettingsService struct {
	store     *storage.Adapter
	publisher events.Publisher
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(store *storage.Adapter, publisher events.Publisher) *SettingsService {
	if publisher == nil {
		publisher = events.NoOpPublisher{}
	}
	return &SettingsService{store: store, publisher: publisher}
}

// UpdateSettingsInput holds optional settings changes; nil fields are kept
type UpdateSettingsInput struct {
	Theme                *domain.Theme
	Currency             *string
	Language             *string
	NotificationsEnabled *bool
}

// GetSettings returns the stored settings, or the defaults when none exist
func (s *SettingsService) GetSettings(ctx context.Context) (*domain.UserSettings, error) {
	settings, err := storage.GetObject[domain.UserSettings](ctx, s.store, domain.KeyUserSettings)
	if errors.Is(err, domain.ErrNotFound) {
		defaults := domain.DefaultUserSettings()
		return &defaults, nil
	}
	return settings, err
}

// UpdateSettings applies the given changes and stores the result
func (s *SettingsService) UpdateSettings(ctx context.Context, input UpdateSettingsInput) (*domain.UserSettings, error) {
	if input.Theme != nil && *input.Theme != domain.ThemeLight && *input.Theme != domain.ThemeDark {
		return nil, domain.ErrInvalidTheme
	}

	var result domain.UserSettings
	err := s.store.Update(ctx, []string{domain.KeyUserSettings}, func(tx *storage.Tx) error {
		settings := domain.DefaultUserSettings()
		current, err := storage.ReadObject[domain.UserSettings](tx, domain.KeyUserSettings)
		switch {
		case err == nil:
			settings = *current
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		if input.Theme != nil {
			settings.Theme = *input.Theme
		}
		if input.Currency != nil {
			if c := strings.ToUpper(strings.TrimSpace(*input.Currency)); c != "" {
				settings.Currency = c
			}
		}
		if input.Language != nil {
			if l := strings.TrimSpace(*input.Language); l != "" {
				settings.Language = l
			}
		}
		if input.NotificationsEnabled != nil {
			settings.NotificationsEnabled = *input.NotificationsEnabled
		}

		result = settings
		return storage.WriteObject(tx, domain.KeyUserSettings, settings)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.NewEvent(events.EventTypeUpdated, events.EntityTypeSettings, result))
	return &result, nil
}
