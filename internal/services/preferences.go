package services

import (
	"context"
	"strings"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/ports"
)

// PreferenceService stores presentation state such as expanded folders
type PreferenceService struct {
	store ports.PreferenceStore
}

// NewPreferenceService creates a new PreferenceService
func NewPreferenceService(store ports.PreferenceStore) *PreferenceService {
	return &PreferenceService{store: store}
}

// Get returns the value of key and whether it is set
func (s *PreferenceService) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	return s.store.GetPreference(ctx, key)
}

// Set stores value under key; an empty value deletes the key
func (s *PreferenceService) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if value == "" {
		return s.store.DeletePreference(ctx, key)
	}
	return s.store.SetPreference(ctx, key, value)
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return domain.NewValidationError("key", "cannot be empty")
	}
	if len(key) > 200 {
		return domain.NewValidationError("key", "cannot be longer than 200 characters")
	}
	return nil
}
