package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetPreference implements PreferenceStore.GetPreference
func (r *SQLiteRepository) GetPreference(ctx context.Context, key string) (string, bool, error) {
	var pref PreferenceModel
	err := withRetry(ctx, maxBusyRetries, func() error {
		return r.db.WithContext(ctx).Where("pref_key = ?", key).First(&pref).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return pref.Value, true, nil
}

// SetPreference implements PreferenceStore.SetPreference
func (r *SQLiteRepository) SetPreference(ctx context.Context, key, value string) error {
	return withRetry(ctx, maxBusyRetries, func() error {
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pref_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&PreferenceModel{Key: key, Value: value}).Error
	})
}

// DeletePreference implements PreferenceStore.DeletePreference
func (r *SQLiteRepository) DeletePreference(ctx context.Context, key string) error {
	return withRetry(ctx, maxBusyRetries, func() error {
		return r.db.WithContext(ctx).Where("pref_key = ?", key).Delete(&PreferenceModel{}).Error
	})
}
