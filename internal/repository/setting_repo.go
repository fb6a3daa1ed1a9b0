package repository

import (
	"context"
	"errors"
	"strconv"

	"toolcrib/internal/model"

	"gorm.io/gorm"
)

type SettingRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// SessionTimeout returns the configured session timeout, falling back to
	// the default when the setting row is missing or malformed.
	SessionTimeout(ctx context.Context) (int, error)
}

type settingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) Get(ctx context.Context, key string) (string, error) {
	var setting model.Setting
	if err := GetDB(ctx, r.db).First(&setting, "key = ?", key).Error; err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (r *settingRepository) Set(ctx context.Context, key, value string) error {
	setting := model.Setting{Key: key, Value: value}
	return GetDB(ctx, r.db).Save(&setting).Error
}

func (r *settingRepository) SessionTimeout(ctx context.Context) (int, error) {
	raw, err := r.Get(ctx, model.SettingSessionTimeout)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.DefaultSessionTimeoutSeconds, nil
		}
		return 0, err
	}

	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return model.DefaultSessionTimeoutSeconds, nil
	}
	return seconds, nil
}
