package repositories

import (
	"talky/internal/models"

	"gorm.io/gorm"
)

type NotificationLogRepository interface {
	Create(entry *models.NotificationLog) error
	FindByTalk(talkID uint) ([]models.NotificationLog, error)
	FindRecent(limit int) ([]models.NotificationLog, error)
}

type NotificationLogRepositoryImpl struct {
	db *gorm.DB
}

func NewNotificationLogRepository(db *gorm.DB) NotificationLogRepository {
	return &NotificationLogRepositoryImpl{db: db}
}

func (r *NotificationLogRepositoryImpl) Create(entry *models.NotificationLog) error {
	return r.db.Create(entry).Error
}

func (r *NotificationLogRepositoryImpl) FindByTalk(talkID uint) ([]models.NotificationLog, error) {
	var entries []models.NotificationLog
	err := r.db.Where("talk_id = ?", talkID).Order("id DESC").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *NotificationLogRepositoryImpl) FindRecent(limit int) ([]models.NotificationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.NotificationLog
	err := r.db.Order("id DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
