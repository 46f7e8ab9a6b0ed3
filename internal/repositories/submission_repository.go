package repositories

import (
	"errors"

	"talky/internal/models"

	"gorm.io/gorm"
)

var ErrSubmissionNotFound = errors.New("submission not found")

type SubmissionRepository interface {
	Create(submission *models.Submission) error
	Delete(id uint) error
	FindByID(id uint) (*models.Submission, error)
	FindByTalkAndVersion(talkID uint, version int) (*models.Submission, error)
	FindByTalk(talkID uint) ([]models.Submission, error)
	FindLatestByTalk(talkID uint) (*models.Submission, error)
	DeleteByTalk(talkID uint) error

	WithTx(tx *gorm.DB) SubmissionRepository
}

type SubmissionRepositoryImpl struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &SubmissionRepositoryImpl{db: db}
}

func (r *SubmissionRepositoryImpl) WithTx(tx *gorm.DB) SubmissionRepository {
	return &SubmissionRepositoryImpl{db: tx}
}

func (r *SubmissionRepositoryImpl) Create(submission *models.Submission) error {
	return r.db.Create(submission).Error
}

func (r *SubmissionRepositoryImpl) Delete(id uint) error {
	result := r.db.Delete(&models.Submission{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

func (r *SubmissionRepositoryImpl) FindByID(id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := r.db.First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return &submission, nil
}

func (r *SubmissionRepositoryImpl) FindByTalkAndVersion(talkID uint, version int) (*models.Submission, error) {
	var submission models.Submission
	err := r.db.Where("talk_id = ? AND version = ?", talkID, version).First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return &submission, nil
}

func (r *SubmissionRepositoryImpl) FindByTalk(talkID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.Where("talk_id = ?", talkID).Order("version").Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *SubmissionRepositoryImpl) FindLatestByTalk(talkID uint) (*models.Submission, error) {
	var submission models.Submission
	err := r.db.Where("talk_id = ?", talkID).Order("version DESC").First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return &submission, nil
}

func (r *SubmissionRepositoryImpl) DeleteByTalk(talkID uint) error {
	return r.db.Where("talk_id = ?", talkID).Delete(&models.Submission{}).Error
}
