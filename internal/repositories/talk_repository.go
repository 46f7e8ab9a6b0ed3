package repositories

import (
	"errors"

	"talky/internal/models"

	"gorm.io/gorm"
)

var ErrTalkNotFound = errors.New("talk not found")

type TalkRepository interface {
	Create(talk *models.Talk) error
	Update(talk *models.Talk) error
	Delete(id uint) error
	FindByID(id uint) (*models.Talk, error)
	FindByIDForUpdate(id uint) (*models.Talk, error)
	FindByIDWithRelations(id uint) (*models.Talk, error)
	FindAll(limit, offset int) ([]models.Talk, error)
	CountAll() (int64, error)
	FindBySpeaker(email string) ([]models.Talk, error)
	FindByExperiment(experimentID uint) ([]models.Talk, error)
	ReplaceCategories(talk *models.Talk, categories []models.Category) error
	ReplaceInterestingTo(talk *models.Talk, experiments []models.Experiment) error

	// WithTx returns a repository bound to the given transaction.
	WithTx(tx *gorm.DB) TalkRepository
}

type TalkRepositoryImpl struct {
	db *gorm.DB
}

func NewTalkRepository(db *gorm.DB) TalkRepository {
	return &TalkRepositoryImpl{db: db}
}

func (r *TalkRepositoryImpl) WithTx(tx *gorm.DB) TalkRepository {
	return &TalkRepositoryImpl{db: tx}
}

func (r *TalkRepositoryImpl) Create(talk *models.Talk) error {
	return r.db.Create(talk).Error
}

func (r *TalkRepositoryImpl) Update(talk *models.Talk) error {
	return r.db.Save(talk).Error
}

func (r *TalkRepositoryImpl) Delete(id uint) error {
	result := r.db.Select("Categories", "InterestingTo").Delete(&models.Talk{BaseModel: models.BaseModel{ID: id}})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTalkNotFound
	}
	return nil
}

func (r *TalkRepositoryImpl) FindByID(id uint) (*models.Talk, error) {
	var talk models.Talk
	if err := r.db.First(&talk, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTalkNotFound
		}
		return nil, err
	}
	return &talk, nil
}

// FindByIDForUpdate locks the talk row for the duration of the current
// transaction. Callers must invoke it through WithTx.
func (r *TalkRepositoryImpl) FindByIDForUpdate(id uint) (*models.Talk, error) {
	var talk models.Talk
	err := withRowLock(r.db).First(&talk, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTalkNotFound
		}
		return nil, err
	}
	return &talk, nil
}

func (r *TalkRepositoryImpl) FindByIDWithRelations(id uint) (*models.Talk, error) {
	var talk models.Talk
	err := r.db.
		Preload("Experiment").
		Preload("Conference").
		Preload("Categories").
		Preload("InterestingTo").
		First(&talk, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTalkNotFound
		}
		return nil, err
	}
	return &talk, nil
}

func (r *TalkRepositoryImpl) FindAll(limit, offset int) ([]models.Talk, error) {
	var talks []models.Talk
	query := r.db.Preload("Experiment").Preload("Conference").Order("id")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&talks).Error; err != nil {
		return nil, err
	}
	return talks, nil
}

func (r *TalkRepositoryImpl) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.Talk{}).Count(&count).Error
	return count, err
}

func (r *TalkRepositoryImpl) FindBySpeaker(email string) ([]models.Talk, error) {
	var talks []models.Talk
	err := r.db.Where("speaker = ?", email).Order("id").Find(&talks).Error
	if err != nil {
		return nil, err
	}
	return talks, nil
}

func (r *TalkRepositoryImpl) FindByExperiment(experimentID uint) ([]models.Talk, error) {
	var talks []models.Talk
	err := r.db.Where("experiment_id = ?", experimentID).Order("id").Find(&talks).Error
	if err != nil {
		return nil, err
	}
	return talks, nil
}

func (r *TalkRepositoryImpl) ReplaceCategories(talk *models.Talk, categories []models.Category) error {
	return r.db.Model(talk).Association("Categories").Replace(categories)
}

func (r *TalkRepositoryImpl) ReplaceInterestingTo(talk *models.Talk, experiments []models.Experiment) error {
	return r.db.Model(talk).Association("InterestingTo").Replace(experiments)
}
