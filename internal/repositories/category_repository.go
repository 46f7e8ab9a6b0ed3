package repositories

import (
	"errors"

	"talky/internal/models"

	"gorm.io/gorm"
)

var ErrCategoryNotFound = errors.New("category not found")

type CategoryRepository interface {
	FindByID(id uint) (*models.Category, error)
	FindByIDs(ids []uint) ([]models.Category, error)
	FindByExperiment(experimentID uint) ([]models.Category, error)
	FindContactsForCategories(categoryIDs []uint) ([]models.Contact, error)
}

type CategoryRepositoryImpl struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &CategoryRepositoryImpl{db: db}
}

func (r *CategoryRepositoryImpl) FindByID(id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.Preload("Contacts").First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepositoryImpl) FindByIDs(ids []uint) ([]models.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var categories []models.Category
	if err := r.db.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryRepositoryImpl) FindByExperiment(experimentID uint) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Where("experiment_id = ?", experimentID).Order("name").Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// FindContactsForCategories returns the contacts attached to any of the
// given categories.
func (r *CategoryRepositoryImpl) FindContactsForCategories(categoryIDs []uint) ([]models.Contact, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	var contacts []models.Contact
	err := r.db.
		Joins("JOIN categories_contacts ON categories_contacts.contact_id = contacts.id").
		Where("categories_contacts.category_id IN ?", categoryIDs).
		Distinct().
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}
