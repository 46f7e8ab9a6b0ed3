package repositories

import (
	"errors"

	"talky/internal/models"

	"gorm.io/gorm"
)

var ErrCommentNotFound = errors.New("comment not found")

type CommentRepository interface {
	Create(comment *models.Comment) error
	Delete(id uint) error
	FindByID(id uint) (*models.Comment, error)
	FindByTalk(talkID uint) ([]models.Comment, error)
	DeleteByTalk(talkID uint) error
	CountReplies(commentID uint) (int64, error)
}

type CommentRepositoryImpl struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &CommentRepositoryImpl{db: db}
}

func (r *CommentRepositoryImpl) Create(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

func (r *CommentRepositoryImpl) Delete(id uint) error {
	result := r.db.Delete(&models.Comment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func (r *CommentRepositoryImpl) FindByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// FindByTalk returns the talk's comments in chronological order. The
// order matters: the tree builder relies on it for sibling ordering.
func (r *CommentRepositoryImpl) FindByTalk(talkID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.Where("talk_id = ?", talkID).Order("time, id").Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *CommentRepositoryImpl) DeleteByTalk(talkID uint) error {
	return r.db.Where("talk_id = ?", talkID).Delete(&models.Comment{}).Error
}

func (r *CommentRepositoryImpl) CountReplies(commentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Comment{}).Where("parent_comment_id = ?", commentID).Count(&count).Error
	return count, err
}
