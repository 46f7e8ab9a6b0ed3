package services

import (
	"errors"
	"strings"
	"time"

	"talky/internal/events"
	"talky/internal/models"
	"talky/internal/repositories"
	"talky/pkg/apperrors"
)

// CommentInput is what the public comment form posts. Validation here
// is deliberately looser than the DTO validator: any failure must come
// back as a uniform 400, matching the historical form behaviour.
type CommentInput struct {
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Comment         string `json:"comment" form:"comment"`
	ParentCommentID *uint  `json:"parent_comment_id" form:"parent_comment_id"`
}

type CommentService struct {
	commentRepo repositories.CommentRepository
	submRepo    repositories.SubmissionRepository
	dispatcher  *events.Dispatcher
}

func NewCommentService(
	commentRepo repositories.CommentRepository,
	submRepo repositories.SubmissionRepository,
	dispatcher *events.Dispatcher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		submRepo:    submRepo,
		dispatcher:  dispatcher,
	}
}

// Create validates and stores a comment on the talk, pinning the talk's
// latest submission if one exists.
func (s *CommentService) Create(talk *models.Talk, input CommentInput) (*models.Comment, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	text := strings.TrimSpace(input.Comment)

	if name == "" || email == "" || text == "" {
		return nil, apperrors.ErrInvalidComment
	}
	// Form posts bind an empty parent field as a zero id.
	if input.ParentCommentID != nil && *input.ParentCommentID == 0 {
		input.ParentCommentID = nil
	}
	if !strings.Contains(email, "@") {
		return nil, apperrors.ErrInvalidCommentEmail
	}

	if input.ParentCommentID != nil {
		parent, err := s.commentRepo.FindByID(*input.ParentCommentID)
		if err != nil {
			if errors.Is(err, repositories.ErrCommentNotFound) {
				return nil, apperrors.ErrInvalidParentComment
			}
			return nil, apperrors.InternalError(err)
		}
		if parent.TalkID != talk.ID {
			return nil, apperrors.ErrInvalidParentComment
		}
	}

	comment := &models.Comment{
		Name:            name,
		Email:           email,
		Comment:         text,
		Time:            time.Now().UTC(),
		TalkID:          talk.ID,
		ParentCommentID: input.ParentCommentID,
	}

	latest, err := s.submRepo.FindLatestByTalk(talk.ID)
	if err == nil {
		comment.SubmissionID = &latest.ID
	} else if !errors.Is(err, repositories.ErrSubmissionNotFound) {
		return nil, apperrors.InternalError(err)
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.dispatcher.CommentCreated(events.CommentCreated{
		TalkID:    talk.ID,
		CommentID: comment.ID,
	})
	return comment, nil
}

// Tree returns the talk's comments as a reply forest in chronological
// sibling order.
func (s *CommentService) Tree(talkID uint) ([]*CommentNode, error) {
	comments, err := s.commentRepo.FindByTalk(talkID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return BuildCommentTree(comments), nil
}

// Delete removes a comment from a talk's management page. A comment id
// that exists but belongs to a different talk reads as missing.
func (s *CommentService) Delete(talkID, commentID uint) error {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			return apperrors.ErrCommentNotFound
		}
		return apperrors.InternalError(err)
	}
	if comment.TalkID != talkID {
		return apperrors.ErrCommentNotFound
	}
	if err := s.commentRepo.Delete(commentID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}
