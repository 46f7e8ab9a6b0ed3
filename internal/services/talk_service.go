package services

import (
	"context"
	"errors"
	"fmt"

	"talky/internal/events"
	"talky/internal/keys"
	"talky/internal/logger"
	"talky/internal/models"
	"talky/internal/repositories"
	"talky/internal/storage"
	"talky/pkg/apperrors"

	"gorm.io/gorm"
)

// CreateTalkInput carries the admin-supplied talk fields. Keys are
// never accepted from the outside.
type CreateTalkInput struct {
	Title           string `json:"title" validate:"required,notblank,max=200"`
	Abstract        string `json:"abstract"`
	Duration        string `json:"duration" validate:"required,notblank,max=80"`
	Speaker         string `json:"speaker" validate:"required,email"`
	ExperimentID    uint   `json:"experiment_id" validate:"required"`
	ConferenceID    uint   `json:"conference_id" validate:"required"`
	CategoryIDs     []uint `json:"category_ids"`
	InterestingToID []uint `json:"interesting_to_ids"`
}

// UpdateTalkInput uses pointers so absent fields stay untouched.
type UpdateTalkInput struct {
	Title           *string `json:"title" validate:"omitempty,notblank,max=200"`
	Abstract        *string `json:"abstract"`
	Duration        *string `json:"duration" validate:"omitempty,notblank,max=80"`
	Speaker         *string `json:"speaker" validate:"omitempty,email"`
	ConferenceID    *uint   `json:"conference_id"`
	CategoryIDs     []uint  `json:"category_ids"`
	InterestingToID []uint  `json:"interesting_to_ids"`
}

// TalkLinks are the capability URLs handed to administrators.
type TalkLinks struct {
	View   string `json:"view_url"`
	Upload string `json:"upload_url"`
	Manage string `json:"manage_url"`
}

type TalkService struct {
	db           *gorm.DB
	talkRepo     repositories.TalkRepository
	submRepo     repositories.SubmissionRepository
	commentRepo  repositories.CommentRepository
	categoryRepo repositories.CategoryRepository
	storage      storage.Storage
	dispatcher   *events.Dispatcher
	baseURL      string
	cleanupFiles bool
}

func NewTalkService(
	db *gorm.DB,
	talkRepo repositories.TalkRepository,
	submRepo repositories.SubmissionRepository,
	commentRepo repositories.CommentRepository,
	categoryRepo repositories.CategoryRepository,
	store storage.Storage,
	dispatcher *events.Dispatcher,
	baseURL string,
	cleanupFiles bool,
) *TalkService {
	return &TalkService{
		db:           db,
		talkRepo:     talkRepo,
		submRepo:     submRepo,
		commentRepo:  commentRepo,
		categoryRepo: categoryRepo,
		storage:      store,
		dispatcher:   dispatcher,
		baseURL:      baseURL,
		cleanupFiles: cleanupFiles,
	}
}

// Create mints the three capability keys and stores the talk.
func (s *TalkService) Create(input CreateTalkInput) (*models.Talk, error) {
	view, upload, manage := keys.NewPair()

	talk := &models.Talk{
		Title:        input.Title,
		Abstract:     input.Abstract,
		Duration:     input.Duration,
		Speaker:      input.Speaker,
		ExperimentID: input.ExperimentID,
		ConferenceID: input.ConferenceID,
		ViewKey:      view,
		UploadKey:    upload,
		ManageKey:    manage,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.talkRepo.WithTx(tx)
		if err := repo.Create(talk); err != nil {
			return err
		}
		if len(input.CategoryIDs) > 0 {
			categories, err := repositories.NewCategoryRepository(tx).FindByIDs(input.CategoryIDs)
			if err != nil {
				return err
			}
			if err := repo.ReplaceCategories(talk, categories); err != nil {
				return err
			}
		}
		if len(input.InterestingToID) > 0 {
			var experiments []models.Experiment
			if err := tx.Where("id IN ?", input.InterestingToID).Find(&experiments).Error; err != nil {
				return err
			}
			if err := repo.ReplaceInterestingTo(talk, experiments); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.InternalError(fmt.Errorf("create talk: %w", err))
	}

	// A freshly created talk is an assignment too.
	s.dispatcher.TalkSpeakerChanged(events.TalkSpeakerChanged{
		TalkID:     talk.ID,
		NewSpeaker: talk.Speaker,
	})
	return talk, nil
}

// Update applies field changes. When the speaker changes, the upload
// and manage keys are regenerated inside the same transaction as the
// speaker write; the view key stays stable so shared audience links
// keep working. The assignment notification fires only after commit.
func (s *TalkService) Update(id uint, input UpdateTalkInput) (*models.Talk, error) {
	var talk *models.Talk
	var speakerChanged bool
	var oldSpeaker string

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.talkRepo.WithTx(tx)
		var err error
		talk, err = repo.FindByIDForUpdate(id)
		if err != nil {
			return err
		}

		if input.Title != nil {
			talk.Title = *input.Title
		}
		if input.Abstract != nil {
			talk.Abstract = *input.Abstract
		}
		if input.Duration != nil {
			talk.Duration = *input.Duration
		}
		if input.ConferenceID != nil {
			talk.ConferenceID = *input.ConferenceID
		}
		if input.Speaker != nil && *input.Speaker != talk.Speaker {
			oldSpeaker = talk.Speaker
			talk.Speaker = *input.Speaker
			talk.UploadKey = keys.New()
			talk.ManageKey = keys.New()
			speakerChanged = true
		}

		if err := repo.Update(talk); err != nil {
			return err
		}

		if input.CategoryIDs != nil {
			categories, err := repositories.NewCategoryRepository(tx).FindByIDs(input.CategoryIDs)
			if err != nil {
				return err
			}
			if err := repo.ReplaceCategories(talk, categories); err != nil {
				return err
			}
		}
		if input.InterestingToID != nil {
			var experiments []models.Experiment
			if err := tx.Where("id IN ?", input.InterestingToID).Find(&experiments).Error; err != nil {
				return err
			}
			if err := repo.ReplaceInterestingTo(talk, experiments); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTalkNotFound) {
			return nil, apperrors.ErrTalkNotFound
		}
		return nil, apperrors.InternalError(fmt.Errorf("update talk %d: %w", id, err))
	}

	if speakerChanged {
		s.dispatcher.TalkSpeakerChanged(events.TalkSpeakerChanged{
			TalkID:     talk.ID,
			OldSpeaker: oldSpeaker,
			NewSpeaker: talk.Speaker,
		})
	}
	return talk, nil
}

// Delete removes the talk with its comments and submissions, then
// cleans up the submission files best-effort.
func (s *TalkService) Delete(ctx context.Context, id uint) error {
	var submissions []models.Submission

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.talkRepo.WithTx(tx)
		if _, err := repo.FindByID(id); err != nil {
			return err
		}
		var err error
		submissions, err = s.submRepo.WithTx(tx).FindByTalk(id)
		if err != nil {
			return err
		}
		if err := repositories.NewCommentRepository(tx).DeleteByTalk(id); err != nil {
			return err
		}
		if err := s.submRepo.WithTx(tx).DeleteByTalk(id); err != nil {
			return err
		}
		return repo.Delete(id)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTalkNotFound) {
			return apperrors.ErrTalkNotFound
		}
		return apperrors.InternalError(fmt.Errorf("delete talk %d: %w", id, err))
	}

	if s.cleanupFiles {
		for _, sub := range submissions {
			path := SubmissionPath(id, sub.Version, sub.Filename)
			if err := s.storage.Delete(ctx, path); err != nil {
				logger.CtxWithError(ctx, "failed to remove submission file", err, "path", path)
			}
		}
	}
	return nil
}

func (s *TalkService) GetByID(id uint) (*models.Talk, error) {
	talk, err := s.talkRepo.FindByIDWithRelations(id)
	if err != nil {
		if errors.Is(err, repositories.ErrTalkNotFound) {
			return nil, apperrors.ErrTalkNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	return talk, nil
}

func (s *TalkService) List(limit, offset int) ([]models.Talk, error) {
	talks, err := s.talkRepo.FindAll(limit, offset)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return talks, nil
}

// GetByViewKey resolves a talk by id and view key. Any mismatch,
// including presenting the talk's own upload or manage key here, is a
// plain not-found.
func (s *TalkService) GetByViewKey(id uint, key string) (*models.Talk, error) {
	return s.getByKey(id, key, func(t *models.Talk) string { return t.ViewKey })
}

func (s *TalkService) GetByUploadKey(id uint, key string) (*models.Talk, error) {
	return s.getByKey(id, key, func(t *models.Talk) string { return t.UploadKey })
}

func (s *TalkService) GetByManageKey(id uint, key string) (*models.Talk, error) {
	return s.getByKey(id, key, func(t *models.Talk) string { return t.ManageKey })
}

func (s *TalkService) getByKey(id uint, key string, pick func(*models.Talk) string) (*models.Talk, error) {
	talk, err := s.talkRepo.FindByIDWithRelations(id)
	if err != nil {
		if errors.Is(err, repositories.ErrTalkNotFound) {
			return nil, apperrors.ErrTalkNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	if !keys.Verify(pick(talk), key) {
		return nil, apperrors.ErrTalkNotFound
	}
	return talk, nil
}

// CanManage reports whether the user may administer the talk: any
// superuser, or a member of the talk's own experiment.
func (s *TalkService) CanManage(user *models.User, talk *models.Talk) bool {
	if user == nil || talk == nil {
		return false
	}
	return user.IsSuperuser() || user.ExperimentID == talk.ExperimentID
}

// Links renders the capability URLs for a talk.
func (s *TalkService) Links(talk *models.Talk) TalkLinks {
	return TalkLinks{
		View:   fmt.Sprintf("%s/view/%d/%s/", s.baseURL, talk.ID, talk.ViewKey),
		Upload: fmt.Sprintf("%s/upload/%d/%s/", s.baseURL, talk.ID, talk.UploadKey),
		Manage: fmt.Sprintf("%s/manage/%d/%s/", s.baseURL, talk.ID, talk.ManageKey),
	}
}
