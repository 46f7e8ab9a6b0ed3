package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"talky/internal/events"
	"talky/internal/logger"
	"talky/internal/models"
	"talky/internal/repositories"
	"talky/internal/storage"
	"talky/pkg/apperrors"

	"gorm.io/gorm"
)

// SubmissionPath is the storage location of one uploaded file:
// {talk_id}/{version}/{filename}.
func SubmissionPath(talkID uint, version int, filename string) string {
	return path.Join(fmt.Sprint(talkID), fmt.Sprint(version), filename)
}

type SubmissionService struct {
	db           *gorm.DB
	talkRepo     repositories.TalkRepository
	submRepo     repositories.SubmissionRepository
	storage      storage.Storage
	dispatcher   *events.Dispatcher
	maxSize      int64
	cleanupFiles bool
}

func NewSubmissionService(
	db *gorm.DB,
	talkRepo repositories.TalkRepository,
	submRepo repositories.SubmissionRepository,
	store storage.Storage,
	dispatcher *events.Dispatcher,
	maxSize int64,
	cleanupFiles bool,
) *SubmissionService {
	return &SubmissionService{
		db:           db,
		talkRepo:     talkRepo,
		submRepo:     submRepo,
		storage:      store,
		dispatcher:   dispatcher,
		maxSize:      maxSize,
		cleanupFiles: cleanupFiles,
	}
}

// Create validates and stores a new submission for the talk.
//
// The version number is talk.n_submissions+1, allocated while holding a
// row lock on the talk so concurrent uploads serialise. If storage
// already holds files under the candidate version path (a leftover from
// an earlier partial failure), the version is bumped past them. The
// file is written before the database row is committed; versions are
// never reused even when uploads are later deleted.
func (s *SubmissionService) Create(ctx context.Context, talkID uint, filename string, size int64, reader io.Reader) (*models.Submission, error) {
	filename = path.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		return nil, apperrors.ErrEmptyFilename
	}
	if !strings.EqualFold(path.Ext(filename), ".pdf") {
		return nil, apperrors.ErrInvalidFileType
	}
	if s.maxSize > 0 && size > s.maxSize {
		return nil, apperrors.ErrFileTooLarge
	}

	var submission *models.Submission
	var stored string

	err := s.db.Transaction(func(tx *gorm.DB) error {
		talk, err := s.talkRepo.WithTx(tx).FindByIDForUpdate(talkID)
		if err != nil {
			return err
		}

		version := talk.NSubmissions + 1
		for {
			occupied, err := s.storage.Exists(ctx, path.Join(fmt.Sprint(talkID), fmt.Sprint(version)))
			if err != nil {
				return fmt.Errorf("probe version path: %w", err)
			}
			if !occupied {
				break
			}
			version++
		}

		stored = SubmissionPath(talkID, version, filename)
		if err := s.storage.Save(ctx, stored, reader); err != nil {
			stored = ""
			return fmt.Errorf("store file: %w", err)
		}

		submission = &models.Submission{
			TalkID:   talkID,
			Version:  version,
			Filename: filename,
			Time:     time.Now().UTC(),
		}
		if err := s.submRepo.WithTx(tx).Create(submission); err != nil {
			return err
		}

		talk.NSubmissions = version
		return s.talkRepo.WithTx(tx).Update(talk)
	})
	if err != nil {
		if stored != "" {
			if cleanupErr := s.storage.Delete(ctx, stored); cleanupErr != nil {
				logger.CtxWithError(ctx, "failed to clean up partial upload", cleanupErr, "path", stored)
			}
		}
		if errors.Is(err, repositories.ErrTalkNotFound) {
			return nil, apperrors.ErrTalkNotFound
		}
		return nil, apperrors.InternalError(fmt.Errorf("create submission: %w", err))
	}

	s.dispatcher.SubmissionCreated(events.SubmissionCreated{
		TalkID:       talkID,
		SubmissionID: submission.ID,
		Version:      submission.Version,
	})
	return submission, nil
}

// Open returns the stored file for a submission version. A database
// row whose file has vanished from storage reports gone rather than
// not-found.
func (s *SubmissionService) Open(ctx context.Context, talkID uint, version int) (*models.Submission, io.ReadCloser, error) {
	submission, err := s.submRepo.FindByTalkAndVersion(talkID, version)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return nil, nil, apperrors.ErrSubmissionNotFound
		}
		return nil, nil, apperrors.InternalError(err)
	}

	stored := SubmissionPath(talkID, submission.Version, submission.Filename)
	exists, err := s.storage.Exists(ctx, stored)
	if err != nil {
		return nil, nil, apperrors.InternalError(err)
	}
	if !exists {
		return nil, nil, apperrors.ErrSubmissionGone
	}

	file, err := s.storage.Get(ctx, stored)
	if err != nil {
		return nil, nil, apperrors.InternalError(err)
	}
	return submission, file, nil
}

// Latest returns the newest submission of a talk, or nil when the talk
// has none.
func (s *SubmissionService) Latest(talkID uint) (*models.Submission, error) {
	submission, err := s.submRepo.FindLatestByTalk(talkID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return nil, nil
		}
		return nil, apperrors.InternalError(err)
	}
	return submission, nil
}

func (s *SubmissionService) ListByTalk(talkID uint) ([]models.Submission, error) {
	submissions, err := s.submRepo.FindByTalk(talkID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return submissions, nil
}

// Delete removes a submission row and its file. The version stays
// burned: the talk's submission counter is not decremented. A file
// already missing from storage is not an error.
func (s *SubmissionService) Delete(ctx context.Context, talkID uint, submissionID uint) error {
	submission, err := s.submRepo.FindByID(submissionID)
	if err != nil || submission.TalkID != talkID {
		// An id belonging to another talk is indistinguishable from a
		// missing one.
		if err != nil && !errors.Is(err, repositories.ErrSubmissionNotFound) {
			return apperrors.InternalError(err)
		}
		return apperrors.ErrSubmissionNotFound
	}

	if err := s.submRepo.Delete(submissionID); err != nil {
		return apperrors.InternalError(err)
	}

	if s.cleanupFiles {
		stored := SubmissionPath(talkID, submission.Version, submission.Filename)
		if err := s.storage.Delete(ctx, stored); err != nil {
			logger.CtxWithError(ctx, "failed to remove submission file", err, "path", stored)
		}
	}
	return nil
}
