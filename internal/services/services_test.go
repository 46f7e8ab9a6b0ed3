package services

import (
	"path/filepath"
	"testing"

	"talky/internal/email"
	"talky/internal/events"
	"talky/internal/logger"
	"talky/internal/models"
	"talky/internal/repositories"
	"talky/internal/storage"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testEnv bundles everything the service tests need against a fresh
// sqlite database and a temp-dir file store.
type testEnv struct {
	db         *gorm.DB
	store      storage.Storage
	mail       *email.MockProvider
	dispatcher *events.Dispatcher

	talks         *TalkService
	submissions   *SubmissionService
	comments      *CommentService
	notifications *NotificationService

	talkRepo repositories.TalkRepository
	submRepo repositories.SubmissionRepository
	logRepo  repositories.NotificationLogRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Experiment{},
		&models.Role{},
		&models.User{},
		&models.Conference{},
		&models.Contact{},
		&models.Category{},
		&models.Talk{},
		&models.Submission{},
		&models.Comment{},
		&models.NotificationLog{},
	))

	store, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir()})
	require.NoError(t, err)

	mail := email.NewMockProvider()
	dispatcher := events.NewDispatcher(logger.GetLogger())

	talkRepo := repositories.NewTalkRepository(db)
	userRepo := repositories.NewUserRepository(db)
	commentRepo := repositories.NewCommentRepository(db)
	submRepo := repositories.NewSubmissionRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	logRepo := repositories.NewNotificationLogRepository(db)

	notifications := NewNotificationService(
		talkRepo, userRepo, commentRepo, categoryRepo, logRepo,
		mail, "http://talky.test", "reply@talky.test",
	)
	dispatcher.Register(notifications)

	return &testEnv{
		db:         db,
		store:      store,
		mail:       mail,
		dispatcher: dispatcher,

		talks: NewTalkService(
			db, talkRepo, submRepo, commentRepo, categoryRepo,
			store, dispatcher, "http://talky.test", true,
		),
		submissions: NewSubmissionService(
			db, talkRepo, submRepo, store, dispatcher, 1024*1024, true,
		),
		comments:      NewCommentService(commentRepo, submRepo, dispatcher),
		notifications: notifications,

		talkRepo: talkRepo,
		submRepo: submRepo,
		logRepo:  logRepo,
	}
}

func (e *testEnv) experiment(t *testing.T, name string) *models.Experiment {
	t.Helper()
	exp := &models.Experiment{Name: name}
	require.NoError(t, e.db.Create(exp).Error)
	return exp
}

func (e *testEnv) conference(t *testing.T, name string) *models.Conference {
	t.Helper()
	conf := &models.Conference{Name: name, Venue: "CERN"}
	require.NoError(t, e.db.Create(conf).Error)
	return conf
}

func (e *testEnv) talk(t *testing.T, speaker string) *models.Talk {
	t.Helper()
	exp := e.experiment(t, "EXP-"+speaker)
	conf := e.conference(t, "CONF-"+speaker)

	talk, err := e.talks.Create(CreateTalkInput{
		Title:        "Search for something rare",
		Duration:     "20m",
		Speaker:      speaker,
		ExperimentID: exp.ID,
		ConferenceID: conf.ID,
	})
	require.NoError(t, err)
	e.dispatcher.Wait()
	e.mail.Reset()
	return talk
}
