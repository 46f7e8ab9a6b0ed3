package services

import (
	"talky/internal/auth"
	"talky/internal/config"
	"talky/internal/email"
	"talky/internal/events"
	"talky/internal/repositories"
	"talky/internal/storage"

	"gorm.io/gorm"
)

// ServiceContainer wires repositories and services together once at
// startup; handlers pull what they need from here.
type ServiceContainer struct {
	Talks         *TalkService
	Submissions   *SubmissionService
	Comments      *CommentService
	Users         *UserService
	Auth          *AuthService
	Notifications *NotificationService
	Dispatcher    *events.Dispatcher

	UserRepo            repositories.UserRepository
	TalkRepo            repositories.TalkRepository
	NotificationLogRepo repositories.NotificationLogRepository
}

func NewServiceContainer(
	db *gorm.DB,
	cfg *config.Config,
	store storage.Storage,
	provider email.Provider,
	dispatcher *events.Dispatcher,
) *ServiceContainer {
	talkRepo := repositories.NewTalkRepository(db)
	userRepo := repositories.NewUserRepository(db)
	commentRepo := repositories.NewCommentRepository(db)
	submRepo := repositories.NewSubmissionRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	logRepo := repositories.NewNotificationLogRepository(db)

	issuer := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL)

	notifications := NewNotificationService(
		talkRepo, userRepo, commentRepo, categoryRepo, logRepo,
		provider, cfg.Server.BaseURL, cfg.Email.ReplyTo,
	)
	dispatcher.Register(notifications)

	return &ServiceContainer{
		Talks: NewTalkService(
			db, talkRepo, submRepo, commentRepo, categoryRepo,
			store, dispatcher, cfg.Server.BaseURL, cfg.Upload.CleanupFiles,
		),
		Submissions: NewSubmissionService(
			db, talkRepo, submRepo, store, dispatcher,
			cfg.Upload.MaxSize, cfg.Upload.CleanupFiles,
		),
		Comments:      NewCommentService(commentRepo, submRepo, dispatcher),
		Users:         NewUserService(userRepo),
		Auth:          NewAuthService(userRepo, issuer),
		Notifications: notifications,
		Dispatcher:    dispatcher,

		UserRepo:            userRepo,
		TalkRepo:            talkRepo,
		NotificationLogRepo: logRepo,
	}
}
