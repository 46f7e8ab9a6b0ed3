// Package app builds and runs the application: config, database,
// storage, mail, services and the gin router.
package app

import (
	"fmt"

	"talky/internal/config"
	"talky/internal/email"
	"talky/internal/events"
	"talky/internal/logger"
	"talky/internal/middleware"
	"talky/internal/models"
	"talky/internal/repositories"
	"talky/internal/routes"
	"talky/internal/services"
	"talky/internal/storage"
	"talky/internal/web"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenDatabase connects per the configured driver and migrates the
// schema.
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.Database.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.Database.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
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
	)
}

// Seed ensures the two roles exist and, when configured, a first
// superuser account so a fresh deployment can be logged into.
func Seed(db *gorm.DB, cfg *config.Config) error {
	userRepo := repositories.NewUserRepository(db)

	if _, err := userRepo.EnsureRole(models.RoleUser, "Regular collaboration member"); err != nil {
		return err
	}
	superRole, err := userRepo.EnsureRole(models.RoleSuperuser, "Administrator across all experiments")
	if err != nil {
		return err
	}

	if cfg.FirstAdminEmail == "" || cfg.FirstAdminPassword == "" {
		return nil
	}
	if _, err := userRepo.FindByEmail(cfg.FirstAdminEmail); err == nil {
		return nil
	}

	var experiment models.Experiment
	if err := db.FirstOrCreate(&experiment, models.Experiment{Name: "Default"}).Error; err != nil {
		return err
	}

	users := services.NewUserService(userRepo)
	admin, err := users.Create(services.CreateUserInput{
		Name:         "Administrator",
		Email:        cfg.FirstAdminEmail,
		Password:     cfg.FirstAdminPassword,
		ExperimentID: experiment.ID,
	})
	if err != nil {
		return err
	}
	return userRepo.ReplaceRoles(admin, []models.Role{*superRole})
}

// NewEmailProvider picks the SMTP dialer, or the recording mock when
// mail is disabled.
func NewEmailProvider(cfg *config.Config) (email.Provider, error) {
	if cfg.Email.Disabled {
		return email.NewMockProvider(), nil
	}
	return email.NewSMTPProvider(email.SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
	})
}

// SetupRouter assembles the full application around an open database
// handle. Tests call this directly with an sqlite handle and a mock
// mail provider.
func SetupRouter(cfg *config.Config, db *gorm.DB, provider email.Provider, store storage.Storage) (*gin.Engine, *services.ServiceContainer) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	dispatcher := events.NewDispatcher(logger.GetLogger())
	container := services.NewServiceContainer(db, cfg, store, provider, dispatcher)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging())
	r.Use(middleware.Database(db))
	r.SetHTMLTemplate(web.Templates())
	r.MaxMultipartMemory = cfg.Upload.MaxSize

	routes.RegisterRoutes(r, cfg, container)
	return r, container
}

// Run is the production entry point.
func Run() error {
	config.LoadConfig()
	cfg := config.GetConfig()
	logger.Init(cfg.Server.Env)

	db, err := OpenDatabase(cfg)
	if err != nil {
		return err
	}
	if err := Seed(db, cfg); err != nil {
		return fmt.Errorf("seed database: %w", err)
	}

	provider, err := NewEmailProvider(cfg)
	if err != nil {
		return fmt.Errorf("configure email: %w", err)
	}

	store, err := storage.NewStorage(storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	})
	if err != nil {
		return fmt.Errorf("configure storage: %w", err)
	}

	r, _ := SetupRouter(cfg, db, provider, store)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server", "addr", addr, "env", cfg.Server.Env)
	return r.Run(addr)
}
