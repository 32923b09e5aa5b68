package commands

import (
	"fmt"
	"log"

	"github.com/dom/blog-api/internal/config"
	"github.com/dom/blog-api/internal/mail"
	"github.com/dom/blog-api/internal/queue"
	"github.com/dom/blog-api/internal/repository"
	"github.com/dom/blog-api/internal/repository/database"
	"github.com/dom/blog-api/internal/service"
	"github.com/dom/blog-api/internal/worker"
	"gorm.io/gorm"
)

// app holds what every command needs: config, a migrated database and its
// repositories.
type app struct {
	cfg   *config.Config
	db    *gorm.DB
	repos *repository.Repositories
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewConnection(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.GormLogLevel())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &app{
		cfg:   cfg,
		db:    db,
		repos: database.NewRepositories(db),
	}, nil
}

func (a *app) Close() {
	closeDB(a.db)
}

func (a *app) queue() *queue.DBQueue {
	return queue.NewDBQueue(a.repos.Job, a.cfg.Worker.MaxAttempts)
}

func (a *app) services(publisher service.PostPublisher) *service.Services {
	return service.NewServices(a.repos, a.queue(), publisher, a.cfg)
}

func (a *app) worker() *worker.Worker {
	handlers := map[string]worker.Handler{
		service.TaskWelcomeEmail: service.NewWelcomeEmailHandler(a.repos.User, mail.NewLogMailer(a.cfg.MailFrom)),
	}
	return worker.New(a.repos.Job, handlers, worker.Config{
		PollInterval: a.cfg.Worker.PollInterval,
		LeaseTTL:     a.cfg.Worker.LeaseTTL,
		BatchSize:    a.cfg.Worker.BatchSize,
	}, nil)
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("ERROR [commands.closeDB] %v", err)
	}
}
