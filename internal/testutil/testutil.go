package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dom/blog-api/internal/api"
	"github.com/dom/blog-api/internal/config"
	"github.com/dom/blog-api/internal/repository"
	"github.com/dom/blog-api/internal/repository/database"
	"github.com/dom/blog-api/internal/service"
	"github.com/dom/blog-api/internal/websocket"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB is a migrated database for one test. Container is set only for
// Postgres databases.
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB opens a private in-memory SQLite database with the schema applied.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := database.NewConnection(database.DriverSQLite, dsn, logger.Silent)
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB := &TestDB{DB: db, DSN: dsn}
	t.Cleanup(func() {
		testDB.Cleanup()
	})
	return testDB
}

// NewPostgresTestDB creates a new PostgreSQL testcontainer and returns a
// migrated connection. Skipped with -short.
func NewPostgresTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_blog"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testDB := &TestDB{Container: container}
	t.Cleanup(func() {
		testDB.Cleanup()
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	testDB.DSN = dsn

	db, err := database.NewConnection(database.DriverPostgres, dsn, logger.Silent)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	testDB.DB = db

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return testDB
}

// Cleanup closes the connection and terminates the container, if any.
func (tdb *TestDB) Cleanup() {
	if tdb.DB != nil {
		if sqlDB, err := tdb.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation, children first.
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"jobs",
		"posts",
		"user_sessions",
		"users",
	}

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		Environment:        "test",
		CORSOrigins:        []string{"*"},
		DatabaseDriver:     database.DriverSQLite,
		JWTSecret:          "test-jwt-secret-key-for-testing-only",
		JWTExpirationHours: 1,
		Worker: config.WorkerConfig{
			PollInterval: 10 * time.Millisecond,
			LeaseTTL:     time.Second,
			MaxAttempts:  3,
			BatchSize:    10,
		},
		MailFrom:        "test@example.com",
		OTELServiceName: "blog-api-test",
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Queue    *MemoryQueue
	Hub      *websocket.Hub
	Config   *config.Config
}

// NewTestServer creates a complete test server backed by SQLite. Queued tasks
// are captured in Queue instead of being run.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	cfg := TestConfig()

	repos := database.NewRepositories(testDB.DB)
	queue := NewMemoryQueue()
	hub := websocket.NewHub()
	go hub.Run()

	services := service.NewServices(repos, queue, hub, cfg)
	router := api.NewRouter(services, hub, cfg)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Queue:    queue,
		Hub:      hub,
		Config:   cfg,
	}

	t.Cleanup(func() {
		hub.Stop()
		server.Close()
	})

	return ts
}

// Reset clears the database and the captured queue between subtests.
func (ts *TestServer) Reset(t *testing.T) {
	t.Helper()
	ts.DB.Truncate(t)
	ts.Queue.Reset()
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api%s", ts.Server.URL, path)
}

// FeedURL returns the websocket URL of the post feed.
func (ts *TestServer) FeedURL() string {
	return "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/api/posts/feed"
}
