package database_test

import (
	"testing"

	"github.com/dom/blog-api/internal/testutil"
)

// forEachBackend runs fn against SQLite and, outside -short, a Postgres
// container.
func forEachBackend(t *testing.T, fn func(t *testing.T, testDB *testutil.TestDB)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		fn(t, testutil.NewTestDB(t))
	})
	t.Run("postgres", func(t *testing.T) {
		fn(t, testutil.NewPostgresTestDB(t))
	})
}
