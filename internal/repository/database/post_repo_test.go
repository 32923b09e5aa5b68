package database_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/dom/blog-api/internal/domain"
	"github.com/dom/blog-api/internal/repository/database"
	"github.com/dom/blog-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_CRUD(t *testing.T) {
	forEachBackend(t, func(t *testing.T, testDB *testutil.TestDB) {
		repo := database.NewPostRepository(testDB.DB)
		ctx := context.Background()

		owner, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

		post := &domain.Post{Title: "Hello", Content: "World", UserID: owner.ID}
		require.NoError(t, repo.Create(ctx, post))
		assert.NotEqual(t, uuid.Nil, post.ID)

		got, err := repo.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hello", got.Title)
		assert.Equal(t, owner.ID, got.UserID)

		got.Title = "Hello again"
		got.UserID = uuid.New() // never written
		require.NoError(t, repo.Update(ctx, got))

		reloaded, err := repo.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hello again", reloaded.Title)
		assert.Equal(t, "World", reloaded.Content)
		assert.Equal(t, owner.ID, reloaded.UserID)

		assert.ErrorIs(t, repo.Update(ctx, &domain.Post{ID: uuid.New(), Title: "x", Content: "y"}), domain.ErrPostNotFound)

		require.NoError(t, repo.Delete(ctx, post.ID))
		_, err = repo.GetByID(ctx, post.ID)
		assert.ErrorIs(t, err, domain.ErrPostNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, post.ID), domain.ErrPostNotFound)
	})
}

func TestPostRepository_Paginate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, testDB *testutil.TestDB) {
		repo := database.NewPostRepository(testDB.DB)
		ctx := context.Background()

		owner, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
		seeded := testutil.SeedPosts(t, testDB.DB, owner, 15)

		tests := []struct {
			name      string
			page      int
			wantFirst int
			wantLen   int
		}{
			{name: "first page", page: 1, wantFirst: 0, wantLen: 10},
			{name: "second page", page: 2, wantFirst: 10, wantLen: 5},
			{name: "past the end", page: 3, wantLen: 0},
			{name: "page zero is first", page: 0, wantFirst: 0, wantLen: 10},
			{name: "largest page number", page: math.MaxInt, wantLen: 0},
			{name: "page whose offset wraps negative", page: math.MaxInt/10 + 1, wantLen: 0},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				posts, total, err := repo.Paginate(ctx, tt.page, 10)
				require.NoError(t, err)
				assert.Equal(t, int64(15), total)
				require.Len(t, posts, tt.wantLen)
				for i, p := range posts {
					assert.Equal(t, seeded[tt.wantFirst+i].ID, p.ID)
				}
			})
		}
	})
}

func TestPostRepository_PaginateBreaksTiesByID(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := database.NewPostRepository(testDB.DB)

	owner, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	at := time.Now().UTC().Truncate(time.Second)
	a := testutil.NewPostBuilder(owner).WithCreatedAt(at).Build(t, testDB.DB)
	b := testutil.NewPostBuilder(owner).WithCreatedAt(at).Build(t, testDB.DB)

	posts, _, err := repo.Paginate(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	first, second := a.ID, b.ID
	if second.String() < first.String() {
		first, second = second, first
	}
	assert.Equal(t, first, posts[0].ID)
	assert.Equal(t, second, posts[1].ID)
}

func TestPostRepository_PaginateEmpty(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := database.NewPostRepository(testDB.DB)

	posts, total, err := repo.Paginate(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}
