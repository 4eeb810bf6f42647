package postservice

import (
	"context"
	"crypto/rand"
	"database/sql"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hikarune/postfeed/internal/blobservice"
	"github.com/hikarune/postfeed/internal/common"
)

type stubProducer struct{}

func (stubProducer) Publish(ctx context.Context, msg []byte, key common.BindingKey, exchange common.Exchange) error {
	return nil
}

type testEnv struct {
	svc   *PostService
	db    *sql.DB
	blobs *blobservice.MemoryStore
}

func setupTestEnvironment(t *testing.T) (*testEnv, int) {
	db := common.TestDB("file://../../migrations", t)
	cache := common.NewCache(5*time.Minute, 10*time.Minute)
	blobs := blobservice.NewMemoryStore()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	userID, err := createTestUser(db, "testuser", "testuser@example.com")
	require.NoError(t, err)

	svc := NewPostService(db, blobs, stubProducer{}, cache, logger)

	return &testEnv{svc: svc, db: db, blobs: blobs}, userID
}

func createTestUser(db *sql.DB, username, email string) (int, error) {
	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		return 0, err
	}

	var id int
	err := db.QueryRow(`
		INSERT INTO users (username, email, password)
		VALUES ($1, $2, $3)
		RETURNING id`, username, email, randomBytes).Scan(&id)
	return id, err
}

// createPostAt inserts a post with a fixed created_at so listing order is
// deterministic.
func createPostAt(db *sql.DB, userID int, title string, createdAt time.Time) (int, error) {
	var id int
	err := db.QueryRow(`
		INSERT INTO posts (title, content, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id`, title, "content of "+title, userID, createdAt).Scan(&id)
	return id, err
}

func TestCreatePost(t *testing.T) {
	env, userID := setupTestEnvironment(t)
	ctx := context.Background()

	testCases := []struct {
		name      string
		req       *CreatePostRequest
		wantField string
	}{
		{
			name: "valid post",
			req:  &CreatePostRequest{Title: "Test Post", Content: "This is a test post.", UserID: userID},
		},
		{
			name:      "title too short",
			req:       &CreatePostRequest{Title: "ab", Content: "This is a test post.", UserID: userID},
			wantField: "title",
		},
		{
			name:      "empty title",
			req:       &CreatePostRequest{Title: "", Content: "This is a test post.", UserID: userID},
			wantField: "title",
		},
		{
			name:      "content too short",
			req:       &CreatePostRequest{Title: "Test Post", Content: "abcd", UserID: userID},
			wantField: "content",
		},
		{
			name:      "missing user ID",
			req:       &CreatePostRequest{Title: "Test Post", Content: "This is a test post."},
			wantField: "user_id",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			post, err := env.svc.CreatePost(ctx, tc.req)

			if tc.wantField != "" {
				var validationErr common.ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Contains(t, validationErr.Fields, tc.wantField)
				return
			}

			require.NoError(t, err)
			assert.NotZero(t, post.ID)
			assert.False(t, post.CreatedAt.IsZero())

			got, err := env.svc.GetPost(ctx, post.ID)
			require.NoError(t, err)
			assert.Equal(t, post.Title, got.Title)
			assert.Equal(t, post.Content, got.Content)
			assert.Equal(t, userID, got.UserID)
		})
	}
}

func TestCreatePostUnknownUser(t *testing.T) {
	env, _ := setupTestEnvironment(t)

	_, err := env.svc.CreatePost(context.Background(), &CreatePostRequest{
		Title:   "Test Post",
		Content: "This is a test post.",
		UserID:  999999,
	})
	assert.ErrorIs(t, err, ErrUserForeignKey)
}

func TestGetPostNotFound(t *testing.T) {
	env, _ := setupTestEnvironment(t)

	_, err := env.svc.GetPost(context.Background(), 999999)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestListPostsPagination(t *testing.T) {
	env, userID := setupTestEnvironment(t)
	ctx := context.Background()

	base := time.Now().Add(-1 * time.Hour).Truncate(time.Second)
	titles := []string{"post one", "post two", "post three", "post four", "post five"}
	for i, title := range titles {
		_, err := createPostAt(env.db, userID, title, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	page, err := env.svc.ListPosts(ctx, nil, 1, 2)
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, "post five", page.Posts[0].Title)
	assert.Equal(t, "post four", page.Posts[1].Title)
	assert.Equal(t, 5, page.TotalItems)
	assert.True(t, page.HasNextPage)
	assert.False(t, page.HasPrevPage)
	assert.Equal(t, 3, page.LastPage)

	page, err = env.svc.ListPosts(ctx, nil, 3, 2)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "post one", page.Posts[0].Title)
	assert.False(t, page.HasNextPage)
	assert.True(t, page.HasPrevPage)

	page, err = env.svc.ListPosts(ctx, nil, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 5, page.TotalItems)
}

func TestListPostsOwnerFilter(t *testing.T) {
	env, userID := setupTestEnvironment(t)
	ctx := context.Background()

	otherID, err := createTestUser(env.db, "otheruser", "other@example.com")
	require.NoError(t, err)

	base := time.Now().Add(-1 * time.Hour).Truncate(time.Second)
	_, err = createPostAt(env.db, userID, "mine", base)
	require.NoError(t, err)
	_, err = createPostAt(env.db, otherID, "theirs", base.Add(time.Minute))
	require.NoError(t, err)

	page, err := env.svc.ListPosts(ctx, &userID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "mine", page.Posts[0].Title)
	assert.Equal(t, 1, page.TotalItems)
}

func TestUpdatePostOwnership(t *testing.T) {
	env, ownerID := setupTestEnvironment(t)
	ctx := context.Background()

	otherID, err := createTestUser(env.db, "otheruser", "other@example.com")
	require.NoError(t, err)

	post, err := env.svc.CreatePost(ctx, &CreatePostRequest{Title: "Original Title", Content: "Original content.", UserID: ownerID})
	require.NoError(t, err)

	_, err = env.svc.UpdatePost(ctx, &UpdatePostRequest{
		ID:          post.ID,
		RequesterID: otherID,
		Title:       "Hijacked Title",
		Content:     "Hijacked content.",
	})
	assert.ErrorIs(t, err, ErrNotOwner)

	got, err := env.svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original Title", got.Title)
	assert.Equal(t, "Original content.", got.Content)
}

func TestUpdatePostReplacesFile(t *testing.T) {
	env, ownerID := setupTestEnvironment(t)
	ctx := context.Background()

	oldRef, err := env.blobs.Save(ctx, strings.NewReader("old image"), "image/png")
	require.NoError(t, err)
	newRef, err := env.blobs.Save(ctx, strings.NewReader("new image"), "image/png")
	require.NoError(t, err)

	post, err := env.svc.CreatePost(ctx, &CreatePostRequest{Title: "With File", Content: "Has an image.", FileRef: &oldRef, UserID: ownerID})
	require.NoError(t, err)

	updated, err := env.svc.UpdatePost(ctx, &UpdatePostRequest{
		ID:          post.ID,
		RequesterID: ownerID,
		Title:       "With File",
		Content:     "Has an image.",
		NewFileRef:  &newRef,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.FileRef)
	assert.Equal(t, newRef, *updated.FileRef)

	got, err := env.svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, got.FileRef)
	assert.Equal(t, newRef, *got.FileRef)

	assert.Eventually(t, func() bool {
		return !env.blobs.Contains(oldRef)
	}, time.Second, 10*time.Millisecond)
	assert.True(t, env.blobs.Contains(newRef))
}

func TestUpdatePostNotFound(t *testing.T) {
	env, ownerID := setupTestEnvironment(t)

	_, err := env.svc.UpdatePost(context.Background(), &UpdatePostRequest{
		ID:          999999,
		RequesterID: ownerID,
		Title:       "Some Title",
		Content:     "Some content.",
	})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDeletePost(t *testing.T) {
	env, ownerID := setupTestEnvironment(t)
	ctx := context.Background()

	ref, err := env.blobs.Save(ctx, strings.NewReader("image"), "image/jpeg")
	require.NoError(t, err)

	post, err := env.svc.CreatePost(ctx, &CreatePostRequest{Title: "Doomed Post", Content: "Will be deleted.", FileRef: &ref, UserID: ownerID})
	require.NoError(t, err)

	deleted, err := env.svc.DeletePost(ctx, post.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, "Doomed Post", deleted.Title)

	_, err = env.svc.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	page, err := env.svc.ListPosts(ctx, &ownerID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)

	assert.Eventually(t, func() bool {
		return !env.blobs.Contains(ref)
	}, time.Second, 10*time.Millisecond)

	// delete is fail-closed on repeat, not idempotent-success
	_, err = env.svc.DeletePost(ctx, post.ID, ownerID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDeletePostForbidden(t *testing.T) {
	env, ownerID := setupTestEnvironment(t)
	ctx := context.Background()

	otherID, err := createTestUser(env.db, "otheruser", "other@example.com")
	require.NoError(t, err)

	post, err := env.svc.CreatePost(ctx, &CreatePostRequest{Title: "Kept Post", Content: "Still here.", UserID: ownerID})
	require.NoError(t, err)

	_, err = env.svc.DeletePost(ctx, post.ID, otherID)
	assert.ErrorIs(t, err, ErrNotOwner)

	got, err := env.svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kept Post", got.Title)
}
