package postservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hikarune/postfeed/internal/blobservice"
	"github.com/hikarune/postfeed/internal/common"
)

const defaultPageSize = 10

func NewPostService(db *sql.DB, blobs blobservice.Store, mb common.MessageProducer, c *common.Cache, logger *slog.Logger) *PostService {
	return &PostService{
		m:      newPostModel(db),
		blobs:  blobs,
		mb:     mb,
		c:      c,
		logger: logger,
	}
}

type CreatePostRequest struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	FileRef *string `json:"file_ref"`
	UserID  int     `json:"user_id"`
}

// CreatePost validates the input, persists the post and emits a best-effort
// post.created event. The owner linkage is a single insert, so there is no
// partial state to roll back.
func (s *PostService) CreatePost(ctx context.Context, req *CreatePostRequest) (*Post, error) {
	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	validateInt(v, req.UserID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	post := &Post{
		Title:   sanitizeMarkdown(req.Title),
		Content: sanitizeMarkdown(req.Content),
		FileRef: req.FileRef,
		UserID:  req.UserID,
	}

	if err := s.m.insert(ctx, post); err != nil {
		return nil, err
	}

	s.invalidate(post.ID)
	s.publishEvent(ctx, common.PostCreatedKey, "create", post)

	return post, nil
}

// GetPost returns a post by its ID.
func (s *PostService) GetPost(ctx context.Context, id int) (*Post, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if cached, ok := s.c.Get(common.CacheKeyPost(id)); ok {
		return cached.(*Post), nil
	}

	post, err := s.m.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.c.Set(common.CacheKeyPost(id), post)

	return post, nil
}

// ListPosts returns one page of posts, newest first, restricted to a single
// owner when ownerID is non-nil. The total count runs as a separate query
// from the page itself; under concurrent writes the two may disagree.
func (s *PostService) ListPosts(ctx context.Context, ownerID *int, page, pageSize int) (*PostPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	key := common.CacheKeyPostPage(ownerID, page, pageSize)
	if cached, ok := s.c.Get(key); ok {
		return cached.(*PostPage), nil
	}

	total, err := s.m.count(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	posts, err := s.m.list(ctx, ownerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	result := &PostPage{
		Posts:       posts,
		TotalItems:  total,
		HasNextPage: page*pageSize < total,
		HasPrevPage: page > 1,
		LastPage:    (total + pageSize - 1) / pageSize,
	}

	s.c.Set(key, result, 30*time.Second)

	return result, nil
}

type UpdatePostRequest struct {
	ID          int     `json:"id"`
	RequesterID int     `json:"-"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	NewFileRef  *string `json:"file_ref"`
}

// UpdatePost mutates a post after the ownership check passes. When the file
// is replaced, the new row state is saved first and only then is the old
// blob deleted; a failed blob delete is logged, never surfaced. Concurrent
// updates are last-writer-wins.
func (s *PostService) UpdatePost(ctx context.Context, req *UpdatePostRequest) (*Post, error) {
	post, err := s.m.getByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if post.UserID != req.RequesterID {
		return nil, ErrNotOwner
	}

	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	oldRef := post.FileRef
	post.Title = sanitizeMarkdown(req.Title)
	post.Content = sanitizeMarkdown(req.Content)
	if req.NewFileRef != nil {
		post.FileRef = req.NewFileRef
	}

	if err := s.m.update(ctx, post); err != nil {
		return nil, err
	}

	if req.NewFileRef != nil && oldRef != nil && *oldRef != *req.NewFileRef {
		s.cleanupBlob(*oldRef)
	}

	s.invalidate(post.ID)
	s.publishEvent(ctx, common.PostUpdatedKey, "update", post)

	return post, nil
}

// DeletePost removes a post after the ownership check passes, then deletes
// its blob best-effort. The removed post's final state is returned so
// callers can confirm what was deleted. A repeated delete reports
// ErrRecordNotFound.
func (s *PostService) DeletePost(ctx context.Context, id, requesterID int) (*Post, error) {
	post, err := s.m.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if post.UserID != requesterID {
		return nil, ErrNotOwner
	}

	if err := s.m.delete(ctx, id); err != nil {
		return nil, err
	}

	if post.FileRef != nil {
		s.cleanupBlob(*post.FileRef)
	}

	s.invalidate(id)
	s.publishEvent(ctx, common.PostDeletedKey, "delete", post)

	return post, nil
}

func (s *PostService) invalidate(id int) {
	s.c.Delete(common.CacheKeyPost(id))
	s.c.DeletePrefix(common.PostPagePrefix)
}

// cleanupBlob deletes a blob that is no longer referenced. The primary write
// has already been committed at this point, so a failure here only leaves an
// orphaned blob behind; it must never fail the caller's operation.
func (s *PostService) cleanupBlob(ref string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.blobs.Delete(ctx, ref); err != nil {
		s.logger.Error("could not delete blob", slog.String("file_ref", ref), slog.String("error", err.Error()))
	}
}

// publishEvent emits a lifecycle event at most once. Notification is
// best-effort: a publish failure is logged and swallowed.
func (s *PostService) publishEvent(ctx context.Context, key common.BindingKey, action string, post *Post) {
	payload := struct {
		Action string `json:"action"`
		Post   *Post  `json:"post"`
	}{
		Action: action,
		Post:   post,
	}

	msg, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("could not marshal post event", slog.String("error", err.Error()))
		return
	}

	if err := s.mb.Publish(ctx, msg, key, common.PostExchange); err != nil {
		s.logger.Error("could not publish post event", slog.String("key", string(key)), slog.String("error", err.Error()))
	}
}
