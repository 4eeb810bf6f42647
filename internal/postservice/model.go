package postservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrNotOwner       = errors.New("post does not belong to the requester")
	ErrUserForeignKey = errors.New("user_id does not exist")
)

func newPostModel(db *sql.DB) *PostModel {
	return &PostModel{db: db}
}

// ForeignKeyError is a helper function to check if the error is a foreign key constraint error.
func ForeignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23503" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

func (m *PostModel) insert(ctx context.Context, post *Post) error {
	query := `
		INSERT INTO posts (title, content, file_ref, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := m.db.QueryRowContext(ctx, query, post.Title, post.Content, post.FileRef, post.UserID).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		switch {
		case ForeignKeyError(err, "posts_user_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	return nil
}

// getByID joins the users table so callers get the owner's username in the
// same round trip.
func (m *PostModel) getByID(ctx context.Context, id int) (*Post, error) {
	query := `
		SELECT p.id, p.title, p.content, p.file_ref, p.user_id, u.username, p.created_at, p.updated_at
		FROM posts p
		JOIN users u ON p.user_id = u.id
		WHERE p.id = $1`

	var post Post
	err := m.db.QueryRowContext(ctx, query, id).Scan(&post.ID, &post.Title, &post.Content, &post.FileRef, &post.UserID, &post.Username, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &post, nil
}

func (m *PostModel) update(ctx context.Context, post *Post) error {
	query := `
		UPDATE posts
		SET title = $1, content = $2, file_ref = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at`

	err := m.db.QueryRowContext(ctx, query, post.Title, post.Content, post.FileRef, post.ID).Scan(&post.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		default:
			return err
		}
	}

	return nil
}

func (m *PostModel) delete(ctx context.Context, id int) error {
	query := `
		DELETE FROM posts
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrRecordNotFound
	}

	return nil
}

// count returns the number of posts matching the owner filter. It runs as a
// separate statement from list, so the pair is not a consistent snapshot
// under concurrent writes.
func (m *PostModel) count(ctx context.Context, ownerID *int) (int, error) {
	query := `
		SELECT count(*)
		FROM posts
		WHERE $1::bigint IS NULL OR user_id = $1`

	var total int
	err := m.db.QueryRowContext(ctx, query, ownerID).Scan(&total)
	if err != nil {
		return 0, err
	}

	return total, nil
}

// list returns one page of posts, newest first.
func (m *PostModel) list(ctx context.Context, ownerID *int, limit, offset int) ([]Post, error) {
	query := `
		SELECT p.id, p.title, p.content, p.file_ref, p.user_id, u.username, p.created_at, p.updated_at
		FROM posts p
		JOIN users u ON p.user_id = u.id
		WHERE $1::bigint IS NULL OR p.user_id = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3`

	rows, err := m.db.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var post Post
		err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.FileRef, &post.UserID, &post.Username, &post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}
