package postservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/hikarune/postfeed/internal/blobservice"
	"github.com/hikarune/postfeed/internal/common"
)

type Post struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	// Content is stored in Markdown format.
	Content   string    `json:"content"`
	FileRef   *string   `json:"file_ref,omitempty"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostPage is one page of a listing plus the metadata a client needs to
// render pagination controls.
type PostPage struct {
	Posts       []Post `json:"posts"`
	TotalItems  int    `json:"total_items"`
	HasNextPage bool   `json:"has_next_page"`
	HasPrevPage bool   `json:"has_prev_page"`
	LastPage    int    `json:"last_page"`
}

type PostModel struct {
	db *sql.DB
}

type PostService struct {
	m      *PostModel
	blobs  blobservice.Store
	mb     common.MessageProducer
	c      *common.Cache
	logger *slog.Logger
}
