package userservice

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/hikarune/postfeed/internal/common"
)

const (
	AccessTokenTime time.Duration = 7 * 24 * time.Hour
)

var (
	AnonymousUser = User{}
)

type UserService struct {
	m      *DBModel
	mb     common.MessageProducer
	auth   Authenticator
	c      *common.Cache
	logger *slog.Logger
}

type DBModel struct {
	db *sql.DB
}

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  Password  `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Password struct {
	plain string
	hash  []byte
}

// Credentials is what a successful login hands back to the client.
type Credentials struct {
	Token  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
	UserID int       `json:"user_id"`
}

// Authenticator turns a user into a bearer credential and a bearer
// credential back into a user. The opaque-token and JWT strategies both
// satisfy it; nothing outside this package branches on which is in use.
type Authenticator interface {
	IssueToken(ctx context.Context, userID int) (*Credentials, error)
	Authenticate(ctx context.Context, token string) (*User, error)
}
