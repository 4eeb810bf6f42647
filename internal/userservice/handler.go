package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hikarune/postfeed/internal/common"
)

var (
	ErrAuthenticationFailure = errors.New("invalid credentials")
)

func NewUserService(db *sql.DB, mb common.MessageProducer, auth Authenticator, c *common.Cache, logger *slog.Logger) *UserService {
	return &UserService{
		m:      newUserModel(db),
		mb:     mb,
		auth:   auth,
		c:      c,
		logger: logger,
	}
}

// Register creates a new account and publishes a user.created event for the
// mail consumer. The publish is best-effort: registration never fails
// because the broker is down.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*User, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	validateEmail(v, email)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u := User{Username: username, Email: email}
	if err := u.Password.set(password); err != nil {
		return nil, err
	}

	if err := s.m.insertUser(ctx, &u); err != nil {
		return nil, err
	}

	s.publishUserCreated(ctx, &u)

	return &u, nil
}

// Login verifies the password and issues a credential via the configured
// strategy. A missing user and a wrong password produce the same error.
func (s *UserService) Login(ctx context.Context, username, password string) (*Credentials, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getUserByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrAuthenticationFailure
		default:
			return nil, err
		}
	}

	ok, err := user.Password.matches(password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuthenticationFailure
	}

	return s.auth.IssueToken(ctx, user.ID)
}

// AuthenticateToken resolves a bearer credential to a user. Results are
// cached briefly to keep the hot path off the database.
func (s *UserService) AuthenticateToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	key := common.CacheKeyUserByToken(token)
	if cached, ok := s.c.Get(key); ok {
		return cached.(*User), nil
	}

	user, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	s.c.Set(key, user, 1*time.Minute)

	return user, nil
}

func (s *UserService) publishUserCreated(ctx context.Context, u *User) {
	data := struct {
		Email    string
		Username string
	}{
		Email:    u.Email,
		Username: u.Username,
	}

	msg, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("could not marshal user.created event", slog.String("error", err.Error()))
		return
	}

	if err := s.mb.Publish(ctx, msg, common.UserCreatedKey, common.UserExchange); err != nil {
		s.logger.Error("could not publish user.created event", slog.String("error", err.Error()))
	}
}

func (u *User) IsAnonymous() bool {
	return u == &AnonymousUser
}
