package userservice

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base32"
	"errors"
	"time"
)

var (
	// ErrInvalidToken covers malformed, expired and revoked credentials.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// TokenAuthenticator is the opaque server-side strategy: the client holds a
// random token and only its SHA-256 hash is stored.
type TokenAuthenticator struct {
	m   *DBModel
	ttl time.Duration
}

func NewTokenAuthenticator(db *sql.DB) *TokenAuthenticator {
	return &TokenAuthenticator{m: newUserModel(db), ttl: AccessTokenTime}
}

func hashToken(token string) []byte {
	hash := sha256.Sum256([]byte(token))
	return hash[:]
}

func (a *TokenAuthenticator) IssueToken(ctx context.Context, userID int) (*Credentials, error) {
	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, err
	}

	plain := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	expiry := time.Now().Add(a.ttl)

	query := `
		INSERT INTO tokens (hash, user_id, expiry)
		VALUES ($1, $2, $3)`

	_, err := a.m.db.ExecContext(ctx, query, hashToken(plain), userID, expiry)
	if err != nil {
		return nil, err
	}

	return &Credentials{Token: plain, Expiry: expiry, UserID: userID}, nil
}

func (a *TokenAuthenticator) Authenticate(ctx context.Context, token string) (*User, error) {
	if len(token) != 26 {
		return nil, ErrInvalidToken
	}

	query := `
		SELECT u.id, u.username, u.email, u.created_at, u.updated_at
		FROM users u
		INNER JOIN tokens t ON u.id = t.user_id
		WHERE t.hash = $1 AND t.expiry > $2`

	var u User
	err := a.m.db.QueryRowContext(ctx, query, hashToken(token), time.Now()).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrInvalidToken
		default:
			return nil, err
		}
	}

	return &u, nil
}
