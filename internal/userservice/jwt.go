package userservice

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const jwtIssuer = "postfeed"

// JWTAuthenticator is the stateless strategy: the credential is an HS256
// token carrying the user ID as its subject. Nothing is stored server-side,
// so tokens cannot be revoked before they expire.
type JWTAuthenticator struct {
	m      *DBModel
	secret []byte
	ttl    time.Duration
}

func NewJWTAuthenticator(db *sql.DB, secret string, ttl time.Duration) *JWTAuthenticator {
	if ttl <= 0 {
		ttl = AccessTokenTime
	}

	return &JWTAuthenticator{m: newUserModel(db), secret: []byte(secret), ttl: ttl}
}

func (a *JWTAuthenticator) IssueToken(ctx context.Context, userID int) (*Credentials, error) {
	expiry := time.Now().Add(a.ttl)

	claims := jwt.RegisteredClaims{
		Issuer:    jwtIssuer,
		Subject:   strconv.Itoa(userID),
		ExpiresAt: jwt.NewNumericDate(expiry),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, err
	}

	return &Credentials{Token: signed, Expiry: expiry, UserID: userID}, nil
}

func (a *JWTAuthenticator) Authenticate(ctx context.Context, token string) (*User, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithIssuer(jwtIssuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil {
		return nil, ErrInvalidToken
	}

	userID, err := strconv.Atoi(subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := a.m.getUserByID(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrInvalidToken
		default:
			return nil, err
		}
	}

	return user, nil
}
