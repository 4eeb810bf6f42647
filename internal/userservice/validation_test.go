package userservice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hikarune/postfeed/internal/common"
)

func TestValidateUsername(t *testing.T) {
	testCases := []struct {
		name     string
		username string
		wantErr  string
	}{
		{name: "valid", username: "testuser1"},
		{name: "empty", username: "", wantErr: "must be provided"},
		{name: "too short", username: "ab", wantErr: "must be between 3 and 25 characters long"},
		{name: "too long", username: "abcdefghijklmnopqrstuvwxyz", wantErr: "must be between 3 and 25 characters long"},
		{name: "invalid characters", username: "test_user!", wantErr: "must only contain letters and numbers"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validateUsername(v, tc.username)

			if tc.wantErr == "" {
				assert.True(t, v.Valid())
			} else {
				assert.Equal(t, tc.wantErr, v.Fields["username"])
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	testCases := []struct {
		name    string
		email   string
		valid   bool
	}{
		{name: "valid", email: "user@example.com", valid: true},
		{name: "empty", email: "", valid: false},
		{name: "missing domain", email: "user@", valid: false},
		{name: "missing at sign", email: "user.example.com", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validateEmail(v, tc.email)
			assert.Equal(t, tc.valid, v.Valid())
		})
	}
}

func TestValidatePassword(t *testing.T) {
	testCases := []struct {
		name     string
		password string
		valid    bool
	}{
		{name: "valid", password: "correct horse battery", valid: true},
		{name: "empty", password: "", valid: false},
		{name: "too short", password: "short", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validatePassword(v, tc.password)
			assert.Equal(t, tc.valid, v.Valid())
		})
	}
}

func TestPasswordSetAndMatches(t *testing.T) {
	var p Password
	err := p.set("a secure passphrase")
	assert.NoError(t, err)

	ok, err := p.matches("a secure passphrase")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.matches("wrong passphrase")
	assert.NoError(t, err)
	assert.False(t, ok)
}
