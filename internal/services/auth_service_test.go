package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_SignupAndLogin(t *testing.T) {
	e := newEnv(t)

	user, err := e.auth.Signup(SignupInput{Email: " Ada@Example.com ", Password: "difference-engine", FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, "difference-engine", user.PasswordHash)

	loggedIn, err := e.auth.Login(LoginInput{Email: "ADA@example.com", Password: "difference-engine"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, err = e.auth.Login(LoginInput{Email: "ada@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = e.auth.Login(LoginInput{Email: "nobody@example.com", Password: "difference-engine"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	fetched, err := e.auth.GetUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", fetched.DisplayName())
}

func TestAuthService_SignupValidation(t *testing.T) {
	e := newEnv(t)
	_, err := e.auth.Signup(SignupInput{Email: "taken@example.com", Password: "long-enough"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input SignupInput
		want  error
	}{
		{"taken", SignupInput{Email: "TAKEN@example.com", Password: "long-enough"}, ErrEmailTaken},
		{"short password", SignupInput{Email: "new@example.com", Password: "short"}, ErrPasswordTooShort},
		{"bad email", SignupInput{Email: "not-an-email", Password: "long-enough"}, ErrInvalidEmail},
		{"display name form", SignupInput{Email: "Ada <ada@example.com>", Password: "long-enough"}, ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.auth.Signup(tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = e.auth.GetUser(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
