package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"wellnesshub/internal/pkg/jwtutil"
)

const testSecret = "test-secret-key-at-least-32-bytes-long"

func newTestAuthService() (*AuthService, *memUserStore) {
	users := newMemUserStore()
	svc := NewAuthService(users, testSecret, time.Hour)
	svc.bcryptCost = bcrypt.MinCost
	return svc, users
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService()

	registered, err := svc.Register(ctx, RegisterInput{Email: "  Alice@Example.com ", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", registered.User.Email)
	assert.NotEqual(t, "s3cret!", registered.User.PasswordHash)

	claims, err := jwtutil.ParseToken(testSecret, registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)

	loggedIn, err := svc.Login(ctx, LoginInput{Email: "ALICE@example.com", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	me, err := svc.GetUserByID(ctx, registered.User.ID)
	require.NoError(t, err)
	require.NotNil(t, me)
	assert.Equal(t, "alice@example.com", me.Email)
}

func TestRegisterRejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService()

	_, err := svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "short"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)

	_, err = svc.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "password"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Email: "BOB@example.com", Password: "password"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLoginRejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService()

	_, err := svc.Register(ctx, RegisterInput{Email: "carol@example.com", Password: "password"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "carol@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "password"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Login(ctx, LoginInput{Email: "", Password: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
