package service

import (
	"context"
	"testing"
	"time"

	"anoa.com/karmafeed/internal/bootstrap"
	"anoa.com/karmafeed/internal/middleware"
	"anoa.com/karmafeed/internal/modules/user/dto"
	"anoa.com/karmafeed/internal/modules/user/repository"
	"anoa.com/karmafeed/internal/testutil"
	"anoa.com/karmafeed/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	db := testutil.NewDB(t)
	users, err := bootstrap.SeedUsers(db, []string{"alice"})
	require.NoError(t, err)

	svc := NewAuthService(repository.NewUserRepository(db), middleware.NewAuthMiddleware("secret"), 30*time.Minute)
	ctx := context.Background()

	resp, err := svc.Login(ctx, dto.LoginInput{Username: "alice", Password: bootstrap.DemoPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(1800), resp.ExpiresIn)
	assert.Equal(t, users[0].ID, resp.User.ID)

	_, err = svc.Login(ctx, dto.LoginInput{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Login(ctx, dto.LoginInput{Username: "nobody", Password: bootstrap.DemoPassword})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
