package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/learnmap-backend/internal/repos"
	"github.com/yungbote/learnmap-backend/internal/requestdata"
	"github.com/yungbote/learnmap-backend/internal/types"
)

func newAuthService(t *testing.T) (AuthService, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	log := testLogger()
	svc := NewAuthService(db, log,
		repos.NewUserRepo(db, log),
		repos.NewUserTokenRepo(db, log),
		"test-secret",
		time.Hour,
		24*time.Hour,
	)
	return svc, db
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user := &types.User{Email: "  Alice@Example.COM ", Password: "hunter2", FirstName: " Alice "}
	require.NoError(t, svc.RegisterUser(ctx, user))
	require.Equal(t, "alice@example.com", user.Email)
	require.Equal(t, "Alice", user.FirstName)
	require.NotEqual(t, "hunter2", user.Password)

	// Duplicate email is rejected.
	require.Error(t, svc.RegisterUser(ctx, &types.User{Email: "alice@example.com", Password: "x"}))

	access, refresh, err := svc.LoginUser(ctx, "alice@example.com", "hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	_, _, err = svc.LoginUser(ctx, "alice@example.com", "wrong")
	require.Error(t, err)
	_, _, err = svc.LoginUser(ctx, "nobody@example.com", "hunter2")
	require.Error(t, err)
}

func TestSetContextFromToken(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user := &types.User{Email: "bob@example.com", Password: "secret"}
	require.NoError(t, svc.RegisterUser(ctx, user))
	access, _, err := svc.LoginUser(ctx, "bob@example.com", "secret")
	require.NoError(t, err)

	authedCtx, err := svc.SetContextFromToken(ctx, access)
	require.NoError(t, err)
	rd := requestdata.GetRequestData(authedCtx)
	require.NotNil(t, rd)
	require.Equal(t, user.ID, rd.UserID)

	_, err = svc.SetContextFromToken(ctx, "not-a-token")
	require.Error(t, err)
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc, db := newAuthService(t)
	ctx := context.Background()

	user := &types.User{Email: "carol@example.com", Password: "secret"}
	require.NoError(t, svc.RegisterUser(ctx, user))
	_, refresh, err := svc.LoginUser(ctx, "carol@example.com", "secret")
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshUser(ctx, refresh)
	require.NoError(t, err)
	require.NotEmpty(t, newAccess)
	require.NotEqual(t, refresh, newRefresh)

	// The old refresh token is dead after rotation.
	_, _, err = svc.RefreshUser(ctx, refresh)
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&types.UserToken{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestLogoutDeletesTokens(t *testing.T) {
	svc, db := newAuthService(t)
	ctx := context.Background()

	user := &types.User{Email: "dave@example.com", Password: "secret"}
	require.NoError(t, svc.RegisterUser(ctx, user))
	access, _, err := svc.LoginUser(ctx, "dave@example.com", "secret")
	require.NoError(t, err)

	authedCtx, err := svc.SetContextFromToken(ctx, access)
	require.NoError(t, err)
	require.NoError(t, svc.LogoutUser(authedCtx))

	var count int64
	require.NoError(t, db.Model(&types.UserToken{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.Zero(t, count)

	// Logout without an authenticated context is refused.
	require.Error(t, svc.LogoutUser(ctx))
}
