package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Pauline-WN/AjaliApp/internal/repository"
)

func newTestAuthService(t *testing.T) (*authService, repository.SessionRepository) {
	t.Helper()
	db := setupTestDB(t)
	sessions := repository.NewSessionRepository(db, zap.NewNop())
	svc := NewAuthService(repository.NewUserRepository(db, zap.NewNop()), sessions, "test-secret", 24*time.Hour, zap.NewNop())
	return svc.(*authService), sessions
}

func TestAuthService_Register(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, "alice", "a@x.io", "pw")
	require.NoError(t, err)
	require.NotZero(t, id)

	_, err = svc.Register(ctx, "alice", "other@x.io", "pw")
	require.ErrorIs(t, err, ErrDuplicateField)
	require.Contains(t, err.Error(), "Username already exists")

	_, err = svc.Register(ctx, "bob", "a@x.io", "pw")
	require.ErrorIs(t, err, ErrDuplicateField)
	require.Contains(t, err.Error(), "Email already exists")
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	for _, tc := range []struct {
		name, username, email, password string
	}{
		{"missing username", "", "a@x.io", "pw"},
		{"blank username", "   ", "a@x.io", "pw"},
		{"missing email", "alice", "", "pw"},
		{"missing password", "alice", "a@x.io", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.email, tc.password)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_LoginAndAuthenticate(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, "alice", "a@x.io", "pw")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@x.io", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@x.io", "pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "", "pw")
	require.ErrorIs(t, err, ErrValidation)

	res, err := svc.Login(ctx, "a@x.io", "pw")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, id, res.User.ID)
	require.Equal(t, "alice", res.User.Name)
	require.Equal(t, "a@x.io", res.User.Email)

	identity, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, id, identity.UserID)
	require.Equal(t, res.Session.ID, identity.SessionID)

	user, err := svc.CurrentUser(ctx, identity)
	require.NoError(t, err)
	require.Equal(t, "alice", user.Name)
}

func TestAuthService_AuthenticateRejects(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "a@x.io", "pw")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "a@x.io", "pw")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "")
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Authenticate(ctx, res.Token+"x")
	require.ErrorIs(t, err, ErrUnauthenticated)

	other := *svc
	other.secret = []byte("another-secret")
	_, err = other.Authenticate(ctx, res.Token)
	require.ErrorIs(t, err, ErrUnauthenticated)

	expired := *svc
	expired.now = func() time.Time { return time.Now().UTC().Add(25 * time.Hour) }
	_, err = expired.Authenticate(ctx, res.Token)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthService_Logout(t *testing.T) {
	svc, sessions := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "a@x.io", "pw")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "a@x.io", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.Session.ID))
	_, err = sessions.GetSession(ctx, res.Session.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.Authenticate(ctx, res.Token)
	require.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, svc.Logout(ctx, ""))
	require.NoError(t, svc.Logout(ctx, res.Session.ID))
}

func TestAuthService_CurrentUserWithoutIdentity(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.CurrentUser(context.Background(), nil)
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.CurrentUser(context.Background(), &Identity{UserID: 404})
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthService_RegisterLosesInsertRace(t *testing.T) {
	svc := NewAuthService(racingUserRepository{}, nil, "test-secret", time.Hour, zap.NewNop())

	_, err := svc.Register(context.Background(), "alice", "a@x.io", "pw")
	require.ErrorIs(t, err, ErrDuplicateField)
	require.Contains(t, err.Error(), "Username or email already exists")
}
