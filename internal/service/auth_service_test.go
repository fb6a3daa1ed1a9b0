package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"toolcrib/internal/model"
	"toolcrib/internal/repository"
	"toolcrib/internal/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeTokenRepo struct {
	tokens map[string]model.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]model.RefreshToken)}
}

func (r *fakeTokenRepo) Create(_ context.Context, token *model.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	r.tokens[token.Token] = *token
	return nil
}

func (r *fakeTokenRepo) FindValid(_ context.Context, token string, now time.Time) (*model.RefreshToken, error) {
	rt, ok := r.tokens[token]
	if !ok || rt.ExpiresAt.Before(now) {
		return nil, gorm.ErrRecordNotFound
	}
	copied := rt
	return &copied, nil
}

func (r *fakeTokenRepo) Delete(_ context.Context, token string) error {
	delete(r.tokens, token)
	return nil
}

func (r *fakeTokenRepo) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	for key, rt := range r.tokens {
		if rt.UserID == userID {
			delete(r.tokens, key)
		}
	}
	return nil
}

func (r *fakeTokenRepo) DeleteExpired(_ context.Context, now time.Time) error {
	for key, rt := range r.tokens {
		if rt.ExpiresAt.Before(now) {
			delete(r.tokens, key)
		}
	}
	return nil
}

// fakeRoleRepo answers permission lookups; the rest is unused by auth.
type fakeRoleRepo struct {
	repository.RoleRepository
	perms map[string][]string
}

func (r *fakeRoleRepo) GetPermissionsByRoleName(_ context.Context, roleName string) ([]string, error) {
	return r.perms[roleName], nil
}

type fakeSettingRepo struct {
	values map[string]string
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{values: make(map[string]string)}
}

func (r *fakeSettingRepo) Get(_ context.Context, key string) (string, error) {
	value, ok := r.values[key]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return value, nil
}

func (r *fakeSettingRepo) Set(_ context.Context, key, value string) error {
	r.values[key] = value
	return nil
}

func (r *fakeSettingRepo) SessionTimeout(ctx context.Context) (int, error) {
	raw, err := r.Get(ctx, model.SettingSessionTimeout)
	if err != nil {
		return model.DefaultSessionTimeoutSeconds, nil
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return model.DefaultSessionTimeoutSeconds, nil
	}
	return seconds, nil
}

type authFixture struct {
	svc      *authService
	users    *fakeUserRepo
	tokens   *fakeTokenRepo
	settings *fakeSettingRepo
	sessions *session.MemoryStore
	now      time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		users:    newFakeUserRepo(),
		tokens:   newFakeTokenRepo(),
		settings: newFakeSettingRepo(),
		sessions: session.NewMemoryStore(),
		now:      time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}

	roleRepo := &fakeRoleRepo{perms: map[string][]string{
		"technician": {"tools.read", "tools.checkout"},
	}}

	f.svc = NewAuthService(f.users, f.tokens, roleRepo, f.settings, f.sessions).(*authService)
	f.svc.now = func() time.Time { return f.now }
	f.sessions.SetClock(func() time.Time { return f.now })
	return f
}

func (f *authFixture) addUser(t *testing.T, password string, active bool) uuid.UUID {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return f.users.add(model.User{
		Username: "tech",
		Email:    "tech@example.com",
		Password: string(hash),
		IsActive: active,
		Roles:    []model.Role{{Name: "technician"}},
	})
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.addUser(t, "hunter2", true)

	res, err := f.svc.Login(ctx, LoginRequest{Email: "tech@example.com", Password: "hunter2"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.NotEmpty(t, res.RefreshToken)
	assert.True(t, res.Session.Active)
	assert.Equal(t, "tech", res.User.Username)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "tech@example.com", Password: "wrong"})
	assert.ErrorContains(t, err, "invalid email or password")

	_, err = f.svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "hunter2"})
	assert.ErrorContains(t, err, "invalid email or password")
}

func TestLoginRefusesDeactivatedAccount(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "hunter2", false)

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "tech@example.com", Password: "hunter2"})
	assert.ErrorContains(t, err, "deactivated")
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.addUser(t, "hunter2", true)

	first, err := f.svc.Login(ctx, LoginRequest{Email: "tech@example.com", Password: "hunter2"})
	require.NoError(t, err)

	second, err := f.svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The old token is single-use.
	_, err = f.svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorContains(t, err, "invalid or expired refresh token")
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.addUser(t, "hunter2", true)

	res, err := f.svc.Login(ctx, LoginRequest{Email: "tech@example.com", Password: "hunter2"})
	require.NoError(t, err)

	f.now = f.now.Add(8 * 24 * time.Hour)
	_, err = f.svc.Refresh(ctx, res.RefreshToken)
	assert.ErrorContains(t, err, "invalid or expired refresh token")
}

func TestSessionLifecycle(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	userID := f.addUser(t, "hunter2", true)
	require.NoError(t, f.settings.Set(ctx, model.SettingSessionTimeout, "1800"))

	sess, err := f.sessions.Create(ctx, userID, 30*time.Minute)
	require.NoError(t, err)

	state, err := f.svc.SessionState(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, state.Active)
	assert.Equal(t, 1800, state.TimeoutSeconds)
	assert.Equal(t, f.now.Add(30*time.Minute), state.ExpiresAt)

	// Polling never extends the session; activity pings do.
	f.now = f.now.Add(20 * time.Minute)
	state, err = f.svc.RecordActivity(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, state.Active)
	assert.Equal(t, f.now.Add(30*time.Minute), state.ExpiresAt)

	// Idle past the timeout: the poll reports inactive instead of erroring.
	f.now = f.now.Add(31 * time.Minute)
	state, err = f.svc.SessionState(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, state.Active)

	state, err = f.svc.RecordActivity(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, state.Active, "activity cannot revive an expired session")
}

func TestLogoutIsBeaconSafe(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	// Unknown session and token do not error.
	assert.NoError(t, f.svc.Logout(ctx, "gone", "missing-token"))
	assert.NoError(t, f.svc.Logout(ctx, "", ""))
}

func TestLogoutDeletesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	sess, err := f.sessions.Create(ctx, uuid.New(), 30*time.Minute)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, sess.ID, ""))

	_, err = f.sessions.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSetSessionTimeout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	assert.ErrorContains(t, f.svc.SetSessionTimeout(ctx, 0), "must be positive")
	require.NoError(t, f.svc.SetSessionTimeout(ctx, 900))

	seconds, err := f.settings.SessionTimeout(ctx)
	require.NoError(t, err)
	assert.Equal(t, 900, seconds)
}
