package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"toolcrib/internal/middleware"
	"toolcrib/internal/model"
	"toolcrib/internal/repository"
	"toolcrib/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SessionTimeoutRequest struct {
	TimeoutSeconds int `json:"timeout_seconds" binding:"required,gt=0"`
}

type TokenResponse struct {
	Token        string        `json:"token"`
	RefreshToken string        `json:"refresh_token"`
	User         *UserResponse `json:"user"`
	Session      session.State `json:"session"`
}

type MeResponse struct {
	UserResponse
	Permissions []string `json:"permissions"`
}

// AuthService owns login, token refresh and the activity-tracked session
// lifecycle the client's auto-logout derives its timers from.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, sessionID, refreshToken string) error
	SessionState(ctx context.Context, sessionID string) (session.State, error)
	RecordActivity(ctx context.Context, sessionID string) (session.State, error)
	Me(ctx context.Context, userID string) (*MeResponse, error)
	SetSessionTimeout(ctx context.Context, seconds int) error
}

type authService struct {
	userRepo    repository.UserRepository
	tokenRepo   repository.RefreshTokenRepository
	roleRepo    repository.RoleRepository
	settingRepo repository.SettingRepository
	sessions    session.Store
	now         func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	roleRepo repository.RoleRepository,
	settingRepo repository.SettingRepository,
	sessions session.Store,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		roleRepo:    roleRepo,
		settingRepo: settingRepo,
		sessions:    sessions,
		now:         time.Now,
	}
}

func newOpaqueToken() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func (s *authService) signAccessToken(user *model.User, sessionID string) (string, error) {
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r.Name)
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.String(),
		"sid":   sessionID,
		"admin": user.IsAdmin,
		"roles": roles,
		"iat":   now.Unix(),
		"exp":   now.Add(accessTokenTTL).Unix(),
	})

	signed, err := token.SignedString(middleware.GetJWTSecret())
	if err != nil {
		return "", errors.New("failed to generate token")
	}
	return signed, nil
}

func (s *authService) sessionTimeout(ctx context.Context) time.Duration {
	seconds, err := s.settingRepo.SessionTimeout(ctx)
	if err != nil || seconds <= 0 {
		seconds = model.DefaultSessionTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

func (s *authService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	timeout := s.sessionTimeout(ctx)
	sess, err := s.sessions.Create(ctx, user.ID, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	accessToken, err := s.signAccessToken(user, sess.ID)
	if err != nil {
		return nil, err
	}

	refresh := &model.RefreshToken{
		UserID:    user.ID,
		Token:     newOpaqueToken(),
		ExpiresAt: s.now().Add(refreshTokenTTL),
	}
	if err := s.tokenRepo.Create(ctx, refresh); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenResponse{
		Token:        accessToken,
		RefreshToken: refresh.Token,
		User:         mapUser(user),
		Session:      session.StateOf(sess, timeout, s.now()),
	}, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	if !user.IsActive {
		return nil, errors.New("account is deactivated")
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	stored, err := s.tokenRepo.FindValid(ctx, refreshToken, s.now())
	if err != nil {
		return nil, errors.New("invalid or expired refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	if !user.IsActive {
		return nil, errors.New("account is deactivated")
	}

	// Rotate: the old refresh token is single-use.
	if err := s.tokenRepo.Delete(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return s.issueTokens(ctx, user)
}

// Logout tears down session state. It must be safe as a best-effort beacon on
// window unload, so missing sessions and tokens are not errors.
func (s *authService) Logout(ctx context.Context, sessionID, refreshToken string) error {
	if sessionID != "" {
		if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, session.ErrNotFound) {
			return err
		}
	}
	if refreshToken != "" {
		if err := s.tokenRepo.Delete(ctx, refreshToken); err != nil {
			return err
		}
	}
	return nil
}

// SessionState answers the client's poll. Reading never extends the session;
// an unknown or expired session is a normal inactive answer, not an error.
func (s *authService) SessionState(ctx context.Context, sessionID string) (session.State, error) {
	now := s.now()
	if sessionID == "" {
		return session.InactiveState(now), nil
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return session.InactiveState(now), nil
		}
		return session.State{}, err
	}

	return session.StateOf(sess, s.sessionTimeout(ctx), now), nil
}

// RecordActivity slides the session expiry to now+timeout. The timeout is
// re-read from settings on every ping so admin changes take effect without
// re-login.
func (s *authService) RecordActivity(ctx context.Context, sessionID string) (session.State, error) {
	now := s.now()
	if sessionID == "" {
		return session.InactiveState(now), nil
	}

	timeout := s.sessionTimeout(ctx)
	if err := s.sessions.Touch(ctx, sessionID, timeout); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return session.InactiveState(now), nil
		}
		return session.State{}, err
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return session.InactiveState(now), nil
		}
		return session.State{}, err
	}

	return session.StateOf(sess, timeout, now), nil
}

func (s *authService) Me(ctx context.Context, userID string) (*MeResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}

	permSet := make(map[string]bool)
	for _, role := range user.Roles {
		codes, err := s.roleRepo.GetPermissionsByRoleName(ctx, role.Name)
		if err != nil {
			continue
		}
		for _, code := range codes {
			permSet[code] = true
		}
	}

	perms := make([]string, 0, len(permSet))
	for code := range permSet {
		perms = append(perms, code)
	}

	return &MeResponse{
		UserResponse: *mapUser(user),
		Permissions:  perms,
	}, nil
}

func (s *authService) SetSessionTimeout(ctx context.Context, seconds int) error {
	if seconds <= 0 {
		return errors.New("timeout must be positive")
	}
	return s.settingRepo.Set(ctx, model.SettingSessionTimeout, fmt.Sprintf("%d", seconds))
}
