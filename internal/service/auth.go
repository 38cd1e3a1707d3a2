package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Pauline-WN/AjaliApp/internal/models"
	"github.com/Pauline-WN/AjaliApp/internal/repository"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID    int64
	SessionID string
}

// LoginResult is what a successful login hands back to the transport.
type LoginResult struct {
	Token   string
	Session *models.Session
	User    models.PublicUser
}

type AuthService interface {
	Register(ctx context.Context, username, email, password string) (int64, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	// Authenticate resolves a session token to its identity, or
	// ErrUnauthenticated when the token is invalid, expired or revoked.
	Authenticate(ctx context.Context, token string) (*Identity, error)
	CurrentUser(ctx context.Context, id *Identity) (*models.PublicUser, error)
}

type authService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	secret     []byte
	sessionTTL time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, secret string, sessionTTL time.Duration, logger *zap.Logger) AuthService {
	return &authService{
		users:      users,
		sessions:   sessions,
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger,
	}
}

func (s *authService) Register(ctx context.Context, username, email, password string) (int64, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	switch {
	case username == "":
		return 0, fmt.Errorf("%w: username is required", ErrValidation)
	case email == "":
		return 0, fmt.Errorf("%w: email is required", ErrValidation)
	case password == "":
		return 0, fmt.Errorf("%w: password is required", ErrValidation)
	}

	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return 0, fmt.Errorf("%w: Username already exists", ErrDuplicateField)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return 0, fmt.Errorf("%w: failed to check username: %v", ErrStorage, err)
	}
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return 0, fmt.Errorf("%w: Email already exists", ErrDuplicateField)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return 0, fmt.Errorf("%w: failed to check email: %v", ErrStorage, err)
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return 0, fmt.Errorf("%w: failed to hash password: %v", ErrStorage, err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, repository.ErrDuplicate) {
			return 0, fmt.Errorf("%w: Username or email already exists", ErrDuplicateField)
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return 0, fmt.Errorf("%w: failed to create user: %v", ErrStorage, err)
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user.ID, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: Email and password are required", ErrValidation)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: failed to retrieve user: %v", ErrStorage, err)
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		s.logger.Error("Failed to create session", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to create session: %v", ErrStorage, err)
	}

	claims := &models.Claims{
		SessionID: sess.ID,
		UserID:    user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		s.logger.Error("Failed to sign session token", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to generate token: %v", ErrStorage, err)
	}

	s.logger.Info("User logged in successfully.", zap.Int64("user_id", user.ID))
	return &LoginResult{Token: token, Session: sess, User: user.Public()}, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		s.logger.Error("Failed to delete session", zap.Error(err))
		return fmt.Errorf("%w: failed to delete session: %v", ErrStorage, err)
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims := &models.Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil {
		s.logger.Debug("Rejected session token", zap.Error(err))
		return nil, ErrUnauthenticated
	}

	sess, err := s.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: failed to load session: %v", ErrStorage, err)
	}
	if sess.UserID != claims.UserID || sess.Expired(s.now()) {
		return nil, ErrUnauthenticated
	}
	return &Identity{UserID: sess.UserID, SessionID: sess.ID}, nil
}

func (s *authService) CurrentUser(ctx context.Context, id *Identity) (*models.PublicUser, error) {
	if id == nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.users.GetUserByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: failed to load user: %v", ErrStorage, err)
	}
	public := user.Public()
	return &public, nil
}
