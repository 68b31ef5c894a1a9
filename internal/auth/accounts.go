package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingField       = errors.New("username, email and password are required")
	ErrUsernameExists     = errors.New("username already exists")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes)
)

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

// UserStorage is the subset of service.Storage that accounts need.
type UserStorage interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

var _ UserStorage = service.Storage(nil)

// Accounts registers users and exchanges credentials for tokens.
type Accounts struct {
	storage  UserStorage
	tokens   *JWTManager
	logger   *slog.Logger
	hashCost int
}

// NewAccounts creates an Accounts service.
func NewAccounts(storage UserStorage, tokens *JWTManager, logger *slog.Logger) *Accounts {
	if logger == nil {
		logger = slog.Default()
	}
	return &Accounts{
		storage:  storage,
		tokens:   tokens,
		logger:   logger,
		hashCost: bcrypt.DefaultCost,
	}
}

// Register creates a user with a bcrypt-hashed password.
func (a *Accounts) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, ErrMissingField
	}
	if len(password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	if _, err := a.storage.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	if _, err := a.storage.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := HashPassword(password, a.hashCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := a.storage.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, common.ErrDuplicateEntry) {
			return nil, a.duplicateCause(ctx, email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// duplicateCause reports which unique field a failed insert collided on.
func (a *Accounts) duplicateCause(ctx context.Context, email string) error {
	if _, err := a.storage.GetUserByEmail(ctx, email); err == nil {
		return ErrEmailExists
	}
	return ErrUsernameExists
}

// Login verifies the credentials and returns a signed access token.
func (a *Accounts) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	user, err := a.storage.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	token, err := a.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return "", err
	}

	a.logger.Debug("User logged in", "user_id", user.ID)
	return token, nil
}

// Authenticate validates token and loads the user it names.
func (a *Accounts) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := a.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	user, err := a.storage.GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
