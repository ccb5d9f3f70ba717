package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/14kear/council-voting/internal/entity"
	"github.com/14kear/council-voting/internal/lib/jwt"
	"github.com/14kear/council-voting/internal/repo"
	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"
	"golang.org/x/crypto/bcrypt"
)

type Auth struct {
	log          *slog.Logger
	userProvider UserProvider
	secret       string
	tokenTTL     time.Duration
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (entity.User, error)
	UserByID(ctx context.Context, id string) (entity.User, error)
}

func NewAuth(log *slog.Logger, userProvider UserProvider, secret string, tokenTTL time.Duration) *Auth {
	return &Auth{
		log:          log,
		userProvider: userProvider,
		secret:       secret,
		tokenTTL:     tokenTTL,
	}
}

// Login checks the credentials and issues a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, email, password string) (string, entity.User, error) {
	const op = "Auth.Login"

	log := a.log.With(slog.String("op", op))
	log.Info("attempting to login user")

	email = normalizeEmail(email)
	user, err := a.userProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			log.Warn("user not found")
			return "", entity.User{}, fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "invalid credentials"))
		}
		log.Error("failed to get user", sl.Err(err))
		return "", entity.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))
		return "", entity.User{}, fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "invalid credentials"))
	}

	token, err := jwt.NewToken(user, a.secret, a.tokenTTL)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		return "", entity.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("successfully logged in", slog.String("userID", user.ID))
	return token, user, nil
}

// Authenticate resolves a session token to the current state of its user, so
// role changes and deletions apply to tokens already issued.
func (a *Auth) Authenticate(ctx context.Context, token string) (entity.Principal, error) {
	const op = "Auth.Authenticate"

	claims, err := jwt.Parse(token, a.secret)
	if err != nil {
		return entity.Principal{}, fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "invalid session"))
	}

	user, err := a.userProvider.UserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return entity.Principal{}, fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "invalid session"))
		}
		return entity.Principal{}, fmt.Errorf("%s: %w", op, err)
	}

	return user.Principal(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
