package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/14kear/council-voting/internal/entity"
	"github.com/14kear/council-voting/internal/repo"
	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"
	"golang.org/x/crypto/bcrypt"
)

type Users struct {
	log         *slog.Logger
	userStorage UserStorage
}

type UserStorage interface {
	SaveUser(ctx context.Context, user *entity.User) error
	UserByEmail(ctx context.Context, email string) (entity.User, error)
	UserByID(ctx context.Context, id string) (entity.User, error)
	Users(ctx context.Context) ([]entity.User, error)
	UpdateUser(ctx context.Context, user *entity.User) error
	DeleteUser(ctx context.Context, id string) error
}

// UserInput carries the editable fields of a user. On update an empty
// Password keeps the current one.
type UserInput struct {
	Email    string
	Name     string
	Password string
	Role     entity.Role
}

func NewUsers(log *slog.Logger, userStorage UserStorage) *Users {
	return &Users{
		log:         log,
		userStorage: userStorage,
	}
}

func (u *Users) ListUsers(ctx context.Context, actor entity.Principal) ([]entity.User, error) {
	const op = "Users.ListUsers"

	if !actor.Is(entity.RoleAdmin) {
		return nil, fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "admin role required"))
	}

	users, err := u.userStorage.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

func (u *Users) CreateUser(ctx context.Context, actor entity.Principal, in UserInput) (entity.User, error) {
	const op = "Users.CreateUser"

	if !actor.Is(entity.RoleAdmin) {
		return entity.User{}, fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "admin role required"))
	}
	if err := validateUserInput(&in); err != nil {
		return entity.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if in.Password == "" {
		return entity.User{}, fmt.Errorf("%s: %w", op, fail(ErrValidation, "password is required"))
	}

	user, err := u.create(ctx, in)
	if err != nil {
		return entity.User{}, fmt.Errorf("%s: %w", op, err)
	}

	u.log.Info("user created", slog.String("op", op), slog.String("userID", user.ID), slog.String("role", string(user.Role)))
	return user, nil
}

func (u *Users) UpdateUser(ctx context.Context, actor entity.Principal, id string, in UserInput) (entity.User, error) {
	const op = "Users.UpdateUser"

	if !actor.Is(entity.RoleAdmin) {
		return entity.User{}, fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "admin role required"))
	}
	if err := validateUserInput(&in); err != nil {
		return entity.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := u.userStorage.UserByID(ctx, id)
	if err != nil {
		return entity.User{}, fmt.Errorf("%s: %w", op, notFound(err, "user not found"))
	}

	user.Email = in.Email
	user.Name = in.Name
	user.Role = in.Role
	user.PassHash = nil
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			u.log.Error("failed to generate password hash", slog.String("op", op), sl.Err(err))
			return entity.User{}, fmt.Errorf("%s: %w", op, err)
		}
		user.PassHash = hash
	}

	if err := u.userStorage.UpdateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserExists) {
			return entity.User{}, fmt.Errorf("%s: %w", op, fail(ErrConflict, "email already in use"))
		}
		return entity.User{}, fmt.Errorf("%s: %w", op, notFound(err, "user not found"))
	}

	u.log.Info("user updated", slog.String("op", op), slog.String("userID", id))
	return user, nil
}

// DeleteUser refuses to delete the caller or anyone with bills or votes.
func (u *Users) DeleteUser(ctx context.Context, actor entity.Principal, id string) error {
	const op = "Users.DeleteUser"

	if !actor.Is(entity.RoleAdmin) {
		return fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "admin role required"))
	}
	if actor.UserID == id {
		return fmt.Errorf("%s: %w", op, fail(ErrConflict, "cannot delete your own account"))
	}

	if err := u.userStorage.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repo.ErrUserInUse) {
			return fmt.Errorf("%s: %w", op, fail(ErrConflict, "user has bills or votes"))
		}
		return fmt.Errorf("%s: %w", op, notFound(err, "user not found"))
	}

	u.log.Info("user deleted", slog.String("op", op), slog.String("userID", id))
	return nil
}

// Seed creates each user whose email is not registered yet. It is safe to run
// repeatedly.
func (u *Users) Seed(ctx context.Context, inputs ...UserInput) error {
	const op = "Users.Seed"

	log := u.log.With(slog.String("op", op))

	for _, in := range inputs {
		if err := validateUserInput(&in); err != nil {
			return fmt.Errorf("%s: %s: %w", op, in.Email, err)
		}
		if in.Password == "" {
			log.Warn("no password configured, skipping", slog.String("email", in.Email))
			continue
		}

		_, err := u.userStorage.UserByEmail(ctx, in.Email)
		if err == nil {
			log.Info("user already present", slog.String("email", in.Email))
			continue
		}
		if !errors.Is(err, repo.ErrUserNotFound) {
			return fmt.Errorf("%s: %w", op, err)
		}

		user, err := u.create(ctx, in)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Info("user seeded", slog.String("email", user.Email), slog.String("role", string(user.Role)))
	}
	return nil
}

func (u *Users) create(ctx context.Context, in UserInput) (entity.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Error("failed to generate password hash", sl.Err(err))
		return entity.User{}, err
	}

	user := entity.User{
		Email:    in.Email,
		Name:     in.Name,
		PassHash: hash,
		Role:     in.Role,
	}
	if err := u.userStorage.SaveUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserExists) {
			return entity.User{}, fail(ErrConflict, "email already in use")
		}
		return entity.User{}, err
	}
	return user, nil
}

func validateUserInput(in *UserInput) error {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	if in.Name == "" {
		return fail(ErrValidation, "name is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fail(ErrValidation, "invalid email")
	}
	if !in.Role.Valid() {
		return fail(ErrValidation, "invalid role")
	}
	return nil
}
