package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/14kear/council-voting/internal/entity"
	"github.com/14kear/council-voting/internal/repo"
	"gorm.io/gorm"
)

func (s *Storage) SaveUser(ctx context.Context, user *entity.User) error {
	const op = "storage.SaveUser"

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, repo.ErrUserExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (entity.User, error) {
	const op = "storage.UserByEmail"

	var user entity.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.User{}, fmt.Errorf("%s: %w", op, repo.ErrUserNotFound)
		}
		return entity.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *Storage) UserByID(ctx context.Context, id string) (entity.User, error) {
	const op = "storage.UserByID"

	var user entity.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.User{}, fmt.Errorf("%s: %w", op, repo.ErrUserNotFound)
		}
		return entity.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *Storage) Users(ctx context.Context) ([]entity.User, error) {
	const op = "storage.Users"

	var users []entity.User
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// UpdateUser writes name, email and role, and the password hash when set.
func (s *Storage) UpdateUser(ctx context.Context, user *entity.User) error {
	const op = "storage.UpdateUser"

	fields := []string{"Name", "Email", "Role", "UpdatedAt"}
	if len(user.PassHash) > 0 {
		fields = append(fields, "PassHash")
	}
	user.UpdatedAt = time.Now().UTC()
	values := entity.User{
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		PassHash:  user.PassHash,
		UpdatedAt: user.UpdatedAt,
	}

	res := s.db.WithContext(ctx).
		Model(&entity.User{ID: user.ID}).
		Select(fields).
		Updates(&values)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return fmt.Errorf("%s: %w", op, repo.ErrUserExists)
		}
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, repo.ErrUserNotFound)
	}
	return nil
}

// DeleteUser refuses to remove a user that authored bills or cast votes.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	const op = "storage.DeleteUser"

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&entity.Bill{}).Where("author_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return repo.ErrUserInUse
		}
		if err := tx.Model(&entity.Vote{}).Where("user_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return repo.ErrUserInUse
		}

		res := tx.Delete(&entity.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
