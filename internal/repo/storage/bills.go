package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/14kear/council-voting/internal/entity"
	"github.com/14kear/council-voting/internal/repo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Storage) SaveBill(ctx context.Context, bill *entity.Bill) error {
	const op = "storage.SaveBill"

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(bill).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// BillByID returns the bill with its author.
func (s *Storage) BillByID(ctx context.Context, id string) (entity.Bill, error) {
	const op = "storage.BillByID"

	var bill entity.Bill
	err := s.db.WithContext(ctx).
		Preload("Author").
		First(&bill, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Bill{}, fmt.Errorf("%s: %w", op, repo.ErrBillNotFound)
		}
		return entity.Bill{}, fmt.Errorf("%s: %w", op, err)
	}

	return bill, nil
}

// BillWithVotes returns the bill with its author and every vote (newest
// first) together with the voter.
func (s *Storage) BillWithVotes(ctx context.Context, id string) (entity.Bill, error) {
	const op = "storage.BillWithVotes"

	var bill entity.Bill
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Votes", orderVotesDesc).
		Preload("Votes.User").
		First(&bill, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Bill{}, fmt.Errorf("%s: %w", op, repo.ErrBillNotFound)
		}
		return entity.Bill{}, fmt.Errorf("%s: %w", op, err)
	}

	return bill, nil
}

// Bills lists every bill, newest first, with author and votes.
func (s *Storage) Bills(ctx context.Context) ([]entity.Bill, error) {
	const op = "storage.Bills"

	var bills []entity.Bill
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Votes", orderVotesDesc).
		Preload("Votes.User").
		Order("created_at DESC").
		Find(&bills).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bills, nil
}

// BillsWithUserVote lists every bill with only the given user's vote loaded.
func (s *Storage) BillsWithUserVote(ctx context.Context, userID string) ([]entity.Bill, error) {
	const op = "storage.BillsWithUserVote"

	var bills []entity.Bill
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Votes", "user_id = ?", userID).
		Order("created_at DESC").
		Find(&bills).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bills, nil
}

// BillsWithAuthor lists every bill with its author only.
func (s *Storage) BillsWithAuthor(ctx context.Context) ([]entity.Bill, error) {
	const op = "storage.BillsWithAuthor"

	var bills []entity.Bill
	err := s.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC").
		Find(&bills).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bills, nil
}

// UpdateBill replaces title, description, status and voting window in one
// write. Nil window bounds are stored as NULL.
func (s *Storage) UpdateBill(ctx context.Context, bill *entity.Bill) error {
	const op = "storage.UpdateBill"

	bill.UpdatedAt = time.Now().UTC()
	values := entity.Bill{
		Title:       bill.Title,
		Description: bill.Description,
		Status:      bill.Status,
		VotingStart: bill.VotingStart,
		VotingEnd:   bill.VotingEnd,
		UpdatedAt:   bill.UpdatedAt,
	}
	res := s.db.WithContext(ctx).
		Model(&entity.Bill{ID: bill.ID}).
		Select("Title", "Description", "Status", "VotingStart", "VotingEnd", "UpdatedAt").
		Updates(&values)
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, repo.ErrBillNotFound)
	}
	return nil
}

func (s *Storage) UpdateBillStatus(ctx context.Context, id string, status entity.BillStatus) error {
	const op = "storage.UpdateBillStatus"

	res := s.db.WithContext(ctx).
		Model(&entity.Bill{ID: id}).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, repo.ErrBillNotFound)
	}
	return nil
}

// DeleteBill removes the bill and its votes in one transaction, so the
// cascade holds even where the driver does not enforce foreign keys.
func (s *Storage) DeleteBill(ctx context.Context, id string) error {
	const op = "storage.DeleteBill"

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bill_id = ?", id).Delete(&entity.Vote{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&entity.Bill{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrBillNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func orderVotesDesc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}
