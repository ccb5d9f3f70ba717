package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/14kear/council-voting/internal/entity"
	"github.com/14kear/council-voting/internal/repo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveVote inserts the vote and reloads it with the voter attached. A
// duplicate (user, bill) pair is reported as repo.ErrVoteExists.
func (s *Storage) SaveVote(ctx context.Context, vote *entity.Vote) error {
	const op = "storage.SaveVote"

	db := s.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(vote).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, repo.ErrVoteExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Preload("User").First(vote, "id = ?", vote.ID).Error; err != nil {
		return fmt.Errorf("%s: reload: %w", op, err)
	}
	return nil
}

func (s *Storage) VoteByUserAndBill(ctx context.Context, userID, billID string) (entity.Vote, error) {
	const op = "storage.VoteByUserAndBill"

	var vote entity.Vote
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND bill_id = ?", userID, billID).
		First(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Vote{}, fmt.Errorf("%s: %w", op, repo.ErrVoteNotFound)
		}
		return entity.Vote{}, fmt.Errorf("%s: %w", op, err)
	}

	return vote, nil
}

// VotesByBill returns the votes on a bill in casting order with voters.
func (s *Storage) VotesByBill(ctx context.Context, billID string) ([]entity.Vote, error) {
	const op = "storage.VotesByBill"

	var votes []entity.Vote
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("bill_id = ?", billID).
		Order("created_at ASC").
		Find(&votes).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return votes, nil
}

// VoteCounts returns the number of votes per bill id.
func (s *Storage) VoteCounts(ctx context.Context) (map[string]int64, error) {
	const op = "storage.VoteCounts"

	var rows []struct {
		BillID string
		Count  int64
	}
	err := s.db.WithContext(ctx).
		Model(&entity.Vote{}).
		Select("bill_id, COUNT(*) AS count").
		Group("bill_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.BillID] = r.Count
	}
	return counts, nil
}
