package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BillStatus string

const (
	BillStatusDraft     BillStatus = "DRAFT"
	BillStatusActive    BillStatus = "ACTIVE"
	BillStatusCompleted BillStatus = "COMPLETED"
	BillStatusCancelled BillStatus = "CANCELLED"
)

func (s BillStatus) Valid() bool {
	switch s {
	case BillStatusDraft, BillStatusActive, BillStatusCompleted, BillStatusCancelled:
		return true
	}
	return false
}

type Bill struct {
	ID          string     `gorm:"primaryKey;size:36"`
	Title       string     `gorm:"not null"`
	Description string     `gorm:"type:text;not null"`
	Status      BillStatus `gorm:"size:16;not null;index"`
	VotingStart *time.Time
	VotingEnd   *time.Time
	AuthorID    string `gorm:"size:36;not null;index"`
	Author      *User  `gorm:"constraint:OnDelete:RESTRICT"`
	Votes       []Vote `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (b *Bill) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// HasWindow reports whether both voting window bounds are set.
func (b Bill) HasWindow() bool {
	return b.VotingStart != nil && b.VotingEnd != nil
}

// WindowOpen reports whether now lies inside the voting window, bounds
// inclusive. A bill without a complete window is always open.
func (b Bill) WindowOpen(now time.Time) bool {
	if !b.HasWindow() {
		return true
	}
	return !now.Before(*b.VotingStart) && !now.After(*b.VotingEnd)
}
