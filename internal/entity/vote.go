package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VoteOption string

const (
	VoteYes        VoteOption = "YES"
	VoteNo         VoteOption = "NO"
	VoteAbstention VoteOption = "ABSTENTION"
)

func (o VoteOption) Valid() bool {
	switch o {
	case VoteYes, VoteNo, VoteAbstention:
		return true
	}
	return false
}

// Label is the option as printed on exports.
func (o VoteOption) Label() string {
	switch o {
	case VoteYes:
		return "Sim"
	case VoteNo:
		return "Não"
	default:
		return "Abstenção"
	}
}

type Vote struct {
	ID        string     `gorm:"primaryKey;size:36"`
	Option    VoteOption `gorm:"size:16;not null"`
	UserID    string     `gorm:"size:36;not null;uniqueIndex:idx_votes_user_bill"`
	User      *User      `gorm:"constraint:OnDelete:RESTRICT"`
	BillID    string     `gorm:"size:36;not null;uniqueIndex:idx_votes_user_bill;index"`
	CreatedAt time.Time
}

func (v *Vote) BeforeCreate(*gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
