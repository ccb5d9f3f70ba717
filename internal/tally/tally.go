// Package tally aggregates votes into per-option counts and percentages.
package tally

import (
	"math"

	"github.com/14kear/council-voting/internal/entity"
)

type Percentages struct {
	Yes        int `json:"YES"`
	No         int `json:"NO"`
	Abstention int `json:"ABSTENTION"`
}

type Stats struct {
	Yes         int         `json:"YES"`
	No          int         `json:"NO"`
	Abstention  int         `json:"ABSTENTION"`
	Total       int         `json:"total"`
	Percentages Percentages `json:"percentages"`
}

// Count tallies votes. Yes+No+Abstention always equals Total.
func Count(votes []entity.Vote) Stats {
	var s Stats
	for _, v := range votes {
		switch v.Option {
		case entity.VoteYes:
			s.Yes++
		case entity.VoteNo:
			s.No++
		case entity.VoteAbstention:
			s.Abstention++
		default:
			continue
		}
		s.Total++
	}

	s.Percentages = Percentages{
		Yes:        Percent(s.Yes, s.Total),
		No:         Percent(s.No, s.Total),
		Abstention: Percent(s.Abstention, s.Total),
	}
	return s
}

// Percent is round(100*count/total), 0 when total is 0.
func Percent(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(count) / float64(total)))
}

// Of returns the count recorded for option.
func (s Stats) Of(option entity.VoteOption) int {
	switch option {
	case entity.VoteYes:
		return s.Yes
	case entity.VoteNo:
		return s.No
	case entity.VoteAbstention:
		return s.Abstention
	}
	return 0
}
