package tally

import (
	"testing"

	"github.com/14kear/council-voting/internal/entity"
	"github.com/stretchr/testify/assert"
)

func votesOf(options ...entity.VoteOption) []entity.Vote {
	votes := make([]entity.Vote, 0, len(options))
	for _, o := range options {
		votes = append(votes, entity.Vote{Option: o})
	}
	return votes
}

func TestCount_Empty(t *testing.T) {
	s := Count(nil)

	assert.Equal(t, Stats{}, s)
	assert.Zero(t, s.Percentages.Yes)
	assert.Zero(t, s.Percentages.No)
	assert.Zero(t, s.Percentages.Abstention)
}

func TestCount_Mixed(t *testing.T) {
	s := Count(votesOf(entity.VoteYes, entity.VoteYes, entity.VoteNo, entity.VoteAbstention))

	assert.Equal(t, 2, s.Yes)
	assert.Equal(t, 1, s.No)
	assert.Equal(t, 1, s.Abstention)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, Percentages{Yes: 50, No: 25, Abstention: 25}, s.Percentages)
}

func TestCount_SumsToTotal(t *testing.T) {
	options := []entity.VoteOption{entity.VoteYes, entity.VoteNo, entity.VoteAbstention}

	for n := 0; n < 20; n++ {
		var opts []entity.VoteOption
		for i := 0; i < n; i++ {
			opts = append(opts, options[(i*7+n)%3])
		}
		votes := votesOf(opts...)

		s := Count(votes)
		assert.Equal(t, s.Total, s.Yes+s.No+s.Abstention)
		assert.Equal(t, len(votes), s.Total)
	}
}

func TestPercent_Rounding(t *testing.T) {
	tests := []struct {
		count, total, want int
	}{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{3, 3, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percent(tt.count, tt.total), "%d/%d", tt.count, tt.total)
	}
}

func TestStats_Of(t *testing.T) {
	s := Count(votesOf(entity.VoteNo, entity.VoteNo))

	assert.Equal(t, 2, s.Of(entity.VoteNo))
	assert.Equal(t, 0, s.Of(entity.VoteYes))
}
