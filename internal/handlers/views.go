package handlers

import (
	"time"

	"github.com/14kear/council-voting/internal/entity"
	"github.com/14kear/council-voting/internal/services"
	"github.com/14kear/council-voting/internal/tally"
)

type PersonView struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type VoteView struct {
	ID        string            `json:"id"`
	Option    entity.VoteOption `json:"option"`
	UserID    string            `json:"userId"`
	BillID    string            `json:"billId"`
	CreatedAt time.Time         `json:"createdAt"`
	User      *PersonView       `json:"user,omitempty"`
}

type BillView struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      entity.BillStatus `json:"status"`
	VotingStart *time.Time        `json:"votingStart"`
	VotingEnd   *time.Time        `json:"votingEnd"`
	AuthorID    string            `json:"authorId"`
	Author      *PersonView       `json:"author,omitempty"`
	Votes       []VoteView        `json:"votes"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type CouncilorBillView struct {
	BillView
	UserVote *VoteView `json:"userVote"`
}

type VoteCountView struct {
	Votes int64 `json:"votes"`
}

type TelaoBillView struct {
	BillView
	Count VoteCountView `json:"_count"`
}

type TelaoVotesView struct {
	Votes []VoteView  `json:"votes"`
	Stats tally.Stats `json:"stats"`
}

// voterEmail controls whether the voter's email is rendered. Public routes
// never pass true.
func voteView(v entity.Vote, voterEmail bool) VoteView {
	view := VoteView{
		ID:        v.ID,
		Option:    v.Option,
		UserID:    v.UserID,
		BillID:    v.BillID,
		CreatedAt: v.CreatedAt,
	}
	if v.User != nil {
		view.User = &PersonView{Name: v.User.Name}
		if voterEmail {
			view.User.Email = v.User.Email
		}
	}
	return view
}

func newVoteView(v entity.Vote) VoteView {
	return voteView(v, true)
}

func voteViews(votes []entity.Vote, voterEmail bool) []VoteView {
	views := make([]VoteView, 0, len(votes))
	for _, v := range votes {
		views = append(views, voteView(v, voterEmail))
	}
	return views
}

func newVoteViews(votes []entity.Vote) []VoteView {
	return voteViews(votes, true)
}

func billView(b entity.Bill, voterEmail bool) BillView {
	view := BillView{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		Status:      b.Status,
		VotingStart: b.VotingStart,
		VotingEnd:   b.VotingEnd,
		AuthorID:    b.AuthorID,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if b.Author != nil {
		view.Author = &PersonView{Name: b.Author.Name}
	}
	view.Votes = voteViews(b.Votes, voterEmail)
	return view
}

func newBillView(b entity.Bill) BillView {
	return billView(b, true)
}

func newBillViews(bills []entity.Bill) []BillView {
	views := make([]BillView, 0, len(bills))
	for _, b := range bills {
		views = append(views, newBillView(b))
	}
	return views
}

// newPublicBillView renders a bill for anonymous readers: voters by name only.
func newPublicBillView(b entity.Bill) BillView {
	return billView(b, false)
}

func newPublicBillViews(bills []entity.Bill) []BillView {
	views := make([]BillView, 0, len(bills))
	for _, b := range bills {
		views = append(views, newPublicBillView(b))
	}
	return views
}

func newCouncilorBillViews(bills []services.CouncilorBill) []CouncilorBillView {
	views := make([]CouncilorBillView, 0, len(bills))
	for _, b := range bills {
		view := CouncilorBillView{BillView: newBillView(b.Bill)}
		if b.UserVote != nil {
			vote := newVoteView(*b.UserVote)
			view.UserVote = &vote
		}
		views = append(views, view)
	}
	return views
}

func newTelaoBillViews(bills []services.TelaoBill) []TelaoBillView {
	views := make([]TelaoBillView, 0, len(bills))
	for _, b := range bills {
		views = append(views, TelaoBillView{
			BillView: newBillView(b.Bill),
			Count:    VoteCountView{Votes: b.VoteCount},
		})
	}
	return views
}
