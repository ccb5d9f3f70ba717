package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/14kear/council-voting/internal/entity"
	"github.com/14kear/council-voting/internal/export"
	"github.com/14kear/council-voting/internal/repo"
	"github.com/14kear/council-voting/internal/tally"
	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type Voting struct {
	log         *slog.Logger
	billStorage BillStorage
	voteStorage VoteStorage
	publisher   Publisher
	renderer    *export.Renderer
	votesCast   *prometheus.CounterVec
	now         func() time.Time
}

type BillStorage interface {
	SaveBill(ctx context.Context, bill *entity.Bill) error
	BillByID(ctx context.Context, id string) (entity.Bill, error)
	BillWithVotes(ctx context.Context, id string) (entity.Bill, error)
	Bills(ctx context.Context) ([]entity.Bill, error)
	BillsWithUserVote(ctx context.Context, userID string) ([]entity.Bill, error)
	BillsWithAuthor(ctx context.Context) ([]entity.Bill, error)
	UpdateBill(ctx context.Context, bill *entity.Bill) error
	UpdateBillStatus(ctx context.Context, id string, status entity.BillStatus) error
	DeleteBill(ctx context.Context, id string) error
}

type VoteStorage interface {
	SaveVote(ctx context.Context, vote *entity.Vote) error
	VoteByUserAndBill(ctx context.Context, userID, billID string) (entity.Vote, error)
	VotesByBill(ctx context.Context, billID string) ([]entity.Vote, error)
	VoteCounts(ctx context.Context) (map[string]int64, error)
}

// Publisher delivers change notifications to live viewers. Implementations
// must not block.
//
//go:generate mockgen -destination=mocks/mock_publisher.go -package=mocks github.com/14kear/council-voting/internal/services Publisher
type Publisher interface {
	PublishVote(billID string, vote entity.Vote)
	PublishBillStatus(billID string, status entity.BillStatus)
}

// BillInput carries the editable fields of a bill. An empty Status means
// DRAFT on create and "unchanged" on update.
type BillInput struct {
	Title       string
	Description string
	Status      entity.BillStatus
	VotingStart *time.Time
	VotingEnd   *time.Time
}

// CouncilorBill is a bill as seen by one councilor, with their own vote.
type CouncilorBill struct {
	entity.Bill
	UserVote *entity.Vote
}

type TelaoBill struct {
	entity.Bill
	VoteCount int64
}

func NewVoting(
	log *slog.Logger,
	billStorage BillStorage,
	voteStorage VoteStorage,
	publisher Publisher,
	renderer *export.Renderer,
	promRegistry prometheus.Registerer,
) *Voting {
	votesCast := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "council",
		Name:      "votes_cast_total",
		Help:      "Votes committed, by option.",
	}, []string{"option"})
	if promRegistry != nil {
		promRegistry.MustRegister(votesCast)
	}

	return &Voting{
		log:         log,
		billStorage: billStorage,
		voteStorage: voteStorage,
		publisher:   publisher,
		renderer:    renderer,
		votesCast:   votesCast,
		now:         time.Now,
	}
}

// CastVote records actor's vote on a bill. Checks run in a fixed order and
// the first failure is returned with nothing written.
func (v *Voting) CastVote(ctx context.Context, actor entity.Principal, billID string, option entity.VoteOption) (entity.Vote, error) {
	const op = "Voting.CastVote"

	log := v.log.With(slog.String("op", op), slog.String("billID", billID), slog.String("userID", actor.UserID))

	if !actor.Is(entity.RoleCouncilor) {
		return entity.Vote{}, fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "only councilors can vote"))
	}

	if !option.Valid() {
		return entity.Vote{}, fmt.Errorf("%s: %w", op, fail(ErrValidation, "invalid vote option"))
	}

	bill, err := v.billStorage.BillByID(ctx, billID)
	if err != nil {
		if errors.Is(err, repo.ErrBillNotFound) {
			return entity.Vote{}, fmt.Errorf("%s: %w", op, fail(ErrNotFound, "bill not found"))
		}
		log.Error("failed to load bill", sl.Err(err))
		return entity.Vote{}, fmt.Errorf("%s: %w", op, err)
	}

	if bill.Status != entity.BillStatusActive {
		return entity.Vote{}, fmt.Errorf("%s: %w", op, fail(ErrState, "bill is not open for voting"))
	}

	if !bill.WindowOpen(v.now()) {
		return entity.Vote{}, fmt.Errorf("%s: %w", op, fail(ErrState, "voting window closed"))
	}

	_, err = v.voteStorage.VoteByUserAndBill(ctx, actor.UserID, billID)
	switch {
	case err == nil:
		return entity.Vote{}, fmt.Errorf("%s: %w", op, fail(ErrConflict, "already voted"))
	case !errors.Is(err, repo.ErrVoteNotFound):
		log.Error("failed to check existing vote", sl.Err(err))
		return entity.Vote{}, fmt.Errorf("%s: %w", op, err)
	}

	vote := entity.Vote{
		Option: option,
		UserID: actor.UserID,
		BillID: billID,
	}
	if err := v.voteStorage.SaveVote(ctx, &vote); err != nil {
		if errors.Is(err, repo.ErrVoteExists) {
			log.Warn("concurrent duplicate vote rejected")
			return entity.Vote{}, fmt.Errorf("%s: %w", op, fail(ErrConflict, "already voted"))
		}
		log.Error("failed to save vote", sl.Err(err))
		return entity.Vote{}, fmt.Errorf("%s: %w", op, err)
	}

	v.votesCast.WithLabelValues(string(option)).Inc()
	log.Info("vote recorded", slog.String("option", string(option)))

	v.publisher.PublishVote(billID, vote)

	return vote, nil
}

func (v *Voting) CreateBill(ctx context.Context, actor entity.Principal, in BillInput) (entity.Bill, error) {
	const op = "Voting.CreateBill"

	if !actor.Is(entity.RoleAdmin) {
		return entity.Bill{}, fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "admin role required"))
	}

	if err := validateBillInput(&in); err != nil {
		return entity.Bill{}, fmt.Errorf("%s: %w", op, err)
	}
	if in.Status == "" {
		in.Status = entity.BillStatusDraft
	}

	bill := entity.Bill{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		VotingStart: in.VotingStart,
		VotingEnd:   in.VotingEnd,
		AuthorID:    actor.UserID,
	}
	if err := v.billStorage.SaveBill(ctx, &bill); err != nil {
		v.log.Error("failed to save bill", slog.String("op", op), sl.Err(err))
		return entity.Bill{}, fmt.Errorf("%s: %w", op, err)
	}

	v.log.Info("bill created", slog.String("op", op), slog.String("billID", bill.ID))

	created, err := v.billStorage.BillByID(ctx, bill.ID)
	if err != nil {
		return entity.Bill{}, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// UpdateBill replaces every editable field of a bill. Any status may move
// to any other; a changed status is broadcast to every live viewer.
func (v *Voting) UpdateBill(ctx context.Context, actor entity.Principal, id string, in BillInput) (entity.Bill, error) {
	const op = "Voting.UpdateBill"

	if !actor.Is(entity.RoleAdmin) {
		return entity.Bill{}, fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "admin role required"))
	}

	if err := validateBillInput(&in); err != nil {
		return entity.Bill{}, fmt.Errorf("%s: %w", op, err)
	}

	current, err := v.billStorage.BillByID(ctx, id)
	if err != nil {
		return entity.Bill{}, fmt.Errorf("%s: %w", op, notFound(err, "bill not found"))
	}

	next := current
	next.Title = in.Title
	next.Description = in.Description
	next.VotingStart = in.VotingStart
	next.VotingEnd = in.VotingEnd
	if in.Status != "" {
		next.Status = in.Status
	}

	if err := v.billStorage.UpdateBill(ctx, &next); err != nil {
		return entity.Bill{}, fmt.Errorf("%s: %w", op, notFound(err, "bill not found"))
	}

	if next.Status != current.Status {
		v.log.Info("bill status changed", slog.String("op", op), slog.String("billID", id),
			slog.String("from", string(current.Status)), slog.String("to", string(next.Status)))
		v.publisher.PublishBillStatus(id, next.Status)
	}

	return next, nil
}

// SetBillStatus moves a bill to status and broadcasts the change.
func (v *Voting) SetBillStatus(ctx context.Context, actor entity.Principal, id string, status entity.BillStatus) (entity.Bill, error) {
	const op = "Voting.SetBillStatus"

	if !actor.Is(entity.RoleAdmin) {
		return entity.Bill{}, fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "admin role required"))
	}
	if !status.Valid() {
		return entity.Bill{}, fmt.Errorf("%s: %w", op, fail(ErrValidation, "invalid bill status"))
	}

	if err := v.billStorage.UpdateBillStatus(ctx, id, status); err != nil {
		return entity.Bill{}, fmt.Errorf("%s: %w", op, notFound(err, "bill not found"))
	}

	bill, err := v.billStorage.BillByID(ctx, id)
	if err != nil {
		return entity.Bill{}, fmt.Errorf("%s: %w", op, notFound(err, "bill not found"))
	}

	v.log.Info("bill status set", slog.String("op", op), slog.String("billID", id), slog.String("status", string(status)))
	v.publisher.PublishBillStatus(id, status)

	return bill, nil
}

// DeleteBill removes a bill together with its votes.
func (v *Voting) DeleteBill(ctx context.Context, actor entity.Principal, id string) error {
	const op = "Voting.DeleteBill"

	if !actor.Is(entity.RoleAdmin) {
		return fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "admin role required"))
	}

	if err := v.billStorage.DeleteBill(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, notFound(err, "bill not found"))
	}

	v.log.Info("bill deleted", slog.String("op", op), slog.String("billID", id))
	return nil
}

// ListBills returns every bill with author and votes for administration.
func (v *Voting) ListBills(ctx context.Context, actor entity.Principal) ([]entity.Bill, error) {
	const op = "Voting.ListBills"

	if !actor.Is(entity.RoleAdmin) {
		return nil, fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "admin role required"))
	}

	bills, err := v.billStorage.Bills(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return bills, nil
}

// ListCouncilorBills returns every bill annotated with the caller's own vote.
func (v *Voting) ListCouncilorBills(ctx context.Context, actor entity.Principal) ([]CouncilorBill, error) {
	const op = "Voting.ListCouncilorBills"

	if !actor.Is(entity.RoleCouncilor) {
		return nil, fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "councilor role required"))
	}

	bills, err := v.billStorage.BillsWithUserVote(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := make([]CouncilorBill, 0, len(bills))
	for _, b := range bills {
		cb := CouncilorBill{Bill: b}
		if len(b.Votes) > 0 {
			vote := b.Votes[0]
			cb.UserVote = &vote
		}
		cb.Votes = nil
		res = append(res, cb)
	}
	return res, nil
}

// ListPublicBills needs no session.
func (v *Voting) ListPublicBills(ctx context.Context) ([]entity.Bill, error) {
	const op = "Voting.ListPublicBills"

	bills, err := v.billStorage.Bills(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return bills, nil
}

func (v *Voting) PublicBill(ctx context.Context, id string) (entity.Bill, error) {
	const op = "Voting.PublicBill"

	bill, err := v.billStorage.BillWithVotes(ctx, id)
	if err != nil {
		return entity.Bill{}, fmt.Errorf("%s: %w", op, notFound(err, "bill not found"))
	}
	return bill, nil
}

// ListTelaoBills returns every bill with its vote count for the big screen.
func (v *Voting) ListTelaoBills(ctx context.Context, actor entity.Principal) ([]TelaoBill, error) {
	const op = "Voting.ListTelaoBills"

	if !actor.Authenticated() {
		return nil, fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "session required"))
	}

	bills, err := v.billStorage.BillsWithAuthor(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	counts, err := v.voteStorage.VoteCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := make([]TelaoBill, 0, len(bills))
	for _, b := range bills {
		res = append(res, TelaoBill{Bill: b, VoteCount: counts[b.ID]})
	}
	return res, nil
}

// TelaoVotes returns a bill's votes in casting order with the tally.
func (v *Voting) TelaoVotes(ctx context.Context, actor entity.Principal, billID string) ([]entity.Vote, tally.Stats, error) {
	const op = "Voting.TelaoVotes"

	if !actor.Authenticated() {
		return nil, tally.Stats{}, fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "session required"))
	}

	if _, err := v.billStorage.BillByID(ctx, billID); err != nil {
		return nil, tally.Stats{}, fmt.Errorf("%s: %w", op, notFound(err, "bill not found"))
	}

	votes, err := v.voteStorage.VotesByBill(ctx, billID)
	if err != nil {
		return nil, tally.Stats{}, fmt.Errorf("%s: %w", op, err)
	}
	return votes, tally.Count(votes), nil
}

// Export renders a bill's result sheet in the requested format.
func (v *Voting) Export(ctx context.Context, actor entity.Principal, billID string, format export.Format) (export.Document, error) {
	const op = "Voting.Export"

	if !actor.Is(entity.RoleAdmin) {
		return export.Document{}, fmt.Errorf("%s: %w", op, fail(ErrUnauthorized, "admin role required"))
	}
	if billID == "" || format == "" {
		return export.Document{}, fmt.Errorf("%s: %w", op, fail(ErrValidation, "bill id and format are required"))
	}
	if !format.Valid() {
		return export.Document{}, fmt.Errorf("%s: %w", op, fail(ErrValidation, "unsupported format"))
	}

	bill, err := v.billStorage.BillWithVotes(ctx, billID)
	if err != nil {
		return export.Document{}, fmt.Errorf("%s: %w", op, notFound(err, "bill not found"))
	}

	doc, err := v.renderer.Render(format, bill, bill.Votes, v.now())
	if err != nil {
		v.log.Error("failed to render export", slog.String("op", op), sl.Err(err))
		return export.Document{}, fmt.Errorf("%s: %w", op, err)
	}
	return doc, nil
}

func validateBillInput(in *BillInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	if in.Title == "" || in.Description == "" {
		return fail(ErrValidation, "title and description are required")
	}
	if in.Status != "" && !in.Status.Valid() {
		return fail(ErrValidation, "invalid bill status")
	}
	return nil
}

// notFound maps a missing bill to ErrNotFound and passes other errors
// through.
func notFound(err error, reason string) error {
	if errors.Is(err, repo.ErrBillNotFound) || errors.Is(err, repo.ErrUserNotFound) {
		return fail(ErrNotFound, reason)
	}
	return err
}
