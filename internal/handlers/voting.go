package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/14kear/council-voting/internal/entity"
	"github.com/14kear/council-voting/internal/export"
	"github.com/14kear/council-voting/internal/middleware"
	"github.com/14kear/council-voting/internal/services"
	"github.com/gin-gonic/gin"
)

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

type VotingHandler struct {
	log           *slog.Logger
	votingService *services.Voting
	loc           *time.Location
}

// BillRequest is the body of bill create and update. Window bounds accept
// RFC 3339 or a local datetime without zone; empty means unset.
type BillRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	VotingStart string `json:"votingStart"`
	VotingEnd   string `json:"votingEnd"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type VoteRequest struct {
	Option string `json:"option"`
}

type ExportRequest struct {
	BillID string `json:"billId"`
	Format string `json:"format"`
}

func NewVotingHandler(log *slog.Logger, votingService *services.Voting, loc *time.Location) *VotingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &VotingHandler{log: log, votingService: votingService, loc: loc}
}

func (v *VotingHandler) GetBills(c *gin.Context) {
	bills, err := v.votingService.ListBills(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, v.log, err)
		return
	}
	c.JSON(http.StatusOK, newBillViews(bills))
}

func (v *VotingHandler) CreateBill(c *gin.Context) {
	in, ok := v.bindBill(c)
	if !ok {
		return
	}

	bill, err := v.votingService.CreateBill(c.Request.Context(), middleware.Principal(c), in)
	if err != nil {
		respondError(c, v.log, err)
		return
	}
	c.JSON(http.StatusOK, newBillView(bill))
}

func (v *VotingHandler) UpdateBill(c *gin.Context) {
	in, ok := v.bindBill(c)
	if !ok {
		return
	}

	bill, err := v.votingService.UpdateBill(c.Request.Context(), middleware.Principal(c), c.Param("id"), in)
	if err != nil {
		respondError(c, v.log, err)
		return
	}
	c.JSON(http.StatusOK, newBillView(bill))
}

func (v *VotingHandler) SetBillStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}

	bill, err := v.votingService.SetBillStatus(c.Request.Context(), middleware.Principal(c), c.Param("id"), entity.BillStatus(req.Status))
	if err != nil {
		respondError(c, v.log, err)
		return
	}
	c.JSON(http.StatusOK, newBillView(bill))
}

func (v *VotingHandler) DeleteBill(c *gin.Context) {
	if err := v.votingService.DeleteBill(c.Request.Context(), middleware.Principal(c), c.Param("id")); err != nil {
		respondError(c, v.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bill deleted successfully"})
}

func (v *VotingHandler) GetCouncilorBills(c *gin.Context) {
	bills, err := v.votingService.ListCouncilorBills(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, v.log, err)
		return
	}
	c.JSON(http.StatusOK, newCouncilorBillViews(bills))
}

func (v *VotingHandler) CastVote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}

	vote, err := v.votingService.CastVote(c.Request.Context(), middleware.Principal(c), c.Param("id"), entity.VoteOption(req.Option))
	if err != nil {
		respondError(c, v.log, err)
		return
	}
	c.JSON(http.StatusOK, newVoteView(vote))
}

func (v *VotingHandler) GetPublicBills(c *gin.Context) {
	bills, err := v.votingService.ListPublicBills(c.Request.Context())
	if err != nil {
		respondError(c, v.log, err)
		return
	}
	c.JSON(http.StatusOK, newPublicBillViews(bills))
}

func (v *VotingHandler) GetPublicBill(c *gin.Context) {
	bill, err := v.votingService.PublicBill(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, v.log, err)
		return
	}
	c.JSON(http.StatusOK, newPublicBillView(bill))
}

func (v *VotingHandler) GetTelaoBills(c *gin.Context) {
	bills, err := v.votingService.ListTelaoBills(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, v.log, err)
		return
	}
	c.JSON(http.StatusOK, newTelaoBillViews(bills))
}

func (v *VotingHandler) GetTelaoVotes(c *gin.Context) {
	votes, stats, err := v.votingService.TelaoVotes(c.Request.Context(), middleware.Principal(c), c.Param("id"))
	if err != nil {
		respondError(c, v.log, err)
		return
	}
	c.JSON(http.StatusOK, TelaoVotesView{Votes: newVoteViews(votes), Stats: stats})
}

func (v *VotingHandler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}

	doc, err := v.votingService.Export(c.Request.Context(), middleware.Principal(c), req.BillID, export.Format(req.Format))
	if err != nil {
		respondError(c, v.log, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", strconv.Quote(doc.Filename)))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

func (v *VotingHandler) bindBill(c *gin.Context) (services.BillInput, bool) {
	var req BillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return services.BillInput{}, false
	}

	start, err := parseTime(req.VotingStart, v.loc)
	if err != nil {
		badRequest(c, "invalid votingStart")
		return services.BillInput{}, false
	}
	end, err := parseTime(req.VotingEnd, v.loc)
	if err != nil {
		badRequest(c, "invalid votingEnd")
		return services.BillInput{}, false
	}

	return services.BillInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      entity.BillStatus(req.Status),
		VotingStart: start,
		VotingEnd:   end,
	}, true
}

// parseTime reads s in loc unless it carries its own offset.
func parseTime(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			t = t.UTC()
			return &t, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
