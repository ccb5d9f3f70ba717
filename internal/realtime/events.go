package realtime

import (
	"encoding/json"
	"time"

	"github.com/14kear/council-voting/internal/entity"
)

const (
	EventJoinBill         = "join-bill"
	EventLeaveBill        = "leave-bill"
	EventVoteUpdate       = "vote-update"
	EventBillStatusUpdate = "bill-status-update"
	EventMessage          = "message"
)

// Frame is the wire envelope in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type VoteView struct {
	ID        string            `json:"id"`
	Option    entity.VoteOption `json:"option"`
	VoterName string            `json:"voterName,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

type VoteUpdate struct {
	BillID    string    `json:"billId"`
	Vote      VoteView  `json:"vote"`
	Timestamp time.Time `json:"timestamp"`
}

type BillStatusUpdate struct {
	BillID    string            `json:"billId"`
	Status    entity.BillStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
}

type Welcome struct {
	Text      string    `json:"text"`
	SenderID  string    `json:"senderId"`
	Timestamp time.Time `json:"timestamp"`
}

func encodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

func roomFor(billID string) string {
	return "bill-" + billID
}
