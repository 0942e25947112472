package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"confronto/internal/core"
)

// ComparisonRequest asks the worker to run one comparison. An empty Date
// means the day the worker handles it.
type ComparisonRequest struct {
	ID          uuid.UUID `json:"id"`
	Date        string    `json:"date,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewComparisonRequest creates a request for ref, or for "today" when ref is
// the zero date.
func NewComparisonRequest(ref core.Date) *ComparisonRequest {
	req := &ComparisonRequest{ID: uuid.New(), RequestedAt: time.Now().UTC()}
	if !ref.IsEmpty() {
		req.Date = ref.String()
	}
	return req
}

// Reference resolves the date to compare, falling back to today.
func (m *ComparisonRequest) Reference(today core.Date) (core.Date, error) {
	if m.Date == "" {
		return today, nil
	}
	return core.ParseDate(m.Date)
}

// ToJSON converts the message to JSON bytes
func (m *ComparisonRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ComparisonRequestFromJSON decodes a message, rejecting one without an ID.
func ComparisonRequestFromJSON(data []byte) (*ComparisonRequest, error) {
	var msg ComparisonRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == uuid.Nil {
		return nil, errors.New("comparison request without id")
	}
	return &msg, nil
}
