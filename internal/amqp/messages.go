package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/ports"
)

// RecordChangedMessage tells workers the ledger changed. It carries no record
// data; consumers re-read the store.
type RecordChangedMessage struct {
	ID        string    `json:"id,omitempty"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordChangedMessage(change ports.RecordChange) *RecordChangedMessage {
	ts := change.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return &RecordChangedMessage{ID: change.ID, Op: change.Op, Timestamp: ts.UTC()}
}

func (m *RecordChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangedMessageFromJSON decodes a message and rejects ones without an op.
func RecordChangedMessageFromJSON(data []byte) (*RecordChangedMessage, error) {
	var msg RecordChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Op == "" {
		return nil, fmt.Errorf("record changed message without op")
	}
	return &msg, nil
}

// Change converts the message back to the port type.
func (m *RecordChangedMessage) Change() ports.RecordChange {
	return ports.RecordChange{ID: m.ID, Op: m.Op, Timestamp: m.Timestamp}
}
