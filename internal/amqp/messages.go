package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ImportRequestMessage asks the worker to pull new bank transactions for a user.
// It carries only identifiers; the worker loads connections and tokens from storage.
type ImportRequestMessage struct {
	MessageID     string    `json:"message_id"`
	UserID        int64     `json:"user_id"`
	ConnectionIDs []int64   `json:"connection_ids"`
	RequestedAt   time.Time `json:"requested_at"`
}

// NewImportRequestMessage creates a request with a fresh message id
func NewImportRequestMessage(userID int64, connectionIDs ...int64) *ImportRequestMessage {
	return &ImportRequestMessage{
		MessageID:     uuid.NewString(),
		UserID:        userID,
		ConnectionIDs: connectionIDs,
		RequestedAt:   time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ImportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportRequestMessageFromJSON parses and checks a message body
func ImportRequestMessageFromJSON(data []byte) (*ImportRequestMessage, error) {
	var msg ImportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == 0 {
		return nil, errors.New("import request without user id")
	}
	if len(msg.ConnectionIDs) == 0 {
		return nil, errors.New("import request without connections")
	}
	return &msg, nil
}
