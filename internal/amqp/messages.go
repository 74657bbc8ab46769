package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InvalidationMessage names cache keys every instance must drop.
type InvalidationMessage struct {
	UserID    uuid.UUID `json:"user_id"`
	Keys      []string  `json:"keys"`
	Origin    string    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

func NewInvalidationMessage(userID uuid.UUID, keys []string, origin string) *InvalidationMessage {
	return &InvalidationMessage{
		UserID:    userID,
		Keys:      keys,
		Origin:    origin,
		Timestamp: time.Now().UTC(),
	}
}

func (m *InvalidationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func InvalidationMessageFromJSON(data []byte) (*InvalidationMessage, error) {
	var msg InvalidationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode invalidation message: %w", err)
	}
	if len(msg.Keys) == 0 {
		return nil, fmt.Errorf("decode invalidation message: no keys")
	}
	return &msg, nil
}
