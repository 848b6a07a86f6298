package amqp

import (
	"encoding/json"
	"time"
)

const (
	EventMonthClosed = "month.closed"
	EventMonthOpened = "month.opened"
)

// MonthEventMessage announces a rollover transition for one user's month.
// The payload is intentionally small: consumers fetch the full record from
// the database by (user_id, month, year).
type MonthEventMessage struct {
	Event        string    `json:"event"`
	UserID       string    `json:"user_id"`
	Month        int       `json:"month"`
	Year         int       `json:"year"`
	BalanceCents int64     `json:"balance_cents"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewMonthEventMessage creates an event message stamped with now.
func NewMonthEventMessage(event, userID string, month, year int, balanceCents int64) *MonthEventMessage {
	return &MonthEventMessage{
		Event:        event,
		UserID:       userID,
		Month:        month,
		Year:         year,
		BalanceCents: balanceCents,
		Timestamp:    time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *MonthEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MonthEventMessageFromJSON creates a message from JSON bytes
func MonthEventMessageFromJSON(data []byte) (*MonthEventMessage, error) {
	var msg MonthEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
