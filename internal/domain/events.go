package domain

import (
	"encoding/json"
	"time"
)

// Event types
const (
	EventTypeSettlementCompleted = "settlement.completed"
	EventTypeWeekCreated         = "week.created"
	EventTypeWeekUpdated         = "week.updated"
	EventTypeWeekDeleted         = "week.deleted"
	EventTypeCapitalRecorded     = "capital.recorded"
)

// Aggregate types
const (
	AggregateTypeSettlement = "settlement"
	AggregateTypeWeek       = "week"
	AggregateTypeLedger     = "ledger"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// SettlementCompletedEvent payload
type SettlementCompletedEvent struct {
	Generation      int64  `json:"generation"`
	WeeksSettled    int    `json:"weeks_settled"`
	CapitalBalance  string `json:"capital_balance"`
	OperatorBalance string `json:"operator_balance"`
	HWM             string `json:"hwm"`
	TotalFees       string `json:"total_fees"`
}

// WeekChangedEvent payload
type WeekChangedEvent struct {
	WeekID     string `json:"week_id"`
	WeekNumber int    `json:"week_number"`
	Percentage string `json:"percentage"`
}

// CapitalRecordedEvent payload
type CapitalRecordedEvent struct {
	EntryID string `json:"entry_id"`
	Pool    string `json:"pool"`
	Kind    string `json:"kind"`
	Amount  string `json:"amount"`
}

// Payload flattens an event struct into the outbox payload map.
func Payload(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"error": "failed to marshal payload"}
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return map[string]any{"error": "failed to unmarshal payload"}
	}

	return result
}
