package events

import (
	"time"

	"github.com/spec-kit/equipment-checkout/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventScanStateChanged  EventType = "scan_state_changed"
	EventAssetCheckedOut   EventType = "asset_checked_out"
	EventAssetReturned     EventType = "asset_returned"
	EventStatusChanged     EventType = "asset_status_changed"
	EventTechnicianCreated EventType = "technician_created"
	EventCooldownTick      EventType = "cooldown_tick"
)

// Event represents a domain event emitted by services and the scan session.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EntityID  string      `json:"entity_id"`
	Clerk     string      `json:"clerk,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ScanStateChangedPayload payload.
type ScanStateChangedPayload struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	State     string `json:"state"`
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message,omitempty"`
}

// AssetCheckedOutPayload payload.
type AssetCheckedOutPayload struct {
	AssetID          string               `json:"asset_id"`
	Category         domain.AssetCategory `json:"category"`
	TechnicianID     string               `json:"technician_id"`
	TechnicianName   string               `json:"technician_name"`
	TransactionID    string               `json:"transaction_id"`
	TechnicianWasNew bool                 `json:"technician_was_new"`
}

// AssetReturnedPayload payload.
type AssetReturnedPayload struct {
	AssetID       string                 `json:"asset_id"`
	Category      domain.AssetCategory   `json:"category"`
	Condition     domain.ReturnCondition `json:"condition"`
	TransactionID string                 `json:"transaction_id"`
	Flagged       bool                   `json:"flagged"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	AssetID   string               `json:"asset_id"`
	Category  domain.AssetCategory `json:"category"`
	OldStatus domain.AssetStatus   `json:"old_status"`
	NewStatus domain.AssetStatus   `json:"new_status"`
	Reason    string               `json:"reason,omitempty"`
}

// TechnicianCreatedPayload payload.
type TechnicianCreatedPayload struct {
	BadgeID string `json:"badge_id"`
	Name    string `json:"name"`
}

// CooldownTickPayload payload.
type CooldownTickPayload struct {
	AssetID   string `json:"asset_id"`
	Remaining int    `json:"remaining_seconds"`
}
