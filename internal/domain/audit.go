package domain

import "time"

// AuditAction captures what happened in an audit entry.
type AuditAction string

const (
	AuditAssetRegistered   AuditAction = "ASSET_REGISTERED"
	AuditAssetCheckedOut   AuditAction = "ASSET_CHECKED_OUT"
	AuditAssetReturned     AuditAction = "ASSET_RETURNED"
	AuditStatusChanged     AuditAction = "STATUS_CHANGED"
	AuditTechnicianCreated AuditAction = "TECHNICIAN_CREATED"
	AuditPrefixRuleChanged AuditAction = "PREFIX_RULE_CHANGED"
)

// AuditEntry is an immutable record of a state-changing action.
type AuditEntry struct {
	ID          string
	EntityID    string
	EntityType  string
	Action      AuditAction
	Details     map[string]any
	PerformedBy string
	CreatedAt   time.Time
}
