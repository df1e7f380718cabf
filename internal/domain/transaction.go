package domain

import "time"

// TransactionType distinguishes checkout from return records.
type TransactionType string

const (
	TransactionCheckout TransactionType = "CHECKOUT"
	TransactionReturn   TransactionType = "RETURN"
)

// ReturnCondition is the condition reported when an asset comes back.
type ReturnCondition string

const (
	ConditionGood        ReturnCondition = "Good"
	ConditionDamaged     ReturnCondition = "Damaged"
	ConditionNeedsRepair ReturnCondition = "Needs Repair"
)

// Transaction is an immutable checkout or return record.
type Transaction struct {
	ID             string
	AssetID        string
	AssetCategory  AssetCategory
	TechnicianID   string
	TechnicianName string
	Type           TransactionType
	Condition      *ReturnCondition
	Clerk          string
	Notes          *string
	CreatedAt      time.Time
}
