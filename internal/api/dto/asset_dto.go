package dto

import (
	"time"

	"github.com/spec-kit/equipment-checkout/internal/domain"
)

// RegisterAssetRequest adds an asset to the directory.
type RegisterAssetRequest struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

// ChangeStatusRequest performs a manual lifecycle transition.
type ChangeStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// ReturnRequest performs a manual return with a condition report.
type ReturnRequest struct {
	Condition string `json:"condition"`
	Notes     string `json:"notes"`
}

// AssetResponse is the wire shape of an asset.
type AssetResponse struct {
	ID                 string                     `json:"id"`
	Category           domain.AssetCategory       `json:"category"`
	Status             domain.AssetStatus         `json:"status"`
	CheckoutCount      int                        `json:"checkout_count"`
	RepairCount        int                        `json:"repair_count"`
	MaintenanceHistory []domain.MaintenanceRecord `json:"maintenance_history"`
	CreatedAt          time.Time                  `json:"created_at"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

// FromAsset converts a domain asset.
func FromAsset(asset *domain.Asset) AssetResponse {
	history := asset.MaintenanceHistory
	if history == nil {
		history = []domain.MaintenanceRecord{}
	}
	return AssetResponse{
		ID:                 asset.ID,
		Category:           asset.Category,
		Status:             asset.Status,
		CheckoutCount:      asset.CheckoutCount,
		RepairCount:        asset.RepairCount,
		MaintenanceHistory: history,
		CreatedAt:          asset.CreatedAt,
		UpdatedAt:          asset.UpdatedAt,
	}
}

// TransactionResponse is the wire shape of a ledger record.
type TransactionResponse struct {
	ID             string                  `json:"id"`
	AssetID        string                  `json:"asset_id"`
	AssetCategory  domain.AssetCategory    `json:"asset_category"`
	TechnicianID   string                  `json:"technician_id"`
	TechnicianName string                  `json:"technician_name"`
	Type           domain.TransactionType  `json:"type"`
	Condition      *domain.ReturnCondition `json:"condition,omitempty"`
	Clerk          string                  `json:"clerk"`
	Notes          *string                 `json:"notes,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
}

// FromTransaction converts a domain transaction.
func FromTransaction(transaction *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:             transaction.ID,
		AssetID:        transaction.AssetID,
		AssetCategory:  transaction.AssetCategory,
		TechnicianID:   transaction.TechnicianID,
		TechnicianName: transaction.TechnicianName,
		Type:           transaction.Type,
		Condition:      transaction.Condition,
		Clerk:          transaction.Clerk,
		Notes:          transaction.Notes,
		CreatedAt:      transaction.CreatedAt,
	}
}

// PrefixRuleRequest creates or updates a prefix rule.
type PrefixRuleRequest struct {
	Prefix   string `json:"prefix"`
	Category string `json:"category"`
	Label    string `json:"label"`
	Position int    `json:"position"`
}
