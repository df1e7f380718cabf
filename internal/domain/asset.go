package domain

import "time"

// AssetCategory enumerates trackable equipment kinds.
type AssetCategory string

const (
	CategoryRadio   AssetCategory = "radio"
	CategoryBattery AssetCategory = "battery"
	CategoryTool    AssetCategory = "tool"
)

// AssetStatus enumerates lifecycle states for assets.
type AssetStatus string

const (
	StatusAvailable   AssetStatus = "AVAILABLE"
	StatusCheckedOut  AssetStatus = "CHECKED_OUT"
	StatusMaintenance AssetStatus = "MAINTENANCE"
	StatusRetired     AssetStatus = "RETIRED"
	StatusLost        AssetStatus = "LOST"

	StatusInInventory AssetStatus = "IN_INVENTORY"
	StatusInService   AssetStatus = "IN_SERVICE"
	StatusFailed      AssetStatus = "FAILED"
)

// legalStatuses maps each category to its allowed status set.
var legalStatuses = map[AssetCategory][]AssetStatus{
	CategoryRadio:   {StatusAvailable, StatusCheckedOut, StatusMaintenance, StatusRetired, StatusLost},
	CategoryBattery: {StatusInInventory, StatusInService, StatusRetired, StatusFailed},
	CategoryTool:    {StatusAvailable, StatusCheckedOut, StatusMaintenance, StatusRetired, StatusLost},
}

// ValidCategory reports whether the category is known.
func ValidCategory(category AssetCategory) bool {
	_, ok := legalStatuses[category]
	return ok
}

// ValidStatus reports whether status belongs to the category's legal set.
func ValidStatus(category AssetCategory, status AssetStatus) bool {
	for _, candidate := range legalStatuses[category] {
		if candidate == status {
			return true
		}
	}
	return false
}

// DefaultStatus returns the initial status for new assets of a category.
func DefaultStatus(category AssetCategory) AssetStatus {
	if category == CategoryBattery {
		return StatusInInventory
	}
	return StatusAvailable
}

// AvailableStatusFor returns the category's "ready to check out" status.
func AvailableStatusFor(category AssetCategory) AssetStatus {
	return DefaultStatus(category)
}

// CheckedOutStatusFor returns the category's "in the field" status.
func CheckedOutStatusFor(category AssetCategory) AssetStatus {
	if category == CategoryBattery {
		return StatusInService
	}
	return StatusCheckedOut
}

// MaintenanceStatusFor returns the status a bad return moves the asset into.
func MaintenanceStatusFor(category AssetCategory) AssetStatus {
	if category == CategoryBattery {
		return StatusFailed
	}
	return StatusMaintenance
}

// MaintenanceRecord captures one repair or inspection note on an asset.
type MaintenanceRecord struct {
	Date       time.Time `json:"date"`
	Reason     string    `json:"reason"`
	Notes      string    `json:"notes,omitempty"`
	ReportedBy string    `json:"reported_by"`
}

// Asset is the aggregate for a trackable piece of equipment.
type Asset struct {
	ID                 string
	Category           AssetCategory
	Status             AssetStatus
	CheckoutCount      int
	RepairCount        int
	MaintenanceHistory []MaintenanceRecord
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
