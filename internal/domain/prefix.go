package domain

// ScanCategory is what the classifier assigns to a raw scan token.
type ScanCategory string

const (
	ScanRadio   ScanCategory = "radio"
	ScanBattery ScanCategory = "battery"
	ScanTool    ScanCategory = "tool"
	ScanBadge   ScanCategory = "badge"
)

// AssetCategoryFor maps an asset-kind scan category to its asset category.
// Returns false for badge.
func (s ScanCategory) AssetCategoryFor() (AssetCategory, bool) {
	switch s {
	case ScanRadio:
		return CategoryRadio, true
	case ScanBattery:
		return CategoryBattery, true
	case ScanTool:
		return CategoryTool, true
	}
	return "", false
}

// PrefixRule maps an identifier prefix to an asset category.
// Rules form an ordered table; classification matches longest prefix first.
type PrefixRule struct {
	ID       string
	Prefix   string
	Category AssetCategory
	Label    string
	Position int
}
