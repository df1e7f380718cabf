package domain

import "time"

// Technician is the person an asset is checked out to, keyed by badge.
type Technician struct {
	BadgeID    string
	Name       string
	Department string
	CreatedAt  time.Time
}
