package model

import "time"

// Box is the time-gated state of one physical box tied to one exchange.
//
// Lifecycle: created when an exchange is attached (placement deadline armed);
// a generated open-code sets the hash and expiry; a verified open clears the
// code, marks the items placed and the box open; the auto-close task flips it
// closed again. A box never used by its deadline is reclaimed and the row
// deleted.
type Box struct {
	BaseModel
	ExchangeID        uint       `gorm:"not null;uniqueIndex" json:"exchangeId"`
	FrontID           uint       `gorm:"not null;index" json:"frontId"`
	PlacementDeadline time.Time  `gorm:"not null" json:"placementDeadline"`
	OpenCodeHash      string     `gorm:"size:255" json:"-"`
	OpenCodeExpiry    *time.Time `json:"openCodeExpiry,omitempty"`
	ItemsPlaced       bool       `gorm:"not null;default:false" json:"itemsPlaced"`
	Opened            bool       `gorm:"not null;default:false" json:"opened"`
}

// HasLiveCode reports whether a generated code is still within its window.
func (b *Box) HasLiveCode(now time.Time) bool {
	return b.OpenCodeHash != "" && b.OpenCodeExpiry != nil && now.Before(*b.OpenCodeExpiry)
}
