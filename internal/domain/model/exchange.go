package model

const (
	ExchangeStateProposed  = "proposed"
	ExchangeStateAccepted  = "accepted"
	ExchangeStateInBox     = "inBox"
	ExchangeStateCompleted = "completed"
	ExchangeStateCancelled = "cancelled"
)

type Exchange struct {
	BaseModel
	InitiatorID uint   `gorm:"not null;index" json:"initiatorId"`
	ResponderID uint   `gorm:"not null;index" json:"responderId"`
	ItemID      uint   `gorm:"not null" json:"itemId"`
	Item        Item   `gorm:"foreignKey:ItemID" json:"-"`
	State       string `gorm:"size:30;not null;default:proposed" json:"state"`
	FrontID     *uint  `gorm:"index" json:"frontId,omitempty"`
}
