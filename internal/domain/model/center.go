package model

// Center is an operator of pickup points. Each front belongs to exactly one
// center.
type Center struct {
	BaseModel
	Name    string `gorm:"size:200;not null" json:"name"`
	City    string `gorm:"size:100;not null" json:"city"`
	Address string `gorm:"size:300" json:"address,omitempty"`
}

// Front is a physical pickup point holding a fixed number of boxes. Reserved
// counts the boxes currently committed to exchanges.
type Front struct {
	BaseModel
	CenterID uint   `gorm:"not null;index" json:"centerId"`
	Center   Center `gorm:"foreignKey:CenterID" json:"-"`
	Name     string `gorm:"size:200;not null" json:"name"`
	Capacity int    `gorm:"not null;default:0" json:"capacity"`
	Reserved int    `gorm:"not null;default:0" json:"reserved"`
}
