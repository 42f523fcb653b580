package model

type Notification struct {
	BaseModel
	UserID uint   `gorm:"not null;index" json:"userId"`
	Kind   string `gorm:"size:50;not null" json:"kind"`
	Text   string `gorm:"size:500;not null" json:"text"`
	Read   bool   `gorm:"not null;default:false" json:"read"`
}
