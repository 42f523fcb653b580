package model

type Item struct {
	BaseModel
	OwnerID     uint   `gorm:"not null;index" json:"ownerId"`
	Owner       User   `gorm:"foreignKey:OwnerID" json:"-"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Category    string `gorm:"size:100" json:"category,omitempty"`
	ImagePath   string `gorm:"size:500" json:"imagePath,omitempty"`
}
