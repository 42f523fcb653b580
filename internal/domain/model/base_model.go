package model

import "time"

type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"type:TIMESTAMP with time zone;not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:TIMESTAMP with time zone;not null" json:"updatedAt"`
}
