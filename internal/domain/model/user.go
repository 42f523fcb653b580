package model

type User struct {
	BaseModel
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Name         string `gorm:"size:100;not null" json:"name"`
	City         string `gorm:"size:100" json:"city,omitempty"`
}

type FriendRequest struct {
	BaseModel
	FromUserID uint `gorm:"not null;index" json:"fromUserId"`
	ToUserID   uint `gorm:"not null;index" json:"toUserId"`
	From       User `gorm:"foreignKey:FromUserID" json:"-"`
	To         User `gorm:"foreignKey:ToUserID" json:"-"`
}

// Friendship rows are stored in both directions so listing a user's friends
// is a single indexed query.
type Friendship struct {
	BaseModel
	UserID   uint `gorm:"not null;uniqueIndex:idx_friend_pair" json:"userId"`
	FriendID uint `gorm:"not null;uniqueIndex:idx_friend_pair" json:"friendId"`
}
