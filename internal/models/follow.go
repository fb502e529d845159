// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Follow is a directed edge: FollowerID follows FollowingID.
// A pair may exist at most once.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follows_pair" json:"followerId"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follows_pair;index" json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`

	Follower  *User `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Following *User `gorm:"foreignKey:FollowingID" json:"following,omitempty"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// Message is a direct message between two users.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uint      `gorm:"not null;index" json:"senderId"`
	ReceiverID uint      `gorm:"not null;index" json:"receiverId"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Timestamp  time.Time `gorm:"not null;autoCreateTime;index" json:"timestamp"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

// InvolvesUser reports whether userID sent or received the message.
func (m *Message) InvolvesUser(userID uint) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// Collection is a named, user-owned set of posts.
type Collection struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	Posts     []Post    `gorm:"many2many:collection_posts" json:"posts"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
