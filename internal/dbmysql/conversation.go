package dbmysql

import (
	"time"
)

type Conversation struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// ConversationMember is one participant of a conversation, unique per
// (conversation, user) pair.
type ConversationMember struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID string    `gorm:"column:conversation_id;size:36;not null;index:idx_conv_member,unique" json:"conversation_id"`
	UserID         uint64    `gorm:"column:user_id;not null;index:idx_conv_member,unique" json:"user_id"`
	JoinedAt       time.Time `gorm:"column:joined_at;autoCreateTime" json:"joined_at"`
}
