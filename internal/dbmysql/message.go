package dbmysql

import (
	"time"
)

type Message struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID string    `gorm:"index;size:36;not null" json:"conversation_id"`
	SenderID       uint64    `gorm:"column:sender_id;not null;index" json:"sender_id"`
	Body           string    `gorm:"column:body;type:text" json:"body"`
	SentAt         time.Time `gorm:"column:sent_at" json:"sent_at"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Attachments []Attachment `gorm:"foreignKey:MessageID;references:ID" json:"attachments,omitempty"`
}
