package dbmysql

import (
	"time"
)

type Comment struct {
	CommentID int64     `gorm:"primaryKey;autoIncrement;column:comment_id" json:"comment_id"`
	PostID    int64     `gorm:"column:post_id;not null;index" json:"post_id"`
	UserID    uint64    `gorm:"column:user_id;not null" json:"user_id"`
	Body      string    `gorm:"column:body;type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
