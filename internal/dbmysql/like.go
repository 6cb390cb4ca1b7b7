package dbmysql

import (
	"time"
)

// Like is a (post, user) pair, unique per pair. Existence is the
// "liked" fact used for both aggregate counts and likedByMe flags.
type Like struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    int64     `gorm:"column:post_id;not null;index:idx_post_user_like,unique" json:"post_id"`
	UserID    uint64    `gorm:"column:user_id;not null;index:idx_post_user_like,unique" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}
