package dbmysql

import (
	"time"
)

// Post is a code snippet shared to the feed. The body may contain
// #hashtag tokens used by the ranking engine. Scores are computed
// per-request and never stored.
type Post struct {
	PostID    int64     `gorm:"primaryKey;autoIncrement;column:post_id" json:"post_id"`
	AuthorID  uint64    `gorm:"column:author_id;not null;index" json:"author_id"`
	Code      string    `gorm:"column:code;type:text;not null" json:"code"`
	Language  string    `gorm:"column:language;size:40" json:"language,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Images []PostImage `gorm:"foreignKey:PostID;references:PostID" json:"images,omitempty"`
}

// PostImage links a post to an image stored in GridFS.
type PostImage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    int64     `gorm:"column:post_id;not null;index" json:"post_id"`
	FileID    string    `gorm:"column:file_id;size:24;not null" json:"file_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
