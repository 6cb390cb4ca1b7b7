package dbmysql

import (
	"time"
)

// Follow records that FollowerID follows FolloweeID. One row per
// directed edge, unique per pair.
type Follow struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	FollowerID uint64    `gorm:"column:follower_id;not null;index:idx_follow_edge,unique" json:"follower_id"`
	FolloweeID uint64    `gorm:"column:followee_id;not null;index:idx_follow_edge,unique" json:"followee_id"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
