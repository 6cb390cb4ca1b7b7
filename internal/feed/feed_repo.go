package feed

import (
	"context"
	"time"

	"maggram/internal/dbmysql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FeedRepository struct {
	db *gorm.DB
}

func NewFeedRepository(db *gorm.DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// --------- POSTS ---------

type Posts interface {
	CreatePost(ctx context.Context, post *dbmysql.Post) error
	GetPostByID(ctx context.Context, id int64) (*dbmysql.Post, error)
	DeletePost(ctx context.Context, id int64) error
	RecentPosts(ctx context.Context, limit int) ([]dbmysql.Post, error)
	PostsSince(ctx context.Context, cutoff time.Time, limit int) ([]dbmysql.Post, error)
	PostsByAuthors(ctx context.Context, authorIDs []uint64) ([]dbmysql.Post, error)
}

func (r *FeedRepository) CreatePost(ctx context.Context, post *dbmysql.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *FeedRepository) GetPostByID(ctx context.Context, id int64) (*dbmysql.Post, error) {
	var post dbmysql.Post
	err := r.db.WithContext(ctx).Preload("Images").First(&post, "post_id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *FeedRepository) DeletePost(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&dbmysql.Like{}, "post_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&dbmysql.Comment{}, "post_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&dbmysql.PostImage{}, "post_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&dbmysql.Post{}, "post_id = ?", id).Error
	})
}

func (r *FeedRepository) RecentPosts(ctx context.Context, limit int) ([]dbmysql.Post, error) {
	var posts []dbmysql.Post
	err := r.db.WithContext(ctx).
		Preload("Images").
		Order("created_at DESC, post_id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *FeedRepository) PostsSince(ctx context.Context, cutoff time.Time, limit int) ([]dbmysql.Post, error) {
	var posts []dbmysql.Post
	err := r.db.WithContext(ctx).
		Preload("Images").
		Where("created_at > ?", cutoff).
		Order("created_at DESC, post_id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *FeedRepository) PostsByAuthors(ctx context.Context, authorIDs []uint64) ([]dbmysql.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	var posts []dbmysql.Post
	err := r.db.WithContext(ctx).
		Preload("Images").
		Where("author_id IN ?", authorIDs).
		Order("created_at DESC, post_id DESC").
		Find(&posts).Error
	return posts, err
}

// --------- LIKES ---------

type Likes interface {
	AddLike(ctx context.Context, postID int64, userID uint64) error
	RemoveLike(ctx context.Context, postID int64, userID uint64) error
	LikeCounts(ctx context.Context, postIDs []int64) (map[int64]int64, error)
	LikedSet(ctx context.Context, userID uint64, postIDs []int64) (map[int64]bool, error)
	RecentLikedBodies(ctx context.Context, userID uint64, limit int) ([]string, error)
}

// AddLike is idempotent: liking an already-liked post is a no-op.
func (r *FeedRepository) AddLike(ctx context.Context, postID int64, userID uint64) error {
	like := dbmysql.Like{PostID: postID, UserID: userID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like).Error
}

func (r *FeedRepository) RemoveLike(ctx context.Context, postID int64, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&dbmysql.Like{}).Error
}

type postCount struct {
	PostID int64
	Count  int64
}

func (r *FeedRepository) LikeCounts(ctx context.Context, postIDs []int64) (map[int64]int64, error) {
	counts := map[int64]int64{}
	if len(postIDs) == 0 {
		return counts, nil
	}
	var rows []postCount
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Like{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	return counts, nil
}

func (r *FeedRepository) LikedSet(ctx context.Context, userID uint64, postIDs []int64) (map[int64]bool, error) {
	liked := map[int64]bool{}
	if userID == 0 || len(postIDs) == 0 {
		return liked, nil
	}
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

// RecentLikedBodies returns the bodies of the posts the user liked most
// recently, newest like first.
func (r *FeedRepository) RecentLikedBodies(ctx context.Context, userID uint64, limit int) ([]string, error) {
	var bodies []string
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Like{}).
		Select("posts.code").
		Joins("JOIN posts ON posts.post_id = likes.post_id").
		Where("likes.user_id = ?", userID).
		Order("likes.created_at DESC").
		Limit(limit).
		Pluck("posts.code", &bodies).Error
	return bodies, err
}

// --------- COMMENTS ---------

type Comments interface {
	AddComment(ctx context.Context, comment *dbmysql.Comment) error
	ListComments(ctx context.Context, postID int64) ([]dbmysql.Comment, error)
	CommentCounts(ctx context.Context, postIDs []int64) (map[int64]int64, error)
}

func (r *FeedRepository) AddComment(ctx context.Context, comment *dbmysql.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *FeedRepository) ListComments(ctx context.Context, postID int64) ([]dbmysql.Comment, error) {
	var comments []dbmysql.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (r *FeedRepository) CommentCounts(ctx context.Context, postIDs []int64) (map[int64]int64, error) {
	counts := map[int64]int64{}
	if len(postIDs) == 0 {
		return counts, nil
	}
	var rows []postCount
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Comment{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	return counts, nil
}

// --------- FOLLOW GRAPH ---------

type Graph interface {
	FolloweeIDs(ctx context.Context, userID uint64) ([]uint64, error)
}

func (r *FeedRepository) FolloweeIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followee_id", &ids).Error
	return ids, err
}
