package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"maggram/internal/apperr"
	"maggram/internal/dbmongo"
	"maggram/internal/dbmysql"

	"gorm.io/gorm"
)

// media helper to generate post image URLs
var MediaBaseURL = "/media/"

func GetMediaURL(fileID string) string {
	return fmt.Sprintf("%s%s", MediaBaseURL, fileID)
}

// PostView is a post as rendered to a viewer: aggregate counts plus the
// per-viewer likedByMe flag. The raw liked-post-id set backing that
// flag is never serialized.
type PostView struct {
	PostID       int64     `json:"post_id"`
	AuthorID     uint64    `json:"author_id"`
	Code         string    `json:"code"`
	Language     string    `json:"language,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
	LikedByMe    bool      `json:"liked_by_me"`
	ImageURLs    []string  `json:"image_urls,omitempty"`
}

// ImageUpload is one image file from a multipart post-create request.
type ImageUpload struct {
	FileName string
	MimeType string
	Content  io.Reader
}

// MediaStore is the slice of the GridFS storage the feed needs.
type MediaStore interface {
	UploadImage(ctx context.Context, filename, mimeType string, uploaderID uint64, content io.Reader) (*dbmongo.MediaFile, error)
	DeleteImage(ctx context.Context, fileID string) error
}

type FeedUsecase interface {
	GetFeed(ctx context.Context, viewerID uint64, mode Mode) ([]PostView, error)
	CreatePost(ctx context.Context, authorID uint64, code, language string, images []ImageUpload) (*PostView, error)
	GetPost(ctx context.Context, viewerID uint64, postID int64) (*PostView, error)
	DeletePost(ctx context.Context, requesterID uint64, postID int64) error
	LikePost(ctx context.Context, userID uint64, postID int64) error
	UnlikePost(ctx context.Context, userID uint64, postID int64) error
	AddComment(ctx context.Context, userID uint64, postID int64, body string) (*dbmysql.Comment, error)
	ListComments(ctx context.Context, postID int64) ([]dbmysql.Comment, error)
}

type FeedService struct {
	posts    Posts
	likes    Likes
	comments Comments
	graph    Graph
	media    MediaStore

	now func() time.Time
}

func NewFeedService(p Posts, l Likes, c Comments, g Graph, m MediaStore) *FeedService {
	return &FeedService{
		posts:    p,
		likes:    l,
		comments: c,
		graph:    g,
		media:    m,
		now:      time.Now,
	}
}

// --------- RANKING ---------

// GetFeed computes the ranked feed for a viewer (0 = anonymous). Pure
// read: it never mutates posts, likes or scores. Any store failure
// fails the whole request; no partial results.
func (s *FeedService) GetFeed(ctx context.Context, viewerID uint64, mode Mode) ([]PostView, error) {
	now := s.now()

	switch mode {
	case ModeFollowing:
		return s.followingFeed(ctx, viewerID)
	case ModePopular:
		return s.popularFeed(ctx, viewerID, now)
	default:
		return s.forYouFeed(ctx, viewerID, now)
	}
}

// followingFeed is posts by followees plus the viewer, newest first, no
// scoring. There is no anonymous following feed.
func (s *FeedService) followingFeed(ctx context.Context, viewerID uint64) ([]PostView, error) {
	if viewerID == 0 {
		return nil, apperr.Unauthorized("following feed requires login")
	}

	followees, err := s.graph.FolloweeIDs(ctx, viewerID)
	if err != nil {
		return nil, apperr.Internal("feed query failed", err)
	}
	authors := append(followees, viewerID)

	posts, err := s.posts.PostsByAuthors(ctx, authors)
	if err != nil {
		return nil, apperr.Internal("feed query failed", err)
	}

	return s.buildViews(ctx, viewerID, posts)
}

// popularFeed scores the last 48 hours of posts by likes with age
// decay. Ties keep fetch order (creation time descending).
func (s *FeedService) popularFeed(ctx context.Context, viewerID uint64, now time.Time) ([]PostView, error) {
	posts, err := s.posts.PostsSince(ctx, now.Add(-popularWindow), popularFetchLimit)
	if err != nil {
		return nil, apperr.Internal("feed query failed", err)
	}

	views, err := s.buildViews(ctx, viewerID, posts)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(views))
	for i, v := range views {
		scores[i] = PopularScore(v.LikeCount, ageHours(v.CreatedAt, now))
	}
	sortByScoreStable(views, scores)

	return views, nil
}

// forYouFeed matches candidates against the viewer's hashtag interest
// profile built from their recent likes. Viewers with no usable
// profile (anonymous, no likes, or no hashtags in liked posts) get the
// recent-posts fallback.
func (s *FeedService) forYouFeed(ctx context.Context, viewerID uint64, now time.Time) ([]PostView, error) {
	if viewerID == 0 {
		posts, err := s.posts.RecentPosts(ctx, recentFetchLimit)
		if err != nil {
			return nil, apperr.Internal("feed query failed", err)
		}
		return s.buildViews(ctx, 0, posts)
	}

	bodies, err := s.likes.RecentLikedBodies(ctx, viewerID, likeHistoryLimit)
	if err != nil {
		return nil, apperr.Internal("feed query failed", err)
	}
	profile := TagProfile(bodies)

	if len(profile) == 0 {
		posts, err := s.posts.RecentPosts(ctx, recentFetchLimit)
		if err != nil {
			return nil, apperr.Internal("feed query failed", err)
		}
		return s.buildViews(ctx, viewerID, posts)
	}

	posts, err := s.posts.RecentPosts(ctx, forYouFetchLimit)
	if err != nil {
		return nil, apperr.Internal("feed query failed", err)
	}

	views, err := s.buildViews(ctx, viewerID, posts)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(views))
	for i, v := range views {
		match := MatchWeight(v.Code, profile)
		scores[i] = ForYouScore(match, v.LikeCount, ageHours(v.CreatedAt, now))
	}
	sortByScoreStable(views, scores)

	if len(views) > forYouResultLimit {
		views = views[:forYouResultLimit]
	}
	return views, nil
}

// buildViews attaches aggregate counts and the likedByMe flag to a
// candidate batch, preserving its order.
func (s *FeedService) buildViews(ctx context.Context, viewerID uint64, posts []dbmysql.Post) ([]PostView, error) {
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.PostID
	}

	likeCounts, err := s.likes.LikeCounts(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("feed query failed", err)
	}
	commentCounts, err := s.comments.CommentCounts(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("feed query failed", err)
	}
	liked, err := s.likes.LikedSet(ctx, viewerID, ids)
	if err != nil {
		return nil, apperr.Internal("feed query failed", err)
	}

	views := make([]PostView, len(posts))
	for i, p := range posts {
		var urls []string
		for _, img := range p.Images {
			urls = append(urls, GetMediaURL(img.FileID))
		}
		views[i] = PostView{
			PostID:       p.PostID,
			AuthorID:     p.AuthorID,
			Code:         p.Code,
			Language:     p.Language,
			CreatedAt:    p.CreatedAt,
			LikeCount:    likeCounts[p.PostID],
			CommentCount: commentCounts[p.PostID],
			LikedByMe:    liked[p.PostID],
			ImageURLs:    urls,
		}
	}
	return views, nil
}

// --------- POSTS ---------

func (s *FeedService) CreatePost(ctx context.Context, authorID uint64, code, language string, images []ImageUpload) (*PostView, error) {
	if code == "" && len(images) == 0 {
		return nil, apperr.InvalidArg("post must have code or images")
	}

	post := &dbmysql.Post{
		AuthorID: authorID,
		Code:     code,
		Language: language,
	}

	var uploaded []string
	for _, img := range images {
		file, err := s.media.UploadImage(ctx, img.FileName, img.MimeType, authorID, img.Content)
		if err != nil {
			return nil, apperr.Internal("image upload failed", err)
		}
		uploaded = append(uploaded, file.ID)
		post.Images = append(post.Images, dbmysql.PostImage{FileID: file.ID})
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		// roll back orphaned uploads, best effort
		for _, id := range uploaded {
			_ = s.media.DeleteImage(ctx, id)
		}
		return nil, apperr.Internal("post create failed", err)
	}

	return s.GetPost(ctx, authorID, post.PostID)
}

func (s *FeedService) GetPost(ctx context.Context, viewerID uint64, postID int64) (*PostView, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("post not found")
		}
		return nil, apperr.Internal("post query failed", err)
	}

	views, err := s.buildViews(ctx, viewerID, []dbmysql.Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *FeedService) DeletePost(ctx context.Context, requesterID uint64, postID int64) error {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("post not found")
		}
		return apperr.Internal("post query failed", err)
	}
	if post.AuthorID != requesterID {
		return apperr.Forbidden("only the author can delete a post")
	}

	// Don't fail the delete if image cleanup fails
	for _, img := range post.Images {
		_ = s.media.DeleteImage(ctx, img.FileID)
	}

	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return apperr.Internal("post delete failed", err)
	}
	return nil
}

// --------- LIKES ---------

func (s *FeedService) LikePost(ctx context.Context, userID uint64, postID int64) error {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("post not found")
		}
		return apperr.Internal("post query failed", err)
	}
	if err := s.likes.AddLike(ctx, postID, userID); err != nil {
		return apperr.Internal("like failed", err)
	}
	return nil
}

func (s *FeedService) UnlikePost(ctx context.Context, userID uint64, postID int64) error {
	if err := s.likes.RemoveLike(ctx, postID, userID); err != nil {
		return apperr.Internal("unlike failed", err)
	}
	return nil
}

// --------- COMMENTS ---------

func (s *FeedService) AddComment(ctx context.Context, userID uint64, postID int64, body string) (*dbmysql.Comment, error) {
	if body == "" {
		return nil, apperr.InvalidArg("comment body is required")
	}
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("post not found")
		}
		return nil, apperr.Internal("post query failed", err)
	}

	comment := &dbmysql.Comment{
		PostID: postID,
		UserID: userID,
		Body:   body,
	}
	if err := s.comments.AddComment(ctx, comment); err != nil {
		return nil, apperr.Internal("comment create failed", err)
	}
	return comment, nil
}

func (s *FeedService) ListComments(ctx context.Context, postID int64) ([]dbmysql.Comment, error) {
	comments, err := s.comments.ListComments(ctx, postID)
	if err != nil {
		return nil, apperr.Internal("comment query failed", err)
	}
	return comments, nil
}
