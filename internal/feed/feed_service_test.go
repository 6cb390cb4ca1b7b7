package feed

import (
	"context"
	"fmt"
	"io"
	"sort"
	"testing"
	"time"

	"maggram/internal/apperr"
	"maggram/internal/dbmongo"
	"maggram/internal/dbmysql"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ---- In-memory fakes for repositories ----

type fakeStore struct {
	posts    []dbmysql.Post
	nextPost int64
	likes    []dbmysql.Like // insertion order doubles as like recency
	nextLike int64
	follows  map[uint64][]uint64
	comments map[int64][]dbmysql.Comment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextPost: 1,
		nextLike: 1,
		follows:  map[uint64][]uint64{},
		comments: map[int64][]dbmysql.Comment{},
	}
}

func (f *fakeStore) addPost(author uint64, code string, createdAt time.Time) int64 {
	id := f.nextPost
	f.nextPost++
	f.posts = append(f.posts, dbmysql.Post{
		PostID:    id,
		AuthorID:  author,
		Code:      code,
		CreatedAt: createdAt,
	})
	return id
}

func (f *fakeStore) addLike(user uint64, post int64) {
	for _, l := range f.likes {
		if l.PostID == post && l.UserID == user {
			return
		}
	}
	f.likes = append(f.likes, dbmysql.Like{ID: f.nextLike, PostID: post, UserID: user})
	f.nextLike++
}

func sortedDesc(posts []dbmysql.Post) []dbmysql.Post {
	out := make([]dbmysql.Post, len(posts))
	copy(out, posts)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].PostID > out[j].PostID
	})
	return out
}

// Posts

func (f *fakeStore) CreatePost(ctx context.Context, post *dbmysql.Post) error {
	post.PostID = f.nextPost
	f.nextPost++
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	f.posts = append(f.posts, *post)
	return nil
}

func (f *fakeStore) GetPostByID(ctx context.Context, id int64) (*dbmysql.Post, error) {
	for _, p := range f.posts {
		if p.PostID == id {
			pp := p
			return &pp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) DeletePost(ctx context.Context, id int64) error {
	var kept []dbmysql.Post
	for _, p := range f.posts {
		if p.PostID != id {
			kept = append(kept, p)
		}
	}
	f.posts = kept
	return nil
}

func (f *fakeStore) RecentPosts(ctx context.Context, limit int) ([]dbmysql.Post, error) {
	out := sortedDesc(f.posts)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) PostsSince(ctx context.Context, cutoff time.Time, limit int) ([]dbmysql.Post, error) {
	var in []dbmysql.Post
	for _, p := range f.posts {
		if p.CreatedAt.After(cutoff) {
			in = append(in, p)
		}
	}
	out := sortedDesc(in)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) PostsByAuthors(ctx context.Context, authorIDs []uint64) ([]dbmysql.Post, error) {
	want := map[uint64]bool{}
	for _, id := range authorIDs {
		want[id] = true
	}
	var in []dbmysql.Post
	for _, p := range f.posts {
		if want[p.AuthorID] {
			in = append(in, p)
		}
	}
	return sortedDesc(in), nil
}

// Likes

func (f *fakeStore) AddLike(ctx context.Context, postID int64, userID uint64) error {
	f.addLike(userID, postID)
	return nil
}

func (f *fakeStore) RemoveLike(ctx context.Context, postID int64, userID uint64) error {
	var kept []dbmysql.Like
	for _, l := range f.likes {
		if !(l.PostID == postID && l.UserID == userID) {
			kept = append(kept, l)
		}
	}
	f.likes = kept
	return nil
}

func (f *fakeStore) LikeCounts(ctx context.Context, postIDs []int64) (map[int64]int64, error) {
	want := map[int64]bool{}
	for _, id := range postIDs {
		want[id] = true
	}
	counts := map[int64]int64{}
	for _, l := range f.likes {
		if want[l.PostID] {
			counts[l.PostID]++
		}
	}
	return counts, nil
}

func (f *fakeStore) LikedSet(ctx context.Context, userID uint64, postIDs []int64) (map[int64]bool, error) {
	liked := map[int64]bool{}
	if userID == 0 {
		return liked, nil
	}
	want := map[int64]bool{}
	for _, id := range postIDs {
		want[id] = true
	}
	for _, l := range f.likes {
		if l.UserID == userID && want[l.PostID] {
			liked[l.PostID] = true
		}
	}
	return liked, nil
}

func (f *fakeStore) RecentLikedBodies(ctx context.Context, userID uint64, limit int) ([]string, error) {
	var bodies []string
	for i := len(f.likes) - 1; i >= 0 && len(bodies) < limit; i-- {
		l := f.likes[i]
		if l.UserID != userID {
			continue
		}
		if p, err := f.GetPostByID(ctx, l.PostID); err == nil {
			bodies = append(bodies, p.Code)
		}
	}
	return bodies, nil
}

// Comments

func (f *fakeStore) AddComment(ctx context.Context, comment *dbmysql.Comment) error {
	comment.CommentID = int64(len(f.comments[comment.PostID]) + 1)
	f.comments[comment.PostID] = append(f.comments[comment.PostID], *comment)
	return nil
}

func (f *fakeStore) ListComments(ctx context.Context, postID int64) ([]dbmysql.Comment, error) {
	return f.comments[postID], nil
}

func (f *fakeStore) CommentCounts(ctx context.Context, postIDs []int64) (map[int64]int64, error) {
	counts := map[int64]int64{}
	for _, id := range postIDs {
		if n := len(f.comments[id]); n > 0 {
			counts[id] = int64(n)
		}
	}
	return counts, nil
}

// Graph

func (f *fakeStore) FolloweeIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	return f.follows[userID], nil
}

// ---- Test setup ----

var baseTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

type stubMedia struct {
	next    int
	deleted []string
}

func (m *stubMedia) UploadImage(ctx context.Context, filename, mimeType string, uploaderID uint64, content io.Reader) (*dbmongo.MediaFile, error) {
	m.next++
	return &dbmongo.MediaFile{ID: fmt.Sprintf("file%d", m.next), Filename: filename}, nil
}

func (m *stubMedia) DeleteImage(ctx context.Context, fileID string) error {
	m.deleted = append(m.deleted, fileID)
	return nil
}

func newTestService() (*FeedService, *fakeStore, *stubMedia) {
	st := newFakeStore()
	media := &stubMedia{}
	svc := NewFeedService(st, st, st, st, media)
	svc.now = func() time.Time { return baseTime }
	return svc, st, media
}

func viewIDs(views []PostView) []int64 {
	ids := make([]int64, len(views))
	for i, v := range views {
		ids[i] = v.PostID
	}
	return ids
}

// ---- Ranking behavior ----

func TestGetFeed_FollowingRequiresViewer(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.GetFeed(context.Background(), 0, ModeFollowing)
	require.Error(t, err)
	require.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
}

func TestGetFeed_FollowingCompleteness(t *testing.T) {
	svc, st, _ := newTestService()
	ctx := context.Background()

	st.follows[1] = []uint64{2, 3}
	p1 := st.addPost(1, "mine", baseTime.Add(-3*time.Hour))
	p2 := st.addPost(2, "followee two", baseTime.Add(-1*time.Hour))
	p3 := st.addPost(3, "followee three", baseTime.Add(-2*time.Hour))
	st.addPost(4, "stranger", baseTime.Add(-30*time.Minute))
	st.addLike(1, p2)

	views, err := svc.GetFeed(ctx, 1, ModeFollowing)
	require.NoError(t, err)

	// Exactly followee ∪ self posts, creation time descending.
	require.Equal(t, []int64{p2, p3, p1}, viewIDs(views))

	require.True(t, views[0].LikedByMe)
	require.False(t, views[1].LikedByMe)
	require.EqualValues(t, 1, views[0].LikeCount)
}

func TestGetFeed_PopularExcludesOldPosts(t *testing.T) {
	svc, st, _ := newTestService()

	tooOld := st.addPost(1, "49 hours old", baseTime.Add(-49*time.Hour))
	inWindow := st.addPost(1, "1 hour old", baseTime.Add(-1*time.Hour))

	views, err := svc.GetFeed(context.Background(), 0, ModePopular)
	require.NoError(t, err)

	ids := viewIDs(views)
	require.Contains(t, ids, inWindow)
	require.NotContains(t, ids, tooOld)
}

func TestGetFeed_PopularFreshnessDecay(t *testing.T) {
	svc, st, _ := newTestService()

	old := st.addPost(1, "old", baseTime.Add(-47*time.Hour))
	fresh := st.addPost(2, "fresh", baseTime.Add(-1*time.Hour))
	// Same like count on both.
	st.addLike(10, old)
	st.addLike(11, old)
	st.addLike(10, fresh)
	st.addLike(11, fresh)

	views, err := svc.GetFeed(context.Background(), 0, ModePopular)
	require.NoError(t, err)
	require.Equal(t, []int64{fresh, old}, viewIDs(views))
}

func TestGetFeed_PopularTiesKeepFetchOrder(t *testing.T) {
	svc, st, _ := newTestService()

	older := st.addPost(1, "older zero likes", baseTime.Add(-10*time.Hour))
	newer := st.addPost(2, "newer zero likes", baseTime.Add(-5*time.Hour))

	views, err := svc.GetFeed(context.Background(), 0, ModePopular)
	require.NoError(t, err)
	require.Equal(t, []int64{newer, older}, viewIDs(views))
}

func TestGetFeed_ForYouAnonymous(t *testing.T) {
	svc, st, _ := newTestService()

	p1 := st.addPost(1, "first", baseTime.Add(-2*time.Hour))
	p2 := st.addPost(2, "second", baseTime.Add(-1*time.Hour))
	st.addLike(5, p1)

	views, err := svc.GetFeed(context.Background(), 0, ModeForYou)
	require.NoError(t, err)

	require.Equal(t, []int64{p2, p1}, viewIDs(views))
	for _, v := range views {
		require.False(t, v.LikedByMe)
	}
}

func TestGetFeed_ForYouFallbackNoLikes(t *testing.T) {
	svc, st, _ := newTestService()

	p1 := st.addPost(1, "first", baseTime.Add(-2*time.Hour))
	p2 := st.addPost(2, "second", baseTime.Add(-1*time.Hour))

	// Viewer 7 has no likes: same order as the anonymous recent path.
	views, err := svc.GetFeed(context.Background(), 7, ModeForYou)
	require.NoError(t, err)
	require.Equal(t, []int64{p2, p1}, viewIDs(views))
}

func TestGetFeed_ForYouFallbackNoHashtagsInLikes(t *testing.T) {
	svc, st, _ := newTestService()

	plain := st.addPost(1, "no tags in this snippet", baseTime.Add(-3*time.Hour))
	p2 := st.addPost(2, "second", baseTime.Add(-1*time.Hour))
	st.addLike(7, plain)

	views, err := svc.GetFeed(context.Background(), 7, ModeForYou)
	require.NoError(t, err)

	// Fallback ordering with real likedByMe flags.
	require.Equal(t, []int64{p2, plain}, viewIDs(views))
	require.False(t, views[0].LikedByMe)
	require.True(t, views[1].LikedByMe)
}

func TestGetFeed_ForYouMatchOutranksLikes(t *testing.T) {
	svc, st, _ := newTestService()
	ctx := context.Background()

	// Viewer 7 liked #rust three times and #go once.
	for i := 0; i < 3; i++ {
		liked := st.addPost(1, fmt.Sprintf("snippet %d #rust", i), baseTime.Add(-20*time.Hour))
		st.addLike(7, liked)
	}
	likedGo := st.addPost(1, "a #go snippet", baseTime.Add(-20*time.Hour))
	st.addLike(7, likedGo)

	tagged := st.addPost(2, "lifetimes made easy #rust", baseTime.Add(-1*time.Hour))
	untagged := st.addPost(3, "untagged but popular", baseTime.Add(-1*time.Hour))
	for u := uint64(20); u < 25; u++ {
		st.addLike(u, tagged) // 5 likes
	}
	for u := uint64(20); u < 40; u++ {
		st.addLike(u, untagged) // 20 likes
	}

	views, err := svc.GetFeed(ctx, 7, ModeForYou)
	require.NoError(t, err)

	ids := viewIDs(views)
	posTagged, posUntagged := -1, -1
	for i, id := range ids {
		if id == tagged {
			posTagged = i
		}
		if id == untagged {
			posUntagged = i
		}
	}
	require.NotEqual(t, -1, posTagged)
	require.NotEqual(t, -1, posUntagged)
	require.Less(t, posTagged, posUntagged)
}

func TestGetFeed_ForYouResultLimit(t *testing.T) {
	svc, st, _ := newTestService()

	liked := st.addPost(1, "seed #rust", baseTime.Add(-40*time.Hour))
	st.addLike(7, liked)

	for i := 0; i < forYouResultLimit+20; i++ {
		st.addPost(2, fmt.Sprintf("candidate %d #rust", i), baseTime.Add(-time.Duration(i)*time.Minute))
	}

	views, err := svc.GetFeed(context.Background(), 7, ModeForYou)
	require.NoError(t, err)
	require.Len(t, views, forYouResultLimit)
}

func TestGetFeed_Deterministic(t *testing.T) {
	svc, st, _ := newTestService()
	ctx := context.Background()

	liked := st.addPost(1, "seed #rust #go", baseTime.Add(-30*time.Hour))
	st.addLike(7, liked)
	for i := 0; i < 30; i++ {
		tag := "#rust"
		if i%3 == 0 {
			tag = "#go"
		}
		p := st.addPost(2, fmt.Sprintf("candidate %d %s", i, tag), baseTime.Add(-time.Duration(i+1)*time.Hour))
		if i%2 == 0 {
			st.addLike(uint64(100+i), p)
		}
	}

	first, err := svc.GetFeed(ctx, 7, ModeForYou)
	require.NoError(t, err)
	second, err := svc.GetFeed(ctx, 7, ModeForYou)
	require.NoError(t, err)
	require.Equal(t, viewIDs(first), viewIDs(second))
}

func TestGetFeed_NoDuplicates(t *testing.T) {
	svc, st, _ := newTestService()

	st.follows[1] = []uint64{2}
	st.addPost(1, "mine", baseTime.Add(-1*time.Hour))
	st.addPost(2, "theirs", baseTime.Add(-2*time.Hour))

	views, err := svc.GetFeed(context.Background(), 1, ModeFollowing)
	require.NoError(t, err)

	seen := map[int64]bool{}
	for _, v := range views {
		require.False(t, seen[v.PostID], "duplicate post %d", v.PostID)
		seen[v.PostID] = true
	}
}

// ---- Post / like / comment operations ----

func TestCreatePost_RequiresCodeOrImages(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreatePost(context.Background(), 1, "", "", nil)
	require.Error(t, err)
	require.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestCreatePost_Success(t *testing.T) {
	svc, _, _ := newTestService()

	view, err := svc.CreatePost(context.Background(), 1, "fmt.Println(42)", "go", nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, view.AuthorID)
	require.Equal(t, "fmt.Println(42)", view.Code)
	require.False(t, view.LikedByMe)
}

func TestDeletePost_OwnerOnly(t *testing.T) {
	svc, st, _ := newTestService()
	ctx := context.Background()

	p := st.addPost(1, "mine", baseTime)

	err := svc.DeletePost(ctx, 2, p)
	require.Equal(t, apperr.CodePermissionDenied, apperr.CodeOf(err))

	require.NoError(t, svc.DeletePost(ctx, 1, p))
	_, err = svc.GetPost(ctx, 1, p)
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestLikePost_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.LikePost(context.Background(), 1, 999)
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestLikeUnlikeRoundTrip(t *testing.T) {
	svc, st, _ := newTestService()
	ctx := context.Background()

	p := st.addPost(1, "snippet", baseTime.Add(-1*time.Hour))

	require.NoError(t, svc.LikePost(ctx, 2, p))
	require.NoError(t, svc.LikePost(ctx, 2, p)) // idempotent

	view, err := svc.GetPost(ctx, 2, p)
	require.NoError(t, err)
	require.EqualValues(t, 1, view.LikeCount)
	require.True(t, view.LikedByMe)

	require.NoError(t, svc.UnlikePost(ctx, 2, p))
	view, err = svc.GetPost(ctx, 2, p)
	require.NoError(t, err)
	require.EqualValues(t, 0, view.LikeCount)
	require.False(t, view.LikedByMe)
}

func TestAddComment(t *testing.T) {
	svc, st, _ := newTestService()
	ctx := context.Background()

	p := st.addPost(1, "snippet", baseTime)

	_, err := svc.AddComment(ctx, 2, p, "")
	require.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	comment, err := svc.AddComment(ctx, 2, p, "nice one")
	require.NoError(t, err)
	require.Equal(t, "nice one", comment.Body)

	comments, err := svc.ListComments(ctx, p)
	require.NoError(t, err)
	require.Len(t, comments, 1)
}
