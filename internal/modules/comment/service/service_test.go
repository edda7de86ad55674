package service

import (
	"context"
	"testing"
	"time"

	"anoa.com/karmafeed/internal/entity"
	commentDto "anoa.com/karmafeed/internal/modules/comment/dto"
	commentRepo "anoa.com/karmafeed/internal/modules/comment/repository"
	counterRepo "anoa.com/karmafeed/internal/modules/counter/repository"
	likeRepo "anoa.com/karmafeed/internal/modules/like/repository"
	"anoa.com/karmafeed/internal/testutil"
	"anoa.com/karmafeed/pkg/apperror"
	"anoa.com/karmafeed/pkg/ratelimiter"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T, db *gorm.DB, limiter *ratelimiter.Limiter) CommentService {
	t.Helper()
	return NewCommentService(
		db,
		commentRepo.NewCommentRepository(db),
		counterRepo.NewCounterRepository(db),
		likeRepo.NewLikeRepository(db),
		limiter,
		2*time.Second,
	)
}

func commentCount(t *testing.T, db *gorm.DB, postID uuid.UUID) int64 {
	t.Helper()
	var post entity.Post
	require.NoError(t, db.First(&post, "id = ?", postID).Error)
	return post.CommentCount
}

func TestCreateComment_Thread(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newService(t, db, nil)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	post := testutil.CreatePost(t, db, alice.ID)

	root, err := svc.CreateComment(ctx, bob.ID, post.ID, commentDto.CreateCommentRequest{Content: "first!"})
	require.NoError(t, err)
	assert.Equal(t, 0, root.Depth)
	assert.Nil(t, root.ParentID)
	assert.Equal(t, "bob", root.Author.Username)

	reply, err := svc.CreateComment(ctx, alice.ID, post.ID, commentDto.CreateCommentRequest{
		Content:  "thanks",
		ParentID: root.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, reply.Depth)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, root.ID, *reply.ParentID)

	assert.Equal(t, int64(2), commentCount(t, db, post.ID))
}

func TestCreateComment_SanitizesContent(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newService(t, db, nil)
	alice := testutil.CreateUser(t, db, "alice")
	post := testutil.CreatePost(t, db, alice.ID)

	resp, err := svc.CreateComment(context.Background(), alice.ID, post.ID, commentDto.CreateCommentRequest{
		Content: `<b>bold</b><script>alert(1)</script>`,
	})
	require.NoError(t, err)
	assert.Equal(t, "<b>bold</b>", resp.Content)

	_, err = svc.CreateComment(context.Background(), alice.ID, post.ID, commentDto.CreateCommentRequest{
		Content: `<script>alert(1)</script>`,
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Equal(t, int64(1), commentCount(t, db, post.ID))
}

func TestCreateComment_Rejections(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newService(t, db, nil)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	post := testutil.CreatePost(t, db, alice.ID)
	other := testutil.CreatePost(t, db, alice.ID)
	foreign := testutil.CreateComment(t, db, other.ID, alice.ID, nil)

	deepest := testutil.CreateComment(t, db, post.ID, alice.ID, nil)
	for deepest.Depth < entity.MaxCommentDepth {
		deepest = testutil.CreateComment(t, db, post.ID, alice.ID, deepest)
	}

	tests := []struct {
		name   string
		postID uuid.UUID
		parent string
		target error
	}{
		{"unknown post", uuid.New(), "", apperror.ErrNotFound},
		{"unknown parent", post.ID, uuid.NewString(), apperror.ErrBadRequest},
		{"parent on another post", post.ID, foreign.ID.String(), apperror.ErrBadRequest},
		{"too deep", post.ID, deepest.ID.String(), apperror.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateComment(ctx, alice.ID, tt.postID, commentDto.CreateCommentRequest{
				Content:  "hello",
				ParentID: tt.parent,
			})
			assert.ErrorIs(t, err, tt.target)
		})
	}

	// nothing was counted for the rejected comments
	assert.Zero(t, commentCount(t, db, post.ID))
}

func TestCreateComment_Cooldown(t *testing.T) {
	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	limiter := ratelimiter.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	svc := newService(t, db, limiter)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	post := testutil.CreatePost(t, db, alice.ID)

	// a failed attempt does not burn the cooldown
	_, err := svc.CreateComment(ctx, alice.ID, uuid.New(), commentDto.CreateCommentRequest{Content: "hi"})
	require.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.CreateComment(ctx, alice.ID, post.ID, commentDto.CreateCommentRequest{Content: "hi"})
	require.NoError(t, err)

	_, err = svc.CreateComment(ctx, alice.ID, post.ID, commentDto.CreateCommentRequest{Content: "again"})
	var rateErr *ratelimiter.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)

	mr.FastForward(3 * time.Second)
	_, err = svc.CreateComment(ctx, alice.ID, post.ID, commentDto.CreateCommentRequest{Content: "again"})
	assert.NoError(t, err)
}

func TestDeleteComment_RemovesSubtree(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newService(t, db, nil)
	likes := likeRepo.NewLikeRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	post := testutil.CreatePost(t, db, alice.ID)

	// GIVEN root <- reply <- nested, plus an unrelated comment
	root, err := svc.CreateComment(ctx, alice.ID, post.ID, commentDto.CreateCommentRequest{Content: "root"})
	require.NoError(t, err)
	reply, err := svc.CreateComment(ctx, bob.ID, post.ID, commentDto.CreateCommentRequest{Content: "reply", ParentID: root.ID.String()})
	require.NoError(t, err)
	_, err = svc.CreateComment(ctx, alice.ID, post.ID, commentDto.CreateCommentRequest{Content: "nested", ParentID: reply.ID.String()})
	require.NoError(t, err)
	keep, err := svc.CreateComment(ctx, bob.ID, post.ID, commentDto.CreateCommentRequest{Content: "keep"})
	require.NoError(t, err)
	require.NoError(t, likes.Insert(ctx, &entity.Like{UserID: bob.ID, TargetKind: entity.TargetComment, TargetID: reply.ID, CreatedAt: time.Now().UTC()}))
	require.Equal(t, int64(4), commentCount(t, db, post.ID))

	// WHEN bob tries to delete alice's root
	_, err = svc.DeleteComment(ctx, bob.ID, root.ID)
	require.ErrorIs(t, err, apperror.ErrForbidden)

	// WHEN alice deletes it
	resp, err := svc.DeleteComment(ctx, alice.ID, root.ID)
	require.NoError(t, err)

	// THEN the whole subtree and its likes are gone
	assert.Equal(t, 3, resp.Removed)
	assert.Equal(t, int64(1), commentCount(t, db, post.ID))

	var remaining []entity.Comment
	require.NoError(t, db.Find(&remaining, "post_id = ?", post.ID).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, keep.ID, remaining[0].ID)

	liked, err := likes.Exists(ctx, bob.ID, entity.CommentTarget(reply.ID))
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = svc.DeleteComment(ctx, alice.ID, root.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestBuildCommentTree(t *testing.T) {
	postID := uuid.New()
	mk := func(parent *entity.Comment) *entity.Comment {
		c := &entity.Comment{ID: uuid.New(), PostID: postID}
		if parent != nil {
			c.ParentID = &parent.ID
			c.Depth = parent.Depth + 1
		}
		return c
	}

	root := mk(nil)
	child1 := mk(root)
	child2 := mk(root)
	grandchild := mk(child1)
	missingParent := &entity.Comment{ID: uuid.New()}
	orphan := mk(missingParent)

	tree := BuildCommentTree([]*entity.Comment{root, child1, child2, grandchild, orphan})

	require.Len(t, tree, 2)
	assert.Equal(t, root.ID, tree[0].ID)
	assert.Equal(t, orphan.ID, tree[1].ID)
	require.Len(t, tree[0].Replies, 2)
	assert.Equal(t, child1.ID, tree[0].Replies[0].ID)
	assert.Equal(t, child2.ID, tree[0].Replies[1].ID)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Equal(t, grandchild.ID, tree[0].Replies[0].Replies[0].ID)
	assert.Empty(t, tree[1].Replies)

	assert.Empty(t, BuildCommentTree(nil))
}
