package repository

import (
	"context"
	"testing"
	"time"

	"anoa.com/karmafeed/internal/entity"
	"anoa.com/karmafeed/internal/testutil"
	"anoa.com/karmafeed/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsert_UniquePerUserAndTarget(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	targetID := uuid.New()

	newLike := func(userID uuid.UUID, kind entity.TargetKind) *entity.Like {
		return &entity.Like{UserID: userID, TargetKind: kind, TargetID: targetID, CreatedAt: time.Now().UTC()}
	}

	require.NoError(t, repo.Insert(ctx, newLike(alice.ID, entity.TargetPost)))

	// same user, same target
	assert.ErrorIs(t, repo.Insert(ctx, newLike(alice.ID, entity.TargetPost)), ErrLikeExists)

	// same id under the other kind is a different target
	assert.NoError(t, repo.Insert(ctx, newLike(alice.ID, entity.TargetComment)))

	// another user
	assert.NoError(t, repo.Insert(ctx, newLike(bob.ID, entity.TargetPost)))
}

func TestInsert_UnknownUserIsDataIntegrityError(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLikeRepository(db)

	err := repo.Insert(context.Background(), &entity.Like{
		UserID:     uuid.New(),
		TargetKind: entity.TargetPost,
		TargetID:   uuid.New(),
		CreatedAt:  time.Now().UTC(),
	})
	assert.ErrorIs(t, err, apperror.ErrDataIntegrity)
	assert.NotErrorIs(t, err, ErrLikeExists)
}

func TestDeleteAndExists(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	target := entity.PostTarget(uuid.New())

	exists, err := repo.Exists(ctx, alice.ID, target)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Insert(ctx, &entity.Like{UserID: alice.ID, TargetKind: target.Kind, TargetID: target.ID, CreatedAt: time.Now().UTC()}))

	exists, err = repo.Exists(ctx, alice.ID, target)
	require.NoError(t, err)
	assert.True(t, exists)

	deleted, err := repo.Delete(ctx, alice.ID, target)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, alice.ID, target)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestLikedTargetIDs(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	liked, notLiked, postOnly := uuid.New(), uuid.New(), uuid.New()

	for _, like := range []*entity.Like{
		{UserID: alice.ID, TargetKind: entity.TargetComment, TargetID: liked},
		{UserID: alice.ID, TargetKind: entity.TargetPost, TargetID: postOnly},
	} {
		like.CreatedAt = time.Now().UTC()
		require.NoError(t, repo.Insert(ctx, like))
	}

	ids, err := repo.LikedTargetIDs(ctx, alice.ID, entity.TargetComment, []uuid.UUID{liked, notLiked, postOnly})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{liked}, ids)

	ids, err = repo.LikedTargetIDs(ctx, alice.ID, entity.TargetComment, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeleteByTargets(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	gone, kept := uuid.New(), uuid.New()

	for _, like := range []*entity.Like{
		{UserID: alice.ID, TargetKind: entity.TargetComment, TargetID: gone},
		{UserID: bob.ID, TargetKind: entity.TargetComment, TargetID: gone},
		{UserID: alice.ID, TargetKind: entity.TargetComment, TargetID: kept},
		{UserID: alice.ID, TargetKind: entity.TargetPost, TargetID: gone},
	} {
		like.CreatedAt = time.Now().UTC()
		require.NoError(t, repo.Insert(ctx, like))
	}

	removed, err := repo.DeleteByTargets(ctx, entity.TargetComment, []uuid.UUID{gone})
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	exists, err := repo.Exists(ctx, alice.ID, entity.CommentTarget(kept))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, alice.ID, entity.PostTarget(gone))
	require.NoError(t, err)
	assert.True(t, exists)

	removed, err = repo.DeleteByTargets(ctx, entity.TargetComment, nil)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
