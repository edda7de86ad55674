package repository

import (
	"context"
	"testing"

	"anoa.com/karmafeed/internal/entity"
	"anoa.com/karmafeed/internal/testutil"
	"anoa.com/karmafeed/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetDirectory(t *testing.T) {
	db := testutil.NewDB(t)
	dir := NewTargetDirectory(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	post := testutil.CreatePost(t, db, alice.ID)
	comment := testutil.CreateComment(t, db, post.ID, bob.ID, nil)

	owner, err := dir.Owner(ctx, entity.PostTarget(post.ID))
	require.NoError(t, err)
	assert.Equal(t, alice.ID, owner)

	owner, err = dir.Owner(ctx, entity.CommentTarget(comment.ID))
	require.NoError(t, err)
	assert.Equal(t, bob.ID, owner)

	_, err = dir.Owner(ctx, entity.PostTarget(comment.ID))
	assert.ErrorIs(t, err, apperror.ErrTargetNotFound)

	_, err = dir.Owner(ctx, entity.Target{Kind: "poll", ID: post.ID})
	assert.ErrorIs(t, err, apperror.ErrInvalidTargetKind)

	exists, err := dir.Exists(ctx, entity.CommentTarget(comment.ID))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = dir.Exists(ctx, entity.CommentTarget(uuid.New()))
	require.NoError(t, err)
	assert.False(t, exists)
}
