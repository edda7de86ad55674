// Package testutil builds throwaway sqlite databases for package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"anoa.com/karmafeed/internal/bootstrap"
	"anoa.com/karmafeed/internal/entity"
	"anoa.com/karmafeed/pkg/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// NewDB opens a migrated sqlite database in the test's temp dir with
// foreign keys enforced and a single connection.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := database.GormConfig()
	cfg.Logger = logger.Default.LogMode(logger.Silent)

	path := filepath.Join(t.TempDir(), "karmafeed_test.db")
	db, err := gorm.Open(sqlite.Open(database.SQLiteDSN(path)), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, bootstrap.Migrate(db))
	return db
}

func CreateUser(t testing.TB, db *gorm.DB, username string) *entity.User {
	t.Helper()
	user := &entity.User{
		Username:     username,
		Email:        fmt.Sprintf("%s-%d@example.com", username, seq.Add(1)),
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreatePost(t testing.TB, db *gorm.DB, authorID uuid.UUID) *entity.Post {
	t.Helper()
	post := &entity.Post{
		AuthorID: authorID,
		Title:    fmt.Sprintf("post %d", seq.Add(1)),
		Content:  "some perfectly ordinary content",
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func CreateComment(t testing.TB, db *gorm.DB, postID, authorID uuid.UUID, parent *entity.Comment) *entity.Comment {
	t.Helper()
	comment := &entity.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  fmt.Sprintf("comment %d", seq.Add(1)),
	}
	if parent != nil {
		comment.ParentID = &parent.ID
		comment.Depth = parent.Depth + 1
	}
	require.NoError(t, db.Create(comment).Error)
	return comment
}

// FixedClock returns a clock stuck at t, in UTC.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t.UTC() }
}
