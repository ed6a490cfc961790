package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/snap-point/articles-api/config"
	"github.com/snap-point/articles-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory SQLite database with the production
// schema. A single connection runs transactions one at a time, so races
// between them never happen here; hideNextLike stages the same-pair race.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openTestDB(t, "")
}

// newTestDBWithForeignKeys is newTestDB with SQLite foreign key enforcement,
// so a like for a missing article is rejected by the store as on Postgres.
func newTestDBWithForeignKeys(t *testing.T) *gorm.DB {
	t.Helper()
	return openTestDB(t, "&_foreign_keys=on")
}

func openTestDB(t *testing.T, params string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared%s", uuid.NewString(), params)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func seedArticle(t *testing.T, db *gorm.DB, title, content string) models.Article {
	t.Helper()
	a, err := NewArticleService(db).Create(context.Background(), title, content)
	require.NoError(t, err)
	return *a
}

func countLikes(t *testing.T, db *gorm.DB, articleID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Like{}).Where("article_id = ?", articleID).Count(&n).Error)
	return n
}

func likeCount(t *testing.T, db *gorm.DB, articleID uint) int64 {
	t.Helper()
	var a models.Article
	require.NoError(t, db.Select("like_count").First(&a, articleID).Error)
	return a.LikeCount
}
