package models

import (
	"time"
)

// Like records one user's approval of one article. The (article_id, user_id)
// pair is unique.
type Like struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ArticleID uint      `gorm:"column:article_id;not null;uniqueIndex:idx_like_article_user" json:"articleId"`
	UserID    string    `gorm:"column:user_id;type:varchar(255);not null;uniqueIndex:idx_like_article_user" json:"userId"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
