package models

import (
	"time"
)

// Article is a content record with a denormalized like counter. LikeCount is
// only ever changed by the like toggle transaction.
type Article struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"type:text;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	LikeCount int64     `gorm:"not null;default:0;check:chk_articles_like_count,like_count >= 0" json:"likeCount"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Likes []Like `gorm:"foreignKey:ArticleID;constraint:OnDelete:RESTRICT" json:"-"`
}

// ArticleColumns is the projection returned by list and detail reads.
var ArticleColumns = []string{"id", "title", "content", "like_count"}
