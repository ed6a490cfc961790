package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/snap-point/articles-api/models"
	"gorm.io/gorm"
)

const DefaultLeaderboardKey = "rank:article:likes"

type LeaderboardEntry struct {
	ArticleID uint  `json:"articleId"`
	LikeCount int64 `json:"likeCount"`
}

// Leaderboard mirrors article like counts into a Redis sorted set. The store
// stays the source of truth; the set can always be rebuilt from it.
type Leaderboard struct {
	rdb *redis.Client
	key string
}

func NewLeaderboard(rdb *redis.Client, key string) *Leaderboard {
	if key == "" {
		key = DefaultLeaderboardKey
	}
	return &Leaderboard{rdb: rdb, key: key}
}

// ArticleLiked records the committed count. ZADD GT keeps a late event from
// lowering a score that a newer event already raised.
func (l *Leaderboard) ArticleLiked(ctx context.Context, event LikeEvent) error {
	if l == nil || l.rdb == nil {
		return ErrLeaderboardDisabled
	}
	err := l.rdb.ZAddGT(ctx, l.key, redis.Z{
		Score:  float64(event.LikeCount),
		Member: member(event.ArticleID),
	}).Err()
	if err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}
	return nil
}

// Top returns up to n entries with the highest like counts.
func (l *Leaderboard) Top(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	if l == nil || l.rdb == nil {
		return nil, ErrLeaderboardDisabled
	}
	if n <= 0 {
		return []LeaderboardEntry{}, nil
	}

	zs, err := l.rdb.ZRevRangeWithScores(ctx, l.key, 0, int64(n-1)).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(zs))
	for _, z := range zs {
		m, _ := z.Member.(string)
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			ArticleID: uint(id),
			LikeCount: int64(z.Score),
		})
	}
	return entries, nil
}

// Rebuild replaces the sorted set with the counts currently in the store and
// returns the number of articles written.
func (l *Leaderboard) Rebuild(ctx context.Context, db *gorm.DB) (int, error) {
	if l == nil || l.rdb == nil {
		return 0, ErrLeaderboardDisabled
	}

	var articles []models.Article
	if err := db.WithContext(ctx).Select("id", "like_count").Find(&articles).Error; err != nil {
		return 0, fmt.Errorf("load like counts: %w", err)
	}

	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, l.key)
		for _, a := range articles {
			pipe.ZAdd(ctx, l.key, redis.Z{Score: float64(a.LikeCount), Member: member(a.ID)})
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("rebuild leaderboard: %w", err)
	}
	return len(articles), nil
}

func member(articleID uint) string {
	return strconv.FormatUint(uint64(articleID), 10)
}
