package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/snap-point/articles-api/models"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultLikeAttempts = 3

// LikeResult is the outcome of a toggle. The zero value means the user had
// already liked the article and nothing changed; it encodes as {}.
type LikeResult struct {
	Liked     bool  `json:"liked,omitempty"`
	LikeCount int64 `json:"likeCount,omitempty"`
}

// LikeEvent describes a committed like.
type LikeEvent struct {
	ArticleID uint      `json:"articleId"`
	UserID    string    `json:"userId"`
	LikeCount int64     `json:"likeCount"`
	LikedAt   time.Time `json:"likedAt"`
}

// LikeObserver is notified after a like has been committed. Errors are logged
// and do not affect the toggle result.
type LikeObserver interface {
	ArticleLiked(ctx context.Context, event LikeEvent) error
}

type LikeService struct {
	db          *gorm.DB
	log         *zap.Logger
	maxAttempts int
	observers   []LikeObserver
}

type LikeOption func(*LikeService)

// WithMaxAttempts bounds how many times a conflicting transaction is re-run.
func WithMaxAttempts(n int) LikeOption {
	return func(s *LikeService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithObservers(observers ...LikeObserver) LikeOption {
	return func(s *LikeService) {
		for _, o := range observers {
			if o != nil {
				s.observers = append(s.observers, o)
			}
		}
	}
}

func NewLikeService(db *gorm.DB, log *zap.Logger, opts ...LikeOption) *LikeService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &LikeService{
		db:          db,
		log:         log,
		maxAttempts: defaultLikeAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Toggle registers that userID likes articleID, at most once per pair.
//
// The lookup, insert, counter increment and readback run in one transaction.
// The counter is incremented in SQL so concurrent likes from different users
// never lose updates. When two requests race on the same pair, the loser hits
// the unique index; its transaction is rolled back and re-run, and the re-run
// sees the committed like and returns the no-op result.
func (s *LikeService) Toggle(ctx context.Context, articleID uint, userID string) (LikeResult, error) {
	ctx, span := tracer.Start(ctx, "LikeService.Toggle")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("article.id", int64(articleID)),
		attribute.String("like.user_id", userID),
	)

	var (
		result LikeResult
		err    error
	)
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		result, err = s.toggleOnce(ctx, articleID, userID)
		if err == nil || !isRetryable(err) || ctx.Err() != nil {
			break
		}
		s.log.Debug("like transaction conflict, retrying",
			zap.Uint("article_id", articleID),
			zap.String("user_id", userID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	if err != nil {
		recordError(span, err)
		if errors.Is(err, ErrArticleNotFound) {
			return LikeResult{}, err
		}
		return LikeResult{}, fmt.Errorf("toggle like on article %d: %w", articleID, err)
	}

	span.SetAttributes(attribute.Bool("like.inserted", result.Liked))
	if result.Liked {
		// The like is committed; observers outlive the caller's request.
		s.notify(context.WithoutCancel(ctx), LikeEvent{
			ArticleID: articleID,
			UserID:    userID,
			LikeCount: result.LikeCount,
			LikedAt:   time.Now().UTC(),
		})
	}
	return result, nil
}

func (s *LikeService) toggleOnce(ctx context.Context, articleID uint, userID string) (LikeResult, error) {
	var result LikeResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Like
		err := tx.Where("article_id = ? AND user_id = ?", articleID, userID).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("look up like: %w", err)
		}

		like := models.Like{
			ArticleID: articleID,
			UserID:    userID,
		}
		if err := tx.Create(&like).Error; err != nil {
			if isForeignKeyViolation(err) {
				return ErrArticleNotFound
			}
			return fmt.Errorf("insert like: %w", err)
		}

		update := tx.Model(&models.Article{}).
			Where("id = ?", articleID).
			UpdateColumn("like_count", gorm.Expr("like_count + ?", 1))
		if update.Error != nil {
			return fmt.Errorf("increment like count: %w", update.Error)
		}
		if update.RowsAffected == 0 {
			return ErrArticleNotFound
		}

		var article models.Article
		if err := tx.Select("like_count").First(&article, articleID).Error; err != nil {
			return fmt.Errorf("read like count: %w", err)
		}

		result = LikeResult{Liked: true, LikeCount: article.LikeCount}
		return nil
	})

	return result, err
}

func (s *LikeService) notify(ctx context.Context, event LikeEvent) {
	for _, o := range s.observers {
		if err := o.ArticleLiked(ctx, event); err != nil {
			s.log.Warn("like observer failed",
				zap.Uint("article_id", event.ArticleID),
				zap.String("user_id", event.UserID),
				zap.Error(err),
			)
		}
	}
}
