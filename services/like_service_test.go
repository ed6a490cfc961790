package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/lib/pq"
	"github.com/snap-point/articles-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []LikeEvent
	err    error
}

func (o *recordingObserver) ArticleLiked(_ context.Context, event LikeEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
	return o.err
}

func (o *recordingObserver) Events() []LikeEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]LikeEvent(nil), o.events...)
}

// hideNextLike makes the next lookup on the likes table report no row, as if
// a concurrent transaction had not committed yet when it was read.
func hideNextLike(t *testing.T, db *gorm.DB) *atomic.Bool {
	t.Helper()
	hide := &atomic.Bool{}
	err := db.Callback().Query().After("gorm:query").Register("test:hide_like", func(tx *gorm.DB) {
		if tx.Statement.Table == "likes" && tx.Error == nil && hide.CompareAndSwap(true, false) {
			tx.AddError(gorm.ErrRecordNotFound)
		}
	})
	require.NoError(t, err)
	return hide
}

func TestLikeService_Scenario(t *testing.T) {
	db := newTestDB(t)
	articles := NewArticleService(db)
	likes := NewLikeService(db, nil)
	ctx := context.Background()

	article, err := articles.Create(ctx, "A", "B")
	require.NoError(t, err)
	assert.EqualValues(t, 1, article.ID)
	assert.Zero(t, article.LikeCount)

	res, err := likes.Toggle(ctx, article.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, LikeCount: 1}, res)

	res, err = likes.Toggle(ctx, article.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, LikeResult{}, res, "repeat like is a no-op")
	assert.EqualValues(t, 1, likeCount(t, db, article.ID))

	res, err = likes.Toggle(ctx, article.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, LikeCount: 2}, res)

	got, err := articles.FindOne(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, "B", got.Content)
	assert.EqualValues(t, 2, got.LikeCount)

	_, err = articles.FindOne(ctx, 999)
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestLikeService_Idempotent(t *testing.T) {
	db := newTestDB(t)
	article := seedArticle(t, db, "t", "c")
	likes := NewLikeService(db, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := likes.Toggle(ctx, article.ID, "same-user")
		require.NoError(t, err)
	}

	assert.EqualValues(t, 1, countLikes(t, db, article.ID))
	assert.EqualValues(t, 1, likeCount(t, db, article.ID))
}

func TestLikeService_MissingArticle(t *testing.T) {
	db := newTestDB(t)
	other := seedArticle(t, db, "t", "c")
	likes := NewLikeService(db, nil)

	res, err := likes.Toggle(context.Background(), 999, "u1")
	assert.ErrorIs(t, err, ErrArticleNotFound)
	assert.Equal(t, LikeResult{}, res)

	var total int64
	require.NoError(t, db.Model(&models.Like{}).Count(&total).Error)
	assert.Zero(t, total, "no like row may survive a failed toggle")
	assert.Zero(t, likeCount(t, db, other.ID))
}

func TestLikeService_MissingArticleForeignKey(t *testing.T) {
	db := newTestDBWithForeignKeys(t)
	likes := NewLikeService(db, nil)

	res, err := likes.Toggle(context.Background(), 999, "u1")
	assert.ErrorIs(t, err, ErrArticleNotFound)
	assert.Equal(t, LikeResult{}, res)

	var total int64
	require.NoError(t, db.Model(&models.Like{}).Count(&total).Error)
	assert.Zero(t, total)
}

// The store serializes these toggles (see newTestDB), so this checks the
// final counts under many callers rather than interleaved transactions.
func TestLikeService_ConcurrentDistinctUsers(t *testing.T) {
	db := newTestDB(t)
	article := seedArticle(t, db, "t", "c")
	likes := NewLikeService(db, nil)

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := likes.Toggle(context.Background(), article.ID, fmt.Sprintf("user-%d", i))
			if err == nil && !res.Liked {
				err = errors.New("expected a new like")
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, n, likeCount(t, db, article.ID))
	assert.EqualValues(t, n, countLikes(t, db, article.ID))
}

// Serialized like above; TestLikeService_RetriesAfterDuplicateInsert covers
// the lost race on the same pair.
func TestLikeService_ConcurrentSameUser(t *testing.T) {
	db := newTestDB(t)
	article := seedArticle(t, db, "t", "c")
	likes := NewLikeService(db, nil)

	const n = 25
	var (
		wg       sync.WaitGroup
		inserted atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := likes.Toggle(context.Background(), article.ID, "racer")
			assert.NoError(t, err)
			if res.Liked {
				inserted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, inserted.Load())
	assert.EqualValues(t, 1, countLikes(t, db, article.ID))
	assert.EqualValues(t, 1, likeCount(t, db, article.ID))
}

func TestLikeService_RetriesAfterDuplicateInsert(t *testing.T) {
	db := newTestDB(t)
	article := seedArticle(t, db, "t", "c")
	likes := NewLikeService(db, nil)
	ctx := context.Background()

	_, err := likes.Toggle(ctx, article.ID, "u1")
	require.NoError(t, err)

	hide := hideNextLike(t, db)
	hide.Store(true)

	res, err := likes.Toggle(ctx, article.ID, "u1")
	require.NoError(t, err)
	assert.False(t, hide.Load(), "the lookup should have been hidden once")
	assert.Equal(t, LikeResult{}, res)
	assert.EqualValues(t, 1, countLikes(t, db, article.ID))
	assert.EqualValues(t, 1, likeCount(t, db, article.ID))
}

func TestLikeService_RetryBudgetExhausted(t *testing.T) {
	db := newTestDB(t)
	article := seedArticle(t, db, "t", "c")
	likes := NewLikeService(db, nil, WithMaxAttempts(1))
	ctx := context.Background()

	_, err := likes.Toggle(ctx, article.ID, "u1")
	require.NoError(t, err)

	hide := hideNextLike(t, db)
	hide.Store(true)

	_, err = likes.Toggle(ctx, article.ID, "u1")
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
	assert.EqualValues(t, 1, countLikes(t, db, article.ID))
	assert.EqualValues(t, 1, likeCount(t, db, article.ID), "the rolled back attempt must not bump the counter")
}

func TestLikeService_CancelledContext(t *testing.T) {
	db := newTestDB(t)
	article := seedArticle(t, db, "t", "c")
	likes := NewLikeService(db, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := likes.Toggle(ctx, article.ID, "u1")
	require.Error(t, err)
	assert.Zero(t, countLikes(t, db, article.ID))
	assert.Zero(t, likeCount(t, db, article.ID))
}

func TestLikeService_NotifiesObservers(t *testing.T) {
	db := newTestDB(t)
	article := seedArticle(t, db, "t", "c")

	ok := &recordingObserver{}
	failing := &recordingObserver{err: errors.New("broker down")}
	likes := NewLikeService(db, nil, WithObservers(failing, nil, ok))
	ctx := context.Background()

	res, err := likes.Toggle(ctx, article.ID, "u1")
	require.NoError(t, err, "observer failures must not fail the like")
	assert.True(t, res.Liked)

	_, err = likes.Toggle(ctx, article.ID, "u1")
	require.NoError(t, err)

	events := ok.Events()
	require.Len(t, events, 1, "only the inserting call notifies")
	assert.Equal(t, article.ID, events[0].ArticleID)
	assert.Equal(t, "u1", events[0].UserID)
	assert.EqualValues(t, 1, events[0].LikeCount)
	assert.False(t, events[0].LikedAt.IsZero())
	assert.Len(t, failing.Events(), 1)
}

type cancellingObserver struct {
	cancel context.CancelFunc
}

func (o cancellingObserver) ArticleLiked(context.Context, LikeEvent) error {
	o.cancel()
	return nil
}

type contextObserver struct {
	err error
}

func (o *contextObserver) ArticleLiked(ctx context.Context, _ LikeEvent) error {
	o.err = ctx.Err()
	return nil
}

func TestLikeService_ObserversIgnoreCallerCancel(t *testing.T) {
	db := newTestDB(t)
	article := seedArticle(t, db, "t", "c")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := &contextObserver{}
	likes := NewLikeService(db, nil, WithObservers(cancellingObserver{cancel: cancel}, seen))

	res, err := likes.Toggle(ctx, article.ID, "u1")
	require.NoError(t, err)
	assert.True(t, res.Liked)
	require.Error(t, ctx.Err())
	assert.NoError(t, seen.err, "observers must not see the caller's cancellation")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(gorm.ErrDuplicatedKey))
	assert.True(t, isRetryable(fmt.Errorf("insert like: %w", gorm.ErrDuplicatedKey)))
	assert.False(t, isRetryable(gorm.ErrForeignKeyViolated))
	assert.False(t, isRetryable(ErrArticleNotFound))
	assert.False(t, isRetryable(errors.New("connection refused")))

	assert.True(t, isRetryable(&pq.Error{Code: "23505"}))
	assert.True(t, isRetryable(&pq.Error{Code: "40001"}))
	assert.True(t, isRetryable(fmt.Errorf("commit: %w", &pq.Error{Code: "40P01"})))
	assert.False(t, isRetryable(&pq.Error{Code: "23503"}))
	assert.True(t, isForeignKeyViolation(&pq.Error{Code: "23503"}))
}
