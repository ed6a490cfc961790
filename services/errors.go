package services

import (
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	// ErrArticleNotFound is returned when the requested article does not exist.
	ErrArticleNotFound = errors.New("article not found")

	// ErrLeaderboardDisabled is returned when no Redis client is configured.
	ErrLeaderboardDisabled = errors.New("leaderboard is not configured")
)

// Postgres SQLSTATE codes the like toggle reacts to.
const (
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// isUniqueViolation reports whether err is a duplicate key error from either
// the postgres driver or gorm's error translation.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || pqCode(err) == pqUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated) || pqCode(err) == pqForeignKeyViolation
}

// isRetryable reports whether a failed like transaction may be re-run from
// the start. A unique violation means a concurrent toggle committed the same
// pair first; the re-run observes it and takes the no-op path.
func isRetryable(err error) bool {
	if isUniqueViolation(err) {
		return true
	}
	switch pqCode(err) {
	case pqSerializationFailure, pqDeadlockDetected:
		return true
	}
	return false
}
