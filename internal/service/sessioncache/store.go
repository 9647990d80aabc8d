package sessioncache

import (
	"context"
	"time"

	"github.com/lexhq/lex-backend/internal/model/session"
)

const (
	keyPrefix = "lex:user:"

	// DefaultTTL is the rolling session expiry, reset on every write.
	DefaultTTL = 24 * time.Hour
)

// Store is the per-user session cache. Get never fails for a missing or
// expired key: the caller receives a fresh default session. Put overwrites
// the whole record, stamps the write time and resets the TTL; there is no
// partial-field update.
//
// The read-mutate-write cycle around Store is not transactional. Two
// concurrent requests for the same user race last-write-wins; that is an
// accepted tradeoff because session data is advisory, not a source of truth.
type Store interface {
	Get(ctx context.Context, userID string) (session.UserSession, error)
	Put(ctx context.Context, userID string, s session.UserSession) error
}
