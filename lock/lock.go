/*
Package lock serializes writes to one payroll month.

PURPOSE:
  Calculating a month, editing its rule and locking it must not interleave.
  The engine itself does not serialize; the API takes a MonthLocker lock
  around each of these operations.

IMPLEMENTATIONS:
  - Redis:   bsm/redislock over go-redis, for several server instances
             sharing one database
  - Local:   a per-month mutex, for a single process

USAGE:
  release, err := locker.Acquire(ctx, month)
  if err != nil {
      return err
  }
  defer release()
*/
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/warp/studio-payroll/payroll"
)

// ErrBusy is returned when another holder keeps the month locked past the
// wait limit.
var ErrBusy = errors.New("payroll month is busy")

// Release gives a lock back. It is safe to call more than once.
type Release func()

// MonthLocker grants exclusive access to one month at a time.
type MonthLocker interface {
	Acquire(ctx context.Context, month payroll.Month) (Release, error)
}

// =============================================================================
// REDIS LOCKER
// =============================================================================

// Redis holds month locks in Redis so that every server instance sees them.
type Redis struct {
	client *redislock.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	log    logrus.FieldLogger
}

// NewRedis wraps a go-redis client. ttl bounds how long a crashed holder can
// block a month; wait bounds how long Acquire retries.
func NewRedis(rdb redis.UniversalClient, ttl, wait time.Duration, log logrus.FieldLogger) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{
		client: redislock.New(rdb),
		prefix: "payroll:month:",
		ttl:    ttl,
		wait:   wait,
		log:    log.WithField("module", "lock"),
	}
}

// Key is the Redis key for month.
func (r *Redis) Key(month payroll.Month) string {
	return r.prefix + month.String()
}

func (r *Redis) Acquire(ctx context.Context, month payroll.Month) (Release, error) {
	opts := &redislock.Options{}
	if r.wait > 0 {
		opts.RetryStrategy = redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), int(r.wait/(100*time.Millisecond)))
	}

	l, err := r.client.Obtain(ctx, r.Key(month), r.ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrBusy, month)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock for %s: %w", month, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release outlives a cancelled request context.
			if err := l.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				r.log.WithFields(logrus.Fields{"month": month.String(), "error": err}).Warn("failed to release month lock")
			}
		})
	}, nil
}

// =============================================================================
// LOCAL LOCKER
// =============================================================================

// Local is an in-process MonthLocker.
type Local struct {
	mu     sync.Mutex
	months map[payroll.Month]chan struct{}
}

func NewLocal() *Local {
	return &Local{months: make(map[payroll.Month]chan struct{})}
}

func (l *Local) slot(month payroll.Month) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.months[month]
	if !ok {
		ch = make(chan struct{}, 1)
		l.months[month] = ch
	}
	return ch
}

// Acquire blocks until month is free or ctx is done.
func (l *Local) Acquire(ctx context.Context, month payroll.Month) (Release, error) {
	ch := l.slot(month)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %v", ErrBusy, month, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-ch })
	}, nil
}
