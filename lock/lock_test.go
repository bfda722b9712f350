package lock_test

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/studio-payroll/lock"
	"github.com/warp/studio-payroll/payroll"
)

var feb = payroll.MustParseMonth("2026-02")

func TestLocal_SerializesSameMonth(t *testing.T) {
	locker := lock.NewLocal()
	var active, maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), feb)
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
}

func TestLocal_MonthsAreIndependent(t *testing.T) {
	locker := lock.NewLocal()

	releaseFeb, err := locker.Acquire(context.Background(), feb)
	require.NoError(t, err)
	defer releaseFeb()

	releaseMar, err := locker.Acquire(context.Background(), feb.Next())
	require.NoError(t, err)
	releaseMar()
}

func TestLocal_ContextCancelledWhileWaiting(t *testing.T) {
	locker := lock.NewLocal()
	release, err := locker.Acquire(context.Background(), feb)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, feb)
	assert.ErrorIs(t, err, lock.ErrBusy)

	// Double release is harmless and frees the month.
	release()
	release()
	again, err := locker.Acquire(context.Background(), feb)
	require.NoError(t, err)
	again()
}

func TestRedis_Key(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer rdb.Close()
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	locker := lock.NewRedis(rdb, 0, 0, quiet)

	assert.Equal(t, "payroll:month:2026-02", locker.Key(feb))
}
