/*
scheduler.go - Payday auto-lock scheduler

PURPOSE:
  Periodically checks whether the studio's payday has arrived and, if so,
  locks the previous month's payroll rule so it can no longer be edited.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each check reads the PaymentDay setting (default 5)
  - Once today's day of month >= PaymentDay, the previous month is locked
  - Locking is idempotent, so repeated checks after payday are no-ops
  - A missing rule for the previous month is skipped, not created

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewPaydayScheduler(handler, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunAutoLock, TriggerAutoLock endpoint
  - payroll/rules.go: AutoLockPreviousMonth
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/studio-payroll/config"
)

// PaydayScheduler locks last month's rule once payday is reached.
type PaydayScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	log    logrus.FieldLogger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPaydayScheduler creates a new scheduler.
func NewPaydayScheduler(handler *Handler, log logrus.FieldLogger) *PaydayScheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PaydayScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		log:           log.WithField("module", "scheduler"),
	}
}

// Start begins the scheduler. It runs one check immediately.
func (ps *PaydayScheduler) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.Enabled {
		ps.log.Info("disabled, not starting")
		return
	}
	if ps.ticker != nil {
		return
	}

	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.stop = make(chan struct{})
	ps.wg.Add(1)

	go ps.run(ps.ticker, ps.stop)

	ps.log.WithField("interval", ps.CheckInterval.String()).Info("started")
}

// Stop stops the scheduler and waits for a running check to finish.
func (ps *PaydayScheduler) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker != nil {
		ps.ticker.Stop()
		close(ps.stop)
		ps.wg.Wait()
		ps.ticker = nil
		ps.log.Info("stopped")
	}
}

func (ps *PaydayScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ps.wg.Done()

	ps.RunNow()

	for {
		select {
		case <-ticker.C:
			ps.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow performs one payday check.
func (ps *PaydayScheduler) RunNow() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := ps.Handler.RunAutoLock(ctx)
	if err != nil {
		config.LogError(ps.log, "scheduler", "RunNow", "auto-lock previous month", nil, err)
		return
	}

	entry := ps.log.WithFields(logrus.Fields{"month": result.Month, "payment_day": result.PaymentDay})
	if result.Locked {
		entry.Info("locked previous month")
		return
	}
	entry.Debug("nothing to lock")
}

// GetNextRunTime returns when the next scheduled check will occur.
func (ps *PaydayScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(ps.CheckInterval)
}
