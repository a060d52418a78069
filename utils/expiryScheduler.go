package utils

import (
	"context"
	"time"

	"wallet-ledger/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Expirer fails pending crypto invoices whose expiry has passed.
type Expirer interface {
	ExpirePending(ctx context.Context, now time.Time) (int, error)
}

// ExpiryScheduler runs the invoice expiry sweep on a cron schedule.
type ExpiryScheduler struct {
	cron    *cron.Cron
	expirer Expirer
	timeout time.Duration
	log     *zap.Logger
}

// NewExpiryScheduler registers the sweep under spec, e.g. "@every 5m" or
// "*/5 * * * *". Overlapping runs are skipped.
func NewExpiryScheduler(spec string, expirer Expirer) (*ExpiryScheduler, error) {
	log := logger.Named("expiry-scheduler")
	cl := cronLogger{log: log.Sugar()}
	s := &ExpiryScheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		expirer: expirer,
		timeout: 2 * time.Minute,
		log:     log,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, err
	}
	return s, nil
}

// RunOnce performs a single sweep.
func (s *ExpiryScheduler) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.expirer.ExpirePending(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error("expiry sweep failed", zap.Int("expired", n), zap.Error(err))
		return n
	}
	if n > 0 {
		s.log.Info("expired pending crypto payments", zap.Int("count", n))
	}
	return n
}

func (s *ExpiryScheduler) Start() {
	s.cron.Start()
	s.log.Info("expiry scheduler started")
}

// Stop waits for a running sweep to finish or ctx to end.
func (s *ExpiryScheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger routes cron's key/value logging into zap. Scheduler chatter
// goes to debug; recovered panics are errors.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.With(zap.Error(err)).Errorw(msg, keysAndValues...)
}
