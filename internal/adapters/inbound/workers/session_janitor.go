package workers

import (
	"context"
	"log"
	"time"

	"github.com/shelfsight/matchengine/internal/domain"
)

// SessionJanitor is a runnable that periodically drops recognition sessions
// untouched for longer than the configured TTL.
type SessionJanitor struct {
	Store               domain.SessionStore        `resolve:""`
	TimeProvider        domain.CurrentTimeProvider `resolve:""`
	Logger              *log.Logger                `resolve:""`
	Interval            time.Duration              `config:"SESSION_SWEEP_INTERVAL" default:"1m"`
	TTL                 time.Duration              `config:"SESSION_TTL" default:"24h"`
	workerExecutionChan chan struct{}
}

// Run starts the periodic session sweep.
func (sj SessionJanitor) Run(ctx context.Context) error {
	sj.Logger.Println("SessionJanitor: running...")
	ticker := time.NewTicker(sj.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := sj.TimeProvider.Now().Add(-sj.TTL)
			dropped, err := sj.Store.SweepExpired(ctx, cutoff)
			if err != nil {
				sj.Logger.Printf("error sweeping sessions: %v", err)
			} else if dropped > 0 {
				sj.Logger.Printf("SessionJanitor: dropped %d expired sessions", dropped)
			}
			if sj.workerExecutionChan != nil {
				sj.workerExecutionChan <- struct{}{}
			}
		case <-ctx.Done():
			sj.Logger.Println("SessionJanitor: stopping...")
			return nil
		}
	}
}
