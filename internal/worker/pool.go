// Package worker runs one engagement task per credential over a fixed
// pool of workers. Sessions are fully independent; the only shared state
// is the append-only result store.
package worker

import (
	"context"
	"sync"

	"tweetpilot/pkg/account"
	"tweetpilot/pkg/engage"
	"tweetpilot/pkg/logger"
)

// AccountRunner runs the engagement flow for one credential.
type AccountRunner interface {
	RunAccount(ctx context.Context, cred account.Credential) error
}

// Pool is a fixed-size worker pool over credentials.
type Pool struct {
	workers int
	runner  AccountRunner
	logger  logger.Logger
}

// New creates a worker pool.
func New(workers int, runner AccountRunner, log logger.Logger) *Pool {
	if log == nil {
		log = logger.GetLogger()
	}
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		runner:  runner,
		logger:  log,
	}
}

// Run processes every credential and blocks until all workers finish.
// A worker-fatal account status cancels the shared context so sibling
// workers stop before their next account, then the pool drains and the
// fatal cause is returned. Non-fatal account failures are logged and
// swallowed; they never fail the run.
func (p *Pool) Run(ctx context.Context, creds []account.Credential) error {
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	jobs := make(chan account.Credential)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.worker(runCtx, id, jobs, cancel)
		}(i)
	}

	p.logger.WithFields(map[string]interface{}{
		"workers":  p.workers,
		"accounts": len(creds),
	}).Info("starting account workers")

feed:
	for _, cred := range creds {
		select {
		case jobs <- cred:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)

	wg.Wait()

	if cause := context.Cause(runCtx); cause != nil && cause != context.Canceled {
		return cause
	}
	return ctx.Err()
}

func (p *Pool) worker(ctx context.Context, id int, jobs <-chan account.Credential, cancel context.CancelCauseFunc) {
	log := p.logger.WithField("worker", id)
	for cred := range jobs {
		if ctx.Err() != nil {
			// Drain remaining jobs after a run-wide cancellation.
			continue
		}

		log.WithField("username", cred.Username).Debug("processing account")
		err := p.runner.RunAccount(ctx, cred)
		if err == nil {
			continue
		}

		if engage.IsFatal(err) {
			// Continuing any account risks full enforcement; stop the
			// whole run, let siblings wind down and results flush.
			log.WithError(err).Error("fatal account status, stopping run")
			cancel(err)
			continue
		}

		log.WithError(err).WithField("username", cred.Username).Error("account failed")
	}
}
