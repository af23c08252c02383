package workers

import (
	"artisan-link/contract"
	"artisan-link/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultRestartInterval = 200 * time.Millisecond
	// maxBackoffFactor caps the delay of a worker crashing in a loop at 32 restart intervals
	maxBackoffFactor = 32
)

// Supervisor keeps the long running parts of the node alive: the room
// dispatcher, the HTTP server, the heartbeat and the capacity sampler.
// It owns a context and its Cancel function
// Runs each worker in its own goroutine
// Turns panics into errors and restarts the worker
// Waits for every goroutine before Run returns
type Supervisor struct {
	Cancel          context.CancelFunc // Stops the supervised context only
	wg              *sync.WaitGroup    // One per started worker
	log             *slog.Logger
	workers         []contract.Worker
	restartInterval time.Duration

	mu       sync.Mutex
	restarts map[string]int
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	if restartInterval <= 0 {
		restartInterval = DefaultRestartInterval
	}
	return &Supervisor{
		wg:              &sync.WaitGroup{},
		log:             log,
		restartInterval: restartInterval,
		restarts:        make(map[string]int),
	}
}

// Run blocks until all workers are done.
//
//	// If the parent (main) cancels, every worker stops.
//	// If we call s.Cancel(), only the supervised workers stop.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Start runs a worker under supervision in a dedicated goroutine.
// A worker returning nil is finished and never restarted. An error or a
// panic restarts it after the restart interval, doubled on each crash that
// follows a short run, so a dispatcher failing on every event does not spin.
// A failure in one worker must not stop the supervisor itself.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	workerName := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()
		delay := s.restartInterval

		for {
			if ctx.Err() != nil {
				s.log.Info(fmt.Sprintf("Stopping : %s", workerName))
				return
			}

			startedAt := time.Now()
			err := s.runOnce(ctx, worker)

			if err == nil {
				// Terminated properly, never restart
				s.log.Info(fmt.Sprintf("Worker finished : %s", workerName))
				return
			}

			if ctx.Err() != nil {
				s.log.Info("Worker stopped (context canceled)", "name", workerName)
				return
			}

			// A run that outlived the longest backoff was healthy, start over
			if time.Since(startedAt) > s.restartInterval*maxBackoffFactor {
				delay = s.restartInterval
			}
			restarts := s.countRestart(workerName)
			s.log.Warn("Worker crashed, restarting", "name", workerName, "error", err,
				"restarts", restarts, "delay", delay)

			select {
			case <-ctx.Done():
				// Priority stop, no need to wait for the delay
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, s.restartInterval*maxBackoffFactor)
		}
	}()
}

// runOnce executes the worker once and recovers its panic.
func (s *Supervisor) runOnce(ctx context.Context, worker contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return worker.Run(ctx)
}

func (s *Supervisor) countRestart(workerName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restarts[workerName]++
	return s.restarts[workerName]
}

// Restarts reports how many times every worker was restarted since Run.
func (s *Supervisor) Restarts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]int, len(s.restarts))
	for name, count := range s.restarts {
		snapshot[name] = count
	}
	return snapshot
}

// Stop cancels the supervised context.
// Run returns once every worker noticed.
func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}
