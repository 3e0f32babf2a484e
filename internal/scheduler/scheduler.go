// Package scheduler drives the recurring jobs of the scanner process.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one recurring job.
type Task struct {
	Name     string
	Interval time.Duration
	// RunOnStart runs the task once before the first tick.
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// Scheduler runs each task on its own ticker until stopped.
type Scheduler struct {
	tasks  []Task
	logger *zap.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

func (s *Scheduler) Add(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start launches every task. Task errors are logged, never fatal; the
// next tick tries again.
func (s *Scheduler) Start(ctx context.Context) {
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(ctx, task)
	}
}

// Stop halts all tasks and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Scheduler) runTask(ctx context.Context, task Task) {
	defer s.wg.Done()

	run := func() {
		start := time.Now()
		if err := task.Run(ctx); err != nil {
			s.logger.Error("Scheduled task failed",
				zap.String("task", task.Name),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		s.logger.Debug("Scheduled task finished",
			zap.String("task", task.Name),
			zap.Duration("duration", time.Since(start)),
		)
	}

	if task.RunOnStart {
		run()
	}

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			run()
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}
