// Package scheduler runs tasks one at a time in submission order on a single
// worker. Periodic tasks share the same queue and are dropped rather than
// blocking when it is full.
package scheduler

import (
	"sync"
	"time"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("kclsp.scheduler")

type Task struct {
	Name    string
	Execute func() error
}

type Scheduler struct {
	taskQueue chan Task
	stopChan  chan struct{}
	wg        sync.WaitGroup

	// mu guards stopped and sends on taskQueue so nothing is queued after
	// the queue is closed.
	mu      sync.Mutex
	stopped bool
}

// NewScheduler creates a new Scheduler with the specified queue size
func NewScheduler(queueSize int) *Scheduler {
	return &Scheduler{
		taskQueue: make(chan Task, queueSize),
		stopChan:  make(chan struct{}),
	}
}

// RunScheduler starts the worker. Tasks still queued when the scheduler is
// stopped are drained before the worker exits.
func (s *Scheduler) RunScheduler() {
	go func() {
		for task := range s.taskQueue {
			s.execute(task)
		}
	}()
}

func (s *Scheduler) execute(task Task) {
	defer s.wg.Done()
	if err := task.Execute(); err != nil {
		log.Warningf("task %s: %s", task.Name, err)
	}
}

// Schedule queues a task, blocking while the queue is full. It reports false
// once the scheduler is stopped.
func (s *Scheduler) Schedule(task Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	s.wg.Add(1)
	s.taskQueue <- task
	return true
}

// trySchedule queues a task unless the queue is full or stopped.
func (s *Scheduler) trySchedule(task Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	s.wg.Add(1)
	select {
	case s.taskQueue <- task:
		return true
	default:
		s.wg.Done()
		return false
	}
}

// SchedulePeriodicTask queues task every interval until the scheduler stops.
func (s *Scheduler) SchedulePeriodicTask(interval time.Duration, task Task) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !s.trySchedule(task) {
					log.Debugf("skipped %s, queue is full", task.Name)
				}
			case <-s.stopChan:
				return
			}
		}
	}()
}

// StopScheduler stops accepting tasks and waits for queued ones to finish.
func (s *Scheduler) StopScheduler() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopChan)
	close(s.taskQueue)
	s.mu.Unlock()

	s.wg.Wait()
	log.Debug("scheduler stopped")
}
