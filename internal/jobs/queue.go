package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MimeLyc/sakura-subtrans/pkg/log"
)

type Executor func(ctx context.Context, job *FileJob) error

// Queue runs file jobs on a fixed number of workers. State lives in memory
// only; finished jobs are pruned once more than maxJobs are tracked.
type Queue struct {
	workerCount int
	maxJobs     int

	mu         sync.RWMutex
	jobs       map[string]*FileJob
	byInput    map[string]string
	idCounter  uint64
	started    bool
	pendingIDs chan string
	done       <-chan struct{}
	cancel     context.CancelFunc
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewQueue(workerCount int) *Queue {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Queue{
		workerCount: workerCount,
		maxJobs:     1000,
		jobs:        make(map[string]*FileJob),
		byInput:     make(map[string]string),
		pendingIDs:  make(chan string, 1024),
		cancel:      func() {},
	}
}

// Enqueue adds a job for req.Input. When a job for the same file is pending
// or running, that job is returned with created == false.
func (q *Queue) Enqueue(req EnqueueRequest) (job *FileJob, created bool) {
	now := time.Now()
	key := filepath.Clean(req.Input)

	q.mu.Lock()
	if id, ok := q.byInput[key]; ok {
		if existing, exists := q.jobs[id]; exists {
			snapshot := cloneJob(existing)
			q.mu.Unlock()
			return snapshot, false
		}
		delete(q.byInput, key)
	}

	id := fmt.Sprintf("job-%d", atomic.AddUint64(&q.idCounter, 1))
	j := &FileJob{
		ID:        id,
		Source:    req.Source,
		Input:     req.Input,
		Output:    req.Output,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	q.jobs[id] = j
	q.byInput[key] = id
	started := q.started
	snapshot := cloneJob(j)
	q.mu.Unlock()

	if started {
		q.enqueuePendingID(id)
	}
	return snapshot, true
}

func (q *Queue) Get(id string) (*FileJob, bool) {
	q.mu.RLock()
	job, ok := q.jobs[id]
	q.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneJob(job), true
}

// List returns a snapshot of all tracked jobs, oldest first
func (q *Queue) List() []*FileJob {
	q.mu.RLock()
	ret := make([]*FileJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		ret = append(ret, cloneJob(job))
	}
	q.mu.RUnlock()

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].CreatedAt.Before(ret[j].CreatedAt)
	})
	return ret
}

// Active returns the number of pending and running jobs
func (q *Queue) Active() int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	n := 0
	for _, job := range q.jobs {
		if !job.Status.Terminal() {
			n++
		}
	}
	return n
}

// Start launches the workers. Jobs enqueued before Start are picked up.
// Cancelling ctx or calling Stop ends the workers; a running job sees the
// cancellation through its context.
func (q *Queue) Start(ctx context.Context, exec Executor) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	ctx, q.cancel = context.WithCancel(ctx)
	q.done = ctx.Done()

	pending := make([]*FileJob, 0)
	for _, job := range q.jobs {
		if job.Status == StatusPending {
			pending = append(pending, job)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	q.mu.Unlock()

	for _, job := range pending {
		q.enqueuePendingID(job.ID)
	}

	for range q.workerCount {
		q.wg.Add(1)
		go q.worker(ctx, exec)
	}
}

// Stop cancels the workers and waits for them to return
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		q.mu.Lock()
		cancel := q.cancel
		q.mu.Unlock()
		cancel()
		q.wg.Wait()
	})
}

func (q *Queue) worker(ctx context.Context, exec Executor) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case id := <-q.pendingIDs:
			job, ok := q.markRunning(id)
			if !ok {
				continue
			}

			if err := exec(ctx, job); err != nil {
				log.Error("Job %s (%s) failed: %v", job.ID, job.Input, err)
				q.finish(id, StatusFailed, err)
				continue
			}
			q.finish(id, StatusSuccess, nil)
		}
	}
}

// enqueuePendingID hands id to the workers. When the buffer is full the
// send waits in the background, and is dropped once the queue stops.
func (q *Queue) enqueuePendingID(id string) {
	q.mu.RLock()
	done := q.done
	q.mu.RUnlock()

	select {
	case q.pendingIDs <- id:
	case <-done:
	default:
		go func() {
			select {
			case q.pendingIDs <- id:
			case <-done:
			}
		}()
	}
}

func (q *Queue) markRunning(id string) (*FileJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok || job.Status != StatusPending {
		return nil, false
	}
	job.Status = StatusRunning
	job.UpdatedAt = time.Now()
	return cloneJob(job), true
}

func (q *Queue) finish(id string, status Status, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return
	}
	job.Status = status
	job.Error = ""
	if err != nil {
		job.Error = err.Error()
	}
	job.UpdatedAt = time.Now()
	q.releaseInputLocked(job)
	q.pruneTerminalJobsLocked()
}

func (q *Queue) releaseInputLocked(job *FileJob) {
	key := filepath.Clean(job.Input)
	if id, ok := q.byInput[key]; ok && id == job.ID {
		delete(q.byInput, key)
	}
}

func (q *Queue) pruneTerminalJobsLocked() {
	if q.maxJobs <= 0 || len(q.jobs) <= q.maxJobs {
		return
	}

	terminal := make([]*FileJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		if job.Status.Terminal() {
			terminal = append(terminal, job)
		}
	}
	sort.Slice(terminal, func(i, j int) bool {
		return terminal[i].UpdatedAt.Before(terminal[j].UpdatedAt)
	})

	toRemove := min(len(q.jobs)-q.maxJobs, len(terminal))
	for _, job := range terminal[:toRemove] {
		q.releaseInputLocked(job)
		delete(q.jobs, job.ID)
	}
}

func cloneJob(job *FileJob) *FileJob {
	if job == nil {
		return nil
	}
	tmp := *job
	return &tmp
}
