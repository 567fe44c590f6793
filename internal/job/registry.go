package job

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type record struct {
	job     Job
	claimed bool // a file delivery is in progress
}

// Registry owns every live job record. All reads return copies and all
// mutations happen under the registry lock, so readers never see a record
// halfway through a transition.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*record
	now  func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]*record),
		now:  time.Now,
	}
}

// Create allocates a fresh id and inserts a pending record
func (r *Registry) Create() Job {
	now := r.now()
	job := Job{
		ID:        uuid.New().String(),
		Status:    StatusPending,
		Message:   MessageWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.jobs[job.ID] = &record{job: job}
	r.mu.Unlock()

	return job
}

// Get returns a snapshot of the record
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return rec.job, true
}

// Remove deletes the record if present. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.jobs, id)
	r.mu.Unlock()
}

// Len returns the number of live records
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// update applies fn to the live record under the write lock. fn reports
// whether it changed anything; terminal records are never handed to fn.
func (r *Registry) update(id string, fn func(*Job) bool) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.jobs[id]
	if !ok || rec.job.Status.IsTerminal() {
		return Job{}, false
	}
	if !fn(&rec.job) {
		return rec.job, false
	}
	rec.job.UpdatedAt = r.now()
	if rec.job.Status.IsTerminal() {
		rec.job.FinishedAt = rec.job.UpdatedAt
	}
	return rec.job, true
}

// start moves a pending job to running
func (r *Registry) start(id string) (Job, bool) {
	return r.update(id, func(j *Job) bool {
		if j.Status != StatusPending {
			return false
		}
		j.Status = StatusRunning
		j.Message = MessageStarting
		return true
	})
}

// complete moves a running or finalizing job to done
func (r *Registry) complete(id, resultPath, resultName string) (Job, bool) {
	return r.update(id, func(j *Job) bool {
		j.Status = StatusDone
		j.Progress = 100
		j.Message = MessageDone
		j.ResultPath = resultPath
		j.ResultName = resultName
		return true
	})
}

// fail moves a non-terminal job to error, keeping progress and message
func (r *Registry) fail(id, reason string) (Job, bool) {
	return r.update(id, func(j *Job) bool {
		j.Status = StatusError
		j.Error = reason
		return true
	})
}

// claim reserves a done job for delivery. Only one caller can hold the
// claim; everybody else sees the job as already consumed.
func (r *Registry) claim(id string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.jobs[id]
	if !ok || rec.claimed {
		return Job{}, ErrNotFound
	}
	if rec.job.Status != StatusDone {
		return rec.job, ErrNotReady
	}
	rec.claimed = true
	return rec.job, nil
}

// release drops a claim without removing the record
func (r *Registry) release(id string) {
	r.mu.Lock()
	if rec, ok := r.jobs[id]; ok {
		rec.claimed = false
	}
	r.mu.Unlock()
}

// evict removes every unclaimed terminal record that finished before cutoff
// and returns the removed snapshots.
func (r *Registry) evict(cutoff time.Time) []Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []Job
	for id, rec := range r.jobs {
		if rec.claimed || !rec.job.Status.IsTerminal() {
			continue
		}
		if rec.job.FinishedAt.Before(cutoff) {
			evicted = append(evicted, rec.job)
			delete(r.jobs, id)
		}
	}
	return evicted
}
