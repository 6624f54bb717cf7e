package videosource

import (
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// SourceRegistry tracks SourceWorkers in insertion order, keyed by source
// identifier. Identifiers are unique within the registry: an add for an
// identifier already tracked is rejected no matter the worker's state, so
// one physical source never gets two workers. The collection lock covers
// only membership; worker lifecycles synchronize themselves.
type SourceRegistry struct {
	backend Backend
	mu      sync.RWMutex
	workers []*SourceWorker
	byID    map[SourceID]*SourceWorker
}

// NewSourceRegistry creates a new SourceRegistry on backend
func NewSourceRegistry(backend Backend) *SourceRegistry {
	return &SourceRegistry{
		backend: backend,
		workers: make([]*SourceWorker, 0),
		byID:    make(map[SourceID]*SourceWorker),
	}
}

// Size returns the number of tracked workers
func (r *SourceRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}

// Get returns the worker tracked for id
func (r *SourceRegistry) Get(id SourceID) (*SourceWorker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	worker, ok := r.byID[id]
	return worker, ok
}

// Has returns true when id is already tracked, active or not
func (r *SourceRegistry) Has(id SourceID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

// Workers returns the tracked workers in insertion order
func (r *SourceRegistry) Workers() []*SourceWorker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	workers := make([]*SourceWorker, len(r.workers))
	copy(workers, r.workers)
	return workers
}

// ActiveSources returns the workers currently Running, in insertion order.
// Liveness changes concurrently so the result is recomputed on every call,
// never cached.
func (r *SourceRegistry) ActiveSources() []*SourceWorker {
	workers := r.Workers()
	active := make([]*SourceWorker, 0, len(workers))
	for _, worker := range workers {
		if worker.IsActive() {
			active = append(active, worker)
		}
	}
	return active
}

// Track constructs a worker for id without starting it, for populating the
// registry ahead of a StartAll. Duplicate identifiers are rejected.
func (r *SourceRegistry) Track(id SourceID, name string) (*SourceWorker, error) {
	worker := NewSourceWorker(id, name, r.backend)
	if err := r.insert(worker); err != nil {
		worker.Stats.Cleanup()
		return nil, err
	}
	return worker, nil
}

// Add creates and starts a worker for id. A worker whose open fails is
// logged and discarded, not tracked. Duplicate identifiers are rejected.
func (r *SourceRegistry) Add(id SourceID, name string) (*SourceWorker, error) {
	worker, err := r.Track(id, name)
	if err != nil {
		return nil, err
	}
	if err := worker.Start(); err != nil {
		log.Warnf("Could not add %s (%s): %v", worker.Name(), id, err)
		r.Remove(id)
		return nil, err
	}
	return worker, nil
}

// AddForRetry creates a worker for id and attempts to start it, keeping the
// worker tracked when the open fails so a later reconciliation retries it.
func (r *SourceRegistry) AddForRetry(id SourceID, name string) (*SourceWorker, error) {
	worker, err := r.Track(id, name)
	if err != nil {
		return nil, err
	}
	if err := worker.Start(); err != nil {
		log.Warnf("Source %s (%s) not started, kept for retry: %v", worker.Name(), id, err)
		return worker, err
	}
	return worker, nil
}

func (r *SourceRegistry) insert(worker *SourceWorker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[worker.ID()]; ok {
		return errors.Errorf("source %s already tracked", worker.ID())
	}
	r.byID[worker.ID()] = worker
	r.workers = append(r.workers, worker)
	return nil
}

// Remove stops and forgets the worker tracked for id. Not part of the
// reconciliation flow, which retries dead workers instead of evicting them.
func (r *SourceRegistry) Remove(id SourceID) {
	r.mu.Lock()
	worker, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.byID, id)
	for i := range r.workers {
		if r.workers[i] == worker {
			r.workers = append(r.workers[:i], r.workers[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
	worker.Stop()
	worker.Stats.Cleanup()
}

// StartAll starts every tracked worker. Individual open failures are logged
// and collected without aborting the batch; only zero workers started is
// fatal.
func (r *SourceRegistry) StartAll() error {
	workers := r.Workers()
	var errs error
	started := 0
	for _, worker := range workers {
		if err := worker.Start(); err != nil {
			log.Warnf("Could not start %s (%s): %v", worker.Name(), worker.ID(), err)
			errs = multierr.Append(errs, err)
			continue
		}
		started++
	}
	if started == 0 {
		return &FatalError{Err: errs}
	}
	log.Infof("Started %d of %d sources", started, len(workers))
	return nil
}

// StopAll stops every worker in parallel and waits for all of them. Release
// failures are logged, never propagated, so teardown always finishes.
func (r *SourceRegistry) StopAll() {
	workers := r.Workers()
	var group errgroup.Group
	for _, worker := range workers {
		group.Go(func() error {
			if err := worker.Stop(); err != nil {
				log.Warnf("Stopping %s: %v", worker.Name(), err)
			}
			worker.Stats.Cleanup()
			return nil
		})
	}
	group.Wait()
	log.Infof("Stopped %d sources", len(workers))
}
