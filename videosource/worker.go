package videosource

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
)

// State is a SourceWorker lifecycle state
type State int

// SourceWorker lifecycle states. Dead means the capture loop exited on a
// read failure and the worker may be restarted unattended; Stopped is set
// only by an intentional Stop and is never restarted unattended.
const (
	Created State = iota
	Running
	Stopped
	Dead
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Dead:
		return "Dead"
	}
	return "Unknown"
}

// DefaultFrameRate is used when a handle reports a non-positive rate
const DefaultFrameRate = 30.0

// SourceWorker owns one capture source. It runs the capture loop on its own
// goroutine and keeps only the newest decoded frame in a single slot under
// the worker lock: writes overwrite, never queue, and readers always get a
// copy. Lifecycle operations are meant to be driven from one coordinating
// caller; Read is safe from any number of goroutines.
type SourceWorker struct {
	id      SourceID
	name    string
	backend Backend
	clock   clock.Clock

	mu        sync.Mutex
	state     State
	handle    Handle
	rate      float64
	latest    Frame
	hasLatest bool
	readSince bool
	done      chan struct{}
	cancel    chan struct{}

	Stats *FrameStats
}

// NewSourceWorker creates a new SourceWorker for id on backend. An empty
// name defaults from the identifier.
func NewSourceWorker(id SourceID, name string, backend Backend) *SourceWorker {
	return newSourceWorkerWithClock(id, name, backend, clock.New())
}

// newSourceWorkerWithClock lets tests pace the capture loop and the stats
// rollover from a mock clock.
func newSourceWorkerWithClock(id SourceID, name string, backend Backend, clk clock.Clock) *SourceWorker {
	if name == "" {
		name = id.DefaultName()
	}
	return &SourceWorker{
		id:      id,
		name:    name,
		backend: backend,
		clock:   clk,
		state:   Created,
		Stats:   newFrameStatsWithClock(clk),
	}
}

// ID returns the source identifier
func (w *SourceWorker) ID() SourceID {
	return w.id
}

// Name returns the worker name
func (w *SourceWorker) Name() string {
	return w.name
}

// State returns the current lifecycle state
func (w *SourceWorker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// IsActive returns true while the capture loop is running
func (w *SourceWorker) IsActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == Running
}

// Rate returns the nominal frame rate of the last successful open
func (w *SourceWorker) Rate() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rate
}

// Start opens the capture handle and spawns the capture loop. Starting a
// Running worker is a no-op. On open failure the error is returned, no loop
// is spawned, and the worker stays non-Running: a first open failure leaves
// it Created, a reopen failure leaves it Dead so the condition is visible.
func (w *SourceWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.startLocked()
}

func (w *SourceWorker) startLocked() error {
	if w.state == Running {
		return nil
	}
	if w.handle != nil {
		// handle left behind by a dead loop
		if err := w.handle.Close(); err != nil {
			log.Warnf("Release %s (%s): %v", w.name, w.id, err)
		}
		w.handle = nil
	}
	handle, err := w.backend.Open(w.id)
	if err != nil {
		if w.state != Created {
			w.state = Dead
		}
		return err
	}
	rate := handle.Rate()
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	w.handle = handle
	w.rate = rate
	w.state = Running
	w.readSince = false
	w.done = make(chan struct{})
	w.cancel = make(chan struct{})
	tick := w.clock.Ticker(rateInterval(rate))
	go w.captureLoop(handle, tick, w.done, w.cancel)
	log.Infof("Started %s (%s) at %.1f fps", w.name, w.id, rate)
	return nil
}

// Stop signals the capture loop, waits until it has exited, and releases
// the handle. Safe in any state; stopping an already Stopped worker is a
// no-op. A release failure is logged and returned but the worker is always
// left Stopped.
func (w *SourceWorker) Stop() error {
	w.mu.Lock()
	if w.state == Stopped {
		w.mu.Unlock()
		return nil
	}
	if w.state == Running {
		close(w.cancel)
	}
	w.state = Stopped
	handle := w.handle
	w.handle = nil
	done := w.done
	w.mu.Unlock()

	if done != nil {
		<-done
	}
	var err error
	if handle != nil {
		if err = handle.Close(); err != nil {
			log.Warnf("Release %s (%s): %v", w.name, w.id, err)
		}
	}
	log.Infoln("Stopped", w.name)
	return err
}

// Restart stops the worker and starts it with a fresh handle. On reopen
// failure the worker is left Dead and the open error is returned.
func (w *SourceWorker) Restart() error {
	w.Stop()
	return w.Start()
}

// Read returns a copy of the latest frame. ok is false when the worker is
// not Running or nothing has been decoded yet; a Dead worker reads as
// absent rather than serving its last frame forever. The returned Frame is
// owned by the caller and never aliases the worker's slot.
func (w *SourceWorker) Read() (frame Frame, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Running || !w.hasLatest {
		return Frame{}, false
	}
	w.readSince = true
	return w.latest.Clone(), true
}

// captureLoop runs until cancelled or until a read fails. One read per tick
// at the source's nominal rate; each good frame replaces the slot. The
// ticker comes from startLocked so it exists before Start returns; the loop
// owns it and stops it on exit.
func (w *SourceWorker) captureLoop(handle Handle, tick *clock.Ticker, done chan struct{}, cancel chan struct{}) {
	defer close(done)
	defer tick.Stop()
	for {
		select {
		case <-cancel:
			w.clearLatest()
			return
		case <-tick.C:
			frame, ok := handle.Read()
			if !ok {
				w.mu.Lock()
				if w.state == Running {
					w.state = Dead
				}
				if w.hasLatest {
					w.latest.Close()
					w.hasLatest = false
				}
				w.mu.Unlock()
				log.Warnf("Source %s (%s) ended", w.name, w.id)
				return
			}
			if !frame.IsValid() {
				frame.Close()
				continue
			}
			w.publish(frame)
		}
	}
}

// publish replaces the slot with frame, closing the previous frame and
// counting it dropped when no reader observed it
func (w *SourceWorker) publish(frame Frame) {
	w.mu.Lock()
	if w.hasLatest {
		if !w.readSince {
			w.Stats.AddDropped()
		}
		w.latest.Close()
	}
	w.latest = frame
	w.hasLatest = true
	w.readSince = false
	w.Stats.AddAccepted()
	w.mu.Unlock()
}

func (w *SourceWorker) clearLatest() {
	w.mu.Lock()
	if w.hasLatest {
		w.latest.Close()
		w.hasLatest = false
	}
	w.mu.Unlock()
}

func rateInterval(rate float64) time.Duration {
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	return time.Duration(float64(time.Second) / rate)
}
