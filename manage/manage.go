package manage

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/DilanUni/security-video-detection/discover"
	"github.com/DilanUni/security-video-detection/runtime"
	"github.com/DilanUni/security-video-detection/videosource"
)

// Discovery finds the currently reachable capture sources. *discover.Scanner
// is the production implementation; List must be idempotent while the
// environment is unchanged.
type Discovery interface {
	List() []videosource.SourceID
	Invalidate()
	Watch() error
	StopWatch()
}

// Snapshot failure kinds
var (
	ErrUnknownSource = errors.New("unknown source")
	ErrNoFrame       = errors.New("no frame available")
)

// Manage composes the source registry with discovery. It carries no state
// of its own beyond the registry: reconciliation is an operation run on
// demand, so a dead camera costs nothing until someone asks to revive it.
type Manage struct {
	conf      Config
	registry  *videosource.SourceRegistry
	discovery Discovery
	reconcile sync.Mutex
	started   time.Time
}

// NewManage creates a new Manage from the runtime config on the OpenCV
// backend
func NewManage() *Manage {
	conf := NewConfig(runtime.GetRuntimeDirectory(".config") + ConfigFilename)
	backend := videosource.OpenCVBackend{}
	var scanner *discover.Scanner
	if conf != nil {
		scanner = discover.NewScanner(backend, conf.Folder, conf.Extensions, conf.MaxDevices)
	} else {
		scanner = discover.NewScanner(backend, "", nil, 0)
	}
	return NewManageWith(backend, scanner, conf)
}

// NewManageWith creates a new Manage with explicit collaborators
func NewManageWith(backend videosource.Backend, discovery Discovery, conf *Config) *Manage {
	m := &Manage{
		registry:  videosource.NewSourceRegistry(backend),
		discovery: discovery,
	}
	if conf != nil {
		m.conf = *conf
	}
	if m.conf.DisplayFps <= 0 {
		m.conf.DisplayFps = DefaultDisplayFps
	}
	if m.conf.JpegQuality <= 0 || m.conf.JpegQuality > 100 {
		m.conf.JpegQuality = DefaultJpegQuality
	}
	return m
}

// Startup discovers the reachable sources, tracks them, and starts them
// all. Returns the registry's *videosource.FatalError when not a single one
// could be started; individual failures are logged and their workers kept
// for the next Reconcile. Also begins watching the scan folder so file
// churn invalidates cached discovery.
func (m *Manage) Startup() error {
	m.reconcile.Lock()
	for _, id := range m.discovery.List() {
		if _, err := m.registry.Track(id, m.nextName()); err != nil {
			log.Warnln(err)
		}
	}
	m.reconcile.Unlock()
	if err := m.registry.StartAll(); err != nil {
		return err
	}
	if err := m.discovery.Watch(); err != nil {
		log.Warnln("Discovery watch:", err)
	}
	m.started = time.Now()
	return nil
}

// nextName derives a worker name from its position. Names are assigned at
// insertion and never renumbered, so they stay stable but need not be
// contiguous after removals.
func (m *Manage) nextName() string {
	return fmt.Sprintf("Source %d", m.registry.Size())
}

// Reconcile re-syncs tracked sources against discovery. Newly discovered
// identifiers are added and started; identifiers already tracked are never
// re-added, no matter the worker's state. Then every tracked worker that is
// not active gets a restart, except intentionally Stopped ones. Failures
// are logged and retried on the next call; Reconcile always completes.
func (m *Manage) Reconcile() {
	m.reconcile.Lock()
	defer m.reconcile.Unlock()
	justAdded := make(map[videosource.SourceID]bool)
	for _, id := range m.discovery.List() {
		if m.registry.Has(id) {
			continue
		}
		justAdded[id] = true
		if _, err := m.registry.AddForRetry(id, m.nextName()); err != nil {
			// kept in the registry, retried next time
			continue
		}
	}
	for _, worker := range m.registry.Workers() {
		if worker.IsActive() || justAdded[worker.ID()] {
			continue
		}
		if worker.State() == videosource.Stopped {
			continue
		}
		if err := worker.Restart(); err != nil {
			log.Warnf("Revive %s (%s): %v", worker.Name(), worker.ID(), err)
		} else {
			log.Infof("Revived %s (%s)", worker.Name(), worker.ID())
		}
	}
}

// Refresh invalidates cached discovery and reconciles. This is the operator
// command behind the api refresh route.
func (m *Manage) Refresh() {
	m.discovery.Invalidate()
	m.Reconcile()
}

// Shutdown stops discovery watching and every worker. Always terminates;
// release failures are logged by the registry, never raised.
func (m *Manage) Shutdown() {
	m.discovery.StopWatch()
	m.registry.StopAll()
}

// ActiveSources returns the currently running workers in insertion order
func (m *Manage) ActiveSources() []*videosource.SourceWorker {
	return m.registry.ActiveSources()
}

// Worker finds a tracked worker by name
func (m *Manage) Worker(name string) (*videosource.SourceWorker, bool) {
	for _, worker := range m.registry.Workers() {
		if worker.Name() == name {
			return worker, true
		}
	}
	return nil, false
}

// Size returns the number of tracked workers
func (m *Manage) Size() int {
	return m.registry.Size()
}

// SourceInfo is one status row for a tracked worker
type SourceInfo struct {
	Name          string  `json:"name"`
	ID            string  `json:"id"`
	State         string  `json:"state"`
	Fps           float64 `json:"fps"`
	FramesPerSec  int     `json:"framesPerSec"`
	DroppedPerSec int     `json:"droppedPerSec"`
	FramesTotal   int     `json:"framesTotal"`
	DroppedTotal  int     `json:"droppedTotal"`
}

// Sources returns a status row per tracked worker, in insertion order
func (m *Manage) Sources() []SourceInfo {
	workers := m.registry.Workers()
	rows := make([]SourceInfo, 0, len(workers))
	for _, worker := range workers {
		stats := worker.Stats.Snapshot()
		rows = append(rows, SourceInfo{
			Name:          worker.Name(),
			ID:            worker.ID().String(),
			State:         worker.State().String(),
			Fps:           worker.Rate(),
			FramesPerSec:  stats.AcceptedPerSecond,
			DroppedPerSec: stats.DroppedPerSecond,
			FramesTotal:   stats.AcceptedTotal,
			DroppedTotal:  stats.DroppedTotal,
		})
	}
	return rows
}

// Snapshot saves the named source's current frame as a jpeg under the save
// directory and returns the written path. Fails with ErrUnknownSource or
// ErrNoFrame when the name is not tracked or nothing is available.
func (m *Manage) Snapshot(name string) (string, error) {
	worker, ok := m.Worker(name)
	if !ok {
		return "", errors.Wrap(ErrUnknownSource, name)
	}
	frame, ok := worker.Read()
	if !ok {
		return "", errors.Wrap(ErrNoFrame, name)
	}
	defer frame.Close()
	path, err := videosource.SaveFrame(frame, frame.CreatedTime, m.conf.SaveDirectory, m.conf.JpegQuality, name)
	if err != nil {
		return "", err
	}
	log.Infoln("Saved snapshot", path)
	return path, nil
}

// SnapshotAll saves the current frame of every active source
func (m *Manage) SnapshotAll() ([]string, error) {
	var errs error
	paths := make([]string, 0)
	for _, worker := range m.registry.ActiveSources() {
		path, err := m.Snapshot(worker.Name())
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		paths = append(paths, path)
	}
	return paths, errs
}

// Uptime since a successful Startup
func (m *Manage) Uptime() time.Duration {
	if m.started.IsZero() {
		return 0
	}
	return time.Since(m.started)
}

// SaveDirectory for frame snapshots
func (m *Manage) SaveDirectory() string {
	return m.conf.SaveDirectory
}

// DisplayFps paces the consumption loop
func (m *Manage) DisplayFps() int {
	return m.conf.DisplayFps
}

// JpegQuality for streamed and saved frames
func (m *Manage) JpegQuality() int {
	return m.conf.JpegQuality
}

// NameLabel reports whether streamed frames carry their source name
func (m *Manage) NameLabel() bool {
	return m.conf.NameLabel
}

// NameTimestamp reports whether streamed frames carry their capture time
func (m *Manage) NameTimestamp() bool {
	return m.conf.NameTimestamp
}
