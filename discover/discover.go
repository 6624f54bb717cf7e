package discover

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/radovskyb/watcher"
	log "github.com/sirupsen/logrus"

	"github.com/DilanUni/security-video-detection/dir"
	"github.com/DilanUni/security-video-detection/videosource"
)

// Scanner defaults
const (
	DefaultMaxDevices = 10
)

// DefaultExtensions are the video file extensions scanned for when none are
// configured
var DefaultExtensions = []string{".mp4"}

// Scanner finds the currently reachable capture sources: camera devices
// probed through the capture backend plus video files under a folder
// matching an extension filter. A scan has no side effects beyond the probe
// opens themselves and repeating it yields the same result while the
// environment is unchanged. Results are cached on the Scanner until
// Invalidate; Watch ties invalidation to folder events.
type Scanner struct {
	backend    videosource.Backend
	folder     string
	fileRegex  *regexp.Regexp
	maxDevices int

	mu     sync.Mutex
	cached []videosource.SourceID
	valid  bool

	wtr      *watcher.Watcher
	watching bool
}

// NewScanner creates a new Scanner. An empty folder disables the file scan;
// non-positive maxDevices and empty extensions get defaults.
func NewScanner(backend videosource.Backend, folder string, extensions []string, maxDevices int) *Scanner {
	if maxDevices <= 0 {
		maxDevices = DefaultMaxDevices
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	quoted := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		quoted = append(quoted, regexp.QuoteMeta(ext))
	}
	return &Scanner{
		backend:    backend,
		folder:     folder,
		fileRegex:  regexp.MustCompile(dir.RegexEndsWith(strings.Join(quoted, "|"))),
		maxDevices: maxDevices,
	}
}

// List returns the reachable source identifiers, devices first then files
// in path order. The result is cached until Invalidate.
func (s *Scanner) List() []videosource.SourceID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid {
		ids := s.scanDevices()
		ids = append(ids, s.scanFolder()...)
		s.cached = ids
		s.valid = true
	}
	result := make([]videosource.SourceID, len(s.cached))
	copy(result, s.cached)
	return result
}

// Invalidate clears the cached scan so the next List probes again
func (s *Scanner) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.valid = false
	s.mu.Unlock()
}

// scanDevices probes device indexes through the backend and keeps the ones
// that open and produce a frame
func (s *Scanner) scanDevices() []videosource.SourceID {
	ids := make([]videosource.SourceID, 0)
	for index := 0; index < s.maxDevices; index++ {
		id := videosource.DeviceID(index)
		handle, err := s.backend.Open(id)
		if err != nil {
			continue
		}
		if frame, ok := handle.Read(); ok {
			frame.Close()
			ids = append(ids, id)
		}
		if err := handle.Close(); err != nil {
			log.Warnf("Probe release %s: %v", id, err)
		}
	}
	return ids
}

func (s *Scanner) scanFolder() []videosource.SourceID {
	ids := make([]videosource.SourceID, 0)
	if s.folder == "" {
		return ids
	}
	paths, err := dir.ListPaths(s.folder, s.fileRegex.String())
	if err != nil {
		log.Warnf("Could not scan %s: %v", s.folder, err)
		return ids
	}
	sort.Strings(paths)
	for _, path := range paths {
		ids = append(ids, videosource.FileID(path))
	}
	return ids
}

// Watch invalidates the cache on folder create, remove, rename, and write
// events. No-op without a folder or when already watching.
func (s *Scanner) Watch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watching || s.folder == "" {
		return nil
	}
	wtr := watcher.New()
	if err := wtr.Add(s.folder); err != nil {
		return err
	}
	go func() {
		for {
			select {
			case _, ok := <-wtr.Event:
				if !ok {
					return
				}
				s.Invalidate()
			case err, ok := <-wtr.Error:
				if !ok {
					return
				}
				log.Warnln("Watch folder:", err)
			case <-wtr.Closed:
				return
			}
		}
	}()
	go func() {
		if err := wtr.Start(time.Millisecond * 500); err != nil {
			log.Errorln(err)
		}
	}()
	s.wtr = wtr
	s.watching = true
	return nil
}

// StopWatch stops the folder watcher. Closing happens outside the scanner
// lock: the watcher drains pending events through the goroutine above, which
// calls Invalidate and needs the lock.
func (s *Scanner) StopWatch() {
	s.mu.Lock()
	if !s.watching {
		s.mu.Unlock()
		return
	}
	wtr := s.wtr
	s.wtr = nil
	s.watching = false
	s.mu.Unlock()
	wtr.Close()
}
