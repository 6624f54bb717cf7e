package http

import (
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/DilanUni/security-video-detection/manage"
	"github.com/DilanUni/security-video-detection/pubsubmutex"
	"github.com/DilanUni/security-video-detection/videosource"
)

type castBackend struct{}

func (b castBackend) Open(id videosource.SourceID) (videosource.Handle, error) {
	return &castHandle{}, nil
}

type castHandle struct {
	mu     sync.Mutex
	closed bool
}

func (h *castHandle) Read() (videosource.Frame, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return videosource.Frame{}, false
	}
	mat, _ := gocv.NewMatFromBytes(2, 2, gocv.MatTypeCV8UC3, make([]byte, 12))
	return videosource.NewFrame(mat), true
}

func (h *castHandle) Rate() float64 { return 100.0 }

func (h *castHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

type castDiscovery struct {
	ids []videosource.SourceID
}

func (d *castDiscovery) List() []videosource.SourceID { return d.ids }
func (d *castDiscovery) Invalidate()                  {}
func (d *castDiscovery) Watch() error                 { return nil }
func (d *castDiscovery) StopWatch()                   {}

func startedManage(t *testing.T, ids ...videosource.SourceID) *manage.Manage {
	t.Helper()
	m := manage.NewManageWith(castBackend{}, &castDiscovery{ids: ids}, nil)
	if err := m.Startup(); err != nil {
		t.Fatalf("startup failed: %v\n", err)
	}
	t.Cleanup(m.Shutdown)
	for _, row := range m.Sources() {
		worker, _ := m.Worker(row.Name)
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if frame, ok := worker.Read(); ok {
				frame.Close()
				break
			}
			time.Sleep(2 * time.Millisecond)
		}
	}
	return m
}

func receivePayload(t *testing.T, ch chan interface{}) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		payload, ok := msg.([]byte)
		if !ok {
			t.Fatalf("payload type %T, expected bytes\n", msg)
		}
		return payload
	case <-time.After(2 * time.Second):
		t.Fatalf("no payload before timeout\n")
	}
	return nil
}

func isJpeg(data []byte) bool {
	return len(data) > 2 && data[0] == 0xff && data[1] == 0xd8
}

func TestCasterPublishesSourceAndMosaic(t *testing.T) {
	m := startedManage(t, videosource.DeviceID(0), videosource.DeviceID(1))
	ps := pubsubmutex.New(castCapacity)
	ps.Start()
	defer ps.Shutdown()
	frames := ps.Sub(TopicFrame("Source 0"))
	mosaics := ps.Sub(TopicMosaic)

	c := newCaster(m, ps)
	c.castOnce()

	payload := receivePayload(t, frames)
	if !isJpeg(payload) {
		t.Fatalf("source payload is not a jpeg: % x\n", payload[:4])
	}
	payload = receivePayload(t, mosaics)
	if !isJpeg(payload) {
		t.Fatalf("mosaic payload is not a jpeg: % x\n", payload[:4])
	}
}

func TestCasterQuietWithoutActiveSources(t *testing.T) {
	m := manage.NewManageWith(castBackend{}, &castDiscovery{}, nil)
	ps := pubsubmutex.New(castCapacity)
	ps.Start()
	defer ps.Shutdown()
	mosaics := ps.Sub(TopicMosaic)

	c := newCaster(m, ps)
	c.castOnce()

	select {
	case msg := <-mosaics:
		t.Fatalf("unexpected publish %T with no sources\n", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCasterStartStop(t *testing.T) {
	m := startedManage(t, videosource.DeviceID(0))
	ps := pubsubmutex.New(castCapacity)
	ps.Start()
	defer ps.Shutdown()
	mosaics := ps.Sub(TopicMosaic)

	c := newCaster(m, ps)
	c.start()
	if !isJpeg(receivePayload(t, mosaics)) {
		t.Fatalf("mosaic payload is not a jpeg\n")
	}
	c.stop()
	c.stop() // idempotent
}
