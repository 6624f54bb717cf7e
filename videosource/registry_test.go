package videosource

import (
	"errors"
	"testing"
)

func TestRegistryStartAllPartialFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.setFailOpen(DeviceID(0), true)
	registry := NewSourceRegistry(backend)
	if _, err := registry.Track(DeviceID(0), ""); err != nil {
		t.Fatalf("track failed: %v\n", err)
	}
	if _, err := registry.Track(FileID("a.mp4"), ""); err != nil {
		t.Fatalf("track failed: %v\n", err)
	}
	if err := registry.StartAll(); err != nil {
		t.Fatalf("start all failed: %v\n", err)
	}
	active := registry.ActiveSources()
	if len(active) != 1 {
		t.Fatalf("active = %d, expected 1\n", len(active))
	}
	if active[0].Name() != "a.mp4" {
		t.Fatalf("active source = %s, expected a.mp4\n", active[0].Name())
	}
	registry.StopAll()
}

func TestRegistryStartAllFatalWhenNoneStart(t *testing.T) {
	backend := newFakeBackend()
	backend.setFailOpen(DeviceID(0), true)
	backend.setFailOpen(FileID("a.mp4"), true)
	registry := NewSourceRegistry(backend)
	registry.Track(DeviceID(0), "")
	registry.Track(FileID("a.mp4"), "")
	err := registry.StartAll()
	if err == nil {
		t.Fatalf("start all succeeded, expected fatal error\n")
	}
	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("error = %v, expected a FatalError\n", err)
	}
	if len(registry.ActiveSources()) != 0 {
		t.Fatalf("active = %d, expected 0\n", len(registry.ActiveSources()))
	}
	registry.StopAll()
}

func TestRegistryAddDiscardsFailed(t *testing.T) {
	backend := newFakeBackend()
	backend.setFailOpen(DeviceID(3), true)
	registry := NewSourceRegistry(backend)
	if _, err := registry.Add(DeviceID(3), ""); err == nil {
		t.Fatalf("add succeeded, expected open failure\n")
	}
	if registry.Size() != 0 {
		t.Fatalf("size = %d, expected 0 after failed add\n", registry.Size())
	}
}

func TestRegistryAddForRetryKeepsFailed(t *testing.T) {
	backend := newFakeBackend()
	backend.setFailOpen(DeviceID(3), true)
	registry := NewSourceRegistry(backend)
	worker, err := registry.AddForRetry(DeviceID(3), "Source 0")
	if err == nil {
		t.Fatalf("add succeeded, expected open failure\n")
	}
	if registry.Size() != 1 {
		t.Fatalf("size = %d, expected failed worker kept\n", registry.Size())
	}
	if worker.IsActive() {
		t.Fatalf("failed worker reported active\n")
	}
	registry.StopAll()
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	backend := newFakeBackend()
	registry := NewSourceRegistry(backend)
	if _, err := registry.Add(FileID("a.mp4"), ""); err != nil {
		t.Fatalf("add failed: %v\n", err)
	}
	if _, err := registry.Add(FileID("a.mp4"), "again"); err == nil {
		t.Fatalf("duplicate add succeeded\n")
	}
	if _, err := registry.AddForRetry(FileID("a.mp4"), "again"); err == nil {
		t.Fatalf("duplicate add for retry succeeded\n")
	}
	if registry.Size() != 1 {
		t.Fatalf("size = %d, expected 1\n", registry.Size())
	}
	registry.StopAll()
}

func TestRegistryActiveOrderPreserved(t *testing.T) {
	backend := newFakeBackend()
	registry := NewSourceRegistry(backend)
	registry.Add(DeviceID(0), "first")
	registry.Add(DeviceID(1), "second")
	registry.Add(DeviceID(2), "third")
	second, _ := registry.Get(DeviceID(1))
	second.Stop()
	active := registry.ActiveSources()
	if len(active) != 2 {
		t.Fatalf("active = %d, expected 2\n", len(active))
	}
	if active[0].Name() != "first" || active[1].Name() != "third" {
		t.Fatalf("active order = %s, %s, expected first, third\n", active[0].Name(), active[1].Name())
	}
	registry.StopAll()
}

func TestRegistryStopAll(t *testing.T) {
	backend := newFakeBackend()
	registry := NewSourceRegistry(backend)
	registry.Add(DeviceID(0), "")
	registry.Add(DeviceID(1), "")
	registry.StopAll()
	for _, worker := range registry.Workers() {
		if worker.State() != Stopped {
			t.Fatalf("worker %s state = %s, expected Stopped\n", worker.Name(), worker.State())
		}
		if _, ok := worker.Read(); ok {
			t.Fatalf("worker %s served a frame after stop all\n", worker.Name())
		}
	}
}

func TestRegistryRemove(t *testing.T) {
	backend := newFakeBackend()
	registry := NewSourceRegistry(backend)
	registry.Add(DeviceID(0), "")
	registry.Add(DeviceID(1), "")
	registry.Remove(DeviceID(0))
	if registry.Size() != 1 {
		t.Fatalf("size = %d, expected 1\n", registry.Size())
	}
	if registry.Has(DeviceID(0)) {
		t.Fatalf("removed identifier still tracked\n")
	}
	registry.StopAll()
}
