package http

import (
	"testing"
	"time"

	"github.com/DilanUni/security-video-detection/pubsubmutex"
)

func TestLiveUrlConvertsScheme(t *testing.T) {
	l := newLink(Link{Name: "remote", Url: "http://host:8080"}, nil)
	liveUrl, err := l.liveUrl()
	if err != nil {
		t.Fatalf("liveUrl failed: %v\n", err)
	}
	if liveUrl != "ws://host:8080/live?gzip=true" {
		t.Fatalf("liveUrl = %s, expected ws scheme on /live\n", liveUrl)
	}

	l = newLink(Link{Name: "remote", Url: "https://host"}, nil)
	liveUrl, err = l.liveUrl()
	if err != nil {
		t.Fatalf("liveUrl failed: %v\n", err)
	}
	if liveUrl != "wss://host/live?gzip=true" {
		t.Fatalf("liveUrl = %s, expected wss for https\n", liveUrl)
	}
}

func TestLiveUrlEscapesSourceAndToken(t *testing.T) {
	l := newLink(Link{Name: "remote", Url: "http://host", Source: "Source 1"}, nil)
	l.token = "a+b/c"
	liveUrl, err := l.liveUrl()
	if err != nil {
		t.Fatalf("liveUrl failed: %v\n", err)
	}
	if liveUrl != "ws://host/live/Source%201?gzip=true&token=a%2Bb%2Fc" {
		t.Fatalf("liveUrl = %s, expected escaped source and token\n", liveUrl)
	}
}

func TestLinkRowsReportConnected(t *testing.T) {
	h := newTestHttp(&Config{Links: []Link{{Name: "remote", Url: "http://host"}}})
	rows := h.linkRows()
	if len(rows) != 1 {
		t.Fatalf("len = %d, expected 1 link row\n", len(rows))
	}
	if rows[0].Name != "remote" || rows[0].Url != "http://host" {
		t.Fatalf("row = %+v, expected the configured link\n", rows[0])
	}
	if rows[0].Connected {
		t.Fatalf("link connected before any dial\n")
	}
	h.links[0].setConnected(true)
	if !h.linkRows()[0].Connected {
		t.Fatalf("link not connected after a successful dial\n")
	}
}

func TestLinkStartStopWhileUnreachable(t *testing.T) {
	ps := pubsubmutex.New(castCapacity)
	ps.Start()
	defer ps.Shutdown()
	l := newLink(Link{Name: "remote", Url: "http://127.0.0.1:1"}, ps)
	l.start()
	l.start() // idempotent
	time.Sleep(20 * time.Millisecond)
	done := make(chan struct{})
	go func() {
		l.stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("stop did not return\n")
	}
	l.stop() // idempotent
}
