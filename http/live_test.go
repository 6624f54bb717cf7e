package http

import (
	"net"
	"testing"
	"time"

	gorillaWebsocket "github.com/gorilla/websocket"

	"github.com/DilanUni/security-video-detection/gzip"
)

// serveTestHttp serves h on a loopback listener and returns its address
func serveTestHttp(t *testing.T, h *Http) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v\n", err)
	}
	go h.fiber.Listener(ln)
	t.Cleanup(h.Stop)
	return ln.Addr().String()
}

// publishUntil pushes payload to topic every few milliseconds until stopped,
// so a subscriber attaching at any point still receives one
func publishUntil(h *Http, topic string, payload []byte) (stop func()) {
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				h.pubsub.TryPub(payload, topic)
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
	return func() { close(done) }
}

func TestLiveStreamsGzipPayloads(t *testing.T) {
	h := newTestHttp(nil)
	addr := serveTestHttp(t, h)

	conn, _, err := gorillaWebsocket.DefaultDialer.Dial("ws://"+addr+"/live?gzip=true", nil)
	if err != nil {
		t.Fatalf("dial failed: %v\n", err)
	}
	defer conn.Close()

	payload := []byte("encoded frame bytes")
	stop := publishUntil(h, TopicMosaic, payload)
	defer stop()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v\n", err)
	}
	if !gzip.IsEncoded(data) {
		t.Fatalf("payload arrived unencoded\n")
	}
	decoded, _ := gzip.Decode(data)
	if string(decoded) != string(payload) {
		t.Fatalf("payload = %q, expected %q\n", decoded, payload)
	}
}

func TestLiveStreamsSourcePlain(t *testing.T) {
	h := newTestHttp(nil)
	addr := serveTestHttp(t, h)

	conn, _, err := gorillaWebsocket.DefaultDialer.Dial("ws://"+addr+"/live/Source%201", nil)
	if err != nil {
		t.Fatalf("dial failed: %v\n", err)
	}
	defer conn.Close()

	payload := []byte("frame for one source")
	stop := publishUntil(h, TopicFrame("Source 1"), payload)
	defer stop()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v\n", err)
	}
	if gzip.IsEncoded(data) {
		t.Fatalf("payload gzip encoded although the client never asked\n")
	}
	if string(data) != string(payload) {
		t.Fatalf("payload = %q, expected %q\n", data, payload)
	}
}
