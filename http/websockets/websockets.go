package websockets

import (
	"time"

	websocket "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/DilanUni/security-video-detection/gzip"
)

// writeWait bounds one message write so a stalled client cannot hold its
// handler past server shutdown
const writeWait = time.Second

// Viewer is one attached stream client. Payloads go out as binary
// messages, compressed when the client asked for gzip on the upgrade
// query; link clients do to cut bandwidth between instances. Viewers send
// nothing meaningful, the read side is drained only to notice the peer
// hanging up.
type Viewer struct {
	conn     *websocket.Conn
	id       string
	wantGzip bool
	closed   chan struct{}
}

// NewViewer wraps an upgraded connection. The id ties the open and close
// log lines of one connection together.
func NewViewer(conn *websocket.Conn) *Viewer {
	return &Viewer{
		conn:     conn,
		id:       uuid.New().String(),
		wantGzip: conn.Query("gzip") == "true",
		closed:   make(chan struct{}),
	}
}

// ID returns the connection id
func (v *Viewer) ID() string {
	return v.id
}

// Stream pushes every []byte from payloads to the peer until the channel
// closes, the peer hangs up, or a write fails. Values that are not []byte
// are skipped. The read goroutine is not joined; it exits on its own once
// the socket closes.
func (v *Viewer) Stream(payloads <-chan interface{}) {
	go func() {
		for {
			if v.conn.Conn == nil {
				break
			}
			if _, _, err := v.conn.ReadMessage(); err != nil {
				// peer hung up
				break
			}
		}
		close(v.closed)
	}()
	for {
		select {
		case <-v.closed:
			return
		case msg, ok := <-payloads:
			if !ok {
				return
			}
			payload, ok := msg.([]byte)
			if !ok {
				continue
			}
			if v.wantGzip {
				payload = gzip.Encode(payload, nil)
			}
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
				return
			}
		}
	}
}
