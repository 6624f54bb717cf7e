package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	gorillaWebsocket "github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/DilanUni/security-video-detection/gzip"
	"github.com/DilanUni/security-video-detection/pubsubmutex"
)

const linkRedialDelay = 5 * time.Second

// linkInfo is one status row for a configured link
type linkInfo struct {
	Name      string `json:"name"`
	Url       string `json:"url"`
	Connected bool   `json:"connected"`
}

// link pulls a remote instance's live websocket and republishes the frames
// under the link's name, so a remote source streams like a local one. The
// pull redials forever until stopped.
type link struct {
	conf      Link
	pubsub    *pubsubmutex.PubSub
	token     string
	mu        sync.Mutex
	connected bool
	cancel    chan struct{}
	done      chan struct{}
}

func newLink(conf Link, pubsub *pubsubmutex.PubSub) *link {
	return &link{
		conf:   conf,
		pubsub: pubsub,
	}
}

func (l *link) start() {
	if l.cancel != nil {
		return
	}
	l.cancel = make(chan struct{})
	l.done = make(chan struct{})
	go l.run(l.cancel, l.done)
}

func (l *link) stop() {
	if l.cancel == nil {
		return
	}
	close(l.cancel)
	<-l.done
	l.cancel = nil
	l.done = nil
}

func (l *link) run(cancel chan struct{}, done chan struct{}) {
	defer close(done)
	for {
		l.pullOnce(cancel)
		l.setConnected(false)
		select {
		case <-cancel:
			return
		case <-time.After(linkRedialDelay):
		}
	}
}

// login fetches a token from the remote instance. Only the run goroutine
// touches the token.
func (l *link) login() {
	if l.conf.User == "" || l.conf.Password == "" {
		return
	}
	l.token = ""
	agent := fiber.Post(l.conf.Url + "/login").InsecureSkipVerify()
	args := fiber.AcquireArgs()
	args.Set("user", l.conf.User)
	args.Set("password", l.conf.Password)
	agent.Form(args)
	if err := agent.Parse(); err == nil {
		code, body, _ := agent.Bytes()
		if code == fiber.StatusOK {
			var r fiber.Map
			json.Unmarshal(body, &r)
			if t, ok := r["token"]; ok {
				l.token = fmt.Sprintf("%v", t)
			}
		}
	}
	fiber.ReleaseArgs(args)
}

// liveUrl builds the remote websocket url, asking for gzip and carrying the
// token in the query since websocket clients cannot set headers
func (l *link) liveUrl() (string, error) {
	raw := l.conf.Url + "/live"
	if l.conf.Source != "" {
		raw += "/" + url.PathEscape(l.conf.Source)
	}
	raw += "?gzip=true"
	if l.token != "" {
		raw += "&token=" + url.QueryEscape(l.token)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	return u.String(), nil
}

// pullOnce dials and republishes messages until the connection drops or the
// link stops
func (l *link) pullOnce(cancel chan struct{}) {
	if l.token == "" {
		l.login()
	}
	liveUrl, err := l.liveUrl()
	if err != nil {
		log.Warnf("Link %s bad url: %v", l.conf.Name, err)
		return
	}
	conn, resp, err := gorillaWebsocket.DefaultDialer.Dial(liveUrl, http.Header{})
	if err != nil {
		if resp != nil && (resp.StatusCode == fiber.StatusUnauthorized || resp.StatusCode == fiber.StatusForbidden) {
			l.token = ""
		}
		log.Warnf("Link %s connect: %v", l.conf.Name, err)
		return
	}
	defer conn.Close()
	l.setConnected(true)
	log.Infoln("Link connected", l.conf.Name)
	pullDone := make(chan struct{})
	go func() {
		defer close(pullDone)
		topic := TopicFrame(l.conf.Name)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if gzip.IsEncoded(data) {
				if decoded, _ := gzip.Decode(data); decoded != nil {
					data = decoded
				}
			}
			l.pubsub.TryPub(data, topic)
		}
	}()
	select {
	case <-cancel:
		// closing the connection unblocks the read
		conn.Close()
		<-pullDone
	case <-pullDone:
	}
	log.Infoln("Link disconnected", l.conf.Name)
}

func (l *link) setConnected(connected bool) {
	l.mu.Lock()
	l.connected = connected
	l.mu.Unlock()
}

func (l *link) isConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

// linkRows returns a status row per configured link
func (h *Http) linkRows() []linkInfo {
	rows := make([]linkInfo, 0, len(h.links))
	for _, cur := range h.links {
		rows = append(rows, linkInfo{
			Name:      cur.conf.Name,
			Url:       cur.conf.Url,
			Connected: cur.isConnected(),
		})
	}
	return rows
}
