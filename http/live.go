package http

import (
	"net/url"

	fiber "github.com/gofiber/fiber/v2"
	websocket "github.com/gofiber/websocket/v2"
	log "github.com/sirupsen/logrus"

	"github.com/DilanUni/security-video-detection/http/websockets"
)

// liveMosaic serves the composed view over a websocket
func (h *Http) liveMosaic() func(*fiber.Ctx) error {
	return websocket.New(func(c *websocket.Conn) {
		h.runLive(c, TopicMosaic)
	})
}

// liveSource serves one source's frames over a websocket
func (h *Http) liveSource() func(*fiber.Ctx) error {
	return websocket.New(func(c *websocket.Conn) {
		name, err := url.PathUnescape(c.Params("name"))
		if err != nil || name == "" {
			log.Errorln("No source name")
			return
		}
		h.runLive(c, TopicFrame(name))
	})
}

// runLive streams topic payloads to one viewer until either side closes
func (h *Http) runLive(c *websocket.Conn, topic string) {
	viewer := websockets.NewViewer(c)
	frames := h.pubsub.Sub(topic)
	log.Infoln("Websocket opened", topic, viewer.ID())
	viewer.Stream(frames)
	h.pubsub.Unsub(frames, topic)
	log.Infoln("Websocket closed", topic, viewer.ID())
}
