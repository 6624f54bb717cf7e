package http

import (
	"bufio"
	"fmt"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const mjpegBoundary = "frame"

// mjpegMosaic streams the composed view as motion jpeg
func (h *Http) mjpegMosaic() func(*fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		return h.streamMjpeg(c, TopicMosaic)
	}
}

// mjpegSource streams one source as motion jpeg
func (h *Http) mjpegSource() func(*fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		name, err := paramName(c)
		if err != nil || name == "" {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		return h.streamMjpeg(c, TopicFrame(name))
	}
}

// streamMjpeg writes a multipart/x-mixed-replace body fed from the topic.
// The stream writer runs after the handler returns, so it owns the
// subscription and unsubscribes when the client goes away or the pubsub
// shuts down.
func (h *Http) streamMjpeg(c *fiber.Ctx, topic string) error {
	uuid := uuid.New().String()
	frames := h.pubsub.Sub(topic)
	log.Infoln("Mjpeg stream opened", topic, uuid)
	c.Set(fiber.HeaderContentType, "multipart/x-mixed-replace; boundary="+mjpegBoundary)
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer h.pubsub.Unsub(frames, topic)
		defer log.Infoln("Mjpeg stream closed", topic, uuid)
		for msg := range frames {
			payload, ok := msg.([]byte)
			if !ok {
				continue
			}
			if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n",
				mjpegBoundary, len(payload)); err != nil {
				return
			}
			if _, err := w.Write(payload); err != nil {
				return
			}
			if _, err := w.WriteString("\r\n"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}
