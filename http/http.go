package http

import (
	"fmt"
	"io"
	stdlog "log"
	"net/url"
	"path/filepath"
	"sort"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	websocket "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/DilanUni/security-video-detection/dir"
	"github.com/DilanUni/security-video-detection/gpu"
	"github.com/DilanUni/security-video-detection/manage"
	"github.com/DilanUni/security-video-detection/memory"
	"github.com/DilanUni/security-video-detection/pubsubmutex"
	"github.com/DilanUni/security-video-detection/runtime"

	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// TopicMosaic carries the composed view of all active sources
const TopicMosaic = "mosaic"

// TopicFrame returns the topic carrying the named source's encoded frames
func TopicFrame(name string) string {
	return "frame/" + name
}

// Http serves the sources over mjpeg, websockets, and a small json api
type Http struct {
	conf         *Config
	manage       *manage.Manage
	fiber        *fiber.App
	pubsub       *pubsubmutex.PubSub
	caster       *caster
	links        []*link
	vendor       gpu.Vendor
	codec        string
	signingKey   []byte
	loginLogger  *stdlog.Logger
	accessLogger *stdlog.Logger
}

// NewHttp returns a new Http from the runtime config
func NewHttp(manage *manage.Manage) *Http {
	return NewHttpWith(manage, NewConfig(runtime.GetRuntimeDirectory(".config")+ConfigFilename))
}

// NewHttpWith returns a new Http with an explicit config
func NewHttpWith(manage *manage.Manage, conf *Config) *Http {
	h := &Http{
		conf:         conf,
		manage:       manage,
		fiber:        fiber.New(),
		pubsub:       pubsubmutex.New(castCapacity),
		loginLogger:  &stdlog.Logger{},
		accessLogger: &stdlog.Logger{},
	}
	h.vendor = gpu.Detect()
	h.codec = gpu.OptimalCodec(h.vendor)
	log.Infof("Video acceleration %s (%s)", h.vendor, h.codec)
	h.signingKey = []byte(uuid.New().String())
	if conf != nil && conf.SigningKey != "" {
		h.signingKey = []byte(conf.SigningKey)
	}
	h.pubsub.Start()
	h.caster = newCaster(manage, h.pubsub)
	if conf != nil {
		for _, cur := range conf.Links {
			h.links = append(h.links, newLink(cur, h.pubsub))
		}
	}
	h.setup()
	return h
}

func (h *Http) setup() {
	h.loginLogger.SetOutput(io.Discard)
	h.accessLogger.SetOutput(io.Discard)
	if logDir := runtime.GetRuntimeDirectory(".logs"); logDir != "" {
		h.loginLogger.SetOutput(&lumberjack.Logger{
			Filename:   logDir + "logins",
			MaxSize:    1,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   false,
		})
		h.accessLogger.SetOutput(&lumberjack.Logger{
			Filename:   logDir + "access",
			MaxSize:    1,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   false,
		})
	}

	limitPerSecond := DefaultLimitPerSecond
	if h.conf != nil && h.conf.LimitPerSecond > 0 {
		limitPerSecond = h.conf.LimitPerSecond
	}
	h.fiber.Use(recover.New())
	h.fiber.Use(limiter.New(limiter.Config{
		Expiration: 1 * time.Second,
		Max:        limitPerSecond,
	}))

	// public routes; anything registered after the login middleware below
	// requires a token
	h.fiber.Get("/heartbeat", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	if h.loginEnabled() {
		h.fiber.Post("/login", h.loginHandler)
	}

	// stream clients cannot set headers, so tokens arrive in the query
	tokenShim := func(c *fiber.Ctx) error {
		if token := c.Query("token"); token != "" {
			c.Request().Header.Add("Authorization", "Bearer "+token)
		}
		return c.Next()
	}
	h.fiber.Use("/live", tokenShim)
	h.fiber.Use("/mjpeg", tokenShim)
	h.fiber.Use("/live", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	if h.loginEnabled() {
		h.fiber.Use(h.loginMiddleware())
	}

	// compression stays off the stream routes
	api := h.fiber.Group("/api", compress.New(compress.Config{Level: compress.LevelDefault}))
	api.Get("/status", h.statusHandler())
	api.Get("/sources", func(c *fiber.Ctx) error {
		return c.JSON(h.manage.Sources())
	})
	api.Get("/links", func(c *fiber.Ctx) error {
		return c.JSON(h.linkRows())
	})
	api.Post("/refresh", func(c *fiber.Ctx) error {
		h.manage.Refresh()
		return c.JSON(h.manage.Sources())
	})
	api.Post("/snapshot", h.snapshotAllHandler())
	api.Post("/snapshot/:name", h.snapshotHandler())
	api.Get("/snapshots", h.snapshotListHandler())

	if saveDir := h.manage.SaveDirectory(); saveDir != "" {
		h.fiber.Static("/snapshots/files",
			filepath.Clean(saveDir),
			fiber.Static{
				Compress:  true,
				ByteRange: true,
				Browse:    false,
			},
		)
	}

	h.fiber.Get("/mjpeg", h.mjpegMosaic())
	h.fiber.Get("/mjpeg/:name", h.mjpegSource())
	h.fiber.Get("/live", h.liveMosaic())
	h.fiber.Get("/live/:name", h.liveSource())
}

func (h *Http) statusHandler() func(*fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		type info struct {
			UptimeSeconds int                 `json:"uptimeSeconds"`
			Memory        memory.MegaBytes    `json:"memory"`
			GpuVendor     string              `json:"gpuVendor"`
			Codec         string              `json:"codec"`
			SnapshotsMB   float64             `json:"snapshotsMB"`
			Sources       []manage.SourceInfo `json:"sources"`
			Links         []linkInfo          `json:"links"`
		}
		data := info{
			UptimeSeconds: int(h.manage.Uptime().Seconds()),
			Memory:        memory.NewMemory().InMegaBytes(),
			GpuVendor:     string(h.vendor),
			Codec:         h.codec,
			Sources:       h.manage.Sources(),
			Links:         h.linkRows(),
		}
		if saveDir := h.manage.SaveDirectory(); saveDir != "" {
			if size, err := dir.Size(saveDir, dir.RegexEndsWith(".jpg")); err == nil {
				data.SnapshotsMB = dir.BytesToMegaBytes(size)
			}
		}
		return c.JSON(data)
	}
}

func (h *Http) snapshotHandler() func(*fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		name, err := paramName(c)
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		path, err := h.manage.Snapshot(name)
		if errors.Is(err, manage.ErrUnknownSource) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		if errors.Is(err, manage.ErrNoFrame) {
			return c.SendStatus(fiber.StatusConflict)
		}
		if err != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"saved": filepath.Base(path)})
	}
}

func (h *Http) snapshotAllHandler() func(*fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		paths, err := h.manage.SnapshotAll()
		if err != nil {
			log.Warnln("Snapshot all:", err)
		}
		saved := make([]string, 0, len(paths))
		for _, path := range paths {
			saved = append(saved, filepath.Base(path))
		}
		return c.JSON(fiber.Map{"saved": saved})
	}
}

func (h *Http) snapshotListHandler() func(*fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		data := make([]string, 0)
		saveDir := h.manage.SaveDirectory()
		if saveDir == "" {
			return c.JSON(data)
		}
		regex := dir.RegexEndsWith(".jpg")
		if name := c.Query("name"); name != "" {
			regex = dir.RegexBeginsWith(name + "_")
		}
		files, _ := dir.List(filepath.Clean(saveDir), regex)
		for _, fileInfo := range files {
			data = append(data, fileInfo.Name())
		}
		sort.Sort(dir.DescendingTimeName(data))
		return c.JSON(data)
	}
}

// Listen starts the caster and link pulls, then serves on the configured
// port until Stop
func (h *Http) Listen() error {
	h.caster.start()
	for _, cur := range h.links {
		cur.start()
	}
	port := ":8080"
	if h.conf != nil && h.conf.Port > 0 {
		port = fmt.Sprintf(":%d", h.conf.Port)
	}
	return h.fiber.Listen(port)
}

// Stop tears down in dependency order: link pulls, the caster, then the
// pubsub so stream handlers drain, and finally the server itself
func (h *Http) Stop() {
	for _, cur := range h.links {
		cur.stop()
	}
	h.caster.stop()
	h.pubsub.Shutdown()
	if err := h.fiber.Shutdown(); err != nil {
		log.Warnln("Server shutdown:", err)
	}
}

// paramName returns the unescaped :name route parameter. Source names carry
// spaces, so they arrive percent encoded.
func paramName(c *fiber.Ctx) (string, error) {
	return url.PathUnescape(c.Params("name"))
}

func getFormattedKitchenTimestamp(t time.Time) string {
	return t.Format("03:04:05 PM 01-02-2006")
}
