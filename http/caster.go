package http

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/DilanUni/security-video-detection/annotate"
	"github.com/DilanUni/security-video-detection/manage"
	"github.com/DilanUni/security-video-detection/pubsubmutex"
	"github.com/DilanUni/security-video-detection/videosource"
)

// castCapacity bounds each subscriber channel; a full subscriber drops
// frames instead of queueing them
const castCapacity = 10

// caster polls the active sources at the display rate, annotates, encodes
// each frame once, and publishes the jpeg bytes to the source's topic plus
// a composed mosaic. Every stream consumer shares the one encode.
type caster struct {
	manage     *manage.Manage
	pubsub     *pubsubmutex.PubSub
	mosaic     *videosource.Mosaic
	annotators map[string]annotate.Func
	cancel     chan struct{}
	done       chan struct{}
}

func newCaster(manage *manage.Manage, pubsub *pubsubmutex.PubSub) *caster {
	return &caster{
		manage:     manage,
		pubsub:     pubsub,
		mosaic:     videosource.NewMosaic(0, 0, 0),
		annotators: make(map[string]annotate.Func),
	}
}

func (c *caster) start() {
	if c.cancel != nil {
		return
	}
	c.cancel = make(chan struct{})
	c.done = make(chan struct{})
	go c.run(c.cancel, c.done)
}

func (c *caster) stop() {
	if c.cancel == nil {
		return
	}
	close(c.cancel)
	<-c.done
	c.cancel = nil
	c.done = nil
}

func (c *caster) run(cancel chan struct{}, done chan struct{}) {
	defer close(done)
	fps := c.manage.DisplayFps()
	ticker := time.NewTicker(time.Duration(float64(time.Second) / float64(fps)))
	defer ticker.Stop()
	log.Infof("Casting at %d fps", fps)
	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			c.castOnce()
		}
	}
}

// annotator returns the cached annotation chain for a source. Only the
// caster goroutine touches the cache.
func (c *caster) annotator(name string) annotate.Func {
	if fn, found := c.annotators[name]; found {
		return fn
	}
	fns := make([]annotate.Func, 0, 2)
	if c.manage.NameLabel() {
		fns = append(fns, annotate.Label(name))
	}
	if c.manage.NameTimestamp() {
		fns = append(fns, annotate.Timestamp())
	}
	fn := annotate.Chain(fns...)
	c.annotators[name] = fn
	return fn
}

func (c *caster) castOnce() {
	workers := c.manage.ActiveSources()
	quality := c.manage.JpegQuality()
	cells := make([]videosource.Frame, 0, len(workers))
	for _, worker := range workers {
		frame, ok := worker.Read()
		if !ok {
			continue
		}
		annotated := c.annotator(worker.Name())(frame)
		frame.Close()
		payload, err := annotated.EncodeJpeg(quality)
		if err != nil {
			log.Warnf("Encode %s: %v", worker.Name(), err)
			annotated.Close()
			continue
		}
		c.pubsub.TryPub(payload, TopicFrame(worker.Name()))
		cells = append(cells, annotated)
	}
	if len(cells) > 0 {
		composed := c.mosaic.Compose(cells)
		if payload, err := composed.EncodeJpeg(quality); err == nil {
			c.pubsub.TryPub(payload, TopicMosaic)
		} else {
			log.Warnln("Encode mosaic:", err)
		}
		composed.Close()
	}
	for i := range cells {
		cells[i].Close()
	}
}
