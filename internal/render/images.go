package render

import (
	"image"
	"log/slog"
	"sync"

	"github.com/gogpu/gg"

	"github.com/example/magicdraw/internal/codec"
	"github.com/example/magicdraw/internal/layer"
	"github.com/example/magicdraw/internal/shape"
)

// blobKey identifies an image blob by its backing array. Image shapes share
// their blob across clones, so identity survives undo and redo.
type blobKey struct {
	first *byte
	n     int
}

func keyOf(data []byte) (blobKey, bool) {
	if len(data) == 0 {
		return blobKey{}, false
	}
	return blobKey{first: &data[0], n: len(data)}, true
}

type decodeResult struct {
	key blobKey
	img image.Image
	err error
}

// imageCache decodes image blobs off the render goroutine. Only the results
// channel is touched by worker goroutines.
type imageCache struct {
	ready   map[blobKey]*gg.ImageBuf
	failed  map[blobKey]error
	pending map[blobKey]bool
	results chan decodeResult
	wg      sync.WaitGroup

	onDecoded func()
	logger    *slog.Logger
}

func newImageCache(logger *slog.Logger, onDecoded func()) *imageCache {
	return &imageCache{
		ready:     map[blobKey]*gg.ImageBuf{},
		failed:    map[blobKey]error{},
		pending:   map[blobKey]bool{},
		results:   make(chan decodeResult, 16),
		onDecoded: onDecoded,
		logger:    logger,
	}
}

// lookup returns the decoded raster for data. A miss starts a background
// decode and returns nil.
func (c *imageCache) lookup(data []byte) *gg.ImageBuf {
	key, ok := keyOf(data)
	if !ok {
		return nil
	}
	if buf, ok := c.ready[key]; ok {
		return buf
	}
	if c.pending[key] || c.failed[key] != nil {
		return nil
	}
	c.pending[key] = true
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		img, _, err := codec.Decode(data)
		c.results <- decodeResult{key: key, img: img, err: err}
		if c.onDecoded != nil {
			c.onDecoded()
		}
	}()
	return nil
}

// prime stores an already decoded raster so the next render can use it.
func (c *imageCache) prime(data []byte, img image.Image) {
	if key, ok := keyOf(data); ok && img != nil {
		c.ready[key] = gg.ImageBufFromImage(img)
	}
}

func (c *imageCache) store(r decodeResult) {
	delete(c.pending, r.key)
	if r.err != nil {
		c.logger.Warn("image decode failed", "bytes", r.key.n, "error", r.err)
		c.failed[r.key] = r.err
		return
	}
	c.ready[r.key] = gg.ImageBufFromImage(r.img)
}

// drain stores every finished decode without blocking and reports whether
// any arrived.
func (c *imageCache) drain() bool {
	got := false
	for {
		select {
		case r := <-c.results:
			c.store(r)
			got = true
		default:
			return got
		}
	}
}

// wait blocks until every started decode has been stored.
func (c *imageCache) wait() bool {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	got := false
	for {
		select {
		case r := <-c.results:
			c.store(r)
			got = true
		case <-done:
			return c.drain() || got
		}
	}
}

// retain drops decoded and failed entries for blobs no layer in use
// references. A dropped blob that comes back through undo is decoded again.
func (c *imageCache) retain(layers []*layer.Layer) {
	live := make(map[blobKey]bool)
	mark := func(data []byte) {
		if key, ok := keyOf(data); ok {
			live[key] = true
		}
	}
	for _, l := range layers {
		mark(l.Content)
		for _, s := range l.Shapes {
			if im, ok := s.(*shape.Image); ok {
				mark(im.Data)
			}
		}
	}
	for key := range c.ready {
		if !live[key] {
			delete(c.ready, key)
		}
	}
	for key := range c.failed {
		if !live[key] {
			delete(c.failed, key)
		}
	}
}

func (c *imageCache) size() int { return len(c.ready) + len(c.failed) }

func (c *imageCache) hasPending() bool { return len(c.pending) > 0 }

// reset forgets every decoded raster.
func (c *imageCache) reset() {
	c.wait()
	clear(c.ready)
	clear(c.failed)
}
