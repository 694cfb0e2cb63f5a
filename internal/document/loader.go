// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"context"
	"errors"
	"image"
	"sync"
)

// PageResult is delivered once per page request.
type PageResult struct {
	// Generation identifies the document the page belongs to. Results from
	// an earlier generation must be discarded by the receiver.
	Generation uint64
	Page       int
	Image      *image.RGBA
	Err        error
}

// ErrNoDocument is returned when a page is requested before Open succeeds.
var ErrNoDocument = errors.New("no document loaded")

// Loader owns the current document and its per-page raster cache. Open and
// Request may be called from one goroutine while render goroutines fill the
// cache; the cache and in-flight state are guarded by mu.
type Loader struct {
	renderer Renderer
	scale    float64

	mu         sync.Mutex
	doc        Document
	name       string
	generation uint64
	cache      map[int]*image.RGBA
	cancel     context.CancelFunc
}

// NewLoader creates a loader rendering pages at scale (1.0 = 72 dpi).
func NewLoader(r Renderer, scale float64) *Loader {
	if scale <= 0 {
		scale = 1
	}
	return &Loader{renderer: r, scale: scale, cache: make(map[int]*image.RGBA)}
}

// Scale returns the render scale of cached rasters.
func (l *Loader) Scale() float64 { return l.scale }

// Open decodes data, replacing any previously loaded document. The old
// document's cache is dropped and its in-flight render is cancelled even
// when decoding the new one fails.
func (l *Loader) Open(ctx context.Context, name string, data []byte) (int, error) {
	l.Reset()

	doc, err := l.renderer.Open(ctx, data)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) && de.Name == "" {
			de.Name = name
		}
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.doc = doc
	l.name = name
	return doc.PageCount(), nil
}

// Reset cancels in-flight work, closes the document and clears the cache.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
	l.generation++
	if l.doc != nil {
		l.doc.Close()
		l.doc = nil
	}
	l.name = ""
	l.cache = make(map[int]*image.RGBA)
}

// Generation returns the identifier of the current document.
func (l *Loader) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation
}

// Name returns the file name passed to the last successful Open.
func (l *Loader) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.name
}

// Loaded reports whether a document is open.
func (l *Loader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doc != nil
}

// PageCount returns the page count of the open document, or 0.
func (l *Loader) PageCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.doc == nil {
		return 0
	}
	return l.doc.PageCount()
}

// Cached returns the raster for page if it has been rendered. Callers must
// not modify the returned image.
func (l *Loader) Cached(page int) (*image.RGBA, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	img, ok := l.cache[page]
	return img, ok
}

// Request renders page asynchronously. Any earlier request still in flight
// is cancelled and its channel receives nothing. A cached page is delivered
// without rendering. The returned channel is buffered and receives exactly
// one result unless superseded.
func (l *Loader) Request(ctx context.Context, page int) <-chan PageResult {
	out := make(chan PageResult, 1)

	l.mu.Lock()
	l.stopLocked()
	gen := l.generation
	if img, ok := l.cache[page]; ok {
		l.mu.Unlock()
		out <- PageResult{Generation: gen, Page: page, Image: img}
		return out
	}
	doc := l.doc
	if doc == nil {
		l.mu.Unlock()
		out <- PageResult{Generation: gen, Page: page, Err: ErrNoDocument}
		return out
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	go func() {
		defer cancel()
		img, err := doc.RenderPage(ctx, page, l.scale)
		if ctx.Err() != nil {
			return
		}

		l.mu.Lock()
		stale := gen != l.generation
		if err == nil && !stale {
			l.cache[page] = img
		}
		l.mu.Unlock()
		if stale {
			return
		}
		out <- PageResult{Generation: gen, Page: page, Image: img, Err: err}
	}()
	return out
}

// Close releases the document.
func (l *Loader) Close() error {
	l.Reset()
	return nil
}

func (l *Loader) stopLocked() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
