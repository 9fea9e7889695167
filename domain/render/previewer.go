package render

import (
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/soocke/pixel-recorder-go/domain/project"
)

// DefaultPreviewCacheSize is the number of rendered canvases kept.
const DefaultPreviewCacheSize = 32

// Previewer serves rendered canvases for one project, memoizing by
// timestamp. Rendering is idempotent for an unchanged project, so a hit is
// bit-identical to a fresh render. Call Invalidate after the project
// changes.
type Previewer struct {
	comp   *Compositor
	width  int
	height int
	cache  *lru.Cache[uint64, []byte]
	logger *slog.Logger
}

// NewPreviewer renders p at its own canvas size.
func NewPreviewer(p *project.CachedProject, size int, logger *slog.Logger) (*Previewer, error) {
	if size <= 0 {
		size = DefaultPreviewCacheSize
	}
	cache, err := lru.New[uint64, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("preview cache: %w", err)
	}
	return &Previewer{
		comp:   NewCompositor(p, logger),
		width:  p.Width,
		height: p.Height,
		cache:  cache,
		logger: logger,
	}, nil
}

// Size returns the canvas dimensions.
func (p *Previewer) Size() (int, int) { return p.width, p.height }

// Frame returns a copy of the canvas at ts.
func (p *Previewer) Frame(ts uint64) ([]byte, error) {
	if pix, ok := p.cache.Get(ts); ok {
		return append([]byte(nil), pix...), nil
	}
	pix := make([]byte, p.width*p.height*4)
	if err := p.comp.Render(pix, p.width, p.height, ts); err != nil {
		return nil, err
	}
	p.cache.Add(ts, pix)
	if p.logger != nil {
		p.logger.Debug("preview.rendered", "ts", ts, "cached", p.cache.Len())
	}
	return append([]byte(nil), pix...), nil
}

// Invalidate drops every cached canvas.
func (p *Previewer) Invalidate() { p.cache.Purge() }
