package app

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/soocke/pixel-recorder-go/catalog"
	"github.com/soocke/pixel-recorder-go/config"
	"github.com/soocke/pixel-recorder-go/domain/cache"
	"github.com/soocke/pixel-recorder-go/domain/capture"
)

// Container assembles the services a command needs.
type Container struct {
	Config    *config.Config
	Logger    *slog.Logger
	Catalog   *catalog.Store
	Converter *cache.Converter

	// Platform hooks, replaced in tests.
	NewGrabber     func() (capture.Grabber, error)
	NewCursorProbe func() (capture.CursorProbe, error)
	OpenDevice     capture.DeviceFactory
	ScreenBounds   func() (image.Rectangle, error)
}

// BuildContainer constructs all components. The only side effect is
// opening the catalog database.
func BuildContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	conv := cache.NewConverter(cfg.ProjectsDir, logger)
	conv.Background = cfg.Background
	return &Container{
		Config:         cfg,
		Logger:         logger,
		Catalog:        store,
		Converter:      conv,
		NewGrabber:     capture.NewScreenGrabber,
		NewCursorProbe: capture.NewCursorProbe,
		OpenDevice:     capture.OpenDevice,
		ScreenBounds:   capture.ScreenBounds,
	}, nil
}

// Close releases the catalog.
func (c *Container) Close() error {
	if c.Catalog == nil {
		return nil
	}
	return c.Catalog.Close()
}

// Region returns the configured capture region, or the whole screen when
// none is set.
func (c *Container) Region() (image.Rectangle, error) {
	cfg := c.Config
	if cfg.RegionW > 0 && cfg.RegionH > 0 {
		return image.Rect(cfg.RegionX, cfg.RegionY, cfg.RegionX+cfg.RegionW, cfg.RegionY+cfg.RegionH), nil
	}
	r, err := c.ScreenBounds()
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("screen bounds: %w", err)
	}
	return r, nil
}

// NewEngine returns the capture engine for the configured strategy.
func (c *Container) NewEngine() (capture.Engine, error) {
	switch c.Config.Strategy {
	case config.StrategyDuplication:
		return capture.NewDuplicationCapture(c.OpenDevice, capture.DefaultAcquireTimeout, c.Logger), nil
	default:
		g, err := c.NewGrabber()
		if err != nil {
			return nil, fmt.Errorf("screen grabber: %w", err)
		}
		var probe capture.CursorProbe
		if c.Config.ShowCursor {
			p, err := c.NewCursorProbe()
			if err != nil {
				c.Logger.Warn("cursor capture unavailable", "error", err)
			} else {
				probe = p
			}
		}
		return capture.NewBlitCapture(g, probe, c.Logger), nil
	}
}
