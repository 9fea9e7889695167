package project

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// File names inside a recording directory.
const (
	PropertiesFile = "Properties.cache"
	FramesFile     = "Frames.cache"
	EventsFile     = "Events.cache"
)

// RecordingProject is the raw output of one capture session. It exclusively
// owns its directory until it is converted or discarded.
type RecordingProject struct {
	ID             uuid.UUID
	CreationDate   time.Time
	Source         ProjectSource
	Width          int
	Height         int
	Dpi            float64
	ChannelCount   uint8
	BitsPerChannel uint8
	Dir            string

	Frames []*Frame
	Events []InputEvent
}

// NewRecordingProject creates a fresh recording directory under root.
func NewRecordingProject(root string, width, height int, dpi float64) (*RecordingProject, error) {
	id := uuid.New()
	now := time.Now()
	dir := filepath.Join(root, now.Format("2006-01-02_15-04-05")+"_"+id.String()[:8])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recording dir: %w", err)
	}
	if dpi <= 0 {
		dpi = 96
	}
	return &RecordingProject{
		ID:             id,
		CreationDate:   now,
		Source:         SourceScreenRecorder,
		Width:          width,
		Height:         height,
		Dpi:            dpi,
		ChannelCount:   4,
		BitsPerChannel: 8,
		Dir:            dir,
	}, nil
}

func (r *RecordingProject) PropertiesPath() string { return filepath.Join(r.Dir, PropertiesFile) }
func (r *RecordingProject) FramesPath() string     { return filepath.Join(r.Dir, FramesFile) }
func (r *RecordingProject) EventsPath() string     { return filepath.Join(r.Dir, EventsFile) }

// FrameBytes is the size of one full-canvas frame payload.
func (r *RecordingProject) FrameBytes() int {
	return r.Width * r.Height * int(r.ChannelCount) * int(r.BitsPerChannel) / 8
}

// EndTimestamp returns the first tick after the recording: the last frame
// lasts its delay and every sample at least one tick. Zero when empty.
func (r *RecordingProject) EndTimestamp() uint64 {
	var end uint64
	for _, f := range r.Frames {
		d := uint64(max(f.Delay, 0)) * TicksPerMillisecond
		end = max(end, f.Ticks+max(d, 1))
	}
	for _, e := range r.Events {
		end = max(end, e.TimeStamp()+1)
	}
	return end
}

// Discard deletes the recording directory and forgets its contents.
func (r *RecordingProject) Discard() error {
	if r.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(r.Dir); err != nil {
		return fmt.Errorf("discard recording %s: %w", r.Dir, err)
	}
	r.Frames = nil
	r.Events = nil
	return nil
}

// Creator identification written into properties files.
const (
	AppName    = "pixel-recorder"
	AppVersion = "1.0.0"
)
