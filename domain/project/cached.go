package project

import (
	"fmt"
	"path/filepath"
	"time"
)

// CachedProject is the random-access, track based form of a recording.
type CachedProject struct {
	Name           string
	Dir            string
	Width          int
	Height         int
	HorizontalDpi  float64
	VerticalDpi    float64
	Background     string
	ChannelCount   uint8
	BitsPerChannel uint8
	Source         ProjectSource
	CreationDate   time.Time
	Tracks         []*Track
}

func (p *CachedProject) PropertiesPath() string { return filepath.Join(p.Dir, PropertiesFile) }

// TrackPath is the header file of track id inside dir.
func TrackPath(dir string, id uint16) string {
	return filepath.Join(dir, fmt.Sprintf("Track-%d.cache", id))
}

// SequencePath is the cache file of sequence seqID in track trackID.
func SequencePath(dir string, trackID, seqID uint16) string {
	return filepath.Join(dir, fmt.Sprintf("Sequence-%d-%d.cache", trackID, seqID))
}

// Track groups sequences of one semantic channel.
type Track struct {
	ID        uint16
	Name      string
	IsVisible bool
	IsLocked  bool
	Sequences []Sequence
	CachePath string
}

// Effect is an opaque effect attached to a sequence.
type Effect struct {
	Kind EffectKind
	Data []byte
}
