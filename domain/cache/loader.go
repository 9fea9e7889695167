package cache

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/soocke/pixel-recorder-go/domain/binio"
	"github.com/soocke/pixel-recorder-go/domain/project"
)

// Open loads the structure of a cached project: properties, tracks,
// sequences and every sub-sequence header. Payloads are skipped; the
// compositor reads them on demand.
func Open(dir string) (*project.CachedProject, error) {
	cp := &project.CachedProject{Dir: dir}
	f, err := os.Open(cp.PropertiesPath())
	if err != nil {
		return nil, fmt.Errorf("open project properties: %w", err)
	}
	err = readProperties(binio.NewReader(bufio.NewReader(f), 0), cp)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("read project properties: %w", err)
	}

	for id := uint16(1); ; id++ {
		path := project.TrackPath(dir, id)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			break
		}
		t, err := openTrack(dir, path)
		if err != nil {
			return nil, err
		}
		if t.ID != id {
			return nil, fmt.Errorf("%w: %s declares id %d", ErrCorrupt, path, t.ID)
		}
		cp.Tracks = append(cp.Tracks, t)
	}
	return cp, nil
}

func openTrack(dir, path string) (*project.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open track: %w", err)
	}
	r := binio.NewReader(bufio.NewReader(f), 0)
	t, count := readTrack(r)
	f.Close()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read track %s: %w", path, err)
	}
	t.CachePath = path
	for id := 1; id <= count; id++ {
		seq, err := openSequence(project.SequencePath(dir, t.ID, uint16(id)))
		if err != nil {
			return nil, err
		}
		t.Sequences = append(t.Sequences, seq)
	}
	return t, nil
}

func openSequence(path string) (project.Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sequence: %w", err)
	}
	defer f.Close()
	br := bufio.NewReader(f)
	r := binio.NewReader(br, 0)
	seq, count, err := readSequenceHeader(r)
	if err != nil {
		return nil, fmt.Errorf("read sequence %s: %w", path, err)
	}
	seq.Base().CachePath = path

	// skip moves past a payload by seeking the file and resetting the buffer.
	skip := func(next uint64) error {
		if _, err := f.Seek(int64(next), io.SeekStart); err != nil {
			return err
		}
		br.Reset(f)
		r.Reset(br, next)
		return nil
	}

	var last uint64
	for i := uint32(0); i < count; i++ {
		start := r.Pos()
		typ := project.SubSequenceType(r.U8())
		var ts, dataLength, headerSize uint64
		switch s := seq.(type) {
		case *project.FrameSequence:
			if typ != project.SubSequenceFrame {
				break
			}
			sub := readFrameSub(r)
			sub.StreamPosition = start
			s.Frames = append(s.Frames, sub)
			ts, dataLength, headerSize = sub.TimeStampInTicks, sub.DataLength, project.FrameSubHeaderSize
		case *project.CursorSequence:
			if typ != project.SubSequenceCursor {
				break
			}
			sub := readCursorSub(r)
			sub.StreamPosition = start
			s.Cursors = append(s.Cursors, sub)
			ts, dataLength, headerSize = sub.TimeStampInTicks, sub.DataLength, project.CursorSubHeaderSize
		case *project.KeySequence:
			if typ != project.SubSequenceKey {
				break
			}
			sub := readKeySub(r)
			sub.StreamPosition = start
			s.Keys = append(s.Keys, sub)
			ts, headerSize = sub.TimeStampInTicks, project.KeySubHeaderSize
		}
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("read sub-sequence %d of %s: %w", i, path, err)
		}
		if headerSize == 0 {
			return nil, fmt.Errorf("%w: sub-sequence %d of %s has type %s", ErrCorrupt, i, path, typ)
		}
		if r.Pos() != start+headerSize {
			return nil, &InvariantError{Path: path, What: "sub-sequence header", Expected: start + headerSize, Actual: r.Pos()}
		}
		if ts < last {
			return nil, fmt.Errorf("%w: timestamps decrease at sub-sequence %d of %s", ErrCorrupt, i, path)
		}
		last = ts
		if dataLength > 0 {
			if err := skip(start + headerSize + dataLength); err != nil {
				return nil, fmt.Errorf("skip payload in %s: %w", path, err)
			}
		}
	}
	return seq, nil
}
